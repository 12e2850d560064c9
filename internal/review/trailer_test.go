package review

import (
	"strings"
	"testing"
)

const testServer = "https://reviews.apache.org"

func TestExtractRequestID(t *testing.T) {
	tests := []struct {
		name      string
		message   string
		server    string
		wantID    string
		wantFound bool
		wantErr   bool
	}{
		{
			name:      "no trailer",
			message:   "Fixed the frobnicator.\n\nIt was broken.\n",
			wantFound: false,
		},
		{
			name:      "valid trailer",
			message:   "Fixed the frobnicator.\n\nReview: https://reviews.apache.org/r/123\n",
			wantID:    "123",
			wantFound: true,
		},
		{
			name:      "trailing slash on URL",
			message:   "Fixed the frobnicator.\n\nReview: https://reviews.apache.org/r/123/\n",
			wantID:    "123",
			wantFound: true,
		},
		{
			name:      "trailing slash on server",
			message:   "Fixed the frobnicator.\n\nReview: https://reviews.apache.org/r/45\n",
			server:    "https://reviews.apache.org/",
			wantID:    "45",
			wantFound: true,
		},
		{
			name:    "malformed trailer",
			message: "Fixed the frobnicator.\n\nReview: not-a-url\n",
			wantErr: true,
		},
		{
			name:    "trailer for a different server",
			message: "Fixed the frobnicator.\n\nReview: https://example.com/r/123\n",
			wantErr: true,
		},
		{
			name:    "trailer not at end of message",
			message: "Review: https://reviews.apache.org/r/123\n\nMore text after.\n",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := tt.server
			if server == "" {
				server = testServer
			}
			id, found, err := ExtractRequestID(tt.message, server)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ExtractRequestID() error = %v, wantErr %v", err, tt.wantErr)
			}
			if found != tt.wantFound {
				t.Errorf("ExtractRequestID() found = %v, want %v", found, tt.wantFound)
			}
			if id != tt.wantID {
				t.Errorf("ExtractRequestID() id = %q, want %q", id, tt.wantID)
			}
		})
	}
}

func TestTrailerRoundTrip(t *testing.T) {
	// A message carrying the trailer for id 123 yields id 123, and
	// re-deriving the trailer from that id reproduces the same line.
	message := "Fix a bug.\n\nReview: https://reviews.apache.org/r/123"
	id, found, err := ExtractRequestID(message, testServer)
	if err != nil {
		t.Fatalf("ExtractRequestID() error = %v", err)
	}
	if !found || id != "123" {
		t.Fatalf("ExtractRequestID() = %q, %v, want \"123\", true", id, found)
	}
	trailer := FormatTrailer(URL(testServer, id))
	if want := "Review: https://reviews.apache.org/r/123"; trailer != want {
		t.Errorf("FormatTrailer() = %q, want %q", trailer, want)
	}
}

func TestNormalizeURL(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"https://reviews.apache.org/r/45/diff/", "https://reviews.apache.org/r/45"},
		{"https://reviews.apache.org/r/45/diff", "https://reviews.apache.org/r/45"},
		{"https://reviews.apache.org/r/45/", "https://reviews.apache.org/r/45"},
		{"https://reviews.apache.org/r/45", "https://reviews.apache.org/r/45"},
		{"  https://reviews.apache.org/r/45\n", "https://reviews.apache.org/r/45"},
	}
	for _, tt := range tests {
		if got := NormalizeURL(tt.raw); got != tt.want {
			t.Errorf("NormalizeURL(%q) = %q, want %q", tt.raw, got, tt.want)
		}
	}
}

func TestRequestID(t *testing.T) {
	if got := RequestID("https://reviews.apache.org/r/45/diff/"); got != "45" {
		t.Errorf("RequestID() = %q, want %q", got, "45")
	}
}

func TestAppendTrailer(t *testing.T) {
	message := "Fix a bug.\n\nLonger explanation.\n"
	got := AppendTrailer(message, "https://reviews.apache.org/r/7")
	if !strings.HasSuffix(got, "\nReview: https://reviews.apache.org/r/7\n") {
		t.Errorf("AppendTrailer() = %q, trailer not on final line", got)
	}
	if !strings.HasPrefix(got, message) {
		t.Errorf("AppendTrailer() = %q, original message not preserved", got)
	}
}
