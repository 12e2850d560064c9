package review

import (
	"fmt"
	"path"
	"regexp"
	"strings"
)

// TrailerKey is the trailer key used to associate a commit with its review
// request, as in "Review: https://reviews.apache.org/r/123".
const TrailerKey = "Review"

// URL derives the review URL for a request id on the given server.
func URL(serverURL, id string) string {
	return strings.TrimRight(serverURL, "/") + "/r/" + id
}

// FormatTrailer formats the review trailer line for a URL.
func FormatTrailer(url string) string {
	return TrailerKey + ": " + url
}

// AppendTrailer appends the review trailer as the final line of a commit
// message.
func AppendTrailer(message, url string) string {
	return message + "\n" + FormatTrailer(url) + "\n"
}

// NormalizeURL strips a trailing "diff/" segment and trailing slashes from a
// review URL. Newer rbt releases print the diff URL rather than the review
// URL, and the extra segment breaks request-id lookup on re-submission.
func NormalizeURL(raw string) string {
	url := strings.TrimRight(strings.TrimSpace(raw), "/")
	url = strings.TrimSuffix(url, "/diff")
	return strings.TrimRight(url, "/")
}

// RequestID returns the review request id encoded in a review URL: its final
// path segment after normalization.
func RequestID(url string) string {
	return path.Base(NormalizeURL(url))
}

// ExtractRequestID looks for a review trailer at the end of a commit message
// and returns the request id it carries. found is false when the message has
// no trailer at all. A trailer that is present but does not match the
// server's URL pattern is an error: the message has to be fixed by hand
// before the commit can be re-submitted.
func ExtractRequestID(message, serverURL string) (id string, found bool, err error) {
	pos := strings.Index(message, TrailerKey+":")
	if pos == -1 {
		return "", false, nil
	}
	// Strip trailing slashes off the server URL so the pattern doesn't end
	// up looking for two slashes, e.g. "reviews.apache.org//r/".
	base := strings.TrimRight(serverURL, "/")
	pattern := regexp.MustCompile(TrailerKey + `: (` + regexp.QuoteMeta(base) + `/r/[0-9]+)$`)
	match := pattern.FindStringSubmatch(strings.TrimRight(strings.TrimSpace(message), "/"))
	if match == nil {
		return "", false, fmt.Errorf("invalid ReviewBoard URL: %q", strings.TrimSpace(message[pos:]))
	}
	return path.Base(match[1]), true, nil
}
