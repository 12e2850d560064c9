// Package prompt asks the operator whether to post or skip each review.
// The mechanics differ by platform: on unix a SIGINT skips, on Windows the
// signal model makes that unreliable so a key press is polled instead.
package prompt

import "errors"

// ErrAborted is returned when the operator asked to stop the whole run
// rather than skip a single review.
var ErrAborted = errors.New("aborted by user")

// Confirmer asks whether the current review should be posted.
type Confirmer interface {
	// ConfirmOrSkip reports true to post, false to skip this review and
	// advance to the next one. ErrAborted terminates the run.
	ConfirmOrSkip() (bool, error)
}
