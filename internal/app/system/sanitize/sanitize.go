// Package sanitize strips markup from user-supplied free text.
//
// Titles, descriptions, comments, and chat messages are plain text in this
// API, so the strict policy (everything stripped) applies to all of them.
package sanitize

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var strict = bluemonday.StrictPolicy()

// Text removes all HTML from s and trims surrounding whitespace.
func Text(s string) string {
	return strings.TrimSpace(strict.Sanitize(s))
}
