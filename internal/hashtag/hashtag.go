// Package hashtag matches and strips '#' control tokens in post captions.
package hashtag

import (
	"regexp"
	"strings"
)

// The two patterns are intentionally different: extraction accepts
// underscores in the tag body, stripping does not. Unifying them would
// change matching behavior for tags containing underscores, so both are
// pinned by tests.
var (
	tokenPattern = regexp.MustCompile(`#\w+`)
	stripPattern = regexp.MustCompile(`#[a-zA-Z0-9-]+(\s|\.|$)`)
)

// Has reports whether tag appears in text as an exact, case-sensitive
// hashtag token. The tag must carry its leading '#'.
func Has(text, tag string) bool {
	for _, match := range tokenPattern.FindAllString(text, -1) {
		if match == tag {
			return true
		}
	}

	return false
}

// Strip removes every hashtag token (along with its trailing boundary) from
// text and trims the result, leaving a displayable message.
func Strip(text string) string {
	return strings.TrimSpace(stripPattern.ReplaceAllString(text, ""))
}

// Normalize ensures a tag carries its leading '#'.
func Normalize(tag string) string {
	tag = strings.TrimSpace(tag)
	if tag == "" || strings.HasPrefix(tag, "#") {
		return tag
	}

	return "#" + tag
}
