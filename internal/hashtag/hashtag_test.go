package hashtag

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHas(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		tag      string
		expected bool
	}{
		{
			name:     "tag at end of sentence",
			text:     "Trails open! #trailsopen.",
			tag:      "#trailsopen",
			expected: true,
		},
		{
			name:     "tag among others",
			text:     "Back open! #open #trailclosed",
			tag:      "#trailclosed",
			expected: true,
		},
		{
			name:     "no partial match",
			text:     "everything is #trailsopenagain",
			tag:      "#trailsopen",
			expected: false,
		},
		{
			name:     "case sensitive",
			text:     "see you out there #TrailsOpen",
			tag:      "#trailsopen",
			expected: false,
		},
		{
			name:     "underscores count as tag body",
			text:     "ride on #trails_open",
			tag:      "#trails_open",
			expected: true,
		},
		{
			name:     "plain word without hash",
			text:     "trailsopen everywhere",
			tag:      "#trailsopen",
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Has(tt.text, tt.tag))
		})
	}
}

func TestStrip(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		expected string
	}{
		{
			name:     "tag followed by period",
			text:     "Trails open! #trailsopen.",
			expected: "Trails open!",
		},
		{
			name:     "multiple tags",
			text:     "Back open! #open #trailclosed",
			expected: "Back open!",
		},
		{
			name:     "tag mid sentence",
			text:     "Closed #closed until further notice",
			expected: "Closed until further notice",
		},
		{
			name:     "hyphenated tag",
			text:     "see you #trail-report",
			expected: "see you",
		},
		{
			name: "underscore tags survive stripping",
			// Underscores aren't part of the strip pattern's tag body, so
			// the token stays behind even though Has would match it.
			text:     "ride on #trails_open",
			expected: "ride on #trails_open",
		},
		{
			name:     "no tags at all",
			text:     "  just a caption  ",
			expected: "just a caption",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Strip(tt.text))
		})
	}
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "#open", Normalize("open"))
	assert.Equal(t, "#open", Normalize("#open"))
	assert.Equal(t, "#open", Normalize("  open "))
	assert.Equal(t, "", Normalize(""))
}
