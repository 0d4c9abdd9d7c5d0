package errors_test

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	rngerrs "github.com/jdholdren/ranger/internal/errors"
)

func TestEConstructor(t *testing.T) {
	got := rngerrs.E(
		"something went wrong",
		rngerrs.Detail{Field: "name", Error: "was bad"},
		http.StatusBadRequest,
	)
	want := &rngerrs.Error{
		Err: errors.New("something went wrong"),
		Details: []rngerrs.Detail{
			{Field: "name", Error: "was bad"},
		},
		Status: http.StatusBadRequest,
	}

	assert.Equal(t, want, got)
}
