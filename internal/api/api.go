package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	rngerrs "github.com/jdholdren/ranger/internal/errors"
	"github.com/jdholdren/ranger/internal/ranger"
)

func writeJSON(w http.ResponseWriter, status int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		return fmt.Errorf("error encoding json response: %s", err)
	}

	return nil
}

// validator is a surface that can validate itself and return an error
// if something is wrong.
type validator interface {
	Validate() error
}

// decodeValid decodes a request and then validates it.
func decodeValid[V validator](r io.Reader) (V, error) {
	var v V
	if err := json.NewDecoder(r).Decode(&v); err != nil {
		return v, rngerrs.E(http.StatusBadRequest, fmt.Errorf("error decoding request: %w", err))
	}
	if err := v.Validate(); err != nil {
		return v, err
	}

	return v, nil
}

// HandlerFuncE is a modified type of [http.HandlerFunc] that returns an error.
type HandlerFuncE func(w http.ResponseWriter, r *http.Request) error

func (f HandlerFuncE) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	err := f(w, r)
	if err == nil {
		return
	}

	// Either it's already a structured error, or coerce it to one
	sErr := &rngerrs.Error{}
	if !errors.As(err, &sErr) {
		switch {
		case errors.Is(err, ranger.ErrNotFound):
			sErr = rngerrs.E(http.StatusNotFound, "not found")
		case errors.Is(err, ranger.ErrConflict):
			sErr = rngerrs.E(http.StatusConflict, "conflict")
		default:
			slog.Error("unstructured handler error", "err", err)
			sErr = rngerrs.E(http.StatusInternalServerError, "internal server error")
		}
	}

	if err := writeJSON(w, sErr.Status, sErr); err != nil {
		slog.Error("error writing response", "error", err)
	}
}

// errRouter is a newtype around a mux router that allows attaching handlers that return errors.
type errRouter struct {
	*mux.Router
}

func (r errRouter) HandleFuncE(path string, f HandlerFuncE) *mux.Route {
	return r.Handle(path, f)
}
