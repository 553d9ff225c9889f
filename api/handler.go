// Package api exposes matrix upload, listing and distributed multiplication
// over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"distmul/matrix"
	"distmul/orchestrator"
	"distmul/store"
	"distmul/utils"

	"github.com/google/uuid"
)

// MaxUploadBytes bounds the size of one uploaded matrix file.
const MaxUploadBytes = 256 << 20

// Multiplier runs one distributed multiplication.
type Multiplier interface {
	MultiplyStats(ctx context.Context, a, b *matrix.Matrix, p orchestrator.Policy) (*matrix.Matrix, *utils.DispatchStats, error)
}

// Handler serves the matrix endpoints.
type Handler struct {
	store      *store.Store
	multiplier Multiplier
	defaults   Defaults
}

// NewHandler returns a handler storing uploads in s and multiplying with m.
func NewHandler(s *store.Store, m Multiplier, defaults Defaults) *Handler {
	return &Handler{store: s, multiplier: m, defaults: defaults}
}

// Routes returns the HTTP routes of h.
func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /matrices", h.upload)
	mux.HandleFunc("GET /matrices", h.list)
	mux.HandleFunc("GET /matrices/multiply", h.multiply)
	return mux
}

func (h *Handler) upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxUploadBytes)
	file, _, err := r.FormFile("file")
	if err != nil {
		http.Error(w, fmt.Sprintf("missing matrix file: %v", err), http.StatusBadRequest)
		return
	}
	defer file.Close()

	m, err := matrix.ReadCSV(file)
	if err != nil {
		utils.Logf("API", "Upload rejected: %v", err)
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	id := h.store.Save(m)
	utils.Logf("API", "Stored %dx%d matrix %s", m.Size, m.Size, id)
	writeJSON(w, id.String())
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.store.List())
}

func (h *Handler) multiply(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	idA, errA := uuid.Parse(q.Get("matrixAId"))
	idB, errB := uuid.Parse(q.Get("matrixBId"))
	if errA != nil || errB != nil {
		http.Error(w, "The matrices ID are not well formed.", http.StatusBadRequest)
		return
	}
	mode, err := ParseMode(q.Get("mode"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	deadline, err := intParam(q.Get("deadline"))
	if err != nil {
		http.Error(w, fmt.Sprintf("invalid deadline: %v", err), http.StatusBadRequest)
		return
	}
	leaf, err := intParam(q.Get("matrixSize"))
	if err != nil {
		http.Error(w, fmt.Sprintf("invalid matrixSize: %v", err), http.StatusBadRequest)
		return
	}

	a, err := h.store.Get(idA)
	if err != nil {
		h.fail(w, err)
		return
	}
	b, err := h.store.Get(idB)
	if err != nil {
		h.fail(w, err)
		return
	}

	policy := mode.Policy(a.Size, leaf, time.Duration(deadline)*time.Millisecond, q.Get("server"), h.defaults)
	out, stats, err := h.multiplier.MultiplyStats(r.Context(), a, b, policy)
	if err != nil {
		h.fail(w, err)
		return
	}
	utils.PrintDispatchStats(stats)

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	if err := matrix.WriteText(w, out); err != nil {
		utils.Logf("API", "Writing result failed: %v", err)
	}
}

// fail maps err to a status code. Server-side failures are logged and their
// cause is not returned to the caller.
func (h *Handler) fail(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, orchestrator.ErrShapeMismatch), errors.Is(err, orchestrator.ErrInvalidPolicy):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		utils.Logf("API", "There was an error multiplying the matrices: %v", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

func intParam(s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	return strconv.Atoi(s)
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		utils.Logf("API", "Encoding response failed: %v", err)
	}
}
