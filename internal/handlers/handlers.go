// Package handlers exposes the classifier over HTTP.
package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/adityaks/cattle-api/internal/model"
	"github.com/adityaks/cattle-api/internal/preprocess"
	"github.com/adityaks/cattle-api/internal/rank"
)

// Predictor is the slice of the service the HTTP layer needs.
type Predictor interface {
	ModelLoaded() bool
	NumClasses() int
	ClassNames() []string
	Predict(data []byte) ([]rank.Prediction, error)
}

// Handler serves the classifier endpoints.
type Handler struct {
	svc            Predictor
	maxUploadBytes int64
}

// NewHandler wires the endpoints around a predictor. maxUploadBytes bounds
// request bodies on /predict.
func NewHandler(svc Predictor, maxUploadBytes int64) *Handler {
	return &Handler{svc: svc, maxUploadBytes: maxUploadBytes}
}

type rootResponse struct {
	Message      string   `json:"message"`
	TotalClasses int      `json:"total_classes"`
	ClassNames   []string `json:"class_names"`
}

type healthResponse struct {
	Status      string `json:"status"`
	ModelLoaded bool   `json:"model_loaded"`
	NumClasses  int    `json:"num_classes"`
}

type predictResponse struct {
	PredictedBreed string            `json:"predicted_breed"`
	Confidence     float64           `json:"confidence"`
	Top5           []rank.Prediction `json:"top_5_predictions"`
	Filename       string            `json:"filename"`
}

// errorResponse mirrors the {"detail": ...} error body of the original API;
// every failure is structured JSON, never a bare string.
type errorResponse struct {
	Detail string `json:"detail"`
}

// Root reports API metadata and the ordered class list. It is registered on
// "/", so anything that misses the other routes lands here and 404s.
func (h *Handler) Root(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	classes := h.svc.ClassNames()
	writeJSON(w, http.StatusOK, rootResponse{
		Message:      "Cattle Breed Classifier API",
		TotalClasses: len(classes),
		ClassNames:   classes,
	})
}

// Health reports lifecycle state without touching the model handle, so it
// answers promptly even while inference is saturated.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	writeJSON(w, http.StatusOK, healthResponse{
		Status:      "ok",
		ModelLoaded: h.svc.ModelLoaded(),
		NumClasses:  h.svc.NumClasses(),
	})
}

// Predict classifies a multipart image upload (field name "file").
func (h *Handler) Predict(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if !h.svc.ModelLoaded() {
		writeError(w, http.StatusInternalServerError, "Model not loaded")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "could not parse multipart form: "+err.Error())
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "no file provided; use 'file' as the form field name")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "could not read upload: "+err.Error())
		return
	}

	predictions, err := h.svc.Predict(data)
	if err != nil {
		status, detail := classifyError(err)
		slog.Error("prediction failed", "filename", header.Filename, "status", status, "error", err)
		writeError(w, status, detail)
		return
	}
	if len(predictions) == 0 {
		writeError(w, http.StatusInternalServerError, "model produced no predictions")
		return
	}

	writeJSON(w, http.StatusOK, predictResponse{
		PredictedBreed: predictions[0].Breed,
		Confidence:     predictions[0].Confidence,
		Top5:           predictions,
		Filename:       header.Filename,
	})
}

// classifyError separates client-caused failures from service-side ones:
// undecodable input is the client's fault, everything else (not loaded,
// inference failure) is ours.
func classifyError(err error) (int, string) {
	switch {
	case errors.Is(err, preprocess.ErrDecode):
		return http.StatusBadRequest, "could not decode image: " + err.Error()
	case errors.Is(err, model.ErrNotLoaded):
		return http.StatusInternalServerError, "Model not loaded"
	default:
		return http.StatusInternalServerError, "inference failed: " + err.Error()
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("writing response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, errorResponse{Detail: detail})
}
