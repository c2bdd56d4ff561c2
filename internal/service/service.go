// Package service owns process-wide readiness state and the per-request
// prediction pipeline. The model handle and label set are built exactly once
// during an exclusive startup phase and are immutable afterwards, so request
// handlers read them without locks.
package service

import (
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/adityaks/cattle-api/internal/config"
	"github.com/adityaks/cattle-api/internal/labels"
	"github.com/adityaks/cattle-api/internal/model"
	"github.com/adityaks/cattle-api/internal/preprocess"
	"github.com/adityaks/cattle-api/internal/rank"
)

// State is the service lifecycle state. Single writer (the Service), many
// readers.
type State int32

const (
	Uninitialized State = iota
	Ready
	Failed
	ShuttingDown
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Ready:
		return "ready"
	case Failed:
		return "failed"
	case ShuttingDown:
		return "shutting down"
	default:
		return "unknown"
	}
}

// Service holds the loaded model and label set behind a lifecycle state
// machine: Uninitialized -> Ready on successful startup, Uninitialized ->
// Failed on any startup error, Ready -> ShuttingDown on Close.
type Service struct {
	cfg   config.Config
	state atomic.Int32

	// Written once during Start, before the Ready state is published;
	// read-only afterwards.
	handle  *model.Handle
	classes labels.Set
}

// New returns an Uninitialized service. Call Start before serving requests.
func New(cfg config.Config) *Service {
	return &Service{cfg: cfg}
}

// Start loads the model and builds the label set, blocking until both
// succeed or either fails. On failure the service transitions to Failed and
// refuses all inference; it never reaches Ready.
func (s *Service) Start() error {
	classes, err := labels.Build(s.cfg.Dataset.TrainDir)
	if err != nil {
		s.state.Store(int32(Failed))
		return fmt.Errorf("service: building label set: %w", err)
	}

	handle, err := model.Load(s.cfg.Model.ModelPath, s.cfg.Model.ManifestPath, model.Options{
		ORTLibraryPath: s.cfg.Model.ORTLibraryPath,
	})
	if err != nil {
		s.state.Store(int32(Failed))
		return fmt.Errorf("service: loading model: %w", err)
	}

	// A label/output mismatch means every prediction would be silently
	// wrong; refuse to come up instead.
	if got, want := len(classes), handle.Manifest().NumClasses(); got != want {
		handle.Close()
		s.state.Store(int32(Failed))
		return fmt.Errorf("service: %d class directories but model outputs %d classes", got, want)
	}

	s.handle = handle
	s.classes = classes
	s.state.Store(int32(Ready))

	slog.Info("model loaded",
		"model", s.cfg.Model.ModelPath,
		"classes", len(classes),
		"image_size", handle.Manifest().ImageSize)
	return nil
}

// State reports the current lifecycle state.
func (s *Service) State() State {
	return State(s.state.Load())
}

// ModelLoaded reports whether the service is Ready.
func (s *Service) ModelLoaded() bool {
	return s.State() == Ready
}

// NumClasses is the label count, zero unless Ready. Never touches the model
// handle, so it stays responsive regardless of inference load.
func (s *Service) NumClasses() int {
	return len(s.classes)
}

// ClassNames is the ordered label set. Callers must not modify it.
func (s *Service) ClassNames() []string {
	return s.classes
}

// Predict runs the full per-request pipeline: decode, normalize, forward
// pass, top-k. Decode failures wrap preprocess.ErrDecode; calling before
// Ready returns model.ErrNotLoaded.
func (s *Service) Predict(data []byte) ([]rank.Prediction, error) {
	if s.State() != Ready {
		return nil, model.ErrNotLoaded
	}

	img, err := preprocess.Decode(data)
	if err != nil {
		return nil, err
	}
	tensor := preprocess.Normalize(img, s.handle.Manifest().ImageSize)

	probs, err := s.handle.Infer(tensor)
	if err != nil {
		return nil, err
	}

	return rank.TopK(probs, s.classes, s.cfg.Server.TopK), nil
}

// Close transitions to ShuttingDown and releases model resources. Safe to
// call regardless of the current state.
func (s *Service) Close() {
	s.state.Store(int32(ShuttingDown))
	if s.handle != nil {
		s.handle.Close()
	}
}
