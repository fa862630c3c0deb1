// Package model provides state management, shared interfaces and weight
// persistence for irisml models.
package model

import (
	"sync"

	"github.com/YuminosukeSato/irisml/pkg/errors"
)

// State is the lifecycle stage of a model.
type State int

const (
	// Uninitialized はパラメータが未確保の状態
	Uninitialized State = iota
	// Ready はパラメータが初期化済みで学習可能な状態
	Ready
	// Fitted は少なくとも一度学習が完了した状態
	Fitted
)

// String returns the name of the state.
func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Ready:
		return "ready"
	case Fitted:
		return "fitted"
	default:
		return "unknown"
	}
}

// StateManager tracks a model's lifecycle and dimensions in a thread-safe manner.
// Models hold it by composition.
type StateManager struct {
	mu    sync.RWMutex
	state State

	nFeatures int
	nClasses  int
	nSamples  int
}

// NewStateManager creates a StateManager in the Uninitialized state.
func NewStateManager() *StateManager {
	return &StateManager{state: Uninitialized}
}

// State returns the current lifecycle stage.
func (s *StateManager) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// IsInitialized reports whether parameters exist (Ready or Fitted).
func (s *StateManager) IsInitialized() bool {
	return s.State() != Uninitialized
}

// IsFitted reports whether the model has completed a fit.
func (s *StateManager) IsFitted() bool {
	return s.State() == Fitted
}

// SetReady records the parameter dimensions and moves to Ready.
// A previously fitted model is reset to Ready as well.
func (s *StateManager) SetReady(nFeatures, nClasses int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = Ready
	s.nFeatures = nFeatures
	s.nClasses = nClasses
	s.nSamples = 0
}

// SetFitted moves to Fitted and records the number of training samples.
func (s *StateManager) SetFitted(nSamples int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = Fitted
	s.nSamples = nSamples
}

// Reset returns to Uninitialized and clears dimensions.
func (s *StateManager) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = Uninitialized
	s.nFeatures = 0
	s.nClasses = 0
	s.nSamples = 0
}

// Dimensions returns the feature and class counts fixed at initialization.
func (s *StateManager) Dimensions() (nFeatures, nClasses int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.nFeatures, s.nClasses
}

// NSamples returns the number of rows seen by the last fit.
func (s *StateManager) NSamples() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.nSamples
}

// RequireInitialized returns a NotFittedError while the model is Uninitialized.
func (s *StateManager) RequireInitialized(modelName, method string) error {
	if !s.IsInitialized() {
		return errors.NewNotFittedError(modelName, method)
	}
	return nil
}

// RequireFitted returns a NotFittedError unless the model is Fitted.
func (s *StateManager) RequireFitted(modelName, method string) error {
	if !s.IsFitted() {
		return errors.NewNotFittedError(modelName, method)
	}
	return nil
}

// ModelState is a snapshot of a StateManager, used for logging and debugging.
type ModelState struct {
	State     string `json:"state"`
	NFeatures int    `json:"n_features,omitempty"`
	NClasses  int    `json:"n_classes,omitempty"`
	NSamples  int    `json:"n_samples,omitempty"`
}

// GetState returns the current state as a ModelState struct.
func (s *StateManager) GetState() ModelState {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return ModelState{
		State:     s.state.String(),
		NFeatures: s.nFeatures,
		NClasses:  s.nClasses,
		NSamples:  s.nSamples,
	}
}
