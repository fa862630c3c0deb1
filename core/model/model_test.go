package model

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/irisml/pkg/errors"
)

func TestStateManagerLifecycle(t *testing.T) {
	s := NewStateManager()
	if s.State() != Uninitialized {
		t.Fatalf("initial state = %v", s.State())
	}
	var nf *errors.NotFittedError
	if err := s.RequireInitialized("SoftmaxRegression", "PredictProba"); !errors.As(err, &nf) {
		t.Fatalf("expected NotFittedError, got %v", err)
	}

	s.SetReady(4, 3)
	if !s.IsInitialized() || s.IsFitted() {
		t.Fatalf("state after SetReady = %v", s.State())
	}
	if err := s.RequireInitialized("m", "x"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := s.RequireFitted("m", "x"); err == nil {
		t.Fatal("expected error for Ready model")
	}
	if d, c := s.Dimensions(); d != 4 || c != 3 {
		t.Errorf("Dimensions() = (%d, %d)", d, c)
	}

	s.SetFitted(120)
	if !s.IsFitted() || s.NSamples() != 120 {
		t.Errorf("state = %+v", s.GetState())
	}
	if got := s.GetState().State; got != "fitted" {
		t.Errorf("GetState().State = %q", got)
	}

	s.Reset()
	if s.State() != Uninitialized {
		t.Errorf("state after Reset = %v", s.State())
	}
}

func fittedWeights() *ModelWeights {
	w := &ModelWeights{
		ModelType:       "SoftmaxRegression",
		Version:         WeightsVersion,
		Intercept:       []float64{0.1, -0.1},
		Classes:         []string{"A", "B"},
		Features:        []string{"x1", "x2", "x3"},
		Scaler:          &ScalerParams{Mean: []float64{1, 2, 3}, Scale: []float64{1, 1, 2}},
		Hyperparameters: map[string]interface{}{"solver": "adam"},
		Metadata:        map[string]interface{}{"n_samples": 10},
		IsFitted:        true,
	}
	w.SetCoefMatrix(mat.NewDense(3, 2, []float64{1, 2, 3, 4, 5, 6}))
	return w
}

func TestModelWeightsValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(w *ModelWeights)
		wantErr bool
	}{
		{"valid", func(w *ModelWeights) {}, false},
		{"missing type", func(w *ModelWeights) { w.ModelType = "" }, true},
		{"missing version", func(w *ModelWeights) { w.Version = "" }, true},
		{"short intercept", func(w *ModelWeights) { w.Intercept = w.Intercept[:1] }, true},
		{"ragged coefficients", func(w *ModelWeights) { w.Coefficients[1] = []float64{1} }, true},
		{"wrong class count", func(w *ModelWeights) { w.Classes = []string{"A"} }, true},
		{"wrong feature count", func(w *ModelWeights) { w.Features = []string{"x1"} }, true},
		{"bad scaler", func(w *ModelWeights) { w.Scaler.Scale = nil }, true},
		{"unfitted with coefficients", func(w *ModelWeights) { w.IsFitted = false }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := fittedWeights()
			tt.mutate(w)
			err := w.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestModelWeightsCloneIsDeep(t *testing.T) {
	w := fittedWeights()
	c := w.Clone()
	c.Coefficients[0][0] = 100
	c.Scaler.Mean[0] = 100
	c.Classes[0] = "Z"
	if w.Coefficients[0][0] != 1 || w.Scaler.Mean[0] != 1 || w.Classes[0] != "A" {
		t.Error("Clone shares memory with the original")
	}
}

func TestJSONRoundTrip(t *testing.T) {
	w := fittedWeights()
	var buf bytes.Buffer
	if err := WriteJSON(w, &buf); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}
	if !strings.Contains(buf.String(), `"n_classes": 2`) {
		t.Errorf("artifact missing n_classes: %s", buf.String())
	}

	got, err := ReadJSON(&buf)
	if err != nil {
		t.Fatalf("ReadJSON: %v", err)
	}
	if !mat.Equal(got.CoefMatrix(), w.CoefMatrix()) {
		t.Errorf("coefficients differ: %v", got.Coefficients)
	}
	if got.Classes[1] != "B" || got.Intercept[0] != 0.1 || got.Scaler.Scale[2] != 2 {
		t.Errorf("round trip mismatch: %+v", got)
	}
}

func TestSaveLoadJSONFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.json")
	if err := SaveJSON(fittedWeights(), path); err != nil {
		t.Fatalf("SaveJSON: %v", err)
	}
	got, err := LoadJSON(path)
	if err != nil {
		t.Fatalf("LoadJSON: %v", err)
	}
	if got.NFeatures != 3 || got.NClasses != 2 || !got.IsFitted {
		t.Errorf("unexpected weights: %+v", got)
	}

	if _, err := LoadJSON(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestReadJSONRejectsInvalid(t *testing.T) {
	var shapeErr *errors.ShapeError
	_, err := ReadJSON(strings.NewReader(`{"model_type":"SoftmaxRegression","version":"1.0.0",
		"n_features":2,"n_classes":2,"coefficients":[[1,2]],"intercept":[0,0],"is_fitted":true}`))
	if !errors.As(err, &shapeErr) {
		t.Fatalf("expected ShapeError, got %v", err)
	}

	if _, err := ReadJSON(strings.NewReader("{not json")); err == nil {
		t.Error("expected error for malformed JSON")
	}
}
