package preprocessing

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/irisml/pkg/errors"
)

func TestStandardScaler(t *testing.T) {
	X := mat.NewDense(4, 2, []float64{
		1, 5,
		2, 5,
		3, 5,
		4, 5,
	})
	s := NewStandardScalerDefault()
	Xs, err := s.FitTransform(X)
	if err != nil {
		t.Fatalf("FitTransform: %v", err)
	}

	if s.Mean[0] != 2.5 || s.Mean[1] != 5 {
		t.Errorf("Mean = %v", s.Mean)
	}
	// population std of 1..4
	if math.Abs(s.Scale[0]-math.Sqrt(1.25)) > 1e-12 {
		t.Errorf("Scale[0] = %v", s.Scale[0])
	}
	if s.Scale[1] != 1 {
		t.Errorf("constant column scale = %v, want 1", s.Scale[1])
	}
	if got := mat.Sum(Xs.ColView(0)); math.Abs(got) > 1e-12 {
		t.Errorf("standardized column mean != 0: sum=%v", got)
	}

	back, err := s.InverseTransform(Xs)
	if err != nil {
		t.Fatalf("InverseTransform: %v", err)
	}
	if !mat.EqualApprox(back, X, 1e-12) {
		t.Errorf("InverseTransform = %v", mat.Formatted(back))
	}
}

func TestStandardScalerErrors(t *testing.T) {
	s := NewStandardScalerDefault()

	var nf *errors.NotFittedError
	if _, err := s.Transform(mat.NewDense(1, 2, nil)); !errors.As(err, &nf) {
		t.Errorf("Transform before Fit: got %v", err)
	}

	if err := s.Fit(mat.NewDense(2, 2, []float64{1, 2, 3, 4})); err != nil {
		t.Fatal(err)
	}
	var se *errors.ShapeError
	if _, err := s.Transform(mat.NewDense(1, 3, nil)); !errors.As(err, &se) {
		t.Fatalf("expected ShapeError, got %v", err)
	}
	if se.Expected[1] != 2 || se.Got[1] != 3 {
		t.Errorf("ShapeError = %+v", se)
	}
}

func TestStandardScalerParamsRoundTrip(t *testing.T) {
	s := NewStandardScalerDefault()
	X := mat.NewDense(3, 1, []float64{1, 2, 6})
	if err := s.Fit(X); err != nil {
		t.Fatal(err)
	}
	p, err := s.Params()
	if err != nil {
		t.Fatal(err)
	}
	restored, err := NewStandardScalerFromParams(p)
	if err != nil {
		t.Fatalf("NewStandardScalerFromParams: %v", err)
	}
	a, _ := s.Transform(X)
	b, _ := restored.Transform(X)
	if !mat.Equal(a, b) {
		t.Errorf("restored scaler differs: %v vs %v", mat.Formatted(a), mat.Formatted(b))
	}

	if _, err := NewStandardScalerFromParams(nil); err == nil {
		t.Error("expected error for nil params")
	}
}
