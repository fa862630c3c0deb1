package preprocessing

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/irisml/datasets"
	"github.com/YuminosukeSato/irisml/pkg/errors"
)

// EncodedDataset is the numeric form of a Dataset.
// Row i of X and Y describe the same sample; each Y row has exactly one 1.
type EncodedDataset struct {
	X            *mat.Dense // N×D
	Y            *mat.Dense // N×C
	Classes      []string
	FeatureNames []string
}

// Len returns N. A subset with no rows has nil matrices and length 0.
func (e *EncodedDataset) Len() int {
	if e.X == nil {
		return 0
	}
	r, _ := e.X.Dims()
	return r
}

// NumFeatures returns D.
func (e *EncodedDataset) NumFeatures() int {
	return len(e.FeatureNames)
}

// NumClasses returns C.
func (e *EncodedDataset) NumClasses() int {
	return len(e.Classes)
}

// Rows returns the samples at idx, in idx order, with the same class order.
func (e *EncodedDataset) Rows(idx []int) *EncodedDataset {
	sub := &EncodedDataset{
		Classes:      e.Classes,
		FeatureNames: e.FeatureNames,
	}
	if len(idx) == 0 {
		return sub
	}
	_, d := e.X.Dims()
	_, c := e.Y.Dims()
	sub.X = mat.NewDense(len(idx), d, nil)
	sub.Y = mat.NewDense(len(idx), c, nil)
	for i, row := range idx {
		sub.X.SetRow(i, e.X.RawRowView(row))
		sub.Y.SetRow(i, e.Y.RawRowView(row))
	}
	return sub
}

// LabelIndices returns the class index of every row.
func (e *EncodedDataset) LabelIndices() []int {
	n := e.Len()
	idx := make([]int, n)
	for i := 0; i < n; i++ {
		idx[i] = floats.MaxIdx(e.Y.RawRowView(i))
	}
	return idx
}

// EncodeFeatures returns the N×D feature matrix in FeatureNames order, or nil
// for an empty dataset.
func EncodeFeatures(ds *datasets.Dataset) *mat.Dense {
	if ds.Len() == 0 || ds.NumFeatures() == 0 {
		return nil
	}
	X := mat.NewDense(ds.Len(), ds.NumFeatures(), nil)
	for i, s := range ds.Samples {
		X.SetRow(i, s.Features)
	}
	return X
}

// EncodeLabels fits a sorted-order encoder on ds and returns the one-hot
// matrix with its class order.
func EncodeLabels(ds *datasets.Dataset) (*mat.Dense, []string, error) {
	enc := NewOneHotEncoder(OrderSorted)
	Y, err := enc.FitTransform(ds.Labels())
	if err != nil {
		return nil, nil, err
	}
	return Y, enc.Classes(), nil
}

// Encode converts ds with an already fitted encoder. A label outside the
// encoder's class set fails with EncodingError.
func Encode(ds *datasets.Dataset, enc *OneHotEncoder) (*EncodedDataset, error) {
	if ds.Len() == 0 {
		return nil, errors.NewValueError("Encode", "dataset has no samples")
	}
	for i, s := range ds.Samples {
		if len(s.Features) != ds.NumFeatures() {
			return nil, errors.NewShapeError("Encode", []int{-1, ds.NumFeatures()}, []int{i, len(s.Features)})
		}
	}
	Y, err := enc.Transform(ds.Labels())
	if err != nil {
		return nil, err
	}
	return &EncodedDataset{
		X:            EncodeFeatures(ds),
		Y:            Y,
		Classes:      enc.Classes(),
		FeatureNames: append([]string(nil), ds.FeatureNames...),
	}, nil
}
