// Package preprocessing turns loaded datasets into numeric matrices: one-hot
// label encoding, feature extraction and standardization.
package preprocessing

import (
	"fmt"
	"sort"

	"github.com/samber/lo"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/irisml/pkg/errors"
)

// LabelOrder decides how the class order is fixed when an encoder is fitted.
type LabelOrder int

const (
	// OrderSorted orders classes lexicographically (default).
	OrderSorted LabelOrder = iota
	// OrderFirstSeen orders classes by first appearance in the fitted labels.
	OrderFirstSeen
)

// String returns the configuration name of the order.
func (o LabelOrder) String() string {
	switch o {
	case OrderSorted:
		return "sorted"
	case OrderFirstSeen:
		return "first_seen"
	default:
		return fmt.Sprintf("LabelOrder(%d)", int(o))
	}
}

// ParseLabelOrder parses "sorted" or "first_seen". The empty string means sorted.
func ParseLabelOrder(s string) (LabelOrder, error) {
	switch s {
	case "", "sorted":
		return OrderSorted, nil
	case "first_seen":
		return OrderFirstSeen, nil
	default:
		return OrderSorted, errors.NewValidationError("label_order", "must be sorted or first_seen", s)
	}
}

// OneHotEncoder maps categorical labels to indicator vectors.
//
// The class order is determined once by Fit and reused for every subsequent
// Transform, so rows encoded from different splits share the same columns.
type OneHotEncoder struct {
	order   LabelOrder
	classes []string
	index   map[string]int
}

// NewOneHotEncoder creates an unfitted encoder.
func NewOneHotEncoder(order LabelOrder) *OneHotEncoder {
	return &OneHotEncoder{order: order}
}

// Fit determines the class set and order from labels.
func (e *OneHotEncoder) Fit(labels []string) error {
	if len(labels) == 0 {
		return errors.NewValueError("OneHotEncoder.Fit", "no labels to fit")
	}
	classes := lo.Uniq(labels)
	if e.order == OrderSorted {
		sort.Strings(classes)
	}
	e.classes = classes
	e.index = make(map[string]int, len(classes))
	for i, c := range classes {
		e.index[c] = i
	}
	return nil
}

// IsFitted reports whether Fit has been called successfully.
func (e *OneHotEncoder) IsFitted() bool {
	return e.index != nil
}

// Order returns the configured label order.
func (e *OneHotEncoder) Order() LabelOrder {
	return e.order
}

// Classes returns a copy of the class names in column order.
func (e *OneHotEncoder) Classes() []string {
	return append([]string(nil), e.classes...)
}

// NumClasses returns C.
func (e *OneHotEncoder) NumClasses() int {
	return len(e.classes)
}

// Index returns the column of label.
func (e *OneHotEncoder) Index(label string) (int, error) {
	if !e.IsFitted() {
		return 0, errors.NewNotFittedError("OneHotEncoder", "Index")
	}
	i, ok := e.index[label]
	if !ok {
		return 0, errors.NewEncodingError(label, e.classes)
	}
	return i, nil
}

// TransformIndices maps every label to its class index.
func (e *OneHotEncoder) TransformIndices(labels []string) ([]int, error) {
	if !e.IsFitted() {
		return nil, errors.NewNotFittedError("OneHotEncoder", "TransformIndices")
	}
	idx := make([]int, len(labels))
	for i, label := range labels {
		j, err := e.Index(label)
		if err != nil {
			return nil, err
		}
		idx[i] = j
	}
	return idx, nil
}

// Transform returns an N×C matrix with exactly one 1 per row.
func (e *OneHotEncoder) Transform(labels []string) (*mat.Dense, error) {
	idx, err := e.TransformIndices(labels)
	if err != nil {
		return nil, err
	}
	if len(idx) == 0 {
		return nil, errors.NewValueError("OneHotEncoder.Transform", "no labels to transform")
	}
	Y := mat.NewDense(len(idx), len(e.classes), nil)
	for i, j := range idx {
		Y.Set(i, j, 1)
	}
	return Y, nil
}

// FitTransform fits on labels and encodes them.
func (e *OneHotEncoder) FitTransform(labels []string) (*mat.Dense, error) {
	if err := e.Fit(labels); err != nil {
		return nil, err
	}
	return e.Transform(labels)
}

// InverseTransform maps class indices back to labels.
func (e *OneHotEncoder) InverseTransform(idx []int) ([]string, error) {
	if !e.IsFitted() {
		return nil, errors.NewNotFittedError("OneHotEncoder", "InverseTransform")
	}
	labels := make([]string, len(idx))
	for i, j := range idx {
		if j < 0 || j >= len(e.classes) {
			return nil, errors.NewValueError("OneHotEncoder.InverseTransform",
				fmt.Sprintf("class index %d out of range [0, %d)", j, len(e.classes)))
		}
		labels[i] = e.classes[j]
	}
	return labels, nil
}
