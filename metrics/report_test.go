package metrics

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/irisml/pkg/errors"
)

func TestClassificationReport(t *testing.T) {
	truth := []int{0, 0, 1, 1, 2, 2, 2}
	pred := []int{0, 1, 1, 1, 2, 0, 2}
	cm, err := NewConfusionMatrix(pred, truth, 3)
	require.NoError(t, err)

	r, err := ClassificationReport(cm, []string{"a", "b", "c"})
	require.NoError(t, err)
	require.Len(t, r.Classes, 3)

	a := r.Classes[0]
	assert.Equal(t, "a", a.Label)
	assert.InDelta(t, 0.5, a.Precision, 1e-12)
	assert.InDelta(t, 0.5, a.Recall, 1e-12)
	assert.InDelta(t, 0.5, a.F1, 1e-12)
	assert.Equal(t, 2, a.Support)

	b := r.Classes[1]
	assert.InDelta(t, 2.0/3, b.Precision, 1e-12)
	assert.InDelta(t, 1.0, b.Recall, 1e-12)
	assert.InDelta(t, 0.8, b.F1, 1e-12)

	c := r.Classes[2]
	assert.InDelta(t, 1.0, c.Precision, 1e-12)
	assert.InDelta(t, 2.0/3, c.Recall, 1e-12)

	assert.InDelta(t, 5.0/7, r.Accuracy, 1e-12)
	assert.Equal(t, 7, r.Total)
	assert.InDelta(t, (0.5+2.0/3+1.0)/3, r.MacroPrecision, 1e-12)
	assert.InDelta(t, (2*0.5+2*1.0+3*2.0/3)/7, r.WeightedRecall, 1e-12)
}

func TestClassificationReportUndefined(t *testing.T) {
	var warned []string
	errors.SetZerologWarnFunc(func(err error) {
		var w *errors.UndefinedMetricWarning
		if errors.As(err, &w) {
			warned = append(warned, w.Metric)
		}
	})
	defer errors.SetZerologWarnFunc(nil)

	// class 1 is never predicted and class 2 never occurs
	cm, err := NewConfusionMatrix([]int{0, 0}, []int{0, 1}, 3)
	require.NoError(t, err)

	r, err := ClassificationReport(cm, []string{"a", "b", "c"})
	require.NoError(t, err)
	assert.Equal(t, 0.0, r.Classes[1].Precision)
	assert.Equal(t, 0.0, r.Classes[2].Recall)
	assert.Equal(t, 0.0, r.Classes[2].F1)
	assert.Contains(t, warned, "precision")
	assert.Contains(t, warned, "recall")
}

func TestClassificationReportEmpty(t *testing.T) {
	errors.SetZerologWarnFunc(func(error) {})
	defer errors.SetZerologWarnFunc(nil)

	cm, err := NewConfusionMatrix(nil, nil, 2)
	require.NoError(t, err)

	r, err := ClassificationReport(cm, []string{"a", "b"})
	require.NoError(t, err)
	for _, m := range r.Classes {
		assert.Equal(t, 0.0, m.Precision)
		assert.Equal(t, 0.0, m.Recall)
		assert.Equal(t, 0.0, m.F1)
	}
	assert.Equal(t, 0.0, r.WeightedPrecision)
	assert.Equal(t, 0.0, r.WeightedF1)
}

func TestClassificationReportShape(t *testing.T) {
	cm, err := NewConfusionMatrix([]int{0}, []int{0}, 2)
	require.NoError(t, err)

	_, err = ClassificationReport(cm, []string{"only"})
	var se *errors.ShapeError
	assert.True(t, errors.As(err, &se))
}

func TestWriteTables(t *testing.T) {
	cm, err := NewConfusionMatrix([]int{0, 1, 1}, []int{0, 1, 0}, 2)
	require.NoError(t, err)
	classes := []string{"setosa", "virginica"}

	var buf bytes.Buffer
	require.NoError(t, WriteConfusionTable(&buf, cm, classes))
	out := buf.String()
	assert.Contains(t, out, "setosa")
	assert.Contains(t, out, "virginica")

	r, err := ClassificationReport(cm, classes)
	require.NoError(t, err)

	buf.Reset()
	require.NoError(t, WriteReportTable(&buf, r))
	out = buf.String()
	assert.Contains(t, out, "0.6667")
	assert.Contains(t, out, "setosa")

	assert.Error(t, WriteConfusionTable(&buf, cm, []string{"x"}))
}
