// Package datasets loads labelled tabular data for classification.
//
// A Dataset holds one categorical label and D numeric features per sample.
// Samples are immutable once loaded; every sample carries exactly
// len(FeatureNames) features.
package datasets

import (
	"github.com/samber/lo"
)

// Sample is one row of the table.
type Sample struct {
	Features []float64
	Label    string
}

// Dataset is an ordered collection of samples sharing one feature layout.
type Dataset struct {
	FeatureNames []string
	LabelName    string
	Samples      []Sample
}

// Len returns the number of samples.
func (d *Dataset) Len() int {
	return len(d.Samples)
}

// NumFeatures returns D.
func (d *Dataset) NumFeatures() int {
	return len(d.FeatureNames)
}

// Labels returns the label of every sample in row order.
func (d *Dataset) Labels() []string {
	return lo.Map(d.Samples, func(s Sample, _ int) string {
		return s.Label
	})
}

// UniqueLabels returns the distinct labels in first-seen order.
func (d *Dataset) UniqueLabels() []string {
	return lo.Uniq(d.Labels())
}

// ClassCounts returns how many samples carry each label.
func (d *Dataset) ClassCounts() map[string]int {
	return lo.CountValues(d.Labels())
}

// Subset returns a dataset with the samples at idx, in idx order.
// Samples are shared, not copied.
func (d *Dataset) Subset(idx []int) *Dataset {
	return &Dataset{
		FeatureNames: d.FeatureNames,
		LabelName:    d.LabelName,
		Samples: lo.Map(idx, func(i int, _ int) Sample {
			return d.Samples[i]
		}),
	}
}
