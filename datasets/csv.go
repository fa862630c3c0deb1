package datasets

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/samber/lo"

	"github.com/YuminosukeSato/irisml/pkg/errors"
	"github.com/YuminosukeSato/irisml/pkg/log"
)

type options struct {
	labelColumn    string
	featureColumns []string
	dropColumns    []string
	delimiter      rune
	unlabeled      bool
}

// Option configures ReadCSV and LoadCSV.
type Option func(*options)

// WithLabelColumn selects the label column. The default is the last header column.
func WithLabelColumn(name string) Option {
	return func(o *options) {
		o.labelColumn = name
	}
}

// WithFeatureColumns selects the feature columns and their order. The default
// is every column that is neither the label nor dropped, in header order.
func WithFeatureColumns(names ...string) Option {
	return func(o *options) {
		o.featureColumns = append([]string(nil), names...)
	}
}

// WithoutLabel reads a table that has no label column. Every sample gets an
// empty Label and the Dataset has an empty LabelName.
func WithoutLabel() Option {
	return func(o *options) {
		o.unlabeled = true
	}
}

// WithDropColumns ignores the named columns, e.g. a row id.
func WithDropColumns(names ...string) Option {
	return func(o *options) {
		o.dropColumns = append(o.dropColumns, names...)
	}
}

// WithDelimiter sets the field separator. The default is ','.
func WithDelimiter(r rune) Option {
	return func(o *options) {
		o.delimiter = r
	}
}

// LoadCSV opens path and parses it with ReadCSV.
func LoadCSV(path string, opts ...Option) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading dataset %s", path)
	}
	defer f.Close()

	ds, err := ReadCSV(f, opts...)
	if err != nil {
		return nil, errors.Wrapf(err, "parsing CSV file %s", path)
	}
	log.GetLoggerWithName("datasets").Info("Dataset loaded",
		log.OperationKey, log.OperationLoad,
		log.PathKey, path,
		log.SamplesKey, ds.Len(),
		log.FeaturesKey, ds.NumFeatures(),
	)
	return ds, nil
}

// ReadCSV parses a delimited table with a header row. Every selected feature
// cell must be a finite decimal number and every label non-empty; any
// violation yields a FormatError carrying the 1-based line number (the header
// is line 1) and the column name.
func ReadCSV(reader io.Reader, opts ...Option) (*Dataset, error) {
	o := options{delimiter: ','}
	for _, opt := range opts {
		opt(&o)
	}

	r := csv.NewReader(reader)
	r.Comma = o.delimiter
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if err == io.EOF {
		return nil, errors.NewFormatError(1, "", "missing header row")
	}
	if err != nil {
		return nil, csvError(err)
	}
	header = lo.Map(header, func(h string, _ int) string {
		return strings.TrimSpace(h)
	})

	labelIdx, featureIdx, err := resolveColumns(header, o)
	if err != nil {
		return nil, err
	}

	ds := &Dataset{
		FeatureNames: lo.Map(featureIdx, func(i int, _ int) string { return header[i] }),
	}
	if labelIdx >= 0 {
		ds.LabelName = header[labelIdx]
	}
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, csvError(err)
		}
		line, _ := r.FieldPos(0)
		sample, err := parseRow(row, line, header, labelIdx, featureIdx)
		if err != nil {
			return nil, err
		}
		ds.Samples = append(ds.Samples, sample)
	}
	if len(ds.Samples) == 0 {
		return nil, errors.NewFormatError(0, "", "no data rows")
	}
	return ds, nil
}

func resolveColumns(header []string, o options) (int, []int, error) {
	if len(header) == 0 || lo.EveryBy(header, func(h string) bool { return h == "" }) {
		return 0, nil, errors.NewFormatError(1, "", "empty header row")
	}
	index := make(map[string]int, len(header))
	for i, h := range header {
		if h == "" {
			return 0, nil, errors.NewFormatError(1, "", fmt.Sprintf("column %d has an empty name", i+1))
		}
		if _, dup := index[h]; dup {
			return 0, nil, errors.NewFormatError(1, h, "duplicate column name")
		}
		index[h] = i
	}
	lookup := func(name string) (int, error) {
		i, ok := index[name]
		if !ok {
			return 0, errors.NewFormatError(1, name, "column not found in header")
		}
		return i, nil
	}

	dropped := make(map[int]bool, len(o.dropColumns))
	for _, name := range o.dropColumns {
		i, err := lookup(name)
		if err != nil {
			return 0, nil, err
		}
		dropped[i] = true
	}

	labelIdx := -1
	switch {
	case o.unlabeled:
	case o.labelColumn != "":
		i, err := lookup(o.labelColumn)
		if err != nil {
			return 0, nil, err
		}
		labelIdx = i
	default:
		for i := len(header) - 1; i >= 0; i-- {
			if !dropped[i] {
				labelIdx = i
				break
			}
		}
	}
	if !o.unlabeled && (labelIdx < 0 || dropped[labelIdx]) {
		return 0, nil, errors.NewFormatError(1, o.labelColumn, "no label column available")
	}

	var featureIdx []int
	if len(o.featureColumns) > 0 {
		for _, name := range o.featureColumns {
			i, err := lookup(name)
			if err != nil {
				return 0, nil, err
			}
			if i == labelIdx || dropped[i] {
				return 0, nil, errors.NewFormatError(1, name, "label or dropped column cannot be a feature")
			}
			featureIdx = append(featureIdx, i)
		}
	} else {
		for i := range header {
			if i != labelIdx && !dropped[i] {
				featureIdx = append(featureIdx, i)
			}
		}
	}
	if len(featureIdx) == 0 {
		return 0, nil, errors.NewFormatError(1, "", "no feature columns")
	}
	return labelIdx, featureIdx, nil
}

func parseRow(row []string, line int, header []string, labelIdx int, featureIdx []int) (Sample, error) {
	if len(row) != len(header) {
		return Sample{}, errors.NewFormatError(line, "",
			fmt.Sprintf("expected %d fields, got %d", len(header), len(row)))
	}
	features := make([]float64, len(featureIdx))
	for j, col := range featureIdx {
		cell := strings.TrimSpace(row[col])
		v, err := strconv.ParseFloat(cell, 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			return Sample{}, errors.NewFormatError(line, header[col],
				fmt.Sprintf("invalid numeric value %q", cell))
		}
		features[j] = v
	}
	if labelIdx < 0 {
		return Sample{Features: features}, nil
	}
	label := strings.TrimSpace(row[labelIdx])
	if label == "" {
		return Sample{}, errors.NewFormatError(line, header[labelIdx], "empty label")
	}
	return Sample{Features: features, Label: label}, nil
}

func csvError(err error) error {
	var pe *csv.ParseError
	if errors.As(err, &pe) {
		return errors.NewFormatError(pe.Line, "", pe.Err.Error())
	}
	return errors.Wrap(err, "reading CSV")
}
