package pipeline

import (
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/irisml/config"
	"github.com/YuminosukeSato/irisml/core/model"
	"github.com/YuminosukeSato/irisml/datasets"
	"github.com/YuminosukeSato/irisml/metrics"
	"github.com/YuminosukeSato/irisml/pkg/errors"
	"github.com/YuminosukeSato/irisml/pkg/log"
	"github.com/YuminosukeSato/irisml/preprocessing"
	"github.com/YuminosukeSato/irisml/sklearn/linear_model"
)

// Predictor applies a saved artifact to new rows.
type Predictor struct {
	model   *linear_model.SoftmaxRegression
	scaler  *preprocessing.StandardScaler
	classes []string
	feats   []string
}

// Prediction holds the output of Predictor.Predict.
type Prediction struct {
	Labels  []string
	Indices []int
	Proba   *mat.Dense
	// Accuracy is set only when the input rows carry labels.
	Accuracy    float64
	HasAccuracy bool
}

// NewPredictor restores a predictor from exported weights. The artifact must
// name its classes and features.
func NewPredictor(w *model.ModelWeights) (*Predictor, error) {
	if w == nil {
		return nil, errors.NewValueError("NewPredictor", "weights must not be nil")
	}
	if len(w.Classes) == 0 || len(w.Features) == 0 {
		return nil, errors.NewValidationError("classes/features", "artifact must name its classes and features",
			[]int{len(w.Classes), len(w.Features)})
	}
	m := linear_model.NewSoftmaxRegression()
	if err := m.ImportWeights(w); err != nil {
		return nil, err
	}
	p := &Predictor{
		model:   m,
		classes: append([]string(nil), w.Classes...),
		feats:   append([]string(nil), w.Features...),
	}
	if w.Scaler != nil {
		s, err := preprocessing.NewStandardScalerFromParams(w.Scaler)
		if err != nil {
			return nil, err
		}
		p.scaler = s
	}
	return p, nil
}

// LoadPredictor reads an artifact written by Run.
func LoadPredictor(path string) (*Predictor, error) {
	w, err := model.LoadJSON(path)
	if err != nil {
		return nil, err
	}
	return NewPredictor(w)
}

// Classes returns the class names in column order.
func (p *Predictor) Classes() []string {
	return append([]string(nil), p.classes...)
}

// Features returns the feature names the model expects, in order.
func (p *Predictor) Features() []string {
	return append([]string(nil), p.feats...)
}

// LoadDataset reads the rows to score. The artifact's feature names select the
// columns; when the table has no label column set labeled to false.
func (p *Predictor) LoadDataset(cfg config.DataConfig, labeled bool) (*datasets.Dataset, error) {
	if cfg.Path == "" {
		return nil, errors.NewValidationError("data.path", "is required for prediction", cfg.Path)
	}
	opts := []datasets.Option{datasets.WithFeatureColumns(p.feats...)}
	if cfg.Delimiter != 0 {
		opts = append(opts, datasets.WithDelimiter(rune(cfg.Delimiter)))
	}
	if !labeled {
		opts = append(opts, datasets.WithoutLabel())
	} else if cfg.LabelColumn != "" {
		opts = append(opts, datasets.WithLabelColumn(cfg.LabelColumn))
	}
	if len(cfg.DropColumns) > 0 {
		opts = append(opts, datasets.WithDropColumns(cfg.DropColumns...))
	}
	return datasets.LoadCSV(cfg.Path, opts...)
}

// Predict scores every sample of ds. Features are matched by name, so ds may
// list columns in any order. Labeled rows also yield an accuracy; a label
// the model never saw fails with EncodingError.
func (p *Predictor) Predict(ds *datasets.Dataset) (*Prediction, error) {
	if ds == nil || ds.Len() == 0 {
		return nil, errors.NewValueError("Predictor.Predict", "dataset has no samples")
	}
	X, err := p.features(ds)
	if err != nil {
		return nil, err
	}
	if p.scaler != nil {
		if X, err = p.scaler.Transform(X); err != nil {
			return nil, err
		}
	}

	proba, err := p.model.PredictProba(X)
	if err != nil {
		return nil, err
	}
	idx := metrics.HardLabels(proba)
	out := &Prediction{Indices: idx, Proba: proba, Labels: make([]string, len(idx))}
	for i, k := range idx {
		out.Labels[i] = p.classes[k]
	}

	if ds.LabelName != "" {
		enc := preprocessing.NewOneHotEncoder(preprocessing.OrderFirstSeen)
		if err := enc.Fit(p.classes); err != nil {
			return nil, err
		}
		truth, err := enc.TransformIndices(ds.Labels())
		if err != nil {
			return nil, err
		}
		if out.Accuracy, err = metrics.Accuracy(idx, truth); err != nil {
			return nil, err
		}
		out.HasAccuracy = true
	}

	log.GetLoggerWithName("pipeline").Info("Prediction finished",
		log.OperationKey, log.OperationPredict,
		log.PhaseKey, log.PhaseInference,
		log.SamplesKey, ds.Len(),
	)
	return out, nil
}

func (p *Predictor) features(ds *datasets.Dataset) (*mat.Dense, error) {
	pos := make(map[string]int, len(ds.FeatureNames))
	for j, name := range ds.FeatureNames {
		pos[name] = j
	}
	cols := make([]int, len(p.feats))
	for j, name := range p.feats {
		c, ok := pos[name]
		if !ok {
			return nil, errors.NewFormatError(1, name, "feature column required by the model is missing")
		}
		cols[j] = c
	}

	X := mat.NewDense(ds.Len(), len(cols), nil)
	for i, s := range ds.Samples {
		for j, c := range cols {
			X.Set(i, j, s.Features[c])
		}
	}
	return X, nil
}
