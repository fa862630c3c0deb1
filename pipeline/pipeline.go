// Package pipeline runs the end-to-end workflow: load a table, encode it,
// split it, standardize features, train a softmax classifier and evaluate it
// on the held-out rows.
package pipeline

import (
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/irisml/config"
	"github.com/YuminosukeSato/irisml/core/model"
	"github.com/YuminosukeSato/irisml/datasets"
	"github.com/YuminosukeSato/irisml/metrics"
	"github.com/YuminosukeSato/irisml/pkg/errors"
	"github.com/YuminosukeSato/irisml/pkg/log"
	"github.com/YuminosukeSato/irisml/preprocessing"
	"github.com/YuminosukeSato/irisml/sklearn/linear_model"
	"github.com/YuminosukeSato/irisml/sklearn/model_selection"
)

// Result is everything a run produced.
type Result struct {
	RunID        string
	Classes      []string
	FeatureNames []string
	TrainSize    int
	TestSize     int

	History       []linear_model.EpochStats
	TrainAccuracy float64
	TestAccuracy  float64
	TestLoss      float64
	Confusion     *metrics.ConfusionMatrix
	Report        *metrics.Report

	Model   *linear_model.SoftmaxRegression
	Scaler  *preprocessing.StandardScaler // nil when standardization is off
	Weights *model.ModelWeights           // exported artifact, scaler included
	// ModelPath is where Weights were written, empty if not saved.
	ModelPath string
	Duration  time.Duration
}

type runOptions struct {
	dataset  *datasets.Dataset
	logger   log.Logger
	callback func(linear_model.EpochStats)
}

// Option configures Run.
type Option func(*runOptions)

// WithDataset trains on ds instead of loading cfg.Data.
func WithDataset(ds *datasets.Dataset) Option {
	return func(o *runOptions) {
		o.dataset = ds
	}
}

// WithLogger sets the logger of the run and of the model.
func WithLogger(logger log.Logger) Option {
	return func(o *runOptions) {
		o.logger = logger
	}
}

// WithEpochCallback is called after every training epoch.
func WithEpochCallback(fn func(linear_model.EpochStats)) Option {
	return func(o *runOptions) {
		o.callback = fn
	}
}

// LoadDataset reads the table described by cfg. An empty path loads the
// bundled Iris dataset.
func LoadDataset(cfg config.DataConfig) (*datasets.Dataset, error) {
	if cfg.Path == "" {
		return datasets.LoadIris()
	}
	return datasets.LoadCSV(cfg.Path, csvOptions(cfg)...)
}

func csvOptions(cfg config.DataConfig) []datasets.Option {
	var opts []datasets.Option
	if cfg.LabelColumn != "" {
		opts = append(opts, datasets.WithLabelColumn(cfg.LabelColumn))
	}
	if len(cfg.FeatureColumns) > 0 {
		opts = append(opts, datasets.WithFeatureColumns(cfg.FeatureColumns...))
	}
	if len(cfg.DropColumns) > 0 {
		opts = append(opts, datasets.WithDropColumns(cfg.DropColumns...))
	}
	if cfg.Delimiter != 0 {
		opts = append(opts, datasets.WithDelimiter(rune(cfg.Delimiter)))
	}
	return opts
}

// NewModel builds an untrained classifier from cfg.
func NewModel(cfg config.ModelConfig, extra ...linear_model.SoftmaxOption) *linear_model.SoftmaxRegression {
	opts := []linear_model.SoftmaxOption{
		linear_model.WithSolver(cfg.Solver),
		linear_model.WithLearningRate(cfg.LearningRate),
		linear_model.WithEpochs(cfg.Epochs),
		linear_model.WithBatchSize(cfg.BatchSize),
		linear_model.WithValidationFraction(cfg.ValidationFraction),
		linear_model.WithInitStd(cfg.InitStd),
		linear_model.WithRandomState(cfg.Seed),
		linear_model.WithNJobs(cfg.NJobs),
	}
	return linear_model.NewSoftmaxRegression(append(opts, extra...)...)
}

// Run executes load → encode → split → standardize → fit → evaluate and
// optionally saves the artifact to cfg.Output.ModelPath.
//
// The encoder is fitted on the full label set so train and test share one
// class order. The scaler is fitted on the training rows only.
func Run(cfg *config.Config, opts ...Option) (*Result, error) {
	if cfg == nil {
		return nil, errors.NewValueError("pipeline.Run", "config must not be nil")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	o := runOptions{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = log.GetLoggerWithName("pipeline")
	}

	start := time.Now()
	res := &Result{RunID: uuid.NewString()}
	logger := o.logger.With(log.EstimatorIDKey, res.RunID)

	// load
	ds := o.dataset
	if ds == nil {
		var err error
		ds, err = LoadDataset(cfg.Data)
		if err != nil {
			return nil, err
		}
	}

	// encode
	order, err := preprocessing.ParseLabelOrder(cfg.Preprocess.LabelOrder)
	if err != nil {
		return nil, err
	}
	enc := preprocessing.NewOneHotEncoder(order)
	if err := enc.Fit(ds.Labels()); err != nil {
		return nil, err
	}
	encoded, err := preprocessing.Encode(ds, enc)
	if err != nil {
		return nil, err
	}
	res.Classes = encoded.Classes
	res.FeatureNames = encoded.FeatureNames
	logger.Info("Dataset encoded",
		log.OperationKey, log.OperationEncode,
		log.SamplesKey, encoded.Len(),
		log.FeaturesKey, encoded.NumFeatures(),
		log.ClassesKey, encoded.NumClasses(),
	)

	// split
	train, test, err := model_selection.TrainTestSplit(encoded, cfg.Split.TestSize, cfg.Split.Seed)
	if err != nil {
		return nil, err
	}
	if train.Len() == 0 || test.Len() == 0 {
		return nil, errors.NewValueError("pipeline.Run",
			"test_size leaves an empty train or test set for this dataset")
	}
	res.TrainSize, res.TestSize = train.Len(), test.Len()
	logger.Info("Dataset split",
		log.OperationKey, log.OperationSplit,
		log.TestSizeKey, cfg.Split.TestSize,
		log.RandomSeedKey, cfg.Split.Seed,
		"train_samples", res.TrainSize,
		"test_samples", res.TestSize,
	)

	// standardize
	Xtrain, Xtest := train.X, test.X
	if cfg.Preprocess.Standardize {
		res.Scaler = preprocessing.NewStandardScalerDefault()
		if Xtrain, err = res.Scaler.FitTransform(train.X); err != nil {
			return nil, err
		}
		if Xtest, err = res.Scaler.Transform(test.X); err != nil {
			return nil, err
		}
	}

	// fit
	modelOpts := []linear_model.SoftmaxOption{
		linear_model.WithLogger(logger.With(log.ModelNameKey, linear_model.ModelName)),
	}
	if o.callback != nil {
		modelOpts = append(modelOpts, linear_model.WithEpochCallback(o.callback))
	}
	res.Model = NewModel(cfg.Model, modelOpts...)
	if err := res.Model.Fit(Xtrain, train.Y); err != nil {
		return nil, err
	}
	res.History = res.Model.History()
	if res.TrainAccuracy, err = res.Model.Score(Xtrain, train.Y); err != nil {
		return nil, err
	}

	// evaluate
	if err := evaluate(res, Xtest, test); err != nil {
		return nil, err
	}

	// artifact
	if res.Weights, err = res.Model.ExportWeights(res.Classes, res.FeatureNames); err != nil {
		return nil, err
	}
	if res.Scaler != nil {
		if res.Weights.Scaler, err = res.Scaler.Params(); err != nil {
			return nil, err
		}
	}
	res.Weights.Metadata["run_id"] = res.RunID
	res.Weights.Metadata["label_order"] = order.String()
	res.Weights.Metadata["test_accuracy"] = res.TestAccuracy
	if cfg.Output.ModelPath != "" {
		if err := saveArtifact(res.Weights, cfg.Output.ModelPath); err != nil {
			return nil, err
		}
		res.ModelPath = cfg.Output.ModelPath
	}

	res.Duration = time.Since(start)
	logger.Info("Run finished",
		log.OperationKey, log.OperationEvaluate,
		log.PhaseKey, log.PhaseTesting,
		log.AccuracyKey, res.TestAccuracy,
		log.LossKey, res.TestLoss,
		"train_accuracy", res.TrainAccuracy,
		log.DurationMsKey, res.Duration.Milliseconds(),
	)
	return res, nil
}

func evaluate(res *Result, X *mat.Dense, test *preprocessing.EncodedDataset) error {
	P, err := res.Model.PredictProba(X)
	if err != nil {
		return err
	}
	pred := metrics.HardLabels(P)
	truth := test.LabelIndices()

	if res.TestAccuracy, err = metrics.Accuracy(pred, truth); err != nil {
		return err
	}
	if res.TestLoss, err = metrics.CategoricalCrossEntropy(test.Y, P); err != nil {
		return err
	}
	if res.Confusion, err = metrics.NewConfusionMatrix(pred, truth, len(res.Classes)); err != nil {
		return err
	}
	res.Report, err = metrics.ClassificationReport(res.Confusion, res.Classes)
	return err
}

func saveArtifact(w *model.ModelWeights, path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.Wrapf(err, "create directory %s", dir)
		}
	}
	return model.SaveJSON(w, path)
}
