// Package log defines standard attribute keys for pipeline logging.
//
// Keys follow a hierarchical naming convention (e.g. "model.name",
// "data.samples") so that runs can be filtered and compared in log tooling.

package log

// Model and operation context.
const (
	// ModelNameKey identifies the type of model, e.g. "SoftmaxRegression".
	ModelNameKey = "model.name"

	// EstimatorIDKey identifies one pipeline run / model instance.
	EstimatorIDKey = "estimator.id"

	// OperationKey is one of the Operation* values below.
	OperationKey = "ml.operation"

	// ComponentKey identifies the package doing the work, e.g. "datasets".
	ComponentKey = "ml.component"

	// PhaseKey is one of the Phase* values below.
	PhaseKey = "ml.phase"
)

// Data shape.
const (
	SamplesKey  = "data.samples"
	FeaturesKey = "data.features"
	ClassesKey  = "data.classes"
	// BatchSizeKey is 0 for full-batch training.
	BatchSizeKey = "data.batch_size"
	PathKey      = "data.path"
)

// Metrics and training progress.
const (
	DurationMsKey     = "perf.duration_ms"
	AccuracyKey       = "metrics.accuracy"
	LossKey           = "metrics.loss"
	ValAccuracyKey    = "metrics.val_accuracy"
	ValLossKey        = "metrics.val_loss"
	EpochKey          = "training.epoch"
	EpochsKey         = "training.epochs"
	LearningRateKey   = "hyperparams.learning_rate"
	SolverKey         = "hyperparams.solver"
	RandomSeedKey     = "config.random_seed"
	TestSizeKey       = "config.test_size"
	ValidationFracKey = "config.validation_fraction"
)

// Error context.
const (
	ErrorCodeKey  = "error.code"
	SuggestionKey = "error.suggestion"
)

// Standard attribute values.
const (
	OperationLoad      = "load"
	OperationEncode    = "encode"
	OperationSplit     = "split"
	OperationFit       = "fit"
	OperationPredict   = "predict"
	OperationEvaluate  = "evaluate"
	OperationTransform = "transform"

	PhaseTraining      = "training"
	PhaseValidation    = "validation"
	PhaseTesting       = "testing"
	PhaseInference     = "inference"
	PhasePreprocessing = "preprocessing"

	ErrorShapeMismatch = "SHAPE_MISMATCH"
	ErrorFormat        = "FORMAT"
	ErrorEncoding      = "ENCODING"
	ErrorNotFitted     = "NOT_FITTED"
)
