package linear_model

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/YuminosukeSato/irisml/core/model"
	"github.com/YuminosukeSato/irisml/core/parallel"
	"github.com/YuminosukeSato/irisml/pkg/errors"
	"github.com/YuminosukeSato/irisml/pkg/log"
	"github.com/YuminosukeSato/irisml/sklearn/model_selection"
)

// ModelName identifies SoftmaxRegression in logs and exported weights.
const ModelName = "SoftmaxRegression"

// EpochStats is the training trajectory entry recorded after every epoch.
// Validation values are reported only; they never influence training.
type EpochStats struct {
	Epoch         int     `json:"epoch"`
	Loss          float64 `json:"loss"`
	Accuracy      float64 `json:"accuracy"`
	HasValidation bool    `json:"has_validation"`
	ValLoss       float64 `json:"val_loss,omitempty"`
	ValAccuracy   float64 `json:"val_accuracy,omitempty"`
}

// SoftmaxRegression is a single-layer multinomial classifier trained by
// first-order minimization of categorical cross-entropy.
//
// Parameters are a D×C weight matrix and a bias vector of length C.
// The model moves Uninitialized → Ready (Initialize, or the first Fit) →
// Fitted. Training always runs the configured number of epochs.
type SoftmaxRegression struct {
	state *model.StateManager // State management (composition)

	// Hyperparameters
	solver             string  // "sgd" or "adam"
	learningRate       float64 // Step size
	epochs             int     // Number of passes over the training rows
	batchSize          int     // 0 = full batch
	validationFraction float64 // Fraction of training rows held out for reporting
	randomState        uint64  // Seed for initialization, validation split and shuffling
	initStd            float64 // Standard deviation of the initial weights
	nJobs              int     // Workers for row-parallel passes; <= 0 means NumCPU

	logger   log.Logger
	callback func(EpochStats)

	// Model parameters
	coef      *mat.Dense // D×C
	intercept []float64  // C
	history   []EpochStats

	rng *rand.Rand
}

var (
	_ model.Classifier      = (*SoftmaxRegression)(nil)
	_ model.WeightExporter  = (*SoftmaxRegression)(nil)
	_ model.ParameterGetter = (*SoftmaxRegression)(nil)
)

// SoftmaxOption is a functional option for SoftmaxRegression
type SoftmaxOption func(*SoftmaxRegression)

// NewSoftmaxRegression creates an Uninitialized classifier.
func NewSoftmaxRegression(opts ...SoftmaxOption) *SoftmaxRegression {
	m := &SoftmaxRegression{
		state:              model.NewStateManager(),
		solver:             SolverAdam,
		learningRate:       0.01,
		epochs:             100,
		batchSize:          0,
		validationFraction: 0,
		randomState:        42,
		initStd:            0.01,
		nJobs:              1,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.rng = model_selection.NewRand(m.randomState)
	return m
}

// WithSolver sets the optimizer, "sgd" or "adam".
func WithSolver(solver string) SoftmaxOption {
	return func(m *SoftmaxRegression) {
		m.solver = solver
	}
}

// WithLearningRate sets the step size.
func WithLearningRate(lr float64) SoftmaxOption {
	return func(m *SoftmaxRegression) {
		m.learningRate = lr
	}
}

// WithEpochs sets the fixed number of training epochs.
func WithEpochs(epochs int) SoftmaxOption {
	return func(m *SoftmaxRegression) {
		m.epochs = epochs
	}
}

// WithBatchSize sets the mini-batch size; 0 trains on the full batch.
func WithBatchSize(size int) SoftmaxOption {
	return func(m *SoftmaxRegression) {
		m.batchSize = size
	}
}

// WithValidationFraction holds out a fraction of the training rows, drawn once
// per Fit, whose loss and accuracy are reported every epoch.
func WithValidationFraction(fraction float64) SoftmaxOption {
	return func(m *SoftmaxRegression) {
		m.validationFraction = fraction
	}
}

// WithRandomState sets the seed.
func WithRandomState(seed uint64) SoftmaxOption {
	return func(m *SoftmaxRegression) {
		m.randomState = seed
	}
}

// WithInitStd sets the standard deviation of the initial weights.
func WithInitStd(std float64) SoftmaxOption {
	return func(m *SoftmaxRegression) {
		m.initStd = std
	}
}

// WithNJobs sets the number of workers used for row-parallel passes.
// Results are identical for every value.
func WithNJobs(n int) SoftmaxOption {
	return func(m *SoftmaxRegression) {
		m.nJobs = n
	}
}

// WithLogger sets the logger. The default is the process-wide slog logger.
func WithLogger(logger log.Logger) SoftmaxOption {
	return func(m *SoftmaxRegression) {
		m.logger = logger
	}
}

// WithEpochCallback registers fn to be called after every epoch.
func WithEpochCallback(fn func(EpochStats)) SoftmaxOption {
	return func(m *SoftmaxRegression) {
		m.callback = fn
	}
}

func (m *SoftmaxRegression) validateParams() error {
	if m.solver != SolverSGD && m.solver != SolverAdam {
		return errors.NewValidationError("solver", "must be sgd or adam", m.solver)
	}
	if !(m.learningRate > 0) {
		return errors.NewValidationError("learning_rate", "must be positive", m.learningRate)
	}
	if m.epochs < 1 {
		return errors.NewValidationError("epochs", "must be at least 1", m.epochs)
	}
	if m.batchSize < 0 {
		return errors.NewValidationError("batch_size", "must be non-negative", m.batchSize)
	}
	if m.validationFraction < 0 || m.validationFraction >= 1 {
		return errors.NewValidationError("validation_fraction", "must be in [0, 1)", m.validationFraction)
	}
	if m.initStd < 0 {
		return errors.NewValidationError("init_std", "must be non-negative", m.initStd)
	}
	return nil
}

func (m *SoftmaxRegression) getLogger() log.Logger {
	if m.logger == nil {
		m.logger = log.GetLogger().With(log.ModelNameKey, ModelName)
	}
	return m.logger
}

// Initialize allocates W ~ N(0, initStd²) from the seeded source and b = 0,
// discarding any previous parameters and history.
func (m *SoftmaxRegression) Initialize(nFeatures, nClasses int) error {
	if nFeatures <= 0 {
		return errors.NewValidationError("n_features", "must be positive", nFeatures)
	}
	if nClasses <= 0 {
		return errors.NewValidationError("n_classes", "must be positive", nClasses)
	}
	if m.initStd < 0 {
		return errors.NewValidationError("init_std", "must be non-negative", m.initStd)
	}

	dist := distuv.Normal{Mu: 0, Sigma: m.initStd, Src: m.rng}
	data := make([]float64, nFeatures*nClasses)
	for i := range data {
		data[i] = dist.Rand()
	}
	m.coef = mat.NewDense(nFeatures, nClasses, data)
	m.intercept = make([]float64, nClasses)
	m.history = nil
	m.state.SetReady(nFeatures, nClasses)
	return nil
}

// logits writes b + xW into out.
func (m *SoftmaxRegression) logits(x, out []float64) {
	raw := m.coef.RawMatrix()
	copy(out, m.intercept)
	for j, xj := range x {
		if xj == 0 {
			continue
		}
		floats.AddScaled(out, xj, raw.Data[j*raw.Stride:j*raw.Stride+raw.Cols])
	}
}

// probabilities writes softmax(b + xW) into out. When the logits overflow the
// row is recomputed from rescaled inputs, so it still sums to 1.
func (m *SoftmaxRegression) probabilities(x, out []float64) {
	m.logits(x, out)
	for _, z := range out {
		if math.IsNaN(z) || math.IsInf(z, 0) {
			m.rescaledProbabilities(x, out)
			return
		}
	}
	errors.Softmax(out)
}

// rescaledProbabilities evaluates z' = (b + xW)/(sx·sw) with sx = max(1, |x|∞)
// and sw = max(1, |W|∞, |b|∞). Every term of z' lies in [-1, 1], so z' is
// finite, and the gaps z'_k - max z' are scaled back before exponentiating.
// Gaps that overflow become -Inf and take probability 0.
func (m *SoftmaxRegression) rescaledProbabilities(x, out []float64) {
	raw := m.coef.RawMatrix()
	sx := math.Max(1, floats.Norm(x, math.Inf(1)))
	sw := math.Max(1, math.Max(floats.Norm(raw.Data, math.Inf(1)), floats.Norm(m.intercept, math.Inf(1))))

	for k, bk := range m.intercept {
		out[k] = bk / sx / sw
	}
	for j, xj := range x {
		xs := xj / sx
		for k, w := range raw.Data[j*raw.Stride : j*raw.Stride+raw.Cols] {
			out[k] += xs * (w / sw)
		}
	}
	top := floats.Max(out)
	sum := 0.0
	for k, z := range out {
		out[k] = math.Exp((z - top) * sx * sw)
		sum += out[k]
	}
	floats.Scale(1/sum, out)
}

func (m *SoftmaxRegression) checkX(op string, X mat.Matrix) (*mat.Dense, error) {
	if err := m.state.RequireInitialized(ModelName, op); err != nil {
		return nil, err
	}
	nFeatures, _ := m.state.Dimensions()
	r, c := X.Dims()
	if c != nFeatures {
		return nil, errors.NewShapeError(ModelName+"."+op, []int{-1, nFeatures}, []int{r, c})
	}
	return asDense(X), nil
}

// PredictProba returns softmax(X·W + b) row-wise. Each row is stabilized by
// subtracting its maximum logit, so rows sum to 1 for any finite input.
// Inputs of at most DefaultChunkSize rows are evaluated on the calling goroutine.
// A NaN in X yields a NumericalInstabilityError.
func (m *SoftmaxRegression) PredictProba(X mat.Matrix) (*mat.Dense, error) {
	Xd, err := m.checkX("PredictProba", X)
	if err != nil {
		return nil, err
	}
	n, _ := Xd.Dims()
	_, nClasses := m.state.Dimensions()
	P := mat.NewDense(n, nClasses, nil)
	parallel.ParallelizeWithThreshold(n, parallel.DefaultChunkSize, m.nJobs, func(start, end int) {
		for i := start; i < end; i++ {
			m.probabilities(Xd.RawRowView(i), P.RawRowView(i))
		}
	})
	if err := errors.CheckMatrix(ModelName+".PredictProba", P, n, nClasses, 0); err != nil {
		return nil, err
	}
	return P, nil
}

// Predict returns the arg-max class index of every row; ties go to the lowest index.
func (m *SoftmaxRegression) Predict(X mat.Matrix) ([]int, error) {
	P, err := m.PredictProba(X)
	if err != nil {
		return nil, err
	}
	n, _ := P.Dims()
	pred := make([]int, n)
	for i := 0; i < n; i++ {
		pred[i] = floats.MaxIdx(P.RawRowView(i))
	}
	return pred, nil
}

// Score returns the accuracy of Predict(X) against the one-hot targets Y.
func (m *SoftmaxRegression) Score(X, Y mat.Matrix) (float64, error) {
	pred, err := m.Predict(X)
	if err != nil {
		return 0, err
	}
	_, nClasses := m.state.Dimensions()
	yr, yc := Y.Dims()
	if yr != len(pred) || yc != nClasses {
		return 0, errors.NewShapeError(ModelName+".Score", []int{len(pred), nClasses}, []int{yr, yc})
	}
	Yd := asDense(Y)
	correct := 0
	for i, p := range pred {
		if floats.MaxIdx(Yd.RawRowView(i)) == p {
			correct++
		}
	}
	return float64(correct) / float64(len(pred)), nil
}

// Fit trains on X (N×D) and one-hot Y (N×C) for exactly the configured number
// of epochs. An Uninitialized model is first initialized from the shapes of X
// and Y; otherwise X must have D columns and Y must have C columns.
func (m *SoftmaxRegression) Fit(X, Y mat.Matrix) error {
	if err := m.validateParams(); err != nil {
		return err
	}
	nSamples, nFeatures := X.Dims()
	yRows, yCols := Y.Dims()

	if !m.state.IsInitialized() {
		if err := m.Initialize(nFeatures, yCols); err != nil {
			return err
		}
	}
	wantFeatures, wantClasses := m.state.Dimensions()
	if nFeatures != wantFeatures {
		return errors.NewShapeError(ModelName+".Fit", []int{-1, wantFeatures}, []int{nSamples, nFeatures})
	}
	if yCols != wantClasses {
		return errors.NewShapeError(ModelName+".Fit", []int{-1, wantClasses}, []int{yRows, yCols})
	}
	if yRows != nSamples {
		return errors.NewShapeError(ModelName+".Fit", []int{nSamples, wantClasses}, []int{yRows, yCols})
	}

	Xd, Yd := asDense(X), asDense(Y)
	trainRows, valRows, err := m.holdOut(nSamples)
	if err != nil {
		return err
	}
	opt, err := NewOptimizer(m.solver, m.learningRate)
	if err != nil {
		return err
	}

	logger := m.getLogger()
	logger.Info("Training started",
		log.OperationKey, log.OperationFit,
		log.SamplesKey, len(trainRows),
		log.FeaturesKey, wantFeatures,
		log.ClassesKey, wantClasses,
		log.SolverKey, m.solver,
		log.LearningRateKey, m.learningRate,
		log.EpochsKey, m.epochs,
		log.BatchSizeKey, m.batchSize,
	)
	started := time.Now()

	prevCoef := mat.DenseCopyOf(m.coef)
	prevIntercept := append([]float64(nil), m.intercept...)
	prevHistory := m.history

	m.history = make([]EpochStats, 0, m.epochs)
	order := append([]int(nil), trainRows...)
	params := [][]float64{m.coef.RawMatrix().Data, m.intercept}
	for epoch := 1; epoch <= m.epochs; epoch++ {
		batch := len(order)
		if m.batchSize > 0 && m.batchSize < len(order) {
			batch = m.batchSize
			m.rng.Shuffle(len(order), func(i, j int) {
				order[i], order[j] = order[j], order[i]
			})
		}
		for start := 0; start < len(order); start += batch {
			end := min(start+batch, len(order))
			res := m.pass(Xd, Yd, order[start:end], true)
			opt.Step(params, [][]float64{res.gradW, res.gradB})
		}

		stats, err := m.epochStats(epoch, Xd, Yd, trainRows, valRows)
		if err != nil {
			logger.Error("Training diverged", err, log.EpochKey, epoch)
			m.coef.Copy(prevCoef)
			copy(m.intercept, prevIntercept)
			m.history = prevHistory
			return err
		}
		m.history = append(m.history, stats)
		if m.callback != nil {
			m.callback(stats)
		}
		if logger.Enabled(context.Background(), log.LevelDebug) {
			logger.Debug("Epoch finished",
				log.EpochKey, epoch,
				log.LossKey, stats.Loss,
				log.AccuracyKey, stats.Accuracy,
				log.ValLossKey, stats.ValLoss,
				log.ValAccuracyKey, stats.ValAccuracy,
			)
		}
	}

	m.state.SetFitted(len(trainRows))
	last := m.history[len(m.history)-1]
	logger.Info("Training finished",
		log.OperationKey, log.OperationFit,
		log.LossKey, last.Loss,
		log.AccuracyKey, last.Accuracy,
		log.DurationMsKey, time.Since(started).Milliseconds(),
	)
	return nil
}

// holdOut draws the validation rows once per Fit through the splitter.
func (m *SoftmaxRegression) holdOut(n int) (train, val []int, err error) {
	if m.validationFraction == 0 {
		train = make([]int, n)
		for i := range train {
			train[i] = i
		}
		return train, nil, nil
	}
	train, val, err = model_selection.TrainTestIndices(n, m.validationFraction, m.rng)
	if err != nil {
		return nil, nil, err
	}
	if len(train) == 0 {
		return nil, nil, errors.NewValueError(ModelName+".Fit",
			fmt.Sprintf("validation_fraction %v leaves no training rows out of %d", m.validationFraction, n))
	}
	return train, val, nil
}

func (m *SoftmaxRegression) epochStats(epoch int, X, Y *mat.Dense, trainRows, valRows []int) (EpochStats, error) {
	train := m.pass(X, Y, trainRows, false)
	if err := errors.CheckScalar("loss", train.loss, epoch); err != nil {
		return EpochStats{}, err
	}
	stats := EpochStats{Epoch: epoch, Loss: train.loss, Accuracy: train.accuracy}
	if len(valRows) > 0 {
		val := m.pass(X, Y, valRows, false)
		if err := errors.CheckScalar("val_loss", val.loss, epoch); err != nil {
			return EpochStats{}, err
		}
		stats.HasValidation = true
		stats.ValLoss = val.loss
		stats.ValAccuracy = val.accuracy
	}
	return stats, nil
}

type passResult struct {
	gradW    []float64 // D*C, row-major like coef
	gradB    []float64 // C
	loss     float64
	correct  int
	accuracy float64
}

// pass runs the forward computation over rows and, when withGrad is set,
// accumulates (P−Y)ᵀ-weighted gradients. Rows are reduced in fixed-size chunks
// and the partials summed in chunk order, so the result does not depend on nJobs.
func (m *SoftmaxRegression) pass(X, Y *mat.Dense, rows []int, withGrad bool) passResult {
	nFeatures, nClasses := m.state.Dimensions()
	n := len(rows)
	partials := make([]passResult, parallel.NumChunks(n, parallel.DefaultChunkSize))

	parallel.ReduceChunks(n, parallel.DefaultChunkSize, m.nJobs, func(c, start, end int) {
		part := &partials[c]
		if withGrad {
			part.gradW = make([]float64, nFeatures*nClasses)
			part.gradB = make([]float64, nClasses)
		}
		p := make([]float64, nClasses)
		for _, i := range rows[start:end] {
			x, y := X.RawRowView(i), Y.RawRowView(i)
			m.probabilities(x, p)
			for k, yk := range y {
				if yk != 0 {
					part.loss -= yk * errors.StabilizeLog(p[k])
				}
			}
			if floats.MaxIdx(p) == floats.MaxIdx(y) {
				part.correct++
			}
			if !withGrad {
				continue
			}
			for k := range p {
				d := p[k] - y[k]
				part.gradB[k] += d
				if d == 0 {
					continue
				}
				for j, xj := range x {
					part.gradW[j*nClasses+k] += xj * d
				}
			}
		}
	})

	total := passResult{}
	if withGrad {
		total.gradW = make([]float64, nFeatures*nClasses)
		total.gradB = make([]float64, nClasses)
	}
	for _, part := range partials {
		total.loss += part.loss
		total.correct += part.correct
		if withGrad {
			floats.Add(total.gradW, part.gradW)
			floats.Add(total.gradB, part.gradB)
		}
	}
	if n > 0 {
		inv := 1 / float64(n)
		total.loss *= inv
		total.accuracy = float64(total.correct) * inv
		if withGrad {
			floats.Scale(inv, total.gradW)
			floats.Scale(inv, total.gradB)
		}
	}
	return total
}

// History returns a copy of the per-epoch statistics of the last Fit.
func (m *SoftmaxRegression) History() []EpochStats {
	return append([]EpochStats(nil), m.history...)
}

// State returns the lifecycle stage.
func (m *SoftmaxRegression) State() model.State {
	return m.state.State()
}

// Coef returns a copy of W (D×C), or nil before initialization.
func (m *SoftmaxRegression) Coef() *mat.Dense {
	if m.coef == nil {
		return nil
	}
	return mat.DenseCopyOf(m.coef)
}

// Intercept returns a copy of b.
func (m *SoftmaxRegression) Intercept() []float64 {
	return append([]float64(nil), m.intercept...)
}

// NFeatures returns D, or 0 before initialization.
func (m *SoftmaxRegression) NFeatures() int {
	d, _ := m.state.Dimensions()
	return d
}

// NClasses returns C, or 0 before initialization.
func (m *SoftmaxRegression) NClasses() int {
	_, c := m.state.Dimensions()
	return c
}

// GetParams returns the model hyperparameters
func (m *SoftmaxRegression) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"solver":              m.solver,
		"learning_rate":       m.learningRate,
		"epochs":              m.epochs,
		"batch_size":          m.batchSize,
		"validation_fraction": m.validationFraction,
		"random_state":        m.randomState,
		"init_std":            m.initStd,
		"n_jobs":              m.nJobs,
	}
}

// ExportWeights snapshots the fitted parameters. classes and features are
// optional labels for the columns and rows of W.
func (m *SoftmaxRegression) ExportWeights(classes, features []string) (*model.ModelWeights, error) {
	if err := m.state.RequireFitted(ModelName, "ExportWeights"); err != nil {
		return nil, err
	}
	nFeatures, nClasses := m.state.Dimensions()
	if classes != nil && len(classes) != nClasses {
		return nil, errors.NewShapeError(ModelName+".ExportWeights classes", []int{nClasses}, []int{len(classes)})
	}
	if features != nil && len(features) != nFeatures {
		return nil, errors.NewShapeError(ModelName+".ExportWeights features", []int{nFeatures}, []int{len(features)})
	}

	w := &model.ModelWeights{
		ModelType:       ModelName,
		Version:         model.WeightsVersion,
		Intercept:       m.Intercept(),
		Classes:         append([]string(nil), classes...),
		Features:        append([]string(nil), features...),
		Hyperparameters: m.GetParams(),
		Metadata: map[string]interface{}{
			"n_samples": m.state.NSamples(),
		},
		IsFitted: true,
	}
	w.SetCoefMatrix(m.coef)
	if len(m.history) > 0 {
		last := m.history[len(m.history)-1]
		w.Metadata["final_loss"] = last.Loss
		w.Metadata["final_accuracy"] = last.Accuracy
		w.Metadata["epochs_run"] = len(m.history)
	}
	return w, nil
}

// ImportWeights restores parameters exported by ExportWeights and marks the
// model Fitted. Hyperparameters are not changed.
func (m *SoftmaxRegression) ImportWeights(weights *model.ModelWeights) error {
	if weights == nil {
		return errors.NewValueError(ModelName+".ImportWeights", "weights must not be nil")
	}
	if weights.ModelType != ModelName {
		return errors.NewValidationError("model_type", "expected "+ModelName, weights.ModelType)
	}
	if !weights.IsFitted {
		return errors.NewValidationError("is_fitted", "cannot import unfitted weights", weights.IsFitted)
	}
	if err := weights.Validate(); err != nil {
		return err
	}

	m.coef = weights.CoefMatrix()
	m.intercept = append([]float64(nil), weights.Intercept...)
	m.history = nil
	m.state.SetReady(weights.NFeatures, weights.NClasses)
	m.state.SetFitted(0)
	return nil
}

func asDense(a mat.Matrix) *mat.Dense {
	if d, ok := a.(*mat.Dense); ok {
		return d
	}
	return mat.DenseCopyOf(a)
}
