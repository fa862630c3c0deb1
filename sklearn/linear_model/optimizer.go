package linear_model

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/YuminosukeSato/irisml/pkg/errors"
)

// Solver names accepted by WithSolver.
const (
	SolverSGD  = "sgd"
	SolverAdam = "adam"
)

// Optimizer applies one first-order update to a set of flat parameter slices.
// params[i] and grads[i] have equal length.
type Optimizer interface {
	Step(params, grads [][]float64)
}

type sgdOptimizer struct {
	lr float64
}

func (s *sgdOptimizer) Step(params, grads [][]float64) {
	for i, p := range params {
		floats.AddScaled(p, -s.lr, grads[i])
	}
}

type adamOptimizer struct {
	alpha float64
	beta1 float64
	beta2 float64
	eps   float64
	ms    [][]float64
	vs    [][]float64
	t     float64
}

func (a *adamOptimizer) Step(params, grads [][]float64) {
	if a.ms == nil {
		a.ms = make([][]float64, len(params))
		a.vs = make([][]float64, len(params))
		for i, p := range params {
			a.ms[i] = make([]float64, len(p))
			a.vs[i] = make([]float64, len(p))
		}
	}
	a.t++

	fix1 := 1 - math.Pow(a.beta1, a.t)
	fix2 := 1 - math.Pow(a.beta2, a.t)
	lr := a.alpha * math.Sqrt(fix2) / fix1

	for i, p := range params {
		m, v, g := a.ms[i], a.vs[i], grads[i]
		for j := range p {
			// m += (1 - beta1) * (grad - m)
			m[j] += (1 - a.beta1) * (g[j] - m[j])
			// v += (1 - beta2) * (grad * grad - v)
			v[j] += (1 - a.beta2) * (g[j]*g[j] - v[j])
			p[j] -= lr * m[j] / (math.Sqrt(v[j]) + a.eps)
		}
	}
}

// NewOptimizer returns a fresh optimizer for solver.
// Adam uses beta1=0.9, beta2=0.999, eps=1e-7.
func NewOptimizer(solver string, learningRate float64) (Optimizer, error) {
	switch solver {
	case SolverSGD:
		return &sgdOptimizer{lr: learningRate}, nil
	case SolverAdam:
		return &adamOptimizer{
			alpha: learningRate,
			beta1: 0.9,
			beta2: 0.999,
			eps:   1e-7,
		}, nil
	default:
		return nil, errors.NewValidationError("solver", "must be sgd or adam", solver)
	}
}
