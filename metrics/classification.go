// Package metrics は分類モデルの評価指標を提供する
//
// 予測は確率行列またはクラスインデックスで受け取り、正解ラベルは one-hot 行列
// またはクラスインデックスで受け取る。
package metrics

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/irisml/pkg/errors"
)

// HardLabels は各行の arg-max をクラスインデックスとして返す
// 同値の場合は最も小さいインデックスを選ぶ
func HardLabels(m mat.Matrix) []int {
	r, c := m.Dims()
	labels := make([]int, r)
	row := make([]float64, c)
	for i := 0; i < r; i++ {
		mat.Row(row, i, m)
		labels[i] = floats.MaxIdx(row)
	}
	return labels
}

// Accuracy は予測と正解が一致する割合を計算する
func Accuracy(pred, trueIdx []int) (float64, error) {
	if len(pred) != len(trueIdx) {
		return 0, errors.NewShapeError("Accuracy", []int{len(trueIdx)}, []int{len(pred)})
	}
	if len(pred) == 0 {
		return 0, errors.NewValueError("Accuracy", "empty input")
	}

	correct := 0
	for i, p := range pred {
		if p == trueIdx[i] {
			correct++
		}
	}
	return float64(correct) / float64(len(pred)), nil
}

// CategoricalCrossEntropy は -mean(Σ Y·log(clip(P))) を計算する
//
// P は [1e-12, 1] にクリップされるため、結果は常に 0 以上の有限値になる。
func CategoricalCrossEntropy(Y, P mat.Matrix) (float64, error) {
	yr, yc := Y.Dims()
	pr, pc := P.Dims()
	if yr != pr || yc != pc {
		return 0, errors.NewShapeError("CategoricalCrossEntropy", []int{yr, yc}, []int{pr, pc})
	}

	var sum float64
	for i := 0; i < yr; i++ {
		for j := 0; j < yc; j++ {
			if y := Y.At(i, j); y != 0 {
				sum -= y * errors.StabilizeLog(P.At(i, j))
			}
		}
	}
	return sum / float64(yr), nil
}

// ConfusionMatrix は C×C の混同行列
//
// 行が正解クラス、列が予測クラス: At(i, j) は正解 i を j と予測したサンプル数。
// 生成後は変更されない。
type ConfusionMatrix struct {
	counts [][]int
	total  int
}

// NewConfusionMatrix は予測と正解のクラスインデックスから混同行列を作成する
//
// 使用例:
//
//	cm, err := metrics.NewConfusionMatrix(pred, metrics.HardLabels(Y), 3)
//	fmt.Println(cm.At(0, 1)) // 正解 0 を 1 と予測した数
func NewConfusionMatrix(pred, trueIdx []int, nClasses int) (*ConfusionMatrix, error) {
	if nClasses <= 0 {
		return nil, errors.NewValueError("ConfusionMatrix", fmt.Sprintf("nClasses must be positive, got %d", nClasses))
	}
	if len(pred) != len(trueIdx) {
		return nil, errors.NewShapeError("ConfusionMatrix", []int{len(trueIdx)}, []int{len(pred)})
	}

	counts := make([][]int, nClasses)
	for i := range counts {
		counts[i] = make([]int, nClasses)
	}
	for i, p := range pred {
		t := trueIdx[i]
		if p < 0 || p >= nClasses || t < 0 || t >= nClasses {
			return nil, errors.NewValueError("ConfusionMatrix",
				fmt.Sprintf("class index out of range [0, %d) at position %d: true=%d predicted=%d", nClasses, i, t, p))
		}
		counts[t][p]++
	}
	return &ConfusionMatrix{counts: counts, total: len(pred)}, nil
}

// NClasses returns C.
func (cm *ConfusionMatrix) NClasses() int {
	return len(cm.counts)
}

// At returns the number of samples of class trueIdx predicted as predIdx.
func (cm *ConfusionMatrix) At(trueIdx, predIdx int) int {
	return cm.counts[trueIdx][predIdx]
}

// Total returns the number of evaluated samples, which is the sum of all cells.
func (cm *ConfusionMatrix) Total() int {
	return cm.total
}

// Trace returns the number of correct predictions.
func (cm *ConfusionMatrix) Trace() int {
	trace := 0
	for i := range cm.counts {
		trace += cm.counts[i][i]
	}
	return trace
}

// Accuracy returns Trace()/Total(), or 0 for an empty matrix.
func (cm *ConfusionMatrix) Accuracy() float64 {
	if cm.total == 0 {
		return 0
	}
	return float64(cm.Trace()) / float64(cm.total)
}

// Support returns the number of samples whose true class is k (row sum).
func (cm *ConfusionMatrix) Support(k int) int {
	sum := 0
	for _, v := range cm.counts[k] {
		sum += v
	}
	return sum
}

// Predicted returns the number of samples predicted as class k (column sum).
func (cm *ConfusionMatrix) Predicted(k int) int {
	sum := 0
	for i := range cm.counts {
		sum += cm.counts[i][k]
	}
	return sum
}

// Counts returns a copy of the cells, indexed [true][predicted].
func (cm *ConfusionMatrix) Counts() [][]int {
	out := make([][]int, len(cm.counts))
	for i, row := range cm.counts {
		out[i] = append([]int(nil), row...)
	}
	return out
}

// Dense returns the cells as a C×C matrix.
func (cm *ConfusionMatrix) Dense() *mat.Dense {
	c := len(cm.counts)
	d := mat.NewDense(c, c, nil)
	for i, row := range cm.counts {
		for j, v := range row {
			d.Set(i, j, float64(v))
		}
	}
	return d
}
