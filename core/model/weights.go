package model

import (
	"encoding/json"
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/irisml/pkg/errors"
)

// WeightsVersion is written into every exported artifact.
const WeightsVersion = "1.0.0"

// ModelWeights はモデルの重みを表す構造体（シリアライゼーション用）
type ModelWeights struct {
	// ModelType はモデルの種類（SoftmaxRegression 等）
	ModelType string `json:"model_type"`

	// Version はアーティファクト形式のバージョン（互換性チェック用）
	Version string `json:"version"`

	NFeatures int `json:"n_features"`
	NClasses  int `json:"n_classes"`

	// Coefficients は D×C の重み行列（行 = 特徴量、列 = クラス）
	Coefficients [][]float64 `json:"coefficients"`

	// Intercept はクラスごとの切片（長さ C）
	Intercept []float64 `json:"intercept"`

	// Classes は列順のクラス名（オプション）
	Classes []string `json:"classes,omitempty"`

	// Features は特徴量の名前（オプション）
	Features []string `json:"features,omitempty"`

	// Scaler は学習時に適用した標準化パラメータ（オプション）
	Scaler *ScalerParams `json:"scaler,omitempty"`

	// Hyperparameters はモデルのハイパーパラメータ
	Hyperparameters map[string]interface{} `json:"hyperparameters"`

	// Metadata は追加のメタデータ（学習時の統計等）
	Metadata map[string]interface{} `json:"metadata,omitempty"`

	// IsFitted はモデルが学習済みかどうか
	IsFitted bool `json:"is_fitted"`
}

// ScalerParams holds per-feature standardization parameters.
type ScalerParams struct {
	Mean  []float64 `json:"mean"`
	Scale []float64 `json:"scale"`
}

// ToJSON はModelWeightsをJSON形式にシリアライズ
func (mw *ModelWeights) ToJSON() ([]byte, error) {
	data, err := json.MarshalIndent(mw, "", "  ")
	if err != nil {
		return nil, errors.Wrap(err, "marshal model weights")
	}
	return data, nil
}

// FromJSON はJSON形式からModelWeightsをデシリアライズ
func (mw *ModelWeights) FromJSON(data []byte) error {
	if err := json.Unmarshal(data, mw); err != nil {
		return errors.Wrap(err, "unmarshal model weights")
	}
	return nil
}

// Validate はModelWeightsの妥当性を検証
func (mw *ModelWeights) Validate() error {
	if mw.ModelType == "" {
		return errors.NewValidationError("model_type", "is required", mw.ModelType)
	}
	if mw.Version == "" {
		return errors.NewValidationError("version", "is required", mw.Version)
	}
	if !mw.IsFitted {
		if len(mw.Coefficients) > 0 {
			return errors.NewValidationError("coefficients", "unfitted model should not have coefficients", len(mw.Coefficients))
		}
		return nil
	}
	if mw.NFeatures <= 0 || mw.NClasses <= 0 {
		return errors.NewValidationError("n_features/n_classes",
			"fitted model must have positive dimensions", []int{mw.NFeatures, mw.NClasses})
	}
	if len(mw.Coefficients) != mw.NFeatures {
		return errors.NewShapeError("ModelWeights.Validate",
			[]int{mw.NFeatures, mw.NClasses}, []int{len(mw.Coefficients), -1})
	}
	for i, row := range mw.Coefficients {
		if len(row) != mw.NClasses {
			return errors.NewShapeError(fmt.Sprintf("ModelWeights.Validate coefficients[%d]", i),
				[]int{mw.NClasses}, []int{len(row)})
		}
	}
	if len(mw.Intercept) != mw.NClasses {
		return errors.NewShapeError("ModelWeights.Validate intercept",
			[]int{mw.NClasses}, []int{len(mw.Intercept)})
	}
	if len(mw.Classes) > 0 && len(mw.Classes) != mw.NClasses {
		return errors.NewShapeError("ModelWeights.Validate classes",
			[]int{mw.NClasses}, []int{len(mw.Classes)})
	}
	if len(mw.Features) > 0 && len(mw.Features) != mw.NFeatures {
		return errors.NewShapeError("ModelWeights.Validate features",
			[]int{mw.NFeatures}, []int{len(mw.Features)})
	}
	if mw.Scaler != nil && (len(mw.Scaler.Mean) != mw.NFeatures || len(mw.Scaler.Scale) != mw.NFeatures) {
		return errors.NewShapeError("ModelWeights.Validate scaler",
			[]int{mw.NFeatures}, []int{len(mw.Scaler.Mean)})
	}
	return nil
}

// CoefMatrix returns the coefficients as a D×C matrix.
func (mw *ModelWeights) CoefMatrix() *mat.Dense {
	if mw.NFeatures == 0 || mw.NClasses == 0 {
		return nil
	}
	W := mat.NewDense(mw.NFeatures, mw.NClasses, nil)
	for i, row := range mw.Coefficients {
		W.SetRow(i, row)
	}
	return W
}

// SetCoefMatrix stores W row by row.
func (mw *ModelWeights) SetCoefMatrix(W mat.Matrix) {
	r, c := W.Dims()
	mw.NFeatures, mw.NClasses = r, c
	mw.Coefficients = make([][]float64, r)
	for i := 0; i < r; i++ {
		mw.Coefficients[i] = mat.Row(nil, i, W)
	}
}

// Clone はModelWeightsのディープコピーを作成
func (mw *ModelWeights) Clone() *ModelWeights {
	clone := &ModelWeights{
		ModelType:       mw.ModelType,
		Version:         mw.Version,
		NFeatures:       mw.NFeatures,
		NClasses:        mw.NClasses,
		IsFitted:        mw.IsFitted,
		Coefficients:    make([][]float64, len(mw.Coefficients)),
		Intercept:       append([]float64(nil), mw.Intercept...),
		Classes:         append([]string(nil), mw.Classes...),
		Features:        append([]string(nil), mw.Features...),
		Hyperparameters: make(map[string]interface{}, len(mw.Hyperparameters)),
		Metadata:        make(map[string]interface{}, len(mw.Metadata)),
	}

	for i, row := range mw.Coefficients {
		clone.Coefficients[i] = append([]float64(nil), row...)
	}
	if mw.Scaler != nil {
		clone.Scaler = &ScalerParams{
			Mean:  append([]float64(nil), mw.Scaler.Mean...),
			Scale: append([]float64(nil), mw.Scaler.Scale...),
		}
	}
	for k, v := range mw.Hyperparameters {
		clone.Hyperparameters[k] = v
	}
	for k, v := range mw.Metadata {
		clone.Metadata[k] = v
	}

	return clone
}
