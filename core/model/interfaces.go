package model

import "gonum.org/v1/gonum/mat"

// Fitter は学習可能なモデルのインターフェース
type Fitter interface {
	// Fit は特徴量 X (N×D) と one-hot ラベル Y (N×C) で学習する
	Fit(X, Y mat.Matrix) error
}

// Classifier is a probabilistic multi-class classifier over one-hot targets.
type Classifier interface {
	Fitter

	// PredictProba returns an N×C matrix whose rows are probability distributions.
	PredictProba(X mat.Matrix) (*mat.Dense, error)

	// Predict returns the arg-max class index for every row of X.
	Predict(X mat.Matrix) ([]int, error)

	// Score returns the accuracy of Predict(X) against the one-hot targets Y.
	Score(X, Y mat.Matrix) (float64, error)
}

// Transformer はデータ変換のインターフェース
type Transformer interface {
	// Fit は変換に必要なパラメータを学習する
	Fit(X mat.Matrix) error

	// Transform はデータを変換する
	Transform(X mat.Matrix) (*mat.Dense, error)

	// FitTransform はFitとTransformを同時に実行する
	FitTransform(X mat.Matrix) (*mat.Dense, error)
}

// ParameterGetter is the interface for models that expose their hyperparameters.
type ParameterGetter interface {
	GetParams() map[string]interface{}
}

// WeightExporter は重みをエクスポート・インポート可能なモデルのインターフェース
type WeightExporter interface {
	// ExportWeights はクラス名と特徴量名を付けて重みをエクスポート
	ExportWeights(classes, features []string) (*ModelWeights, error)

	// ImportWeights は重みをインポートし、モデルを Fitted 状態にする
	ImportWeights(weights *ModelWeights) error
}
