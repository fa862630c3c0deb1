package model

import (
	"io"
	"os"

	"github.com/YuminosukeSato/irisml/pkg/errors"
)

// SaveJSON はモデルの重みを JSON ファイルに保存する
//
// 使用例:
//
//	w, _ := clf.ExportWeights(classes, features)
//	err := model.SaveJSON(w, "model.json")
func SaveJSON(weights *ModelWeights, filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return errors.Wrapf(err, "failed to create file %s", filename)
	}
	if err := WriteJSON(weights, file); err != nil {
		_ = file.Close()
		return err
	}
	if err := file.Close(); err != nil {
		return errors.Wrapf(err, "failed to close file %s", filename)
	}
	return nil
}

// LoadJSON は JSON ファイルから重みを読み込み、検証する
func LoadJSON(filename string) (*ModelWeights, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open file %s", filename)
	}
	defer file.Close()

	return ReadJSON(file)
}

// WriteJSON は重みを検証してから w に書き出す
func WriteJSON(weights *ModelWeights, w io.Writer) error {
	if weights == nil {
		return errors.NewValueError("WriteJSON", "weights must not be nil")
	}
	if err := weights.Validate(); err != nil {
		return err
	}
	data, err := weights.ToJSON()
	if err != nil {
		return err
	}
	if _, err := w.Write(append(data, '\n')); err != nil {
		return errors.Wrap(err, "failed to write model weights")
	}
	return nil
}

// ReadJSON は r から重みを読み込み、検証する
func ReadJSON(r io.Reader) (*ModelWeights, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read model weights")
	}
	weights := &ModelWeights{}
	if err := weights.FromJSON(data); err != nil {
		return nil, err
	}
	if err := weights.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid model weights")
	}
	return weights, nil
}
