package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/irisml/pkg/errors"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	root := newRootCommand()
	root.SetArgs(args)
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	err := run(root)
	return stdout.String(), err
}

func TestTrainAndPredict(t *testing.T) {
	dir := t.TempDir()
	modelPath := filepath.Join(dir, "model.json")

	out, err := execute(t, "train",
		"--epochs", "200",
		"--learning-rate", "0.1",
		"--validation-fraction", "0",
		"--no-progress",
		"--log-level", "error",
		"--output", modelPath,
	)
	require.NoError(t, err)
	assert.Contains(t, out, "120 train, 30 test")
	assert.Contains(t, out, "test accuracy:")
	assert.Contains(t, out, "Iris-versicolor")
	assert.Contains(t, out, "macro avg")
	assert.Contains(t, out, "model saved to "+modelPath)

	dataPath := filepath.Join(dir, "new.csv")
	require.NoError(t, os.WriteFile(dataPath, []byte(
		"Id,SepalLengthCm,SepalWidthCm,PetalLengthCm,PetalWidthCm\n1,5.1,3.5,1.4,0.2\n2,6.3,3.3,6.0,2.5\n"), 0o600))

	out, err = execute(t, "predict",
		"--model", modelPath,
		"--data", dataPath,
		"--drop-columns", "Id",
		"--no-label",
		"--log-level", "error",
	)
	require.NoError(t, err)
	assert.Contains(t, out, "Iris-setosa")
	assert.Contains(t, out, "Iris-virginica")
	assert.NotContains(t, out, "accuracy")
}

func TestTrainWithConfigFile(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "irisml.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(`
split:
  test_size: 0.5
model:
  epochs: 3
log:
  level: error
`), 0o600))

	out, err := execute(t, "train", "--config", cfgPath, "--no-progress")
	require.NoError(t, err)
	assert.Contains(t, out, "75 train, 75 test")
	assert.Contains(t, out, "epoch 3:")
}

func TestTrainInvalidConfig(t *testing.T) {
	_, err := execute(t, "train", "--solver", "lbfgs", "--no-progress")
	assert.Error(t, err)

	_, err = execute(t, "train", "--data", filepath.Join(t.TempDir(), "missing.csv"), "--no-progress")
	assert.Error(t, err)
}

func TestPredictRequiresModel(t *testing.T) {
	_, err := execute(t, "predict", "--data", "x.csv")
	assert.Error(t, err)
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "irisml dev")
}

func TestRunRecoversPanic(t *testing.T) {
	root := newRootCommand()
	root.AddCommand(&cobra.Command{
		Use: "crash",
		Run: func(*cobra.Command, []string) { panic("crash") },
	})
	root.SetArgs([]string{"crash"})
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})

	err := run(root)
	var pe *errors.PanicError
	require.True(t, errors.As(err, &pe), "got %v", err)
	assert.Equal(t, "crash", pe.PanicValue)
}
