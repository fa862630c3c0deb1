package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/irisml/pkg/errors"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestSetDefault(t *testing.T) {
	config, err := Decode(New())
	require.NoError(t, err)

	want := GetDefaultConfig()
	assert.Equal(t, want.Split, config.Split)
	assert.Equal(t, want.Preprocess, config.Preprocess)
	assert.Equal(t, want.Model, config.Model)
	assert.Equal(t, want.Output, config.Output)
	assert.Equal(t, want.Log, config.Log)
	// [data]
	assert.Empty(t, config.Data.Path)
	assert.Empty(t, config.Data.LabelColumn)
	assert.Empty(t, config.Data.FeatureColumns)
	assert.Empty(t, config.Data.DropColumns)
	assert.Equal(t, Delimiter(','), config.Data.Delimiter)
}

func TestLoadConfigYAML(t *testing.T) {
	path := writeFile(t, "irisml.yaml", `
data:
  path: data/flowers.csv
  label_column: Species
  drop_columns: [Id]
  delimiter: ";"
split:
  test_size: 0.3
  seed: 7
preprocess:
  standardize: false
  label_order: first_seen
model:
  solver: sgd
  learning_rate: 0.5
  epochs: 250
  batch_size: 16
  validation_fraction: 0
  n_jobs: 4
output:
  model_path: out/model.json
log:
  level: debug
`)
	config, err := LoadConfig(path, nil)
	require.NoError(t, err)

	// [data]
	assert.Equal(t, "data/flowers.csv", config.Data.Path)
	assert.Equal(t, "Species", config.Data.LabelColumn)
	assert.Equal(t, []string{"Id"}, config.Data.DropColumns)
	assert.Equal(t, Delimiter(';'), config.Data.Delimiter)
	// [split]
	assert.Equal(t, 0.3, config.Split.TestSize)
	assert.Equal(t, uint64(7), config.Split.Seed)
	// [preprocess]
	assert.False(t, config.Preprocess.Standardize)
	assert.Equal(t, "first_seen", config.Preprocess.LabelOrder)
	// [model]
	assert.Equal(t, "sgd", config.Model.Solver)
	assert.Equal(t, 0.5, config.Model.LearningRate)
	assert.Equal(t, 250, config.Model.Epochs)
	assert.Equal(t, 16, config.Model.BatchSize)
	assert.Equal(t, 0.0, config.Model.ValidationFraction)
	assert.Equal(t, 4, config.Model.NJobs)
	// [output]
	assert.Equal(t, "out/model.json", config.Output.ModelPath)
	// [log]
	assert.Equal(t, "debug", config.Log.Level)

	// check default values
	assert.Equal(t, 0.01, config.Model.InitStd)
	assert.Equal(t, uint64(42), config.Model.Seed)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"), nil)
	assert.Error(t, err)
}

type environmentVariable struct {
	key   string
	value string
}

func TestBindEnv(t *testing.T) {
	variables := []environmentVariable{
		{"IRISML_DATA_PATH", "<data_path>"},
		{"IRISML_DATA_FEATURE_COLUMNS", "a,b,c"},
		{"IRISML_DATA_DELIMITER", "tab"},
		{"IRISML_SPLIT_TEST_SIZE", "0.25"},
		{"IRISML_MODEL_EPOCHS", "12"},
		{"IRISML_MODEL_SOLVER", "sgd"},
		{"IRISML_PREPROCESS_STANDARDIZE", "false"},
		{"IRISML_LOG_LEVEL", "warn"},
	}
	for _, variable := range variables {
		t.Setenv(variable.key, variable.value)
	}

	path := writeFile(t, "irisml.yaml", "model:\n  epochs: 99\n")
	config, err := LoadConfig(path, nil)
	require.NoError(t, err)
	assert.Equal(t, "<data_path>", config.Data.Path)
	assert.Equal(t, []string{"a", "b", "c"}, config.Data.FeatureColumns)
	assert.Equal(t, Delimiter('\t'), config.Data.Delimiter)
	assert.Equal(t, 0.25, config.Split.TestSize)
	assert.Equal(t, 12, config.Model.Epochs, "environment wins over the file")
	assert.Equal(t, "sgd", config.Model.Solver)
	assert.False(t, config.Preprocess.Standardize)
	assert.Equal(t, "warn", config.Log.Level)

	// check default values
	assert.Equal(t, 0.01, config.Model.LearningRate)
}

func TestBindFlags(t *testing.T) {
	t.Setenv("IRISML_MODEL_EPOCHS", "12")

	flags := pflag.NewFlagSet("train", pflag.ContinueOnError)
	flags.Int("epochs", 5, "")
	flags.Float64("learning-rate", 0.3, "")
	flags.Uint64("seed", 0, "")
	flags.String("unrelated", "", "")
	require.NoError(t, flags.Parse([]string{"--epochs=30", "--seed=9"}))

	config, err := LoadConfig("", flags)
	require.NoError(t, err)
	assert.Equal(t, 30, config.Model.Epochs, "explicit flag wins over environment")
	assert.Equal(t, uint64(9), config.Split.Seed)
	assert.Equal(t, 0.01, config.Model.LearningRate, "unset flag keeps the default")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name  string
		env   environmentVariable
		param string
	}{
		{"test size zero", environmentVariable{"IRISML_SPLIT_TEST_SIZE", "0"}, "split.test_size"},
		{"test size one", environmentVariable{"IRISML_SPLIT_TEST_SIZE", "1"}, "split.test_size"},
		{"unknown solver", environmentVariable{"IRISML_MODEL_SOLVER", "lbfgs"}, "model.solver"},
		{"zero learning rate", environmentVariable{"IRISML_MODEL_LEARNING_RATE", "0"}, "model.learning_rate"},
		{"zero epochs", environmentVariable{"IRISML_MODEL_EPOCHS", "0"}, "model.epochs"},
		{"negative batch", environmentVariable{"IRISML_MODEL_BATCH_SIZE", "-1"}, "model.batch_size"},
		{"validation fraction one", environmentVariable{"IRISML_MODEL_VALIDATION_FRACTION", "1"}, "model.validation_fraction"},
		{"label order", environmentVariable{"IRISML_PREPROCESS_LABEL_ORDER", "random"}, "preprocess.label_order"},
		{"log level", environmentVariable{"IRISML_LOG_LEVEL", "trace"}, "log.level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.env.key, tt.env.value)
			_, err := LoadConfig("", nil)
			require.Error(t, err)

			var ve *errors.ValidationError
			require.True(t, errors.As(err, &ve), "got %v", err)
			assert.Equal(t, tt.param, ve.ParamName)
		})
	}
}

func TestDelimiter(t *testing.T) {
	tests := []struct {
		value   string
		want    Delimiter
		wantErr bool
	}{
		{value: ",", want: ','},
		{value: ";", want: ';'},
		{value: "|", want: '|'},
		{value: "tab", want: '\t'},
		{value: `\t`, want: '\t'},
		{value: "::", wantErr: true},
		{value: `"`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			t.Setenv("IRISML_DATA_DELIMITER", tt.value)
			config, err := LoadConfig("", nil)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, config.Data.Delimiter)
		})
	}
}
