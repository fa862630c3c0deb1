// Package config loads irisml run configuration.
//
// Values are resolved by viper in the following order: command line flags,
// IRISML_* environment variables, the configuration file, defaults.
package config

import (
	"reflect"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/YuminosukeSato/irisml/pkg/errors"
)

// EnvPrefix is the prefix of environment variable overrides, e.g.
// IRISML_MODEL_EPOCHS overrides model.epochs.
const EnvPrefix = "IRISML"

// Config is the configuration of one pipeline run.
type Config struct {
	Data       DataConfig       `mapstructure:"data"`
	Split      SplitConfig      `mapstructure:"split"`
	Preprocess PreprocessConfig `mapstructure:"preprocess"`
	Model      ModelConfig      `mapstructure:"model"`
	Output     OutputConfig     `mapstructure:"output"`
	Log        LogConfig        `mapstructure:"log"`
}

// DataConfig describes the input table. An empty Path selects the embedded
// Iris dataset.
type DataConfig struct {
	Path           string    `mapstructure:"path"`
	LabelColumn    string    `mapstructure:"label_column"`
	FeatureColumns []string  `mapstructure:"feature_columns"`
	DropColumns    []string  `mapstructure:"drop_columns"`
	Delimiter      Delimiter `mapstructure:"delimiter"`
}

// SplitConfig controls the train/test split.
type SplitConfig struct {
	TestSize float64 `mapstructure:"test_size" validate:"gt=0,lt=1"`
	Seed     uint64  `mapstructure:"seed"`
}

// PreprocessConfig controls feature and label encoding.
type PreprocessConfig struct {
	Standardize bool   `mapstructure:"standardize"`
	LabelOrder  string `mapstructure:"label_order" validate:"oneof=sorted first_seen"`
}

// ModelConfig holds the softmax regression hyperparameters.
type ModelConfig struct {
	Solver             string  `mapstructure:"solver" validate:"oneof=sgd adam"`
	LearningRate       float64 `mapstructure:"learning_rate" validate:"gt=0"`
	Epochs             int     `mapstructure:"epochs" validate:"gte=1"`
	BatchSize          int     `mapstructure:"batch_size" validate:"gte=0"`
	ValidationFraction float64 `mapstructure:"validation_fraction" validate:"gte=0,lt=1"`
	InitStd            float64 `mapstructure:"init_std" validate:"gte=0"`
	Seed               uint64  `mapstructure:"seed"`
	NJobs              int     `mapstructure:"n_jobs" validate:"gte=0"`
}

// OutputConfig controls artifacts written after training.
type OutputConfig struct {
	ModelPath string `mapstructure:"model_path"`
}

// LogConfig controls the process logger.
type LogConfig struct {
	Level string `mapstructure:"level" validate:"oneof=debug info warn error"`
	Path  string `mapstructure:"path"`
}

// Delimiter is a single field separator. It decodes from a one-character
// string or from "tab".
type Delimiter rune

// String returns the delimiter as a string.
func (d Delimiter) String() string {
	return string(rune(d))
}

// GetDefaultConfig returns the default configuration.
func GetDefaultConfig() *Config {
	return &Config{
		Data: DataConfig{
			FeatureColumns: []string{},
			DropColumns:    []string{},
			Delimiter:      ',',
		},
		Split: SplitConfig{
			TestSize: 0.2,
			Seed:     42,
		},
		Preprocess: PreprocessConfig{
			Standardize: true,
			LabelOrder:  "sorted",
		},
		Model: ModelConfig{
			Solver:             "adam",
			LearningRate:       0.01,
			Epochs:             100,
			BatchSize:          0,
			ValidationFraction: 0.1,
			InitStd:            0.01,
			Seed:               42,
			NJobs:              1,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

func setDefault(v *viper.Viper) {
	d := GetDefaultConfig()
	// [data]
	v.SetDefault("data.path", d.Data.Path)
	v.SetDefault("data.label_column", d.Data.LabelColumn)
	v.SetDefault("data.feature_columns", d.Data.FeatureColumns)
	v.SetDefault("data.drop_columns", d.Data.DropColumns)
	v.SetDefault("data.delimiter", d.Data.Delimiter.String())
	// [split]
	v.SetDefault("split.test_size", d.Split.TestSize)
	v.SetDefault("split.seed", d.Split.Seed)
	// [preprocess]
	v.SetDefault("preprocess.standardize", d.Preprocess.Standardize)
	v.SetDefault("preprocess.label_order", d.Preprocess.LabelOrder)
	// [model]
	v.SetDefault("model.solver", d.Model.Solver)
	v.SetDefault("model.learning_rate", d.Model.LearningRate)
	v.SetDefault("model.epochs", d.Model.Epochs)
	v.SetDefault("model.batch_size", d.Model.BatchSize)
	v.SetDefault("model.validation_fraction", d.Model.ValidationFraction)
	v.SetDefault("model.init_std", d.Model.InitStd)
	v.SetDefault("model.seed", d.Model.Seed)
	v.SetDefault("model.n_jobs", d.Model.NJobs)
	// [output]
	v.SetDefault("output.model_path", d.Output.ModelPath)
	// [log]
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.path", d.Log.Path)
}

// FlagKeys maps command line flag names to configuration keys.
var FlagKeys = map[string]string{
	"data":                "data.path",
	"label-column":        "data.label_column",
	"feature-columns":     "data.feature_columns",
	"drop-columns":        "data.drop_columns",
	"delimiter":           "data.delimiter",
	"test-size":           "split.test_size",
	"seed":                "split.seed",
	"standardize":         "preprocess.standardize",
	"label-order":         "preprocess.label_order",
	"solver":              "model.solver",
	"learning-rate":       "model.learning_rate",
	"epochs":              "model.epochs",
	"batch-size":          "model.batch_size",
	"validation-fraction": "model.validation_fraction",
	"init-std":            "model.init_std",
	"model-seed":          "model.seed",
	"n-jobs":              "model.n_jobs",
	"output":              "output.model_path",
	"log-level":           "log.level",
	"log-path":            "log.path",
}

// New returns a viper instance with defaults and environment bindings.
func New() *viper.Viper {
	v := viper.New()
	setDefault(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// BindFlags binds every flag of FlagKeys that is defined in flags. Flags only
// take effect when set explicitly.
func BindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	for name, key := range FlagKeys {
		flag := flags.Lookup(name)
		if flag == nil {
			continue
		}
		if err := v.BindPFlag(key, flag); err != nil {
			return errors.Wrapf(err, "bind flag --%s", name)
		}
	}
	return nil
}

// LoadConfig reads path (if not empty) into a fresh viper instance, applies
// environment overrides and flags, then decodes and validates the result.
func LoadConfig(path string, flags *pflag.FlagSet) (*Config, error) {
	v := New()
	if flags != nil {
		if err := BindFlags(v, flags); err != nil {
			return nil, err
		}
	}
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "read config %s", path)
		}
	}
	return Decode(v)
}

// Decode unmarshals v into a Config and validates it.
func Decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	hook := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		stringToDelimiterHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))
	if err := v.Unmarshal(&cfg, hook); err != nil {
		return nil, errors.Wrap(err, "decode config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("mapstructure"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate checks every field constraint and returns the first violation as
// a ValidationError named by its configuration key.
func (config *Config) Validate() error {
	err := validate.Struct(config)
	if err == nil {
		return nil
	}
	var fieldErrors validator.ValidationErrors
	if errors.As(err, &fieldErrors) && len(fieldErrors) > 0 {
		fe := fieldErrors[0]
		_, key, _ := strings.Cut(fe.Namespace(), ".")
		return errors.NewValidationError(key, describe(fe), fe.Value())
	}
	return errors.Wrap(err, "validate config")
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "oneof":
		return "must be one of [" + strings.ReplaceAll(fe.Param(), " ", ",") + "]"
	case "gt":
		return "must be greater than " + fe.Param()
	case "gte":
		return "must be at least " + fe.Param()
	case "lt":
		return "must be less than " + fe.Param()
	default:
		return "failed on " + fe.Tag()
	}
}

func stringToDelimiterHookFunc() mapstructure.DecodeHookFuncType {
	return func(from reflect.Type, to reflect.Type, data any) (any, error) {
		if from.Kind() != reflect.String || to != reflect.TypeOf(Delimiter(0)) {
			return data, nil
		}
		s := reflect.ValueOf(data).String()
		switch {
		case s == "":
			return Delimiter(','), nil
		case s == "tab" || s == `\t`:
			return Delimiter('\t'), nil
		case utf8.RuneCountInString(s) == 1:
			r, _ := utf8.DecodeRuneInString(s)
			if r == '\n' || r == '\r' || r == '"' || r == utf8.RuneError {
				return nil, errors.NewValidationError("data.delimiter", "invalid delimiter", s)
			}
			return Delimiter(r), nil
		default:
			return nil, errors.NewValidationError("data.delimiter", "must be a single character or tab", s)
		}
	}
}
