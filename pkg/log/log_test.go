package log

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/YuminosukeSato/irisml/pkg/errors"
)

// TestLoggerInterface tests the TestLogger implementation
func TestLoggerInterface(t *testing.T) {
	testLogger, buffer := NewTestLogger(LevelDebug)

	testLogger.Debug("debug message", "key1", "value1", "number", 42)
	testLogger.Info("info message", OperationKey, OperationFit)
	testLogger.Warn("warning message")
	testLogger.Error("error message", fmt.Errorf("boom"), ErrorCodeKey, ErrorShapeMismatch)

	if buffer.String() == "" {
		t.Fatal("Expected log output, got empty string")
	}
	for _, msg := range []string{"debug message", "info message", "warning message", "error message"} {
		if !testLogger.ContainsMessage(msg) {
			t.Errorf("%q not found in output", msg)
		}
	}
	if !testLogger.ContainsField("number", 42.0) {
		t.Error("Expected field number=42 not found")
	}
	if !testLogger.ContainsField(ErrAttrKey, "boom") {
		t.Error("Expected leading error to be logged under the error key")
	}
}

func TestLoggerWith(t *testing.T) {
	testLogger, _ := NewTestLogger(LevelDebug)

	contextLogger := testLogger.With(ModelNameKey, "SoftmaxRegression", EstimatorIDKey, "run-001")
	contextLogger.Info("epoch finished", EpochKey, 3)

	if !testLogger.ContainsField(ModelNameKey, "SoftmaxRegression") {
		t.Error("Model name context not found")
	}
	if !testLogger.ContainsField(EpochKey, 3.0) {
		t.Error("Epoch field not found")
	}
}

func TestLoggerEnabled(t *testing.T) {
	testLogger, _ := NewTestLogger(LevelInfo)
	ctx := context.Background()

	if !testLogger.Enabled(ctx, LevelInfo) || !testLogger.Enabled(ctx, LevelError) {
		t.Error("Logger should be enabled for Info and Error")
	}
	if testLogger.Enabled(ctx, LevelDebug) {
		t.Error("Logger should not be enabled for Debug level")
	}

	testLogger.Debug("this should not appear")
	if testLogger.ContainsMessage("this should not appear") {
		t.Error("Debug message should not appear when level is Info")
	}
}

func TestSlogLoggerAddsStacktrace(t *testing.T) {
	var buf bytes.Buffer
	handler := WrapByErrFmtHandler(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	logger := NewLogger(slog.New(handler)).With(ComponentKey, "test")

	logger.Error("fit failed", errors.NewShapeError("Fit", []int{-1, 4}, []int{4, 3}), OperationKey, OperationFit)

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("invalid JSON log line: %v", err)
	}
	if entry[ComponentKey] != "test" {
		t.Errorf("component = %v", entry[ComponentKey])
	}
	if entry[OperationKey] != OperationFit {
		t.Errorf("operation = %v", entry[OperationKey])
	}
	if _, ok := entry[StacktraceAttrKey]; !ok {
		t.Error("expected stacktrace attribute for cockroachdb error")
	}
}

func TestSetupLogger(t *testing.T) {
	prev := slog.Default()
	defer slog.SetDefault(prev)
	defer errors.SetZerologWarnFunc(nil)

	var stdout, stderr bytes.Buffer
	if err := SetupLogger(Options{Level: "info", Stdout: &stdout, Stderr: &stderr}); err != nil {
		t.Fatalf("SetupLogger: %v", err)
	}

	GetLoggerWithName("pipeline").Info("hello", SamplesKey, 150)
	out := stdout.String()
	if !strings.Contains(out, `"message":"hello"`) || !strings.Contains(out, `"severity":"INFO"`) {
		t.Errorf("unexpected log output: %s", out)
	}
	if !strings.Contains(out, `"ml.component":"pipeline"`) {
		t.Errorf("component missing: %s", out)
	}

	errors.Warn(errors.NewUndefinedMetricWarning("precision", "no predicted samples", 0))
	if !strings.Contains(stderr.String(), `"metric":"precision"`) {
		t.Errorf("warning not routed to zerolog: %s", stderr.String())
	}
}

func TestSetupLoggerRejectsUnknownLevel(t *testing.T) {
	err := SetupLogger(Options{Level: "verbose"})
	var valErr *errors.ValidationError
	if !errors.As(err, &valErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestZerologWarnFunc(t *testing.T) {
	var buf bytes.Buffer
	warn := NewZerologWarnFunc(zerolog.New(&buf))

	warn(fmt.Errorf("plain warning"))
	if !strings.Contains(buf.String(), `"level":"warn"`) || !strings.Contains(buf.String(), "plain warning") {
		t.Errorf("unexpected output: %s", buf.String())
	}
}

func BenchmarkLogging(b *testing.B) {
	testLogger, _ := NewTestLogger(LevelInfo)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		testLogger.Info("benchmark message", EpochKey, i, LossKey, 0.5)
	}
}
