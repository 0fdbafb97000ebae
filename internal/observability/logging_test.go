package observability

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/vyrodovalexey/avarest/internal/util"
)

func TestDefaultLogConfig(t *testing.T) {
	t.Parallel()

	cfg := DefaultLogConfig()

	assert.Equal(t, "info", cfg.Level)
	assert.Equal(t, "json", cfg.Format)
	assert.Equal(t, "stdout", cfg.Output)
}

func TestNewLogger(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		config  LogConfig
		wantErr bool
	}{
		{name: "default config", config: DefaultLogConfig()},
		{name: "console format", config: LogConfig{Level: "debug", Format: "console", Output: "stdout"}},
		{name: "stderr output", config: LogConfig{Level: "warn", Format: "json", Output: "stderr"}},
		{name: "empty values", config: LogConfig{}},
		{name: "invalid level", config: LogConfig{Level: "loud"}, wantErr: true},
		{name: "invalid format", config: LogConfig{Format: "xml"}, wantErr: true},
		{name: "unwritable output", config: LogConfig{Output: "/nonexistent/dir/log.json"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			logger, err := NewLogger(tt.config)
			if tt.wantErr {
				assert.Error(t, err)
				assert.Nil(t, logger)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, logger)
		})
	}
}

func TestNewLogger_FileOutput(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "server.log")
	logger, err := NewLogger(LogConfig{Level: "info", Format: "json", Output: path})
	require.NoError(t, err)

	logger.Info("written to file")
	require.NoError(t, logger.Sync())
	assert.FileExists(t, path)
}

func TestZapLogger_Levels(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.DebugLevel)
	logger := NewLoggerFromCore(core)

	logger.Debug("debug message", String("k", "v"))
	logger.Info("info message", Int("n", 1))
	logger.Warn("warn message", Bool("b", true))
	logger.Error("error message", Error(assert.AnError))

	entries := logs.All()
	require.Len(t, entries, 4)
	assert.Equal(t, zapcore.DebugLevel, entries[0].Level)
	assert.Equal(t, "info message", entries[1].Message)
	assert.Equal(t, int64(1), entries[1].ContextMap()["n"])
	assert.Equal(t, zapcore.WarnLevel, entries[2].Level)
	assert.Equal(t, assert.AnError.Error(), entries[3].ContextMap()["error"])
}

func TestZapLogger_With(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.InfoLevel)
	logger := NewLoggerFromCore(core).With(String("component", "router"))

	logger.Info("started")

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "router", logs.All()[0].ContextMap()["component"])
}

func TestZapLogger_WithContext(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		ctx    context.Context
		expect map[string]any
	}{
		{
			name:   "empty context",
			ctx:    context.Background(),
			expect: map[string]any{},
		},
		{
			name:   "request id only",
			ctx:    util.ContextWithRequestID(context.Background(), "req-1"),
			expect: map[string]any{"request_id": "req-1"},
		},
		{
			name: "all fields",
			ctx: util.ContextWithRoute(
				util.ContextWithSpanID(
					util.ContextWithTraceID(
						util.ContextWithRequestID(context.Background(), "req-2"),
						"trace-2"),
					"span-2"),
				"GetUser"),
			expect: map[string]any{
				"request_id": "req-2",
				"trace_id":   "trace-2",
				"span_id":    "span-2",
				"route":      "GetUser",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			core, logs := observer.New(zapcore.InfoLevel)
			NewLoggerFromCore(core).WithContext(tt.ctx).Info("handled")

			require.Equal(t, 1, logs.Len())
			assert.Equal(t, tt.expect, logs.All()[0].ContextMap())
		})
	}
}

func TestParseLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input   string
		want    zapcore.Level
		wantErr bool
	}{
		{input: "", want: zapcore.InfoLevel},
		{input: "debug", want: zapcore.DebugLevel},
		{input: "info", want: zapcore.InfoLevel},
		{input: "warn", want: zapcore.WarnLevel},
		{input: "error", want: zapcore.ErrorLevel},
		{input: "verbose", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()

			got, err := parseLevel(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGlobalLogger(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	logger := NewLoggerFromCore(core)

	SetGlobalLogger(logger)
	t.Cleanup(func() { SetGlobalLogger(nil) })

	GetGlobalLogger().Info("via global")
	assert.Equal(t, 1, logs.Len())
}

func TestGetGlobalLogger_DefaultFallback(t *testing.T) {
	SetGlobalLogger(nil)
	assert.NotNil(t, GetGlobalLogger())
}

func TestNopLogger(t *testing.T) {
	t.Parallel()

	logger := NopLogger()

	assert.NotPanics(t, func() {
		logger.Debug("d")
		logger.Info("i")
		logger.Warn("w")
		logger.Error("e")
		logger.With(String("k", "v")).WithContext(context.Background()).Info("x")
		_ = logger.Sync()
	})
}

func TestZapLogger_Concurrent(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.InfoLevel)
	logger := NewLoggerFromCore(core)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			logger.With(Int("worker", n)).Info("tick")
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 20, logs.Len())
}
