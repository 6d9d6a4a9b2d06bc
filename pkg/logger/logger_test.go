package logger_test

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/donaldgifford/effluent-watch/pkg/logger"
)

func TestParseLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  slog.Level
	}{
		{name: "debug", input: "debug", want: slog.LevelDebug},
		{name: "info", input: "info", want: slog.LevelInfo},
		{name: "warn", input: "warn", want: slog.LevelWarn},
		{name: "error", input: "error", want: slog.LevelError},
		{name: "empty defaults to info", input: "", want: slog.LevelInfo},
		{name: "unknown defaults to info", input: "trace", want: slog.LevelInfo},
		{name: "upper case", input: "DEBUG", want: slog.LevelDebug},
		{name: "warning alias", input: "warning", want: slog.LevelWarn},
		{name: "surrounding space", input: " error ", want: slog.LevelError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := logger.ParseLevel(tt.input)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNew(t *testing.T) {
	t.Parallel()
	require.NotNil(t, logger.New("info", "text"))
}

func TestNewWithWriter(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		level   string
		format  string
		log     func(*slog.Logger)
		want    []string
		wantNil bool
	}{
		{
			name:   "text format",
			level:  "info",
			format: "text",
			log:    func(l *slog.Logger) { l.Info("cycle complete", "zones", 5) },
			want:   []string{"level=INFO", `msg="cycle complete"`, "zones=5"},
		},
		{
			name:   "json format",
			level:  "info",
			format: "json",
			log:    func(l *slog.Logger) { l.Warn("threshold incomplete", "stage", "aerobic") },
			want:   []string{`"level":"WARN"`, `"msg":"threshold incomplete"`, `"stage":"aerobic"`},
		},
		{
			name:   "unknown format falls back to text",
			level:  "info",
			format: "logfmt",
			log:    func(l *slog.Logger) { l.Info("seeded default thresholds") },
			want:   []string{`msg="seeded default thresholds"`},
		},
		{
			name:   "debug visible at debug level",
			level:  "debug",
			format: "text",
			log:    func(l *slog.Logger) { l.Debug("malformed reading treated as no data") },
			want:   []string{"level=DEBUG"},
		},
		{
			name:    "debug suppressed at info level",
			level:   "info",
			format:  "text",
			log:     func(l *slog.Logger) { l.Debug("cycle complete") },
			wantNil: true,
		},
		{
			name:    "info suppressed at warn level",
			level:   "warn",
			format:  "json",
			log:     func(l *slog.Logger) { l.Info("loaded thresholds") },
			wantNil: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer
			tt.log(logger.NewWithWriter(&buf, tt.level, tt.format))

			if tt.wantNil {
				assert.Empty(t, buf.String())
				return
			}
			for _, want := range tt.want {
				assert.Contains(t, buf.String(), want)
			}
		})
	}
}

func TestComponent(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	l := logger.Component(logger.NewWithWriter(&buf, "info", "JSON"), "monitor")
	l.Info("cycle complete", "zone", "north-1")

	output := buf.String()
	assert.Contains(t, output, `"component":"monitor"`)
	assert.Contains(t, output, `"zone":"north-1"`)
}
