package cli

import (
	"bytes"
	"context"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
)

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, log.InfoLevel)

	logger.Info("test message")

	if buf.Len() == 0 {
		t.Error("logger should have written output")
	}
}

func TestNewLoggerLevels(t *testing.T) {
	tests := []struct {
		name  string
		level log.Level
		emit  func(*log.Logger)
		want  bool
	}{
		{"info passes at info", log.InfoLevel, func(l *log.Logger) { l.Info("x") }, true},
		{"debug filtered at info", log.InfoLevel, func(l *log.Logger) { l.Debug("x") }, false},
		{"debug passes at debug", log.DebugLevel, func(l *log.Logger) { l.Debug("x") }, true},
		{"info filtered at warn", log.WarnLevel, func(l *log.Logger) { l.Info("x") }, false},
		{"error passes at warn", log.WarnLevel, func(l *log.Logger) { l.Error("x") }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			tt.emit(newLogger(&buf, tt.level))

			if got := buf.Len() > 0; got != tt.want {
				t.Errorf("output present = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestProgress(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, log.InfoLevel)

	prog := newProgress(logger)
	time.Sleep(10 * time.Millisecond)
	prog.done("install completed")

	out := buf.String()
	if !strings.Contains(out, "install completed") {
		t.Errorf("done() output missing message: %q", out)
	}
	if !regexp.MustCompile(`\([0-9.]+[a-zµ]*s\)`).MatchString(out) {
		t.Errorf("done() output missing elapsed duration: %q", out)
	}
}

func TestWithLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, log.InfoLevel)

	ctx := withLogger(context.Background(), logger)
	if got := loggerFromContext(ctx); got != logger {
		t.Error("loggerFromContext should return the attached logger")
	}

	loggerFromContext(ctx).Info("test")
	if buf.Len() == 0 {
		t.Error("attached logger should write to buffer")
	}
}

func TestLoggerFromContextDefault(t *testing.T) {
	if loggerFromContext(context.Background()) == nil {
		t.Error("loggerFromContext should return default logger when none set")
	}
}
