package cli

import (
	"io"
	"testing"

	"github.com/charmbracelet/log"
)

func TestRootCommandRegistersSubcommands(t *testing.T) {
	c := New(io.Discard, LogInfo)
	root := c.RootCommand()

	if root.Name() != appName {
		t.Errorf("root command name = %q, want %q", root.Name(), appName)
	}

	want := []string{"install", "plan", "repos", "serve", "boot", "cache", "completion"}
	for _, name := range want {
		found := false
		for _, cmd := range root.Commands() {
			if cmd.Name() == name {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("root command missing subcommand %q", name)
		}
	}
}

func TestSetLogLevel(t *testing.T) {
	c := New(io.Discard, LogInfo)

	c.SetLogLevel(LogDebug)
	if got := c.Logger.GetLevel(); got != LogDebug {
		t.Errorf("log level = %v, want %v", got, LogDebug)
	}
}

func TestLevelFromEnv(t *testing.T) {
	tests := []struct {
		value string
		want  log.Level
	}{
		{"", LogInfo},
		{"debug", LogDebug},
		{"warn", LogWarn},
		{"warning", LogWarn},
		{"error", LogError},
		{"ERROR", LogError},
		{"nonsense", LogInfo},
	}

	for _, tt := range tests {
		t.Setenv(envLog, tt.value)
		if got := LevelFromEnv(); got != tt.want {
			t.Errorf("LevelFromEnv() with %s=%q = %v, want %v", envLog, tt.value, got, tt.want)
		}
	}
}

func TestVerboseFlagRaisesLevel(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", t.TempDir())

	c := New(io.Discard, LogInfo)
	root := c.RootCommand()

	root.SetArgs([]string{"cache", "path", "--verbose"})
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	if err := root.Execute(); err != nil {
		t.Fatalf("Execute() error: %v", err)
	}

	if got := c.Logger.GetLevel(); got != LogDebug {
		t.Errorf("log level after --verbose = %v, want %v", got, LogDebug)
	}
}
