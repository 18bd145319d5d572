package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	return path
}

func TestRun_Version(t *testing.T) {
	if code := run(context.Background(), []string{"version"}); code != 0 {
		t.Errorf("version exit = %d, want 0", code)
	}
}

func TestRun_InvalidConfig(t *testing.T) {
	cfg := writeConfig(t, "connect:\n  timeout: -1s\n")
	if code := run(context.Background(), []string{"--config", cfg, "list", "i22"}); code != 2 {
		t.Errorf("exit = %d, want 2", code)
	}
}

func TestRun_UnknownCommand(t *testing.T) {
	if code := run(context.Background(), []string{"frobnicate"}); code != 2 {
		t.Errorf("exit = %d, want 2", code)
	}
}

func TestRun_ConnectExitCodes(t *testing.T) {
	t.Setenv("BEAMLINE", "")
	cfg := writeConfig(t, "connect:\n  timeout: 100ms\nlogging:\n  level: error\n")

	tests := []struct {
		name string
		args []string
		want int
	}{
		{"simulated", []string{"--config", cfg, "connect", "i22", "--sim-backend"}, 0},
		{"offline", []string{"--config", cfg, "connect", "i22"}, 1},
		{"unknown beamline", []string{"--config", cfg, "connect", "x1"}, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if code := run(context.Background(), tt.args); code != tt.want {
				t.Errorf("exit = %d, want %d", code, tt.want)
			}
		})
	}
}
