package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestValidateConfigCmd_AcceptsValidFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("pipeline:\n  hop_ms: 1000\n  window_ms: 60000\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	configPath = path
	cmd := newValidateConfigCmd()
	if err := cmd.RunE(cmd, nil); err != nil {
		t.Errorf("validate-config: unexpected error: %v", err)
	}
}

func TestValidateConfigCmd_RejectsMissingFile(t *testing.T) {
	configPath = filepath.Join(t.TempDir(), "does-not-exist.yaml")
	cmd := newValidateConfigCmd()
	if err := cmd.RunE(cmd, nil); err == nil {
		t.Error("expected an error for a missing config file")
	}
}

func TestValidateConfigCmd_RejectsInvalidValues(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("pipeline:\n  hop_ms: 0\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	configPath = path
	cmd := newValidateConfigCmd()
	if err := cmd.RunE(cmd, nil); err == nil {
		t.Error("expected an error for hop_ms: 0")
	}
}

func TestRunCmd_HasGraphHintsFlag(t *testing.T) {
	cmd := newRunCmd()
	if cmd.Flags().Lookup("graph-hints") == nil {
		t.Error("missing flag: --graph-hints")
	}
}

func TestVersionCmd_Runs(t *testing.T) {
	cmd := newVersionCmd()
	cmd.Run(cmd, nil)
}
