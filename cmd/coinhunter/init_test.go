package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nao1215/coinhunter/internal/config"
)

func TestNewInitCmd(t *testing.T) {
	t.Parallel()

	cmd := NewInitCmd()

	t.Run("has output flag", func(t *testing.T) {
		t.Parallel()
		flag := cmd.Flags().Lookup("output")
		if flag == nil {
			t.Fatal("expected output flag")
		}
		if flag.Shorthand != "o" {
			t.Errorf("expected shorthand 'o', got %q", flag.Shorthand)
		}
		if flag.DefValue != config.DefaultConfigFile {
			t.Errorf("expected default %q, got %q", config.DefaultConfigFile, flag.DefValue)
		}
	})

	t.Run("has force flag", func(t *testing.T) {
		t.Parallel()
		flag := cmd.Flags().Lookup("force")
		if flag == nil {
			t.Fatal("expected force flag")
		}
		if flag.Shorthand != "f" {
			t.Errorf("expected shorthand 'f', got %q", flag.Shorthand)
		}
	})
}

func TestRunInitCmd(t *testing.T) {
	t.Parallel()

	t.Run("creates a loadable config file", func(t *testing.T) {
		t.Parallel()

		outputPath := filepath.Join(t.TempDir(), "nested", ".coinhunter")

		var buf bytes.Buffer
		cmd := NewInitCmd()
		cmd.SetOut(&buf)
		cmd.SetArgs([]string{"-o", outputPath})

		if err := cmd.Execute(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), "Created configuration file") {
			t.Errorf("unexpected output %q", buf.String())
		}

		content, err := os.ReadFile(outputPath)
		if err != nil {
			t.Fatalf("failed to read file: %v", err)
		}
		for _, key := range []string{"defaults:", "sites:", "depth:", "quiescence:"} {
			if !strings.Contains(string(content), key) {
				t.Errorf("expected config to contain %q", key)
			}
		}

		file, err := config.LoadConfigFile(outputPath)
		if err != nil {
			t.Fatalf("template does not parse: %v", err)
		}
		if file.Defaults.Depth != config.DefaultDepth {
			t.Errorf("expected default depth %d, got %d", config.DefaultDepth, file.Defaults.Depth)
		}
		if file.Defaults.Quiescence != config.DefaultQuiescence {
			t.Errorf("expected quiescence %v, got %v", config.DefaultQuiescence, file.Defaults.Quiescence)
		}
	})

	t.Run("fails if file exists without force", func(t *testing.T) {
		t.Parallel()

		outputPath := filepath.Join(t.TempDir(), ".coinhunter")
		if err := os.WriteFile(outputPath, []byte("existing"), 0600); err != nil {
			t.Fatalf("failed to create test file: %v", err)
		}

		cmd := NewInitCmd()
		cmd.SetOut(&bytes.Buffer{})
		cmd.SetArgs([]string{"-o", outputPath})

		err := cmd.Execute()
		if err == nil || !strings.Contains(err.Error(), "already exists") {
			t.Errorf("expected 'already exists' error, got %v", err)
		}
	})

	t.Run("overwrites file with force flag", func(t *testing.T) {
		t.Parallel()

		outputPath := filepath.Join(t.TempDir(), ".coinhunter")
		if err := os.WriteFile(outputPath, []byte("existing"), 0600); err != nil {
			t.Fatalf("failed to create test file: %v", err)
		}

		cmd := NewInitCmd()
		cmd.SetOut(&bytes.Buffer{})
		cmd.SetArgs([]string{"-o", outputPath, "-f"})

		if err := cmd.Execute(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		content, err := os.ReadFile(outputPath)
		if err != nil {
			t.Fatalf("failed to read file: %v", err)
		}
		if string(content) == "existing" {
			t.Error("expected file to be overwritten")
		}
	})
}
