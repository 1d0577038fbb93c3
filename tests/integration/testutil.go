// Package integration drives the built castlists binary end to end.
package integration

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
)

// castlistsBin is the binary built by TestMain; buildErr is why it is missing.
var (
	castlistsBin string
	buildErr     error
)

// buildBinary compiles ./cmd/castlists from the module root into dir.
func buildBinary(dir string) (string, error) {
	root, err := os.Getwd()
	if err != nil {
		return "", err
	}
	for {
		if _, err := os.Stat(filepath.Join(root, "go.mod")); err == nil {
			break
		}
		parent := filepath.Dir(root)
		if parent == root {
			return "", errors.New("go.mod not found above working directory")
		}
		root = parent
	}

	bin := filepath.Join(dir, "castlists")
	cmd := exec.Command("go", "build", "-o", bin, "./cmd/castlists")
	cmd.Dir = root
	if out, err := cmd.CombinedOutput(); err != nil {
		return "", fmt.Errorf("go build: %w: %s", err, out)
	}
	return bin, nil
}

// TestEnv is one isolated config directory whose config.yaml points at its
// own data directory.
type TestEnv struct {
	t       *testing.T
	Config  string
	DataDir string
}

// NewTestEnv creates a TestEnv under t.TempDir.
func NewTestEnv(t *testing.T) *TestEnv {
	t.Helper()
	if buildErr != nil || castlistsBin == "" {
		t.Fatalf("castlists binary unavailable: %v", buildErr)
	}

	dir := t.TempDir()
	env := &TestEnv{t: t, Config: filepath.Join(dir, "config"), DataDir: filepath.Join(dir, "data")}
	if err := os.MkdirAll(env.Config, 0o755); err != nil {
		t.Fatalf("create config dir: %v", err)
	}
	cfg := "backend: sqlite\ndata_dir: " + env.DataDir + "\n"
	if err := os.WriteFile(filepath.Join(env.Config, "config.yaml"), []byte(cfg), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return env
}

// CmdResult is the captured outcome of one invocation.
type CmdResult struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Run executes the binary with args. CASTLISTS_* variables from the outer
// environment are blanked so only config.yaml applies.
func (e *TestEnv) Run(args ...string) CmdResult {
	e.t.Helper()
	cmd := exec.Command(castlistsBin, append([]string{"--config-dir", e.Config}, args...)...)
	cmd.Env = append(os.Environ(), "CASTLISTS_DATA_DIR=", "CASTLISTS_BACKEND=", "CASTLISTS_SYNC=", "CASTLISTS_ACTOR=")

	var stdout, stderr bytes.Buffer
	cmd.Stdout, cmd.Stderr = &stdout, &stderr

	res := CmdResult{}
	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			e.t.Fatalf("run castlists %v: %v", args, err)
		}
		res.ExitCode = exitErr.ExitCode()
	}
	res.Stdout, res.Stderr = stdout.String(), stderr.String()
	return res
}

// MustRun is Run that fails the test on a non-zero exit.
func (e *TestEnv) MustRun(args ...string) CmdResult {
	e.t.Helper()
	res := e.Run(args...)
	if res.ExitCode != 0 {
		e.t.Fatalf("castlists %v exited %d\nstdout: %s\nstderr: %s", args, res.ExitCode, res.Stdout, res.Stderr)
	}
	return res
}

// ParseJSON decodes command output into T.
func ParseJSON[T any](t *testing.T, out string) T {
	t.Helper()
	var v T
	if err := json.Unmarshal([]byte(out), &v); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	return v
}

// ReadJSONLFile decodes every record of a JSONL file into T.
func ReadJSONLFile[T any](t *testing.T, path string) []T {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open %s: %v", path, err)
	}
	defer f.Close()

	var records []T
	dec := json.NewDecoder(f)
	for {
		var rec T
		err := dec.Decode(&rec)
		if errors.Is(err, io.EOF) {
			return records
		}
		if err != nil {
			t.Fatalf("decode %s: %v", path, err)
		}
		records = append(records, rec)
	}
}
