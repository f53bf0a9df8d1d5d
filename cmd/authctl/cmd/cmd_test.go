// file: cmd/authctl/cmd/cmd_test.go
package cmd

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"auth-refresher/config"
	"auth-refresher/internal/auth"
)

// execute runs a fresh command tree with args and returns stdout and stderr
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()

	root := &cobra.Command{Use: "authctl", SilenceUsage: true, SilenceErrors: true}
	AddCommands(root)

	var stdout, stderr bytes.Buffer
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(args)

	err := root.Execute()
	return stdout.String(), stderr.String(), err
}

// counterScript prints tok1, tok2, ... with the given lifetime, one per run
func counterScript(t *testing.T, lifetime int) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("refresh scripts require a POSIX shell")
	}

	dir := t.TempDir()
	counter := filepath.Join(dir, "count")
	body := fmt.Sprintf(`#!/bin/sh
n=$(cat %q 2>/dev/null || echo 0)
n=$((n+1))
echo "$n" > %q
echo "tok$n %d"
`, counter, counter, lifetime)

	path := filepath.Join(dir, "refresh.sh")
	if err := os.WriteFile(path, []byte(body), 0o755); err != nil {
		t.Fatalf("failed to write script: %v", err)
	}
	return path
}

func TestHeaderCommand(t *testing.T) {
	tests := []struct {
		name     string
		lifetime int
		count    string
		want     []string
	}{
		{
			name:     "single access",
			lifetime: 3600,
			count:    "1",
			want:     []string{"Authorization: Bearer tok1"},
		},
		{
			name:     "long lived token is reused",
			lifetime: 3600,
			count:    "3",
			want: []string{
				"Authorization: Bearer tok1",
				"Authorization: Bearer tok1",
				"Authorization: Bearer tok1",
			},
		},
		{
			name:     "single use token is refreshed every time",
			lifetime: 0,
			count:    "3",
			want: []string{
				"Authorization: Bearer tok1",
				"Authorization: Bearer tok2",
				"Authorization: Bearer tok3",
			},
		},
		{
			name:     "indefinite token is reused",
			lifetime: -1,
			count:    "2",
			want: []string{
				"Authorization: Bearer tok1",
				"Authorization: Bearer tok1",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			script := counterScript(t, tt.lifetime)

			stdout, _, err := execute(t, "header", "--command", script, "--count", tt.count)
			if err != nil {
				t.Fatalf("header failed: %v", err)
			}

			got := strings.Split(strings.TrimSpace(stdout), "\n")
			if len(got) != len(tt.want) {
				t.Fatalf("got %d lines %q, want %d", len(got), got, len(tt.want))
			}
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Errorf("line %d = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestHeaderCommand_NoRefreshCommand(t *testing.T) {
	stdout, stderr, err := execute(t, "header", "--command", "")
	if err != nil {
		t.Fatalf("header failed: %v", err)
	}
	if stdout != "" {
		t.Errorf("expected no header on stdout, got %q", stdout)
	}
	if !strings.Contains(stderr, "no refresh command") {
		t.Errorf("expected notice on stderr, got %q", stderr)
	}
}

func TestHeaderCommand_JSON(t *testing.T) {
	script := counterScript(t, 0)

	stdout, _, err := execute(t, "header", "--command", script, "--count", "2", "-o", "json")
	if err != nil {
		t.Fatalf("header failed: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(stdout), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 json lines, got %q", stdout)
	}
	for i, line := range lines {
		var h headerOutput
		if err := json.Unmarshal([]byte(line), &h); err != nil {
			t.Fatalf("line %d is not json: %v", i, err)
		}
		if h.Name != auth.HeaderName {
			t.Errorf("name = %q, want %q", h.Name, auth.HeaderName)
		}
		if want := fmt.Sprintf("Bearer tok%d", i+1); h.Value != want {
			t.Errorf("value = %q, want %q", h.Value, want)
		}
	}
}

func TestHeaderCommand_Errors(t *testing.T) {
	script := counterScript(t, 60)
	badOutput := filepath.Join(t.TempDir(), "bad.sh")
	if err := os.WriteFile(badOutput, []byte("#!/bin/sh\necho onlyonefield\n"), 0o755); err != nil {
		t.Fatalf("failed to write script: %v", err)
	}

	tests := []struct {
		name    string
		args    []string
		wantErr error
		wantMsg string
	}{
		{
			name:    "unsupported scheme",
			args:    []string{"header", "--command", script, "--scheme", "basic"},
			wantErr: auth.ErrUnsupportedScheme,
		},
		{
			name:    "invalid refresh output",
			args:    []string{"header", "--command", badOutput},
			wantErr: auth.ErrInvalidRefreshOutput,
		},
		{
			name:    "missing command",
			args:    []string{"header", "--command", filepath.Join(t.TempDir(), "missing")},
			wantErr: auth.ErrCommandExecution,
		},
		{
			name:    "bad output format",
			args:    []string{"header", "--command", script, "-o", "xml"},
			wantMsg: "unsupported output format",
		},
		{
			name:    "zero count",
			args:    []string{"header", "--command", script, "--count", "0"},
			wantMsg: "--count must be at least 1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := execute(t, tt.args...)
			if err == nil {
				t.Fatal("expected error")
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
			if tt.wantMsg != "" && !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("expected error containing %q, got %v", tt.wantMsg, err)
			}
		})
	}
}

func TestTokenCommand(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("refresh scripts require a POSIX shell")
	}
	script := filepath.Join(t.TempDir(), "refresh.sh")
	if err := os.WriteFile(script, []byte("#!/bin/sh\necho supersecrettoken123 3600\n"), 0o755); err != nil {
		t.Fatalf("failed to write script: %v", err)
	}

	t.Run("masked text", func(t *testing.T) {
		stdout, _, err := execute(t, "token", "--command", script)
		if err != nil {
			t.Fatalf("token failed: %v", err)
		}
		if strings.Contains(stdout, "supersecrettoken123") {
			t.Errorf("token leaked in masked output: %q", stdout)
		}
		for _, want := range []string{"scheme:    Bearer", "token:     supe...", "lifespan:  3600s"} {
			if !strings.Contains(stdout, want) {
				t.Errorf("output missing %q:\n%s", want, stdout)
			}
		}
	})

	t.Run("revealed json", func(t *testing.T) {
		stdout, _, err := execute(t, "token", "--command", script, "--reveal", "-o", "json")
		if err != nil {
			t.Fatalf("token failed: %v", err)
		}
		rec, err := auth.DecodeTokenRecord([]byte(stdout))
		if err != nil {
			t.Fatalf("failed to decode record: %v", err)
		}
		if rec.Token != "supersecrettoken123" {
			t.Errorf("token = %q", rec.Token)
		}
		if rec.LifetimeSeconds != 3600 || rec.ExpiresAt == nil {
			t.Errorf("unexpected lifetime in %+v", rec)
		}
	})

	t.Run("yaml", func(t *testing.T) {
		stdout, _, err := execute(t, "token", "--command", script, "-o", "yaml")
		if err != nil {
			t.Fatalf("token failed: %v", err)
		}
		var doc map[string]interface{}
		if err := yaml.Unmarshal([]byte(stdout), &doc); err != nil {
			t.Fatalf("output is not yaml: %v", err)
		}
		if doc["provider"] != auth.DefaultProviderName {
			t.Errorf("provider = %v", doc["provider"])
		}
		if doc["scheme"] != "Bearer" {
			t.Errorf("scheme = %v", doc["scheme"])
		}
	})

	t.Run("disabled", func(t *testing.T) {
		_, _, err := execute(t, "token", "--command", "")
		if !errors.Is(err, auth.ErrRefreshDisabled) {
			t.Errorf("expected ErrRefreshDisabled, got %v", err)
		}
	})
}

func TestScaffoldCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "authctl.yaml")

	if _, _, err := execute(t, "scaffold", path, "--command", "/opt/bin/token", "--timeout", "20s"); err != nil {
		t.Fatalf("scaffold failed: %v", err)
	}

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("scaffolded config does not load: %v", err)
	}
	if cfg.Credential.RefreshCommand != "/opt/bin/token" {
		t.Errorf("refreshCommand = %q", cfg.Credential.RefreshCommand)
	}
	if cfg.Credential.RefreshTimeout.String() != "20s" {
		t.Errorf("refreshTimeout = %s", cfg.Credential.RefreshTimeout)
	}
	if cfg.Credential.Scheme != "bearer" {
		t.Errorf("scheme = %q", cfg.Credential.Scheme)
	}

	if _, _, err := execute(t, "scaffold", path); err == nil {
		t.Error("expected refusal to overwrite existing file")
	}
	if _, _, err := execute(t, "scaffold", path, "--force"); err != nil {
		t.Errorf("scaffold --force failed: %v", err)
	}
}

func TestConfigFileOverrides(t *testing.T) {
	script := counterScript(t, 0)
	path := filepath.Join(t.TempDir(), "authctl.yaml")
	content := fmt.Sprintf("credential:\n  scheme: BEARER\n  refreshCommand: %q\n", script)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	stdout, _, err := execute(t, "header", "--config", path)
	if err != nil {
		t.Fatalf("header failed: %v", err)
	}
	if strings.TrimSpace(stdout) != "Authorization: Bearer tok1" {
		t.Errorf("unexpected output %q", stdout)
	}

	// flag wins over the file
	stdout, _, err = execute(t, "header", "--config", path, "--command", "")
	if err != nil {
		t.Fatalf("header failed: %v", err)
	}
	if stdout != "" {
		t.Errorf("expected --command to disable the header, got %q", stdout)
	}
}

func TestHeaderCommand_Fresh(t *testing.T) {
	script := counterScript(t, 3600)

	stdout, _, err := execute(t, "header", "--command", script, "--count", "3", "--fresh")
	if err != nil {
		t.Fatalf("header failed: %v", err)
	}

	want := "Authorization: Bearer tok1\nAuthorization: Bearer tok2\nAuthorization: Bearer tok3\n"
	if stdout != want {
		t.Errorf("got %q, want %q", stdout, want)
	}
}

func TestTokenCommand_OAuth2(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("refresh scripts require a POSIX shell")
	}
	dir := t.TempDir()
	timed := filepath.Join(dir, "timed.sh")
	forever := filepath.Join(dir, "forever.sh")
	if err := os.WriteFile(timed, []byte("#!/bin/sh\necho supersecrettoken123 3600\n"), 0o755); err != nil {
		t.Fatalf("failed to write script: %v", err)
	}
	if err := os.WriteFile(forever, []byte("#!/bin/sh\necho supersecrettoken123 -1\n"), 0o755); err != nil {
		t.Fatalf("failed to write script: %v", err)
	}

	t.Run("json with expiry", func(t *testing.T) {
		stdout, _, err := execute(t, "token", "--command", timed, "--oauth2", "--reveal", "-o", "json")
		if err != nil {
			t.Fatalf("token failed: %v", err)
		}
		var got oauth2Output
		if err := json.Unmarshal([]byte(stdout), &got); err != nil {
			t.Fatalf("output is not json: %v", err)
		}
		if got.AccessToken != "supersecrettoken123" || got.TokenType != "Bearer" {
			t.Errorf("unexpected token %+v", got)
		}
		if got.Expiry == nil {
			t.Error("expected an expiry for a timed token")
		}
	})

	t.Run("masked text without expiry", func(t *testing.T) {
		stdout, _, err := execute(t, "token", "--command", forever, "--oauth2")
		if err != nil {
			t.Fatalf("token failed: %v", err)
		}
		if strings.Contains(stdout, "supersecrettoken123") {
			t.Errorf("token leaked in masked output: %q", stdout)
		}
		for _, want := range []string{"access_token: supe...", "token_type:   Bearer", "expiry:       never"} {
			if !strings.Contains(stdout, want) {
				t.Errorf("output missing %q:\n%s", want, stdout)
			}
		}
	})
}

func TestConfigFileUnsupportedScheme(t *testing.T) {
	script := counterScript(t, 60)
	path := filepath.Join(t.TempDir(), "authctl.yaml")
	content := fmt.Sprintf("credential:\n  scheme: basic\n  refreshCommand: %q\n", script)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	// the config layer only requires a scheme; the provider rejects unknown ones
	if _, err := config.Load(path); err != nil {
		t.Fatalf("config.Load() error = %v", err)
	}
	if _, _, err := execute(t, "header", "--config", path); !errors.Is(err, auth.ErrUnsupportedScheme) {
		t.Errorf("expected ErrUnsupportedScheme, got %v", err)
	}
}
