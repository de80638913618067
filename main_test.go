package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"sysmonitor/internal/services"
)

func TestParseFlags(t *testing.T) {
	opts, err := parseFlags([]string{"-c", "mon.yaml", "--headless", "--serve", "--token", "grafana"}, &bytes.Buffer{})
	if err != nil {
		t.Fatalf("parseFlags: %v", err)
	}
	if opts.configPath != "mon.yaml" || !opts.headless || !opts.serve || opts.tokenName != "grafana" {
		t.Errorf("opts = %+v", opts)
	}

	if _, err := parseFlags([]string{"--bogus"}, &bytes.Buffer{}); err == nil {
		t.Error("unknown flag should fail")
	}
}

func TestRunVersion(t *testing.T) {
	var stdout bytes.Buffer
	if code := run([]string{"--version"}, &stdout, &bytes.Buffer{}); code != 0 {
		t.Fatalf("exit code = %d", code)
	}
	if !strings.HasPrefix(stdout.String(), "sysmonitor ") {
		t.Errorf("stdout = %q", stdout.String())
	}
}

func TestRunBadConfigExitsOne(t *testing.T) {
	var stderr bytes.Buffer
	if code := run([]string{"--config", "/nonexistent/sysmonitor.yaml"}, &bytes.Buffer{}, &stderr); code != 1 {
		t.Errorf("exit code = %d, want 1", code)
	}
	if !strings.Contains(stderr.String(), "read config") {
		t.Errorf("stderr = %q", stderr.String())
	}
}

func TestRunPrintsValidToken(t *testing.T) {
	const secret = "main-test-secret-0123456789abcdef0123"
	t.Setenv("SYSMON_SERVER_SECRET", secret)

	var stdout, stderr bytes.Buffer
	if code := run([]string{"--token", "lab-grafana"}, &stdout, &stderr); code != 0 {
		t.Fatalf("exit code = %d, stderr = %s", code, stderr.String())
	}

	auth, err := services.NewAuthService(secret, time.Hour, zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}
	claims, err := auth.ValidateToken(strings.TrimSpace(stdout.String()))
	if err != nil {
		t.Fatalf("printed token does not validate: %v", err)
	}
	if claims.ClientName != "lab-grafana" {
		t.Errorf("client name = %q", claims.ClientName)
	}
}

func TestRunRejectsBadClientName(t *testing.T) {
	t.Setenv("SYSMON_SERVER_SECRET", "main-test-secret-0123456789abcdef0123")
	if code := run([]string{"--token", "bad name!"}, &bytes.Buffer{}, &bytes.Buffer{}); code != 1 {
		t.Errorf("exit code = %d, want 1", code)
	}
}
