package config

import (
	"bytes"
	"flag"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/HershyOrg/dtrader/logger"
	"github.com/HershyOrg/dtrader/scope"
)

func writeProps(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "dtrader.properties")
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatalf("write properties: %v", err)
	}
	return path
}

func resolve(t *testing.T, args []string, env map[string]string) (*Config, error) {
	t.Helper()
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	f := Bind(fs)
	if err := fs.Parse(args); err != nil {
		t.Fatalf("parse flags: %v", err)
	}
	return f.Resolve(func(k string) string { return env[k] })
}

func TestDefaults(t *testing.T) {
	cfg, err := resolve(t, []string{"--properties=" + writeProps(t, "")}, nil)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if cfg.LogLevel != logger.LevelInfo || cfg.Addr != DefaultAddr {
		t.Errorf("unexpected defaults %+v", cfg)
	}
	if cfg.PluginDir != "" || cfg.DatabaseURL != "" || cfg.LogFile != "" {
		t.Errorf("expected empty optional settings, got %+v", cfg)
	}
}

func TestMissingDefaultFileIsIgnored(t *testing.T) {
	wd, _ := os.Getwd()
	defer os.Chdir(wd)
	if err := os.Chdir(t.TempDir()); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	cfg, err := resolve(t, nil, nil)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if len(cfg.Properties.Keys()) != 0 {
		t.Errorf("expected no properties, got %v", cfg.Properties.Keys())
	}
}

func TestMissingExplicitFileFails(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "nope.properties")
	if _, err := resolve(t, []string{"--properties", missing}, nil); err == nil {
		t.Fatal("expected error for missing properties file")
	}
}

func TestPrecedence(t *testing.T) {
	path := writeProps(t, strings.Join([]string{
		"dtrader.log.level = warn",
		"dtrader.plugins = /from/file",
		"dtrader.database.url = postgres://file",
		"dtrader.addr = :9999",
		"dtrader.log.file = /tmp/file.log",
	}, "\n"))

	cfg, err := resolve(t, []string{"--properties", path}, nil)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if cfg.LogLevel != logger.LevelWarn || cfg.PluginDir != "/from/file" || cfg.Addr != ":9999" {
		t.Errorf("file values not applied: %+v", cfg)
	}

	env := map[string]string{
		EnvLogLevel:    "error",
		EnvPluginDir:   "/from/env",
		EnvDatabaseURL: "postgres://env",
	}
	cfg, err = resolve(t, []string{"--properties", path}, env)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if cfg.LogLevel != logger.LevelError || cfg.PluginDir != "/from/env" || cfg.DatabaseURL != "postgres://env" {
		t.Errorf("env values not applied: %+v", cfg)
	}
	if cfg.LogFile != "/tmp/file.log" {
		t.Errorf("expected file log path to survive, got %q", cfg.LogFile)
	}

	cfg, err = resolve(t, []string{"--properties", path, "--plugins", "/from/flag", "--log-level", "debug"}, env)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if cfg.PluginDir != "/from/flag" || cfg.LogLevel != logger.LevelDebug {
		t.Errorf("flag values not applied: %+v", cfg)
	}
}

func TestApplyProperties(t *testing.T) {
	path := writeProps(t, "symbol = BTCUSD\nperiod = 15\nempty =\n")
	cfg, err := resolve(t, []string{"--properties", path}, nil)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	root := scope.NewRoot()
	if n := cfg.ApplyProperties(root); n != 3 {
		t.Fatalf("expected 3 properties, got %d", n)
	}
	v, ok := root.Property("symbol")
	if !ok || v.Inspect() != "BTCUSD" {
		t.Errorf("expected symbol=BTCUSD, got %v %v", v, ok)
	}
	v, ok = root.Property("period")
	if !ok || v.Type().String() != "Text" {
		t.Errorf("expected period as Text, got %v", v)
	}
	if _, ok := root.Property("empty"); !ok {
		t.Errorf("expected empty property to be present")
	}
}

func TestPropertiesKeepReferencesLiterally(t *testing.T) {
	path := writeProps(t, "title = ${missing}\nbase = BTC\npair = ${base}USD\n")
	cfg, err := resolve(t, []string{"--properties", path}, nil)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	root := scope.NewRoot()
	cfg.ApplyProperties(root)
	for name, want := range map[string]string{
		"title": "${missing}",
		"pair":  "${base}USD",
	} {
		v, ok := root.Property(name)
		if !ok || v.Inspect() != want {
			t.Errorf("property %s = %v, want %q", name, v, want)
		}
	}
}

func TestLoggerHonorsLevel(t *testing.T) {
	cfg := Default()
	cfg.LogLevel = logger.LevelWarn
	var buf bytes.Buffer
	l := cfg.Logger("test", &buf)
	l.Info("hidden", nil)
	l.Warn("shown", nil)
	out := buf.String()
	if strings.Contains(out, "hidden") || !strings.Contains(out, "shown") {
		t.Errorf("unexpected log output %q", out)
	}
}
