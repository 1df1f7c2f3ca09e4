package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func run(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	require.NoError(t, rootCmd.Execute(), "murmur %s:\n%s", strings.Join(args, " "), out.String())
	return out.String()
}

func TestCLI_NoteLifecycle(t *testing.T) {
	dir := t.TempDir()

	out := run(t, "--dir", dir, "init", "--owner", "alice")
	assert.Contains(t, out, "Initialized murmur data directory")
	assert.FileExists(t, filepath.Join(dir, "murmur.yaml"))

	id := strings.TrimSpace(run(t, "--dir", dir, "note", "add", "Groceries", "-b", "milk", "-t", "home"))
	require.NotEmpty(t, id)
	assert.FileExists(t, filepath.Join(dir, "notes", id+".json"))

	assert.Contains(t, run(t, "--dir", dir, "note", "list"), "Groceries")
	assert.Contains(t, run(t, "--dir", dir, "note", "show", id), "milk")

	out = run(t, "--dir", dir, "sync")
	assert.Contains(t, out, "notes")
	assert.Contains(t, out, "succeeded")

	var report statusReport
	require.NoError(t, json.Unmarshal([]byte(run(t, "--dir", dir, "status", "--json")), &report))
	assert.Equal(t, "alice", report.Owner)
	require.Len(t, report.Kinds, 3)
	assert.Equal(t, 1, report.Kinds[0].Local)
	assert.Equal(t, 1, report.Kinds[0].Remote)

	run(t, "--dir", dir, "note", "rm", id)
	assert.NotContains(t, run(t, "--dir", dir, "note", "list"), "Groceries")
	assert.Equal(t, "[]\n", run(t, "--dir", dir, "note", "list", "--json"), "an empty list is still a JSON array")
}

func TestWriteConfig(t *testing.T) {
	dir := t.TempDir()
	cfg := defaultFileConfig()
	cfg.Owner = "alice"

	path, err := writeConfig(dir, cfg, false)
	require.NoError(t, err)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	var got fileConfig
	require.NoError(t, yaml.Unmarshal(raw, &got))
	assert.Equal(t, cfg, got)

	_, err = writeConfig(dir, cfg, false)
	assert.Error(t, err, "existing config must not be overwritten")

	_, err = writeConfig(dir, cfg, true)
	assert.NoError(t, err)
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "murmur.yaml"),
		[]byte("owner: bob\nformat: .md\ninterval: 30s\nwatch: false\n"), 0644))

	t.Setenv("MURMUR_FORMAT", ".yaml")

	cfg := viper.New()
	cfg.SetEnvPrefix(EnvPrefix)
	cfg.AutomaticEnv()
	require.NoError(t, loadConfig(cfg, dir))

	assert.Equal(t, "bob", cfg.GetString("owner"))
	assert.Equal(t, ".yaml", cfg.GetString("format"), "environment overrides the file")
	assert.Equal(t, "30s", cfg.GetDuration("interval").String())
	assert.False(t, cfg.GetBool("watch"))

	empty := viper.New()
	require.NoError(t, loadConfig(empty, t.TempDir()))
	assert.Equal(t, ".json", empty.GetString("format"))
	assert.True(t, empty.GetBool("watch"))
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	newLogger(&buf, "json", false).Info("hello", "kind", "notes")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "hello", entry["msg"])
	assert.Equal(t, "notes", entry["kind"])

	buf.Reset()
	newLogger(&buf, "text", false).Debug("hidden")
	assert.Empty(t, buf.String())

	newLogger(&buf, "text", true).Debug("shown")
	assert.Contains(t, buf.String(), "shown")
}

func TestDaemonFlagsBindConfig(t *testing.T) {
	flags := daemonCmd.Flags()
	t.Cleanup(func() {
		_ = flags.Set("interval", "5m")
		_ = flags.Set("watch", "true")
	})

	require.NoError(t, flags.Set("interval", "45s"))
	require.NoError(t, flags.Set("watch", "false"))
	assert.Equal(t, 45*time.Second, v.GetDuration("interval"))
	assert.False(t, v.GetBool("watch"))
}
