package setup

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegister_PreservesOtherEntries(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "client", "config.json")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	existing := `{"theme": "dark", "mcpServers": {"other": {"command": "/bin/other"}}}`
	require.NoError(t, os.WriteFile(path, []byte(existing), 0644))

	// Act
	entry, err := Register(path, Options{BinaryPath: "/usr/local/bin/lirical", DataDir: "/data/hpo"})

	// Assert
	require.NoError(t, err)
	assert.Equal(t, []string{"mcp"}, entry.Args)

	config, err := LoadClientConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "/bin/other", config.MCPServers["other"].Command)
	assert.Equal(t, entry, config.MCPServers[ServerName])
	assert.Equal(t, "/data/hpo", config.MCPServers[ServerName].Env[DataDirEnv])

	var raw map[string]json.RawMessage
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.JSONEq(t, `"dark"`, string(raw["theme"]))
}

func TestRegister_ConfigFileIsAbsolute(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")

	// Act
	entry, err := Register(path, Options{BinaryPath: "/usr/local/bin/lirical", ConfigFile: "lirical.yaml"})

	// Assert
	require.NoError(t, err)
	require.Len(t, entry.Args, 3)
	assert.Equal(t, "--config", entry.Args[0])
	assert.True(t, filepath.IsAbs(entry.Args[1]))
	assert.Equal(t, "mcp", entry.Args[2])
	assert.Nil(t, entry.Env)
}

func TestLoadClientConfig_Missing(t *testing.T) {
	config, err := LoadClientConfig(filepath.Join(t.TempDir(), "absent.json"))

	require.NoError(t, err)
	assert.Empty(t, config.MCPServers)
}

func TestLoadClientConfig_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))

	_, err := LoadClientConfig(path)

	assert.Error(t, err)
}

func TestGetStatus(t *testing.T) {
	dir := t.TempDir()
	binary := filepath.Join(dir, "lirical")
	require.NoError(t, os.WriteFile(binary, []byte("#!/bin/sh\n"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "hp.json"), []byte("{}"), 0644))
	clientConfig := filepath.Join(dir, "config.json")
	_, err := Register(clientConfig, Options{BinaryPath: binary, DataDir: dir})
	require.NoError(t, err)

	// Act
	status := GetStatus(clientConfig, "/elsewhere", []string{"hp.json", "phenotype.hpoa"})

	// Assert
	assert.True(t, status.Registered)
	assert.Equal(t, dir, status.DataDir)
	assert.Equal(t, []string{"Reference file missing: " + filepath.Join(dir, "phenotype.hpoa")}, status.Issues)
}

func TestMissingFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b"), nil, 0644))

	missing := MissingFiles(dir, []string{"c", "b", "a"})

	assert.Equal(t, []string{filepath.Join(dir, "a"), filepath.Join(dir, "c")}, missing)
}
