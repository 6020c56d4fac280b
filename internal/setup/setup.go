// Package setup registers the MCP server with desktop MCP clients and checks
// that the reference data a run needs is in place.
package setup

import (
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"sort"
)

// ServerName is the key the server is registered under in client configs.
const ServerName = "lirical"

// DataDirEnv overrides data.directory for the registered server.
const DataDirEnv = "LIRICAL_DATA_DIRECTORY"

// ClientConfig is the part of a desktop client configuration file that lists
// MCP servers. Other keys in the file are preserved.
type ClientConfig struct {
	MCPServers map[string]ServerEntry `json:"mcpServers"`
	rest       map[string]json.RawMessage
}

// ServerEntry describes how a client starts one MCP server.
type ServerEntry struct {
	Command string            `json:"command"`
	Args    []string          `json:"args,omitempty"`
	Env     map[string]string `json:"env,omitempty"`
}

// Options controls how the server is registered.
type Options struct {
	// BinaryPath is the lirical executable; empty looks it up.
	BinaryPath string
	ConfigFile string
	DataDir    string
}

// ClientConfigPath returns the desktop client configuration file for this
// platform.
func ClientConfigPath() (string, error) {
	var configDir string

	switch runtime.GOOS {
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		configDir = filepath.Join(home, "Library", "Application Support", "Claude")
	case "linux":
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			configDir = filepath.Join(xdg, "Claude")
			break
		}
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		configDir = filepath.Join(home, ".config", "Claude")
	case "windows":
		appData := os.Getenv("APPDATA")
		if appData == "" {
			return "", fmt.Errorf("APPDATA environment variable not set")
		}
		configDir = filepath.Join(appData, "Claude")
	default:
		return "", fmt.Errorf("unsupported operating system: %s", runtime.GOOS)
	}

	return filepath.Join(configDir, "claude_desktop_config.json"), nil
}

// LoadClientConfig reads a client configuration. A missing file yields an
// empty configuration.
func LoadClientConfig(path string) (*ClientConfig, error) {
	config := &ClientConfig{
		MCPServers: make(map[string]ServerEntry),
		rest:       make(map[string]json.RawMessage),
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return config, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := json.Unmarshal(data, &config.rest); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	if raw, ok := config.rest["mcpServers"]; ok {
		if err := json.Unmarshal(raw, &config.MCPServers); err != nil {
			return nil, fmt.Errorf("failed to parse mcpServers: %w", err)
		}
		if config.MCPServers == nil {
			config.MCPServers = make(map[string]ServerEntry)
		}
	}
	return config, nil
}

// SaveClientConfig writes the configuration, creating its directory.
func SaveClientConfig(path string, config *ClientConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	out := make(map[string]any, len(config.rest)+1)
	for k, v := range config.rest {
		out[k] = v
	}
	out["mcpServers"] = config.MCPServers

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Register adds or replaces the server entry in the client configuration at
// path and returns the entry written.
func Register(path string, opts Options) (ServerEntry, error) {
	config, err := LoadClientConfig(path)
	if err != nil {
		return ServerEntry{}, err
	}

	binary := opts.BinaryPath
	if binary == "" {
		if binary, err = FindBinary(); err != nil {
			return ServerEntry{}, err
		}
	}

	entry := ServerEntry{Command: binary}
	if opts.ConfigFile != "" {
		abs, err := filepath.Abs(opts.ConfigFile)
		if err != nil {
			return ServerEntry{}, err
		}
		entry.Args = append(entry.Args, "--config", abs)
	}
	entry.Args = append(entry.Args, "mcp")
	if opts.DataDir != "" {
		entry.Env = map[string]string{DataDirEnv: opts.DataDir}
	}

	config.MCPServers[ServerName] = entry
	if err := SaveClientConfig(path, config); err != nil {
		return ServerEntry{}, err
	}
	return entry, nil
}

// FindBinary locates the lirical executable on PATH, falling back to the
// running executable.
func FindBinary() (string, error) {
	if path, err := exec.LookPath("lirical"); err == nil {
		return filepath.Abs(path)
	}
	path, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("binary 'lirical' not found: %w", err)
	}
	return path, nil
}

// Status is what the status command reports.
type Status struct {
	ClientConfigPath string
	Registered       bool
	Entry            ServerEntry
	DataDir          string
	Issues           []string
}

// GetStatus inspects the client registration and the reference files in
// dataDir.
func GetStatus(clientConfigPath, dataDir string, referenceFiles []string) *Status {
	status := &Status{ClientConfigPath: clientConfigPath, DataDir: dataDir}

	config, err := LoadClientConfig(clientConfigPath)
	if err != nil {
		status.Issues = append(status.Issues, fmt.Sprintf("Could not load client config: %v", err))
	} else if entry, ok := config.MCPServers[ServerName]; ok {
		status.Registered = true
		status.Entry = entry
		if _, err := os.Stat(entry.Command); err != nil {
			status.Issues = append(status.Issues, fmt.Sprintf("Server binary not found at: %s", entry.Command))
		}
		if dir, ok := entry.Env[DataDirEnv]; ok {
			status.DataDir = dir
		}
	}

	for _, name := range MissingFiles(status.DataDir, referenceFiles) {
		status.Issues = append(status.Issues, fmt.Sprintf("Reference file missing: %s", name))
	}
	return status
}

// MissingFiles returns the names, resolved against dir, that do not exist.
func MissingFiles(dir string, names []string) []string {
	var missing []string
	for _, name := range names {
		path := name
		if !filepath.IsAbs(path) {
			path = filepath.Join(dir, name)
		}
		if _, err := os.Stat(path); err != nil {
			missing = append(missing, path)
		}
	}
	sort.Strings(missing)
	return missing
}
