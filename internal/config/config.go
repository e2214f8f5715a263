package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains local directory configuration.
type Paths struct {
	StateDir string `toml:"state_dir"`
	LogDir   string `toml:"log_dir"`
}

// Backend contains the upload API endpoints.
type Backend struct {
	BaseURL        string `toml:"base_url"`
	UploadPath     string `toml:"upload_path"`
	HistoryPath    string `toml:"history_path"`
	LogoutPath     string `toml:"logout_path"`
	RequestTimeout int    `toml:"request_timeout"`
}

// Upload contains client-side validation and payload settings.
type Upload struct {
	MaxSizeBytes int64  `toml:"max_size_bytes"`
	FormField    string `toml:"form_field"`
	TypePrefix   string `toml:"type_prefix"`
}

// Messages contains auto-dismiss intervals for user-visible messages.
type Messages struct {
	InfoSeconds    int `toml:"info_seconds"`
	DefaultSeconds int `toml:"default_seconds"`
}

// Dashboard contains configuration for the local read-only dashboard API.
type Dashboard struct {
	Bind         string `toml:"bind"`
	Token        string `toml:"token"`
	PollInterval int    `toml:"poll_interval"`
}

// Notifications contains configuration for ntfy push notifications.
type Notifications struct {
	NtfyTopic       string `toml:"ntfy_topic"`
	RequestTimeout  int    `toml:"request_timeout"`
	UploadCompleted bool   `toml:"upload_completed"`
	UploadFailed    bool   `toml:"upload_failed"`
	Batch           bool   `toml:"batch"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for rafcdn.
//
// Configuration sections by subsystem:
//   - Paths: state (session, journal, lock) and log directories
//   - Backend: upload, history and logout endpoints
//   - Upload: size limit and multipart payload shape
//   - Messages: transient message lifetimes
//   - Dashboard: local projection API
//   - Notifications: ntfy push notification settings
//   - Logging: log format and level
type Config struct {
	Paths         Paths         `toml:"paths"`
	Backend       Backend       `toml:"backend"`
	Upload        Upload        `toml:"upload"`
	Messages      Messages      `toml:"messages"`
	Dashboard     Dashboard     `toml:"dashboard"`
	Notifications Notifications `toml:"notifications"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/rafcdn/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("rafcdn.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the state and log directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.StateDir, c.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// SessionPath returns the location of the session file.
func (c *Config) SessionPath() string {
	return filepath.Join(c.Paths.StateDir, "session.json")
}

// JournalPath returns the location of the local upload journal database.
func (c *Config) JournalPath() string {
	return filepath.Join(c.Paths.StateDir, "uploads.db")
}

// LockPath returns the lock file guarding the single active uploader.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.StateDir, "upload.lock")
}

// URL joins the backend base URL and an endpoint path.
func (c *Config) URL(endpoint string) string {
	return strings.TrimRight(c.Backend.BaseURL, "/") + "/" + strings.TrimLeft(endpoint, "/")
}

// RequestTimeout returns the timeout for non-upload backend calls.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.Backend.RequestTimeout) * time.Second
}

// MessageTTL returns how long a message of the given kind stays visible.
func (c *Config) MessageTTL(kind string) time.Duration {
	if kind == "info" {
		return time.Duration(c.Messages.InfoSeconds) * time.Second
	}
	return time.Duration(c.Messages.DefaultSeconds) * time.Second
}

// PollInterval returns the dashboard history reload interval.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.Dashboard.PollInterval) * time.Second
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
