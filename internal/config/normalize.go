package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeBackend()
	c.normalizeUpload()
	c.normalizeDashboard()
	c.normalizeNotifications()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeBackend() {
	if value, ok := os.LookupEnv("RAFCDN_BASE_URL"); ok && strings.TrimSpace(value) != "" {
		c.Backend.BaseURL = value
	}
	c.Backend.BaseURL = strings.TrimRight(strings.TrimSpace(c.Backend.BaseURL), "/")
	if c.Backend.BaseURL == "" {
		c.Backend.BaseURL = defaultBaseURL
	}
	c.Backend.UploadPath = normalizeEndpoint(c.Backend.UploadPath, defaultUploadPath)
	c.Backend.HistoryPath = normalizeEndpoint(c.Backend.HistoryPath, defaultHistoryPath)
	c.Backend.LogoutPath = normalizeEndpoint(c.Backend.LogoutPath, defaultLogoutPath)
}

func normalizeEndpoint(value, fallback string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return fallback
	}
	if !strings.HasPrefix(value, "/") {
		value = "/" + value
	}
	return value
}

func (c *Config) normalizeUpload() {
	c.Upload.FormField = strings.TrimSpace(c.Upload.FormField)
	if c.Upload.FormField == "" {
		c.Upload.FormField = defaultFormField
	}
	c.Upload.TypePrefix = strings.ToLower(strings.TrimSpace(c.Upload.TypePrefix))
	if c.Upload.TypePrefix == "" {
		c.Upload.TypePrefix = defaultTypePrefix
	}
}

func (c *Config) normalizeDashboard() {
	c.Dashboard.Bind = strings.TrimSpace(c.Dashboard.Bind)
	if c.Dashboard.Bind == "" {
		c.Dashboard.Bind = defaultDashboardBind
	}
	if c.Dashboard.Token == "" {
		if value, ok := os.LookupEnv("RAFCDN_DASHBOARD_TOKEN"); ok {
			c.Dashboard.Token = value
		}
	}
	c.Dashboard.Token = strings.TrimSpace(c.Dashboard.Token)
}

func (c *Config) normalizeNotifications() {
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
