package config

const (
	defaultStateDir              = "~/.local/share/rafcdn"
	defaultLogDir                = "~/.local/share/rafcdn/logs"
	defaultBaseURL               = "http://127.0.0.1:8000"
	defaultUploadPath            = "/api/upload-video"
	defaultHistoryPath           = "/api/my-uploads"
	defaultLogoutPath            = "/api/logout"
	defaultRequestTimeout        = 30
	defaultMaxUploadBytes        = 500 * 1024 * 1024
	defaultFormField             = "video"
	defaultTypePrefix            = "video/"
	defaultInfoMessageSeconds    = 3
	defaultMessageSeconds        = 5
	defaultDashboardBind         = "127.0.0.1:7490"
	defaultDashboardPollInterval = 30
	defaultNotifyRequestTimeout  = 10
	defaultLogFormat             = "console"
	defaultLogLevel              = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StateDir: defaultStateDir,
			LogDir:   defaultLogDir,
		},
		Backend: Backend{
			BaseURL:        defaultBaseURL,
			UploadPath:     defaultUploadPath,
			HistoryPath:    defaultHistoryPath,
			LogoutPath:     defaultLogoutPath,
			RequestTimeout: defaultRequestTimeout,
		},
		Upload: Upload{
			MaxSizeBytes: defaultMaxUploadBytes,
			FormField:    defaultFormField,
			TypePrefix:   defaultTypePrefix,
		},
		Messages: Messages{
			InfoSeconds:    defaultInfoMessageSeconds,
			DefaultSeconds: defaultMessageSeconds,
		},
		Dashboard: Dashboard{
			Bind:         defaultDashboardBind,
			PollInterval: defaultDashboardPollInterval,
		},
		Notifications: Notifications{
			RequestTimeout:  defaultNotifyRequestTimeout,
			UploadCompleted: true,
			UploadFailed:    true,
			Batch:           true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
