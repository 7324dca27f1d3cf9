package config

const (
	defaultDataDir                 = "~/.local/share/docmonitor"
	defaultDatabaseName            = "docmonitor.db"
	defaultLogDir                  = "~/.local/share/docmonitor/logs"
	defaultPluginDir               = "~/.local/share/docmonitor/plugins"
	defaultAPIBind                 = "127.0.0.1:7491"
	defaultFileTypes               = ".pdf,.tiff,.tif"
	defaultScanIntervalSeconds     = 600
	defaultStableCheckCount        = 3
	defaultStableIntervalSeconds   = 1.0
	defaultStableTimeoutSeconds    = 120.0
	defaultRetryMax                = 3
	defaultPollIntervalSeconds     = 5
	defaultShutdownGraceSeconds    = 5
	defaultClassifierLocation      = "us-central1"
	defaultClassifierModel         = "gemini-flash-latest"
	defaultProgressIntervalSeconds = 60
	minProgressIntervalSeconds     = 5
	defaultThumbnailSize           = 250
	minThumbnailSize               = 64
	defaultNotifyTimeoutSeconds    = 3.0
	defaultNotifyPath              = "/api/internal/documents-inserted"
	defaultNotifyAPIHost           = "127.0.0.1"
	defaultNotifyAPIPort           = 3001
	defaultPluginTimeoutSeconds    = 60
	defaultLogFormat               = "console"
	defaultLogLevel                = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir:   defaultDataDir,
			LogDir:    defaultLogDir,
			PluginDir: defaultPluginDir,
			APIBind:   defaultAPIBind,
		},
		Watch: Watch{
			FileTypes:           splitFileTypes(defaultFileTypes),
			ScanIntervalSeconds: defaultScanIntervalSeconds,
			InitialScan:         true,
		},
		Stability: Stability{
			CheckCount:           defaultStableCheckCount,
			CheckIntervalSeconds: defaultStableIntervalSeconds,
			TimeoutSeconds:       defaultStableTimeoutSeconds,
		},
		Queue: Queue{
			RetryMax:             defaultRetryMax,
			PollIntervalSeconds:  defaultPollIntervalSeconds,
			ShutdownGraceSeconds: defaultShutdownGraceSeconds,
		},
		Classifier: Classifier{
			Location:                defaultClassifierLocation,
			Model:                   defaultClassifierModel,
			ProgressIntervalSeconds: defaultProgressIntervalSeconds,
		},
		Thumbnail: Thumbnail{
			Size: defaultThumbnailSize,
		},
		Notifications: Notifications{
			Enabled:        true,
			TimeoutSeconds: defaultNotifyTimeoutSeconds,
			APIHost:        defaultNotifyAPIHost,
			APIPort:        defaultNotifyAPIPort,
		},
		Plugins: Plugins{
			Enabled:        true,
			TimeoutSeconds: defaultPluginTimeoutSeconds,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
