package config

const (
	defaultBaseDir            = "~/library"
	defaultMoviesDir          = "movies"
	defaultTVDir              = "tv"
	defaultTempDir            = "~/.local/share/ripwatch/staging"
	defaultLogDir             = "~/.local/share/ripwatch/logs"
	defaultStateDir           = "~/.local/share/ripwatch"
	defaultDevice             = "/dev/sr0"
	defaultMinEpisodeDuration = 1080
	defaultMaxEpisodeDuration = 4200
	defaultMinMovieDuration   = 4500
	defaultAmbiguousPolicy    = "movie"
	defaultNamingPattern      = "{title}"
	defaultMinLength          = 600
	defaultCheckInterval      = 5
	defaultRetryCount         = 3
	defaultRetryDelay         = 10
	defaultHistoryRetention   = 30
	defaultMakemkvBinary      = "makemkvcon"
	defaultRipTimeout         = 7200
	defaultScanTimeout        = 300
	defaultNtfyServer         = "https://ntfy.sh"
	defaultNotifyTimeout      = 10
	defaultAPIBind            = "127.0.0.1:7487"
	defaultLogFormat          = "console"
	defaultLogLevel           = "info"
	defaultLogRetentionDays   = 30
)

// AmbiguousPolicies enumerates accepted detection.ambiguous_policy values.
var AmbiguousPolicies = []string{"movie", "tv", "abort"}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			Base:      defaultBaseDir,
			MoviesDir: defaultMoviesDir,
			TVDir:     defaultTVDir,
			Temp:      defaultTempDir,
			LogDir:    defaultLogDir,
			StateDir:  defaultStateDir,
		},
		Devices: Devices{
			Primary: defaultDevice,
		},
		Detection: Detection{
			MinEpisodeDuration: defaultMinEpisodeDuration,
			MaxEpisodeDuration: defaultMaxEpisodeDuration,
			MinMovieDuration:   defaultMinMovieDuration,
			AutoEject:          true,
			AmbiguousPolicy:    defaultAmbiguousPolicy,
		},
		Output: Output{
			NamingPattern: defaultNamingPattern,
			MinLength:     defaultMinLength,
		},
		Service: Service{
			CheckInterval:        defaultCheckInterval,
			RetryCount:           defaultRetryCount,
			RetryDelay:           defaultRetryDelay,
			HistoryRetentionDays: defaultHistoryRetention,
		},
		Ripping: Ripping{
			MakemkvBinary: defaultMakemkvBinary,
			RipTimeout:    defaultRipTimeout,
			ScanTimeout:   defaultScanTimeout,
		},
		Notifications: Notifications{
			NtfyServer:     defaultNtfyServer,
			RequestTimeout: defaultNotifyTimeout,
		},
		API: API{
			Enabled: true,
			Bind:    defaultAPIBind,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}
