package config

const (
	defaultConfigPath           = "~/.config/archivist/config.toml"
	defaultStateDir             = "~/.local/share/archivist"
	defaultLogDir               = "~/.local/share/archivist/logs"
	defaultWorkDir              = "~/.local/share/archivist/work"
	defaultResourceSpaceRPS     = 2.0
	defaultResourceSpaceBurst   = 1
	defaultResourceSpaceTimeout = 60
	defaultArchiveEndpoint      = "https://s3.us.archive.org"
	defaultArchiveDetailsURL    = "https://archive.org/details"
	defaultArchiveTimeout       = 3600
	defaultFFmpegBinary         = "ffmpeg"
	defaultFFprobeBinary        = "ffprobe"
	defaultSquareScale          = "720x540"
	defaultFetchTimeout         = 300
	defaultLogFormat            = "console"
	defaultLogLevel             = "info"
)

const defaultRightsStatement = "This work is protected by U.S. Copyright Law (Title 17, U.S.C.). " +
	"In addition, its reproduction may be restricted by terms of gift or purchase agreements, " +
	"donor restrictions, privacy and publicity rights, licensing and trademarks. " +
	"This work is made accessible ONLY for purposes of education and research. " +
	"Transmission or reproduction of works protected by copyright beyond that allowed by fair use " +
	"requires the written permission of the copyright owners. Works not in the public domain may not " +
	"be commercially exploited without permission of the copyright owner. " +
	"Responsibility for any use rests exclusively with the user."

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StateDir: defaultStateDir,
			LogDir:   defaultLogDir,
			WorkDir:  defaultWorkDir,
		},
		ResourceSpace: ResourceSpace{
			RequestsPerSecond: defaultResourceSpaceRPS,
			Burst:             defaultResourceSpaceBurst,
			TimeoutSeconds:    defaultResourceSpaceTimeout,
		},
		Archive: Archive{
			Endpoint:        defaultArchiveEndpoint,
			DetailsURL:      defaultArchiveDetailsURL,
			Collections:     []string{"stream_only", "pacificfilmarchive"},
			RightsStatement: defaultRightsStatement,
			TimeoutSeconds:  defaultArchiveTimeout,
		},
		Mapping: Mapping{
			MissingMarkers: []string{"None", "NULL", "N/A", "#N/A"},
			RequiredFields: []string{"identifier", "title"},
		},
		Media: Media{
			FFmpegBinary:  defaultFFmpegBinary,
			FFprobeBinary: defaultFFprobeBinary,
			Scale:         defaultSquareScale,
		},
		Batch: Batch{
			VerifyFiles: true,
		},
		Fetch: Fetch{
			TimeoutSeconds: defaultFetchTimeout,
			S3UseSSL:       true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
