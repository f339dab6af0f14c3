package config

const (
	defaultConfigPath      = "~/.config/timedtext/config.toml"
	defaultDataDir         = "~/.local/share/timedtext"
	defaultLogDir          = "~/.local/share/timedtext/logs"
	defaultExportDir       = "~/timedtext-exports"
	defaultLogFormat       = "console"
	defaultLogLevel        = "info"
	defaultUnknownSpeaker  = "U_UKN"
	defaultBestEffortRatio = 0.5
	defaultMaxCueSeconds   = 6.0
	defaultMinCueSeconds   = 0.8
	defaultMaxCharsPerLine = 42
	defaultMaxLines        = 2
	defaultExportTitle     = "Transcript"
	defaultFontName        = "Times New Roman"
	defaultFontSize        = 12
	defaultLiveDebounceMS  = 250
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir:   defaultDataDir,
			LogDir:    defaultLogDir,
			ExportDir: defaultExportDir,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
		Editor: Editor{
			UnknownSpeaker: defaultUnknownSpeaker,
		},
		Alignment: Alignment{
			BestEffortRatio: defaultBestEffortRatio,
		},
		Captions: Captions{
			MaxCueSeconds:   defaultMaxCueSeconds,
			MinCueSeconds:   defaultMinCueSeconds,
			MaxCharsPerLine: defaultMaxCharsPerLine,
			MaxLines:        defaultMaxLines,
		},
		Export: Export{
			DefaultTitle: defaultExportTitle,
			FontName:     defaultFontName,
			FontSize:     defaultFontSize,
		},
		Live: Live{
			DebounceMillis: defaultLiveDebounceMS,
		},
	}
}
