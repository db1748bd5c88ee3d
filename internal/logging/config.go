package logging

// Config controls where and how slayergit writes its logs.
type Config struct {
	// Level is the minimum level to output ("debug", "info", "warn", "error").
	// SLAYERGIT_LOG_LEVEL overrides it.
	Level string `toml:"level"`

	// Format is "text" (default) or "json".
	Format string `toml:"format"`

	// File is the log file path. Empty disables the file sink.
	File string `toml:"file"`

	// Stderr is "auto" (default), "always" or "never". In auto mode logs go to
	// stderr only when stderr is not a terminal, e.g. piped or in CI.
	Stderr string `toml:"stderr"`

	// ReportCaller adds file:line to each entry.
	ReportCaller bool `toml:"report_caller"`
}

// FormatConfig controls the text formatter.
type FormatConfig struct {
	DisableTimestamp bool
	DisableComponent bool
}

const (
	StderrAuto   = "auto"
	StderrAlways = "always"
	StderrNever  = "never"
)
