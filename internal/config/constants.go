package config

const (
	// EnvLogLevel is the environment variable holding the logrus level.
	EnvLogLevel = "LOG_LEVEL"
	// EnvReportFormat selects how profiler reports are written.
	EnvReportFormat = "STEPPROF_REPORT_FORMAT"
	// EnvTotalKeys is a comma-separated list of phase keys summed into the timer total.
	EnvTotalKeys = "STEPPROF_TOTAL_KEYS"
	// EnvPlan is the path to a simulation plan file.
	EnvPlan = "STEPPROF_PLAN"
	// EnvEpochs overrides the number of epochs in the simulation plan.
	EnvEpochs = "STEPPROF_EPOCHS"

	// DefaultLogLevel is the log level used when LOG_LEVEL is unset.
	DefaultLogLevel = "info"
	// DefaultTotalKeys is the default value of STEPPROF_TOTAL_KEYS.
	DefaultTotalKeys = "FWD,BWD,ADAM"

	// ReportFormatLog writes reports as log lines.
	ReportFormatLog = "log"
	// ReportFormatTable writes reports as terminal tables.
	ReportFormatTable = "table"
)
