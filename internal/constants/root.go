package constants

const (
	AppName            = "dayfill"
	DefaultKeyringUser = "database-connection"
	DefaultConfigDir   = "~/.config/dayfill"
	DefaultConfigPath  = "~/.config/dayfill/config.yaml"
	DefaultDBPath      = "~/.config/dayfill/dayfill.db"
	Version            = "v0.2.0"

	// DateFormat is the standard date format used throughout the application (YYYY-MM-DD)
	DateFormat = "2006-01-02"

	// TimeFormat is the standard time format used throughout the application (HH:MM)
	TimeFormat = "15:04"

	// DBConnectionEnv overrides the database location when set.
	DBConnectionEnv = "DAYFILL_DB_CONNECTION"

	// Backup constants
	MaxBackups       = 14
	BackupDirName    = "backups"
	BackupFilePrefix = "dayfill-"
	BackupFileSuffix = ".db"
)
