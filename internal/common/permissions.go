package common

// File permission constants
const (
	// FilePermissionSecure is used for config files written by the CLI
	FilePermissionSecure = 0600

	// DirPermissionSecure is used for the per-user config directory
	DirPermissionSecure = 0700
)
