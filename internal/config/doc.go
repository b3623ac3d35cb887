// Package config defines the format-agnostic configuration model and the
// layers that build it: built-in defaults, a configuration file read by a
// Loader, and ICONREG_* environment variables. Command-line flags are
// applied last by the caller.
package config
