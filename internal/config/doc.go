// Package config loads the generator configuration.
//
// Precedence is environment over YAML file over built-in defaults. The file is
// parsed strictly: unknown keys and trailing documents are errors. ConfigHolder
// keeps the active configuration for long-running processes and reloads it on
// file change.
package config
