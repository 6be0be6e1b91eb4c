// Package config provides configuration loading, merging, and validation
// for mmudzi-server and mmudzictl.
//
// Server configuration is assembled from multiple sources in priority order
// (later sources override earlier non-zero fields):
//  1. Environment variables
//  2. Command-line flags
//  3. JSON or TOML config file
//
// Defaults fill whatever is still unset. The entry points are
// [GetStructuredConfig] and [GetClientConfig].
package config
