package main

// Default limits for CLI commands.
const (
	DefaultHistoryLimit = 10
	DefaultSearchLimit  = 10
)

// Valid import formats.
var validFormats = []string{"auto", "json", "yaml", "csv"}
