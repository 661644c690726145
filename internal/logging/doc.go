// Package logging configures structured slog output for docfinder.
// Logs are JSON lines written to a size-rotated file under
// ~/.docfinder/logs/, optionally mirrored to stderr. The --debug flag
// lowers the level to debug.
package logging
