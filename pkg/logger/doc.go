// Package logger builds the application's slog logger. Development
// environments get human-readable text output, production gets JSON.
package logger
