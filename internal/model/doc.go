// Package model defines the domain types and value objects for the
// cardpunch engine.
//
// This package contains pure data structures with no external dependencies.
// MachineProfile is built once at startup and never mutated; HoleMatrix is
// produced fresh per request and discarded after rendering.
//
// The package also defines the engine's error taxonomy (EngineError and its
// kinds), exit codes (ExitCode) and a custom error type (CLIError) that
// carries exit codes for proper OS process exit handling.
package model
