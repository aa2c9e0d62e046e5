// Package machine implements the Machine Profile Registry: the static table
// of punch-card formats the engine can encode onto.
//
// The table is loaded once at startup from an embedded machines.yaml and,
// optionally, a user-supplied YAML or JSONC file whose entries override the
// built-ins by id. After construction a Registry is never mutated, so it is
// safe to share across goroutines without locking.
//
// JSONC (JSON with Comments) is supported via github.com/tidwall/jsonc.
// Both file formats use the same snake_case keys.
package machine
