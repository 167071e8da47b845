// Package definition declares forms in YAML, TOML or JSON documents and
// builds them against a kind registry. Definitions are checked before they
// are built: every problem is reported at once, and dependency cycles are
// rejected even though the engine itself tolerates them.
package definition
