// Package validation defines per-field validation statuses and the form-level
// snapshot that aggregates them. Levels rank error > warn > ok; the overall
// status of a snapshot carries the single most severe message, or a count
// ("2 errors found") when several fields fail at the same level.
package validation
