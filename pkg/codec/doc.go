// Package codec encodes and decodes form value bags as JSON, YAML or TOML.
//
// Decoded bags are normalised so the same document reads identically in
// every format: numbers become float64, tables become map[string]any and
// lists of strings become []string. A bag encoded from a form and decoded
// again rehydrates an equal form.
package codec
