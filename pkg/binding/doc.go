// Package binding adapts parameters for form controls: dirty tracking,
// visible validation errors, dependency-driven loads and change callbacks.
package binding
