// Package form implements the parameter dependency and validation engine: a
// Form owns an immutable value bag and an ordered set of entries, publishes
// change and validate events, and runs two-phase (sync, then async)
// validation across every parameter. Parameters declare dependencies on
// siblings by role and name, never by reference, and resolve them through
// the shared bag at read time.
package form
