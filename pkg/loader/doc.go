// Package loader couples a parameter's declared dependencies to an
// asynchronous data fetch. Dependency values are compared with deep
// equality, the fetch runs once per change event no matter how many
// dependencies changed, and superseded fetches are canceled and their late
// results dropped.
package loader
