// Package openapi derives form definitions from OpenAPI 3 documents. A
// Loader fetches the raw document, a Parser extracts operations with
// kin-openapi, and DefinitionFromOperation turns an operation's request body
// into a definition.Definition.
//
// Request-body properties may carry an `x-formflow` extension object with
// the keys kind, section, placeholder, order, dependsOn and rules.
package openapi
