// Package action runs a form through its lifecycle: load initial values,
// build the form, validate with force on submit and execute with the values
// the user submitted.
package action
