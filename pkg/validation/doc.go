// Package validation checks the structural and referential preconditions of condition
// group edits against the condition registry and the recipe's action list.
//
// The Validator holds no state besides its collaborators and never logs: every failure
// is returned as one of the typed errors in package domain.
package validation
