// Package schema types the fields of a condition.
//
// A condition definition may declare the parameters it expects as a map of field
// name to type string:
//
//	field_types:
//	  status: string
//	  min_words: int?
//	  tags: "[string]"
//
// Supported types are string, int, float, bool and any, plus slices written as
// [T]. A trailing "?" marks the field optional. Keys that are not declared pass
// through untouched, so label and readable companions need no declaration.
package schema
