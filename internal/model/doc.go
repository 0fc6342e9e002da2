// Package model defines the entity records held by the record store.
//
// This package contains data containers only. Every other internal package
// imports model; model imports nothing internal.
//
// Each entity kind provides:
//   - A column list (XxxColumns) matching its table's column order
//   - ToRow: the record as a Row tuple in that column order
//   - XxxFromRow: the inverse conversion
//
// Row encoding rules:
//   - Dates are "YYYY-MM-DD" strings
//   - Timestamps are RFC 3339 strings in UTC with seconds precision
//   - Booleans are 0/1 integers
//   - Empty optional strings and unset optional foreign keys are NULL
//
// Map conversion (ToMap / FromMap) is derived from the same column lists.
package model
