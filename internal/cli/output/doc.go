// Package output renders chainstate-cli results as a table, JSON or
// YAML.
//
// Commands build either a *Table directly or hand a plain value to the
// Formatter selected by --output. Table rendering of arbitrary values is
// reflection based: slices of structs become one row per element, maps
// and single structs become two-column key/value tables with rows in
// sorted order.
package output
