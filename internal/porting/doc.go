// Package porting imports and exports the full card state of a project as a
// spreadsheet workbook.
//
// Rows reconcile against existing cards by (project, trimmed title), not by
// card id: sheets are exported, edited and re-imported repeatedly, and ids
// are not stable across that cycle for rows added by hand. A bad row never
// aborts an import; it is skipped and reported in a per-row diagnostics
// report that can be downloaded exactly once.
//
// Two imports running concurrently against the same project are not
// serialized. Both transactions can read "title not found" before either
// commits and double-create a title; the outcome is last-writer-wins. Callers
// that need stricter behavior must avoid overlapping imports per project.
package porting
