// Package pagination validates the paging flags of the list commands, builds
// the metadata printed alongside JSON results, and sorts the records of a
// page for display.
package pagination
