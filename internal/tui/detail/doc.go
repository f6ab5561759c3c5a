// Package detail renders the full record of a single plant for the browse view.
package detail
