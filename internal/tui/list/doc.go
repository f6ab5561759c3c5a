// Package listview provides a virtual scrolling list for Bubble Tea programs.
//
// Only the rows inside the viewport are rendered, so the cost of a frame does
// not grow with the number of loaded records. The list can be refilled in
// place while keeping the selection, which suits views that append pages as
// the user scrolls; NearEnd tells the owner when to ask for the next page.
package listview
