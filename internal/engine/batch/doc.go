// Package batch runs a callback over a slice of items in fixed-size batches
// with bounded concurrency, reporting progress as it goes.
//
// The cache warmer uses it to prefetch one catalog page per category without
// opening more than a handful of connections to the API at once.
package batch
