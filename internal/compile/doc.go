// Package compile drives one full compilation pass over a content tree.
//
// A pass builds the collection index, renders every collection page, then
// renders each remaining eligible source file. Jobs run concurrently and a
// failing job never cancels its siblings; failures are logged and collected
// in the pass Report. Passes on one Compiler are serialized.
package compile
