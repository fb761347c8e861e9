// Package broadcast owns the live WebSocket sessions and fans question-board
// events out to them.
//
// Registry tracks sessions behind an RWMutex and hands out snapshot copies
// for iteration. Each Session has its own writer goroutine draining a small
// bounded buffer, so a broadcast only ever performs non-blocking enqueues.
// Broadcaster serializes broadcasts with a single mutex, which gives every
// session the same event order. A session whose buffer is full or that has
// already failed is unregistered on the spot.
package broadcast
