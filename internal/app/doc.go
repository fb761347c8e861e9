// Package app provides the application service layer.
//
// Orchestrates the board's use cases: question mutations, listing and admin
// accounts. Every mutation writes to the store first and only then publishes
// its event, so clients never observe state that is not yet durable.
package app
