// Package domain defines the question board's types and the interfaces
// between its layers.
//
// question.go, event.go and admin.go hold shared types and the repository,
// publisher and credential contracts. Event constructors are the only
// behaviour here; everything else is implemented by adapters.
package domain
