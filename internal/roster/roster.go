// Package roster maintains the set of tracked player identifiers: the
// players whose stat lines belong in the digest, determined by college
// affiliation.
package roster

import "context"

// Resolver yields the tracked player identifier set. An empty result
// means the run cannot proceed; it most likely signals upstream failure
// rather than an absence of alumni, and callers must not conflate the
// two.
type Resolver interface {
	Resolve(ctx context.Context) ([]int, error)
}

// StaticList is a fixed, manually maintained allow-list resolver. It
// trades auto-discovery freshness for robustness against upstream
// lookup flakiness.
type StaticList []int

// Resolve returns the configured identifiers unchanged.
func (s StaticList) Resolve(ctx context.Context) ([]int, error) {
	return s, nil
}
