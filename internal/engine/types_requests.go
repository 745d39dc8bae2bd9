package engine

// LockRequest represents a request to lock panes.
type LockRequest struct {
	// Identifiers are bundle identifiers in the order given by the user
	Identifiers []string
}

// UnlockRequest represents a request to unlock panes.
type UnlockRequest struct {
	// Identifiers are bundle identifiers in the order given by the user
	Identifiers []string
}
