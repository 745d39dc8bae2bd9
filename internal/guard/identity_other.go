//go:build !unix

package guard

import "errors"

var errUnsupported = errors.New("user identity is not supported on this platform")

// SystemIdentity reports no privileges on platforms without POSIX users.
type SystemIdentity struct{}

// NewSystemIdentity creates a new SystemIdentity.
func NewSystemIdentity() *SystemIdentity {
	return &SystemIdentity{}
}

// EffectiveUID always returns -1, which never passes RequireAdmin.
func (s *SystemIdentity) EffectiveUID() int {
	return -1
}

// ConsoleOwner is unsupported.
func (s *SystemIdentity) ConsoleOwner(string) (int, error) {
	return 0, errUnsupported
}

// Username is unsupported.
func (s *SystemIdentity) Username(int) (string, error) {
	return "", errUnsupported
}
