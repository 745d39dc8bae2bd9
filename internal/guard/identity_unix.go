//go:build unix

package guard

import (
	"fmt"
	"os/user"
	"strconv"

	"golang.org/x/sys/unix"
)

// SystemIdentity implements Identity with the host's user database.
type SystemIdentity struct{}

// NewSystemIdentity creates a new SystemIdentity.
func NewSystemIdentity() *SystemIdentity {
	return &SystemIdentity{}
}

// EffectiveUID returns the process's effective UID.
func (s *SystemIdentity) EffectiveUID() int {
	return unix.Geteuid()
}

// ConsoleOwner stats device and returns its owner.
func (s *SystemIdentity) ConsoleOwner(device string) (int, error) {
	var st unix.Stat_t
	if err := unix.Stat(device, &st); err != nil {
		return 0, fmt.Errorf("failed to stat %s: %w", device, err)
	}
	return int(st.Uid), nil
}

// Username resolves uid through the user database.
func (s *SystemIdentity) Username(uid int) (string, error) {
	u, err := user.LookupId(strconv.Itoa(uid))
	if err != nil {
		return "", fmt.Errorf("failed to look up uid %d: %w", uid, err)
	}
	return u.Username, nil
}
