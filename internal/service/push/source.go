package push

import (
	"fmt"
	"os"
	"os/user"
)

// DetectSource returns "user@host" of the current process for the delivery
// audit trail.
func DetectSource() (string, error) {
	hostname, err := os.Hostname()
	if err != nil {
		return "", fmt.Errorf("hostname: %w", err)
	}

	currentUser, err := user.Current()
	if err != nil {
		return "", fmt.Errorf("current user: %w", err)
	}

	return currentUser.Username + "@" + hostname, nil
}
