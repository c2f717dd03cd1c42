package secret

import (
	"fmt"
	"os"
	"os/user"
	"strings"
)

// machineIDFiles are read in order; the first non-empty one wins.
var machineIDFiles = []string{
	"/etc/machine-id",
	"/var/lib/dbus/machine-id",
}

// Identity names the account context a Protector is bound to.
type Identity struct {
	// Machine is the machine id, or the host name where none is available.
	Machine string
	User    string
	UID     string
}

// CurrentIdentity returns the identity of the executing account.
func CurrentIdentity() (Identity, error) {
	u, err := user.Current()
	if err != nil {
		return Identity{}, fmt.Errorf("resolving current user: %w", err)
	}

	machine, err := machineID()
	if err != nil {
		return Identity{}, err
	}

	return Identity{
		Machine: machine,
		User:    u.Username,
		UID:     u.Uid,
	}, nil
}

func machineID() (string, error) {
	for _, path := range machineIDFiles {
		content, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		if id := strings.TrimSpace(string(content)); id != "" {
			return id, nil
		}
	}

	host, err := os.Hostname()
	if err != nil {
		return "", fmt.Errorf("resolving machine identity: %w", err)
	}
	return host, nil
}

// material returns the key derivation input. Fields are NUL-separated so
// that ("ab", "c") and ("a", "bc") differ.
func (id Identity) material() []byte {
	return []byte(id.Machine + "\x00" + id.User + "\x00" + id.UID)
}
