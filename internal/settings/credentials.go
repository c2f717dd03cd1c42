package settings

import (
	"fmt"

	"github.com/HolgerKuehn/DynDNSClient/pkg/secret"
	"github.com/HolgerKuehn/DynDNSClient/pkg/xmlaccess"
)

// Element names inside the settings document.
const (
	usernameNode    = "Username"
	passwordNode    = "Password"
	isEncryptedNode = "IsEncrypted"
	valueNode       = "Value"
)

// NetworkCredential is the login handed to the DNS update client.
type NetworkCredential struct {
	Username string
	Password *secret.Protected
}

// Credentials holds the DNS service login read from the settings file.
type Credentials struct {
	username          *secret.EncryptedString
	password          *secret.EncryptedString
	anyValuePlaintext bool
	network           NetworkCredential
}

// NewCredentials reads the Username and Password sub-trees of node.
// On error nothing is left allocated: a username built before a failing
// password is destroyed.
func NewCredentials(node *xmlaccess.Node, protector *secret.Protector) (*Credentials, error) {
	username, usernamePlain, err := readSecret(node, usernameNode, protector)
	if err != nil {
		return nil, err
	}

	password, passwordPlain, err := readSecret(node, passwordNode, protector)
	if err != nil {
		username.Destroy()
		return nil, err
	}

	return &Credentials{
		username:          username,
		password:          password,
		anyValuePlaintext: usernamePlain || passwordPlain,
		network: NetworkCredential{
			Username: username.Plaintext(),
			Password: password.Protected(),
		},
	}, nil
}

// readSecret reads one credential sub-tree and reports whether its value
// was stored in plaintext.
func readSecret(node *xmlaccess.Node, name string, protector *secret.Protector) (*secret.EncryptedString, bool, error) {
	subtree := xmlaccess.ReadSubnode(node, name)
	if subtree == nil {
		return nil, false, &MissingFieldError{Section: node.Name(), Field: name}
	}

	isEncrypted, ok := xmlaccess.LookupInnerText(xmlaccess.ReadSubnode(subtree, isEncryptedNode))
	if !ok {
		return nil, false, &MissingFieldError{Section: name, Field: isEncryptedNode}
	}
	value, ok := xmlaccess.LookupInnerText(xmlaccess.ReadSubnode(subtree, valueNode))
	if !ok {
		return nil, false, &MissingFieldError{Section: name, Field: valueNode}
	}

	if isEncrypted != "false" {
		return nil, false, fmt.Errorf("%s: %w", name, ErrEncryptedInputUnsupported)
	}

	s, err := secret.New(secret.PlaintextToEncrypted, value, protector)
	if err != nil {
		return nil, false, fmt.Errorf("protecting %s: %w", name, err)
	}
	return s, true, nil
}

// Username returns the username in all its forms.
func (c *Credentials) Username() *secret.EncryptedString {
	return c.username
}

// Password returns the password in all its forms.
func (c *Credentials) Password() *secret.EncryptedString {
	return c.password
}

// AnyValuePlaintext reports whether any value was stored unencrypted.
func (c *Credentials) AnyValuePlaintext() bool {
	return c.anyValuePlaintext
}

// NetworkCredential returns the login for the DNS update client.
func (c *Credentials) NetworkCredential() NetworkCredential {
	return c.network
}

// Close scrubs both secrets.
func (c *Credentials) Close() error {
	c.username.Destroy()
	c.password.Destroy()
	return nil
}
