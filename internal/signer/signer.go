package signer

// Signer interface for signing repository databases
type Signer interface {
	// SignDetached creates a binary detached signature (<repo>.db.sig)
	SignDetached(data []byte) ([]byte, error)

	// VerifyDetached checks a detached signature against data
	VerifyDetached(data, signature []byte) error

	// GetPublicKey returns the armored public key
	GetPublicKey() ([]byte, error)
}
