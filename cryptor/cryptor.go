// Package cryptor defines the external collaborator MessageInStream and
// MessageOutStream call to encrypt/decrypt frame payloads. The actual TLS
// session is out of this module's scope (spec §1); this package only
// specifies the interface and supplies one implementation useful for
// wiring and testing: Passthrough, an identity Cryptor. It does not shape
// ciphertext like a TLS record.
package cryptor

// Cryptor encrypts/decrypts frame payloads. Implementations must be safe
// for concurrent use; the core treats them as pure functions.
type Cryptor interface {
	// Encrypt turns a plaintext message payload into a TLS-record-shaped
	// ciphertext. The returned length becomes the frame's recorded
	// payload length.
	Encrypt(plaintext []byte) (ciphertext []byte, err error)

	// Decrypt turns one frame's ciphertext (a TLS record) into plaintext.
	Decrypt(ciphertext []byte) (plaintext []byte, err error)
}

// Passthrough is a no-op Cryptor for PLAIN-only testing: Encrypt/Decrypt
// are identity functions. Using it on an ENCRYPTED frame is a test-harness
// convenience, not a real security mechanism.
type Passthrough struct{}

func (Passthrough) Encrypt(plaintext []byte) ([]byte, error) {
	out := make([]byte, len(plaintext))
	copy(out, plaintext)
	return out, nil
}

func (Passthrough) Decrypt(ciphertext []byte) ([]byte, error) {
	out := make([]byte, len(ciphertext))
	copy(out, ciphertext)
	return out, nil
}
