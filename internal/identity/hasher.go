package identity

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"io"
)

// Identity is the privacy-preserving form of a submitter's network address.
// Hash is a one-way lookup key for ban matching; Encrypted is the reversible
// form kept solely for admin review. The zero value means no address was
// captured.
type Identity struct {
	Hash      string
	Encrypted string
}

// Known reports whether an address was captured for this submission.
// Unknown identities skip the ban check and cannot be suspended.
func (i Identity) Known() bool {
	return i.Hash != ""
}

// Hasher derives identities from raw network addresses. Hashing is keyless
// and deterministic so the same address always produces the same lookup key;
// encryption uses a process-wide secret so only the operator can recover the
// address.
type Hasher struct {
	aead cipher.AEAD
}

// NewHasher builds a Hasher from a secret key. The secret is stretched to a
// 32-byte AES key via SHA-256 so operators can configure any non-empty
// string.
func NewHasher(secret string) (*Hasher, error) {
	if secret == "" {
		return nil, fmt.Errorf("identity secret is required")
	}
	key := sha256.Sum256([]byte(secret))
	block, err := aes.NewCipher(key[:])
	if err != nil {
		return nil, fmt.Errorf("init identity cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("init identity aead: %w", err)
	}
	return &Hasher{aead: aead}, nil
}

// Hash returns the hex-encoded SHA-256 digest of the raw address.
func (h *Hasher) Hash(rawAddr string) string {
	sum := sha256.Sum256([]byte(rawAddr))
	return hex.EncodeToString(sum[:])
}

// Encrypt returns the base64-encoded AES-GCM ciphertext of the raw address,
// with the nonce prepended.
func (h *Hasher) Encrypt(rawAddr string) (string, error) {
	nonce := make([]byte, h.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("generate nonce: %w", err)
	}
	sealed := h.aead.Seal(nonce, nonce, []byte(rawAddr), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt recovers a raw address from ciphertext produced by Encrypt.
// Malformed or foreign ciphertext (key rotation, corruption) yields
// ("", false) rather than an error: stored ciphertext may predate the
// current key and the admin view degrades to "unavailable".
func (h *Hasher) Decrypt(ciphertext string) (string, bool) {
	raw, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return "", false
	}
	if len(raw) < h.aead.NonceSize() {
		return "", false
	}
	nonce, sealed := raw[:h.aead.NonceSize()], raw[h.aead.NonceSize():]
	plain, err := h.aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return "", false
	}
	return string(plain), true
}

// Resolve derives the full identity for a raw address. An empty address
// yields an unknown identity and ok=false; identity-based features are
// skipped for such submissions, never defaulted.
func (h *Hasher) Resolve(rawAddr string) (Identity, bool) {
	if rawAddr == "" {
		return Identity{}, false
	}
	encrypted, err := h.Encrypt(rawAddr)
	if err != nil {
		return Identity{}, false
	}
	return Identity{
		Hash:      h.Hash(rawAddr),
		Encrypted: encrypted,
	}, true
}
