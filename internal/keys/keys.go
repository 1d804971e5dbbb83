// Package keys manages secp256k1 (K1) key pairs for chain accounts.
//
// Public keys use the legacy "EOS" string form: base58 of the 33-byte
// compressed key followed by the first 4 bytes of its RIPEMD-160 digest.
// Private keys use WIF. Signatures are DER encoded.
package keys

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"github.com/mr-tron/base58"
	"golang.org/x/crypto/ripemd160"
)

// PublicKeyPrefix is the legacy K1 public key prefix.
const PublicKeyPrefix = "EOS"

const wifVersion = 0x80

// ErrChecksum is returned when an encoded key fails its checksum.
var ErrChecksum = errors.New("key checksum mismatch")

// PrivateKey is a K1 signing key.
type PrivateKey struct {
	key *btcec.PrivateKey
}

// PublicKey is a K1 verification key.
type PublicKey struct {
	key *btcec.PublicKey
}

// Generate creates a new random key pair.
func Generate() (*PrivateKey, error) {
	k, err := btcec.NewPrivateKey()
	if err != nil {
		return nil, fmt.Errorf("generate key: %w", err)
	}
	return &PrivateKey{key: k}, nil
}

// FromSeed derives a key deterministically from seed. For tests and
// reproducible fixtures only.
func FromSeed(seed string) *PrivateKey {
	sum := sha256.Sum256([]byte(seed))
	k, _ := btcec.PrivKeyFromBytes(sum[:])
	return &PrivateKey{key: k}
}

// Public returns the matching public key.
func (p *PrivateKey) Public() PublicKey {
	return PublicKey{key: p.key.PubKey()}
}

// Sign signs a 32-byte digest and returns the hex DER signature.
func (p *PrivateKey) Sign(digest []byte) (string, error) {
	if len(digest) != sha256.Size {
		return "", fmt.Errorf("sign: digest must be %d bytes, got %d", sha256.Size, len(digest))
	}
	sig := ecdsa.Sign(p.key, digest)
	return hex.EncodeToString(sig.Serialize()), nil
}

// String encodes the key as WIF.
func (p *PrivateKey) String() string {
	payload := append([]byte{wifVersion}, p.key.Serialize()...)
	first := sha256.Sum256(payload)
	second := sha256.Sum256(first[:])
	return base58.Encode(append(payload, second[:4]...))
}

// ParsePrivateKey decodes a WIF private key.
func ParsePrivateKey(s string) (*PrivateKey, error) {
	raw, err := base58.Decode(s)
	if err != nil {
		return nil, fmt.Errorf("private key: %w", err)
	}
	if len(raw) != 37 || raw[0] != wifVersion {
		return nil, fmt.Errorf("private key: unexpected WIF layout")
	}
	payload, check := raw[:33], raw[33:]
	first := sha256.Sum256(payload)
	second := sha256.Sum256(first[:])
	if !bytes.Equal(second[:4], check) {
		return nil, fmt.Errorf("private key: %w", ErrChecksum)
	}
	k, _ := btcec.PrivKeyFromBytes(payload[1:])
	return &PrivateKey{key: k}, nil
}

// String encodes the key as "EOS" + base58(compressed || checksum).
func (k PublicKey) String() string {
	if k.key == nil {
		return ""
	}
	compressed := k.key.SerializeCompressed()
	return PublicKeyPrefix + base58.Encode(append(compressed, ripemdChecksum(compressed)...))
}

// IsZero reports whether the key is unset.
func (k PublicKey) IsZero() bool { return k.key == nil }

// Equal compares two public keys.
func (k PublicKey) Equal(other PublicKey) bool {
	if k.key == nil || other.key == nil {
		return k.key == other.key
	}
	return k.key.IsEqual(other.key)
}

// ParsePublicKey decodes the "EOS..." form.
func ParsePublicKey(s string) (PublicKey, error) {
	if !strings.HasPrefix(s, PublicKeyPrefix) {
		return PublicKey{}, fmt.Errorf("public key %q: missing %s prefix", s, PublicKeyPrefix)
	}
	raw, err := base58.Decode(strings.TrimPrefix(s, PublicKeyPrefix))
	if err != nil {
		return PublicKey{}, fmt.Errorf("public key %q: %w", s, err)
	}
	if len(raw) != 37 {
		return PublicKey{}, fmt.Errorf("public key %q: expected 37 bytes, got %d", s, len(raw))
	}
	compressed, check := raw[:33], raw[33:]
	if !bytes.Equal(ripemdChecksum(compressed), check) {
		return PublicKey{}, fmt.Errorf("public key %q: %w", s, ErrChecksum)
	}
	pk, err := btcec.ParsePubKey(compressed)
	if err != nil {
		return PublicKey{}, fmt.Errorf("public key %q: %w", s, err)
	}
	return PublicKey{key: pk}, nil
}

// Verify checks a hex DER signature over digest.
func (k PublicKey) Verify(digest []byte, sigHex string) bool {
	if k.key == nil {
		return false
	}
	raw, err := hex.DecodeString(sigHex)
	if err != nil {
		return false
	}
	sig, err := ecdsa.ParseDERSignature(raw)
	if err != nil {
		return false
	}
	return sig.Verify(digest, k.key)
}

func ripemdChecksum(data []byte) []byte {
	h := ripemd160.New()
	h.Write(data)
	return h.Sum(nil)[:4]
}
