// Package crypto provides the encryption primitives for tock sync.
// Records are sealed with AES-256-GCM under a data key that never leaves the
// device in plaintext; at rest the data key is wrapped with an HKDF-derived
// device key, and it is derived from the user's passphrase with Argon2id.
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/marcus/tock/internal/models"
	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/hkdf"
)

const (
	// keyLen is the AES-256 key length in bytes.
	keyLen = 32
	// nonceLen is the GCM nonce length in bytes.
	nonceLen = 12
	// hkdfInfo is the info string for the device wrapping key.
	hkdfInfo = "tock-device-key-wrap"
	// saltPrefix namespaces the email-derived Argon2id salt.
	saltPrefix = "tock-data-key:"

	// Argon2id parameters.
	argonTime    = 1
	argonMemory  = 64 * 1024
	argonThreads = 4
)

var (
	ErrEncryption       = errors.New("encryption failed")
	ErrDecryption       = errors.New("decryption failed")
	ErrDeserialization  = errors.New("deserialization failed")
	ErrKeyUnwrap        = errors.New("key unwrap failed")
	ErrDeviceDerivation = errors.New("device id derivation failed")
)

// Encrypt seals plaintext with AES-256-GCM under a fresh random nonce.
// The nonce is returned separately from the ciphertext.
func Encrypt(key, plaintext []byte) (ciphertext, nonce []byte, err error) {
	gcm, err := newGCM(key)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrEncryption, err)
	}

	nonce = make([]byte, nonceLen)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, nil, fmt.Errorf("%w: random nonce: %v", ErrEncryption, err)
	}

	return gcm.Seal(nil, nonce, plaintext, nil), nonce, nil
}

// Decrypt opens ciphertext produced by Encrypt.
func Decrypt(key, ciphertext, nonce []byte) ([]byte, error) {
	if len(nonce) != nonceLen {
		return nil, fmt.Errorf("%w: nonce must be %d bytes", ErrDecryption, nonceLen)
	}

	gcm, err := newGCM(key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecryption, err)
	}

	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecryption, err)
	}
	return plaintext, nil
}

func newGCM(key []byte) (cipher.AEAD, error) {
	if len(key) != keyLen {
		return nil, errors.New("key must be 32 bytes")
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("aes cipher: %w", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("gcm: %w", err)
	}
	return gcm, nil
}

// EncryptRecord serializes a record to JSON and seals it. The uid and
// last_updated are copied to the envelope in plaintext.
func EncryptRecord(rec models.Record, key []byte) (models.EncryptedRecord, error) {
	data, err := json.Marshal(rec)
	if err != nil {
		return models.EncryptedRecord{}, fmt.Errorf("%w: marshal: %v", ErrEncryption, err)
	}

	ct, nonce, err := Encrypt(key, data)
	if err != nil {
		return models.EncryptedRecord{}, err
	}

	meta := rec.Meta()
	return models.EncryptedRecord{
		EncryptedData: base64.StdEncoding.EncodeToString(ct),
		Nonce:         base64.StdEncoding.EncodeToString(nonce),
		UID:           meta.UID,
		LastUpdated:   meta.LastUpdated,
	}, nil
}

// DecryptRecord opens an envelope and deserializes it into T.
func DecryptRecord[T any](rec models.EncryptedRecord, key []byte) (T, error) {
	var out T

	ct, err := base64.StdEncoding.DecodeString(rec.EncryptedData)
	if err != nil {
		return out, fmt.Errorf("%w: decode data: %v", ErrDecryption, err)
	}
	nonce, err := base64.StdEncoding.DecodeString(rec.Nonce)
	if err != nil {
		return out, fmt.Errorf("%w: decode nonce: %v", ErrDecryption, err)
	}

	plaintext, err := Decrypt(key, ct, nonce)
	if err != nil {
		return out, err
	}

	if err := json.Unmarshal(plaintext, &out); err != nil {
		return out, fmt.Errorf("%w: %v", ErrDeserialization, err)
	}
	return out, nil
}

// deviceKey derives the AES-256 wrapping key for this device via HKDF-SHA256.
func deviceKey(deviceID string) ([]byte, error) {
	if deviceID == "" {
		return nil, ErrDeviceDerivation
	}

	r := hkdf.New(sha256.New, []byte(deviceID), nil, []byte(hkdfInfo))
	key := make([]byte, keyLen)
	if _, err := io.ReadFull(r, key); err != nil {
		return nil, fmt.Errorf("hkdf: %w", err)
	}
	return key, nil
}

// WrapKey encrypts the data key with the device key. Both results are
// base64 encoded for storage.
func WrapKey(deviceID string, dataKey []byte) (wrapped, nonce string, err error) {
	wrapKey, err := deviceKey(deviceID)
	if err != nil {
		return "", "", fmt.Errorf("derive wrap key: %w", err)
	}

	ct, n, err := Encrypt(wrapKey, dataKey)
	if err != nil {
		return "", "", err
	}
	return base64.StdEncoding.EncodeToString(ct), base64.StdEncoding.EncodeToString(n), nil
}

// UnwrapKey recovers the data key. A wrapped key copied from another device
// fails here because the device key differs.
func UnwrapKey(deviceID, wrapped, nonce string) ([]byte, error) {
	wrapKey, err := deviceKey(deviceID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrKeyUnwrap, err)
	}

	ct, err := base64.StdEncoding.DecodeString(wrapped)
	if err != nil {
		return nil, fmt.Errorf("%w: decode key: %v", ErrKeyUnwrap, err)
	}
	n, err := base64.StdEncoding.DecodeString(nonce)
	if err != nil {
		return nil, fmt.Errorf("%w: decode nonce: %v", ErrKeyUnwrap, err)
	}

	key, err := Decrypt(wrapKey, ct, n)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrKeyUnwrap, err)
	}
	if len(key) != keyLen {
		return nil, fmt.Errorf("%w: unwrapped key has %d bytes", ErrKeyUnwrap, len(key))
	}
	return key, nil
}

// DeriveDataKey derives the 256-bit data key from a passphrase using Argon2id.
// The salt comes from the normalized email so every device of the same
// account derives the same key.
func DeriveDataKey(passphrase, email string) []byte {
	salt := sha256.Sum256([]byte(saltPrefix + NormalizeEmail(email)))
	return argon2.IDKey([]byte(passphrase), salt[:], argonTime, argonMemory, argonThreads, keyLen)
}

// NormalizeEmail lowercases and trims an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Verifier returns a hex SHA-256 of the data key. The server stores it to
// check that every device of an account uses the same key.
func Verifier(dataKey []byte) string {
	sum := sha256.Sum256(dataKey)
	return hex.EncodeToString(sum[:])
}

// GenerateKey generates a random 256-bit key.
func GenerateKey() ([]byte, error) {
	key := make([]byte, keyLen)
	if _, err := io.ReadFull(rand.Reader, key); err != nil {
		return nil, fmt.Errorf("random key: %w", err)
	}
	return key, nil
}
