// Package securecfg encrypts API credentials for transfer between devices.
// The password is shared out-of-band; the ciphertext travels through the
// remote store or any untrusted channel.
//
// Keys are derived with PBKDF2-SHA256 and the payload is sealed with
// AES-256-GCM. The salt is fixed per format version so both devices derive
// the same key from the password alone.
package securecfg

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/crypto/pbkdf2"

	"dutchlearn/internal/services"
)

const (
	formatVersion = "1.0"
	algorithm     = "PBKDF2-SHA256-AES256GCM"
	kdfIterations = 480000
	keyLength     = 32
)

// Fixed per format version so any device with the password derives the key.
var kdfSalt = []byte("dutch_learn_sync_salt_v1")

// ErrWrongPassword indicates the ciphertext failed authentication, which in
// practice almost always means a mistyped password.
var ErrWrongPassword = errors.New("wrong password or corrupted transfer file")

// Payload is the sensitive configuration carried inside the envelope.
type Payload struct {
	OpenAIAPIKey     string `json:"openai_api_key"`
	AssemblyAIAPIKey string `json:"assemblyai_api_key,omitempty"`
	SyncToken        string `json:"sync_token,omitempty"`
	ExportedAt       string `json:"exported_at"`
	Version          string `json:"version"`
}

// Envelope is the transfer file format written to disk.
type Envelope struct {
	EncryptedConfig string `json:"encrypted_config"`
	Version         string `json:"version"`
	Algorithm       string `json:"algorithm"`
	CreatedAt       string `json:"created_at"`
}

// Encryptor seals and opens configuration payloads with a password-derived
// key.
type Encryptor struct {
	key []byte
}

// New derives an encryption key from the password.
func New(password string) *Encryptor {
	return &Encryptor{key: pbkdf2.Key([]byte(password), kdfSalt, kdfIterations, keyLength, sha256.New)}
}

// Encrypt seals the payload into a transfer envelope.
func (e *Encryptor) Encrypt(payload Payload) (Envelope, error) {
	if payload.ExportedAt == "" {
		payload.ExportedAt = time.Now().UTC().Format(time.RFC3339)
	}
	if payload.Version == "" {
		payload.Version = formatVersion
	}

	plaintext, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, services.Wrap(services.ErrConfigEncryption, "transfer", "encode", "encode payload", err)
	}

	gcm, err := e.cipher()
	if err != nil {
		return Envelope{}, err
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return Envelope{}, services.Wrap(services.ErrConfigEncryption, "transfer", "nonce", "generate nonce", err)
	}
	sealed := gcm.Seal(nonce, nonce, plaintext, nil)

	return Envelope{
		EncryptedConfig: base64.URLEncoding.EncodeToString(sealed),
		Version:         formatVersion,
		Algorithm:       algorithm,
		CreatedAt:       time.Now().UTC().Format(time.RFC3339),
	}, nil
}

// Decrypt opens a transfer envelope. Authentication failures surface as
// ErrWrongPassword.
func (e *Encryptor) Decrypt(envelope Envelope) (Payload, error) {
	sealed, err := base64.URLEncoding.DecodeString(envelope.EncryptedConfig)
	if err != nil {
		return Payload{}, services.Wrap(services.ErrConfigEncryption, "transfer", "decode", "decode ciphertext", err)
	}

	gcm, err := e.cipher()
	if err != nil {
		return Payload{}, err
	}
	if len(sealed) < gcm.NonceSize() {
		return Payload{}, fmt.Errorf("%w: %w", services.ErrConfigEncryption, ErrWrongPassword)
	}
	nonce, ciphertext := sealed[:gcm.NonceSize()], sealed[gcm.NonceSize():]
	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return Payload{}, fmt.Errorf("%w: %w", services.ErrConfigEncryption, ErrWrongPassword)
	}

	var payload Payload
	if err := json.Unmarshal(plaintext, &payload); err != nil {
		return Payload{}, services.Wrap(services.ErrConfigEncryption, "transfer", "decode", "decode payload", err)
	}
	return payload, nil
}

func (e *Encryptor) cipher() (cipher.AEAD, error) {
	block, err := aes.NewCipher(e.key)
	if err != nil {
		return nil, services.Wrap(services.ErrConfigEncryption, "transfer", "cipher", "initialize cipher", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, services.Wrap(services.ErrConfigEncryption, "transfer", "cipher", "initialize GCM", err)
	}
	return gcm, nil
}

// WriteEnvelope writes a transfer envelope to disk as indented JSON.
func WriteEnvelope(path string, envelope Envelope) error {
	encoded, err := json.MarshalIndent(envelope, "", "  ")
	if err != nil {
		return services.Wrap(services.ErrConfigEncryption, "transfer", "write", "encode envelope", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return services.Wrap(services.ErrConfigEncryption, "transfer", "write", "create directory", err)
	}
	if err := os.WriteFile(path, encoded, 0o600); err != nil {
		return services.Wrap(services.ErrConfigEncryption, "transfer", "write", "write envelope", err)
	}
	return nil
}

// ReadEnvelope reads a transfer envelope from disk.
func ReadEnvelope(path string) (Envelope, error) {
	encoded, err := os.ReadFile(path)
	if err != nil {
		return Envelope{}, services.Wrap(services.ErrConfigEncryption, "transfer", "read", "read envelope", err)
	}
	var envelope Envelope
	if err := json.Unmarshal(encoded, &envelope); err != nil {
		return Envelope{}, services.Wrap(services.ErrConfigEncryption, "transfer", "read", "decode envelope", err)
	}
	return envelope, nil
}

// Readable without ambiguous characters (no I, O, l, 0, 1).
const passwordAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZabcdefghjkmnpqrstuvwxyz23456789"

// GeneratePassword produces a 16-character transfer password that is easy to
// type on a phone.
func GeneratePassword() (string, error) {
	password := make([]byte, 16)
	max := big.NewInt(int64(len(passwordAlphabet)))
	for i := range password {
		index, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", services.Wrap(services.ErrConfigEncryption, "transfer", "password", "generate password", err)
		}
		password[i] = passwordAlphabet[index.Int64()]
	}
	return string(password), nil
}
