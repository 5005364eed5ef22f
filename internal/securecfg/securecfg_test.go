package securecfg

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"dutchlearn/internal/services"
)

func TestEncryptDecryptRoundTrip(t *testing.T) {
	encryptor := New("correct horse battery")
	payload := Payload{
		OpenAIAPIKey:     "sk-test-123",
		AssemblyAIAPIKey: "aai-test-456",
		SyncToken:        "token-789",
	}

	envelope, err := encryptor.Encrypt(payload)
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	if envelope.Algorithm != "PBKDF2-SHA256-AES256GCM" || envelope.Version != "1.0" {
		t.Fatalf("unexpected envelope metadata: %+v", envelope)
	}
	if strings.Contains(envelope.EncryptedConfig, "sk-test-123") {
		t.Fatal("ciphertext leaks plaintext")
	}

	decrypted, err := encryptor.Decrypt(envelope)
	if err != nil {
		t.Fatalf("Decrypt: %v", err)
	}
	if decrypted.OpenAIAPIKey != payload.OpenAIAPIKey ||
		decrypted.AssemblyAIAPIKey != payload.AssemblyAIAPIKey ||
		decrypted.SyncToken != payload.SyncToken {
		t.Fatalf("round trip mismatch: %+v", decrypted)
	}
	if decrypted.ExportedAt == "" || decrypted.Version != "1.0" {
		t.Fatalf("metadata not filled in: %+v", decrypted)
	}
}

func TestDecryptWrongPassword(t *testing.T) {
	envelope, err := New("right password").Encrypt(Payload{OpenAIAPIKey: "sk-test"})
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}

	_, err = New("wrong password").Decrypt(envelope)
	if !errors.Is(err, ErrWrongPassword) {
		t.Fatalf("error %v does not wrap ErrWrongPassword", err)
	}
	if !errors.Is(err, services.ErrConfigEncryption) {
		t.Fatalf("error %v does not wrap ErrConfigEncryption", err)
	}
}

func TestDecryptTamperedCiphertext(t *testing.T) {
	encryptor := New("password")
	envelope, err := encryptor.Encrypt(Payload{OpenAIAPIKey: "sk-test"})
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	envelope.EncryptedConfig = envelope.EncryptedConfig[:len(envelope.EncryptedConfig)-8] + "AAAAAAA="

	if _, err := encryptor.Decrypt(envelope); !errors.Is(err, ErrWrongPassword) {
		t.Fatalf("error %v does not wrap ErrWrongPassword", err)
	}
}

func TestEnvelopeFileRoundTrip(t *testing.T) {
	encryptor := New("password")
	envelope, err := encryptor.Encrypt(Payload{OpenAIAPIKey: "sk-test"})
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}

	path := filepath.Join(t.TempDir(), "exports", "transfer.json")
	if err := WriteEnvelope(path, envelope); err != nil {
		t.Fatalf("WriteEnvelope: %v", err)
	}
	loaded, err := ReadEnvelope(path)
	if err != nil {
		t.Fatalf("ReadEnvelope: %v", err)
	}
	payload, err := encryptor.Decrypt(loaded)
	if err != nil {
		t.Fatalf("Decrypt: %v", err)
	}
	if payload.OpenAIAPIKey != "sk-test" {
		t.Fatalf("file round trip mismatch: %+v", payload)
	}
}

func TestGeneratePassword(t *testing.T) {
	seen := map[string]struct{}{}
	for i := 0; i < 8; i++ {
		password, err := GeneratePassword()
		if err != nil {
			t.Fatalf("GeneratePassword: %v", err)
		}
		if len(password) != 16 {
			t.Fatalf("password length = %d, want 16", len(password))
		}
		for _, r := range password {
			if strings.ContainsRune("IOl01", r) {
				t.Fatalf("password %q contains ambiguous character %q", password, r)
			}
		}
		seen[password] = struct{}{}
	}
	if len(seen) < 8 {
		t.Fatal("generated passwords are not unique")
	}
}
