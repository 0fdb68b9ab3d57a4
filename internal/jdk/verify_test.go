package jdk

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ProtonMail/go-crypto/openpgp" //nolint:staticcheck // Using ProtonMail's maintained fork
	"github.com/ProtonMail/go-crypto/openpgp/armor"
)

func newTestEntity(t *testing.T) *openpgp.Entity {
	t.Helper()
	entity, err := openpgp.NewEntity("jbundle test", "", "test@example.com", nil)
	if err != nil {
		t.Fatalf("create test key: %v", err)
	}
	return entity
}

func TestVerifier_VerifySHA256(t *testing.T) {
	path := filepath.Join(t.TempDir(), "archive.tar.gz")
	writeTestFile(t, path, []byte("archive bytes"))
	sum := sha256Hex([]byte("archive bytes"))

	v := NewVerifier(nil)
	if err := v.VerifySHA256(path, strings.ToUpper(sum)); err != nil {
		t.Errorf("VerifySHA256() with matching digest: %v", err)
	}

	err := v.VerifySHA256(path, sha256Hex([]byte("other")))
	if !errors.Is(err, ErrChecksumMismatch) {
		t.Errorf("VerifySHA256() error = %v, want ErrChecksumMismatch", err)
	}
}

func TestVerifier_VerifySignature(t *testing.T) {
	dir := t.TempDir()
	entity := newTestEntity(t)

	archive := filepath.Join(dir, "jdk.tar.gz")
	writeTestFile(t, archive, []byte("signed archive"))

	var armored bytes.Buffer
	if err := openpgp.ArmoredDetachSign(&armored, entity, strings.NewReader("signed archive"), nil); err != nil {
		t.Fatal(err)
	}
	armoredSig := filepath.Join(dir, "jdk.tar.gz.asc")
	writeTestFile(t, armoredSig, armored.Bytes())

	var binarySig bytes.Buffer
	if err := openpgp.DetachSign(&binarySig, entity, strings.NewReader("signed archive"), nil); err != nil {
		t.Fatal(err)
	}
	rawSig := filepath.Join(dir, "jdk.tar.gz.sig")
	writeTestFile(t, rawSig, binarySig.Bytes())

	tampered := filepath.Join(dir, "tampered.tar.gz")
	writeTestFile(t, tampered, []byte("tampered archive"))

	v := NewVerifier(openpgp.EntityList{entity})

	tests := []struct {
		name      string
		archive   string
		signature string
		wantErr   bool
	}{
		{"armored signature", archive, armoredSig, false},
		{"binary signature", archive, rawSig, false},
		{"tampered archive", tampered, armoredSig, true},
		{"missing signature", archive, filepath.Join(dir, "missing.sig"), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.VerifySignature(tt.archive, tt.signature)
			if (err != nil) != tt.wantErr {
				t.Errorf("VerifySignature() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}

	t.Run("wrong key", func(t *testing.T) {
		other := NewVerifier(openpgp.EntityList{newTestEntity(t)})
		err := other.VerifySignature(archive, armoredSig)
		if !errors.Is(err, ErrSignatureInvalid) {
			t.Errorf("VerifySignature() error = %v, want ErrSignatureInvalid", err)
		}
	})

	t.Run("no keyring", func(t *testing.T) {
		err := NewVerifier(nil).VerifySignature(archive, armoredSig)
		if !errors.Is(err, ErrSignatureInvalid) {
			t.Errorf("VerifySignature() error = %v, want ErrSignatureInvalid", err)
		}
	})
}

func TestLoadKeyring(t *testing.T) {
	dir := t.TempDir()
	entity := newTestEntity(t)

	var armored bytes.Buffer
	w, err := armor.Encode(&armored, openpgp.PublicKeyType, nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := entity.Serialize(w); err != nil {
		t.Fatal(err)
	}
	w.Close()
	armoredPath := filepath.Join(dir, "keys.asc")
	writeTestFile(t, armoredPath, armored.Bytes())

	var raw bytes.Buffer
	if err := entity.Serialize(&raw); err != nil {
		t.Fatal(err)
	}
	rawPath := filepath.Join(dir, "keys.gpg")
	writeTestFile(t, rawPath, raw.Bytes())

	for _, path := range []string{armoredPath, rawPath} {
		keyring, err := LoadKeyring(path)
		if err != nil {
			t.Errorf("LoadKeyring(%s) error = %v", filepath.Base(path), err)
			continue
		}
		if len(keyring) != 1 {
			t.Errorf("LoadKeyring(%s) returned %d keys, want 1", filepath.Base(path), len(keyring))
		}
	}

	garbage := filepath.Join(dir, "garbage.asc")
	writeTestFile(t, garbage, []byte("not a key"))
	if _, err := LoadKeyring(garbage); err == nil {
		t.Error("LoadKeyring() should fail on garbage input")
	}

	if _, err := LoadKeyring(filepath.Join(dir, "missing.asc")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("LoadKeyring() error = %v, want os.ErrNotExist", err)
	}
}
