package binary

import (
	"bytes"
	"path/filepath"
	"testing"

	appErrors "github.com/zymbit-applications/zb-install/internal/errors"
)

func TestLoadKeyring(t *testing.T) {
	dir := t.TempDir()
	entity, armoredPath := newTestEntity(t, dir)

	var bin bytes.Buffer
	if err := entity.Serialize(&bin); err != nil {
		t.Fatalf("Serialize() error = %v", err)
	}
	binaryPath := writeTestFile(t, dir, "release.gpg", bin.Bytes())

	tests := []struct {
		name    string
		path    string
		wantErr bool
	}{
		{"armored", armoredPath, false},
		{"binary", binaryPath, false},
		{"garbage", writeTestFile(t, dir, "junk.gpg", []byte("junk")), true},
		{"missing", filepath.Join(dir, "missing.gpg"), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			keyring, err := LoadKeyring(tt.path)
			if (err != nil) != tt.wantErr {
				t.Fatalf("LoadKeyring() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				if !appErrors.IsCode(err, appErrors.CodeConfiguration) {
					t.Errorf("error code = %v, want configuration", appErrors.CodeOf(err))
				}
				return
			}
			if len(keyring) != 1 {
				t.Errorf("len(keyring) = %d, want 1", len(keyring))
			}
		})
	}
}

func TestLoadMinisignKey(t *testing.T) {
	dir := t.TempDir()
	_, pubPath := newMinisignKey(t, dir)

	if _, err := LoadMinisignKey(pubPath); err != nil {
		t.Fatalf("LoadMinisignKey() error = %v", err)
	}

	_, err := LoadMinisignKey(writeTestFile(t, dir, "bad.pub", []byte("untrusted comment: x\nnot-base64!\n")))
	if !appErrors.IsCode(err, appErrors.CodeConfiguration) {
		t.Errorf("LoadMinisignKey(bad) error = %v, want configuration", err)
	}
}
