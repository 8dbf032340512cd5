package binary

import (
	"bufio"
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ProtonMail/go-crypto/openpgp" //nolint:staticcheck // Using ProtonMail's maintained fork
	"github.com/jedisct1/go-minisign"

	appErrors "github.com/zymbit-applications/zb-install/internal/errors"
)

// VerifySHA256 checks path against a checksum file. The file may hold a
// bare digest (a per-asset .sha256) or "digest  name" lines (a manifest),
// in which case the line for name is used.
func VerifySHA256(path, name string, checksums []byte) error {
	expected, err := findChecksum(checksums, name)
	if err != nil {
		return appErrors.New(appErrors.CodeVerification, "find checksum", err)
	}

	actual, err := calculateSHA256(path)
	if err != nil {
		return appErrors.New(appErrors.CodeIO, "calculate checksum", err)
	}

	if !strings.EqualFold(actual, expected) {
		return appErrors.New(appErrors.CodeVerification,
			fmt.Sprintf("checksum mismatch for %s: actual %s, expected %s", name, actual, expected), nil)
	}
	return nil
}

// VerifyPGP checks path against an armored or binary detached signature.
func VerifyPGP(path string, keyring openpgp.EntityList, sig []byte) error {
	file, err := os.Open(path)
	if err != nil {
		return appErrors.New(appErrors.CodeIO, "open download", err)
	}
	defer file.Close()

	_, err = openpgp.CheckArmoredDetachedSignature(keyring, file, bytes.NewReader(sig), nil)
	if err != nil {
		if _, seekErr := file.Seek(0, io.SeekStart); seekErr != nil {
			return appErrors.New(appErrors.CodeIO, "rewind download", seekErr)
		}
		_, err = openpgp.CheckDetachedSignature(keyring, file, bytes.NewReader(sig), nil)
	}
	if err != nil {
		return appErrors.New(appErrors.CodeVerification, "verify PGP signature", err)
	}
	return nil
}

// VerifyMinisign checks path against a minisign signature.
func VerifyMinisign(path string, key minisign.PublicKey, sig []byte) error {
	signature, err := minisign.DecodeSignature(string(sig))
	if err != nil {
		return appErrors.New(appErrors.CodeVerification, "decode minisign signature", err)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return appErrors.New(appErrors.CodeIO, "read download", err)
	}

	valid, err := key.Verify(content, signature)
	if err != nil {
		return appErrors.New(appErrors.CodeVerification, "verify minisign signature", err)
	}
	if !valid {
		return appErrors.New(appErrors.CodeVerification, "minisign signature verification failed", nil)
	}
	return nil
}

// calculateSHA256 calculates the SHA256 checksum of a file
func calculateSHA256(filePath string) (string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return "", err
	}
	defer file.Close()

	hasher := sha256.New()
	if _, err := io.Copy(hasher, file); err != nil {
		return "", err
	}
	return hex.EncodeToString(hasher.Sum(nil)), nil
}

// findChecksum finds the checksum for filename.
// Formats: "abc123" alone, "abc123  name", or "abc123 *name" (binary mode).
func findChecksum(checksums []byte, filename string) (string, error) {
	var lone string
	lines := 0

	scanner := bufio.NewScanner(bytes.NewReader(checksums))
	for scanner.Scan() {
		parts := strings.Fields(scanner.Text())
		if len(parts) == 0 {
			continue
		}
		lines++
		if len(parts) == 1 {
			lone = parts[0]
			continue
		}

		name := strings.TrimPrefix(parts[1], "*")
		if name == filename || filepath.Base(name) == filename {
			return parts[0], nil
		}
	}
	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("scan checksum file: %w", err)
	}

	if lines == 1 && lone != "" {
		return lone, nil
	}
	return "", fmt.Errorf("checksum not found for %s", filename)
}
