package binary

import (
	"os"
	"time"
)

// VerificationMethod identifies a check performed on a downloaded asset.
type VerificationMethod int

const (
	// VerificationNone means the release published nothing to verify against
	VerificationNone VerificationMethod = iota
	// VerificationSHA256 means a published SHA-256 digest matched
	VerificationSHA256
	// VerificationPGP means an OpenPGP detached signature verified against the keyring
	VerificationPGP
	// VerificationMinisign means a minisign signature verified against the public key
	VerificationMinisign
)

// String returns the string representation of the verification method
func (v VerificationMethod) String() string {
	switch v {
	case VerificationNone:
		return "None"
	case VerificationSHA256:
		return "SHA256"
	case VerificationPGP:
		return "PGP"
	case VerificationMinisign:
		return "minisign"
	default:
		return "Unknown"
	}
}

// Result describes a completed installation.
type Result struct {
	Path         string
	Tag          string
	Asset        string
	Bytes        int64
	Mode         os.FileMode
	Verified     []VerificationMethod
	Extracted    bool
	DownloadTime time.Duration
}
