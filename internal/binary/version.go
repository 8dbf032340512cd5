package binary

import (
	"context"
	"fmt"
	"os/exec"
	"regexp"
	"time"
)

// versionTimeout bounds a single "<tool> --version" run.
const versionTimeout = 5 * time.Second

var versionRegex = regexp.MustCompile(`\d+\.\d+\.\d+(-[0-9A-Za-z.-]+)?`)

// ExtractVersion extracts semantic version from command output
func ExtractVersion(output string) (string, error) {
	match := versionRegex.FindString(output)
	if match == "" {
		return "", fmt.Errorf("no version found in output")
	}
	return match, nil
}

// DetectVersion runs binaryPath with --version and extracts the version
// it prints.
func DetectVersion(ctx context.Context, binaryPath string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, versionTimeout)
	defer cancel()

	//nolint:gosec // G204: the path is the tool this program installs
	output, err := exec.CommandContext(ctx, binaryPath, "--version").Output()
	if err != nil {
		return "", fmt.Errorf("run %s --version: %w", binaryPath, err)
	}
	return ExtractVersion(string(output))
}

// InstalledVersion reports the version of the currently installed tool,
// or "" when nothing executable is installed.
func (i *Installer) InstalledVersion(ctx context.Context) (string, error) {
	ok, err := i.IsInstalled()
	if err != nil || !ok {
		return "", err
	}
	return DetectVersion(ctx, i.Target())
}
