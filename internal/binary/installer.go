package binary

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/ProtonMail/go-crypto/openpgp" //nolint:staticcheck // Using ProtonMail's maintained fork
	"github.com/jedisct1/go-minisign"

	appErrors "github.com/zymbit-applications/zb-install/internal/errors"
	"github.com/zymbit-applications/zb-install/internal/hostenv"
	"github.com/zymbit-applications/zb-install/internal/logger"
	"github.com/zymbit-applications/zb-install/internal/release"
)

const (
	// DefaultInstallDir is where the tool is installed unless configured otherwise
	DefaultInstallDir = "/usr/bin"
	// DefaultTool is the installed file name
	DefaultTool = "zbcli"

	// defaultMode is the starting mode of a fresh install, before the
	// executable bits are added
	defaultMode fs.FileMode = 0o644
)

// checksumManifests are release-wide checksum files, tried in order when
// the asset has no .sha256 of its own.
var checksumManifests = []string{"SHA256SUMS", "checksums.txt"}

// Installer orchestrates download, verification, and installation of one tool.
type Installer struct {
	installDir  string
	tool        string
	keyring     openpgp.EntityList
	minisignKey *minisign.PublicKey
	prober      hostenv.Prober
	logger      *slog.Logger
	downloader  *Downloader
	extractor   *Extractor
}

// Config holds configuration for the installer
type Config struct {
	// InstallDir is the directory the tool is written to (default: /usr/bin)
	InstallDir string
	// Tool is the installed file name, and the file looked up inside archives (default: zbcli)
	Tool string
	// HTTPClient downloads assets (default: http.DefaultClient)
	HTTPClient *http.Client
	// KeyringPath, when set, makes a PGP signature mandatory
	KeyringPath string
	// MinisignKeyPath, when set, makes a minisign signature mandatory
	MinisignKeyPath string
	// Prober inspects mounts for noexec (default: hostenv.DefaultProber)
	Prober *hostenv.Prober
	Logger *slog.Logger
}

// NewInstaller creates a new installer. Configured keys are loaded eagerly
// so a bad key path fails before anything is downloaded.
func NewInstaller(cfg Config) (*Installer, error) {
	inst := &Installer{
		installDir: cfg.InstallDir,
		tool:       cfg.Tool,
		prober:     hostenv.DefaultProber,
		logger:     logger.OrDiscard(cfg.Logger),
		downloader: NewDownloader(cfg.HTTPClient),
		extractor:  NewExtractor(),
	}
	if inst.installDir == "" {
		inst.installDir = DefaultInstallDir
	}
	if inst.tool == "" {
		inst.tool = DefaultTool
	}
	if filepath.Base(inst.tool) != inst.tool {
		return nil, appErrors.New(appErrors.CodeConfiguration, fmt.Sprintf("tool name %q must not contain a path", inst.tool), nil)
	}
	if cfg.Prober != nil {
		inst.prober = *cfg.Prober
	}

	if cfg.KeyringPath != "" {
		keyring, err := LoadKeyring(cfg.KeyringPath)
		if err != nil {
			return nil, err
		}
		inst.keyring = keyring
	}
	if cfg.MinisignKeyPath != "" {
		key, err := LoadMinisignKey(cfg.MinisignKeyPath)
		if err != nil {
			return nil, err
		}
		inst.minisignKey = &key
	}

	return inst, nil
}

// Target returns the path the tool is installed to.
func (i *Installer) Target() string {
	return filepath.Join(i.installDir, i.tool)
}

// IsInstalled checks if the tool is already installed and executable
func (i *Installer) IsInstalled() (bool, error) {
	info, err := os.Stat(i.Target())
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, appErrors.New(appErrors.CodeIO, "stat binary", err)
	}
	return info.Mode().IsRegular() && info.Mode().Perm()&0o111 != 0, nil
}

// Install downloads asset from rel, verifies it, and atomically replaces
// the target with it. The target's existing permission bits are kept and
// the executable bits added, so repeating an install changes nothing.
func (i *Installer) Install(ctx context.Context, rel release.Release, asset release.Asset) (*Result, error) {
	startTime := time.Now()

	if err := os.MkdirAll(i.installDir, 0o755); err != nil {
		return nil, appErrors.New(appErrors.CodeIO, fmt.Sprintf("create install dir %s", i.installDir), err)
	}
	lock, err := acquireLock(ctx, i.installDir, i.tool)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := lock.release(); err != nil {
			i.logger.Warn("failed to release install lock", "error", err)
		}
	}()

	if point, noexec := i.prober.NoExec(i.installDir); noexec {
		i.logger.Warn("install directory is on a noexec mount; the binary will not be runnable",
			"dir", i.installDir, "mount", point)
	}

	i.logger.Debug("downloading asset", "tag", rel.TagName, "asset", asset.Name, "url", asset.DownloadURL)
	downloadPath, n, err := i.downloader.DownloadToTemp(ctx, asset.DownloadURL, i.installDir, "."+i.tool+"-download-*")
	if err != nil {
		return nil, fmt.Errorf("download %s: %w", asset.Name, err)
	}
	defer os.Remove(downloadPath)

	verified, err := i.verify(ctx, rel, asset, downloadPath)
	if err != nil {
		return nil, err
	}

	stagedPath := downloadPath
	format := DetectArchive(asset.Name)
	if format != ArchiveNone {
		stagedPath, err = i.extract(format, downloadPath)
		if err != nil {
			return nil, err
		}
		defer os.Remove(stagedPath)
	}

	mode, err := i.targetMode()
	if err != nil {
		return nil, err
	}
	if err := os.Chmod(stagedPath, mode); err != nil {
		return nil, appErrors.New(appErrors.CodeIO, "set executable", err)
	}
	if err := os.Rename(stagedPath, i.Target()); err != nil {
		return nil, appErrors.New(appErrors.CodeIO, fmt.Sprintf("write %s", i.Target()), err)
	}

	i.logger.Debug("installed", "path", i.Target(), "mode", mode, "bytes", n)
	return &Result{
		Path:         i.Target(),
		Tag:          rel.TagName,
		Asset:        asset.Name,
		Bytes:        n,
		Mode:         mode,
		Verified:     verified,
		Extracted:    format != ArchiveNone,
		DownloadTime: time.Since(startTime),
	}, nil
}

// targetMode returns the mode for the new file: the current target's
// permission bits, or 0644 when there is none, plus a+x.
func (i *Installer) targetMode() (fs.FileMode, error) {
	mode := defaultMode
	info, err := os.Stat(i.Target())
	switch {
	case err == nil:
		if !info.Mode().IsRegular() {
			return 0, appErrors.New(appErrors.CodeIO, fmt.Sprintf("%s exists and is not a regular file", i.Target()), nil)
		}
		mode = info.Mode().Perm()
	case !errors.Is(err, fs.ErrNotExist):
		return 0, appErrors.New(appErrors.CodeIO, "stat binary", err)
	}
	return mode | 0o111, nil
}

func (i *Installer) extract(format ArchiveFormat, archivePath string) (string, error) {
	out, err := os.CreateTemp(i.installDir, "."+i.tool+"-extract-*")
	if err != nil {
		return "", appErrors.New(appErrors.CodeIO, "create temp file", err)
	}
	outPath := out.Name()

	err = i.extractor.ExtractBinary(format, archivePath, i.tool, out)
	if closeErr := out.Close(); err == nil && closeErr != nil {
		err = appErrors.New(appErrors.CodeIO, "close temp file", closeErr)
	}
	if err != nil {
		os.Remove(outPath)
		return "", fmt.Errorf("extract %s: %w", i.tool, err)
	}
	return outPath, nil
}

// verify runs every check the release publishes material for. A configured
// key whose signature is missing from the release is an error.
func (i *Installer) verify(ctx context.Context, rel release.Release, asset release.Asset, path string) ([]VerificationMethod, error) {
	var methods []VerificationMethod

	if sums, ok := i.checksumAsset(rel, asset.Name); ok {
		data, err := i.downloader.Fetch(ctx, sums.DownloadURL)
		if err != nil {
			return nil, fmt.Errorf("download %s: %w", sums.Name, err)
		}
		if err := VerifySHA256(path, asset.Name, data); err != nil {
			return nil, err
		}
		methods = append(methods, VerificationSHA256)
	}

	sig, hasSig := release.Sidecar(rel, asset.Name, ".asc")
	if !hasSig {
		sig, hasSig = release.Sidecar(rel, asset.Name, ".sig")
	}
	switch {
	case i.keyring != nil && !hasSig:
		return nil, appErrors.New(appErrors.CodeVerification,
			fmt.Sprintf("a keyring is configured but release %s has no PGP signature for %s", rel.TagName, asset.Name), nil)
	case i.keyring != nil:
		data, err := i.downloader.Fetch(ctx, sig.DownloadURL)
		if err != nil {
			return nil, fmt.Errorf("download %s: %w", sig.Name, err)
		}
		if err := VerifyPGP(path, i.keyring, data); err != nil {
			return nil, err
		}
		methods = append(methods, VerificationPGP)
	case hasSig:
		i.logger.Debug("skipping PGP signature, no keyring configured", "signature", sig.Name)
	}

	minisig, hasMinisig := release.Sidecar(rel, asset.Name, ".minisig")
	switch {
	case i.minisignKey != nil && !hasMinisig:
		return nil, appErrors.New(appErrors.CodeVerification,
			fmt.Sprintf("a minisign key is configured but release %s has no signature for %s", rel.TagName, asset.Name), nil)
	case i.minisignKey != nil:
		data, err := i.downloader.Fetch(ctx, minisig.DownloadURL)
		if err != nil {
			return nil, fmt.Errorf("download %s: %w", minisig.Name, err)
		}
		if err := VerifyMinisign(path, *i.minisignKey, data); err != nil {
			return nil, err
		}
		methods = append(methods, VerificationMinisign)
	case hasMinisig:
		i.logger.Debug("skipping minisign signature, no public key configured", "signature", minisig.Name)
	}

	if len(methods) == 0 {
		i.logger.Debug("release publishes no checksums for asset", "asset", asset.Name)
		methods = append(methods, VerificationNone)
	}
	return methods, nil
}

func (i *Installer) checksumAsset(rel release.Release, name string) (release.Asset, bool) {
	if a, ok := release.Sidecar(rel, name, ".sha256"); ok {
		return a, true
	}
	for _, manifest := range checksumManifests {
		if a, err := release.FindAsset(rel, manifest); err == nil {
			return a, true
		}
	}
	return release.Asset{}, false
}
