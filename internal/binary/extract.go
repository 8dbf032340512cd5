package binary

import (
	"archive/tar"
	"archive/zip"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path"
	"strings"

	appErrors "github.com/zymbit-applications/zb-install/internal/errors"
)

// ArchiveFormat is the container format of a release asset.
type ArchiveFormat int

const (
	// ArchiveNone means the asset is the binary itself
	ArchiveNone ArchiveFormat = iota
	ArchiveZip
	ArchiveTarGz
)

// DetectArchive returns the archive format implied by an asset name.
func DetectArchive(name string) ArchiveFormat {
	lower := strings.ToLower(name)
	switch {
	case strings.HasSuffix(lower, ".zip"):
		return ArchiveZip
	case strings.HasSuffix(lower, ".tar.gz"), strings.HasSuffix(lower, ".tgz"):
		return ArchiveTarGz
	default:
		return ArchiveNone
	}
}

// Extractor handles archive extraction
type Extractor struct{}

// NewExtractor creates a new extractor
func NewExtractor() *Extractor {
	return &Extractor{}
}

// ExtractBinary copies the regular file named binaryName (at any depth)
// from the archive at archivePath into w.
func (e *Extractor) ExtractBinary(format ArchiveFormat, archivePath, binaryName string, w io.Writer) error {
	switch format {
	case ArchiveZip:
		return e.extractZip(archivePath, binaryName, w)
	case ArchiveTarGz:
		return e.extractTarGz(archivePath, binaryName, w)
	default:
		return fmt.Errorf("unsupported archive format %d", format)
	}
}

func (e *Extractor) extractTarGz(archivePath, binaryName string, w io.Writer) error {
	archiveFile, err := os.Open(archivePath)
	if err != nil {
		return appErrors.New(appErrors.CodeIO, "open archive", err)
	}
	defer archiveFile.Close()

	gzipReader, err := gzip.NewReader(archiveFile)
	if err != nil {
		return appErrors.New(appErrors.CodeVerification, "create gzip reader", err)
	}
	defer gzipReader.Close()

	tarReader := tar.NewReader(gzipReader)
	for {
		header, err := tarReader.Next()
		if err == io.EOF {
			return appErrors.New(appErrors.CodeAssetNotFound, fmt.Sprintf("binary %s not found in archive", binaryName), nil)
		}
		if err != nil {
			return appErrors.New(appErrors.CodeVerification, "read tar header", err)
		}

		if header.Typeflag == tar.TypeReg && path.Base(header.Name) == binaryName {
			if _, err := io.Copy(w, tarReader); err != nil {
				return appErrors.New(appErrors.CodeIO, "write binary", err)
			}
			return nil
		}
	}
}

func (e *Extractor) extractZip(archivePath, binaryName string, w io.Writer) error {
	zr, err := zip.OpenReader(archivePath)
	if err != nil {
		return appErrors.New(appErrors.CodeVerification, "open zip archive", err)
	}
	defer zr.Close()

	for _, f := range zr.File {
		if !f.Mode().IsRegular() || path.Base(f.Name) != binaryName {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return appErrors.New(appErrors.CodeVerification, fmt.Sprintf("open %s in archive", f.Name), err)
		}
		_, err = io.Copy(w, rc)
		rc.Close()
		if err != nil {
			return appErrors.New(appErrors.CodeIO, "write binary", err)
		}
		return nil
	}
	return appErrors.New(appErrors.CodeAssetNotFound, fmt.Sprintf("binary %s not found in archive", binaryName), nil)
}
