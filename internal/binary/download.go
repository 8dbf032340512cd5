package binary

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"

	appErrors "github.com/zymbit-applications/zb-install/internal/errors"
)

const (
	// DefaultUserAgent is the User-Agent header sent with requests
	DefaultUserAgent = "zb-install"
	// maxSidecarSize caps checksum and signature downloads
	maxSidecarSize = 1 << 20
)

// Downloader fetches release assets over HTTP. It makes a single attempt
// per request.
type Downloader struct {
	client    *http.Client
	userAgent string
}

// NewDownloader creates a downloader using client, or http.DefaultClient
// when client is nil.
func NewDownloader(client *http.Client) *Downloader {
	if client == nil {
		client = http.DefaultClient
	}
	return &Downloader{
		client:    client,
		userAgent: DefaultUserAgent,
	}
}

// Download streams url into w and returns the number of bytes written.
func (d *Downloader) Download(ctx context.Context, url string, w io.Writer) (int64, error) {
	resp, err := d.get(ctx, url)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	n, err := io.Copy(w, resp.Body)
	if err != nil {
		if ctx.Err() != nil {
			return n, ctx.Err()
		}
		return n, appErrors.New(appErrors.CodeNetwork, fmt.Sprintf("download %s", url), err)
	}
	return n, nil
}

// DownloadToTemp downloads url into a new temporary file in dir. The caller
// owns the returned file path.
func (d *Downloader) DownloadToTemp(ctx context.Context, url, dir, pattern string) (string, int64, error) {
	tmpFile, err := os.CreateTemp(dir, pattern)
	if err != nil {
		return "", 0, appErrors.New(appErrors.CodeIO, "create temp file", err)
	}
	tmpPath := tmpFile.Name()

	cleanupNeeded := true
	defer func() {
		tmpFile.Close()
		if cleanupNeeded {
			os.Remove(tmpPath)
		}
	}()

	n, err := d.Download(ctx, url, tmpFile)
	if err != nil {
		return "", n, err
	}
	if err := tmpFile.Close(); err != nil {
		return "", n, appErrors.New(appErrors.CodeIO, "close temp file", err)
	}

	cleanupNeeded = false
	return tmpPath, n, nil
}

// Fetch returns the body of a small file such as a checksum manifest.
func (d *Downloader) Fetch(ctx context.Context, url string) ([]byte, error) {
	resp, err := d.get(ctx, url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxSidecarSize+1))
	if err != nil {
		return nil, appErrors.New(appErrors.CodeNetwork, fmt.Sprintf("download %s", url), err)
	}
	if len(data) > maxSidecarSize {
		return nil, appErrors.New(appErrors.CodeVerification, fmt.Sprintf("%s exceeds %d bytes", url, maxSidecarSize), nil)
	}
	return data, nil
}

func (d *Downloader) get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, appErrors.New(appErrors.CodeNetwork, "create request", err)
	}
	req.Header.Set("User-Agent", d.userAgent)
	req.Header.Set("Accept", "application/octet-stream")

	resp, err := d.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, appErrors.New(appErrors.CodeNetwork, fmt.Sprintf("download %s", url), err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, appErrors.New(appErrors.CodeNetwork,
			fmt.Sprintf("download %s: unexpected status code: %d", url, resp.StatusCode), nil)
	}
	return resp, nil
}
