package testutil_test

import (
	"io"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/zymbit-applications/zb-install/internal/testutil"
)

func TestSetupTestEnv(t *testing.T) {
	t.Setenv("ZB_INSTALL_TOOL", "other")
	t.Setenv("GITHUB_TOKEN", "secret")

	dir := testutil.SetupTestEnv(t)

	if _, ok := os.LookupEnv("ZB_INSTALL_TOOL"); ok {
		t.Error("ZB_INSTALL_TOOL should be unset")
	}
	if _, ok := os.LookupEnv("GITHUB_TOKEN"); ok {
		t.Error("GITHUB_TOKEN should be unset")
	}

	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome != filepath.Join(dir, "config") {
		t.Errorf("XDG_CONFIG_HOME = %q, want under %q", configHome, dir)
	}
	if info, err := os.Stat(configHome); err != nil || !info.IsDir() {
		t.Errorf("config home %s not created: %v", configHome, err)
	}
}

func TestWriteFile(t *testing.T) {
	path := testutil.WriteFile(t, t.TempDir(), "nested/config.yaml", "tool: zbcli\n")
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if string(data) != "tool: zbcli\n" {
		t.Errorf("content = %q", data)
	}
}

func TestReleaseServerServesAssets(t *testing.T) {
	srv := testutil.NewReleaseServer(t, "zymbit-applications", "zb-bin")
	srv.AddRelease("zbcli-1.0.0", false, map[string][]byte{"zbcli-rpi5": []byte("binary")})

	resp, err := http.Get(srv.AssetURL("zbcli-1.0.0", "zbcli-rpi5"))
	if err != nil {
		t.Fatalf("GET asset error = %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode != http.StatusOK || string(body) != "binary" {
		t.Errorf("GET asset = %d %q, want 200 \"binary\"", resp.StatusCode, body)
	}
	if got := srv.Downloads("zbcli-1.0.0", "zbcli-rpi5"); got != 1 {
		t.Errorf("Downloads() = %d, want 1", got)
	}
}
