package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/google/go-github/v52/github"
)

// ReleaseServer is an in-process stand-in for the GitHub releases API of a
// single repository. Asset downloads are served by the same server.
type ReleaseServer struct {
	*httptest.Server
	Owner string
	Repo  string

	mu        sync.Mutex
	releases  []*github.RepositoryRelease // feed order, newest first
	files     map[string][]byte
	downloads map[string]int
}

// NewReleaseServer starts a server for owner/repo, closed when the test ends.
func NewReleaseServer(t *testing.T, owner, repo string) *ReleaseServer {
	t.Helper()
	s := &ReleaseServer{
		Owner:     owner,
		Repo:      repo,
		files:     map[string][]byte{},
		downloads: map[string]int{},
	}

	base := fmt.Sprintf("/repos/%s/%s/releases", owner, repo)
	mux := http.NewServeMux()
	mux.HandleFunc("GET "+base, func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		defer s.mu.Unlock()
		writeJSON(t, w, s.releases)
	})
	mux.HandleFunc("GET "+base+"/latest", func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		defer s.mu.Unlock()
		for _, rel := range s.releases {
			if !rel.GetPrerelease() && !rel.GetDraft() {
				writeJSON(t, w, rel)
				return
			}
		}
		http.Error(w, `{"message":"Not Found"}`, http.StatusNotFound)
	})
	mux.HandleFunc("GET "+base+"/tags/{tag}", func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		defer s.mu.Unlock()
		for _, rel := range s.releases {
			if rel.GetTagName() == r.PathValue("tag") {
				writeJSON(t, w, rel)
				return
			}
		}
		http.Error(w, `{"message":"Not Found"}`, http.StatusNotFound)
	})
	mux.HandleFunc("GET /download/{tag}/{name}", func(w http.ResponseWriter, r *http.Request) {
		key := r.PathValue("tag") + "/" + r.PathValue("name")
		s.mu.Lock()
		data, ok := s.files[key]
		if ok {
			s.downloads[key]++
		}
		s.mu.Unlock()
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/octet-stream")
		_, _ = w.Write(data)
	})

	s.Server = httptest.NewServer(mux)
	t.Cleanup(s.Close)
	return s
}

// AddRelease appends a release with the given assets to the feed.
func (s *ReleaseServer) AddRelease(tag string, prerelease bool, assets map[string][]byte) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rel := &github.RepositoryRelease{
		TagName:    github.String(tag),
		Name:       github.String(tag),
		Body:       github.String("Release notes for " + tag),
		Prerelease: github.Bool(prerelease),
		Draft:      github.Bool(false),
	}
	id := int64(len(s.files) + 1)
	for name, data := range assets {
		s.files[tag+"/"+name] = data
		rel.Assets = append(rel.Assets, &github.ReleaseAsset{
			ID:                 github.Int64(id),
			Name:               github.String(name),
			BrowserDownloadURL: github.String(s.AssetURL(tag, name)),
			Size:               github.Int(len(data)),
		})
		id++
	}
	s.releases = append(s.releases, rel)
}

// AssetURL returns the download URL of a release asset.
func (s *ReleaseServer) AssetURL(tag, name string) string {
	return fmt.Sprintf("%s/download/%s/%s", s.URL, tag, name)
}

// Downloads returns how many times an asset was downloaded.
func (s *ReleaseServer) Downloads(tag, name string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.downloads[tag+"/"+name]
}

func writeJSON(t *testing.T, w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		t.Errorf("encode response: %v", err)
	}
}
