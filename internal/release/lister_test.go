package release

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"

	"github.com/google/go-github/v52/github"

	appErrors "github.com/zymbit-applications/zb-install/internal/errors"
)

const (
	testOwner = "zymbit-applications"
	testRepo  = "zb-bin"
)

// fakeFeed serves a release list the way the GitHub API does,
// paginated with Link headers.
type fakeFeed struct {
	releases []*github.RepositoryRelease
	latest   *github.RepositoryRelease
	failPage int // page that drops the connection, 0 for none
	failCode int // page failPage answers with this status instead, when set

	mu        sync.Mutex
	pageCalls []int
}

func (f *fakeFeed) pages() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return fmt.Sprint(f.pageCalls)
}

func ghRelease(tag string, opts ...func(*github.RepositoryRelease)) *github.RepositoryRelease {
	r := &github.RepositoryRelease{
		TagName:    github.String(tag),
		Name:       github.String(tag),
		Prerelease: github.Bool(false),
		Draft:      github.Bool(false),
		Assets: []*github.ReleaseAsset{
			{
				ID:                 github.Int64(1),
				Name:               github.String("zbcli-rpi5"),
				BrowserDownloadURL: github.String("https://example.invalid/" + tag + "/zbcli-rpi5"),
				Size:               github.Int(4),
			},
		},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func prerelease(r *github.RepositoryRelease) { r.Prerelease = github.Bool(true) }
func draft(r *github.RepositoryRelease)      { r.Draft = github.Bool(true) }

func (f *fakeFeed) handler(t *testing.T) http.Handler {
	t.Helper()
	base := fmt.Sprintf("/repos/%s/%s/releases", testOwner, testRepo)
	mux := http.NewServeMux()

	mux.HandleFunc("GET "+base, func(w http.ResponseWriter, r *http.Request) {
		page, _ := strconv.Atoi(r.URL.Query().Get("page"))
		if page == 0 {
			page = 1
		}
		perPage, _ := strconv.Atoi(r.URL.Query().Get("per_page"))
		if perPage == 0 {
			perPage = 30
		}
		f.mu.Lock()
		f.pageCalls = append(f.pageCalls, page)
		f.mu.Unlock()

		if page == f.failPage {
			if f.failCode != 0 {
				http.Error(w, `{"message":"boom"}`, f.failCode)
				return
			}
			hj, ok := w.(http.Hijacker)
			if !ok {
				t.Fatal("response writer does not support hijacking")
			}
			conn, _, _ := hj.Hijack()
			conn.Close()
			return
		}

		start := (page - 1) * perPage
		end := start + perPage
		if start > len(f.releases) {
			start = len(f.releases)
		}
		if end > len(f.releases) {
			end = len(f.releases)
		}
		if end < len(f.releases) {
			w.Header().Set("Link", fmt.Sprintf(`<http://%s%s?page=%d&per_page=%d>; rel="next"`, r.Host, base, page+1, perPage))
		}
		writeJSON(t, w, f.releases[start:end])
	})

	mux.HandleFunc("GET "+base+"/latest", func(w http.ResponseWriter, r *http.Request) {
		if f.latest == nil {
			http.Error(w, `{"message":"Not Found"}`, http.StatusNotFound)
			return
		}
		writeJSON(t, w, f.latest)
	})

	mux.HandleFunc("GET "+base+"/tags/{tag}", func(w http.ResponseWriter, r *http.Request) {
		tag := r.PathValue("tag")
		for _, rel := range f.releases {
			if rel.GetTagName() == tag {
				writeJSON(t, w, rel)
				return
			}
		}
		http.Error(w, `{"message":"Not Found"}`, http.StatusNotFound)
	})

	return mux
}

func writeJSON(t *testing.T, w http.ResponseWriter, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		t.Errorf("encode response: %v", err)
	}
}

func newTestLister(t *testing.T, feed *fakeFeed, opts ...Option) *Lister {
	t.Helper()
	srv := httptest.NewServer(feed.handler(t))
	t.Cleanup(srv.Close)

	client, err := NewClient(srv.Client(), srv.URL)
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	return NewLister(client, testOwner, testRepo, "zbcli", opts...)
}

func tags(releases []Release) []string {
	out := make([]string, len(releases))
	for i, r := range releases {
		out[i] = r.TagName
	}
	return out
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestListFiltersPrefixAndPrereleases(t *testing.T) {
	feed := &fakeFeed{releases: []*github.RepositoryRelease{
		ghRelease("zbcli-1.2.0"),
		ghRelease("zbcli-1.2.0-rc.2"),
		ghRelease("zbcli-1.1.5", prerelease),
		ghRelease("zbcli-1.1.4", draft),
		ghRelease("zbcliextra-1.0.0"),
		ghRelease("other-1.0.0"),
		ghRelease("zbcli-1.1.0"),
		ghRelease("zbcli-nightly-2024"),
		ghRelease("zbcli-"),
	}}
	lister := newTestLister(t, feed)

	got, err := lister.List(context.Background(), "")
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}

	want := []string{"zbcli-1.2.0", "zbcli-1.1.0"}
	if !equalStrings(tags(got), want) {
		t.Errorf("List() tags = %v, want %v", tags(got), want)
	}
}

// Feed with zbcli-1.0.0 and zbcli-1.1.0-rc.1 and no version requested.
func TestListEndToEndStableOnly(t *testing.T) {
	feed := &fakeFeed{releases: []*github.RepositoryRelease{
		ghRelease("zbcli-1.1.0-rc.1"),
		ghRelease("zbcli-1.0.0"),
	}}
	lister := newTestLister(t, feed)

	got, err := lister.List(context.Background(), "")
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if !equalStrings(tags(got), []string{"zbcli-1.0.0"}) {
		t.Errorf("List() tags = %v, want [zbcli-1.0.0]", tags(got))
	}
}

func TestListExplicitVersion(t *testing.T) {
	feed := &fakeFeed{releases: []*github.RepositoryRelease{
		ghRelease("zbcli-1.1.0-rc.1"),
		ghRelease("zbcli-1.0.0"),
	}}
	lister := newTestLister(t, feed)

	tests := []struct {
		name    string
		version string
		want    string
	}{
		{"bare version", "1.0.0", "zbcli-1.0.0"},
		{"already prefixed", "zbcli-1.0.0", "zbcli-1.0.0"},
		{"explicit prerelease", "1.1.0-rc.1", "zbcli-1.1.0-rc.1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := lister.List(context.Background(), tt.version)
			if err != nil {
				t.Fatalf("List(%q) error = %v", tt.version, err)
			}
			if len(got) != 1 || got[0].TagName != tt.want {
				t.Errorf("List(%q) = %v, want [%s]", tt.version, tags(got), tt.want)
			}
		})
	}
}

func TestListExplicitVersionNotFound(t *testing.T) {
	lister := newTestLister(t, &fakeFeed{releases: []*github.RepositoryRelease{ghRelease("zbcli-1.0.0")}})

	_, err := lister.List(context.Background(), "9.9.9")
	if !appErrors.IsCode(err, appErrors.CodeNotFound) {
		t.Errorf("List() error = %v, want not_found", err)
	}
}

func TestListLatest(t *testing.T) {
	latest := ghRelease("zbcli-1.2.0", func(r *github.RepositoryRelease) {
		r.Body = github.String("## Changes\n- faster signing")
	})
	lister := newTestLister(t, &fakeFeed{
		releases: []*github.RepositoryRelease{latest, ghRelease("zbcli-1.1.0")},
		latest:   latest,
	})

	got, err := lister.List(context.Background(), Latest)
	if err != nil {
		t.Fatalf("List(latest) error = %v", err)
	}
	direct, err := lister.Latest(context.Background())
	if err != nil {
		t.Fatalf("Latest() error = %v", err)
	}

	if len(got) != 1 {
		t.Fatalf("List(latest) returned %d releases, want 1", len(got))
	}
	if got[0].TagName != direct.TagName || got[0].Body != direct.Body || len(got[0].Assets) != len(direct.Assets) {
		t.Errorf("List(latest) = %+v, want %+v", got[0], direct)
	}
}

func TestListLatestNotFound(t *testing.T) {
	lister := newTestLister(t, &fakeFeed{})

	_, err := lister.List(context.Background(), Latest)
	if !appErrors.IsCode(err, appErrors.CodeNotFound) {
		t.Errorf("List(latest) error = %v, want not_found", err)
	}
}

func TestListPagination(t *testing.T) {
	var releases []*github.RepositoryRelease
	for i := 10; i > 0; i-- {
		releases = append(releases, ghRelease(fmt.Sprintf("zbcli-1.%d.0", i)))
	}

	tests := []struct {
		name      string
		pageSize  int
		limit     int
		wantCount int
		wantPages []int
	}{
		{"stops at limit", 3, 4, 4, []int{1, 2}},
		{"exhausts feed", 4, 30, 10, []int{1, 2, 3}},
		{"single page", 100, 30, 10, []int{1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			feed := &fakeFeed{releases: releases}
			lister := newTestLister(t, feed, WithPageSize(tt.pageSize), WithLimit(tt.limit))

			got, err := lister.List(context.Background(), "")
			if err != nil {
				t.Fatalf("List() error = %v", err)
			}
			if len(got) != tt.wantCount {
				t.Errorf("List() returned %d releases, want %d", len(got), tt.wantCount)
			}
			if got := feed.pages(); got != fmt.Sprint(tt.wantPages) {
				t.Errorf("pages fetched = %v, want %v", got, tt.wantPages)
			}
		})
	}
}

func TestListStopsOnPageWithoutMatches(t *testing.T) {
	feed := &fakeFeed{releases: []*github.RepositoryRelease{
		ghRelease("zbcli-1.1.0"),
		ghRelease("zbcli-1.0.0"),
		ghRelease("other-2.0.0"),
		ghRelease("other-1.0.0"),
		ghRelease("zbcli-0.9.0"),
	}}
	lister := newTestLister(t, feed, WithPageSize(2))

	got, err := lister.List(context.Background(), "")
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if !equalStrings(tags(got), []string{"zbcli-1.1.0", "zbcli-1.0.0"}) {
		t.Errorf("List() tags = %v", tags(got))
	}
	if got := feed.pages(); got != "[1 2]" {
		t.Errorf("pages fetched = %v, want [1 2]", got)
	}
}

func TestListToleratesLaterPageFailure(t *testing.T) {
	tests := []struct {
		name     string
		failCode int
	}{
		{"dropped connection", 0},
		{"bad gateway", http.StatusBadGateway},
		{"service unavailable", http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			feed := &fakeFeed{
				releases: []*github.RepositoryRelease{
					ghRelease("zbcli-1.2.0"),
					ghRelease("zbcli-1.1.0"),
					ghRelease("zbcli-1.0.0"),
				},
				failPage: 2,
				failCode: tt.failCode,
			}
			lister := newTestLister(t, feed, WithPageSize(2))

			got, err := lister.List(context.Background(), "")
			if err != nil {
				t.Fatalf("List() error = %v, want partial result", err)
			}
			if !equalStrings(tags(got), []string{"zbcli-1.2.0", "zbcli-1.1.0"}) {
				t.Errorf("List() tags = %v", tags(got))
			}
		})
	}
}

func TestListErrors(t *testing.T) {
	releases := []*github.RepositoryRelease{
		ghRelease("zbcli-1.2.0"),
		ghRelease("zbcli-1.1.0"),
		ghRelease("zbcli-1.0.0"),
	}

	tests := []struct {
		name     string
		failPage int
		failCode int
	}{
		{"first page transport failure", 1, 0},
		{"first page server error", 1, http.StatusInternalServerError},
		{"later page client error", 2, http.StatusUnprocessableEntity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			feed := &fakeFeed{releases: releases, failPage: tt.failPage, failCode: tt.failCode}
			lister := newTestLister(t, feed, WithPageSize(2))

			_, err := lister.List(context.Background(), "")
			if !appErrors.IsCode(err, appErrors.CodeNetwork) {
				t.Errorf("List() error = %v, want network", err)
			}
		})
	}
}

func TestIsPrerelease(t *testing.T) {
	tests := []struct {
		version string
		want    bool
	}{
		{"1.0.0", false},
		{"v1.0.0", false},
		{"1.0", false},
		{"1.0.0+build.5", false},
		{"1.1.0-rc.1", true},
		{"2.0.0-beta", true},
		{"nightly-2024", true},
		{"2024.05.01", false},
	}

	for _, tt := range tests {
		t.Run(tt.version, func(t *testing.T) {
			if got := IsPrerelease(tt.version); got != tt.want {
				t.Errorf("IsPrerelease(%q) = %v, want %v", tt.version, got, tt.want)
			}
		})
	}
}

func TestNewClientAPIURL(t *testing.T) {
	tests := []struct {
		name    string
		apiURL  string
		want    string
		wantErr bool
	}{
		{"default", "", "https://api.github.com/", false},
		{"adds trailing slash", "https://ghe.example.com/api/v3", "https://ghe.example.com/api/v3/", false},
		{"not a url", "ghe.example.com", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := NewClient(nil, tt.apiURL)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewClient() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				if !appErrors.IsCode(err, appErrors.CodeConfiguration) {
					t.Errorf("error code = %v, want configuration", appErrors.CodeOf(err))
				}
				return
			}
			if got := client.BaseURL.String(); got != tt.want {
				t.Errorf("BaseURL = %q, want %q", got, tt.want)
			}
		})
	}
}
