// Package release lists zbcli releases from a GitHub release feed and
// resolves the asset to download for a platform.
package release

import (
	"strings"
	"time"

	"github.com/google/go-github/v52/github"
)

// Asset is a downloadable file attached to a release.
type Asset struct {
	ID          int64
	Name        string
	DownloadURL string
	Size        int64
}

// Release is a published release and its assets, in feed order.
type Release struct {
	TagName     string
	Name        string
	Body        string // release notes, markdown
	Prerelease  bool
	Draft       bool
	PublishedAt time.Time
	Assets      []Asset
}

// Version returns the tag with "prefix-" removed, or the whole tag when it
// does not carry the prefix.
func (r Release) Version(prefix string) string {
	if v, ok := strings.CutPrefix(r.TagName, prefix+"-"); ok {
		return v
	}
	return r.TagName
}

// Title returns the release name, falling back to the tag.
func (r Release) Title() string {
	if r.Name != "" {
		return r.Name
	}
	return r.TagName
}

func fromGitHub(gr *github.RepositoryRelease) Release {
	r := Release{
		TagName:    gr.GetTagName(),
		Name:       gr.GetName(),
		Body:       gr.GetBody(),
		Prerelease: gr.GetPrerelease(),
		Draft:      gr.GetDraft(),
	}
	if gr.PublishedAt != nil {
		r.PublishedAt = gr.PublishedAt.Time
	}
	for _, ga := range gr.Assets {
		r.Assets = append(r.Assets, Asset{
			ID:          ga.GetID(),
			Name:        ga.GetName(),
			DownloadURL: ga.GetBrowserDownloadURL(),
			Size:        int64(ga.GetSize()),
		})
	}
	return r
}
