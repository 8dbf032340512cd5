package release

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/go-github/v52/github"
	"golang.org/x/mod/semver"

	appErrors "github.com/zymbit-applications/zb-install/internal/errors"
	"github.com/zymbit-applications/zb-install/internal/logger"
)

// Latest is the version selector for the newest published release.
const Latest = "latest"

const (
	DefaultPageSize = 100
	DefaultLimit    = 30
)

// Lister reads releases of one tool from a GitHub repository.
type Lister struct {
	client   *github.Client
	owner    string
	repo     string
	prefix   string
	pageSize int
	limit    int
	logger   *slog.Logger
}

// Option configures a Lister.
type Option func(*Lister)

// WithPageSize sets the number of releases requested per page.
func WithPageSize(n int) Option {
	return func(l *Lister) {
		if n > 0 {
			l.pageSize = n
		}
	}
}

// WithLimit sets how many matching releases List collects before stopping.
func WithLimit(n int) Option {
	return func(l *Lister) {
		if n > 0 {
			l.limit = n
		}
	}
}

// WithLogger sets the logger used for tolerated failures and paging detail.
func WithLogger(log *slog.Logger) Option {
	return func(l *Lister) {
		l.logger = log
	}
}

// NewLister returns a Lister for releases of owner/repo tagged "prefix-<version>".
func NewLister(client *github.Client, owner, repo, prefix string, opts ...Option) *Lister {
	l := &Lister{
		client:   client,
		owner:    owner,
		repo:     repo,
		prefix:   prefix,
		pageSize: DefaultPageSize,
		limit:    DefaultLimit,
	}
	for _, opt := range opts {
		opt(l)
	}
	l.logger = logger.OrDiscard(l.logger)
	return l
}

// Prefix returns the tag prefix releases are filtered by.
func (l *Lister) Prefix() string {
	return l.prefix
}

// List returns releases for version. "latest" returns the single release
// the feed reports as latest, any other non-empty version returns the single
// release tagged prefix-version, and an empty version returns up to the
// configured limit of stable releases in feed order.
func (l *Lister) List(ctx context.Context, version string) ([]Release, error) {
	switch version {
	case "":
		return l.listStable(ctx)
	case Latest:
		r, err := l.Latest(ctx)
		if err != nil {
			return nil, err
		}
		return []Release{r}, nil
	default:
		r, err := l.ByVersion(ctx, version)
		if err != nil {
			return nil, err
		}
		return []Release{r}, nil
	}
}

// Latest fetches the release GitHub marks as latest.
func (l *Lister) Latest(ctx context.Context) (Release, error) {
	l.logger.Debug("fetching latest release", "owner", l.owner, "repo", l.repo)
	gr, _, err := l.client.Repositories.GetLatestRelease(ctx, l.owner, l.repo)
	if err != nil {
		return Release{}, classify(ctx, err, "latest release")
	}
	return fromGitHub(gr), nil
}

// ByVersion fetches the release tagged prefix-version. A version that
// already carries the prefix is used unchanged.
func (l *Lister) ByVersion(ctx context.Context, version string) (Release, error) {
	tag := l.Tag(version)
	l.logger.Debug("fetching release by tag", "tag", tag)
	gr, _, err := l.client.Repositories.GetReleaseByTag(ctx, l.owner, l.repo, tag)
	if err != nil {
		return Release{}, classify(ctx, err, fmt.Sprintf("release %s", tag))
	}
	return fromGitHub(gr), nil
}

// Tag returns the release tag for version.
func (l *Lister) Tag(version string) string {
	if strings.HasPrefix(version, l.prefix+"-") {
		return version
	}
	return l.prefix + "-" + version
}

// Matches reports whether r is a stable release of this tool.
func (l *Lister) Matches(r Release) bool {
	version, ok := strings.CutPrefix(r.TagName, l.prefix+"-")
	if !ok || version == "" {
		return false
	}
	return !r.Draft && !r.Prerelease && !IsPrerelease(version)
}

// listStable pages through the feed until the limit is reached, a page adds
// no matches, or the feed runs out.
func (l *Lister) listStable(ctx context.Context) ([]Release, error) {
	var out []Release
	page := 1
	fetched := 0

	for {
		l.logger.Debug("listing releases", "page", page, "per_page", l.pageSize)
		grs, resp, err := l.client.Repositories.ListReleases(ctx, l.owner, l.repo, &github.ListOptions{
			Page:    page,
			PerPage: l.pageSize,
		})
		if err != nil {
			if fetched > 0 && ctx.Err() == nil && isTransient(err) {
				l.logger.Warn("release listing stopped early", "page", page, "error", err)
				return out, nil
			}
			return nil, classify(ctx, err, "list releases")
		}
		fetched++

		if len(grs) == 0 {
			return out, nil
		}

		added := 0
		for _, gr := range grs {
			r := fromGitHub(gr)
			if !l.Matches(r) {
				continue
			}
			out = append(out, r)
			added++
			if len(out) >= l.limit {
				return out, nil
			}
		}

		if added == 0 || resp.NextPage == 0 {
			return out, nil
		}
		page = resp.NextPage
	}
}

// IsPrerelease reports whether a version string denotes a pre-release.
// SemVer versions (with or without a leading "v") are judged by their
// pre-release component; anything else by the presence of a hyphen.
func IsPrerelease(version string) bool {
	v := version
	if !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	if semver.IsValid(v) {
		return semver.Prerelease(v) != ""
	}
	return strings.Contains(version, "-")
}

// isTransient reports whether err happened before an HTTP response was
// received, or is a 5xx from the API.
func isTransient(err error) bool {
	var errResp *github.ErrorResponse
	if errors.As(err, &errResp) {
		return errResp.Response != nil && errResp.Response.StatusCode >= http.StatusInternalServerError
	}
	var rateErr *github.RateLimitError
	var abuseErr *github.AbuseRateLimitError
	return !errors.As(err, &rateErr) && !errors.As(err, &abuseErr)
}

func classify(ctx context.Context, err error, what string) error {
	if ctx.Err() != nil {
		return fmt.Errorf("%s: %w", what, ctx.Err())
	}
	var errResp *github.ErrorResponse
	if errors.As(err, &errResp) && errResp.Response != nil && errResp.Response.StatusCode == http.StatusNotFound {
		return appErrors.New(appErrors.CodeNotFound, fmt.Sprintf("%s not found", what), nil)
	}
	return appErrors.New(appErrors.CodeNetwork, what, err)
}
