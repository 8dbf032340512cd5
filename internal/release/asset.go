package release

import (
	"fmt"

	appErrors "github.com/zymbit-applications/zb-install/internal/errors"
)

// FindAsset returns the first asset of r named exactly name.
func FindAsset(r Release, name string) (Asset, error) {
	for _, a := range r.Assets {
		if a.Name == name {
			return a, nil
		}
	}
	return Asset{}, appErrors.New(appErrors.CodeAssetNotFound,
		fmt.Sprintf("release %s has no asset named %q", r.TagName, name), nil)
}

// WithAsset returns the releases that publish an asset named name,
// preserving order.
func WithAsset(releases []Release, name string) []Release {
	var out []Release
	for _, r := range releases {
		if _, err := FindAsset(r, name); err == nil {
			out = append(out, r)
		}
	}
	return out
}

// Sidecar returns the asset named name+suffix, if r publishes one.
func Sidecar(r Release, name, suffix string) (Asset, bool) {
	a, err := FindAsset(r, name+suffix)
	return a, err == nil
}
