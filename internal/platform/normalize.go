package platform

import (
	"fmt"
	"strings"

	appErrors "github.com/zymbit-applications/zb-install/internal/errors"
)

// modelRule maps a devicetree model substring to a tag.
type modelRule struct {
	substr string
	tag    Tag
}

// modelRules are checked in order; the first match wins.
var modelRules = []modelRule{
	{"Raspberry Pi 5", TagRpi5},
	{"Compute Module 5", TagRpi5},
	{"Raspberry Pi 4", TagRpi4},
	{"Compute Module 4", TagRpi4},
	{"Pi Zero 2 W", TagRpi0},
}

// overrideAliases maps accepted --rpi-model values to tags.
var overrideAliases = map[string]Tag{
	"rpi0":       TagRpi0,
	"zero2w":     TagRpi0,
	"rpi-zero2w": TagRpi0,
	"rpi4":       TagRpi4,
	"cm4":        TagRpi4,
	"rpi5":       TagRpi5,
	"cm5":        TagRpi5,
}

// TagFromModel maps a devicetree model string to a tag.
func TagFromModel(model string) (Tag, bool) {
	model = normalizeModel(model)
	for _, rule := range modelRules {
		if strings.Contains(model, rule.substr) {
			return rule.tag, true
		}
	}
	return "", false
}

// ParseTag parses an --rpi-model override value. Matching is case-insensitive.
func ParseTag(s string) (Tag, error) {
	if tag, ok := overrideAliases[normalizePlatform(s)]; ok {
		return tag, nil
	}
	return "", appErrors.New(appErrors.CodeConfiguration,
		fmt.Sprintf("unknown rpi model %q (expected one of rpi0, zero2w, rpi4, cm4, rpi5, cm5)", s), nil)
}

// normalizeModel strips the NUL terminator and whitespace devicetree strings carry.
func normalizeModel(model string) string {
	return strings.TrimSpace(strings.TrimRight(model, "\x00"))
}

// normalizePlatform converts platform IDs to lowercase for consistency.
func normalizePlatform(platform string) string {
	return strings.ToLower(strings.TrimSpace(platform))
}

// osFromRelease maps an os-release ID and version to an OperatingSystem.
// The version may be numeric ("12.5") or a codename ("bookworm").
func osFromRelease(distro, version string) OperatingSystem {
	switch distro {
	case "ubuntu":
		return OSUbuntu
	case "debian", "raspbian":
		major, _, _ := strings.Cut(version, ".")
		switch {
		case major == "12" || strings.Contains(version, "bookworm"):
			return OSBookworm
		case major == "11" || strings.Contains(version, "bullseye"):
			return OSBullseye
		}
	}
	return OSUnknown
}
