// Package assets maps a board and signing mode to the release asset name
// published for it.
//
// The mapping is data, not code: a default table is embedded in the binary
// and can be replaced by a YAML file or a sandboxed Lua script.
package assets

import (
	"context"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	appErrors "github.com/zymbit-applications/zb-install/internal/errors"
	"github.com/zymbit-applications/zb-install/internal/platform"
)

//go:embed default.yaml
var defaultTable []byte

// SigningMode selects between the software-signing and hardware-signing builds.
type SigningMode string

const (
	Software SigningMode = "software"
	Hardware SigningMode = "hardware"
)

// ModeFor returns Hardware when hardware is true, Software otherwise.
func ModeFor(hardware bool) SigningMode {
	if hardware {
		return Hardware
	}
	return Software
}

// Names holds the asset names for one board.
type Names struct {
	Software string `yaml:"software"`
	Hardware string `yaml:"hardware"`
}

// Table maps board tags to asset names.
type Table struct {
	entries map[platform.Tag]Names
}

// Default returns the embedded table.
func Default() *Table {
	t, err := ParseYAML(defaultTable)
	if err != nil {
		panic(fmt.Sprintf("embedded asset table is invalid: %v", err))
	}
	return t
}

// Load reads a table from path. The format is chosen by extension:
// .yaml and .yml are parsed as YAML, .lua is run in a sandboxed VM with
// info exposed as the read-only platform global.
func Load(ctx context.Context, path string, info *platform.Info) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, appErrors.New(appErrors.CodeConfiguration, fmt.Sprintf("read asset table %s", path), err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return ParseYAML(data)
	case ".lua":
		return ParseLua(ctx, string(data), info)
	default:
		return nil, appErrors.New(appErrors.CodeConfiguration,
			fmt.Sprintf("unsupported asset table format %q (want .yaml, .yml or .lua)", filepath.Ext(path)), nil)
	}
}

// ParseYAML parses a YAML asset table.
func ParseYAML(data []byte) (*Table, error) {
	raw := map[string]Names{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, appErrors.New(appErrors.CodeConfiguration, "parse asset table", err)
	}
	return newTable(raw)
}

func newTable(raw map[string]Names) (*Table, error) {
	t := &Table{entries: make(map[platform.Tag]Names, len(raw))}
	for key, names := range raw {
		tag := platform.Tag(key)
		if !isKnownTag(tag) {
			return nil, appErrors.New(appErrors.CodeConfiguration,
				fmt.Sprintf("asset table: unknown board %q", key), nil)
		}
		t.entries[tag] = Names{
			Software: strings.TrimSpace(names.Software),
			Hardware: strings.TrimSpace(names.Hardware),
		}
	}
	return t, nil
}

func isKnownTag(tag platform.Tag) bool {
	for _, known := range platform.AllTags() {
		if tag == known {
			return true
		}
	}
	return false
}

// Lookup returns the asset name for the board and signing mode.
func (t *Table) Lookup(tag platform.Tag, mode SigningMode) (string, error) {
	names, ok := t.entries[tag]
	if !ok {
		known := make([]string, 0, len(t.entries))
		for _, k := range t.Tags() {
			known = append(known, k.String())
		}
		return "", appErrors.New(appErrors.CodeAssetNotFound,
			fmt.Sprintf("the asset table has no entry for %s (boards: %s)", tag.DisplayName(), strings.Join(known, ", ")), nil)
	}
	var name string
	switch mode {
	case Software:
		name = names.Software
	case Hardware:
		name = names.Hardware
	}
	if name == "" {
		return "", appErrors.New(appErrors.CodeAssetNotFound,
			fmt.Sprintf("no %s-signing asset is published for %s", mode, tag.DisplayName()), nil)
	}
	return name, nil
}

// Tags returns the boards present in the table, sorted.
func (t *Table) Tags() []platform.Tag {
	tags := make([]platform.Tag, 0, len(t.entries))
	for tag := range t.entries {
		tags = append(tags, tag)
	}
	sort.Slice(tags, func(i, j int) bool { return tags[i] < tags[j] })
	return tags
}
