// Package hostenv inspects the mount table to catch install directories
// whose filesystem would refuse to execute the installed binary.
package hostenv

import (
	"os"
	"path/filepath"
	"strings"
)

// Mount is one entry of the mount table.
type Mount struct {
	Point   string
	Options []string
}

// Has reports whether the mount carries option opt.
func (m Mount) Has(opt string) bool {
	for _, o := range m.Options {
		if o == opt {
			return true
		}
	}
	return false
}

// Prober reads the mount table from procfs.
type Prober struct {
	MountInfoPath string // /proc/self/mountinfo
	MountsPath    string // /proc/mounts, used when mountinfo is unreadable
}

// DefaultProber reads the live procfs tables.
var DefaultProber = Prober{
	MountInfoPath: "/proc/self/mountinfo",
	MountsPath:    "/proc/mounts",
}

// Mounts returns the parsed mount table, or nil when neither file can be read.
func (p Prober) Mounts() []Mount {
	if data, err := os.ReadFile(p.MountInfoPath); err == nil {
		if mounts := ParseMountInfo(string(data)); len(mounts) > 0 {
			return mounts
		}
	}
	if data, err := os.ReadFile(p.MountsPath); err == nil {
		return ParseProcMounts(string(data))
	}
	return nil
}

// NoExec reports whether path lives on a noexec mount, along with the mount
// point responsible. Lookup is best effort: an unreadable table reports false.
func (p Prober) NoExec(path string) (string, bool) {
	m, ok := MountFor(path, p.Mounts())
	if !ok {
		return "", false
	}
	return m.Point, m.Has("noexec")
}

// MountFor returns the mount holding path, i.e. the entry with the longest
// mount point that is a path prefix of it.
func MountFor(path string, mounts []Mount) (Mount, bool) {
	path = filepath.ToSlash(filepath.Clean(path))
	if path == "." || path == "" {
		return Mount{}, false
	}

	var best Mount
	found := false
	for _, m := range mounts {
		point := filepath.ToSlash(filepath.Clean(m.Point))
		if !under(path, point) {
			continue
		}
		// later entries shadow earlier ones mounted on the same point
		if !found || len(point) >= len(best.Point) {
			best = Mount{Point: point, Options: m.Options}
			found = true
		}
	}
	return best, found
}

func under(path, point string) bool {
	switch {
	case point == "/":
		return strings.HasPrefix(path, "/")
	case path == point:
		return true
	default:
		return strings.HasPrefix(path, point+"/")
	}
}

// ParseMountInfo parses /proc/self/mountinfo. Per-mount options (field 6)
// and superblock options (third field after the "-" separator) are merged.
func ParseMountInfo(content string) []Mount {
	var out []Mount
	for _, line := range strings.Split(content, "\n") {
		fields := strings.Fields(line)
		if len(fields) < 6 {
			continue
		}
		sep := -1
		for i := 6; i < len(fields); i++ {
			if fields[i] == "-" {
				sep = i
				break
			}
		}
		if sep < 0 {
			continue
		}

		opts := splitOptions(fields[5])
		if sep+3 < len(fields) {
			opts = append(opts, splitOptions(fields[sep+3])...)
		}
		out = append(out, Mount{Point: unescape(fields[4]), Options: opts})
	}
	return out
}

// ParseProcMounts parses the fstab-style /proc/mounts.
func ParseProcMounts(content string) []Mount {
	var out []Mount
	for _, line := range strings.Split(content, "\n") {
		fields := strings.Fields(line)
		if len(fields) < 4 {
			continue
		}
		out = append(out, Mount{Point: unescape(fields[1]), Options: splitOptions(fields[3])})
	}
	return out
}

func splitOptions(s string) []string {
	var opts []string
	for _, o := range strings.Split(s, ",") {
		if o = strings.TrimSpace(o); o != "" {
			opts = append(opts, o)
		}
	}
	return opts
}

// procfs escapes whitespace and backslashes as octal sequences
var mountPathReplacer = strings.NewReplacer(
	`\040`, " ",
	`\011`, "\t",
	`\012`, "\n",
	`\134`, `\`,
)

func unescape(s string) string {
	return mountPathReplacer.Replace(s)
}
