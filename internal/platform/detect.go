package platform

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"

	"github.com/shirou/gopsutil/v4/host"

	appErrors "github.com/zymbit-applications/zb-install/internal/errors"
	"github.com/zymbit-applications/zb-install/internal/logger"
)

const (
	// DefaultModelPath is the devicetree node holding the board model string.
	DefaultModelPath = "/sys/firmware/devicetree/base/model"
	// DefaultModuleGlob matches the device nodes of a Secure Compute Module.
	DefaultModuleGlob = "/dev/zscm*"
)

// OSInfoFunc returns the distro ID, family and version of the host.
// It has the shape of gopsutil's host.PlatformInformationWithContext.
type OSInfoFunc func(ctx context.Context) (platform, family, version string, err error)

// RealDetector implements Detector against the local filesystem.
type RealDetector struct {
	modelPath  string
	moduleGlob string
	osInfo     OSInfoFunc
	override   Tag
	logger     *slog.Logger
}

// Option configures a RealDetector.
type Option func(*RealDetector)

// WithModelPath reads the board model from path instead of the devicetree.
func WithModelPath(path string) Option {
	return func(d *RealDetector) {
		d.modelPath = path
	}
}

// WithModuleGlob changes the device-node pattern used to find an SCM.
func WithModuleGlob(pattern string) Option {
	return func(d *RealDetector) {
		d.moduleGlob = pattern
	}
}

// WithOSInfo replaces the os-release lookup.
func WithOSInfo(fn OSInfoFunc) Option {
	return func(d *RealDetector) {
		d.osInfo = fn
	}
}

// WithOverride skips board detection and reports tag instead.
func WithOverride(tag Tag) Option {
	return func(d *RealDetector) {
		d.override = tag
	}
}

// WithLogger sets the logger used for non-fatal detection problems.
func WithLogger(l *slog.Logger) Option {
	return func(d *RealDetector) {
		d.logger = l
	}
}

// NewDetector creates a new platform detector.
func NewDetector(opts ...Option) Detector {
	d := &RealDetector{
		modelPath:  DefaultModelPath,
		moduleGlob: DefaultModuleGlob,
		osInfo:     host.PlatformInformationWithContext,
	}
	for _, opt := range opts {
		opt(d)
	}
	d.logger = logger.OrDiscard(d.logger)
	return d
}

// Detect performs platform detection.
//
// The board tag is mandatory: an unreadable or unrecognised devicetree model
// fails with CodeUnsupportedPlatform unless an override was configured. OS
// detection falls back to OSUnknown, since the installed binary does not
// depend on it.
func (d *RealDetector) Detect(ctx context.Context) (*Info, error) {
	info := &Info{
		Arch: runtime.GOARCH,
		OS:   OSUnknown,
	}

	distro, _, version, err := d.osInfo(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("platform detection cancelled: %w", ctx.Err())
		}
		d.logger.Warn("unable to determine OS type", "error", err)
	} else {
		info.Distro = normalizePlatform(distro)
		info.DistroVersion = normalizePlatform(version)
		info.OS = osFromRelease(info.Distro, info.DistroVersion)
		if info.OS == OSUnknown {
			d.logger.Warn("unsupported OS platform; only the official RPi Debian and Ubuntu releases are supported",
				"distro", info.Distro, "version", info.DistroVersion)
		}
	}

	if d.override != "" {
		info.Tag = d.override
		info.Overridden = true
		d.logger.Debug("board detection overridden", "tag", d.override)
	} else {
		tag, model, err := d.detectTag()
		if err != nil {
			return nil, err
		}
		info.Tag = tag
		info.Model = model
	}

	module, err := d.detectModule()
	if err != nil {
		return nil, err
	}
	info.Module = module

	return info, nil
}

func (d *RealDetector) detectTag() (Tag, string, error) {
	data, err := os.ReadFile(d.modelPath)
	if err != nil {
		return "", "", appErrors.New(appErrors.CodeUnsupportedPlatform,
			"unable to retrieve host platform information from devicetree (hint: set the --rpi-model flag)", err)
	}
	model := normalizeModel(string(data))
	tag, ok := TagFromModel(model)
	if !ok {
		return "", model, appErrors.New(appErrors.CodeUnsupportedPlatform,
			fmt.Sprintf("unknown host platform in devicetree: %q (hint: set the --rpi-model flag)", model), nil)
	}
	return tag, model, nil
}

// TODO: probe the module through the zymkey C API once it exposes HSM6 detection.
func (d *RealDetector) detectModule() (Module, error) {
	matches, err := filepath.Glob(d.moduleGlob)
	if err != nil {
		return "", appErrors.New(appErrors.CodeConfiguration,
			fmt.Sprintf("check %q", d.moduleGlob), err)
	}
	if len(matches) > 0 {
		return ModuleSCM, nil
	}
	return ModuleZymkey, nil
}
