package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/zymbit-applications/zb-install/internal/assets"
	"github.com/zymbit-applications/zb-install/internal/binary"
	"github.com/zymbit-applications/zb-install/internal/config"
	appErrors "github.com/zymbit-applications/zb-install/internal/errors"
	"github.com/zymbit-applications/zb-install/internal/hostenv"
	"github.com/zymbit-applications/zb-install/internal/logger"
	"github.com/zymbit-applications/zb-install/internal/platform"
	"github.com/zymbit-applications/zb-install/internal/release"
)

// app carries the collaborators of one run. Tests replace the prompter
// and point the remaining fields at fakes.
type app struct {
	out      *output
	prompter Prompter

	configOpts   config.Options
	detectorOpts []platform.Option
	// httpClient, when set, serves both API calls and downloads.
	httpClient *http.Client
	prober     *hostenv.Prober
}

func newApp(stdin, stdout, stderr *os.File) *app {
	interactive := term.IsTerminal(int(stderr.Fd()))
	return &app{
		out:      newOutput(stdout, stderr, interactive),
		prompter: newHuhPrompter(stdin),
	}
}

// install runs detect, choose, download and write, in that order.
func (a *app) install(ctx context.Context, cmd *cobra.Command, opts options) error {
	cfgOpts := a.configOpts
	cfgOpts.ConfigFile = opts.configFile
	cfgOpts.Flags = cmd.Flags()
	settings, err := config.Load(cfgOpts)
	if err != nil {
		return err
	}
	log := logger.New(a.out.stderr, logger.Options{Verbose: settings.Verbose})
	if len(settings.Findings) > 0 {
		a.out.Warn(config.FormatSensitiveDataWarning(settings.File, settings.Findings))
	}
	log.Debug("configuration loaded", "file", settings.File, "repo", settings.Owner+"/"+settings.Repo)

	info, err := a.detect(ctx, opts, log)
	if err != nil {
		return err
	}
	a.out.Summary(info)

	hardware, err := a.signingMode(opts)
	if err != nil {
		return err
	}
	assetName, err := a.assetName(ctx, settings, info, assets.ModeFor(hardware))
	if err != nil {
		return err
	}
	log.Debug("resolved asset name", "asset", assetName, "tag", info.Tag)

	inst, err := binary.NewInstaller(binary.Config{
		InstallDir:      settings.InstallDir,
		Tool:            settings.Tool,
		HTTPClient:      a.downloadClient(ctx),
		KeyringPath:     settings.Keyring,
		MinisignKeyPath: settings.MinisignKey,
		Prober:          a.prober,
		Logger:          log,
	})
	if err != nil {
		return err
	}

	lister, err := a.lister(ctx, settings, log)
	if err != nil {
		return err
	}
	stop := a.out.Spin("Fetching releases...")
	releases, err := lister.List(ctx, opts.version)
	stop()
	if err != nil {
		return err
	}

	rel, err := a.selectRelease(releases, assetName, lister.Prefix(), opts.version)
	if err != nil {
		return err
	}
	asset, err := release.FindAsset(rel, assetName)
	if err != nil {
		return err
	}
	if opts.showNotes {
		a.out.Notes(rel)
	}

	if current, err := inst.InstalledVersion(ctx); err != nil {
		log.Debug("could not determine installed version", "path", inst.Target(), "error", err)
	} else if current != "" {
		a.out.Replacing(settings.Tool, current, inst.Target())
	}

	stop = a.out.Spin(fmt.Sprintf("Installing %s from %s...", asset.Name, rel.TagName))
	res, err := inst.Install(ctx, rel, asset)
	stop()
	if err != nil {
		return err
	}

	a.out.Installed(res, settings.Tool)
	return nil
}

func (a *app) detect(ctx context.Context, opts options, log *slog.Logger) (*platform.Info, error) {
	detectorOpts := append([]platform.Option{platform.WithLogger(log)}, a.detectorOpts...)
	if opts.rpiModel != "" {
		tag, err := platform.ParseTag(opts.rpiModel)
		if err != nil {
			return nil, err
		}
		detectorOpts = append(detectorOpts, platform.WithOverride(tag))
	}
	return platform.NewDetector(detectorOpts...).Detect(ctx)
}

// signingMode reports whether the hardware signing build was chosen,
// asking only when neither flag was given.
func (a *app) signingMode(opts options) (bool, error) {
	switch {
	case opts.hardware:
		return true, nil
	case opts.software:
		return false, nil
	}
	hardware, err := a.prompter.ConfirmHardwareSigning()
	if err != nil {
		return false, fmt.Errorf("failed to get signing option: %w", err)
	}
	return hardware, nil
}

func (a *app) assetName(ctx context.Context, s *config.Settings, info *platform.Info, mode assets.SigningMode) (string, error) {
	table := assets.Default()
	if s.AssetTable != "" {
		var err error
		table, err = assets.Load(ctx, s.AssetTable, info)
		if err != nil {
			return "", err
		}
	}
	return table.Lookup(info.Tag, mode)
}

func (a *app) lister(ctx context.Context, s *config.Settings, log *slog.Logger) (*release.Lister, error) {
	hc := a.httpClient
	if hc == nil {
		hc = release.NewHTTPClient(ctx, s.Token, release.DefaultAPITimeout)
	}
	client, err := release.NewClient(hc, s.APIURL)
	if err != nil {
		return nil, err
	}
	return release.NewLister(client, s.Owner, s.Repo, s.TagPrefix,
		release.WithPageSize(s.PageSize),
		release.WithLimit(s.ListLimit),
		release.WithLogger(log),
	), nil
}

// downloadClient is unauthenticated: asset URLs redirect to a CDN that must
// not receive the API token.
func (a *app) downloadClient(ctx context.Context) *http.Client {
	if a.httpClient != nil {
		return a.httpClient
	}
	return release.NewHTTPClient(ctx, "", 0)
}

// selectRelease picks the release to install. An explicit version has
// already been resolved to one release; otherwise the user chooses among
// the listed releases that publish assetName.
func (a *app) selectRelease(releases []release.Release, assetName, prefix, version string) (release.Release, error) {
	if version != "" {
		if len(releases) == 0 {
			return release.Release{}, appErrors.New(appErrors.CodeNotFound, fmt.Sprintf("release %s not found", version), nil)
		}
		return releases[0], nil
	}

	candidates := release.WithAsset(releases, assetName)
	if len(candidates) == 0 {
		return release.Release{}, appErrors.New(appErrors.CodeAssetNotFound,
			fmt.Sprintf("no %s release publishes %s", prefix, assetName), nil)
	}
	rel, err := a.prompter.SelectRelease(candidates, prefix)
	if err != nil {
		return release.Release{}, fmt.Errorf("failed to get version selection: %w", err)
	}
	return rel, nil
}
