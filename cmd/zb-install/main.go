package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/zymbit-applications/zb-install/internal/config"
)

// Version will be set at build time via -ldflags
var Version = "v0.0.0-dev"

const (
	flagHardware = "with-hardware-signing"
	flagSoftware = "with-software-signing"
	flagVersion  = "zb-version"
	flagModel    = "rpi-model"
	flagConfig   = "config"
	flagNotes    = "show-notes"
)

// options holds the flags that are not configuration keys.
type options struct {
	hardware   bool
	software   bool
	version    string
	rpiModel   string
	configFile string
	showNotes  bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], newApp(os.Stdin, os.Stdout, os.Stderr))
	stop()
	os.Exit(code)
}

// run executes the installer and returns the process exit code.
func run(ctx context.Context, args []string, a *app) int {
	cmd := newRootCmd(a)
	cmd.SetArgs(args)
	if err := cmd.ExecuteContext(ctx); err != nil {
		a.out.Error(err)
		return 1
	}
	return 0
}

func newRootCmd(a *app) *cobra.Command {
	var opts options

	cmd := &cobra.Command{
		Use:   "zb-install",
		Short: "Install zbcli on a Raspberry Pi",
		Long: `zb-install detects the Raspberry Pi board and operating system, lists
published zbcli releases, and installs the build matching the board and
the chosen signing mode.

Settings are read from /etc/zb-install/config.yaml or
$XDG_CONFIG_HOME/zb-install/config.yaml and ZB_INSTALL_* variables.`,
		Example: `  zb-install
  zb-install --with-hardware-signing --zb-version latest
  zb-install --with-software-signing --zb-version 1.2.0 --rpi-model rpi4`,
		Version:       Version,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.install(cmd.Context(), cmd, opts)
		},
	}

	f := cmd.Flags()
	f.BoolVar(&opts.hardware, flagHardware, false, "install the build with hardware signing")
	f.BoolVar(&opts.software, flagSoftware, false, "install the build with software signing only")
	f.StringVar(&opts.version, flagVersion, "", "release to install: 'latest' or a version such as 1.2.0 (default: prompt)")
	f.StringVar(&opts.rpiModel, flagModel, "", "skip board detection: rpi0, rpi4 or rpi5 (also zero2w, cm4, cm5)")
	f.StringVar(&opts.configFile, flagConfig, "", "config file")
	f.BoolVar(&opts.showNotes, flagNotes, false, "print the release notes before installing")
	f.String(config.KeyInstallDir, config.DefaultInstallDir, "directory to install zbcli into")
	f.String(config.KeyAssetTable, "", "asset naming table (.yaml, .yml or .lua)")
	f.String(config.KeyKeyring, "", "OpenPGP keyring; requires a signature on the asset")
	f.String(config.KeyMinisignKey, "", "minisign public key; requires a signature on the asset")
	f.BoolP(config.KeyVerbose, "v", false, "log debug detail to stderr")

	cmd.MarkFlagsMutuallyExclusive(flagHardware, flagSoftware)
	cmd.SetVersionTemplate("zb-install {{.Version}}\n")
	cmd.SetOut(a.out.stdout)
	cmd.SetErr(a.out.stderr)
	return cmd
}
