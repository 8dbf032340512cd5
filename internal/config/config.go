package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	appErrors "github.com/zymbit-applications/zb-install/internal/errors"
)

// Settings is the resolved configuration of one run.
type Settings struct {
	Owner       string
	Repo        string
	Tool        string
	TagPrefix   string
	InstallDir  string
	APIURL      string
	Token       string
	PageSize    int
	ListLimit   int
	AssetTable  string
	Keyring     string
	MinisignKey string
	Verbose     bool

	// File is the config file that was read, empty when none was.
	File string
	// Findings lists secrets found in a config file that other users can read.
	Findings []SensitiveDataFinding
}

// Options controls where Load looks for configuration.
type Options struct {
	// ConfigFile is an explicit config path. It must exist.
	ConfigFile string
	// Flags, when set, are bound to the keys of the same name. Only flags
	// the user changed override lower layers.
	Flags *pflag.FlagSet
	// SystemPath overrides SystemConfigPath.
	SystemPath string
	// UserPath overrides $XDG_CONFIG_HOME/zb-install/config.yaml.
	UserPath string
}

var allKeys = []string{
	KeyRepoOwner, KeyRepoName, KeyTool, KeyTagPrefix, KeyInstallDir,
	KeyAPIURL, KeyToken, KeyPageSize, KeyListLimit, KeyAssetTable,
	KeyKeyring, KeyMinisignKey, KeyVerbose,
}

// Load resolves settings from defaults, a config file, the environment and
// flags, then validates them.
func Load(opts Options) (*Settings, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	setDefaults(v)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv(KeyToken, envPrefix+"_TOKEN", "GITHUB_TOKEN"); err != nil {
		return nil, appErrors.New(appErrors.CodeConfiguration, "bind token environment", err)
	}

	if opts.Flags != nil {
		for _, key := range allKeys {
			if f := opts.Flags.Lookup(key); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, appErrors.New(appErrors.CodeConfiguration, fmt.Sprintf("bind flag --%s", key), err)
				}
			}
		}
	}

	path, err := configPath(opts)
	if err != nil {
		return nil, err
	}
	findings, err := mergeConfigFile(v, path)
	if err != nil {
		return nil, err
	}

	s := &Settings{
		Owner:       strings.TrimSpace(v.GetString(KeyRepoOwner)),
		Repo:        strings.TrimSpace(v.GetString(KeyRepoName)),
		Tool:        strings.TrimSpace(v.GetString(KeyTool)),
		TagPrefix:   strings.TrimSpace(v.GetString(KeyTagPrefix)),
		InstallDir:  strings.TrimSpace(v.GetString(KeyInstallDir)),
		APIURL:      strings.TrimSpace(v.GetString(KeyAPIURL)),
		Token:       strings.TrimSpace(v.GetString(KeyToken)),
		PageSize:    v.GetInt(KeyPageSize),
		ListLimit:   v.GetInt(KeyListLimit),
		AssetTable:  v.GetString(KeyAssetTable),
		Keyring:     v.GetString(KeyKeyring),
		MinisignKey: v.GetString(KeyMinisignKey),
		Verbose:     v.GetBool(KeyVerbose),
		File:        path,
		Findings:    findings,
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Validate checks that the settings describe a usable release feed and
// install target.
func (s *Settings) Validate() error {
	required := []struct {
		key   string
		value string
	}{
		{KeyRepoOwner, s.Owner},
		{KeyRepoName, s.Repo},
		{KeyTool, s.Tool},
		{KeyTagPrefix, s.TagPrefix},
		{KeyInstallDir, s.InstallDir},
	}
	for _, r := range required {
		if r.value == "" {
			return invalid(r.key, "must not be empty")
		}
	}

	if strings.ContainsRune(s.Tool, '/') || s.Tool == "." || s.Tool == ".." {
		return invalid(KeyTool, fmt.Sprintf("%q must be a file name", s.Tool))
	}
	if s.PageSize < 1 || s.PageSize > maxPageSize {
		return invalid(KeyPageSize, fmt.Sprintf("must be between 1 and %d, got %d", maxPageSize, s.PageSize))
	}
	if s.ListLimit < 1 {
		return invalid(KeyListLimit, fmt.Sprintf("must be positive, got %d", s.ListLimit))
	}
	if s.APIURL != "" {
		u, err := url.Parse(s.APIURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return invalid(KeyAPIURL, fmt.Sprintf("%q is not an http(s) URL", s.APIURL))
		}
	}
	return nil
}

func invalid(key, msg string) error {
	return appErrors.New(appErrors.CodeConfiguration, fmt.Sprintf("invalid %s: %s", key, msg), nil)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault(KeyRepoOwner, DefaultOwner)
	v.SetDefault(KeyRepoName, DefaultRepo)
	v.SetDefault(KeyTool, DefaultTool)
	v.SetDefault(KeyTagPrefix, DefaultTagPrefix)
	v.SetDefault(KeyInstallDir, DefaultInstallDir)
	v.SetDefault(KeyAPIURL, "")
	v.SetDefault(KeyToken, "")
	v.SetDefault(KeyPageSize, DefaultPageSize)
	v.SetDefault(KeyListLimit, DefaultListLimit)
	v.SetDefault(KeyAssetTable, "")
	v.SetDefault(KeyKeyring, "")
	v.SetDefault(KeyMinisignKey, "")
	v.SetDefault(KeyVerbose, false)
}

// configPath returns the file to read, or "" when there is none.
func configPath(opts Options) (string, error) {
	if opts.ConfigFile != "" {
		if _, err := os.Stat(opts.ConfigFile); err != nil {
			return "", appErrors.New(appErrors.CodeConfiguration, fmt.Sprintf("config file %s", opts.ConfigFile), err)
		}
		return opts.ConfigFile, nil
	}

	systemPath := opts.SystemPath
	if systemPath == "" {
		systemPath = SystemConfigPath
	}
	userPath := opts.UserPath
	if userPath == "" {
		if dir, err := os.UserConfigDir(); err == nil {
			userPath = filepath.Join(dir, userConfigDir, configFileName)
		}
	}

	for _, candidate := range []string{systemPath, userPath} {
		if candidate == "" {
			continue
		}
		_, err := os.Stat(candidate)
		if err == nil {
			return candidate, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return "", appErrors.New(appErrors.CodeConfiguration, fmt.Sprintf("stat %s", candidate), err)
		}
	}
	return "", nil
}

func mergeConfigFile(v *viper.Viper, path string) ([]SensitiveDataFinding, error) {
	if path == "" {
		return nil, nil
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, appErrors.New(appErrors.CodeConfiguration, fmt.Sprintf("stat %s", path), err)
	}
	if info.IsDir() {
		return nil, appErrors.New(appErrors.CodeConfiguration, fmt.Sprintf("config path %s is a directory", path), nil)
	}
	//nolint:gosec // G304: reading the operator's config file is the point
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, appErrors.New(appErrors.CodeConfiguration, fmt.Sprintf("read %s", path), err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}
	if err := v.MergeConfig(bytes.NewReader(data)); err != nil {
		return nil, appErrors.New(appErrors.CodeConfiguration, fmt.Sprintf("parse %s", path), err)
	}

	if info.Mode().Perm()&0o044 == 0 {
		return nil, nil
	}
	return DetectSensitiveData(string(data)), nil
}
