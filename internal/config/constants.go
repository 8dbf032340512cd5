package config

// Configuration keys. Nested keys map to YAML sections; environment
// variables use the ZB_INSTALL_ prefix with dots and dashes as underscores.
const (
	KeyRepoOwner   = "repo.owner"
	KeyRepoName    = "repo.name"
	KeyTool        = "tool"
	KeyTagPrefix   = "tag-prefix"
	KeyInstallDir  = "install-dir"
	KeyAPIURL      = "api-url"
	KeyToken       = "token"
	KeyPageSize    = "page-size"
	KeyListLimit   = "list-limit"
	KeyAssetTable  = "asset-table"
	KeyKeyring     = "keyring"
	KeyMinisignKey = "minisign-key"
	KeyVerbose     = "verbose"
)

// Defaults for the public zbcli release feed.
const (
	DefaultOwner      = "zymbit-applications"
	DefaultRepo       = "zb-bin"
	DefaultTool       = "zbcli"
	DefaultTagPrefix  = "zbcli"
	DefaultInstallDir = "/usr/bin"
	DefaultPageSize   = 100
	DefaultListLimit  = 30

	// maxPageSize is the largest per_page the GitHub API honours.
	maxPageSize = 100
)

const (
	envPrefix = "ZB_INSTALL"

	// SystemConfigPath is read when no --config is given.
	SystemConfigPath = "/etc/zb-install/config.yaml"
	userConfigDir    = "zb-install"
	configFileName   = "config.yaml"
)
