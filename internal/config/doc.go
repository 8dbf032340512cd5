// Package config loads zb-install settings.
//
// # Precedence
//
// Values are layered, lowest first:
//   - built-in defaults (the public zymbit-applications/zb-bin feed)
//   - one YAML config file
//   - ZB_INSTALL_* environment variables
//   - command-line flags that were explicitly set
//
// The config file is the --config path when given, which must exist.
// Otherwise the first existing file of /etc/zb-install/config.yaml and
// $XDG_CONFIG_HOME/zb-install/config.yaml is used, and having neither is fine.
//
// The API token additionally falls back to GITHUB_TOKEN.
//
// # Schema
//
//	repo:
//	  owner: zymbit-applications
//	  name: zb-bin
//	tool: zbcli
//	tag-prefix: zbcli
//	install-dir: /usr/bin
//	api-url: https://github.example.com/api/v3/
//	page-size: 100
//	list-limit: 30
//	asset-table: /etc/zb-install/assets.lua
//	keyring: /etc/zb-install/zymbit.gpg
//	minisign-key: /etc/zb-install/zymbit.pub
//	verbose: false
//
// Each Load builds its own viper instance, so tests and callers never share
// state.
package config
