// Package config handles configuration loading for the inventory service.
//
// # Overview
//
// Configuration is loaded from YAML or TOML files with environment variable
// expansion. Files ending in .toml are decoded as TOML; everything else is
// decoded as YAML. Omitted keys receive defaults before validation.
//
// # Configuration File
//
// Default locations (in order):
//
//  1. Path from INVENTORY_CONFIG environment variable
//  2. $XDG_CONFIG_HOME/inventory/config.yaml
//  3. ~/.config/inventory/config.yaml
//
// When no file exists the CLI runs on Default, with the database under
// $XDG_DATA_HOME/inventory.
//
// # Environment Variable Expansion
//
// Configuration values can reference environment variables:
//
//	auth:
//	  jwt_secret: "${INVENTORY_JWT_SECRET}"
//
// Unset variables expand to the empty string.
//
// # Example
//
//	server:
//	  http_addr: "127.0.0.1:8080"
//
//	database:
//	  path: "~/.local/share/inventory/inventory.db"
//	  driver: "sqlite"        # or "sqlite3" for the cgo driver
//
//	logging:
//	  level: "info"           # debug, info, warn, error
//	  format: "text"          # text or json
//
//	auth:
//	  jwt_secret: "${INVENTORY_JWT_SECRET}"
//	  token_ttl: "24h"
//
//	api:
//	  idempotency_ttl: "10m"
//	  idempotency_size: 1000
//
// Duration values use Go's time.ParseDuration syntax.
package config
