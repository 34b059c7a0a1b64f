// Package config loads the edge filter configuration from an optional YAML
// file and environment variables. Defaults reproduce the built-in filter:
// the userstorage allow-list and the root hello page.
package config
