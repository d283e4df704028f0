// Package confloader loads layered configuration with koanf and watches
// configuration files for changes with fsnotify.
//
// Priority (highest to lowest):
//
//  1. Command-line flags (LoadMap)
//  2. Environment variables (CHAINSTATE_ prefix)
//  3. Configuration file (YAML)
//  4. Default values (LoadMap before Load)
package confloader
