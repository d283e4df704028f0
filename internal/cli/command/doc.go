// Package command provides CLI command definitions for chainstate-cli.
//
// Commands are built with urfave/cli/v2:
//
//   - root.go: application, global flags, shared helpers
//   - state.go: status, rebuild and banner
//   - chains.go: chains list|get
//   - overrides.go: overrides list|set|remove|replace
//
// Every command calls the server's HTTP API, then renders the result
// with the formatter chosen by --output.
package command
