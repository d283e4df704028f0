package command

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/chainstate-go/internal/cli/config"
	"github.com/yndnr/chainstate-go/internal/cli/connection"
	"github.com/yndnr/chainstate-go/internal/cli/output"
	"github.com/yndnr/chainstate-go/internal/infra/buildinfo"
)

const metaCLIConfig = "cliConfig"

// App creates the CLI application.
func App() *cli.App {
	return &cli.App{
		Name:    "chainstate-cli",
		Usage:   "chainstate command-line management tool",
		Version: buildinfo.String(),
		Flags:   globalFlags(),
		Commands: []*cli.Command{
			StatusCommand(),
			ChainsCommand(),
			OverridesCommand(),
			RebuildCommand(),
			BannerCommand(),
		},
		Before: loadSettings,
	}
}

// globalFlags returns the global CLI flags. Server and output fall back
// to CHAINSTATE_SERVER / CHAINSTATE_OUTPUT and then to the CLI config
// file.
func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "CLI config file (default ~/.chainstate/cli.yaml)",
			EnvVars: []string{"CHAINSTATE_CLI_CONFIG"},
		},
		&cli.StringFlag{
			Name:    "server",
			Aliases: []string{"s"},
			Usage:   "chainstate server address (e.g., localhost:5080)",
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Output format: table, json, yaml",
		},
		&cli.DurationFlag{
			Name:    "timeout",
			Aliases: []string{"t"},
			Usage:   "Request timeout",
		},
		&cli.BoolFlag{
			Name:    "quiet",
			Aliases: []string{"q"},
			Usage:   "Suppress progress output",
		},
	}
}

// loadSettings resolves the effective CLI settings from the config file,
// environment and flags.
func loadSettings(c *cli.Context) error {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return err
	}

	env := make(map[string]string)
	for _, key := range []string{"CHAINSTATE_SERVER", "CHAINSTATE_OUTPUT"} {
		if v, ok := os.LookupEnv(key); ok {
			env[key] = v
		}
	}
	cfg = config.Merge(cfg, env, map[string]string{
		"server": c.String("server"),
		"output": c.String("output"),
	})
	if d := c.Duration("timeout"); d > 0 {
		cfg.Timeout = d
	}

	if _, err := output.ParseFormat(cfg.DefaultOutput); err != nil {
		return err
	}

	c.App.Metadata[metaCLIConfig] = cfg
	return nil
}

// Settings returns the effective CLI settings for c.
func Settings(c *cli.Context) *config.CLIConfig {
	if cfg, ok := c.App.Metadata[metaCLIConfig].(*config.CLIConfig); ok {
		return cfg
	}
	return config.Merge(config.Default(), nil, map[string]string{
		"server": c.String("server"),
		"output": c.String("output"),
	})
}

// EnsureConnected returns an HTTP client for the configured server.
func EnsureConnected(c *cli.Context) *connection.HTTPClient {
	cfg := Settings(c)
	return connection.NewHTTPClient(cfg.DefaultServer, cfg.Timeout)
}

// requestContext bounds a single command by the configured timeout.
func requestContext(c *cli.Context) (context.Context, context.CancelFunc) {
	parent := c.Context
	if parent == nil {
		parent = context.Background()
	}
	timeout := Settings(c).Timeout
	if timeout <= 0 {
		timeout = connection.DefaultTimeout
	}
	return context.WithTimeout(parent, timeout)
}

// outputFormat returns the validated output format.
func outputFormat(c *cli.Context) output.Format {
	f, err := output.ParseFormat(Settings(c).DefaultOutput)
	if err != nil {
		return output.FormatTable
	}
	return f
}

// render writes data in the selected format. In table mode a non-nil
// table is rendered instead of data.
func render(c *cli.Context, data any, table *output.Table) error {
	format := outputFormat(c)
	if format == output.FormatTable && table != nil {
		return table.Render(c.App.Writer)
	}
	return output.NewFormatter(format).Format(c.App.Writer, data)
}

// message prints a human-readable line in table mode, or data in the
// structured formats.
func message(c *cli.Context, data any, format string, args ...any) error {
	if outputFormat(c) == output.FormatTable {
		_, err := fmt.Fprintf(c.App.Writer, format+"\n", args...)
		return err
	}
	return output.NewFormatter(outputFormat(c)).Format(c.App.Writer, data)
}

// spinner starts a progress spinner on stderr in table mode unless
// --quiet is set. The returned spinner is nil when disabled; its methods
// must be called through the helpers below.
func spinner(c *cli.Context, msg string) *output.Spinner {
	if c.Bool("quiet") || outputFormat(c) != output.FormatTable {
		return nil
	}
	s := output.NewSpinner(c.App.ErrWriter, msg)
	s.Start()
	return s
}

func spinnerDone(s *output.Spinner, err error, success string) {
	if s == nil {
		return
	}
	if err != nil {
		s.Fail(err.Error())
		return
	}
	s.Success(success)
}

// PrintError prints an error message to stderr.
func PrintError(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "error: "+format+"\n", args...)
}

func elapsed(start time.Time) string {
	return time.Since(start).Round(time.Millisecond).String()
}
