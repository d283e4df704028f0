package command

import (
	"fmt"
	"net/url"
	"os"

	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"github.com/yndnr/chainstate-go/internal/cli/connection"
	"github.com/yndnr/chainstate-go/internal/cli/output"
	"github.com/yndnr/chainstate-go/internal/core/domain"
)

// OverridesCommand returns the overrides subcommand group.
func OverridesCommand() *cli.Command {
	return &cli.Command{
		Name:    "overrides",
		Aliases: []string{"ovr"},
		Usage:   "Manage locally overridden chain metadata",
		Subcommands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "List current overrides",
				Action: overridesList,
			},
			{
				Name:      "set",
				Usage:     "Override the metadata of one chain",
				ArgsUsage: "CHAIN",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "file",
						Aliases: []string{"f"},
						Usage:   "YAML or JSON file with the chain metadata",
					},
					&cli.StringFlag{
						Name:  "chain-id",
						Usage: "Chain ID (when not using --file)",
					},
					&cli.StringSliceFlag{
						Name:    "rpc",
						Aliases: []string{"r"},
						Usage:   "RPC URL, repeatable (when not using --file)",
					},
					&cli.StringFlag{
						Name:  "protocol",
						Usage: "Protocol family (ethereum, cosmos, sealevel, starknet)",
					},
					&cli.StringFlag{
						Name:  "display-name",
						Usage: "Display name",
					},
				},
				Action: overridesSet,
			},
			{
				Name:      "remove",
				Aliases:   []string{"rm"},
				Usage:     "Remove the override of one chain",
				ArgsUsage: "CHAIN",
				Action:    overridesRemove,
			},
			{
				Name:  "replace",
				Usage: "Replace all overrides with the contents of a file",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "file",
						Aliases: []string{"f"},
						Usage:   "YAML or JSON file mapping chain names to metadata",
					},
					&cli.BoolFlag{
						Name:  "clear",
						Usage: "Remove all overrides",
					},
				},
				Action: overridesReplace,
			},
		},
	}
}

func overridesList(c *cli.Context) error {
	client := EnsureConnected(c)
	ctx, cancel := requestContext(c)
	defer cancel()

	resp, err := client.Get(ctx, "/v1/overrides")
	if err != nil {
		return fmt.Errorf("list overrides: %w", err)
	}

	var result overridesResponse
	if err := connection.ParseResponse(resp, &result); err != nil {
		return err
	}

	table := &output.Table{}
	table.SetHeaders("NAME", "CHAIN ID", "PROTOCOL", "RPC URLS")
	for _, name := range result.Overrides.Names() {
		m := result.Overrides[name]
		table.AddRow(name, orDash(m.ChainID), string(m.EffectiveProtocol()), orDash(joinRPCURLs(m.RPCURLs)))
	}
	return render(c, result, table)
}

func overridesSet(c *cli.Context) error {
	name, err := chainArg(c)
	if err != nil {
		return err
	}

	m, err := overrideFromFlags(c, name)
	if err != nil {
		return err
	}

	client := EnsureConnected(c)
	ctx, cancel := requestContext(c)
	defer cancel()

	resp, err := client.Put(ctx, "/v1/overrides/"+url.PathEscape(name), m)
	if err != nil {
		return fmt.Errorf("set override: %w", err)
	}

	var result editResponse
	if err := connection.ParseResponse(resp, &result); err != nil {
		return err
	}
	return message(c, result, "Override for %q set (revision %d, %d chains)",
		name, result.Revision, len(result.Chains))
}

// overrideFromFlags builds the chain metadata from --file, or from the
// inline flags when no file is given.
func overrideFromFlags(c *cli.Context, name string) (domain.ChainMetadata, error) {
	var m domain.ChainMetadata

	if path := c.String("file"); path != "" {
		if c.IsSet("chain-id") || c.IsSet("rpc") {
			return m, fmt.Errorf("--file cannot be combined with --chain-id or --rpc")
		}
		if err := readDocument(path, &m); err != nil {
			return m, err
		}
	} else {
		m.ChainID = c.String("chain-id")
		for _, rpc := range c.StringSlice("rpc") {
			m.RPCURLs = append(m.RPCURLs, domain.RPCURL{HTTP: rpc})
		}
		m.Protocol = domain.Protocol(c.String("protocol"))
		m.DisplayName = c.String("display-name")
	}

	if m.Name == "" {
		m.Name = name
	}
	if m.Name != name {
		return m, fmt.Errorf("metadata name %q does not match CHAIN %q", m.Name, name)
	}
	if err := m.Validate(); err != nil {
		return m, err
	}
	return m, nil
}

func overridesRemove(c *cli.Context) error {
	name, err := chainArg(c)
	if err != nil {
		return err
	}

	client := EnsureConnected(c)
	ctx, cancel := requestContext(c)
	defer cancel()

	resp, err := client.Delete(ctx, "/v1/overrides/"+url.PathEscape(name))
	if err != nil {
		return fmt.Errorf("remove override: %w", err)
	}

	var result editResponse
	if err := connection.ParseResponse(resp, &result); err != nil {
		return err
	}
	return message(c, result, "Override for %q removed (revision %d, %d chains)",
		name, result.Revision, len(result.Chains))
}

func overridesReplace(c *cli.Context) error {
	path := c.String("file")
	clearAll := c.Bool("clear")
	if (path == "") == !clearAll {
		return fmt.Errorf("exactly one of --file or --clear is required")
	}

	overrides := domain.OverrideMap{}
	if path != "" {
		if err := readDocument(path, &overrides); err != nil {
			return err
		}
		for name, m := range overrides {
			if m.Name == "" {
				m.Name = name
			}
			if m.Name != name {
				return fmt.Errorf("override key %q does not match chain name %q", name, m.Name)
			}
			if err := m.Validate(); err != nil {
				return err
			}
			overrides[name] = m
		}
	}

	client := EnsureConnected(c)
	ctx, cancel := requestContext(c)
	defer cancel()

	resp, err := client.Put(ctx, "/v1/overrides", replaceOverridesRequest{Overrides: overrides})
	if err != nil {
		return fmt.Errorf("replace overrides: %w", err)
	}

	var result editResponse
	if err := connection.ParseResponse(resp, &result); err != nil {
		return err
	}
	return message(c, result, "Overrides replaced: %d overrides, %d chains (revision %d)",
		len(result.Overrides), len(result.Chains), result.Revision)
}

// readDocument decodes a YAML or JSON file into target. JSON is valid
// YAML, so one decoder serves both.
func readDocument(path string, target any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, target); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}
