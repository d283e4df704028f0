package command

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/chainstate-go/internal/cli/connection"
	"github.com/yndnr/chainstate-go/internal/cli/output"
	"github.com/yndnr/chainstate-go/internal/core/domain"
)

// ChainsCommand returns the chains subcommand group.
func ChainsCommand() *cli.Command {
	return &cli.Command{
		Name:  "chains",
		Usage: "Inspect chains known to the connectivity handle",
		Subcommands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "List known chain names",
				Action: chainsList,
			},
			{
				Name:      "get",
				Usage:     "Show the merged metadata of a chain",
				ArgsUsage: "CHAIN",
				Action:    chainsGet,
			},
		},
	}
}

func chainsList(c *cli.Context) error {
	client := EnsureConnected(c)
	ctx, cancel := requestContext(c)
	defer cancel()

	resp, err := client.Get(ctx, "/v1/chains")
	if err != nil {
		return fmt.Errorf("list chains: %w", err)
	}

	var result chainsResponse
	if err := connection.ParseResponse(resp, &result); err != nil {
		return err
	}

	table := &output.Table{}
	table.SetHeaders("NAME")
	for _, name := range result.Chains {
		table.AddRow(name)
	}
	return render(c, result, table)
}

func chainsGet(c *cli.Context) error {
	name, err := chainArg(c)
	if err != nil {
		return err
	}

	client := EnsureConnected(c)
	ctx, cancel := requestContext(c)
	defer cancel()

	resp, err := client.Get(ctx, "/v1/chains/"+url.PathEscape(name))
	if err != nil {
		return fmt.Errorf("get chain: %w", err)
	}

	var m domain.ChainMetadata
	if err := connection.ParseResponse(resp, &m); err != nil {
		return err
	}
	return render(c, m, metadataTable(m))
}

// chainArg returns the single CHAIN argument, validated.
func chainArg(c *cli.Context) (string, error) {
	if c.NArg() != 1 {
		return "", fmt.Errorf("exactly one CHAIN argument required")
	}
	name := c.Args().First()
	if err := domain.ValidateChainName(name); err != nil {
		return "", err
	}
	return name, nil
}

func metadataTable(m domain.ChainMetadata) *output.Table {
	table := &output.Table{}
	table.SetHeaders("FIELD", "VALUE")
	table.AddRow("name", m.Name)
	table.AddRow("chainId", orDash(m.ChainID))
	table.AddRow("displayName", orDash(m.DisplayName))
	table.AddRow("protocol", string(m.EffectiveProtocol()))
	table.AddRow("testnet", strconv.FormatBool(m.IsTestnet))
	table.AddRow("rpcUrls", orDash(joinRPCURLs(m.RPCURLs)))
	if m.NativeToken != nil {
		table.AddRow("nativeToken", m.NativeToken.Symbol)
	}
	for _, e := range m.BlockExplorers {
		table.AddRow("explorer", e.Name+" "+e.URL)
	}
	return table
}

func joinRPCURLs(urls []domain.RPCURL) string {
	parts := make([]string, len(urls))
	for i, u := range urls {
		parts[i] = u.HTTP
	}
	return strings.Join(parts, ",")
}
