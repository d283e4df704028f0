package command

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/chainstate-go/internal/cli/connection"
	"github.com/yndnr/chainstate-go/internal/cli/output"
)

// StatusCommand returns the status command.
func StatusCommand() *cli.Command {
	return &cli.Command{
		Name:   "status",
		Usage:  "Show the server's state summary",
		Action: statusAction,
	}
}

// RebuildCommand returns the rebuild command.
func RebuildCommand() *cli.Command {
	return &cli.Command{
		Name:   "rebuild",
		Usage:  "Refetch chain metadata and rebuild the connectivity handle",
		Action: rebuildAction,
	}
}

// BannerCommand returns the banner command.
func BannerCommand() *cli.Command {
	return &cli.Command{
		Name:      "banner",
		Usage:     "Set or clear the display banner",
		ArgsUsage: "[TEXT]",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "clear",
				Usage: "Clear the banner",
			},
		},
		Action: bannerAction,
	}
}

func statusAction(c *cli.Context) error {
	client := EnsureConnected(c)
	ctx, cancel := requestContext(c)
	defer cancel()

	resp, err := client.Get(ctx, "/v1/state")
	if err != nil {
		return fmt.Errorf("get state: %w", err)
	}

	var state stateResponse
	if err := connection.ParseResponse(resp, &state); err != nil {
		return err
	}

	table := &output.Table{}
	table.SetHeaders("FIELD", "VALUE")
	table.AddRow("ready", strconv.FormatBool(state.Ready))
	table.AddRow("phase", orDash(state.Phase))
	table.AddRow("revision", strconv.FormatUint(state.Revision, 10))
	table.AddRow("chains", strconv.Itoa(len(state.Chains)))
	table.AddRow("overrides", orDash(strings.Join(state.Overrides, ",")))
	table.AddRow("banner", orDash(state.Banner))
	return render(c, state, table)
}

func rebuildAction(c *cli.Context) error {
	client := EnsureConnected(c)
	ctx, cancel := requestContext(c)
	defer cancel()

	start := time.Now()
	spin := spinner(c, "Rebuilding connectivity handle")

	resp, err := client.Post(ctx, "/v1/rebuild", nil)
	if err != nil {
		err = fmt.Errorf("rebuild: %w", err)
		spinnerDone(spin, err, "")
		return err
	}

	var result editResponse
	err = connection.ParseResponse(resp, &result)
	spinnerDone(spin, err, "Rebuilt in "+elapsed(start))
	if err != nil {
		return err
	}

	return message(c, result, "Connectivity handle rebuilt: %d chains (revision %d)",
		len(result.Chains), result.Revision)
}

func bannerAction(c *cli.Context) error {
	text := strings.Join(c.Args().Slice(), " ")
	if c.Bool("clear") {
		if text != "" {
			return fmt.Errorf("--clear cannot be combined with banner text")
		}
	} else if text == "" {
		return fmt.Errorf("banner text required (use --clear to remove the banner)")
	}

	client := EnsureConnected(c)
	ctx, cancel := requestContext(c)
	defer cancel()

	resp, err := client.Put(ctx, "/v1/banner", bannerRequest{Banner: text})
	if err != nil {
		return fmt.Errorf("set banner: %w", err)
	}

	var result bannerRequest
	if err := connection.ParseResponse(resp, &result); err != nil {
		return err
	}

	if result.Banner == "" {
		return message(c, result, "Banner cleared")
	}
	return message(c, result, "Banner set to %q", result.Banner)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
