package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vialac/vialac/internal/bridge"
	"github.com/vialac/vialac/internal/logging"
)

func commandCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cmd <COMANDO> [payload-json]",
		Short: "Send one command through the bridge and print the response",
		Example: `  vialac cmd DASHBOARD
  vialac cmd REGISTRAR_ORDENE '{"caravana":"1234","litros":28.5}'`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			payload := map[string]any{}
			if len(args) == 2 {
				if err := json.Unmarshal([]byte(args[1]), &payload); err != nil {
					return fmt.Errorf("payload: %w", err)
				}
			}
			return withBridge(func(b *bridge.Bridge) error {
				return printResponse(cmd.OutOrStdout(), b.SendCommand(cmd.Context(), strings.ToUpper(args[0]), payload))
			})
		},
	}
}

func sheetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ficha <caravana>",
		Short: "Print an animal's sheet",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withBridge(func(b *bridge.Bridge) error {
				return printResponse(cmd.OutOrStdout(), b.AnimalSheet(cmd.Context(), args[0]))
			})
		},
	}
}

func withBridge(fn func(b *bridge.Bridge) error) error {
	log, err := logging.New(cfg.Log)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	b, closeFn, err := newBridge(log)
	if err != nil {
		return err
	}
	defer closeFn()
	return fn(b)
}

func printResponse(w io.Writer, resp bridge.Response) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(resp); err != nil {
		return err
	}
	if msg, failed := resp.Err(); failed && msg == bridge.MsgUnavailable {
		return fmt.Errorf("host unavailable")
	}
	return nil
}
