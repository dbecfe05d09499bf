package main

import (
	"fmt"
	"log/slog"

	"github.com/Neumenon/bdoc/bdoc"
	"github.com/Neumenon/bdoc/exchange"
	"github.com/spf13/cobra"
)

var (
	statePath string
	showTree  bool
)

var roundtripCmd = &cobra.Command{
	Use:   "roundtrip [file.json]",
	Short: "Send a document through the loopback endpoint and compare digests",
	Long: `Encode a document (the built-in sample, or a JSON file), send it as GS1
frames to an in-process loopback endpoint that decodes, stores and
re-encodes it, and compare the digests of the outgoing and returned bytes.
Exits non-zero when the digests differ.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		doc := sampleDocument()
		if len(args) == 1 {
			data, name, err := readInput(cmd, args)
			if err != nil {
				return err
			}
			if doc, err = bdoc.FromJSON(data); err != nil {
				return fmt.Errorf("%s: %w", name, err)
			}
		}

		ctx := cmd.Context()
		opts := exchangeOptions()
		client, stop := exchange.Pipe(ctx, exchange.NewLoopback(opts...), opts...)

		report, err := exchange.RoundTrip(ctx, client, doc, opts...)
		if stopErr := stop(); err == nil && stopErr != nil {
			err = fmt.Errorf("loopback endpoint: %w", stopErr)
		}
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "outgoing: %s\n", report.Outgoing)
		fmt.Fprintf(out, "incoming: %s\n", report.Incoming)
		fmt.Fprintf(out, "match: %t\n", report.Match)
		if showTree {
			if err := bdoc.Fprint(out, report.Document); err != nil {
				return err
			}
		}
		return report.Verify()
	},
}

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Print the saved state",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := exchangeOptions()
		if statePath == "" && cfg.StatePath == "" {
			return fmt.Errorf("no state path: pass --state or set state_path in the config")
		}

		doc, ok, err := exchange.FetchState(cmd.Context(), exchange.NewLoopback(opts...), opts...)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if !ok {
			_, err := fmt.Fprintln(out, "no saved state; run roundtrip to set it")
			return err
		}
		return bdoc.Fprint(out, doc)
	},
}

func init() {
	rootCmd.AddCommand(roundtripCmd, fetchCmd)
	roundtripCmd.Flags().StringVar(&statePath, "state", "", "Persist the loopback's saved state to this file")
	roundtripCmd.Flags().BoolVar(&showTree, "walk", true, "Print the returned document tree")
	fetchCmd.Flags().StringVar(&statePath, "state", "", "Saved state file (default from config)")
}

// exchangeOptions builds options from the config and the --state flag.
func exchangeOptions() []exchange.Option {
	opts := cfg.ExchangeOptions(slog.Default())
	if statePath != "" {
		opts = append(opts, exchange.WithStore(exchange.FileStore{Path: statePath}))
	}
	return opts
}
