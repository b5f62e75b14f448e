// Package main provides the SignalFlow CLI application.
package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/signalflow/signalflow/pkg/prebuilt"
	"github.com/signalflow/signalflow/pkg/signalflow"
)

// Version information set during build
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

var logger = log.NewWithOptions(os.Stderr, log.Options{Prefix: "signalflow"})

func main() {
	if err := newRootCmd().Execute(); err != nil {
		logger.Error("command failed", "err", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "signalflow",
		Short: "Wire signal channels, filters, and sinks into playable dashboards",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			_ = godotenv.Load()
			if os.Getenv("SIGNALFLOW_DEBUG") != "" {
				logger.SetLevel(log.DebugLevel)
			}
		},
		SilenceUsage: true,
	}
	root.AddCommand(newVersionCmd(), newValidateCmd(), newArrangeCmd())
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "SignalFlow %s (commit: %s, built: %s)\n", Version, Commit, BuildTime)
		},
	}
}

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <layout.json>",
		Short: "Validate a layout document and report skipped entries",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			var doc signalflow.Document
			if err := json.Unmarshal(data, &doc); err != nil {
				return fmt.Errorf("parse layout: %w", err)
			}

			rt := signalflow.NewRuntime()
			defer rt.Close()
			report, err := rt.Import(&doc)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "nodes: %d, edges: %d, channels: %d\n",
				len(rt.Graph().Nodes()), len(rt.Graph().Edges()), rt.Graph().ChannelCount())
			if report.Total() == 0 {
				fmt.Fprintln(out, "layout is valid")
				return nil
			}
			fmt.Fprintf(out, "skipped %d entries (%d nodes, %d edges, %d positions):\n",
				report.Total(), report.SkippedNodes, report.SkippedEdges, report.SkippedPositions)
			for _, reason := range report.Reasons {
				fmt.Fprintf(out, "  - %s\n", reason)
			}
			return nil
		},
	}
}

func newArrangeCmd() *cobra.Command {
	var (
		template string
		channels int
		cols     int
		rows     int
		offset   int
	)
	cmd := &cobra.Command{
		Use:   "arrange [layout.json]",
		Short: "Print the tile arrangement of a layout file or a prebuilt dashboard",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var rt *signalflow.Runtime
			if len(args) == 1 {
				data, err := os.ReadFile(args[0])
				if err != nil {
					return err
				}
				var doc signalflow.Document
				if err := json.Unmarshal(data, &doc); err != nil {
					return fmt.Errorf("parse layout: %w", err)
				}
				rt = signalflow.NewRuntime()
				if _, err := rt.Import(&doc); err != nil {
					rt.Close()
					return err
				}
			} else {
				builder, ok := prebuilt.DefaultRegistry.Get(template)
				if !ok {
					return fmt.Errorf("unknown prebuilt %q (have %v)", template, prebuilt.DefaultRegistry.Names())
				}
				g, err := builder.Build(channels)
				if err != nil {
					return err
				}
				rt = signalflow.NewRuntimeWithGraph(g)
			}
			defer rt.Close()
			req := signalflow.PlayRequest{Cols: cols, Rows: rows}
			if cmd.Flags().Changed("offset") {
				req.Offset = signalflow.GridOffset(offset)
			}
			resp, err := rt.Play(req)
			if err != nil {
				return err
			}
			defer func() { _ = rt.Stop() }()

			out := cmd.OutOrStdout()
			for _, tile := range resp.Tiles {
				fmt.Fprintf(out, "%-14s %-11s x=%-3d y=%-3d w=%-3d h=%-3d\n",
					tile.ID, tile.Kind, tile.X, tile.Y, tile.Width, tile.Height)
			}
			fmt.Fprintf(out, "%d tiles, %d forwarding subscriptions\n",
				len(resp.Tiles), len(resp.Subscriptions))
			return nil
		},
	}
	cmd.Flags().StringVar(&template, "prebuilt", "plot", "dashboard template: plot, fft, bandpower")
	cmd.Flags().IntVar(&channels, "channels", 4, "number of input channels")
	cmd.Flags().IntVar(&cols, "cols", 0, "grid columns (default 24)")
	cmd.Flags().IntVar(&rows, "rows", 0, "grid rows (default 16)")
	cmd.Flags().IntVar(&offset, "offset", 0, "grid margin in cells (default 3)")
	return cmd
}
