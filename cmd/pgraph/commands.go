package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/hupe1980/pgraph"
	"github.com/hupe1980/pgraph/codec"
	"github.com/hupe1980/pgraph/graphjson"
	"github.com/spf13/cobra"
)

func newImportCmd(f *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "import <graph.json|->",
		Short: "Import a JSON graph document and dump it to the store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			in, err := openInput(cmd, args[0])
			if err != nil {
				return err
			}
			defer in.Close()

			store, err := f.openStore(ctx)
			if err != nil {
				return err
			}
			opts, err := f.graphOptions()
			if err != nil {
				return err
			}
			g, err := graphjson.Import(ctx, in, graphjson.WithGraphOptions(opts...))
			if err != nil {
				return err
			}
			defer g.Close()

			if err := g.Dump(ctx, store); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %q: %d nodes, %d edges\n", g.Name(), g.NodeCount(), g.EdgeCount())
			return nil
		},
	}
}

func newExportCmd(f *globalFlags) *cobra.Command {
	var (
		output string
		indent string
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Restore a dump and write it as a JSON graph document",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			g, err := f.restore(ctx)
			if err != nil {
				return err
			}
			defer g.Close()

			if output == "" || output == "-" {
				return graphjson.Export(ctx, g, cmd.OutOrStdout(), graphjson.WithIndent(indent))
			}
			file, err := os.Create(output)
			if err != nil {
				return err
			}
			return exportTo(ctx, g, file, indent)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "-", "output file, - for stdout")
	cmd.Flags().StringVar(&indent, "indent", "", "indent string for pretty output")
	return cmd
}

func newStatsCmd(f *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Restore a dump and print its statistics as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			g, err := f.restore(cmd.Context())
			if err != nil {
				return err
			}
			defer g.Close()

			data, err := codec.GoJSON{}.MarshalIndent(g.Stats(), "", "  ")
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return err
		},
	}
}

// exportTo writes g to w and closes it. A failed close fails the export.
func exportTo(ctx context.Context, g *pgraph.Graph, w io.WriteCloser, indent string) (err error) {
	defer func() {
		err = errors.Join(err, w.Close())
	}()
	return graphjson.Export(ctx, g, w, graphjson.WithIndent(indent))
}

func openInput(cmd *cobra.Command, name string) (io.ReadCloser, error) {
	if name == "-" {
		return io.NopCloser(cmd.InOrStdin()), nil
	}
	return os.Open(name)
}
