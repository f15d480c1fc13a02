package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"text/tabwriter"
	"time"

	"chartcraft/adapters/excel"
	"chartcraft/adapters/render"
	"chartcraft/domain/grid"
	"chartcraft/domain/visual"
	"chartcraft/internal/profiling"

	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "chartcraft",
		Short: "ChartCraft CLI for rendering charts from spreadsheets",
	}

	rootCmd.AddCommand(
		newRenderCmd(),
		newKindsCmd(),
		newConfigCmd(),
		newSummaryCmd(),
		newRecordsCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadChart resolves a chart kind and reads the input spreadsheet.
func loadChart(slug, in string) (visual.Kind, *grid.Grid, error) {
	kind, err := visual.Default().Lookup(visual.FamilyChart, slug)
	if err != nil {
		return visual.Kind{}, nil, err
	}
	if in == "" {
		return kind, grid.Seed(), nil
	}
	g, err := excel.NewDataReader(excel.DefaultExcelConfig()).ReadFile(in)
	if err != nil {
		return visual.Kind{}, nil, err
	}
	return kind, g, nil
}

func newRenderCmd() *cobra.Command {
	var kindSlug, in, out string
	var width, height int

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render a chart PNG from an xlsx or csv file",
		Long: `Render a chart from a spreadsheet. The first row holds the category
labels and the first column the series names. Without --in the example
data is used.

Example: chartcraft render --kind bar --in data.xlsx --out chart.png`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, g, err := loadChart(kindSlug, in)
			if err != nil {
				return err
			}
			if out == "" {
				out = render.RasterFilename(time.Now())
			}

			f, err := os.Create(out)
			if err != nil {
				return fmt.Errorf("failed to create %s: %w", out, err)
			}
			ds := grid.Transform(g, kind.Shape)
			if err := render.NewRasterizer(width, height).RenderPNG(f, kind, ds); err != nil {
				f.Close()
				os.Remove(out)
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}

			abs, _ := filepath.Abs(out)
			fmt.Fprintf(cmd.OutOrStdout(), "✅ Rendered %s (%d series, %d labels) to %s\n", kind.Label, len(ds.Series), len(ds.Labels), abs)
			return nil
		},
	}

	cmd.Flags().StringVar(&kindSlug, "kind", "bar", "Chart kind: bar|line|pie|doughnut|polarArea|radar")
	cmd.Flags().StringVar(&in, "in", "", "Input .xlsx or .csv file")
	cmd.Flags().StringVar(&out, "out", "", "Output PNG file (default chart-<millis>.png)")
	cmd.Flags().IntVar(&width, "width", 1024, "Image width in pixels")
	cmd.Flags().IntVar(&height, "height", 600, "Image height in pixels")
	return cmd
}

func newKindsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "kinds",
		Short: "List every visualization kind",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return printKinds(cmd.OutOrStdout(), visual.Default())
		},
	}
}

func printKinds(w io.Writer, c *visual.Catalog) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "FAMILY\tSLUG\tLABEL\tPATH")
	for _, g := range c.Groups() {
		for _, k := range g.Kinds {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", g.ID, k.Slug, k.Label, k.Path())
		}
	}
	return tw.Flush()
}

func newConfigCmd() *cobra.Command {
	var kindSlug, in string

	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print the Chart.js config for a spreadsheet",
		Long: `Print the Chart.js configuration object the page would use.

Example: chartcraft config --kind line --in data.csv`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, g, err := loadChart(kindSlug, in)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(render.BuildChartConfig(kind, grid.Transform(g, kind.Shape)))
		},
	}

	cmd.Flags().StringVar(&kindSlug, "kind", "bar", "Chart kind")
	cmd.Flags().StringVar(&in, "in", "", "Input .xlsx or .csv file")
	return cmd
}

func newSummaryCmd() *cobra.Command {
	var kindSlug, in string

	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Print per-series statistics for a spreadsheet",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, g, err := loadChart(kindSlug, in)
			if err != nil {
				return err
			}
			summaries, err := profiling.NewDistributionAnalyzer().SummarizeDataset(grid.Transform(g, kind.Shape))
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "SERIES\tCOUNT\tSUM\tMEAN\tMEDIAN\tMIN\tMAX\tSTDDEV")
			for _, s := range summaries {
				name := s.Name
				if name == "" {
					name = "values"
				}
				fmt.Fprintf(tw, "%s\t%d\t%.2f\t%.2f\t%.2f\t%.2f\t%.2f\t%.2f\n",
					name, s.Count, s.Sum, s.Mean, s.Median, s.Min, s.Max, s.StdDev)
			}
			return tw.Flush()
		},
	}

	cmd.Flags().StringVar(&kindSlug, "kind", "bar", "Chart kind")
	cmd.Flags().StringVar(&in, "in", "", "Input .xlsx or .csv file")
	return cmd
}

func newRecordsCmd() *cobra.Command {
	var in string

	cmd := &cobra.Command{
		Use:   "records",
		Short: "Print the spreadsheet as JSON keyed by row label and header",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			g := grid.Seed()
			if in != "" {
				var err error
				if g, err = excel.NewDataReader(excel.DefaultExcelConfig()).ReadFile(in); err != nil {
					return err
				}
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(grid.Records(g))
		},
	}

	cmd.Flags().StringVar(&in, "in", "", "Input .xlsx or .csv file")
	return cmd
}
