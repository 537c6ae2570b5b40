package commands

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/paulmach/orb/encoding/wkt"
	"github.com/piwi3910/LotiSmart/internal/engine"
	"github.com/piwi3910/LotiSmart/internal/export"
	"github.com/piwi3910/LotiSmart/internal/importer"
	"github.com/piwi3910/LotiSmart/internal/model"
	"github.com/piwi3910/LotiSmart/internal/printer"
	"github.com/piwi3910/LotiSmart/internal/service"
	"github.com/spf13/cobra"
)

type partitionOptions struct {
	minArea     float64
	containment string
	out         string
	pdf         string
	labels      string
	xlsx        string
	dxf         string
	shp         string
	strict      bool
	noHistory   bool
	printWKT    bool
}

func newPartitionCmd(root *rootOptions) *cobra.Command {
	opts := &partitionOptions{}

	cmd := &cobra.Command{
		Use:   "partition FILE",
		Short: "Split a parcel into square lots",
		Long: `Read a parcel file, split it into square lots of the minimum area and
write the lots to the requested outputs.

Supported inputs: ` + strings.Join(importer.SupportedExtensions, ", ") + `

Examples:
  # 150 m² lots written as GeoJSON
  loti partition parcel.geojson --out lots.geojson

  # 200 m² lots kept clear of the boundary, with a PDF plan and stake labels
  loti partition site.shp --min-area 200 --containment exclusive --pdf plan.pdf --labels stakes.pdf`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPartition(cmd, root, opts, args[0])
		},
	}

	f := cmd.Flags()
	f.Float64Var(&opts.minArea, "min-area", 0, "Minimum lot area in square CRS units (default from config)")
	f.StringVar(&opts.containment, "containment", "", "Boundary handling: inclusive or exclusive (default from config)")
	f.StringVarP(&opts.out, "out", "o", "", "Write lots as GeoJSON")
	f.StringVar(&opts.pdf, "pdf", "", "Write a PDF plan with lot schedule")
	f.StringVar(&opts.labels, "labels", "", "Write QR-coded stake labels (PDF)")
	f.StringVar(&opts.xlsx, "xlsx", "", "Write the lot schedule as an Excel workbook")
	f.StringVar(&opts.dxf, "dxf", "", "Write parcel and lots as a DXF drawing")
	f.StringVar(&opts.shp, "shp", "", "Write lots as an ESRI shapefile")
	f.BoolVar(&opts.strict, "strict", false, "Treat import warnings as errors")
	f.BoolVar(&opts.noHistory, "no-history", false, "Do not record the run in the history log")
	f.BoolVar(&opts.printWKT, "wkt", false, "Print each lot as WKT")
	return cmd
}

func runPartition(cmd *cobra.Command, root *rootOptions, opts *partitionOptions, path string) error {
	ctx := cmd.Context()

	imported := importer.ImportFile(path)
	for _, w := range imported.Warnings {
		printer.Warning("%s\n", w)
	}
	if err := imported.Err(); err != nil {
		return printer.ErrorWithContext("cannot read parcel", err.Error(),
			map[string]string{"File": path},
			[]string{"Supported formats: " + strings.Join(importer.SupportedExtensions, ", ")})
	}
	if opts.strict && len(imported.Warnings) > 0 {
		return printer.Error("import produced warnings",
			fmt.Sprintf("%d warning(s) while reading %s and --strict is set.", len(imported.Warnings), path),
			[]string{"Fix the input file", "Run without --strict"})
	}

	svc, err := root.openService(ctx, opts.noHistory)
	if err != nil {
		return err
	}
	defer svc.Close()

	settings := svc.Settings()
	if opts.minArea != 0 {
		settings.MinArea = opts.minArea
	}
	if opts.containment != "" {
		policy, err := model.ParseContainmentPolicy(opts.containment)
		if err != nil {
			return printer.Error("invalid containment policy", err.Error(), []string{"Use --containment inclusive or --containment exclusive"})
		}
		settings.Containment = policy
	}
	if settings.CRS == "" {
		settings.CRS = imported.CRS
	}

	res, err := svc.Partition(ctx, filepath.Base(path), imported.Regions, settings)
	switch {
	case errors.Is(err, service.ErrHistory):
		printer.Warning("%v\n", err)
	case errors.Is(err, model.ErrInvalidParameter):
		return printer.Error("invalid minimum lot area", err.Error(),
			[]string{fmt.Sprintf("Use --min-area %g or more", root.config.MinAllowedArea)})
	case err != nil:
		return printer.ErrorWithContext("partition failed", err.Error(),
			map[string]string{"File": path}, nil)
	}

	printSummary(res)
	if opts.printWKT {
		for _, lot := range res.Lots.Lots {
			printer.Printf("%d\t%s\n", lot.Number, wkt.MarshalString(lot.Square.Polygon()))
		}
	}

	return writeOutputs(res, opts)
}

func printSummary(res engine.RunResult) {
	if res.Lots.Len() == 0 {
		printer.Warning("No lot of %g fits inside the parcel (side %.2f)\n", res.Record.MinArea, res.Lots.Side)
	} else {
		printer.Success("%d lots of %.2f x %.2f\n", res.Lots.Len(), res.Lots.Side, res.Lots.Side)
	}
	printer.Printf("  Parcel area:  %.2f\n", res.Region.Area())
	printer.Printf("  Lot area:     %.2f (%.1f%% coverage)\n", res.Lots.TotalArea(), res.Coverage())
	printer.Printf("  Grid squares: %d\n", res.Capacity)
	if res.Lots.CRS != "" {
		printer.Printf("  CRS:          %s\n", firstLine(res.Lots.CRS))
	}
	printer.Printf("  Run:          %s\n", res.Record.ID)
}

// writeOutputs writes every requested export. All outputs are attempted; the
// first failure is returned.
func writeOutputs(res engine.RunResult, opts *partitionOptions) error {
	type output struct {
		path  string
		kind  string
		write func(string) error
	}
	outputs := []output{
		{opts.out, "GeoJSON", func(p string) error { return export.ExportGeoJSON(p, res.Lots) }},
		{opts.pdf, "PDF plan", func(p string) error { return export.ExportPDF(p, res.Region, res.Lots, res.Record) }},
		{opts.labels, "stake labels", func(p string) error { return export.ExportLabels(p, res.Lots) }},
		{opts.xlsx, "Excel schedule", func(p string) error { return export.ExportExcel(p, res.Lots, res.Record) }},
		{opts.dxf, "DXF drawing", func(p string) error { return export.ExportDXF(p, res.Region, res.Lots) }},
		{opts.shp, "shapefile", func(p string) error { return export.ExportShapefile(p, res.Lots) }},
	}

	var firstErr error
	for _, o := range outputs {
		if o.path == "" {
			continue
		}
		if o.kind == "stake labels" && res.Lots.Len() == 0 {
			printer.Warning("No lots, skipping %s\n", o.kind)
			continue
		}
		if err := o.write(o.path); err != nil {
			printer.Warning("Failed to write %s: %v\n", o.kind, err)
			if firstErr == nil {
				firstErr = printer.Error("export failed", err.Error(), nil)
			}
			continue
		}
		printer.Step("Wrote %s to %s\n", o.kind, o.path)
	}
	return firstErr
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	if len(s) > 60 {
		s = s[:57] + "..."
	}
	return s
}
