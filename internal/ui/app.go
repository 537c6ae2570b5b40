package ui

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"github.com/piwi3910/LotiSmart/internal/engine"
	"github.com/piwi3910/LotiSmart/internal/export"
	"github.com/piwi3910/LotiSmart/internal/importer"
	"github.com/piwi3910/LotiSmart/internal/logger"
	"github.com/piwi3910/LotiSmart/internal/model"
	"github.com/piwi3910/LotiSmart/internal/project"
	"github.com/piwi3910/LotiSmart/internal/service"
	"github.com/piwi3910/LotiSmart/internal/ui/widgets"
)

const maxRecentFiles = 8

var containmentOptions = []string{"Allow boundary contact", "Keep clear of boundary"}

// App holds all application state and UI references.
type App struct {
	app        fyne.App
	window     fyne.Window
	svc        *service.Service
	config     model.AppConfig
	configPath string
	project    model.Project
	history    *History

	// UI references for dynamic updates
	minAreaEntry      *widget.Entry
	containmentSelect *widget.Select
	resultContainer   *fyne.Container
	status            *widget.Label
}

func NewApp(application fyne.App, window fyne.Window, svc *service.Service, configPath string) *App {
	proj := model.NewProject()
	proj.Settings = svc.Settings()
	return &App{
		app:        application,
		window:     window,
		svc:        svc,
		config:     svc.Config,
		configPath: configPath,
		project:    proj,
		history:    NewHistory(),
	}
}

// ApplyTheme sets the application theme from the config.
func (a *App) ApplyTheme() {
	a.app.Settings().SetTheme(ThemeForName(a.config.Theme))
}

// SetupMenus creates the native menu bar for the application.
func (a *App) SetupMenus() {
	fileMenu := fyne.NewMenu("File",
		fyne.NewMenuItem("Open Parcel...", a.openParcel),
		a.recentMenuItem(),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Open Project...", a.loadProject),
		fyne.NewMenuItem("Save Project...", a.saveProject),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Export GeoJSON...", func() {
			a.exportResult("lots.geojson", func(path string) error {
				return export.ExportGeoJSON(path, *a.project.Result)
			})
		}),
		fyne.NewMenuItem("Export PDF Plan...", func() {
			a.exportResult("plan.pdf", func(path string) error {
				return export.ExportPDF(path, a.project.Parcel, *a.project.Result, a.lastRun())
			})
		}),
		fyne.NewMenuItem("Export Stake Labels...", func() {
			a.exportResult("labels.pdf", func(path string) error {
				return export.ExportLabels(path, *a.project.Result)
			})
		}),
		fyne.NewMenuItem("Export Excel Schedule...", func() {
			a.exportResult("lots.xlsx", func(path string) error {
				return export.ExportExcel(path, *a.project.Result, a.lastRun())
			})
		}),
		fyne.NewMenuItem("Export DXF...", func() {
			a.exportResult("lots.dxf", func(path string) error {
				return export.ExportDXF(path, a.project.Parcel, *a.project.Result)
			})
		}),
		fyne.NewMenuItem("Export Shapefile...", func() {
			a.exportResult("lots.shp", func(path string) error {
				return export.ExportShapefile(path, *a.project.Result)
			})
		}),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Quit", func() {
			a.window.Close()
		}),
	)

	editMenu := fyne.NewMenu("Edit",
		fyne.NewMenuItem("Undo Run", a.undo),
		fyne.NewMenuItem("Redo Run", a.redo),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Settings...", a.showSettingsDialog),
	)

	toolsMenu := fyne.NewMenu("Tools",
		fyne.NewMenuItem("Generate Lots", a.generate),
		fyne.NewMenuItem("Run History...", a.showRunsDialog),
		fyne.NewMenuItem("Import / Export Data...", a.showImportExportDialog),
	)

	helpMenu := fyne.NewMenu("Help",
		fyne.NewMenuItem("About", a.showAboutDialog),
	)

	a.window.SetMainMenu(fyne.NewMainMenu(fileMenu, editMenu, toolsMenu, helpMenu))
}

func (a *App) recentMenuItem() *fyne.MenuItem {
	item := fyne.NewMenuItem("Open Recent", nil)
	var children []*fyne.MenuItem
	for _, p := range a.config.RecentFiles {
		path := p
		children = append(children, fyne.NewMenuItem(filepath.Base(path), func() {
			a.openParcelPath(path)
		}))
	}
	if len(children) == 0 {
		item.Disabled = true
	}
	item.ChildMenu = fyne.NewMenu("", children...)
	return item
}

func (a *App) showAboutDialog() {
	dialog.ShowInformation(
		"About LotiSmart",
		"LotiSmart - Parcel Lot Planner\n\n"+
			"Splits a land parcel into a grid of equal square lots\n"+
			"that each lie fully inside the parcel.",
		a.window,
	)
}

// Build constructs the full UI and returns the root container.
func (a *App) Build() fyne.CanvasObject {
	a.status = widget.NewLabel("")
	a.resultContainer = container.NewStack()
	a.refreshResults()

	split := container.NewHSplit(a.buildSidebar(), a.resultContainer)
	split.Offset = 0.22
	return container.NewBorder(nil, a.status, nil, nil, split)
}

// ─── Sidebar ───────────────────────────────────────────────

func (a *App) buildSidebar() fyne.CanvasObject {
	a.minAreaEntry = widget.NewEntry()
	a.minAreaEntry.Validator = a.validateMinAreaText

	a.containmentSelect = widget.NewSelect(containmentOptions, nil)
	a.syncSidebar()

	generateBtn := widget.NewButtonWithIcon("Generate", theme.MediaPlayIcon(), a.generate)
	generateBtn.Importance = widget.HighImportance

	form := widget.NewForm(
		widget.NewFormItem("Min lot area (m²)", a.minAreaEntry),
		widget.NewFormItem("Boundary", a.containmentSelect),
	)

	return container.NewVBox(
		widget.NewLabelWithStyle("Lot Settings", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		form,
		container.NewHBox(layout.NewSpacer(), generateBtn),
		widget.NewSeparator(),
		widget.NewButtonWithIcon("Open Parcel...", theme.FolderOpenIcon(), a.openParcel),
	)
}

func (a *App) validateMinAreaText(text string) error {
	v, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
	if err != nil {
		return fmt.Errorf("enter a number")
	}
	return a.svc.ValidateMinArea(v)
}

// syncSidebar shows the project settings in the sidebar widgets.
func (a *App) syncSidebar() {
	if a.minAreaEntry == nil {
		return
	}
	a.minAreaEntry.SetText(strconv.FormatFloat(a.project.Settings.MinArea, 'f', -1, 64))
	if a.project.Settings.Containment == model.BoundaryExclusive {
		a.containmentSelect.SetSelected(containmentOptions[1])
	} else {
		a.containmentSelect.SetSelected(containmentOptions[0])
	}
}

// readSettings reads the sidebar into run settings.
func (a *App) readSettings() (model.Settings, error) {
	s := a.project.Settings
	v, err := strconv.ParseFloat(strings.TrimSpace(a.minAreaEntry.Text), 64)
	if err != nil {
		return s, fmt.Errorf("%w: minimum lot area %q is not a number", model.ErrInvalidParameter, a.minAreaEntry.Text)
	}
	s.MinArea = v
	s.Containment = model.BoundaryInclusive
	if a.containmentSelect.Selected == containmentOptions[1] {
		s.Containment = model.BoundaryExclusive
	}
	return s, nil
}

// ─── Results ───────────────────────────────────────────────

func (a *App) refreshResults() {
	if a.resultContainer == nil {
		return
	}
	a.resultContainer.Objects = []fyne.CanvasObject{widgets.RenderResult(a.project.Parcel, a.project.Result)}
	a.resultContainer.Refresh()

	if a.project.Parcel.IsEmpty() {
		a.status.SetText("No parcel loaded")
		return
	}
	a.status.SetText(fmt.Sprintf("%s | %s", a.project.Source, widgets.ResultSummary(a.project.Parcel, a.project.Result)))
}

func (a *App) lastRun() model.RunRecord {
	if a.project.LastRun == nil {
		return model.RunRecord{}
	}
	return *a.project.LastRun
}

// ─── Parcel & Partition ────────────────────────────────────

func (a *App) openParcel() {
	d := dialog.NewFileOpen(func(reader fyne.URIReadCloser, err error) {
		if err != nil || reader == nil {
			return
		}
		defer reader.Close()
		a.openParcelPath(reader.URI().Path())
	}, a.window)
	d.SetFilter(storage.NewExtensionFileFilter(importer.SupportedExtensions))
	d.Show()
}

func (a *App) openParcelPath(path string) {
	warnings, err := a.loadParcel(path)
	if err != nil {
		dialog.ShowError(err, a.window)
		return
	}
	a.config.AddRecentFile(path, maxRecentFiles)
	if err := a.saveConfig(); err != nil {
		logger.L().Warn("config_save_failed", "err", err)
	}
	a.SetupMenus()
	a.refreshResults()
	if len(warnings) > 0 {
		dialog.ShowInformation("Import Warnings", strings.Join(warnings, "\n"), a.window)
	}
}

// loadParcel imports a parcel file and makes it the project parcel. Regions
// are unified once here so the canvas shows what the partitioner sees.
func (a *App) loadParcel(path string) ([]string, error) {
	result := importer.ImportFile(path)
	if err := result.Err(); err != nil {
		return result.Warnings, err
	}
	region, err := engine.Unify(result.Regions)
	if err != nil {
		return result.Warnings, err
	}
	if region.CRS == "" {
		region.CRS = result.CRS
	}

	a.project.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	a.project.Source = filepath.Base(path)
	a.project.Parcel = region
	a.project.Result = nil
	a.project.LastRun = nil
	a.history.Clear()
	return result.Warnings, nil
}

// generate partitions the parcel with the sidebar settings.
func (a *App) generate() {
	if a.project.Parcel.IsEmpty() {
		dialog.ShowInformation("No parcel", "Open a parcel file first.", a.window)
		return
	}
	settings, err := a.readSettings()
	if err != nil {
		dialog.ShowError(err, a.window)
		return
	}

	err = a.partition(context.Background(), settings)
	a.refreshResults()
	switch {
	case errors.Is(err, service.ErrHistory):
		dialog.ShowInformation("Run not recorded", err.Error(), a.window)
	case err != nil:
		dialog.ShowError(err, a.window)
	case a.project.Result.Len() == 0:
		dialog.ShowInformation("No lots",
			fmt.Sprintf("No lot of %g m² fits inside the parcel.", settings.MinArea), a.window)
	}
}

// partition runs the service and records the previous state for undo. A
// failed run leaves the project unchanged.
func (a *App) partition(ctx context.Context, settings model.Settings) error {
	before := MakeSnapshot(a.project, fmt.Sprintf("Generate %g m²", settings.MinArea))

	res, err := a.svc.Partition(ctx, a.project.Source, []model.Region{a.project.Parcel}, settings)
	if err != nil && !errors.Is(err, service.ErrHistory) {
		return err
	}

	a.history.Push(before)
	a.project.Settings = settings
	a.project.Result = &res.Lots
	rec := res.Record
	a.project.LastRun = &rec
	return err
}

func (a *App) undo() {
	s, ok := a.history.Undo(MakeSnapshot(a.project, "current"))
	if !ok {
		return
	}
	s.Apply(&a.project)
	a.syncSidebar()
	a.refreshResults()
}

func (a *App) redo() {
	s, ok := a.history.Redo(MakeSnapshot(a.project, "current"))
	if !ok {
		return
	}
	s.Apply(&a.project)
	a.syncSidebar()
	a.refreshResults()
}

func (a *App) showRunsDialog() {
	runs, err := a.svc.Runs(context.Background())
	if err != nil {
		dialog.ShowError(err, a.window)
		return
	}
	if len(runs) == 0 {
		dialog.ShowInformation("Run History", "No runs recorded yet.", a.window)
		return
	}

	rows := container.NewVBox(container.NewGridWithColumns(4,
		widget.NewLabelWithStyle("Date", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		widget.NewLabelWithStyle("File", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		widget.NewLabelWithStyle("Min area", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		widget.NewLabelWithStyle("Lots", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
	))
	// Newest first
	for i := len(runs) - 1; i >= 0; i-- {
		r := runs[i]
		rows.Add(container.NewGridWithColumns(4,
			widget.NewLabel(r.Timestamp.Local().Format("2006-01-02 15:04")),
			widget.NewLabel(r.Source),
			widget.NewLabel(fmt.Sprintf("%.1f", r.MinArea)),
			widget.NewLabel(strconv.Itoa(r.LotCount)),
		))
	}

	d := dialog.NewCustom("Run History", "Close", container.NewVScroll(rows), a.window)
	d.Resize(fyne.NewSize(640, 420))
	d.Show()
}

// ─── Project Files ─────────────────────────────────────────

func (a *App) saveProject() {
	d := dialog.NewFileSave(func(writer fyne.URIWriteCloser, err error) {
		if err != nil || writer == nil {
			return
		}
		defer writer.Close()
		if err := project.Save(writer.URI().Path(), a.project); err != nil {
			dialog.ShowError(err, a.window)
		}
	}, a.window)
	d.SetFileName(a.project.Name + project.FileExtension)
	d.Show()
}

func (a *App) loadProject() {
	d := dialog.NewFileOpen(func(reader fyne.URIReadCloser, err error) {
		if err != nil || reader == nil {
			return
		}
		defer reader.Close()
		proj, err := project.Load(reader.URI().Path())
		if err != nil {
			dialog.ShowError(err, a.window)
			return
		}
		a.project = proj
		a.history.Clear()
		a.syncSidebar()
		a.refreshResults()
	}, a.window)
	d.SetFilter(storage.NewExtensionFileFilter([]string{project.FileExtension}))
	d.Show()
}

// ─── Export ────────────────────────────────────────────────

// exportResult asks for a destination and runs write on it.
func (a *App) exportResult(defaultName string, write func(path string) error) {
	if a.project.Result == nil {
		dialog.ShowInformation("No results", "Generate lots before exporting.", a.window)
		return
	}

	d := dialog.NewFileSave(func(writer fyne.URIWriteCloser, err error) {
		if err != nil || writer == nil {
			return
		}
		path := writer.URI().Path()
		// The exporters create the file themselves
		writer.Close()
		if err := write(path); err != nil {
			dialog.ShowError(err, a.window)
			return
		}
		dialog.ShowInformation("Export Complete", fmt.Sprintf("Saved to %s", path), a.window)
	}, a.window)
	d.SetFileName(defaultName)
	d.Show()
}
