package ui

import (
	"context"
	"fmt"
	"strconv"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"

	"github.com/piwi3910/LotiSmart/internal/model"
	"github.com/piwi3910/LotiSmart/internal/project"
)

var historyBackends = []string{model.HistoryCSV, model.HistoryPostgres, model.HistoryRedis, model.HistoryNone}

// showSettingsDialog displays the application settings editor. History
// changes apply on the next start.
func (a *App) showSettingsDialog() {
	cfg := a.config

	floatEntry := func(val *float64) *widget.Entry {
		e := widget.NewEntry()
		e.SetText(strconv.FormatFloat(*val, 'f', -1, 64))
		e.OnChanged = func(text string) {
			if v, err := strconv.ParseFloat(text, 64); err == nil {
				*val = v
			}
		}
		return e
	}

	stringEntry := func(val *string) *widget.Entry {
		e := widget.NewEntry()
		e.SetText(*val)
		e.OnChanged = func(text string) { *val = text }
		return e
	}

	themeSelect := widget.NewSelect([]string{"system", "light", "dark"}, func(selected string) {
		cfg.Theme = selected
	})
	themeSelect.SetSelected(cfg.Theme)

	containmentSelect := widget.NewSelect(containmentOptions, func(selected string) {
		cfg.DefaultContainment = model.BoundaryInclusive
		if selected == containmentOptions[1] {
			cfg.DefaultContainment = model.BoundaryExclusive
		}
	})
	containmentSelect.SetSelected(containmentOptions[0])
	if cfg.DefaultContainment == model.BoundaryExclusive {
		containmentSelect.SetSelected(containmentOptions[1])
	}

	backendSelect := widget.NewSelect(historyBackends, func(selected string) {
		cfg.History.Backend = selected
	})
	backendSelect.SetSelected(cfg.History.Backend)

	dsnEntry := widget.NewPasswordEntry()
	dsnEntry.SetText(cfg.History.DSN)
	dsnEntry.OnChanged = func(text string) { cfg.History.DSN = text }

	formItems := []*widget.FormItem{
		widget.NewFormItem("Theme", themeSelect),
		widget.NewFormItem("", widget.NewSeparator()),
		widget.NewFormItem("Default Min Lot Area (m²)", floatEntry(&cfg.DefaultMinArea)),
		widget.NewFormItem("Smallest Allowed Area (m²)", floatEntry(&cfg.MinAllowedArea)),
		widget.NewFormItem("Default Boundary", containmentSelect),
		widget.NewFormItem("Default CRS", stringEntry(&cfg.DefaultCRS)),
		widget.NewFormItem("", widget.NewSeparator()),
		widget.NewFormItem("History Backend", backendSelect),
		widget.NewFormItem("CSV Path", stringEntry(&cfg.History.Path)),
		widget.NewFormItem("Postgres DSN", dsnEntry),
		widget.NewFormItem("Redis Address", stringEntry(&cfg.History.RedisAddr)),
	}

	d := dialog.NewForm("Settings", "Save", "Cancel", formItems,
		func(ok bool) {
			if !ok {
				return
			}
			if err := cfg.Validate(); err != nil {
				dialog.ShowError(err, a.window)
				return
			}
			a.config = cfg
			a.ApplyTheme()
			if err := a.saveConfig(); err != nil {
				dialog.ShowError(fmt.Errorf("failed to save settings: %w", err), a.window)
			} else {
				dialog.ShowInformation("Settings Saved", "Application settings have been saved.", a.window)
			}
		},
		a.window,
	)
	d.Resize(fyne.NewSize(520, 520))
	d.Show()
}

// showImportExportDialog displays the backup dialog for settings and run history.
func (a *App) showImportExportDialog() {
	exportBtn := widget.NewButton("Export All Data...", func() {
		d := dialog.NewFileSave(func(writer fyne.URIWriteCloser, err error) {
			if err != nil || writer == nil {
				return
			}
			defer writer.Close()
			path := writer.URI().Path()
			if err := a.exportBackup(path); err != nil {
				dialog.ShowError(err, a.window)
			} else {
				dialog.ShowInformation("Export Complete",
					fmt.Sprintf("All application data exported to:\n%s", path), a.window)
			}
		}, a.window)
		d.SetFileName("lotismart-backup.json")
		d.Show()
	})

	importBtn := widget.NewButton("Import Settings...", func() {
		dialog.ShowConfirm("Import Settings",
			"Importing will replace your current application settings.\nThe run history is not changed.\n\nAre you sure you want to continue?",
			func(ok bool) {
				if !ok {
					return
				}
				d := dialog.NewFileOpen(func(reader fyne.URIReadCloser, err error) {
					if err != nil || reader == nil {
						return
					}
					defer reader.Close()
					backup, err := a.importBackup(reader.URI().Path())
					if err != nil {
						dialog.ShowError(err, a.window)
						return
					}
					dialog.ShowInformation("Import Complete",
						fmt.Sprintf("Settings imported from backup created at %s.", backup.CreatedAt), a.window)
				}, a.window)
				d.Show()
			},
			a.window,
		)
	})

	content := container.NewVBox(
		widget.NewLabel("Export settings and run history to a backup file,\nor restore settings from a previously exported backup."),
		widget.NewSeparator(),
		exportBtn,
		widget.NewSeparator(),
		importBtn,
	)

	d := dialog.NewCustom("Import / Export Data", "Close", content, a.window)
	d.Resize(fyne.NewSize(450, 250))
	d.Show()
}

func (a *App) exportBackup(path string) error {
	runs, err := a.svc.Runs(context.Background())
	if err != nil {
		return fmt.Errorf("failed to read run history: %w", err)
	}
	return project.ExportAllData(path, a.config, runs)
}

func (a *App) importBackup(path string) (project.BackupData, error) {
	backup, err := project.ImportAllData(path)
	if err != nil {
		return backup, err
	}
	if err := backup.Config.Validate(); err != nil {
		return backup, fmt.Errorf("backup settings are invalid: %w", err)
	}
	a.config = backup.Config
	a.ApplyTheme()
	if err := a.saveConfig(); err != nil {
		return backup, fmt.Errorf("failed to save imported settings: %w", err)
	}
	return backup, nil
}

// saveConfig persists the current app config to disk.
func (a *App) saveConfig() error {
	path := a.configPath
	if path == "" {
		path = project.DefaultConfigPath()
	}
	return project.SaveAppConfig(path, a.config)
}
