// LotiSmart desktop viewer.
//
// Opens a parcel file, splits it into square lots and exports the result.
//
// Build:
//   go build -o lotismart ./cmd/lotismart
//
// Cross-compile with fyne-cross for proper packaging:
//   go install github.com/fyne-io/fyne-cross@latest
//   fyne-cross windows -arch=amd64
//   fyne-cross darwin  -arch=amd64,arm64

package main

import (
	"context"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"github.com/joho/godotenv"

	"github.com/piwi3910/LotiSmart/internal/history"
	"github.com/piwi3910/LotiSmart/internal/logger"
	"github.com/piwi3910/LotiSmart/internal/model"
	"github.com/piwi3910/LotiSmart/internal/project"
	"github.com/piwi3910/LotiSmart/internal/service"
	"github.com/piwi3910/LotiSmart/internal/ui"
)

func main() {
	_ = godotenv.Load(".env")
	logger.Setup()
	l := logger.L()

	configPath := project.DefaultConfigPath()
	cfg, err := project.LoadEffectiveConfig(configPath)
	if err != nil {
		l.Error("config_invalid", "path", configPath, "err", err)
		cfg = model.DefaultAppConfig()
	}

	// A desktop session still works without a reachable history store
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	log, err := history.Open(ctx, cfg.History)
	cancel()
	if err != nil {
		l.Warn("history_unavailable", "backend", cfg.History.Backend, "err", err)
		log = history.NopLog{}
	}
	svc := service.New(cfg, log)
	defer svc.Close()

	application := app.NewWithID("com.piwi3910.lotismart")
	window := application.NewWindow("LotiSmart - Parcel Lot Planner")

	appUI := ui.NewApp(application, window, svc, configPath)
	appUI.ApplyTheme()
	appUI.SetupMenus()
	window.SetContent(appUI.Build())
	window.Resize(fyne.NewSize(1280, 800))
	window.CenterOnScreen()
	window.ShowAndRun()
}
