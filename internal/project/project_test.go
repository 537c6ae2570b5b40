package project

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/paulmach/orb"
	"github.com/piwi3910/LotiSmart/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveAndLoadProject(t *testing.T) {
	path := filepath.Join(t.TempDir(), "north"+FileExtension)

	proj := model.NewProject()
	proj.Name = "North Field"
	proj.Source = "/data/north.geojson"
	proj.Settings.MinArea = 25
	proj.Settings.Containment = model.BoundaryExclusive
	proj.Parcel = model.NewRegion("EPSG:32633",
		orb.Ring{{0, 0}, {10, 0}, {10, 10}, {0, 10}},
		orb.Ring{{4, 4}, {4, 6}, {6, 6}, {6, 4}},
	)
	lots := model.LotSet{CRS: "EPSG:32633", Side: 5, Lots: []model.Lot{
		model.NewLot(1, model.Square{Origin: orb.Point{0, 0}, Side: 5}),
	}}
	rec := model.NewRunRecord(proj.Source, 25, 1, time.Date(2026, 2, 1, 8, 0, 0, 0, time.UTC))
	proj.Result = &lots
	proj.LastRun = &rec

	require.NoError(t, Save(path, proj))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, proj.Name, loaded.Name)
	assert.Equal(t, model.BoundaryExclusive, loaded.Settings.Containment)
	assert.Equal(t, proj.Parcel, loaded.Parcel)
	require.NotNil(t, loaded.Result)
	assert.Equal(t, lots, *loaded.Result)
	require.NotNil(t, loaded.LastRun)
	assert.Equal(t, rec.ID, loaded.LastRun.ID)
}

func TestLoadProjectFillsMissingSettings(t *testing.T) {
	path := filepath.Join(t.TempDir(), "old.loti")
	require.NoError(t, os.WriteFile(path, []byte(`{"name":"Old"}`), 0644))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "Old", loaded.Name)
	assert.Equal(t, model.DefaultMinArea, loaded.Settings.MinArea)
	assert.Nil(t, loaded.Result)
}

func TestLoadProjectErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.loti"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.loti")
	require.NoError(t, os.WriteFile(path, []byte("{"), 0644))
	_, err = Load(path)
	assert.Error(t, err)
}
