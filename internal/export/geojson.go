package export

import (
	"fmt"
	"os"

	"github.com/paulmach/orb/geojson"
	"github.com/piwi3910/LotiSmart/internal/model"
)

// LotFeatures converts a lot set into a GeoJSON feature collection. Each lot
// becomes a Polygon feature carrying its number, label and area. The CRS is
// written as a named-CRS member so the file reads back with the same tag.
func LotFeatures(lotSet model.LotSet) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, lot := range lotSet.Lots {
		f := geojson.NewFeature(lot.Square.Polygon())
		f.Properties["lot"] = lot.Number
		f.Properties["label"] = lot.Label
		f.Properties["area"] = lot.Square.Area()
		f.Properties["side"] = lot.Square.Side
		fc.Append(f)
	}
	if lotSet.CRS != "" {
		fc.ExtraMembers = geojson.Properties{
			"crs": map[string]any{
				"type":       "name",
				"properties": map[string]any{"name": lotSet.CRS},
			},
		}
	}
	return fc
}

// EncodeGeoJSON returns the lot set as a GeoJSON document.
func EncodeGeoJSON(lotSet model.LotSet) ([]byte, error) {
	data, err := LotFeatures(lotSet).MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("failed to encode lots: %w", err)
	}
	return data, nil
}

// ExportGeoJSON writes the lot set to a GeoJSON file. An empty lot set
// produces an empty FeatureCollection.
func ExportGeoJSON(path string, lotSet model.LotSet) error {
	data, err := EncodeGeoJSON(lotSet)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write GeoJSON: %w", err)
	}
	return nil
}
