package project

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/piwi3910/LotiSmart/internal/model"
)

// FileExtension is appended to project files saved from the desktop app.
const FileExtension = ".loti"

// Save writes the project as indented JSON.
func Save(path string, proj model.Project) error {
	data, err := json.MarshalIndent(proj, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal project: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write project: %w", err)
	}
	return nil
}

// Load reads a project file. Settings missing from older files fall back to
// the defaults.
func Load(path string) (model.Project, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return model.Project{}, fmt.Errorf("failed to read project: %w", err)
	}
	proj := model.NewProject()
	if err := json.Unmarshal(data, &proj); err != nil {
		return model.Project{}, fmt.Errorf("failed to parse project: %w", err)
	}
	if proj.Settings.MinArea == 0 {
		proj.Settings.MinArea = model.DefaultMinArea
	}
	return proj, nil
}
