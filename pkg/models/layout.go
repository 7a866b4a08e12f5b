package models

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// SectionSpec identifies one (agency, direction) slot within a panel.
// The pair is not guaranteed to exist in the fetched stop data.
type SectionSpec struct {
	Agency    string `yaml:"agency" json:"agency"`
	Direction string `yaml:"direction" json:"direction"`
}

// PanelConfig is an ordered list of sections; the order is the vertical
// stacking order within the panel.
type PanelConfig struct {
	Sections []SectionSpec `yaml:"sections" json:"sections"`
}

// LayoutConfig describes the board geometry: canvas dimensions in
// pixels (pre-rotation) and the two panel columns.
type LayoutConfig struct {
	Width  int         `yaml:"width" json:"width"`
	Height int         `yaml:"height" json:"height"`
	Left   PanelConfig `yaml:"left" json:"left"`
	Right  PanelConfig `yaml:"right" json:"right"`
}

// StopFeed names one upstream predictions feed and the agency id its
// departures are filed under.
type StopFeed struct {
	Agency string `yaml:"agency" json:"agency"`
	Path   string `yaml:"path" json:"path"`
}

// BoardFile is the on-disk YAML document: the panel layout plus the
// transit feeds that populate it.
type BoardFile struct {
	Layout LayoutConfig `yaml:"layout" json:"layout"`
	Stops  []StopFeed   `yaml:"stops" json:"stops"`
}

// LoadBoardFile reads and validates the board YAML file.
func LoadBoardFile(path string) (*BoardFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read board file: %w", err)
	}

	var file BoardFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse board file: %w", err)
	}

	if err := file.Validate(); err != nil {
		return nil, err
	}

	return &file, nil
}

// Validate checks the loaded document for values the renderer cannot
// work with.
func (f *BoardFile) Validate() error {
	if f.Layout.Width <= 0 || f.Layout.Height <= 0 {
		return fmt.Errorf("invalid layout dimensions %dx%d", f.Layout.Width, f.Layout.Height)
	}

	for _, panel := range []struct {
		name  string
		panel PanelConfig
	}{
		{"left", f.Layout.Left},
		{"right", f.Layout.Right},
	} {
		for i, section := range panel.panel.Sections {
			if section.Agency == "" {
				return fmt.Errorf("%s panel section %d: agency is required", panel.name, i)
			}
			if section.Direction == "" {
				return fmt.Errorf("%s panel section %d: direction is required", panel.name, i)
			}
		}
	}

	for i, feed := range f.Stops {
		if feed.Agency == "" {
			return fmt.Errorf("stop feed %d: agency is required", i)
		}
		if feed.Path == "" {
			return fmt.Errorf("stop feed %d: path is required", i)
		}
	}

	return nil
}
