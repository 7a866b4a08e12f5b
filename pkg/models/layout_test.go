package models

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeBoardFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "board.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write board file: %v", err)
	}
	return path
}

func TestLoadBoardFile(t *testing.T) {
	path := writeBoardFile(t, `
layout:
  width: 600
  height: 800
  left:
    sections:
      - agency: metro
        direction: Northbound
      - agency: metro
        direction: Southbound
  right:
    sections:
      - agency: regional
        direction: Inbound
stops:
  - agency: metro
    path: /api/stops/17978
  - agency: regional
    path: /api/stops/40234
`)

	file, err := LoadBoardFile(path)
	if err != nil {
		t.Fatalf("LoadBoardFile failed: %v", err)
	}

	if file.Layout.Width != 600 || file.Layout.Height != 800 {
		t.Errorf("Unexpected dimensions %dx%d", file.Layout.Width, file.Layout.Height)
	}
	if len(file.Layout.Left.Sections) != 2 {
		t.Errorf("Expected 2 left sections, got %d", len(file.Layout.Left.Sections))
	}
	if got := file.Layout.Left.Sections[1].Direction; got != "Southbound" {
		t.Errorf("Expected second left section Southbound, got %q", got)
	}
	if len(file.Layout.Right.Sections) != 1 {
		t.Errorf("Expected 1 right section, got %d", len(file.Layout.Right.Sections))
	}
	if len(file.Stops) != 2 {
		t.Fatalf("Expected 2 stop feeds, got %d", len(file.Stops))
	}
	if file.Stops[0].Agency != "metro" || file.Stops[0].Path != "/api/stops/17978" {
		t.Errorf("Unexpected first stop feed: %+v", file.Stops[0])
	}
}

func TestLoadBoardFileMissing(t *testing.T) {
	if _, err := LoadBoardFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("Expected error for missing file")
	}
}

func TestLoadBoardFileInvalidYAML(t *testing.T) {
	path := writeBoardFile(t, "layout: [not a mapping")
	if _, err := LoadBoardFile(path); err == nil {
		t.Error("Expected error for invalid YAML")
	}
}

func TestBoardFileValidate(t *testing.T) {
	valid := func() BoardFile {
		return BoardFile{
			Layout: LayoutConfig{
				Width:  600,
				Height: 800,
				Left: PanelConfig{Sections: []SectionSpec{
					{Agency: "metro", Direction: "Northbound"},
				}},
			},
			Stops: []StopFeed{{Agency: "metro", Path: "/api/stops/17978"}},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*BoardFile)
		wantErr string
	}{
		{
			name:   "valid",
			mutate: func(f *BoardFile) {},
		},
		{
			name:    "zero width",
			mutate:  func(f *BoardFile) { f.Layout.Width = 0 },
			wantErr: "invalid layout dimensions",
		},
		{
			name:    "negative height",
			mutate:  func(f *BoardFile) { f.Layout.Height = -1 },
			wantErr: "invalid layout dimensions",
		},
		{
			name:    "section missing agency",
			mutate:  func(f *BoardFile) { f.Layout.Left.Sections[0].Agency = "" },
			wantErr: "agency is required",
		},
		{
			name:    "section missing direction",
			mutate:  func(f *BoardFile) { f.Layout.Left.Sections[0].Direction = "" },
			wantErr: "direction is required",
		},
		{
			name:    "feed missing path",
			mutate:  func(f *BoardFile) { f.Stops[0].Path = "" },
			wantErr: "path is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			file := valid()
			tt.mutate(&file)

			err := file.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Expected valid file, got %v", err)
				}
				return
			}
			if err == nil {
				t.Fatal("Expected validation error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Expected error containing %q, got %q", tt.wantErr, err.Error())
			}
		})
	}
}
