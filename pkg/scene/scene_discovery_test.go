package scene

import (
	"os"
	"path/filepath"
	"testing"
)

func TestTitleCase(t *testing.T) {
	testCases := []struct {
		input    string
		expected string
	}{
		{"dense-cluster", "Dense Cluster"},
		{"two_spheres", "Two Spheres"},
		{"my-custom-scene", "My Custom Scene"},
		{"simple", "Simple"},
		{"UPPER-case", "Upper Case"},
		{"", ""},
	}

	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			result := titleCase(tc.input)
			if result != tc.expected {
				t.Errorf("titleCase(%q) = %q, want %q", tc.input, result, tc.expected)
			}
		})
	}
}

func TestParseSceneMetadata(t *testing.T) {
	dir := t.TempDir()

	testCases := []struct {
		file        string
		content     string
		displayName string
		description string
	}{
		{"with-name.json", `{"name": "Occluder Pair", "description": "Two spheres", "spheres": []}`, "Occluder Pair", "Two spheres"},
		{"no-name.json", `{"spheres": []}`, "No Name", ""},
		{"broken_file.json", `{"spheres": [`, "Broken File", ""},
	}

	for _, tc := range testCases {
		t.Run(tc.file, func(t *testing.T) {
			path := filepath.Join(dir, tc.file)
			if err := os.WriteFile(path, []byte(tc.content), 0o644); err != nil {
				t.Fatalf("Failed to write scene file: %v", err)
			}

			info := ParseSceneMetadata(path)
			if info.DisplayName != tc.displayName {
				t.Errorf("DisplayName = %q, want %q", info.DisplayName, tc.displayName)
			}
			if info.Description != tc.description {
				t.Errorf("Description = %q, want %q", info.Description, tc.description)
			}
			if info.Layout != LayoutFile || info.FilePath != path {
				t.Errorf("Expected file layout at %s, got %q at %s", path, info.Layout, info.FilePath)
			}
		})
	}
}

func TestListSceneFiles_MissingDirectory(t *testing.T) {
	scenes, err := ListSceneFiles(filepath.Join(t.TempDir(), "missing"))
	if err != nil {
		t.Errorf("ListSceneFiles() error: %v", err)
	}
	if scenes == nil || len(scenes) != 0 {
		t.Errorf("Expected empty non-nil slice, got %v", scenes)
	}
}

func TestListAllScenes(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.json", "a.json", "cloud.ply", "ignored.txt"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(`{"spheres": []}`), 0o644); err != nil {
			t.Fatalf("Failed to write scene file: %v", err)
		}
	}

	scenes, err := ListAllScenes(dir)
	if err != nil {
		t.Fatalf("ListAllScenes() error: %v", err)
	}

	expectedIDs := []string{LayoutRandom, LayoutPerlin, "file:a", "file:b", "ply:cloud"}
	if len(scenes) != len(expectedIDs) {
		t.Fatalf("Expected %d scenes, got %d", len(expectedIDs), len(scenes))
	}
	for i, id := range expectedIDs {
		if scenes[i].ID != id {
			t.Errorf("Scene %d: ID = %q, want %q", i, scenes[i].ID, id)
		}
	}
}

func TestParseSceneMetadata_PointCloud(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stanford-bunny.ply")
	info := ParseSceneMetadata(path)

	if info.ID != "ply:stanford-bunny" || info.DisplayName != "Stanford Bunny" {
		t.Errorf("Unexpected point cloud info %+v", info)
	}
	if info.Layout != LayoutPLY || info.FilePath != path {
		t.Errorf("Expected ply layout at %s, got %q at %s", path, info.Layout, info.FilePath)
	}
}
