package scene

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pkg/errors"
)

// SceneInfo represents a selectable scene with its metadata
type SceneInfo struct {
	ID          string `json:"id"`          // Unique identifier
	DisplayName string `json:"displayName"` // UI display name
	Description string `json:"description"` // Optional description
	Layout      string `json:"layout"`      // LayoutRandom, LayoutPerlin, LayoutFile or LayoutPLY
	FilePath    string `json:"filePath"`    // Path to the JSON file (file layout only)
}

// BuiltinScenes returns the procedural layouts
func BuiltinScenes() []SceneInfo {
	return []SceneInfo{
		{
			ID:          LayoutRandom,
			DisplayName: "Random Spheres",
			Description: "Small spheres scattered uniformly through a cube",
			Layout:      LayoutRandom,
		},
		{
			ID:          LayoutPerlin,
			DisplayName: "Perlin Surface",
			Description: "Spheres on a Perlin noise height field, colored by depth",
			Layout:      LayoutPerlin,
		},
	}
}

// ListSceneFiles scans dir for JSON scene files and PLY point clouds.
// A missing directory yields an empty list.
func ListSceneFiles(dir string) ([]SceneInfo, error) {
	if _, err := os.Stat(dir); err != nil {
		return []SceneInfo{}, nil
	}

	scenes := []SceneInfo{}
	for _, pattern := range []string{"*.json", "*.ply"} {
		files, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return nil, errors.Wrap(err, "failed to scan scenes directory")
		}
		for _, filePath := range files {
			scenes = append(scenes, ParseSceneMetadata(filePath))
		}
	}

	// Sort scenes by display name
	sort.Slice(scenes, func(i, j int) bool {
		return scenes[i].DisplayName < scenes[j].DisplayName
	})

	return scenes, nil
}

// ParseSceneMetadata reads the name and description of a JSON scene file,
// falling back to the file name when they are missing or unreadable.
// PLY point clouds carry no metadata and always use the file name.
func ParseSceneMetadata(filePath string) SceneInfo {
	nameWithoutExt := strings.TrimSuffix(filepath.Base(filePath), filepath.Ext(filePath))

	if strings.EqualFold(filepath.Ext(filePath), ".ply") {
		return SceneInfo{
			ID:          "ply:" + nameWithoutExt,
			DisplayName: titleCase(nameWithoutExt),
			Description: "Point cloud",
			Layout:      LayoutPLY,
			FilePath:    filePath,
		}
	}

	info := SceneInfo{
		ID:          "file:" + nameWithoutExt,
		DisplayName: titleCase(nameWithoutExt),
		Layout:      LayoutFile,
		FilePath:    filePath,
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		return info
	}

	var header sceneFile
	if err := json.Unmarshal(data, &header); err != nil {
		return info
	}
	if header.Name != "" {
		info.DisplayName = header.Name
	}
	info.Description = header.Description

	return info
}

// ListAllScenes returns the built-in layouts followed by the scene files in dir
func ListAllScenes(dir string) ([]SceneInfo, error) {
	files, err := ListSceneFiles(dir)
	if err != nil {
		return nil, err
	}
	return append(BuiltinScenes(), files...), nil
}

// titleCase converts a filename-style string to title case
// e.g., "dense-cluster" -> "Dense Cluster"
func titleCase(s string) string {
	s = strings.ReplaceAll(s, "-", " ")
	s = strings.ReplaceAll(s, "_", " ")

	words := strings.Fields(s)
	for i, word := range words {
		words[i] = strings.ToUpper(word[:1]) + strings.ToLower(word[1:])
	}

	return strings.Join(words, " ")
}
