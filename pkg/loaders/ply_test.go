package loaders

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/df07/go-quadtree-raytracer/pkg/core"
)

// binaryPLY builds a binary PLY with a leading face element, so the vertex
// reader has to skip it first
func binaryPLY(order binary.ByteOrder, format string, withColors bool) []byte {
	var buf bytes.Buffer
	buf.WriteString("ply\n")
	buf.WriteString("format " + format + " 1.0\n")
	buf.WriteString("comment generated for tests\n")
	buf.WriteString("element face 1\n")
	buf.WriteString("property list uchar int vertex_indices\n")
	buf.WriteString("element vertex 2\n")
	buf.WriteString("property float x\n")
	buf.WriteString("property float y\n")
	buf.WriteString("property double z\n")
	if withColors {
		buf.WriteString("property uchar red\n")
		buf.WriteString("property uchar green\n")
		buf.WriteString("property uchar blue\n")
	}
	buf.WriteString("property float radius\n")
	buf.WriteString("end_header\n")

	binary.Write(&buf, order, uint8(3))
	binary.Write(&buf, order, [3]int32{0, 1, 0})

	vertices := []struct {
		x, y    float32
		z       float64
		r, g, b uint8
		radius  float32
	}{
		{1, 2, 3, 255, 0, 0, 0.5},
		{-1, 0.5, -2, 0, 51, 255, 0.25},
	}
	for _, v := range vertices {
		binary.Write(&buf, order, v.x)
		binary.Write(&buf, order, v.y)
		binary.Write(&buf, order, v.z)
		if withColors {
			binary.Write(&buf, order, [3]uint8{v.r, v.g, v.b})
		}
		binary.Write(&buf, order, v.radius)
	}
	return buf.Bytes()
}

func assertVec(t *testing.T, name string, got, want core.Vec3) {
	t.Helper()
	if got.Subtract(want).Length() > 1e-6 {
		t.Errorf("%s: expected %v, got %v", name, want, got)
	}
}

func TestReadPLY_Binary(t *testing.T) {
	tests := []struct {
		name   string
		order  binary.ByteOrder
		format string
	}{
		{"little endian", binary.LittleEndian, FormatLittleEndian},
		{"big endian", binary.BigEndian, FormatBigEndian},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cloud, err := ReadPLY(bytes.NewReader(binaryPLY(tt.order, tt.format, true)))
			if err != nil {
				t.Fatalf("ReadPLY: %v", err)
			}
			if len(cloud.Points) != 2 || len(cloud.Colors) != 2 || len(cloud.Radii) != 2 {
				t.Fatalf("Unexpected cloud sizes %d/%d/%d", len(cloud.Points), len(cloud.Colors), len(cloud.Radii))
			}
			assertVec(t, "point 0", cloud.Points[0], core.NewVec3(1, 2, 3))
			assertVec(t, "point 1", cloud.Points[1], core.NewVec3(-1, 0.5, -2))
			assertVec(t, "color 0", cloud.Colors[0], core.NewVec3(1, 0, 0))
			assertVec(t, "color 1", cloud.Colors[1], core.NewVec3(0, 0.2, 1))
			if cloud.Radii[0] != 0.5 || cloud.Radii[1] != 0.25 {
				t.Errorf("Unexpected radii %v", cloud.Radii)
			}
		})
	}
}

func TestReadPLY_WithoutColors(t *testing.T) {
	cloud, err := ReadPLY(bytes.NewReader(binaryPLY(binary.LittleEndian, FormatLittleEndian, false)))
	if err != nil {
		t.Fatalf("ReadPLY: %v", err)
	}
	if cloud.Colors != nil {
		t.Errorf("Expected no colors, got %v", cloud.Colors)
	}
	if len(cloud.Radii) != 2 {
		t.Errorf("Expected radii, got %v", cloud.Radii)
	}
}

func TestReadPLY_ASCII(t *testing.T) {
	content := `ply
format ascii 1.0
element vertex 3
property float x
property float y
property float z
property float red
property float green
property float blue
element face 1
property list uchar int vertex_indices
end_header
0 0 0 1 0.5 0
1.5 -2 4 0 0 1
-3 2.25 1e-1 0.2 0.2 0.2
3 0 1 2
`
	cloud, err := ReadPLY(strings.NewReader(content))
	if err != nil {
		t.Fatalf("ReadPLY: %v", err)
	}
	if len(cloud.Points) != 3 {
		t.Fatalf("Expected 3 points, got %d", len(cloud.Points))
	}
	assertVec(t, "point 2", cloud.Points[2], core.NewVec3(-3, 2.25, 0.1))
	// Float colors are taken as-is
	assertVec(t, "color 0", cloud.Colors[0], core.NewVec3(1, 0.5, 0))
	if cloud.Radii != nil {
		t.Errorf("Expected no radii, got %v", cloud.Radii)
	}
}

func TestReadPLY_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"missing magic", "format ascii 1.0\nend_header\n"},
		{"truncated header", "ply\nformat ascii 1.0\nelement vertex 1\n"},
		{"no vertex element", "ply\nformat ascii 1.0\nelement face 0\nend_header\n"},
		{"missing z", "ply\nformat ascii 1.0\nelement vertex 1\nproperty float x\nproperty float y\nend_header\n1 2\n"},
		{"unknown format", "ply\nformat binary_middle_endian 1.0\nelement vertex 0\nproperty float x\nproperty float y\nproperty float z\nend_header\n"},
		{"unknown type", "ply\nformat ascii 1.0\nelement vertex 1\nproperty quad x\nend_header\n"},
		{"bad count", "ply\nformat ascii 1.0\nelement vertex many\nend_header\n"},
		{"short ascii data", "ply\nformat ascii 1.0\nelement vertex 2\nproperty float x\nproperty float y\nproperty float z\nend_header\n1 2 3\n4 5\n"},
		{"bad ascii number", "ply\nformat ascii 1.0\nelement vertex 1\nproperty float x\nproperty float y\nproperty float z\nend_header\n1 two 3\n"},
		{"short binary data", "ply\nformat binary_little_endian 1.0\nelement vertex 1\nproperty float x\nproperty float y\nproperty float z\nend_header\n\x00\x00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ReadPLY(strings.NewReader(tt.content)); err == nil {
				t.Error("Expected error")
			}
		})
	}
}

func TestLoadPLY(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cloud.ply")
	if err := os.WriteFile(path, binaryPLY(binary.LittleEndian, FormatLittleEndian, true), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cloud, err := LoadPLY(path)
	if err != nil {
		t.Fatalf("LoadPLY: %v", err)
	}
	if len(cloud.Points) != 2 {
		t.Errorf("Expected 2 points, got %d", len(cloud.Points))
	}

	if _, err := LoadPLY(filepath.Join(t.TempDir(), "missing.ply")); err == nil {
		t.Error("Expected error for a missing file")
	}
}

func TestParsePLYHeader(t *testing.T) {
	content := "ply\nformat binary_little_endian 1.0\nelement material 2\nproperty uchar id\nelement vertex 10\nproperty float x\nproperty float y\nproperty float z\nproperty float scale\nelement face 4\nproperty list uchar int vertex_indices\nend_header\nDATA"
	reader := bufio.NewReader(strings.NewReader(content))

	header, err := parsePLYHeader(reader)
	if err != nil {
		t.Fatalf("parsePLYHeader: %v", err)
	}
	if header.Format != FormatLittleEndian || header.Version != "1.0" || header.VertexCount != 10 {
		t.Errorf("Unexpected header %+v", header)
	}
	if len(header.VertexProps) != 4 || !header.HasRadius || header.HasColors {
		t.Errorf("Unexpected vertex properties %+v", header.VertexProps)
	}
	if len(header.Preceding) != 1 || header.Preceding[0].Name != "material" || len(header.Preceding[0].Props) != 1 {
		t.Errorf("Unexpected preceding elements %+v", header.Preceding)
	}

	rest, _ := reader.ReadString(0)
	if rest != "DATA" {
		t.Errorf("Expected reader at data start, got %q", rest)
	}
}

func TestGetTypeSize(t *testing.T) {
	tests := []struct {
		dataType string
		expected int
	}{
		{"float", 4},
		{"float32", 4},
		{"double", 8},
		{"int", 4},
		{"uint32", 4},
		{"short", 2},
		{"ushort", 2},
		{"char", 1},
		{"uchar", 1},
		{"quad", 0},
	}

	for _, tt := range tests {
		t.Run(tt.dataType, func(t *testing.T) {
			if got := getTypeSize(tt.dataType); got != tt.expected {
				t.Errorf("getTypeSize(%s) = %d, expected %d", tt.dataType, got, tt.expected)
			}
		})
	}
}

func TestReadValue(t *testing.T) {
	tests := []struct {
		name     string
		dataType string
		data     []byte
		expected float64
	}{
		{"char negative", "char", []byte{0xFF}, -1},
		{"uchar", "uchar", []byte{0xFF}, 255},
		{"short big endian", "short", []byte{0xFF, 0xFE}, -2},
		{"ushort", "ushort", []byte{0x01, 0x00}, 256},
		{"int", "int", []byte{0xFF, 0xFF, 0xFF, 0xFD}, -3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := readValue(bytes.NewReader(tt.data), tt.dataType, binary.BigEndian)
			if err != nil {
				t.Fatalf("readValue: %v", err)
			}
			if got != tt.expected {
				t.Errorf("Expected %v, got %v", tt.expected, got)
			}
		})
	}
}
