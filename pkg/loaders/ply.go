package loaders

import (
	"bufio"
	"encoding/binary"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/df07/go-quadtree-raytracer/pkg/core"
	"github.com/pkg/errors"
)

// Supported PLY encodings
const (
	FormatASCII        = "ascii"
	FormatLittleEndian = "binary_little_endian"
	FormatBigEndian    = "binary_big_endian"
)

// PLYHeader represents the parsed header information from a PLY file
type PLYHeader struct {
	Format      string // FormatASCII, FormatLittleEndian or FormatBigEndian
	Version     string // Usually "1.0"
	VertexCount int
	VertexProps []PLYProperty

	// Elements declared before the vertex element, which must be skipped first
	Preceding []PLYElement

	HasColors bool
	HasRadius bool
}

// PLYElement is an element declaration with its properties
type PLYElement struct {
	Name  string
	Count int
	Props []PLYProperty
}

// PLYProperty represents a property definition in the PLY header
type PLYProperty struct {
	Name     string
	Type     string
	IsList   bool
	ListType string // For list properties, the type of the count
	DataType string // For list properties, the type of the data
}

// PointCloud holds the vertex data of a PLY file. Colors and Radii are
// empty when the file does not carry them.
type PointCloud struct {
	Points []core.Vec3
	Colors []core.Vec3 // normalized to [0,1]
	Radii  []float64
}

// LoadPLY loads the vertex element of a PLY file as a point cloud
func LoadPLY(filename string) (*PointCloud, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, errors.Wrap(err, "open PLY file")
	}
	defer file.Close()

	return ReadPLY(file)
}

// ReadPLY parses a PLY stream. Faces and other elements after the vertices are ignored.
func ReadPLY(r io.Reader) (*PointCloud, error) {
	reader := bufio.NewReader(r)

	header, err := parsePLYHeader(reader)
	if err != nil {
		return nil, errors.Wrap(err, "parse PLY header")
	}

	var cloud *PointCloud
	switch header.Format {
	case FormatASCII:
		cloud, err = readASCII(reader, header)
	case FormatLittleEndian:
		cloud, err = readBinary(reader, header, binary.LittleEndian)
	case FormatBigEndian:
		cloud, err = readBinary(reader, header, binary.BigEndian)
	default:
		return nil, errors.Errorf("unsupported PLY format: %q", header.Format)
	}
	if err != nil {
		return nil, errors.Wrap(err, "read PLY vertices")
	}
	return cloud, nil
}

// parsePLYHeader parses the header and leaves the reader at the first data byte
func parsePLYHeader(reader *bufio.Reader) (*PLYHeader, error) {
	header := &PLYHeader{}
	var current *PLYElement
	seenVertex := false
	first := true

	for {
		raw, err := reader.ReadString('\n')
		if err != nil {
			return nil, errors.Wrap(err, "header ended before end_header")
		}
		line := strings.TrimSpace(raw)

		if first {
			if line != "ply" {
				return nil, errors.New("missing ply magic number")
			}
			first = false
			continue
		}
		if line == "end_header" {
			break
		}

		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}

		switch parts[0] {
		case "format":
			if len(parts) < 3 {
				return nil, errors.Errorf("invalid format line: %q", line)
			}
			header.Format = parts[1]
			header.Version = parts[2]
		case "comment", "obj_info":
		case "element":
			if len(parts) < 3 {
				return nil, errors.Errorf("invalid element line: %q", line)
			}
			count, err := strconv.Atoi(parts[2])
			if err != nil || count < 0 {
				return nil, errors.Errorf("invalid element count: %s", parts[2])
			}
			if seenVertex {
				current = nil
				continue
			}
			if parts[1] == "vertex" {
				seenVertex = true
				header.VertexCount = count
				current = &PLYElement{Name: "vertex", Count: count}
				continue
			}
			header.Preceding = append(header.Preceding, PLYElement{Name: parts[1], Count: count})
			current = &header.Preceding[len(header.Preceding)-1]
		case "property":
			if current == nil {
				continue
			}
			prop, err := parsePLYProperty(parts[1:])
			if err != nil {
				return nil, err
			}
			if current.Name == "vertex" {
				header.VertexProps = append(header.VertexProps, prop)
				switch prop.Name {
				case "red", "r", "green", "g", "blue", "b":
					header.HasColors = true
				case "radius", "scale":
					header.HasRadius = true
				}
			} else {
				current.Props = append(current.Props, prop)
			}
		}
	}

	if !seenVertex {
		return nil, errors.New("no vertex element")
	}
	for _, axis := range []string{"x", "y", "z"} {
		if !hasProperty(header.VertexProps, axis) {
			return nil, errors.Errorf("vertex element has no %s property", axis)
		}
	}
	return header, nil
}

func hasProperty(props []PLYProperty, name string) bool {
	for _, p := range props {
		if p.Name == name {
			return true
		}
	}
	return false
}

// parsePLYProperty parses a property line from the PLY header
func parsePLYProperty(parts []string) (PLYProperty, error) {
	if len(parts) < 2 {
		return PLYProperty{}, errors.New("invalid property definition")
	}

	if parts[0] == "list" {
		if len(parts) < 4 {
			return PLYProperty{}, errors.New("invalid list property definition")
		}
		return PLYProperty{IsList: true, ListType: parts[1], DataType: parts[2], Name: parts[3]}, nil
	}
	if getTypeSize(parts[0]) == 0 {
		return PLYProperty{}, errors.Errorf("unsupported data type: %s", parts[0])
	}
	return PLYProperty{Type: parts[0], Name: parts[1]}, nil
}

// getTypeSize returns the size in bytes of a PLY data type, 0 if unknown
func getTypeSize(dataType string) int {
	switch dataType {
	case "float", "float32", "int", "int32", "uint", "uint32":
		return 4
	case "double", "float64":
		return 8
	case "short", "int16", "ushort", "uint16":
		return 2
	case "char", "int8", "uchar", "uint8":
		return 1
	}
	return 0
}

// isByteType reports whether colors of this type are stored as 0-255
func isByteType(dataType string) bool {
	return dataType == "uchar" || dataType == "uint8"
}

// vertexBuilder accumulates decoded vertex properties
type vertexBuilder struct {
	header *PLYHeader
	cloud  *PointCloud
}

func newVertexBuilder(header *PLYHeader) *vertexBuilder {
	cloud := &PointCloud{Points: make([]core.Vec3, 0, header.VertexCount)}
	if header.HasColors {
		cloud.Colors = make([]core.Vec3, 0, header.VertexCount)
	}
	if header.HasRadius {
		cloud.Radii = make([]float64, 0, header.VertexCount)
	}
	return &vertexBuilder{header: header, cloud: cloud}
}

// add stores one vertex given its property values in header order
func (b *vertexBuilder) add(values []float64) {
	var point, color core.Vec3
	radius := 0.0
	for i, prop := range b.header.VertexProps {
		v := values[i]
		switch prop.Name {
		case "x":
			point.X = v
		case "y":
			point.Y = v
		case "z":
			point.Z = v
		case "red", "r", "green", "g", "blue", "b":
			if isByteType(prop.Type) {
				v /= 255.0
			}
			switch prop.Name[0] {
			case 'r':
				color.X = v
			case 'g':
				color.Y = v
			case 'b':
				color.Z = v
			}
		case "radius", "scale":
			radius = v
		}
	}

	b.cloud.Points = append(b.cloud.Points, point)
	if b.header.HasColors {
		b.cloud.Colors = append(b.cloud.Colors, color)
	}
	if b.header.HasRadius {
		b.cloud.Radii = append(b.cloud.Radii, radius)
	}
}

// readASCII reads whitespace separated vertex rows
func readASCII(reader *bufio.Reader, header *PLYHeader) (*PointCloud, error) {
	tokens := bufio.NewScanner(reader)
	tokens.Split(bufio.ScanWords)
	next := func() (float64, error) {
		if !tokens.Scan() {
			if err := tokens.Err(); err != nil {
				return 0, err
			}
			return 0, io.ErrUnexpectedEOF
		}
		return strconv.ParseFloat(tokens.Text(), 64)
	}

	for _, element := range header.Preceding {
		for i := 0; i < element.Count; i++ {
			for _, prop := range element.Props {
				n := 1
				if prop.IsList {
					count, err := next()
					if err != nil {
						return nil, errors.Wrapf(err, "%s %d", element.Name, i)
					}
					n = int(count)
				}
				for j := 0; j < n; j++ {
					if _, err := next(); err != nil {
						return nil, errors.Wrapf(err, "%s %d", element.Name, i)
					}
				}
			}
		}
	}

	builder := newVertexBuilder(header)
	values := make([]float64, len(header.VertexProps))
	for i := 0; i < header.VertexCount; i++ {
		for j, prop := range header.VertexProps {
			if prop.IsList {
				return nil, errors.Errorf("list property %s in vertex element", prop.Name)
			}
			v, err := next()
			if err != nil {
				return nil, errors.Wrapf(err, "vertex %d property %s", i, prop.Name)
			}
			values[j] = v
		}
		builder.add(values)
	}
	return builder.cloud, nil
}

// readBinary reads fixed-size binary vertex records
func readBinary(reader *bufio.Reader, header *PLYHeader, order binary.ByteOrder) (*PointCloud, error) {
	for _, element := range header.Preceding {
		for i := 0; i < element.Count; i++ {
			for _, prop := range element.Props {
				if err := skipProperty(reader, prop, order); err != nil {
					return nil, errors.Wrapf(err, "skip %s %d", element.Name, i)
				}
			}
		}
	}

	builder := newVertexBuilder(header)
	values := make([]float64, len(header.VertexProps))
	for i := 0; i < header.VertexCount; i++ {
		for j, prop := range header.VertexProps {
			if prop.IsList {
				return nil, errors.Errorf("list property %s in vertex element", prop.Name)
			}
			v, err := readValue(reader, prop.Type, order)
			if err != nil {
				return nil, errors.Wrapf(err, "vertex %d property %s", i, prop.Name)
			}
			values[j] = v
		}
		builder.add(values)
	}
	return builder.cloud, nil
}

// skipProperty skips a property in the binary stream
func skipProperty(reader io.Reader, prop PLYProperty, order binary.ByteOrder) error {
	if !prop.IsList {
		_, err := readValue(reader, prop.Type, order)
		return err
	}

	count, err := readValue(reader, prop.ListType, order)
	if err != nil {
		return err
	}
	size := getTypeSize(prop.DataType)
	if size == 0 {
		return errors.Errorf("unsupported data type: %s", prop.DataType)
	}
	_, err = io.CopyN(io.Discard, reader, int64(count)*int64(size))
	return err
}

// readValue decodes one scalar of the given PLY type as float64
func readValue(reader io.Reader, dataType string, order binary.ByteOrder) (float64, error) {
	var buf [8]byte
	size := getTypeSize(dataType)
	if size == 0 {
		return 0, errors.Errorf("unsupported data type: %s", dataType)
	}
	if _, err := io.ReadFull(reader, buf[:size]); err != nil {
		return 0, err
	}

	switch dataType {
	case "float", "float32":
		return float64(math.Float32frombits(order.Uint32(buf[:4]))), nil
	case "double", "float64":
		return math.Float64frombits(order.Uint64(buf[:8])), nil
	case "int", "int32":
		return float64(int32(order.Uint32(buf[:4]))), nil
	case "uint", "uint32":
		return float64(order.Uint32(buf[:4])), nil
	case "short", "int16":
		return float64(int16(order.Uint16(buf[:2]))), nil
	case "ushort", "uint16":
		return float64(order.Uint16(buf[:2])), nil
	case "char", "int8":
		return float64(int8(buf[0])), nil
	default: // uchar, uint8
		return float64(buf[0]), nil
	}
}
