package urdf

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"io"
	"math"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"

	"github.com/chenzhekl/goply"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	goutils "go.viam.com/utils"

	"go.viam.com/multibody/multibody"
	"go.viam.com/multibody/utils"
)

// GeometryResolver turns a mesh reference into collision geometry.
type GeometryResolver interface {
	ResolveMesh(ref string, scale float64) (multibody.Geometry, error)
}

// FileGeometryResolver loads STL and PLY meshes from disk. Relative references and package://
// references are resolved against Root.
type FileGeometryResolver struct {
	Root string
}

// Path maps a mesh reference to a file path.
func (r FileGeometryResolver) Path(ref string) string {
	meshPath := ref
	if strings.HasPrefix(meshPath, "package://") {
		// drop the package name, the rest is relative to Root
		meshPath = strings.TrimPrefix(meshPath, "package://")
		if idx := strings.Index(meshPath, "/"); idx != -1 {
			meshPath = meshPath[idx+1:]
		}
	} else {
		meshPath = strings.TrimPrefix(meshPath, "file://")
	}
	if r.Root != "" && !filepath.IsAbs(meshPath) {
		meshPath = filepath.Join(r.Root, meshPath)
	}
	return meshPath
}

// ResolveMesh loads the referenced mesh scaled uniformly by scale.
func (r FileGeometryResolver) ResolveMesh(ref string, scale float64) (multibody.Geometry, error) {
	meshPath := r.Path(ref)
	//nolint:gosec
	f, err := os.Open(meshPath)
	if err != nil {
		return multibody.Geometry{}, NewGeometryResolutionError(meshPath, err)
	}
	defer goutils.UncheckedErrorFunc(f.Close)

	var triangles []multibody.Triangle
	switch ext := strings.ToLower(filepath.Ext(meshPath)); ext {
	case ".stl":
		triangles, err = readSTL(f)
	case ".ply":
		triangles, err = readPLY(f)
	default:
		err = errors.Errorf("unsupported mesh file format: %q (must be .stl or .ply)", ext)
	}
	if err != nil {
		return multibody.Geometry{}, NewGeometryResolutionError(meshPath, err)
	}
	if len(triangles) == 0 {
		return multibody.Geometry{}, errors.Wrapf(ErrGeometryResolution, "%s: empty mesh", meshPath)
	}
	for i := range triangles {
		for k := range triangles[i] {
			triangles[i][k] = triangles[i][k].Mul(scale)
		}
	}
	return multibody.NewMesh(meshPath, triangles), nil
}

const (
	stlHeaderSize = 80
	stlFacetSize  = 50
)

// readSTL decodes ASCII and binary STL. A file is binary when its size matches the facet count in
// its header, which also covers binary files whose header starts with "solid".
func readSTL(rd io.Reader) ([]multibody.Triangle, error) {
	data, err := io.ReadAll(rd)
	if err != nil {
		return nil, err
	}
	if len(data) >= stlHeaderSize+4 {
		n := binary.LittleEndian.Uint32(data[stlHeaderSize:])
		if uint64(len(data)) == stlHeaderSize+4+uint64(n)*stlFacetSize {
			return readBinarySTL(data[stlHeaderSize+4:], int(n)), nil
		}
	}
	if bytes.HasPrefix(bytes.TrimSpace(data), []byte("solid")) {
		return readASCIISTL(data)
	}
	return nil, errors.New("not an STL file")
}

func readBinarySTL(data []byte, n int) []multibody.Triangle {
	readVec := func(b []byte) r3.Vector {
		return r3.Vector{
			X: float64(math.Float32frombits(binary.LittleEndian.Uint32(b[0:]))),
			Y: float64(math.Float32frombits(binary.LittleEndian.Uint32(b[4:]))),
			Z: float64(math.Float32frombits(binary.LittleEndian.Uint32(b[8:]))),
		}
	}
	triangles := make([]multibody.Triangle, n)
	for i := range triangles {
		facet := data[i*stlFacetSize:]
		// the first 12 bytes hold the facet normal, recomputed on demand
		triangles[i] = multibody.Triangle{readVec(facet[12:]), readVec(facet[24:]), readVec(facet[36:])}
	}
	return triangles
}

func readASCIISTL(data []byte) ([]multibody.Triangle, error) {
	var (
		triangles []multibody.Triangle
		corners   []r3.Vector
	)
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for line := 1; scanner.Scan(); line++ {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		switch fields[0] {
		case "vertex":
			if len(fields) != 4 {
				return nil, errors.Errorf("line %d: malformed vertex", line)
			}
			var v [3]float64
			for k := range v {
				f, err := strconv.ParseFloat(fields[k+1], 64)
				if err != nil {
					return nil, errors.Wrapf(err, "line %d", line)
				}
				v[k] = f
			}
			corners = append(corners, r3.Vector{X: v[0], Y: v[1], Z: v[2]})
		case "endloop":
			if len(corners) != 3 {
				return nil, errors.Errorf("line %d: facet with %d vertices", line, len(corners))
			}
			triangles = append(triangles, multibody.Triangle{corners[0], corners[1], corners[2]})
			corners = corners[:0]
		}
	}
	return triangles, scanner.Err()
}

// readPLY decodes a PLY mesh, fanning polygons into triangles.
func readPLY(rd io.Reader) (triangles []multibody.Triangle, err error) {
	defer func() {
		// the decoder panics on malformed input
		if r := recover(); r != nil {
			triangles, err = nil, errors.Errorf("malformed PLY: %v", r)
		}
	}()
	ply := goply.New(rd)

	var vertices []r3.Vector
	for _, v := range ply.Elements("vertex") {
		var p [3]float64
		for k, key := range []string{"x", "y", "z"} {
			if p[k], err = utils.ToFloat64(v[key]); err != nil {
				return nil, errors.Wrapf(err, "vertex %d %s", len(vertices), key)
			}
		}
		vertices = append(vertices, r3.Vector{X: p[0], Y: p[1], Z: p[2]})
	}

	for i, face := range ply.Elements("face") {
		raw, ok := face["vertex_indices"]
		if !ok {
			raw = face["vertex_index"]
		}
		idx, err := indexList(raw)
		if err != nil {
			return nil, errors.Wrapf(err, "face %d", i)
		}
		for _, k := range idx {
			if k < 0 || k >= len(vertices) {
				return nil, errors.Errorf("face %d: vertex %d out of range", i, k)
			}
		}
		for k := 1; k+1 < len(idx); k++ {
			triangles = append(triangles, multibody.Triangle{vertices[idx[0]], vertices[idx[k]], vertices[idx[k+1]]})
		}
	}
	return triangles, nil
}

// indexList reads a PLY list property, whatever integer type the file declared.
func indexList(raw interface{}) ([]int, error) {
	rv := reflect.ValueOf(raw)
	if rv.Kind() != reflect.Slice {
		return nil, utils.NewUnexpectedTypeError[[]interface{}](raw)
	}
	idx := make([]int, rv.Len())
	for k := range idx {
		f, err := utils.ToFloat64(rv.Index(k).Interface())
		if err != nil {
			return nil, err
		}
		idx[k] = int(f)
	}
	return idx, nil
}
