package urdf

import (
	"bytes"
	"encoding/binary"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.viam.com/test"

	"go.viam.com/multibody/logging"
	"go.viam.com/multibody/multibody"
)

type fakeResolver struct {
	refs   []string
	scales []float64
	empty  bool
	err    error
}

func (f *fakeResolver) ResolveMesh(ref string, scale float64) (multibody.Geometry, error) {
	f.refs = append(f.refs, ref)
	f.scales = append(f.scales, scale)
	if f.err != nil {
		return multibody.Geometry{}, f.err
	}
	if f.empty {
		return multibody.NewMesh(ref, nil), nil
	}
	return multibody.NewMesh(ref, []multibody.Triangle{{{}, {X: scale}, {Y: scale}}}), nil
}

func meshRobot(scale string) string {
	return `<robot name="meshy">
  <link name="base">
    <collision><geometry><sphere radius="0.2"/></geometry></collision>
  </link>
  <link name="arm">` + unitInertialXML + `
    <collision>
      <origin xyz="0 0 0.1" rpy="0 0 0"/>
      <geometry><mesh filename="package://robot/meshes/arm.stl" scale="` + scale + `"/></geometry>
    </collision>
    <collision><geometry><box size="1 1 1"/></geometry></collision>
  </link>
  <joint name="shoulder" type="revolute">
    <parent link="base"/><child link="arm"/><axis xyz="0 1 0"/>
  </joint>
</robot>`
}

func TestCollisionObjects(t *testing.T) {
	resolver := &fakeResolver{}
	_, g, err := build(t, meshRobot("2 2 2"), WithGeometryResolver(resolver))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, resolver.refs, test.ShouldResemble, []string{"package://robot/meshes/arm.stl"})
	test.That(t, resolver.scales, test.ShouldResemble, []float64{2})

	test.That(t, g.Objects, test.ShouldHaveLength, 3)
	test.That(t, g.Objects[0].Name, test.ShouldEqual, "base")
	test.That(t, g.Objects[0].ParentJoint, test.ShouldEqual, 0)
	test.That(t, g.Objects[0].Geometry.Shape, test.ShouldEqual, multibody.SphereShape)
	test.That(t, g.Objects[1].Name, test.ShouldEqual, "arm")
	test.That(t, g.Objects[1].ParentJoint, test.ShouldEqual, 1)
	test.That(t, g.Objects[1].Geometry.Shape, test.ShouldEqual, multibody.MeshShape)
	test.That(t, g.Objects[1].Placement.P[2].Float(), test.ShouldAlmostEqual, 0.1)
	test.That(t, g.Objects[2].Name, test.ShouldEqual, "arm_1")
	test.That(t, g.ObjectsOf(1), test.ShouldHaveLength, 2)
}

func TestGeometryResolutionErrors(t *testing.T) {
	t.Run("non-uniform scale", func(t *testing.T) {
		_, _, err := build(t, meshRobot("1 2 1"), WithGeometryResolver(&fakeResolver{}))
		test.That(t, errors.Is(err, ErrGeometryResolution), test.ShouldBeTrue)
		test.That(t, err.Error(), test.ShouldContainSubstring, `link "arm"`)
	})
	t.Run("empty mesh", func(t *testing.T) {
		_, _, err := build(t, meshRobot("1 1 1"), WithGeometryResolver(&fakeResolver{empty: true}))
		test.That(t, errors.Is(err, ErrGeometryResolution), test.ShouldBeTrue)
	})
	t.Run("resolver failure", func(t *testing.T) {
		cause := errors.New("no such package")
		_, _, err := build(t, meshRobot("1 1 1"), WithGeometryResolver(&fakeResolver{err: cause}))
		test.That(t, errors.Is(err, ErrGeometryResolution), test.ShouldBeTrue)
		test.That(t, errors.Is(err, cause), test.ShouldBeTrue)
		test.That(t, err.Error(), test.ShouldContainSubstring, "no such package")
		test.That(t, err.Error(), test.ShouldContainSubstring, `link "arm"`)
	})
	t.Run("missing file", func(t *testing.T) {
		m, g, err := build(t, meshRobot("1 1 1"), WithMeshRoot(t.TempDir()))
		test.That(t, errors.Is(err, ErrGeometryResolution), test.ShouldBeTrue)
		test.That(t, m, test.ShouldBeNil)
		test.That(t, g, test.ShouldBeNil)
	})
	t.Run("degenerate primitive", func(t *testing.T) {
		root := &Link{Name: "base", Collisions: []Collision{{Shape: Shape{Type: SphereShape}}}}
		_, _, err := BuildModel(&Robot{Root: root}, WithLogger(logging.NewTestLogger(t)))
		test.That(t, errors.Is(err, ErrGeometryResolution), test.ShouldBeTrue)
	})
}

func TestNewGeometryResolutionError(t *testing.T) {
	cause := errors.New("permission denied")
	err := NewGeometryResolutionError("meshes/arm.stl", cause)
	test.That(t, errors.Is(err, ErrGeometryResolution), test.ShouldBeTrue)
	test.That(t, errors.Is(err, cause), test.ShouldBeTrue)
	test.That(t, err.Error(), test.ShouldContainSubstring, "meshes/arm.stl")
	test.That(t, err.Error(), test.ShouldContainSubstring, "permission denied")

	inner := errors.Wrap(ErrGeometryResolution, "empty mesh")
	err = NewGeometryResolutionError("meshes/arm.stl", inner)
	test.That(t, errors.Is(err, ErrGeometryResolution), test.ShouldBeTrue)
	test.That(t, err.Error(), test.ShouldEqual, "meshes/arm.stl: empty mesh: geometry resolution failed")
}

func TestResolverPath(t *testing.T) {
	r := FileGeometryResolver{Root: "/robots/arm"}
	test.That(t, r.Path("package://arm_description/meshes/link.stl"), test.ShouldEqual, "/robots/arm/meshes/link.stl")
	test.That(t, r.Path("meshes/link.stl"), test.ShouldEqual, "/robots/arm/meshes/link.stl")
	test.That(t, r.Path("file:///abs/link.stl"), test.ShouldEqual, "/abs/link.stl")
	test.That(t, r.Path("/abs/link.stl"), test.ShouldEqual, "/abs/link.stl")
	test.That(t, FileGeometryResolver{}.Path("link.stl"), test.ShouldEqual, "link.stl")
}

const asciiSTL = `solid tetra
  facet normal 0 0 -1
    outer loop
      vertex 0 0 0
      vertex 0 1 0
      vertex 1 0 0
    endloop
  endfacet
  facet normal 0 -1 0
    outer loop
      vertex 0 0 0
      vertex 1 0 0
      vertex 0 0 1
    endloop
  endfacet
endsolid tetra
`

func binarySTL(t *testing.T, triangles []multibody.Triangle) []byte {
	t.Helper()
	var buf bytes.Buffer
	// a header starting with "solid" must not fool the reader
	header := make([]byte, stlHeaderSize)
	copy(header, "solid but binary")
	buf.Write(header)
	test.That(t, binary.Write(&buf, binary.LittleEndian, uint32(len(triangles))), test.ShouldBeNil)
	for _, tri := range triangles {
		n := tri.Normal()
		vals := []float32{float32(n.X), float32(n.Y), float32(n.Z)}
		for _, p := range tri {
			vals = append(vals, float32(p.X), float32(p.Y), float32(p.Z))
		}
		test.That(t, binary.Write(&buf, binary.LittleEndian, vals), test.ShouldBeNil)
		test.That(t, binary.Write(&buf, binary.LittleEndian, uint16(0)), test.ShouldBeNil)
	}
	return buf.Bytes()
}

func TestFileResolverSTL(t *testing.T) {
	dir := t.TempDir()
	test.That(t, os.MkdirAll(filepath.Join(dir, "meshes"), 0o750), test.ShouldBeNil)
	test.That(t, os.WriteFile(filepath.Join(dir, "meshes", "tetra.stl"), []byte(asciiSTL), 0o600), test.ShouldBeNil)

	want := []multibody.Triangle{
		{{}, {Y: 1}, {X: 1}},
		{{}, {X: 1}, {Z: 1}},
	}
	bin := binarySTL(t, want)
	test.That(t, os.WriteFile(filepath.Join(dir, "meshes", "tetra_bin.STL"), bin, 0o600), test.ShouldBeNil)

	r := FileGeometryResolver{Root: dir}
	for _, ref := range []string{"package://robot/meshes/tetra.stl", "meshes/tetra_bin.STL"} {
		g, err := r.ResolveMesh(ref, 2)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, g.Shape, test.ShouldEqual, multibody.MeshShape)
		test.That(t, g.Triangles, test.ShouldHaveLength, 2)
		test.That(t, g.Triangles[0][1], test.ShouldResemble, r3.Vector{Y: 2})
		test.That(t, g.Triangles[1][2], test.ShouldResemble, r3.Vector{Z: 2})
		lower, upper := g.Bounds()
		test.That(t, lower, test.ShouldResemble, r3.Vector{})
		test.That(t, upper, test.ShouldResemble, r3.Vector{X: 2, Y: 2, Z: 2})
	}

	_, err := readSTL(bytes.NewReader([]byte("solid broken\nfacet\nouter loop\nvertex 0 0\nendloop\n")))
	test.That(t, err, test.ShouldNotBeNil)
	_, err = readSTL(bytes.NewReader([]byte("garbage")))
	test.That(t, err, test.ShouldNotBeNil)
}

const asciiPLY = `ply
format ascii 1.0
element vertex 4
property float x
property float y
property float z
element face 1
property list uchar int vertex_indices
end_header
0 0 0
1 0 0
1 1 0
0 1 0
4 0 1 2 3
`

func TestFileResolverPLY(t *testing.T) {
	dir := t.TempDir()
	test.That(t, os.WriteFile(filepath.Join(dir, "quad.ply"), []byte(asciiPLY), 0o600), test.ShouldBeNil)

	g, err := FileGeometryResolver{Root: dir}.ResolveMesh("quad.ply", 1)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, g.Triangles, test.ShouldHaveLength, 2)
	for _, tri := range g.Triangles {
		n := tri.Normal()
		test.That(t, math.Abs(n.Z), test.ShouldAlmostEqual, 1.)
	}
	test.That(t, g.Source, test.ShouldEqual, filepath.Join(dir, "quad.ply"))

	test.That(t, os.WriteFile(filepath.Join(dir, "quad.obj"), []byte("v 0 0 0"), 0o600), test.ShouldBeNil)
	_, err = FileGeometryResolver{Root: dir}.ResolveMesh("quad.obj", 1)
	test.That(t, errors.Is(err, ErrGeometryResolution), test.ShouldBeTrue)
	test.That(t, err.Error(), test.ShouldContainSubstring, "unsupported mesh file format")
}

func TestIndexList(t *testing.T) {
	idx, err := indexList([]interface{}{uint8(1), int32(2)})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, idx, test.ShouldResemble, []int{1, 2})

	idx, err = indexList([]uint32{3, 4, 5})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, idx, test.ShouldResemble, []int{3, 4, 5})

	_, err = indexList(7)
	test.That(t, err, test.ShouldNotBeNil)
}
