package sandbox

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/zeusync/rigidscene/internal/core/physics/engine"
)

type cooking struct {
	resource
	params engine.CookingParams
}

// CookTriangleMesh validates the raw buffers and serializes them as
// little-endian counts followed by vertex and index data.
func (c *cooking) CookTriangleMesh(desc engine.TriangleMeshDesc) (engine.CookedMesh, error) {
	if err := c.eng.fault(OpCookMesh); err != nil {
		return nil, err
	}
	if err := checkMesh(desc); err != nil {
		return nil, err
	}

	indices := desc.Indices
	if desc.Flags&engine.FlipNormals != 0 {
		indices = make([]uint16, len(desc.Indices))
		for i := 0; i+2 < len(desc.Indices); i += 3 {
			indices[i], indices[i+1], indices[i+2] = desc.Indices[i], desc.Indices[i+2], desc.Indices[i+1]
		}
	}

	var buf bytes.Buffer
	_ = binary.Write(&buf, binary.LittleEndian, uint32(len(desc.Vertices)))
	_ = binary.Write(&buf, binary.LittleEndian, uint32(len(indices)))
	_ = binary.Write(&buf, binary.LittleEndian, desc.Vertices)
	_ = binary.Write(&buf, binary.LittleEndian, indices)
	return buf.Bytes(), nil
}

func (c *cooking) CreateHeightField(desc engine.HeightFieldDesc) (engine.HeightField, error) {
	if err := c.eng.fault(OpHeightField); err != nil {
		return nil, err
	}
	if desc.Columns < 2 || desc.Rows < 2 {
		return nil, fmt.Errorf("%w: %dx%d grid", engine.ErrInvalidHeightField, desc.Columns, desc.Rows)
	}
	n := int(desc.Columns) * int(desc.Rows)
	if len(desc.Samples) < n {
		return nil, fmt.Errorf("%w: %d samples for %d cells", engine.ErrInvalidHeightField, len(desc.Samples), n)
	}
	heights := make([]int16, n)
	for i := range heights {
		heights[i] = desc.Samples[i].Height
	}
	h := &heightField{columns: desc.Columns, rows: desc.Rows, heights: heights}
	h.init(c.eng, OpHeightField)
	return h, nil
}

func checkMesh(desc engine.TriangleMeshDesc) error {
	switch {
	case len(desc.Vertices)%3 != 0:
		return fmt.Errorf("%w: %d floats is not a whole number of vertices", engine.ErrDegenerateMesh, len(desc.Vertices))
	case desc.VertexCount() < 3:
		return fmt.Errorf("%w: %d vertices", engine.ErrDegenerateMesh, desc.VertexCount())
	case len(desc.Indices)%3 != 0 || desc.TriangleCount() < 1:
		return fmt.Errorf("%w: %d indices", engine.ErrDegenerateMesh, len(desc.Indices))
	}
	limit := desc.VertexCount()
	for _, idx := range desc.Indices {
		if int(idx) >= limit {
			return fmt.Errorf("%w: index %d out of range", engine.ErrDegenerateMesh, idx)
		}
	}
	return nil
}

func decodeMesh(cooked engine.CookedMesh) ([]float32, []uint16, error) {
	r := bytes.NewReader(cooked)
	var nv, ni uint32
	if err := binary.Read(r, binary.LittleEndian, &nv); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", engine.ErrDegenerateMesh, err)
	}
	if err := binary.Read(r, binary.LittleEndian, &ni); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", engine.ErrDegenerateMesh, err)
	}
	if int64(nv)*4+int64(ni)*2 != int64(r.Len()) {
		return nil, nil, fmt.Errorf("%w: truncated cooked mesh", engine.ErrDegenerateMesh)
	}
	vertices := make([]float32, nv)
	indices := make([]uint16, ni)
	if err := binary.Read(r, binary.LittleEndian, vertices); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", engine.ErrDegenerateMesh, err)
	}
	if err := binary.Read(r, binary.LittleEndian, indices); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", engine.ErrDegenerateMesh, err)
	}
	return vertices, indices, nil
}

type triangleMesh struct {
	resource
	vertices []float32
	indices  []uint16
}

func (m *triangleMesh) VertexCount() int   { return len(m.vertices) / 3 }
func (m *triangleMesh) TriangleCount() int { return len(m.indices) / 3 }

type heightField struct {
	resource
	columns uint32
	rows    uint32
	heights []int16
}

func (h *heightField) Columns() uint32 { return h.columns }
func (h *heightField) Rows() uint32    { return h.rows }

// Height returns the sample at (col, row).
func (h *heightField) Height(col, row uint32) int16 {
	return h.heights[col+row*h.columns]
}
