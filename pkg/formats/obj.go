package formats

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
)

// OBJ format errors.
var (
	ErrOBJSyntax       = errors.New("malformed OBJ statement")
	ErrOBJIndexRange   = errors.New("OBJ reference out of range")
	ErrOBJFaceTooSmall = errors.New("OBJ face has fewer than 3 corners")
)

// OBJIndex references one face corner. Each field indexes the matching
// attribute slice of the OBJ directly; 0 means the corner has no such
// attribute.
type OBJIndex struct {
	P, T, N int
}

// OBJ is a parsed Wavefront geometry file, triangulated.
//
// Attribute slices keep a zero entry at index 0 so that the file's 1-based
// references can be used as-is and 0 can mean "unset".
type OBJ struct {
	Positions [][3]float32
	TexCoords [][2]float32
	Normals   [][3]float32

	// Indices holds three corners per triangle.
	Indices []OBJIndex

	// Faces counts the polygons before triangulation.
	Faces int
}

// TriangleCount returns the number of triangles.
func (o *OBJ) TriangleCount() int {
	return len(o.Indices) / 3
}

// ParseOBJ parses OBJ text. Only v, vt, vn and f statements are read;
// everything else (materials, groups, smoothing) is skipped. Polygons are
// fan-triangulated. Negative references are relative to the attributes read
// so far; positive ones may point forward and are checked once the whole
// file is read.
func ParseOBJ(data []byte) (*OBJ, error) {
	obj := &OBJ{
		Positions: make([][3]float32, 1),
		TexCoords: make([][2]float32, 1),
		Normals:   make([][3]float32, 1),
	}

	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 64*1024), 1024*1024)

	var corners []OBJIndex
	var faces []faceSpan
	line := 0
	for sc.Scan() {
		line++
		text := sc.Text()
		if i := strings.IndexByte(text, '#'); i >= 0 {
			text = text[:i]
		}
		fields := strings.Fields(text)
		if len(fields) == 0 {
			continue
		}

		var err error
		switch fields[0] {
		case "v":
			var v [3]float32
			err = parseFloats(fields[1:], v[:])
			obj.Positions = append(obj.Positions, v)
		case "vt":
			// A third (w) coordinate is allowed and ignored.
			var vt [2]float32
			err = parseFloats(fields[1:], vt[:1])
			if err == nil && len(fields) > 2 {
				err = parseFloats(fields[2:], vt[1:])
			}
			obj.TexCoords = append(obj.TexCoords, vt)
		case "vn":
			var vn [3]float32
			err = parseFloats(fields[1:], vn[:])
			obj.Normals = append(obj.Normals, vn)
		case "f":
			corners = corners[:0]
			for _, f := range fields[1:] {
				idx, cerr := obj.parseCorner(f)
				if cerr != nil {
					err = cerr
					break
				}
				corners = append(corners, idx)
			}
			if err == nil && len(corners) < 3 {
				err = fmt.Errorf("%w: %d corners", ErrOBJFaceTooSmall, len(corners))
			}
			if err == nil {
				faces = append(faces, faceSpan{line: line, start: len(obj.Indices)})
				for i := 1; i+1 < len(corners); i++ {
					obj.Indices = append(obj.Indices, corners[0], corners[i], corners[i+1])
				}
				obj.Faces++
			}
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading OBJ: %w", err)
	}

	for i, f := range faces {
		end := len(obj.Indices)
		if i+1 < len(faces) {
			end = faces[i+1].start
		}
		for _, c := range obj.Indices[f.start:end] {
			if c.P >= len(obj.Positions) || c.T >= len(obj.TexCoords) || c.N >= len(obj.Normals) {
				return nil, fmt.Errorf("line %d: %w: corner %d/%d/%d", f.line, ErrOBJIndexRange, c.P, c.T, c.N)
			}
		}
	}

	return obj, nil
}

// faceSpan locates the triangles of one face in OBJ.Indices.
type faceSpan struct {
	line  int
	start int
}

// ParseOBJFile parses an OBJ file from disk.
func ParseOBJFile(path string) (*OBJ, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading OBJ file: %w", err)
	}
	return ParseOBJ(data)
}

// parseFloats fills dst from fields; extra fields are ignored.
func parseFloats(fields []string, dst []float32) error {
	if len(fields) < len(dst) {
		return fmt.Errorf("%w: need %d values, got %d", ErrOBJSyntax, len(dst), len(fields))
	}
	for i := range dst {
		f, err := strconv.ParseFloat(fields[i], 32)
		if err != nil {
			return fmt.Errorf("%w: %q", ErrOBJSyntax, fields[i])
		}
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return fmt.Errorf("%w: non-finite value %q", ErrOBJSyntax, fields[i])
		}
		dst[i] = float32(f)
	}
	return nil
}

// parseCorner parses "p", "p/t", "p//n" or "p/t/n".
func (o *OBJ) parseCorner(s string) (OBJIndex, error) {
	parts := strings.Split(s, "/")
	if len(parts) > 3 {
		return OBJIndex{}, fmt.Errorf("%w: corner %q", ErrOBJSyntax, s)
	}

	var idx OBJIndex
	refs := [3]*int{&idx.P, &idx.T, &idx.N}
	counts := [3]int{len(o.Positions), len(o.TexCoords), len(o.Normals)}
	for i, p := range parts {
		if p == "" {
			if i == 0 {
				return OBJIndex{}, fmt.Errorf("%w: corner %q has no position", ErrOBJSyntax, s)
			}
			continue
		}
		ref, err := strconv.Atoi(p)
		if err != nil {
			return OBJIndex{}, fmt.Errorf("%w: corner %q", ErrOBJSyntax, s)
		}
		if ref < 0 {
			// Relative to the attributes read so far; counts include the
			// placeholder, so -1 is the last one.
			ref += counts[i]
			if ref < 1 {
				return OBJIndex{}, fmt.Errorf("%w: corner %q", ErrOBJIndexRange, s)
			}
		}
		*refs[i] = ref
	}
	return idx, nil
}
