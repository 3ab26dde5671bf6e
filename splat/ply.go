// Copyright (c) 2025, Sharp Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package splat

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"cogentcore.org/core/base/errors"
)

// PLY point-cloud interchange, using the property names established by
// the reference Gaussian Splatting implementation: per vertex
// x y z, scale_0..2, rot_0..3 (w x y z), opacity, f_dc_0..2 and
// f_rest_0..44 (coefficient-major: RGB per basis function, band order).
// All values are stored raw (no log/sigmoid activation), binary
// little-endian, so a round trip is lossless.

// NumRestFloats is the number of f_rest properties per vertex.
const NumRestFloats = 3 * (NumSHCoeffs - 1)

var errPLYHeader = errors.New("splat: malformed PLY header")

// plyProps lists the vertex properties written by WritePLY, in order.
var plyProps = func() []string {
	ps := []string{
		"x", "y", "z",
		"scale_0", "scale_1", "scale_2",
		"rot_0", "rot_1", "rot_2", "rot_3",
		"opacity",
		"f_dc_0", "f_dc_1", "f_dc_2",
	}
	for i := range NumRestFloats {
		ps = append(ps, fmt.Sprintf("f_rest_%d", i))
	}
	return ps
}()

// WritePLY writes the cloud to w in binary PLY form.
func (cl *Cloud) WritePLY(w io.Writer) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "ply\nformat binary_little_endian 1.0\nelement vertex %d\n", len(cl.splats))
	for _, p := range plyProps {
		fmt.Fprintf(bw, "property float %s\n", p)
	}
	fmt.Fprint(bw, "end_header\n")

	row := make([]byte, 4*len(plyProps))
	vals := make([]float32, NumFloats)
	for i := range cl.splats {
		cl.splats[i].pack(vals)
		for j, v := range vals {
			binary.LittleEndian.PutUint32(row[4*j:], math.Float32bits(v))
		}
		if _, err := bw.Write(row); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// SavePLY writes the cloud to the given file in binary PLY form.
func (cl *Cloud) SavePLY(filename string) error {
	f, err := os.Create(filename)
	if err != nil {
		return errors.Log(err)
	}
	defer f.Close()
	return cl.WritePLY(f)
}

// plyHeader is the parsed result of a PLY header.
type plyHeader struct {
	count int
	props []string // float vertex property names, in file order
}

// readPLYHeader parses the textual header from r, which must be
// binary little-endian with a single float-property vertex element.
func readPLYHeader(r *bufio.Reader) (*plyHeader, error) {
	line, err := r.ReadString('\n')
	if err != nil || strings.TrimSpace(line) != "ply" {
		return nil, errPLYHeader
	}
	h := &plyHeader{count: -1}
	inVertex := false
	for {
		line, err = r.ReadString('\n')
		if err != nil {
			return nil, errPLYHeader
		}
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		switch fields[0] {
		case "comment":
		case "format":
			if len(fields) < 2 || fields[1] != "binary_little_endian" {
				return nil, errors.New("splat: unsupported PLY format (need binary_little_endian)")
			}
		case "element":
			if len(fields) == 3 && fields[1] == "vertex" {
				n, err := strconv.Atoi(fields[2])
				if err != nil || n < 0 {
					return nil, errPLYHeader
				}
				h.count = n
				inVertex = true
			} else {
				inVertex = false
			}
		case "property":
			if !inVertex {
				continue
			}
			if len(fields) != 3 || fields[1] != "float" {
				return nil, errors.New("splat: unsupported PLY property type")
			}
			h.props = append(h.props, fields[2])
		case "end_header":
			if h.count < 0 {
				return nil, errPLYHeader
			}
			return h, nil
		default:
			return nil, errPLYHeader
		}
	}
}

// ReadPLY reads a binary PLY stream into a new cloud. Properties are
// matched by name; unknown properties (normals etc) are skipped and
// optional groups default to scale 1, identity rotation, opacity 1,
// mid-gray DC. x, y and z are required. A truncated or malformed
// stream returns an error and no cloud.
func ReadPLY(r io.Reader) (*Cloud, error) {
	br := bufio.NewReader(r)
	h, err := readPLYHeader(br)
	if err != nil {
		return nil, err
	}
	if h.count == 0 {
		return nil, errEmpty
	}

	// property name -> packed layout index, per Splat.pack
	packIdx := make(map[string]int, len(plyProps))
	for i, p := range plyProps {
		packIdx[p] = i
	}
	cols := make([]int, len(h.props)) // file column -> packed index, -1 skips
	seen := map[string]bool{}
	for i, p := range h.props {
		if j, ok := packIdx[p]; ok {
			cols[i] = j
			seen[p] = true
		} else {
			cols[i] = -1
		}
	}
	for _, req := range []string{"x", "y", "z"} {
		if !seen[req] {
			return nil, fmt.Errorf("splat: PLY missing required property %q", req)
		}
	}

	// defaults for properties absent from the file
	defaults := make([]float32, NumFloats)
	copy(defaults, []float32{0, 0, 0, 1, 1, 1, 1, 0, 0, 0, 1, 0.5, 0.5, 0.5})

	row := make([]byte, 4*len(h.props))
	vals := make([]float32, NumFloats)
	splats := make([]Splat, 0, h.count)
	for range h.count {
		if _, err := io.ReadFull(br, row); err != nil {
			return nil, fmt.Errorf("splat: truncated PLY payload: %w", err)
		}
		copy(vals, defaults)
		for c, j := range cols {
			if j >= 0 {
				vals[j] = math.Float32frombits(binary.LittleEndian.Uint32(row[4*c:]))
			}
		}
		splats = append(splats, unpack(vals))
	}
	return NewCloud(splats)
}

// OpenPLY reads a binary PLY file into a new cloud.
func OpenPLY(filename string) (*Cloud, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadPLY(f)
}

// unpack is the inverse of [Splat.pack].
func unpack(vals []float32) Splat {
	var sp Splat
	sp.Pos.Set(vals[0], vals[1], vals[2])
	sp.Scale.Set(vals[3], vals[4], vals[5])
	sp.Rot.Set(vals[7], vals[8], vals[9], vals[6])
	sp.Opacity = vals[10]
	sp.SHDC.Set(vals[11], vals[12], vals[13])
	for i := range sp.SHRest {
		sp.SHRest[i].Set(vals[14+3*i], vals[15+3*i], vals[16+3*i])
	}
	return sp
}
