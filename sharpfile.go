// Copyright (c) 2025, Sharp Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sharp

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"cogentcore.org/core/base/errors"
	"cogentcore.org/core/base/iox/jsonx"
	"cogentcore.org/core/math32"
	"github.com/sharp3d/sharp/splat"
)

// sharpMagic identifies a .sharp scene file.
var sharpMagic = [4]byte{'S', 'H', 'R', 'P'}

// sharpVersion is the current file format version.
const sharpVersion uint32 = 1

// maxMetadataSize bounds the metadata block when reading, so a corrupt
// length field cannot trigger a huge allocation.
const maxMetadataSize = 64 << 20

var (
	errBadMagic    = errors.New("sharp: not a .sharp file (bad magic)")
	errBadVersion  = errors.New("sharp: unsupported file version")
	errBadMetadata = errors.New("sharp: invalid metadata block")
)

// objectMeta is the per-object entry in the metadata document. The
// splat payload follows separately, in metadata order.
type objectMeta struct {
	Name        string     `json:"name"`
	Position    [3]float32 `json:"position"`
	Rotation    [4]float32 `json:"rotation"` // x, y, z, w
	Scale       [3]float32 `json:"scale"`
	Visible     bool       `json:"visible"`
	PayloadSize int64      `json:"payloadSize"`
}

// sceneMeta is the metadata document of a .sharp file.
type sceneMeta struct {
	Objects []objectMeta `json:"objects"`
}

// Save writes the scene to path in the .sharp format: a binary header,
// a JSON metadata document describing each object, and one embedded
// PLY payload per object.
func (sc *Scene) Save(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Log(err)
	}
	defer f.Close()
	if err := sc.Write(f); err != nil {
		return errors.Log(err)
	}
	return errors.Log(f.Close())
}

// Write writes the scene in the .sharp format to w.
func (sc *Scene) Write(w io.Writer) error {
	meta := sceneMeta{Objects: make([]objectMeta, 0, len(sc.order))}
	payloads := make([]*bytes.Buffer, 0, len(sc.order))
	for _, id := range sc.order {
		ob := sc.objects[id]
		var buf bytes.Buffer
		if err := ob.Cloud.WritePLY(&buf); err != nil {
			return err
		}
		meta.Objects = append(meta.Objects, objectMeta{
			Name:        ob.Name,
			Position:    [3]float32{ob.Pos.X, ob.Pos.Y, ob.Pos.Z},
			Rotation:    [4]float32{ob.Rot.X, ob.Rot.Y, ob.Rot.Z, ob.Rot.W},
			Scale:       [3]float32{ob.Scale.X, ob.Scale.Y, ob.Scale.Z},
			Visible:     ob.Visible,
			PayloadSize: int64(buf.Len()),
		})
		payloads = append(payloads, &buf)
	}

	mb, err := jsonx.WriteBytes(&meta)
	if err != nil {
		return err
	}

	bw := bufio.NewWriter(w)
	bw.Write(sharpMagic[:])
	binary.Write(bw, binary.LittleEndian, sharpVersion)
	binary.Write(bw, binary.LittleEndian, uint32(len(mb)))
	bw.Write(mb)
	for _, buf := range payloads {
		if _, err := bw.Write(buf.Bytes()); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// Load replaces the scene's contents with the objects from the .sharp
// file at path. Object ids are freshly issued; ids from before the
// load remain invalid. Loading is all-or-nothing: on any error the
// scene is left unchanged.
func (sc *Scene) Load(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Log(err)
	}
	defer f.Close()
	return errors.Log(sc.Read(f))
}

// Read is [Scene.Load] from an io.Reader.
func (sc *Scene) Read(r io.Reader) error {
	br := bufio.NewReader(r)

	var magic [4]byte
	if _, err := io.ReadFull(br, magic[:]); err != nil {
		return err
	}
	if magic != sharpMagic {
		return errBadMagic
	}
	var version uint32
	if err := binary.Read(br, binary.LittleEndian, &version); err != nil {
		return err
	}
	if version != sharpVersion {
		return fmt.Errorf("%w: %d", errBadVersion, version)
	}
	var metaLen uint32
	if err := binary.Read(br, binary.LittleEndian, &metaLen); err != nil {
		return err
	}
	if metaLen == 0 || metaLen > maxMetadataSize {
		return errBadMetadata
	}
	mb := make([]byte, metaLen)
	if _, err := io.ReadFull(br, mb); err != nil {
		return err
	}
	var meta sceneMeta
	if err := jsonx.Read(&meta, bytes.NewReader(mb)); err != nil {
		return fmt.Errorf("%w: %w", errBadMetadata, err)
	}

	// decode and upload every payload before touching the scene, so
	// any failure leaves it unchanged
	type loaded struct {
		meta  objectMeta
		cloud *splat.Cloud
	}
	objs := make([]loaded, 0, len(meta.Objects))
	for i := range meta.Objects {
		om := &meta.Objects[i]
		if om.PayloadSize <= 0 {
			return fmt.Errorf("%w: object %q payload size %d", errBadMetadata, om.Name, om.PayloadSize)
		}
		cl, err := splat.ReadPLY(io.LimitReader(br, om.PayloadSize))
		if err != nil {
			return fmt.Errorf("sharp: object %q: %w", om.Name, err)
		}
		if err := cl.Upload(sc.ds); err != nil {
			return fmt.Errorf("sharp: object %q: %w", om.Name, err)
		}
		objs = append(objs, loaded{meta: *om, cloud: cl})
	}

	sc.Clear()
	for _, lo := range objs {
		id := sc.AddCloud(lo.cloud, lo.meta.Name)
		if id == InvalidObjectID {
			continue
		}
		ob := sc.objects[id]
		ob.Pos = math32.Vec3(lo.meta.Position[0], lo.meta.Position[1], lo.meta.Position[2])
		ob.Rot = math32.NewQuat(lo.meta.Rotation[0], lo.meta.Rotation[1], lo.meta.Rotation[2], lo.meta.Rotation[3])
		ob.Rot.Normalize()
		ob.Scale = math32.Vec3(lo.meta.Scale[0], lo.meta.Scale[1], lo.meta.Scale[2])
		ob.Visible = lo.meta.Visible
	}
	return nil
}
