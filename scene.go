// Copyright (c) 2025, Sharp Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package sharp manages flat collections of Gaussian splat clouds with
// independent transforms, and persists them as .sharp scene files. The
// heavy lifting lives in the subpackages: splat holds the cloud data
// model, depthsort the parallel back-to-front ordering, and render the
// covariance projection and compositing.
package sharp

import (
	"sync"

	"cogentcore.org/core/base/errors"
	"cogentcore.org/core/math32"
	"github.com/sharp3d/sharp/kernel"
	"github.com/sharp3d/sharp/render"
	"github.com/sharp3d/sharp/splat"
)

// ObjectID is a stable handle to an object in a [Scene]. Identifiers
// are unique for the scene's lifetime and never reused after removal.
type ObjectID int

// InvalidObjectID is the sentinel returned by lookups that fail and by
// [Scene.AddCloud] when the cloud cannot be added.
const InvalidObjectID ObjectID = -1

// SceneObject wraps one splat cloud with an independent transform, a
// visibility flag and an optional name. Objects are created through
// [Scene.AddCloud] and owned by the scene; the cloud is moved in, not
// shared.
type SceneObject struct {
	// ID is the object's stable identifier within its scene.
	ID ObjectID

	// Name is an optional label; names need not be unique.
	Name string

	// Pos is the object's position in world space.
	Pos math32.Vector3

	// Rot is the object's orientation, kept normalized.
	Rot math32.Quat

	// Scale is the per-axis scale factor.
	Scale math32.Vector3

	// Visible controls participation in rendering. Hidden objects
	// still count toward scene totals.
	Visible bool

	// Cloud is the object's splat data, exclusively owned.
	Cloud *splat.Cloud
}

// Matrix returns the object-to-world matrix composed from the
// object's position, rotation and scale.
func (ob *SceneObject) Matrix() math32.Matrix4 {
	var m math32.Matrix4
	m.SetTransform(ob.Pos, ob.Rot, ob.Scale)
	return m
}

// Scene is a flat, un-nested collection of [SceneObject]s keyed by
// [ObjectID]. All mutation belongs to a single control thread between
// frames; [Scene.Render] takes an internal lock for its duration so a
// frame always sees a consistent object set.
type Scene struct {
	objects map[ObjectID]*SceneObject
	order   []ObjectID
	nextID  ObjectID

	// renderMu serializes rendering against scene snapshots.
	renderMu sync.Mutex

	ds *kernel.Dispatcher
}

// NewScene returns an empty scene dispatching compute on all
// available CPUs.
func NewScene() *Scene {
	return NewSceneWithDispatcher(kernel.NewDispatcher(0))
}

// NewSceneWithDispatcher is [NewScene] on an explicit dispatcher.
func NewSceneWithDispatcher(ds *kernel.Dispatcher) *Scene {
	return &Scene{objects: map[ObjectID]*SceneObject{}, ds: ds}
}

// AddCloud transfers ownership of the cloud into a new visible object
// with identity transform and the given name, returning its id. If the
// cloud is nil, empty, or its buffer upload fails, the scene is left
// unchanged and [InvalidObjectID] is returned.
func (sc *Scene) AddCloud(cl *splat.Cloud, name string) ObjectID {
	if cl == nil || cl.IsEmpty() {
		return InvalidObjectID
	}
	if err := cl.Upload(sc.ds); errors.Log(err) != nil {
		return InvalidObjectID
	}
	ob := &SceneObject{
		ID:      sc.nextID,
		Name:    name,
		Scale:   math32.Vec3(1, 1, 1),
		Visible: true,
		Cloud:   cl,
	}
	ob.Rot.SetIdentity()
	sc.objects[ob.ID] = ob
	sc.order = append(sc.order, ob.ID)
	sc.nextID++
	return ob.ID
}

// RemoveObject removes and releases the object. It reports whether an
// object with that id existed.
func (sc *Scene) RemoveObject(id ObjectID) bool {
	if _, ok := sc.objects[id]; !ok {
		return false
	}
	delete(sc.objects, id)
	for i, oid := range sc.order {
		if oid == id {
			sc.order = append(sc.order[:i], sc.order[i+1:]...)
			break
		}
	}
	return true
}

// Clear removes all objects, invalidating every previously issued id.
func (sc *Scene) Clear() {
	sc.objects = map[ObjectID]*SceneObject{}
	sc.order = sc.order[:0]
}

// ObjectCount returns the number of objects, visible or not.
func (sc *Scene) ObjectCount() int { return len(sc.objects) }

// HasObject reports whether id refers to a live object.
func (sc *Scene) HasObject(id ObjectID) bool {
	_, ok := sc.objects[id]
	return ok
}

// ObjectIDs returns the live object ids in insertion order.
func (sc *Scene) ObjectIDs() []ObjectID {
	ids := make([]ObjectID, len(sc.order))
	copy(ids, sc.order)
	return ids
}

// Object returns the object with the given id, or nil. The returned
// object is live scene state; mutate it only from the control thread.
func (sc *Scene) Object(id ObjectID) *SceneObject { return sc.objects[id] }

// Cloud returns the cloud owned by the given object, or nil.
func (sc *Scene) Cloud(id ObjectID) *splat.Cloud {
	if ob := sc.objects[id]; ob != nil {
		return ob.Cloud
	}
	return nil
}

// SetPosition sets the object's world position. Invalid ids are a
// no-op, as for all per-object setters.
func (sc *Scene) SetPosition(id ObjectID, pos math32.Vector3) {
	if ob := sc.objects[id]; ob != nil {
		ob.Pos = pos
	}
}

// Position returns the object's position, or the zero vector.
func (sc *Scene) Position(id ObjectID) math32.Vector3 {
	if ob := sc.objects[id]; ob != nil {
		return ob.Pos
	}
	return math32.Vector3{}
}

// SetRotation sets the object's orientation, normalizing q.
func (sc *Scene) SetRotation(id ObjectID, q math32.Quat) {
	if ob := sc.objects[id]; ob != nil {
		q.Normalize()
		ob.Rot = q
	}
}

// SetRotationAxisAngle sets the orientation from a rotation of angle
// radians about axis.
func (sc *Scene) SetRotationAxisAngle(id ObjectID, axis math32.Vector3, angle float32) {
	if ob := sc.objects[id]; ob != nil {
		ob.Rot.SetFromAxisAngle(axis.Normal(), angle)
	}
}

// Rotation returns the object's orientation, or identity.
func (sc *Scene) Rotation(id ObjectID) math32.Quat {
	if ob := sc.objects[id]; ob != nil {
		return ob.Rot
	}
	q := math32.Quat{}
	q.SetIdentity()
	return q
}

// SetScale sets the object's per-axis scale.
func (sc *Scene) SetScale(id ObjectID, s math32.Vector3) {
	if ob := sc.objects[id]; ob != nil {
		ob.Scale = s
	}
}

// SetScaleUniform sets the same scale factor on all axes.
func (sc *Scene) SetScaleUniform(id ObjectID, s float32) {
	sc.SetScale(id, math32.Vec3(s, s, s))
}

// Scale returns the object's scale, or (1, 1, 1).
func (sc *Scene) Scale(id ObjectID) math32.Vector3 {
	if ob := sc.objects[id]; ob != nil {
		return ob.Scale
	}
	return math32.Vec3(1, 1, 1)
}

// SetTransform sets position, rotation and scale from a decomposition
// of the given affine matrix.
func (sc *Scene) SetTransform(id ObjectID, m *math32.Matrix4) {
	if ob := sc.objects[id]; ob != nil {
		ob.Pos, ob.Rot, ob.Scale = m.Decompose()
	}
}

// Transform returns the object-to-world matrix, or identity.
func (sc *Scene) Transform(id ObjectID) math32.Matrix4 {
	if ob := sc.objects[id]; ob != nil {
		return ob.Matrix()
	}
	var m math32.Matrix4
	m.SetIdentity()
	return m
}

// SetVisible sets the object's visibility. Hidden objects keep
// counting toward splat and memory totals.
func (sc *Scene) SetVisible(id ObjectID, vis bool) {
	if ob := sc.objects[id]; ob != nil {
		ob.Visible = vis
	}
}

// IsVisible reports the object's visibility; false for invalid ids.
func (sc *Scene) IsVisible(id ObjectID) bool {
	if ob := sc.objects[id]; ob != nil {
		return ob.Visible
	}
	return false
}

// ShowAll makes every object visible.
func (sc *Scene) ShowAll() {
	for _, ob := range sc.objects {
		ob.Visible = true
	}
}

// HideAll hides every object.
func (sc *Scene) HideAll() {
	for _, ob := range sc.objects {
		ob.Visible = false
	}
}

// SetName renames the object.
func (sc *Scene) SetName(id ObjectID, name string) {
	if ob := sc.objects[id]; ob != nil {
		ob.Name = name
	}
}

// Name returns the object's name, or "".
func (sc *Scene) Name(id ObjectID) string {
	if ob := sc.objects[id]; ob != nil {
		return ob.Name
	}
	return ""
}

// FindByName returns the id of the first object with the given name in
// insertion order, or [InvalidObjectID].
func (sc *Scene) FindByName(name string) ObjectID {
	for _, id := range sc.order {
		if sc.objects[id].Name == name {
			return id
		}
	}
	return InvalidObjectID
}

// TotalSplatCount returns the number of splats across all objects,
// regardless of visibility.
func (sc *Scene) TotalSplatCount() int {
	n := 0
	for _, ob := range sc.objects {
		n += ob.Cloud.Len()
	}
	return n
}

// TotalMemoryUsage returns the total memory footprint of all clouds in
// bytes, host and buffer copies included.
func (sc *Scene) TotalMemoryUsage() int {
	n := 0
	for _, ob := range sc.objects {
		n += ob.Cloud.MemoryUsage()
	}
	return n
}

// Bounds returns the world-space axis-aligned bounds over all objects,
// with each object's transform applied. Empty scenes return an empty
// box ([math32.B3Empty]).
func (sc *Scene) Bounds() math32.Box3 {
	b := math32.B3Empty()
	for _, id := range sc.order {
		ob := sc.objects[id]
		if ob.Cloud.IsEmpty() {
			continue
		}
		m := ob.Matrix()
		b.ExpandByBox(ob.Cloud.Bounds().MulMatrix4(&m))
	}
	return b
}

// BoundsMin returns the minimum corner of [Scene.Bounds].
func (sc *Scene) BoundsMin() math32.Vector3 { return sc.Bounds().Min }

// BoundsMax returns the maximum corner of [Scene.Bounds].
func (sc *Scene) BoundsMax() math32.Vector3 { return sc.Bounds().Max }

// Center returns the center of the world-space scene bounds.
func (sc *Scene) Center() math32.Vector3 { return sc.Bounds().Center() }

// Size returns the extents of the world-space scene bounds.
func (sc *Scene) Size() math32.Vector3 { return sc.Bounds().Size() }

// Render composites every visible object through the renderer using
// the camera. Clouds mutated since their last upload are re-uploaded
// here, under the render lock, before the frame reads them; an object
// whose upload fails is skipped for the frame. The lock is held for
// the duration, so the frame sees one consistent snapshot; mutate the
// scene only between frames.
func (sc *Scene) Render(rd *render.Renderer, cm *render.Camera) {
	sc.renderMu.Lock()
	defer sc.renderMu.Unlock()
	items := make([]render.Item, 0, len(sc.order))
	for _, id := range sc.order {
		ob := sc.objects[id]
		if !ob.Visible {
			continue
		}
		if errors.Log(ob.Cloud.Upload(sc.ds)) != nil {
			continue
		}
		items = append(items, render.Item{Cloud: ob.Cloud, Matrix: ob.Matrix()})
	}
	rd.Render(items, cm)
}

// RenderObject renders a single object regardless of its visibility
// flag. Invalid ids render nothing.
func (sc *Scene) RenderObject(id ObjectID, rd *render.Renderer, cm *render.Camera) {
	sc.renderMu.Lock()
	defer sc.renderMu.Unlock()
	ob := sc.objects[id]
	if ob == nil || errors.Log(ob.Cloud.Upload(sc.ds)) != nil {
		return
	}
	rd.Render([]render.Item{{Cloud: ob.Cloud, Matrix: ob.Matrix()}}, cm)
}
