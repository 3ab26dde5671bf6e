// Copyright (c) 2025, Sharp Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package kernel

import "cogentcore.org/core/base/errors"

// MaxBufferSize caps a single buffer allocation, standing in for the
// device limits a real compute backend reports.
const MaxBufferSize = 1 << 31 // bytes

// AllocHook, if non-nil, is consulted before every buffer allocation and
// can veto it by returning an error. Tests use this to exercise the
// resource-failure path without exhausting memory.
var AllocHook func(size int) error

// Buffer is a device-resident buffer stand-in: a flat float32 array with
// byte-size accounting. Contents are uploaded wholesale from packed host
// data and are only replaced, never partially mutated, so an in-flight
// dispatch never observes a torn upload.
type Buffer struct {
	data []float32
}

// NewBuffer allocates a buffer of n float32 values.
func NewBuffer(n int) (*Buffer, error) {
	size := n * 4
	if n <= 0 || size > MaxBufferSize {
		return nil, errors.New("kernel.NewBuffer: invalid buffer size")
	}
	if AllocHook != nil {
		if err := AllocHook(size); err != nil {
			return nil, err
		}
	}
	return &Buffer{data: make([]float32, n)}, nil
}

// Upload replaces the buffer contents with a copy of src.
// Fails if src does not fit.
func (b *Buffer) Upload(src []float32) error {
	if len(src) > len(b.data) {
		return errors.New("kernel.Buffer.Upload: data exceeds buffer size")
	}
	copy(b.data, src)
	return nil
}

// Data exposes the buffer contents to kernels.
func (b *Buffer) Data() []float32 { return b.data }

// Size returns the buffer size in bytes.
func (b *Buffer) Size() int {
	if b == nil {
		return 0
	}
	return len(b.data) * 4
}
