// Copyright 2025 Dominik Honnef and contributors
// SPDX-License-Identifier: Apache-2.0 OR MIT

// Package cpu provides CPU implementations of the compute kernels.
//
// These intentionally replicate the WGSL kernels step for step instead of
// using more CPU-friendly formulations. They're a debug and verification
// tool, not a viable fallback.
package cpu

import (
	"honnef.co/go/safeish"
	"honnef.co/go/sward/renderer"
)

// Texture is a CPU-side float texture with up to four channels,
// row-major, matching what textureLoad sees on the GPU.
type Texture struct {
	Width    uint32
	Height   uint32
	Channels uint32
	Data     []float32
}

func NewTexture(width, height, channels uint32) *Texture {
	return &Texture{
		Width:    width,
		Height:   height,
		Channels: channels,
		Data:     make([]float32, width*height*channels),
	}
}

// Fill sets every texel's first channel, like a render-pass clear.
func (t *Texture) Fill(v float32) {
	for i := range t.Data {
		if uint32(i)%t.Channels == 0 {
			t.Data[i] = v
		} else {
			t.Data[i] = 0
		}
	}
}

func (t *Texture) Load(x, y uint32) [4]float32 {
	var out [4]float32
	base := (y*t.Width + x) * t.Channels
	copy(out[:], t.Data[base:base+t.Channels])
	return out
}

func (t *Texture) Store(x, y uint32, v [4]float32) {
	base := (y*t.Width + x) * t.Channels
	copy(t.Data[base:base+t.Channels], v[:t.Channels])
}

// AppendBuffer mirrors the GPU append buffer byte for byte: a u32 counter
// in a 16-byte header, then 16-byte position records.
type AppendBuffer struct {
	data []byte
}

func NewAppendBuffer(capacity uint32) *AppendBuffer {
	return &AppendBuffer{
		data: make([]byte, renderer.AppendHeaderSize+uint64(capacity)*renderer.PositionRecordSize),
	}
}

func (b *AppendBuffer) counter() *uint32 {
	return safeish.Cast[*uint32](&b.data[0])
}

// Reset zeroes the counter, the CPU analogue of the Clear command that
// precedes every cull dispatch.
func (b *AppendBuffer) Reset() {
	*b.counter() = 0
}

func (b *AppendBuffer) Count() uint32 {
	return *b.counter()
}

// Records returns the live records, Count() entries.
func (b *AppendBuffer) Records() [][4]float32 {
	all := safeish.SliceCast[[][4]float32](b.data[renderer.AppendHeaderSize:])
	return all[:b.Count()]
}

// append reproduces the kernel's add/check/sub sequence: past capacity the
// record is dropped and the counter settles back.
func (b *AppendBuffer) append(capacity uint32, rec [4]float32) {
	c := b.counter()
	idx := *c
	*c++
	if idx >= capacity {
		*c--
		return
	}
	all := safeish.SliceCast[[][4]float32](b.data[renderer.AppendHeaderSize:])
	all[idx] = rec
}
