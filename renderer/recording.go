// Copyright 2025 Dominik Honnef and contributors
// SPDX-License-Identifier: Apache-2.0 OR MIT

package renderer

import (
	"sync/atomic"
)

var resourceID atomic.Uint64

func nextResourceID() ResourceID {
	return ResourceID(resourceID.Add(1))
}

type ResourceID uint64

type ResourceProxyKind int

const (
	ResourceProxyKindBuffer ResourceProxyKind = iota + 1
	ResourceProxyKindImage
	ResourceProxyKindImageMip
)

// ResourceProxy is one binding slot of a dispatch. Kind selects between a
// buffer, a whole image, and a single mip level of an image; the latter is
// what lets the Hi-Z reduction chain bind adjacent levels of one texture as
// source and destination.
type ResourceProxy struct {
	Kind ResourceProxyKind
	BufferProxy
	ImageProxy
	Mip uint32
}

// A Recording is a device-independent list of GPU commands. The grass
// pipeline records one per frame and hands it to an engine for execution;
// command order carries all ordering requirements (clears happen-before the
// dispatches that append, the counter copy happens-after the cull
// dispatch).
type Recording struct {
	Commands []Command
}

func (rec *Recording) push(cmd Command) {
	rec.Commands = append(rec.Commands, cmd)
}

func (rec *Recording) Upload(name string, data []byte) BufferProxy {
	buf := NewBufferProxy(uint64(len(data)), name)
	rec.push(&Upload{buf, data})
	return buf
}

func (rec *Recording) UploadUniform(name string, data []byte) BufferProxy {
	buf := NewBufferProxy(uint64(len(data)), name)
	rec.push(&UploadUniform{buf, data})
	return buf
}

func (rec *Recording) Dispatch(shader ShaderID, wgCount [3]uint32, resources []ResourceProxy) {
	rec.push(&Dispatch{shader, wgCount, resources})
}

func (rec *Recording) RenderPass(pass *RenderPass) {
	rec.push(pass)
}

// CopyBuffer copies size bytes between two buffers. The grass pipeline uses
// it for exactly one thing: moving the append counter into the instance
// count slot of the indirect draw arguments.
func (rec *Recording) CopyBuffer(src BufferProxy, srcOffset uint64, dst BufferProxy, dstOffset uint64, size uint64) {
	rec.push(&CopyBuffer{src, srcOffset, dst, dstOffset, size})
}

func (rec *Recording) Download(buf BufferProxy) {
	rec.push(&Download{buf})
}

// Clear zeroes a byte range of a buffer. A negative size clears to the
// end of the buffer.
func (rec *Recording) Clear(buf BufferProxy, offset uint64, size int64) {
	rec.push(&Clear{buf, offset, size})
}

func (rec *Recording) FreeBuffer(buf BufferProxy) {
	rec.push(&FreeBuffer{buf})
}

func (rec *Recording) FreeImage(image ImageProxy) {
	rec.push(&FreeImage{image})
}

func NewBufferProxy(size uint64, name string) BufferProxy {
	id := nextResourceID()
	return BufferProxy{size, id, name}
}

func NewImageProxy(width, height uint32, format ImageFormat) ImageProxy {
	return NewMippedImageProxy(width, height, 1, format)
}

func NewMippedImageProxy(width, height, mips uint32, format ImageFormat) ImageProxy {
	id := nextResourceID()
	return ImageProxy{
		Width:    width,
		Height:   height,
		MipCount: mips,
		Format:   format,
		ID:       id,
	}
}

type BufferProxy struct {
	Size uint64
	ID   ResourceID
	Name string
}

func (p BufferProxy) Resource() ResourceProxy {
	return ResourceProxy{
		Kind:        ResourceProxyKindBuffer,
		BufferProxy: p,
	}
}

type ImageFormat int

const (
	Rgba8 ImageFormat = iota
	Rgba16Float
	R8
	Rg32Float
	R32Float
	Depth32Float
)

type ImageProxy struct {
	Width    uint32
	Height   uint32
	MipCount uint32
	Format   ImageFormat
	ID       ResourceID
}

func (p ImageProxy) Resource() ResourceProxy {
	return ResourceProxy{
		Kind:       ResourceProxyKindImage,
		ImageProxy: p,
	}
}

// MipResource binds a single mip level of the image.
func (p ImageProxy) MipResource(level uint32) ResourceProxy {
	return ResourceProxy{
		Kind:       ResourceProxyKindImageMip,
		ImageProxy: p,
		Mip:        level,
	}
}

type ShaderID int

// MaterialID identifies a render pipeline + bind group pair registered with
// the engine by the host: the height-encoding override material and the
// host's mask/color/slope materials.
type MaterialID int

type Command interface {
	isCommand()
}

func (*Upload) isCommand()        {}
func (*UploadUniform) isCommand() {}
func (*Dispatch) isCommand()      {}
func (*RenderPass) isCommand()    {}
func (*CopyBuffer) isCommand()    {}
func (*Download) isCommand()      {}
func (*Clear) isCommand()         {}
func (*FreeBuffer) isCommand()    {}
func (*FreeImage) isCommand()     {}

type BindTypeType int

const (
	BindTypeBuffer BindTypeType = iota + 1
	BindTypeBufReadOnly
	BindTypeUniform
	BindTypeImage
	BindTypeImageRead
)

type BindType struct {
	Type        BindTypeType
	ImageFormat ImageFormat
}

type Upload struct {
	Buffer BufferProxy
	Data   []byte
}

type UploadUniform struct {
	Buffer BufferProxy
	Data   []byte
}

type Dispatch struct {
	Shader         ShaderID
	WorkgroupCount [3]uint32
	Bindings       []ResourceProxy
}

// ColorAttachment is one target of a surface-property pass, cleared before
// the pass draws into it.
type ColorAttachment struct {
	Image ImageProxy
	Clear [4]float64
}

type DepthAttachment struct {
	Image ImageProxy
	Clear float32
}

// DrawBatch draws one externally owned piece of scene geometry with a
// registered material. Index.ID == 0 means a non-indexed draw of
// VertexCount vertices.
type DrawBatch struct {
	Material    MaterialID
	Vertex      BufferProxy
	VertexCount uint32
	Index       BufferProxy
	IndexCount  uint32
}

// RenderPass rasterizes a batch list into a set of color attachments plus
// an optional depth attachment. Uniform is bound at group 0, binding 0 of
// every material pipeline and carries the pass's own view-projection
// state; the host camera's matrices are never touched, which is what makes
// the top-down override safe on every exit path.
type RenderPass struct {
	Label   string
	Color   []ColorAttachment
	Depth   *DepthAttachment
	Uniform BufferProxy
	Batches []DrawBatch
}

type CopyBuffer struct {
	Src       BufferProxy
	SrcOffset uint64
	Dst       BufferProxy
	DstOffset uint64
	Size      uint64
}

type Download struct {
	Buffer BufferProxy
}

type Clear struct {
	Buffer BufferProxy
	Offset uint64
	Size   int64
}

type FreeBuffer struct {
	Buffer BufferProxy
}

type FreeImage struct {
	Image ImageProxy
}
