// Copyright 2025 Dominik Honnef and contributors
// SPDX-License-Identifier: Apache-2.0 OR MIT

// Package shaders describes the pipeline's kernels: bind layouts and the
// embedded WGSL sources.
package shaders

import (
	_ "embed"
)

type BindType int

const (
	Buffer BindType = iota + 1
	BufReadOnly
	Uniform
	// Image is a write-only r32float storage texture binding.
	Image
	// ImageRead is a sampled float texture binding (unfilterable; all
	// kernels use textureLoad).
	ImageRead
	// DepthRead is a sampled depth texture binding.
	DepthRead
)

// ComputeShader pairs a kernel's WGSL source with its bind layout. The
// workgroup shapes are fixed in the WGSL and mirrored by the renderer's
// workgroup-dim constants.
type ComputeShader struct {
	Name     string
	Bindings []BindType
	WGSL     []byte
}

var (
	//go:embed wgsl/grass_cull.wgsl
	grassCullWGSL []byte
	//go:embed wgsl/hiz_copy.wgsl
	hizCopyWGSL []byte
	//go:embed wgsl/hiz_reduce.wgsl
	hizReduceWGSL []byte
	//go:embed wgsl/surface_height.wgsl
	surfaceHeightWGSL []byte
)

// Collection lists the compute kernels in registration order.
var Collection = struct {
	HizCopy   ComputeShader
	HizReduce ComputeShader
	GrassCull ComputeShader
}{
	HizCopy: ComputeShader{
		Name:     "hiz_copy",
		Bindings: []BindType{DepthRead, Image},
		WGSL:     hizCopyWGSL,
	},
	HizReduce: ComputeShader{
		Name:     "hiz_reduce",
		Bindings: []BindType{ImageRead, Image},
		WGSL:     hizReduceWGSL,
	},
	GrassCull: ComputeShader{
		Name:     "grass_cull",
		Bindings: []BindType{Uniform, ImageRead, ImageRead, ImageRead, Buffer},
		WGSL:     grassCullWGSL,
	},
}

// SurfaceHeightWGSL is the height-override material of the surface pass,
// compiled by the engine as a render pipeline rather than a compute
// pipeline.
func SurfaceHeightWGSL() []byte {
	return surfaceHeightWGSL
}
