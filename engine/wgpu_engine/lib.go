// Copyright 2025 Dominik Honnef and contributors
// SPDX-License-Identifier: Apache-2.0 OR MIT

package wgpu_engine

import (
	"fmt"

	"honnef.co/go/sward/engine/wgpu_engine/shaders"
	"honnef.co/go/sward/renderer"
	"honnef.co/go/wgpu"
)

type EngineOptions struct {
	// DisableOcclusion skips creation of the Hi-Z kernels; the pipeline
	// then records the degraded 1×1 pyramid and the cull kernel performs
	// no occlusion testing. Useful on backends where the reduction
	// kernels fail to resolve.
	DisableOcclusion bool
}

var bindTypeMapping = [...]renderer.BindType{
	shaders.Buffer:      {Type: renderer.BindTypeBuffer},
	shaders.BufReadOnly: {Type: renderer.BindTypeBufReadOnly},
	shaders.Uniform:     {Type: renderer.BindTypeUniform},
	shaders.Image:       {Type: renderer.BindTypeImage, ImageFormat: renderer.R32Float},
	shaders.ImageRead:   {Type: renderer.BindTypeImageRead},
	shaders.DepthRead:   {Type: renderer.BindTypeImageRead, ImageFormat: renderer.Depth32Float},
}

func (eng *Engine) newPipelineShaders(options *EngineOptions) *renderer.PipelineShaders {
	register := func(shader *shaders.ComputeShader) renderer.ShaderID {
		bindings := make([]renderer.BindType, len(shader.Bindings))
		for i, b := range shader.Bindings {
			bindings[i] = bindTypeMapping[b]
		}
		if len(shader.WGSL) == 0 {
			panic(fmt.Sprintf("shader %q has no code", shader.Name))
		}
		return eng.addShader(shader.Name, shader.WGSL, bindings)
	}

	out := &renderer.PipelineShaders{
		HizCopy:   renderer.InvalidShader,
		HizReduce: renderer.InvalidShader,
	}
	if !options.DisableOcclusion {
		out.HizCopy = register(&shaders.Collection.HizCopy)
		out.HizReduce = register(&shaders.Collection.HizReduce)
	}
	out.GrassCull = register(&shaders.Collection.GrassCull)
	return out
}

// Shaders returns the registered kernel IDs for use with the renderer's
// recording builders.
func (eng *Engine) Shaders() *renderer.PipelineShaders {
	return eng.pipelineShaders
}

type material struct {
	pipeline *wgpu.RenderPipeline
	// material-owned resources, bound at group 1; may be nil
	extra *wgpu.BindGroup
}

// surfaceTargets lists the color targets of the surface-property pass in
// attachment order. Write masks select which one a material writes.
var surfaceTargets = [...]renderer.ImageFormat{
	renderer.Rg32Float,
	renderer.R8,
	renderer.Rgba8,
	renderer.Rgba16Float,
}

// RegisterSurfaceMaterial compiles src as a render pipeline for the
// surface-property pass, writing only the attachment at target. The
// pipeline receives the pass uniform at group 0 binding 0 and, when
// extraLayout is non-nil, the material's own resources at group 1.
// Vertices are tightly packed float32x3 positions.
func (eng *Engine) RegisterSurfaceMaterial(
	label string,
	src []byte,
	target int,
	extraLayout *wgpu.BindGroupLayout,
	extra *wgpu.BindGroup,
) renderer.MaterialID {
	module := eng.Device.CreateShaderModule(wgpu.ShaderModuleDescriptor{
		Label:  label,
		Source: wgpu.ShaderSourceWGSL(src),
	})
	layouts := []*wgpu.BindGroupLayout{eng.uniformLayout}
	if extraLayout != nil {
		layouts = append(layouts, extraLayout)
	}
	pipelineLayout := eng.Device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            label,
		BindGroupLayouts: layouts,
	})
	targets := make([]wgpu.ColorTargetState, len(surfaceTargets))
	for i, format := range surfaceTargets {
		mask := wgpu.ColorWriteMask(0)
		if i == target {
			mask = wgpu.ColorWriteMaskAll
		}
		targets[i] = wgpu.ColorTargetState{
			Format:    imageFormatToWGPU(format),
			WriteMask: mask,
		}
	}
	pipeline := eng.Device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label:  label,
		Layout: pipelineLayout,
		Vertex: &wgpu.VertexState{
			Module:     module,
			EntryPoint: "vs_main",
			Buffers: []wgpu.VertexBufferLayout{
				{
					ArrayStride: 12,
					StepMode:    wgpu.VertexStepModeVertex,
					Attributes: []wgpu.VertexAttribute{
						{
							Format:         wgpu.VertexFormatFloat32x3,
							Offset:         0,
							ShaderLocation: 0,
						},
					},
				},
			},
		},
		Fragment: &wgpu.FragmentState{
			Module:     module,
			EntryPoint: "fs_main",
			Targets:    targets,
		},
		DepthStencil: &wgpu.DepthStencilState{
			Format:            imageFormatToWGPU(renderer.Depth32Float),
			DepthWriteEnabled: true,
			DepthCompare:      wgpu.CompareFunctionLess,
		},
		Primitive: &wgpu.PrimitiveState{
			Topology:         wgpu.PrimitiveTopologyTriangleList,
			StripIndexFormat: ^wgpu.IndexFormat(0),
			FrontFace:        wgpu.FrontFaceCCW,
			CullMode:         wgpu.CullModeNone,
		},
		Multisample: &wgpu.MultisampleState{
			Count:                  1,
			Mask:                   ^uint32(0),
			AlphaToCoverageEnabled: false,
		},
	})
	pipelineLayout.Release()

	id := eng.nextMaterial
	eng.nextMaterial++
	eng.materials[id] = &material{
		pipeline: pipeline,
		extra:    extra,
	}
	return id
}

// HeightMaterial is the built-in height-override material: every object on
// the grass layer is drawn with it into the height attachment.
func (eng *Engine) HeightMaterial() renderer.MaterialID {
	return eng.heightMaterial
}

func imageFormatToWGPU(f renderer.ImageFormat) wgpu.TextureFormat {
	switch f {
	case renderer.Rgba8:
		return wgpu.TextureFormatRGBA8Unorm
	case renderer.Rgba16Float:
		return wgpu.TextureFormatRGBA16Float
	case renderer.R8:
		return wgpu.TextureFormatR8Unorm
	case renderer.Rg32Float:
		return wgpu.TextureFormatRG32Float
	case renderer.R32Float:
		return wgpu.TextureFormatR32Float
	case renderer.Depth32Float:
		return wgpu.TextureFormatDepth32Float
	default:
		panic(fmt.Sprintf("unhandled value %d", f))
	}
}
