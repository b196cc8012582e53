// Copyright 2025 Dominik Honnef and contributors
// SPDX-License-Identifier: Apache-2.0 OR MIT

package renderer

import (
	"honnef.co/go/safeish"
	"honnef.co/go/sward/smath"
)

// PipelineShaders holds the compute kernels of the generation pipeline, as
// registered with an engine. HizCopy and HizReduce may be Invalid when the
// reduction kernels failed to resolve; the pipeline then degrades to a
// dummy pyramid and the cull kernel skips occlusion testing.
type PipelineShaders struct {
	HizCopy   ShaderID
	HizReduce ShaderID
	GrassCull ShaderID
}

const InvalidShader ShaderID = -1

func (s *PipelineShaders) HizAvailable() bool {
	return s.HizCopy != InvalidShader && s.HizReduce != InvalidShader
}

// SurfaceBuffers are the four surface-property attachments produced by the
// top-down pass. Color and Slope are handed back to the host for the blade
// shading stage; Height and Mask feed the cull kernel.
type SurfaceBuffers struct {
	Height ImageProxy
	Mask   ImageProxy
	Color  ImageProxy
	Slope  ImageProxy
}

// HizPyramid is the depth mip chain consumed by the cull kernel. MipCount
// 0 identifies the degraded 1×1 dummy: the kernel must then treat every
// occlusion query as visible.
type HizPyramid struct {
	Image    ImageProxy
	MipCount uint32
}

// SurfaceBatches is the scene geometry of one surface pass, already
// filtered by the host: Ground is everything on the configured layer, drawn
// with the height-override material; the rest are the specially tagged
// objects drawn with their own materials.
type SurfaceBatches struct {
	Ground []DrawBatch
	Mask   []DrawBatch
	Color  []DrawBatch
	Slope  []DrawBatch
}

// RecordSurfacePass records the merged four-attachment rasterization of
// the viewer window. All four targets are cleared first: height to the
// sentinel (so unwritten texels read as "no surface"), mask to zero (full
// density), color to the base tint, slope to transparent zero. A depth
// attachment makes the topmost surface win.
func RecordSurfacePass(
	rec *Recording,
	uniform SurfaceUniform,
	resolution uint32,
	baseTint [4]float64,
	batches *SurfaceBatches,
) SurfaceBuffers {
	bufs := SurfaceBuffers{
		Height: NewImageProxy(resolution, resolution, Rg32Float),
		Mask:   NewImageProxy(resolution, resolution, R8),
		Color:  NewImageProxy(resolution, resolution, Rgba8),
		Slope:  NewImageProxy(resolution, resolution, Rgba16Float),
	}
	depth := NewImageProxy(resolution, resolution, Depth32Float)
	uniformBuf := rec.UploadUniform("surface uniform", safeish.AsBytes(&uniform))

	n := len(batches.Ground) + len(batches.Mask) + len(batches.Color) + len(batches.Slope)
	all := make([]DrawBatch, 0, n)
	all = append(all, batches.Ground...)
	all = append(all, batches.Mask...)
	all = append(all, batches.Color...)
	all = append(all, batches.Slope...)

	rec.RenderPass(&RenderPass{
		Label: "surface properties",
		Color: []ColorAttachment{
			{Image: bufs.Height, Clear: [4]float64{float64(smath.HeightSentinel), 0, 0, 0}},
			{Image: bufs.Mask, Clear: [4]float64{0, 0, 0, 0}},
			{Image: bufs.Color, Clear: baseTint},
			{Image: bufs.Slope, Clear: [4]float64{0, 0, 0, 0}},
		},
		Depth:   &DepthAttachment{Image: depth, Clear: 1},
		Uniform: uniformBuf,
		Batches: all,
	})
	rec.FreeImage(depth)
	return bufs
}

// RecordHizBuild records the depth pyramid build: one copy dispatch for
// mip 0, then one reduce dispatch per further mip, each reading the
// previous level and max-reducing 2×2 blocks (with edge clamping for
// non-power-of-two sizes). If the kernels are unavailable the pyramid
// degrades to a 1×1 dummy with mip count 0 rather than over-culling.
func RecordHizBuild(
	rec *Recording,
	shaders *PipelineShaders,
	depth ImageProxy,
) HizPyramid {
	if !shaders.HizAvailable() {
		return HizPyramid{
			Image:    NewImageProxy(1, 1, R32Float),
			MipCount: 0,
		}
	}

	mips := smath.MipCount(depth.Width, depth.Height)
	pyramid := NewMippedImageProxy(depth.Width, depth.Height, mips, R32Float)

	wg := func(level uint32) [3]uint32 {
		w := smath.MipDim(depth.Width, level)
		h := smath.MipDim(depth.Height, level)
		return [3]uint32{
			(w + HizWorkgroupDim - 1) / HizWorkgroupDim,
			(h + HizWorkgroupDim - 1) / HizWorkgroupDim,
			1,
		}
	}

	rec.Dispatch(shaders.HizCopy, wg(0), []ResourceProxy{
		depth.Resource(),
		pyramid.MipResource(0),
	})
	for m := uint32(1); m < mips; m++ {
		rec.Dispatch(shaders.HizReduce, wg(m), []ResourceProxy{
			pyramid.MipResource(m - 1),
			pyramid.MipResource(m),
		})
	}
	return HizPyramid{Image: pyramid, MipCount: mips}
}

// CullOutputs are the buffers a frame's generation ends with: the blade
// position records and the indirect draw arguments, ready for one indexed
// indirect instanced draw. Counter is only set when preview readback was
// requested.
type CullOutputs struct {
	Positions BufferProxy
	Args      BufferProxy
	Counter   BufferProxy
}

// RecordGridCull records the placement kernel and the argument update. The
// append counter is cleared before the dispatch; after it, the counter
// value is copied into the instanceCount slot of the argument buffer. With
// preview enabled the counter is additionally copied into a 4-byte staging
// buffer and downloaded for host readback, which is a GPU sync point and
// not meant for production.
func RecordGridCull(
	rec *Recording,
	shaders *PipelineShaders,
	cfg *CullConfig,
	surface SurfaceBuffers,
	hiz HizPyramid,
	bladeIndexCount uint32,
	preview bool,
) CullOutputs {
	positions := NewBufferProxy(cfg.PositionsSize, "grass positions")
	args := IndirectArgs(bladeIndexCount)
	argsBuf := rec.Upload("grass indirect args", safeish.AsBytes(&args))

	uniformBuf := rec.UploadUniform("cull uniform", safeish.AsBytes(&cfg.Uniform))
	rec.Clear(positions, 0, AppendHeaderSize)
	rec.Dispatch(shaders.GrassCull, cfg.WorkgroupCount, []ResourceProxy{
		uniformBuf.Resource(),
		surface.Height.Resource(),
		surface.Mask.Resource(),
		hiz.Image.Resource(),
		positions.Resource(),
	})
	rec.CopyBuffer(positions, 0, argsBuf, InstanceCountOffset, 4)
	out := CullOutputs{Positions: positions, Args: argsBuf}
	if preview {
		// Uploaded rather than merely named so the engine has
		// materialized it by the time the copy runs.
		out.Counter = rec.Upload("grass counter readback", make([]byte, 4))
		rec.CopyBuffer(positions, 0, out.Counter, 0, 4)
		rec.Download(out.Counter)
		rec.FreeBuffer(out.Counter)
	}
	rec.FreeBuffer(uniformBuf)
	return out
}
