// Copyright 2025 Dominik Honnef and contributors
// SPDX-License-Identifier: Apache-2.0 OR MIT

package renderer

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"honnef.co/go/sward/smath"
)

var testShaders = &PipelineShaders{
	HizCopy:   0,
	HizReduce: 1,
	GrassCull: 2,
}

func testCullConfig(capacity uint32, hizMips uint32) *CullConfig {
	min := mgl32.Vec3{-55, -10, -55}
	max := mgl32.Vec3{55, 40, 55}
	view, proj := smath.TopDownOrtho(min, max)
	return NewCullConfig(
		proj.Mul4(view),
		mgl32.Vec3{3, 1.7, -4},
		min, max,
		0.5, 50, 20, 2,
		capacity,
		hizMips,
		1920, 1080,
	)
}

func testSurface() SurfaceBuffers {
	return SurfaceBuffers{
		Height: NewImageProxy(512, 512, Rg32Float),
		Mask:   NewImageProxy(512, 512, R8),
		Color:  NewImageProxy(512, 512, Rgba8),
		Slope:  NewImageProxy(512, 512, Rgba16Float),
	}
}

func TestNewCullConfig(t *testing.T) {
	cfg := testCullConfig(1000, 5)

	// 110 world units at 0.5 spacing, in 8-wide groups
	assert.Equal(t, [2]int32{-110, -110}, cfg.Uniform.GridStart)
	assert.Equal(t, [2]uint32{220, 220}, cfg.Uniform.GridSize)
	assert.Equal(t, [3]uint32{28, 28, 1}, cfg.WorkgroupCount)
	assert.Equal(t, uint64(AppendHeaderSize)+1000*PositionRecordSize, cfg.PositionsSize)
	assert.Equal(t, uint32(5), cfg.Uniform.HizMipCount)
}

func TestRecordGridCullOrder(t *testing.T) {
	var rec Recording
	cfg := testCullConfig(1000, 0)
	out := RecordGridCull(&rec, testShaders, cfg, testSurface(), HizPyramid{
		Image:    NewImageProxy(1, 1, R32Float),
		MipCount: 0,
	}, 42, false)

	clearIdx, dispatchIdx, copyIdx := -1, -1, -1
	for i, cmd := range rec.Commands {
		switch cmd := cmd.(type) {
		case *Clear:
			require.Equal(t, out.Positions.ID, cmd.Buffer.ID)
			assert.Equal(t, uint64(0), cmd.Offset)
			assert.Equal(t, int64(AppendHeaderSize), cmd.Size)
			clearIdx = i
		case *Dispatch:
			require.Equal(t, testShaders.GrassCull, cmd.Shader)
			require.Len(t, cmd.Bindings, 5)
			assert.Equal(t, out.Positions.ID, cmd.Bindings[4].BufferProxy.ID)
			dispatchIdx = i
		case *CopyBuffer:
			require.Equal(t, out.Positions.ID, cmd.Src.ID)
			require.Equal(t, out.Args.ID, cmd.Dst.ID)
			assert.Equal(t, uint64(0), cmd.SrcOffset)
			assert.Equal(t, uint64(InstanceCountOffset), cmd.DstOffset)
			assert.Equal(t, uint64(4), cmd.Size)
			copyIdx = i
		}
	}
	require.NotEqual(t, -1, clearIdx)
	require.NotEqual(t, -1, dispatchIdx)
	require.NotEqual(t, -1, copyIdx)
	assert.Less(t, clearIdx, dispatchIdx, "counter reset happens before the kernel appends")
	assert.Less(t, dispatchIdx, copyIdx, "instance count is copied after the kernel ran")

	assert.Equal(t, uint64(IndirectArgsSize), out.Args.Size)
	assert.Equal(t, cfg.PositionsSize, out.Positions.Size)
	assert.Zero(t, out.Counter.ID, "no readback without preview")
}

func TestRecordGridCullPreview(t *testing.T) {
	var rec Recording
	cfg := testCullConfig(1000, 0)
	out := RecordGridCull(&rec, testShaders, cfg, testSurface(), HizPyramid{
		Image:    NewImageProxy(1, 1, R32Float),
		MipCount: 0,
	}, 42, true)

	require.NotZero(t, out.Counter.ID)

	// The engine only materializes buffers at uploads and dispatch
	// bindings; copies and downloads must never name a buffer it hasn't
	// seen yet.
	live := map[ResourceID]bool{}
	var downloaded, freed bool
	for _, cmd := range rec.Commands {
		switch cmd := cmd.(type) {
		case *Upload:
			live[cmd.Buffer.ID] = true
		case *UploadUniform:
			live[cmd.Buffer.ID] = true
		case *Dispatch:
			for _, b := range cmd.Bindings {
				if b.Kind == ResourceProxyKindBuffer {
					live[b.BufferProxy.ID] = true
				}
			}
		case *CopyBuffer:
			assert.True(t, live[cmd.Src.ID], "copy reads %q before it exists", cmd.Src.Name)
			assert.True(t, live[cmd.Dst.ID], "copy writes %q before it exists", cmd.Dst.Name)
		case *Download:
			assert.True(t, live[cmd.Buffer.ID])
			assert.Equal(t, out.Counter.ID, cmd.Buffer.ID)
			downloaded = true
		case *FreeBuffer:
			if cmd.Buffer.ID == out.Counter.ID {
				assert.True(t, downloaded, "the counter is freed only after its download")
				freed = true
			}
		}
	}
	assert.True(t, downloaded)
	assert.True(t, freed, "the readback staging copy outlives the recording, the counter buffer must not")
}

func TestRecordGridCullArgs(t *testing.T) {
	args := IndirectArgs(42)
	assert.Equal(t, [5]uint32{42, 0, 0, 0, 0}, args)

	var rec Recording
	cfg := testCullConfig(100, 0)
	RecordGridCull(&rec, testShaders, cfg, testSurface(), HizPyramid{
		Image:    NewImageProxy(1, 1, R32Float),
		MipCount: 0,
	}, 42, false)
	up, ok := rec.Commands[0].(*Upload)
	require.True(t, ok)
	assert.Len(t, up.Data, IndirectArgsSize)
}

func TestRecordSurfacePass(t *testing.T) {
	var rec Recording
	view, proj := smath.TopDownOrtho(mgl32.Vec3{-10, 0, -10}, mgl32.Vec3{10, 20, 10})
	uniform := NewSurfaceUniform(view, proj, 0, 20)
	ground := DrawBatch{Vertex: NewBufferProxy(1024, "terrain"), VertexCount: 12}
	mask := DrawBatch{Vertex: NewBufferProxy(256, "path"), VertexCount: 3}
	bufs := RecordSurfacePass(&rec, uniform, 512, [4]float64{0, 0.2, 0, 1}, &SurfaceBatches{
		Ground: []DrawBatch{ground},
		Mask:   []DrawBatch{mask},
	})

	var pass *RenderPass
	for _, cmd := range rec.Commands {
		if cmd, ok := cmd.(*RenderPass); ok {
			require.Nil(t, pass, "exactly one merged pass")
			pass = cmd
		}
	}
	require.NotNil(t, pass)
	require.Len(t, pass.Color, 4)
	assert.Equal(t, bufs.Height.ID, pass.Color[0].Image.ID)
	assert.Equal(t, float64(smath.HeightSentinel), pass.Color[0].Clear[0],
		"height clears to the sentinel")
	assert.Equal(t, bufs.Mask.ID, pass.Color[1].Image.ID)
	assert.Equal(t, [4]float64{0, 0, 0, 0}, pass.Color[1].Clear,
		"mask clears to full density")
	assert.Equal(t, [4]float64{0, 0.2, 0, 1}, pass.Color[2].Clear,
		"color clears to the base tint")
	require.NotNil(t, pass.Depth)
	assert.Equal(t, float32(1), pass.Depth.Clear)
	assert.Len(t, pass.Batches, 2)

	assert.Equal(t, Rg32Float, bufs.Height.Format)
	assert.Equal(t, R8, bufs.Mask.Format)
	assert.Equal(t, Rgba8, bufs.Color.Format)
	assert.Equal(t, Rgba16Float, bufs.Slope.Format)
}

func TestRecordHizBuild(t *testing.T) {
	var rec Recording
	depth := NewImageProxy(1920, 1080, Depth32Float)
	pyramid := RecordHizBuild(&rec, testShaders, depth)

	require.Equal(t, smath.MipCount(1920, 1080), pyramid.MipCount)
	require.Equal(t, pyramid.MipCount, uint32(len(rec.Commands)),
		"one copy plus one reduce per further mip")

	copyCmd, ok := rec.Commands[0].(*Dispatch)
	require.True(t, ok)
	assert.Equal(t, testShaders.HizCopy, copyCmd.Shader)
	assert.Equal(t, [3]uint32{240, 135, 1}, copyCmd.WorkgroupCount)

	for m := uint32(1); m < pyramid.MipCount; m++ {
		reduce, ok := rec.Commands[m].(*Dispatch)
		require.True(t, ok)
		assert.Equal(t, testShaders.HizReduce, reduce.Shader)
		require.Len(t, reduce.Bindings, 2)
		assert.Equal(t, ResourceProxyKindImageMip, reduce.Bindings[0].Kind)
		assert.Equal(t, m-1, reduce.Bindings[0].Mip)
		assert.Equal(t, m, reduce.Bindings[1].Mip)
		w := smath.MipDim(1920, m)
		h := smath.MipDim(1080, m)
		assert.Equal(t, [3]uint32{(w + 7) / 8, (h + 7) / 8, 1}, reduce.WorkgroupCount)
	}
}

func TestRecordHizBuildUnavailable(t *testing.T) {
	var rec Recording
	degraded := &PipelineShaders{HizCopy: InvalidShader, HizReduce: InvalidShader, GrassCull: 0}
	pyramid := RecordHizBuild(&rec, degraded, NewImageProxy(1920, 1080, Depth32Float))
	assert.Zero(t, pyramid.MipCount, "degraded pyramid disables occlusion")
	assert.Empty(t, rec.Commands)
	assert.NotZero(t, pyramid.Image.ID, "the dummy image still binds")
}
