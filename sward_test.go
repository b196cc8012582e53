// Copyright 2025 Dominik Honnef and contributors
// SPDX-License-Identifier: Apache-2.0 OR MIT

package sward

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"honnef.co/go/sward/profiler"
	"honnef.co/go/sward/renderer"
	"honnef.co/go/sward/smath"
)

func testParams() Params {
	p := DefaultParams()
	p.BladeIndexCount = 15
	return p
}

func testCamera(pos mgl32.Vec3) *Camera {
	return &Camera{
		Position: pos,
		View:     mgl32.LookAtV(pos, pos.Add(mgl32.Vec3{0, 0, -1}), mgl32.Vec3{0, 1, 0}),
		Proj:     mgl32.Perspective(mgl32.DegToRad(70), 16.0/9.0, 0.1, 500),
		Near:     0.1,
		Width:    1920,
		Height:   1080,
	}
}

func testScene() *FrameScene {
	return &FrameScene{
		Depth: renderer.NewImageProxy(1920, 1080, renderer.Depth32Float),
		Ground: []renderer.DrawBatch{
			{Vertex: renderer.NewBufferProxy(4096, "terrain"), VertexCount: 96},
		},
	}
}

func newTestPipeline(t *testing.T) *Pipeline {
	t.Helper()
	pl, err := NewPipeline(&renderer.PipelineShaders{HizCopy: 0, HizReduce: 1, GrassCull: 2}, testParams())
	require.NoError(t, err)
	return pl
}

func hasRenderPass(rec *renderer.Recording) bool {
	for _, cmd := range rec.Commands {
		if _, ok := cmd.(*renderer.RenderPass); ok {
			return true
		}
	}
	return false
}

func TestParamsValidate(t *testing.T) {
	good := testParams()
	require.NoError(t, good.Validate())

	bad := good
	bad.Spacing = 0
	assert.Error(t, bad.Validate())

	bad = good
	bad.FullDensityDistance = bad.DrawDistance + 1
	assert.Error(t, bad.Validate())

	bad = good
	bad.DensityFalloffExponent = -1
	assert.Error(t, bad.Validate())

	bad = good
	bad.MaxBufferCount = 0
	assert.Error(t, bad.Validate())

	// Capacity is a uint32; counts past 4294 million records would wrap.
	bad = good
	bad.MaxBufferCount = 4295
	assert.Error(t, bad.Validate())

	big := good
	big.MaxBufferCount = 4294
	require.NoError(t, big.Validate())
	assert.Equal(t, uint32(4_294_000_000), big.Capacity())

	bad = good
	bad.WindowMinY, bad.WindowMaxY = 10, 10
	assert.Error(t, bad.Validate())

	bad = good
	bad.BladeIndexCount = 0
	assert.Error(t, bad.Validate())

	assert.Equal(t, uint32(4_000_000), good.Capacity())
}

func TestWindowContainment(t *testing.T) {
	p := testParams()
	for _, pos := range []mgl32.Vec3{{0, 0, 0}, {12.3, 5, -77.7}, {-4.9, 0, 4.9}, {1e4, 0, -1e4}} {
		win := p.window(pos)
		// the window must cover everything within draw distance of the
		// actual (unquantized) viewer position
		assert.LessOrEqual(t, win.min[0], pos[0]-p.DrawDistance, "pos %v", pos)
		assert.GreaterOrEqual(t, win.max[0], pos[0]+p.DrawDistance, "pos %v", pos)
		assert.LessOrEqual(t, win.min[2], pos[2]-p.DrawDistance, "pos %v", pos)
		assert.GreaterOrEqual(t, win.max[2], pos[2]+p.DrawDistance, "pos %v", pos)

		assert.Equal(t, smath.Quantize(pos[0], p.TextureUpdateThreshold), win.center[0])
		assert.Equal(t, smath.Quantize(pos[2], p.TextureUpdateThreshold), win.center[1])
	}
}

func TestFrameSkipsWithoutInputs(t *testing.T) {
	pl := newTestPipeline(t)
	rec, out := pl.Frame(nil, testScene(), profiler.Nop{})
	assert.False(t, out.Ran)
	assert.Empty(t, rec.Commands)

	rec, out = pl.Frame(testCamera(mgl32.Vec3{}), nil, profiler.Nop{})
	assert.False(t, out.Ran)
	assert.Empty(t, rec.Commands)

	pl.shaders = nil
	rec, out = pl.Frame(testCamera(mgl32.Vec3{}), testScene(), profiler.Nop{})
	assert.False(t, out.Ran)
	assert.Empty(t, rec.Commands)
}

func TestFrameUpdateGate(t *testing.T) {
	pl := newTestPipeline(t)
	scene := testScene()

	rec, out := pl.Frame(testCamera(mgl32.Vec3{0, 1.7, 0}), scene, profiler.Nop{})
	require.True(t, out.Ran)
	assert.True(t, hasRenderPass(rec), "first frame rasterizes the surface")

	// small move, same quantized center: cull runs, raster doesn't
	rec, out = pl.Frame(testCamera(mgl32.Vec3{1, 1.7, 0.5}), scene, profiler.Nop{})
	require.True(t, out.Ran)
	assert.False(t, hasRenderPass(rec))
	var dispatched bool
	for _, cmd := range rec.Commands {
		if _, ok := cmd.(*renderer.Dispatch); ok {
			dispatched = true
		}
	}
	assert.True(t, dispatched, "the cull kernel runs every frame")

	// crossing the quantization boundary re-rasterizes
	rec, out = pl.Frame(testCamera(mgl32.Vec3{20, 1.7, 0}), scene, profiler.Nop{})
	require.True(t, out.Ran)
	assert.True(t, hasRenderPass(rec))

	// geometry change forces it even in place
	rec, _ = pl.Frame(testCamera(mgl32.Vec3{20, 1.7, 0}), scene, profiler.Nop{})
	assert.False(t, hasRenderPass(rec))
	pl.Invalidate()
	rec, _ = pl.Frame(testCamera(mgl32.Vec3{20, 1.7, 0}), scene, profiler.Nop{})
	assert.True(t, hasRenderPass(rec))
}

func TestFrameOutput(t *testing.T) {
	pl := newTestPipeline(t)
	_, out := pl.Frame(testCamera(mgl32.Vec3{0, 1.7, 0}), testScene(), profiler.Nop{})
	require.True(t, out.Ran)
	assert.NotZero(t, out.Positions.ID)
	assert.Equal(t, uint64(renderer.IndirectArgsSize), out.IndirectArgs.Size)
	assert.NotZero(t, out.Color.ID)
	assert.NotZero(t, out.Slope.ID)
	assert.Zero(t, out.Counter.ID, "no readback unless preview is enabled")

	expect := uint64(renderer.AppendHeaderSize) +
		uint64(pl.params.Capacity())*renderer.PositionRecordSize
	assert.Equal(t, expect, out.Positions.Size)
}

func TestFramePreviewReadback(t *testing.T) {
	p := testParams()
	p.PreviewVisibleGrassCount = true
	pl, err := NewPipeline(&renderer.PipelineShaders{HizCopy: 0, HizReduce: 1, GrassCull: 2}, p)
	require.NoError(t, err)
	rec, out := pl.Frame(testCamera(mgl32.Vec3{}), testScene(), profiler.Nop{})
	require.True(t, out.Ran)
	require.NotZero(t, out.Counter.ID)
	var downloads int
	for _, cmd := range rec.Commands {
		if _, ok := cmd.(*renderer.Download); ok {
			downloads++
		}
	}
	assert.Equal(t, 1, downloads)
}

func TestFrameFreesPreviousBuffers(t *testing.T) {
	pl := newTestPipeline(t)
	scene := testScene()
	_, first := pl.Frame(testCamera(mgl32.Vec3{}), scene, profiler.Nop{})
	rec, second := pl.Frame(testCamera(mgl32.Vec3{}), scene, profiler.Nop{})
	require.True(t, second.Ran)

	freed := make(map[renderer.ResourceID]bool)
	for _, cmd := range rec.Commands {
		if cmd, ok := cmd.(*renderer.FreeBuffer); ok {
			freed[cmd.Buffer.ID] = true
		}
	}
	assert.True(t, freed[first.Positions.ID],
		"the previous frame's positions return to the pool")
	assert.True(t, freed[first.IndirectArgs.ID])
	assert.False(t, freed[second.Positions.ID])
}

func TestFrameNoDepthDegrades(t *testing.T) {
	pl := newTestPipeline(t)
	scene := testScene()
	scene.Depth = renderer.ImageProxy{}
	rec, out := pl.Frame(testCamera(mgl32.Vec3{}), scene, profiler.Nop{})
	require.True(t, out.Ran)
	// no Hi-Z dispatches, only the cull kernel
	var dispatches int
	for _, cmd := range rec.Commands {
		if _, ok := cmd.(*renderer.Dispatch); ok {
			dispatches++
		}
	}
	assert.Equal(t, 1, dispatches)
}
