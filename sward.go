// Copyright 2025 Dominik Honnef and contributors
// SPDX-License-Identifier: Apache-2.0 OR MIT

// Package sward generates grass placement on the GPU. Every frame it
// records a device-independent command stream that rasterizes
// surface-property buffers from a top-down view of the region around the
// viewer, builds a Hi-Z pyramid from the scene depth buffer, and runs a
// compute kernel that walks the placement grid, applies density falloff
// and frustum and occlusion culling, and appends surviving blade positions
// into a GPU buffer. The host consumes the result with a single indirect
// instanced draw.
//
// The package itself never touches a GPU; recordings are executed by
// engine/wgpu_engine.
package sward

import (
	"context"
	"log/slog"

	"github.com/go-gl/mathgl/mgl32"

	"honnef.co/go/sward/profiler"
	"honnef.co/go/sward/renderer"
	"honnef.co/go/sward/smath"
)

var logger = slog.New(nopHandler{})

// SetLogger routes the package's diagnostics. By default they are
// discarded.
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = slog.New(nopHandler{})
	}
	logger = l
}

type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (nopHandler) WithAttrs([]slog.Attr) slog.Handler        { return nopHandler{} }
func (nopHandler) WithGroup(string) slog.Handler             { return nopHandler{} }

// FrameOutput points at the frame's results within the engine. Positions
// and IndirectArgs feed the host's indirect instanced draw; Color and
// Slope are bound by the host's blade shader. Ran reports whether
// generation actually happened this frame; when false the host should keep
// drawing the previous frame's (stale) buffers.
type FrameOutput struct {
	Positions    renderer.BufferProxy
	IndirectArgs renderer.BufferProxy
	// Counter is only set when PreviewVisibleGrassCount is enabled; pass
	// it to the engine's ReadCounter after the recording ran.
	Counter renderer.BufferProxy

	Color renderer.ImageProxy
	Slope renderer.ImageProxy

	Ran bool
}

// A Pipeline turns per-frame camera and scene state into recordings. It
// holds no GPU resources itself, only proxies; everything it references is
// owned by the engine that runs its recordings. Not safe for concurrent
// use, matching the one-frame-producer model.
type Pipeline struct {
	params  Params
	shaders *renderer.PipelineShaders

	// cached surface-property buffers, valid while the quantized center
	// doesn't move
	surface     renderer.SurfaceBuffers
	haveSurface bool
	lastCenter  mgl32.Vec2
	invalid     bool

	// last frame's per-frame buffers, freed at the start of the next
	// recording so the host can still draw from them in between
	prevPositions renderer.BufferProxy
	prevArgs      renderer.BufferProxy
}

func NewPipeline(shaders *renderer.PipelineShaders, params Params) (*Pipeline, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	return &Pipeline{
		params:  params,
		shaders: shaders,
	}, nil
}

// SetParams replaces the configuration and invalidates cached state.
func (pl *Pipeline) SetParams(params Params) error {
	if err := params.Validate(); err != nil {
		return err
	}
	pl.params = params
	pl.invalid = true
	return nil
}

func (pl *Pipeline) Params() Params {
	return pl.params
}

// Invalidate forces re-rasterization of the surface-property buffers on
// the next frame. Call it whenever scene geometry on the grass layer or
// any tagged object changed.
func (pl *Pipeline) Invalidate() {
	pl.invalid = true
}

// Frame records one generation cycle. A nil camera or scene skips the
// frame entirely; the previous frame's buffers stay valid on the engine
// and the returned recording is empty. The recording must be run before
// the host's grass draw.
func (pl *Pipeline) Frame(cam *Camera, scene *FrameScene, pgroup profiler.ProfilerGroup) (*renderer.Recording, FrameOutput) {
	pgroup = pgroup.Start("Frame")
	defer pgroup.End()

	rec := &renderer.Recording{}
	if cam == nil {
		logger.Warn("no active camera, skipping grass generation")
		return rec, FrameOutput{}
	}
	if scene == nil {
		logger.Warn("no scene input, skipping grass generation")
		return rec, FrameOutput{}
	}
	if pl.shaders == nil {
		logger.Warn("no registered kernels, skipping grass generation")
		return rec, FrameOutput{}
	}

	win := pl.params.window(cam.Position)

	if !pl.haveSurface || win.center != pl.lastCenter || pl.invalid {
		if pl.haveSurface {
			rec.FreeImage(pl.surface.Height)
			rec.FreeImage(pl.surface.Mask)
			rec.FreeImage(pl.surface.Color)
			rec.FreeImage(pl.surface.Slope)
		}
		view, proj := smath.TopDownOrtho(win.min, win.max)
		uniform := renderer.NewSurfaceUniform(view, proj, win.min.Y(), win.max.Y())
		pl.surface = renderer.RecordSurfacePass(
			rec,
			uniform,
			pl.params.SurfaceResolution,
			pl.params.tint(),
			scene.batches(),
		)
		pl.haveSurface = true
		pl.lastCenter = win.center
		pl.invalid = false
	}

	// The pyramid depends on the real camera, so it is rebuilt every
	// frame. Without a depth buffer occlusion degrades to pass-through.
	var hiz renderer.HizPyramid
	if scene.Depth.ID == 0 {
		logger.Debug("no scene depth buffer, occlusion culling disabled")
		hiz = renderer.HizPyramid{
			Image:    renderer.NewImageProxy(1, 1, renderer.R32Float),
			MipCount: 0,
		}
	} else {
		hiz = renderer.RecordHizBuild(rec, pl.shaders, scene.Depth)
	}

	cfg := renderer.NewCullConfig(
		cam.viewProj(),
		cam.Position,
		win.min, win.max,
		pl.params.Spacing,
		pl.params.DrawDistance,
		pl.params.FullDensityDistance,
		pl.params.DensityFalloffExponent,
		pl.params.Capacity(),
		hiz.MipCount,
		cam.Width, cam.Height,
	)
	outs := renderer.RecordGridCull(
		rec,
		pl.shaders,
		cfg,
		pl.surface,
		hiz,
		pl.params.BladeIndexCount,
		pl.params.PreviewVisibleGrassCount,
	)
	rec.FreeImage(hiz.Image)
	if pl.prevPositions.ID != 0 {
		rec.FreeBuffer(pl.prevPositions)
		rec.FreeBuffer(pl.prevArgs)
	}
	pl.prevPositions = outs.Positions
	pl.prevArgs = outs.Args

	return rec, FrameOutput{
		Positions:    outs.Positions,
		IndirectArgs: outs.Args,
		Counter:      outs.Counter,
		Color:        pl.surface.Color,
		Slope:        pl.surface.Slope,
		Ran:          true,
	}
}
