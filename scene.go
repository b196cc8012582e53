// Copyright 2025 Dominik Honnef and contributors
// SPDX-License-Identifier: Apache-2.0 OR MIT

package sward

import (
	"github.com/go-gl/mathgl/mgl32"

	"honnef.co/go/sward/renderer"
)

// Camera is the host renderer's active viewpoint for one frame.
type Camera struct {
	Position mgl32.Vec3
	View     mgl32.Mat4
	Proj     mgl32.Mat4
	Near     float32
	// Render target size in pixels.
	Width, Height uint32
}

func (c *Camera) viewProj() mgl32.Mat4 {
	return c.Proj.Mul4(c.View)
}

// FrameScene is the host-owned input of one frame: the scene depth buffer
// for occlusion, and the batch lists of the surface-property pass. The
// host filters its scene itself — Ground is everything on the grass layer,
// the other three lists hold the objects tagged with the corresponding
// capability; their vertex and index buffers are registered with the
// engine as external resources.
type FrameScene struct {
	// Depth is the scene depth buffer rendered by the host. A zero proxy
	// disables occlusion culling for the frame.
	Depth renderer.ImageProxy

	Ground []renderer.DrawBatch
	Mask   []renderer.DrawBatch
	Color  []renderer.DrawBatch
	Slope  []renderer.DrawBatch
}

func (s *FrameScene) batches() *renderer.SurfaceBatches {
	return &renderer.SurfaceBatches{
		Ground: s.Ground,
		Mask:   s.Mask,
		Color:  s.Color,
		Slope:  s.Slope,
	}
}
