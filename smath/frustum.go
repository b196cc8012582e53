// Copyright 2025 Dominik Honnef and contributors
// SPDX-License-Identifier: Apache-2.0 OR MIT

package smath

import (
	"github.com/go-gl/mathgl/mgl32"
)

// InFrustum reports whether a world-space point lies inside the clip volume
// of the combined view-projection matrix. margin expands the test in NDC
// units on the x and y axes so that geometry larger than a point (a grass
// blade leaning into view from just off screen) isn't culled at the edges.
func InFrustum(viewProj mgl32.Mat4, p mgl32.Vec3, margin float32) bool {
	clip := viewProj.Mul4x1(mgl32.Vec4{p[0], p[1], p[2], 1})
	w := clip[3]
	if w <= 0 {
		return false
	}
	lim := w * (1 + margin)
	if clip[0] < -lim || clip[0] > lim {
		return false
	}
	if clip[1] < -lim || clip[1] > lim {
		return false
	}
	// wgpu clip space: z in [0, w].
	return clip[2] >= 0 && clip[2] <= w
}

// ProjectToScreen maps a world-space point to pixel coordinates and NDC
// depth for a width×height target, along with the clip-space w (the
// point's perspective depth, which sizes its screen footprint). ok is
// false behind the near plane.
func ProjectToScreen(viewProj mgl32.Mat4, p mgl32.Vec3, width, height uint32) (px, py, depth, clipW float32, ok bool) {
	clip := viewProj.Mul4x1(mgl32.Vec4{p[0], p[1], p[2], 1})
	if clip[3] <= 0 {
		return 0, 0, 0, 0, false
	}
	inv := 1 / clip[3]
	ndcX := clip[0] * inv
	ndcY := clip[1] * inv
	depth = clip[2] * inv
	px = (ndcX*0.5 + 0.5) * float32(width)
	py = (1 - (ndcY*0.5 + 0.5)) * float32(height)
	return px, py, depth, clip[3], true
}

// TopDownOrtho builds the view and projection matrices of the synthetic
// camera used by the surface-property pass: positioned at the window's
// ceiling over its center, looking straight down, with the orthographic
// extent covering the window exactly. Near is 0 and far spans the window
// height, so depth orders surfaces top-first.
func TopDownOrtho(windowMin, windowMax mgl32.Vec3) (view, proj mgl32.Mat4) {
	center := windowMin.Add(windowMax).Mul(0.5)
	eye := mgl32.Vec3{center[0], windowMax[1], center[2]}
	// Looking down -Y; -Z is "up" on the target so world +Z maps to +V.
	view = mgl32.LookAtV(eye, mgl32.Vec3{center[0], windowMin[1], center[2]}, mgl32.Vec3{0, 0, -1})
	halfW := (windowMax[0] - windowMin[0]) * 0.5
	halfH := (windowMax[2] - windowMin[2]) * 0.5
	proj = mgl32.Ortho(-halfW, halfW, -halfH, halfH, 0, windowMax[1]-windowMin[1])
	// mgl32 emits GL clip space (z in [-w, w]); remap to wgpu's [0, w].
	zremap := mgl32.Translate3D(0, 0, 0.5).Mul4(mgl32.Scale3D(1, 1, 0.5))
	proj = zremap.Mul4(proj)
	return view, proj
}

// SurfaceUV maps a world-space XZ position to the [0,1]² coordinates of the
// surface-property buffers for a given viewer window.
func SurfaceUV(windowMin, windowMax mgl32.Vec3, x, z float32) (u, v float32) {
	u = (x - windowMin[0]) / (windowMax[0] - windowMin[0])
	v = (z - windowMin[2]) / (windowMax[2] - windowMin[2])
	return u, v
}
