// Copyright 2025 Dominik Honnef and contributors
// SPDX-License-Identifier: Apache-2.0 OR MIT

package smath

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
)

func TestInFrustum(t *testing.T) {
	// 90° fov, square aspect, camera at origin looking down -Z. At depth
	// z the visible extent is ±z on both axes.
	view := mgl32.LookAtV(mgl32.Vec3{0, 0, 0}, mgl32.Vec3{0, 0, -1}, mgl32.Vec3{0, 1, 0})
	proj := mgl32.Perspective(mgl32.DegToRad(90), 1, 0.1, 1000)
	vp := proj.Mul4(view)

	assert.True(t, InFrustum(vp, mgl32.Vec3{0, 0, -10}, 0))
	assert.True(t, InFrustum(vp, mgl32.Vec3{9, 9, -10}, 0))
	assert.False(t, InFrustum(vp, mgl32.Vec3{11, 0, -10}, 0))
	assert.False(t, InFrustum(vp, mgl32.Vec3{0, -11, -10}, 0))
	// behind the camera
	assert.False(t, InFrustum(vp, mgl32.Vec3{0, 0, 10}, 0))
	// the margin keeps blades leaning in from just off screen
	assert.False(t, InFrustum(vp, mgl32.Vec3{10.4, 0, -10}, 0))
	assert.True(t, InFrustum(vp, mgl32.Vec3{10.4, 0, -10}, 0.05))
}

func TestTopDownOrtho(t *testing.T) {
	min := mgl32.Vec3{-10, 0, -30}
	max := mgl32.Vec3{30, 20, 10}
	view, proj := TopDownOrtho(min, max)
	vp := proj.Mul4(view)

	// window center at mid-height lands in the middle of clip space
	clip := vp.Mul4x1(mgl32.Vec4{10, 10, -10, 1})
	assert.InDelta(t, 0, clip[0], 1e-4)
	assert.InDelta(t, 0, clip[1], 1e-4)
	assert.InDelta(t, 0.5, clip[2]/clip[3], 1e-4)

	// +X maps to +U, +Z maps to +V (screen-down), depth is top-first in
	// wgpu's [0, 1] range
	px, py, depth, w, ok := ProjectToScreen(vp, mgl32.Vec3{30, 20, 10}, 100, 100)
	assert.True(t, ok)
	assert.InDelta(t, 100, px, 1e-3)
	assert.InDelta(t, 100, py, 1e-3)
	assert.InDelta(t, 0, depth, 1e-4)
	assert.InDelta(t, 1, w, 1e-6, "orthographic projection keeps w at 1")

	px, py, depth, _, ok = ProjectToScreen(vp, mgl32.Vec3{-10, 0, -30}, 100, 100)
	assert.True(t, ok)
	assert.InDelta(t, 0, px, 1e-3)
	assert.InDelta(t, 0, py, 1e-3)
	assert.InDelta(t, 1, depth, 1e-4)
}

func TestSurfaceUV(t *testing.T) {
	min := mgl32.Vec3{-20, 0, -20}
	max := mgl32.Vec3{20, 10, 20}
	u, v := SurfaceUV(min, max, 0, 0)
	assert.InDelta(t, 0.5, u, 1e-6)
	assert.InDelta(t, 0.5, v, 1e-6)
	u, v = SurfaceUV(min, max, -20, 20)
	assert.InDelta(t, 0, u, 1e-6)
	assert.InDelta(t, 1, v, 1e-6)
}
