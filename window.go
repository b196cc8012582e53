// Copyright 2025 Dominik Honnef and contributors
// SPDX-License-Identifier: Apache-2.0 OR MIT

package sward

import (
	"github.com/go-gl/mathgl/mgl32"

	"honnef.co/go/sward/smath"
)

// viewerWindow is the world-space region one generation cycle operates
// over. It is centered on the viewer's quantized XZ position and extends
// to draw distance plus one quantization step on each side, so the real
// frustum stays inside it up to draw distance no matter where within the
// current quantization cell the viewer actually is.
type viewerWindow struct {
	min, max mgl32.Vec3
	// quantized XZ center; the raster update gate compares these across
	// frames
	center mgl32.Vec2
}

func (p *Params) window(viewer mgl32.Vec3) viewerWindow {
	cx := smath.Quantize(viewer[0], p.TextureUpdateThreshold)
	cz := smath.Quantize(viewer[2], p.TextureUpdateThreshold)
	extent := p.DrawDistance + p.TextureUpdateThreshold
	return viewerWindow{
		min:    mgl32.Vec3{cx - extent, p.WindowMinY, cz - extent},
		max:    mgl32.Vec3{cx + extent, p.WindowMaxY, cz + extent},
		center: mgl32.Vec2{cx, cz},
	}
}
