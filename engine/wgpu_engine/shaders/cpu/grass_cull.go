// Copyright 2025 Dominik Honnef and contributors
// SPDX-License-Identifier: Apache-2.0 OR MIT

package cpu

import (
	"math"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
	"honnef.co/go/sward/renderer"
	"honnef.co/go/sward/smath"
)

// frustumMargin matches FRUSTUM_MARGIN in grass_cull.wgsl.
const frustumMargin = 0.05

// GrassCull is the CPU mirror of grass_cull.wgsl: it walks the full grid
// range of the uniform and appends a position record for every surviving
// cell. hiz may be nil or have zero levels, in which case the occlusion
// test always passes.
func GrassCull(cfg *renderer.CullUniform, height, mask *Texture, hiz *Pyramid, out *AppendBuffer) {
	for gy := uint32(0); gy < cfg.GridSize[1]; gy++ {
		for gx := uint32(0); gx < cfg.GridSize[0]; gx++ {
			grassCullCell(cfg, height, mask, hiz, out, gx, gy)
		}
	}
}

func grassCullCell(cfg *renderer.CullUniform, height, mask *Texture, hiz *Pyramid, out *AppendBuffer, idx, idz uint32) {
	gx := cfg.GridStart[0] + int32(idx)
	gz := cfg.GridStart[1] + int32(idz)
	wx := (float32(gx) + 0.5) * cfg.Spacing
	wz := (float32(gz) + 0.5) * cfg.Spacing

	winMin := mgl32.Vec3{cfg.WindowMin[0], cfg.WindowMin[1], cfg.WindowMin[2]}
	winMax := mgl32.Vec3{cfg.WindowMax[0], cfg.WindowMax[1], cfg.WindowMax[2]}
	u, v := smath.SurfaceUV(winMin, winMax, wx, wz)
	if u < 0 || u >= 1 || v < 0 || v >= 1 {
		return
	}
	tx := uint32(float32(height.Width) * u)
	ty := uint32(float32(height.Height) * v)
	hs := height.Load(tx, ty)
	if hs[0] <= smath.HeightSentinel*0.5 {
		// The surface pass never wrote this texel.
		return
	}
	// 1.0 = fully suppressed, 0.0 = full density.
	maskVal := mask.Load(tx, ty)[0]

	wy := winMin[1] + hs[0]*(winMax[1]-winMin[1])
	world := mgl32.Vec3{wx, wy, wz}

	viewProj := mgl32.Mat4(cfg.ViewProj)
	if !smath.InFrustum(viewProj, world, frustumMargin) {
		return
	}

	dx := world[0] - cfg.CameraPos[0]
	dz := world[2] - cfg.CameraPos[2]
	d := math32.Sqrt(dx*dx + dz*dz)
	if d >= cfg.DrawDistance {
		return
	}
	keep := smath.KeepProbability(d, cfg.FullDensityDistance, cfg.DrawDistance, cfg.FalloffExponent)
	keep *= 1 - maskVal
	if smath.CellThreshold(gx, gz) >= keep {
		return
	}

	if cfg.HizMipCount > 0 && hiz != nil && len(hiz.Levels) > 0 {
		px, py, ndcZ, clipW, ok := smath.ProjectToScreen(viewProj, world, cfg.ScreenWidth, cfg.ScreenHeight)
		if !ok {
			return
		}
		// u32() saturates at zero in WGSL; mirror that before converting.
		px = max(px, 0)
		py = max(py, 0)
		footprint := cfg.Spacing * float32(cfg.ScreenHeight) / clipW
		level := smath.HizLevel(footprint, cfg.HizMipCount)
		tex := hiz.Levels[level]
		hx := min(uint32(px)>>level, tex.Width-1)
		hy := min(uint32(py)>>level, tex.Height-1)
		farthest := tex.Load(hx, hy)[0]
		if ndcZ > farthest {
			return
		}
	}

	out.append(cfg.Capacity, [4]float32{
		world[0], world[1], world[2],
		math.Float32frombits(smath.CellHash(gx, gz)),
	})
}
