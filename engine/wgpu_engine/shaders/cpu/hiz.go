// Copyright 2025 Dominik Honnef and contributors
// SPDX-License-Identifier: Apache-2.0 OR MIT

package cpu

import (
	"honnef.co/go/sward/smath"
)

// Pyramid is the CPU mirror of the Hi-Z depth pyramid: one single-channel
// texture per mip level.
type Pyramid struct {
	Levels []*Texture
}

func (p *Pyramid) MipCount() uint32 {
	if p == nil {
		return 0
	}
	return uint32(len(p.Levels))
}

// BuildPyramid runs the full Hi-Z chain on the CPU: level 0 copies the
// depth texture, every further level is one HizReduce step.
func BuildPyramid(depth *Texture) *Pyramid {
	mips := smath.MipCount(depth.Width, depth.Height)
	p := &Pyramid{Levels: make([]*Texture, mips)}
	level0 := NewTexture(depth.Width, depth.Height, 1)
	for y := uint32(0); y < depth.Height; y++ {
		for x := uint32(0); x < depth.Width; x++ {
			level0.Store(x, y, [4]float32{depth.Load(x, y)[0]})
		}
	}
	p.Levels[0] = level0
	for m := uint32(1); m < mips; m++ {
		dst := NewTexture(smath.MipDim(depth.Width, m), smath.MipDim(depth.Height, m), 1)
		HizReduce(p.Levels[m-1], dst)
		p.Levels[m] = dst
	}
	return p
}

// HizReduce mirrors hiz_reduce.wgsl: each destination texel takes the max
// of the covering source texels, folding odd trailing rows and columns
// into the last texel.
func HizReduce(src, dst *Texture) {
	for y := uint32(0); y < dst.Height; y++ {
		for x := uint32(0); x < dst.Width; x++ {
			nx := uint32(2)
			ny := uint32(2)
			if x == dst.Width-1 {
				nx = src.Width - x*2
			}
			if y == dst.Height-1 {
				ny = src.Height - y*2
			}
			m := float32(0)
			for dy := uint32(0); dy < ny; dy++ {
				for dx := uint32(0); dx < nx; dx++ {
					m = max(m, src.Load(x*2+dx, y*2+dy)[0])
				}
			}
			dst.Store(x, y, [4]float32{m})
		}
	}
}
