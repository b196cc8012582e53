// Copyright 2025 Dominik Honnef and contributors
// SPDX-License-Identifier: Apache-2.0 OR MIT

package cpu

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"honnef.co/go/sward/smath"
)

func TestBuildPyramidDims(t *testing.T) {
	depth := NewTexture(1920, 1080, 1)
	p := BuildPyramid(depth)
	require.Equal(t, smath.MipCount(1920, 1080), p.MipCount())
	for m, level := range p.Levels {
		assert.Equal(t, smath.MipDim(1920, uint32(m)), level.Width, "mip %d", m)
		assert.Equal(t, smath.MipDim(1080, uint32(m)), level.Height, "mip %d", m)
	}
	top := p.Levels[len(p.Levels)-1]
	assert.Equal(t, uint32(1), top.Width)
	assert.Equal(t, uint32(1), top.Height)
}

func TestHizReduceConservative(t *testing.T) {
	// Odd dimensions force the edge fold: the last destination texel
	// absorbs the trailing row and column.
	src := NewTexture(5, 3, 1)
	for y := uint32(0); y < 3; y++ {
		for x := uint32(0); x < 5; x++ {
			src.Store(x, y, [4]float32{float32(x) + 10*float32(y)})
		}
	}
	dst := NewTexture(2, 1, 1)
	HizReduce(src, dst)

	// texel 0 covers columns 0-1, all three rows
	assert.Equal(t, float32(21), dst.Load(0, 0)[0])
	// texel 1 folds in columns 2-4
	assert.Equal(t, float32(24), dst.Load(1, 0)[0])
}

func TestBuildPyramidMaxPropagates(t *testing.T) {
	depth := NewTexture(33, 17, 1)
	depth.Store(20, 11, [4]float32{0.9})
	depth.Store(32, 16, [4]float32{0.7}) // corner texel exercises the fold
	p := BuildPyramid(depth)

	assert.Equal(t, float32(0.9), p.Levels[len(p.Levels)-1].Load(0, 0)[0],
		"the pyramid top is the scene's farthest depth")

	// every level stays an upper bound of the covered source texels
	for m := 1; m < len(p.Levels); m++ {
		coarse, fine := p.Levels[m], p.Levels[m-1]
		for y := uint32(0); y < fine.Height; y++ {
			for x := uint32(0); x < fine.Width; x++ {
				cx := min(x/2, coarse.Width-1)
				cy := min(y/2, coarse.Height-1)
				assert.GreaterOrEqual(t, coarse.Load(cx, cy)[0], fine.Load(x, y)[0],
					"mip %d texel (%d,%d)", m, x, y)
			}
		}
	}
}
