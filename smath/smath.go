// Copyright 2025 Dominik Honnef and contributors
// SPDX-License-Identifier: Apache-2.0 OR MIT

// Package smath implements the math shared between the recording builders,
// the WGSL kernels, and their CPU mirrors. Everything in here has to match
// the WGSL in engine/wgpu_engine/shaders bit for bit, or the CPU kernels
// stop being a faithful debug tool.
package smath

import (
	"math"

	"github.com/chewxy/math32"
	"golang.org/x/exp/constraints"
)

// HeightSentinel is the clear value of the height attachment's first
// channel. A texel still holding the sentinel after the surface pass means
// no geometry projected onto it.
const HeightSentinel float32 = -1e30

// CellHash hashes a grid coordinate to a uint32. It is a pure function of
// (gx, gz) so that a cell keeps the same density threshold on every frame,
// no matter where the viewer is; blades then appear and disappear at one
// stable distance boundary instead of flickering.
//
// The mixer is lowbias32 (Walker), applied to the two coordinates combined
// with distinct odd constants.
func CellHash(gx, gz int32) uint32 {
	x := uint32(gx)*0x85eb_ca6b + uint32(gz)*0xc2b2_ae35
	x ^= x >> 16
	x *= 0x7feb_352d
	x ^= x >> 15
	x *= 0x846c_a68b
	x ^= x >> 16
	return x
}

// CellThreshold maps CellHash to [0, 1).
func CellThreshold(gx, gz int32) float32 {
	return float32(CellHash(gx, gz)>>8) * (1.0 / float32(1<<24))
}

// KeepProbability computes the density falloff for a cell at planar
// distance d from the viewer. It is exactly 1 within fullDensity, exactly 0
// at and beyond drawDistance, and falls off as
//
//	((drawDistance - d) / (drawDistance - fullDensity))^exponent
//
// in between. fullDensity >= drawDistance disables the falloff entirely for
// d < drawDistance; the naive formula would divide by zero there.
func KeepProbability(d, fullDensity, drawDistance, exponent float32) float32 {
	if d >= drawDistance {
		return 0
	}
	if fullDensity >= drawDistance || d <= fullDensity {
		return 1
	}
	p := math32.Pow((drawDistance-d)/(drawDistance-fullDensity), exponent)
	return Clamp(p, 0, 1)
}

// GridRange converts one axis of a viewer window to the half-open cell
// index range [Start, Start+Count). Cells are identified by
// floor(world / spacing).
func GridRange(min, size, spacing float32) (start int32, count uint32) {
	start = int32(math32.Floor(min / spacing))
	count = uint32(math32.Ceil(size / spacing))
	return start, count
}

// HizLevel picks the pyramid mip whose texel covers a screen-space
// footprint of the given size in pixels at mip 0, clamped to the available
// levels.
func HizLevel(footprint float32, mipCount uint32) uint32 {
	if mipCount == 0 {
		return 0
	}
	if footprint <= 1 {
		return 0
	}
	level := uint32(math32.Log2(footprint))
	if max := mipCount - 1; level > max {
		level = max
	}
	return level
}

// MipCount returns the number of mip levels of a full chain over a
// width×height image: floor(log2(max(w, h))) + 1.
func MipCount(width, height uint32) uint32 {
	d := max(width, height)
	if d == 0 {
		return 0
	}
	return uint32(math.Ilogb(float64(d))) + 1
}

// MipDim returns the size of one axis at mip level m, never below 1.
func MipDim(dim, level uint32) uint32 {
	return max(1, dim>>level)
}

func Clamp[T constraints.Float](v, lo, hi T) T {
	return min(max(v, lo), hi)
}

// Quantize snaps v to the nearest multiple of step. step <= 0 returns v
// unchanged.
func Quantize(v, step float32) float32 {
	if step <= 0 {
		return v
	}
	return math32.Round(v/step) * step
}
