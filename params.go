// Copyright 2025 Dominik Honnef and contributors
// SPDX-License-Identifier: Apache-2.0 OR MIT

package sward

import (
	"fmt"
	"math"

	"honnef.co/go/color"
)

// Params configures a Pipeline. The zero value is not usable; start from
// DefaultParams and adjust.
type Params struct {
	// Spacing is the grid cell size in world units. One blade candidate
	// per cell.
	Spacing float32
	// DrawDistance is the planar distance beyond which no blades are
	// placed.
	DrawDistance float32
	// FullDensityDistance is the planar distance up to which every cell
	// is a candidate. Between it and DrawDistance, density falls off.
	FullDensityDistance float32
	// DensityFalloffExponent shapes the falloff curve; 1 is linear,
	// larger values keep density high for longer.
	DensityFalloffExponent float32
	// TextureUpdateThreshold is the quantization step of the viewer
	// center. The surface-property buffers are only re-rasterized when
	// the quantized center moves.
	TextureUpdateThreshold float32
	// MaxBufferCount sizes the position buffer, in millions of blade
	// records.
	MaxBufferCount int
	// PreviewVisibleGrassCount downloads the append counter every frame.
	// This is a GPU sync point; don't enable it in production.
	PreviewVisibleGrassCount bool

	// SurfaceResolution is the pixel size of the square surface-property
	// buffers.
	SurfaceResolution uint32
	// BaseTint is the ground color texels keep when no tagged geometry
	// covers them. Nil selects a plain grass green.
	BaseTint *color.Color
	// WindowMinY and WindowMaxY bound the viewer window vertically; the
	// top-down camera sits at WindowMaxY and heights are normalized over
	// this range.
	WindowMinY, WindowMaxY float32
	// BladeIndexCount is the index count of the host's blade mesh, the
	// one static field of the indirect draw arguments.
	BladeIndexCount uint32
}

// recordsPerCount is the number of blade records one unit of
// MaxBufferCount buys.
const recordsPerCount = 1_000_000

// maxBufferCountLimit keeps Capacity within uint32.
const maxBufferCountLimit = math.MaxUint32 / recordsPerCount

// DefaultParams is a usable starting configuration for everything except
// BladeIndexCount, which has no sensible default: set it to the index
// count of the host's blade mesh before the parameters pass Validate.
func DefaultParams() Params {
	return Params{
		Spacing:                0.5,
		DrawDistance:           100,
		FullDensityDistance:    30,
		DensityFalloffExponent: 2,
		TextureUpdateThreshold: 10,
		MaxBufferCount:         4,
		SurfaceResolution:      1024,
		WindowMinY:             -50,
		WindowMaxY:             50,
	}
}

func (p *Params) Validate() error {
	if p.Spacing <= 0 {
		return fmt.Errorf("spacing must be positive, got %v", p.Spacing)
	}
	if p.DrawDistance <= 0 {
		return fmt.Errorf("draw distance must be positive, got %v", p.DrawDistance)
	}
	if p.FullDensityDistance > p.DrawDistance {
		return fmt.Errorf(
			"full density distance %v exceeds draw distance %v",
			p.FullDensityDistance, p.DrawDistance,
		)
	}
	if p.DensityFalloffExponent < 0 {
		return fmt.Errorf("falloff exponent must not be negative, got %v", p.DensityFalloffExponent)
	}
	if p.TextureUpdateThreshold <= 0 {
		return fmt.Errorf("texture update threshold must be positive, got %v", p.TextureUpdateThreshold)
	}
	if p.MaxBufferCount <= 0 {
		return fmt.Errorf("max buffer count must be positive, got %v", p.MaxBufferCount)
	}
	if p.MaxBufferCount > maxBufferCountLimit {
		return fmt.Errorf("max buffer count %v exceeds the limit of %v", p.MaxBufferCount, maxBufferCountLimit)
	}
	if p.SurfaceResolution == 0 {
		return fmt.Errorf("surface resolution must not be zero")
	}
	if p.WindowMaxY <= p.WindowMinY {
		return fmt.Errorf(
			"window y range [%v, %v] is empty",
			p.WindowMinY, p.WindowMaxY,
		)
	}
	if p.BladeIndexCount == 0 {
		return fmt.Errorf("blade index count must not be zero")
	}
	return nil
}

// Capacity is the maximum number of blade records per frame.
func (p *Params) Capacity() uint32 {
	return uint32(p.MaxBufferCount) * recordsPerCount
}

// tint converts BaseTint to the premultiplied linear clear color of the
// color attachment.
func (p *Params) tint() [4]float64 {
	if p.BaseTint == nil {
		// linear values of a muted grass green
		return [4]float64{0.012, 0.051, 0.002, 1}
	}
	cc := p.BaseTint.Convert(color.LinearSRGB)
	a := cc.Values[3]
	return [4]float64{
		cc.Values[0] * a,
		cc.Values[1] * a,
		cc.Values[2] * a,
		a,
	}
}
