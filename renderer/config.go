// Copyright 2025 Dominik Honnef and contributors
// SPDX-License-Identifier: Apache-2.0 OR MIT

package renderer

import (
	"structs"

	"github.com/go-gl/mathgl/mgl32"
	"honnef.co/go/sward/smath"
)

// PositionRecordSize is the stride of one blade position record: xyz as
// f32 plus the cell hash packed into the w component.
const PositionRecordSize = 16

// AppendHeaderSize precedes the records in the append buffer: a u32 atomic
// counter plus padding to a 16-byte boundary.
const AppendHeaderSize = 16

// IndirectArgsSize is wgpu's DrawIndexedIndirect layout: indexCount,
// instanceCount, firstIndex, baseVertex, firstInstance.
const IndirectArgsSize = 20

// InstanceCountOffset is the byte offset of instanceCount within the
// indirect arguments; the append counter is copied there every frame.
const InstanceCountOffset = 4

// CullWorkgroupDim is the x/y size of one grass_cull thread group: each
// group covers an 8×8 tile of grid cells.
const CullWorkgroupDim = 8

// HizWorkgroupDim is the x/y size of the hiz_copy and hiz_reduce thread
// groups.
const HizWorkgroupDim = 8

// CullUniform is the uniform block of the grass_cull kernel. It must be
// kept in sync with the definition in shaders/wgsl/grass_cull.wgsl.
type CullUniform struct {
	_ structs.HostLayout

	// Real camera view-projection, column-major.
	ViewProj [16]float32
	// Camera position, w unused.
	CameraPos [4]float32
	// Viewer window corners, w unused.
	WindowMin [4]float32
	WindowMax [4]float32
	// First cell index of the iterated range on x and z.
	GridStart [2]int32
	// Number of cells on x and z.
	GridSize [2]uint32
	// Cell size in world units.
	Spacing float32
	// Distances controlling the density falloff.
	DrawDistance        float32
	FullDensityDistance float32
	FalloffExponent     float32
	// Maximum number of records the append buffer holds.
	Capacity uint32
	// Number of Hi-Z mips; 0 disables the occlusion test.
	HizMipCount uint32
	// Real camera target size in pixels.
	ScreenWidth  uint32
	ScreenHeight uint32
}

// SurfaceUniform is the uniform block of the surface-property pass,
// shared by the height-override material and the host's tagged materials.
// Must be kept in sync with shaders/wgsl/surface_height.wgsl.
type SurfaceUniform struct {
	_ structs.HostLayout

	// Top-down orthographic view-projection, column-major.
	ViewProj [16]float32
	// Window y extent for height normalization: min, max, 1/(max-min), pad.
	HeightRange [4]float32
}

// CullConfig derives everything the cull dispatch needs from the frame
// state: the uniform contents, the workgroup count, and the sizes of the
// append and argument buffers.
type CullConfig struct {
	Uniform        CullUniform
	WorkgroupCount [3]uint32
	Capacity       uint32
	PositionsSize  uint64
}

func NewCullConfig(
	viewProj mgl32.Mat4,
	cameraPos mgl32.Vec3,
	windowMin, windowMax mgl32.Vec3,
	spacing, drawDistance, fullDensity, falloffExponent float32,
	capacity uint32,
	hizMips uint32,
	screenWidth, screenHeight uint32,
) *CullConfig {
	startX, countX := smath.GridRange(windowMin[0], windowMax[0]-windowMin[0], spacing)
	startZ, countZ := smath.GridRange(windowMin[2], windowMax[2]-windowMin[2], spacing)
	cfg := &CullConfig{
		Uniform: CullUniform{
			ViewProj:            viewProj,
			CameraPos:           [4]float32{cameraPos[0], cameraPos[1], cameraPos[2], 0},
			WindowMin:           [4]float32{windowMin[0], windowMin[1], windowMin[2], 0},
			WindowMax:           [4]float32{windowMax[0], windowMax[1], windowMax[2], 0},
			GridStart:           [2]int32{startX, startZ},
			GridSize:            [2]uint32{countX, countZ},
			Spacing:             spacing,
			DrawDistance:        drawDistance,
			FullDensityDistance: fullDensity,
			FalloffExponent:     falloffExponent,
			Capacity:            capacity,
			HizMipCount:         hizMips,
			ScreenWidth:         screenWidth,
			ScreenHeight:        screenHeight,
		},
		WorkgroupCount: [3]uint32{
			(countX + CullWorkgroupDim - 1) / CullWorkgroupDim,
			(countZ + CullWorkgroupDim - 1) / CullWorkgroupDim,
			1,
		},
		Capacity:      capacity,
		PositionsSize: AppendHeaderSize + uint64(capacity)*PositionRecordSize,
	}
	return cfg
}

func NewSurfaceUniform(view, proj mgl32.Mat4, minY, maxY float32) SurfaceUniform {
	span := maxY - minY
	inv := float32(0)
	if span > 0 {
		inv = 1 / span
	}
	return SurfaceUniform{
		ViewProj:    proj.Mul4(view),
		HeightRange: [4]float32{minY, maxY, inv, 0},
	}
}

// IndirectArgs is the initial contents of the argument buffer. Everything
// except instanceCount is static, derived once from the blade mesh;
// instanceCount starts at zero and is overwritten by the counter copy.
func IndirectArgs(bladeIndexCount uint32) [5]uint32 {
	return [5]uint32{bladeIndexCount, 0, 0, 0, 0}
}
