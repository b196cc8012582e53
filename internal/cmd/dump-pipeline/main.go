// Copyright 2025 Dominik Honnef and contributors
// SPDX-License-Identifier: Apache-2.0 OR MIT

// dump-pipeline prints the command stream recorded for one synthetic
// frame. It never touches a GPU; it exists to eyeball command ordering and
// buffer sizes when changing the recording builders.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/go-gl/mathgl/mgl32"
	"honnef.co/go/sward"
	"honnef.co/go/sward/profiler"
	"honnef.co/go/sward/renderer"
)

func main() {
	var (
		preview bool
		depth   bool
		frames  int
	)
	flag.BoolVar(&preview, "preview", false, "Enable the counter readback")
	flag.BoolVar(&depth, "depth", true, "Provide a scene depth buffer")
	flag.IntVar(&frames, "frames", 2, "Number of `frames` to record")
	flag.Parse()

	sward.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, nil)))

	params := sward.DefaultParams()
	params.PreviewVisibleGrassCount = preview
	params.BladeIndexCount = 15
	shaders := &renderer.PipelineShaders{
		HizCopy:   0,
		HizReduce: 1,
		GrassCull: 2,
	}
	pl, err := sward.NewPipeline(shaders, params)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	cam := &sward.Camera{
		Position: mgl32.Vec3{3, 1.7, -4},
		View:     mgl32.LookAtV(mgl32.Vec3{3, 1.7, -4}, mgl32.Vec3{0, 0, 0}, mgl32.Vec3{0, 1, 0}),
		Proj:     mgl32.Perspective(mgl32.DegToRad(70), 16.0/9.0, 0.1, 500),
		Near:     0.1,
		Width:    1920,
		Height:   1080,
	}
	scene := &sward.FrameScene{
		Ground: []renderer.DrawBatch{
			{
				Vertex:      renderer.NewBufferProxy(36*12, "terrain vertices"),
				VertexCount: 36,
			},
		},
	}
	if depth {
		scene.Depth = renderer.NewImageProxy(cam.Width, cam.Height, renderer.Depth32Float)
	}

	for frame := range frames {
		// move a little so the second frame exercises the raster gate
		cam.Position[0] += 0.5
		rec, out := pl.Frame(cam, scene, profiler.Nop{})
		fmt.Printf("== frame %d (ran=%t, %d commands)\n", frame, out.Ran, len(rec.Commands))
		for i, cmd := range rec.Commands {
			fmt.Printf("%3d: %s\n", i, describe(cmd))
		}
	}
}

func describe(cmd renderer.Command) string {
	switch cmd := cmd.(type) {
	case *renderer.Upload:
		return fmt.Sprintf("upload %q (%d bytes)", cmd.Buffer.Name, len(cmd.Data))
	case *renderer.UploadUniform:
		return fmt.Sprintf("upload uniform %q (%d bytes)", cmd.Buffer.Name, len(cmd.Data))
	case *renderer.Dispatch:
		return fmt.Sprintf("dispatch shader %d, %v groups, %d bindings",
			cmd.Shader, cmd.WorkgroupCount, len(cmd.Bindings))
	case *renderer.RenderPass:
		return fmt.Sprintf("render pass %q, %d attachments, %d batches",
			cmd.Label, len(cmd.Color), len(cmd.Batches))
	case *renderer.CopyBuffer:
		return fmt.Sprintf("copy %q+%d -> %q+%d (%d bytes)",
			cmd.Src.Name, cmd.SrcOffset, cmd.Dst.Name, cmd.DstOffset, cmd.Size)
	case *renderer.Download:
		return fmt.Sprintf("download %q", cmd.Buffer.Name)
	case *renderer.Clear:
		return fmt.Sprintf("clear %q+%d (%d bytes)", cmd.Buffer.Name, cmd.Offset, cmd.Size)
	case *renderer.FreeBuffer:
		return fmt.Sprintf("free buffer %q", cmd.Buffer.Name)
	case *renderer.FreeImage:
		return fmt.Sprintf("free image %d (%dx%d)", cmd.Image.ID, cmd.Image.Width, cmd.Image.Height)
	default:
		return fmt.Sprintf("%T", cmd)
	}
}
