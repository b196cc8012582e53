// Copyright 2025 Dominik Honnef and contributors
// SPDX-License-Identifier: Apache-2.0 OR MIT

package wgpu_engine

// OPT reuse bind groups across frames

import (
	"fmt"
	"math"
	"math/bits"

	"honnef.co/go/safeish"
	"honnef.co/go/sward/engine/wgpu_engine/shaders"
	"honnef.co/go/sward/renderer"
	"honnef.co/go/wgpu"
)

type Engine struct {
	Device *wgpu.Device
	// Resources live across recordings until a Free command releases
	// them; the pipeline caches its surface buffers this way when the
	// viewer window hasn't moved.
	bindMap         bindMap
	shaders         []shader
	pool            resourcePool
	downloads       map[renderer.ResourceID]*wgpu.Buffer
	materials       map[renderer.MaterialID]*material
	nextMaterial    renderer.MaterialID
	heightMaterial  renderer.MaterialID
	uniformLayout   *wgpu.BindGroupLayout
	pipelineShaders *renderer.PipelineShaders
}

type shader struct {
	label           string
	pipeline        *wgpu.ComputePipeline
	bindGroupLayout *wgpu.BindGroupLayout
}

// ExternalResource associates a proxy appearing in a recording with a
// device object owned by the host: the camera depth buffer and the scene's
// vertex and index buffers enter the pipeline this way.
type ExternalResource interface {
	// One of ExternalBuffer and ExternalImage
}

type ExternalBuffer struct {
	Proxy  renderer.BufferProxy
	Buffer *wgpu.Buffer
}

type ExternalImage struct {
	Proxy renderer.ImageProxy
	View  *wgpu.TextureView
}

type bindMapBuffer struct {
	Buffer *wgpu.Buffer
	Label  string
}

type bindMapImage struct {
	texture *wgpu.Texture
	view    *wgpu.TextureView
	// lazily created single-level views, indexed by mip
	mipViews []*wgpu.TextureView
}

type bindMap struct {
	bufMap   map[renderer.ResourceID]*bindMapBuffer
	imageMap map[renderer.ResourceID]*bindMapImage
	// clears recorded before their buffer was materialized; applied on
	// materialization
	pendingClears map[renderer.ResourceID]*renderer.Clear
}

func newBindMap() bindMap {
	return bindMap{
		bufMap:        make(map[renderer.ResourceID]*bindMapBuffer),
		imageMap:      make(map[renderer.ResourceID]*bindMapImage),
		pendingClears: make(map[renderer.ResourceID]*renderer.Clear),
	}
}

type bufferProperties struct {
	size   uint64
	usages wgpu.BufferUsage
}

type resourcePool struct {
	bufs map[bufferProperties][]*wgpu.Buffer
}

// transientBindMap tracks the externally provided resources of one
// recording.
type transientBindMap struct {
	bufs   map[renderer.ResourceID]*wgpu.Buffer
	images map[renderer.ResourceID]*wgpu.TextureView
}

func New(dev *wgpu.Device, options *EngineOptions) *Engine {
	if options == nil {
		options = &EngineOptions{}
	}
	eng := &Engine{
		Device:  dev,
		bindMap: newBindMap(),
		pool: resourcePool{
			bufs: make(map[bufferProperties][]*wgpu.Buffer),
		},
		downloads: make(map[renderer.ResourceID]*wgpu.Buffer),
		materials: make(map[renderer.MaterialID]*material),
	}
	eng.uniformLayout = dev.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Entries: []wgpu.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: wgpu.ShaderStageVertex | wgpu.ShaderStageFragment,
				Buffer: &wgpu.BufferBindingLayout{
					Type: wgpu.BufferBindingTypeUniform,
				},
			},
		},
	})
	eng.pipelineShaders = eng.newPipelineShaders(options)
	eng.heightMaterial = eng.RegisterSurfaceMaterial(
		"surface_height",
		shaders.SurfaceHeightWGSL(),
		0,
		nil,
		nil,
	)
	return eng
}

func (eng *Engine) addShader(
	label string,
	wgsl []byte,
	layout []renderer.BindType,
) renderer.ShaderID {
	entries := make([]wgpu.BindGroupLayoutEntry, len(layout))
	for i, bindType := range layout {
		switch bindType.Type {
		case renderer.BindTypeBuffer, renderer.BindTypeBufReadOnly:
			var typ wgpu.BufferBindingType
			if bindType.Type == renderer.BindTypeBuffer {
				typ = wgpu.BufferBindingTypeStorage
			} else {
				typ = wgpu.BufferBindingTypeReadOnlyStorage
			}
			entries[i] = wgpu.BindGroupLayoutEntry{
				Binding:    uint32(i),
				Visibility: wgpu.ShaderStageCompute,
				Buffer: &wgpu.BufferBindingLayout{
					Type:             typ,
					HasDynamicOffset: false,
					MinBindingSize:   0,
				},
			}
		case renderer.BindTypeUniform:
			entries[i] = wgpu.BindGroupLayoutEntry{
				Binding:    uint32(i),
				Visibility: wgpu.ShaderStageCompute,
				Buffer: &wgpu.BufferBindingLayout{
					Type:             wgpu.BufferBindingTypeUniform,
					HasDynamicOffset: false,
					MinBindingSize:   0,
				},
			}

		case renderer.BindTypeImage:
			entries[i] = wgpu.BindGroupLayoutEntry{
				Binding:    uint32(i),
				Visibility: wgpu.ShaderStageCompute,
				StorageTexture: &wgpu.StorageTextureBindingLayout{
					Access:        wgpu.StorageTextureAccessWriteOnly,
					Format:        imageFormatToWGPU(bindType.ImageFormat),
					ViewDimension: wgpu.TextureViewDimension2D,
				},
			}

		case renderer.BindTypeImageRead:
			sampleType := wgpu.TextureSampleTypeUnfilterableFloat
			if bindType.ImageFormat == renderer.Depth32Float {
				sampleType = wgpu.TextureSampleTypeDepth
			}
			entries[i] = wgpu.BindGroupLayoutEntry{
				Binding:    uint32(i),
				Visibility: wgpu.ShaderStageCompute,
				Texture: &wgpu.TextureBindingLayout{
					SampleType:    sampleType,
					ViewDimension: wgpu.TextureViewDimension2D,
					Multisampled:  false,
				},
			}

		default:
			panic(fmt.Sprintf("invalid bind type %d", bindType.Type))
		}
	}

	sh := eng.createComputePipeline(label, wgsl, entries)
	id := renderer.ShaderID(len(eng.shaders))
	eng.shaders = append(eng.shaders, sh)
	return id
}

func (eng *Engine) RunRecording(
	queue *wgpu.Queue,
	recording *renderer.Recording,
	externalResources []ExternalResource,
	label string,
	pgroup *ProfilerGroup,
) {
	pgroup = pgroup.Nest("RunRecording")
	defer pgroup.End()

	var freeBufs, freeImages []renderer.ResourceID
	transientMap := newTransientBindMap(externalResources)
	bindMap := &eng.bindMap

	encoder := eng.Device.CreateCommandEncoder(&wgpu.CommandEncoderDescriptor{Label: label})

	for _, cmd := range recording.Commands {
		switch cmd := cmd.(type) {
		case *renderer.Upload:
			usage := wgpu.BufferUsageCopySrc |
				wgpu.BufferUsageCopyDst |
				wgpu.BufferUsageStorage |
				wgpu.BufferUsageIndirect
			buf := eng.pool.getBuf(cmd.Buffer.Size, cmd.Buffer.Name, usage, eng.Device)
			queue.WriteBuffer(buf, 0, cmd.Data)
			bindMap.insertBuf(cmd.Buffer, buf)

		case *renderer.UploadUniform:
			usage := wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst
			buf := eng.pool.getBuf(cmd.Buffer.Size, cmd.Buffer.Name, usage, eng.Device)
			queue.WriteBuffer(buf, 0, cmd.Data)
			bindMap.insertBuf(cmd.Buffer, buf)

		case *renderer.Dispatch:
			shader := eng.shaders[cmd.Shader]
			bindGroup := transientMap.createBindGroup(
				bindMap,
				&eng.pool,
				eng.Device,
				encoder,
				shader.bindGroupLayout,
				cmd.Bindings,
			)

			cpass := encoder.BeginComputePass(&wgpu.ComputePassDescriptor{
				Label:           shader.label,
				TimestampWrites: pgroup.Compute(shader.label),
			})
			cpass.SetPipeline(shader.pipeline)
			cpass.SetBindGroup(0, bindGroup, nil)
			cpass.DispatchWorkgroups(cmd.WorkgroupCount[0], cmd.WorkgroupCount[1], cmd.WorkgroupCount[2])
			cpass.End()
			bindGroup.Release()
			cpass.Release()

		case *renderer.RenderPass:
			eng.runRenderPass(queue, encoder, bindMap, &transientMap, cmd, pgroup)

		case *renderer.CopyBuffer:
			src, ok := bindMap.getBuf(cmd.Src)
			if !ok {
				panic("tried using unavailable buffer for copy")
			}
			dst, ok := bindMap.getBuf(cmd.Dst)
			if !ok {
				panic("tried using unavailable buffer for copy")
			}
			encoder.CopyBufferToBuffer(src.Buffer, cmd.SrcOffset, dst.Buffer, cmd.DstOffset, cmd.Size)

		case *renderer.Download:
			src, ok := bindMap.getBuf(cmd.Buffer)
			if !ok {
				panic("tried using unavailable buffer for download")
			}
			usage := wgpu.BufferUsageMapRead | wgpu.BufferUsageCopyDst
			buf := eng.pool.getBuf(cmd.Buffer.Size, "download", usage, eng.Device)
			encoder.CopyBufferToBuffer(src.Buffer, 0, buf, 0, cmd.Buffer.Size)
			eng.downloads[cmd.Buffer.ID] = buf

		case *renderer.Clear:
			if buf, ok := bindMap.getBuf(cmd.Buffer); ok {
				encoder.ClearBuffer(buf.Buffer, cmd.Offset, uint64(cmd.Size))
			} else {
				bindMap.pendingClears[cmd.Buffer.ID] = cmd
			}

		case *renderer.FreeBuffer:
			freeBufs = append(freeBufs, cmd.Buffer.ID)

		case *renderer.FreeImage:
			freeImages = append(freeImages, cmd.Image.ID)

		default:
			panic(fmt.Sprintf("unhandled command %T", cmd))
		}
	}

	cmd := encoder.Finish(nil)
	encoder.Release()
	queue.Submit(cmd)
	cmd.Release()

	for _, id := range freeBufs {
		if buf, ok := bindMap.bufMap[id]; ok {
			delete(bindMap.bufMap, id)
			props := bufferProperties{
				size:   buf.Buffer.Size(),
				usages: buf.Buffer.Usage(),
			}
			eng.pool.bufs[props] = append(eng.pool.bufs[props], buf.Buffer)
		}
	}
	for _, id := range freeImages {
		if img, ok := bindMap.imageMap[id]; ok {
			delete(bindMap.imageMap, id)
			img.release()
		}
	}
}

func (eng *Engine) runRenderPass(
	queue *wgpu.Queue,
	encoder *wgpu.CommandEncoder,
	bindMap *bindMap,
	transientMap *transientBindMap,
	pass *renderer.RenderPass,
	pgroup *ProfilerGroup,
) {
	colorAttachments := make([]wgpu.RenderPassColorAttachment, len(pass.Color))
	for i, att := range pass.Color {
		usage := wgpu.TextureUsageRenderAttachment | wgpu.TextureUsageTextureBinding
		img := bindMap.getOrCreateImage(att.Image, usage, eng.Device)
		colorAttachments[i] = wgpu.RenderPassColorAttachment{
			View:    img.view,
			LoadOp:  wgpu.LoadOpClear,
			StoreOp: wgpu.StoreOpStore,
			ClearValue: wgpu.Color{
				R: att.Clear[0],
				G: att.Clear[1],
				B: att.Clear[2],
				A: att.Clear[3],
			},
		}
	}
	var depthAttachment *wgpu.RenderPassDepthStencilAttachment
	if pass.Depth != nil {
		usage := wgpu.TextureUsageRenderAttachment
		img := bindMap.getOrCreateImage(pass.Depth.Image, usage, eng.Device)
		depthAttachment = &wgpu.RenderPassDepthStencilAttachment{
			View:            img.view,
			DepthLoadOp:     wgpu.LoadOpClear,
			DepthStoreOp:    wgpu.StoreOpStore,
			DepthClearValue: pass.Depth.Clear,
		}
	}

	uniformBuf, ok := bindMap.getBuf(pass.Uniform)
	if !ok {
		panic("render pass uniform was never uploaded")
	}
	uniformGroup := eng.Device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Layout: eng.uniformLayout,
		Entries: []wgpu.BindGroupEntry{
			{
				Binding: 0,
				Buffer:  uniformBuf.Buffer,
				Size:    ^uint64(0),
			},
		},
	})
	defer uniformGroup.Release()

	rpass := encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
		Label:                  pass.Label,
		ColorAttachments:       colorAttachments,
		DepthStencilAttachment: depthAttachment,
		TimestampWrites:        pgroup.Render(pass.Label),
	})
	defer rpass.Release()

	for _, batch := range pass.Batches {
		mat, ok := eng.materials[batch.Material]
		if !ok {
			panic(fmt.Sprintf("batch references unregistered material %d", batch.Material))
		}
		vertexBuf := transientMap.getBuf(bindMap, batch.Vertex)
		rpass.SetPipeline(mat.pipeline)
		rpass.SetBindGroup(0, uniformGroup, nil)
		if mat.extra != nil {
			rpass.SetBindGroup(1, mat.extra, nil)
		}
		rpass.SetVertexBuffer(0, vertexBuf, 0, ^uint64(0))
		if batch.Index.ID != 0 {
			indexBuf := transientMap.getBuf(bindMap, batch.Index)
			rpass.SetIndexBuffer(indexBuf, wgpu.IndexFormatUint32, 0, ^uint64(0))
			rpass.DrawIndexed(batch.IndexCount, 1, 0, 0, 0)
		} else {
			rpass.Draw(batch.VertexCount, 1, 0, 0)
		}
	}
	rpass.End()
}

// GetDownload returns the staging buffer of a downloaded proxy, ready for
// mapping once the queue's work has completed.
func (eng *Engine) GetDownload(buf renderer.BufferProxy) (*wgpu.Buffer, bool) {
	got, ok := eng.downloads[buf.ID]
	return got, ok
}

func (eng *Engine) FreeDownload(buf renderer.BufferProxy) {
	delete(eng.downloads, buf.ID)
}

// ReadCounter maps the downloaded 4-byte counter and returns its value.
// This blocks on the GPU and is only meant for the debug preview path.
func (eng *Engine) ReadCounter(buf renderer.BufferProxy) (uint32, error) {
	staging, ok := eng.downloads[buf.ID]
	if !ok {
		return 0, fmt.Errorf("counter %q was never downloaded", buf.Name)
	}
	if err := <-staging.Map(eng.Device, wgpu.MapModeRead, 0, 4); err != nil {
		return 0, err
	}
	v := *safeish.Cast[*uint32](&staging.ReadOnlyMappedRange(0, 4)[0])
	staging.Unmap()
	eng.FreeDownload(buf)
	return v, nil
}

// GetBuffer resolves a proxy that survived its recording, such as the
// position and argument buffers the host's indirect draw reads.
func (eng *Engine) GetBuffer(buf renderer.BufferProxy) (*wgpu.Buffer, bool) {
	got, ok := eng.bindMap.getBuf(buf)
	if !ok {
		return nil, false
	}
	return got.Buffer, true
}

// GetImageView resolves a proxy image's full view, such as the color and
// slope buffers bound by the host's blade shader.
func (eng *Engine) GetImageView(img renderer.ImageProxy) (*wgpu.TextureView, bool) {
	got, ok := eng.bindMap.imageMap[img.ID]
	if !ok {
		return nil, false
	}
	return got.view, true
}

func (eng *Engine) createComputePipeline(
	label string,
	wgsl []byte,
	entries []wgpu.BindGroupLayoutEntry,
) shader {
	shaderModule := eng.Device.CreateShaderModule(wgpu.ShaderModuleDescriptor{
		Label:  label,
		Source: wgpu.ShaderSourceWGSL(wgsl),
	})
	bindGroupLayout := eng.Device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Entries: entries,
	})
	computePipelineLayout := eng.Device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		BindGroupLayouts: []*wgpu.BindGroupLayout{bindGroupLayout},
	})
	pipeline := eng.Device.CreateComputePipeline(&wgpu.ComputePipelineDescriptor{
		Label:  label,
		Layout: computePipelineLayout,
		Compute: wgpu.ProgrammableStageDescriptor{
			Module:     shaderModule,
			EntryPoint: "main",
		},
	})
	computePipelineLayout.Release()

	return shader{
		label:           label,
		pipeline:        pipeline,
		bindGroupLayout: bindGroupLayout,
	}
}

func (m *bindMap) insertBuf(proxy renderer.BufferProxy, buffer *wgpu.Buffer) {
	m.bufMap[proxy.ID] = &bindMapBuffer{
		Buffer: buffer,
		Label:  proxy.Name,
	}
}

func (m *bindMap) getBuf(proxy renderer.BufferProxy) (*bindMapBuffer, bool) {
	b, ok := m.bufMap[proxy.ID]
	return b, ok
}

func (m *bindMap) getOrCreateImage(
	proxy renderer.ImageProxy,
	usage wgpu.TextureUsage,
	dev *wgpu.Device,
) *bindMapImage {
	if entry, ok := m.imageMap[proxy.ID]; ok {
		return entry
	}

	format := imageFormatToWGPU(proxy.Format)
	texture := dev.CreateTexture(&wgpu.TextureDescriptor{
		Size: wgpu.Extent3D{
			Width:              proxy.Width,
			Height:             proxy.Height,
			DepthOrArrayLayers: 1,
		},
		MipLevelCount: proxy.MipCount,
		SampleCount:   1,
		Dimension:     wgpu.TextureDimension2D,
		Usage:         usage,
		Format:        format,
	})
	textureView := texture.CreateView(&wgpu.TextureViewDescriptor{
		Dimension:       wgpu.TextureViewDimension2D,
		Aspect:          wgpu.TextureAspectAll,
		MipLevelCount:   ^uint32(0),
		BaseMipLevel:    0,
		BaseArrayLayer:  0,
		ArrayLayerCount: ^uint32(0),
		Format:          format,
	})
	img := &bindMapImage{
		texture:  texture,
		view:     textureView,
		mipViews: make([]*wgpu.TextureView, proxy.MipCount),
	}
	m.imageMap[proxy.ID] = img
	return img
}

// mipView returns a single-level view of the image, creating it on first
// use. The Hi-Z chain binds adjacent levels of one texture this way.
func (img *bindMapImage) mipView(proxy renderer.ImageProxy, level uint32) *wgpu.TextureView {
	if img.mipViews[level] == nil {
		img.mipViews[level] = img.texture.CreateView(&wgpu.TextureViewDescriptor{
			Dimension:       wgpu.TextureViewDimension2D,
			Aspect:          wgpu.TextureAspectAll,
			BaseMipLevel:    level,
			MipLevelCount:   1,
			BaseArrayLayer:  0,
			ArrayLayerCount: ^uint32(0),
			Format:          imageFormatToWGPU(proxy.Format),
		})
	}
	return img.mipViews[level]
}

func (img *bindMapImage) release() {
	for _, v := range img.mipViews {
		if v != nil {
			v.Release()
		}
	}
	img.view.Release()
	img.texture.Release()
}

func (pool *resourcePool) getBuf(
	size uint64,
	name string,
	usage wgpu.BufferUsage,
	dev *wgpu.Device,
) *wgpu.Buffer {
	const sizeClassBits = 1

	roundedSize := poolSizeClass(size, sizeClassBits)
	props := bufferProperties{
		size:   roundedSize,
		usages: usage,
	}
	if bufVec, ok := pool.bufs[props]; ok {
		if len(bufVec) > 0 {
			buf := bufVec[len(bufVec)-1]
			pool.bufs[props] = bufVec[:len(bufVec)-1]
			return buf
		}
	}
	return dev.CreateBuffer(&wgpu.BufferDescriptor{
		Label: name,
		Size:  roundedSize,
		Usage: usage,
	})
}

func poolSizeClass(x uint64, numBits uint32) uint64 {
	if x > 1<<numBits {
		a := bits.LeadingZeros64(x - 1)
		b := (x - 1) | (((math.MaxUint64 / 2) >> numBits) >> a)
		return b + 1
	} else {
		return 1 << numBits
	}
}

func newTransientBindMap(externalResources []ExternalResource) transientBindMap {
	bufs := make(map[renderer.ResourceID]*wgpu.Buffer)
	images := make(map[renderer.ResourceID]*wgpu.TextureView)
	for _, res := range externalResources {
		switch res := res.(type) {
		case ExternalBuffer:
			bufs[res.Proxy.ID] = res.Buffer
		case ExternalImage:
			images[res.Proxy.ID] = res.View
		}
	}
	return transientBindMap{
		bufs:   bufs,
		images: images,
	}
}

// getBuf resolves a proxy that must already exist, either externally or in
// the bind map. Used for vertex and index buffers, which the pipeline
// never creates itself.
func (m *transientBindMap) getBuf(bindMap *bindMap, proxy renderer.BufferProxy) *wgpu.Buffer {
	if buf, ok := m.bufs[proxy.ID]; ok {
		return buf
	}
	if b, ok := bindMap.getBuf(proxy); ok {
		return b.Buffer
	}
	panic(fmt.Sprintf("buffer %q is neither external nor materialized", proxy.Name))
}

func (m *transientBindMap) createBindGroup(
	bindMap *bindMap,
	pool *resourcePool,
	dev *wgpu.Device,
	encoder *wgpu.CommandEncoder,
	layout *wgpu.BindGroupLayout,
	bindings []renderer.ResourceProxy,
) *wgpu.BindGroup {
	for _, proxy := range bindings {
		switch proxy.Kind {
		case renderer.ResourceProxyKindBuffer:
			if _, ok := m.bufs[proxy.BufferProxy.ID]; ok {
				continue
			}
			if _, ok := bindMap.getBuf(proxy.BufferProxy); ok {
				continue
			}
			usage := wgpu.BufferUsageCopySrc |
				wgpu.BufferUsageCopyDst |
				wgpu.BufferUsageStorage |
				wgpu.BufferUsageIndirect
			buf := pool.getBuf(proxy.Size, proxy.Name, usage, dev)
			if clr, ok := bindMap.pendingClears[proxy.BufferProxy.ID]; ok {
				delete(bindMap.pendingClears, proxy.BufferProxy.ID)
				size := uint64(clr.Size)
				if clr.Size < 0 {
					size = buf.Size() - clr.Offset
				}
				encoder.ClearBuffer(buf, clr.Offset, size)
			}
			bindMap.insertBuf(proxy.BufferProxy, buf)
		case renderer.ResourceProxyKindImage, renderer.ResourceProxyKindImageMip:
			if _, ok := m.images[proxy.ImageProxy.ID]; ok {
				continue
			}
			usage := wgpu.TextureUsageTextureBinding |
				wgpu.TextureUsageCopyDst |
				wgpu.TextureUsageStorageBinding
			bindMap.getOrCreateImage(proxy.ImageProxy, usage, dev)
		default:
			panic(fmt.Sprintf("unhandled kind %d", proxy.Kind))
		}
	}

	entries := make([]wgpu.BindGroupEntry, len(bindings))
	for i, proxy := range bindings {
		switch proxy.Kind {
		case renderer.ResourceProxyKindBuffer:
			buf, ok := m.bufs[proxy.BufferProxy.ID]
			if !ok {
				b, ok := bindMap.getBuf(proxy.BufferProxy)
				if !ok {
					panic("unexpected ok == false")
				}
				buf = b.Buffer
			}
			entries[i] = wgpu.BindGroupEntry{
				Binding: uint32(i),
				Buffer:  buf,
				Size:    ^uint64(0),
			}
		case renderer.ResourceProxyKindImage:
			view, ok := m.images[proxy.ImageProxy.ID]
			if !ok {
				img, ok := bindMap.imageMap[proxy.ImageProxy.ID]
				if !ok {
					panic("unexpected ok == false")
				}
				view = img.view
			}
			entries[i] = wgpu.BindGroupEntry{
				Binding:     uint32(i),
				TextureView: view,
				Size:        ^uint64(0),
			}
		case renderer.ResourceProxyKindImageMip:
			img, ok := bindMap.imageMap[proxy.ImageProxy.ID]
			if !ok {
				panic("unexpected ok == false")
			}
			entries[i] = wgpu.BindGroupEntry{
				Binding:     uint32(i),
				TextureView: img.mipView(proxy.ImageProxy, proxy.Mip),
				Size:        ^uint64(0),
			}
		default:
			panic(fmt.Sprintf("unhandled kind %d", proxy.Kind))
		}
	}

	return dev.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Layout:  layout,
		Entries: entries,
	})
}
