//go:build !nogpu

package resample

import (
	"encoding/binary"
	"fmt"
	"math"
	"sync"
	"time"
	"unsafe"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	// Import Vulkan backend so it registers via init().
	_ "github.com/gogpu/wgpu/hal/vulkan"

	"photo-pipeline/internal/logging"
	"photo-pipeline/internal/pixel"
)

// gpuTimeout bounds a single fence wait. A hung driver degrades to the CPU
// path instead of stalling a worker forever.
const gpuTimeout = 5 * time.Second

// kernelParams is the uniform block passed to the fill kernel.
// Layout must match the Params struct in fillKernelSource (16-byte aligned).
type kernelParams struct {
	SrcWidth  uint32
	SrcHeight uint32
	DstWidth  uint32
	DstHeight uint32
	Scale     float32
	OffsetX   float32
	OffsetY   float32
	_         float32 // padding
}

// fillKernelSource is the WGSL aspect-fill bilinear kernel. It mirrors the
// CPU rasterizer exactly: same crop offset, same half-pixel weights, same
// +0.5 quantization, alpha forced opaque.
const fillKernelSource = `
struct Params {
    src_width: u32,
    src_height: u32,
    dst_width: u32,
    dst_height: u32,
    scale: f32,
    offset_x: f32,
    offset_y: f32,
    pad: f32,
};

@group(0) @binding(0) var<uniform> params: Params;
@group(0) @binding(1) var<storage, read> src_pixels: array<u32>;
@group(0) @binding(2) var<storage, read_write> dst_pixels: array<u32>;

fn unpack(p: u32) -> vec4<f32> {
    return vec4<f32>(
        f32(p & 0xFFu),
        f32((p >> 8u) & 0xFFu),
        f32((p >> 16u) & 0xFFu),
        f32((p >> 24u) & 0xFFu));
}

fn sample_clamped(x: i32, y: i32) -> vec4<f32> {
    let cx = clamp(x, 0, i32(params.src_width) - 1);
    let cy = clamp(y, 0, i32(params.src_height) - 1);
    return unpack(src_pixels[cy * i32(params.src_width) + cx]);
}

@compute @workgroup_size(8, 8, 1)
fn main(@builtin(global_invocation_id) gid: vec3<u32>) {
    if (gid.x >= params.dst_width || gid.y >= params.dst_height) {
        return;
    }

    let sx = (f32(gid.x) + params.offset_x) / params.scale;
    let sy = (f32(gid.y) + params.offset_y) / params.scale;

    let fx = floor(sx - 0.5);
    let fy = floor(sy - 0.5);
    let tx = sx - 0.5 - fx;
    let ty = sy - 0.5 - fy;
    let x0 = i32(fx);
    let y0 = i32(fy);

    let c00 = sample_clamped(x0, y0);
    let c10 = sample_clamped(x0 + 1, y0);
    let c01 = sample_clamped(x0, y0 + 1);
    let c11 = sample_clamped(x0 + 1, y0 + 1);

    let c = mix(mix(c00, c10, tx), mix(c01, c11, tx), ty);

    let r = u32(clamp(c.x + 0.5, 0.0, 255.0));
    let g = u32(clamp(c.y + 0.5, 0.0, 255.0));
    let b = u32(clamp(c.z + 0.5, 0.0, 255.0));
    dst_pixels[gid.y * params.dst_width + gid.x] = r | (g << 8u) | (b << 16u) | (255u << 24u);
}
`

// gpuResampler runs the fill kernel through wgpu/hal. The device and queue
// are process-wide; submissions serialize on mu, so GPU concurrency is
// bounded by the number of workers, never unbounded.
type gpuResampler struct {
	mu sync.Mutex

	instance   hal.Instance
	device     hal.Device
	queue      hal.Queue
	shader     hal.ShaderModule
	bindLayout hal.BindGroupLayout
	pipeLayout hal.PipelineLayout
	pipeline   hal.ComputePipeline
}

// newGPUResampler probes for a usable GPU and compiles the fill kernel.
// Any failure is returned to the engine, which degrades to CPU-only.
func newGPUResampler() (Resampler, error) {
	backend, ok := hal.GetBackend(gputypes.BackendVulkan)
	if !ok {
		return nil, fmt.Errorf("vulkan backend not available")
	}

	instance, err := backend.CreateInstance(&hal.InstanceDescriptor{Flags: 0})
	if err != nil {
		return nil, fmt.Errorf("create instance: %w", err)
	}

	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		instance.Destroy()
		return nil, fmt.Errorf("no GPU adapters found")
	}

	var selected *hal.ExposedAdapter
	for i := range adapters {
		if adapters[i].Info.DeviceType == gputypes.DeviceTypeDiscreteGPU ||
			adapters[i].Info.DeviceType == gputypes.DeviceTypeIntegratedGPU {
			selected = &adapters[i]
			break
		}
	}
	if selected == nil {
		selected = &adapters[0]
	}

	openDev, err := selected.Adapter.Open(gputypes.Features(0), gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		return nil, fmt.Errorf("open device: %w", err)
	}

	g := &gpuResampler{
		instance: instance,
		device:   openDev.Device,
		queue:    openDev.Queue,
	}
	if err := g.createPipeline(); err != nil {
		g.Close()
		return nil, fmt.Errorf("create pipeline: %w", err)
	}

	logging.Info("GPU resampler initialized (%s)", selected.Info.Name)
	return g, nil
}

func (g *gpuResampler) createPipeline() error {
	shader, err := g.device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  "fill_resample",
		Source: hal.ShaderSource{WGSL: fillKernelSource},
	})
	if err != nil {
		return fmt.Errorf("compile fill kernel: %w", err)
	}
	g.shader = shader

	bindLayout, err := g.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: "fill_resample_bind_layout",
		Entries: []gputypes.BindGroupLayoutEntry{
			{Binding: 0, Visibility: gputypes.ShaderStageCompute, Buffer: &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform}},
			{Binding: 1, Visibility: gputypes.ShaderStageCompute, Buffer: &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeReadOnlyStorage}},
			{Binding: 2, Visibility: gputypes.ShaderStageCompute, Buffer: &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeStorage}},
		},
	})
	if err != nil {
		return fmt.Errorf("create bind group layout: %w", err)
	}
	g.bindLayout = bindLayout

	pipeLayout, err := g.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            "fill_resample_pipe_layout",
		BindGroupLayouts: []hal.BindGroupLayout{g.bindLayout},
	})
	if err != nil {
		return fmt.Errorf("create pipeline layout: %w", err)
	}
	g.pipeLayout = pipeLayout

	pipeline, err := g.device.CreateComputePipeline(&hal.ComputePipelineDescriptor{
		Label:   "fill_resample_pipeline",
		Layout:  g.pipeLayout,
		Compute: hal.ComputeState{Module: g.shader, EntryPoint: "main"},
	})
	if err != nil {
		return fmt.Errorf("create compute pipeline: %w", err)
	}
	g.pipeline = pipeline

	return nil
}

// Resample dispatches one compute pass and waits for its fence before
// returning, so the issuing worker owns exactly one in-flight submission.
func (g *gpuResampler) Resample(src *pixel.Buffer, targetWidth, targetHeight int) (*pixel.Buffer, error) {
	if src == nil || src.Width() <= 0 || src.Height() <= 0 || targetWidth <= 0 || targetHeight <= 0 {
		return nil, ErrInvalidDimensions
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	srcW, srcH := src.Width(), src.Height()
	scale := FillScale(srcW, srcH, targetWidth, targetHeight)
	params := kernelParams{
		SrcWidth:  uint32(srcW),         //nolint:gosec // dimensions fit uint32
		SrcHeight: uint32(srcH),         //nolint:gosec // dimensions fit uint32
		DstWidth:  uint32(targetWidth),  //nolint:gosec // dimensions fit uint32
		DstHeight: uint32(targetHeight), //nolint:gosec // dimensions fit uint32
		Scale:     float32(scale),
		OffsetX:   float32(cropOffset(srcW, scale, targetWidth)),
		OffsetY:   float32(cropOffset(srcH, scale, targetHeight)),
	}

	srcBytes := packPixels(src.Data(), srcW*srcH)
	dstBufSize := uint64(targetWidth) * uint64(targetHeight) * 4 //nolint:gosec // dimensions positive

	paramsBuf, err := g.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "resample_params", Size: uint64(unsafe.Sizeof(params)),
		Usage: gputypes.BufferUsageUniform | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("create params buffer: %w", err)
	}
	defer g.device.DestroyBuffer(paramsBuf)

	srcBuf, err := g.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "resample_src", Size: uint64(len(srcBytes)),
		Usage: gputypes.BufferUsageStorage | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("create source buffer: %w", err)
	}
	defer g.device.DestroyBuffer(srcBuf)

	dstBuf, err := g.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "resample_dst", Size: dstBufSize,
		Usage: gputypes.BufferUsageStorage | gputypes.BufferUsageCopySrc,
	})
	if err != nil {
		return nil, fmt.Errorf("create target buffer: %w", err)
	}
	defer g.device.DestroyBuffer(dstBuf)

	stagingBuf, err := g.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "resample_staging", Size: dstBufSize,
		Usage: gputypes.BufferUsageMapRead | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("create staging buffer: %w", err)
	}
	defer g.device.DestroyBuffer(stagingBuf)

	g.queue.WriteBuffer(paramsBuf, 0, structToBytes(unsafe.Pointer(&params), unsafe.Sizeof(params))) //nolint:gosec // safe struct serialization
	g.queue.WriteBuffer(srcBuf, 0, srcBytes)

	bindGroup, err := g.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label: "resample_bind", Layout: g.bindLayout,
		Entries: []gputypes.BindGroupEntry{
			{Binding: 0, Resource: gputypes.BufferBinding{Buffer: paramsBuf.NativeHandle(), Offset: 0, Size: uint64(unsafe.Sizeof(params))}},
			{Binding: 1, Resource: gputypes.BufferBinding{Buffer: srcBuf.NativeHandle(), Offset: 0, Size: uint64(len(srcBytes))}},
			{Binding: 2, Resource: gputypes.BufferBinding{Buffer: dstBuf.NativeHandle(), Offset: 0, Size: dstBufSize}},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create bind group: %w", err)
	}
	defer g.device.DestroyBindGroup(bindGroup)

	encoder, err := g.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: "resample_encoder"})
	if err != nil {
		return nil, fmt.Errorf("create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding("resample"); err != nil {
		return nil, fmt.Errorf("begin encoding: %w", err)
	}

	pass := encoder.BeginComputePass(&hal.ComputePassDescriptor{Label: "resample_pass"})
	pass.SetPipeline(g.pipeline)
	pass.SetBindGroup(0, bindGroup, nil)
	pass.Dispatch(groupCount(targetWidth), groupCount(targetHeight), 1)
	pass.End()

	encoder.CopyBufferToBuffer(dstBuf, stagingBuf, []hal.BufferCopy{
		{SrcOffset: 0, DstOffset: 0, Size: dstBufSize},
	})
	cmdBuf, err := encoder.EndEncoding()
	if err != nil {
		return nil, fmt.Errorf("end encoding: %w", err)
	}
	defer g.device.FreeCommandBuffer(cmdBuf)

	fence, err := g.device.CreateFence()
	if err != nil {
		return nil, fmt.Errorf("create fence: %w", err)
	}
	defer g.device.DestroyFence(fence)

	if err := g.queue.Submit([]hal.CommandBuffer{cmdBuf}, fence, 1); err != nil {
		return nil, fmt.Errorf("submit: %w", err)
	}
	fenceOK, err := g.device.Wait(fence, 1, gpuTimeout)
	if err != nil || !fenceOK {
		return nil, fmt.Errorf("wait for GPU: ok=%v err=%w", fenceOK, err)
	}

	readback := make([]byte, dstBufSize)
	if err := g.queue.ReadBuffer(stagingBuf, 0, readback); err != nil {
		return nil, fmt.Errorf("readback: %w", err)
	}

	out := pixel.New(targetWidth, targetHeight)
	unpackPixels(readback, out.Data(), targetWidth*targetHeight)
	return out, nil
}

// Close releases all GPU resources.
func (g *gpuResampler) Close() {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.device != nil {
		if g.pipeline != nil {
			g.device.DestroyComputePipeline(g.pipeline)
			g.pipeline = nil
		}
		if g.pipeLayout != nil {
			g.device.DestroyPipelineLayout(g.pipeLayout)
			g.pipeLayout = nil
		}
		if g.bindLayout != nil {
			g.device.DestroyBindGroupLayout(g.bindLayout)
			g.bindLayout = nil
		}
		if g.shader != nil {
			g.device.DestroyShaderModule(g.shader)
			g.shader = nil
		}
		g.device.Destroy()
		g.device = nil
	}
	if g.instance != nil {
		g.instance.Destroy()
		g.instance = nil
	}
	g.queue = nil
}

// groupCount returns the number of 8-wide workgroups covering n pixels.
func groupCount(n int) uint32 {
	return uint32(math.Ceil(float64(n) / 8)) //nolint:gosec // n positive
}

func structToBytes(ptr unsafe.Pointer, size uintptr) []byte {
	return unsafe.Slice((*byte)(ptr), size) //nolint:gosec // safe struct serialization
}

func packPixels(data []uint8, pixelCount int) []byte {
	out := make([]byte, pixelCount*4)
	for i := 0; i < pixelCount; i++ {
		si := i * 4
		packed := uint32(data[si]) | uint32(data[si+1])<<8 | uint32(data[si+2])<<16 | uint32(data[si+3])<<24
		binary.LittleEndian.PutUint32(out[i*4:], packed)
	}
	return out
}

func unpackPixels(packed []byte, dst []uint8, pixelCount int) {
	for i := 0; i < pixelCount; i++ {
		val := binary.LittleEndian.Uint32(packed[i*4:])
		di := i * 4
		dst[di] = uint8(val & 0xFF)         //nolint:gosec // masked to 8 bits
		dst[di+1] = uint8(val >> 8 & 0xFF)  //nolint:gosec // masked to 8 bits
		dst[di+2] = uint8(val >> 16 & 0xFF) //nolint:gosec // masked to 8 bits
		dst[di+3] = uint8(val >> 24 & 0xFF) //nolint:gosec // masked to 8 bits
	}
}
