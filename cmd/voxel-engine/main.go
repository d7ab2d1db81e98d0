// Command voxel-engine wires the engine's services, land subsystem and
// graphics pipeline together and runs the main loop: service locator +
// task service registered first, land generation/LOD next, then the GPU
// device, render graph and frame ring built once a window exists —
// replacing the teacher's single-resolution cmd/voxels demo.
package main

import (
	"flag"
	"math/rand/v2"
	"runtime"
	"time"

	"openglhelper"

	"github.com/svenny-voxen/voxen-go/internal/config"
	"github.com/svenny-voxen/voxen-go/internal/xlog"
	"github.com/svenny-voxen/voxen-go/pkg/gfx/device"
	"github.com/svenny-voxen/voxen-go/pkg/gfx/frame"
	"github.com/svenny-voxen/voxen-go/pkg/gfx/graph"
	"github.com/svenny-voxen/voxen-go/pkg/gfx/mesh"
	"github.com/svenny-voxen/voxen-go/pkg/land/gen"
	"github.com/svenny-voxen/voxen-go/pkg/land/lod"
	"github.com/svenny-voxen/voxen-go/pkg/svc/locator"
	"github.com/svenny-voxen/voxen-go/pkg/svc/task"
)

func init() {
	// OpenGL calls must all originate on the same OS thread.
	runtime.LockOSThread()
}

var log = xlog.New("main")

// Service UIDs for the locator. Order doesn't matter at registration
// time — Request resolves dependencies lazily — but taskUID is listed
// first since the generator depends on it.
const (
	taskUID locator.UID = iota
	generatorUID
	lodUID
)

func main() {
	configPath := flag.String("config", "voxen.ini", "path to the engine's INI configuration file")
	seedFlag := flag.Uint64("seed", 0, "world generation seed (0 picks a random seed)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}
	cfg.ApplyDefaults(config.MainConfigDefaults)
	width := int(cfg.Int("window", "width", 1280))
	height := int(cfg.Int("window", "height", 720))
	defer func() {
		if err := cfg.Close(); err != nil {
			log.Printf("saving config: %v", err)
		}
	}()

	seed := *seedFlag
	if seed == 0 {
		seed = rand.Uint64()
	}

	loc := locator.New()
	defer loc.Shutdown()

	loc.Register(taskUID, func(*locator.Locator) (any, error) {
		return task.New(runtime.NumCPU()), nil
	}, func(instance any) {
		instance.(*task.Service).Close()
	})

	loc.Register(generatorUID, func(l *locator.Locator) (any, error) {
		svc, err := locator.Request[*task.Service](l, taskUID)
		if err != nil {
			return nil, err
		}
		return gen.NewGenerator(seed, svc), nil
	}, nil)

	loc.Register(lodUID, func(*locator.Locator) (any, error) {
		return lod.NewController(), nil
	}, nil)

	generator, err := locator.Request[*gen.Generator](loc, generatorUID)
	if err != nil {
		log.Fatalf("resolving generator: %v", err)
	}
	lodController, err := locator.Request[*lod.Controller](loc, lodUID)
	if err != nil {
		log.Fatalf("resolving LOD controller: %v", err)
	}
	_ = generator

	win, err := openglhelper.NewWindow(width, height, "voxen", true)
	if err != nil {
		log.Fatalf("creating window: %v", err)
	}
	defer win.Close()

	dev := device.New()
	defer dev.Close()

	const maxPendingFrames = 3
	ring := frame.NewRing(dev, device.QueueMain, maxPendingFrames, glBufferBackend{}, 1<<20, 1<<20, 256)

	meshBackend := newMeshGLBackend()
	meshStreamer := mesh.New(meshBackend)

	renderGraph := graph.New()

	opaqueShader, err := openglhelper.NewShader(opaqueVertexShaderSource, opaqueFragmentShaderSource)
	if err != nil {
		log.Fatalf("compiling opaque pass shader: %v", err)
	}
	defer opaqueShader.Delete()

	log.Printf("voxen starting: seed=%d window=%dx%d", seed, width, height)

	tick := uint64(0)
	lastFrame := time.Now()
	for !win.ShouldClose() {
		now := time.Now()
		dt := now.Sub(lastFrame)
		lastFrame = now
		_ = dt

		win.PollEvents()

		tick++
		lodController.Tick()
		meshStreamer.BeginTick(tick)

		fctx := ring.Begin(tick)
		_ = fctx

		builder := renderGraph.Rebuild()
		sceneColor := builder.Make2DImage("scene-color", width, height, 1, 1)
		builder.MakeRenderPass("opaque", func() {}, []graph.Handle{sceneColor}, nil, map[graph.Handle]graph.ResourceUsage{
			sceneColor: {Stage: graph.StageFragment, Access: graph.AccessWrite, Discard: true},
		})
		opaqueShader.Use()
		renderGraph.Execute(func(b graph.Barrier) {
			// Lowered to gl.MemoryBarrier(...) once a live GL context
			// issues the graph; omitted here since this entrypoint wires
			// the subsystems' contracts together rather than shipping a
			// full shading pipeline.
			_ = b
		})

		ring.SubmitAndAdvance()
		win.SwapBuffers()
	}

	log.Printf("voxen exiting cleanly")
}

// opaqueVertexShaderSource and opaqueFragmentShaderSource are the
// pass-through shader pair the opaque render pass uses to consume
// pkg/land/pseudo.Vertex's packed layout (internal/openglhelper's
// PseudoSurfaceVAO), reading the UNORM16 position attribute directly and
// leaving normal/albedo unlit — a placeholder for the lighting pass this
// entrypoint doesn't implement.
const opaqueVertexShaderSource = `
#version 460 core
layout(location = 0) in uvec3 inPosition;
layout(location = 1) in uint inNormal;
layout(location = 2) in uint inAlbedo;

void main() {
    vec3 pos = vec3(inPosition) / 65535.0;
    gl_Position = vec4(pos * 2.0 - 1.0, 1.0);
}
`

const opaqueFragmentShaderSource = `
#version 460 core
out vec4 fragColor;

void main() {
    fragColor = vec4(1.0);
}
`
