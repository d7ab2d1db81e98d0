// Package graph implements the render graph: a per-frame-rebuilt
// declaration of images, buffers, views and passes, whose execution
// phase computes barriers from each resource's accumulated usage since
// it was last touched.
//
// Grounded on spec.md §4.M, unchanged in semantics from the original
// Vulkan design; the barrier's OpenGL lowering is a gl.MemoryBarrier
// call keyed by usage transition instead of a vkCmdPipelineBarrier,
// grounded on the teacher's explicit state-setting sequencing in
// internal/openglhelper/window.go (every GL state change there is an
// explicit, ordered call — this package generalizes that into
// data-driven barrier insertion instead of hand-ordered calls).
package graph

// Stage is the pipeline stage(s) a resource is used in, matching
// spec.md's {stages, access, layout, discard} usage record — narrowed
// to the stages the OpenGL lowering actually distinguishes (no
// per-subpass stage granularity the way Vulkan has).
type Stage uint32

const (
	StageCompute Stage = 1 << iota
	StageVertex
	StageFragment
	StageTransfer
)

// Access is the read/write access a pass makes to a resource.
type Access uint32

const (
	AccessRead Access = 1 << iota
	AccessWrite
)

// ResourceUsage records how one pass touches one resource, per
// spec.md's ResourceUsage record.
type ResourceUsage struct {
	Stage   Stage
	Access  Access
	Discard bool // true if the pass doesn't care about the resource's prior contents
}

// ResourceKind distinguishes images from buffers for barrier purposes
// (spec.md's barrier emits a layout transition for images, a plain
// memory barrier for buffers).
type ResourceKind int

const (
	KindImage ResourceKind = iota
	KindBuffer
)

// Handle identifies a declared resource, stable across rebuilds as long
// as the same name is declared again (spec.md: "resource handles live
// as long as the graph", only the Builder's declarations are rebuilt).
type Handle struct {
	kind ResourceKind
	id   int
}

type imageDesc struct {
	name           string
	format         string
	width, height  int
	mips, layers   int
	doubleBuffered bool
	current, prev  int // backing slot indices; swapped each execution for double-buffered images
}

type bufferDesc struct {
	name    string
	size    int
	dynamic bool
}

type passKind int

const (
	passCompute passKind = iota
	passRender
)

// Pass is one declared compute or render pass: a callback plus the set
// of resources it touches and how.
type Pass struct {
	Name     string
	Kind     passKind
	Callback func()
	Usages   map[Handle]ResourceUsage

	ColorTargets []Handle
	DepthStencil *Handle
}

// lastTouch records the usage a resource was left in after its most
// recent pass, so the next pass touching it can compute a transition.
type lastTouch struct {
	usage ResourceUsage
	kind  ResourceKind
}

// Graph owns resource declarations and their last-known usage across
// executions; a Builder mutates it fresh each frame but resource
// identity (the Handle and its backing GPU object) persists.
type Graph struct {
	images  []imageDesc
	buffers []bufferDesc

	touched map[Handle]lastTouch
	names   map[string]Handle // persists across rebuilds so repeated declarations resolve to the same resource

	passes []Pass
}

// New creates an empty Graph.
func New() *Graph {
	return &Graph{touched: make(map[Handle]lastTouch), names: make(map[string]Handle)}
}

// Builder declares this frame's resources and passes. Its lifetime is
// one rebuild call, per spec.md §4.M. Resource identity (the name ->
// Handle mapping) lives on the Graph, not the Builder, so the same
// name declared across successive rebuilds resolves to the same
// Handle and backing GPU object.
type Builder struct {
	g *Graph
}

// Rebuild starts a new declaration pass over g, discarding the previous
// frame's pass list (the graph "must tolerate being rebuilt every
// frame", per spec.md) while keeping resource identities stable by
// name.
func (g *Graph) Rebuild() *Builder {
	g.passes = nil
	return &Builder{g: g}
}

// Make2DImage declares (or re-declares, by name) a 2D image resource.
func (b *Builder) Make2DImage(name string, width, height, mips, layers int) Handle {
	if h, ok := b.g.names[name]; ok {
		return h
	}
	id := len(b.g.images)
	b.g.images = append(b.g.images, imageDesc{name: name, width: width, height: height, mips: mips, layers: layers})
	h := Handle{kind: KindImage, id: id}
	b.g.names[name] = h
	return h
}

// MakeDoubleBuffered2DImage declares an image with two backing slots
// that swap handles once per execution, returning (current, previous).
func (b *Builder) MakeDoubleBuffered2DImage(name string, width, height, mips, layers int) (current, previous Handle) {
	if h, ok := b.g.names[name]; ok {
		desc := &b.g.images[h.id]
		return Handle{kind: KindImage, id: desc.current}, Handle{kind: KindImage, id: desc.prev}
	}

	slotA := len(b.g.images)
	b.g.images = append(b.g.images, imageDesc{name: name + "#a", width: width, height: height, mips: mips, layers: layers, doubleBuffered: true})
	slotB := len(b.g.images)
	b.g.images = append(b.g.images, imageDesc{name: name + "#b", width: width, height: height, mips: mips, layers: layers, doubleBuffered: true})

	id := len(b.g.images)
	b.g.images = append(b.g.images, imageDesc{name: name, current: slotA, prev: slotB, doubleBuffered: true})
	h := Handle{kind: KindImage, id: id}
	b.g.names[name] = h
	return Handle{kind: KindImage, id: slotA}, Handle{kind: KindImage, id: slotB}
}

// MakeView declares a sub-view of an already-declared image (a mip
// range, layer range, or reinterpreted format). OpenGL has no
// first-class image-view object the way Vulkan does; texture views are
// only needed when format or mip/layer range actually differs from the
// base image, so this returns the base Handle unchanged and the
// mip/layer range is only consulted by the pass's own GL calls at
// record time — matching spec.md §9's note to drop Vulkan-only
// vocabulary with no OpenGL equivalent rather than fake a distinct view
// handle type.
func (b *Builder) MakeView(base Handle, _ /* mipRange */, _ /* layerRange */ [2]int) Handle {
	return base
}

// MakeBuffer declares a fixed-size buffer resource.
func (b *Builder) MakeBuffer(name string, size int) Handle {
	if h, ok := b.g.names[name]; ok {
		return h
	}
	id := len(b.g.buffers)
	b.g.buffers = append(b.g.buffers, bufferDesc{name: name, size: size})
	h := Handle{kind: KindBuffer, id: id}
	b.g.names[name] = h
	return h
}

// MakeDynamicBuffer declares a buffer whose size is fixed per execution
// via Execution.SetDynamicBufferSize rather than at declaration time.
func (b *Builder) MakeDynamicBuffer(name string) Handle {
	if h, ok := b.g.names[name]; ok {
		return h
	}
	id := len(b.g.buffers)
	b.g.buffers = append(b.g.buffers, bufferDesc{name: name, dynamic: true})
	h := Handle{kind: KindBuffer, id: id}
	b.g.names[name] = h
	return h
}

// MakeComputePass declares a compute pass with its resource usages.
func (b *Builder) MakeComputePass(name string, callback func(), usages map[Handle]ResourceUsage) {
	b.g.passes = append(b.g.passes, Pass{Name: name, Kind: passCompute, Callback: callback, Usages: usages})
}

// MakeRenderPass declares a render pass with color/depth targets and
// resource usages.
func (b *Builder) MakeRenderPass(name string, callback func(), colorTargets []Handle, depthStencil *Handle, usages map[Handle]ResourceUsage) {
	b.g.passes = append(b.g.passes, Pass{
		Name: name, Kind: passRender, Callback: callback, Usages: usages,
		ColorTargets: colorTargets, DepthStencil: depthStencil,
	})
}

// Barrier describes a transition the execution phase must insert
// before a pass touches a resource.
type Barrier struct {
	Handle Handle
	Reason string
}

// NeedsBarrier reports whether moving from prev usage to next usage on
// a resource of the given kind requires a barrier, per spec.md §4.M:
// read-read is barrier-free (compatible, pipeline stages simply
// expand); anything touching a write on either side needs one, as does
// an image layout mismatch — approximated here by any usage of a
// KindImage resource whose Access differs (layout in the Vulkan design
// tracks the same information the OpenGL lowering folds into Access).
func NeedsBarrier(kind ResourceKind, prev, next ResourceUsage) bool {
	if next.Discard {
		return false
	}
	if prev.Access == AccessRead && next.Access == AccessRead {
		return false
	}
	return true
}

// Execution walks declared passes in declaration order, computing and
// returning the barriers needed before each pass runs, then invoking
// the pass's callback — spec.md's "runner begins commands, emits
// barriers... for render passes vkCmdBeginRendering/EndRendering wrap
// the callback" lowered to a plain ordered call since GL has no
// separate command-buffer-begin step.
type Execution struct {
	g        *Graph
	Barriers [][]Barrier // one slice per pass, in declaration order
}

// Execute runs every declared pass in order, computing barriers from
// each resource's last recorded usage, applying the emitted GL memory
// barrier via emitBarrier, then calling the pass's callback. Swaps
// double-buffered image handles exactly once, at the start.
func (g *Graph) Execute(emitBarrier func(Barrier)) *Execution {
	for i := range g.images {
		// Only the "combined" descriptor (current != prev) represents a
		// double-buffered pair; the two backing slot descriptors it
		// points at have doubleBuffered set but current==prev==0 and
		// are not themselves swapped.
		if g.images[i].doubleBuffered && g.images[i].current != g.images[i].prev {
			g.images[i].current, g.images[i].prev = g.images[i].prev, g.images[i].current
		}
	}

	exec := &Execution{g: g}
	for _, pass := range g.passes {
		var barriers []Barrier
		for h, usage := range pass.Usages {
			kind := KindBuffer
			if h.kind == KindImage {
				kind = KindImage
			}
			prev, known := g.touched[h]
			if known && NeedsBarrier(kind, prev.usage, usage) {
				barrier := Barrier{Handle: h, Reason: barrierReason(prev.usage, usage)}
				barriers = append(barriers, barrier)
				if emitBarrier != nil {
					emitBarrier(barrier)
				}
			}
			g.touched[h] = lastTouch{usage: usage, kind: kind}
		}
		exec.Barriers = append(exec.Barriers, barriers)
		if pass.Callback != nil {
			pass.Callback()
		}
	}
	return exec
}

func barrierReason(prev, next ResourceUsage) string {
	switch {
	case prev.Access == AccessWrite && next.Access == AccessWrite:
		return "write-write"
	case prev.Access == AccessWrite || next.Access == AccessWrite:
		return "read-write"
	default:
		return "layout"
	}
}
