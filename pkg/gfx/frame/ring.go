package frame

import "github.com/svenny-voxen/voxen-go/pkg/gfx/device"

// Context is one ring slot's per-tick state: its command recorder and
// its Scratch/Upload transient pools. Descriptor placeholders (spec.md's
// "temporary descriptor placeholders") have no OpenGL analogue — GL has
// no descriptor-set concept — so this lowering omits that field rather
// than faking one, matching spec.md §9's "drop Vulkan-only vocabulary
// with no OpenGL equivalent" design note.
type Context struct {
	Commands *CommandAllocator
	Scratch  *TransientBufferAllocator
	Upload   *TransientBufferAllocator

	queue      device.Queue
	lastTick   uint64
	hasSubmitted bool
}

// Ring cycles through MaxPendingFrames Contexts, one per in-flight
// tick, gating reuse of a slot on that slot's previous submission
// having completed on the GPU — spec.md §4.N's FrameContextRing.
type Ring struct {
	dev   *device.Device
	queue device.Queue
	slots []*Context
	next  int
}

// NewRing creates a ring of maxPendingFrames Contexts, each with its own
// command allocator and transient pools built from backend.
func NewRing(dev *device.Device, queue device.Queue, maxPendingFrames int, backend Backend, scratchMin, uploadMin, alignment int) *Ring {
	if maxPendingFrames < 1 {
		maxPendingFrames = 1
	}
	r := &Ring{dev: dev, queue: queue, slots: make([]*Context, maxPendingFrames)}
	for i := range r.slots {
		r.slots[i] = &Context{
			Commands: NewCommandAllocator(1),
			Scratch:  NewTransientBufferAllocator(Scratch, backend, scratchMin, alignment, maxPendingFrames),
			Upload:   NewTransientBufferAllocator(Upload, backend, uploadMin, alignment, maxPendingFrames),
			queue:    queue,
		}
	}
	return r
}

// Begin waits on the next slot's previous submission (if any), resets
// its command recorder and transient pools for the given tick, and
// returns it ready for recording.
func (r *Ring) Begin(tick uint64) *Context {
	c := r.slots[r.next]
	if c.hasSubmitted {
		r.dev.WaitForTimeline(c.queue, c.lastTick)
	}
	c.Commands.BeginTick()
	c.Scratch.BeginTick(tick)
	c.Upload.BeginTick(tick)
	return c
}

// SubmitAndAdvance flushes the current context's recorded commands,
// submits them on the ring's queue, records the resulting tick on the
// context for the next time this slot is reused, and advances the ring
// to the next slot.
func (r *Ring) SubmitAndAdvance() uint64 {
	c := r.slots[r.next]
	c.Commands.Flush()
	tick := r.dev.Submit(r.queue)
	c.lastTick = tick
	c.hasSubmitted = true

	r.next = (r.next + 1) % len(r.slots)
	return tick
}
