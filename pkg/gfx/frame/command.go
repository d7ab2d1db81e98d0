package frame

// Command is one deferred GL call recorded during a tick's build phase.
// Raw OpenGL has no command-buffer object to allocate the way Vulkan
// does, so "recording a command buffer" lowers to appending a closure
// to a slice that Flush replays in order at submit time — the
// immediate-mode equivalent of a recorded command list.
type Command func()

// CommandAllocator holds MaxPendingFrames slots of recorded commands,
// one slot active at a time, cycling once the GPU has finished the
// tick that slot was last used for. Grounded on the same "N in-flight
// copies, wait on the oldest before reusing it" shape as
// ChunkBufferManager's triple-buffered fence pool
// (pkg/render/chunkBufferManager.go), generalized from a fixed 3 to a
// configurable MaxPendingFrames.
type CommandAllocator struct {
	slots   [][]Command
	current int
}

// NewCommandAllocator creates an allocator with maxPendingFrames
// recording slots.
func NewCommandAllocator(maxPendingFrames int) *CommandAllocator {
	if maxPendingFrames < 1 {
		maxPendingFrames = 1
	}
	return &CommandAllocator{slots: make([][]Command, maxPendingFrames)}
}

// BeginTick resets the current slot's recorded commands (the caller is
// responsible for having already waited on that slot's previous
// completion fence — see Device.WaitForTimeline) and advances to it.
func (c *CommandAllocator) BeginTick() {
	c.current = (c.current + 1) % len(c.slots)
	c.slots[c.current] = c.slots[c.current][:0]
}

// Record appends cmd to the current tick's command slot.
func (c *CommandAllocator) Record(cmd Command) {
	c.slots[c.current] = append(c.slots[c.current], cmd)
}

// Flush runs every command recorded into the current slot, in order,
// and is the point at which the deferred closures actually touch GL.
func (c *CommandAllocator) Flush() {
	for _, cmd := range c.slots[c.current] {
		cmd()
	}
}

// Len reports how many commands are queued in the current slot, mainly
// for tests and diagnostics.
func (c *CommandAllocator) Len() int {
	return len(c.slots[c.current])
}
