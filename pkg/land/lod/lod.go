// Package lod implements the land subsystem's LOD controller: points of
// interest, superchunk engagement, and the per-chunk control-block state
// machine that decides when a chunk should load, split into finer
// children, or collapse back to a coarser one.
//
// Grounded on spec.md §4.J's controller half. The teacher has no LOD
// concept of its own (it streams whole chunks at a fixed size), so the
// state machine and seam pass are new construction in the teacher's
// map-plus-mutex idiom (pkg/game.ChunkManager's chunks map guarded by a
// RWMutex), generalized to a per-chunk control block instead of a flat
// chunk map.
package lod

import (
	"math"
	"sync"

	"github.com/svenny-voxen/voxen-go/pkg/land/tree"
)

// ChunkSize mirrors storage.ChunkSize without importing it, avoiding a
// dependency cycle between lod and storage (neither needs the other's
// types, only the constant).
const ChunkSize = 32

// MaxLod is the coarsest LOD the controller will ever hold a chunk at;
// superchunks are sized to it.
const MaxLod = 8

// Tuning constants from spec.md §4.J.
const (
	MaxPOIAge             = 300 // ticks
	SuperchunkEngageRadius = float64(ChunkSize) * (1 << MaxLod) * 1.5
	SuperchunkMaxIdleAge   = 600 // ticks

	targetAngularDiameterDeg = 50.0
	pseudoRadiusFactor       = 1.4
)

// POI is one point of interest (typically a player or camera) the
// controller uses to decide desired LOD and superchunk engagement.
type POI struct {
	ID       uint64
	X, Y, Z  float64
	lastSeen uint64 // tick
}

// ChunkState is where a chunk sits in the Loading/Standby/Active state
// machine.
type ChunkState int

const (
	Loading ChunkState = iota
	Standby
	Active
)

func (s ChunkState) String() string {
	switch s {
	case Loading:
		return "Loading"
	case Standby:
		return "Standby"
	case Active:
		return "Active"
	default:
		return "Unknown"
	}
}

// ControlBlock is the per-chunk bookkeeping the controller attaches to
// every tracked chunk key, matching spec.md's "control block" (state
// plus flags).
type ControlBlock struct {
	Key    tree.ChunkKey
	State  ChunkState
	Loaded bool // async load result has arrived

	OverActive       bool // this node has live children though it is conceptually active
	ChunkCopied      bool
	ChunkChanged     bool
	InducedSeamDirty bool
	Surfaceless      bool // true once this chunk is known to contribute no surface to any seam

	lastTouchedTick uint64
}

// Controller owns the POI set, superchunk engagement, and the per-chunk
// control-block tree for one world.
type Controller struct {
	mu sync.Mutex

	tick uint64
	pois map[uint64]*POI

	superchunks map[tree.ChunkKey]*superchunk
	blocks      map[tree.ChunkKey]*ControlBlock

	// RebuildFaceSeam/RebuildEdgeSeam are called by the seam pass's
	// Phase 2 (seam.go) once it reaches a leaf active chunk whose
	// induced_seam_dirty flag survived propagation — the controller's
	// seam bookkeeping tells the caller which chunks' seam surfaces need
	// rebuilding, but actually rebuilding them is pkg/land/pseudo's job,
	// not this package's, so it's left as a caller-supplied hook rather
	// than an import cycle back into pseudo. Left nil, both are no-ops.
	RebuildFaceSeam func(axis int, self, neighbor tree.ChunkKey)
	RebuildEdgeSeam func(axis int, self, n1, n2, n3 tree.ChunkKey)
}

type superchunk struct {
	key        tree.ChunkKey
	engaged    bool
	lastActive uint64
}

// NewController creates an empty controller.
func NewController() *Controller {
	return &Controller{
		pois:        make(map[uint64]*POI),
		superchunks: make(map[tree.ChunkKey]*superchunk),
		blocks:      make(map[tree.ChunkKey]*ControlBlock),
	}
}

// UpsertPOI registers or refreshes a point of interest's position and
// marks it seen on the current tick.
func (c *Controller) UpsertPOI(id uint64, x, y, z float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.pois[id]
	if !ok {
		p = &POI{ID: id}
		c.pois[id] = p
	}
	p.X, p.Y, p.Z = x, y, z
	p.lastSeen = c.tick
}

// Tick advances the controller's clock by one, evicting idle POIs and
// unloading idle superchunks. Returns the new tick value.
func (c *Controller) Tick() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tick++

	for id, p := range c.pois {
		if c.tick-p.lastSeen > MaxPOIAge {
			delete(c.pois, id)
		}
	}

	c.updateSuperchunkEngagement()

	for key, sc := range c.superchunks {
		if !sc.engaged && c.tick-sc.lastActive > SuperchunkMaxIdleAge {
			delete(c.superchunks, key)
			c.unloadSubtree(key)
		}
	}

	for key := range c.superchunks {
		c.runSeamPassLocked(key)
	}
	c.updateCrossSuperchunkSeamsLocked()

	return c.tick
}

func superchunkCenter(key tree.ChunkKey) (float64, float64, float64) {
	side := float64(ChunkSize) * math.Exp2(float64(key.Lod))
	return (float64(key.X) + 0.5) * side, (float64(key.Y) + 0.5) * side, (float64(key.Z) + 0.5) * side
}

func (c *Controller) updateSuperchunkEngagement() {
	for _, sc := range c.superchunks {
		cx, cy, cz := superchunkCenter(sc.key)
		sc.engaged = false
		for _, p := range c.pois {
			dx, dy, dz := p.X-cx, p.Y-cy, p.Z-cz
			if math.Sqrt(dx*dx+dy*dy+dz*dz) <= SuperchunkEngageRadius {
				sc.engaged = true
				sc.lastActive = c.tick
				break
			}
		}
	}

	// A POI may have entered a superchunk that doesn't exist yet.
	for _, p := range c.pois {
		key := superchunkKeyFor(p.X, p.Y, p.Z)
		if _, ok := c.superchunks[key]; !ok {
			c.superchunks[key] = &superchunk{key: key, engaged: true, lastActive: c.tick}
		}
	}
}

func superchunkKeyFor(x, y, z float64) tree.ChunkKey {
	side := float64(ChunkSize) * math.Exp2(float64(MaxLod))
	return tree.ChunkKey{
		X:   int32(math.Floor(x / side)),
		Y:   int32(math.Floor(y / side)),
		Z:   int32(math.Floor(z / side)),
		Lod: MaxLod,
	}
}

func (c *Controller) unloadSubtree(root tree.ChunkKey) {
	delete(c.blocks, root)
	if root.Lod == 0 {
		return
	}
	for octant := 0; octant < 8; octant++ {
		c.unloadSubtree(root.Child(octant))
	}
}

// DesiredLod computes, for a candidate chunk position, the LOD the
// controller wants it at given the current POI set: the max over every
// POI of floor(log2(distance*tan(phi/2) / (pseudoRadiusFactor*chunkSize))),
// per spec.md §4.J's angular-diameter formula. Returns 0 if there are no
// POIs (closest possible detail by default).
func (c *Controller) DesiredLod(x, y, z float64) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.pois) == 0 {
		return 0
	}

	halfAngle := targetAngularDiameterDeg / 2 * math.Pi / 180
	tanHalf := math.Tan(halfAngle)

	best := 0
	for _, p := range c.pois {
		dx, dy, dz := x-p.X, y-p.Y, z-p.Z
		dist := math.Sqrt(dx*dx + dy*dy + dz*dz)
		if dist < 1e-6 {
			continue
		}
		arg := dist * tanHalf / (pseudoRadiusFactor * float64(ChunkSize))
		if arg < 1 {
			continue // LOD would be negative; floor at 0
		}
		lod := int(math.Floor(math.Log2(arg)))
		if lod > best {
			best = lod
		}
	}
	if best > MaxLod {
		best = MaxLod
	}
	return best
}

// Block returns the control block for key, creating it in state Loading
// if this is the first time it's been touched.
func (c *Controller) Block(key tree.ChunkKey) *ControlBlock {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.blockLocked(key)
}

func (c *Controller) blockLocked(key tree.ChunkKey) *ControlBlock {
	b, ok := c.blocks[key]
	if !ok {
		b = &ControlBlock{Key: key, State: Loading, lastTouchedTick: c.tick}
		c.blocks[key] = b
	}
	return b
}

// MarkLoaded transitions a Loading chunk to Standby once its async load
// result has arrived, per spec.md §4.J's per-tick recursive walk, and
// marks it chunk_changed so the next seam pass (seam.go) considers it
// when propagating induced_seam_dirty upward.
func (c *Controller) MarkLoaded(key tree.ChunkKey) {
	c.mu.Lock()
	defer c.mu.Unlock()
	b := c.blockLocked(key)
	if b.State == Loading {
		b.Loaded = true
		b.State = Standby
		b.ChunkChanged = true
	}
}

// childrenActive reports whether all 8 children of key exist and are in
// Active state.
func (c *Controller) childrenActive(key tree.ChunkKey) bool {
	if key.Lod == 0 {
		return false
	}
	for octant := 0; octant < 8; octant++ {
		child, ok := c.blocks[key.Child(octant)]
		if !ok || child.State != Active {
			return false
		}
	}
	return true
}

// UpdateNode runs one tick's worth of the Loading/Standby/Active
// transition logic for key, given the LOD the controller currently
// wants there (from DesiredLod). It does not recurse into children
// itself — callers walk the superchunk tree top-down or bottom-up as
// needed and call UpdateNode once per visited key, matching the spec's
// "recursively walks superchunks" description while keeping the walk
// order a caller concern rather than baked into the state machine.
func (c *Controller) UpdateNode(key tree.ChunkKey, desiredLod int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	b := c.blockLocked(key)
	b.lastTouchedTick = c.tick

	switch b.State {
	case Loading:
		// Nothing to do here until MarkLoaded fires; generation is async.

	case Standby:
		if c.childrenActive(key) && desiredLod >= int(key.Lod) {
			// All children active and none of them want finer detail:
			// collapse this subtree back to a single Active chunk.
			for octant := 0; octant < 8; octant++ {
				c.unloadSubtree(key.Child(octant))
			}
			b.State = Active
			b.OverActive = false
		} else if !c.childrenActive(key) && desiredLod >= int(key.Lod) {
			// No children materialized and none expected soon: this
			// node itself can go Active directly.
			b.State = Active
		}

	case Active:
		if desiredLod < int(key.Lod) && key.Lod > 0 {
			b.State = Standby
			b.OverActive = true
			for octant := 0; octant < 8; octant++ {
				c.blockLocked(key.Child(octant))
			}
		}
	}
}
