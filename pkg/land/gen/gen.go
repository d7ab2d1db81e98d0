// Package gen implements the land subsystem's procedural generator:
// deterministic per-seed global/regional maps and per-chunk voxel fill,
// scheduled through the task service so callers never block on it.
//
// Grounded on spec.md §4.J's generator half, generalized from the
// teacher's deterministic per-chunk procedural fill
// (`pkg/game/chunk_manager.go`'s mono-chunk path, which always produces
// the same block type for a given chunk) into a seeded heightmap.
package gen

import (
	"math"
	"sync"

	"github.com/svenny-voxen/voxen-go/internal/verr"
	"github.com/svenny-voxen/voxen-go/pkg/land/pseudo"
	"github.com/svenny-voxen/voxen-go/pkg/land/storage"
	"github.com/svenny-voxen/voxen-go/pkg/land/tree"
	"github.com/svenny-voxen/voxen-go/pkg/svc/task"
)

// MaxGeneratableLod bounds GeneratePseudoChunk, matching spec.md §4.J.
const MaxGeneratableLod = 12

// Point is one global-map grid cell: a coarse description of terrain
// character sampled before any chunk has been generated there.
type Point struct {
	Height      float32
	Temperature float32
	Variance    float32
}

// deriveSubSeed mixes seed with a domain tag the way the original
// derives independent sub-seeds for the global map, regional maps, and
// local noise from one world seed — grounded on the splitmix64 mixing
// step already used for hash-trie keys in pkg/v8g's tests, now promoted
// to production code since the generator needs the same
// avalanche-on-every-bit property for seed derivation.
func deriveSubSeed(seed uint64, tag uint64) uint64 {
	z := seed + tag + 0x9E3779B97F4A7C15
	z = (z ^ (z >> 30)) * 0xBF58476D1CE4E5B9
	z = (z ^ (z >> 27)) * 0x94D049BB133111EB
	return z ^ (z >> 31)
}

const (
	tagGlobalMap uint64 = iota + 1
	tagRegional
	tagLocalNoise
)

// valueNoise2D is a deterministic hash-based value noise, standing in
// for the original's Perlin/Simplex field: no noise library appears
// anywhere in the retrieved example pack (DESIGN.md records this), and
// a hash-based value noise needs nothing beyond a good integer mixer,
// which deriveSubSeed already is.
func valueNoise2D(seed uint64, x, z int32) float32 {
	h := deriveSubSeed(seed, uint64(uint32(x))<<32|uint64(uint32(z)))
	return float32(h>>11) / float32(1<<53)
}

// smoothNoise2D samples valueNoise2D at integer lattice points around
// (x, z) scaled by 1/period and bilinearly interpolates, giving
// continuous terrain instead of per-block white noise.
func smoothNoise2D(seed uint64, x, z float64, period float64) float32 {
	fx, fz := x/period, z/period
	x0, z0 := math.Floor(fx), math.Floor(fz)
	tx, tz := fx-x0, fz-z0

	v00 := valueNoise2D(seed, int32(x0), int32(z0))
	v10 := valueNoise2D(seed, int32(x0)+1, int32(z0))
	v01 := valueNoise2D(seed, int32(x0), int32(z0)+1)
	v11 := valueNoise2D(seed, int32(x0)+1, int32(z0)+1)

	sx := smoothstep(tx)
	sz := smoothstep(tz)
	a := lerp(v00, v10, sx)
	b := lerp(v01, v11, sx)
	return lerp(a, b, sz)
}

func smoothstep(t float64) float64 { return t * t * (3 - 2*t) }
func lerp(a, b float32, t float64) float32 { return a + float32(t)*(b-a) }

// Generator produces global maps and chunk content for one seeded
// world. EnqueueGenerate/PrepareKeyGeneration hand out task-service
// counters so callers wait without blocking a worker.
type Generator struct {
	seed       uint64
	globalSeed uint64
	svc        *task.Service

	mu        sync.RWMutex
	globalMap map[[2]int32]Point
	ready     bool
}

// NewGenerator creates a generator for seed, scheduling its async work
// on svc.
func NewGenerator(seed uint64, svc *task.Service) *Generator {
	return &Generator{
		seed:       seed,
		globalSeed: deriveSubSeed(seed, tagGlobalMap),
		svc:        svc,
		globalMap:  make(map[[2]int32]Point),
	}
}

// regionSize is the edge length, in chunks, of one global-map grid cell.
const regionSize = 16

func regionOf(key tree.ChunkKey) [2]int32 {
	return [2]int32{key.X / regionSize, key.Z / regionSize}
}

// EnqueueGenerate schedules the async task that materializes this
// generator's global map, returning the task's completion counter.
// Regional maps are derived lazily from it inside PrepareKeyGeneration,
// matching the spec's "derives... regional maps on demand".
func (g *Generator) EnqueueGenerate(b *task.Builder) uint64 {
	return b.Enqueue(func(ctx *task.Context) {
		g.mu.Lock()
		g.ready = true
		g.mu.Unlock()
	})
}

// PrepareKeyGeneration returns a counter that completes once the
// region backing key is ready for GenerateChunk/GeneratePseudoChunk.
// Regional data is derived (not generated from scratch) the first time
// a key in that region is requested.
func (g *Generator) PrepareKeyGeneration(key tree.ChunkKey, b *task.Builder) uint64 {
	region := regionOf(key)
	return b.Enqueue(func(ctx *task.Context) {
		g.ensureRegion(region)
	})
}

func (g *Generator) ensureRegion(region [2]int32) Point {
	g.mu.RLock()
	p, ok := g.globalMap[region]
	g.mu.RUnlock()
	if ok {
		return p
	}

	regionSeed := deriveSubSeed(g.globalSeed, uint64(uint32(region[0]))<<32|uint64(uint32(region[1])))
	p = Point{
		Height:      valueNoise2D(regionSeed, region[0], region[1])*2 - 1,
		Temperature: valueNoise2D(regionSeed, region[1], region[0]),
		Variance:    valueNoise2D(regionSeed, region[0]+region[1], region[0]-region[1]),
	}

	g.mu.Lock()
	g.globalMap[region] = p
	g.mu.Unlock()
	return p
}

// GenerateChunk fills a LOD0 chunk's voxel storage procedurally. key
// must have Lod == 0.
func (g *Generator) GenerateChunk(key tree.ChunkKey) (*storage.CompressedChunkStorage[uint16], error) {
	if key.Lod != 0 {
		return nil, verr.Wrapf(verr.ErrInvalidArgument, "land/gen: GenerateChunk requires LOD 0, got %d", key.Lod)
	}

	region := g.ensureRegion(regionOf(key))
	localSeed := deriveSubSeed(g.seed, tagLocalNoise)

	originX := key.X * storage.ChunkSize
	originY := key.Y * storage.ChunkSize
	originZ := key.Z * storage.ChunkSize

	var arr storage.CubeArray[uint16]
	view := arr.View()

	for lx := 0; lx < storage.ChunkSize; lx++ {
		for lz := 0; lz < storage.ChunkSize; lz++ {
			wx := float64(originX + int32(lx))
			wz := float64(originZ + int32(lz))
			heightF := heightAt(region, localSeed, wx, wz)

			for ly := 0; ly < storage.ChunkSize; ly++ {
				wy := float64(originY + int32(ly))
				view.Set(ly, lx, lz, blockAt(wy, heightF))
			}
		}
	}

	return storage.NewCompressedChunkStorage[uint16](view), nil
}

// heightAt evaluates the same terrain heightmap GenerateChunk fills
// from, at an arbitrary world (x,z) and noise seed — shared with
// GeneratePseudoChunk so coarser LODs sample the identical surface
// rather than drifting from what LOD0 would have produced there.
func heightAt(region Point, localSeed uint64, wx, wz float64) float64 {
	n := smoothNoise2D(localSeed, wx, wz, 48)
	return float64(region.Height)*24 + float64(n)*16 + 48
}

func blockAt(wy, heightF float64) uint16 {
	if wy >= heightF {
		return 0
	}
	if wy > heightF-1 {
		return 2 // surface layer
	}
	return 1 // solid
}

// GeneratePseudoChunk produces a pseudo-chunk face set for key directly
// from the heightmap, at key's LOD resolution (one pseudo-chunk cell
// covers 2^Lod LOD0 voxels) rather than by recursively generating and
// aggregating 8 LOD(n-1) children — cheaper for a procedurally-defined
// field, since the heightmap can be resampled at any resolution
// directly. pkg/land/pseudo.Aggregate remains the path a modified chunk
// (one that has diverged from pure procedural generation) must take,
// since its LOD0 data no longer matches what this shortcut would
// produce. key.Lod must be in [1, MaxGeneratableLod].
func (g *Generator) GeneratePseudoChunk(key tree.ChunkKey) ([]pseudo.Face, error) {
	if key.Lod < 1 || key.Lod > MaxGeneratableLod {
		return nil, verr.Wrapf(verr.ErrInvalidArgument, "land/gen: GeneratePseudoChunk requires 1<=Lod<=%d, got %d", MaxGeneratableLod, key.Lod)
	}

	region := g.ensureRegion(regionOf(key))
	localSeed := deriveSubSeed(g.seed, tagLocalNoise)
	cellVoxels := int32(1) << key.Lod

	originX := key.X * storage.ChunkSize * cellVoxels
	originY := key.Y * storage.ChunkSize * cellVoxels
	originZ := key.Z * storage.ChunkSize * cellVoxels

	var expanded [34][34][34]uint16
	for cy := -1; cy <= storage.ChunkSize; cy++ {
		for cx := -1; cx <= storage.ChunkSize; cx++ {
			for cz := -1; cz <= storage.ChunkSize; cz++ {
				wx := float64(originX + int32(cx)*cellVoxels)
				wy := float64(originY + int32(cy)*cellVoxels)
				wz := float64(originZ + int32(cz)*cellVoxels)
				heightF := heightAt(region, localSeed, wx, wz)
				expanded[cy+1][cx+1][cz+1] = blockAt(wy, heightF)
			}
		}
	}

	return pseudo.ExtractFaces(expanded), nil
}
