package gen

import (
	"testing"

	"github.com/svenny-voxen/voxen-go/pkg/land/storage"
	"github.com/svenny-voxen/voxen-go/pkg/land/tree"
	"github.com/svenny-voxen/voxen-go/pkg/svc/task"
)

func TestGenerateChunkIsDeterministic(t *testing.T) {
	svc := task.New(2)
	defer svc.Close()

	g := NewGenerator(12345, svc)
	key := tree.ChunkKey{X: 3, Y: 0, Z: -2, Lod: 0}

	a, err := g.GenerateChunk(key)
	if err != nil {
		t.Fatal(err)
	}
	b, err := g.GenerateChunk(key)
	if err != nil {
		t.Fatal(err)
	}

	for y := 0; y < storage.ChunkSize; y++ {
		for x := 0; x < storage.ChunkSize; x++ {
			for z := 0; z < storage.ChunkSize; z++ {
				if a.Load(y, x, z) != b.Load(y, x, z) {
					t.Fatalf("GenerateChunk not deterministic at (%d,%d,%d)", y, x, z)
				}
			}
		}
	}
}

func TestGenerateChunkRejectsNonZeroLod(t *testing.T) {
	svc := task.New(1)
	defer svc.Close()

	g := NewGenerator(1, svc)
	if _, err := g.GenerateChunk(tree.ChunkKey{Lod: 1}); err == nil {
		t.Fatal("expected an error for LOD != 0")
	}
}

func TestGeneratePseudoChunkRejectsLodOutOfRange(t *testing.T) {
	svc := task.New(1)
	defer svc.Close()

	g := NewGenerator(1, svc)
	if _, err := g.GeneratePseudoChunk(tree.ChunkKey{Lod: 0}); err == nil {
		t.Fatal("expected an error for LOD 0")
	}
	if _, err := g.GeneratePseudoChunk(tree.ChunkKey{Lod: MaxGeneratableLod + 1}); err == nil {
		t.Fatal("expected an error for LOD above MaxGeneratableLod")
	}
}

func TestGeneratePseudoChunkIsDeterministicAndNonEmpty(t *testing.T) {
	svc := task.New(2)
	defer svc.Close()

	g := NewGenerator(99, svc)
	key := tree.ChunkKey{X: 1, Y: 0, Z: 1, Lod: 3}

	a, err := g.GeneratePseudoChunk(key)
	if err != nil {
		t.Fatal(err)
	}
	b, err := g.GeneratePseudoChunk(key)
	if err != nil {
		t.Fatal(err)
	}

	if len(a) == 0 {
		t.Fatal("expected terrain at this key to produce at least one face")
	}
	if len(a) != len(b) {
		t.Fatalf("expected deterministic face count, got %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("expected deterministic face at index %d, got %+v vs %+v", i, a[i], b[i])
		}
	}
}

func TestEnqueueGenerateAndPrepareKeyGenerationComplete(t *testing.T) {
	svc := task.New(2)
	defer svc.Close()

	g := NewGenerator(7, svc)

	b1 := svc.NewBuilder()
	genCounter := g.EnqueueGenerate(b1)

	b2 := svc.NewBuilder()
	b2.AddWait(genCounter)
	keyCounter := g.PrepareKeyGeneration(tree.ChunkKey{Lod: 0}, b2)

	svc.Wait(keyCounter)

	if _, err := g.GenerateChunk(tree.ChunkKey{Lod: 0}); err != nil {
		t.Fatalf("GenerateChunk after PrepareKeyGeneration should succeed, got %v", err)
	}
}
