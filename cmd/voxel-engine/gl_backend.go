package main

import (
	"unsafe"

	"github.com/go-gl/gl/v4.6-core/gl"

	"openglhelper"

	"github.com/svenny-voxen/voxen-go/internal/verr"
	"github.com/svenny-voxen/voxen-go/pkg/gfx/frame"
)

// glBufferBackend implements pkg/gfx/frame.Backend directly on
// internal/openglhelper's BufferObject: Scratch regions are plain
// GL_DYNAMIC_DRAW buffers, Upload regions are persistently mapped per
// openglhelper.NewPersistentBuffer, the same primitive the teacher's
// TripleBuffer built its fixed three-region rotation on.
type glBufferBackend struct{}

func (glBufferBackend) CreateBuffer(kind frame.BufferKind, sizeBytes int) (any, []byte) {
	switch kind {
	case frame.Upload:
		bo, err := openglhelper.NewPersistentBuffer(gl.ARRAY_BUFFER, sizeBytes, false, true)
		if err != nil {
			panic(verr.Wrapf(verr.ErrExternalLibFailure, "glBufferBackend: creating upload region of %d bytes", sizeBytes))
		}
		mapped := unsafe.Slice((*byte)(bo.GetMappedPointer()), sizeBytes)
		return bo, mapped
	default: // frame.Scratch
		bo := openglhelper.NewBufferObject(gl.ARRAY_BUFFER, sizeBytes, nil, openglhelper.DynamicDraw)
		return bo, nil
	}
}

func (glBufferBackend) DestroyBuffer(handle any) {
	handle.(*openglhelper.BufferObject).Delete()
}

// meshGLBackend implements pkg/gfx/mesh.Backend on top of one growable,
// persistently mapped buffer per size class. The backing buffer only ever
// grows, doubling and copying forward when an upload lands past its end;
// a defragmentation pass in pkg/gfx/mesh lowers the streamer's
// pool.nextOffset but leaves the buffer's size unchanged.
type meshGLBackend struct {
	buffers map[int]*growableBuffer
}

type growableBuffer struct {
	bo     *openglhelper.BufferObject
	mapped []byte
	vao    *openglhelper.PseudoSurfaceVAO
}

// meshBackendInitialRegions sizes a size class's first buffer to hold a
// handful of regions before the first grow, so a class with few meshes
// doesn't pay for a grow on every AddMesh call.
const meshBackendInitialRegions = 4

func newMeshGLBackend() *meshGLBackend {
	return &meshGLBackend{buffers: make(map[int]*growableBuffer)}
}

func (m *meshGLBackend) Upload(sizeClass, offset int, data []byte) {
	need := offset + len(data)
	gb, ok := m.buffers[sizeClass]
	if !ok || need > len(gb.mapped) {
		gb = m.grow(sizeClass, gb, need)
	}
	copy(gb.mapped[offset:], data)
}

func (m *meshGLBackend) grow(sizeClass int, old *growableBuffer, need int) *growableBuffer {
	capacity := sizeClass * meshBackendInitialRegions
	if old != nil {
		capacity = len(old.mapped) * 2
	}
	for capacity < need {
		capacity *= 2
	}

	bo, err := openglhelper.NewPersistentBuffer(gl.ARRAY_BUFFER, capacity, false, true)
	if err != nil {
		panic(verr.Wrapf(verr.ErrExternalLibFailure, "meshGLBackend: growing size class %d to %d bytes", sizeClass, capacity))
	}
	mapped := unsafe.Slice((*byte)(bo.GetMappedPointer()), capacity)

	if old != nil {
		copy(mapped, old.mapped)
		old.vao.Delete()
		old.bo.Delete()
	}

	// The size class's mesh data and its triangle indices share this one
	// buffer (the streamer concatenates VertexData then IndexData per
	// key), so the same object is bound as both the vertex and element
	// array buffer; draw calls carry the per-mesh byte offsets QueryMesh
	// and AddMesh track.
	gb := &growableBuffer{bo: bo, mapped: mapped, vao: openglhelper.NewPseudoSurfaceVAO(bo, bo)}
	m.buffers[sizeClass] = gb
	return gb
}
