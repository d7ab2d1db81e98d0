package openglhelper

import "github.com/go-gl/gl/v4.6-core/gl"

// PseudoSurfaceVAO is a vertex array object laid out for
// pkg/land/pseudo.Vertex.Pack's packed 16-byte format: one interleaved
// buffer, stride 16, position as 3 unsigned shorts (word0's two halves
// plus word1's low half), packed normal as one unsigned short (word2's
// low half), packed albedo as one unsigned int (word3). The reserved
// high halves of word1 and word2 are skipped rather than bound to an
// attribute.
type PseudoSurfaceVAO struct {
	vao *VertexArrayObject
}

const pseudoSurfaceVertexStride = 16

// NewPseudoSurfaceVAO builds a VAO over vertexBuf (packed Vertex data,
// stride 16) and indexBuf (Triangle indices, uint32), ready for
// MultiDrawElementsIndirect once the mesh streamer (pkg/gfx/mesh) has
// uploaded a size class's region into vertexBuf.
func NewPseudoSurfaceVAO(vertexBuf, indexBuf *BufferObject) *PseudoSurfaceVAO {
	vao := NewVAO()
	vao.Bind()

	vertexBuf.Bind()
	gl.VertexAttribIPointer(0, 3, gl.UNSIGNED_SHORT, pseudoSurfaceVertexStride, gl.PtrOffset(0))
	gl.EnableVertexAttribArray(0)
	gl.VertexAttribIPointer(1, 1, gl.UNSIGNED_SHORT, pseudoSurfaceVertexStride, gl.PtrOffset(8))
	gl.EnableVertexAttribArray(1)
	gl.VertexAttribIPointer(2, 1, gl.UNSIGNED_INT, pseudoSurfaceVertexStride, gl.PtrOffset(12))
	gl.EnableVertexAttribArray(2)

	indexBuf.Bind()

	vao.Unbind()

	return &PseudoSurfaceVAO{vao: vao}
}

// Bind activates the VAO for a subsequent draw call.
func (p *PseudoSurfaceVAO) Bind() { p.vao.Bind() }

// Delete releases the VAO. The backing buffers belong to whoever created
// them (the mesh streamer's backend), not the VAO, and are left alone.
func (p *PseudoSurfaceVAO) Delete() { p.vao.Delete() }
