// Package record wraps one residual function as a differentiable function
// record: a tape built once from the user callback, frozen into an
// evaluation program, and optionally persisted to an on-disk model cache.
//
// Cache artifact layout (.tape files):
//
//	magic "TAPE" (4 bytes)
//	format version (uint32, little endian)
//	header length  (uint32, little endian)
//	header JSON
//	program payload (nodes then output indices, little endian)
//	SHA-256 checksum of everything above (32 bytes)
package record

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"math"
	"time"

	"github.com/tapecost-ml/tapecost/internal/ad"
)

// Format constants.
const (
	MagicBytes    = "TAPE"
	FormatVersion = 1
	ChecksumSize  = 32

	// FileExt is the extension of persisted model artifacts.
	FileExt = ".tape"
)

// nodeSize is the on-disk size of one encoded program node:
// op (1) + a (4) + b (4) + k (8).
const nodeSize = 17

// Header is the JSON header of a .tape artifact. It carries everything
// needed to reject an incompatible artifact before touching the payload.
type Header struct {
	FormatVersion int       `json:"format_version"`
	Name          string    `json:"name"`        // model name the artifact was compiled under
	InputDim      int       `json:"input_dim"`   // independent variables, [t, x, (u), p]
	OutputDim     int       `json:"output_dim"`  // residual dimension
	Fingerprint   string    `json:"fingerprint"` // content hash of the taped computation
	CreatedAt     time.Time `json:"created_at"`
}

// encodePayload serializes the program body (without header) to bytes.
func encodePayload(p *ad.Program) []byte {
	buf := make([]byte, 0, len(p.Nodes)*nodeSize+len(p.Out)*4)
	var scratch [8]byte
	for _, n := range p.Nodes {
		buf = append(buf, byte(n.Op))
		binary.LittleEndian.PutUint32(scratch[:4], uint32(n.A))
		buf = append(buf, scratch[:4]...)
		binary.LittleEndian.PutUint32(scratch[:4], uint32(n.B))
		buf = append(buf, scratch[:4]...)
		binary.LittleEndian.PutUint64(scratch[:], math.Float64bits(n.K))
		buf = append(buf, scratch[:]...)
	}
	for _, o := range p.Out {
		binary.LittleEndian.PutUint32(scratch[:4], uint32(o))
		buf = append(buf, scratch[:4]...)
	}
	return buf
}

// decodePayload reconstructs a program body from bytes.
func decodePayload(buf []byte, numIn, numNodes, numOut int) (*ad.Program, error) {
	if len(buf) != numNodes*nodeSize+numOut*4 {
		return nil, ErrTruncatedPayload
	}
	p := &ad.Program{
		NumIn: numIn,
		Nodes: make([]ad.Node, numNodes),
		Out:   make([]int32, numOut),
	}
	off := 0
	for i := range p.Nodes {
		p.Nodes[i] = ad.Node{
			Op: ad.Op(buf[off]),
			A:  int32(binary.LittleEndian.Uint32(buf[off+1 : off+5])),
			B:  int32(binary.LittleEndian.Uint32(buf[off+5 : off+9])),
			K:  math.Float64frombits(binary.LittleEndian.Uint64(buf[off+9 : off+17])),
		}
		off += nodeSize
	}
	for i := range p.Out {
		p.Out[i] = int32(binary.LittleEndian.Uint32(buf[off : off+4]))
		off += 4
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// Fingerprint returns the content hash of a program: SHA-256 over the
// encoded payload and the input dimension. Two residual specifications
// produce the same fingerprint iff they taped to the same computation.
func Fingerprint(p *ad.Program) string {
	h := sha256.New()
	var dims [8]byte
	binary.LittleEndian.PutUint32(dims[:4], uint32(p.NumIn))
	binary.LittleEndian.PutUint32(dims[4:], uint32(len(p.Out)))
	h.Write(dims[:])
	h.Write(encodePayload(p))
	return hex.EncodeToString(h.Sum(nil))
}
