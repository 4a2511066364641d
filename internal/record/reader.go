package record

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"

	"github.com/tapecost-ml/tapecost/internal/ad"
)

// readModel loads and verifies an artifact. Structural problems (magic,
// version, checksum, payload shape) surface as *LoadError; a missing file
// surfaces as the bare os error so callers can distinguish "absent" from
// "broken".
func readModel(path string) (Header, *ad.Program, error) {
	var hdr Header
	buf, err := os.ReadFile(path)
	if err != nil {
		return hdr, nil, err
	}
	if len(buf) < len(MagicBytes)+8+ChecksumSize {
		return hdr, nil, &LoadError{Path: path, Reason: "artifact too short"}
	}
	body, sum := buf[:len(buf)-ChecksumSize], buf[len(buf)-ChecksumSize:]
	if string(body[:4]) != MagicBytes {
		return hdr, nil, &LoadError{Path: path, Reason: "not a tape artifact", Err: ErrInvalidMagic}
	}
	want := sha256.Sum256(body)
	if subtle.ConstantTimeCompare(sum, want[:]) != 1 {
		return hdr, nil, &LoadError{Path: path, Reason: "bad checksum", Err: ErrChecksumMismatch}
	}
	version := binary.LittleEndian.Uint32(body[4:8])
	if version != FormatVersion {
		return hdr, nil, &LoadError{
			Path:   path,
			Reason: fmt.Sprintf("format version %d", version),
			Err:    ErrUnsupportedVersion,
		}
	}
	headerLen := int(binary.LittleEndian.Uint32(body[8:12]))
	if 12+headerLen > len(body) {
		return hdr, nil, &LoadError{Path: path, Reason: "header extends past artifact", Err: ErrTruncatedPayload}
	}
	if err := json.Unmarshal(body[12:12+headerLen], &hdr); err != nil {
		return hdr, nil, &LoadError{Path: path, Reason: "malformed header", Err: err}
	}

	payload := body[12+headerLen:]
	numOut := hdr.OutputDim
	if rem := len(payload) - numOut*4; rem < 0 || rem%nodeSize != 0 {
		return hdr, nil, &LoadError{Path: path, Reason: "payload size inconsistent with header", Err: ErrTruncatedPayload}
	}
	numNodes := (len(payload) - numOut*4) / nodeSize
	prog, err := decodePayload(payload, hdr.InputDim, numNodes, numOut)
	if err != nil {
		return hdr, nil, &LoadError{Path: path, Reason: "malformed program", Err: err}
	}
	return hdr, prog, nil
}

// ReadHeader reads only the verified header of an artifact. Used by tooling
// to inspect a model cache without rebuilding tapes.
func ReadHeader(path string) (Header, error) {
	hdr, _, err := readModel(path)
	return hdr, err
}
