package record

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/tapecost-ml/tapecost/internal/ad"
)

// writeModel persists a compiled program to path, creating parent
// directories as needed. The write goes through a temp file and rename so a
// crashed writer never leaves a half-written artifact behind.
func writeModel(path string, hdr Header, prog *ad.Program) error {
	headerJSON, err := json.Marshal(hdr)
	if err != nil {
		return errors.Wrap(err, "unable to marshal model header")
	}
	payload := encodePayload(prog)

	buf := make([]byte, 0, 12+len(headerJSON)+len(payload)+ChecksumSize)
	buf = append(buf, MagicBytes...)
	var u32 [4]byte
	binary.LittleEndian.PutUint32(u32[:], FormatVersion)
	buf = append(buf, u32[:]...)
	binary.LittleEndian.PutUint32(u32[:], uint32(len(headerJSON)))
	buf = append(buf, u32[:]...)
	buf = append(buf, headerJSON...)
	buf = append(buf, payload...)

	sum := sha256.Sum256(buf)
	buf = append(buf, sum[:]...)

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrapf(err, "unable to create model folder %s", filepath.Dir(path))
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp*")
	if err != nil {
		return errors.Wrap(err, "unable to create temp artifact")
	}
	if _, err := tmp.Write(buf); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return errors.Wrapf(err, "unable to write artifact %s", path)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return errors.Wrapf(err, "unable to close artifact %s", path)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return errors.Wrapf(err, "unable to move artifact into place at %s", path)
	}
	return nil
}
