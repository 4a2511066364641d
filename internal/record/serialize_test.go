package record

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tapecost-ml/tapecost/internal/ad"
)

func TestCompile_WriteThenLoad(t *testing.T) {
	dir := t.TempDir()

	rec, err := Build(residual2, 2)
	require.NoError(t, err)
	opts := CompileOptions{Name: "pair", Folder: dir, ForceRecompile: true}
	require.NoError(t, rec.Compile(opts))

	hdr, err := ReadHeader(opts.Path())
	require.NoError(t, err)
	assert.Equal(t, "pair", hdr.Name)
	assert.Equal(t, 2, hdr.InputDim)
	assert.Equal(t, 2, hdr.OutputDim)
	assert.Equal(t, rec.Fingerprint(), hdr.Fingerprint)
	assert.Equal(t, FormatVersion, hdr.FormatVersion)

	// A second record for the same residual loads the artifact and
	// evaluates identically.
	loaded, err := Build(residual2, 2)
	require.NoError(t, err)
	opts.ForceRecompile = false
	require.NoError(t, loaded.Compile(opts))

	x := []float64{0.5, 2.0}
	v1, err := rec.Evaluate(x)
	require.NoError(t, err)
	want := append([]float64(nil), v1...)
	v2, err := loaded.Evaluate(x)
	require.NoError(t, err)
	assert.Equal(t, want, append([]float64(nil), v2...))
}

func TestCompile_MissingArtifactCompiles(t *testing.T) {
	dir := t.TempDir()
	rec, err := Build(residual2, 2)
	require.NoError(t, err)

	opts := CompileOptions{Name: "fresh", Folder: dir, ForceRecompile: false}
	require.NoError(t, rec.Compile(opts))
	_, err = os.Stat(opts.Path())
	require.NoError(t, err)
}

func TestCompile_FingerprintMismatch(t *testing.T) {
	dir := t.TempDir()

	rec, err := Build(residual2, 2)
	require.NoError(t, err)
	opts := CompileOptions{Name: "shared", Folder: dir, ForceRecompile: true}
	require.NoError(t, rec.Compile(opts))

	other, err := Build(func(in []ad.Scalar) []ad.Scalar {
		return []ad.Scalar{in[0].Mul(in[1]), in[0].Cos()}
	}, 2)
	require.NoError(t, err)

	opts.ForceRecompile = false
	err = other.Compile(opts)
	var lerr *LoadError
	require.ErrorAs(t, err, &lerr)
	assert.Contains(t, lerr.Reason, "fingerprint")

	// Forcing recompilation is the caller's fallback.
	opts.ForceRecompile = true
	require.NoError(t, other.Compile(opts))
}

func TestCompile_DimensionMismatch(t *testing.T) {
	dir := t.TempDir()

	rec, err := Build(residual2, 2)
	require.NoError(t, err)
	opts := CompileOptions{Name: "dims", Folder: dir, ForceRecompile: true}
	require.NoError(t, rec.Compile(opts))

	wider, err := Build(func(in []ad.Scalar) []ad.Scalar {
		return []ad.Scalar{in[0].Mul(in[1]).Add(in[2])}
	}, 3)
	require.NoError(t, err)

	opts.ForceRecompile = false
	err = wider.Compile(opts)
	var lerr *LoadError
	require.ErrorAs(t, err, &lerr)
	assert.Contains(t, lerr.Reason, "dimensions")
}

func TestRead_CorruptedArtifact(t *testing.T) {
	dir := t.TempDir()
	rec, err := Build(residual2, 2)
	require.NoError(t, err)
	opts := CompileOptions{Name: "corrupt", Folder: dir, ForceRecompile: true}
	require.NoError(t, rec.Compile(opts))

	buf, err := os.ReadFile(opts.Path())
	require.NoError(t, err)
	buf[len(buf)/2] ^= 0xff
	require.NoError(t, os.WriteFile(opts.Path(), buf, 0o644))

	_, err = ReadHeader(opts.Path())
	assert.ErrorIs(t, err, ErrChecksumMismatch)
}

func TestRead_NotATapeFile(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/junk" + FileExt
	require.NoError(t, os.WriteFile(path, []byte("definitely not a tape artifact, but long enough"), 0o644))

	_, err := ReadHeader(path)
	var lerr *LoadError
	require.ErrorAs(t, err, &lerr)
}

func TestRead_Missing(t *testing.T) {
	_, err := ReadHeader(t.TempDir() + "/absent" + FileExt)
	assert.True(t, os.IsNotExist(err))
}

func TestPayloadRoundTrip(t *testing.T) {
	rec, err := Build(residual2, 2)
	require.NoError(t, err)

	payload := encodePayload(rec.prog)
	prog, err := decodePayload(payload, 2, len(rec.prog.Nodes), len(rec.prog.Out))
	require.NoError(t, err)
	assert.Equal(t, rec.prog.Nodes, prog.Nodes)
	assert.Equal(t, rec.prog.Out, prog.Out)
	assert.Equal(t, rec.Fingerprint(), Fingerprint(prog))
}
