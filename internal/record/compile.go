package record

import (
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/tapecost-ml/tapecost/internal/ad"
)

// CompileOptions describes one compiled-model cache slot. Name and Folder
// key the on-disk artifact; the fingerprint embedded in the artifact makes
// cache invalidation a function of the residual content, not the name alone.
type CompileOptions struct {
	Name           string
	Folder         string
	ForceRecompile bool
	Verbose        bool
	Log            zerolog.Logger
}

// Path returns the artifact location for these options.
func (o CompileOptions) Path() string {
	return filepath.Join(o.Folder, o.Name+FileExt)
}

// Compile produces or reuses the persisted artifact for this record.
//
// With ForceRecompile false, a matching artifact at Folder/Name is loaded
// and adopted; an incompatible one (dimensions or fingerprint differ)
// yields a *LoadError and leaves the record on its freshly built program,
// so the caller can decide between failing fast and forcing recompilation.
// Otherwise the built program is serialized for reuse by future processes.
func (r *FunctionRecord) Compile(opts CompileOptions) error {
	if r.prog == nil {
		return ErrEmptyRecord
	}
	log := opts.Log
	if !opts.Verbose {
		log = zerolog.Nop()
	}
	path := opts.Path()

	if !opts.ForceRecompile {
		hdr, prog, err := readModel(path)
		switch {
		case err == nil:
			if hdr.InputDim != r.InputDim() || hdr.OutputDim != r.OutputDim() {
				return &LoadError{Path: path, Reason: "artifact dimensions do not match residual specification"}
			}
			if hdr.Fingerprint != r.fingerprint {
				return &LoadError{Path: path, Reason: "artifact fingerprint does not match residual specification"}
			}
			r.prog = prog
			r.ws = ad.NewWorkspace(prog)
			log.Info().Str("model", opts.Name).Str("path", path).Msg("loaded compiled model")
			return nil
		case os.IsNotExist(errors.Cause(err)):
			log.Info().Str("model", opts.Name).Str("path", path).Msg("no compiled model found, compiling")
		default:
			return err
		}
	}

	hdr := Header{
		FormatVersion: FormatVersion,
		Name:          opts.Name,
		InputDim:      r.InputDim(),
		OutputDim:     r.OutputDim(),
		Fingerprint:   r.fingerprint,
		CreatedAt:     time.Now().UTC(),
	}
	if err := writeModel(path, hdr, r.prog); err != nil {
		return errors.Wrapf(err, "unable to compile model %q", opts.Name)
	}
	log.Info().
		Str("model", opts.Name).
		Str("path", path).
		Int("inputs", r.InputDim()).
		Int("outputs", r.OutputDim()).
		Msg("compiled model")
	return nil
}
