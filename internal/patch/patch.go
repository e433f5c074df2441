// Package patch implements partial updates of resource snapshots using
// RFC 6902 operation sequences. The engine operates on the JSON value
// tree of a snapshot: the patch is applied to the rendered tree, the
// result is compared against the original for the idempotence
// short-circuit, and only then is it decoded back into the strong
// snapshot type and validated. Persistence is the caller's problem; the
// engine never touches storage.
package patch

import (
	"bytes"
	"encoding/json"

	jsonpatch "github.com/evanphx/json-patch/v5"

	apperrors "github.com/opsledger/catalog/pkg/errors"
)

// Result is the outcome of a successful patch application. Modified is
// false when every field of the patched snapshot equals the original;
// callers surface that as a non-error "nothing changed" signal and must
// not issue a write.
type Result[T any] struct {
	Snapshot T
	Modified bool
}

// Apply applies ops to a copy of current, compares, decodes, and
// validates. The original snapshot is never mutated. Failures are
// reported as AppErrors with code invalid and the first violation in
// the detail metadata; any failure means storage must stay untouched.
func Apply[T any](current T, ops []byte, validate func(T) error) (Result[T], error) {
	var zero Result[T]

	doc, err := json.Marshal(current)
	if err != nil {
		return zero, apperrors.Wrap(err, apperrors.CodeInternal, "failed to render snapshot")
	}

	p, err := jsonpatch.DecodePatch(ops)
	if err != nil {
		return zero, apperrors.Wrap(err, apperrors.CodeInvalid, "invalid patch document").
			WithMeta("detail", err.Error())
	}

	patched, err := p.Apply(doc)
	if err != nil {
		// bad path, failed test op, type mismatch: the whole sequence
		// is rejected as a unit
		return zero, apperrors.Wrap(err, apperrors.CodeInvalid, "failed to apply patch").
			WithMeta("detail", err.Error())
	}

	if jsonpatch.Equal(doc, patched) {
		return Result[T]{Snapshot: current, Modified: false}, nil
	}

	var next T
	dec := json.NewDecoder(bytes.NewReader(patched))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&next); err != nil {
		return zero, apperrors.Wrap(err, apperrors.CodeInvalid, "patched snapshot does not match schema").
			WithMeta("detail", err.Error())
	}

	if validate != nil {
		if err := validate(next); err != nil {
			if apperrors.IsCode(err, apperrors.CodeInvalid) {
				return zero, err
			}
			return zero, apperrors.Wrap(err, apperrors.CodeInvalid, "patched snapshot failed validation").
				WithMeta("detail", err.Error())
		}
	}

	return Result[T]{Snapshot: next, Modified: true}, nil
}
