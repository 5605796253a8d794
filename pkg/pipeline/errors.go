package pipeline

import (
	"errors"

	"github.com/norndb/norn/pkg/ecc"
)

var (
	// ErrCorruptFrame is returned when a frame's descriptor is unreadable
	// or internally inconsistent, or when an authenticated layer rejects
	// the payload. Not retried; surfaced to the caller.
	ErrCorruptFrame = errors.New("pipeline: corrupt frame")

	// ErrLayerMismatch is returned when a frame records a codec,
	// compressor, cipher, or dictionary that is not registered in this
	// process. This is a configuration error, not data corruption.
	ErrLayerMismatch = errors.New("pipeline: recorded layer unavailable")

	// ErrUnrecoverable is returned when the error-correction layer cannot
	// reconstruct the payload. Distinct from generic corruption so callers
	// can decide to restore from backup.
	ErrUnrecoverable = ecc.ErrUnrecoverable
)
