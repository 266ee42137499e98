package cmn

import "errors"

// Sentinel errors, one per error kind in the error-handling design. Wrap
// with fmt.Errorf("...: %w", ErrX) at the call site so errors.Is still
// matches while the message carries the offending id/key.
var (
	// ErrInvalidID: the classifier rejected an id.
	ErrInvalidID = errors.New("invalid object id")
	// ErrStoreIO: an object-store call failed.
	ErrStoreIO = errors.New("object-store i/o error")
	// ErrNotIndexed: a graph lookup missed an expected key.
	ErrNotIndexed = errors.New("object not indexed")
	// ErrStaleEvent: a PUT arrived for a key that was just deleted, or
	// vice versa. Tolerated — the next scan corrects the graph.
	ErrStaleEvent = errors.New("stale event")
	// ErrDNUnreachable: the sweep delete call to the owning data node
	// failed.
	ErrDNUnreachable = errors.New("data node unreachable")
	// ErrBadRequest: a malformed HTTP body.
	ErrBadRequest = errors.New("bad request")
)
