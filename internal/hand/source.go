package hand

import "context"

// Source produces snapshots one frame at a time.
type Source interface {
	// Sample blocks until the next frame is available. A finite source
	// returns io.EOF once exhausted.
	Sample(ctx context.Context) (Snapshot, error)

	// Close releases any resources held by the source.
	Close() error
}
