// Package handsource provides hand.Source implementations: recorded sessions,
// external trackers over WebSocket or a subprocess, and a simulated hand.
package handsource

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/verte-zerg/flicktype/internal/hand"
)

// LandmarkMessage is the tracker wire format shared by the WebSocket and
// subprocess sources. Timestamp is in Unix milliseconds.
type LandmarkMessage struct {
	Hands     []hand.Landmarks `json:"hands"`
	Timestamp int64            `json:"timestamp"`
}

// decodeLandmarks parses one tracker message into a snapshot. A missing
// timestamp falls back to now.
func decodeLandmarks(data []byte, cfg hand.LandmarkConfig, now func() time.Time) (hand.Snapshot, error) {
	var msg LandmarkMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return hand.Snapshot{}, fmt.Errorf("parse landmarks: %w", err)
	}
	at := now()
	if msg.Timestamp > 0 {
		at = time.UnixMilli(msg.Timestamp)
	}
	return hand.SnapshotFromLandmarks(at, msg.Hands, cfg), nil
}
