// Package watcher implements the server side of the file contract with the
// external reply agent: its heartbeat and the cancellation sentinels.
package watcher

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/bnema/familiar-bridge/internal/adapters/repo/jsonfile"
	"github.com/bnema/familiar-bridge/internal/ports"
)

const HeartbeatFile = "cli_heartbeat.json"

// HeartbeatRecord is the document the watcher rewrites while alive.
type HeartbeatRecord struct {
	LastSeen time.Time `json:"last_seen"`
}

type HeartbeatFileReader struct {
	path string
}

var _ ports.Heartbeat = (*HeartbeatFileReader)(nil)

func NewHeartbeatFileReader(sharedTemp string) *HeartbeatFileReader {
	return &HeartbeatFileReader{path: filepath.Join(sharedTemp, HeartbeatFile)}
}

func (r *HeartbeatFileReader) LastSeen(ctx context.Context) (time.Time, bool) {
	if ctx.Err() != nil {
		return time.Time{}, false
	}
	record := jsonfile.Read(r.path, HeartbeatRecord{})
	return record.LastSeen, !record.LastSeen.IsZero()
}

// WriteHeartbeat stamps the heartbeat file. Only watchers call it.
func WriteHeartbeat(sharedTemp string, now time.Time) error {
	if err := jsonfile.Write(filepath.Join(sharedTemp, HeartbeatFile), HeartbeatRecord{LastSeen: now}); err != nil {
		return fmt.Errorf("write heartbeat: %w", err)
	}
	return nil
}

type SentinelSignaler struct {
	dir string
}

var _ ports.CancelSignaler = (*SentinelSignaler)(nil)

func NewSentinelSignaler(sharedTemp string) *SentinelSignaler {
	return &SentinelSignaler{dir: sharedTemp}
}

func (s *SentinelSignaler) SignalCancel(ctx context.Context, turnID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := jsonfile.WriteBytes(SentinelPath(s.dir, turnID), []byte(turnID), 0o644); err != nil {
		return fmt.Errorf("signal cancel for %s: %w", turnID, err)
	}
	return nil
}

// SentinelPath names the cancellation sentinel for a turn.
func SentinelPath(sharedTemp, turnID string) string {
	return filepath.Join(sharedTemp, "cancel_"+filepath.Base(turnID)+".signal")
}
