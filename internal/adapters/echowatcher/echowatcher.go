// Package echowatcher is a development stand-in for the external reply
// agent. It speaks the same file contract: it stamps the heartbeat, answers
// pending user turns by appending cli turns and honours cancel sentinels.
package echowatcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"

	"github.com/bnema/familiar-bridge/internal/adapters/watcher"
	"github.com/bnema/familiar-bridge/internal/domain"
	"github.com/bnema/familiar-bridge/internal/ports"
)

const (
	DefaultHeartbeatEvery = 5 * time.Second

	replyEmotion = "calm"
)

var errNothingToAnswer = errors.New("nothing to answer")

// ConversationLog is the conversation document as the watcher needs it.
type ConversationLog interface {
	ports.ConversationRepository
	Path() string
}

type Option func(*Watcher)

func WithHeartbeatEvery(every time.Duration) Option {
	return func(w *Watcher) {
		if every > 0 {
			w.heartbeatEvery = every
		}
	}
}

func WithReplyIDs(newID func() string) Option {
	return func(w *Watcher) {
		if newID != nil {
			w.newID = newID
		}
	}
}

type Watcher struct {
	sharedTemp     string
	conversations  ConversationLog
	clock          ports.Clock
	logger         *slog.Logger
	newID          func() string
	heartbeatEvery time.Duration
	skipped        map[string]struct{}
}

func New(sharedTemp string, conversations ConversationLog, clock ports.Clock, logger *slog.Logger, opts ...Option) *Watcher {
	if clock == nil {
		clock = ports.SystemClock{}
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	w := &Watcher{
		sharedTemp:     sharedTemp,
		conversations:  conversations,
		clock:          clock,
		logger:         logger,
		newID:          uuid.NewString,
		heartbeatEvery: DefaultHeartbeatEvery,
		skipped:        map[string]struct{}{},
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Echo is the reply text for a user message.
func Echo(text string) string {
	return fmt.Sprintf("%s echoed\n<emotion: %s>", strings.TrimSpace(text), replyEmotion)
}

// Beat stamps the heartbeat file once.
func (w *Watcher) Beat() error {
	return watcher.WriteHeartbeat(w.sharedTemp, w.clock.Now())
}

// Sweep answers every pending user turn that has no cancel sentinel and
// returns how many replies it appended. The document is left untouched when
// there is nothing to answer.
func (w *Watcher) Sweep(ctx context.Context) (int, error) {
	answered := 0
	err := w.conversations.Update(ctx, func(conv *domain.Conversation) error {
		answered = 0
		now := w.clock.Now()

		for _, turn := range conv.Turns {
			if turn.IsUser() && turn.Status == domain.TurnCancelled {
				w.clearSentinel(turn.ID)
			}
		}

		for _, turn := range conv.Unanswered() {
			if _, ok := w.skipped[turn.ID]; ok {
				continue
			}
			if w.clearSentinel(turn.ID) {
				w.skipped[turn.ID] = struct{}{}
				w.logger.Debug("skipping cancelled turn", "turn_id", turn.ID)
				continue
			}

			reply := domain.NewReplyTurn(w.newID(), turn.Familiar, Echo(turn.Text), now, turn.ID)
			if err := conv.Append(reply, now); err != nil {
				return fmt.Errorf("answer turn %s: %w", turn.ID, err)
			}
			answered++
			w.logger.Debug("answered turn", "turn_id", turn.ID, "reply_id", reply.ID)
		}

		if answered == 0 {
			return errNothingToAnswer
		}
		return nil
	})
	if errors.Is(err, errNothingToAnswer) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return answered, nil
}

// clearSentinel removes the turn's cancel sentinel and reports whether one
// was there.
func (w *Watcher) clearSentinel(turnID string) bool {
	err := os.Remove(watcher.SentinelPath(w.sharedTemp, turnID))
	if err == nil {
		return true
	}
	if !errors.Is(err, os.ErrNotExist) {
		w.logger.Warn("remove cancel sentinel", "turn_id", turnID, "error", err)
	}
	return false
}

// Run beats and sweeps until ctx is done. Sweeps are triggered by changes
// to the conversation file and by every heartbeat tick.
func (w *Watcher) Run(ctx context.Context) error {
	if err := os.MkdirAll(w.sharedTemp, 0o755); err != nil {
		return fmt.Errorf("create shared temp: %w", err)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create file watcher: %w", err)
	}
	defer fsw.Close()

	if err := fsw.Add(w.sharedTemp); err != nil {
		return fmt.Errorf("watch %s: %w", w.sharedTemp, err)
	}

	w.tick(ctx)

	ticker := time.NewTicker(w.heartbeatEvery)
	defer ticker.Stop()

	target := filepath.Base(w.conversations.Path())
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			w.tick(ctx)
		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if filepath.Base(event.Name) != target {
				continue
			}
			if event.Has(fsnotify.Create) || event.Has(fsnotify.Write) || event.Has(fsnotify.Rename) {
				w.sweep(ctx)
			}
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("file watcher error", "error", err)
		}
	}
}

func (w *Watcher) tick(ctx context.Context) {
	if err := w.Beat(); err != nil {
		w.logger.Warn("heartbeat failed", "error", err)
	}
	w.sweep(ctx)
}

func (w *Watcher) sweep(ctx context.Context) {
	n, err := w.Sweep(ctx)
	if err != nil {
		if ctx.Err() == nil {
			w.logger.Warn("sweep failed", "error", err)
		}
		return
	}
	if n > 0 {
		w.logger.Info("answered turns", "count", n)
	}
}
