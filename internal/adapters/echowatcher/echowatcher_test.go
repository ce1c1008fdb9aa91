package echowatcher

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bnema/familiar-bridge/internal/adapters/repo/jsonfile"
	"github.com/bnema/familiar-bridge/internal/adapters/watcher"
	"github.com/bnema/familiar-bridge/internal/domain"
)

type fixedClock struct {
	now time.Time
}

func (c fixedClock) Now() time.Time {
	return c.now
}

var testNow = time.Date(2026, 10, 17, 9, 0, 0, 0, time.UTC)

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("R%d", n)
	}
}

func appendUserTurn(t *testing.T, repo *jsonfile.ConversationRepository, id, text string) {
	t.Helper()
	require.NoError(t, repo.Update(context.Background(), func(conv *domain.Conversation) error {
		return conv.Append(domain.NewUserTurn(id, "ada", text, testNow, domain.CycleSnapshot{CycleMode: domain.CycleIdle}, domain.UserTurn{}, nil), testNow)
	}))
}

func TestEcho(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "hello echoed\n<emotion: calm>", Echo("  hello "))
	parsed := domain.ParseReply(Echo("hi"), false)
	assert.Equal(t, "hi echoed", parsed.Text)
	assert.Equal(t, "calm", parsed.Emotion)
}

func TestSweepAnswersPendingTurnsOnce(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	repo := jsonfile.NewConversationRepository(dir)
	w := New(dir, repo, fixedClock{now: testNow}, nil, WithReplyIDs(sequentialIDs()))

	appendUserTurn(t, repo, "T1", "first")
	appendUserTurn(t, repo, "T2", "second")

	n, err := w.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	conv, err := repo.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, conv.Turns, 4)

	reply, ok := conv.FindReply("T1")
	require.True(t, ok)
	assert.Equal(t, "R1", reply.ID)
	assert.Equal(t, domain.RoleCLI, reply.Role)
	assert.Equal(t, domain.FamiliarID("ada"), reply.Familiar)
	assert.Equal(t, "first echoed\n<emotion: calm>", reply.Text)
	assert.Empty(t, conv.Unanswered())

	n, err = w.Sweep(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestSweepLeavesMissingDocumentUntouched(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	repo := jsonfile.NewConversationRepository(dir)
	w := New(dir, repo, fixedClock{now: testNow}, nil)

	n, err := w.Sweep(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.NoFileExists(t, repo.Path())
}

func TestSweepHonoursCancelSentinel(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	repo := jsonfile.NewConversationRepository(dir)
	w := New(dir, repo, fixedClock{now: testNow}, nil, WithReplyIDs(sequentialIDs()))
	signaler := watcher.NewSentinelSignaler(dir)

	appendUserTurn(t, repo, "T1", "keep")
	appendUserTurn(t, repo, "T2", "drop")
	require.NoError(t, signaler.SignalCancel(context.Background(), "T2"))

	n, err := w.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.NoFileExists(t, watcher.SentinelPath(dir, "T2"))

	n, err = w.Sweep(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)

	conv, err := repo.Load(context.Background())
	require.NoError(t, err)
	_, answered := conv.FindReply("T2")
	assert.False(t, answered)
}

func TestSweepSkipsCancelledTurnsAndClearsTheirSentinels(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	repo := jsonfile.NewConversationRepository(dir)
	w := New(dir, repo, fixedClock{now: testNow}, nil)

	appendUserTurn(t, repo, "T1", "never mind")
	require.NoError(t, repo.Update(context.Background(), func(conv *domain.Conversation) error {
		return conv.Cancel("T1", testNow)
	}))
	require.NoError(t, watcher.NewSentinelSignaler(dir).SignalCancel(context.Background(), "T1"))

	n, err := w.Sweep(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.NoFileExists(t, watcher.SentinelPath(dir, "T1"))
}

func TestBeatWritesHeartbeat(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	w := New(dir, jsonfile.NewConversationRepository(dir), fixedClock{now: testNow}, nil)

	require.NoError(t, w.Beat())

	lastSeen, ok := watcher.NewHeartbeatFileReader(dir).LastSeen(context.Background())
	require.True(t, ok)
	assert.True(t, lastSeen.Equal(testNow))
}

func TestRunAnswersNewTurns(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "shared")
	repo := jsonfile.NewConversationRepository(dir)
	w := New(dir, repo, fixedClock{now: testNow}, nil, WithHeartbeatEvery(50*time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- w.Run(ctx)
	}()

	require.Eventually(t, func() bool {
		_, err := os.Stat(filepath.Join(dir, watcher.HeartbeatFile))
		return err == nil
	}, 2*time.Second, 10*time.Millisecond)

	appendUserTurn(t, repo, "T1", "ping")

	require.Eventually(t, func() bool {
		conv, err := repo.Load(context.Background())
		if err != nil {
			return false
		}
		_, ok := conv.FindReply("T1")
		return ok
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not stop")
	}
}
