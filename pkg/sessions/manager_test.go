package sessions

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zapdesk/automata/pkg/models"
	"github.com/zapdesk/automata/pkg/persistence/memory"
)

func testManager(t *testing.T) (*Manager, *memory.SessionRepository) {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	repo := memory.NewSessionRepository()

	return NewManager(repo, logger), repo
}

func testKey() models.SessionKey {
	return models.SessionKey{CompanyID: "co-1", ConversationID: "conv-1", FlowID: "flow-1"}
}

func TestLock_SerializesOneConversation(t *testing.T) {
	manager, _ := testManager(t)
	ctx := context.Background()

	release, err := manager.Lock(ctx, "co-1", "conv-1")
	require.NoError(t, err)

	manager.SetLockTimeout(50 * time.Millisecond)

	_, err = manager.Lock(ctx, "co-1", "conv-1")
	assert.ErrorIs(t, err, ErrLockTimeout)

	release()

	release2, err := manager.Lock(ctx, "co-1", "conv-1")
	require.NoError(t, err)
	release2()
}

func TestLock_DifferentConversationsProceedIndependently(t *testing.T) {
	manager, _ := testManager(t)
	ctx := context.Background()

	release1, err := manager.Lock(ctx, "co-1", "conv-1")
	require.NoError(t, err)

	defer release1()

	release2, err := manager.Lock(ctx, "co-1", "conv-2")
	require.NoError(t, err)
	release2()
}

func TestLock_RespectsContextCancellation(t *testing.T) {
	manager, _ := testManager(t)

	release, err := manager.Lock(context.Background(), "co-1", "conv-1")
	require.NoError(t, err)

	defer release()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = manager.Lock(ctx, "co-1", "conv-1")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestGetOrCreate(t *testing.T) {
	manager, _ := testManager(t)
	ctx := context.Background()
	now := time.Date(2026, 1, 5, 12, 0, 0, 0, time.UTC)

	session, created, err := manager.GetOrCreate(ctx, testKey(), "entry", 30, now)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "entry", session.CurrentNodeID)
	assert.Equal(t, 30, session.TimeoutMinutes)

	again, created, err := manager.GetOrCreate(ctx, testKey(), "other", 60, now)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, "entry", again.CurrentNodeID, "existing session is returned unchanged")
	assert.Equal(t, 30, again.TimeoutMinutes)
}

func TestGetOrCreate_ReplacesExpiredSession(t *testing.T) {
	manager, _ := testManager(t)
	ctx := context.Background()
	now := time.Date(2026, 1, 5, 12, 0, 0, 0, time.UTC)

	_, _, err := manager.GetOrCreate(ctx, testKey(), "entry", 30, now)
	require.NoError(t, err)

	later := now.Add(31 * time.Minute)

	session, created, err := manager.GetOrCreate(ctx, testKey(), "entry", 30, later)
	require.NoError(t, err)
	assert.True(t, created, "expired session is replaced by a fresh one")
	assert.Equal(t, later, session.CreatedAt)
}

func TestAdvance_MergesVariablesAndRefreshesActivity(t *testing.T) {
	manager, repo := testManager(t)
	ctx := context.Background()
	now := time.Date(2026, 1, 5, 12, 0, 0, 0, time.UTC)

	session, _, err := manager.GetOrCreate(ctx, testKey(), "entry", 30, now)
	require.NoError(t, err)

	later := now.Add(5 * time.Minute)
	err = manager.Advance(ctx, session, "next", map[string]string{"topic": "billing"}, later)
	require.NoError(t, err)

	stored, err := repo.Get(ctx, testKey())
	require.NoError(t, err)
	assert.Equal(t, "next", stored.CurrentNodeID)
	assert.Equal(t, "billing", stored.Variables["topic"])
	assert.Equal(t, later, stored.LastActivityAt)
}

func TestFindByConversation_LazilyRemovesExpired(t *testing.T) {
	manager, repo := testManager(t)
	ctx := context.Background()
	now := time.Date(2026, 1, 5, 12, 0, 0, 0, time.UTC)

	_, _, err := manager.GetOrCreate(ctx, testKey(), "entry", 30, now)
	require.NoError(t, err)

	session, err := manager.FindByConversation(ctx, "co-1", "conv-1", now.Add(31*time.Minute))
	require.NoError(t, err)
	assert.Nil(t, session)

	_, err = repo.Get(ctx, testKey())
	assert.Error(t, err, "expired session is deleted on access")
}

func TestSweepExpired(t *testing.T) {
	manager, repo := testManager(t)
	ctx := context.Background()
	now := time.Date(2026, 1, 5, 12, 0, 0, 0, time.UTC)

	expired := testKey()
	fresh := models.SessionKey{CompanyID: "co-1", ConversationID: "conv-2", FlowID: "flow-1"}
	eternal := models.SessionKey{CompanyID: "co-1", ConversationID: "conv-3", FlowID: "flow-1"}

	_, _, err := manager.GetOrCreate(ctx, expired, "entry", 30, now.Add(-time.Hour))
	require.NoError(t, err)
	_, _, err = manager.GetOrCreate(ctx, fresh, "entry", 30, now.Add(-time.Minute))
	require.NoError(t, err)
	_, _, err = manager.GetOrCreate(ctx, eternal, "entry", 0, now.Add(-24*time.Hour))
	require.NoError(t, err)

	removed, err := manager.SweepExpired(ctx, now)
	require.NoError(t, err)

	require.Len(t, removed, 1)
	assert.Equal(t, expired, removed[0])

	_, err = repo.Get(ctx, fresh)
	assert.NoError(t, err)
	_, err = repo.Get(ctx, eternal)
	assert.NoError(t, err, "sessions without a timeout are never swept")
}

func TestSweepExpired_SkipsLockedConversations(t *testing.T) {
	manager, repo := testManager(t)
	manager.SetLockTimeout(50 * time.Millisecond)

	ctx := context.Background()
	now := time.Date(2026, 1, 5, 12, 0, 0, 0, time.UTC)

	_, _, err := manager.GetOrCreate(ctx, testKey(), "entry", 30, now.Add(-time.Hour))
	require.NoError(t, err)

	release, err := manager.Lock(ctx, "co-1", "conv-1")
	require.NoError(t, err)

	removed, err := manager.SweepExpired(ctx, now)
	require.NoError(t, err)
	assert.Empty(t, removed, "busy conversation is left for the next sweep")

	release()

	_, err = repo.Get(ctx, testKey())
	assert.NoError(t, err, "session survives until a sweep can lock it")
}
