// Package sessions owns the lifecycle of flow sessions: creation on entry
// match, advancement, completion and timeout expiry.
//
// Mutations are linearized per conversation through a map of in-process
// locks, garbage-collected when the last holder releases. Different
// conversations proceed fully in parallel. The backing store is shared and
// durable; the locks only serialize work inside one engine instance, which is
// the concurrency contract the engine requires per inbound message.
package sessions

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/zapdesk/automata/pkg/models"
	"github.com/zapdesk/automata/pkg/persistence"
)

// ErrLockTimeout is returned when a session lock cannot be acquired within
// the configured bound. It is transient: the triggering message is safe to
// retry as a whole.
var ErrLockTimeout = errors.New("timed out acquiring session lock")

const defaultLockTimeout = 5 * time.Second

type lockEntry struct {
	ch   chan struct{}
	refs int
}

// Manager is the exclusive owner of session state. Executors borrow a
// session for the duration of one message's processing and hand every
// mutation back through the manager.
type Manager struct {
	repo        persistence.SessionRepository
	lockTimeout time.Duration
	logger      *slog.Logger

	mu    sync.Mutex
	locks map[string]*lockEntry
}

// NewManager creates a session manager over the given repository.
func NewManager(repo persistence.SessionRepository, logger *slog.Logger) *Manager {
	return &Manager{
		repo:        repo,
		lockTimeout: defaultLockTimeout,
		logger:      logger.With("module", "session_manager"),
		locks:       make(map[string]*lockEntry),
	}
}

// SetLockTimeout overrides the lock acquisition bound. Mostly for tests.
func (m *Manager) SetLockTimeout(d time.Duration) {
	m.lockTimeout = d
}

// Lock serializes all session work for one conversation. It returns a
// release function, or ErrLockTimeout when the bound elapses first.
func (m *Manager) Lock(ctx context.Context, companyID, conversationID string) (func(), error) {
	lockKey := companyID + "/" + conversationID

	m.mu.Lock()
	entry, ok := m.locks[lockKey]
	if !ok {
		entry = &lockEntry{ch: make(chan struct{}, 1)}
		m.locks[lockKey] = entry
	}
	entry.refs++
	m.mu.Unlock()

	timer := time.NewTimer(m.lockTimeout)
	defer timer.Stop()

	select {
	case entry.ch <- struct{}{}:
		return func() { m.release(lockKey, entry) }, nil
	case <-timer.C:
		m.unref(lockKey, entry)

		return nil, ErrLockTimeout
	case <-ctx.Done():
		m.unref(lockKey, entry)

		return nil, ctx.Err()
	}
}

func (m *Manager) release(lockKey string, entry *lockEntry) {
	<-entry.ch
	m.unref(lockKey, entry)
}

func (m *Manager) unref(lockKey string, entry *lockEntry) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry.refs--
	if entry.refs == 0 {
		delete(m.locks, lockKey)
	}
}

// FindByConversation returns the live session for a conversation, if any.
// Expired sessions are lazily removed here, so a stale session never blocks
// a fresh trigger match even between sweeps. Callers must hold the
// conversation lock.
func (m *Manager) FindByConversation(ctx context.Context, companyID, conversationID string, now time.Time) (*models.FlowSession, error) {
	session, err := m.repo.FindByConversation(ctx, companyID, conversationID)
	if err != nil {
		if persistence.IsSessionNotFound(err) {
			return nil, nil
		}

		return nil, err
	}

	if session.Expired(now) {
		m.logger.InfoContext(ctx, "Removing expired session on access",
			"company_id", companyID, "conversation_id", conversationID, "flow_id", session.FlowID)

		if err := m.repo.Delete(ctx, session.Key()); err != nil {
			return nil, err
		}

		return nil, nil
	}

	return session, nil
}

// GetOrCreate returns the session for the key, creating it parked at the
// entry node when absent. The second return value reports creation. Callers
// must hold the conversation lock.
func (m *Manager) GetOrCreate(ctx context.Context, key models.SessionKey, entryNodeID string, timeoutMinutes int, now time.Time) (*models.FlowSession, bool, error) {
	session, err := m.repo.Get(ctx, key)
	if err == nil && !session.Expired(now) {
		return session, false, nil
	}

	if err != nil && !persistence.IsSessionNotFound(err) {
		return nil, false, err
	}

	session = &models.FlowSession{
		CompanyID:      key.CompanyID,
		ConversationID: key.ConversationID,
		FlowID:         key.FlowID,
		CurrentNodeID:  entryNodeID,
		Variables:      make(map[string]string),
		TimeoutMinutes: timeoutMinutes,
		CreatedAt:      now,
		LastActivityAt: now,
	}

	if err := m.repo.Save(ctx, session); err != nil {
		return nil, false, err
	}

	return session, true, nil
}

// Advance moves the session to the next node, merges captured variables and
// refreshes the activity timestamp. Callers must hold the conversation lock.
func (m *Manager) Advance(ctx context.Context, session *models.FlowSession, nextNodeID string, vars map[string]string, now time.Time) error {
	session.CurrentNodeID = nextNodeID
	session.LastActivityAt = now

	if len(vars) > 0 {
		if session.Variables == nil {
			session.Variables = make(map[string]string, len(vars))
		}

		for k, v := range vars {
			session.Variables[k] = v
		}
	}

	return m.repo.Save(ctx, session)
}

// Complete removes a session that reached a terminal node. The next matching
// message starts a fresh session.
func (m *Manager) Complete(ctx context.Context, session *models.FlowSession) error {
	return m.repo.Delete(ctx, session.Key())
}

// SweepExpired removes every session whose idle time exceeds its timeout and
// returns the removed keys. Each candidate is re-checked under its
// conversation lock, so a sweep never races an in-flight message for the
// same session.
func (m *Manager) SweepExpired(ctx context.Context, now time.Time) ([]models.SessionKey, error) {
	sessions, err := m.repo.List(ctx)
	if err != nil {
		return nil, err
	}

	expired := make([]models.SessionKey, 0)

	for _, candidate := range sessions {
		if !candidate.Expired(now) {
			continue
		}

		key := candidate.Key()

		release, err := m.Lock(ctx, key.CompanyID, key.ConversationID)
		if err != nil {
			// A busy conversation will be retried on the next sweep.
			m.logger.WarnContext(ctx, "Skipping expired session, lock unavailable",
				"company_id", key.CompanyID, "conversation_id", key.ConversationID, "error", err)

			continue
		}

		session, err := m.repo.Get(ctx, key)
		if err != nil {
			release()

			if persistence.IsSessionNotFound(err) {
				continue
			}

			return expired, err
		}

		if !session.Expired(now) {
			// An in-flight message refreshed it between List and Lock.
			release()

			continue
		}

		if err := m.repo.Delete(ctx, key); err != nil {
			release()

			return expired, err
		}

		release()

		expired = append(expired, key)
	}

	return expired, nil
}
