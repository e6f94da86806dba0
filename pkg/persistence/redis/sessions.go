// Package redis provides a Redis-backed session store, the durable shared
// state reachable by every engine instance.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	redis "github.com/redis/go-redis/v9"

	"github.com/zapdesk/automata/pkg/models"
	"github.com/zapdesk/automata/pkg/persistence"
)

const (
	keyPrefix = "automata:session:"
	indexKey  = "automata:sessions"

	connectTimeout = 5 * time.Second
)

// SessionRepository stores one JSON document per session plus a set indexing
// every live key, so the timeout sweep can list sessions without SCANning the
// whole keyspace.
type SessionRepository struct {
	client redis.UniversalClient
}

// NewSessionRepository connects to Redis and verifies the connection.
// The URL uses the standard redis:// scheme.
func NewSessionRepository(ctx context.Context, url string) (*SessionRepository, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}

	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &SessionRepository{client: client}, nil
}

func storageKey(key models.SessionKey) string {
	return keyPrefix + key.CompanyID + ":" + key.ConversationID + ":" + key.FlowID
}

func (r *SessionRepository) Get(ctx context.Context, key models.SessionKey) (*models.FlowSession, error) {
	payload, err := r.client.Get(ctx, storageKey(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, persistence.ErrSessionNotFound
		}

		return nil, &persistence.SessionError{Op: "Get", Key: storageKey(key), Err: err}
	}

	return decodeSession(payload, storageKey(key))
}

func (r *SessionRepository) FindByConversation(ctx context.Context, companyID, conversationID string) (*models.FlowSession, error) {
	prefix := keyPrefix + companyID + ":" + conversationID + ":"

	keys, err := r.client.SMembers(ctx, indexKey).Result()
	if err != nil {
		return nil, &persistence.SessionError{Op: "FindByConversation", Key: prefix, Err: err}
	}

	for _, raw := range keys {
		if !strings.HasPrefix(raw, prefix) {
			continue
		}

		payload, err := r.client.Get(ctx, raw).Bytes()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				// Index entry outlived its session document; drop it.
				r.client.SRem(ctx, indexKey, raw)

				continue
			}

			return nil, &persistence.SessionError{Op: "FindByConversation", Key: raw, Err: err}
		}

		return decodeSession(payload, raw)
	}

	return nil, persistence.ErrSessionNotFound
}

func (r *SessionRepository) Save(ctx context.Context, session *models.FlowSession) error {
	payload, err := json.Marshal(session)
	if err != nil {
		return &persistence.SessionError{Op: "Save", Key: storageKey(session.Key()), Err: err}
	}

	raw := storageKey(session.Key())

	pipe := r.client.TxPipeline()
	pipe.Set(ctx, raw, payload, 0)
	pipe.SAdd(ctx, indexKey, raw)

	if _, err := pipe.Exec(ctx); err != nil {
		return &persistence.SessionError{Op: "Save", Key: raw, Err: err}
	}

	return nil
}

func (r *SessionRepository) Delete(ctx context.Context, key models.SessionKey) error {
	raw := storageKey(key)

	pipe := r.client.TxPipeline()
	pipe.Del(ctx, raw)
	pipe.SRem(ctx, indexKey, raw)

	if _, err := pipe.Exec(ctx); err != nil {
		return &persistence.SessionError{Op: "Delete", Key: raw, Err: err}
	}

	return nil
}

func (r *SessionRepository) List(ctx context.Context) ([]*models.FlowSession, error) {
	keys, err := r.client.SMembers(ctx, indexKey).Result()
	if err != nil {
		return nil, &persistence.SessionError{Op: "List", Key: indexKey, Err: err}
	}

	sessions := make([]*models.FlowSession, 0, len(keys))

	for _, raw := range keys {
		payload, err := r.client.Get(ctx, raw).Bytes()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				r.client.SRem(ctx, indexKey, raw)

				continue
			}

			return nil, &persistence.SessionError{Op: "List", Key: raw, Err: err}
		}

		session, err := decodeSession(payload, raw)
		if err != nil {
			return nil, err
		}

		sessions = append(sessions, session)
	}

	return sessions, nil
}

func (r *SessionRepository) HealthCheck(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *SessionRepository) Close(_ context.Context) error {
	return r.client.Close()
}

func decodeSession(payload []byte, key string) (*models.FlowSession, error) {
	var session models.FlowSession

	if err := json.Unmarshal(payload, &session); err != nil {
		return nil, &persistence.SessionError{Op: "decode", Key: key, Err: err}
	}

	return &session, nil
}
