package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/zapdesk/automata/pkg/persistence"
	"github.com/zapdesk/automata/pkg/persistence/file"
	"github.com/zapdesk/automata/pkg/persistence/memory"
	"github.com/zapdesk/automata/pkg/persistence/redis"
)

// NewSessionRepository builds the session store for the given URL. A
// redis:// URL connects to Redis; anything else falls back to the in-memory
// store, which only suits a single-instance deployment.
func NewSessionRepository(ctx context.Context, logger *slog.Logger, url string) persistence.SessionRepository {
	if strings.HasPrefix(url, "redis://") || strings.HasPrefix(url, "rediss://") {
		repo, err := redis.NewSessionRepository(ctx, url)
		if err != nil {
			panic(fmt.Errorf("failed to connect session store: %w", err))
		}

		return repo
	}

	logger.WarnContext(ctx, "Using in-memory session store, sessions will not survive restarts")

	return memory.NewSessionRepository()
}

// NewCatalog builds the definition catalog rooted at the given path.
func NewCatalog(root string, logger *slog.Logger) persistence.Catalog {
	catalog, err := file.NewCatalog(root, logger)
	if err != nil {
		panic(fmt.Errorf("failed to open definition catalog: %w", err))
	}

	return catalog
}
