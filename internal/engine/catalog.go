package engine

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"
	"github.com/studyline/testflow/internal/api"
	"github.com/studyline/testflow/internal/model"
	"golang.org/x/sync/singleflight"
)

// Catalog provides test-definition access. Definitions are immutable, so the
// first successful fetch per test id is cached for the catalog's lifetime and
// concurrent fetches for the same id collapse into one request.
type Catalog interface {
	Definition(ctx context.Context, testID string) (*model.TestDefinition, error)
}

type catalog struct {
	client api.Client
	flight singleflight.Group

	mu   sync.RWMutex
	defs map[string]*model.TestDefinition
}

func NewCatalog(client api.Client) Catalog {
	return &catalog{
		client: client,
		defs:   make(map[string]*model.TestDefinition),
	}
}

func (c *catalog) Definition(ctx context.Context, testID string) (*model.TestDefinition, error) {
	c.mu.RLock()
	def, ok := c.defs[testID]
	c.mu.RUnlock()
	if ok {
		return def, nil
	}

	v, err, _ := c.flight.Do(testID, func() (any, error) {
		fetched, err := c.client.FetchTest(ctx, testID)
		if err != nil {
			log.Error().Err(err).Str("testID", testID).Msg("Failed to fetch test definition")
			return nil, fmt.Errorf("fetching test %s: %w", testID, err)
		}
		c.mu.Lock()
		c.defs[testID] = fetched
		c.mu.Unlock()
		return fetched, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*model.TestDefinition), nil
}
