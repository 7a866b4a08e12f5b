package transit

import (
	"context"

	"github.com/inkboard/board-renderer/pkg/models"
	"go.uber.org/zap"
)

// StopCache is the slice of the Redis cache the source needs. A nil
// cache means every request goes to the upstream API.
type StopCache interface {
	GetStopData(ctx context.Context) (models.StopData, bool, error)
	SetStopData(ctx context.Context, stops models.StopData) error
}

// Source produces the board's current stop data, consulting the cache
// before the upstream feeds. Cache failures are logged and bypassed;
// only the upstream fetch itself is fatal.
type Source struct {
	client *Client
	feeds  []models.StopFeed
	cache  StopCache
	logger *zap.Logger
}

// NewSource wires a client to its configured feeds. cache may be nil.
func NewSource(client *Client, feeds []models.StopFeed, cache StopCache, logger *zap.Logger) *Source {
	return &Source{
		client: client,
		feeds:  feeds,
		cache:  cache,
		logger: logger,
	}
}

// StopData returns the current stop data for the board.
func (s *Source) StopData(ctx context.Context) (models.StopData, error) {
	if s.cache != nil {
		stops, found, err := s.cache.GetStopData(ctx)
		if err != nil {
			s.logger.Warn("Stop data cache read failed, fetching upstream", zap.Error(err))
		} else if found {
			return stops, nil
		}
	}

	stops, err := s.client.FetchStopData(ctx, s.feeds)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.SetStopData(ctx, stops); err != nil {
			s.logger.Warn("Stop data cache write failed", zap.Error(err))
		}
	}

	return stops, nil
}
