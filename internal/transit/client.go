package transit

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/inkboard/board-renderer/internal/config"
	"github.com/inkboard/board-renderer/pkg/models"
	"go.uber.org/zap"
)

// departureResponse mirrors the upstream predictions payload for one
// stop feed.
type departureResponse struct {
	Departures []departure `json:"departures"`
}

// departure is a single departure prediction.
type departure struct {
	RouteShortName string `json:"route_short_name"`
	Description    string `json:"description"` // headsign / destination
	DirectionText  string `json:"direction_text"`
	DepartureTime  int64  `json:"departure_time"` // unix timestamp
}

// Client fetches departure predictions and shapes them into the
// agency -> direction -> lines hierarchy the renderer consumes.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
	now        func() time.Time
}

// NewClient creates a transit client against cfg.BaseURL.
func NewClient(cfg *config.TransitConfig, logger *zap.Logger) *Client {
	return &Client{
		baseURL: cfg.BaseURL,
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.RequestTimeout) * time.Second,
		},
		logger: logger,
		now:    time.Now,
	}
}

// FetchStopData fetches every configured feed and merges the results.
// Feed order and the upstream departure order are preserved; the
// renderer reproduces them verbatim.
func (c *Client) FetchStopData(ctx context.Context, feeds []models.StopFeed) (models.StopData, error) {
	stops := make(models.StopData)

	for _, feed := range feeds {
		resp, err := c.fetchFeed(ctx, feed.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch feed for agency %s: %w", feed.Agency, err)
		}

		directions, ok := stops[feed.Agency]
		if !ok {
			directions = make(map[string][]models.LineDepartures)
			stops[feed.Agency] = directions
		}
		c.groupDepartures(directions, resp.Departures)

		c.logger.Debug("Fetched stop feed",
			zap.String("agency", feed.Agency),
			zap.String("path", feed.Path),
			zap.Int("departures", len(resp.Departures)))
	}

	return stops, nil
}

// fetchFeed performs one GET against the predictions API.
func (c *Client) fetchFeed(ctx context.Context, path string) (*departureResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d from %s", resp.StatusCode, path)
	}

	var body departureResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return &body, nil
}

// groupDepartures files departures under their direction, merging
// repeated (route, destination) pairs into one line with multiple
// upcoming arrivals. First-appearance order is kept for both lines and
// arrivals.
func (c *Client) groupDepartures(directions map[string][]models.LineDepartures, deps []departure) {
	type lineKey struct {
		direction string
		line      string
		dest      string
	}
	index := make(map[lineKey]int)

	now := c.now()

	for _, dep := range deps {
		line := models.LineInfo{
			Line:        dep.RouteShortName,
			Destination: dep.Description,
		}

		minutes := int(time.Unix(dep.DepartureTime, 0).Sub(now).Minutes())
		if minutes < 0 {
			minutes = 0
		}

		key := lineKey{dep.DirectionText, line.Line, line.Destination}
		if i, ok := index[key]; ok {
			lines := directions[dep.DirectionText]
			lines[i].Upcoming = append(lines[i].Upcoming, models.Upcoming{Minutes: minutes})
			continue
		}

		directions[dep.DirectionText] = append(directions[dep.DirectionText], models.LineDepartures{
			Line:     line,
			Upcoming: []models.Upcoming{{Minutes: minutes}},
		})
		index[key] = len(directions[dep.DirectionText]) - 1
	}
}
