package transit

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/inkboard/board-renderer/internal/config"
	"github.com/inkboard/board-renderer/pkg/models"
	"go.uber.org/zap"
)

// testNow is the fixed clock all departure times are computed against.
var testNow = time.Unix(1_700_000_000, 0)

func testServer(t *testing.T, handler http.HandlerFunc) (*httptest.Server, *Client) {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client := NewClient(&config.TransitConfig{
		BaseURL:        server.URL,
		RequestTimeout: 5,
	}, zap.NewNop())
	client.now = func() time.Time { return testNow }

	return server, client
}

func TestFetchStopData(t *testing.T) {
	_, client := testServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/stops/100" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"departures": [
				{"route_short_name": "A", "description": " Downtown", "direction_text": "NB", "departure_time": 1700000180},
				{"route_short_name": "B", "description": " Airport", "direction_text": "NB", "departure_time": 1700000300},
				{"route_short_name": "A", "description": " Downtown", "direction_text": "NB", "departure_time": 1700000660},
				{"route_short_name": "C", "description": " Harbor", "direction_text": "SB", "departure_time": 1699999000}
			]
		}`))
	})

	feeds := []models.StopFeed{{Agency: "metro", Path: "/stops/100"}}

	stops, err := client.FetchStopData(context.Background(), feeds)
	if err != nil {
		t.Fatalf("FetchStopData failed: %v", err)
	}

	northbound := stops["metro"]["NB"]
	if len(northbound) != 2 {
		t.Fatalf("Expected 2 northbound lines, got %d", len(northbound))
	}

	t.Run("preserves first-appearance line order", func(t *testing.T) {
		if northbound[0].Line.Line != "A" || northbound[1].Line.Line != "B" {
			t.Errorf("Unexpected line order: %q, %q", northbound[0].Line.Line, northbound[1].Line.Line)
		}
	})

	t.Run("merges repeated lines into one entry", func(t *testing.T) {
		a := northbound[0]
		if len(a.Upcoming) != 2 {
			t.Fatalf("Expected 2 upcoming arrivals for line A, got %d", len(a.Upcoming))
		}
		if a.Upcoming[0].Minutes != 3 || a.Upcoming[1].Minutes != 11 {
			t.Errorf("Unexpected minutes: %d, %d", a.Upcoming[0].Minutes, a.Upcoming[1].Minutes)
		}
	})

	t.Run("groups by direction", func(t *testing.T) {
		southbound := stops["metro"]["SB"]
		if len(southbound) != 1 || southbound[0].Line.Line != "C" {
			t.Fatalf("Expected single southbound line C, got %+v", southbound)
		}
	})

	t.Run("clamps departed vehicles to zero minutes", func(t *testing.T) {
		southbound := stops["metro"]["SB"]
		if got := southbound[0].Upcoming[0].Minutes; got != 0 {
			t.Errorf("Expected 0 minutes for past departure, got %d", got)
		}
	})
}

func TestFetchStopDataUpstreamError(t *testing.T) {
	_, client := testServer(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream broken", http.StatusInternalServerError)
	})

	feeds := []models.StopFeed{{Agency: "metro", Path: "/stops/100"}}

	if _, err := client.FetchStopData(context.Background(), feeds); err == nil {
		t.Fatal("Expected error for upstream 500")
	}
}

func TestFetchStopDataBadJSON(t *testing.T) {
	_, client := testServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("{not json"))
	})

	feeds := []models.StopFeed{{Agency: "metro", Path: "/x"}}

	if _, err := client.FetchStopData(context.Background(), feeds); err == nil {
		t.Fatal("Expected error for malformed response")
	}
}

// fakeCache records cache traffic for Source tests.
type fakeCache struct {
	stops models.StopData
	sets  int
}

func (f *fakeCache) GetStopData(ctx context.Context) (models.StopData, bool, error) {
	if f.stops == nil {
		return nil, false, nil
	}
	return f.stops, true, nil
}

func (f *fakeCache) SetStopData(ctx context.Context, stops models.StopData) error {
	f.stops = stops
	f.sets++
	return nil
}

func TestSourceUsesCache(t *testing.T) {
	requests := 0
	_, client := testServer(t, func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.Write([]byte(`{"departures": [{"route_short_name": "A", "description": " Downtown", "direction_text": "NB", "departure_time": 1700000180}]}`))
	})

	cache := &fakeCache{}
	source := NewSource(client, []models.StopFeed{{Agency: "metro", Path: "/stops/100"}}, cache, zap.NewNop())

	first, err := source.StopData(context.Background())
	if err != nil {
		t.Fatalf("First StopData failed: %v", err)
	}
	if requests != 1 {
		t.Fatalf("Expected 1 upstream request, got %d", requests)
	}
	if cache.sets != 1 {
		t.Errorf("Expected fetched data to be cached, sets=%d", cache.sets)
	}

	second, err := source.StopData(context.Background())
	if err != nil {
		t.Fatalf("Second StopData failed: %v", err)
	}
	if requests != 1 {
		t.Errorf("Expected cache hit to skip upstream, requests=%d", requests)
	}
	if len(second) != len(first) {
		t.Error("Cache returned different data")
	}
}

func TestSourceWithoutCache(t *testing.T) {
	requests := 0
	_, client := testServer(t, func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.Write([]byte(`{"departures": []}`))
	})

	source := NewSource(client, []models.StopFeed{{Agency: "metro", Path: "/stops/100"}}, nil, zap.NewNop())

	for i := 0; i < 2; i++ {
		if _, err := source.StopData(context.Background()); err != nil {
			t.Fatalf("StopData failed: %v", err)
		}
	}
	if requests != 2 {
		t.Errorf("Expected every call to hit upstream, requests=%d", requests)
	}
}
