package redis

import (
	"context"
	"testing"
	"time"

	"github.com/inkboard/board-renderer/pkg/models"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// testCache connects to a local Redis, skipping the test when none is
// available.
func testCache(t *testing.T) *Cache {
	t.Helper()

	client := redis.NewClient(&redis.Options{
		Addr: "localhost:6379",
		DB:   15,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("Redis not available at localhost:6379: %v", err)
	}

	cache := NewCacheFromClient(client, 30*time.Second, zap.NewNop())
	t.Cleanup(func() {
		client.Del(context.Background(), stopDataKey)
		cache.Close()
	})

	return cache
}

func TestCacheStopDataRoundtrip(t *testing.T) {
	cache := testCache(t)
	ctx := context.Background()

	stops := models.StopData{
		"metro": {
			"NB": []models.LineDepartures{
				{
					Line:     models.LineInfo{Line: "A", Destination: " Downtown"},
					Upcoming: []models.Upcoming{{Minutes: 3}, {Minutes: 11}},
				},
			},
		},
	}

	if err := cache.SetStopData(ctx, stops); err != nil {
		t.Fatalf("SetStopData failed: %v", err)
	}

	got, found, err := cache.GetStopData(ctx)
	if err != nil {
		t.Fatalf("GetStopData failed: %v", err)
	}
	if !found {
		t.Fatal("Expected cached stop data to be found")
	}

	lines := got["metro"]["NB"]
	if len(lines) != 1 {
		t.Fatalf("Expected 1 line, got %d", len(lines))
	}
	if lines[0].Line.Line != "A" || lines[0].Line.Destination != " Downtown" {
		t.Errorf("Unexpected line info: %+v", lines[0].Line)
	}
	if len(lines[0].Upcoming) != 2 || lines[0].Upcoming[0].Minutes != 3 {
		t.Errorf("Unexpected upcoming departures: %+v", lines[0].Upcoming)
	}
}

func TestCacheGetMissing(t *testing.T) {
	cache := testCache(t)
	ctx := context.Background()

	cache.client.Del(ctx, stopDataKey)

	_, found, err := cache.GetStopData(ctx)
	if err != nil {
		t.Fatalf("GetStopData failed: %v", err)
	}
	if found {
		t.Error("Expected no cached data after delete")
	}
}

func TestCachePing(t *testing.T) {
	cache := testCache(t)

	if err := cache.Ping(context.Background()); err != nil {
		t.Errorf("Ping failed: %v", err)
	}
}
