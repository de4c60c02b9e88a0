package postgres_test

import (
	"context"
	"os"
	"testing"
	"time"

	"tradestream/config"
	"tradestream/internal/stream"
	"tradestream/pkg/storage/postgres"
)

func testClient(t *testing.T) *postgres.PostgresClient {
	t.Helper()
	if os.Getenv("TRADESTREAM_PG_TEST") == "" {
		t.Skip("set TRADESTREAM_PG_TEST to run against a local postgres")
	}

	cfg := config.PostgresConfig{
		Host:     "localhost",
		Port:     5432,
		User:     "postgres",
		Password: "yourpw",
		DBName:   "tradestream",
		SSLMode:  "disable",
		TimeZone: "UTC",
	}

	client, err := postgres.NewClient(cfg.DSN("dev"))
	if err != nil {
		t.Fatalf("failed to connect to DB: %v", err)
	}
	t.Cleanup(func() { client.Close() })

	if err := client.AutoMigrateBarRecord(); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return client
}

// go test -v --run TestBarUpsert
func TestBarUpsert(t *testing.T) {
	client := testClient(t)
	ctx := context.Background()

	start := time.Now().UTC().Truncate(time.Minute)
	record := &postgres.BarRecord{
		Symbol:   "AAPL",
		Kind:     "bars",
		BarStart: start,
		Open:     150.0,
		High:     151.0,
		Low:      149.5,
		Close:    150.5,
		Volume:   10000,
		Received: time.Now(),
	}

	if err := client.InsertBar(ctx, record); err != nil {
		t.Fatalf("insert failed: %v", err)
	}

	got, err := client.GetBar(ctx, "AAPL", "bars", start)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got.Close != 150.5 || got.Volume != 10000 {
		t.Errorf("unexpected bar values: %+v", got)
	}

	// An updated bar for the same minute overwrites the original row.
	record.Close = 150.8
	record.Volume = 12000
	if err := client.InsertBar(ctx, record); err != nil {
		t.Fatalf("upsert failed: %v", err)
	}

	got, err = client.GetBar(ctx, "AAPL", "bars", start)
	if err != nil {
		t.Fatalf("get after upsert failed: %v", err)
	}
	if got.Close != 150.8 || got.Volume != 12000 {
		t.Errorf("upsert did not overwrite: %+v", got)
	}

	if err := client.DeleteOldBars(ctx, start.Add(time.Minute)); err != nil {
		t.Errorf("cleanup failed: %v", err)
	}
}

// go test -v --run TestRecordBarFromStream
func TestRecordBarFromStream(t *testing.T) {
	client := testClient(t)
	ctx := context.Background()

	start := time.Now().UTC().Truncate(time.Minute)
	rec := stream.Record{
		Symbol:   "MSFT",
		Kind:     stream.KindBars,
		Received: time.Now(),
		Bar: &stream.BarData{
			Open:      400.0,
			High:      401.0,
			Low:       399.0,
			Close:     400.5,
			Volume:    5000,
			Timestamp: start,
		},
	}

	if err := client.RecordBar(ctx, rec); err != nil {
		t.Fatalf("record bar failed: %v", err)
	}

	got, err := client.GetBar(ctx, "MSFT", "bars", start)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got.Open != 400.0 || got.Close != 400.5 {
		t.Errorf("unexpected bar values: %+v", got)
	}

	// Records without bar payloads are ignored, not errors.
	if err := client.RecordBar(ctx, stream.Record{Symbol: "MSFT", Kind: stream.KindTrades}); err != nil {
		t.Errorf("non-bar record must be a no-op, got %v", err)
	}

	if err := client.DeleteOldBars(ctx, start.Add(time.Minute)); err != nil {
		t.Errorf("cleanup failed: %v", err)
	}
}
