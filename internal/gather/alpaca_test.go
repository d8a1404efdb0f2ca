package gather

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"

	"systemtrade/internal/store"
	"systemtrade/internal/util"
)

type fakeBarClient struct {
	calls    [][]string
	failures int
	bars     map[string][]marketdata.Bar
}

func (f *fakeBarClient) GetMultiBars(symbols []string, _ marketdata.GetBarsRequest) (map[string][]marketdata.Bar, error) {
	f.calls = append(f.calls, append([]string(nil), symbols...))
	if f.failures > 0 {
		f.failures--
		return nil, errors.New("transient API error")
	}
	out := make(map[string][]marketdata.Bar)
	for _, sym := range symbols {
		out[sym] = f.bars[sym]
	}
	return out, nil
}

func testGatherer(t *testing.T, client barClient, symbols []string, batchSize int) (*DailyBarGatherer, *store.ParquetStore) {
	t.Helper()
	ps := store.NewParquetStore(t.TempDir())
	g := &DailyBarGatherer{
		client:     client,
		store:      ps,
		symbols:    symbols,
		startDate:  "2024-01-01",
		batchSize:  batchSize,
		maxRetries: 3,
		retryDelay: 0,
		limiter:    util.NewRateLimiter(6000),
		log:        slog.Default(),
	}
	return g, ps
}

func TestDailyBarGathererWritesStore(t *testing.T) {
	day := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	client := &fakeBarClient{bars: map[string][]marketdata.Bar{
		"AAPL": {{Timestamp: day, Open: 185, High: 186, Low: 184, Close: 185.5, Volume: 1000}},
		"MSFT": {{Timestamp: day, Open: 400, High: 401, Low: 399, Close: 400.5, Volume: 2000}},
	}}
	g, ps := testGatherer(t, client, []string{"AAPL", "MSFT"}, 10)

	if err := g.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	symbols, err := ps.ListSymbols(context.Background(), "us")
	if err != nil {
		t.Fatalf("ListSymbols: %v", err)
	}
	if len(symbols) != 2 {
		t.Fatalf("stored %d symbols, want 2: %v", len(symbols), symbols)
	}

	bars, err := ps.ReadBars(context.Background(), "AAPL", "us",
		day.AddDate(0, 0, -1), day.AddDate(0, 0, 1))
	if err != nil {
		t.Fatalf("ReadBars: %v", err)
	}
	if len(bars) != 1 || bars[0].Close != 185.5 {
		t.Errorf("stored bars = %+v, want one AAPL bar at 185.5", bars)
	}
}

func TestDailyBarGathererBatches(t *testing.T) {
	client := &fakeBarClient{}
	g, _ := testGatherer(t, client, []string{"A", "B", "C", "D", "E"}, 2)

	if err := g.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(client.calls) != 3 {
		t.Fatalf("made %d API calls, want 3", len(client.calls))
	}
	if len(client.calls[0]) != 2 || len(client.calls[2]) != 1 {
		t.Errorf("batch sizes = %d, %d, %d, want 2, 2, 1",
			len(client.calls[0]), len(client.calls[1]), len(client.calls[2]))
	}
}

func TestDailyBarGathererRetriesTransientFailure(t *testing.T) {
	client := &fakeBarClient{failures: 2}
	g, _ := testGatherer(t, client, []string{"AAPL"}, 10)

	if err := g.Run(context.Background()); err != nil {
		t.Fatalf("Run after transient failures: %v", err)
	}
	if len(client.calls) != 3 {
		t.Errorf("made %d API calls, want 3 (two failures then success)", len(client.calls))
	}
}

func TestDailyBarGathererBadStartDate(t *testing.T) {
	g, _ := testGatherer(t, &fakeBarClient{}, []string{"AAPL"}, 10)
	g.startDate = "not-a-date"

	if err := g.Run(context.Background()); err == nil {
		t.Fatal("Run accepted invalid start date")
	}
}
