package gather

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"

	"systemtrade/internal/domain"
	"systemtrade/internal/store"
	"systemtrade/internal/util"
)

var _ Gatherer = (*DailyBarGatherer)(nil)

// barClient is the slice of the Alpaca market-data client the gatherer uses.
type barClient interface {
	GetMultiBars(symbols []string, req marketdata.GetBarsRequest) (map[string][]marketdata.Bar, error)
}

// DailyBarGatherer gathers daily bar data for a configured symbol universe
// via the Alpaca market-data API and writes it to the Parquet store.
type DailyBarGatherer struct {
	client     barClient
	store      store.BarStore
	symbols    []string
	startDate  string
	batchSize  int
	maxRetries int
	retryDelay time.Duration
	limiter    *util.RateLimiter
	log        *slog.Logger
}

// NewDailyBarGatherer creates a DailyBarGatherer configured with the given
// Alpaca credentials, target store, symbol universe, and batch parameters.
func NewDailyBarGatherer(
	apiKey, apiSecret, dataURL string,
	s store.BarStore,
	symbols []string,
	startDate string,
	batchSize, rateLimitPerMin, maxRetries int,
) *DailyBarGatherer {
	opts := marketdata.ClientOpts{
		APIKey:    apiKey,
		APISecret: apiSecret,
	}
	if dataURL != "" {
		opts.BaseURL = dataURL
	}

	if batchSize <= 0 {
		batchSize = 200
	}
	if rateLimitPerMin <= 0 {
		rateLimitPerMin = 200
	}
	if maxRetries <= 0 {
		maxRetries = 3
	}

	return &DailyBarGatherer{
		client:     marketdata.NewClient(opts),
		store:      s,
		symbols:    symbols,
		startDate:  startDate,
		batchSize:  batchSize,
		maxRetries: maxRetries,
		retryDelay: time.Second,
		limiter:    util.NewRateLimiter(rateLimitPerMin),
		log:        slog.Default().With("gatherer", "daily-bars"),
	}
}

// Name returns the gatherer identifier.
func (g *DailyBarGatherer) Name() string { return "daily-bars" }

// Run fetches daily bars for the configured symbols from the start date to
// now and writes them to the store, one batch of symbols per API call.
// Already-stored bars are merged, so reruns are idempotent.
func (g *DailyBarGatherer) Run(ctx context.Context) error {
	start, err := time.Parse("2006-01-02", g.startDate)
	if err != nil {
		return fmt.Errorf("parsing start date %q: %w", g.startDate, err)
	}
	end := time.Now().UTC()

	if len(g.symbols) == 0 {
		g.log.Info("no symbols configured, nothing to gather")
		return nil
	}

	runStart := time.Now()
	var total int
	for i := 0; i < len(g.symbols); i += g.batchSize {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		batch := g.symbols[i:min(i+g.batchSize, len(g.symbols))]

		if err := g.limiter.Wait(ctx); err != nil {
			return err
		}

		var bars []domain.Bar
		err := util.Retry(ctx, g.maxRetries, g.retryDelay, func() error {
			var fetchErr error
			bars, fetchErr = g.fetchMultiBars(ctx, batch, start, end)
			return fetchErr
		})
		if err != nil {
			return fmt.Errorf("fetching batch %v: %w", batch, err)
		}

		if len(bars) > 0 {
			if err := g.store.WriteBars(ctx, bars, "us"); err != nil {
				return fmt.Errorf("writing batch %v: %w", batch, err)
			}
		}
		total += len(bars)

		g.log.Info("batch done",
			"symbols", len(batch),
			"bars", len(bars),
			"elapsed", time.Since(runStart).Round(time.Second),
		)
	}

	g.log.Info("complete", "bars", total, "elapsed", time.Since(runStart).Round(time.Second))
	return nil
}

// fetchMultiBars fetches daily bars for multiple symbols in a single API call.
func (g *DailyBarGatherer) fetchMultiBars(ctx context.Context, symbols []string, start, end time.Time) ([]domain.Bar, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	multiBars, err := g.client.GetMultiBars(symbols, marketdata.GetBarsRequest{
		TimeFrame: marketdata.OneDay,
		Start:     start,
		End:       end,
		Feed:      "sip",
	})
	if err != nil {
		return nil, fmt.Errorf("GetMultiBars: %w", err)
	}

	var bars []domain.Bar
	for symbol, alpacaBars := range multiBars {
		for _, ab := range alpacaBars {
			bars = append(bars, domain.Bar{
				Symbol:     strings.ToUpper(symbol),
				Timestamp:  ab.Timestamp,
				Open:       ab.Open,
				High:       ab.High,
				Low:        ab.Low,
				Close:      ab.Close,
				Volume:     int64(ab.Volume),
				TradeCount: int64(ab.TradeCount),
				VWAP:       ab.VWAP,
			})
		}
	}
	return bars, nil
}
