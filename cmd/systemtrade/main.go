package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"systemtrade/internal/backtest"
	"systemtrade/internal/config"
	"systemtrade/internal/data"
	"systemtrade/internal/domain"
	"systemtrade/internal/execution"
	"systemtrade/internal/portfolio"
	"systemtrade/internal/store"
	"systemtrade/internal/strategy"
	"systemtrade/internal/strategy/builtins"
	"systemtrade/internal/util"
)

func main() {
	noSave := flag.Bool("no-save", false, "skip persisting the run to the results database")
	flag.Parse()

	cfgPath := "config/systemtrade.yaml"
	if p := os.Getenv("SYSTEMTRADE_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	logger := util.NewLogger(cfg.Logging.Level, cfg.Logging.Format)
	util.SetDefault(logger)

	bt := cfg.Backtest
	if len(bt.Symbols) == 0 {
		log.Fatal("no backtest symbols configured")
	}
	if len(bt.Strategies) == 0 {
		log.Fatal("no backtest strategies configured")
	}

	start, err := time.Parse("2006-01-02", bt.StartDate)
	if err != nil {
		log.Fatalf("parsing backtest start date: %v", err)
	}
	end, err := time.Parse("2006-01-02", bt.EndDate)
	if err != nil {
		log.Fatalf("parsing backtest end date: %v", err)
	}
	period := domain.Period(bt.Period)
	if bt.Period == "" {
		period = domain.PeriodDaily
	}

	// Load bar history from the Parquet store.
	ps := store.NewParquetStore(cfg.Storage.DataDir)
	history := make(map[string][]domain.Bar, len(bt.Symbols))
	for _, symbol := range bt.Symbols {
		bars, err := ps.ReadBars(context.Background(), symbol, bt.Market, start, end)
		if err != nil {
			log.Fatalf("reading bars for %s: %v", symbol, err)
		}
		if len(bars) == 0 {
			log.Fatalf("no bars stored for %s in %s between %s and %s",
				symbol, bt.Market, bt.StartDate, bt.EndDate)
		}
		history[symbol] = bars
	}
	handler := data.NewHistoricHandler(bt.Symbols, history)

	// Build the configured strategies from the registry.
	registry := strategy.NewRegistry()
	builtins.Register(registry)

	strategies := make([]strategy.Strategy, 0, len(bt.Strategies))
	for _, sc := range bt.Strategies {
		s, err := registry.New(sc.Name, handler, strategy.Params{
			ShortWindow:  sc.ShortWindow,
			LongWindow:   sc.LongWindow,
			SignalWindow: sc.SignalWindow,
			HighWindow:   sc.HighWindow,
			LowWindow:    sc.LowWindow,
			Window:       sc.Window,
			EMAWindow:    sc.EMAWindow,
		})
		if err != nil {
			log.Fatalf("building strategy: %v (available: %v)", err, registry.List())
		}
		strategies = append(strategies, s)
	}

	port := portfolio.New(handler, bt.InitialCapital, bt.Allocation, len(strategies))
	sim := execution.NewSimulator(handler, bt.Commission)
	heartbeat := time.Duration(bt.HeartbeatMS) * time.Millisecond
	run := backtest.New(handler, strategies, port, sim, period, heartbeat)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	startedAt := time.Now().UTC()
	summary, err := run.Run(ctx)
	if err != nil {
		log.Fatalf("backtest failed: %v", err)
	}

	printSummary(summary)

	if *noSave || cfg.Storage.SQLitePath == "" {
		return
	}
	if err := saveRun(ctx, cfg.Storage.SQLitePath, startedAt, period, cfg, run, summary); err != nil {
		log.Fatalf("saving run: %v", err)
	}
}

func printSummary(s portfolio.Summary) {
	fmt.Printf("Initial capital:    %14.2f\n", s.InitialCapital)
	fmt.Printf("Final equity:       %14.2f\n", s.FinalEquity)
	fmt.Printf("Total return:       %13.2f%%\n", s.TotalReturn*100)
	fmt.Printf("Sharpe ratio:       %14.2f\n", s.SharpeRatio)
	fmt.Printf("Max drawdown:       %13.2f%%\n", s.MaxDrawdown*100)
	fmt.Printf("Drawdown duration:  %11d bars\n", s.DrawdownDuration)
	fmt.Printf("Trades:             %14d\n", s.TotalTrades)
	if s.TotalTrades > 0 {
		fmt.Printf("Win rate:           %13.2f%%\n", s.WinRate*100)
		fmt.Printf("Profit factor:      %14.2f\n", s.ProfitFactor)
	}
}

func saveRun(
	ctx context.Context,
	dbPath string,
	startedAt time.Time,
	period domain.Period,
	cfg *config.Config,
	run *backtest.Backtest,
	summary portfolio.Summary,
) error {
	db, err := store.NewSQLiteStore(dbPath)
	if err != nil {
		return err
	}
	defer db.Close()

	strategyName := cfg.Backtest.Strategies[0].Name
	if len(cfg.Backtest.Strategies) > 1 {
		strategyName = "multi"
	}

	ledger := run.Portfolio().Ledger()
	curve := make([]store.EquityPoint, 0, len(ledger))
	for _, snap := range ledger {
		curve = append(curve, store.EquityPoint{
			Timestamp: snap.Timestamp,
			Cash:      snap.Cash,
			Total:     snap.Total,
		})
	}

	record := &store.Run{
		ID:          uuid.NewString(),
		Strategy:    strategyName,
		Symbols:     cfg.Backtest.Symbols,
		Market:      cfg.Backtest.Market,
		Period:      period,
		StartedAt:   startedAt,
		Summary:     summary,
		EquityCurve: curve,
	}
	if err := db.SaveRun(ctx, record); err != nil {
		return err
	}
	if err := db.SaveSignals(ctx, record.ID, run.Signals()); err != nil {
		return err
	}
	fmt.Printf("\nRun saved: %s\n", record.ID)
	return nil
}
