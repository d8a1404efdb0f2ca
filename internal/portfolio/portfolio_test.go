package portfolio

import (
	"math"
	"testing"
	"time"

	"systemtrade/internal/data"
	"systemtrade/internal/domain"
)

func handlerFor(t *testing.T, symbol string, closes ...float64) *data.HistoricHandler {
	t.Helper()
	bars := make([]domain.Bar, len(closes))
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, c := range closes {
		bars[i] = domain.Bar{Symbol: symbol, Timestamp: start.AddDate(0, 0, i), Close: c}
	}
	return data.NewHistoricHandler([]string{symbol}, map[string][]domain.Bar{symbol: bars})
}

func fillFor(order *domain.Order, price float64, ts time.Time) domain.Fill {
	return domain.Fill{
		OrderID:    order.ID,
		Timestamp:  ts,
		Symbol:     order.Symbol,
		Exchange:   "SIM",
		Quantity:   order.Quantity,
		Side:       order.Side,
		Cost:       price * float64(order.Quantity),
		Commission: 0,
	}
}

func TestSignalSizingRoundTrip(t *testing.T) {
	h := handlerFor(t, "AAPL", 100, 110)
	h.UpdateBars()
	p := New(h, 100000, 100, 1)

	// LONG with strength 1.0 against a flat book: BUY 100.
	order := p.OnSignal(domain.Signal{Symbol: "AAPL", Direction: domain.SignalLong, Strength: 1.0})
	if order == nil {
		t.Fatal("LONG signal produced no order")
	}
	if order.Side != domain.SideBuy || order.Quantity != 100 || order.Type != domain.OrderTypeMarket {
		t.Errorf("order = %+v, want BUY 100 MKT", order)
	}
	if order.ID == "" {
		t.Error("order has no ID")
	}

	if err := p.OnFill(fillFor(order, 100, time.Now())); err != nil {
		t.Fatalf("OnFill: %v", err)
	}
	if p.Position("AAPL") != 100 {
		t.Errorf("position = %d, want 100", p.Position("AAPL"))
	}
	if p.Cash() != 90000 {
		t.Errorf("cash after buy = %v, want 90000", p.Cash())
	}

	// EXIT against the long position: SELL 100, cash back up by the
	// proceeds at the new price.
	h.UpdateBars()
	exit := p.OnSignal(domain.Signal{Symbol: "AAPL", Direction: domain.SignalExit, Strength: 1.0})
	if exit == nil {
		t.Fatal("EXIT signal produced no order")
	}
	if exit.Side != domain.SideSell || exit.Quantity != 100 {
		t.Errorf("exit order = %+v, want SELL 100", exit)
	}
	if err := p.OnFill(fillFor(exit, 110, time.Now())); err != nil {
		t.Fatalf("OnFill: %v", err)
	}
	if p.Position("AAPL") != 0 {
		t.Errorf("position after exit = %d, want 0", p.Position("AAPL"))
	}
	if p.Cash() != 101000 {
		t.Errorf("cash after round trip = %v, want 101000", p.Cash())
	}

	trades := p.RealizedTrades()
	if len(trades) != 1 || trades[0] != 1000 {
		t.Errorf("realized trades = %v, want [1000]", trades)
	}
}

func TestSignalGuardMatrix(t *testing.T) {
	h := handlerFor(t, "AAPL", 100)
	h.UpdateBars()
	p := New(h, 100000, 100, 1)

	// EXIT while flat: suppressed.
	if o := p.OnSignal(domain.Signal{Symbol: "AAPL", Direction: domain.SignalExit, Strength: 1.0}); o != nil {
		t.Errorf("EXIT while flat produced %+v", o)
	}

	// Open a long.
	order := p.OnSignal(domain.Signal{Symbol: "AAPL", Direction: domain.SignalLong, Strength: 1.0})
	if order == nil {
		t.Fatal("LONG produced no order")
	}
	if err := p.OnFill(fillFor(order, 100, time.Now())); err != nil {
		t.Fatalf("OnFill: %v", err)
	}

	// LONG while already long: suppressed.
	if o := p.OnSignal(domain.Signal{Symbol: "AAPL", Direction: domain.SignalLong, Strength: 1.0}); o != nil {
		t.Errorf("LONG while long produced %+v", o)
	}
	// SHORT while long: suppressed.
	if o := p.OnSignal(domain.Signal{Symbol: "AAPL", Direction: domain.SignalShort, Strength: 1.0}); o != nil {
		t.Errorf("SHORT while long produced %+v", o)
	}
}

func TestZeroQuantitySuppressed(t *testing.T) {
	h := handlerFor(t, "AAPL", 100)
	h.UpdateBars()
	p := New(h, 100000, 100, 1)

	// floor(100 × 0.0) = 0 shares: the invalid order is suppressed, not
	// returned and not an error.
	if o := p.OnSignal(domain.Signal{Symbol: "AAPL", Direction: domain.SignalLong, Strength: 0}); o != nil {
		t.Errorf("zero-strength signal produced %+v", o)
	}
}

func TestPendingOrderGuardsEntry(t *testing.T) {
	h := handlerFor(t, "AAPL", 100)
	h.UpdateBars()
	p := New(h, 100000, 100, 1)

	// First entry emits an order; a second entry signal arriving before
	// the fill must see the pending quantity and stay silent.
	first := p.OnSignal(domain.Signal{Symbol: "AAPL", Direction: domain.SignalLong, Strength: 1.0})
	if first == nil {
		t.Fatal("first LONG produced no order")
	}
	if second := p.OnSignal(domain.Signal{Symbol: "AAPL", Direction: domain.SignalLong, Strength: 1.0}); second != nil {
		t.Errorf("LONG with pending entry produced %+v", second)
	}

	// After the fill the book is long; a duplicate exit after the first
	// exit order is likewise suppressed.
	if err := p.OnFill(fillFor(first, 100, time.Now())); err != nil {
		t.Fatalf("OnFill: %v", err)
	}
	exit := p.OnSignal(domain.Signal{Symbol: "AAPL", Direction: domain.SignalExit, Strength: 1.0})
	if exit == nil {
		t.Fatal("EXIT produced no order")
	}
	if dup := p.OnSignal(domain.Signal{Symbol: "AAPL", Direction: domain.SignalExit, Strength: 1.0}); dup != nil {
		t.Errorf("EXIT with pending exit produced %+v", dup)
	}
}

func TestCancelOrderReleasesPending(t *testing.T) {
	h := handlerFor(t, "AAPL", 100)
	h.UpdateBars()
	p := New(h, 100000, 100, 1)

	// A rejected entry is cancelled; the guard must stop counting it so
	// the next entry signal can size an order again.
	first := p.OnSignal(domain.Signal{Symbol: "AAPL", Direction: domain.SignalLong, Strength: 1.0})
	if first == nil {
		t.Fatal("first LONG produced no order")
	}
	p.CancelOrder(first.ID)

	// An EXIT after the cancellation sees a flat book and stays silent.
	if o := p.OnSignal(domain.Signal{Symbol: "AAPL", Direction: domain.SignalExit, Strength: 1.0}); o != nil {
		t.Errorf("EXIT after cancelled entry produced %+v", o)
	}

	second := p.OnSignal(domain.Signal{Symbol: "AAPL", Direction: domain.SignalLong, Strength: 1.0})
	if second == nil {
		t.Fatal("LONG after cancellation produced no order")
	}

	// A late fill for the cancelled order is dropped like any unmatched
	// fill.
	if err := p.OnFill(fillFor(first, 100, time.Now())); err != nil {
		t.Fatalf("OnFill cancelled: %v", err)
	}
	if p.Cash() != 100000 || p.Position("AAPL") != 0 {
		t.Errorf("cancelled order's fill mutated state: cash=%v pos=%d", p.Cash(), p.Position("AAPL"))
	}

	if err := p.OnFill(fillFor(second, 100, time.Now())); err != nil {
		t.Fatalf("OnFill: %v", err)
	}
	if p.Position("AAPL") != 100 {
		t.Errorf("position = %d, want 100", p.Position("AAPL"))
	}
}

func TestShortRoundTrip(t *testing.T) {
	h := handlerFor(t, "AAPL", 100, 90)
	h.UpdateBars()
	p := New(h, 100000, 100, 1)

	short := p.OnSignal(domain.Signal{Symbol: "AAPL", Direction: domain.SignalShort, Strength: 1.0})
	if short == nil || short.Side != domain.SideSell || short.Quantity != 100 {
		t.Fatalf("SHORT order = %+v, want SELL 100", short)
	}
	if err := p.OnFill(fillFor(short, 100, time.Now())); err != nil {
		t.Fatalf("OnFill: %v", err)
	}
	if p.Position("AAPL") != -100 {
		t.Errorf("position = %d, want -100", p.Position("AAPL"))
	}
	if p.Cash() != 110000 {
		t.Errorf("cash after short sale = %v, want 110000", p.Cash())
	}

	h.UpdateBars()
	cover := p.OnSignal(domain.Signal{Symbol: "AAPL", Direction: domain.SignalExit, Strength: 1.0})
	if cover == nil || cover.Side != domain.SideBuy || cover.Quantity != 100 {
		t.Fatalf("cover order = %+v, want BUY 100", cover)
	}
	if err := p.OnFill(fillFor(cover, 90, time.Now())); err != nil {
		t.Fatalf("OnFill: %v", err)
	}
	if p.Position("AAPL") != 0 {
		t.Errorf("position after cover = %d, want 0", p.Position("AAPL"))
	}
	if p.Cash() != 101000 {
		t.Errorf("cash after short round trip = %v, want 101000", p.Cash())
	}
	if trades := p.RealizedTrades(); len(trades) != 1 || trades[0] != 1000 {
		t.Errorf("realized trades = %v, want [1000]", trades)
	}
}

func TestLedgerInvariant(t *testing.T) {
	h := handlerFor(t, "AAPL", 100, 105, 95)
	p := New(h, 100000, 100, 1)

	var order *domain.Order
	step := 0
	for h.UpdateBars() {
		step++
		if err := p.OnMarket(); err != nil {
			t.Fatalf("OnMarket: %v", err)
		}
		if step == 1 {
			order = p.OnSignal(domain.Signal{Symbol: "AAPL", Direction: domain.SignalLong, Strength: 1.0})
			if order == nil {
				t.Fatal("no order")
			}
			if err := p.OnFill(fillFor(order, 100, time.Now())); err != nil {
				t.Fatalf("OnFill: %v", err)
			}
		}
	}

	ledger := p.Ledger()
	if len(ledger) != 3 {
		t.Fatalf("ledger has %d rows, want 3", len(ledger))
	}
	for i, snap := range ledger {
		sum := snap.Cash
		for _, v := range snap.Holdings {
			sum += v
		}
		if math.Abs(snap.Total-sum) > 1e-9 {
			t.Errorf("row %d: total %v != cash+holdings %v", i, snap.Total, sum)
		}
	}

	// Mark-to-market moves total with the close: bar 2 total is
	// 90000 cash + 100×105, bar 3 is 90000 + 100×95.
	if ledger[1].Total != 100500 {
		t.Errorf("bar 2 total = %v, want 100500", ledger[1].Total)
	}
	if ledger[2].Total != 99500 {
		t.Errorf("bar 3 total = %v, want 99500", ledger[2].Total)
	}
}

func TestUnmatchedAndDuplicateFillsDropped(t *testing.T) {
	h := handlerFor(t, "AAPL", 100)
	h.UpdateBars()
	p := New(h, 100000, 100, 1)

	// A fill with no originating order changes nothing.
	stray := domain.Fill{
		OrderID: "never-issued", Symbol: "AAPL", Quantity: 100,
		Side: domain.SideBuy, Cost: 10000,
	}
	if err := p.OnFill(stray); err != nil {
		t.Fatalf("OnFill stray: %v", err)
	}
	if p.Cash() != 100000 || p.Position("AAPL") != 0 {
		t.Errorf("stray fill mutated state: cash=%v pos=%d", p.Cash(), p.Position("AAPL"))
	}

	// Replaying the same fill twice applies it once.
	order := p.OnSignal(domain.Signal{Symbol: "AAPL", Direction: domain.SignalLong, Strength: 1.0})
	fill := fillFor(order, 100, time.Now())
	if err := p.OnFill(fill); err != nil {
		t.Fatalf("OnFill: %v", err)
	}
	if err := p.OnFill(fill); err != nil {
		t.Fatalf("OnFill replay: %v", err)
	}
	if p.Cash() != 90000 || p.Position("AAPL") != 100 {
		t.Errorf("replayed fill double-counted: cash=%v pos=%d", p.Cash(), p.Position("AAPL"))
	}
}

func TestEqualWeightSplit(t *testing.T) {
	h := handlerFor(t, "AAPL", 100)
	h.UpdateBars()

	// Four strategies sharing the account: allocation 100 splits to 25.
	p := New(h, 100000, 100, 4)
	order := p.OnSignal(domain.Signal{Symbol: "AAPL", Direction: domain.SignalLong, Strength: 1.0})
	if order == nil || order.Quantity != 25 {
		t.Fatalf("order = %+v, want quantity 25", order)
	}
}

func TestCommissionReducesCash(t *testing.T) {
	h := handlerFor(t, "AAPL", 100)
	h.UpdateBars()
	p := New(h, 100000, 100, 1)

	order := p.OnSignal(domain.Signal{Symbol: "AAPL", Direction: domain.SignalLong, Strength: 1.0})
	fill := fillFor(order, 100, time.Now())
	fill.Commission = 1.5
	if err := p.OnFill(fill); err != nil {
		t.Fatalf("OnFill: %v", err)
	}
	if p.Cash() != 100000-10000-1.5 {
		t.Errorf("cash = %v, want %v", p.Cash(), 100000-10000-1.5)
	}
}
