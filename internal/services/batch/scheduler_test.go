package batch

import (
	"context"
	"math/big"
	"sort"
	"sync"
	"testing"
	"time"

	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hxuan190/basket-engine/internal/common"
	"github.com/hxuan190/basket-engine/internal/domain"
	"github.com/hxuan190/basket-engine/internal/services"
	"github.com/hxuan190/basket-engine/internal/services/quote"
)

var (
	batchBasket = ethcommon.HexToAddress("0x1494CA1F11D487c2bBe4543E90080AeBa4BA3C2b")
	batchWbtc   = ethcommon.HexToAddress("0x2260FAC5E5542a773Aa44fBCfeDf7C193bc2C599")
	batchWeth   = ethcommon.HexToAddress("0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2")
	batchUsdc   = ethcommon.HexToAddress("0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48")
)

// fakeEngine answers quotes instantly and records which tokens it saw.
type fakeEngine struct {
	mu          sync.Mutex
	snap        *domain.BasketSnapshot
	errFor      ethcommon.Address
	syncModules []ethcommon.Address
	modulesSeen []ethcommon.Address
	tradeSeen   []ethcommon.Address
	swapSeen    []ethcommon.Address
}

func (f *fakeEngine) QuoteTrade(_ context.Context, req domain.QuoteRequest) (*domain.QuoteResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if req.FromToken == f.errFor {
		return nil, &common.DustPositionError{Side: "sell side", Token: req.FromToken, Units: big.NewInt(10)}
	}
	f.tradeSeen = append(f.tradeSeen, req.FromToken)
	return &domain.QuoteResult{FromToken: req.FromToken, ToToken: req.ToToken, FromUnits: big.NewInt(1), ToUnits: big.NewInt(2)}, nil
}

func (f *fakeEngine) QuoteSwap(_ context.Context, req domain.QuoteRequest) (*domain.QuoteResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.swapSeen = append(f.swapSeen, req.FromToken)
	return &domain.QuoteResult{FromToken: req.FromToken, FromUnits: big.NewInt(3), ToUnits: big.NewInt(4)}, nil
}

func (f *fakeEngine) Snapshots() quote.SnapshotReader { return f }

func (f *fakeEngine) SyncModules() []ethcommon.Address { return f.syncModules }

func (f *fakeEngine) FetchBasketSnapshot(_ context.Context, _ ethcommon.Address, modules []ethcommon.Address) (*domain.BasketSnapshot, error) {
	f.mu.Lock()
	f.modulesSeen = modules
	f.mu.Unlock()
	return f.snap, nil
}

func (f *fakeEngine) FetchManager(_ context.Context, _ ethcommon.Address) (ethcommon.Address, error) {
	return ethcommon.Address{}, nil
}

// virtualSleep records requested delays instead of waiting.
type virtualSleep struct {
	mu     sync.Mutex
	delays []time.Duration
}

func (v *virtualSleep) sleep(ctx context.Context, d time.Duration) error {
	v.mu.Lock()
	v.delays = append(v.delays, d)
	v.mu.Unlock()
	return ctx.Err()
}

func newScheduler(engine *fakeEngine, vs *virtualSleep) *Scheduler {
	s := &Scheduler{
		quotes:         engine,
		tradeDelayStep: 300 * time.Millisecond,
		swapDelayStep:  25 * time.Millisecond,
		sleep:          vs.sleep,
	}
	s.logger = services.NewServiceLogger(s)
	return s
}

func healthySnapshot() *domain.BasketSnapshot {
	return &domain.BasketSnapshot{
		Positions: []domain.Position{
			{Component: batchWbtc, Unit: big.NewInt(100000), State: domain.PositionStateDefault},
			{Component: batchWeth, Unit: big.NewInt(500000), State: domain.PositionStateDefault},
		},
		TotalSupply: new(big.Int).Set(common.Scale),
	}
}

func tradeLeg(from, to ethcommon.Address, amount string) domain.BatchLeg {
	return domain.RealLeg(domain.QuoteRequest{
		FromToken:    from,
		ToToken:      to,
		FromDecimals: 0,
		RawAmount:    amount,
		FromAddress:  batchBasket,
	})
}

func TestTradeBatchAlignsResultsWithLegs(t *testing.T) {
	engine := &fakeEngine{snap: healthySnapshot()}
	s := newScheduler(engine, &virtualSleep{})

	legs := []domain.BatchLeg{
		tradeLeg(batchWbtc, batchUsdc, "1000"),
		domain.PassthroughLeg("777"),
		tradeLeg(batchWeth, batchUsdc, "2000"),
	}

	results, err := s.QuoteTradeBatch(context.Background(), legs, nil)
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.Equal(t, batchWbtc, results[0].FromToken)
	assert.Equal(t, batchWeth, results[2].FromToken)

	// Passthrough echoes its raw amount with no calldata.
	assert.Equal(t, "777", results[1].FromUnits.String())
	assert.Equal(t, "777", results[1].ToUnits.String())
	assert.Empty(t, results[1].Calldata)
}

func TestTradeBatchStaggersRealLegs(t *testing.T) {
	engine := &fakeEngine{snap: healthySnapshot()}
	vs := &virtualSleep{}
	s := newScheduler(engine, vs)

	legs := []domain.BatchLeg{
		tradeLeg(batchWbtc, batchUsdc, "100"),
		domain.PassthroughLeg("1"),
		tradeLeg(batchWeth, batchUsdc, "200"),
		tradeLeg(batchWeth, batchWbtc, "300"),
	}

	_, err := s.QuoteTradeBatch(context.Background(), legs, nil)
	require.NoError(t, err)

	// The delay is the leg's index in the full list times the step, so the
	// real legs at indexes 0, 2 and 3 start no earlier than 0, 600ms and
	// 900ms even with a passthrough in between.
	sort.Slice(vs.delays, func(i, j int) bool { return vs.delays[i] < vs.delays[j] })
	assert.Equal(t, []time.Duration{0, 600 * time.Millisecond, 900 * time.Millisecond}, vs.delays)
}

func TestTradeBatchDelayOverride(t *testing.T) {
	engine := &fakeEngine{snap: healthySnapshot()}
	vs := &virtualSleep{}
	s := newScheduler(engine, vs)

	legs := []domain.BatchLeg{
		tradeLeg(batchWbtc, batchUsdc, "100"),
		tradeLeg(batchWeth, batchUsdc, "200"),
	}

	// Zero is a valid override, distinct from "unset".
	step := time.Duration(0)
	_, err := s.QuoteTradeBatch(context.Background(), legs, &step)
	require.NoError(t, err)

	sort.Slice(vs.delays, func(i, j int) bool { return vs.delays[i] < vs.delays[j] })
	assert.Equal(t, []time.Duration{0, 0}, vs.delays)
}

func TestTradeBatchAggregateDustPreCheck(t *testing.T) {
	// Either 480 leg alone would leave 520 and pass; the summed 960 leaves 40,
	// below the threshold of 50.
	snap := &domain.BasketSnapshot{
		Positions: []domain.Position{
			{Component: batchWbtc, Unit: big.NewInt(1000), State: domain.PositionStateDefault},
		},
		TotalSupply: new(big.Int).Set(common.Scale),
	}
	engine := &fakeEngine{snap: snap}
	s := newScheduler(engine, &virtualSleep{})

	legs := []domain.BatchLeg{
		tradeLeg(batchWbtc, batchUsdc, "480"),
		tradeLeg(batchWbtc, batchWeth, "480"),
	}

	_, err := s.QuoteTradeBatch(context.Background(), legs, nil)
	var dustErr *common.DustPositionError
	require.ErrorAs(t, err, &dustErr)
	assert.Equal(t, batchWbtc, dustErr.Token)

	// The pre-check fires before any leg is priced.
	assert.Empty(t, engine.tradeSeen)
}

func TestTradeBatchFirstErrorFailsWhole(t *testing.T) {
	engine := &fakeEngine{snap: healthySnapshot(), errFor: batchWeth}
	s := newScheduler(engine, &virtualSleep{})

	legs := []domain.BatchLeg{
		tradeLeg(batchWbtc, batchUsdc, "100"),
		tradeLeg(batchWeth, batchUsdc, "200"),
	}

	results, err := s.QuoteTradeBatch(context.Background(), legs, nil)
	var dustErr *common.DustPositionError
	require.ErrorAs(t, err, &dustErr)
	assert.Nil(t, results, "no partial results on failure")
}

func TestSwapBatchSkipsPreCheck(t *testing.T) {
	// A snapshot that would fail the trade pre-check is irrelevant to swaps.
	snap := &domain.BasketSnapshot{
		Positions: []domain.Position{
			{Component: batchWbtc, Unit: big.NewInt(1000), State: domain.PositionStateDefault},
		},
		TotalSupply: new(big.Int).Set(common.Scale),
	}
	engine := &fakeEngine{snap: snap}
	vs := &virtualSleep{}
	s := newScheduler(engine, vs)

	legs := []domain.BatchLeg{
		tradeLeg(batchWbtc, batchUsdc, "480"),
		tradeLeg(batchWbtc, batchWeth, "480"),
	}

	results, err := s.QuoteSwapBatch(context.Background(), legs, nil)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Len(t, engine.swapSeen, 2)

	sort.Slice(vs.delays, func(i, j int) bool { return vs.delays[i] < vs.delays[j] })
	assert.Equal(t, []time.Duration{0, 25 * time.Millisecond}, vs.delays)
}

func TestValidateTradeBatch(t *testing.T) {
	tradeModule := ethcommon.HexToAddress("0x90F765F63E7DC5aE97d6c576BF9e8878f4cfe147")
	engine := &fakeEngine{snap: healthySnapshot(), syncModules: []ethcommon.Address{tradeModule}}
	s := newScheduler(engine, &virtualSleep{})

	require.NoError(t, s.ValidateTradeBatch(context.Background(), []domain.BatchLeg{
		tradeLeg(batchWbtc, batchUsdc, "500"),
		tradeLeg(batchWbtc, batchWeth, "500"),
	}))

	// The pre-check snapshot asks for the same module sync as per-leg reads.
	assert.Equal(t, []ethcommon.Address{tradeModule}, engine.modulesSeen)
}

func TestEmptyBatch(t *testing.T) {
	s := newScheduler(&fakeEngine{}, &virtualSleep{})
	results, err := s.QuoteTradeBatch(context.Background(), nil, nil)
	require.NoError(t, err)
	assert.Nil(t, results)
}

func TestPassthroughRejectsNonInteger(t *testing.T) {
	engine := &fakeEngine{snap: healthySnapshot()}
	s := newScheduler(engine, &virtualSleep{})

	_, err := s.QuoteTradeBatch(context.Background(), []domain.BatchLeg{
		tradeLeg(batchWbtc, batchUsdc, "100"),
		domain.PassthroughLeg("12.5"),
	}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "passthrough amount")
}

var _ QuoteEngine = (*fakeEngine)(nil)
