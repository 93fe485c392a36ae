// Package batch fans one quote request out across many legs, staggering the
// provider calls so a burst of related quotes does not trip upstream rate
// limits.
package batch

import (
	"context"
	"fmt"
	"math/big"
	"time"

	ethcommon "github.com/ethereum/go-ethereum/common"
	container "github.com/thehyperflames/dicontainer-go"
	"golang.org/x/sync/errgroup"

	"github.com/hxuan190/basket-engine/internal/config"
	"github.com/hxuan190/basket-engine/internal/domain"
	"github.com/hxuan190/basket-engine/internal/metrics"
	"github.com/hxuan190/basket-engine/internal/services"
	"github.com/hxuan190/basket-engine/internal/services/dust"
	"github.com/hxuan190/basket-engine/internal/services/quote"
)

const BATCH_SERVICE = "batch-service"

// QuoteEngine is the slice of the quote service the scheduler needs.
type QuoteEngine interface {
	QuoteTrade(ctx context.Context, req domain.QuoteRequest) (*domain.QuoteResult, error)
	QuoteSwap(ctx context.Context, req domain.QuoteRequest) (*domain.QuoteResult, error)
	Snapshots() quote.SnapshotReader
	SyncModules() []ethcommon.Address
}

type Scheduler struct {
	container.BaseDIInstance
	logger *services.ServiceLogger

	quotes QuoteEngine

	tradeDelayStep time.Duration
	swapDelayStep  time.Duration

	// sleep is swappable so tests can verify the stagger without waiting it
	// out. It must honor ctx cancellation.
	sleep func(ctx context.Context, d time.Duration) error
}

func (s *Scheduler) ID() string {
	return BATCH_SERVICE
}

func (s *Scheduler) Configure(c container.IContainer) error {
	s.logger = services.NewServiceLogger(s)

	engineConf := c.GetConfig(config.ENGINE_CONFIG_KEY).(*config.EngineConfig)
	s.tradeDelayStep = time.Duration(engineConf.TradeDelayStepMs) * time.Millisecond
	s.swapDelayStep = time.Duration(engineConf.SwapDelayStepMs) * time.Millisecond

	s.quotes = c.Instance(quote.QUOTE_SERVICE).(*quote.Service)
	s.sleep = sleepCtx

	return nil
}

func (s *Scheduler) Start() error { return nil }
func (s *Scheduler) Stop() error  { return nil }

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// QuoteTradeBatch quotes every leg of a rebalance concurrently. Results align
// with legs by index. The batch fails as a whole on the first leg error; a
// partial rebalance quote is useless to the caller.
//
// Before anything is scheduled the combined sell amounts are dust-checked
// against one shared snapshot, so a batch that is doomed in aggregate fails
// without burning provider calls.
func (s *Scheduler) QuoteTradeBatch(ctx context.Context, legs []domain.BatchLeg, delayStep *time.Duration) ([]*domain.QuoteResult, error) {
	start := time.Now()
	results, err := s.quoteTradeBatch(ctx, legs, s.stepOr(delayStep, s.tradeDelayStep))
	s.observe("trade", len(legs), start, err)
	return results, err
}

func (s *Scheduler) quoteTradeBatch(ctx context.Context, legs []domain.BatchLeg, step time.Duration) ([]*domain.QuoteResult, error) {
	if len(legs) == 0 {
		return nil, nil
	}

	if err := s.preCheck(ctx, legs); err != nil {
		return nil, err
	}

	return s.run(ctx, legs, step, s.quotes.QuoteTrade)
}

// QuoteSwapBatch quotes external funding swaps. Swap legs touch no basket
// accounting, so there is no aggregate pre-check and a much shorter stagger.
func (s *Scheduler) QuoteSwapBatch(ctx context.Context, legs []domain.BatchLeg, delayStep *time.Duration) ([]*domain.QuoteResult, error) {
	start := time.Now()
	results, err := s.run(ctx, legs, s.stepOr(delayStep, s.swapDelayStep), s.quotes.QuoteSwap)
	s.observe("swap", len(legs), start, err)
	return results, err
}

// ValidateTradeBatch runs only the aggregate dust pre-check, for callers that
// want to vet a rebalance plan without pricing it.
func (s *Scheduler) ValidateTradeBatch(ctx context.Context, legs []domain.BatchLeg) error {
	return s.preCheck(ctx, legs)
}

func (s *Scheduler) preCheck(ctx context.Context, legs []domain.BatchLeg) error {
	basket, ok := firstBasket(legs)
	if !ok {
		return nil
	}
	snap, err := s.quotes.Snapshots().FetchBasketSnapshot(ctx, basket, s.quotes.SyncModules())
	if err != nil {
		return err
	}
	return dust.ValidateBatch(snap, legs)
}

// run schedules leg i with an i*step start delay, indexed over the full leg
// list so a leg's earliest dispatch time is stable regardless of how many
// passthroughs precede it. Passthroughs are resolved before anything is
// scheduled so a malformed one fails without burning provider calls. The
// first leg error cancels the group.
func (s *Scheduler) run(ctx context.Context, legs []domain.BatchLeg, step time.Duration, quoteFn func(context.Context, domain.QuoteRequest) (*domain.QuoteResult, error)) ([]*domain.QuoteResult, error) {
	results := make([]*domain.QuoteResult, len(legs))
	for i, leg := range legs {
		if !leg.IsPassthrough() {
			continue
		}
		r, err := passthroughResult(leg)
		if err != nil {
			return nil, fmt.Errorf("leg %d: %w", i, err)
		}
		results[i] = r
	}

	g, ctx := errgroup.WithContext(ctx)
	for i, leg := range legs {
		req, ok := leg.Request()
		if !ok {
			continue
		}

		i, req, delay := i, req, time.Duration(i)*step
		g.Go(func() error {
			if err := s.sleep(ctx, delay); err != nil {
				return err
			}
			r, err := quoteFn(ctx, req)
			if err != nil {
				return fmt.Errorf("leg %d: %w", i, err)
			}
			results[i] = r
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// passthroughResult echoes the leg's raw unit amount on both sides with no
// calldata, keeping the result array aligned with the caller's leg array.
func passthroughResult(leg domain.BatchLeg) (*domain.QuoteResult, error) {
	amount, ok := new(big.Int).SetString(leg.RawAmount(), 10)
	if !ok || amount.Sign() < 0 {
		return nil, fmt.Errorf("passthrough amount %q is not a non-negative integer", leg.RawAmount())
	}
	return &domain.QuoteResult{
		FromUnits: amount,
		ToUnits:   new(big.Int).Set(amount),
	}, nil
}

func firstBasket(legs []domain.BatchLeg) (ethcommon.Address, bool) {
	for _, leg := range legs {
		if req, real := leg.Request(); real {
			return req.FromAddress, true
		}
	}
	return ethcommon.Address{}, false
}

func (s *Scheduler) stepOr(override *time.Duration, fallback time.Duration) time.Duration {
	if override != nil {
		return *override
	}
	return fallback
}

func (s *Scheduler) observe(mode string, legs int, start time.Time, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	metrics.BatchRequests.WithLabelValues(mode, status).Inc()
	metrics.BatchLegs.Observe(float64(legs))
	s.logger.Debug().
		Str("mode", mode).
		Int("legs", legs).
		Str("status", status).
		Dur("took", time.Since(start)).
		Msg("batch completed")
}
