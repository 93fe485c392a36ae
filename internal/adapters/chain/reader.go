// Package chain implements the on-chain collaborators: basket snapshot reads
// and simulated trade gas estimation over an EVM JSON-RPC endpoint.
package chain

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/holiman/uint256"
	"github.com/rs/zerolog/log"

	"github.com/hxuan190/basket-engine/internal/domain"
	"github.com/hxuan190/basket-engine/internal/metrics"
)

const basketABIJSON = `[
	{"name":"manager","type":"function","stateMutability":"view","inputs":[],"outputs":[{"type":"address"}]},
	{"name":"totalSupply","type":"function","stateMutability":"view","inputs":[],"outputs":[{"type":"uint256"}]},
	{"name":"getPositions","type":"function","stateMutability":"view","inputs":[],"outputs":[{"type":"tuple[]","components":[
		{"name":"component","type":"address"},
		{"name":"module","type":"address"},
		{"name":"unit","type":"int256"},
		{"name":"positionState","type":"uint8"},
		{"name":"data","type":"bytes"}
	]}]}
]`

type Reader struct {
	client    *ethclient.Client
	basketABI abi.ABI
}

func NewReader(rpcURL string) (*Reader, error) {
	client, err := ethclient.Dial(rpcURL)
	if err != nil {
		return nil, fmt.Errorf("dial rpc: %w", err)
	}
	parsed, err := abi.JSON(strings.NewReader(basketABIJSON))
	if err != nil {
		return nil, fmt.Errorf("parse basket abi: %w", err)
	}
	return &Reader{client: client, basketABI: parsed}, nil
}

func (r *Reader) Close() {
	r.client.Close()
}

// Client exposes the underlying RPC client so the estimator can share the
// connection.
func (r *Reader) Client() *ethclient.Client {
	return r.client
}

type rawPosition struct {
	Component     ethcommon.Address
	Module        ethcommon.Address
	Unit          *big.Int
	PositionState uint8
	Data          []byte
}

// FetchBasketSnapshot reads manager, positions and total supply in one pass.
// View calls cannot force external modules to sync, so positions whose value
// accrues continuously may lag by a small per-block buffer; the modules list
// is accepted for interface compatibility and logged for observability.
func (r *Reader) FetchBasketSnapshot(ctx context.Context, basket ethcommon.Address, modules []ethcommon.Address) (*domain.BasketSnapshot, error) {
	start := time.Now()
	defer func() {
		metrics.SnapshotFetchDuration.Observe(time.Since(start).Seconds())
	}()

	manager, err := r.FetchManager(ctx, basket)
	if err != nil {
		return nil, err
	}

	supplyRes, err := r.call(ctx, basket, "totalSupply")
	if err != nil {
		return nil, fmt.Errorf("read totalSupply: %w", err)
	}
	supply := *abi.ConvertType(supplyRes[0], new(*big.Int)).(**big.Int)

	posRes, err := r.call(ctx, basket, "getPositions")
	if err != nil {
		return nil, fmt.Errorf("read positions: %w", err)
	}
	raw := *abi.ConvertType(posRes[0], new([]rawPosition)).(*[]rawPosition)

	positions := make([]domain.Position, 0, len(raw))
	for _, p := range raw {
		// Units are int256 on-chain but a live position is never negative;
		// reject anything outside uint256 rather than propagate garbage.
		if _, overflow := uint256.FromBig(p.Unit); overflow || p.Unit.Sign() < 0 {
			return nil, fmt.Errorf("position %s has invalid unit %s", p.Component.Hex(), p.Unit)
		}
		state := domain.PositionStateDefault
		if p.PositionState != 0 {
			state = domain.PositionStateExternal
		}
		positions = append(positions, domain.Position{
			Component: p.Component,
			Unit:      p.Unit,
			State:     state,
			AuxData:   p.Data,
		})
	}

	log.Debug().
		Str("basket", basket.Hex()).
		Int("positions", len(positions)).
		Int("modules", len(modules)).
		Msg("[chainReader] snapshot fetched")

	return &domain.BasketSnapshot{
		Manager:     manager,
		Positions:   positions,
		TotalSupply: supply,
	}, nil
}

// FetchManager reads only the basket's manager address, the lighter read used
// by the swap path.
func (r *Reader) FetchManager(ctx context.Context, basket ethcommon.Address) (ethcommon.Address, error) {
	res, err := r.call(ctx, basket, "manager")
	if err != nil {
		return ethcommon.Address{}, fmt.Errorf("read manager: %w", err)
	}
	return *abi.ConvertType(res[0], new(ethcommon.Address)).(*ethcommon.Address), nil
}

func (r *Reader) call(ctx context.Context, to ethcommon.Address, method string, args ...interface{}) ([]interface{}, error) {
	data, err := r.basketABI.Pack(method, args...)
	if err != nil {
		return nil, err
	}
	out, err := r.client.CallContract(ctx, ethereum.CallMsg{To: &to, Data: data}, nil)
	if err != nil {
		return nil, err
	}
	return r.basketABI.Unpack(method, out)
}
