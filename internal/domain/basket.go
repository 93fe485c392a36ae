package domain

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// PositionState distinguishes positions accounted directly by the basket from
// positions whose value accrues in an external module.
type PositionState uint8

const (
	PositionStateDefault PositionState = iota
	PositionStateExternal
)

// Position is a read-only snapshot of one component held by the basket.
// Unit is the amount of Component held per 10^18 of basket-token supply.
type Position struct {
	Component common.Address
	Unit      *big.Int
	State     PositionState
	AuxData   hexutil.Bytes
}

// BasketSnapshot is the point-in-time on-chain state of a basket. It is
// fetched fresh per quote call and never mutated by the engine; all legs of a
// batch operate against the same snapshot.
type BasketSnapshot struct {
	Manager     common.Address
	Positions   []Position
	TotalSupply *big.Int
}

// PositionOf returns the position for the given component, or nil if the
// basket holds none.
func (s *BasketSnapshot) PositionOf(component common.Address) *Position {
	for i := range s.Positions {
		if s.Positions[i].Component == component {
			return &s.Positions[i]
		}
	}
	return nil
}
