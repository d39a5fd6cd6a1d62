package milknet

import (
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// Batch flag bits.
const (
	FlagActive  uint8 = 0x1
	FlagDeleted uint8 = 0x2
)

// Batch is one milk batch listed by a farmer.
type Batch struct {
	ID            *big.Int
	Farmer        common.Address
	Quantity      *big.Int // liters
	PricePerLiter *big.Int // wei
	Expiry        time.Time
	Flags         uint8
}

// Active reports whether the batch can still be ordered at now.
func (b *Batch) Active(now time.Time) bool {
	return b.Flags&FlagActive != 0 && b.Flags&FlagDeleted == 0 && b.Expiry.After(now)
}

// Cost is the price of quantity liters from this batch.
func (b *Batch) Cost(quantity *big.Int) *big.Int {
	return new(big.Int).Mul(b.PricePerLiter, quantity)
}

// Order is a buyer's order against a batch.
type Order struct {
	ID          *big.Int
	BatchID     *big.Int
	Consumer    common.Address
	Farmer      common.Address
	Quantity    *big.Int
	TotalPrice  *big.Int // wei
	IsDelivered bool
}

// Participant is a registered farmer or consumer.
type Participant struct {
	Name         string
	Location     string
	IsRegistered bool
}
