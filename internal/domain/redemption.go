package domain

import (
	"crypto/sha256"
	"encoding/binary"
	"math"
	"math/bits"
	"time"

	"fuelanchor/internal/geo"
)

// UnitScale is the fixed-point scale of fuel prices and computed units (7 decimals).
const UnitScale = 10_000_000

// RedemptionRecord is the immutable result of a successful redemption.
type RedemptionRecord struct {
	ID        ID
	Counter   uint64
	Driver    Address
	StationID ID
	Amount    int64
	Units     int64
	GPS       geo.Point
	Sequence  uint64
	Timestamp time.Time
	VehicleID string
}

// RedemptionID derives the record id for the given value of the global redemption counter:
// SHA-256 of the counter as 8 big-endian bytes.
func RedemptionID(counter uint64) ID {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], counter)
	return sha256.Sum256(buf[:])
}

// ComputeUnits returns amount*UnitScale/price truncated toward zero.
// ok is false when amount or price is not positive or the result does not fit in int64.
func ComputeUnits(amount, price int64) (units int64, ok bool) {
	if amount <= 0 || price <= 0 {
		return 0, false
	}
	hi, lo := bits.Mul64(uint64(amount), UnitScale)
	if hi >= uint64(price) {
		return 0, false
	}
	q, _ := bits.Div64(hi, lo, uint64(price))
	if q > math.MaxInt64 {
		return 0, false
	}
	return int64(q), true
}
