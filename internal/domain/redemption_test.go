package domain

import (
	"crypto/sha256"
	"math"
	"testing"
)

func TestRedemptionID_IsHashOfBigEndianCounter(t *testing.T) {
	t.Parallel()

	want := sha256.Sum256([]byte{0, 0, 0, 0, 0, 0, 0, 1})
	if got := RedemptionID(1); got != ID(want) {
		t.Errorf("unexpected id for counter 1: %s", got)
	}
	if RedemptionID(1) == RedemptionID(2) {
		t.Error("distinct counters must give distinct ids")
	}
	if RedemptionID(7) != RedemptionID(7) {
		t.Error("id derivation must be deterministic")
	}
}

func TestComputeUnits(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		amount int64
		price  int64
		want   int64
		ok     bool
	}{
		{"unit price", 5_000_000, 10_000_000, 5_000_000, true},
		{"half unit", 5_000_000, 100_000_000, 500_000, true},
		{"truncates", 1, 3, 3_333_333, true},
		{"large amount needs wide intermediate", math.MaxInt64 / 2, math.MaxInt64 / 4, 20_000_000, true},
		{"zero price", 1, 0, 0, false},
		{"negative price", 1, -5, 0, false},
		{"zero amount", 0, 1, 0, false},
		{"overflows int64", math.MaxInt64, 1, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ComputeUnits(tt.amount, tt.price)
			if ok != tt.ok || got != tt.want {
				t.Errorf("ComputeUnits(%d, %d) = (%d, %v), want (%d, %v)", tt.amount, tt.price, got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestIDTextRoundTrip(t *testing.T) {
	t.Parallel()

	id := RedemptionID(42)
	text, err := id.MarshalText()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var parsed ID
	if err := parsed.UnmarshalText(text); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if parsed != id {
		t.Errorf("expected %s, got %s", id, parsed)
	}

	if _, err := ParseID("abc"); err == nil {
		t.Error("expected error for short id")
	}
	if _, err := ParseID(string(make([]byte, 64))); err == nil {
		t.Error("expected error for non-hex id")
	}
}
