// Package ledger provides the ledger sequence used for window rollover arithmetic.
package ledger

import (
	"sync"
	"time"

	"fuelanchor/internal/domain"
)

const (
	// DefaultInterval is the time between ledger sequences.
	DefaultInterval = 5 * time.Second

	// DefaultLedgersPerDay is one day of 5-second ledgers.
	DefaultLedgersPerDay = 17_280

	// DaysPerWeek scales the day window to the week window.
	DaysPerWeek = 7
)

// Clock reports the current ledger sequence and wall-clock time.
type Clock interface {
	Sequence() uint64
	Now() time.Time
}

// SystemClock derives the sequence from elapsed time since a fixed genesis.
type SystemClock struct {
	genesis  time.Time
	interval time.Duration
	now      func() time.Time
}

// NewSystemClock creates a SystemClock. A non-positive interval uses DefaultInterval.
func NewSystemClock(genesis time.Time, interval time.Duration) *SystemClock {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &SystemClock{genesis: genesis, interval: interval, now: time.Now}
}

// Sequence returns the number of whole intervals since genesis. Times before genesis map to 0.
func (c *SystemClock) Sequence() uint64 {
	elapsed := c.now().Sub(c.genesis)
	if elapsed <= 0 {
		return 0
	}
	return uint64(elapsed / c.interval)
}

// Now returns the current time in UTC.
func (c *SystemClock) Now() time.Time {
	return c.now().UTC()
}

// ManualClock is a Clock whose sequence only moves when told to.
type ManualClock struct {
	mu  sync.Mutex
	seq uint64
	now time.Time
}

// NewManualClock creates a ManualClock at the given sequence.
func NewManualClock(seq uint64) *ManualClock {
	return &ManualClock{seq: seq, now: time.Unix(1_700_000_000, 0).UTC()}
}

func (c *ManualClock) Sequence() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.seq
}

func (c *ManualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by n ledgers.
func (c *ManualClock) Advance(n uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq += n
	c.now = c.now.Add(time.Duration(n) * DefaultInterval)
}

// WindowsFor returns the day and week windows for the given day length.
func WindowsFor(ledgersPerDay uint64) domain.Windows {
	if ledgersPerDay == 0 {
		ledgersPerDay = DefaultLedgersPerDay
	}
	return domain.Windows{Day: ledgersPerDay, Week: ledgersPerDay * DaysPerWeek}
}
