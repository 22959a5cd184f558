package domain

import (
	"slices"
	"time"
)

// SpendingLimits configures how much a driver may redeem.
type SpendingLimits struct {
	MaxPerTransaction int64
	DailyLimit        int64
	WeeklyLimit       int64
	AllowedStations   []ID // empty means unrestricted
}

// Valid reports whether every limit is non-negative.
func (l SpendingLimits) Valid() bool {
	return l.MaxPerTransaction >= 0 && l.DailyLimit >= 0 && l.WeeklyLimit >= 0
}

// Allows reports whether the allow-list admits stationID.
func (l SpendingLimits) Allows(stationID ID) bool {
	return len(l.AllowedStations) == 0 || slices.Contains(l.AllowedStations, stationID)
}

// Windows holds the rolling window lengths in ledger sequences.
type Windows struct {
	Day  uint64
	Week uint64
}

// QuotaState is the position of a driver's quota within a single redemption.
type QuotaState string

const (
	QuotaActive      QuotaState = "active"
	QuotaRolledOver  QuotaState = "rolled_over"
	QuotaCharged     QuotaState = "charged"
	QuotaDeactivated QuotaState = "deactivated"
)

// Driver is a fleet driver and their rolling usage counters.
type Driver struct {
	Address          Address
	FleetOperator    Address
	VehicleID        string
	Limits           SpendingLimits
	DailySpent       int64
	WeeklySpent      int64
	LastDailyReset   uint64
	LastWeeklyReset  uint64
	IsActive         bool
	TotalRedemptions uint64
	RegisteredAt     time.Time
}

// WindowRoll reports which windows RollWindows reset.
type WindowRoll struct {
	Daily  bool
	Weekly bool
}

// Any reports whether either window rolled.
func (r WindowRoll) Any() bool {
	return r.Daily || r.Weekly
}

// RollWindows resets each usage window whose length has elapsed at seq.
// The day and week windows are evaluated independently.
func (d *Driver) RollWindows(seq uint64, w Windows) WindowRoll {
	var roll WindowRoll
	if due(seq, d.LastDailyReset, w.Day) {
		d.DailySpent = 0
		d.LastDailyReset = seq
		roll.Daily = true
	}
	if due(seq, d.LastWeeklyReset, w.Week) {
		d.WeeklySpent = 0
		d.LastWeeklyReset = seq
		roll.Weekly = true
	}
	return roll
}

// RemainingDaily returns the daily allowance left at seq without mutating d.
func (d *Driver) RemainingDaily(seq uint64, w Windows) int64 {
	if due(seq, d.LastDailyReset, w.Day) {
		return d.Limits.DailyLimit
	}
	return d.Limits.DailyLimit - d.DailySpent
}

// RemainingWeekly returns the weekly allowance left at seq without mutating d.
func (d *Driver) RemainingWeekly(seq uint64, w Windows) int64 {
	if due(seq, d.LastWeeklyReset, w.Week) {
		return d.Limits.WeeklyLimit
	}
	return d.Limits.WeeklyLimit - d.WeeklySpent
}

// due treats a sequence behind the last reset as not yet due.
func due(seq, last, length uint64) bool {
	return seq >= last && seq-last >= length
}
