package domain

import (
	"testing"
)

var testWindows = Windows{Day: 100, Week: 700}

func TestDriver_RollWindows_DailyOnly(t *testing.T) {
	t.Parallel()

	d := &Driver{DailySpent: 400, WeeklySpent: 900, LastDailyReset: 0, LastWeeklyReset: 0}
	roll := d.RollWindows(100, testWindows)

	if !roll.Daily || roll.Weekly {
		t.Fatalf("expected only daily roll, got %+v", roll)
	}
	if d.DailySpent != 0 || d.LastDailyReset != 100 {
		t.Errorf("daily window not reset: spent=%d last=%d", d.DailySpent, d.LastDailyReset)
	}
	if d.WeeklySpent != 900 || d.LastWeeklyReset != 0 {
		t.Errorf("weekly window must not change: spent=%d last=%d", d.WeeklySpent, d.LastWeeklyReset)
	}
}

func TestDriver_RollWindows_WeeklyDoesNotResetDaily(t *testing.T) {
	t.Parallel()

	// The day window rolled recently; the week window is due.
	d := &Driver{DailySpent: 300, WeeklySpent: 2_000, LastDailyReset: 650, LastWeeklyReset: 0}
	roll := d.RollWindows(700, testWindows)

	if roll.Daily || !roll.Weekly {
		t.Fatalf("expected only weekly roll, got %+v", roll)
	}
	if d.DailySpent != 300 || d.LastDailyReset != 650 {
		t.Errorf("daily window must not change: spent=%d last=%d", d.DailySpent, d.LastDailyReset)
	}
	if d.WeeklySpent != 0 || d.LastWeeklyReset != 700 {
		t.Errorf("weekly window not reset: spent=%d last=%d", d.WeeklySpent, d.LastWeeklyReset)
	}
}

func TestDriver_RollWindows_BothDue(t *testing.T) {
	t.Parallel()

	d := &Driver{DailySpent: 10, WeeklySpent: 20}
	roll := d.RollWindows(5_000, testWindows)

	if !roll.Daily || !roll.Weekly {
		t.Fatalf("expected both windows to roll, got %+v", roll)
	}
	if d.DailySpent != 0 || d.WeeklySpent != 0 {
		t.Errorf("expected zeroed counters, got daily=%d weekly=%d", d.DailySpent, d.WeeklySpent)
	}
}

func TestDriver_RollWindows_NotDue(t *testing.T) {
	t.Parallel()

	d := &Driver{DailySpent: 10, WeeklySpent: 20, LastDailyReset: 50, LastWeeklyReset: 50}
	before := *d
	if roll := d.RollWindows(149, testWindows); roll.Any() {
		t.Fatalf("expected no roll, got %+v", roll)
	}
	if d.DailySpent != before.DailySpent || d.WeeklySpent != before.WeeklySpent ||
		d.LastDailyReset != before.LastDailyReset || d.LastWeeklyReset != before.LastWeeklyReset {
		t.Errorf("driver changed without a due window: before=%+v after=%+v", before, *d)
	}
}

func TestDriver_RollWindows_SequenceBehindReset(t *testing.T) {
	t.Parallel()

	d := &Driver{DailySpent: 10, LastDailyReset: 500, LastWeeklyReset: 500}
	if roll := d.RollWindows(10, testWindows); roll.Any() {
		t.Fatalf("expected no roll for a sequence behind the last reset, got %+v", roll)
	}
}

func TestDriver_RemainingDaily(t *testing.T) {
	t.Parallel()

	d := &Driver{
		Limits:         SpendingLimits{DailyLimit: 1_000, WeeklyLimit: 5_000},
		DailySpent:     800,
		WeeklySpent:    3_000,
		LastDailyReset: 10,
	}

	if got := d.RemainingDaily(50, testWindows); got != 200 {
		t.Errorf("expected 200 remaining, got %d", got)
	}
	if got := d.RemainingDaily(110, testWindows); got != 1_000 {
		t.Errorf("expected full limit when rollover is due, got %d", got)
	}
	if d.DailySpent != 800 || d.LastDailyReset != 10 {
		t.Error("RemainingDaily must not mutate the driver")
	}
	if got := d.RemainingWeekly(50, testWindows); got != 2_000 {
		t.Errorf("expected 2000 weekly remaining, got %d", got)
	}
}

func TestSpendingLimits(t *testing.T) {
	t.Parallel()

	a, b := ID{1}, ID{2}
	open := SpendingLimits{}
	restricted := SpendingLimits{AllowedStations: []ID{a}}

	if !open.Allows(b) {
		t.Error("empty allow-list must admit every station")
	}
	if !restricted.Allows(a) || restricted.Allows(b) {
		t.Error("allow-list membership mismatch")
	}
	if (SpendingLimits{DailyLimit: -1}).Valid() {
		t.Error("negative limit must be invalid")
	}
	if !(SpendingLimits{}).Valid() {
		t.Error("zero limits must be valid")
	}
}
