package tests

import (
	"context"
	"crypto/sha256"
	"errors"
	"testing"

	"fuelanchor/internal/domain"
	"fuelanchor/internal/geo"
	"fuelanchor/internal/seed"
	"fuelanchor/internal/service"
)

var (
	northernID = domain.MustParseID("0101010101010101010101010101010101010101010101010101010101010101")
	centralID  = domain.MustParseID("0202020202020202020202020202020202020202020202020202020202020202")
)

func TestSeed_DefaultCorridors(t *testing.T) {
	t.Parallel()

	corridors, err := seed.Default()
	if err != nil {
		t.Fatalf("default: %v", err)
	}
	if len(corridors) != 2 {
		t.Fatalf("expected 2 corridors, got %d", len(corridors))
	}

	northern, err := corridors[0].Request(adminAddr)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if northern.ID != northernID || northern.Name != "Northern Corridor" {
		t.Errorf("unexpected northern corridor %s %q", northern.ID, northern.Name)
	}
	if len(northern.Waypoints) != 4 || northern.BufferMeters != 50_000 {
		t.Errorf("expected 4 waypoints and a 50km buffer, got %d/%d", len(northern.Waypoints), northern.BufferMeters)
	}
	if northern.Start != (geo.Point{Lat: -4_043_500, Lng: 39_668_200}) {
		t.Errorf("expected Mombasa start, got %+v", northern.Start)
	}
}

func TestSeed_LoadIsIdempotent(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	h := newHarness(t)
	h.initialize(t)

	corridors, err := seed.Default()
	if err != nil {
		t.Fatalf("default: %v", err)
	}

	locks := NewMockLockStore()
	loader := seed.NewLoader(h.zones, locks)

	created, err := loader.Run(ctx, adminAddr, corridors)
	if err != nil || created != 2 {
		t.Fatalf("expected 2 corridors created, got %d (err %v)", created, err)
	}
	created, err = loader.Run(ctx, adminAddr, corridors)
	if err != nil || created != 0 {
		t.Errorf("expected second run to create nothing, got %d (err %v)", created, err)
	}

	_, count, err := h.zones.Counts(ctx)
	if err != nil || count != 2 {
		t.Errorf("expected corridor count 2, got %d (err %v)", count, err)
	}
	if locks.IsLocked(seed.LockName) {
		t.Error("expected the seed lock to be released")
	}

	// Nairobi sits on the Northern corridor, Kigali on the Central one.
	onNorthern, err := h.zones.ValidateCorridor(ctx, northernID, geo.Point{Lat: -1_286_389, Lng: 36_817_222})
	if err != nil || !onNorthern {
		t.Errorf("expected Nairobi on the Northern corridor (err %v)", err)
	}
	onCentral, err := h.zones.ValidateCorridor(ctx, centralID, geo.Point{Lat: -1_940_278, Lng: 29_873_889})
	if err != nil || !onCentral {
		t.Errorf("expected Kigali on the Central corridor (err %v)", err)
	}
	kampala, err := h.zones.ValidateCorridor(ctx, centralID, geo.Point{Lat: 313_733, Lng: 32_582_192})
	if err != nil || kampala {
		t.Errorf("expected Kampala off the Central corridor (err %v)", err)
	}
}

func TestSeed_SkipsWhenLockHeld(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	h := newHarness(t)
	h.initialize(t)

	corridors, err := seed.Default()
	if err != nil {
		t.Fatalf("default: %v", err)
	}

	locks := NewMockLockStore()
	locks.ForceAcquireFailure = true

	created, err := seed.NewLoader(h.zones, locks).Run(ctx, adminAddr, corridors)
	if err != nil || created != 0 {
		t.Errorf("expected nothing created while another instance seeds, got %d (err %v)", created, err)
	}
	if locks.ReleaseCallCount != 0 {
		t.Errorf("expected no release without the lock, got %d", locks.ReleaseCallCount)
	}

	locks.ForceAcquireFailure = false
	locks.AcquireError = ErrMockRedisDown
	if _, err := seed.NewLoader(h.zones, locks).Run(ctx, adminAddr, corridors); !errors.Is(err, ErrMockRedisDown) {
		t.Errorf("expected lock error, got %v", err)
	}
}

func TestSeed_RequiresAdmin(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	h.initialize(t)

	corridors, err := seed.Default()
	if err != nil {
		t.Fatalf("default: %v", err)
	}

	_, err = seed.NewLoader(h.zones, nil).Run(context.Background(), otherAddr, corridors)
	if !errors.Is(err, service.ErrUnauthorized) {
		t.Errorf("expected ErrUnauthorized, got %v", err)
	}
}

func TestSeed_Parse(t *testing.T) {
	t.Parallel()

	corridors, err := seed.Parse([]byte(`
corridors:
  - name: Lobito Corridor
    start: {lat: -12350000, lng: 13540000}
    end: {lat: -11660000, lng: 27480000}
    bufferMeters: 25000
`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	req, err := corridors[0].Request(adminAddr)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if want := domain.ID(sha256.Sum256([]byte("corridor:Lobito Corridor"))); req.ID != want {
		t.Errorf("expected id derived from the name, got %s", req.ID)
	}

	if _, err := seed.Parse([]byte("corridors:\n  - bufferMeters: 10\n")); err == nil {
		t.Error("expected error for a corridor without a name")
	}

	bad, err := seed.Parse([]byte("corridors:\n  - name: X\n    id: nothex\n"))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if _, err := bad[0].Request(adminAddr); !errors.Is(err, domain.ErrInvalidID) {
		t.Errorf("expected ErrInvalidID, got %v", err)
	}
}
