// Package seed loads predefined corridors into the zone registry.
package seed

import (
	"context"
	"crypto/sha256"
	"embed"
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"fuelanchor/internal/domain"
	"fuelanchor/internal/geo"
	"fuelanchor/internal/logger"
	"fuelanchor/internal/redis"
	"fuelanchor/internal/repository"
	"fuelanchor/internal/service"
)

// LockName is the distributed lock held while seeding so replicas do not race.
const LockName = "seed:corridors"

const lockTTL = 30 * time.Second

//go:embed corridors.yaml
var defaultFS embed.FS

// File is the on-disk seed format.
type File struct {
	Corridors []Corridor `yaml:"corridors"`
}

// Corridor describes one predefined corridor. An empty ID is derived from the name.
type Corridor struct {
	ID           string  `yaml:"id"`
	Name         string  `yaml:"name"`
	Start        Point   `yaml:"start"`
	End          Point   `yaml:"end"`
	Waypoints    []Point `yaml:"waypoints"`
	BufferMeters uint32  `yaml:"bufferMeters"`
}

// Point is a coordinate in micro-degrees.
type Point struct {
	Lat int64 `yaml:"lat"`
	Lng int64 `yaml:"lng"`
}

func (p Point) point() geo.Point {
	return geo.Point{Lat: p.Lat, Lng: p.Lng}
}

// CorridorCreator is satisfied by *service.ZoneService.
type CorridorCreator interface {
	CreateCorridor(ctx context.Context, req service.CreateCorridorRequest) (*domain.Corridor, error)
}

// Default returns the built-in Northern and Central corridors.
func Default() ([]Corridor, error) {
	raw, err := defaultFS.ReadFile("corridors.yaml")
	if err != nil {
		return nil, fmt.Errorf("read default corridors: %w", err)
	}
	return Parse(raw)
}

// LoadFile reads corridors from path, or the built-in set when path is empty.
func LoadFile(path string) ([]Corridor, error) {
	if path == "" {
		return Default()
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	return Parse(raw)
}

// Parse decodes a seed file.
func Parse(raw []byte) ([]Corridor, error) {
	var f File
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("decode seed file: %w", err)
	}
	for i, c := range f.Corridors {
		if c.Name == "" {
			return nil, fmt.Errorf("corridor %d: name is required", i)
		}
	}
	return f.Corridors, nil
}

// Request converts c into a CreateCorridorRequest issued by actor.
func (c Corridor) Request(actor domain.Address) (service.CreateCorridorRequest, error) {
	id, err := c.id()
	if err != nil {
		return service.CreateCorridorRequest{}, fmt.Errorf("corridor %q: %w", c.Name, err)
	}

	waypoints := make([]geo.Point, len(c.Waypoints))
	for i, w := range c.Waypoints {
		waypoints[i] = w.point()
	}

	return service.CreateCorridorRequest{
		Actor:        actor,
		ID:           id,
		Name:         c.Name,
		Start:        c.Start.point(),
		End:          c.End.point(),
		Waypoints:    waypoints,
		BufferMeters: c.BufferMeters,
	}, nil
}

func (c Corridor) id() (domain.ID, error) {
	if c.ID == "" {
		return domain.ID(sha256.Sum256([]byte("corridor:" + c.Name))), nil
	}
	return domain.ParseID(c.ID)
}

// Loader creates seed corridors through the zone service.
type Loader struct {
	zones  CorridorCreator
	locker redis.LockStoreInterface
}

// NewLoader creates a Loader. locker may be nil for single-instance deployments.
func NewLoader(zones CorridorCreator, locker redis.LockStoreInterface) *Loader {
	return &Loader{zones: zones, locker: locker}
}

// Run creates every corridor as admin and returns how many were new. Corridors
// that already exist are skipped, so Run is safe on every start.
func (l *Loader) Run(ctx context.Context, admin domain.Address, corridors []Corridor) (int, error) {
	if l.locker != nil {
		acquired, err := l.locker.Acquire(ctx, LockName, lockTTL)
		if err != nil {
			return 0, fmt.Errorf("acquire seed lock: %w", err)
		}
		if !acquired {
			logger.L().Info("seed_skipped", "reason", "lock_held")
			return 0, nil
		}
		defer func() {
			if err := l.locker.Release(context.WithoutCancel(ctx), LockName); err != nil {
				logger.L().Warn("seed_lock_release_failed", "err", err)
			}
		}()
	}

	created := 0
	for _, c := range corridors {
		req, err := c.Request(admin)
		if err != nil {
			return created, err
		}
		if _, err := l.zones.CreateCorridor(ctx, req); err != nil {
			if errors.Is(err, repository.ErrAlreadyExists) {
				continue
			}
			return created, fmt.Errorf("seed corridor %q: %w", c.Name, err)
		}
		created++
		logger.L().Info("corridor_seeded", "name", c.Name, "id", req.ID)
	}
	return created, nil
}
