package memory

import (
	"context"
	"maps"
	"slices"
	"sort"

	"fuelanchor/internal/domain"
	"fuelanchor/internal/repository"
)

type circularZoneRepo struct{ v view }

func (r *circularZoneRepo) Create(_ context.Context, zone *domain.CircularZone) error {
	return r.v.write(func(st *state) error {
		if _, ok := st.circular[zone.ID]; ok {
			return repository.ErrAlreadyExists
		}
		st.circular[zone.ID] = *zone
		return nil
	})
}

func (r *circularZoneRepo) GetByID(_ context.Context, id domain.ID) (*domain.CircularZone, error) {
	var out *domain.CircularZone
	err := r.v.read(func(st *state) error {
		zone, ok := st.circular[id]
		if !ok {
			return repository.ErrNotFound
		}
		out = &zone
		return nil
	})
	return out, err
}

func (r *circularZoneRepo) Deactivate(_ context.Context, id domain.ID) (bool, error) {
	changed := false
	err := r.v.write(func(st *state) error {
		zone, ok := st.circular[id]
		if !ok || !zone.IsActive {
			return nil
		}
		zone.IsActive = false
		st.circular[id] = zone
		changed = true
		return nil
	})
	return changed, err
}

type polygonZoneRepo struct{ v view }

func (r *polygonZoneRepo) Create(_ context.Context, zone *domain.PolygonZone) error {
	return r.v.write(func(st *state) error {
		if _, ok := st.polygons[zone.ID]; ok {
			return repository.ErrAlreadyExists
		}
		stored := *zone
		stored.Vertices = slices.Clone(zone.Vertices)
		st.polygons[zone.ID] = stored
		return nil
	})
}

func (r *polygonZoneRepo) GetByID(_ context.Context, id domain.ID) (*domain.PolygonZone, error) {
	var out *domain.PolygonZone
	err := r.v.read(func(st *state) error {
		zone, ok := st.polygons[id]
		if !ok {
			return repository.ErrNotFound
		}
		zone.Vertices = slices.Clone(zone.Vertices)
		out = &zone
		return nil
	})
	return out, err
}

func (r *polygonZoneRepo) Deactivate(_ context.Context, id domain.ID) (bool, error) {
	changed := false
	err := r.v.write(func(st *state) error {
		zone, ok := st.polygons[id]
		if !ok || !zone.IsActive {
			return nil
		}
		zone.IsActive = false
		st.polygons[id] = zone
		changed = true
		return nil
	})
	return changed, err
}

type corridorRepo struct{ v view }

func (r *corridorRepo) Create(_ context.Context, c *domain.Corridor) error {
	return r.v.write(func(st *state) error {
		if _, ok := st.corridors[c.ID]; ok {
			return repository.ErrAlreadyExists
		}
		stored := *c
		stored.Waypoints = slices.Clone(c.Waypoints)
		st.corridors[c.ID] = stored
		return nil
	})
}

func (r *corridorRepo) GetByID(_ context.Context, id domain.ID) (*domain.Corridor, error) {
	var out *domain.Corridor
	err := r.v.read(func(st *state) error {
		c, ok := st.corridors[id]
		if !ok {
			return repository.ErrNotFound
		}
		c.Waypoints = slices.Clone(c.Waypoints)
		out = &c
		return nil
	})
	return out, err
}

func (r *corridorRepo) Deactivate(_ context.Context, id domain.ID) (bool, error) {
	changed := false
	err := r.v.write(func(st *state) error {
		c, ok := st.corridors[id]
		if !ok || !c.IsActive {
			return nil
		}
		c.IsActive = false
		st.corridors[id] = c
		changed = true
		return nil
	})
	return changed, err
}

type fleetZoneRepo struct{ v view }

func (r *fleetZoneRepo) Set(_ context.Context, zones *domain.FleetZones) error {
	return r.v.write(func(st *state) error {
		st.fleetZones[zones.Operator] = slices.Clone(zones.ZoneIDs)
		return nil
	})
}

func (r *fleetZoneRepo) Get(_ context.Context, operator domain.Address) (*domain.FleetZones, error) {
	out := &domain.FleetZones{Operator: operator}
	err := r.v.read(func(st *state) error {
		out.ZoneIDs = slices.Clone(st.fleetZones[operator])
		return nil
	})
	return out, err
}

type stationRepo struct{ v view }

func (r *stationRepo) Create(_ context.Context, s *domain.Station) error {
	return r.v.write(func(st *state) error {
		if _, ok := st.stations[s.ID]; ok {
			return repository.ErrAlreadyExists
		}
		if _, ok := st.stationByOwner[s.Owner]; ok {
			return repository.ErrAlreadyExists
		}
		st.stations[s.ID] = *s
		st.stationByOwner[s.Owner] = s.ID
		return nil
	})
}

func (r *stationRepo) GetByID(_ context.Context, id domain.ID) (*domain.Station, error) {
	var out *domain.Station
	err := r.v.read(func(st *state) error {
		s, ok := st.stations[id]
		if !ok {
			return repository.ErrNotFound
		}
		out = &s
		return nil
	})
	return out, err
}

func (r *stationRepo) GetByOwner(_ context.Context, owner domain.Address) (*domain.Station, error) {
	var out *domain.Station
	err := r.v.read(func(st *state) error {
		id, ok := st.stationByOwner[owner]
		if !ok {
			return repository.ErrNotFound
		}
		s := st.stations[id]
		out = &s
		return nil
	})
	return out, err
}

func (r *stationRepo) GetAll(_ context.Context) ([]*domain.Station, error) {
	var out []*domain.Station
	err := r.v.read(func(st *state) error {
		for _, s := range st.stations {
			s := s
			out = append(out, &s)
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool {
		if !out[i].RegisteredAt.Equal(out[j].RegisteredAt) {
			return out[i].RegisteredAt.Before(out[j].RegisteredAt)
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out, err
}

func (r *stationRepo) Update(_ context.Context, s *domain.Station) error {
	return r.v.write(func(st *state) error {
		existing, ok := st.stations[s.ID]
		if !ok {
			return repository.ErrNotFound
		}
		existing.Name = s.Name
		existing.IsActive = s.IsActive
		existing.FuelPricePerUnit = s.FuelPricePerUnit
		existing.TotalRedemptions = s.TotalRedemptions
		st.stations[s.ID] = existing
		return nil
	})
}

type driverRepo struct{ v view }

func cloneDriver(d domain.Driver) domain.Driver {
	d.Limits.AllowedStations = slices.Clone(d.Limits.AllowedStations)
	return d
}

func (r *driverRepo) Create(_ context.Context, d *domain.Driver) error {
	return r.v.write(func(st *state) error {
		if _, ok := st.drivers[d.Address]; ok {
			return repository.ErrAlreadyExists
		}
		st.drivers[d.Address] = cloneDriver(*d)
		return nil
	})
}

func (r *driverRepo) GetByAddress(_ context.Context, address domain.Address) (*domain.Driver, error) {
	var out *domain.Driver
	err := r.v.read(func(st *state) error {
		d, ok := st.drivers[address]
		if !ok {
			return repository.ErrNotFound
		}
		d = cloneDriver(d)
		out = &d
		return nil
	})
	return out, err
}

func (r *driverRepo) GetByFleet(_ context.Context, operator domain.Address) ([]*domain.Driver, error) {
	var out []*domain.Driver
	err := r.v.read(func(st *state) error {
		for _, d := range st.drivers {
			d := d
			if d.FleetOperator == operator {
				d = cloneDriver(d)
				out = append(out, &d)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Address < out[j].Address })
	return out, err
}

func (r *driverRepo) Update(_ context.Context, d *domain.Driver) error {
	return r.v.write(func(st *state) error {
		existing, ok := st.drivers[d.Address]
		if !ok {
			return repository.ErrNotFound
		}
		updated := cloneDriver(*d)
		updated.FleetOperator = existing.FleetOperator
		updated.RegisteredAt = existing.RegisteredAt
		st.drivers[d.Address] = updated
		return nil
	})
}

type redemptionRepo struct{ v view }

func (r *redemptionRepo) Create(_ context.Context, rec *domain.RedemptionRecord) error {
	return r.v.write(func(st *state) error {
		if _, ok := st.redemptions[rec.ID]; ok {
			return repository.ErrAlreadyExists
		}
		st.redemptions[rec.ID] = *rec
		st.driverHistory[rec.Driver] = appendClipped(st.driverHistory[rec.Driver], rec.ID)
		return nil
	})
}

func (r *redemptionRepo) GetByID(_ context.Context, id domain.ID) (*domain.RedemptionRecord, error) {
	var out *domain.RedemptionRecord
	err := r.v.read(func(st *state) error {
		rec, ok := st.redemptions[id]
		if !ok {
			return repository.ErrNotFound
		}
		out = &rec
		return nil
	})
	return out, err
}

func (r *redemptionRepo) GetByDriver(_ context.Context, driver domain.Address, limit int) ([]*domain.RedemptionRecord, error) {
	var out []*domain.RedemptionRecord
	err := r.v.read(func(st *state) error {
		history := st.driverHistory[driver]
		for i := len(history) - 1; i >= 0 && len(out) < limit; i-- {
			rec := st.redemptions[history[i]]
			out = append(out, &rec)
		}
		return nil
	})
	return out, err
}

func (r *redemptionRepo) GetLastByDriver(_ context.Context, driver domain.Address) (*domain.RedemptionRecord, error) {
	var out *domain.RedemptionRecord
	err := r.v.read(func(st *state) error {
		history := st.driverHistory[driver]
		if len(history) == 0 {
			return repository.ErrNotFound
		}
		rec := st.redemptions[history[len(history)-1]]
		out = &rec
		return nil
	})
	return out, err
}

type settingsRepo struct{ v view }

func (r *settingsRepo) GetAdmin(_ context.Context) (domain.Address, error) {
	var admin domain.Address
	err := r.v.read(func(st *state) error {
		if st.admin.IsZero() {
			return repository.ErrNotFound
		}
		admin = st.admin
		return nil
	})
	return admin, err
}

func (r *settingsRepo) SetAdmin(_ context.Context, admin domain.Address) error {
	return r.v.write(func(st *state) error {
		if !st.admin.IsZero() {
			return repository.ErrAlreadyExists
		}
		st.admin = admin
		return nil
	})
}

func (r *settingsRepo) Counter(_ context.Context, name string) (uint64, error) {
	var value uint64
	err := r.v.read(func(st *state) error {
		value = st.counters[name]
		return nil
	})
	return value, err
}

func (r *settingsRepo) Increment(_ context.Context, name string) (uint64, error) {
	var value uint64
	err := r.v.write(func(st *state) error {
		st.counters[name]++
		value = st.counters[name]
		return nil
	})
	return value, err
}

type eventRepo struct{ v view }

func (r *eventRepo) Append(_ context.Context, e *domain.Event) error {
	return r.v.write(func(st *state) error {
		if err := r.v.eventAppendErr(); err != nil {
			return err
		}
		e.Seq = int64(len(st.events)) + 1
		stored := *e
		stored.Topics = slices.Clone(e.Topics)
		stored.Data = maps.Clone(e.Data)
		st.events = appendClipped(st.events, stored)
		return nil
	})
}

func (r *eventRepo) List(_ context.Context, after int64, limit int) ([]*domain.Event, error) {
	var out []*domain.Event
	err := r.v.read(func(st *state) error {
		start := max(after, 0)
		for i := start; i < int64(len(st.events)) && len(out) < limit; i++ {
			e := st.events[i]
			e.Topics = slices.Clone(e.Topics)
			e.Data = maps.Clone(e.Data)
			out = append(out, &e)
		}
		return nil
	})
	return out, err
}
