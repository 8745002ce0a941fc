package quality

import (
	"maps"
	"sync"
)

// Snapshot is the full set of parameters for one tier, captured at once so
// that no reader sees textures from one tier and geometry from the other.
type Snapshot struct {
	Tier    Tier
	Shading Shading
	Bodies  map[Body]Params
}

// Params returns the parameters for body.
func (s Snapshot) Params(body Body) Params {
	return s.Bodies[body]
}

// Settings owns the active tier and the table it indexes.
type Settings struct {
	mu    sync.Mutex
	tier  Tier
	table Table
}

// NewSettings validates table and starts at initial.
func NewSettings(table Table, initial Tier) (*Settings, error) {
	if err := table.Validate(); err != nil {
		return nil, err
	}
	if initial != Low && initial != High {
		return nil, ErrUnknownTier
	}
	return &Settings{tier: initial, table: table.Clone()}, nil
}

func (s *Settings) Tier() Tier {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tier
}

// Current returns the snapshot for the active tier.
func (s *Settings) Current() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Toggle switches to the other tier and returns its snapshot.
func (s *Settings) Toggle() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tier = s.tier.Other()
	return s.snapshotLocked()
}

// Set activates tier. Unknown values leave the active tier unchanged.
func (s *Settings) Set(tier Tier) Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	if tier == Low || tier == High {
		s.tier = tier
	}
	return s.snapshotLocked()
}

// Table returns a copy of the table in use.
func (s *Settings) Table() Table {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.table.Clone()
}

// SetTable replaces the table, keeping the active tier, and returns the new
// current snapshot. An invalid table is rejected and the old one kept.
func (s *Settings) SetTable(table Table) (Snapshot, error) {
	if err := table.Validate(); err != nil {
		return s.Current(), err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.table = table.Clone()
	return s.snapshotLocked(), nil
}

func (s *Settings) snapshotLocked() Snapshot {
	spec := s.table[s.tier]
	return Snapshot{
		Tier:    s.tier,
		Shading: spec.Shading,
		Bodies:  maps.Clone(spec.Bodies),
	}
}
