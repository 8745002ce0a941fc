package quality

import (
	"fmt"
	"maps"
)

// MinTessellation is the smallest sphere subdivision count accepted.
const MinTessellation = 3

// Params are the per-body values selected by a tier.
type Params struct {
	Texture      string
	Tessellation int
}

// TierSpec is everything one tier decides.
type TierSpec struct {
	Shading Shading
	Bodies  map[Body]Params
}

// Table maps each tier to its parameters.
type Table map[Tier]TierSpec

// Lookup returns the parameters for one body under one tier. The zero
// Params is returned for missing entries; Validate rules those out.
func (t Table) Lookup(tier Tier, body Body) Params {
	return t[tier].Bodies[body]
}

// Validate checks that every tier defines every body with a texture and a
// usable tessellation.
func (t Table) Validate() error {
	for _, tier := range Tiers {
		spec, ok := t[tier]
		if !ok {
			return fmt.Errorf("tier %s: not defined", tier)
		}
		for _, body := range Bodies {
			p, ok := spec.Bodies[body]
			if !ok {
				return fmt.Errorf("tier %s: body %s not defined", tier, body)
			}
			if p.Texture == "" {
				return fmt.Errorf("tier %s: body %s: empty texture path", tier, body)
			}
			if p.Tessellation < MinTessellation {
				return fmt.Errorf("tier %s: body %s: tessellation %d below %d",
					tier, body, p.Tessellation, MinTessellation)
			}
		}
	}
	return nil
}

// Clone returns a deep copy.
func (t Table) Clone() Table {
	out := make(Table, len(t))
	for tier, spec := range t {
		out[tier] = TierSpec{Shading: spec.Shading, Bodies: maps.Clone(spec.Bodies)}
	}
	return out
}
