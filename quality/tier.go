// Package quality models the two render quality tiers and the per-body
// parameters each tier selects.
package quality

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrUnknownTier    = errors.New("unknown quality tier")
	ErrUnknownBody    = errors.New("unknown body")
	ErrUnknownShading = errors.New("unknown shading mode")
)

// Tier is a named quality level. Exactly one tier is active at a time.
type Tier int

const (
	Low Tier = iota
	High
)

// Tiers lists every tier in declaration order.
var Tiers = []Tier{Low, High}

func (t Tier) String() string {
	switch t {
	case Low:
		return "low"
	case High:
		return "high"
	}
	return fmt.Sprintf("Tier(%d)", int(t))
}

// Other returns the tier a toggle switches to.
func (t Tier) Other() Tier {
	if t == High {
		return Low
	}
	return High
}

// ParseTier accepts "low" or "high", case-insensitively.
func ParseTier(s string) (Tier, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "low":
		return Low, nil
	case "high":
		return High, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownTier, s)
}

// Body identifies one of the rendered celestial bodies.
type Body int

const (
	Earth Body = iota
	Clouds
	Moon
)

// Bodies lists every body whose parameters a tier must define.
var Bodies = []Body{Earth, Clouds, Moon}

func (b Body) String() string {
	switch b {
	case Earth:
		return "earth"
	case Clouds:
		return "clouds"
	case Moon:
		return "moon"
	}
	return fmt.Sprintf("Body(%d)", int(b))
}

func ParseBody(s string) (Body, error) {
	for _, b := range Bodies {
		if strings.EqualFold(strings.TrimSpace(s), b.String()) {
			return b, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownBody, s)
}

// Shading selects between flat texture output and directional lighting.
type Shading int

const (
	Unlit Shading = iota
	Lit
)

func (s Shading) String() string {
	if s == Lit {
		return "lit"
	}
	return "unlit"
}

func ParseShading(s string) (Shading, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "unlit":
		return Unlit, nil
	case "lit":
		return Lit, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownShading, s)
}
