// Package widget implements the in-scene quality toggle.
package widget

import (
	"planet-viewer/core"
	"planet-viewer/quality"
)

// State is the pointer-interaction state of a Toggle.
type State int

const (
	Idle State = iota
	Hovered
)

func (s State) String() string {
	if s == Hovered {
		return "hovered"
	}
	return "idle"
}

// Toggle is a clickable control whose label names the tier a click will
// switch to. The tier it shows is whatever its activation callback
// reports, so it cannot drift from the owner of the setting.
type Toggle struct {
	hovered    bool
	tier       quality.Tier
	onActivate func() quality.Tier
}

// NewToggle creates an idle toggle showing tier. onActivate performs the
// switch and returns the tier now active; it may be nil.
func NewToggle(tier quality.Tier, onActivate func() quality.Tier) *Toggle {
	return &Toggle{tier: tier, onActivate: onActivate}
}

func (t *Toggle) PointerEnter() { t.hovered = true }

func (t *Toggle) PointerLeave() { t.hovered = false }

// Activate runs the activation callback and adopts the tier it returns.
// Activation does not depend on hover state.
func (t *Toggle) Activate() {
	if t.onActivate == nil {
		t.tier = t.tier.Other()
		return
	}
	t.tier = t.onActivate()
}

// Sync updates the displayed tier after a change made elsewhere, such as
// a keyboard shortcut.
func (t *Toggle) Sync(tier quality.Tier) { t.tier = tier }

func (t *Toggle) Tier() quality.Tier { return t.tier }

func (t *Toggle) State() State {
	if t.hovered {
		return Hovered
	}
	return Idle
}

// Label names the action a click performs.
func (t *Toggle) Label() string {
	if t.tier == quality.High {
		return "Toggle Low Settings"
	}
	return "Toggle High Settings"
}

// Cursor is the pointer affordance the window should show.
func (t *Toggle) Cursor() core.CursorShape {
	if t.hovered {
		return core.CursorHand
	}
	return core.CursorArrow
}
