package texsource

import (
	"fmt"
	"slices"
	"sort"
	"strings"
)

// CameraKind classifies a camera lens.
type CameraKind uint8

const (
	// CameraWideAngle is the default lens of most devices.
	CameraWideAngle CameraKind = iota
	CameraTelephoto
	// CameraColorAndDepth pairs a color sensor with a depth sensor.
	CameraColorAndDepth
	CameraUltraWideAngle
)

var cameraKindNames = map[CameraKind]string{
	CameraWideAngle:      "wide-angle",
	CameraTelephoto:      "telephoto",
	CameraColorAndDepth:  "color-and-depth",
	CameraUltraWideAngle: "ultra-wide-angle",
}

func (k CameraKind) String() string {
	if s, ok := cameraKindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("CameraKind(%d)", uint8(k))
}

// MarshalText implements encoding.TextMarshaler.
func (k CameraKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *CameraKind) UnmarshalText(text []byte) error {
	s := normalizeEnum(string(text))
	for kind, name := range cameraKindNames {
		if normalizeEnum(name) == s {
			*k = kind
			return nil
		}
	}
	return fmt.Errorf("%w: unknown camera kind %q", ErrConfiguration, text)
}

// Facing is the side of the device a camera looks out of.
type Facing uint8

const (
	// FacingBack looks away from the user (the AR world camera).
	FacingBack Facing = iota
	// FacingFront looks at the user.
	FacingFront
)

func (f Facing) String() string {
	switch f {
	case FacingBack:
		return "back"
	case FacingFront:
		return "front"
	}
	return fmt.Sprintf("Facing(%d)", uint8(f))
}

// MarshalText implements encoding.TextMarshaler.
func (f Facing) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (f *Facing) UnmarshalText(text []byte) error {
	switch normalizeEnum(string(text)) {
	case "back", "rear", "world":
		*f = FacingBack
	case "front", "user":
		*f = FacingFront
	default:
		return fmt.Errorf("%w: unknown facing %q", ErrConfiguration, text)
	}
	return nil
}

func normalizeEnum(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.NewReplacer("-", "", "_", "", " ", "").Replace(s)
}

// CameraDevice describes one enumerated camera.
type CameraDevice struct {
	// ID is the platform identifier passed back to CameraPlatform.Open.
	ID          string
	Name        string
	Kind        CameraKind
	FrontFacing bool
}

// Facing returns the device facing.
func (d CameraDevice) Facing() Facing {
	if d.FrontFacing {
		return FacingFront
	}
	return FacingBack
}

// SelectionPolicy filters and orders enumerated cameras.
type SelectionPolicy struct {
	// Facings and Kinds are the accepted sets. Empty accepts everything.
	Facings []Facing     `toml:"facings"`
	Kinds   []CameraKind `toml:"kinds"`

	// FacingPriority and KindPriority order the accepted devices: by
	// facing first, then by kind. Values not listed sort after listed ones.
	FacingPriority []Facing     `toml:"facing_priority"`
	KindPriority   []CameraKind `toml:"kind_priority"`
}

// Select returns the accepted devices in priority order. Devices that tie
// keep their enumeration order.
func (p SelectionPolicy) Select(devices []CameraDevice) []CameraDevice {
	out := make([]CameraDevice, 0, len(devices))
	for _, d := range devices {
		if len(p.Facings) > 0 && !slices.Contains(p.Facings, d.Facing()) {
			continue
		}
		if len(p.Kinds) > 0 && !slices.Contains(p.Kinds, d.Kind) {
			continue
		}
		out = append(out, d)
	}
	sort.SliceStable(out, func(i, j int) bool {
		fi, fj := rank(p.FacingPriority, out[i].Facing()), rank(p.FacingPriority, out[j].Facing())
		if fi != fj {
			return fi < fj
		}
		return rank(p.KindPriority, out[i].Kind) < rank(p.KindPriority, out[j].Kind)
	})
	return out
}

func rank[T comparable](order []T, v T) int {
	if i := slices.Index(order, v); i >= 0 {
		return i
	}
	return len(order)
}
