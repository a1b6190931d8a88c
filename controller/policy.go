package controller

import (
	"github.com/pkg/errors"

	"github.com/nvr-ai/go-busstop/images"
)

// ErrNoMasks is returned by a Policy when it has nothing to fuse.
var ErrNoMasks = errors.New("no masks to fuse")

// NamedMask is a mask together with the producer that made it.
type NamedMask struct {
	Name string
	Mask images.Mask
}

// Policy combines the masks of one frame into the mask that is reported.
// Policies never decide occupancy; they only combine masks.
type Policy interface {
	Name() string
	Fuse(masks []NamedMask) (images.Mask, error)
}

// Select reports the mask of one producer. An empty Producer selects the
// first available mask.
type Select struct {
	Producer string
}

// Name implements Policy.
func (s Select) Name() string { return "select" }

// Fuse implements Policy.
func (s Select) Fuse(masks []NamedMask) (images.Mask, error) {
	if len(masks) == 0 {
		return images.Mask{}, ErrNoMasks
	}
	if s.Producer == "" {
		return masks[0].Mask, nil
	}
	for _, m := range masks {
		if m.Name == s.Producer {
			return m.Mask, nil
		}
	}
	return images.Mask{}, errors.Wrapf(ErrNoMasks, "producer %q", s.Producer)
}

// Union marks a pixel when any mask marks it.
type Union struct{}

// Name implements Policy.
func (Union) Name() string { return "union" }

// Fuse implements Policy.
func (Union) Fuse(masks []NamedMask) (images.Mask, error) {
	return combine(masks, func(a, b uint8) uint8 { return a | b })
}

// Intersect marks a pixel only when every mask marks it.
type Intersect struct{}

// Name implements Policy.
func (Intersect) Name() string { return "intersect" }

// Fuse implements Policy.
func (Intersect) Fuse(masks []NamedMask) (images.Mask, error) {
	return combine(masks, func(a, b uint8) uint8 { return a & b })
}

func combine(masks []NamedMask, op func(a, b uint8) uint8) (images.Mask, error) {
	if len(masks) == 0 {
		return images.Mask{}, ErrNoMasks
	}
	out := masks[0].Mask.Clone()
	for _, m := range masks[1:] {
		if m.Mask.Width != out.Width || m.Mask.Height != out.Height {
			return images.Mask{}, errors.Errorf("mask %q is %dx%d, expected %dx%d",
				m.Name, m.Mask.Width, m.Mask.Height, out.Width, out.Height)
		}
		for i, v := range m.Mask.Pix {
			out.Pix[i] = op(out.Pix[i], v)
		}
	}
	return out, nil
}

// PolicyByName returns the policy registered under name. selectProducer is
// only used by the select policy.
func PolicyByName(name, selectProducer string) (Policy, error) {
	switch name {
	case "", "select":
		return Select{Producer: selectProducer}, nil
	case "union":
		return Union{}, nil
	case "intersect":
		return Intersect{}, nil
	default:
		return nil, errors.Errorf("unknown fusion policy %q", name)
	}
}
