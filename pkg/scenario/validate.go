package scenario

import (
	"errors"
	"fmt"

	"github.com/aretw0/chains/pkg/domain"
)

// Validate reports every problem of the document at once. Each one wraps
// domain.ErrInvalidScenario.
func (d *Document) Validate() error {
	var errs []error
	fail := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: %s", domain.ErrInvalidScenario, fmt.Sprintf(format, args...)))
	}

	switch d.Group {
	case GroupParallel, GroupSequential, GroupNone:
	default:
		fail("unknown group %q", d.Group)
	}
	if len(d.Chains) == 0 {
		fail("no chains")
	}

	ids := make(map[string]struct{})
	claim := func(id string) {
		if id == "" {
			return
		}
		if _, ok := ids[id]; ok {
			fail("chain id %q is declared twice", id)
		}
		ids[id] = struct{}{}
	}

	var check func(c ChainSpec, name string, depth int)
	check = func(c ChainSpec, name string, depth int) {
		claim(c.ID)
		switch c.Mode {
		case "", domain.ModeSequential, domain.ModeParallel:
		default:
			fail("%s: unknown mode %q", name, c.Mode)
		}
		if depth > 0 && c.Mode == domain.ModeSequential {
			fail("%s: embedded chains always run in parallel", name)
		}
		if len(c.Steps) == 0 {
			fail("%s: no steps", name)
		}
		for i, s := range c.Steps {
			at := fmt.Sprintf("%s step %d (line %d)", name, i, s.line)
			switch s.Kind {
			case KindWait:
				if s.Wait < 0 {
					fail("%s: negative wait %s", at, s.Wait)
				}
			case KindPlay:
				if s.Play == "" {
					fail("%s: play needs a clip id", at)
				}
				if s.Volume != nil && (*s.Volume < 0 || *s.Volume > 1) {
					fail("%s: volume %v is outside [0, 1]", at, *s.Volume)
				}
			case KindCall:
				if s.Call == "" {
					fail("%s: call needs an action name", at)
				}
			case KindEmbed:
				if depth > 0 {
					fail("%s: embedded chains cannot embed further chains", at)
					continue
				}
				check(*s.Embed, chainName(*s.Embed, fmt.Sprintf("%s/embed", name)), depth+1)
			case KindLog, KindNoWait:
			default:
				fail("%s: unknown step kind %q", at, s.Kind)
			}
		}
	}

	for i, c := range d.Chains {
		check(c, chainName(c, fmt.Sprintf("chain #%d", i)), 0)
	}
	return errors.Join(errs...)
}

func chainName(c ChainSpec, fallback string) string {
	if c.ID != "" {
		return fmt.Sprintf("chain %q", c.ID)
	}
	return fallback
}
