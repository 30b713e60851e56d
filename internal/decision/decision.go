// Package decision combines the system theme, page theme and list
// membership into an injection verdict.
package decision

import (
	"fmt"
	"strings"

	"github.com/jmylchreest/shade/internal/colour"
	"github.com/jmylchreest/shade/internal/membership"
)

// Policy selects the decision table.
type Policy int

const (
	// PolicyA injects for allow-listed pages whose theme differs from the
	// system theme.
	PolicyA Policy = iota
	// PolicyB never injects under a dark system theme, honours the deny
	// list, and otherwise injects for allow-listed or dark pages.
	PolicyB
)

// String returns the policy name used in configuration.
func (p Policy) String() string {
	switch p {
	case PolicyB:
		return "system-gate"
	default:
		return "list"
	}
}

// ParsePolicy accepts "a", "list", "b" and "system-gate".
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "a", "list":
		return PolicyA, nil
	case "b", "system-gate":
		return PolicyB, nil
	}
	return PolicyA, fmt.Errorf("unknown policy %q (want a|list|b|system-gate)", s)
}

// Indicator is the presentation state for a tab.
type Indicator struct {
	// Icon is the icon variant to show.
	Icon   colour.Theme
	Active bool
}

// Verdict is the outcome of one decision.
type Verdict struct {
	ShouldInject bool
	Indicator    Indicator
}

// Decide is pure: identical inputs give identical verdicts.
func Decide(policy Policy, system, page colour.Theme, m membership.Verdict) Verdict {
	var inject bool
	switch policy {
	case PolicyB:
		switch {
		case system == colour.ThemeDark:
		case m.InDenyList:
		default:
			inject = m.InAllowList || page == colour.ThemeDark
		}
	default:
		inject = system != page && m.Listed()
	}

	return Verdict{
		ShouldInject: inject,
		Indicator: Indicator{
			Icon:   system.Complement(),
			Active: inject,
		},
	}
}
