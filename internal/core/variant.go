package core

import (
	"fmt"
	"strings"
)

// Variant selects the planner configuration.
type Variant struct {
	Name string
	// Headings enables rotation-aware path search.
	Headings bool
	// HeadingAllocation prices allocation edges with rotation costs.
	HeadingAllocation bool
	// DelayTolerant detects conflicts between agents offset in time.
	DelayTolerant bool
	// Statistical certifies plans by sampling delayed executions instead
	// of checking the nominal schedule only.
	Statistical bool
	// PositiveBranching adds the positive-constraint child on every branch.
	PositiveBranching bool
}

var (
	RCbssEff = Variant{
		Name:              "rcbss-eff",
		Headings:          true,
		HeadingAllocation: true,
		DelayTolerant:     true,
		Statistical:       true,
		PositiveBranching: true,
	}
	RCbssBase = Variant{
		Name:              "rcbss-base",
		Headings:          true,
		DelayTolerant:     true,
		Statistical:       true,
		PositiveBranching: true,
	}
	IDP = Variant{
		Name:              "idp",
		Headings:          true,
		HeadingAllocation: true,
	}
	IRC = Variant{
		Name:              "irc",
		DelayTolerant:     true,
		Statistical:       true,
		PositiveBranching: true,
	}
	CBSS = Variant{Name: "cbss"}
)

// Variants lists the built-in planner variants.
func Variants() []Variant {
	return []Variant{RCbssEff, RCbssBase, IDP, IRC, CBSS}
}

// ParseVariant looks a variant up by name, case-insensitively.
func ParseVariant(name string) (Variant, error) {
	for _, v := range Variants() {
		if strings.EqualFold(v.Name, name) {
			return v, nil
		}
	}
	return Variant{}, fmt.Errorf("unknown variant %q", name)
}

func (v Variant) String() string {
	return v.Name
}
