// Package filter defines the structured pre-filter of a search request.
// The shape mirrors the backend's filter JSON: must/should/must_not groups
// of conditions, each either an exact match or a numeric range.
package filter

import "fmt"

// MaxConditionsPerGroup is the maximum number of conditions per filter group.
const MaxConditionsPerGroup = 32

// Expression is a structured filter with must/should/must_not boolean semantics.
type Expression struct {
	Must    []Condition `json:"must,omitempty"`
	Should  []Condition `json:"should,omitempty"`
	MustNot []Condition `json:"must_not,omitempty"`
}

// IsEmpty reports whether the expression has no conditions.
func (e Expression) IsEmpty() bool {
	return len(e.Must) == 0 && len(e.Should) == 0 && len(e.MustNot) == 0
}

// Validate checks group sizes and every condition.
func (e Expression) Validate() error {
	groups := []struct {
		name  string
		conds []Condition
	}{
		{"must", e.Must},
		{"should", e.Should},
		{"must_not", e.MustNot},
	}
	for _, g := range groups {
		if len(g.conds) > MaxConditionsPerGroup {
			return fmt.Errorf("too many %s conditions (max %d)", g.name, MaxConditionsPerGroup)
		}
		for _, c := range g.conds {
			if err := c.Validate(); err != nil {
				return fmt.Errorf("%s condition: %w", g.name, err)
			}
		}
	}
	return nil
}

// Condition is a single filter clause: either an exact match or a numeric range.
type Condition struct {
	Key   string `json:"key"`
	Match string `json:"match,omitempty"`
	Range *Range `json:"range,omitempty"`
}

// Validate checks that the condition has a key and exactly one clause kind.
func (c Condition) Validate() error {
	if c.Key == "" {
		return fmt.Errorf("filter key is required")
	}
	if c.Match == "" && c.Range == nil {
		return fmt.Errorf("condition for key %q needs a match value or a range", c.Key)
	}
	if c.Match != "" && c.Range != nil {
		return fmt.Errorf("condition for key %q cannot have both match and range", c.Key)
	}
	if c.Range != nil {
		if err := c.Range.Validate(); err != nil {
			return fmt.Errorf("range for key %q: %w", c.Key, err)
		}
	}
	return nil
}

// Range is a numeric range with gt/gte/lt/lte boundaries.
type Range struct {
	GT  *float64 `json:"gt,omitempty"`
	GTE *float64 `json:"gte,omitempty"`
	LT  *float64 `json:"lt,omitempty"`
	LTE *float64 `json:"lte,omitempty"`
}

// Validate requires at least one boundary. gt/gte and lt/lte are mutually
// exclusive.
func (r Range) Validate() error {
	if r.GT == nil && r.GTE == nil && r.LT == nil && r.LTE == nil {
		return fmt.Errorf("at least one range boundary is required")
	}
	if r.GT != nil && r.GTE != nil {
		return fmt.Errorf("cannot specify both gt and gte")
	}
	if r.LT != nil && r.LTE != nil {
		return fmt.Errorf("cannot specify both lt and lte")
	}
	return nil
}
