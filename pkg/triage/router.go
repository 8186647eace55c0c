package triage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const (
	DepartmentEmergency       = "Emergency"
	DepartmentCardiology      = "Cardiology"
	DepartmentGeneralMedicine = "General Medicine"
)

// RouteRule matches when either vital is strictly above its threshold.
// A nil threshold never matches.
type RouteRule struct {
	Department string `yaml:"department" json:"department"`
	BPAbove    *int   `yaml:"bp_above,omitempty" json:"bp_above,omitempty"`
	HRAbove    *int   `yaml:"hr_above,omitempty" json:"hr_above,omitempty"`
}

func (r RouteRule) matches(bp, hr int) bool {
	return (r.BPAbove != nil && bp > *r.BPAbove) || (r.HRAbove != nil && hr > *r.HRAbove)
}

type RoutingTable struct {
	Rules    []RouteRule `yaml:"rules" json:"rules"`
	Fallback string      `yaml:"fallback" json:"fallback"`
}

// Router picks a department from blood pressure and heart rate only.
// Temperature and condition do not influence routing.
type Router struct {
	table RoutingTable
}

func DefaultRoutingTable() RoutingTable {
	return RoutingTable{
		Rules: []RouteRule{
			{Department: DepartmentEmergency, BPAbove: intPtr(180), HRAbove: intPtr(130)},
			{Department: DepartmentCardiology, BPAbove: intPtr(140), HRAbove: intPtr(100)},
		},
		Fallback: DepartmentGeneralMedicine,
	}
}

func NewRouter(table RoutingTable) (*Router, error) {
	if table.Fallback == "" {
		return nil, errors.New("routing table needs a fallback department")
	}
	rules := make([]RouteRule, len(table.Rules))
	for i, rule := range table.Rules {
		if rule.Department == "" {
			return nil, fmt.Errorf("routing rule %d has no department", i)
		}
		if rule.BPAbove == nil && rule.HRAbove == nil {
			return nil, fmt.Errorf("routing rule %d (%s) has no threshold", i, rule.Department)
		}
		rules[i] = RouteRule{Department: rule.Department, BPAbove: copyInt(rule.BPAbove), HRAbove: copyInt(rule.HRAbove)}
	}
	return &Router{table: RoutingTable{Rules: rules, Fallback: table.Fallback}}, nil
}

// LoadRouter reads a YAML routing table. An empty path yields the
// default table.
func LoadRouter(path string) (*Router, error) {
	if path == "" {
		return NewRouter(DefaultRoutingTable())
	}
	content, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, err
	}
	var table RoutingTable
	if err := yaml.Unmarshal(content, &table); err != nil {
		return nil, fmt.Errorf("parsing routing table: %w", err)
	}
	return NewRouter(table)
}

func (r *Router) Route(bp, hr int) string {
	for _, rule := range r.table.Rules {
		if rule.matches(bp, hr) {
			return rule.Department
		}
	}
	return r.table.Fallback
}

func intPtr(v int) *int { return &v }

func copyInt(v *int) *int {
	if v == nil {
		return nil
	}
	return intPtr(*v)
}
