package discounts

import (
	"context"

	pkgerrors "github.com/angelmondragon/restock-backend/pkg/errors"
)

// Registry holds the rule implementations compiled into the service. Rules
// are registered once at startup; lookups are read-only afterwards.
type Registry struct {
	rules map[string]Rule
}

// NewRegistry builds a registry from the provided rules.
func NewRegistry(rules ...Rule) (*Registry, error) {
	reg := &Registry{rules: make(map[string]Rule, len(rules))}
	for _, rule := range rules {
		if rule == nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "nil rule registered")
		}
		name := rule.SystemName()
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "rule system name is required")
		}
		if _, exists := reg.rules[name]; exists {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "duplicate rule system name "+name)
		}
		reg.rules[name] = rule
	}
	return reg, nil
}

// Rule returns the registered rule for the system name.
func (r *Registry) Rule(systemName string) (Rule, bool) {
	rule, ok := r.rules[systemName]
	return rule, ok
}

// Check runs the named rule. Unknown rule names are ineligible, not errors,
// so stale requirements never block checkout.
func (r *Registry) Check(ctx context.Context, systemName string, req *Request) (Result, error) {
	if req == nil {
		return Result{}, pkgerrors.New(pkgerrors.CodeValidation, "request is required")
	}
	rule, ok := r.Rule(systemName)
	if !ok {
		return Result{Reason: "rule_unknown"}, nil
	}
	return rule.Check(ctx, req)
}
