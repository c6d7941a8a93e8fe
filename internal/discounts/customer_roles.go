package discounts

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/angelmondragon/restock-backend/internal/customers"
	pkgerrors "github.com/angelmondragon/restock-backend/pkg/errors"
)

// CustomerRoleRuleName is the stable system name stored on requirements that
// gate a discount behind a customer role.
const CustomerRoleRuleName = "customer_role"

// CustomerRoleRule grants the discount only to customers holding the role
// configured in the requirement settings.
type CustomerRoleRule struct {
	requirements RequirementRepository
	customers    customers.Repository
}

// NewCustomerRoleRule wires the role rule dependencies.
func NewCustomerRoleRule(requirements RequirementRepository, custs customers.Repository) (*CustomerRoleRule, error) {
	if requirements == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "requirement repository required")
	}
	if custs == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "customer repository required")
	}
	return &CustomerRoleRule{requirements: requirements, customers: custs}, nil
}

func (r *CustomerRoleRule) SystemName() string {
	return CustomerRoleRuleName
}

// Check resolves the configured role id from the requirement settings and
// verifies the customer holds it. Absent customers and missing or malformed
// requirements are ineligible, not errors.
func (r *CustomerRoleRule) Check(ctx context.Context, req *Request) (Result, error) {
	if req == nil {
		return Result{}, pkgerrors.New(pkgerrors.CodeValidation, "request is required")
	}
	if req.CustomerID == uuid.Nil {
		return Result{Reason: "customer_missing"}, nil
	}

	requirement, err := r.requirements.GetByID(ctx, req.DiscountRequirementID)
	if err != nil {
		return Result{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load discount requirement")
	}
	if requirement == nil {
		return Result{Reason: "requirement_missing"}, nil
	}

	roleID, err := uuid.Parse(strings.TrimSpace(requirement.Settings))
	if err != nil || roleID == uuid.Nil {
		return Result{Reason: "requirement_unconfigured"}, nil
	}

	hasRole, err := r.customers.HasRoleID(ctx, req.CustomerID, roleID)
	if err != nil {
		return Result{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check customer role")
	}
	if !hasRole {
		return Result{Reason: "role_not_held"}, nil
	}
	return Result{Valid: true}, nil
}
