package discounts

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/restock-backend/internal/customers"
	"github.com/angelmondragon/restock-backend/pkg/db/models"
	"github.com/angelmondragon/restock-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/restock-backend/pkg/errors"
)

type fakeRequirementRepo struct {
	getByIDFn func(ctx context.Context, id uuid.UUID) (*models.DiscountRequirement, error)
}

func (f *fakeRequirementRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.DiscountRequirement, error) {
	if f.getByIDFn != nil {
		return f.getByIDFn(ctx, id)
	}
	return nil, nil
}

type fakeCustomerRepo struct {
	hasRoleIDFn func(ctx context.Context, customerID, roleID uuid.UUID) (bool, error)
}

func (f *fakeCustomerRepo) WithTx(tx *gorm.DB) customers.Repository { return f }

func (f *fakeCustomerRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Customer, error) {
	return &models.Customer{ID: id, Active: true}, nil
}

func (f *fakeCustomerRepo) HasRole(ctx context.Context, customerID uuid.UUID, role enums.CustomerRole) (bool, error) {
	return false, nil
}

func (f *fakeCustomerRepo) HasRoleID(ctx context.Context, customerID, roleID uuid.UUID) (bool, error) {
	if f.hasRoleIDFn != nil {
		return f.hasRoleIDFn(ctx, customerID, roleID)
	}
	return false, nil
}

func requirementWithRole(roleID uuid.UUID) *fakeRequirementRepo {
	return &fakeRequirementRepo{
		getByIDFn: func(ctx context.Context, id uuid.UUID) (*models.DiscountRequirement, error) {
			return &models.DiscountRequirement{
				ID:             id,
				RuleSystemName: CustomerRoleRuleName,
				Settings:       roleID.String(),
			}, nil
		},
	}
}

func newRoleRule(t *testing.T, requirements RequirementRepository, custs customers.Repository) *CustomerRoleRule {
	t.Helper()
	rule, err := NewCustomerRoleRule(requirements, custs)
	if err != nil {
		t.Fatalf("unexpected rule error: %v", err)
	}
	return rule
}

func TestCustomerRoleRule_RoleHeld(t *testing.T) {
	roleID := uuid.New()
	custs := &fakeCustomerRepo{
		hasRoleIDFn: func(ctx context.Context, customerID, rid uuid.UUID) (bool, error) {
			if rid != roleID {
				t.Fatalf("unexpected role id %s", rid)
			}
			return true, nil
		},
	}
	rule := newRoleRule(t, requirementWithRole(roleID), custs)

	result, err := rule.Check(context.Background(), &Request{
		DiscountRequirementID: uuid.New(),
		CustomerID:            uuid.New(),
	})
	if err != nil {
		t.Fatalf("unexpected check error: %v", err)
	}
	if !result.Valid {
		t.Fatalf("expected eligible result, got %+v", result)
	}
}

func TestCustomerRoleRule_RoleNotHeld(t *testing.T) {
	rule := newRoleRule(t, requirementWithRole(uuid.New()), &fakeCustomerRepo{})

	result, err := rule.Check(context.Background(), &Request{
		DiscountRequirementID: uuid.New(),
		CustomerID:            uuid.New(),
	})
	if err != nil {
		t.Fatalf("unexpected check error: %v", err)
	}
	if result.Valid {
		t.Fatal("expected ineligible result")
	}
	if result.Reason != "role_not_held" {
		t.Fatalf("unexpected reason %q", result.Reason)
	}
}

func TestCustomerRoleRule_AbsentCustomer(t *testing.T) {
	rule := newRoleRule(t, requirementWithRole(uuid.New()), &fakeCustomerRepo{})

	result, err := rule.Check(context.Background(), &Request{DiscountRequirementID: uuid.New()})
	if err != nil {
		t.Fatalf("unexpected check error: %v", err)
	}
	if result.Valid || result.Reason != "customer_missing" {
		t.Fatalf("expected customer_missing, got %+v", result)
	}
}

func TestCustomerRoleRule_MissingRequirement(t *testing.T) {
	rule := newRoleRule(t, &fakeRequirementRepo{}, &fakeCustomerRepo{})

	result, err := rule.Check(context.Background(), &Request{
		DiscountRequirementID: uuid.New(),
		CustomerID:            uuid.New(),
	})
	if err != nil {
		t.Fatalf("unexpected check error: %v", err)
	}
	if result.Valid || result.Reason != "requirement_missing" {
		t.Fatalf("expected requirement_missing, got %+v", result)
	}
}

func TestCustomerRoleRule_UnconfiguredSettings(t *testing.T) {
	requirements := &fakeRequirementRepo{
		getByIDFn: func(ctx context.Context, id uuid.UUID) (*models.DiscountRequirement, error) {
			return &models.DiscountRequirement{ID: id, Settings: "not-a-uuid"}, nil
		},
	}
	rule := newRoleRule(t, requirements, &fakeCustomerRepo{})

	result, err := rule.Check(context.Background(), &Request{
		DiscountRequirementID: uuid.New(),
		CustomerID:            uuid.New(),
	})
	if err != nil {
		t.Fatalf("unexpected check error: %v", err)
	}
	if result.Valid || result.Reason != "requirement_unconfigured" {
		t.Fatalf("expected requirement_unconfigured, got %+v", result)
	}
}

func TestCustomerRoleRule_NilRequest(t *testing.T) {
	rule := newRoleRule(t, &fakeRequirementRepo{}, &fakeCustomerRepo{})

	_, err := rule.Check(context.Background(), nil)
	if pkgerrors.As(err).Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestCustomerRoleRule_RepositoryFailure(t *testing.T) {
	requirements := &fakeRequirementRepo{
		getByIDFn: func(ctx context.Context, id uuid.UUID) (*models.DiscountRequirement, error) {
			return nil, errors.New("db down")
		},
	}
	rule := newRoleRule(t, requirements, &fakeCustomerRepo{})

	_, err := rule.Check(context.Background(), &Request{
		DiscountRequirementID: uuid.New(),
		CustomerID:            uuid.New(),
	})
	if pkgerrors.As(err).Code() != pkgerrors.CodeDependency {
		t.Fatalf("expected dependency error, got %v", err)
	}
}

func TestRegistry_UnknownRule(t *testing.T) {
	rule := newRoleRule(t, &fakeRequirementRepo{}, &fakeCustomerRepo{})
	reg, err := NewRegistry(rule)
	if err != nil {
		t.Fatalf("unexpected registry error: %v", err)
	}

	result, err := reg.Check(context.Background(), "loyalty_points", &Request{
		DiscountRequirementID: uuid.New(),
		CustomerID:            uuid.New(),
	})
	if err != nil {
		t.Fatalf("unexpected check error: %v", err)
	}
	if result.Valid || result.Reason != "rule_unknown" {
		t.Fatalf("expected rule_unknown, got %+v", result)
	}
}

func TestRegistry_RejectsDuplicateNames(t *testing.T) {
	rule := newRoleRule(t, &fakeRequirementRepo{}, &fakeCustomerRepo{})
	if _, err := NewRegistry(rule, rule); err == nil {
		t.Fatal("expected duplicate name error")
	}
}

func TestRegistry_NilRequest(t *testing.T) {
	reg, err := NewRegistry()
	if err != nil {
		t.Fatalf("unexpected registry error: %v", err)
	}
	if _, err := reg.Check(context.Background(), CustomerRoleRuleName, nil); err == nil {
		t.Fatal("expected validation error")
	}
}
