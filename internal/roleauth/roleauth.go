// Package roleauth answers what a role may process and approve.
// It holds no state beyond the fixed policy table.
package roleauth

import (
	"github.com/shopspring/decimal"

	"github.com/fraol163/Banking-Managment-System-sub001/internal/domain"
)

// Policy is the authority of one role. Unbounded roles ignore Ceiling and Threshold.
type Policy struct {
	Ceiling   decimal.Decimal
	Threshold decimal.Decimal
	Unbounded bool
}

var policies = map[domain.Role]Policy{
	domain.RoleCustomer: {
		Ceiling:   decimal.Zero,
		Threshold: decimal.Zero,
	},
	domain.RoleTeller: {
		Ceiling:   decimal.RequireFromString("2000.00"),
		Threshold: decimal.RequireFromString("1000.00"),
	},
	domain.RoleManager: {
		Ceiling:   decimal.RequireFromString("10000.00"),
		Threshold: decimal.RequireFromString("5000.00"),
	},
	domain.RoleAdmin: {
		Unbounded: true,
	},
}

// PolicyOf returns the policy of role. Unknown roles get the zero ceiling.
func PolicyOf(role domain.Role) Policy {
	return policies[role]
}

// WithinCeiling reports whether role may process amount at all.
func WithinCeiling(role domain.Role, amount decimal.Decimal) bool {
	p := PolicyOf(role)
	if p.Unbounded {
		return true
	}

	return amount.LessThanOrEqual(p.Ceiling) && p.Ceiling.IsPositive()
}

// RequiresApproval reports whether amount is above the self-approval threshold of role.
// Amounts above the ceiling also report true.
func RequiresApproval(role domain.Role, amount decimal.Decimal) bool {
	p := PolicyOf(role)
	if p.Unbounded {
		return false
	}

	return amount.GreaterThan(p.Threshold)
}

// Authorize classifies amount for role: nil executes directly, *domain.ApprovalRequiredError
// routes to approval and *domain.AuthorizationExceededError refuses.
func Authorize(role domain.Role, amount decimal.Decimal) error {
	if !WithinCeiling(role, amount) {
		return &domain.AuthorizationExceededError{
			Role:    role,
			Amount:  amount,
			Ceiling: PolicyOf(role).Ceiling,
		}
	}

	if RequiresApproval(role, amount) {
		return &domain.ApprovalRequiredError{
			Role:      role,
			Amount:    amount,
			Threshold: PolicyOf(role).Threshold,
		}
	}

	return nil
}

// CanSelfApprove reports whether role may approve its own request of amount.
func CanSelfApprove(role domain.Role, amount decimal.Decimal) bool {
	switch role {
	case domain.RoleAdmin:
		return true
	case domain.RoleManager:
		return WithinCeiling(role, amount)
	default:
		return false
	}
}

// CanApprove reports whether approver may decide a request of amount made by requester.
// self is true when approver and requester are the same user.
func CanApprove(approver, requester domain.Role, amount decimal.Decimal, self bool) bool {
	if self {
		return CanSelfApprove(approver, amount)
	}

	switch approver {
	case domain.RoleAdmin:
		return true
	case domain.RoleManager:
		switch requester {
		case domain.RoleTeller:
			return true
		case domain.RoleManager:
			return WithinCeiling(approver, amount)
		}
	}

	return false
}
