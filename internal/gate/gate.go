// Package gate evaluates ordered authorization chains for route groups.
//
// A chain is a list of checks run in order; the first denial wins and the
// remaining checks are not evaluated. Unauthenticated denials map to 401,
// every other denial to 403.
package gate

import (
	"net/http"

	"fsanano/food-market/internal/apperr"
	"fsanano/food-market/internal/model"
)

type Reason string

const (
	ReasonUnauthenticated   Reason = "unauthenticated"
	ReasonWrongRole         Reason = "wrong_role"
	ReasonSuspended         Reason = "suspended"
	ReasonProfileIncomplete Reason = "profile_incomplete"
	ReasonUnverified        Reason = "unverified"
)

var reasonMessages = map[Reason]string{
	ReasonUnauthenticated:   "Unauthenticated.",
	ReasonWrongRole:         "Access denied. Insufficient role for this resource.",
	ReasonSuspended:         "Access denied. Your account is not active.",
	ReasonProfileIncomplete: "Access denied. Please complete your vendor profile first.",
	ReasonUnverified:        "Access denied. Your vendor account is pending verification.",
}

// Decision is the outcome of a check: Allow, or Deny with a reason.
type Decision struct {
	Allowed bool
	Reason  Reason
}

func Allow() Decision {
	return Decision{Allowed: true}
}

func Deny(reason Reason) Decision {
	return Decision{Reason: reason}
}

func (d Decision) Status() int {
	switch {
	case d.Allowed:
		return http.StatusOK
	case d.Reason == ReasonUnauthenticated:
		return http.StatusUnauthorized
	default:
		return http.StatusForbidden
	}
}

func (d Decision) Message() string {
	return reasonMessages[d.Reason]
}

// Err converts a denial into the apperr value the error mapper understands.
func (d Decision) Err() error {
	switch {
	case d.Allowed:
		return nil
	case d.Reason == ReasonUnauthenticated:
		return apperr.ErrUnauthenticated
	default:
		return apperr.Forbidden(string(d.Reason), d.Message())
	}
}

// Subject is what a check inspects.
type Subject struct {
	Principal     *model.User
	VendorProfile *model.VendorProfile
}

type Check func(Subject) Decision

func Authenticated() Check {
	return func(s Subject) Decision {
		if s.Principal == nil {
			return Deny(ReasonUnauthenticated)
		}
		return Allow()
	}
}

func HasRole(role model.Role) Check {
	return func(s Subject) Decision {
		if s.Principal.Role != role {
			return Deny(ReasonWrongRole)
		}
		return Allow()
	}
}

func Active() Check {
	return func(s Subject) Decision {
		if !s.Principal.IsActive() {
			return Deny(ReasonSuspended)
		}
		return Allow()
	}
}

func HasVendorProfile() Check {
	return func(s Subject) Decision {
		if s.VendorProfile == nil {
			return Deny(ReasonProfileIncomplete)
		}
		return Allow()
	}
}

func VendorVerified() Check {
	return func(s Subject) Decision {
		if !s.VendorProfile.IsVerified {
			return Deny(ReasonUnverified)
		}
		return Allow()
	}
}

// Chain is an ordered list of checks. Checks after Authenticated may assume
// a non-nil principal, and VendorVerified may assume a profile, because the
// driver stops at the first denial.
type Chain struct {
	checks      []Check
	needsVendor bool
}

func NewChain(checks ...Check) Chain {
	return Chain{checks: checks}
}

// WithVendorProfile marks the chain as needing the caller's vendor profile
// loaded before evaluation.
func (c Chain) WithVendorProfile() Chain {
	c.needsVendor = true
	return c
}

func (c Chain) NeedsVendorProfile() bool {
	return c.needsVendor
}

// Evaluate runs the checks in order and returns the first denial, or Allow.
func (c Chain) Evaluate(s Subject) Decision {
	for _, check := range c.checks {
		if d := check(s); !d.Allowed {
			return d
		}
	}
	return Allow()
}

var (
	// Authenticated routes only need a principal.
	AuthChain = NewChain(Authenticated())

	AdminChain = NewChain(Authenticated(), HasRole(model.RoleAdmin), Active())

	// VendorAccountChain admits active vendors that may not have a profile yet.
	VendorAccountChain = NewChain(Authenticated(), HasRole(model.RoleVendor), Active())

	VendorChain = NewChain(
		Authenticated(),
		HasRole(model.RoleVendor),
		Active(),
		HasVendorProfile(),
		VendorVerified(),
	).WithVendorProfile()
)
