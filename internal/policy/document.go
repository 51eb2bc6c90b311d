// Package policy evaluates tenant business rules against enriched context:
// return eligibility, auto-approval thresholds, escalation triggers, and
// priority routing. Evaluation is a pure function of its inputs and the
// pre-loaded policy document; the package performs no I/O.
package policy

import (
	"fmt"

	"github.com/miwake-ai/miwake/internal/model"
)

// ConfigurationError reports a malformed tenant policy document. Load-time
// validation fails fast; a named tenant never silently gets defaults.
type ConfigurationError struct {
	TenantID string
	Field    string
	Reason   string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("policy: tenant %q: field %s: %s", e.TenantID, e.Field, e.Reason)
}

// Document is one tenant's policy configuration.
type Document struct {
	TenantID        string          `json:"tenant_id"`
	Version         string          `json:"version,omitempty"`
	ReturnPolicy    ReturnPolicy    `json:"return_policy"`
	AutoApproval    AutoApproval    `json:"auto_approval"`
	Escalation      Escalation      `json:"escalation"`
	PriorityRouting PriorityRouting `json:"priority_routing"`
}

// ReturnPolicy sets the tier-dependent return windows.
type ReturnPolicy struct {
	DefaultWindowDays   int      `json:"default_window_days"`
	PremiumWindowDays   int      `json:"premium_window_days"`
	VIPWindowDays       int      `json:"vip_window_days"`
	FinalSaleCategories []string `json:"final_sale_categories,omitempty"`
}

// WindowDays returns the return window for a tier.
func (p ReturnPolicy) WindowDays(tier model.CustomerTier) int {
	switch tier {
	case model.TierVIP:
		return p.VIPWindowDays
	case model.TierPremium:
		return p.PremiumWindowDays
	default:
		return p.DefaultWindowDays
	}
}

// ApprovalRule is a per-tier amount table for one approval kind.
type ApprovalRule struct {
	MaxAmountStandard  float64  `json:"max_amount_standard"`
	MaxAmountPremium   float64  `json:"max_amount_premium"`
	MaxAmountVIP       float64  `json:"max_amount_vip"`
	ExcludedCategories []string `json:"excluded_categories,omitempty"`
}

// MaxAmount returns the approval ceiling for a tier, falling back to the
// standard amount when the tier has none configured.
func (r ApprovalRule) MaxAmount(tier model.CustomerTier) float64 {
	switch tier {
	case model.TierVIP:
		if r.MaxAmountVIP > 0 {
			return r.MaxAmountVIP
		}
	case model.TierPremium:
		if r.MaxAmountPremium > 0 {
			return r.MaxAmountPremium
		}
	}
	return r.MaxAmountStandard
}

// ReplacementRule governs replacement auto-approval.
type ReplacementRule struct {
	Enabled   bool    `json:"enabled"`
	MaxAmount float64 `json:"max_amount"`
}

// AutoApproval holds the per-kind approval tables.
type AutoApproval struct {
	Enabled     bool            `json:"enabled"`
	Return      ApprovalRule    `json:"return"`
	Refund      ApprovalRule    `json:"refund"`
	Replacement ReplacementRule `json:"replacement"`
}

// Escalation sets the triggers that force human review.
type Escalation struct {
	ComplaintThreshold        int      `json:"complaint_threshold"`
	HighValueThreshold        float64  `json:"high_value_threshold"`
	FrustrationScoreThreshold float64  `json:"frustration_score_threshold"`
	AutoEscalateKeywords      []string `json:"auto_escalate_keywords,omitempty"`
}

// PriorityRouting flags requests for expedited handling.
type PriorityRouting struct {
	Enabled                 bool    `json:"enabled"`
	VIPPriority             bool    `json:"vip_priority"`
	HighFrustrationPriority bool    `json:"high_frustration_priority"`
	FrustrationThreshold    float64 `json:"frustration_threshold"`
	HighValueOrderThreshold float64 `json:"high_value_order_threshold"`
}

// Validate checks a document for malformed or missing required fields.
func (d *Document) Validate() error {
	fail := func(field, reason string) error {
		return &ConfigurationError{TenantID: d.TenantID, Field: field, Reason: reason}
	}

	if d.TenantID == "" {
		return fail("tenant_id", "required")
	}
	if d.ReturnPolicy.DefaultWindowDays <= 0 {
		return fail("return_policy.default_window_days", "must be positive")
	}
	if d.ReturnPolicy.PremiumWindowDays <= 0 {
		return fail("return_policy.premium_window_days", "must be positive")
	}
	if d.ReturnPolicy.VIPWindowDays <= 0 {
		return fail("return_policy.vip_window_days", "must be positive")
	}
	if d.AutoApproval.Enabled {
		if d.AutoApproval.Return.MaxAmountStandard <= 0 {
			return fail("auto_approval.return.max_amount_standard", "must be positive")
		}
		if d.AutoApproval.Refund.MaxAmountStandard <= 0 {
			return fail("auto_approval.refund.max_amount_standard", "must be positive")
		}
		if d.AutoApproval.Replacement.Enabled && d.AutoApproval.Replacement.MaxAmount <= 0 {
			return fail("auto_approval.replacement.max_amount", "must be positive")
		}
	}
	if d.Escalation.ComplaintThreshold <= 0 {
		return fail("escalation.complaint_threshold", "must be positive")
	}
	if d.Escalation.HighValueThreshold <= 0 {
		return fail("escalation.high_value_threshold", "must be positive")
	}
	if t := d.Escalation.FrustrationScoreThreshold; t <= 0 || t > 1 {
		return fail("escalation.frustration_score_threshold", "must be in (0, 1]")
	}
	if d.PriorityRouting.Enabled {
		if t := d.PriorityRouting.FrustrationThreshold; t <= 0 || t > 1 {
			return fail("priority_routing.frustration_threshold", "must be in (0, 1]")
		}
		if d.PriorityRouting.HighValueOrderThreshold <= 0 {
			return fail("priority_routing.high_value_order_threshold", "must be positive")
		}
	}
	return nil
}

// DefaultDocument returns the built-in "default" policy, used for unknown
// tenants.
func DefaultDocument() *Document {
	return &Document{
		TenantID: "default",
		Version:  "1.0.0",
		ReturnPolicy: ReturnPolicy{
			DefaultWindowDays: 30,
			PremiumWindowDays: 45,
			VIPWindowDays:     60,
		},
		AutoApproval: AutoApproval{
			Enabled: true,
			Return:  ApprovalRule{MaxAmountStandard: 100, MaxAmountPremium: 150, MaxAmountVIP: 250},
			Refund:  ApprovalRule{MaxAmountStandard: 50, MaxAmountPremium: 75, MaxAmountVIP: 150},
			Replacement: ReplacementRule{
				Enabled:   true,
				MaxAmount: 200,
			},
		},
		Escalation: Escalation{
			ComplaintThreshold:        3,
			HighValueThreshold:        500,
			FrustrationScoreThreshold: 0.7,
		},
		PriorityRouting: PriorityRouting{
			Enabled:                 true,
			VIPPriority:             true,
			HighFrustrationPriority: true,
			FrustrationThreshold:    0.7,
			HighValueOrderThreshold: 300,
		},
	}
}
