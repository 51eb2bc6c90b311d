package model

// PolicyDecision is the policy engine's verdict for one resolved intent
// against a tenant's policy document. RulesApplied is the audit list of
// sub-evaluations that ran, in order.
type PolicyDecision struct {
	IntentCode              string   `json:"intent_code"`
	AutoApproveReturn       bool     `json:"auto_approve_return"`
	AutoApproveRefund       bool     `json:"auto_approve_refund"`
	AutoApproveReplacement  bool     `json:"auto_approve_replacement"`
	EscalationRequired      bool     `json:"escalation_required"`
	EscalationReasons       []string `json:"escalation_reasons,omitempty"`
	PriorityFlag            bool     `json:"priority_flag"`
	PriorityReasons         []string `json:"priority_reasons,omitempty"`
	ReturnEligible          bool     `json:"return_eligible"`
	ReturnEligibilityReason string   `json:"return_eligibility_reason,omitempty"`
	DaysUntilReturnExpires  int      `json:"days_until_return_expires"`
	RecommendedAction       string   `json:"recommended_action"`
	RulesApplied            []string `json:"rules_applied"`
}
