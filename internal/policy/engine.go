package policy

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/miwake-ai/miwake/internal/model"
)

// Tier-specific escalation frustration thresholds. VIPs get more headroom
// before escalating; at-risk customers get less.
const (
	vipFrustrationThreshold    = 0.8
	atRiskFrustrationThreshold = 0.5
)

// Engine evaluates policy documents. Stateless; the document is passed per
// call and owned by the caller.
type Engine struct {
	logger *slog.Logger
}

// New creates a policy engine.
func New(logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{logger: logger}
}

// Evaluate runs the four sub-evaluations for one intent against a tenant
// document. Either side of the context may be nil; missing context yields
// a reduced evaluation, never an error.
func (e *Engine) Evaluate(ctx *model.EnrichedContext, intentCode string, doc *Document, frustrationScore float64) *model.PolicyDecision {
	if doc == nil {
		doc = DefaultDocument()
	}
	if ctx == nil {
		ctx = &model.EnrichedContext{}
	}

	decision := &model.PolicyDecision{
		IntentCode:             intentCode,
		ReturnEligible:         true,
		DaysUntilReturnExpires: -1,
	}

	category, intent := model.SplitIntentCode(intentCode)

	if ctx.Order != nil && category == "RETURN_EXCHANGE" {
		evaluateReturnEligibility(decision, ctx.Order, doc)
		decision.RulesApplied = append(decision.RulesApplied, "return_eligibility")
	}

	if ctx.Order != nil && ctx.Customer != nil {
		evaluateAutoApproval(decision, ctx.Order, ctx.Customer, intent, doc)
		decision.RulesApplied = append(decision.RulesApplied, "auto_approval")
	}

	evaluateEscalation(decision, ctx, frustrationScore, doc)
	decision.RulesApplied = append(decision.RulesApplied, "escalation")

	evaluatePriority(decision, ctx, frustrationScore, doc)
	decision.RulesApplied = append(decision.RulesApplied, "priority_routing")

	recommend(decision, intent)

	return decision
}

// CheckEscalationKeywords returns the configured auto-escalate keywords
// present in the text.
func (e *Engine) CheckEscalationKeywords(text string, doc *Document) []string {
	if doc == nil {
		return nil
	}
	lower := strings.ToLower(text)
	var found []string
	for _, kw := range doc.Escalation.AutoEscalateKeywords {
		if strings.Contains(lower, strings.ToLower(kw)) {
			found = append(found, kw)
		}
	}
	return found
}

func evaluateReturnEligibility(d *model.PolicyDecision, order *model.OrderContext, doc *Document) {
	if order.ReturnWindowExpired {
		d.ReturnEligible = false
		d.ReturnEligibilityReason = "Return window has expired"
		return
	}

	d.DaysUntilReturnExpires = order.DaysUntilReturnExpiry

	if order.IsCancelled {
		d.ReturnEligible = false
		d.ReturnEligibilityReason = "Order has been cancelled"
		return
	}

	for _, item := range order.Items {
		if item.Category != "" && containsFold(doc.ReturnPolicy.FinalSaleCategories, item.Category) {
			d.ReturnEligible = false
			d.ReturnEligibilityReason = fmt.Sprintf("Category %q is final sale", item.Category)
			return
		}
	}
}

func evaluateAutoApproval(d *model.PolicyDecision, order *model.OrderContext, customer *model.CustomerProfile, intent string, doc *Document) {
	aa := doc.AutoApproval
	if !aa.Enabled {
		return
	}
	tier := customer.Tier
	total := order.Total

	switch intent {
	case "RETURN_INITIATE", "RETURN_REQUEST":
		if total <= aa.Return.MaxAmount(tier) && d.ReturnEligible && !anyCategoryExcluded(order.Items, aa.Return.ExcludedCategories) {
			d.AutoApproveReturn = true
		}
	case "REFUND_STATUS", "REFUND_REQUEST":
		if total <= aa.Refund.MaxAmount(tier) && !anyCategoryExcluded(order.Items, aa.Refund.ExcludedCategories) {
			d.AutoApproveRefund = true
		}
	case "EXCHANGE_REQUEST", "REPLACEMENT_REQUEST":
		if aa.Replacement.Enabled && total <= aa.Replacement.MaxAmount {
			d.AutoApproveReplacement = true
		}
	}
}

func evaluateEscalation(d *model.PolicyDecision, ctx *model.EnrichedContext, frustrationScore float64, doc *Document) {
	esc := doc.Escalation

	if c := ctx.Customer; c != nil && c.Complaints90d >= esc.ComplaintThreshold {
		d.EscalationRequired = true
		d.EscalationReasons = append(d.EscalationReasons,
			fmt.Sprintf("Customer has %d complaints in 90 days (threshold: %d)", c.Complaints90d, esc.ComplaintThreshold))
	}

	if o := ctx.Order; o != nil && o.Total >= esc.HighValueThreshold {
		d.EscalationRequired = true
		d.EscalationReasons = append(d.EscalationReasons,
			fmt.Sprintf("High-value order: $%.2f (threshold: $%.2f)", o.Total, esc.HighValueThreshold))
	}

	threshold := frustrationThresholdForTier(ctx.Tier(), esc)
	if frustrationScore >= threshold {
		d.EscalationRequired = true
		d.EscalationReasons = append(d.EscalationReasons,
			fmt.Sprintf("High frustration score: %.2f (threshold: %.2f)", frustrationScore, threshold))
	}
}

// frustrationThresholdForTier applies the tier-specific escalation
// sensitivity over the tenant default.
func frustrationThresholdForTier(tier model.CustomerTier, esc Escalation) float64 {
	switch tier {
	case model.TierVIP:
		return vipFrustrationThreshold
	case model.TierAtRisk:
		return atRiskFrustrationThreshold
	default:
		return esc.FrustrationScoreThreshold
	}
}

func evaluatePriority(d *model.PolicyDecision, ctx *model.EnrichedContext, frustrationScore float64, doc *Document) {
	pr := doc.PriorityRouting
	if !pr.Enabled {
		return
	}

	if pr.VIPPriority && ctx.Tier() == model.TierVIP {
		d.PriorityFlag = true
		d.PriorityReasons = append(d.PriorityReasons, "VIP customer")
	}

	if pr.HighFrustrationPriority && frustrationScore >= pr.FrustrationThreshold {
		d.PriorityFlag = true
		d.PriorityReasons = append(d.PriorityReasons, fmt.Sprintf("High frustration (%.2f)", frustrationScore))
	}

	if o := ctx.Order; o != nil && o.Total >= pr.HighValueOrderThreshold {
		d.PriorityFlag = true
		d.PriorityReasons = append(d.PriorityReasons, fmt.Sprintf("High-value order ($%.2f)", o.Total))
	}
}

// recommend picks the single recommended action; first matching rule wins.
func recommend(d *model.PolicyDecision, intent string) {
	switch {
	case d.AutoApproveReturn:
		d.RecommendedAction = "auto_approve_return"
	case d.AutoApproveRefund:
		d.RecommendedAction = "auto_approve_refund"
	case d.AutoApproveReplacement:
		d.RecommendedAction = "auto_approve_replacement"
	case d.EscalationRequired:
		d.RecommendedAction = "escalate_to_supervisor"
	case !d.ReturnEligible && (intent == "RETURN_INITIATE" || intent == "RETURN_REQUEST"):
		d.RecommendedAction = "explain_policy"
	default:
		d.RecommendedAction = "agent_review"
	}
}

func containsFold(list []string, s string) bool {
	for _, v := range list {
		if strings.EqualFold(v, s) {
			return true
		}
	}
	return false
}

func anyCategoryExcluded(items []model.OrderItem, excluded []string) bool {
	for _, item := range items {
		if item.Category != "" && containsFold(excluded, item.Category) {
			return true
		}
	}
	return false
}
