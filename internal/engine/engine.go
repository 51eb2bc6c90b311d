// Package engine composes the decision pipeline for one request: entity
// extraction, sentiment analysis, context enrichment, similarity matching,
// compound detection, optional decomposition, conflict resolution, and
// tenant policy evaluation.
//
// The engine owns one instance of each component, built once at startup.
// Components are stateless, so any number of requests may flow through a
// single engine concurrently.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/miwake-ai/miwake/internal/compound"
	"github.com/miwake-ai/miwake/internal/extract"
	"github.com/miwake-ai/miwake/internal/matcher"
	"github.com/miwake-ai/miwake/internal/model"
	"github.com/miwake-ai/miwake/internal/policy"
	"github.com/miwake-ai/miwake/internal/resolver"
	"github.com/miwake-ai/miwake/internal/sentiment"
	"github.com/miwake-ai/miwake/internal/telemetry"
)

// DefaultTopK is how many candidates the engine requests from vector search.
const DefaultTopK = 5

// Config holds the engine's routing knobs. Zero fields fall back to the
// component defaults.
type Config struct {
	Thresholds        matcher.Thresholds
	CompoundThreshold float64
	TopK              int
}

// Engine runs the full pipeline. External collaborators are narrow
// capability interfaces; decomposer, contexts, and policies may be nil
// and the pipeline degrades per the documented fallback rules.
type Engine struct {
	searcher   VectorSearcher
	decomposer Decomposer
	contexts   ContextProvider
	policies   PolicyProvider

	extractor  *extract.Extractor
	sentiments *sentiment.Analyzer
	matcher    *matcher.Matcher
	compounds  *compound.Detector
	resolver   *resolver.Resolver
	policy     *policy.Engine

	topK   int
	logger *slog.Logger

	tracer          trace.Tracer
	resolveDuration metric.Float64Histogram
	resolutions     metric.Int64Counter
}

// New creates an engine. searcher is required; decomposer, contexts, and
// policies may be nil.
func New(searcher VectorSearcher, decomposer Decomposer, contexts ContextProvider, policies PolicyProvider, cfg Config, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	topK := cfg.TopK
	if topK <= 0 {
		topK = DefaultTopK
	}

	meter := telemetry.Meter("miwake/engine")
	resolveDur, _ := meter.Float64Histogram("miwake.resolve.duration",
		metric.WithDescription("End-to-end intent resolution time (ms)"),
		metric.WithUnit("ms"),
	)
	resolutions, _ := meter.Int64Counter("miwake.resolutions",
		metric.WithDescription("Resolved requests by path taken"),
	)

	return &Engine{
		searcher:        searcher,
		decomposer:      decomposer,
		contexts:        contexts,
		policies:        policies,
		extractor:       extract.New(),
		sentiments:      sentiment.New(),
		matcher:         matcher.New(cfg.Thresholds, logger),
		compounds:       compound.New(cfg.CompoundThreshold),
		resolver:        resolver.New(logger),
		policy:          policy.New(logger),
		topK:            topK,
		logger:          logger,
		tracer:          otel.Tracer("miwake/engine"),
		resolveDuration: resolveDur,
		resolutions:     resolutions,
	}
}

// Resolve classifies one request end to end.
//
// Vector-search failures propagate as errors; every other internal
// failure degrades into a result. A panic anywhere in the pipeline is
// converted to a no_match result with requires_human set, so a single
// bad request can never take down the caller.
func (e *Engine) Resolve(ctx context.Context, req model.Request) (res *model.Result, err error) {
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("engine: panic during resolve", "request_id", req.RequestID, "panic", r)
			res = &model.Result{
				RequestID:          req.RequestID,
				PathTaken:          model.PathNoMatch,
				RequiresHuman:      true,
				HumanHandoffReason: "Internal error during resolution",
				ReasoningTrace:     []string{"Internal error during resolution"},
				ProcessingTimeMS:   time.Since(start).Milliseconds(),
			}
			err = nil
		}
	}()

	if len(req.Embedding) == 0 {
		return nil, fmt.Errorf("engine: request %s has no embedding", req.RequestID)
	}

	reasoning := []string{"Step 1: Extracting entities"}

	var entities []model.Entity
	e.stage(ctx, "entity_extraction", func(context.Context) {
		entities = e.extractor.Extract(req.Text)
	})

	reasoning = append(reasoning, "Step 2: Analyzing sentiment")
	var sent model.SentimentResult
	e.stage(ctx, "sentiment_analysis", func(context.Context) {
		sent = e.sentiments.Analyze(req.Text)
	})
	if sent.PriorityFlag {
		reasoning = append(reasoning, fmt.Sprintf("  Priority flag: frustration=%.2f", sent.Frustration))
	}

	enriched, reasoning := e.enrich(ctx, req, entities, reasoning)

	reasoning = append(reasoning, "Step 4: Similarity matching")
	var matches []model.IntentMatch
	var searchErr error
	e.stage(ctx, "similarity_matching", func(sctx context.Context) {
		matches, searchErr = e.searcher.Search(sctx, req.Embedding, e.topK)
	})
	if searchErr != nil {
		return nil, fmt.Errorf("engine: vector search: %w", searchErr)
	}
	if len(matches) > 0 {
		reasoning = append(reasoning, fmt.Sprintf("  Top match: %s (%.2f)", matches[0].IntentCode, matches[0].Similarity))
	} else {
		reasoning = append(reasoning, "  No matches")
	}

	outcome := e.matcher.MatchWithEntityBoost(matches, entities)

	reasoning = append(reasoning, "Step 5: Checking for compound intents")
	var comp model.CompoundResult
	e.stage(ctx, "compound_detection", func(context.Context) {
		comp = e.compounds.Detect(req.Text, outcome.TopMatches)
	})
	if comp.IsCompound {
		reasoning = append(reasoning, fmt.Sprintf("  Compound signals detected: %d", len(comp.Signals)))
	}

	// The core never commits a partial result after cancellation.
	if cerr := ctx.Err(); cerr != nil {
		return nil, fmt.Errorf("engine: %w", cerr)
	}

	if outcome.Decision == model.RouteFastPath && !comp.IsCompound && outcome.ResolvedIntent != nil {
		reasoning = append(reasoning, "Decision: FAST PATH")
		res := &model.Result{
			ResolvedIntents: []model.ResolvedIntent{*outcome.ResolvedIntent},
			PathTaken:       model.PathFastPath,
			Entities:        entities,
			Sentiment:       &sent,
		}
		e.applyPolicies(ctx, req, enriched, sent.Frustration, res, &reasoning)
		res.ReasoningTrace = reasoning
		return e.finish(ctx, req, res, start), nil
	}

	reasoning = append(reasoning, "Decision: REASONING PATH")

	if e.decomposer == nil {
		return e.fallback(ctx, req, outcome, comp, entities, sent, enriched, reasoning, start,
			"Step 6: Decomposition not available - using best match fallback"), nil
	}

	reasoning = append(reasoning, "Step 6: Decomposing into sub-intents")
	var dec *Decomposition
	var decErr error
	e.stage(ctx, "decomposition", func(sctx context.Context) {
		dec, decErr = e.decomposer.Decompose(sctx, DecomposeInput{
			Text:            req.Text,
			Entities:        entities,
			Hints:           outcome.TopMatches,
			CustomerTier:    req.CustomerTier,
			PreviousIntents: req.PreviousIntents,
		})
	})
	if decErr != nil {
		// Decomposition unavailability is a documented path, not an error.
		e.logger.Warn("engine: decomposition failed, falling back", "request_id", req.RequestID, "error", decErr)
		return e.fallback(ctx, req, outcome, comp, entities, sent, enriched, reasoning, start,
			fmt.Sprintf("  Decomposition failed (%v) - using best match fallback", decErr)), nil
	}
	reasoning = append(reasoning, dec.Trace...)

	res = &model.Result{
		ResolvedIntents:       dec.Intents,
		IsCompound:            dec.IsCompound,
		PathTaken:             model.PathReasoningPath,
		Entities:              entities,
		Sentiment:             &sent,
		CompoundSignals:       comp.Signals,
		RequiresClarification: dec.RequiresClarification,
		ClarificationQuestion: dec.ClarificationQuestion,
	}

	if len(dec.Intents) >= 2 {
		tier := req.CustomerTier
		if enriched != nil && enriched.Customer != nil {
			tier = enriched.Tier()
		}
		resolution := e.resolver.Resolve(resolver.Input{
			Intents:          dec.Intents,
			Entities:         entities,
			Context:          enriched,
			Text:             req.Text,
			CustomerTier:     tier,
			FrustrationScore: sent.Frustration,
		})
		reasoning = append(reasoning, resolution.ReasoningTrace...)
		res.ResolvedIntents = resolution.FinalIntents
		res.Conflict = resolution.Conflict
		if resolution.RequiresClarification {
			res.RequiresClarification = true
			res.ClarificationQuestion = resolution.ClarificationQuestion
			res.ClarificationOptions = resolution.ClarificationOptions
		}
	}

	if res.RequiresClarification {
		res.RequiresHuman = true
		res.HumanHandoffReason = res.ClarificationQuestion
	}
	e.applyPolicies(ctx, req, enriched, sent.Frustration, res, &reasoning)
	res.ReasoningTrace = reasoning
	return e.finish(ctx, req, res, start), nil
}

// enrich runs the optional context lookup. Failures degrade: the request
// continues with no context and a trace line explaining why.
func (e *Engine) enrich(ctx context.Context, req model.Request, entities []model.Entity, reasoning []string) (*model.EnrichedContext, []string) {
	if e.contexts == nil {
		return nil, append(reasoning, "Step 3: Context enrichment (skipped - not configured)")
	}

	orderIDs := append([]string(nil), req.OrderIDs...)
	for _, ent := range entities {
		if ent.Type == model.EntityOrderID {
			orderIDs = append(orderIDs, ent.Value)
		}
	}
	if req.CustomerEmail == "" && len(orderIDs) == 0 {
		return nil, append(reasoning, "Step 3: Context enrichment (skipped - no customer or order reference)")
	}

	reasoning = append(reasoning, "Step 3: Enriching context")
	var enriched *model.EnrichedContext
	var err error
	e.stage(ctx, "context_enrichment", func(sctx context.Context) {
		enriched, err = e.contexts.Enrich(sctx, req.CustomerEmail, orderIDs)
	})
	if err != nil {
		e.logger.Warn("engine: context enrichment failed", "request_id", req.RequestID, "error", err)
		return nil, append(reasoning, fmt.Sprintf("  Context enrichment failed: %v", err))
	}
	return enriched, reasoning
}

// fallback builds the deterministic result used when no decomposition
// capability is available: the best similarity candidate with
// requires_human set, or no_match when there were no candidates at all.
func (e *Engine) fallback(ctx context.Context, req model.Request, outcome model.MatchOutcome, comp model.CompoundResult, entities []model.Entity, sent model.SentimentResult, enriched *model.EnrichedContext, reasoning []string, start time.Time, traceLine string) *model.Result {
	reasoning = append(reasoning, traceLine)

	if len(outcome.TopMatches) == 0 {
		return e.finish(ctx, req, &model.Result{
			PathTaken:          model.PathNoMatch,
			RequiresHuman:      true,
			HumanHandoffReason: "No matching intent found and decomposition not available",
			ReasoningTrace:     reasoning,
			Entities:           entities,
			Sentiment:          &sent,
		}, start)
	}

	best := outcome.TopMatches[0]
	intent := model.NewResolvedIntent(best.IntentCode, best.Similarity,
		"Best match (fallback): "+truncate(best.ExampleText, 50))
	res := &model.Result{
		ResolvedIntents:    []model.ResolvedIntent{intent},
		IsCompound:         comp.IsCompound,
		PathTaken:          model.PathFastPathFallback,
		RequiresHuman:      true,
		HumanHandoffReason: "Decomposition not available - low confidence match",
		Entities:           entities,
		Sentiment:          &sent,
		CompoundSignals:    comp.Signals,
	}
	e.applyPolicies(ctx, req, enriched, sent.Frustration, res, &reasoning)
	res.ReasoningTrace = reasoning
	return e.finish(ctx, req, res, start)
}

// applyPolicies evaluates the tenant policy document against each final
// intent. A document lookup failure skips evaluation; policy escalation
// forces a human handoff.
func (e *Engine) applyPolicies(ctx context.Context, req model.Request, enriched *model.EnrichedContext, frustration float64, res *model.Result, reasoning *[]string) {
	if e.policies == nil || len(res.ResolvedIntents) == 0 {
		*reasoning = append(*reasoning, "Step 7: Policy evaluation (skipped - not configured)")
		return
	}

	doc, err := e.policies.Document(req.TenantID)
	if err != nil {
		e.logger.Warn("engine: policy document lookup failed", "request_id", req.RequestID, "tenant_id", req.TenantID, "error", err)
		*reasoning = append(*reasoning, fmt.Sprintf("  Policy evaluation failed: %v", err))
		return
	}

	*reasoning = append(*reasoning, "Step 7: Evaluating tenant policy")
	var escalations []string
	e.stage(ctx, "policy_evaluation", func(context.Context) {
		for _, intent := range res.ResolvedIntents {
			decision := e.policy.Evaluate(enriched, intent.IntentCode(), doc, frustration)
			res.PolicyDecisions = append(res.PolicyDecisions, decision)
			if decision.EscalationRequired {
				escalations = append(escalations, decision.EscalationReasons...)
			}
			if decision.AutoApproveReturn {
				*reasoning = append(*reasoning, "  Auto-approve return: YES")
			}
		}
	})
	if len(escalations) > 0 {
		*reasoning = append(*reasoning, "  Escalation required: "+strings.Join(escalations, ", "))
		res.RequiresHuman = true
		reason := "Escalation required: " + strings.Join(escalations, ", ")
		if res.HumanHandoffReason != "" {
			reason = res.HumanHandoffReason + "; " + reason
		}
		res.HumanHandoffReason = reason
	}
}

// finish stamps the invariant result fields and records telemetry.
func (e *Engine) finish(ctx context.Context, req model.Request, res *model.Result, start time.Time) *model.Result {
	res.RequestID = req.RequestID
	res.ConfidenceSummary = model.MinConfidence(res.ResolvedIntents)
	res.ProcessingTimeMS = time.Since(start).Milliseconds()

	e.resolveDuration.Record(ctx, float64(res.ProcessingTimeMS),
		metric.WithAttributes(attribute.String("path_taken", string(res.PathTaken))))
	e.resolutions.Add(ctx, 1, metric.WithAttributes(
		attribute.String("path_taken", string(res.PathTaken)),
		attribute.Bool("is_compound", res.IsCompound),
	))

	e.logger.Info("engine: request resolved",
		"request_id", req.RequestID,
		"tenant_id", req.TenantID,
		"path", res.PathTaken,
		"intents", len(res.ResolvedIntents),
		"confidence", res.ConfidenceSummary,
		"duration_ms", res.ProcessingTimeMS,
	)
	return res
}

// stage wraps one pipeline step in a span so per-stage latency shows up
// in traces.
func (e *Engine) stage(ctx context.Context, name string, fn func(context.Context)) {
	sctx, span := e.tracer.Start(ctx, name,
		trace.WithAttributes(attribute.String("miwake.stage", name)))
	defer span.End()
	fn(sctx)
}

// truncate caps s at n bytes and appends an ellipsis, cut or not.
func truncate(s string, n int) string {
	if len(s) > n {
		s = s[:n]
	}
	return s + "..."
}
