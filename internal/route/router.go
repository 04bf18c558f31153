package route

import (
	"fmt"
	"strings"

	"github.com/ppiankov/fnolroute/internal/model"
)

// DefaultFastTrackThreshold is the amount below which a clean claim is fast-tracked
const DefaultFastTrackThreshold int64 = 25000

// Router picks exactly one queue for a claim
type Router struct {
	fastTrackThreshold int64
}

// NewRouter creates a router. A non-positive threshold falls back to the default.
func NewRouter(fastTrackThreshold int64) *Router {
	if fastTrackThreshold <= 0 {
		fastTrackThreshold = DefaultFastTrackThreshold
	}
	return &Router{fastTrackThreshold: fastTrackThreshold}
}

// Threshold returns the configured fast-track threshold
func (r *Router) Threshold() int64 {
	return r.fastTrackThreshold
}

// Route applies the precedence rules in order; the first one that holds decides.
func (r *Router) Route(f model.ExtractedFields, v model.ValidationResult) model.RoutingDecision {
	// 1. Anything mandatory missing
	if v.HasMissing() {
		return model.RoutingDecision{
			Route:  model.RouteManualReview,
			Reason: "Missing mandatory fields: " + strings.Join(v.MissingFields, ", "),
			Rule:   model.RuleMissingFields,
		}
	}

	// 2. Fraud language
	if v.InvestigationFlag {
		return model.RoutingDecision{
			Route:  model.RouteInvestigation,
			Reason: investigationReason(f),
			Rule:   model.RuleInvestigation,
		}
	}

	// 3. Injury or health lines
	if ct, ok := f.Text(model.FieldClaimType); ok {
		lower := strings.ToLower(ct)
		if strings.Contains(lower, "injury") || strings.Contains(lower, "health") {
			return model.RoutingDecision{
				Route:  model.RouteSpecialistQueue,
				Reason: "Claim indicates injury/medical; send to specialist queue.",
				Rule:   model.RuleSpecialist,
			}
		}
	}

	// 4. Amount against threshold
	if f.EstimatedDamage != nil {
		amt := *f.EstimatedDamage
		if amt < r.fastTrackThreshold {
			return model.RoutingDecision{
				Route:  model.RouteFastTrack,
				Reason: fmt.Sprintf("Estimated damage %d < %d and no critical inconsistencies.", amt, r.fastTrackThreshold),
				Rule:   model.RuleFastTrack,
			}
		}
		return model.RoutingDecision{
			Route:  model.RouteManualReview,
			Reason: fmt.Sprintf("Estimated damage %d >= %d; manual review required.", amt, r.fastTrackThreshold),
			Rule:   model.RuleOverThreshold,
		}
	}

	// 5. Nothing to go on
	return model.RoutingDecision{
		Route:  model.RouteManualReview,
		Reason: "Insufficient information to route automatically.",
		Rule:   model.RuleInsufficientInfo,
	}
}

func investigationReason(f model.ExtractedFields) string {
	desc, _ := f.Text(model.FieldDescription)
	terms := model.FindSuspiciousTerms(desc)
	if len(terms) == 0 {
		return "Suspicious keywords found in description; investigation flagged."
	}
	return fmt.Sprintf("Suspicious keywords found in description (%s); investigation flagged.", strings.Join(terms, ", "))
}
