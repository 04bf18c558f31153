package model

// Route names a downstream handling queue
type Route string

const (
	RouteManualReview    Route = "Manual Review"
	RouteInvestigation   Route = "Investigation"
	RouteSpecialistQueue Route = "Specialist Queue"
	RouteFastTrack       Route = "Fast-track"
)

// Routes lists every route in the closed enumeration.
var Routes = []Route{RouteManualReview, RouteInvestigation, RouteSpecialistQueue, RouteFastTrack}

// DecisionRule identifies which precedence rule produced a decision
type DecisionRule string

const (
	RuleMissingFields    DecisionRule = "missing_fields"
	RuleInvestigation    DecisionRule = "investigation"
	RuleSpecialist       DecisionRule = "specialist"
	RuleFastTrack        DecisionRule = "fast_track"
	RuleOverThreshold    DecisionRule = "over_threshold"
	RuleInsufficientInfo DecisionRule = "insufficient_information"
)

// RoutingDecision is the single outcome of routing one claim
type RoutingDecision struct {
	Route  Route        `json:"route"`
	Reason string       `json:"reason"`
	Rule   DecisionRule `json:"rule"`
}
