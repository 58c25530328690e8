package coverage

import "github.com/Philbertano/shiftwise-workforce-planning-sub001/pkg/core/model"

// RiskLevel grades how exposed a plan is to its gaps
type RiskLevel string

const (
	RiskLow      RiskLevel = "LOW"
	RiskMedium   RiskLevel = "MEDIUM"
	RiskHigh     RiskLevel = "HIGH"
	RiskCritical RiskLevel = "CRITICAL"
)

// Cause classifies why a demand could not be covered
type Cause string

const (
	CauseNoEmployees  Cause = "no_employees"
	CauseNoQualified  Cause = "no_qualified_staff"
	CauseAllAbsent    Cause = "all_qualified_absent"
	CauseWorkload     Cause = "workload_limits"
	CauseInsufficient Cause = "insufficient_staff"
)

// ActionKind is the type of a remediation
type ActionKind string

const (
	ActionEscalation ActionKind = "escalation"
	ActionTraining   ActionKind = "training"
	ActionOvertime   ActionKind = "overtime"
	ActionTempHire   ActionKind = "temp_hire"
	ActionReschedule ActionKind = "reschedule"
)

// Remediation cost estimates in dollars
const (
	TempHireCostPerPosition = 200.0
	OvertimeHourlyRate      = 30.0
	OvertimeHoursPerShift   = 8.0
)

// SuggestedAction is one remediation proposed for a gap
type SuggestedAction struct {
	Kind        ActionKind `json:"kind"`
	Description string     `json:"description"`
}

// CoverageGap is a demand with fewer active assignments than required
type CoverageGap struct {
	DemandID         string            `json:"demandId"`
	StationID        string            `json:"stationId"`
	StationName      string            `json:"stationName"`
	Date             string            `json:"date"`
	ShiftTime        string            `json:"shiftTime"`
	Criticality      model.Priority    `json:"criticality"`
	Required         int               `json:"required"`
	Assigned         int               `json:"assigned"`
	Shortfall        int               `json:"shortfall"`
	Cause            Cause             `json:"cause"`
	Reason           string            `json:"reason"`
	SuggestedActions []SuggestedAction `json:"suggestedActions"`
}

// Report summarises coverage of a plan
type Report struct {
	TotalDemands       int           `json:"totalDemands"`
	CoveredDemands     int           `json:"coveredDemands"`
	CoveragePercentage float64       `json:"coveragePercentage"`
	RiskLevel          RiskLevel     `json:"riskLevel"`
	Gaps               []CoverageGap `json:"gaps"`
}

// RecommendedAction aggregates one kind of remediation across gaps
type RecommendedAction struct {
	Kind          ActionKind     `json:"kind"`
	Description   string         `json:"description"`
	Priority      model.Priority `json:"priority"`
	Positions     int            `json:"positions"`
	EstimatedCost float64        `json:"estimatedCost"`
	DemandIDs     []string       `json:"demandIds"`
}

// ImpactAnalysis describes the effect of a set of gaps
type ImpactAnalysis struct {
	CoverageChange     float64             `json:"coverageChange"`
	AffectedStations   []string            `json:"affectedStations"`
	RiskIncrease       float64             `json:"riskIncrease"`
	RecommendedActions []RecommendedAction `json:"recommendedActions"`
}
