package insights

// InsightType classifies what an insight says about the store.
type InsightType string

const (
	TypeProblem     InsightType = "problem"
	TypeOpportunity InsightType = "opportunity"
	TypeSuccess     InsightType = "success"
)

// Severity ranks how urgently an insight needs attention.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Health is the overall store grade.
type Health string

const (
	HealthExcellent Health = "excellent"
	HealthGood      Health = "good"
	HealthWarning   Health = "warning"
	HealthCritical  Health = "critical"
)

// Metrics carries the numbers an insight was derived from.
type Metrics struct {
	Current  float64  `json:"current"`
	Previous *float64 `json:"previous,omitempty"`
	Change   *float64 `json:"change,omitempty"`
}

// Insight is a single finding about the store.
type Insight struct {
	ID             string      `json:"id"`
	Type           InsightType `json:"type"`
	Severity       Severity    `json:"severity"`
	Title          string      `json:"title"`
	Description    string      `json:"description"`
	Impact         string      `json:"impact"`
	Recommendation string      `json:"recommendation"`
	Metrics        Metrics     `json:"metrics"`
	Category       string      `json:"category"`
}

// StoreAnalysis is the full engine output for one store.
type StoreAnalysis struct {
	OverallHealth Health    `json:"overallHealth"`
	Insights      []Insight `json:"insights"`
	Summary       string    `json:"summary"`
	TopPriorities []string  `json:"topPriorities"`
}
