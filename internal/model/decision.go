package model

// SeverityResult is the scorer's output for one case.
type SeverityResult struct {
	Score      float64       `json:"severity_score"` // always clamped to [0,1]
	Level      SeverityLevel `json:"severity_level"`
	Reasoning  string        `json:"reasoning"`
	Confidence float64       `json:"confidence"`
}

// SimilarityResult holds related cases found for one query case.
type SimilarityResult struct {
	RelatedCases     []string           `json:"related_cases"` // descending similarity, never contains the query id
	SimilarityScores map[string]float64 `json:"similarity_scores"`
	ClusterID        string             `json:"cluster_id,omitempty"` // set only when >=2 related cases
}

// Cluster is a group of >=2 cases whose narratives embed close together.
type Cluster struct {
	ID      string   `json:"cluster_id"`
	CaseIDs []string `json:"case_ids"`
}

// ClusterResult is the output of batch clustering.
type ClusterResult struct {
	Clusters    []Cluster         `json:"clusters"`
	Assignments map[string]string `json:"cluster_assignments"` // case id -> cluster id
}

// RecommendationType names a proposed dispatch action.
type RecommendationType string

const (
	RecDispatchAmbulance    RecommendationType = "dispatch_ambulance"
	RecAlertHospital        RecommendationType = "alert_hospital"
	RecNotifyPolice         RecommendationType = "notify_police"
	RecRequestRoadClearance RecommendationType = "request_road_clearance"
	RecAskForMoreData       RecommendationType = "ask_for_more_data"
	RecEscalate             RecommendationType = "escalate"
	RecOther                RecommendationType = "other"
)

// Recommendation is a single proposed action emitted by rule evaluation.
// Immutable within a decision cycle.
type Recommendation struct {
	Type       RecommendationType `json:"type"`
	Priority   int                `json:"priority"` // 1 = most urgent
	Confidence float64            `json:"confidence"`
	Reasoning  string             `json:"reasoning"`
}

// ActionStatus records how a single collaborator call ended.
type ActionStatus string

const (
	ActionSucceeded        ActionStatus = "succeeded"
	ActionFailed           ActionStatus = "failed"
	ActionSkippedDuplicate ActionStatus = "skipped_duplicate"
	ActionSkippedNoHandler ActionStatus = "no_handler"
)

// ActionOutcome is the per-action result of executing one recommendation.
// Partial failure stays introspectable: one outcome per recommendation,
// in rule order.
type ActionOutcome struct {
	Type   RecommendationType `json:"type"`
	Label  string             `json:"label"` // e.g. "ambulance_dispatched"
	Status ActionStatus       `json:"status"`
	Error  string             `json:"error,omitempty"`
}

// DecisionResult is the aggregated output of one decision cycle.
// Immutable once returned; persistence is the caller's concern.
type DecisionResult struct {
	CaseID          string           `json:"case_id"`
	Recommendations []Recommendation `json:"recommendations"` // priority-ascending
	Confidence      float64          `json:"confidence"`      // mean of recommendation confidences, 0.0 when empty
	Reasoning       string           `json:"reasoning"`
	ActionsTaken    []string         `json:"actions_taken"` // labels of calls that completed without error
	Outcomes        []ActionOutcome  `json:"action_outcomes"`
}
