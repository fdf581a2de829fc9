package domain

// Dashboard is the normalized, default-complete view of an analysis. Every
// field is always present and no collection is ever nil.
type Dashboard struct {
	ParticipantNames  ParticipantNames                     `json:"participantNames"`
	Summary           Summary                              `json:"summary"`
	Timeline          Timeline                             `json:"timeline"`
	Communication     PerParticipant[CommunicationProfile] `json:"communication"`
	EmotionalAnalysis PerParticipant[EmotionalMetrics]     `json:"emotional_analysis"`
	Flags             PerParticipant[FlagSet]              `json:"flags"`
	TrendProjection   TrendProjection                      `json:"trend_projection"`
	FuturePrediction  FuturePrediction                     `json:"future_prediction"`
	Suggestions       Suggestions                          `json:"suggestions"`
}

// PerParticipant holds one value for each of the two participants.
type PerParticipant[T any] struct {
	UserOne T `json:"user_one"`
	UserTwo T `json:"user_two"`
}

type ParticipantNames struct {
	UserOne string `json:"user_one"`
	UserTwo string `json:"user_two"`
}

type Summary struct {
	RelationshipType        string  `json:"relationship_type"`
	DynamicLabel            string  `json:"dynamic_label"`
	RelationshipHealthScore float64 `json:"relationship_health_score"`
	// RomanticProbability is a whole percentage in [0, 100].
	RomanticProbability int    `json:"romantic_probability"`
	OverallSentiment    string `json:"overall_sentiment"`
}

type Timeline struct {
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	Context   string `json:"context"`
}

type CommunicationProfile struct {
	CommunicationScore float64           `json:"communication_score"`
	Tone               string            `json:"tone"`
	CommunicationStyle StyleDistribution `json:"communication_style"`
	Strengths          []string          `json:"strengths"`
	Weaknesses         []string          `json:"weaknesses"`
}

type StyleDistribution struct {
	Assertive         float64 `json:"assertive"`
	Passive           float64 `json:"passive"`
	Aggressive        float64 `json:"aggressive"`
	PassiveAggressive float64 `json:"passive_aggressive"`
}

type EmotionalMetrics struct {
	Urgency             float64 `json:"urgency"`
	EmotionalExpression float64 `json:"emotional_expression"`
	Calmness            float64 `json:"calmness"`
	Dependency          float64 `json:"dependency"`
}

type FlagSet struct {
	GreenFlags []string `json:"green_flags"`
	RedFlags   []string `json:"red_flags"`
}

type TrendProjection struct {
	Labels             []string  `json:"labels"`
	RelationshipHealth []float64 `json:"relationship_health"`
	EmotionalStability []float64 `json:"emotional_stability"`
}

type FuturePrediction struct {
	IfUnchanged string `json:"if_unchanged"`
	IfImproved  string `json:"if_improved"`
}

type Suggestions struct {
	UserOne []string `json:"user_one"`
	UserTwo []string `json:"user_two"`
	Both    []string `json:"both"`
}
