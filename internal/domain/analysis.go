package domain

// AnalysisResult is the document the model is instructed to return. It only
// drives the structured-output schema; model replies are never decoded into it.
type AnalysisResult struct {
	Summary          AnalysisSummary       `json:"summary"`
	Timeline         Timeline              `json:"timeline"`
	Communication    AnalysisCommunication `json:"communication"`
	Emotional        AnalysisEmotional     `json:"emotional_analysis"`
	Flags            AnalysisFlags         `json:"flags"`
	TrendProjection  TrendProjection       `json:"trend_projection"`
	FuturePrediction FuturePrediction      `json:"future_prediction"`
	Suggestions      AnalysisSuggestions   `json:"suggestions"`
}

type AnalysisSummary struct {
	ParticipantOneName      string  `json:"participant_one_name"`
	ParticipantTwoName      string  `json:"participant_two_name"`
	RelationshipType        string  `json:"relationship_type"`
	DynamicLabel            string  `json:"dynamic_label"`
	RelationshipHealthScore float64 `json:"relationship_health_score" jsonschema:"minimum=0,maximum=100"`
	RomanticProbability     float64 `json:"romantic_probability" jsonschema:"minimum=0,maximum=1"`
	OverallSentiment        string  `json:"overall_sentiment" jsonschema:"enum=positive,enum=neutral,enum=negative,enum=mixed"`
}

type AnalysisCommunication struct {
	Participants      AnalysisParticipants `json:"participants"`
	StyleDistribution []StyleShare         `json:"style_distribution"`
}

type AnalysisParticipants struct {
	UserOne ParticipantCommunication `json:"UserOne"`
	UserTwo ParticipantCommunication `json:"UserTwo"`
}

type ParticipantCommunication struct {
	Score      float64  `json:"score" jsonschema:"minimum=0,maximum=100"`
	Tone       string   `json:"tone"`
	Strengths  []string `json:"strengths"`
	Weaknesses []string `json:"weaknesses"`
}

type StyleShare struct {
	Style string  `json:"style" jsonschema:"enum=assertive,enum=passive,enum=aggressive,enum=passive_aggressive"`
	Value float64 `json:"value" jsonschema:"minimum=0,maximum=100"`
}

type AnalysisEmotional struct {
	UserOne ParticipantEmotion `json:"UserOne"`
	UserTwo ParticipantEmotion `json:"UserTwo"`
}

type ParticipantEmotion struct {
	Metrics []LabeledValue `json:"metrics"`
}

type LabeledValue struct {
	Label string  `json:"label" jsonschema:"enum=urgency,enum=emotional_expression,enum=calmness,enum=dependency"`
	Value float64 `json:"value" jsonschema:"minimum=0,maximum=100"`
}

type AnalysisFlags struct {
	UserOne ParticipantFlagLists `json:"UserOne"`
	UserTwo ParticipantFlagLists `json:"UserTwo"`
}

type ParticipantFlagLists struct {
	Green []string `json:"green"`
	Red   []string `json:"red"`
}

type AnalysisSuggestions struct {
	UserOne []string `json:"UserOne"`
	UserTwo []string `json:"UserTwo"`
	Both    []string `json:"both"`
}
