// Package normalize reshapes loosely structured model output into domain.Dashboard.
package normalize

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"

	"talksense/internal/domain"
)

const (
	defaultUserOneName      = "User One"
	defaultUserTwoName      = "User Two"
	defaultRelationshipType = "Unknown"
	defaultSentiment        = "neutral"
	defaultTimelineDate     = "N/A"
)

// participantKeys lists the spellings accepted for each participant, in lookup order.
var participantKeys = [2][]string{
	{"UserOne", "user_one", "userOne"},
	{"UserTwo", "user_two", "userTwo"},
}

// Normalize never fails: null, invalid JSON and non-object documents all
// produce the default Dashboard.
func Normalize(doc []byte) domain.Dashboard {
	var root gjson.Result
	if gjson.ValidBytes(doc) {
		root = gjson.ParseBytes(doc)
	}
	if !root.IsObject() {
		root = gjson.Result{}
	}
	return fromRoot(root)
}

// FromValue normalizes an already decoded document.
func FromValue(v any) domain.Dashboard {
	switch t := v.(type) {
	case nil:
		return Normalize(nil)
	case json.RawMessage:
		return Normalize(t)
	case []byte:
		return Normalize(t)
	}
	b, err := json.Marshal(v)
	if err != nil {
		return Normalize(nil)
	}
	return Normalize(b)
}

func fromRoot(root gjson.Result) domain.Dashboard {
	summary := root.Get("summary")
	communication := root.Get("communication")
	emotional := root.Get("emotional_analysis")
	flags := root.Get("flags")
	suggestions := root.Get("suggestions")
	timeline := root.Get("timeline")
	future := root.Get("future_prediction")

	commOne := communicationBlock(communication, 0)
	commTwo := communicationBlock(communication, 1)
	sharedStyle := communication.Get("style_distribution")

	return domain.Dashboard{
		ParticipantNames: domain.ParticipantNames{
			UserOne: firstString(defaultUserOneName, summary.Get("participant_one_name"), commOne.Get("name")),
			UserTwo: firstString(defaultUserTwoName, summary.Get("participant_two_name"), commTwo.Get("name")),
		},
		Summary: domain.Summary{
			RelationshipType:        stringOr(summary.Get("relationship_type"), defaultRelationshipType),
			DynamicLabel:            stringOr(summary.Get("dynamic_label"), ""),
			RelationshipHealthScore: numberOr(summary.Get("relationship_health_score")),
			RomanticProbability:     percentage(summary.Get("romantic_probability")),
			OverallSentiment:        strings.ToLower(stringOr(summary.Get("overall_sentiment"), defaultSentiment)),
		},
		Timeline: domain.Timeline{
			StartDate: stringOr(timeline.Get("start_date"), defaultTimelineDate),
			EndDate:   stringOr(timeline.Get("end_date"), defaultTimelineDate),
			Context:   stringOr(timeline.Get("context"), ""),
		},
		Communication: domain.PerParticipant[domain.CommunicationProfile]{
			UserOne: communicationProfile(commOne, sharedStyle),
			UserTwo: communicationProfile(commTwo, sharedStyle),
		},
		EmotionalAnalysis: domain.PerParticipant[domain.EmotionalMetrics]{
			UserOne: emotionalMetrics(participant(emotional, 0)),
			UserTwo: emotionalMetrics(participant(emotional, 1)),
		},
		Flags: domain.PerParticipant[domain.FlagSet]{
			UserOne: flagSet(participant(flags, 0)),
			UserTwo: flagSet(participant(flags, 1)),
		},
		TrendProjection: trendProjection(root.Get("trend_projection")),
		FuturePrediction: domain.FuturePrediction{
			IfUnchanged: stringOr(future.Get("if_unchanged"), ""),
			IfImproved:  stringOr(future.Get("if_improved"), ""),
		},
		Suggestions: domain.Suggestions{
			UserOne: stringList(participant(suggestions, 0)),
			UserTwo: stringList(participant(suggestions, 1)),
			Both:    stringList(suggestions.Get("both")),
		},
	}
}

// participant finds the block for participant idx under parent, either keyed
// by one of participantKeys or positionally when parent is an array.
func participant(parent gjson.Result, idx int) gjson.Result {
	if parent.IsArray() {
		items := parent.Array()
		if idx < len(items) {
			return items[idx]
		}
		return gjson.Result{}
	}
	if !parent.IsObject() {
		return gjson.Result{}
	}
	for _, key := range participantKeys[idx] {
		if v := parent.Get(key); v.Exists() {
			return v
		}
	}
	return gjson.Result{}
}

// communicationBlock accepts both communication.participants.UserOne and the
// flat communication.UserOne layout.
func communicationBlock(communication gjson.Result, idx int) gjson.Result {
	if p := participant(communication.Get("participants"), idx); p.IsObject() {
		return p
	}
	return participant(communication, idx)
}

func communicationProfile(block, sharedStyle gjson.Result) domain.CommunicationProfile {
	style := sharedStyle
	if own := firstExisting(block, "style_distribution", "communication_style"); own.Exists() {
		style = own
	}
	return domain.CommunicationProfile{
		CommunicationScore: numberOr(firstExisting(block, "score", "communication_score")),
		Tone:               stringOr(block.Get("tone"), ""),
		CommunicationStyle: styleDistribution(style),
		Strengths:          stringList(block.Get("strengths")),
		Weaknesses:         stringList(block.Get("weaknesses")),
	}
}

func styleDistribution(src gjson.Result) domain.StyleDistribution {
	values := labeledValues(src, "style")
	return domain.StyleDistribution{
		Assertive:         values["assertive"],
		Passive:           values["passive"],
		Aggressive:        values["aggressive"],
		PassiveAggressive: values["passive_aggressive"],
	}
}

// emotionalMetrics reads either a {metrics: [{label, value}]} block or a flat
// object keyed by metric name.
func emotionalMetrics(block gjson.Result) domain.EmotionalMetrics {
	src := block.Get("metrics")
	if !src.Exists() {
		src = block
	}
	values := labeledValues(src, "label")
	return domain.EmotionalMetrics{
		Urgency:             values["urgency"],
		EmotionalExpression: values["emotional_expression"],
		Calmness:            values["calmness"],
		Dependency:          values["dependency"],
	}
}

// labeledValues flattens [{<labelField>: name, value: n}] or {name: n} into a
// map keyed by canonical label. Entries whose value is not numeric are skipped.
func labeledValues(src gjson.Result, labelField string) map[string]float64 {
	out := make(map[string]float64)
	switch {
	case src.IsArray():
		for _, item := range src.Array() {
			label := item.Get(labelField)
			if !label.Exists() {
				label = item.Get("label")
			}
			if label.Type != gjson.String {
				continue
			}
			if v, ok := number(item.Get("value")); ok {
				out[canonicalLabel(label.Str)] = v
			}
		}
	case src.IsObject():
		src.ForEach(func(key, value gjson.Result) bool {
			if v, ok := number(value); ok {
				out[canonicalLabel(key.Str)] = v
			}
			return true
		})
	}
	return out
}

// canonicalLabel lowercases and joins words with underscores, so
// "Emotional Expression" and "passive-aggressive" match the fixed keys.
func canonicalLabel(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, "-", " ")
	return strings.Join(strings.Fields(s), "_")
}

func flagSet(block gjson.Result) domain.FlagSet {
	return domain.FlagSet{
		GreenFlags: stringList(firstExisting(block, "green", "green_flags")),
		RedFlags:   stringList(firstExisting(block, "red", "red_flags")),
	}
}

func trendProjection(t gjson.Result) domain.TrendProjection {
	labels := stringList(t.Get("labels"))
	if len(labels) == 0 {
		labels = []string{"past", "present", "future"}
	}
	return domain.TrendProjection{
		Labels:             labels,
		RelationshipHealth: series(t.Get("relationship_health")),
		EmotionalStability: series(t.Get("emotional_stability")),
	}
}

// series keeps arrays as given (non-numeric entries become 0) and falls back
// to three zero points.
func series(r gjson.Result) []float64 {
	if !r.IsArray() {
		return []float64{0, 0, 0}
	}
	items := r.Array()
	out := make([]float64, 0, len(items))
	for _, item := range items {
		out = append(out, numberOr(item))
	}
	return out
}

// percentage treats values in [0, 1] as fractions and anything larger as an
// already-scaled percentage. The result is rounded and clamped to [0, 100].
func percentage(r gjson.Result) int {
	v, ok := number(r)
	if !ok {
		return 0
	}
	if v <= 1 {
		v *= 100
	}
	v = math.Round(v)
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return int(v)
}

func firstExisting(block gjson.Result, keys ...string) gjson.Result {
	if !block.IsObject() {
		return gjson.Result{}
	}
	for _, key := range keys {
		if v := block.Get(key); v.Exists() {
			return v
		}
	}
	return gjson.Result{}
}

func number(r gjson.Result) (float64, bool) {
	var v float64
	switch r.Type {
	case gjson.Number:
		v = r.Num
	case gjson.String:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(r.Str), 64)
		if err != nil {
			return 0, false
		}
		v = parsed
	default:
		return 0, false
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

func numberOr(r gjson.Result) float64 {
	v, _ := number(r)
	return v
}

func stringOr(r gjson.Result, def string) string {
	if r.Type != gjson.String {
		return def
	}
	if s := strings.TrimSpace(r.Str); s != "" {
		return s
	}
	return def
}

func firstString(def string, candidates ...gjson.Result) string {
	for _, c := range candidates {
		if s := stringOr(c, ""); s != "" {
			return s
		}
	}
	return def
}

func stringList(r gjson.Result) []string {
	out := []string{}
	if !r.IsArray() {
		return out
	}
	for _, item := range r.Array() {
		if item.Type != gjson.String {
			continue
		}
		if s := strings.TrimSpace(item.Str); s != "" {
			out = append(out, s)
		}
	}
	return out
}
