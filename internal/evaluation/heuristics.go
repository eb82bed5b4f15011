// Package evaluation scores generated answers, either through an external
// evaluation service or with cheap local heuristics.
package evaluation

import (
	"math"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Metric keys shared by the local and remote paths.
const (
	KeyResponseLength    = "response_length"
	KeyResponseWordCount = "response_word_count"
	KeyHasResponse       = "has_response"
	KeyQueryLength       = "query_length"
	KeyRoute             = "route"
	KeyRelevance         = "relevance_score"
	KeyCoherence         = "coherence_score"
	KeyConfidence        = "confidence"
	KeySource            = "source"
	KeyRemoteLogged      = "remote_logged"
	KeyError             = "evaluation_error"
)

const (
	baseConfidence    = 0.70
	contextConfidence = 0.15
)

// Input is what the heuristics look at.
type Input struct {
	Query          string
	Response       string
	Route          string
	HasRAGContext  bool
	HasWeatherData bool
}

// Local computes the heuristic metrics for one answer.
func Local(in Input) map[string]any {
	route := in.Route
	if route == "" {
		route = "unknown"
	}
	return map[string]any{
		KeyResponseLength:    utf8.RuneCountInString(in.Response),
		KeyResponseWordCount: len(strings.Fields(in.Response)),
		KeyHasResponse:       in.Response != "",
		KeyQueryLength:       utf8.RuneCountInString(in.Query),
		KeyRoute:             route,
		KeyRelevance:         Relevance(in.Query, in.Response),
		KeyCoherence:         Coherence(in.Response),
		KeyConfidence:        Confidence(in.HasRAGContext, in.HasWeatherData),
	}
}

// Relevance is the share of distinct lowercased query words that also appear
// in the response. A query without words scores 0.
func Relevance(query, response string) float64 {
	queryWords := wordSet(query)
	if len(queryWords) == 0 {
		return 0
	}
	responseWords := wordSet(response)

	shared := 0
	for w := range queryWords {
		if _, ok := responseWords[w]; ok {
			shared++
		}
	}
	return round2(float64(shared) / float64(len(queryWords)))
}

// Coherence averages four indicators: non-empty, longer than 50 characters,
// contains a period, starts with an uppercase letter.
func Coherence(response string) float64 {
	indicators := []bool{
		response != "",
		utf8.RuneCountInString(response) > 50,
		strings.Contains(response, "."),
		startsUpper(response),
	}
	met := 0
	for _, ok := range indicators {
		if ok {
			met++
		}
	}
	return round2(float64(met) / float64(len(indicators)))
}

// Confidence starts at 0.70 and adds 0.15 per available context source.
func Confidence(hasRAGContext, hasWeatherData bool) float64 {
	c := baseConfidence
	if hasRAGContext {
		c += contextConfidence
	}
	if hasWeatherData {
		c += contextConfidence
	}
	return math.Min(round2(c), 1.0)
}

func wordSet(s string) map[string]struct{} {
	words := strings.Fields(strings.ToLower(s))
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}

func startsUpper(s string) bool {
	r, _ := utf8.DecodeRuneInString(s)
	return r != utf8.RuneError && unicode.IsUpper(r)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
