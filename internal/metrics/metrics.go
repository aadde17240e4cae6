// Package metrics derives comparative metrics from grouped evaluation pairs
// and their human ratings. Every function here is total: missing ratings,
// missing pair members, nil response text, and out-of-range numeric inputs
// all degrade to sentinels or labels rather than errors.
package metrics

import (
	"strings"

	"github.com/visionrag/ragview/internal/models"
)

// Unrated is the correctness-score sentinel for a pair where neither member
// has been rated. It is distinguishable from a legitimate 0.0 score (a pair
// of hallucination ratings).
const Unrated = -1.0

// RatingSource supplies the human rating for one side of a grouped pair.
// The scoring store satisfies this interface.
type RatingSource interface {
	Evaluation(g *models.GroupedUnit, mode models.ContextMode) (models.Category, bool)
}

// CorrectnessScore returns the mean of the point values of the rated members
// of g, or Unrated when neither member has a rating.
func CorrectnessScore(g *models.GroupedUnit, src RatingSource) float64 {
	var points []float64
	for _, mode := range []models.ContextMode{models.ModeWith, models.ModeWithout} {
		if c, ok := src.Evaluation(g, mode); ok {
			points = append(points, float64(c.Points()))
		}
	}
	if len(points) == 0 {
		return Unrated
	}
	return Mean(points)
}

// ContextImpact returns the signed delta (with-context points minus
// without-context points) for g. The second return is false unless both
// members are rated.
func ContextImpact(g *models.GroupedUnit, src RatingSource) (int, bool) {
	with, okWith := src.Evaluation(g, models.ModeWith)
	without, okWithout := src.Evaluation(g, models.ModeWithout)
	if !okWith || !okWithout {
		return 0, false
	}
	return with.Points() - without.Points(), true
}

// ImpactLabel maps a context-impact delta to its qualitative label. Deltas
// outside the reachable [-3, 3] range fall back to a sign-based label.
func ImpactLabel(delta int) string {
	switch {
	case delta == 3:
		return "Major Improvement"
	case delta == 2:
		return "Significant Improvement"
	case delta == 1:
		return "Minor Improvement"
	case delta == 0:
		return "No Change"
	case delta == -1:
		return "Minor Degradation"
	case delta == -2 || delta == -3:
		return "Major Degradation"
	case delta > 3:
		return "Improvement"
	default:
		return "Degradation"
	}
}

// Conciseness buckets a response by word count.
type Conciseness string

const (
	ConcisenessNoResponse Conciseness = "no_response"
	ConcisenessBrief      Conciseness = "brief"
	ConcisenessIdeal      Conciseness = "ideal"
	ConcisenessVerbose    Conciseness = "verbose"
	ConcisenessLong       Conciseness = "long"
	ConcisenessExcessive  Conciseness = "excessive"
)

// ConcisenessClasses lists the buckets in ascending length order, with the
// no-response class first. Useful for stable histogram display.
var ConcisenessClasses = []Conciseness{
	ConcisenessNoResponse,
	ConcisenessBrief,
	ConcisenessIdeal,
	ConcisenessVerbose,
	ConcisenessLong,
	ConcisenessExcessive,
}

// WordCount counts whitespace-separated words in trimmed text.
func WordCount(text string) int {
	return len(strings.Fields(text))
}

// ConcisenessClass classifies response text by word count. Nil or empty text
// is the distinct no-response class, not brief.
func ConcisenessClass(text *string) Conciseness {
	if text == nil || strings.TrimSpace(*text) == "" {
		return ConcisenessNoResponse
	}
	return concisenessForCount(WordCount(*text))
}

func concisenessForCount(words int) Conciseness {
	switch {
	case words < 10:
		return ConcisenessBrief
	case words <= 50:
		return ConcisenessIdeal
	case words <= 100:
		return ConcisenessVerbose
	case words <= 150:
		return ConcisenessLong
	default:
		return ConcisenessExcessive
	}
}

// SimilarityBucket labels a retrieval distance qualitatively.
type SimilarityBucket string

const (
	SimilarityVerySimilar SimilarityBucket = "very_similar"
	SimilaritySimilar     SimilarityBucket = "similar"
	SimilarityModerate    SimilarityBucket = "moderate"
	SimilarityPoor        SimilarityBucket = "poor"
	SimilarityUnknown     SimilarityBucket = "unknown"
)

// BucketForDistance maps a single retrieval distance to its bucket.
// Negative distances cannot occur upstream but clamp to very_similar.
func BucketForDistance(distance float64) SimilarityBucket {
	switch {
	case distance <= 0.2:
		return SimilarityVerySimilar
	case distance <= 0.5:
		return SimilaritySimilar
	case distance <= 1.0:
		return SimilarityModerate
	default:
		return SimilarityPoor
	}
}

// GroupSimilarityBucket buckets a grouped pair by the distance of its
// closest retrieved neighbor. Pairs with no retrieval (no with-context
// member, or an empty similar-items list) get the distinct unknown bucket.
func GroupSimilarityBucket(g *models.GroupedUnit) SimilarityBucket {
	if g.WithContext == nil || len(g.WithContext.SimilarItems) == 0 {
		return SimilarityUnknown
	}
	best := g.WithContext.SimilarItems[0].Distance
	for _, item := range g.WithContext.SimilarItems[1:] {
		if item.Distance < best {
			best = item.Distance
		}
	}
	return BucketForDistance(best)
}

// Mean computes the arithmetic mean of a float64 slice.
// Returns 0 for empty input.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
