// Package dashboard folds the grouped record set and the scoring store into
// the comparative statistics the viewer's dashboard displays: per-model and
// per-provider means, conciseness histograms, impact case counts, model
// rankings, and top/bottom performers.
package dashboard

import (
	"sort"

	"github.com/visionrag/ragview/internal/metrics"
	"github.com/visionrag/ragview/internal/models"
)

// ConcisenessStats summarizes response length for one context mode.
type ConcisenessStats struct {
	AvgWordCount float64                     `json:"avg_word_count"`
	Histogram    map[metrics.Conciseness]int `json:"histogram"`
}

// EntityStats holds the aggregate view for one model or one embedding
// provider. Entities with zero ratings report 0 for every mean rather than
// NaN, and stay present so the dashboard can display them; they are only
// excluded from the ranking.
type EntityStats struct {
	Name string `json:"name"`

	MeanWithScore    float64 `json:"mean_with_score"`
	MeanWithoutScore float64 `json:"mean_without_score"`
	MeanImpact       float64 `json:"mean_impact"`

	RatedWith    int `json:"rated_with"`
	RatedWithout int `json:"rated_without"`
	RatedPairs   int `json:"rated_pairs"`

	// Pooled over both context modes.
	DirectCount        int `json:"direct_count"`
	HallucinationCount int `json:"hallucination_count"`

	With    ConcisenessStats `json:"with_context"`
	Without ConcisenessStats `json:"without_context"`
}

// RankedModel is one entry of the with-context ranking.
type RankedModel struct {
	Name          string  `json:"name"`
	MeanWithScore float64 `json:"mean_with_score"`
	RatedWith     int     `json:"rated_with"`
}

// TopPerformers identifies the entity with the most direct (3-point)
// ratings and the one with the most hallucination (0-point) ratings,
// pooled over both context modes. Empty names mean no ratings exist.
type TopPerformers struct {
	MostDirect        string `json:"most_direct"`
	MostHallucination string `json:"most_hallucination"`
}

// Summary is the full dashboard payload.
type Summary struct {
	// Load overview, matching the pipeline report's header cards.
	TotalGroups           int `json:"total_groups"`
	TotalRecords          int `json:"total_records"`
	SuccessfulRecords     int `json:"successful_records"`
	ErrorRecords          int `json:"error_records"`
	WithContextRecords    int `json:"with_context_records"`
	WithoutContextRecords int `json:"without_context_records"`
	TotalEvaluations      int `json:"total_evaluations"`

	Models    []EntityStats `json:"models"`
	Providers []EntityStats `json:"providers"`

	PositiveImpact int `json:"positive_impact"`
	ZeroImpact     int `json:"zero_impact"`
	NegativeImpact int `json:"negative_impact"`

	Ranking []RankedModel `json:"ranking"`

	ModelPerformers    TopPerformers `json:"model_performers"`
	ProviderPerformers TopPerformers `json:"provider_performers"`
}

// accumulator gathers raw values for one entity before finalization.
type accumulator struct {
	name          string
	withScores    []float64
	withoutScores []float64
	impacts       []float64

	direct        int
	hallucination int

	withWords    []float64
	withoutWords []float64
	withHist     map[metrics.Conciseness]int
	withoutHist  map[metrics.Conciseness]int
}

func newAccumulator(name string) *accumulator {
	return &accumulator{
		name:        name,
		withHist:    make(map[metrics.Conciseness]int),
		withoutHist: make(map[metrics.Conciseness]int),
	}
}

// Compute aggregates the (already filtered) grouped set against the rating
// source. Entity order is first-seen group order, which keeps the dashboard
// stable across recomputations.
func Compute(groups []*models.GroupedUnit, src metrics.RatingSource) *Summary {
	summary := &Summary{TotalGroups: len(groups)}

	byModel := map[string]*accumulator{}
	byProvider := map[string]*accumulator{}
	var modelOrder, providerOrder []string

	for _, g := range groups {
		model, ok := byModel[g.ModelName]
		if !ok {
			model = newAccumulator(g.ModelName)
			byModel[g.ModelName] = model
			modelOrder = append(modelOrder, g.ModelName)
		}
		provider, ok := byProvider[g.EmbeddingProvider]
		if !ok {
			provider = newAccumulator(g.EmbeddingProvider)
			byProvider[g.EmbeddingProvider] = provider
			providerOrder = append(providerOrder, g.EmbeddingProvider)
		}

		accumulateGroup(summary, g, src, model, provider)

		if delta, ok := metrics.ContextImpact(g, src); ok {
			switch {
			case delta > 0:
				summary.PositiveImpact++
			case delta < 0:
				summary.NegativeImpact++
			default:
				summary.ZeroImpact++
			}
		}
	}

	for _, name := range modelOrder {
		summary.Models = append(summary.Models, finalize(byModel[name]))
	}
	for _, name := range providerOrder {
		summary.Providers = append(summary.Providers, finalize(byProvider[name]))
	}

	summary.Ranking = rankModels(summary.Models)
	summary.ModelPerformers = topPerformers(summary.Models)
	summary.ProviderPerformers = topPerformers(summary.Providers)
	return summary
}

// accumulateGroup feeds one grouped pair into the summary counters and both
// entity accumulators.
func accumulateGroup(summary *Summary, g *models.GroupedUnit, src metrics.RatingSource, accs ...*accumulator) {
	for _, mode := range []models.ContextMode{models.ModeWith, models.ModeWithout} {
		rec := g.Member(mode)
		if rec == nil {
			continue
		}
		summary.TotalRecords++
		if rec.Failed() {
			summary.ErrorRecords++
		} else {
			summary.SuccessfulRecords++
		}
		if mode == models.ModeWith {
			summary.WithContextRecords++
		} else {
			summary.WithoutContextRecords++
		}

		words := float64(metrics.WordCount(rec.Response()))
		class := metrics.ConcisenessClass(rec.ResponseText)

		category, rated := src.Evaluation(g, mode)
		if rated {
			summary.TotalEvaluations++
		}

		for _, acc := range accs {
			if mode == models.ModeWith {
				acc.withWords = append(acc.withWords, words)
				acc.withHist[class]++
			} else {
				acc.withoutWords = append(acc.withoutWords, words)
				acc.withoutHist[class]++
			}
			if !rated {
				continue
			}
			points := float64(category.Points())
			if mode == models.ModeWith {
				acc.withScores = append(acc.withScores, points)
			} else {
				acc.withoutScores = append(acc.withoutScores, points)
			}
			switch category {
			case models.CategoryDirect:
				acc.direct++
			case models.CategoryHallucinated:
				acc.hallucination++
			}
		}
	}

	if delta, ok := metrics.ContextImpact(g, src); ok {
		for _, acc := range accs {
			acc.impacts = append(acc.impacts, float64(delta))
		}
	}
}

func finalize(acc *accumulator) EntityStats {
	return EntityStats{
		Name:               acc.name,
		MeanWithScore:      metrics.Mean(acc.withScores),
		MeanWithoutScore:   metrics.Mean(acc.withoutScores),
		MeanImpact:         metrics.Mean(acc.impacts),
		RatedWith:          len(acc.withScores),
		RatedWithout:       len(acc.withoutScores),
		RatedPairs:         len(acc.impacts),
		DirectCount:        acc.direct,
		HallucinationCount: acc.hallucination,
		With: ConcisenessStats{
			AvgWordCount: metrics.Mean(acc.withWords),
			Histogram:    acc.withHist,
		},
		Without: ConcisenessStats{
			AvgWordCount: metrics.Mean(acc.withoutWords),
			Histogram:    acc.withoutHist,
		},
	}
}

// rankModels orders models by mean with-context score descending. Models
// with no rated with-context member are excluded. Ties keep entity order.
func rankModels(stats []EntityStats) []RankedModel {
	ranking := make([]RankedModel, 0, len(stats))
	for _, s := range stats {
		if s.RatedWith == 0 {
			continue
		}
		ranking = append(ranking, RankedModel{
			Name:          s.Name,
			MeanWithScore: s.MeanWithScore,
			RatedWith:     s.RatedWith,
		})
	}
	sort.SliceStable(ranking, func(i, j int) bool {
		return ranking[i].MeanWithScore > ranking[j].MeanWithScore
	})
	return ranking
}

// topPerformers picks the entities with the highest direct and highest
// hallucination counts. Entities with zero of a category never win it.
func topPerformers(stats []EntityStats) TopPerformers {
	var out TopPerformers
	bestDirect, bestHallucination := 0, 0
	for _, s := range stats {
		if s.DirectCount > bestDirect {
			bestDirect = s.DirectCount
			out.MostDirect = s.Name
		}
		if s.HallucinationCount > bestHallucination {
			bestHallucination = s.HallucinationCount
			out.MostHallucination = s.Name
		}
	}
	return out
}
