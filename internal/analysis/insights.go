// Package analysis derives market insights from the flat track table:
// genre clusters, the opportunity score and content gaps.
package analysis

import (
	"fmt"

	"github.com/ademuri/market-insight-tools/internal/logger"
	"github.com/ademuri/market-insight-tools/internal/processing"
)

// Options tunes GenerateMarketInsights.
type Options struct {
	Clusters int
	// Seed pins the genre clustering. Zero leaves it random.
	Seed int64
}

// GenerateMarketInsights runs every analysis over records and assembles the
// combined report. Any failing analysis fails the whole report.
func GenerateMarketInsights(records []processing.FlatTrackRecord, params MarketParams, opts Options) (MarketInsights, error) {
	opportunity, err := ScoreOpportunity(records, params)
	if err != nil {
		return MarketInsights{}, fmt.Errorf("scoring %s: %w", params.Code, err)
	}

	clusters, err := ClusterGenres(records, opts.Clusters, opts.Seed)
	if err != nil {
		return MarketInsights{}, fmt.Errorf("clustering %s: %w", params.Code, err)
	}

	gaps := AnalyzeGaps(records, params)

	keyGaps := make([]string, 0, len(gaps.Recommendations))
	for _, g := range gaps.Recommendations {
		keyGaps = append(keyGaps, g.Category)
	}

	insights := MarketInsights{
		MarketCode:          params.Code,
		GenreClusters:       clusters,
		OpportunityAnalysis: opportunity,
		GapAnalysis:         gaps,
		Summary: Summary{
			OpportunityScore: opportunity.OpportunityScore,
			TotalTracks:      len(records),
			UniqueGenres:     countUniqueGenres(records),
			KeyGaps:          keyGaps,
		},
	}
	logger.Info("Insights for %s: score %.2f, %d tracks, %d clusters, %d key gaps",
		params.Code, insights.Summary.OpportunityScore, len(records), len(clusters), len(keyGaps))
	return insights, nil
}
