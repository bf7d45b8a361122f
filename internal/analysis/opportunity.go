package analysis

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/ademuri/market-insight-tools/internal/processing"
)

// ErrInvalidMarket is returned for market parameters outside their domain.
var ErrInvalidMarket = errors.New("invalid market parameters")

// Score weights. They sum to 1.
const (
	popularityWeight = 0.3
	diversityWeight  = 0.2
	growthWeight     = 0.3
	localWeight      = 0.2
)

func (p MarketParams) validate() error {
	if p.MarketSize <= 0 {
		return fmt.Errorf("%w: market size %d for %s", ErrInvalidMarket, p.MarketSize, p.Code)
	}
	if p.CompetitionLevel < 0 || p.CompetitionLevel > 1 || math.IsNaN(p.CompetitionLevel) {
		return fmt.Errorf("%w: competition level %v for %s", ErrInvalidMarket, p.CompetitionLevel, p.Code)
	}
	return nil
}

// ScoreOpportunity computes the weighted opportunity score of a market. An
// empty table yields the empty report.
func ScoreOpportunity(records []processing.FlatTrackRecord, params MarketParams) (OpportunityReport, error) {
	if err := params.validate(); err != nil {
		return OpportunityReport{}, err
	}
	if len(records) == 0 {
		return OpportunityReport{}, nil
	}

	total := float64(len(records))
	uniqueGenres := countUniqueGenres(records)
	local := params.localKeywords()

	var popularitySum float64
	var localTracks int
	for _, r := range records {
		popularitySum += float64(r.Popularity)
		if matchesAny(r.Genres, local) {
			localTracks++
		}
	}
	avgPopularity := popularitySum / total
	localPct := float64(localTracks) / total * 100

	penetration := math.Min(1, total/float64(params.MarketSize))
	diversity := float64(uniqueGenres) / float64(taxonomySize()+len(local))
	growth := (1 - penetration) * (1 - params.CompetitionLevel)

	score := 100 * (popularityWeight*(avgPopularity/100) +
		diversityWeight*diversity +
		growthWeight*growth +
		localWeight*(localPct/100))
	score = math.Max(0, math.Min(100, score))

	return OpportunityReport{
		OpportunityScore: processing.Round2(score),
		ContributingFactors: ContributingFactors{
			AvgPopularity:      processing.Round2(avgPopularity),
			GenreDiversityPct:  processing.Round2(diversity * 100),
			GrowthPotentialPct: processing.Round2(growth * 100),
			LocalPercentage:    processing.Round2(localPct),
		},
		MarketMetrics: MarketMetrics{
			TotalTracks:          len(records),
			UniqueGenres:         uniqueGenres,
			MarketPenetrationPct: processing.Round2(penetration * 100),
		},
	}, nil
}

func countUniqueGenres(records []processing.FlatTrackRecord) int {
	seen := make(map[string]bool)
	for _, r := range records {
		for _, g := range r.GenreList {
			seen[g] = true
		}
	}
	return len(seen)
}

// matchesAny reports whether genres contains any keyword, ignoring case.
// Empty keywords never match.
func matchesAny(genres string, keywords []string) bool {
	lower := strings.ToLower(genres)
	for _, k := range keywords {
		if k != "" && strings.Contains(lower, strings.ToLower(k)) {
			return true
		}
	}
	return false
}
