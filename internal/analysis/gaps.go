package analysis

import (
	"math"
	"sort"

	"github.com/ademuri/market-insight-tools/internal/processing"
)

// underrepresentedThreshold is the gap size above which a present category
// still counts as underrepresented.
const underrepresentedThreshold = 50

// AnalyzeGaps classifies every taxonomy category as missing,
// underrepresented or present in records, and measures local content for
// the market. An empty table yields the empty report.
func AnalyzeGaps(records []processing.FlatTrackRecord, params MarketParams) GapReport {
	if len(records) == 0 {
		return GapReport{}
	}

	shares := processing.GenreShares(records)

	gaps := make([]GenreGap, 0, len(Categories))
	recommendations := make([]GenreGap, 0)
	for _, c := range Categories {
		present, missing := splitPresent(c.Keywords, shares)

		gap := GenreGap{
			Category:      c.Name,
			PresentGenres: present,
			MissingGenres: missing,
		}
		if len(present) == 0 {
			gap.GapSize = 100
			gap.Status = StatusMissing
		} else {
			size := math.Max(0, 100-representation(present, shares))
			gap.GapSize = processing.Round2(size)
			gap.Status = StatusPresent
			if size > underrepresentedThreshold {
				gap.Status = StatusUnderrepresented
			}
		}

		gaps = append(gaps, gap)
		if gap.GapSize > underrepresentedThreshold || gap.Status == StatusMissing {
			recommendations = append(recommendations, gap)
		}
	}

	sort.SliceStable(gaps, func(i, j int) bool {
		return gaps[i].GapSize > gaps[j].GapSize
	})

	localPresent, localMissing := splitPresent(params.localKeywords(), shares)
	return GapReport{
		GenreGaps: gaps,
		LocalContent: LocalContent{
			Representation: processing.Round2(representation(localPresent, shares)),
			PresentGenres:  localPresent,
			MissingGenres:  localMissing,
		},
		Recommendations: recommendations,
	}
}

func representation(genres []string, shares map[string]float64) float64 {
	var sum float64
	for _, g := range genres {
		sum += shares[g]
	}
	return sum
}
