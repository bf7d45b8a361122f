package analysis

import "encoding/json"

// Gap statuses.
const (
	StatusMissing          = "missing"
	StatusUnderrepresented = "underrepresented"
	StatusPresent          = "present"
)

// MarketInsights is the complete analysis of one market.
type MarketInsights struct {
	MarketCode          string            `json:"market_code" yaml:"market_code"`
	GenreClusters       GenreClusters     `json:"genre_clusters" yaml:"genre_clusters"`
	OpportunityAnalysis OpportunityReport `json:"opportunity_analysis" yaml:"opportunity_analysis"`
	GapAnalysis         GapReport         `json:"gap_analysis" yaml:"gap_analysis"`
	Summary             Summary           `json:"summary" yaml:"summary"`
}

// Summary is the condensed view of MarketInsights used by reports and mail.
type Summary struct {
	OpportunityScore float64  `json:"opportunity_score" yaml:"opportunity_score"`
	TotalTracks      int      `json:"total_tracks" yaml:"total_tracks"`
	UniqueGenres     int      `json:"unique_genres" yaml:"unique_genres"`
	KeyGaps          []string `json:"key_gaps" yaml:"key_gaps"`
}

// GenreClusters maps a cluster label to its member genres.
type GenreClusters map[string][]ClusterMember

type ClusterMember struct {
	Genre          string   `json:"genre" yaml:"genre"`
	MemberCount    int      `json:"member_count" yaml:"member_count"`
	AvgPopularity  float64  `json:"avg_popularity" yaml:"avg_popularity"`
	MemberTrackIDs []string `json:"member_track_ids" yaml:"member_track_ids"`
}

// OpportunityReport scores how favourable a market is for new content.
// The zero value is the report of an empty table and encodes as {}.
type OpportunityReport struct {
	OpportunityScore    float64             `json:"opportunity_score" yaml:"opportunity_score"`
	ContributingFactors ContributingFactors `json:"contributing_factors" yaml:"contributing_factors"`
	MarketMetrics       MarketMetrics       `json:"market_metrics" yaml:"market_metrics"`
}

type ContributingFactors struct {
	AvgPopularity      float64 `json:"avg_popularity" yaml:"avg_popularity"`
	GenreDiversityPct  float64 `json:"genre_diversity_pct" yaml:"genre_diversity_pct"`
	GrowthPotentialPct float64 `json:"growth_potential_pct" yaml:"growth_potential_pct"`
	LocalPercentage    float64 `json:"local_percentage" yaml:"local_percentage"`
}

type MarketMetrics struct {
	TotalTracks          int     `json:"total_tracks" yaml:"total_tracks"`
	UniqueGenres         int     `json:"unique_genres" yaml:"unique_genres"`
	MarketPenetrationPct float64 `json:"market_penetration_pct" yaml:"market_penetration_pct"`
}

// IsEmpty reports whether r describes an empty table.
func (r OpportunityReport) IsEmpty() bool {
	return r.MarketMetrics.TotalTracks == 0
}

func (r OpportunityReport) MarshalJSON() ([]byte, error) {
	if r.IsEmpty() {
		return []byte("{}"), nil
	}
	type plain OpportunityReport
	return json.Marshal(plain(r))
}

func (r OpportunityReport) MarshalYAML() (interface{}, error) {
	if r.IsEmpty() {
		return struct{}{}, nil
	}
	type plain OpportunityReport
	return plain(r), nil
}

// GapReport lists the taxonomy categories a market lacks. The zero value is
// the report of an empty table and encodes as {}.
type GapReport struct {
	GenreGaps       []GenreGap   `json:"genre_gaps" yaml:"genre_gaps"`
	LocalContent    LocalContent `json:"local_content" yaml:"local_content"`
	Recommendations []GenreGap   `json:"recommendations" yaml:"recommendations"`
}

type GenreGap struct {
	Category      string   `json:"category" yaml:"category"`
	GapSize       float64  `json:"gap_size" yaml:"gap_size"`
	Status        string   `json:"status" yaml:"status"`
	PresentGenres []string `json:"present_genres" yaml:"present_genres"`
	MissingGenres []string `json:"missing_genres" yaml:"missing_genres"`
}

type LocalContent struct {
	Representation float64  `json:"representation" yaml:"representation"`
	PresentGenres  []string `json:"present_genres" yaml:"present_genres"`
	MissingGenres  []string `json:"missing_genres" yaml:"missing_genres"`
}

// IsEmpty reports whether r describes an empty table.
func (r GapReport) IsEmpty() bool {
	return len(r.GenreGaps) == 0
}

func (r GapReport) MarshalJSON() ([]byte, error) {
	if r.IsEmpty() {
		return []byte("{}"), nil
	}
	type plain GapReport
	return json.Marshal(plain(r))
}

func (r GapReport) MarshalYAML() (interface{}, error) {
	if r.IsEmpty() {
		return struct{}{}, nil
	}
	type plain GapReport
	return plain(r), nil
}
