package analysis

// Category is a genre family and the genre tags that belong to it.
type Category struct {
	Name     string
	Keywords []string
}

// Categories is the global genre taxonomy, in reporting order.
var Categories = []Category{
	{Name: "classical", Keywords: []string{"classical", "orchestra", "symphonic"}},
	{Name: "electronic", Keywords: []string{"edm", "electronic", "dance", "house", "techno"}},
	{Name: "hip_hop", Keywords: []string{"rap", "hip hop", "trap", "grime"}},
	{Name: "pop", Keywords: []string{"pop", "indie pop", "synth-pop"}},
	{Name: "rock", Keywords: []string{"rock", "metal", "punk", "indie rock"}},
	{Name: "folk", Keywords: []string{"folk", "acoustic", "singer-songwriter"}},
}

// RegionalGenres holds the built-in local-genre keywords per market code.
// They apply when a market does not configure its own.
var RegionalGenres = map[string][]string{
	"IN": {"bollywood", "indian", "bhangra", "punjabi", "hindi"},
	"JP": {"j-pop", "j-rock", "anime", "japanese"},
}

// taxonomySize counts the global categories plus the regional group.
func taxonomySize() int {
	return len(Categories) + 1
}

// MarketParams are the caller-supplied assumptions about one market.
type MarketParams struct {
	Code string
	Name string
	// LocalGenres are the market's regional keywords. Nil falls back to
	// RegionalGenres for Code.
	LocalGenres      []string
	MarketSize       int
	CompetitionLevel float64
}

func (p MarketParams) localKeywords() []string {
	if p.LocalGenres != nil {
		return p.LocalGenres
	}
	return RegionalGenres[p.Code]
}

// splitPresent partitions keywords into those observed and those not, keeping
// keyword order.
func splitPresent(keywords []string, observed map[string]float64) (present, missing []string) {
	present = make([]string, 0, len(keywords))
	missing = make([]string, 0, len(keywords))
	for _, k := range keywords {
		if _, ok := observed[k]; ok {
			present = append(present, k)
		} else {
			missing = append(missing, k)
		}
	}
	return present, missing
}
