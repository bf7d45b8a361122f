package analysis

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/muesli/clusters"
	"github.com/muesli/kmeans"

	"github.com/ademuri/market-insight-tools/internal/processing"
)

// DefaultClusters is the target cluster count when none is configured.
const DefaultClusters = 5

// maxIterations bounds the seeded partitioner.
const maxIterations = 100

// genreStat accumulates per-genre statistics over the exploded table.
type genreStat struct {
	genre         string
	count         int
	popularitySum int
	trackIDs      []string
	seenTracks    map[string]bool
}

func (s *genreStat) meanPopularity() float64 {
	return float64(s.popularitySum) / float64(s.count)
}

// collectGenreStats returns one entry per distinct genre in first-seen order.
func collectGenreStats(records []processing.FlatTrackRecord) []*genreStat {
	var stats []*genreStat
	byGenre := make(map[string]*genreStat)
	for _, r := range records {
		for _, g := range r.GenreList {
			s, ok := byGenre[g]
			if !ok {
				s = &genreStat{genre: g, seenTracks: make(map[string]bool)}
				byGenre[g] = s
				stats = append(stats, s)
			}
			s.count++
			s.popularitySum += r.Popularity
			if !s.seenTracks[r.TrackID] {
				s.seenTracks[r.TrackID] = true
				s.trackIDs = append(s.trackIDs, r.TrackID)
			}
		}
	}
	return stats
}

// genreObservation is one genre's standardised feature vector.
type genreObservation struct {
	index  int
	coords clusters.Coordinates
}

func (o genreObservation) Coordinates() clusters.Coordinates {
	return o.coords
}

func (o genreObservation) Distance(point clusters.Coordinates) float64 {
	return o.coords.Distance(point)
}

// ClusterGenres partitions the genres of records by (occurrence count, mean
// popularity), standardised to zero mean and unit variance. k is capped at
// the number of distinct genres. A zero seed uses randomly initialised
// k-means; any other seed gives a reproducible partition. Clusters left
// empty are dropped and labels are numbered without gaps.
func ClusterGenres(records []processing.FlatTrackRecord, k int, seed int64) (GenreClusters, error) {
	result := make(GenreClusters)
	stats := collectGenreStats(records)
	if len(stats) == 0 {
		return result, nil
	}

	if k <= 0 {
		k = DefaultClusters
	}
	if k > len(stats) {
		k = len(stats)
	}

	obs := standardise(stats)

	var partition clusters.Clusters
	if seed == 0 {
		var err error
		partition, err = kmeans.New().Partition(obs, k)
		if err != nil {
			return nil, fmt.Errorf("clustering %d genres: %w", len(stats), err)
		}
	} else {
		partition = seededPartition(obs, k, seed)
	}

	label := 0
	for _, indices := range assignClusters(partition, obs) {
		if len(indices) == 0 {
			continue
		}

		members := make([]ClusterMember, 0, len(indices))
		for _, i := range indices {
			s := stats[i]
			members = append(members, ClusterMember{
				Genre:          s.genre,
				MemberCount:    s.count,
				AvgPopularity:  processing.Round2(s.meanPopularity()),
				MemberTrackIDs: s.trackIDs,
			})
		}
		result[fmt.Sprintf("cluster_%d", label)] = members
		label++
	}
	return result, nil
}

// assignClusters returns the sorted observation indices of each cluster with
// every observation placed exactly once. kmeans fills an empty cluster with a
// copy of an observation it leaves in place, so an observation listed by
// several clusters belongs to the last one. One listed by none joins the
// nearest cluster.
func assignClusters(partition clusters.Clusters, obs clusters.Observations) [][]int {
	owner := make([]int, len(obs))
	for i := range owner {
		owner[i] = -1
	}
	for ci, c := range partition {
		for _, o := range c.Observations {
			if g, ok := o.(genreObservation); ok {
				owner[g.index] = ci
			}
		}
	}

	out := make([][]int, len(partition))
	for i, ci := range owner {
		if ci < 0 {
			ci = partition.Nearest(obs[i])
		}
		out[ci] = append(out[ci], i)
	}
	return out
}

// standardise builds observations from (count, mean popularity), scaling each
// dimension by its population standard deviation. A constant dimension
// scales to zero.
func standardise(stats []*genreStat) clusters.Observations {
	features := make([][2]float64, len(stats))
	for i, s := range stats {
		features[i] = [2]float64{float64(s.count), s.meanPopularity()}
	}

	var mean, std [2]float64
	n := float64(len(features))
	for _, f := range features {
		mean[0] += f[0] / n
		mean[1] += f[1] / n
	}
	for _, f := range features {
		for d := range f {
			std[d] += (f[d] - mean[d]) * (f[d] - mean[d]) / n
		}
	}
	std[0], std[1] = math.Sqrt(std[0]), math.Sqrt(std[1])

	obs := make(clusters.Observations, 0, len(features))
	for i, f := range features {
		coords := make(clusters.Coordinates, 2)
		for d := range f {
			if std[d] > 0 {
				coords[d] = (f[d] - mean[d]) / std[d]
			}
		}
		obs = append(obs, genreObservation{index: i, coords: coords})
	}
	return obs
}

// seededPartition is Lloyd's k-means with k-means++ initialisation driven by
// a private source seeded with seed. Every cluster ends non-empty because
// k never exceeds len(obs).
func seededPartition(obs clusters.Observations, k int, seed int64) clusters.Clusters {
	rng := rand.New(rand.NewSource(seed))

	cc := make(clusters.Clusters, k)
	cc[0].Center = copyCoords(obs[rng.Intn(len(obs))].Coordinates())
	for ci := 1; ci < k; ci++ {
		weights := make([]float64, len(obs))
		var total float64
		for i, o := range obs {
			weights[i] = o.Distance(cc[cc[:ci].Nearest(o)].Center)
			total += weights[i]
		}
		pick := rng.Intn(len(obs))
		if total > 0 {
			target := rng.Float64() * total
			for i, w := range weights {
				target -= w
				if target <= 0 && w > 0 {
					pick = i
					break
				}
			}
		}
		cc[ci].Center = copyCoords(obs[pick].Coordinates())
	}

	assignment := make([]int, len(obs))
	for i := range assignment {
		assignment[i] = -1
	}

	for iter := 0; iter < maxIterations; iter++ {
		for ci := range cc {
			cc[ci].Observations = nil
		}

		changed := 0
		for i, o := range obs {
			ci := cc.Nearest(o)
			if ci != assignment[i] {
				changed++
				assignment[i] = ci
			}
			cc[ci].Append(o)
		}
		changed += fillEmpty(cc, obs, assignment)

		for ci := range cc {
			cc[ci].Recenter()
		}
		if changed == 0 {
			break
		}
	}
	return cc
}

// fillEmpty moves, into each empty cluster, the observation farthest from its
// own center among clusters holding at least two. It returns the number of
// moved observations.
func fillEmpty(cc clusters.Clusters, obs clusters.Observations, assignment []int) int {
	moved := 0
	for ci := range cc {
		if len(cc[ci].Observations) > 0 {
			continue
		}

		best, bestDist := -1, -1.0
		for i, o := range obs {
			from := assignment[i]
			if len(cc[from].Observations) < 2 {
				continue
			}
			if d := o.Distance(cc[from].Center); d > bestDist {
				best, bestDist = i, d
			}
		}
		if best < 0 {
			continue
		}

		from := assignment[best]
		cc[from].Observations = removeObservation(cc[from].Observations, obs[best])
		cc[ci].Append(obs[best])
		cc[ci].Center = copyCoords(obs[best].Coordinates())
		assignment[best] = ci
		moved++
	}
	return moved
}

func removeObservation(list clusters.Observations, target clusters.Observation) clusters.Observations {
	out := list[:0:0]
	for _, o := range list {
		if o.(genreObservation).index != target.(genreObservation).index {
			out = append(out, o)
		}
	}
	return out
}

func copyCoords(c clusters.Coordinates) clusters.Coordinates {
	out := make(clusters.Coordinates, len(c))
	copy(out, c)
	return out
}
