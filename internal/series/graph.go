// SPDX-License-Identifier: MIT

// Package series provides the read-only episode graph of a show and the
// successor lookup used by auto-progress.
package series

// Episode is a single playable entry of a season.
type Episode struct {
	ID           string `json:"id"`
	Title        string `json:"title,omitempty"`
	IndexNumber  int    `json:"indexNumber,omitempty"`
	SeasonID     string `json:"seasonId,omitempty"`
	RuntimeTicks int64  `json:"runtimeTicks,omitempty"`
}

// Season is an ordered list of episodes. Seasons with no episodes are legal
// and skipped during successor lookup.
type Season struct {
	ID       string    `json:"id"`
	Name     string    `json:"name,omitempty"`
	Episodes []Episode `json:"episodes"`
}

// Graph is the ordered season/episode structure of one series, exactly as
// delivered by the metadata server. Order is authoritative; no sorting
// happens here.
type Graph struct {
	SeriesID string   `json:"seriesId"`
	Seasons  []Season `json:"seasons"`
}

// FindSuccessor returns the episode that follows currentEpisodeID in series
// order: the next episode of the same season, or the first episode of the
// next non-empty season. The second return is false when the episode is the
// last of the series or is not present in the graph at all.
func FindSuccessor(currentEpisodeID string, seasons []Season) (Episode, bool) {
	for si, season := range seasons {
		for ei, ep := range season.Episodes {
			if ep.ID != currentEpisodeID {
				continue
			}
			if ei+1 < len(season.Episodes) {
				return season.Episodes[ei+1], true
			}
			for _, next := range seasons[si+1:] {
				if len(next.Episodes) > 0 {
					return next.Episodes[0], true
				}
			}
			return Episode{}, false
		}
	}
	return Episode{}, false
}

// Contains reports whether the graph holds the given episode id.
func (g Graph) Contains(episodeID string) bool {
	for _, season := range g.Seasons {
		for _, ep := range season.Episodes {
			if ep.ID == episodeID {
				return true
			}
		}
	}
	return false
}
