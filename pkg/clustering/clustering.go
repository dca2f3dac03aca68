// Package clustering groups same-batch documents into soft per-person clusters
package clustering

import (
	"sort"

	"github.com/Ramsey-B/fern/pkg/identity"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/scoring"
)

// Clusterer groups simultaneously uploaded documents before any
// profile pool is consulted. Cross-batch linking always goes through
// the scorer plus operator confirmation instead.
type Clusterer struct {
	scorer          *scoring.Scorer
	missingRequired func(payload *models.Payload) int
}

// NewClusterer creates a clusterer. missingRequired supplies the count
// of missing required fields for the quality sort; nil treats every
// document as complete.
func NewClusterer(scorer *scoring.Scorer, missingRequired func(payload *models.Payload) int) *Clusterer {
	if missingRequired == nil {
		missingRequired = func(*models.Payload) int { return 0 }
	}
	return &Clusterer{
		scorer:          scorer,
		missingRequired: missingRequired,
	}
}

type member struct {
	doc     *models.DocumentRecord
	keys    identity.Keys
	quality int
}

type group struct {
	representative member
	members        []member
	quality        int
}

// Cluster partitions the batch into groups believed to belong to one
// person each. The result is a quality-sorted greedy heuristic, not a
// guaranteed partition. The second return value reports whether batch
// merge features are enabled: a largest group of one member disables
// them so unrelated documents are never force-grouped.
func (c *Clusterer) Cluster(docs []models.DocumentRecord) ([]models.BatchGroup, bool) {
	if len(docs) == 0 {
		return nil, false
	}

	members := make([]member, 0, len(docs))
	for i := range docs {
		doc := &docs[i]
		members = append(members, member{
			doc:     doc,
			keys:    identity.KeysFromPayload(&doc.Payload),
			quality: c.quality(&doc.Payload),
		})
	}

	// Quality sort: most complete documents seed groups first
	sort.SliceStable(members, func(i, j int) bool {
		fi, fj := members[i].doc.Payload.FilledFieldCount(), members[j].doc.Payload.FilledFieldCount()
		if fi != fj {
			return fi > fj
		}
		return c.missingRequired(&members[i].doc.Payload) < c.missingRequired(&members[j].doc.Payload)
	})

	var groups []group
	for _, m := range members {
		joined := false
		for gi := range groups {
			if _, ok := c.scorer.Evaluate(m.keys, groups[gi].representative.keys); ok {
				groups[gi].members = append(groups[gi].members, m)
				groups[gi].quality += m.quality
				joined = true
				break
			}
		}
		if !joined {
			groups = append(groups, group{
				representative: m,
				members:        []member{m},
				quality:        m.quality,
			})
		}
	}

	// Largest group wins, ties broken by aggregate quality
	activeIdx := 0
	for gi := range groups {
		if len(groups[gi].members) > len(groups[activeIdx].members) {
			activeIdx = gi
		} else if len(groups[gi].members) == len(groups[activeIdx].members) && groups[gi].quality > groups[activeIdx].quality {
			activeIdx = gi
		}
	}

	batchMergeEnabled := len(groups[activeIdx].members) > 1

	result := make([]models.BatchGroup, 0, len(groups))
	for gi := range groups {
		ids := make([]string, 0, len(groups[gi].members))
		for _, m := range groups[gi].members {
			ids = append(ids, m.doc.ID)
		}
		result = append(result, models.BatchGroup{
			RepresentativeID: groups[gi].representative.doc.ID,
			DocumentIDs:      ids,
			Quality:          groups[gi].quality,
			Active:           batchMergeEnabled && gi == activeIdx,
		})
	}

	return result, batchMergeEnabled
}

func (c *Clusterer) quality(payload *models.Payload) int {
	return payload.FilledFieldCount() - c.missingRequired(payload)
}
