// Package mapping computes which target batches are already linked to a set of
// source content items.
package mapping

import (
	"fmt"

	"github.com/noah-isme/content-console/internal/models"
)

// BadgeAllMapped marks a target linked to every selected source.
const BadgeAllMapped = "All Mapped"

// Index maps target ids to the selected sources that already link them.
type Index struct {
	sources []int64
	targets map[int64][]int64
}

// Source is the minimum a mapping source exposes.
type Source struct {
	ID        int64
	TargetIDs []int64
}

// SourcesFromDetails adapts fetched content details into mapping sources.
func SourcesFromDetails(details []models.ContentDetail) []Source {
	sources := make([]Source, 0, len(details))
	for _, detail := range details {
		sources = append(sources, Source{ID: detail.ID, TargetIDs: detail.LinkedTargetIDs()})
	}
	return sources
}

// Build indexes every source's linked targets in one pass. Duplicate sources and
// duplicate links within a source are counted once.
func Build(sources []Source) *Index {
	idx := &Index{targets: make(map[int64][]int64)}
	seenSource := make(map[int64]struct{}, len(sources))
	for _, src := range sources {
		if _, dup := seenSource[src.ID]; dup {
			continue
		}
		seenSource[src.ID] = struct{}{}
		idx.sources = append(idx.sources, src.ID)

		seenTarget := make(map[int64]struct{}, len(src.TargetIDs))
		for _, targetID := range src.TargetIDs {
			if _, dup := seenTarget[targetID]; dup {
				continue
			}
			seenTarget[targetID] = struct{}{}
			idx.targets[targetID] = append(idx.targets[targetID], src.ID)
		}
	}
	return idx
}

// SourceCount is the number of distinct sources indexed.
func (i *Index) SourceCount() int {
	if i == nil {
		return 0
	}
	return len(i.sources)
}

// SourceIDs returns the indexed source ids in selection order.
func (i *Index) SourceIDs() []int64 {
	if i == nil {
		return nil
	}
	out := make([]int64, len(i.sources))
	copy(out, i.sources)
	return out
}

// Info reports the mapping state of a single target.
func (i *Index) Info(targetID int64) models.MappingInfo {
	info := models.MappingInfo{TargetID: targetID, MappedSourceIDs: []int64{}, State: models.MappingUnmapped}
	if i == nil {
		return info
	}
	info.SourceCount = len(i.sources)
	mapped := i.targets[targetID]
	if len(mapped) == 0 {
		return info
	}
	info.MappedSourceIDs = append(info.MappedSourceIDs, mapped...)
	if len(mapped) == len(i.sources) {
		info.State = models.MappingFull
		info.Badge = BadgeAllMapped
	} else {
		info.State = models.MappingPartial
		info.Badge = fmt.Sprintf("Mapped (%d/%d)", len(mapped), len(i.sources))
	}
	// Any overlap blocks re-targeting, partial included.
	info.Disabled = true
	return info
}

// Infos reports the mapping state for each candidate target, preserving order.
func (i *Index) Infos(targetIDs []int64) []models.MappingInfo {
	out := make([]models.MappingInfo, 0, len(targetIDs))
	for _, id := range targetIDs {
		out = append(out, i.Info(id))
	}
	return out
}

// MappedTargetIDs returns every target linked to at least one source.
func (i *Index) MappedTargetIDs() []int64 {
	if i == nil {
		return nil
	}
	out := make([]int64, 0, len(i.targets))
	for id := range i.targets {
		out = append(out, id)
	}
	return out
}
