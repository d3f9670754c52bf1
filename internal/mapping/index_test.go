package mapping

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/content-console/internal/models"
)

func TestIndexFullPartialAndUnmapped(t *testing.T) {
	idx := Build([]Source{
		{ID: 1, TargetIDs: []int64{10, 20}},
		{ID: 2, TargetIDs: []int64{10}},
	})

	full := idx.Info(10)
	assert.Equal(t, models.MappingFull, full.State)
	assert.Equal(t, []int64{1, 2}, full.MappedSourceIDs)
	assert.Equal(t, "All Mapped", full.Badge)
	assert.True(t, full.Disabled)

	partial := idx.Info(20)
	assert.Equal(t, models.MappingPartial, partial.State)
	assert.Len(t, partial.MappedSourceIDs, 1)
	assert.Equal(t, "Mapped (1/2)", partial.Badge)
	assert.True(t, partial.Disabled)

	free := idx.Info(30)
	assert.Equal(t, models.MappingUnmapped, free.State)
	assert.Empty(t, free.MappedSourceIDs)
	assert.False(t, free.Disabled)
	assert.Equal(t, 2, free.SourceCount)
}

func TestIndexIgnoresDuplicateSourcesAndLinks(t *testing.T) {
	idx := Build([]Source{
		{ID: 1, TargetIDs: []int64{10, 10}},
		{ID: 1, TargetIDs: []int64{10}},
	})
	assert.Equal(t, 1, idx.SourceCount())
	info := idx.Info(10)
	assert.Equal(t, []int64{1}, info.MappedSourceIDs)
	assert.Equal(t, models.MappingFull, info.State)
}

func TestSourcesFromDetails(t *testing.T) {
	details := []models.ContentDetail{
		{ContentItem: models.ContentItem{ID: 7}, LinkedTargets: []models.LinkedTarget{{TargetID: 3}, {TargetID: 4}}},
	}
	sources := SourcesFromDetails(details)
	assert.Equal(t, []Source{{ID: 7, TargetIDs: []int64{3, 4}}}, sources)

	infos := Build(sources).Infos([]int64{4, 5})
	assert.Equal(t, models.MappingFull, infos[0].State)
	assert.Equal(t, models.MappingUnmapped, infos[1].State)
}

func TestNilIndexIsUnmapped(t *testing.T) {
	var idx *Index
	assert.Equal(t, models.MappingUnmapped, idx.Info(1).State)
	assert.Zero(t, idx.SourceCount())
}
