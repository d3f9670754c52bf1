package models

// MappingState classifies how a target relates to the selected sources.
type MappingState string

const (
	MappingUnmapped MappingState = "unmapped"
	MappingPartial  MappingState = "partial"
	MappingFull     MappingState = "full"
)

// MappingInfo is derived per target from the selected sources' links.
// MappedSourceIDs is always a subset of the selected source ids.
type MappingInfo struct {
	TargetID        int64        `json:"target_id"`
	MappedSourceIDs []int64      `json:"mapped_source_ids"`
	SourceCount     int          `json:"source_count"`
	State           MappingState `json:"state"`
	Badge           string       `json:"badge,omitempty"`
	Disabled        bool         `json:"disabled"`
}
