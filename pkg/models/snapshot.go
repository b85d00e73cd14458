package models

// SnapshotVersion is the current snapshot schema version. Restore rejects
// anything else; migration is the persistence collaborator's problem.
const SnapshotVersion = 1

// Snapshot is the serializable state of a resolution namespace. The blocking
// index is deliberately excluded: it is a derived projection, always rebuilt
// from records on restore.
type Snapshot struct {
	Version int              `json:"version"`
	Records map[string]*Lead `json:"records"`
}
