package snapshot

// Repository holds the latest snapshot per date. Readers only ever see whole
// snapshots.
type Repository interface {
	Get(date string) (*Snapshot, bool)
	Publish(s *Snapshot)
	List() map[string]*Snapshot
	Retain(dates []string) int
}
