package memsentry

// ArenaMetrics is a point-in-time snapshot of an arena's accounting state,
// mirroring the teacher package's ArenaMetrics pattern for a bump arena
// (SizeInUse/Capacity/NumChunks/Utilization there; the accounting fields a
// tracked arena actually has here).
type ArenaMetrics struct {
	Name       string
	Count      int
	TotalBytes int64
}

// Metrics returns a snapshot of this arena's statistics. Count() and
// TotalBytes() are each taken under the list lock independently, so the
// pair is not a single atomic snapshot under concurrent mutation — the
// same tradeoff TotalBytes() documents on its own.
func (a *Arena) Metrics() ArenaMetrics {
	return ArenaMetrics{
		Name:       a.Name(),
		Count:      a.Count(),
		TotalBytes: a.TotalBytes(),
	}
}
