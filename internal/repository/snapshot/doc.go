// Package snapshot persists the last alarm delivery.
//
// The FileRepository stores and loads the delivered payload (alarm list and
// device timezone) as JSON on disk and exposes a Repository interface that
// the coordinator depends on. The next alarm itself is never stored: it is
// recomputed from the snapshot on startup.
package snapshot
