// Package scheduler recomputes the next alarm on a cron schedule and at the
// instant the current next alarm rings, so the published state never goes stale.
package scheduler
