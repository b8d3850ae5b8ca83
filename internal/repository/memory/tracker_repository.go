package memory

import (
	"time"

	"github.com/patrickmn/go-cache"
)

// TrackerRepository holds the per-session note trackers in memory. Sessions
// that stay idle past the expiry window are purged together with their state;
// the backend remains the source of truth, so nothing is lost beyond local
// preview references.
type TrackerRepository struct {
	cache *cache.Cache
}

func NewTrackerRepository() *TrackerRepository {
	// A browser session that has been silent for a day is gone.
	c := cache.New(24*time.Hour, 10*time.Minute)
	return &TrackerRepository{
		cache: c,
	}
}

// Get returns the tracker for the session if it exists, refreshing its TTL.
func (r *TrackerRepository) Get(sessionId string) (*NoteTracker, bool) {
	if x, found := r.cache.Get(sessionId); found {
		tracker := x.(*NoteTracker)
		r.cache.SetDefault(sessionId, tracker)
		return tracker, true
	}
	return nil, false
}

// GetOrCreate returns the session's tracker, creating it on first use.
func (r *TrackerRepository) GetOrCreate(sessionId string) *NoteTracker {
	if tracker, found := r.Get(sessionId); found {
		return tracker
	}
	tracker := NewNoteTracker(sessionId)
	if err := r.cache.Add(sessionId, tracker, cache.DefaultExpiration); err != nil {
		// Lost the creation race; use the winner.
		if x, found := r.cache.Get(sessionId); found {
			return x.(*NoteTracker)
		}
	}
	return tracker
}

// Delete removes a session's tracker.
func (r *TrackerRepository) Delete(sessionId string) {
	r.cache.Delete(sessionId)
}

// ActiveTrackers returns every tracker that still has monitored notes, i.e.
// the sessions the poll loop has work for.
func (r *TrackerRepository) ActiveTrackers() []*NoteTracker {
	items := r.cache.Items()
	trackers := make([]*NoteTracker, 0, len(items))
	for _, item := range items {
		tracker := item.Object.(*NoteTracker)
		if tracker.HasMonitored() {
			trackers = append(trackers, tracker)
		}
	}
	return trackers
}
