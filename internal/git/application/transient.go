package application

import (
	"sort"
	"time"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"
)

// TransientError is an auto-expiring operation error. It never blocks reads;
// the snapshot keeps refreshing while one is shown.
type TransientError struct {
	ID        string
	Message   string
	Conflict  bool // failure classified as a merge/rebase/cherry-pick conflict
	CreatedAt time.Time
}

// Notifier stores transient errors until they expire.
type Notifier struct {
	ttl   time.Duration
	cache *gocache.Cache
}

// NewNotifier creates a notifier whose errors expire after ttl.
func NewNotifier(ttl time.Duration) *Notifier {
	return &Notifier{ttl: ttl, cache: gocache.New(ttl, ttl)}
}

// Publish records a new transient error and returns it.
func (n *Notifier) Publish(message string, conflict bool) TransientError {
	te := TransientError{
		ID:        uuid.NewString(),
		Message:   message,
		Conflict:  conflict,
		CreatedAt: time.Now(),
	}
	n.cache.Set(te.ID, te, gocache.DefaultExpiration)
	return te
}

// Active returns all unexpired errors, oldest first.
func (n *Notifier) Active() []TransientError {
	items := n.cache.Items()
	out := make([]TransientError, 0, len(items))
	for _, item := range items {
		if te, ok := item.Object.(TransientError); ok {
			out = append(out, te)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

// Clear drops all pending errors.
func (n *Notifier) Clear() {
	n.cache.Flush()
}
