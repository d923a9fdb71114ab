package sessions

import (
	"sync"
	"time"

	"github.com/IoTReady/iotready-godesi/pkg/metadata"
	"github.com/IoTReady/iotready-godesi/pkg/models"

	"github.com/google/uuid"
)

// transientKeys are collection-valued context entries pushed by devices
// for UI rendering. They are stripped on merge so they never leak into
// persisted crate records.
var transientKeys = map[string]struct{}{
	"crates":                 {},
	"items":                  {},
	"suppliers":              {},
	"vehicles":               {},
	"destination_warehouses": {},
	"pick_lists":             {},
}

type entry struct {
	ctx       models.SessionContext
	expiresAt time.Time
}

// Store keeps in-progress workflow context keyed by session id. Expired
// sessions read as absent; the engine then refuses any further
// mutation for that session.
type Store struct {
	mu       sync.Mutex
	sessions map[string]entry
	ttl      time.Duration
	now      func() time.Time
}

func NewStore(ttl time.Duration) *Store {
	s := &Store{
		sessions: make(map[string]entry),
		ttl:      ttl,
		now:      time.Now,
	}

	go s.cleanupLoop()

	return s
}

func (s *Store) cleanupLoop() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		s.mu.Lock()
		now := s.now()
		for id, e := range s.sessions {
			if now.After(e.expiresAt) {
				delete(s.sessions, id)
			}
		}
		s.mu.Unlock()
	}
}

// Create opens a new session for an activity and returns its id. The
// initial metadata is merged with transient keys already stripped.
func (s *Store) Create(activity metadata.Activity, warehouse, userID string, meta map[string]any) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := uuid.NewString()
	now := s.now()
	s.sessions[id] = entry{
		ctx: models.SessionContext{
			SessionID: id,
			Activity:  activity,
			Warehouse: warehouse,
			UserID:    userID,
			Meta:      stripTransient(meta),
			CreatedAt: now,
		},
		expiresAt: now.Add(s.ttl),
	}
	return id
}

// Get returns a snapshot of the session context. Absent and expired
// sessions both report ok=false; Get never fails any other way.
func (s *Store) Get(id string) (models.SessionContext, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.sessions[id]
	if !ok || s.now().After(e.expiresAt) {
		return models.SessionContext{}, false
	}
	return snapshot(e.ctx), true
}

// Merge shallow-updates the session context: new keys overwrite, other
// keys stay untouched. Transient collection keys are dropped. Merging
// into an absent or expired session reports false.
func (s *Store) Merge(id string, partial map[string]any) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.sessions[id]
	if !ok || s.now().After(e.expiresAt) {
		return false
	}

	next := snapshot(e.ctx)
	for k, v := range stripTransient(partial) {
		next.Meta[k] = v
	}
	e.ctx = next
	s.sessions[id] = e
	return true
}

func stripTransient(meta map[string]any) map[string]any {
	out := make(map[string]any, len(meta))
	for k, v := range meta {
		if _, transient := transientKeys[k]; transient {
			continue
		}
		out[k] = v
	}
	return out
}

// snapshot copies the context so handlers never alias the stored map.
func snapshot(ctx models.SessionContext) models.SessionContext {
	meta := make(map[string]any, len(ctx.Meta))
	for k, v := range ctx.Meta {
		meta[k] = v
	}
	ctx.Meta = meta
	return ctx
}
