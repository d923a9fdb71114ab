package models

import (
	"time"

	"github.com/IoTReady/iotready-godesi/pkg/metadata"
)

// SessionContext is the workflow context of one device session. It is
// handed to activity handlers as a snapshot; merges go through the
// session store, which writes back a new snapshot rather than mutating
// a shared map.
type SessionContext struct {
	SessionID string            `json:"session_id"`
	Activity  metadata.Activity `json:"activity"`
	Warehouse string            `json:"warehouse"`
	UserID    string            `json:"user_id"`
	Meta      map[string]any    `json:"meta"`
	CreatedAt time.Time         `json:"created_at"`
}

// MetaString reads a string-valued context key, tolerating absent keys
// and non-string values.
func (s SessionContext) MetaString(key string) string {
	if s.Meta == nil {
		return ""
	}
	v, ok := s.Meta[key].(string)
	if !ok {
		return ""
	}
	return v
}
