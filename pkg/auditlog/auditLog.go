package auditlog

import (
	"log"

	"github.com/IoTReady/iotready-godesi/pkg/models"
)

// LogPersister writes audit entries; implemented by the audit log
// repository.
type LogPersister interface {
	PersistLog(auditlog models.AuditLog, auditLogData interface{}) error
}

type Auditlog struct {
	r LogPersister
}

type Auditable interface {
	CreateLogView() models.AuditLog
}

// Log records an audit entry for item. Failures are logged and
// swallowed; auditing never fails the operation it describes.
func (a *Auditlog) Log(action string, data interface{}, item Auditable) {
	auditLog := item.CreateLogView()
	auditLog.Action = action

	if err := a.r.PersistLog(auditLog, data); err != nil {
		log.Println("Unable to create AuditLog entry for id ", auditLog.ResourceID)
		return
	}
}

func NewAuditLog(persister LogPersister) *Auditlog {
	return &Auditlog{r: persister}
}
