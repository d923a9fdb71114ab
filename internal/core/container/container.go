package container

import (
	"database/sql"
	"os"
	"strconv"
	"time"

	"github.com/IoTReady/iotready-godesi/internal/activities"
	auditLogRepo "github.com/IoTReady/iotready-godesi/internal/auditlog"
	"github.com/IoTReady/iotready-godesi/internal/crates"
	"github.com/IoTReady/iotready-godesi/internal/refdata"
	"github.com/IoTReady/iotready-godesi/internal/repository"
	"github.com/IoTReady/iotready-godesi/internal/sessions"
	"github.com/IoTReady/iotready-godesi/internal/users"
	"github.com/IoTReady/iotready-godesi/pkg/auditlog"
	"github.com/IoTReady/iotready-godesi/pkg/security"

	"go.uber.org/zap"
)

const defaultSessionTTL = 30 * time.Minute

type Container struct {
	Repository        *repository.Repository
	AuditLog          *auditlog.Auditlog
	Sessions          *sessions.Store
	LoginHandler      *security.LoginHandler
	UserHandler       *users.UsersHandler
	ActivitiesHandler *activities.ActivitiesHandler
}

func NewAppContainer(db *sql.DB, logger *zap.Logger) *Container {
	repo := repository.NewRepository(db)
	auditRepo := auditLogRepo.NewRepository(repo)
	auditLog := auditlog.NewAuditLog(auditRepo)

	activityRepo := crates.NewActivityRepository(repo)
	crateRepo := crates.NewCrateRepository(repo)
	refDataRepo := refdata.NewRepository(repo)
	sessionStore := sessions.NewStore(sessionTTL())

	registry := activities.NewRegistry(activityRepo, crateRepo, refDataRepo)
	activityService := activities.NewActivityService(
		registry,
		sessionStore,
		activityRepo,
		refDataRepo,
		refDataRepo,
		auditLog,
		logger,
	)

	userRepo := users.NewRepository(repo)

	return &Container{
		Repository:        repo,
		AuditLog:          auditLog,
		Sessions:          sessionStore,
		LoginHandler:      security.NewLoginHandler(repo),
		UserHandler:       users.NewHandler(userRepo),
		ActivitiesHandler: activities.NewHandler(activityService, userRepo, auditRepo),
	}
}

func sessionTTL() time.Duration {
	raw := os.Getenv("SESSION_TTL_MINUTES")
	if raw == "" {
		return defaultSessionTTL
	}
	minutes, err := strconv.Atoi(raw)
	if err != nil || minutes <= 0 {
		return defaultSessionTTL
	}
	return time.Duration(minutes) * time.Minute
}
