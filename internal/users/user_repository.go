package users

import (
	"fmt"

	"github.com/IoTReady/iotready-godesi/internal/repository"
	custom_error "github.com/IoTReady/iotready-godesi/pkg/errors"
	"github.com/IoTReady/iotready-godesi/pkg/models"

	"github.com/doug-martin/goqu/v9"
	"github.com/lib/pq"
)

type UserRepository interface {
	PersistUser(req models.CreateUserRequest, hashedPassword []byte) error
	GetUser(id int) (*models.User, error)
	GetUserByUsername(username string) (*models.User, error)
}

type userRepositoryImpl struct {
	repository *repository.Repository
}

func NewRepository(r *repository.Repository) UserRepository {
	return &userRepositoryImpl{repository: r}
}

// PersistUser creates an operator account. The warehouse assignment is
// a column on the user row, so one user can never belong to two
// warehouses at once.
func (r *userRepositoryImpl) PersistUser(req models.CreateUserRequest, hashedPassword []byte) error {
	query := r.repository.GoquDBWrapper.Insert("users").
		Rows(goqu.Record{
			"password_hash": string(hashedPassword),
			"username":      req.Username,
			"fullname":      req.Fullname,
			"role":          req.Role,
			"warehouse_id":  req.Warehouse,
		})

	if _, err := query.Executor().Exec(); err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			return custom_error.WrapDBError("user "+req.Username, string(pqErr.Code))
		}
		return fmt.Errorf("failed to insert user: %w", err)
	}
	return nil
}

func (r *userRepositoryImpl) GetUser(id int) (*models.User, error) {
	return r.fetchUser(goqu.Ex{"id": id})
}

func (r *userRepositoryImpl) GetUserByUsername(username string) (*models.User, error) {
	return r.fetchUser(goqu.Ex{"username": username})
}

func (r *userRepositoryImpl) fetchUser(condition goqu.Ex) (*models.User, error) {
	var user models.User
	query := r.repository.GoquDBWrapper.
		Select("id", "username", "fullname", "password_hash", "role", "warehouse_id").
		From("users").
		Where(condition)

	found, err := query.Executor().ScanStruct(&user)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if !found {
		return nil, fmt.Errorf("user not found")
	}
	return &user, nil
}
