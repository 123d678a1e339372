package services

import (
	"context"
	"fmt"

	"github.com/meinhoongagan/trucktrack/common"
	"github.com/meinhoongagan/trucktrack/logging"
	"github.com/meinhoongagan/trucktrack/models"
	"github.com/meinhoongagan/trucktrack/storage"
)

// AdminService manages login accounts.
type AdminService struct {
	store storage.Store
	log   logging.Logger
}

func NewAdminService(store storage.Store, log logging.Logger) *AdminService {
	return &AdminService{store: store, log: log}
}

func (a *AdminService) ListUsers(ctx context.Context) ([]models.User, error) {
	return a.store.ListUsers(ctx)
}

// DeleteUser removes an account. Linked driver records are kept but
// unlinked.
func (a *AdminService) DeleteUser(ctx context.Context, caller Caller, id uint) error {
	if id == caller.UserID {
		return fmt.Errorf("%w: cannot delete your own account", common.ErrValidation)
	}
	if err := a.store.DeleteUser(ctx, id); err != nil {
		return err
	}
	a.log.Info(ctx, "user deleted", "user_id", id, "by", caller.UserID)
	return nil
}
