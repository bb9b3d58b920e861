package repo

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Base is embedded by repositories that run every query on behalf of a
// single shopper.
type Base struct {
	db *gorm.DB
}

func NewBase(db *gorm.DB) Base {
	return Base{db: db}
}

// DB returns the connection (or transaction) bound to ctx.
func (b Base) DB(ctx context.Context) *gorm.DB {
	if ctx == nil {
		return b.db
	}
	return b.db.WithContext(ctx)
}

// OwnedBy starts a query on model restricted to rows whose user_id is userID.
// Repositories build on it so a foreign id behaves exactly like a missing one.
func (b Base) OwnedBy(ctx context.Context, model any, userID uuid.UUID) *gorm.DB {
	return b.DB(ctx).Model(model).Where("user_id = ?", userID)
}

// IsNotFound reports whether err means the row does not exist for the caller.
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
