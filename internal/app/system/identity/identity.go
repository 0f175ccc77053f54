// Package identity resolves the acting user on each request. Authentication
// happens upstream; requests carry the actor's external auth uid and this
// package maps it to the stored user record.
package identity

import (
	"context"
	"errors"

	userstore "github.com/dalemusser/helplink/internal/app/store/users"
	"github.com/dalemusser/helplink/internal/app/system/apierr"
	"github.com/dalemusser/helplink/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
)

// Resolve maps an auth uid to its user. Missing uid is a validation error;
// an unknown uid means the user never signed in.
func Resolve(ctx context.Context, users *userstore.Store, authUID string) (*models.User, error) {
	if authUID == "" {
		return nil, apierr.Invalid("auth_uid is required")
	}
	u, err := users.GetByAuthUID(ctx, authUID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apierr.NotFound("user not found")
		}
		return nil, apierr.Server("failed to load user", err)
	}
	return u, nil
}
