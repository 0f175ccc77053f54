package apiutil

import (
	"net/http"

	"github.com/dalemusser/helplink/internal/app/system/apierr"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PathID parses an ObjectID URL parameter.
func PathID(r *http.Request, name string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, name))
	if err != nil {
		return primitive.NilObjectID, apierr.Invalid("invalid " + name)
	}
	return id, nil
}
