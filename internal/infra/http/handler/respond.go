// Package handler implements the HTTP handlers.
package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/mydetailarea/access/internal/infra/http/middleware"
	"github.com/mydetailarea/access/pkg/apierror"
	"github.com/mydetailarea/access/pkg/domain/access"
	"github.com/mydetailarea/access/pkg/domain/dealership"
	"github.com/mydetailarea/access/pkg/domain/role"
	"github.com/mydetailarea/access/pkg/domain/shared"
	"github.com/mydetailarea/access/pkg/validator"
)

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// writeError maps domain errors to the API error envelope. Resolution
// failures become 503 without internal detail; the caller must deny and
// retry, never guess.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	requestID := middleware.GetRequestID(r.Context())

	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		details := make(apierror.ValidationErrors, 0, len(validationErrs))
		for _, ve := range validationErrs {
			details.Add(ve.Field, ve.Message)
		}
		details.ToAPIError().WriteJSON(w, requestID)
		return
	}

	var apiErr *apierror.Error
	switch {
	case errors.As(err, &apiErr):
	case access.IsDataUnavailable(err):
		apiErr = apierror.ServiceUnavailable("Permission data temporarily unavailable")
	case errors.Is(err, shared.ErrValidation):
		apiErr = apierror.BadRequest(err.Error())
	case errors.Is(err, dealership.ErrDealershipNotFound):
		apiErr = apierror.NotFound("Dealership")
	case errors.Is(err, role.ErrRoleNotFound):
		apiErr = apierror.NotFound("Role")
	case errors.Is(err, role.ErrGrantNotFound):
		apiErr = apierror.NotFound("Grant")
	case errors.Is(err, role.ErrAssignmentNotFound):
		apiErr = apierror.NotFound("Assignment")
	case errors.Is(err, shared.ErrNotFound):
		apiErr = apierror.NotFound("")
	case errors.Is(err, dealership.ErrDealershipExists), errors.Is(err, role.ErrRoleExists):
		apiErr = apierror.Conflict("Resource already exists")
	default:
		apiErr = apierror.InternalError(err)
	}
	apiErr.WriteJSON(w, requestID)
}

// pathID parses a UUID path parameter, mapping bad input to a
// validation error rather than a lookup miss.
func pathID(value, name string) (shared.ID, error) {
	id, err := shared.ParseID(value)
	if err != nil {
		return shared.ID{}, apierror.BadRequest("Invalid " + name)
	}
	return id, nil
}
