package controllers

import (
	"net/http"

	"github.com/labstock/labstock-backend/api/responses"
	"github.com/labstock/labstock-backend/api/validators"
	"github.com/labstock/labstock-backend/internal/labs"
	"github.com/labstock/labstock-backend/pkg/logger"
	"github.com/labstock/labstock-backend/pkg/types"
)

// LabsCreate registers a new lab owned by the caller.
func LabsCreate(svc labs.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body labs.CreateLabRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		lab, err := svc.Create(r.Context(), actor, labs.CreateLabInput{
			Name:        validators.SanitizeString(body.Name, 255),
			Description: body.Description,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, lab)
	}
}

// LabsList returns the labs visible to the caller.
func LabsList(svc labs.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		page, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, total, err := svc.List(r.Context(), actor, page)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, types.Page{Data: list, Count: total})
	}
}

// LabsGet returns a single lab the caller is a member of.
func LabsGet(svc labs.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		labID, err := validators.ParseUUIDParam(r, "labID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		lab, err := svc.GetByID(r.Context(), actor, labID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, lab)
	}
}

// LabsUpdate applies lab field changes.
func LabsUpdate(svc labs.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		labID, err := validators.ParseUUIDParam(r, "labID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body labs.UpdateLabRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if body.Name != nil {
			trimmed := validators.SanitizeString(*body.Name, 255)
			body.Name = &trimmed
		}

		lab, err := svc.Update(r.Context(), actor, labID, labs.UpdateLabInput{
			Name:        body.Name,
			Description: body.Description,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, lab)
	}
}

// LabsDelete removes a lab; its items and borrowings cascade.
func LabsDelete(svc labs.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		labID, err := validators.ParseUUIDParam(r, "labID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Delete(r.Context(), actor, labID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"message": "Lab deleted successfully"})
	}
}
