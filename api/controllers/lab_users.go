package controllers

import (
	"net/http"

	"github.com/labstock/labstock-backend/api/responses"
	"github.com/labstock/labstock-backend/api/validators"
	"github.com/labstock/labstock-backend/internal/labs"
	"github.com/labstock/labstock-backend/internal/memberships"
	"github.com/labstock/labstock-backend/pkg/logger"
)

// LabUsersList returns the lab roster with user metadata.
func LabUsersList(svc labs.Service, logg *logger.Logger) http.HandlerFunc {
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

		members, err := svc.ListMembers(r.Context(), actor, labID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, members)
	}
}

// LabUsersAdd upserts memberships for a batch of users addressed by email.
func LabUsersAdd(svc labs.Service, logg *logger.Logger) http.HandlerFunc {
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

		var body labs.AddMembersRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		added, err := svc.AddMembersByEmail(r.Context(), actor, labID, labs.AddMembersByEmailInput{
			Emails: body.Emails,
			Capabilities: memberships.CapabilitiesDTO{
				CanEditLab:   body.Capabilities.CanEditLab,
				CanEditItems: body.Capabilities.CanEditItems,
				CanEditUsers: body.Capabilities.CanEditUsers,
			},
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, added)
	}
}

// LabUsersRemove detaches users, addressed by email, from the lab.
func LabUsersRemove(svc labs.Service, logg *logger.Logger) http.HandlerFunc {
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

		var body labs.RemoveMembersRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		for _, email := range body.Emails {
			if err := svc.RemoveMemberByEmail(r.Context(), actor, labID, email); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
		}
		responses.WriteSuccess(w, map[string]string{"message": "Members removed successfully"})
	}
}

// LabUsersUpdatePermissions overwrites one member's capability flags.
func LabUsersUpdatePermissions(svc labs.Service, logg *logger.Logger) http.HandlerFunc {
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

		var body labs.UpdatePermissionsRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		membership, err := svc.UpdateMemberCapabilitiesByEmail(r.Context(), actor, labID, body.Email, memberships.CapabilitiesDTO{
			CanEditLab:   body.Capabilities.CanEditLab,
			CanEditItems: body.Capabilities.CanEditItems,
			CanEditUsers: body.Capabilities.CanEditUsers,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, membership)
	}
}
