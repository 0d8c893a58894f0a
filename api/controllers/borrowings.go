package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/labstock/labstock-backend/api/responses"
	"github.com/labstock/labstock-backend/api/validators"
	"github.com/labstock/labstock-backend/internal/borrowings"
	"github.com/labstock/labstock-backend/pkg/logger"
	"github.com/labstock/labstock-backend/pkg/types"
)

func borrowingScope(r *http.Request) (labID, itemID uuid.UUID, err error) {
	labID, err = validators.ParseUUIDParam(r, "labID")
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	itemID, err = validators.ParseUUIDParam(r, "itemID")
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	return labID, itemID, nil
}

// BorrowingsCreate reserves the item for the requested window.
func BorrowingsCreate(svc borrowings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		labID, itemID, err := borrowingScope(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body borrowings.CreateBorrowingRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		borrowing, err := svc.Create(r.Context(), actor, labID, itemID, borrowings.CreateBorrowingInput{
			Start:      body.BorrowedAt,
			End:        body.ReturnedAt,
			BenchName:  body.TableName,
			SystemName: body.SystemName,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, borrowing)
	}
}

// BorrowingsList returns the item's reservation history.
func BorrowingsList(svc borrowings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		labID, itemID, err := borrowingScope(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		page, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, total, err := svc.ListByItem(r.Context(), actor, labID, itemID, page)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, types.Page{Data: list, Count: total})
	}
}

// BorrowingsGet returns one reservation.
func BorrowingsGet(svc borrowings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		labID, itemID, err := borrowingScope(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		borrowID, err := validators.ParseUUIDParam(r, "borrowID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		borrowing, err := svc.GetByID(r.Context(), actor, labID, itemID, borrowID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, borrowing)
	}
}

// BorrowingsReturn closes an open loan.
func BorrowingsReturn(svc borrowings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		labID, itemID, err := borrowingScope(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		borrowID, err := validators.ParseUUIDParam(r, "borrowID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		// An empty body means "returned now".
		var body borrowings.ReturnBorrowingRequest
		if r.ContentLength != 0 {
			if err := validators.DecodeJSONBody(r, &body); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
		}

		borrowing, err := svc.Return(r.Context(), actor, labID, itemID, borrowID, borrowings.ReturnBorrowingInput{
			ReturnedAt: body.ReturnedAt,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, borrowing)
	}
}

// BorrowingsDelete removes a reservation record outright.
func BorrowingsDelete(svc borrowings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		labID, itemID, err := borrowingScope(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		borrowID, err := validators.ParseUUIDParam(r, "borrowID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Delete(r.Context(), actor, labID, itemID, borrowID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"message": "Borrowing deleted successfully"})
	}
}
