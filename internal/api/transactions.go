package api

import (
	"errors"
	"github.com/IlyasAtabaev731/finance-records/internal/domain/models"
	"github.com/IlyasAtabaev731/finance-records/internal/storage"
	"github.com/gorilla/mux"
	"log/slog"
	"net/http"
)

// TransactionRequest is the body of create and update calls. Pointers tell a
// missing field apart from a zero value; every field must be present.
type TransactionRequest struct {
	ID          string   `json:"id" validate:"required,max=50"`
	Type        *string  `json:"type" validate:"required,max=3"`
	Description *string  `json:"description" validate:"required,max=100"`
	Amount      *float64 `json:"amount" validate:"required"`
}

func (req TransactionRequest) toModel(userID int) models.Transaction {
	return models.Transaction{
		ID:          req.ID,
		Type:        *req.Type,
		Description: *req.Description,
		Amount:      *req.Amount,
		UserID:      userID,
	}
}

func (s *APIServer) addTransactionHandler() func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		var req TransactionRequest
		if err := s.decodeRequest(r, &req); err != nil {
			s.writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}

		t, err := s.storage.SaveTransaction(r.Context(), req.toModel(userID(r)))
		if err != nil {
			s.writeStorageError(w, r, err)
			return
		}

		s.requestLogger(r).Info("Transaction created", slog.String("id", t.ID), slog.Int("user_id", t.UserID))

		s.writeJSON(w, r, http.StatusOK, t)
	}
}

func (s *APIServer) transactionsByUserHandler() func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		transactions, err := s.storage.TransactionsByUser(r.Context(), userID(r))
		if err != nil {
			s.writeStorageError(w, r, err)
			return
		}

		s.writeJSON(w, r, http.StatusOK, transactions)
	}
}

// updateTransactionHandler overwrites the row named by the body id; the path
// segment only routes the request. The caller becomes the owner unless
// ownership enforcement is enabled.
func (s *APIServer) updateTransactionHandler() func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		var req TransactionRequest
		if err := s.decodeRequest(r, &req); err != nil {
			s.writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}

		t, err := s.storage.UpdateTransaction(r.Context(), req.toModel(userID(r)), s.config.Ledger.EnforceOwnership)
		if err != nil {
			s.writeStorageError(w, r, err)
			return
		}

		s.requestLogger(r).Info("Transaction updated", slog.String("id", t.ID), slog.String("path_id", mux.Vars(r)["id"]), slog.Int("user_id", t.UserID))

		s.writeJSON(w, r, http.StatusOK, t)
	}
}

func (s *APIServer) deleteTransactionHandler() func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		id := mux.Vars(r)["id"]

		t, err := s.storage.DeleteTransaction(r.Context(), id, userID(r), s.config.Ledger.EnforceOwnership)
		if err != nil {
			s.writeStorageError(w, r, err)
			return
		}

		s.requestLogger(r).Info("Transaction deleted", slog.String("id", t.ID), slog.Int("owner_id", t.UserID))

		s.writeJSON(w, r, http.StatusOK, t)
	}
}

func (s *APIServer) writeStorageError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, storage.ErrTransactionNotFound):
		s.writeError(w, r, http.StatusNotFound, storage.ErrTransactionNotFound.Error())
	case errors.Is(err, storage.ErrTransactionExists):
		s.writeError(w, r, http.StatusConflict, storage.ErrTransactionExists.Error())
	case errors.Is(err, storage.ErrForbidden):
		s.writeError(w, r, http.StatusForbidden, storage.ErrForbidden.Error())
	default:
		s.requestLogger(r).Error("Storage failure", "error", err)
		s.writeError(w, r, http.StatusInternalServerError, errInternal)
	}
}
