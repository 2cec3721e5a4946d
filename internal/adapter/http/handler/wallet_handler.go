package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/iho/walletledger/internal/adapter/http/dto"
	"github.com/iho/walletledger/internal/adapter/http/middleware"
	"github.com/iho/walletledger/internal/domain"
	"github.com/iho/walletledger/internal/usecase"
)

const (
	// IdempotencyKeyHeader carries the client-chosen key of a credit or debit.
	IdempotencyKeyHeader = "Idempotency-Key"
	// ReplayHeader is set on responses served from the idempotency cache.
	ReplayHeader = "X-Idempotency-Replay"
)

// WalletService defines the wallet read and create behavior needed by WalletHandler.
type WalletService interface {
	CreateWallet(ctx context.Context, userID int64) (*domain.Wallet, error)
	GetWallet(ctx context.Context, id int64) (*domain.Wallet, error)
	ListTransactions(ctx context.Context, input usecase.ListTransactionsInput) ([]*domain.TransactionRecord, error)
}

// Executor applies credits and debits.
type Executor interface {
	Execute(ctx context.Context, input usecase.ExecuteInput) (*usecase.ExecuteResult, error)
}

// WalletHandler handles wallet-related HTTP requests.
type WalletHandler struct {
	walletUC WalletService
	engine   Executor
}

// NewWalletHandler creates a new WalletHandler.
func NewWalletHandler(walletUC WalletService, engine Executor) *WalletHandler {
	return &WalletHandler{walletUC: walletUC, engine: engine}
}

// Create creates a wallet. Without user_id the authenticated user is used.
func (h *WalletHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateWalletRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	if req.UserID == 0 {
		if claims, ok := middleware.ClaimsFromContext(r.Context()); ok {
			req.UserID = claims.UserID
		}
	}

	wallet, err := h.walletUC.CreateWallet(r.Context(), req.UserID)
	if err != nil {
		writeDomainError(w, "failed to create wallet", err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.CreateWalletResponse{
		WalletID: wallet.ID,
		Balance:  wallet.Balance,
	})
}

// Get retrieves a wallet by ID.
func (h *WalletHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := walletIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid wallet ID", err.Error())
		return
	}

	wallet, err := h.walletUC.GetWallet(r.Context(), id)
	if err != nil {
		writeDomainError(w, "failed to get wallet", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.WalletFromDomain(wallet))
}

// ListTransactions returns the wallet's transaction history, newest first.
func (h *WalletHandler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	id, err := walletIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid wallet ID", err.Error())
		return
	}

	limit, offset := domain.ValidatePagination(
		parseIntQuery(r, "limit", domain.DefaultPageSize),
		parseIntQuery(r, "offset", 0),
	)

	records, err := h.walletUC.ListTransactions(r.Context(), usecase.ListTransactionsInput{
		WalletID: id,
		Limit:    limit,
		Offset:   offset,
	})
	if err != nil {
		writeDomainError(w, "failed to list transactions", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ListTransactionsResponse{
		Transactions: dto.TransactionsFromDomain(records),
		Limit:        limit,
		Offset:       offset,
	})
}

// Credit adds the requested amount to the wallet.
func (h *WalletHandler) Credit(w http.ResponseWriter, r *http.Request) {
	h.execute(w, r, domain.DirectionCredit)
}

// Debit removes the requested amount from the wallet.
func (h *WalletHandler) Debit(w http.ResponseWriter, r *http.Request) {
	h.execute(w, r, domain.DirectionDebit)
}

func (h *WalletHandler) execute(w http.ResponseWriter, r *http.Request, direction domain.Direction) {
	id, err := walletIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid wallet ID", err.Error())
		return
	}

	key := r.Header.Get(IdempotencyKeyHeader)
	if err := domain.ValidateIdempotencyKey(key); err != nil {
		writeError(w, http.StatusBadRequest, "missing "+IdempotencyKeyHeader+" header", err.Error())
		return
	}

	var req dto.AmountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	if err := domain.ValidateAmount(req.Amount); err != nil {
		writeError(w, http.StatusBadRequest, "invalid amount", err.Error())
		return
	}

	result, err := h.engine.Execute(r.Context(), req.ToExecuteInput(id, direction, key))
	if err != nil {
		writeDomainError(w, "failed to apply "+strings.ToLower(string(direction)), err)
		return
	}

	if result.Replayed {
		w.Header().Set(ReplayHeader, "true")
	}

	writeJSON(w, http.StatusOK, dto.ExecuteFromResult(result))
}
