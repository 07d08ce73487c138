package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/flowledger/crypto-tracker/internal/domain"
	"github.com/flowledger/crypto-tracker/internal/store"
	"github.com/flowledger/crypto-tracker/internal/tracker"
)

// Handler defines the interface for REST API handlers
type Handler interface {
	// ListTransactions retrieves transactions with optional filters
	// GET /api/v1/transactions?currency=<c>&source=<s>&type=<t>&since=<rfc3339>&limit=<n>
	ListTransactions(c *gin.Context)

	// GetTransaction retrieves a single transaction by its canonical id
	// GET /api/v1/transactions/:id
	GetTransaction(c *gin.Context)

	// GetChain retrieves the lifecycle chain of a transaction, root first
	// GET /api/v1/transactions/:id/chain
	GetChain(c *gin.Context)

	// CreateLink records a parent/child relation between two transactions
	// POST /api/v1/links
	CreateLink(c *gin.Context)

	// TrackEthereum ingests the transaction history of an Ethereum address
	// POST /api/v1/track/ethereum/:address
	TrackEthereum(c *gin.Context)

	// TrackCoinbase ingests the transactions of the configured Coinbase accounts
	// POST /api/v1/track/coinbase
	TrackCoinbase(c *gin.Context)

	// HealthCheck returns the health status of the API
	// GET /health
	HealthCheck(c *gin.Context)
}

// handler implements the Handler interface
type handler struct {
	tracker *tracker.Tracker
}

// NewHandler creates a new REST API handler
func NewHandler(t *tracker.Tracker) Handler {
	return &handler{tracker: t}
}

// linkRequest is the body of POST /api/v1/links
type linkRequest struct {
	ParentID string `json:"parent_id" binding:"required"`
	ChildID  string `json:"child_id" binding:"required"`
}

// ListTransactions retrieves transactions with optional filters
func (h *handler) ListTransactions(c *gin.Context) {
	filter := store.ListFilter{
		Currency: c.Query("currency"),
		Source:   domain.Source(c.Query("source")),
		Type:     domain.TxType(c.Query("type")),
	}

	if since := c.Query("since"); since != "" {
		ts, err := time.Parse(time.RFC3339, since)
		if err != nil {
			respondBadRequest(c, "Invalid since timestamp", "expected RFC 3339 format")
			return
		}
		filter.Since = &ts
	}

	if limit := c.Query("limit"); limit != "" {
		n, err := strconv.Atoi(limit)
		if err != nil || n < 1 {
			respondBadRequest(c, "Invalid limit", "expected a positive integer")
			return
		}
		filter.Limit = n
	}

	transactions, err := h.tracker.List(c.Request.Context(), filter)
	if err != nil {
		respondInternalError(c, err, "Failed to list transactions")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"transactions": transactions,
		"count":        len(transactions),
	})
}

// GetTransaction retrieves a single transaction by its canonical id
func (h *handler) GetTransaction(c *gin.Context) {
	id := domain.TxID(c.Param("id"))
	if !id.Valid() {
		respondBadRequest(c, "Invalid transaction id")
		return
	}

	tx, err := h.tracker.Get(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			respondNotFound(c, "Transaction not found")
			return
		}
		respondInternalError(c, err, "Failed to get transaction")
		return
	}

	c.JSON(http.StatusOK, tx)
}

// GetChain retrieves the lifecycle chain of a transaction, root first
func (h *handler) GetChain(c *gin.Context) {
	id := domain.TxID(c.Param("id"))
	if !id.Valid() {
		respondBadRequest(c, "Invalid transaction id")
		return
	}

	chain, err := h.tracker.Chain(c.Request.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNotFound):
			respondNotFound(c, "Transaction not found")
		case errors.Is(err, domain.ErrCorruptChain):
			respondInternalError(c, err, "Chain integrity violation")
		default:
			respondInternalError(c, err, "Failed to build chain")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"chain": chain,
		"depth": len(chain),
	})
}

// CreateLink records a parent/child relation between two transactions
func (h *handler) CreateLink(c *gin.Context) {
	var req linkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Invalid request body", err.Error())
		return
	}

	parentID := domain.TxID(req.ParentID)
	childID := domain.TxID(req.ChildID)
	if !parentID.Valid() || !childID.Valid() {
		respondBadRequest(c, "Invalid transaction id")
		return
	}

	err := h.tracker.Link(c.Request.Context(), parentID, childID)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNotFound):
			respondNotFound(c, "Transaction not found", err.Error())
		case errors.Is(err, domain.ErrAlreadyLinked):
			respondConflict(c, "Transaction already has a parent", err.Error())
		case errors.Is(err, domain.ErrCycleDetected):
			respondConflict(c, "Link would create a cycle", err.Error())
		default:
			respondInternalError(c, err, "Failed to create link")
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"parent_id": parentID,
		"child_id":  childID,
	})
}

// TrackEthereum ingests the transaction history of an Ethereum address
func (h *handler) TrackEthereum(c *gin.Context) {
	address := c.Param("address")

	result, err := h.tracker.TrackAddress(c.Request.Context(), address)
	if err != nil {
		if errors.Is(err, domain.ErrUpstreamUnavailable) {
			respondUpstreamError(c, err, "Blockchain provider unavailable")
			return
		}
		respondBadRequest(c, "Failed to track address", err.Error())
		return
	}

	c.JSON(http.StatusOK, result)
}

// TrackCoinbase ingests the transactions of the configured Coinbase accounts
func (h *handler) TrackCoinbase(c *gin.Context) {
	result, err := h.tracker.TrackCoinbase(c.Request.Context())
	if err != nil {
		if errors.Is(err, domain.ErrUpstreamUnavailable) {
			respondUpstreamError(c, err, "Exchange provider unavailable")
			return
		}
		respondBadRequest(c, "Failed to track coinbase accounts", err.Error())
		return
	}

	c.JSON(http.StatusOK, result)
}

// HealthCheck returns the health status of the API
func (h *handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}
