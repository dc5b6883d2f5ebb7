package server

import (
	"net/http"

	"github.com/actorhub/actorhub/internal/rules"
	transactiondomain "github.com/actorhub/actorhub/internal/transaction/domain"
	"github.com/gin-gonic/gin"
)

type transactionStatusRequest struct {
	Status rules.PaymentStatus `json:"status"`
}

func (s *Server) RecordTransaction(c *gin.Context) {
	var req transactiondomain.RecordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	txn, err := s.transactionSvc.Record(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": txn})
}

func (s *Server) GetTransaction(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	txn, err := s.transactionSvc.Get(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	if !requireSelf(c, derefUUID(txn.UserID)) {
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": txn})
}

func (s *Server) UpdateTransactionStatus(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	var req transactionStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	txn, err := s.transactionSvc.UpdateStatus(c.Request.Context(), id, req.Status)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": txn})
}
