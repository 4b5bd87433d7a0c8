package handler

import (
	"bytes"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/luis-polezi/stock-control/internal/dto"
	"github.com/luis-polezi/stock-control/internal/exchange"
	"github.com/luis-polezi/stock-control/internal/service"
)

type SyncHandler struct{ svc service.SyncService }

func NewSyncHandler(svc service.SyncService) *SyncHandler { return &SyncHandler{svc: svc} }

// Sync replaces the server ledger with the pushed one.
func (h *SyncHandler) Sync(c *gin.Context) {
	var req dto.SyncRequest
	if !bindAndValidate(c, &req) {
		return
	}
	req.User = actor(c, req.User)

	resp, err := h.svc.Sync(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *SyncHandler) Data(c *gin.Context) {
	c.JSON(http.StatusOK, h.svc.Data(c.Request.Context()))
}

// BalancePDF downloads the current balances as a PDF report.
func (h *SyncHandler) BalancePDF(c *gin.Context) {
	var buf bytes.Buffer
	if err := h.svc.BalanceReport(c.Request.Context(), &buf, actor(c, c.Query("user"))); err != nil {
		respondError(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+exchange.FileName(time.Now(), "pdf")+`"`)
	c.Data(http.StatusOK, "application/pdf", buf.Bytes())
}
