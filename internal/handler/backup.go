package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/luis-polezi/stock-control/internal/dto"
	"github.com/luis-polezi/stock-control/internal/service"
)

type BackupHandler struct{ svc service.BackupService }

func NewBackupHandler(svc service.BackupService) *BackupHandler { return &BackupHandler{svc: svc} }

// Create archives the pushed ledger. Automatic backups handed to the worker
// queue answer 202 with the planned file name and URL.
func (h *BackupHandler) Create(c *gin.Context) {
	var req dto.BackupRequest
	if !bindAndValidate(c, &req) {
		return
	}
	req.User = actor(c, req.User)

	resp, queued, err := h.svc.Store(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	status := http.StatusOK
	if queued {
		status = http.StatusAccepted
	}
	c.JSON(status, resp)
}

func (h *BackupHandler) List(c *gin.Context) {
	c.JSON(http.StatusOK, dto.BackupListResponse{Success: true, Backups: h.svc.List(c.Request.Context())})
}

func (h *BackupHandler) Latest(c *gin.Context) {
	c.JSON(http.StatusOK, h.svc.Latest(c.Request.Context()))
}

func (h *BackupHandler) Delete(c *gin.Context) {
	name := c.Param("fileName")
	if err := h.svc.Delete(c.Request.Context(), name); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.MessageResponse{Success: true, Message: "Backup " + name + " deleted"})
}

// Download streams a stored backup document.
func (h *BackupHandler) Download(c *gin.Context) {
	name := c.Param("fileName")
	body, err := h.svc.Open(c.Request.Context(), name)
	if err != nil {
		respondError(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+name+`"`)
	c.Data(http.StatusOK, "application/json", body)
}
