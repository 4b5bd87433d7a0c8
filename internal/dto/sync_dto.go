package dto

import "github.com/luis-polezi/stock-control/internal/model"

// TimestampLayout is the layout of every timestamp field on the wire.
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

// ─── Request DTOs ────────────────────────────────────────────────────────────

// SyncRequest carries the full client ledger. A missing or null products
// field is rejected; an empty array is a valid (empty) ledger.
type SyncRequest struct {
	Products []model.Product     `json:"products" validate:"required"`
	Logs     []model.MovementLog `json:"logs"`
	User     string              `json:"user"     validate:"max=150"`
}

type BackupRequest struct {
	Products  []model.Product     `json:"products"  validate:"required"`
	Logs      []model.MovementLog `json:"logs"`
	User      string              `json:"user"      validate:"max=150"`
	Timestamp string              `json:"timestamp" validate:"omitempty,datetime=2006-01-02T15:04:05Z07:00"`
	Automatic bool                `json:"automatic"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type HealthResponse struct {
	Status        string `json:"status"`
	Message       string `json:"message"`
	FailedBackups *int64 `json:"failed_backups,omitempty"`
}

type MessageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type SyncResponse struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

type BackupDetails struct {
	Products int    `json:"products"`
	Logs     int    `json:"logs"`
	FileName string `json:"fileName"`
}

type BackupResponse struct {
	Success     bool          `json:"success"`
	Message     string        `json:"message"`
	BackupID    string        `json:"backupId"`
	DownloadURL string        `json:"downloadUrl"`
	Timestamp   string        `json:"timestamp"`
	Details     BackupDetails `json:"details"`
}

type LatestBackupResponse struct {
	Success   bool                 `json:"success"`
	HasBackup bool                 `json:"hasBackup"`
	Backup    *model.BackupPointer `json:"backup"`
}

type BackupListResponse struct {
	Success bool               `json:"success"`
	Backups []model.BackupInfo `json:"backups"`
}

type DataResponse struct {
	Products   []model.Product     `json:"products"`
	Logs       []model.MovementLog `json:"logs"`
	LastUpdate string              `json:"lastUpdate"`
}
