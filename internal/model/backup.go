package model

import "time"

const (
	SystemName    = "Sistema de Estoque"
	SystemVersion = "2.0"
)

// BackupDocument is the JSON object written to the archive bucket.
type BackupDocument struct {
	System     string `json:"system"`
	Version    string `json:"version"`
	BackupDate string `json:"backupDate"`
	BackedUpBy string `json:"backedUpBy"`
	Automatic  bool   `json:"automatic,omitempty"`
	Data       Ledger `json:"data"`
	Totals     Totals `json:"totals"`
}

// StoredBackup describes an object just written to the archive.
type StoredBackup struct {
	ID          string    `json:"backupId"`
	FileName    string    `json:"fileName"`
	DownloadURL string    `json:"downloadUrl"`
	StoredAt    time.Time `json:"storedAt"`
}

// BackupInfo is one entry of the archive listing.
type BackupInfo struct {
	Name        string    `json:"name"`
	DisplayName string    `json:"displayName"`
	Size        int64     `json:"size"`
	CreatedAt   time.Time `json:"created_at"`
}

// BackupPointer locates the most recent backup.
type BackupPointer struct {
	FileName    string    `json:"fileName"`
	DownloadURL string    `json:"downloadUrl"`
	CreatedAt   time.Time `json:"createdAt"`
	Size        int64     `json:"size"`
}
