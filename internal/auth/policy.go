package auth

import (
	"fmt"

	"github.com/luis-polezi/stock-control/internal/apierror"
	"github.com/luis-polezi/stock-control/internal/model"
)

// Action is a user intent subject to authorization.
type Action string

const (
	ActionView         Action = "view"
	ActionViewLogs     Action = "view_logs"
	ActionExport       Action = "export"
	ActionRestoreLogin Action = "restore_on_login"
	ActionRegister     Action = "register_product"
	ActionEdit         Action = "edit_product"
	ActionDelete       Action = "delete_product"
	ActionMove         Action = "apply_movement"
	ActionImport       Action = "import"
	ActionBackup       Action = "backup"
	ActionDeleteBackup Action = "delete_backup"
	ActionClearLocal   Action = "clear_local"
	ActionSync         Action = "sync"
)

// Viewers may read everything, export, and restore the latest backup when
// they log in. Every mutation of products, movements or the archive is
// reserved to administrators.
var viewerAllowed = map[Action]bool{
	ActionView:         true,
	ActionViewLogs:     true,
	ActionExport:       true,
	ActionRestoreLogin: true,
}

// Allowed reports whether role may perform action.
func Allowed(role model.Role, action Action) bool {
	switch role {
	case model.RoleAdmin:
		return true
	case model.RoleViewer:
		return viewerAllowed[action]
	}
	return false
}

// Authorize returns ErrForbidden when id may not perform action.
func Authorize(id model.Identity, action Action) error {
	if !Allowed(id.Role, action) {
		return fmt.Errorf("%s may not %s: %w", id.Username, action, apierror.ErrForbidden)
	}
	return nil
}
