// Package authz holds the predicates deciding whether a caller may perform a
// message-scoped operation. The predicates never error; callers turn a false
// result into an unauthorized failure before touching the store again.
package authz

import "github.com/messagely/backend/internal/server/models"

// CanView reports whether caller is the sender or the recipient of the
// message.
func CanView(caller string, m *models.MessageDetail) bool {
	return caller == m.FromUser.Username || caller == m.ToUser.Username
}

// CanMarkRead reports whether caller may mark the message as read. Only the
// recipient may.
func CanMarkRead(caller string, m *models.MessageDetail) bool {
	return caller == m.ToUser.Username
}
