package discord

import (
	"slices"

	"github.com/bwmarrin/discordgo"
)

// PermissionChecker validates that a Discord user may run the staff review
// commands.
type PermissionChecker struct {
	staffRoleID string
}

// NewPermissionChecker creates a PermissionChecker with the given staff role
// ID. An empty ID restricts the commands to guild administrators.
func NewPermissionChecker(staffRoleID string) *PermissionChecker {
	return &PermissionChecker{staffRoleID: staffRoleID}
}

// IsStaff checks whether the interaction author holds the staff role or has
// administrator permissions. Returns false for interactions without a Member
// (e.g. DM channel interactions).
func (p *PermissionChecker) IsStaff(i *discordgo.InteractionCreate) bool {
	if i.Member == nil {
		return false
	}
	if i.Member.Permissions&discordgo.PermissionAdministrator != 0 {
		return true
	}
	if p.staffRoleID == "" {
		return false
	}
	return slices.Contains(i.Member.Roles, p.staffRoleID)
}
