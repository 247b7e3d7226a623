package service

import (
	"github.com/teamtrack/teamtrack-api/internal/models"
)

// WorkflowAction names a role-gated operation on the completion workflow.
type WorkflowAction string

const (
	ActionSubmitCompletion WorkflowAction = "SUBMIT_COMPLETION"
	ActionReviewCompletion WorkflowAction = "REVIEW_COMPLETION"
)

// RoleGate decides which roles may perform which workflow action per work
// item kind. The rules live in one table so the policy is auditable in a
// single place.
type RoleGate struct {
	rules map[WorkflowAction]map[models.WorkItemKind][]models.UserRole
}

// NewRoleGate builds the default policy: employees submit completion
// requests, managers and admins review task requests, only admins review
// project requests.
func NewRoleGate() *RoleGate {
	return &RoleGate{
		rules: map[WorkflowAction]map[models.WorkItemKind][]models.UserRole{
			ActionSubmitCompletion: {
				models.KindTask:    {models.RoleEmployee},
				models.KindProject: {models.RoleEmployee},
			},
			ActionReviewCompletion: {
				models.KindTask:    {models.RoleManager, models.RoleAdmin},
				models.KindProject: {models.RoleAdmin},
			},
		},
	}
}

// CanPerform reports whether role may perform action on items of kind.
// Unknown actions and kinds are denied.
func (g *RoleGate) CanPerform(action WorkflowAction, role models.UserRole, kind models.WorkItemKind) bool {
	byKind, ok := g.rules[action]
	if !ok {
		return false
	}
	for _, allowed := range byKind[kind] {
		if allowed == role {
			return true
		}
	}
	return false
}

// ReviewerRoles returns the roles allowed to review requests of the given
// kind. Used to target reviewer notifications.
func (g *RoleGate) ReviewerRoles(kind models.WorkItemKind) []models.UserRole {
	roles := g.rules[ActionReviewCompletion][kind]
	out := make([]models.UserRole, len(roles))
	copy(out, roles)
	return out
}
