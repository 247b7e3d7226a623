package service

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/teamtrack/teamtrack-api/internal/models"
)

func TestRoleGateCanPerform(t *testing.T) {
	gate := NewRoleGate()

	cases := []struct {
		name    string
		action  WorkflowAction
		role    models.UserRole
		kind    models.WorkItemKind
		allowed bool
	}{
		{"employee submits task", ActionSubmitCompletion, models.RoleEmployee, models.KindTask, true},
		{"employee submits project", ActionSubmitCompletion, models.RoleEmployee, models.KindProject, true},
		{"manager cannot submit", ActionSubmitCompletion, models.RoleManager, models.KindTask, false},
		{"admin cannot submit", ActionSubmitCompletion, models.RoleAdmin, models.KindProject, false},
		{"manager reviews task", ActionReviewCompletion, models.RoleManager, models.KindTask, true},
		{"admin reviews task", ActionReviewCompletion, models.RoleAdmin, models.KindTask, true},
		{"employee cannot review task", ActionReviewCompletion, models.RoleEmployee, models.KindTask, false},
		{"admin reviews project", ActionReviewCompletion, models.RoleAdmin, models.KindProject, true},
		{"manager cannot review project", ActionReviewCompletion, models.RoleManager, models.KindProject, false},
		{"unknown kind denied", ActionReviewCompletion, models.RoleAdmin, models.WorkItemKind("MILESTONE"), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.allowed, gate.CanPerform(tc.action, tc.role, tc.kind))
		})
	}
}

func TestRoleGateReviewerRoles(t *testing.T) {
	gate := NewRoleGate()
	require.ElementsMatch(t, []models.UserRole{models.RoleManager, models.RoleAdmin}, gate.ReviewerRoles(models.KindTask))
	require.ElementsMatch(t, []models.UserRole{models.RoleAdmin}, gate.ReviewerRoles(models.KindProject))
}
