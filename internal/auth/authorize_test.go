package auth

import (
	"testing"

	"github.com/linguaacademy/academia/internal/model"
)

func TestAuthorize_NilSession_ReturnsFalse(t *testing.T) {
	if Authorize(nil) {
		t.Error("Authorize(nil) = true, want false")
	}
	if Authorize(nil, model.RoleLearner) {
		t.Error("Authorize(nil, learner) = true, want false")
	}
}

func TestAuthorize_NoRequiredRole_AuthenticatedOnly(t *testing.T) {
	session := &model.Session{ID: "s1", UserID: "u1", Role: model.RoleLearner}

	if !Authorize(session) {
		t.Error("Authorize(session) = false, want true")
	}
}

func TestAuthorize_RoleMatch(t *testing.T) {
	tests := []struct {
		name     string
		role     model.Role
		required model.Role
		want     bool
	}{
		{"learner requires learner", model.RoleLearner, model.RoleLearner, true},
		{"instructor requires learner", model.RoleInstructor, model.RoleLearner, false},
		{"instructor requires instructor", model.RoleInstructor, model.RoleInstructor, true},
		{"learner requires administrator", model.RoleLearner, model.RoleAdministrator, false},
		{"administrator requires administrator", model.RoleAdministrator, model.RoleAdministrator, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			session := &model.Session{ID: "s1", UserID: "u1", Role: tt.role}
			if got := Authorize(session, tt.required); got != tt.want {
				t.Errorf("Authorize() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAuthorize_AnyOfMultipleRoles(t *testing.T) {
	session := &model.Session{ID: "s1", UserID: "u1", Role: model.RoleInstructor}

	if !Authorize(session, model.RoleInstructor, model.RoleAdministrator) {
		t.Error("expected instructor to be authorized for instructor-or-administrator")
	}
}

func TestAuthorize_InvalidRole_ReturnsFalse(t *testing.T) {
	session := &model.Session{ID: "s1", UserID: "u1", Role: model.Role("superuser")}

	if Authorize(session) {
		t.Error("expected unknown role to be rejected")
	}
}

func TestRoleDestination(t *testing.T) {
	tests := []struct {
		role model.Role
		want string
	}{
		{model.RoleAdministrator, "/dashboard/admin"},
		{model.RoleInstructor, "/dashboard/instructor"},
		{model.RoleLearner, "/dashboard/learner"},
	}

	for _, tt := range tests {
		if got := RoleDestination(tt.role); got != tt.want {
			t.Errorf("RoleDestination(%q) = %q, want %q", tt.role, got, tt.want)
		}
	}
}
