package repositories

import "github.com/SAP-F-2025/enrollment-service/internal/models"

// ===== SHARED FILTER STRUCTS =====

// UserFilter selects users by exact field values; nil fields are ignored
type UserFilter struct {
	Email      *string          `json:"email"`
	Role       *models.UserRole `json:"role"`
	IsApproved *bool            `json:"is_approved"`
}

// ByEmail matches a normalized email
func ByEmail(email string) UserFilter {
	normalized := models.NormalizeEmail(email)
	return UserFilter{Email: &normalized}
}

// UnapprovedTeachers matches teachers still waiting for approval
func UnapprovedTeachers() UserFilter {
	role := models.RoleTeacher
	approved := false
	return UserFilter{Role: &role, IsApproved: &approved}
}

// Matches reports whether a user satisfies the filter
func (f UserFilter) Matches(user *models.User) bool {
	if f.Email != nil && user.Email != *f.Email {
		return false
	}
	if f.Role != nil && user.Role != *f.Role {
		return false
	}
	if f.IsApproved != nil && user.IsApproved != *f.IsApproved {
		return false
	}
	return true
}
