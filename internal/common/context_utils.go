package common

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

type contextKey string

const (
	UserIDKey   contextKey = "user_id"
	TenantIDKey contextKey = "tenant_id"
	RoleKey     contextKey = "role"
)

// User roles recognized by the portals.
const (
	RoleOwner  = "owner"
	RoleTenant = "tenant"
)

// ValidateUUID validates UUID format with comprehensive checks
func ValidateUUID(idStr string, fieldName string) (uuid.UUID, error) {
	if strings.TrimSpace(idStr) == "" {
		return uuid.Nil, ValidationErrorf("%s is required", fieldName)
	}

	idStr = strings.TrimSpace(idStr)

	id, err := uuid.Parse(idStr)
	if err != nil {
		return uuid.Nil, ValidationErrorf("%s is not a valid UUID", fieldName)
	}

	return id, nil
}

// ValidateAmountCents validates monetary amounts. All amounts in the system are
// integer minor units; anything non-positive is rejected before any store mutation.
func ValidateAmountCents(amountCents int64, fieldName string) error {
	if amountCents <= 0 {
		return ValidationErrorf("%s must be a positive amount in cents", fieldName)
	}
	if amountCents > 100_000_000_00 {
		return ValidationErrorf("%s cannot exceed $100,000,000", fieldName)
	}
	return nil
}

// FormatCents renders minor units as a dollar string. Presentation boundary only:
// nothing downstream of this function may do arithmetic on the result.
func FormatCents(amountCents int64) string {
	sign := ""
	if amountCents < 0 {
		sign = "-"
		amountCents = -amountCents
	}
	return fmt.Sprintf("%s$%d.%02d", sign, amountCents/100, amountCents%100)
}

// ValidateRequiredString validates required string fields
func ValidateRequiredString(value, fieldName string) error {
	if strings.TrimSpace(value) == "" {
		return ValidationErrorf("%s is required", fieldName)
	}
	return nil
}

// ValidateOptionalString validates optional string fields
func ValidateOptionalString(value *string, fieldName string, maxLength int) error {
	if value != nil {
		if len(*value) > maxLength {
			return ValidationErrorf("%s cannot exceed %d characters", fieldName, maxLength)
		}
		*value = strings.TrimSpace(*value)
	}
	return nil
}

// ValidateDateFormat validates optional YYYY-MM-DD date strings.
func ValidateDateFormat(dateStr, fieldName string) (*time.Time, error) {
	if strings.TrimSpace(dateStr) == "" {
		return nil, nil
	}

	date, err := time.Parse("2006-01-02", strings.TrimSpace(dateStr))
	if err != nil {
		return nil, ValidationErrorf("%s must be in YYYY-MM-DD format", fieldName)
	}

	if date.After(time.Now().AddDate(10, 0, 0)) {
		return nil, ValidationErrorf("%s cannot be more than 10 years in the future", fieldName)
	}
	if date.Before(time.Now().AddDate(-100, 0, 0)) {
		return nil, ValidationErrorf("%s cannot be more than 100 years ago", fieldName)
	}

	return &date, nil
}

// ValidatePaginationParams validates pagination parameters
func ValidatePaginationParams(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = 50
	}
	if limit > 1000 {
		limit = 1000
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

// SafeString safely handles string pointer operations
func SafeString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// GetUserIDFromContext extracts the user ID from the request context
func GetUserIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	userID, ok := ctx.Value(UserIDKey).(uuid.UUID)
	return userID, ok
}

// GetTenantIDFromContext extracts the tenant ID from the request context. Only set
// for tenant-portal logins; owner requests carry no tenant scope.
func GetTenantIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	tenantID, ok := ctx.Value(TenantIDKey).(uuid.UUID)
	return tenantID, ok
}

// GetRoleFromContext extracts the authenticated role from the request context.
func GetRoleFromContext(ctx context.Context) (string, bool) {
	role, ok := ctx.Value(RoleKey).(string)
	return role, ok
}
