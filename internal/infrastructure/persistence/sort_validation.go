package persistence

import (
	"strings"
)

// ValidateSortOrder validates and normalizes the sort order to ASC or DESC.
// Returns "DESC" as the default if the input is invalid or empty.
func ValidateSortOrder(orderDir string) string {
	normalized := strings.ToUpper(strings.TrimSpace(orderDir))
	if normalized == "ASC" {
		return "ASC"
	}
	return "DESC"
}

// ValidateSortField validates the sort field against a whitelist of allowed fields.
// Returns the defaultField if the input is invalid, empty, or not in the whitelist.
func ValidateSortField(sortField string, allowedFields map[string]bool, defaultField string) string {
	trimmed := strings.TrimSpace(sortField)
	if trimmed == "" {
		return defaultField
	}
	if allowedFields[trimmed] {
		return trimmed
	}
	return defaultField
}

// BoxSortFields contains allowed sort fields for petty cash boxes
var BoxSortFields = map[string]bool{
	"id":               true,
	"created_at":       true,
	"updated_at":       true,
	"name":             true,
	"status":           true,
	"available_amount": true,
}

// AccountSortFields contains allowed sort fields for bank accounts
var AccountSortFields = map[string]bool{
	"id":              true,
	"created_at":      true,
	"updated_at":      true,
	"name":            true,
	"bank_name":       true,
	"status":          true,
	"current_balance": true,
}

// MovementSortFields contains allowed sort fields for cash and bank movements
var MovementSortFields = map[string]bool{
	"id":          true,
	"created_at":  true,
	"occurred_at": true,
	"amount":      true,
	"type":        true,
}

// BatchSortFields contains allowed sort fields for tithe batches
var BatchSortFields = map[string]bool{
	"id":             true,
	"created_at":     true,
	"received_at":    true,
	"period":         true,
	"total_received": true,
	"distributed":    true,
}

// CategorySortFields contains allowed sort fields for ledger categories
var CategorySortFields = map[string]bool{
	"id":         true,
	"created_at": true,
	"code":       true,
	"name":       true,
	"kind":       true,
}
