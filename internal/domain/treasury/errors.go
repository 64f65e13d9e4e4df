package treasury

import "github.com/churchops/backend/internal/domain/shared"

// Treasury-specific domain errors
var (
	// ErrPartialTransfer flags the critical case where the outbound leg of a
	// transfer succeeded but the inbound leg failed. The surrounding database
	// transaction rolls both legs back; the error is reported so operators can
	// audit the attempt.
	ErrPartialTransfer = shared.NewDomainError("PARTIAL_TRANSFER", "Transfer could not be completed after debiting the source; all changes were rolled back")

	// ErrSameSourceDestination rejects transfers from a box or account to itself
	ErrSameSourceDestination = shared.NewDomainError("VALIDATION_ERROR", "Source and destination must differ")
)
