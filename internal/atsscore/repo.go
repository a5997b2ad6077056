package atsscore

import "context"

// Repo persists score audit records.
type Repo interface {
	Create(ctx context.Context, rec Record) error
	GetByID(ctx context.Context, id string) (Record, error)
	ListByCaller(ctx context.Context, callerKey string, limit, offset int) ([]Record, error)
}
