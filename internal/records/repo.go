package records

import "context"

// Repo defines persistence operations for flattened subject records.
type Repo interface {
	Append(ctx context.Context, recs []SubjectRecord) error
	Count(ctx context.Context) (int, error)
	List(ctx context.Context) ([]SubjectRecord, error)
	Clear(ctx context.Context) error
}
