package namespace

import "context"

// Repository provides persistence for namespaces.
type Repository interface {
	Create(ctx context.Context, ns *Namespace) error
	Get(ctx context.Context, id int64) (*Namespace, error)
	List(ctx context.Context) ([]Namespace, error)
	Update(ctx context.Context, ns *Namespace) error
	Delete(ctx context.Context, id int64) error
}
