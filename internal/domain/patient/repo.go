package patient

import "context"

type Repository interface {
	Create(ctx context.Context, p *Patient) error
	GetByID(ctx context.Context, id int64) (*Patient, error)
	GetByCode(ctx context.Context, code string) (*Patient, error)
	Update(ctx context.Context, p *Patient) error
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, search string, limit, offset int) ([]*Patient, int, error)
	EmailTaken(ctx context.Context, email string, excludeID int64) (bool, error)
	CodeExists(ctx context.Context, code string) (bool, error)
}
