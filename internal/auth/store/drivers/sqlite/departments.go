package sqlite

import (
	"context"

	"github.com/aussiebroadwan/epicevents/internal/auth/domain"
)

type departmentsRepo struct {
	q *queries
}

func (r *departmentsRepo) ListDepartments(ctx context.Context) ([]domain.Department, error) {
	names, err := r.q.ListDepartments(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Department, 0, len(names))
	for _, n := range names {
		out = append(out, domain.Department(n))
	}
	return out, nil
}

func (r *departmentsRepo) GetDepartment(ctx context.Context, name string) (domain.Department, error) {
	n, err := r.q.GetDepartment(ctx, name)
	if err != nil {
		return "", mapNotFound(err)
	}
	return domain.Department(n), nil
}
