package repos

import (
	"context"

	"nittanymarket/internal/domain"
)

type CategoryRepo struct{ q Querier }

func NewCategoryRepo(q Querier) *CategoryRepo { return &CategoryRepo{q: q} }

func (r *CategoryRepo) Create(ctx context.Context, name string, parent *string) error {
	_, err := exec(ctx, r.q, `INSERT INTO categories(name,parent) VALUES(?,?) ON CONFLICT(name) DO NOTHING`, name, parent)
	return err
}

// Tree walks the hierarchy from the roots; Level is the depth below a root.
func (r *CategoryRepo) Tree(ctx context.Context) ([]domain.Category, error) {
	var out []domain.Category
	err := sel(ctx, r.q, &out, `
		WITH RECURSIVE tree(name, parent, level) AS (
		  SELECT name, parent, 0 FROM categories WHERE parent IS NULL
		  UNION ALL
		  SELECT c.name, c.parent, t.level + 1
		  FROM categories c
		  JOIN tree t ON c.parent = t.name
		)
		SELECT name, parent, level FROM tree
		ORDER BY level, name
	`)
	return out, err
}

func (r *CategoryRepo) Names(ctx context.Context) ([]string, error) {
	var out []string
	err := sel(ctx, r.q, &out, `SELECT name FROM categories ORDER BY name`)
	return out, err
}
