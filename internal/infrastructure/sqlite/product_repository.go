package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jhoicas/tienda-pos/internal/domain"
	"github.com/jhoicas/tienda-pos/internal/domain/entity"
	"github.com/jhoicas/tienda-pos/internal/domain/repository"
)

var _ repository.ProductRepository = (*ProductRepo)(nil)

const productColumns = `id, name, category, barcode, cost_cents, price_cents, stock, min_stock, created_at, updated_at`

// ProductRepo productos sobre SQLite (usable con *sql.DB o *sql.Tx).
type ProductRepo struct {
	q Querier
}

// NewProductRepository construye el adaptador.
func NewProductRepository(q Querier) *ProductRepo {
	return &ProductRepo{q: q}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanProduct(row scanner) (*entity.Product, error) {
	var (
		p                  entity.Product
		barcode            sql.NullString
		costC, priceC      int64
		createdAt, updated int64
	)
	if err := row.Scan(&p.ID, &p.Name, &p.Category, &barcode, &costC, &priceC,
		&p.Stock, &p.MinStock, &createdAt, &updated); err != nil {
		return nil, err
	}
	if barcode.Valid {
		b := barcode.String
		p.Barcode = &b
	}
	p.Cost = fromCents(costC)
	p.Price = fromCents(priceC)
	p.CreatedAt = fromUnix(createdAt)
	p.UpdatedAt = fromUnix(updated)
	return &p, nil
}

func nullableBarcode(b *string) any {
	if b == nil || *b == "" {
		return nil
	}
	return *b
}

func (r *ProductRepo) getOne(ctx context.Context, op, query string, args ...any) (*entity.Product, error) {
	p, err := scanProduct(r.q.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return p, nil
}

func (r *ProductRepo) getMany(ctx context.Context, op, query string, args ...any) ([]*entity.Product, error) {
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()
	list := make([]*entity.Product, 0)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		list = append(list, p)
	}
	return list, rows.Err()
}

func (r *ProductRepo) Create(ctx context.Context, product *entity.Product) error {
	now := time.Now().UTC()
	cents, err := toCents(product.Cost, product.Price)
	if err != nil {
		return err
	}
	res, err := r.q.ExecContext(ctx, `
		INSERT INTO products (name, category, barcode, cost_cents, price_cents, stock, min_stock, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		product.Name, product.Category, nullableBarcode(product.Barcode), cents[0], cents[1],
		product.Stock, product.MinStock, toUnix(now), toUnix(now),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		if isCheckViolation(err) {
			return fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
		}
		return fmt.Errorf("insert product: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("insert product: %w", err)
	}
	product.ID = id
	product.CreatedAt = fromUnix(toUnix(now))
	product.UpdatedAt = product.CreatedAt
	return nil
}

func (r *ProductRepo) GetByID(ctx context.Context, id int64) (*entity.Product, error) {
	return r.getOne(ctx, "get product", `SELECT `+productColumns+` FROM products WHERE id = ?`, id)
}

// GetForUpdate con BEGIN IMMEDIATE la tx ya tiene el lock de escritura de toda la base.
func (r *ProductRepo) GetForUpdate(ctx context.Context, id int64) (*entity.Product, error) {
	return r.GetByID(ctx, id)
}

func (r *ProductRepo) GetByBarcode(ctx context.Context, barcode string) (*entity.Product, error) {
	return r.getOne(ctx, "get product by barcode", `SELECT `+productColumns+` FROM products WHERE barcode = ?`, barcode)
}

func (r *ProductRepo) Update(ctx context.Context, product *entity.Product) error {
	now := time.Now().UTC()
	cents, err := toCents(product.Cost, product.Price)
	if err != nil {
		return err
	}
	res, err := r.q.ExecContext(ctx, `
		UPDATE products
		SET name = ?, category = ?, barcode = ?, cost_cents = ?, price_cents = ?, stock = ?, min_stock = ?, updated_at = ?
		WHERE id = ?`,
		product.Name, product.Category, nullableBarcode(product.Barcode), cents[0], cents[1],
		product.Stock, product.MinStock, toUnix(now), product.ID,
	)
	if err != nil {
		switch {
		case isUniqueViolation(err):
			return domain.ErrDuplicate
		case isCheckViolation(err):
			return fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
		}
		return fmt.Errorf("update product: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}
	cur, err := r.GetByID(ctx, product.ID)
	if err != nil {
		return err
	}
	product.CreatedAt = cur.CreatedAt
	product.UpdatedAt = cur.UpdatedAt
	return nil
}

func (r *ProductRepo) DecrementStock(ctx context.Context, id int64, amount int) error {
	if amount <= 0 {
		return fmt.Errorf("%w: amount debe ser positivo (%d)", domain.ErrInvalidInput, amount)
	}
	res, err := r.q.ExecContext(ctx,
		`UPDATE products SET stock = stock - ?, updated_at = ? WHERE id = ? AND stock >= ?`,
		amount, toUnix(time.Now()), id, amount,
	)
	if err != nil {
		return fmt.Errorf("decrement stock: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 1 {
		return nil
	}
	var exists int
	if err := r.q.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM products WHERE id = ?)`, id).Scan(&exists); err != nil {
		return fmt.Errorf("decrement stock: %w", err)
	}
	if exists == 0 {
		return domain.ErrNotFound
	}
	return domain.ErrInsufficientStock
}

func (r *ProductRepo) List(ctx context.Context, limit, offset int) ([]*entity.Product, error) {
	return r.getMany(ctx, "list products",
		`SELECT `+productColumns+` FROM products ORDER BY id LIMIT ? OFFSET ?`, limit, offset)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func (r *ProductRepo) Search(ctx context.Context, term string, limit int) ([]*entity.Product, error) {
	pattern := "%" + likeEscaper.Replace(strings.TrimSpace(term)) + "%"
	return r.getMany(ctx, "search products",
		`SELECT `+productColumns+` FROM products
		 WHERE name LIKE ?1 ESCAPE '\' OR category LIKE ?1 ESCAPE '\' OR barcode LIKE ?1 ESCAPE '\'
		 ORDER BY id LIMIT ?2`, pattern, limit)
}

func (r *ProductRepo) ListLowStock(ctx context.Context, limit int) ([]*entity.Product, error) {
	return r.getMany(ctx, "list low stock",
		`SELECT `+productColumns+` FROM products WHERE stock <= min_stock ORDER BY stock, id LIMIT ?`, limit)
}

func (r *ProductRepo) Delete(ctx context.Context, id int64) error {
	res, err := r.q.ExecContext(ctx, `DELETE FROM products WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}
	return nil
}
