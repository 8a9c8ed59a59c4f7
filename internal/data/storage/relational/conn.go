package relational

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yungbote/ground-catalog/internal/data/storage"
	"github.com/yungbote/ground-catalog/internal/domain"
	"github.com/yungbote/ground-catalog/internal/platform/logger"
)

type conn struct {
	tx     *gorm.DB
	driver string
	log    *logger.Logger
	done   bool
}

func (c *conn) Insert(ctx context.Context, table *storage.Table, row storage.Row) error {
	const op = "relational.Insert"
	if err := c.usable(op); err != nil {
		return err
	}
	if err := table.CheckInsert(row); err != nil {
		return err
	}
	values := make(map[string]any, len(table.Columns))
	for _, col := range table.Columns {
		values[col] = nullable(row.StringPtr(col))
	}
	if err := c.tx.WithContext(ctx).Table(table.Name).Create(values).Error; err != nil {
		return mapError(op, table, err)
	}
	return nil
}

func (c *conn) Select(ctx context.Context, table *storage.Table, where storage.Row) ([]storage.Row, error) {
	const op = "relational.Select"
	if err := c.usable(op); err != nil {
		return nil, err
	}
	if err := table.CheckWhere(where); err != nil {
		return nil, err
	}
	var raw []map[string]any
	q := c.scoped(ctx, table, where).Order(keyOrder(table))
	if err := q.Find(&raw).Error; err != nil {
		return nil, mapError(op, table, err)
	}
	out := make([]storage.Row, 0, len(raw))
	for _, r := range raw {
		out = append(out, storage.Project(table, r))
	}
	return out, nil
}

func (c *conn) Delete(ctx context.Context, table *storage.Table, where storage.Row) error {
	const op = "relational.Delete"
	if err := c.usable(op); err != nil {
		return err
	}
	if err := table.CheckWhere(where); err != nil {
		return err
	}
	if len(where) == 0 {
		return domain.Errorf(domain.CodeInvalidArgument, op, "refusing unconditional delete on %s", table.Name)
	}
	if err := c.scoped(ctx, table, where).Delete(nil).Error; err != nil {
		return mapError(op, table, err)
	}
	return nil
}

func (c *conn) Lock(ctx context.Context, table *storage.Table, key storage.Row) error {
	const op = "relational.Lock"
	if err := c.usable(op); err != nil {
		return err
	}
	if c.driver != DriverPostgres {
		// SQLite runs one transaction at a time on its single connection
		return nil
	}
	if err := table.CheckWhere(key); err != nil {
		return err
	}
	var locked []map[string]any
	q := c.scoped(ctx, table, key).
		Select(table.Key[0]).
		Clauses(clause.Locking{Strength: "UPDATE"})
	if err := q.Find(&locked).Error; err != nil {
		return mapError(op, table, err)
	}
	return nil
}

// Reachable walks every link table with a recursive fixpoint query.
func (c *conn) Reachable(ctx context.Context, versionID string) ([]string, error) {
	const op = "relational.Reachable"
	if err := c.usable(op); err != nil {
		return nil, err
	}
	var ids []string
	if err := c.tx.WithContext(ctx).Raw(reachableQuery(), versionID).Scan(&ids).Error; err != nil {
		return nil, mapError(op, nil, err)
	}
	return ids, nil
}

func (c *conn) Commit(ctx context.Context) error {
	if err := c.usable("relational.Commit"); err != nil {
		return err
	}
	c.done = true
	if err := c.tx.Commit().Error; err != nil {
		return mapError("relational.Commit", nil, err)
	}
	return nil
}

func (c *conn) Abort(ctx context.Context) error {
	if err := c.usable("relational.Abort"); err != nil {
		return err
	}
	c.done = true
	if err := c.tx.Rollback().Error; err != nil {
		return mapError("relational.Abort", nil, err)
	}
	return nil
}

func (c *conn) usable(op string) error {
	if c.done {
		return domain.Errorf(domain.CodeBackendFailure, op, "connection already committed or aborted")
	}
	return nil
}

func reachableQuery() string {
	links := storage.LinkTables()
	parts := make([]string, 0, len(links))
	for _, t := range links {
		parts = append(parts, fmt.Sprintf("SELECT %s AS from_id, %s AS to_id FROM %s", t.Link.From, t.Link.To, t.Name))
	}
	return `WITH RECURSIVE reachable(id) AS (
	SELECT CAST(? AS TEXT)
	UNION
	SELECT l.to_id FROM (` + strings.Join(parts, " UNION ALL ") + `) l
	JOIN reachable r ON l.from_id = r.id
)
SELECT id FROM reachable ORDER BY id`
}

// scoped starts a statement on table filtered by equality on every where column.
func (c *conn) scoped(ctx context.Context, table *storage.Table, where storage.Row) *gorm.DB {
	q := c.tx.WithContext(ctx).Table(table.Name)
	if len(where) == 0 {
		return q
	}
	cond := make(map[string]any, len(where))
	for col := range where {
		// nil becomes IS NULL
		cond[col] = nullable(where.StringPtr(col))
	}
	return q.Where(cond)
}

func keyOrder(table *storage.Table) clause.OrderBy {
	cols := make([]clause.OrderByColumn, 0, len(table.Key))
	for _, k := range table.Key {
		cols = append(cols, clause.OrderByColumn{Column: clause.Column{Name: k}})
	}
	return clause.OrderBy{Columns: cols}
}

func nullable(v *string) any {
	if v == nil {
		return nil
	}
	return *v
}
