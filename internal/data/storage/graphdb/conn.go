package graphdb

import (
	"context"
	"fmt"
	"strings"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/yungbote/ground-catalog/internal/data/storage"
	"github.com/yungbote/ground-catalog/internal/domain"
	"github.com/yungbote/ground-catalog/internal/platform/logger"
)

const (
	propRowKey  = "row_key"
	keySep      = "\x1f"
	versionNode = "Version"
)

type conn struct {
	session neo4j.SessionWithContext
	tx      neo4j.ExplicitTransaction
	log     *logger.Logger
	done    bool
}

func (c *conn) Insert(ctx context.Context, table *storage.Table, row storage.Row) error {
	const op = "graphdb.Insert"
	if err := c.usable(op); err != nil {
		return err
	}
	if err := table.CheckInsert(row); err != nil {
		return err
	}
	key := rowKey(table, row)

	existing, err := c.collect(ctx,
		fmt.Sprintf("MATCH (n:%s {%s: $key}) RETURN count(n) AS n", table.Label, propRowKey),
		map[string]any{"key": key})
	if err != nil {
		return mapError(op, table, err)
	}
	if len(existing) == 1 {
		if v, _ := existing[0].Get("n"); v != nil {
			if n, ok := v.(int64); ok && n > 0 {
				return domain.Errorf(domain.CodeAlreadyExists, op, "duplicate key in %s", table.Name)
			}
		}
	}

	props := map[string]any{propRowKey: key}
	for _, col := range table.Columns {
		if p := row.StringPtr(col); p != nil {
			props[col] = *p
		}
	}
	if _, err := c.collect(ctx, fmt.Sprintf("CREATE (n:%s) SET n = $props", table.Label),
		map[string]any{"props": props}); err != nil {
		return mapError(op, table, err)
	}

	if table.Link != nil {
		q := fmt.Sprintf(`MATCH (a:%s {id: $from}), (b:%s {id: $to})
MERGE (a)-[:%s]->(b)`, versionNode, versionNode, table.Link.Relation)
		params := map[string]any{"from": row.String(table.Link.From), "to": row.String(table.Link.To)}
		if _, err := c.collect(ctx, q, params); err != nil {
			return mapError(op, table, err)
		}
	}
	return nil
}

func (c *conn) Select(ctx context.Context, table *storage.Table, where storage.Row) ([]storage.Row, error) {
	const op = "graphdb.Select"
	if err := c.usable(op); err != nil {
		return nil, err
	}
	if err := table.CheckWhere(where); err != nil {
		return nil, err
	}
	cond, params := whereCypher(table, where)
	order := make([]string, 0, len(table.Key))
	for _, k := range table.Key {
		order = append(order, "n."+k)
	}
	q := fmt.Sprintf("MATCH (n:%s)%s RETURN n ORDER BY %s", table.Label, cond, strings.Join(order, ", "))

	records, err := c.collect(ctx, q, params)
	if err != nil {
		return nil, mapError(op, table, err)
	}
	out := make([]storage.Row, 0, len(records))
	for _, rec := range records {
		raw, ok := rec.Get("n")
		if !ok {
			continue
		}
		node, ok := raw.(neo4j.Node)
		if !ok {
			return nil, domain.Errorf(domain.CodeBackendFailure, op, "unexpected record type %T", raw)
		}
		out = append(out, storage.Project(table, node.Props))
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out, nil
}

func (c *conn) Delete(ctx context.Context, table *storage.Table, where storage.Row) error {
	const op = "graphdb.Delete"
	if err := c.usable(op); err != nil {
		return err
	}
	if err := table.CheckWhere(where); err != nil {
		return err
	}
	if len(where) == 0 {
		return domain.Errorf(domain.CodeInvalidArgument, op, "refusing unconditional delete on %s", table.Name)
	}

	if table.Link != nil {
		rows, err := c.Select(ctx, table, where)
		if err != nil {
			return err
		}
		q := fmt.Sprintf("MATCH (:%s {id: $from})-[r:%s]->(:%s {id: $to}) DELETE r",
			versionNode, table.Link.Relation, versionNode)
		for _, row := range rows {
			params := map[string]any{"from": row.String(table.Link.From), "to": row.String(table.Link.To)}
			if _, err := c.collect(ctx, q, params); err != nil {
				return mapError(op, table, err)
			}
		}
	}

	cond, params := whereCypher(table, where)
	if _, err := c.collect(ctx, fmt.Sprintf("MATCH (n:%s)%s DETACH DELETE n", table.Label, cond), params); err != nil {
		return mapError(op, table, err)
	}
	return nil
}

// Lock takes the vertex write lock by touching a counter property.
func (c *conn) Lock(ctx context.Context, table *storage.Table, key storage.Row) error {
	const op = "graphdb.Lock"
	if err := c.usable(op); err != nil {
		return err
	}
	if err := table.CheckWhere(key); err != nil {
		return err
	}
	q := fmt.Sprintf("MATCH (n:%s {%s: $key}) SET n.lock_seq = coalesce(n.lock_seq, 0) + 1", table.Label, propRowKey)
	if _, err := c.collect(ctx, q, map[string]any{"key": rowKey(table, key)}); err != nil {
		return mapError(op, table, err)
	}
	return nil
}

func (c *conn) Reachable(ctx context.Context, versionID string) ([]string, error) {
	const op = "graphdb.Reachable"
	if err := c.usable(op); err != nil {
		return nil, err
	}
	records, err := c.collect(ctx, reachableCypher(), map[string]any{"id": versionID})
	if err != nil {
		return nil, mapError(op, nil, err)
	}
	if len(records) == 0 {
		return []string{versionID}, nil
	}
	ids := make([]string, 0, len(records))
	for _, rec := range records {
		v, _ := rec.Get("id")
		if s, ok := v.(string); ok {
			ids = append(ids, s)
		}
	}
	return ids, nil
}

func (c *conn) Commit(ctx context.Context) error {
	const op = "graphdb.Commit"
	if err := c.usable(op); err != nil {
		return err
	}
	c.done = true
	defer c.session.Close(ctx)
	if err := c.tx.Commit(ctx); err != nil {
		return mapError(op, nil, err)
	}
	return nil
}

func (c *conn) Abort(ctx context.Context) error {
	const op = "graphdb.Abort"
	if err := c.usable(op); err != nil {
		return err
	}
	c.done = true
	defer c.session.Close(ctx)
	if err := c.tx.Rollback(ctx); err != nil {
		return mapError(op, nil, err)
	}
	return nil
}

func (c *conn) usable(op string) error {
	if c.done {
		return domain.Errorf(domain.CodeBackendFailure, op, "connection already committed or aborted")
	}
	return nil
}

func (c *conn) collect(ctx context.Context, cypher string, params map[string]any) ([]*neo4j.Record, error) {
	res, err := c.tx.Run(ctx, cypher, params)
	if err != nil {
		return nil, err
	}
	return res.Collect(ctx)
}

func rowKey(table *storage.Table, row storage.Row) string {
	parts := make([]string, 0, len(table.Key))
	for _, k := range table.Key {
		parts = append(parts, row.String(k))
	}
	return strings.Join(parts, keySep)
}

// whereCypher renders equality predicates in column order; nil values become IS NULL.
func whereCypher(table *storage.Table, where storage.Row) (string, map[string]any) {
	params := map[string]any{}
	if len(where) == 0 {
		return "", params
	}
	conds := make([]string, 0, len(where))
	for i, col := range table.Columns {
		if _, ok := where[col]; !ok {
			continue
		}
		v := where.StringPtr(col)
		if v == nil {
			conds = append(conds, "n."+col+" IS NULL")
			continue
		}
		name := fmt.Sprintf("p%d", i)
		conds = append(conds, "n."+col+" = $"+name)
		params[name] = *v
	}
	return " WHERE " + strings.Join(conds, " AND "), params
}

func reachableCypher() string {
	links := storage.LinkTables()
	rels := make([]string, 0, len(links))
	for _, t := range links {
		rels = append(rels, t.Link.Relation)
	}
	return fmt.Sprintf(`MATCH (s:%s {id: $id})-[:%s*0..]->(v:%s)
RETURN DISTINCT v.id AS id ORDER BY id`, versionNode, strings.Join(rels, "|"), versionNode)
}
