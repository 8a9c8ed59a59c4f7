// Package versions keeps the item/version DAG and the rich-version payload on top of a
// storage connection. Callers own the connection and its commit or abort.
package versions

import (
	"context"

	"github.com/yungbote/ground-catalog/internal/data/storage"
	"github.com/yungbote/ground-catalog/internal/domain"
	"github.com/yungbote/ground-catalog/internal/platform/logger"
)

// ItemStore maintains items, their versions, successor links and leaf sets.
type ItemStore struct {
	log *logger.Logger
}

func NewItemStore(log *logger.Logger) *ItemStore {
	if log == nil {
		log = logger.Nop()
	}
	return &ItemStore{log: log.With("store", "ItemStore")}
}

// CreateItem registers a new item. A second registration fails with already_exists.
func (s *ItemStore) CreateItem(ctx context.Context, c storage.Conn, kind domain.Kind, itemID string) error {
	const op = "versions.CreateItem"
	if !kind.Valid() {
		return domain.Errorf(domain.CodeInvalidArgument, op, "unknown kind %q", kind)
	}
	if err := c.Insert(ctx, storage.Items, storage.Row{"id": itemID, "kind": string(kind)}); err != nil {
		if domain.IsCode(err, domain.CodeAlreadyExists) {
			return domain.NewError(domain.CodeAlreadyExists, op, "item "+itemID+" already exists", err)
		}
		return err
	}
	return nil
}

// ItemKind returns the kind an item was registered with.
func (s *ItemStore) ItemKind(ctx context.Context, c storage.Conn, itemID string) (domain.Kind, error) {
	rows, err := c.Select(ctx, storage.Items, storage.Row{"id": itemID})
	if err != nil {
		return "", err
	}
	if len(rows) == 0 {
		return "", domain.Errorf(domain.CodeNotFound, "versions.ItemKind", "item %s not found", itemID)
	}
	return domain.Kind(rows[0].String("kind")), nil
}

// CheckVersion verifies, without writing, that versionID may join the item's history
// with the given explicit parents: the item exists with the given kind and every parent
// is another existing version of the same item.
func (s *ItemStore) CheckVersion(ctx context.Context, c storage.Conn, kind domain.Kind, itemID, versionID string, parentIDs []string) error {
	const op = "versions.CheckVersion"
	itemKind, err := s.ItemKind(ctx, c, itemID)
	if err != nil {
		return err
	}
	if itemKind != kind {
		return domain.Errorf(domain.CodeInvalidArgument, op, "item %s is a %s, not a %s", itemID, itemKind, kind)
	}
	for _, p := range domain.SortedIDs(parentIDs) {
		if p == versionID {
			return domain.Errorf(domain.CodeInvalidParent, op, "version %s cannot be its own parent", versionID)
		}
		owner, _, err := s.VersionItem(ctx, c, p)
		if err != nil {
			if domain.IsCode(err, domain.CodeNotFound) {
				return domain.NewError(domain.CodeNotFound, op, "parent version "+p+" not found", err)
			}
			return err
		}
		if owner != itemID {
			return domain.Errorf(domain.CodeInvalidParent, op, "parent %s belongs to %s, not %s", p, owner, itemID)
		}
	}
	return nil
}

// AddVersion links versionID into the item's history and returns its sorted parents.
//
// With explicit parents, each must be an existing version of the item; only those
// parents leave the leaf set. Without parents the version succeeds every current
// leaf, so an item with no versions gets a root. The new version always joins the
// leaf set. All checks run before the first write.
func (s *ItemStore) AddVersion(ctx context.Context, c storage.Conn, kind domain.Kind, itemID, versionID string, parentIDs []string) ([]string, error) {
	const op = "versions.AddVersion"
	if err := c.Lock(ctx, storage.Items, storage.Row{"id": itemID}); err != nil {
		return nil, err
	}
	if err := s.CheckVersion(ctx, c, kind, itemID, versionID, parentIDs); err != nil {
		return nil, err
	}

	parents := domain.SortedIDs(parentIDs)
	explicit := len(parents) > 0
	if !explicit {
		leaves, err := s.Leaves(ctx, c, itemID)
		if err != nil {
			return nil, err
		}
		parents = leaves
	}

	if err := c.Insert(ctx, storage.Versions, storage.Row{"id": versionID, "item_id": itemID, "kind": string(kind)}); err != nil {
		if domain.IsCode(err, domain.CodeAlreadyExists) {
			return nil, domain.NewError(domain.CodeAlreadyExists, op, "version "+versionID+" already exists", err)
		}
		return nil, err
	}
	for _, p := range parents {
		if err := c.Insert(ctx, storage.VersionSuccessors, storage.Row{"from_id": p, "to_id": versionID}); err != nil {
			return nil, err
		}
		// a parent that already had children is no longer a leaf; the delete is then a no-op
		if err := c.Delete(ctx, storage.ItemLeaves, storage.Row{"item_id": itemID, "version_id": p}); err != nil {
			return nil, err
		}
	}
	if err := c.Insert(ctx, storage.ItemLeaves, storage.Row{"item_id": itemID, "version_id": versionID}); err != nil {
		return nil, err
	}

	s.log.Debug("version linked", "item_id", itemID, "version_id", versionID, "parents", parents, "explicit", explicit)
	return domain.SortedIDs(parents), nil
}

// Leaves returns the item's current frontier, sorted.
func (s *ItemStore) Leaves(ctx context.Context, c storage.Conn, itemID string) ([]string, error) {
	rows, err := c.Select(ctx, storage.ItemLeaves, storage.Row{"item_id": itemID})
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, r.String("version_id"))
	}
	return domain.SortedIDs(ids), nil
}

// Parents returns the direct predecessors of a version, sorted.
func (s *ItemStore) Parents(ctx context.Context, c storage.Conn, versionID string) ([]string, error) {
	rows, err := c.Select(ctx, storage.VersionSuccessors, storage.Row{"to_id": versionID})
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, r.String("from_id"))
	}
	return domain.SortedIDs(ids), nil
}

// VersionItem resolves the item and kind a version belongs to.
func (s *ItemStore) VersionItem(ctx context.Context, c storage.Conn, versionID string) (string, domain.Kind, error) {
	rows, err := c.Select(ctx, storage.Versions, storage.Row{"id": versionID})
	if err != nil {
		return "", "", err
	}
	if len(rows) == 0 {
		return "", "", domain.Errorf(domain.CodeNotFound, "versions.VersionItem", "version %s not found", versionID)
	}
	return rows[0].String("item_id"), domain.Kind(rows[0].String("kind")), nil
}
