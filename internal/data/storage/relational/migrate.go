package relational

import (
	"context"
	"fmt"

	"github.com/yungbote/ground-catalog/internal/data/storage"
)

// Migrate creates every catalog table and the indexes reachability walks over.
func (b *Backend) Migrate(ctx context.Context) error {
	db := b.db.WithContext(ctx)
	for _, t := range storage.Tables {
		rec := recordFor(t)
		if rec == nil {
			return fmt.Errorf("migrate %s: no record declared", t.Name)
		}
		if err := db.Table(t.Name).AutoMigrate(rec); err != nil {
			return fmt.Errorf("migrate %s: %w", t.Name, err)
		}
	}
	b.log.Info("relational schema ready", "tables", len(storage.Tables))
	return nil
}
