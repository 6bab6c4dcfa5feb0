package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/momah-portal/embedgen/domain/repository"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrNotFound indicates the requested entity was not found.
var ErrNotFound = errors.New("entity not found")

// EntityMapper defines the interface for mapping between domain and database model types.
type EntityMapper[D any, E any] interface {
	ToDomain(entity E) D
	ToModel(domain D) E
}

// Repository provides generic persistence operations for database entities
// using repository.Option-based queries.
type Repository[D any, E any] struct {
	db        Database
	mapper    EntityMapper[D, E]
	label     string
	tableName string
}

// NewRepositoryForTable creates a Repository that targets a specific table name.
// GORM caches schemas by type, so dynamic TableName() methods on entities do
// not work when the same struct maps to multiple tables. This constructor sets
// a tableName that is applied via .Table() after .Model() in every operation,
// which GORM respects because TableExpr prevents Parse() from overriding
// Statement.Table.
func NewRepositoryForTable[D any, E any](db Database, mapper EntityMapper[D, E], label string, tableName string) Repository[D, E] {
	return Repository[D, E]{
		db:        db,
		mapper:    mapper,
		label:     label,
		tableName: tableName,
	}
}

// modelDB returns a GORM session scoped to the entity model and optional table.
// See sessionDB for why the trailing Session call is needed.
func (r Repository[D, E]) modelDB(ctx context.Context) *gorm.DB {
	db := r.db.Session(ctx).Model(new(E))
	if r.tableName != "" {
		db = db.Table(r.tableName).Session(&gorm.Session{})
	}
	return db
}

// sessionDB returns a GORM session scoped to the optional table (no Model).
// The trailing Session call resets the GORM clone counter so that callers
// get a fresh chainable session (without it, .Table() consumes the clone
// and subsequent chain methods mutate the session in place).
func (r Repository[D, E]) sessionDB(ctx context.Context) *gorm.DB {
	db := r.db.Session(ctx)
	if r.tableName != "" {
		db = db.Table(r.tableName).Session(&gorm.Session{})
	}
	return db
}

// Find retrieves entities matching the given options.
func (r Repository[D, E]) Find(ctx context.Context, options ...repository.Option) ([]D, error) {
	var entities []E
	db := ApplyOptions(r.modelDB(ctx), options...)
	result := db.Find(&entities)
	if result.Error != nil {
		return nil, fmt.Errorf("find %s: %w", r.label, result.Error)
	}

	domains := make([]D, len(entities))
	for i, entity := range entities {
		domains[i] = r.mapper.ToDomain(entity)
	}
	return domains, nil
}

// FindOne retrieves a single entity matching the given options.
func (r Repository[D, E]) FindOne(ctx context.Context, options ...repository.Option) (D, error) {
	var entity E
	db := ApplyOptions(r.sessionDB(ctx), options...)
	result := db.First(&entity)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			var zero D
			return zero, fmt.Errorf("%w: %s", ErrNotFound, r.label)
		}
		var zero D
		return zero, fmt.Errorf("find one %s: %w", r.label, result.Error)
	}
	return r.mapper.ToDomain(entity), nil
}

// Save inserts an entity, or overwrites every non-key column of the row
// with the same primary key. Auto-create timestamps are preserved.
func (r Repository[D, E]) Save(ctx context.Context, domain D) (D, error) {
	model := r.mapper.ToModel(domain)
	if err := r.sessionDB(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(&model).Error; err != nil {
		var zero D
		return zero, fmt.Errorf("save %s: %w", r.label, err)
	}
	return r.mapper.ToDomain(model), nil
}

// SaveAll saves every entity in a single transaction. Either all rows are
// written or none are. Rows matching existing are counted before the write
// and that count is returned, so callers can tell how many rows were
// overwritten rather than inserted.
func (r Repository[D, E]) SaveAll(ctx context.Context, domains []D, existing ...repository.Option) (int64, error) {
	return WithTransactionResult(ctx, r.db, func(tx *gorm.DB) (int64, error) {
		var replaced int64
		if len(existing) > 0 {
			counter := tx.Model(new(E))
			if r.tableName != "" {
				counter = counter.Table(r.tableName)
			}
			if err := ApplyConditions(counter, existing...).Count(&replaced).Error; err != nil {
				return 0, fmt.Errorf("count existing %s: %w", r.label, err)
			}
		}

		if r.tableName != "" {
			tx = tx.Table(r.tableName).Session(&gorm.Session{})
		}

		for i, d := range domains {
			model := r.mapper.ToModel(d)
			if err := tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(&model).Error; err != nil {
				return 0, fmt.Errorf("save %s %d: %w", r.label, i, err)
			}
		}
		return replaced, nil
	})
}

// UpdateColumns sets the given columns on every row matching the options
// and returns the number of rows affected. Columns not named are untouched.
func (r Repository[D, E]) UpdateColumns(ctx context.Context, values map[string]any, options ...repository.Option) (int64, error) {
	db := ApplyConditions(r.modelDB(ctx), options...)
	result := db.UpdateColumns(values)
	if result.Error != nil {
		return 0, fmt.Errorf("update %s: %w", r.label, result.Error)
	}
	return result.RowsAffected, nil
}

// Count returns the number of entities matching the given options.
func (r Repository[D, E]) Count(ctx context.Context, options ...repository.Option) (int64, error) {
	var count int64
	db := ApplyConditions(r.modelDB(ctx), options...)
	if result := db.Count(&count); result.Error != nil {
		return 0, fmt.Errorf("count %s: %w", r.label, result.Error)
	}
	return count, nil
}
