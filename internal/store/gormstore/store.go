// Package gormstore implements store.Store on Postgres through gorm.
package gormstore

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/fx"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/fatflowers/giveledger/internal/store"
)

type Store struct {
	db *gorm.DB
}

var _ store.Store = (*Store)(nil)

func New(db *gorm.DB) *Store { return &Store{db: db} }

var Module = fx.Options(
	fx.Provide(fx.Annotate(New, fx.As(new(store.Store)))),
)

// DB exposes the underlying handle for raw reporting queries.
func (s *Store) DB() *gorm.DB { return s.db }

func (s *Store) RunInTx(ctx context.Context, fn func(tx store.Store) error) error {
	return translate(s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Store{db: tx})
	}))
}

// translate maps gorm errors onto the store sentinels, leaving everything
// else untouched so caller sentinels survive a rollback.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, store.ErrNotFound), errors.Is(err, store.ErrDuplicate):
		return err
	case errors.Is(err, gorm.ErrRecordNotFound):
		return fmt.Errorf("%w: %v", store.ErrNotFound, err)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%w: %v", store.ErrDuplicate, err)
	}
	return err
}

func first[T any](ctx context.Context, db *gorm.DB, query string, args ...any) (*T, error) {
	var rec T
	if err := db.WithContext(ctx).Where(query, args...).First(&rec).Error; err != nil {
		return nil, translate(err)
	}
	return &rec, nil
}

// update locks the row with SELECT ... FOR UPDATE, applies fn and saves it.
// Inside RunInTx the nested Transaction becomes a savepoint.
func update[T any](ctx context.Context, db *gorm.DB, id string, fn func(*T) error) (*T, error) {
	var out *T
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var rec T
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", id).First(&rec).Error; err != nil {
			return err
		}
		if err := fn(&rec); err != nil {
			if errors.Is(err, store.ErrNoChange) {
				out = &rec
				return nil
			}
			return err
		}
		if err := tx.Save(&rec).Error; err != nil {
			return err
		}
		out = &rec
		return nil
	})
	if err != nil {
		return nil, translate(err)
	}
	return out, nil
}

// insertIgnore inserts value unless it conflicts with a unique key. It
// reports whether a row was written. ON CONFLICT DO NOTHING keeps an
// enclosing transaction usable, unlike a failed plain INSERT.
func insertIgnore(ctx context.Context, db *gorm.DB, value any) (bool, error) {
	res := db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(value)
	if res.Error != nil {
		return false, translate(res.Error)
	}
	return res.RowsAffected > 0, nil
}
