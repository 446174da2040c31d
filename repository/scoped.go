// Package repository holds the owner-scoped persistence used by every
// user-owned collection. The owner filter is always part of the lookup, so a
// record owned by someone else is indistinguishable from a missing one.
package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"trading-journal/apperr"
	"trading-journal/database"
	"trading-journal/models"
)

// Record constrains PT to a pointer to a user-owned model.
type Record[T any] interface {
	*T
	models.Owned
}

type Scoped[T any, PT Record[T]] struct {
	DB *gorm.DB

	// Order is the default list ordering.
	Order string

	// With decorates read queries, e.g. to preload children.
	With func(q *gorm.DB) *gorm.DB

	// BeforeSave runs inside the write transaction once id and owner are
	// fixed. prior is nil on create and holds the stored row on update.
	BeforeSave func(tx *gorm.DB, item PT, prior PT) error

	// BeforeDelete runs inside the delete transaction before the row goes.
	BeforeDelete func(tx *gorm.DB, item PT) error

	// Unique names the payload field reported when the store rejects a
	// write as a duplicate.
	Unique string
}

func (r *Scoped[T, PT]) scope(tx *gorm.DB, owner uint) *gorm.DB {
	return tx.Where("owner_id = ?", owner)
}

func (r *Scoped[T, PT]) read(tx *gorm.DB, owner uint) *gorm.DB {
	q := r.scope(tx, owner)
	if r.With != nil {
		q = r.With(q)
	}
	return q
}

func (r *Scoped[T, PT]) List(ctx context.Context, owner uint) ([]T, error) {
	q := r.read(r.DB.WithContext(ctx), owner)
	if r.Order != "" {
		q = q.Order(r.Order)
	}
	items := make([]T, 0)
	if err := q.Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *Scoped[T, PT]) Get(ctx context.Context, owner uint, id uuid.UUID) (PT, error) {
	var item T
	err := r.read(r.DB.WithContext(ctx), owner).Where("id = ?", id).First(&item).Error
	if err != nil {
		var zero PT
		return zero, notFound(err)
	}
	return PT(&item), nil
}

// Create assigns a fresh id and the caller as owner, then persists the record.
func (r *Scoped[T, PT]) Create(ctx context.Context, owner uint, item PT) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		item.AssignID(models.NewID())
		item.AssignOwner(owner)
		if r.BeforeSave != nil {
			if err := r.BeforeSave(tx, item, nil); err != nil {
				return err
			}
		}
		if err := tx.Omit(clause.Associations).Create(item).Error; err != nil {
			return r.writeError("create", err)
		}
		return r.reload(tx, owner, item)
	})
}

// Update locks the caller's record, lets apply change it and saves the result.
// The id and owner of the stored row always win over whatever apply did.
func (r *Scoped[T, PT]) Update(ctx context.Context, owner uint, id uuid.UUID, apply func(PT) error) (PT, error) {
	var out PT
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		item, err := r.lock(tx, owner, id)
		if err != nil {
			return err
		}
		prior := PT(new(T))
		*prior = *item

		if err := apply(item); err != nil {
			return err
		}
		item.AssignID(prior.PrimaryKey())
		item.AssignOwner(prior.OwnedBy())

		if r.BeforeSave != nil {
			if err := r.BeforeSave(tx, item, prior); err != nil {
				return err
			}
		}
		if err := tx.Omit(clause.Associations).Save(item).Error; err != nil {
			return r.writeError("update", err)
		}
		if err := r.reload(tx, owner, item); err != nil {
			return err
		}
		out = item
		return nil
	})
	if err != nil {
		var zero PT
		return zero, err
	}
	return out, nil
}

func (r *Scoped[T, PT]) Delete(ctx context.Context, owner uint, id uuid.UUID) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		item, err := r.lock(tx, owner, id)
		if err != nil {
			return err
		}
		if r.BeforeDelete != nil {
			if err := r.BeforeDelete(tx, item); err != nil {
				return err
			}
		}
		res := r.scope(tx, owner).Delete(item)
		if res.Error != nil {
			return fmt.Errorf("delete: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return apperr.ErrNotFound
		}
		return nil
	})
}

func (r *Scoped[T, PT]) lock(tx *gorm.DB, owner uint, id uuid.UUID) (PT, error) {
	var item T
	err := database.ForUpdate(r.scope(tx, owner)).Where("id = ?", id).First(&item).Error
	if err != nil {
		var zero PT
		return zero, notFound(err)
	}
	return PT(&item), nil
}

func (r *Scoped[T, PT]) reload(tx *gorm.DB, owner uint, item PT) error {
	if r.With == nil {
		return nil
	}
	return r.read(tx, owner).Where("id = ?", item.PrimaryKey()).First(item).Error
}

func (r *Scoped[T, PT]) writeError(op string, err error) error {
	if r.Unique != "" && errors.Is(err, gorm.ErrDuplicatedKey) {
		return TranslateDuplicate(err, r.Unique)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.ErrNotFound
	}
	return err
}

// EnsureUnique rejects item when another record of the same owner already
// uses value in column. field names the offending payload field.
func EnsureUnique(tx *gorm.DB, model any, owner uint, id uuid.UUID, column string, value any, field string) error {
	var n int64
	err := tx.Model(model).
		Where("owner_id = ?", owner).
		Where(clause.Eq{Column: clause.Column{Name: column}, Value: value}).
		Where("id <> ?", id).
		Count(&n).Error
	if err != nil {
		return err
	}
	if n > 0 {
		return apperr.Invalid(field, "already exists for this user")
	}
	return nil
}

// TranslateDuplicate turns a unique-key violation from the store into a
// validation error on field.
func TranslateDuplicate(err error, field string) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return apperr.Invalid(field, "already exists for this user")
	}
	return err
}
