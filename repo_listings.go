package anticair

import (
	"context"
	"database/sql"
	"time"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Listings exposes listing persistence plus lifecycle-specific writes.
type Listings interface {
	repository.Repository[*ListingRecord]
	ListingStore

	Submit(ctx context.Context, record *ListingRecord) (*ListingRecord, error)
	SubmitTx(ctx context.Context, tx bun.IDB, record *ListingRecord) (*ListingRecord, error)
	BySeller(ctx context.Context, email string) ([]*ListingRecord, error)
	DisplayableBySeller(ctx context.Context, email string) ([]*ListingRecord, error)
	AwaitingReview(ctx context.Context) ([]*ListingRecord, error)
	Displayable(ctx context.Context) ([]*ListingRecord, error)
}

type listings struct {
	repository.Repository[*ListingRecord]
	db *bun.DB
}

var (
	_ Listings                              = (*listings)(nil)
	_ ListingStore                          = (*listings)(nil)
	_ repository.Repository[*ListingRecord] = (*listings)(nil)
)

func NewListingsRepository(db *bun.DB) Listings {
	repo := repository.NewRepository[*ListingRecord](db, repository.ModelHandlers[*ListingRecord]{
		NewRecord: func() *ListingRecord { return &ListingRecord{} },
		GetID: func(l *ListingRecord) uuid.UUID {
			if l == nil {
				return uuid.Nil
			}
			return l.ID
		},
		SetID: func(l *ListingRecord, id uuid.UUID) {
			if l != nil {
				l.ID = id
			}
		},
	})

	return &listings{
		Repository: repo,
		db:         db,
	}
}

func (a *listings) Submit(ctx context.Context, record *ListingRecord) (*ListingRecord, error) {
	return a.SubmitTx(ctx, a.db, record)
}

// SubmitTx creates a fresh record in PendingReview, regardless of the state
// the caller supplied.
func (a *listings) SubmitTx(ctx context.Context, tx bun.IDB, record *ListingRecord) (*ListingRecord, error) {
	prepareListingDefaults(record)
	record.State = StatePendingReview
	return a.Repository.CreateTx(ctx, tx, record)
}

func (a *listings) GetListing(ctx context.Context, id uuid.UUID) (*ListingRecord, error) {
	record, err := a.Repository.GetByID(ctx, id.String())
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, sentinelWithMetadata(ErrListingNotFound, map[string]any{
				"id": id.String(),
			})
		}
		return nil, err
	}
	return record.EnsureState(), nil
}

// SetLifecycle persists a state change, stamping the moderator and the note
// columns in one update. A nil note leaves the note columns untouched.
func (a *listings) SetLifecycle(ctx context.Context, id uuid.UUID, state LifecycleState, note *ReviewNote, moderatorEmail string) error {
	now := time.Now()
	record := &ListingRecord{
		ID:             id,
		State:          state,
		ModeratorEmail: moderatorEmail,
		UpdatedAt:      &now,
	}

	columns := []string{"state", "moderator_email", "updated_at"}
	if note != nil {
		record.ApplyNote(*note)
		columns = append(columns, "note_title", "note_description", "note_price", "note_photo")
	}

	res, err := a.db.NewUpdate().
		Model(record).
		Column(columns...).
		WherePK().
		Where("?TableAlias.deleted_at IS NULL").
		Exec(ctx)
	if err != nil {
		return err
	}
	return a.ensureUpdated(res, id)
}

func (a *listings) SetDisplayable(ctx context.Context, id uuid.UUID, displayable bool) error {
	now := time.Now()
	record := &ListingRecord{
		ID:          id,
		Displayable: displayable,
		UpdatedAt:   &now,
	}

	res, err := a.db.NewUpdate().
		Model(record).
		Column("displayable", "updated_at").
		WherePK().
		Where("?TableAlias.deleted_at IS NULL").
		Exec(ctx)
	if err != nil {
		return err
	}
	return a.ensureUpdated(res, id)
}

func (a *listings) ensureUpdated(res sql.Result, id uuid.UUID) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return sentinelWithMetadata(ErrListingNotFound, map[string]any{
			"id": id.String(),
		})
	}
	return nil
}

// BySeller returns every listing the seller owns regardless of state. It
// backs the owner's own view; the public seller page uses
// DisplayableBySeller.
func (a *listings) BySeller(ctx context.Context, email string) ([]*ListingRecord, error) {
	return a.list(ctx, func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("?TableAlias.seller_email = ?", email)
	})
}

// DisplayableBySeller returns the seller's approved listings that are not
// hidden.
func (a *listings) DisplayableBySeller(ctx context.Context, email string) ([]*ListingRecord, error) {
	return a.list(ctx, func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.
			Where("?TableAlias.seller_email = ?", email).
			Where("?TableAlias.state = ?", StateListed).
			Where("?TableAlias.displayable = ?", true)
	})
}

func (a *listings) AwaitingReview(ctx context.Context) ([]*ListingRecord, error) {
	return a.list(ctx, func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("?TableAlias.state = ?", StatePendingReview)
	})
}

// Displayable returns approved listings the seller has not hidden.
func (a *listings) Displayable(ctx context.Context) ([]*ListingRecord, error) {
	return a.list(ctx, func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.
			Where("?TableAlias.state = ?", StateListed).
			Where("?TableAlias.displayable = ?", true)
	})
}

func (a *listings) list(ctx context.Context, apply func(*bun.SelectQuery) *bun.SelectQuery) ([]*ListingRecord, error) {
	records := []*ListingRecord{}
	q := a.db.NewSelect().Model(&records)
	q = apply(q)

	err := q.
		Order("created_at DESC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	for _, record := range records {
		record.EnsureState()
	}
	return records, nil
}

func prepareListingDefaults(record *ListingRecord) {
	if record == nil {
		return
	}

	record.EnsureState()

	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
}
