package anticair

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// ListingRecord is the listing model
type ListingRecord struct {
	bun.BaseModel   `bun:"table:listings,alias:lst"`
	ID              uuid.UUID      `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	SellerEmail     string         `bun:"seller_email,notnull" json:"seller_email,omitempty"`
	ModeratorEmail  string         `bun:"moderator_email" json:"moderator_email,omitempty"`
	Title           string         `bun:"title,notnull" json:"title,omitempty"`
	Description     string         `bun:"description" json:"description,omitempty"`
	Price           float64        `bun:"price,notnull" json:"price,omitempty"`
	State           LifecycleState `bun:"state,notnull" json:"state,omitempty"`
	Displayable     bool           `bun:"displayable" json:"displayable"`
	NoteTitle       string         `bun:"note_title" json:"note_title,omitempty"`
	NoteDescription string         `bun:"note_description" json:"note_description,omitempty"`
	NotePrice       string         `bun:"note_price" json:"note_price,omitempty"`
	NotePhoto       string         `bun:"note_photo" json:"note_photo,omitempty"`
	Metadata        map[string]any `bun:"metadata" json:"metadata,omitempty"`
	CreatedAt       *time.Time     `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt       *time.Time     `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
	DeletedAt       *time.Time     `bun:"deleted_at,soft_delete,nullzero" json:"deleted_at,omitempty"`
}

// EnsureState backfills the lifecycle state for records created before the
// state column existed. New records always start in PendingReview.
func (l *ListingRecord) EnsureState() *ListingRecord {
	if !l.State.IsValid() {
		l.State = StatePendingReview
	}
	return l
}

// ApplyNote copies the review note onto the record's note columns.
func (l *ListingRecord) ApplyNote(note ReviewNote) *ListingRecord {
	l.NoteTitle = note.Title
	l.NoteDescription = note.Description
	l.NotePrice = note.Price
	l.NotePhoto = note.Photo
	return l
}

// Note returns the record's review note columns as a ReviewNote.
func (l *ListingRecord) Note() ReviewNote {
	return ReviewNote{
		Title:       l.NoteTitle,
		Description: l.NoteDescription,
		Price:       l.NotePrice,
		Photo:       l.NotePhoto,
	}
}

// AddMetadata will append information to a metadata attribute
func (l *ListingRecord) AddMetadata(key string, val any) *ListingRecord {
	if l.Metadata == nil {
		l.Metadata = make(map[string]interface{})
	}
	l.Metadata[key] = val
	return l
}
