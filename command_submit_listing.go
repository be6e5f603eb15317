package anticair

import (
	"context"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/uptrace/bun"
)

type SubmitListingMessage struct {
	SellerEmail string  `json:"seller_email"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	UseHashid   bool
}

func (e SubmitListingMessage) Type() string { return "listing.submit" }

func (e SubmitListingMessage) Validate() error {
	return validation.ValidateStruct(&e,
		validation.Field(&e.SellerEmail, validation.Required),
		validation.Field(&e.Title, validation.Required),
		validation.Field(&e.Price, validation.Required, validation.Min(0.0)),
	)
}

type SubmitListingHandler struct {
	repo   RepositoryManager
	logger Logger
	sink   ActivitySink
}

func NewSubmitListingHandler(repo RepositoryManager) *SubmitListingHandler {
	return &SubmitListingHandler{
		repo:   repo,
		logger: defLogger{},
		sink:   noopActivitySink{},
	}
}

func (h *SubmitListingHandler) WithLogger(logger Logger) *SubmitListingHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *SubmitListingHandler) WithActivitySink(sink ActivitySink) *SubmitListingHandler {
	h.sink = normalizeActivitySink(sink)
	return h
}

func (h *SubmitListingHandler) Execute(ctx context.Context, event SubmitListingMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during listing submission",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *SubmitListingHandler) execute(ctx context.Context, event SubmitListingMessage) error {
	if err := event.Validate(); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryValidation, "invalid listing submission")
	}

	listing := &ListingRecord{}
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	err := h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		listing.SellerEmail = event.SellerEmail
		listing.Title = event.Title
		listing.Description = event.Description
		listing.Price = event.Price
		if event.UseHashid {
			if id, err := hashid.NewUUID(event.SellerEmail + ":" + event.Title); err == nil {
				listing.ID = id
			}
		}

		var err error
		if listing, err = h.repo.Listings().SubmitTx(ctx, tx, listing); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryConflict, "could not create listing")
		}

		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}

		return goerrors.Wrap(err, goerrors.CategoryInternal, "listing submission transaction failed")
	}

	if err := normalizeActivitySink(h.sink).Record(ctx, ActivityEvent{
		EventType:  ActivityEventListingSubmitted,
		Actor:      ActorRef{ID: event.SellerEmail, Type: "user"},
		Email:      event.SellerEmail,
		ListingID:  listing.ID.String(),
		ToState:    StatePendingReview,
		OccurredAt: time.Now(),
	}); err != nil {
		h.logger.Warn("activity sink record error: %v", err)
	}

	return nil
}
