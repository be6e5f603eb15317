package anticair

import (
	"errors"
	"net/http"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-router"
	"github.com/google/uuid"
)

// RouteRegistrar captures the router methods used by the controller.
type RouteRegistrar interface {
	Get(path string, handler router.HandlerFunc, mw ...router.MiddlewareFunc) router.RouteInfo
	Post(path string, handler router.HandlerFunc, mw ...router.MiddlewareFunc) router.RouteInfo
}

// HTTPController exposes sessions and the listing lifecycle over JSON routes.
type HTTPController struct {
	sessions   *SessionManager
	moderation *Moderation
	guard      *RouteGuard
	repo       RepositoryManager
	logger     Logger
}

func NewHTTPController(sessions *SessionManager, moderation *Moderation, guard *RouteGuard, repo RepositoryManager) *HTTPController {
	return &HTTPController{
		sessions:   sessions,
		moderation: moderation,
		guard:      guard,
		repo:       repo,
		logger:     defLogger{},
	}
}

func (c *HTTPController) WithLogger(logger Logger) *HTTPController {
	if logger != nil {
		c.logger = logger
	}
	return c
}

// RegisterRoutes wires session and listing routes, guards included.
func (c *HTTPController) RegisterRoutes(group RouteRegistrar) {
	group.Get("/session", c.SessionShow)
	group.Post("/session/login", c.Login)
	group.Post("/session/logout", c.Logout)

	group.Get("/listings", c.ListDisplayable)
	group.Get("/listings/seller/:email", c.ListSellerShop)
	group.Get("/listings/mine", c.ListMine, c.guard.RequireAuthenticated())
	group.Get("/listings/review", c.ListAwaitingReview, c.guard.RequireRole(RoleAntiquarian))
	group.Post("/listings", c.SubmitListing, c.guard.RequireAuthenticated())
	group.Post("/listings/:id/accept", c.AcceptListing, c.guard.RequireRole(RoleAntiquarian))
	group.Post("/listings/:id/reject", c.RejectListing, c.guard.RequireRole(RoleAntiquarian))
	group.Post("/listings/:id/purchase", c.PurchaseListing, c.guard.RequireAuthenticated())
	group.Post("/listings/:id/display", c.ToggleListingDisplay, c.guard.RequireListingOwner("id"))
}

// SessionShow returns the current session snapshot.
func (c *HTTPController) SessionShow(ctx router.Context) error {
	snap := c.sessions.Snapshot()
	payload := map[string]any{
		"phase":     snap.Phase,
		"logged_in": snap.LoggedIn,
	}
	if snap.Profile != nil {
		payload["profile"] = snap.Profile
	}
	return ctx.JSON(router.StatusOK, payload)
}

// Login runs initialization and the interactive login flow.
func (c *HTTPController) Login(ctx router.Context) error {
	if err := c.sessions.Login(ctx.Context()); err != nil {
		return c.handleError(ctx, err)
	}
	return c.SessionShow(ctx)
}

// Logout clears the session. Logging out without a session is a no-op for
// the client.
func (c *HTTPController) Logout(ctx router.Context) error {
	if err := c.sessions.Logout(ctx.Context()); err != nil {
		if errors.Is(err, ErrNoActiveSession) {
			return ctx.JSON(router.StatusOK, map[string]string{"status": "logged_out"})
		}
		return c.handleError(ctx, err)
	}
	return ctx.JSON(router.StatusOK, map[string]string{"status": "logged_out"})
}

// ListDisplayable returns approved listings visible to everyone.
func (c *HTTPController) ListDisplayable(ctx router.Context) error {
	records, err := c.repo.Listings().Displayable(ctx.Context())
	if err != nil {
		return c.handleError(ctx, err)
	}
	return ctx.JSON(router.StatusOK, map[string]any{"listings": records})
}

// ListSellerShop returns a seller's public page: approved listings only,
// hidden ones excluded.
func (c *HTTPController) ListSellerShop(ctx router.Context) error {
	email := ctx.Param("email")
	if email == "" {
		return ctx.JSON(router.StatusBadRequest, map[string]string{
			"error": "seller email is required",
		})
	}

	records, err := c.repo.Listings().DisplayableBySeller(ctx.Context(), email)
	if err != nil {
		return c.handleError(ctx, err)
	}
	return ctx.JSON(router.StatusOK, map[string]any{"listings": records})
}

// ListMine returns the caller's own listings, whatever their state.
func (c *HTTPController) ListMine(ctx router.Context) error {
	snap, ok := RouterSession(ctx, "")
	if !ok {
		return ctx.JSON(router.StatusUnauthorized, map[string]string{
			"error": "authentication required",
		})
	}

	records, err := c.repo.Listings().BySeller(ctx.Context(), snap.Email())
	if err != nil {
		return c.handleError(ctx, err)
	}
	return ctx.JSON(router.StatusOK, map[string]any{"listings": records})
}

// ListAwaitingReview returns the moderation queue.
func (c *HTTPController) ListAwaitingReview(ctx router.Context) error {
	records, err := c.repo.Listings().AwaitingReview(ctx.Context())
	if err != nil {
		return c.handleError(ctx, err)
	}
	return ctx.JSON(router.StatusOK, map[string]any{"listings": records})
}

// SubmitListingPayload is the submission payload
type SubmitListingPayload struct {
	Title       string  `form:"title" json:"title"`
	Description string  `form:"description" json:"description"`
	Price       float64 `form:"price" json:"price"`
}

func (c *HTTPController) SubmitListing(ctx router.Context) error {
	payload := new(SubmitListingPayload)

	if err := ctx.Bind(payload); err != nil {
		c.logger.Error("submit listing parse payload: ", "error", err)
		return ctx.JSON(router.StatusBadRequest, map[string]string{
			"error": "failed to parse body",
		})
	}

	snap, ok := RouterSession(ctx, "")
	if !ok {
		return ctx.JSON(router.StatusUnauthorized, map[string]string{
			"error": "authentication required",
		})
	}

	req := SubmitListingMessage{
		SellerEmail: snap.Email(),
		Title:       payload.Title,
		Description: payload.Description,
		Price:       payload.Price,
	}

	handler := NewSubmitListingHandler(c.repo).WithLogger(c.logger)
	if err := handler.Execute(ctx.Context(), req); err != nil {
		return c.handleError(ctx, err)
	}

	return ctx.JSON(router.StatusOK, map[string]string{"status": "submitted"})
}

func (c *HTTPController) AcceptListing(ctx router.Context) error {
	id, err := c.listingID(ctx)
	if err != nil {
		return c.handleError(ctx, err)
	}

	record, err := c.moderation.Accept(ctx.Context(), id)
	if err != nil {
		return c.handleError(ctx, err)
	}
	return ctx.JSON(router.StatusOK, map[string]any{"listing": record})
}

// RejectListingPayload carries the moderator's review note.
type RejectListingPayload struct {
	NoteTitle       string `form:"note_title" json:"note_title"`
	NoteDescription string `form:"note_description" json:"note_description"`
	NotePrice       string `form:"note_price" json:"note_price"`
	NotePhoto       string `form:"note_photo" json:"note_photo"`
}

func (c *HTTPController) RejectListing(ctx router.Context) error {
	id, err := c.listingID(ctx)
	if err != nil {
		return c.handleError(ctx, err)
	}

	payload := new(RejectListingPayload)
	if err := ctx.Bind(payload); err != nil {
		c.logger.Error("reject listing parse payload: ", "error", err)
		return ctx.JSON(router.StatusBadRequest, map[string]string{
			"error": "failed to parse body",
		})
	}

	note := ReviewNote{
		Title:       payload.NoteTitle,
		Description: payload.NoteDescription,
		Price:       payload.NotePrice,
		Photo:       payload.NotePhoto,
	}

	record, err := c.moderation.Reject(ctx.Context(), id, note)
	if err != nil {
		return c.handleError(ctx, err)
	}
	return ctx.JSON(router.StatusOK, map[string]any{"listing": record})
}

func (c *HTTPController) PurchaseListing(ctx router.Context) error {
	id, err := c.listingID(ctx)
	if err != nil {
		return c.handleError(ctx, err)
	}

	record, err := c.moderation.Purchase(ctx.Context(), id)
	if err != nil {
		return c.handleError(ctx, err)
	}
	return ctx.JSON(router.StatusOK, map[string]any{"listing": record})
}

func (c *HTTPController) ToggleListingDisplay(ctx router.Context) error {
	id, err := c.listingID(ctx)
	if err != nil {
		return c.handleError(ctx, err)
	}

	record, err := c.moderation.ToggleDisplay(ctx.Context(), id)
	if err != nil {
		return c.handleError(ctx, err)
	}
	return ctx.JSON(router.StatusOK, map[string]any{"listing": record})
}

func (c *HTTPController) listingID(ctx router.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		return uuid.Nil, sentinelWithMetadata(ErrMissingListingID, map[string]any{
			"id": ctx.Param("id"),
		})
	}
	return id, nil
}

func (c *HTTPController) handleError(ctx router.Context, err error) error {
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		richErr = goerrors.Wrap(err, goerrors.CategoryInternal, "unexpected server error").
			WithCode(goerrors.CodeInternal)
	}

	status := router.StatusInternalServerError
	switch richErr.Category {
	case goerrors.CategoryAuth, goerrors.CategoryAuthz:
		status = router.StatusUnauthorized
	case goerrors.CategoryValidation, goerrors.CategoryBadInput:
		status = router.StatusBadRequest
	case goerrors.CategoryNotFound:
		status = http.StatusNotFound
	case goerrors.CategoryConflict:
		status = http.StatusConflict
	}
	if richErr.Code > 0 {
		status = richErr.Code
	}

	c.logger.Info(
		"Request error",
		"category", richErr.Category,
		"text_code", richErr.TextCode,
		"path", ctx.OriginalURL(),
	)

	return ctx.JSON(status, map[string]any{
		"error":     richErr.Message,
		"text_code": richErr.TextCode,
	})
}
