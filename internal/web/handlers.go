package web

import (
	"net/http"
	"strings"

	"github.com/quiphq/quip/internal/bus"
	"github.com/quiphq/quip/internal/config"
	"github.com/quiphq/quip/internal/errors"
	"github.com/quiphq/quip/internal/menu"
	"github.com/quiphq/quip/internal/store"
)

// Handlers contains HTTP route handlers for the web UI.
type Handlers struct {
	store     *store.Store
	cfg       *config.Config
	hub       *bus.Hub
	projector *menu.Projector
	renderer  *Renderer
}

// HandleList handles GET /comments — list comments with optional
// category filter and search term.
func (h *Handlers) HandleList(w http.ResponseWriter, r *http.Request) {
	category := r.URL.Query().Get("category")
	search := r.URL.Query().Get("q")

	comments, err := h.store.GetAll(r.Context(), category, search)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	categories, err := h.store.Categories(r.Context())
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	items := make([]ListItem, 0, len(comments))
	for _, c := range comments {
		items = append(items, ListItem{Comment: c, RenderedHTML: renderMarkdown(c.Text)})
	}

	h.renderer.renderPage(w, r, "list", ListPageData{
		PageData: PageData{
			Title:   "Comments",
			Version: h.renderer.version,
			Nav:     "comments",
		},
		Items:      items,
		Categories: categories,
		Category:   category,
		Search:     search,
	})
}

// HandleNewForm handles GET /comments/new — blank create form.
func (h *Handlers) HandleNewForm(w http.ResponseWriter, r *http.Request) {
	categories, err := h.store.Categories(r.Context())
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	h.renderer.renderPage(w, r, "form", FormPageData{
		PageData: PageData{
			Title:   "New Comment",
			Version: h.renderer.version,
			Nav:     "new",
		},
		Categories: categories,
	})
}

// HandleCreate handles POST /comments — create a comment from form data.
// Unlike the store, the form demands an explicit shortcode.
func (h *Handlers) HandleCreate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderer.renderError(w, r, errors.NewValidation("invalid form data"))
		return
	}

	text := strings.TrimSpace(r.FormValue("text"))
	shortcode := strings.TrimSpace(r.FormValue("shortcode"))
	if text == "" || shortcode == "" {
		h.renderer.renderError(w, r, errors.NewValidation("text and shortcode are required"))
		return
	}

	_, err := h.store.Add(r.Context(), store.AddInput{
		Text:      text,
		Shortcode: shortcode,
		Category:  r.FormValue("category"),
	})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	h.hub.NotifyCommentsUpdated()
	h.redirect(w, r, "/comments")
}

// HandleEditForm handles GET /comments/{id}/edit — pre-filled edit form.
func (h *Handlers) HandleEditForm(w http.ResponseWriter, r *http.Request) {
	c, err := h.store.GetByID(r.Context(), r.PathValue("id"))
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	categories, err := h.store.Categories(r.Context())
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	h.renderer.renderPage(w, r, "form", FormPageData{
		PageData: PageData{
			Title:   "Edit Comment",
			Version: h.renderer.version,
			Nav:     "comments",
		},
		Comment:    c,
		Categories: categories,
		IsEdit:     true,
	})
}

// HandleUpdate handles POST /comments/{id} — apply form edits.
func (h *Handlers) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderer.renderError(w, r, errors.NewValidation("invalid form data"))
		return
	}

	text := strings.TrimSpace(r.FormValue("text"))
	shortcode := strings.TrimSpace(r.FormValue("shortcode"))
	if text == "" || shortcode == "" {
		h.renderer.renderError(w, r, errors.NewValidation("text and shortcode are required"))
		return
	}

	category := r.FormValue("category")
	id := r.PathValue("id")

	updated, err := h.store.Update(r.Context(), id, store.UpdateInput{
		Text:      &text,
		Shortcode: &shortcode,
		Category:  &category,
	})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	if !updated {
		h.renderer.renderError(w, r, errors.NewNotFound(id))
		return
	}

	h.hub.NotifyCommentsUpdated()
	h.redirect(w, r, "/comments")
}

// HandleDelete handles POST /comments/{id}/delete.
func (h *Handlers) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	deleted, err := h.store.Delete(r.Context(), id)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	if !deleted {
		h.renderer.renderError(w, r, errors.NewNotFound(id))
		return
	}

	h.hub.NotifyCommentsUpdated()
	h.redirect(w, r, "/comments")
}

// HandleUse handles POST /comments/{id}/use — bump the usage counter
// and try to insert the text into the attached page.
func (h *Handlers) HandleUse(w http.ResponseWriter, r *http.Request) {
	text, err := h.store.IncrementUse(r.Context(), r.PathValue("id"))
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	// Delivery is best-effort; the count bump stands either way.
	inserted, err := h.hub.InsertText(r.Context(), text)
	if err != nil && !errors.Is(err, errors.ErrUnreachable) {
		h.renderer.renderError(w, r, err)
		return
	}

	h.hub.NotifyCommentsUpdated()
	renderJSON(w, http.StatusOK, map[string]any{
		"text":     text,
		"inserted": inserted,
	})
}

// HandleCopy handles POST /comments/{id}/copy — bump the usage counter
// and return the text for the client-side clipboard.
func (h *Handlers) HandleCopy(w http.ResponseWriter, r *http.Request) {
	text, err := h.store.IncrementUse(r.Context(), r.PathValue("id"))
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	h.hub.NotifyCommentsUpdated()
	renderJSON(w, http.StatusOK, map[string]any{
		"text": text,
	})
}

// HandleSeed handles POST /comments/seed — populate an empty store with
// the built-in samples.
func (h *Handlers) HandleSeed(w http.ResponseWriter, r *http.Request) {
	added, err := h.store.SeedSamples(r.Context())
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	if added > 0 {
		h.hub.NotifyCommentsUpdated()
	}

	if strings.Contains(r.Header.Get("Accept"), "application/json") {
		renderJSON(w, http.StatusOK, map[string]any{"added": added})
		return
	}
	h.redirect(w, r, "/comments")
}

// HandleMenu handles GET /menu — the current quick-access menu as JSON.
func (h *Handlers) HandleMenu(w http.ResponseWriter, r *http.Request) {
	if err := h.projector.Rebuild(r.Context()); err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	renderJSON(w, http.StatusOK, map[string]any{
		"items": h.projector.Items(),
	})
}

// HandleMenuClick handles POST /menu/click — dispatch a click on a menu
// entry.
func (h *Handlers) HandleMenuClick(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderer.renderError(w, r, errors.NewValidation("invalid form data"))
		return
	}

	itemID := r.FormValue("item_id")
	if itemID == "" {
		h.renderer.renderError(w, r, errors.NewValidation("item_id is required"))
		return
	}

	result, err := h.projector.HandleClick(r.Context(), itemID)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	if result.Text != "" {
		h.hub.NotifyCommentsUpdated()
	}
	if result.OpenSurface {
		w.Header().Set("HX-Redirect", "/comments")
	}

	renderJSON(w, http.StatusOK, result)
}

// redirect responds with an HX-Redirect header for fragment requests and
// an HTTP redirect otherwise.
func (h *Handlers) redirect(w http.ResponseWriter, r *http.Request, target string) {
	if r.Header.Get("HX-Request") == "true" {
		w.Header().Set("HX-Redirect", target)
		w.WriteHeader(http.StatusOK)
		return
	}
	http.Redirect(w, r, target, http.StatusFound)
}
