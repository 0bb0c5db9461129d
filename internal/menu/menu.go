// Package menu projects the most-used comments into a quick-access menu
// and handles clicks on its entries.
package menu

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/quiphq/quip/internal/errors"
	"github.com/quiphq/quip/internal/store"
)

// Well-known item ids.
const (
	ItemParent    = "parent"
	ItemSeparator = "separator"
	ItemViewAll   = "view_all"

	commentItemPrefix = "comment_"
)

// Item types.
const (
	TypeNormal    = "normal"
	TypeSeparator = "separator"
)

// Item is one entry of the projected menu.
type Item struct {
	ID       string `json:"id"`
	ParentID string `json:"parentId,omitempty"`
	Title    string `json:"title,omitempty"`
	Type     string `json:"type"`
}

// Inserter delivers text to the active page context.
type Inserter interface {
	InsertText(ctx context.Context, text string) (bool, error)
}

// Projector keeps an in-memory menu in sync with the comment store.
type Projector struct {
	store    *store.Store
	inserter Inserter
	limit    int

	mu    sync.Mutex
	items []Item
}

// NewProjector creates a Projector showing at most limit comments.
func NewProjector(s *store.Store, inserter Inserter, limit int) *Projector {
	if limit <= 0 {
		limit = 8
	}
	return &Projector{store: s, inserter: inserter, limit: limit}
}

// Rebuild replaces the menu with the current top comments. The whole
// menu is rebuilt on every change, never patched in place.
func (p *Projector) Rebuild(ctx context.Context) error {
	top, err := p.store.TopComments(ctx, p.limit)
	if err != nil {
		return err
	}

	items := make([]Item, 0, len(top)+3)
	items = append(items, Item{ID: ItemParent, Title: "Insert Comment", Type: TypeNormal})

	for _, c := range top {
		items = append(items, Item{
			ID:       commentItemPrefix + c.ID,
			ParentID: ItemParent,
			Title:    fmt.Sprintf("%s (%d)", c.Shortcode, c.UsedCount),
			Type:     TypeNormal,
		})
	}

	items = append(items,
		Item{ID: ItemSeparator, ParentID: ItemParent, Type: TypeSeparator},
		Item{ID: ItemViewAll, ParentID: ItemParent, Title: "View All Comments", Type: TypeNormal},
	)

	p.mu.Lock()
	p.items = items
	p.mu.Unlock()

	return nil
}

// Items returns a copy of the current menu.
func (p *Projector) Items() []Item {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([]Item, len(p.items))
	copy(out, p.items)
	return out
}

// ClickResult describes what a menu click did.
type ClickResult struct {
	// OpenSurface is set when the click asks for the full management view.
	OpenSurface bool `json:"openSurface,omitempty"`

	// Inserted reports whether the page accepted the text.
	Inserted bool `json:"inserted,omitempty"`

	// Text is the comment text of the clicked entry.
	Text string `json:"text,omitempty"`
}

// HandleClick processes a click on the item with the given id.
//
// A comment entry bumps the comment's usage counter, attempts a
// best-effort insert into the page context, and rebuilds the menu. A
// click on an entry whose comment was deleted underneath it is a no-op.
func (p *Projector) HandleClick(ctx context.Context, itemID string) (ClickResult, error) {
	if itemID == ItemViewAll {
		return ClickResult{OpenSurface: true}, nil
	}

	commentID, ok := strings.CutPrefix(itemID, commentItemPrefix)
	if !ok {
		return ClickResult{}, nil
	}

	text, err := p.store.IncrementUse(ctx, commentID)
	if err != nil {
		if errors.Is(err, errors.ErrNotFound) {
			// Stale entry, the comment is gone. Refresh and move on.
			if rerr := p.Rebuild(ctx); rerr != nil {
				return ClickResult{}, rerr
			}
			return ClickResult{}, nil
		}
		return ClickResult{}, err
	}

	result := ClickResult{Text: text}
	if p.inserter != nil {
		inserted, err := p.inserter.InsertText(ctx, text)
		if err != nil && !errors.Is(err, errors.ErrUnreachable) {
			return result, err
		}
		result.Inserted = inserted
	}

	if err := p.Rebuild(ctx); err != nil {
		return result, err
	}

	return result, nil
}

// Run rebuilds the menu whenever updates ticks, until ctx is done.
func (p *Projector) Run(ctx context.Context, updates <-chan struct{}) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-updates:
			if err := p.Rebuild(ctx); err != nil {
				log.Printf("menu rebuild failed: %v", err)
			}
		}
	}
}
