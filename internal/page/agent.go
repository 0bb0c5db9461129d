package page

import (
	"context"
	"log"
	"time"

	"github.com/gorilla/websocket"

	"github.com/quiphq/quip/internal/bus"
)

// Agent attaches a Document to the daemon as the page context and
// services insertText requests against it.
type Agent struct {
	doc *Document
	url string
}

// NewAgent creates an Agent that will serve doc over the websocket
// endpoint at url (e.g. ws://127.0.0.1:7333/ws).
func NewAgent(doc *Document, url string) *Agent {
	return &Agent{doc: doc, url: url}
}

// Run connects to the daemon and handles requests until the connection
// drops or ctx is done.
func (a *Agent) Run(ctx context.Context) error {
	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.DialContext(ctx, a.url+"?context="+bus.ContextPage, nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	// Unblock the read loop when the caller gives up.
	go func() {
		<-ctx.Done()
		_ = conn.Close()
	}()

	for {
		var msg bus.Message
		if err := conn.ReadJSON(&msg); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		}

		switch msg.Action {
		case bus.ActionInsertText:
			ok := a.doc.InsertText(msg.Text)
			reply := bus.Message{Action: bus.ActionInsertResult, ID: msg.ID, Success: ok}
			if err := conn.WriteJSON(reply); err != nil {
				return err
			}
		case bus.ActionCommentsUpdated:
			// Pages don't render the collection; nothing to refresh.
		default:
			log.Printf("page agent: unknown action %q", msg.Action)
		}
	}
}
