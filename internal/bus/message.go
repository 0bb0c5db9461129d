// Package bus carries messages between the daemon and its attached
// contexts (page agents, background listeners, popup clients) over
// websockets.
package bus

// Actions understood on the wire.
const (
	// ActionInsertText asks the page context to insert text into its
	// focused editable field.
	ActionInsertText = "insertText"

	// ActionInsertResult is the page context's reply to an insertText
	// request, correlated by ID.
	ActionInsertResult = "insertResult"

	// ActionCommentsUpdated announces that the comment collection
	// changed and dependent views should refresh.
	ActionCommentsUpdated = "commentsUpdated"
)

// Context names a client may attach under.
const (
	ContextPage       = "page"
	ContextBackground = "background"
	ContextPopup      = "popup"
)

// Message is the wire envelope for every bus exchange.
type Message struct {
	Action  string `json:"action"`
	ID      string `json:"id,omitempty"`
	Text    string `json:"text,omitempty"`
	Success bool   `json:"success,omitempty"`
}
