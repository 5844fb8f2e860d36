package realtime

import (
	"github.com/collabserve/collabserve/internal/types"
)

// Wire event names. Inbound names are what editor clients send; outbound
// names are what the hub re-emits to other members of the same room.
const (
	EventJoinDocument    = "join-document"
	EventEditDocument    = "edit-document"
	EventDocumentUpdated = "document-updated"
	EventUserJoined      = "user-joined"
	EventUserLeft        = "user-left"
)

// ClientEvent is the envelope for everything an editor sends over the
// socket. Content is only meaningful for edit-document.
type ClientEvent struct {
	Event      string           `json:"event"`
	DocumentID types.FlexUint64 `json:"documentId"`
	Content    string           `json:"content"`
}

// documentUpdated carries another member's edit. The payload is the whole
// content, last write wins; there is no merge of concurrent edits.
type documentUpdated struct {
	Event   string `json:"event"`
	Content string `json:"content"`
}

// presence announces a member arriving in or leaving a room.
type presence struct {
	Event  string `json:"event"`
	UserID string `json:"userId"`
}
