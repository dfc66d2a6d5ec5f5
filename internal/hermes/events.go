package hermes

// Subjects published by pdfchat.
const (
	SubjectDocumentIndexed = "pdfchat.document.indexed"
	SubjectChatAnswered    = "pdfchat.chat.answered"
	SubjectIndexReset      = "pdfchat.index.reset"
)

// DocumentIndexed is emitted after an upload has been chunked, embedded and
// committed for a session.
type DocumentIndexed struct {
	DocumentID      string   `json:"document_id"`
	SessionID       string   `json:"session_id"`
	Filename        string   `json:"filename"`
	Chunks          int      `json:"chunks"`
	DroppedSessions []string `json:"dropped_sessions,omitempty"`
	Timestamp       string   `json:"timestamp"`
}

// ChatAnswered is emitted after a grounded turn was appended to history.
type ChatAnswered struct {
	TurnID        string `json:"turn_id"`
	SessionID     string `json:"session_id"`
	ContextChunks int    `json:"context_chunks"`
	ReplyLen      int    `json:"reply_len"`
	Timestamp     string `json:"timestamp"`
}

// IndexReset is emitted when a session's index is explicitly cleared.
type IndexReset struct {
	SessionID string `json:"session_id"`
	Existed   bool   `json:"existed"`
	Timestamp string `json:"timestamp"`
}
