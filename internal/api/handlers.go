package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/MikeSquared-Agency/pdfchat/internal/hermes"
	"github.com/MikeSquared-Agency/pdfchat/internal/store"
)

const (
	multipartMemory     = 8 << 20
	defaultHistoryLimit = 50
)

type uploadResponse struct {
	Message    string `json:"message"`
	DocumentID string `json:"document_id"`
	SessionID  string `json:"session_id"`
	Chunks     int    `json:"chunks"`
}

// upload handles POST /upload/ with multipart fields file and session_id.
func (s *Server) upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("file exceeds %d bytes", tooLarge.Limit))
			return
		}
		writeError(w, http.StatusBadRequest, "No file provided")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "No file provided")
		return
	}
	defer file.Close()

	sessionID := s.sessionOrDefault(r.FormValue("session_id"))

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	text, err := s.extract(data)
	if err != nil {
		s.logger.Error("text extraction failed", "session_id", sessionID, "filename", header.Filename, "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	res, err := s.indexer.BuildIndex(r.Context(), text, sessionID)
	if err != nil {
		s.logger.Error("indexing failed", "session_id", sessionID, "filename", header.Filename, "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	docID := uuid.New()
	if s.docs != nil {
		err := s.docs.WriteDocument(r.Context(), store.Document{
			ID:         docID,
			SessionID:  sessionID,
			Filename:   header.Filename,
			TextLen:    len(text),
			ChunkCount: len(res.Chunks),
		})
		if err != nil {
			s.logger.Warn("failed to archive document", "document_id", docID, "error", err)
		}
	}
	s.publish(hermes.SubjectDocumentIndexed, hermes.DocumentIndexed{
		DocumentID:      docID.String(),
		SessionID:       sessionID,
		Filename:        header.Filename,
		Chunks:          len(res.Chunks),
		DroppedSessions: res.Dropped,
		Timestamp:       time.Now().UTC().Format(time.RFC3339),
	})

	writeJSON(w, http.StatusOK, uploadResponse{
		Message:    "PDF uploaded and vector DB created.",
		DocumentID: docID.String(),
		SessionID:  sessionID,
		Chunks:     len(res.Chunks),
	})
}

type chatRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id"`
}

// chat handles POST /chatapi/ with a JSON or form body.
func (s *Server) chat(w http.ResponseWriter, r *http.Request) {
	req, err := decodeSessionRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Message == "" {
		writeError(w, http.StatusBadRequest, "No message provided.")
		return
	}
	sessionID := s.sessionOrDefault(req.SessionID)

	reply, err := s.answerer.Answer(r.Context(), req.Message, sessionID)
	if err != nil {
		s.logger.Error("chat failed", "session_id", sessionID, "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"response": reply})
}

// reset handles POST /reset/, dropping one session's index.
func (s *Server) reset(w http.ResponseWriter, r *http.Request) {
	req, err := decodeSessionRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	sessionID := s.sessionOrDefault(req.SessionID)

	existed := s.sessions.ClearIndex(sessionID)
	s.logger.Info("index reset", "session_id", sessionID, "existed", existed)
	s.publish(hermes.SubjectIndexReset, hermes.IndexReset{
		SessionID: sessionID,
		Existed:   existed,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})

	writeJSON(w, http.StatusOK, map[string]any{
		"message":    "Vector DB reset.",
		"session_id": sessionID,
		"cleared":    existed,
	})
}

// decodeSessionRequest reads message and session_id from a JSON body, or from
// form fields when the request is form-encoded. An empty body is allowed.
func decodeSessionRequest(r *http.Request) (chatRequest, error) {
	var req chatRequest
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case "application/x-www-form-urlencoded", "multipart/form-data":
		req.Message = r.FormValue("message")
		req.SessionID = r.FormValue("session_id")
		return req, nil
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		return req, fmt.Errorf("invalid JSON: %v", err)
	}
	return req, nil
}

type historyTurn struct {
	ID        string    `json:"id"`
	User      string    `json:"user"`
	Assistant string    `json:"assistant"`
	Context   []string  `json:"context"`
	CreatedAt time.Time `json:"created_at"`
}

// history handles GET /history/?session_id=&limit=, serving the latest
// archived turns oldest first.
func (s *Server) history(w http.ResponseWriter, r *http.Request) {
	if s.turns == nil {
		writeError(w, http.StatusServiceUnavailable, "transcript archive not configured")
		return
	}

	limit := defaultHistoryLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}
	sessionID := s.sessionOrDefault(r.URL.Query().Get("session_id"))

	turns, err := s.turns.ListTurns(r.Context(), sessionID, limit)
	if err != nil {
		s.logger.Error("history lookup failed", "session_id", sessionID, "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	out := make([]historyTurn, len(turns))
	for i, t := range turns {
		out[i] = historyTurn{
			ID:        t.ID.String(),
			User:      t.User,
			Assistant: t.Assistant,
			Context:   t.Context,
			CreatedAt: t.CreatedAt,
		}
		if out[i].Context == nil {
			out[i].Context = []string{}
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"session_id": sessionID,
		"turns":      out,
	})
}
