package session

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/modelmatrix/ava-console/internal/analysis/runtime"
	"github.com/modelmatrix/ava-console/internal/analysis/shape"
	"github.com/modelmatrix/ava-console/internal/model/chat"
	"github.com/modelmatrix/ava-console/internal/render"
	"github.com/modelmatrix/ava-console/internal/service/conversation"
	sessionService "github.com/modelmatrix/ava-console/internal/service/session"
	"github.com/modelmatrix/ava-console/pkg/utils"
)

// Handler serves the session and message endpoints.
type Handler struct {
	sessions      *sessionService.Service
	conversations *conversation.Service
}

// New creates the session handler.
func New(sessions *sessionService.Service, conversations *conversation.Service) *Handler {
	return &Handler{sessions: sessions, conversations: conversations}
}

// RegisterRoutes mounts the session routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/sessions", h.handleListSessions)
	r.Post("/sessions", h.handleCreateSession)
	r.Delete("/sessions/{id}", h.handleDeleteSession)
	r.Post("/sessions/{id}/select", h.handleSelectSession)
	r.Put("/sessions/{id}/model", h.handleSetModel)
	r.Put("/sessions/{id}/prompts", h.handleSetPrompts)
	r.Post("/sessions/{id}/messages", h.handleSendMessage)
	r.Get("/sessions/{id}/messages/{messageID}/view", h.handleMessageView)
	r.Get("/prompts/defaults", h.handlePromptDefaults)
}

func (h *Handler) handleListSessions(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, map[string]any{
		"sessions":        h.sessions.List(),
		"activeSessionId": h.sessions.ActiveID(),
	})
}

func (h *Handler) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusCreated, h.sessions.Create())
}

func (h *Handler) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Delete(chi.URLParam(r, "id")); err != nil {
		respondServiceError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, map[string]string{
		"activeSessionId": h.sessions.ActiveID(),
	})
}

func (h *Handler) handleSelectSession(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Select(chi.URLParam(r, "id")); err != nil {
		respondServiceError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) handleSetModel(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Model string `json:"model"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.sessions.SetModel(chi.URLParam(r, "id"), payload.Model); err != nil {
		respondServiceError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) handleSetPrompts(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		IntentSystemPrompt  string `json:"intentSystemPrompt"`
		RuntimeSystemPrompt string `json:"runtimeSystemPrompt"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.sessions.SetPrompts(chi.URLParam(r, "id"), payload.IntentSystemPrompt, payload.RuntimeSystemPrompt); err != nil {
		respondServiceError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if payload.Text == "" {
		utils.RespondError(w, http.StatusBadRequest, "text is required")
		return
	}

	message, err := h.conversations.Send(r.Context(), chi.URLParam(r, "id"), payload.Text)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, map[string]any{
		"message": message,
		"view":    buildView(message),
	})
}

func (h *Handler) handleMessageView(w http.ResponseWriter, r *http.Request) {
	session, err := h.sessions.Get(chi.URLParam(r, "id"))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	messageID := chi.URLParam(r, "messageID")
	for _, message := range session.Messages {
		if message.ID == messageID {
			utils.RespondJSON(w, http.StatusOK, buildView(message))
			return
		}
	}
	respondServiceError(w, sessionService.ErrMessageNotFound)
}

func (h *Handler) handlePromptDefaults(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, conversation.Defaults())
}

// ToolView is one tool-response object classified and rendered.
type ToolView struct {
	Variant shape.Variant `json:"variant"`
	Display render.Node   `json:"display"`
}

// MessageView is the inspector payload for one message: the styled body
// text, each tool response rendered as a display tree, and the reasoning,
// tool-call and usage records mined out of the runtime-prompt payload.
type MessageView struct {
	Message       chat.Message       `json:"message"`
	Body          []render.Span      `json:"body"`
	ToolResponses []ToolView         `json:"toolResponses"`
	Extraction    runtime.Extraction `json:"extraction"`
	Usages        []runtime.Usage    `json:"usages"`
}

func buildView(message chat.Message) MessageView {
	view := MessageView{
		Message:       message,
		Body:          render.MessageBody(message.Text),
		ToolResponses: []ToolView{},
	}
	for _, item := range message.ToolResponse {
		variant := shape.Generic
		var obj map[string]any
		if err := json.Unmarshal(item, &obj); err == nil && obj != nil {
			variant = shape.Classify(obj)
		}
		view.ToolResponses = append(view.ToolResponses, ToolView{
			Variant: variant,
			Display: render.RenderRaw(item),
		})
	}
	if message.Role == chat.RoleAssistant {
		view.Extraction = runtime.Extract(message.RuntimePrompt)
		view.Usages = runtime.ParseUsages(view.Extraction.Usages)
	}
	return view
}

func respondServiceError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, sessionService.ErrSessionNotFound),
		errors.Is(err, sessionService.ErrMessageNotFound):
		status = http.StatusNotFound
	}
	utils.RespondError(w, status, err.Error())
}
