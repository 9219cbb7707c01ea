package orchestrator

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/mipractice/mipractice/internal/analysis"
	"github.com/mipractice/mipractice/internal/api"
	"github.com/mipractice/mipractice/internal/assistant"
	"github.com/mipractice/mipractice/internal/persona"
)

type Handler struct {
	orch     *Orchestrator
	validate *validator.Validate
}

func NewHandler(orch *Orchestrator) *Handler {
	return &Handler{
		orch:     orch,
		validate: validator.New(),
	}
}

type createPersonaRequest struct {
	ScenarioType    string `json:"scenario_type" validate:"required"`
	ChangeReadiness string `json:"change_readiness" validate:"required"`
}

func (h *Handler) CreatePersona(w http.ResponseWriter, r *http.Request) {
	var req createPersonaRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.HandleError(w, api.ErrBadRequest)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		api.HandleError(w, api.NewValidationError(err.Error()))
		return
	}

	p, threadID, err := h.orch.CreatePersona(r.Context(), req.ScenarioType, req.ChangeReadiness)
	if err != nil {
		h.handleError(w, "creating persona", err)
		return
	}

	api.JSON(w, http.StatusOK, map[string]any{
		"persona":   p,
		"thread_id": threadID,
	})
}

type updatePersonaRequest struct {
	CurrentPersona *persona.Persona `json:"current_persona" validate:"required"`
	SessionData    string           `json:"session_data" validate:"required"`
}

func (h *Handler) UpdatePersona(w http.ResponseWriter, r *http.Request) {
	var req updatePersonaRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.HandleError(w, api.ErrBadRequest)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		api.HandleError(w, api.NewValidationError(err.Error()))
		return
	}

	update, err := h.orch.UpdatePersona(r.Context(), req.CurrentPersona, req.SessionData)
	if err != nil {
		h.handleError(w, "updating persona", err)
		return
	}

	api.JSON(w, http.StatusOK, update)
}

type createThreadRequest struct {
	AssistantType string `json:"assistant_type" validate:"required,oneof=persona monitor"`
}

func (h *Handler) CreateThread(w http.ResponseWriter, r *http.Request) {
	var req createThreadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.HandleError(w, api.ErrBadRequest)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		api.HandleError(w, api.NewValidationError(err.Error()))
		return
	}

	threadID, err := h.orch.CreateThread(r.Context(), req.AssistantType)
	if err != nil {
		h.handleError(w, "creating thread", err)
		return
	}

	api.JSON(w, http.StatusOK, map[string]string{"thread_id": threadID})
}

type sendMessageRequest struct {
	ThreadID string `json:"thread_id" validate:"required"`
	Message  string `json:"message" validate:"required"`
}

// SendMessage streams the exchange as Server-Sent Events by default; with
// ?stream=false it blocks and returns the reply as plain JSON. A client
// disconnect stops delivery only; the remote run keeps going.
func (h *Handler) SendMessage(w http.ResponseWriter, r *http.Request) {
	var req sendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.HandleError(w, api.ErrBadRequest)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		api.HandleError(w, api.NewValidationError(err.Error()))
		return
	}

	if r.URL.Query().Get("stream") == "false" {
		reply, _, err := h.orch.SendUserMessage(r.Context(), req.ThreadID, req.Message, nil)
		if err != nil {
			h.handleError(w, "sending message", err)
			return
		}
		api.JSONBody(w, http.StatusOK, map[string]string{
			"response": reply,
			"threadId": req.ThreadID,
		})
		return
	}

	sink := newSSESink(w)
	if _, _, err := h.orch.SendUserMessage(r.Context(), req.ThreadID, req.Message, sink); err != nil {
		slog.Error("sending message", "error", err, "thread_id", req.ThreadID)
		sink.Send(Event{Type: EventError, Content: err.Error(), ThreadID: req.ThreadID})
	}
	// The stream is terminated by connection close.
}

func (h *Handler) GetHistory(w http.ResponseWriter, r *http.Request) {
	threadID := chi.URLParam(r, "threadID")
	if threadID == "" {
		api.HandleError(w, api.NewBadRequestError("invalid thread ID"))
		return
	}

	history, err := h.orch.Transcript(r.Context(), threadID)
	if err != nil {
		h.handleError(w, "retrieving conversation history", err)
		return
	}

	api.JSON(w, http.StatusOK, map[string]any{"history": history})
}

type analyzeRequest struct {
	Message      string              `json:"message"`
	Conversation []assistant.Message `json:"conversation"`
	ThreadID     string              `json:"thread_id"`
}

func (h *Handler) AnalyzeMessage(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.HandleError(w, api.ErrBadRequest)
		return
	}
	if req.Message == "" && len(req.Conversation) == 0 {
		api.HandleError(w, api.NewBadRequestError("message or conversation is required"))
		return
	}

	var (
		metrics  *analysis.MIMetrics
		threadID string
		err      error
	)
	if req.Message != "" {
		metrics, threadID, err = h.orch.AnalyzeMessage(r.Context(), req.Message, req.ThreadID)
	} else {
		metrics, threadID, err = h.orch.AnalyzeConversation(r.Context(), req.Conversation, req.ThreadID)
	}
	if err != nil {
		h.handleError(w, "analyzing MI metrics", err)
		return
	}

	api.JSONBody(w, http.StatusOK, map[string]any{
		"data":     metrics,
		"threadId": threadID,
	})
}

// handleError logs the remote error detail for diagnosis and maps the error
// onto the HTTP taxonomy: validation 400, timeout 504, everything else 500.
func (h *Handler) handleError(w http.ResponseWriter, op string, err error) {
	slog.Error(op, "error", err)

	var invalidErr *persona.InvalidArgumentError
	if errors.As(err, &invalidErr) {
		api.HandleError(w, api.NewBadRequestError(invalidErr.Error()))
		return
	}

	var stateErr *InvalidStateError
	if errors.As(err, &stateErr) {
		api.HandleError(w, api.NewBadRequestError(stateErr.Error()))
		return
	}

	api.JSONAppError(w, api.MapError(err))
}
