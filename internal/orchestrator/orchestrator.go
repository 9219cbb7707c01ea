// Package orchestrator coordinates the persona and monitor threads of a
// practice session: it sequences "send user message -> await persona reply ->
// fetch transcript -> submit for MI-adherence analysis -> emit feedback",
// driving each remote run to completion and memoizing analysis results by
// content hash.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mipractice/mipractice/internal/analysis"
	"github.com/mipractice/mipractice/internal/assistant"
	"github.com/mipractice/mipractice/internal/cache"
	"github.com/mipractice/mipractice/internal/config"
	"github.com/mipractice/mipractice/internal/metrics"
	"github.com/mipractice/mipractice/internal/persona"
)

const (
	analysisKeyPrefix = "mi_analysis"
	updateKeyPrefix   = "persona_update"
)

// Orchestrator is the conversation-analysis core. It holds no remote state
// itself; threads and runs live on the provider side, reached through the
// assistant client.
type Orchestrator struct {
	client         assistant.Client
	runWaiter      *assistant.Waiter
	analysisWaiter *assistant.Waiter
	personaMgr     *persona.Manager
	cache          *cache.Cache
	assistants     config.AssistantConfig
	sessions       *sessions
}

func New(
	client assistant.Client,
	cfg config.RunConfig,
	assistants config.AssistantConfig,
	personaMgr *persona.Manager,
	store *cache.Cache,
) *Orchestrator {
	return &Orchestrator{
		client:         client,
		runWaiter:      assistant.NewWaiter(client, cfg.PollInterval, cfg.Timeout),
		analysisWaiter: assistant.NewWaiter(client, cfg.PollInterval, cfg.AnalysisTimeout),
		personaMgr:     personaMgr,
		cache:          store,
		assistants:     assistants,
		sessions:       newSessions(),
	}
}

// Session returns the live session for a persona thread, if any.
func (o *Orchestrator) Session(personaThreadID string) (*Session, bool) {
	return o.sessions.get(personaThreadID)
}

// CreatePersona validates both enumerations, then asks the persona assistant
// for a new patient profile via a structured-output run on a fresh thread.
// Invalid input is rejected locally; no remote call is made.
func (o *Orchestrator) CreatePersona(ctx context.Context, scenarioType, changeReadiness string) (*persona.Persona, string, error) {
	scenario, readiness, err := o.personaMgr.Validate(scenarioType, changeReadiness)
	if err != nil {
		return nil, "", err
	}

	sess := newSession()
	if err := sess.Transition(StatePersonaCreating); err != nil {
		return nil, "", err
	}

	threadID, err := o.client.CreateThread(ctx)
	if err != nil {
		return nil, "", o.fail(sess, err)
	}

	prompt := o.personaMgr.CreatePrompt(scenario, readiness)
	if err := o.client.AppendMessage(ctx, threadID, assistant.RoleUser, prompt); err != nil {
		return nil, "", o.fail(sess, err)
	}

	runID, err := o.client.CreateRun(ctx, threadID, assistant.RunConfig{
		AssistantID:    o.assistants.PersonaID,
		ResponseFormat: o.personaMgr.CreateResponseFormat(),
	})
	if err != nil {
		return nil, "", o.fail(sess, err)
	}

	if _, err := o.runWaiter.Await(ctx, threadID, runID, nil); err != nil {
		return nil, "", o.fail(sess, err)
	}

	raw, err := o.latestAssistantMessage(ctx, threadID)
	if err != nil {
		return nil, "", o.fail(sess, err)
	}

	p, err := o.personaMgr.ParsePersona(raw)
	if err != nil {
		return nil, "", o.fail(sess, err)
	}
	p.ID = o.personaMgr.NewLocalID()
	// The requested readiness is authoritative over whatever the model chose.
	p.ChangeReadiness = readiness
	p.StageOfChange = readiness

	sess.ID = p.ID
	sess.PersonaThreadID = threadID
	sess.Persona = p
	if err := sess.Transition(StatePersonaReady); err != nil {
		return nil, "", err
	}
	o.sessions.add(sess)

	slog.Info("persona created",
		"persona_id", p.ID,
		"thread_id", threadID,
		"scenario", scenario,
		"change_readiness", readiness,
	)
	return p, threadID, nil
}

// CreateThread creates a bare thread of the given kind. The thread is not
// bound to a session; callers own its id.
func (o *Orchestrator) CreateThread(ctx context.Context, assistantType string) (string, error) {
	if assistantType != "persona" && assistantType != "monitor" {
		return "", &persona.InvalidArgumentError{
			Field:   "assistant_type",
			Value:   assistantType,
			Allowed: []string{"persona", "monitor"},
		}
	}
	return o.client.CreateThread(ctx)
}

// SendUserMessage appends the user's message to the persona thread, drives a
// run to completion while streaming status to the sink, and returns the
// persona's reply plus the updated transcript (oldest-first). A message
// appended before a later failure stays appended; nothing is rolled back.
func (o *Orchestrator) SendUserMessage(ctx context.Context, threadID, text string, sink Sink) (string, []assistant.Message, error) {
	if sink == nil {
		sink = discardSink{}
	}

	sess, tracked := o.sessions.get(threadID)
	if tracked {
		if err := sess.Transition(StateAwaitingPersonaReply); err != nil {
			return "", nil, err
		}
	} else {
		// Ad hoc thread: verify it exists before appending to it.
		if _, err := o.client.ListMessages(ctx, threadID); err != nil {
			return "", nil, err
		}
	}

	if err := o.client.AppendMessage(ctx, threadID, assistant.RoleUser, text); err != nil {
		return "", nil, o.failTracked(sess, tracked, err)
	}
	sink.Send(Event{Type: EventStatus, Content: "message_added", ThreadID: threadID})

	runCfg := assistant.RunConfig{AssistantID: o.assistants.PersonaID}
	if tracked && sess.Persona != nil {
		// Tracked sessions run in character; ad hoc threads use the
		// assistant's default instructions.
		runCfg.Instructions = o.personaMgr.RoleplayInstructions(sess.Persona)
	}
	runID, err := o.client.CreateRun(ctx, threadID, runCfg)
	if err != nil {
		return "", nil, o.failTracked(sess, tracked, err)
	}
	sink.Send(Event{Type: EventStatus, Content: "run_created", ThreadID: threadID})

	_, err = o.runWaiter.Await(ctx, threadID, runID, func(s assistant.RunStatus) {
		sink.Send(Event{Type: EventStatus, Content: string(s), ThreadID: threadID})
	})
	if err != nil {
		return "", nil, o.failTracked(sess, tracked, err)
	}

	transcript, err := o.Transcript(ctx, threadID)
	if err != nil {
		return "", nil, o.failTracked(sess, tracked, err)
	}

	reply := latestByRole(transcript, assistant.RoleAssistant)
	if reply == "" {
		err := &assistant.RemoteServiceError{Op: "send_user_message", Err: errors.New("no assistant response found")}
		return "", nil, o.failTracked(sess, tracked, err)
	}
	sink.Send(Event{Type: EventMessage, Content: reply, ThreadID: threadID})

	if tracked {
		if err := sess.Transition(StatePersonaReady); err != nil {
			return "", nil, err
		}
	}
	return reply, transcript, nil
}

// AnalyzeMessage scores one counselor message for MI adherence. Results are
// memoized by the message's content hash: identical input is served from the
// cache without a remote call. A backend failure is treated as a miss.
func (o *Orchestrator) AnalyzeMessage(ctx context.Context, message, threadID string) (*analysis.MIMetrics, string, error) {
	prompt := fmt.Sprintf("Analyze this message for MI adherence: %q", message)
	key := cache.KeyBytes(analysisKeyPrefix, []byte(message))
	return o.analyze(ctx, key, prompt, threadID)
}

// AnalyzeConversation scores a whole transcript. The cache key covers the
// rendered transcript, so re-analyzing an unchanged conversation is free.
func (o *Orchestrator) AnalyzeConversation(ctx context.Context, conversation []assistant.Message, threadID string) (*analysis.MIMetrics, string, error) {
	rendered := renderTranscript(conversation)
	prompt := "Please analyze the following conversation for MI adherence:\n\n" + rendered
	key := cache.KeyBytes(analysisKeyPrefix, []byte(rendered))
	return o.analyze(ctx, key, prompt, threadID)
}

func (o *Orchestrator) analyze(ctx context.Context, key, prompt, threadID string) (*analysis.MIMetrics, string, error) {
	var cached analysis.MIMetrics
	found, err := o.cache.GetJSON(ctx, key, &cached)
	if err != nil {
		var backendErr *cache.BackendError
		if !errors.As(err, &backendErr) {
			return nil, "", err
		}
		slog.Warn("cache unavailable, computing analysis", "error", err)
	}
	if found {
		metrics.AnalysisCacheHits.Inc()
		return &cached, threadID, nil
	}
	metrics.AnalysisCacheMisses.Inc()

	if threadID == "" {
		threadID, err = o.client.CreateThread(ctx)
		if err != nil {
			return nil, "", err
		}
	}

	if err := o.client.AppendMessage(ctx, threadID, assistant.RoleUser, prompt); err != nil {
		return nil, "", err
	}

	runID, err := o.client.CreateRun(ctx, threadID, assistant.RunConfig{
		AssistantID:    o.assistants.MonitorID,
		Instructions:   analysis.Instructions,
		ResponseFormat: analysis.ResponseFormat(),
	})
	if err != nil {
		return nil, "", err
	}

	if _, err := o.analysisWaiter.Await(ctx, threadID, runID, nil); err != nil {
		return nil, "", err
	}

	raw, err := o.latestAssistantMessage(ctx, threadID)
	if err != nil {
		return nil, "", err
	}

	result, err := analysis.Parse(raw)
	if err != nil {
		// Parse failures are surfaced, never cached.
		return nil, "", err
	}

	if err := o.cache.PutJSON(ctx, key, result); err != nil {
		slog.Warn("caching analysis result failed", "error", err, "key", key)
	}
	return result, threadID, nil
}

// UpdatePersona evolves the persona's mutable state from a session summary
// via a structured-output run. The result is memoized over the combined
// {current_persona, session_data} payload, with no random suffix, so the
// same summary applied to the same persona is computed once.
func (o *Orchestrator) UpdatePersona(ctx context.Context, current *persona.Persona, sessionData string) (*persona.Update, error) {
	key, err := cache.Key(updateKeyPrefix, map[string]any{
		"current_persona": current,
		"session_data":    sessionData,
	})
	if err != nil {
		return nil, err
	}

	var cached persona.Update
	found, err := o.cache.GetJSON(ctx, key, &cached)
	if err != nil {
		var backendErr *cache.BackendError
		if !errors.As(err, &backendErr) {
			return nil, err
		}
		slog.Warn("cache unavailable, computing persona update", "error", err)
	}
	if found {
		o.applyUpdate(current, &cached)
		return &cached, nil
	}

	threadID, err := o.client.CreateThread(ctx)
	if err != nil {
		return nil, err
	}

	prompt := o.personaMgr.UpdatePrompt(current, sessionData)
	if err := o.client.AppendMessage(ctx, threadID, assistant.RoleUser, prompt); err != nil {
		return nil, err
	}

	runID, err := o.client.CreateRun(ctx, threadID, assistant.RunConfig{
		AssistantID:    o.assistants.PersonaID,
		Instructions:   "Update the persona based on the provided session summary.",
		ResponseFormat: o.personaMgr.UpdateResponseFormat(),
	})
	if err != nil {
		return nil, err
	}

	if _, err := o.runWaiter.Await(ctx, threadID, runID, nil); err != nil {
		return nil, err
	}

	raw, err := o.latestAssistantMessage(ctx, threadID)
	if err != nil {
		return nil, err
	}

	update, err := o.personaMgr.ParseUpdate(raw)
	if err != nil {
		return nil, err
	}

	if err := o.cache.PutJSON(ctx, key, update); err != nil {
		slog.Warn("caching persona update failed", "error", err, "key", key)
	}

	o.applyUpdate(current, update)
	return update, nil
}

// Transcript returns the thread's messages oldest-first, the order callers
// read a conversation in.
func (o *Orchestrator) Transcript(ctx context.Context, threadID string) ([]assistant.Message, error) {
	msgs, err := o.client.ListMessages(ctx, threadID)
	if err != nil {
		return nil, err
	}
	// The remote service lists newest-first.
	reversed := make([]assistant.Message, len(msgs))
	for i, m := range msgs {
		reversed[len(msgs)-1-i] = m
	}
	return reversed, nil
}

func (o *Orchestrator) latestAssistantMessage(ctx context.Context, threadID string) (string, error) {
	msgs, err := o.client.ListMessages(ctx, threadID)
	if err != nil {
		return "", err
	}
	for _, m := range msgs {
		if m.Role == assistant.RoleAssistant {
			return m.Content, nil
		}
	}
	return "", &assistant.RemoteServiceError{Op: "list_messages", Err: errors.New("no assistant message in thread")}
}

// applyUpdate folds an update into the live session persona, if one is
// tracked for this persona id.
func (o *Orchestrator) applyUpdate(current *persona.Persona, u *persona.Update) {
	apply := func(p *persona.Persona) {
		p.StageOfChange = u.StageOfChange
		state := u.EmotionalState
		p.EmotionalState = &state
		p.RapportLevel = u.RapportLevel
		p.SignificantEvents = append(p.SignificantEvents, u.SignificantEvents...)
	}
	apply(current)
	if sess, ok := o.sessions.byPersonaID(current.ID); ok && sess.Persona != current {
		apply(sess.Persona)
	}
}

func (o *Orchestrator) fail(sess *Session, err error) error {
	_ = sess.Transition(StateError)
	return err
}

func (o *Orchestrator) failTracked(sess *Session, tracked bool, err error) error {
	if tracked {
		_ = sess.Transition(StateError)
	}
	return err
}

func latestByRole(transcript []assistant.Message, role assistant.Role) string {
	for i := len(transcript) - 1; i >= 0; i-- {
		if transcript[i].Role == role {
			return transcript[i].Content
		}
	}
	return ""
}

func renderTranscript(conversation []assistant.Message) string {
	lines := make([]string, 0, len(conversation))
	for _, m := range conversation {
		lines = append(lines, fmt.Sprintf("%s: %s", m.Role, m.Content))
	}
	return strings.Join(lines, "\n")
}
