package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"resume-ai-helper-be/internal/constant"
	"resume-ai-helper-be/internal/dto"
	"resume-ai-helper-be/internal/entity"
	"resume-ai-helper-be/internal/pkg/logger"
	"resume-ai-helper-be/internal/repository/contract"
	"resume-ai-helper-be/internal/repository/memory"
	"resume-ai-helper-be/pkg/assistant"
	"resume-ai-helper-be/pkg/events"
	pktNats "resume-ai-helper-be/pkg/nats"
	"resume-ai-helper-be/pkg/segment"

	"github.com/google/uuid"
)

// ErrBusy is returned when an action arrives while a backend call is already
// in flight. State is untouched; the caller should disable affordances.
var ErrBusy = errors.New("a backend operation is already in flight")

// ErrUnsupportedFile is returned for uploads whose extension is not an
// accepted resume format.
var ErrUnsupportedFile = errors.New("unsupported resume file type")

// ErrUnknownPreset is returned for preset ids outside the fixed set.
var ErrUnknownPreset = errors.New("unknown preset conversation")

// IChatService is the chat-session state machine. It owns the transient turn
// log and active-chat marker, gates all backend-calling actions behind a
// single-flight Busy flag, and persists sessions through the SessionStore.
type IChatService interface {
	NewChat(ctx context.Context) *dto.ChatStateResponse
	UploadResume(ctx context.Context, filename string, file io.Reader) (*dto.ChatStateResponse, error)
	SendMessage(ctx context.Context, text string) (*dto.ChatStateResponse, error)
	SelectPreset(ctx context.Context, presetId int) (*dto.ChatStateResponse, error)
	SelectSession(ctx context.Context, id int64) *dto.ChatStateResponse
	DeleteSession(ctx context.Context, id int64) (*dto.ChatStateResponse, error)
	GetAllSessions(ctx context.Context) []*dto.SessionSummaryResponse
	Snapshot() *dto.ChatStateResponse
}

type chatService struct {
	store       contract.SessionStore
	backend     assistant.Backend
	statusCache *memory.StatusCache
	publisher   IPublisherService
	eventBus    *pktNats.Publisher // optional, nil when no broker is configured
	logger      logger.ILogger

	mu             sync.Mutex
	busy           bool
	turns          []entity.ChatTurn
	activeChat     string // "", "preset-<n>", or a decimal session id
	resumeUploaded bool
	collection     entity.SessionCollection
}

func NewChatService(
	store contract.SessionStore,
	backend assistant.Backend,
	statusCache *memory.StatusCache,
	publisher IPublisherService,
	eventBus *pktNats.Publisher,
	sysLogger logger.ILogger,
) IChatService {
	return &chatService{
		store:       store,
		backend:     backend,
		statusCache: statusCache,
		publisher:   publisher,
		eventBus:    eventBus,
		logger:      sysLogger,
		collection:  store.Load(context.Background()),
	}
}

// NewChat resets the displayed conversation. Pure local reset, no network.
func (cs *chatService) NewChat(ctx context.Context) *dto.ChatStateResponse {
	cs.mu.Lock()
	cs.turns = nil
	cs.activeChat = ""
	snap := cs.snapshotLocked()
	cs.mu.Unlock()

	cs.publishState(ctx, snap)
	return snap
}

// UploadResume forwards the file to the backend. A successful upload always
// starts a fresh, unsaved conversation; it never touches the saved sessions.
func (cs *chatService) UploadResume(ctx context.Context, filename string, file io.Reader) (*dto.ChatStateResponse, error) {
	if !allowedResumeFile(filename) {
		return nil, ErrUnsupportedFile
	}

	if err := cs.beginBusy(); err != nil {
		return nil, err
	}
	defer cs.endBusy()

	message, err := cs.backend.Upload(ctx, filename, file)

	cs.mu.Lock()
	if err != nil {
		cs.logger.Error("Chat", "Resume upload failed", map[string]interface{}{
			"filename": filename,
			"error":    err.Error(),
		})
		cs.turns = []entity.ChatTurn{newTurn(constant.UploadErrorMessage, constant.ChatTurnSenderBot)}
	} else {
		cs.logger.Info("Chat", "Resume uploaded", map[string]interface{}{
			"filename": filename,
			"message":  message,
		})
		cs.turns = []entity.ChatTurn{newTurn(
			fmt.Sprintf(constant.UploadSuccessMessage, filename),
			constant.ChatTurnSenderBot,
		)}
		cs.activeChat = ""
		cs.resumeUploaded = true
	}
	snap := cs.finishLocked()
	cs.mu.Unlock()

	cs.publishState(ctx, snap)
	return snap, nil
}

// SendMessage appends the user turn optimistically, materializes a session on
// the first user turn of an unsaved conversation, then asks the backend and
// appends its reply. Transport failure degrades to a canned apology turn.
func (cs *chatService) SendMessage(ctx context.Context, text string) (*dto.ChatStateResponse, error) {
	if strings.TrimSpace(text) == "" {
		return cs.Snapshot(), nil
	}

	if err := cs.beginBusy(); err != nil {
		return nil, err
	}
	defer cs.endBusy()

	cs.mu.Lock()
	turnLog := append(copyTurns(cs.turns), newTurn(text, constant.ChatTurnSenderUser))
	cs.turns = copyTurns(turnLog)

	var created events.Event
	if cs.activeChat == "" && cs.activeSessionLocked() == nil {
		now := time.Now()
		// Ids come from the wall clock; two conversations created within the
		// same millisecond must still get distinct ids or Remove and the
		// active-chat comparison conflate them.
		id := now.UnixMilli()
		for cs.collection.Find(id) != nil {
			id++
		}
		session := &entity.ChatSession{
			Id:          id,
			Title:       deriveSessionTitle(text),
			Messages:    copyTurns(turnLog),
			LastUpdated: now,
		}
		cs.collection = append(entity.SessionCollection{session}, cs.collection...)
		cs.activeChat = strconv.FormatInt(session.Id, 10)
		if err := cs.store.Save(ctx, cs.collection); err != nil {
			cs.logger.Error("Chat", "Failed to persist new session", map[string]interface{}{
				"session_id": session.Id,
				"error":      err.Error(),
			})
		}
		created = events.NewSessionCreated(session.Id, session.Title)
	}
	snap := cs.snapshotLocked()
	cs.mu.Unlock()

	if created != nil {
		cs.emitLifecycleEvent(ctx, created)
	}
	cs.publishState(ctx, snap)

	reply, err := cs.backend.Query(ctx, text)

	cs.mu.Lock()
	if err != nil {
		cs.logger.Error("Chat", "Query failed", map[string]interface{}{"error": err.Error()})
		turnLog = append(turnLog, newTurn(constant.QueryErrorMessage, constant.ChatTurnSenderBot))
		cs.turns = copyTurns(turnLog)
	} else {
		turnLog = append(turnLog, newTurn(reply, constant.ChatTurnSenderBot))
		cs.turns = copyTurns(turnLog)
		if session := cs.activeSessionLocked(); session != nil {
			session.Messages = copyTurns(turnLog)
			session.LastUpdated = time.Now()
			if saveErr := cs.store.Save(ctx, cs.collection); saveErr != nil {
				cs.logger.Error("Chat", "Failed to persist session update", map[string]interface{}{
					"session_id": session.Id,
					"error":      saveErr.Error(),
				})
			}
		}
	}
	snap = cs.finishLocked()
	cs.mu.Unlock()

	cs.publishState(ctx, snap)
	return snap, nil
}

// SelectPreset starts one of the canned conversation starters. Preset
// conversations are never persisted.
func (cs *chatService) SelectPreset(ctx context.Context, presetId int) (*dto.ChatStateResponse, error) {
	if presetId < constant.PresetChatTips || presetId > constant.PresetChatInterview {
		return nil, ErrUnknownPreset
	}

	if err := cs.beginBusy(); err != nil {
		return nil, err
	}
	defer cs.endBusy()

	cs.mu.Lock()
	cs.activeChat = fmt.Sprintf("%s%d", constant.PresetChatIdPrefix, presetId)
	cs.turns = nil
	uploaded := cs.resumeUploaded

	switch presetId {
	case constant.PresetChatTips:
		cs.turns = []entity.ChatTurn{newTurn(constant.PresetTipsMessage, constant.ChatTurnSenderBot)}

	case constant.PresetChatReview:
		if !uploaded {
			cs.turns = []entity.ChatTurn{newTurn(constant.PresetReviewNeedsUploadMessage, constant.ChatTurnSenderBot)}
		} else {
			cs.turns = []entity.ChatTurn{newTurn(constant.PresetReviewMessage, constant.ChatTurnSenderBot)}
		}

	case constant.PresetChatInterview:
		if !uploaded {
			cs.turns = []entity.ChatTurn{newTurn(constant.PresetInterviewNeedsUploadMessage, constant.ChatTurnSenderBot)}
		}
	}

	needsGeneration := presetId == constant.PresetChatInterview && uploaded
	if !needsGeneration {
		snap := cs.finishLocked()
		cs.mu.Unlock()

		cs.publishState(ctx, snap)
		return snap, nil
	}

	// Interim state while generation is in flight.
	cs.turns = []entity.ChatTurn{newTurn(constant.InterviewGeneratingMessage, constant.ChatTurnSenderBot)}
	snap := cs.snapshotLocked()
	cs.mu.Unlock()

	cs.publishState(ctx, snap)

	questions := cs.generateInterviewQuestions(ctx)

	cs.mu.Lock()
	turnLog := []entity.ChatTurn{newTurn(constant.InterviewHeaderMessage, constant.ChatTurnSenderBot)}
	for _, q := range questions {
		turnLog = append(turnLog, newTurn(constant.InterviewQuestionBullet+q, constant.ChatTurnSenderBot))
	}
	cs.turns = turnLog
	snap = cs.finishLocked()
	cs.mu.Unlock()

	cs.publishState(ctx, snap)
	return snap, nil
}

// SelectSession replays a saved conversation. No network call.
func (cs *chatService) SelectSession(ctx context.Context, id int64) *dto.ChatStateResponse {
	cs.mu.Lock()
	if session := cs.collection.Find(id); session != nil {
		cs.turns = copyTurns(session.Messages)
	} else {
		cs.turns = nil
	}
	cs.activeChat = strconv.FormatInt(id, 10)
	snap := cs.snapshotLocked()
	cs.mu.Unlock()

	cs.publishState(ctx, snap)
	return snap
}

// DeleteSession removes a saved session and persists immediately. If it was
// the displayed conversation, the turn log and active chat are cleared too.
func (cs *chatService) DeleteSession(ctx context.Context, id int64) (*dto.ChatStateResponse, error) {
	cs.mu.Lock()
	collection, err := cs.store.Delete(ctx, id)
	if err != nil {
		cs.mu.Unlock()
		return nil, err
	}
	cs.collection = collection
	if cs.activeChat == strconv.FormatInt(id, 10) {
		cs.turns = nil
		cs.activeChat = ""
	}
	snap := cs.snapshotLocked()
	cs.mu.Unlock()

	cs.emitLifecycleEvent(ctx, events.NewSessionDeleted(id))
	cs.publishState(ctx, snap)
	return snap, nil
}

func (cs *chatService) GetAllSessions(ctx context.Context) []*dto.SessionSummaryResponse {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	response := make([]*dto.SessionSummaryResponse, 0, len(cs.collection))
	for _, s := range cs.collection {
		response = append(response, &dto.SessionSummaryResponse{
			Id:          s.Id,
			Title:       s.Title,
			Messages:    len(s.Messages),
			LastUpdated: s.LastUpdated,
		})
	}
	return response
}

func (cs *chatService) Snapshot() *dto.ChatStateResponse {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	return cs.snapshotLocked()
}

// generateInterviewQuestions runs the status probe and generation call,
// degrading every failure mode into user-facing message lists.
func (cs *chatService) generateInterviewQuestions(ctx context.Context) []string {
	if _, cached := cs.statusCache.Get(); !cached {
		status, err := cs.backend.Status(ctx)
		if err != nil {
			cs.logger.Error("Chat", "Backend status probe failed", map[string]interface{}{"error": err.Error()})
			return constant.InterviewTransportErrorMessages
		}
		cs.logger.Info("Chat", "Backend status", map[string]interface{}{"status": string(status)})
		cs.statusCache.Set(status)
	}

	raw, err := cs.backend.InterviewQuestions(ctx)
	if err != nil {
		cs.logger.Error("Chat", "Interview question generation failed", map[string]interface{}{"error": err.Error()})
		switch {
		case errors.Is(err, assistant.ErrBackendReported):
			return []string{constant.InterviewReportedErrorMessage}
		case errors.Is(err, assistant.ErrBackendStatus):
			return []string{constant.InterviewBackendErrorMessage}
		default:
			return constant.InterviewTransportErrorMessages
		}
	}

	return segment.Split(raw)
}

// activeSessionLocked resolves the active chat id against the saved
// collection. Preset markers and unset ids never match.
func (cs *chatService) activeSessionLocked() *entity.ChatSession {
	id, err := strconv.ParseInt(cs.activeChat, 10, 64)
	if err != nil {
		return nil
	}
	return cs.collection.Find(id)
}

func (cs *chatService) snapshotLocked() *dto.ChatStateResponse {
	turns := make([]dto.ChatTurnDTO, 0, len(cs.turns))
	for _, t := range cs.turns {
		turns = append(turns, dto.ChatTurnDTO{
			Id:        t.Id,
			Text:      t.Text,
			Sender:    t.Sender,
			CreatedAt: t.CreatedAt,
		})
	}
	return &dto.ChatStateResponse{
		Turns:          turns,
		ActiveChatId:   cs.activeChat,
		Busy:           cs.busy,
		ResumeUploaded: cs.resumeUploaded,
	}
}

// finishLocked reopens the busy gate before capturing the terminal snapshot,
// so callers and subscribers never observe a completed operation as Busy.
// The deferred endBusy stays as the guarantee for panic and error paths.
func (cs *chatService) finishLocked() *dto.ChatStateResponse {
	cs.busy = false
	return cs.snapshotLocked()
}

// beginBusy claims the single-flight gate. Entry while Busy is a rejected
// no-op, not queued work.
func (cs *chatService) beginBusy() error {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	if cs.busy {
		return ErrBusy
	}
	cs.busy = true
	return nil
}

func (cs *chatService) endBusy() {
	cs.mu.Lock()
	cs.busy = false
	cs.mu.Unlock()
}

func (cs *chatService) publishState(ctx context.Context, snap *dto.ChatStateResponse) {
	if cs.publisher == nil {
		return
	}
	payload, err := json.Marshal(snap)
	if err != nil {
		return
	}
	if err := cs.publisher.Publish(ctx, payload); err != nil {
		cs.logger.Warn("Chat", "Failed to publish state change", map[string]interface{}{"error": err.Error()})
	}
}

func (cs *chatService) emitLifecycleEvent(ctx context.Context, event events.Event) {
	if cs.eventBus == nil {
		return
	}
	if err := cs.eventBus.Publish(ctx, event); err != nil {
		cs.logger.Warn("Chat", "Failed to publish lifecycle event", map[string]interface{}{
			"event": event.EventType(),
			"error": err.Error(),
		})
	}
}

func newTurn(text, sender string) entity.ChatTurn {
	return entity.ChatTurn{
		Id:        uuid.New(),
		Text:      text,
		Sender:    sender,
		CreatedAt: time.Now(),
	}
}

func copyTurns(turns []entity.ChatTurn) []entity.ChatTurn {
	out := make([]entity.ChatTurn, len(turns))
	copy(out, turns)
	return out
}

func deriveSessionTitle(firstMessage string) string {
	runes := []rune(firstMessage)
	if len(runes) <= constant.SessionTitleMaxLen {
		return firstMessage
	}
	return string(runes[:constant.SessionTitleMaxLen]) + constant.SessionTitleEllipsis
}

func allowedResumeFile(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	for _, allowed := range constant.AllowedResumeExtensions {
		if ext == allowed {
			return true
		}
	}
	return false
}
