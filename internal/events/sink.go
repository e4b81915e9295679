package events

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/CollabraChain/escrow-backend/internal/logger"
	"github.com/CollabraChain/escrow-backend/internal/models"
)

// Broadcaster доставляет сообщение конкретному пользователю.
type Broadcaster interface {
	BroadcastToUser(userID uuid.UUID, event string, data any) error
}

// Ключи полезной нагрузки, в которых события переносят адреса
// участников. По ним сток узнаёт, кого подписывать на проект.
var participantKeys = []string{"creator", "applicant", "candidate", "freelancer", "agent", "recipient"}

// Sink принимает события движка эскроу: синхронно дописывает их в
// журнал и асинхронно рассылает участникам проекта. Emit вызывается
// под блокировкой проекта, поэтому обратных вызовов в движок отсюда
// быть не должно.
type Sink struct {
	log   *Log
	hub   Broadcaster
	queue chan models.ProjectEvent

	mu           sync.RWMutex
	participants map[uuid.UUID]map[uuid.UUID]struct{}
}

// NewSink создаёт сток, пишущий в журнал и рассылающий через hub.
func NewSink(log *Log, hub Broadcaster) *Sink {
	return &Sink{
		log:          log,
		hub:          hub,
		queue:        make(chan models.ProjectEvent, 256),
		participants: make(map[uuid.UUID]map[uuid.UUID]struct{}),
	}
}

// Emit записывает событие и ставит его в очередь рассылки.
func (s *Sink) Emit(e models.ProjectEvent) {
	s.log.Append(e)
	s.track(e)

	select {
	case s.queue <- e:
	default:
		// Журнал — источник истины; потеря живого уведомления при
		// переполненной очереди допустима.
		if logger.Log != nil {
			logger.Log.WithFields(map[string]interface{}{
				"project_id": e.ProjectID,
				"type":       e.Type,
			}).Warn("events: очередь рассылки переполнена, уведомление пропущено")
		}
	}
}

// Run качает очередь рассылки до отмены контекста.
func (s *Sink) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case e := <-s.queue:
			s.deliver(e)
		}
	}
}

// Participants возвращает адреса, подписанные на события проекта.
func (s *Sink) Participants(projectID uuid.UUID) []uuid.UUID {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]uuid.UUID, 0, len(s.participants[projectID]))
	for id := range s.participants[projectID] {
		out = append(out, id)
	}
	return out
}

// track пополняет множество участников проекта: действующее лицо
// события и адреса из полезной нагрузки (приглашённые и агенты
// становятся получателями до того, как сами совершат действие).
func (s *Sink) track(e models.ProjectEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()

	set, ok := s.participants[e.ProjectID]
	if !ok {
		set = make(map[uuid.UUID]struct{})
		s.participants[e.ProjectID] = set
	}

	if e.Actor != uuid.Nil {
		set[e.Actor] = struct{}{}
	}

	for _, key := range participantKeys {
		raw, ok := e.Data[key]
		if !ok {
			continue
		}
		str, ok := raw.(string)
		if !ok {
			continue
		}
		if id, err := uuid.Parse(str); err == nil && id != uuid.Nil {
			set[id] = struct{}{}
		}
	}
}

func (s *Sink) deliver(e models.ProjectEvent) {
	for _, id := range s.Participants(e.ProjectID) {
		if err := s.hub.BroadcastToUser(id, e.Type, e); err != nil {
			if logger.Log != nil {
				logger.Log.WithFields(map[string]interface{}{
					"project_id": e.ProjectID,
					"user_id":    id,
					"error":      err.Error(),
				}).Warn("events: не удалось доставить событие")
			}
		}
	}
}
