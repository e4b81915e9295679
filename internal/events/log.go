package events

import (
	"sync"

	"github.com/google/uuid"

	"github.com/CollabraChain/escrow-backend/internal/models"
)

// Log хранит журнал событий проектов в памяти. Журнал только растёт:
// события не редактируются и не удаляются.
type Log struct {
	mu        sync.RWMutex
	byProject map[uuid.UUID][]models.ProjectEvent
}

// NewLog создаёт пустой журнал.
func NewLog() *Log {
	return &Log{
		byProject: make(map[uuid.UUID][]models.ProjectEvent),
	}
}

// Append добавляет событие в журнал проекта.
func (l *Log) Append(e models.ProjectEvent) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.byProject[e.ProjectID] = append(l.byProject[e.ProjectID], e)
}

// ByProject возвращает события проекта в порядке добавления.
func (l *Log) ByProject(projectID uuid.UUID) []models.ProjectEvent {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]models.ProjectEvent{}, l.byProject[projectID]...)
}
