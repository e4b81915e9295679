package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CollabraChain/escrow-backend/internal/escrow"
	"github.com/CollabraChain/escrow-backend/internal/events"
	"github.com/CollabraChain/escrow-backend/internal/ledger"
	"github.com/CollabraChain/escrow-backend/internal/models"
	"github.com/CollabraChain/escrow-backend/internal/reputation"
	"github.com/CollabraChain/escrow-backend/internal/service"
)

func TestProjectHandler_CreateProject_Unauthorized(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handler := &ProjectHandler{projects: nil}
	r.POST("/projects", handler.CreateProject)

	req, _ := http.NewRequest("POST", "/projects", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestProjectHandler_GetProject_InvalidID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handler := &ProjectHandler{projects: nil}
	r.GET("/projects/:id", handler.GetProject)

	req, _ := http.NewRequest("GET", "/projects/invalid-uuid", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestProjectHandler_FundMilestone_InvalidIndex(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	userID := uuid.New()
	r.Use(func(c *gin.Context) {
		c.Set("userID", userID)
		c.Next()
	})
	handler := &ProjectHandler{projects: nil}
	r.POST("/projects/:id/milestones/:index/fund", handler.FundMilestone)

	req, _ := http.NewRequest("POST", "/projects/"+uuid.NewString()+"/milestones/abc/fund", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestProjectHandler_ResolveDispute_MissingDecision(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	userID := uuid.New()
	r.Use(func(c *gin.Context) {
		c.Set("userID", userID)
		c.Next()
	})
	handler := &ProjectHandler{projects: nil}
	r.POST("/projects/:id/milestones/:index/resolve", handler.ResolveDispute)

	// Тело без pay_freelancer должно отклоняться до вызова сервиса
	req, _ := http.NewRequest("POST", "/projects/"+uuid.NewString()+"/milestones/0/resolve",
		bytes.NewBufferString(`{}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

// --- сквозные сценарии через HTTP ---

type noopBroadcaster struct{}

func (noopBroadcaster) BroadcastToUser(userID uuid.UUID, event string, data any) error {
	return nil
}

// escrowTestEnv собирает движок, сервисы и маршруты в памяти.
// Действующее лицо запроса передаётся заголовком X-Actor.
type escrowTestEnv struct {
	router *gin.Engine
	ledger *ledger.Ledger
}

func newEscrowTestEnv(t *testing.T) *escrowTestEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	l := ledger.NewLedger()
	registry := reputation.NewRegistry()
	eventLog := events.NewLog()
	sink := events.NewSink(eventLog, noopBroadcaster{})

	factory, err := escrow.NewFactory(l, registry, sink)
	require.NoError(t, err)

	projects := NewProjectHandler(service.NewProjectService(factory, eventLog))
	ledgers := NewLedgerHandler(service.NewLedgerService(l, true, 10_000_000))
	reputations := NewReputationHandler(service.NewReputationService(registry))

	r := gin.New()
	r.Use(func(c *gin.Context) {
		if raw := c.GetHeader("X-Actor"); raw != "" {
			if id, err := uuid.Parse(raw); err == nil {
				c.Set("userID", id)
			}
		}
		c.Next()
	})

	r.POST("/projects", projects.CreateProject)
	r.GET("/projects", projects.ListProjects)
	r.GET("/projects/:id", projects.GetProject)
	r.POST("/projects/:id/apply", projects.Apply)
	r.GET("/projects/:id/applicants", projects.ListApplicants)
	r.POST("/projects/:id/invite", projects.Invite)
	r.POST("/projects/:id/approve", projects.ApproveFreelancer)
	r.POST("/projects/:id/cancel", projects.CancelProject)
	r.POST("/projects/:id/milestones", projects.AddMilestone)
	r.GET("/projects/:id/milestones", projects.ListMilestones)
	r.POST("/projects/:id/milestones/:index/fund", projects.FundMilestone)
	r.POST("/projects/:id/milestones/:index/submit", projects.SubmitWork)
	r.POST("/projects/:id/milestones/:index/release", projects.ReleasePayment)
	r.POST("/projects/:id/milestones/:index/dispute", projects.RaiseDispute)
	r.POST("/projects/:id/milestones/:index/resolve", projects.ResolveDispute)
	r.POST("/projects/:id/delegates", projects.GrantRole)
	r.DELETE("/projects/:id/delegates", projects.RevokeRole)
	r.GET("/projects/:id/delegates", projects.ListDelegations)
	r.GET("/projects/:id/events", projects.ListEvents)
	r.GET("/projects/:id/escrow", projects.GetEscrow)
	r.GET("/rooms/:token/projects", projects.RoomProjects)

	r.GET("/ledger/balance", ledgers.GetBalance)
	r.POST("/ledger/approve", ledgers.Approve)
	r.POST("/ledger/transfer", ledgers.Transfer)
	r.POST("/ledger/faucet", ledgers.Faucet)

	r.GET("/users/:id/credentials", reputations.ListUserCredentials)
	r.GET("/credentials/:id", reputations.GetCredential)

	return &escrowTestEnv{router: r, ledger: l}
}

func (env *escrowTestEnv) do(t *testing.T, method, path string, actor uuid.UUID, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req, err := http.NewRequest(method, path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if actor != uuid.Nil {
		req.Header.Set("X-Actor", actor.String())
	}

	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	return w
}

func decodeView(t *testing.T, w *httptest.ResponseRecorder) models.ProjectView {
	t.Helper()
	var view models.ProjectView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &view))
	return view
}

func TestProjectHandler_FullEscrowFlow(t *testing.T) {
	env := newEscrowTestEnv(t)
	creator := uuid.New()
	freelancer := uuid.New()
	deadline := time.Now().Add(30 * 24 * time.Hour).Format(time.RFC3339)

	// Заказчик пополняет счёт через кран
	w := env.do(t, "POST", "/ledger/faucet", creator, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.Equal(t, uint64(10_000_000), env.ledger.BalanceOf(creator))

	// Создание проекта
	w = env.do(t, "POST", "/projects", creator, gin.H{
		"title":        "Разработка API маркетплейса",
		"description":  "REST API с эскроу-оплатой по вехам",
		"total_budget": 3_000_000,
		"deadline_at":  deadline,
		"room_token":   "room-alpha",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	view := decodeView(t, w)
	require.Equal(t, models.ProjectStatusOpen, view.Status)
	require.Equal(t, creator, view.Creator)
	projectID := view.ID

	// Отклик исполнителя
	w = env.do(t, "POST", "/projects/"+projectID.String()+"/apply", freelancer, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	view = decodeView(t, w)
	require.Contains(t, view.Applicants, freelancer)

	// Назначение исполнителя
	w = env.do(t, "POST", "/projects/"+projectID.String()+"/approve", creator,
		gin.H{"candidate": freelancer.String()})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	view = decodeView(t, w)
	require.Equal(t, models.ProjectStatusInProgress, view.Status)
	require.Equal(t, freelancer, view.Freelancer)

	// Добавление вехи
	w = env.do(t, "POST", "/projects/"+projectID.String()+"/milestones", creator, gin.H{
		"description": "Первый этап: авторизация и каталог",
		"budget":      3_000_000,
		"deadline_at": deadline,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	view = decodeView(t, w)
	require.Len(t, view.Milestones, 1)
	require.Equal(t, models.MilestoneStatusDefined, view.Milestones[0].Status)

	// Финансирование без разрешения отклоняется с деталями суммы
	w = env.do(t, "POST", "/projects/"+projectID.String()+"/milestones/0/fund", creator, nil)
	require.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
	var errResp struct {
		Code string `json:"code"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &errResp))
	assert.Equal(t, "INVALID_AMOUNT", errResp.Code)

	// Разрешение на списание в пользу проекта
	w = env.do(t, "POST", "/ledger/approve", creator, gin.H{
		"spender": projectID.String(),
		"amount":  3_000_000,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// Повторное финансирование проходит
	w = env.do(t, "POST", "/projects/"+projectID.String()+"/milestones/0/fund", creator, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	view = decodeView(t, w)
	require.Equal(t, models.MilestoneStatusFunded, view.Milestones[0].Status)
	require.Equal(t, uint64(3_000_000), view.Escrowed)
	require.Equal(t, uint64(7_000_000), env.ledger.BalanceOf(creator))

	// Кастодиальный баланс через отдельный маршрут
	w = env.do(t, "GET", "/projects/"+projectID.String()+"/escrow", creator, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var escrowResp struct {
		Escrowed uint64 `json:"escrowed"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &escrowResp))
	assert.Equal(t, uint64(3_000_000), escrowResp.Escrowed)

	// Сдача работы
	w = env.do(t, "POST", "/projects/"+projectID.String()+"/milestones/0/submit", freelancer,
		gin.H{"work_ref": "ipfs://milestone-1-result"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	view = decodeView(t, w)
	require.Equal(t, models.MilestoneStatusSubmitted, view.Milestones[0].Status)

	// Приёмка последней вехи: выплата, завершение, выпуск репутации
	w = env.do(t, "POST", "/projects/"+projectID.String()+"/milestones/0/release", creator, gin.H{
		"creator_credential_ref":    "ipfs://creator-card",
		"freelancer_credential_ref": "ipfs://freelancer-card",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	view = decodeView(t, w)
	require.Equal(t, models.ProjectStatusCompleted, view.Status)
	require.Equal(t, models.MilestoneStatusApproved, view.Milestones[0].Status)
	require.Equal(t, uint64(0), view.Escrowed)
	require.NotNil(t, view.CompletedAt)
	require.Equal(t, uint64(3_000_000), env.ledger.BalanceOf(freelancer))

	// Репутация выпущена обеим сторонам
	for _, party := range []uuid.UUID{creator, freelancer} {
		w = env.do(t, "GET", "/users/"+party.String()+"/credentials", creator, nil)
		require.Equal(t, http.StatusOK, w.Code)
		var credsResp struct {
			Credentials []models.Credential `json:"credentials"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &credsResp))
		require.Len(t, credsResp.Credentials, 1)
		assert.Equal(t, projectID, credsResp.Credentials[0].Subject)
	}

	// Журнал событий хранит полную историю в порядке фиксации
	w = env.do(t, "GET", "/projects/"+projectID.String()+"/events", creator, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var eventsResp struct {
		Events []models.ProjectEvent `json:"events"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &eventsResp))
	types := make([]string, 0, len(eventsResp.Events))
	for _, e := range eventsResp.Events {
		types = append(types, e.Type)
	}
	assert.Equal(t, []string{
		models.EventProjectCreated,
		models.EventApplicantApplied,
		models.EventFreelancerApproved,
		models.EventMilestoneAdded,
		models.EventMilestoneFunded,
		models.EventWorkSubmitted,
		models.EventPaymentReleased,
		models.EventProjectCompleted,
		models.EventReputationMinted,
		models.EventReputationMinted,
	}, types)

	// Индекс комнаты находит проект по токену
	w = env.do(t, "GET", "/rooms/room-alpha/projects", creator, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var roomResp struct {
		Projects []models.ProjectView `json:"projects"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &roomResp))
	require.Len(t, roomResp.Projects, 1)
	assert.Equal(t, projectID, roomResp.Projects[0].ID)
}

func TestProjectHandler_DisputeResolvedToCreator(t *testing.T) {
	env := newEscrowTestEnv(t)
	creator := uuid.New()
	freelancer := uuid.New()
	deadline := time.Now().Add(14 * 24 * time.Hour).Format(time.RFC3339)

	env.do(t, "POST", "/ledger/faucet", creator, nil)

	w := env.do(t, "POST", "/projects", creator, gin.H{
		"title":       "Дизайн посадочной страницы",
		"deadline_at": deadline,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	projectID := decodeView(t, w).ID

	env.do(t, "POST", "/projects/"+projectID.String()+"/approve", creator,
		gin.H{"candidate": freelancer.String()})
	env.do(t, "POST", "/projects/"+projectID.String()+"/milestones", creator, gin.H{
		"description": "Макет и вёрстка",
		"budget":      1_000_000,
		"deadline_at": deadline,
	})
	env.do(t, "POST", "/ledger/approve", creator,
		gin.H{"spender": projectID.String(), "amount": 1_000_000})
	env.do(t, "POST", "/projects/"+projectID.String()+"/milestones/0/fund", creator, nil)
	env.do(t, "POST", "/projects/"+projectID.String()+"/milestones/0/submit", freelancer,
		gin.H{"work_ref": "ipfs://draft"})

	// Спор может открыть только заказчик
	w = env.do(t, "POST", "/projects/"+projectID.String()+"/milestones/0/dispute", freelancer,
		gin.H{"reason": "попытка оспорить собственную работу"})
	require.Equal(t, http.StatusForbidden, w.Code, w.Body.String())

	w = env.do(t, "POST", "/projects/"+projectID.String()+"/milestones/0/dispute", creator,
		gin.H{"reason": "результат не соответствует макету"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	view := decodeView(t, w)
	require.Equal(t, models.MilestoneStatusDisputed, view.Milestones[0].Status)

	// Арбитр (по умолчанию создатель) решает в пользу заказчика
	w = env.do(t, "POST", "/projects/"+projectID.String()+"/milestones/0/resolve", creator,
		gin.H{"pay_freelancer": false})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	view = decodeView(t, w)
	require.Equal(t, models.ProjectStatusCompleted, view.Status)
	require.Equal(t, models.MilestoneStatusApproved, view.Milestones[0].Status)

	// Бюджет вернулся заказчику, исполнитель ничего не получил
	assert.Equal(t, uint64(10_000_000), env.ledger.BalanceOf(creator))
	assert.Equal(t, uint64(0), env.ledger.BalanceOf(freelancer))

	// Репутация при арбитражном завершении не выпускается
	w = env.do(t, "GET", "/users/"+freelancer.String()+"/credentials", creator, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var credsResp struct {
		Credentials []models.Credential `json:"credentials"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &credsResp))
	assert.Empty(t, credsResp.Credentials)
}
