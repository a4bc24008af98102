package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/orderdesk/backend/internal/botapi"
	"github.com/orderdesk/backend/internal/conversations"
	"github.com/orderdesk/backend/internal/dynamomock"
	"github.com/orderdesk/backend/internal/live"
	"github.com/orderdesk/backend/internal/notify"
	"github.com/orderdesk/backend/internal/orders"
)

type testEnv struct {
	router *gin.Engine
	repo   *orders.Repository
	hub    *live.Hub
	db     *dynamomock.DB
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := dynamomock.New()
	log := zap.NewNop()
	repo := orders.NewRepository(db, "Orders", log)
	registry := conversations.NewRegistry(db, "BotSubscriptions", log)
	hub := live.NewHub(log)
	t.Cleanup(hub.Close)
	notifier := notify.NewNotifier(hub, nil, nil, nil, log)
	bot := botapi.NewHandler(registry, repo, notifier, log)

	router := gin.New()
	RegisterRoutes(router, HandlerConfig{
		Repo:       repo,
		Hub:        hub,
		Notifier:   notifier,
		BotHandler: bot,
		Logger:     log,
	})
	return &testEnv{router: router, repo: repo, hub: hub, db: db}
}

func (e *testEnv) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decodeOrder(t *testing.T, body []byte) orders.Order {
	t.Helper()
	var o orders.Order
	require.NoError(t, json.Unmarshal(body, &o))
	return o
}

func TestCreateOrder(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/api/orders", `{"customer":"Acme","amount":42.5}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	o := decodeOrder(t, w.Body.Bytes())
	assert.Equal(t, "ORD-001", o.ID)
	assert.Equal(t, "Acme", o.Customer)
	assert.Equal(t, orders.StatusSubmitted, o.Status)
	assert.True(t, o.Amount.Equal(decimal.RequireFromString("42.5")))
	assert.Equal(t, time.Now().UTC().Format("2006-01-02"), o.Date)

	// ids are sequential
	w = env.do(t, http.MethodPost, "/api/orders", `{"customer":"Globex","amount":10}`)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "ORD-002", decodeOrder(t, w.Body.Bytes()).ID)
}

func TestCreateOrder_Validation(t *testing.T) {
	env := newTestEnv(t)

	cases := []struct {
		name string
		body string
	}{
		{"missing customer", `{"amount":42.5}`},
		{"negative amount", `{"customer":"Acme","amount":-1}`},
		{"not json", `customer=Acme`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := env.do(t, http.MethodPost, "/api/orders", tc.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestCreateOrder_BroadcastsToLiveSessions(t *testing.T) {
	env := newTestEnv(t)
	_, ch := env.hub.Add()

	w := env.do(t, http.MethodPost, "/api/orders", `{"customer":"Acme","amount":42.5}`)
	require.Equal(t, http.StatusCreated, w.Code)

	select {
	case ev := <-ch:
		assert.Equal(t, "ORD-001", decodeOrder(t, ev.Payload).ID)
	case <-time.After(time.Second):
		t.Fatal("no live event received")
	}
}

func TestListOrders_SortedDescending(t *testing.T) {
	env := newTestEnv(t)
	for _, c := range []string{"Acme", "Globex", "Initech"} {
		w := env.do(t, http.MethodPost, "/api/orders", `{"customer":"`+c+`","amount":10}`)
		require.Equal(t, http.StatusCreated, w.Code)
	}

	w := env.do(t, http.MethodGet, "/api/orders", "")
	require.Equal(t, http.StatusOK, w.Code)

	var list []orders.Order
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list, 3)
	assert.Equal(t, "ORD-003", list[0].ID)
	assert.Equal(t, "ORD-002", list[1].ID)
	assert.Equal(t, "ORD-001", list[2].ID)
}

func TestUpdateOrder(t *testing.T) {
	env := newTestEnv(t)
	env.do(t, http.MethodPost, "/api/orders", `{"customer":"Acme","amount":42.5}`)

	w := env.do(t, http.MethodPut, "/api/orders/ORD-001", `{"status":"Shipped"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	o := decodeOrder(t, w.Body.Bytes())
	assert.Equal(t, orders.StatusShipped, o.Status)
	assert.Equal(t, "Acme", o.Customer)
}

func TestUpdateOrder_MissingIsServerError(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPut, "/api/orders/ORD-999", `{"status":"Shipped"}`)
	require.Equal(t, http.StatusInternalServerError, w.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Contains(t, resp["error"], "ORD-999")
}

func TestCustomerSummaries(t *testing.T) {
	env := newTestEnv(t)
	env.do(t, http.MethodPost, "/api/orders", `{"customer":"Globex","amount":10}`)
	env.do(t, http.MethodPost, "/api/orders", `{"customer":"Acme","amount":20.25}`)
	env.do(t, http.MethodPost, "/api/orders", `{"customer":"Acme","amount":9.75}`)

	w := env.do(t, http.MethodGet, "/api/customers", "")
	require.Equal(t, http.StatusOK, w.Code)

	var list []orders.CustomerSummary
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list, 2)

	// sorted by customer ascending
	assert.Equal(t, "Acme", list[0].Customer)
	assert.Equal(t, 2, list[0].OrderCount)
	assert.True(t, list[0].TotalAmount.Equal(decimal.RequireFromString("30")))
	assert.Equal(t, "Globex", list[1].Customer)
	assert.Equal(t, 1, list[1].OrderCount)
}

func TestCustomerOrders(t *testing.T) {
	env := newTestEnv(t)
	env.do(t, http.MethodPost, "/api/orders", `{"customer":"Acme","amount":10}`)
	env.do(t, http.MethodPost, "/api/orders", `{"customer":"Globex","amount":10}`)
	env.do(t, http.MethodPost, "/api/orders", `{"customer":"Acme","amount":10}`)

	w := env.do(t, http.MethodGet, "/api/customers/Acme/orders", "")
	require.Equal(t, http.StatusOK, w.Code)

	var list []orders.Order
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list, 2)
	assert.Equal(t, "ORD-003", list[0].ID)
	assert.Equal(t, "ORD-001", list[1].ID)
}

func TestRenameCustomer(t *testing.T) {
	env := newTestEnv(t)
	env.do(t, http.MethodPost, "/api/orders", `{"customer":"Acme","amount":10}`)
	env.do(t, http.MethodPost, "/api/orders", `{"customer":"Acme","amount":10}`)
	env.do(t, http.MethodPost, "/api/orders", `{"customer":"Globex","amount":10}`)

	w := env.do(t, http.MethodPut, "/api/customers/Acme", `{"newName":"Apex"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp map[string]int
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp["updated"])

	got, err := env.repo.ListByCustomer(context.Background(), "Apex")
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestRenameCustomer_RequiresNewName(t *testing.T) {
	env := newTestEnv(t)
	w := env.do(t, http.MethodPut, "/api/customers/Acme", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListOrders_StoreFailure(t *testing.T) {
	env := newTestEnv(t)
	env.db.ScanErr = assert.AnError

	w := env.do(t, http.MethodGet, "/api/orders", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestBotInstallAndCardAction(t *testing.T) {
	env := newTestEnv(t)
	env.do(t, http.MethodPost, "/api/orders", `{"customer":"Acme","amount":42.5}`)

	install := `{
		"type": "installationUpdate",
		"action": "add",
		"serviceUrl": "https://smba.example/emea/",
		"conversation": {"id": "19:meeting_abc@thread.v2"}
	}`
	w := env.do(t, http.MethodPost, "/api/messages", install)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{}`, w.Body.String())

	invoke := `{
		"type": "invoke",
		"name": "adaptiveCard/action",
		"from": {"id": "user-1", "name": "Jordan Lee"},
		"conversation": {"id": "19:meeting_abc@thread.v2"},
		"value": {"action": {"verb": "order.accept", "data": {"orderId": "ORD-001"}}}
	}`
	w = env.do(t, http.MethodPost, "/api/messages", invoke)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		StatusCode int `json:"statusCode"`
		Value      struct {
			Body []struct {
				Text string `json:"text,omitempty"`
			} `json:"body"`
		} `json:"value"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	require.NotEmpty(t, resp.Value.Body)
	assert.Equal(t, "Order accepted", resp.Value.Body[0].Text)

	got, err := env.repo.Get(context.Background(), "ORD-001")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, orders.StatusPending, got.Status)
}

func TestBotCardAction_UnknownVerb(t *testing.T) {
	env := newTestEnv(t)
	env.do(t, http.MethodPost, "/api/orders", `{"customer":"Acme","amount":42.5}`)

	invoke := `{
		"type": "invoke",
		"name": "adaptiveCard/action",
		"value": {"action": {"verb": "order.explode", "data": {"orderId": "ORD-001"}}}
	}`
	w := env.do(t, http.MethodPost, "/api/messages", invoke)
	require.Equal(t, http.StatusOK, w.Code)

	var resp botapi.ActionResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestBotActivity_InvalidJSON(t *testing.T) {
	env := newTestEnv(t)
	w := env.do(t, http.MethodPost, "/api/messages", `{`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
