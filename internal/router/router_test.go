package router

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/blues/mfs/internal/config"
	"github.com/blues/mfs/internal/database"
	"github.com/blues/mfs/internal/event"
	"github.com/blues/mfs/internal/ledger"
	"github.com/blues/mfs/internal/logic"
	"github.com/blues/mfs/internal/middleware"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testSecret = "test-secret"
	creator    = "0x1000000000000000000000000000000000000001"
	alice      = "0x2000000000000000000000000000000000000002"
	owner      = "0x9000000000000000000000000000000000000009"
)

type apiResponse struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type testServer struct {
	router *gin.Engine
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := database.Init(config.DatabaseConfig{
		Driver: "sqlite",
		Path:   fmt.Sprintf("file:router_%s?mode=memory&cache=shared", name),
	}, "info")
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	feed, err := event.NewFeed(2)
	require.NoError(t, err)
	t.Cleanup(feed.Close)

	cfg := &config.Config{
		Auth:       config.AuthConfig{JWTSecret: testSecret},
		Governance: config.DefaultGovernance(),
	}
	cfg.Governance.OwnerAddress = owner

	engine, err := logic.NewEngine(ledger.NewStore(db), feed, cfg.Governance)
	require.NoError(t, err)
	return &testServer{router: Setup(engine, cfg)}
}

// do 发送请求；caller 非空时携带该地址的令牌
func (s *testServer) do(t *testing.T, method, path, caller string, body interface{}) (int, apiResponse) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if caller != "" {
		token, err := middleware.GenerateToken(testSecret, caller, 0)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	var resp apiResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	return w.Code, resp
}

func (s *testServer) createProject(t *testing.T) int64 {
	t.Helper()
	code, resp := s.do(t, http.MethodPost, "/api/v1/projects", creator, gin.H{
		"name":          "Solar kiosk",
		"description":   "Off-grid charging kiosks",
		"category":      "hardware",
		"target_amount": "1000",
		"bond_amount":   "100",
		"milestones":    []string{"prototype", "pilot", "rollout"},
	})
	require.Equal(t, http.StatusCreated, code, resp.Message)

	var receipt logic.Receipt
	require.NoError(t, json.Unmarshal(resp.Data, &receipt))
	return receipt.ProjectId
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"ok"`)
	assert.NotEmpty(t, w.Header().Get(middleware.RequestIDHeader))
}

func TestCommandsRequireToken(t *testing.T) {
	s := newTestServer(t)

	code, resp := s.do(t, http.MethodPost, "/api/v1/projects", "", gin.H{"name": "x"})
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.False(t, resp.Success)

	code, _ = s.do(t, http.MethodPost, "/api/v1/claims/investor", "", nil)
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestProjectLifecycleOverHTTP(t *testing.T) {
	s := newTestServer(t)
	id := s.createProject(t)
	base := fmt.Sprintf("/api/v1/projects/%d", id)

	code, resp := s.do(t, http.MethodGet, "/api/v1/projects/funding", "", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(resp.Data), `"state":"Funding"`)

	code, resp = s.do(t, http.MethodPost, base+"/fund", alice, gin.H{"amount": "1200"})
	require.Equal(t, http.StatusOK, code, resp.Message)
	var fund logic.FundReceipt
	require.NoError(t, json.Unmarshal(resp.Data, &fund))
	assert.Equal(t, "1000", fund.Accepted.String())
	assert.Equal(t, "200", fund.Refunded.String())

	code, resp = s.do(t, http.MethodPost, base+"/milestone", creator, gin.H{"evidence_ref": "ipfs://proof"})
	require.Equal(t, http.StatusOK, code, resp.Message)
	assert.Contains(t, string(resp.Data), `"state":"VotingRound1"`)

	code, resp = s.do(t, http.MethodPost, base+"/vote", alice, gin.H{"choice": 1})
	require.Equal(t, http.StatusOK, code, resp.Message)
	assert.Contains(t, string(resp.Data), `"state":"BuildingStage2"`)

	code, resp = s.do(t, http.MethodPost, base+"/vote", alice, gin.H{"choice": 1})
	assert.Equal(t, http.StatusConflict, code)
	assert.False(t, resp.Success)

	code, resp = s.do(t, http.MethodGet, "/api/v1/accounts/"+creator+"/claimable", "", nil)
	require.Equal(t, http.StatusOK, code)
	var claimable logic.Claimable
	require.NoError(t, json.Unmarshal(resp.Data, &claimable))
	assert.Equal(t, "200", claimable.Creator.String())

	code, resp = s.do(t, http.MethodPost, "/api/v1/claims/creator", creator, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "claimed", resp.Message)

	code, resp = s.do(t, http.MethodPost, "/api/v1/claims/creator", creator, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "nothing to claim", resp.Message)

	code, resp = s.do(t, http.MethodGet, base+"/events?limit=2", "", nil)
	require.Equal(t, http.StatusOK, code)
	var events []json.RawMessage
	require.NoError(t, json.Unmarshal(resp.Data, &events))
	assert.Len(t, events, 2)
}

func TestErrorStatusMapping(t *testing.T) {
	s := newTestServer(t)
	id := s.createProject(t)
	base := fmt.Sprintf("/api/v1/projects/%d", id)

	tests := []struct {
		name   string
		method string
		path   string
		caller string
		body   interface{}
		status int
	}{
		{"not found", http.MethodGet, "/api/v1/projects/999", "", nil, http.StatusNotFound},
		{"bad id", http.MethodGet, "/api/v1/projects/abc", "", nil, http.StatusBadRequest},
		{"not creator", http.MethodPost, base + "/cancel", alice, nil, http.StatusForbidden},
		{"zero amount", http.MethodPost, base + "/fund", alice, gin.H{"amount": "0"}, http.StatusUnprocessableEntity},
		{"creator funds own project", http.MethodPost, base + "/fund", creator, gin.H{"amount": "10"}, http.StatusForbidden},
		{"too early to submit", http.MethodPost, base + "/milestone", creator, gin.H{"evidence_ref": "ipfs://x"}, http.StatusConflict},
		{"missing choice", http.MethodPost, base + "/vote", alice, gin.H{}, http.StatusBadRequest},
		{"not owner", http.MethodPost, "/api/v1/claims/owner", alice, nil, http.StatusForbidden},
		{"bad address", http.MethodGet, "/api/v1/accounts/0x12/claimable", "", nil, http.StatusBadRequest},
		{"negative cursor", http.MethodGet, "/api/v1/events?after=-1", "", nil, http.StatusBadRequest},
		{"close without round", http.MethodPost, base + "/close", "", nil, http.StatusConflict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, resp := s.do(t, tt.method, tt.path, tt.caller, tt.body)
			assert.Equal(t, tt.status, code, resp.Message)
			assert.False(t, resp.Success)
		})
	}
}

func TestGetBond(t *testing.T) {
	s := newTestServer(t)

	code, resp := s.do(t, http.MethodGet, "/api/v1/bond?target=1005", "", nil)
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"target_amount":"1005","bond_amount":"100"}`, string(resp.Data))

	code, _ = s.do(t, http.MethodGet, "/api/v1/bond?target=abc", "", nil)
	assert.Equal(t, http.StatusBadRequest, code)
}
