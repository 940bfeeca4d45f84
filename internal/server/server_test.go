package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	auditrepository "github.com/smallbiznis/ppmp/internal/audit/repository"
	auditservice "github.com/smallbiznis/ppmp/internal/audit/service"
	authdomain "github.com/smallbiznis/ppmp/internal/auth/domain"
	authrepository "github.com/smallbiznis/ppmp/internal/auth/repository"
	authservice "github.com/smallbiznis/ppmp/internal/auth/service"
	"github.com/smallbiznis/ppmp/internal/auth/session"
	"github.com/smallbiznis/ppmp/internal/authorization"
	"github.com/smallbiznis/ppmp/internal/config"
	disbursementdomain "github.com/smallbiznis/ppmp/internal/disbursement/domain"
	disbursementrepository "github.com/smallbiznis/ppmp/internal/disbursement/repository"
	disbursementservice "github.com/smallbiznis/ppmp/internal/disbursement/service"
	"github.com/smallbiznis/ppmp/internal/export"
	"github.com/smallbiznis/ppmp/internal/migration"
	notificationrepository "github.com/smallbiznis/ppmp/internal/notification/repository"
	notificationservice "github.com/smallbiznis/ppmp/internal/notification/service"
	"github.com/smallbiznis/ppmp/internal/ppmp/aggregate"
	ppmprepository "github.com/smallbiznis/ppmp/internal/ppmp/repository"
	ppmpservice "github.com/smallbiznis/ppmp/internal/ppmp/service"
	purchaserepository "github.com/smallbiznis/ppmp/internal/purchaserequest/repository"
	purchaseservice "github.com/smallbiznis/ppmp/internal/purchaserequest/service"
	"github.com/smallbiznis/ppmp/internal/reference"
	referencedomain "github.com/smallbiznis/ppmp/internal/reference/domain"
	reportingservice "github.com/smallbiznis/ppmp/internal/reporting/service"
	"github.com/smallbiznis/ppmp/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"
)

const (
	deptEngineering snowflake.ID = 10
	deptHealth      snowflake.ID = 20

	tokenPreparer = "preparer-token"
	tokenOutsider = "outsider-token"
	tokenApprover = "approver-token"
)

type testServer struct {
	db      *gorm.DB
	handler http.Handler
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := testutil.NewDB(t, migration.Models()...)
	log := zaptest.NewLogger(t)
	node := testutil.NewNode(t)
	now := time.Now().UTC()

	require.NoError(t, db.Create(&[]referencedomain.Department{
		{ID: deptEngineering, Code: "ENG", Name: "Municipal Engineering", CreatedAt: now},
		{ID: deptHealth, Code: "MHO", Name: "Municipal Health Office", CreatedAt: now},
	}).Error)
	addSessionUser(t, db, 1, "Ana Preparer", authorization.RolePreparer, deptEngineering, tokenPreparer)
	addSessionUser(t, db, 3, "Cora Outsider", authorization.RolePreparer, deptHealth, tokenOutsider)
	addSessionUser(t, db, 4, "Dan Approver", authorization.RoleApprover, 0, tokenApprover)
	require.NoError(t, db.Create(&disbursementdomain.Voucher{
		ID: "DV-2026-0001", Payee: "Northern Asphalt Supply", Amount: decimal.RequireFromString("120.00"),
		Status: "RELEASED", Particulars: "Asphalt mix", CreatedAt: now,
	}).Error)

	enforcer, err := authorization.NewStaticEnforcer()
	require.NoError(t, err)
	authz := authorization.NewService(authorization.Params{Log: log, Enforcer: enforcer})
	refRepo := reference.NewRepository(db)
	planRepo := ppmprepository.NewRepository()
	engine := aggregate.New(aggregate.Params{Log: log, Repo: planRepo})
	auditSvc := auditservice.NewService(auditservice.Params{DB: db, Log: log, GenID: node, Repo: auditrepository.Provide()})
	notificationSvc := notificationservice.NewService(notificationservice.Params{DB: db, Log: log, GenID: node, Repo: notificationrepository.Provide()})
	holder := config.NewStaticPPMPConfigHolder(config.DefaultPPMPConfig())

	plans := ppmpservice.NewService(ppmpservice.Params{
		DB:              db,
		Log:             log,
		GenID:           node,
		Repo:            planRepo,
		Engine:          engine,
		Authz:           authz,
		RefRepo:         refRepo,
		AuditSvc:        auditSvc,
		NotificationSvc: notificationSvc,
		Config:          holder,
	})
	disbursements := disbursementservice.NewService(disbursementservice.Params{
		DB:       db,
		Log:      log,
		GenID:    node,
		Repo:     disbursementrepository.Provide(),
		PlanRepo: planRepo,
		Engine:   engine,
		Authz:    authz,
		AuditSvc: auditSvc,
		Config:   holder,
	})
	purchases := purchaseservice.NewService(purchaseservice.Params{
		DB:       db,
		Log:      log,
		GenID:    node,
		Repo:     purchaserepository.Provide(),
		AuditSvc: auditSvc,
		Config:   holder,
	})
	reports := reportingservice.NewService(reportingservice.Params{
		DB:       db,
		Log:      log,
		Authz:    authz,
		PlanRepo: planRepo,
		Config:   holder,
	})

	r := gin.New()
	r.Use(ErrorHandlingMiddleware())
	srv := NewServer(ServerParams{
		Gin:             r,
		Cfg:             config.Config{},
		Authsvc:         authservice.New(authservice.Params{Log: log, Repo: authrepository.New(db)}),
		Sessions:        session.NewManager(config.Config{}),
		PPMPSvc:         plans,
		DisbursementSvc: disbursements,
		PurchaseSvc:     purchases,
		ReportingSvc:    reports,
		AuditSvc:        auditSvc,
		NotificationSvc: notificationSvc,
		ExportSvc:       export.NewService(export.Params{Log: log, Plans: plans}),
		Refrepo:         refRepo,
	})
	return &testServer{db: db, handler: srv.Engine()}
}

func addSessionUser(t *testing.T, db *gorm.DB, id snowflake.ID, name string, role authorization.Role, dept snowflake.ID, token string) {
	t.Helper()
	now := time.Now().UTC()
	user := authdomain.User{
		ID:        id,
		Name:      name,
		Email:     strings.ToLower(strings.ReplaceAll(name, " ", ".")) + "@lgu.example",
		Role:      string(role),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if dept != 0 {
		user.DepartmentID = &dept
	}
	require.NoError(t, db.Create(&user).Error)
	require.NoError(t, db.Create(&authdomain.Session{
		ID:               id + 1000,
		UserID:           id,
		SessionTokenHash: authservice.HashToken(token),
		ExpiresAt:        now.Add(time.Hour),
		CreatedAt:        now,
		LastSeenAt:       now,
	}).Error)
}

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *errorPayload   `json:"error"`
}

func (s *testServer) do(t *testing.T, token, method, path string, body any) (*httptest.ResponseRecorder, envelope) {
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
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set(session.DefaultHeaderName, token)
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)

	var env envelope
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	}
	return rec, env
}

type idBody struct {
	ID string `json:"id"`
}

func decodeID(t *testing.T, env envelope) string {
	t.Helper()
	var body idBody
	require.NoError(t, json.Unmarshal(env.Data, &body))
	require.NotEmpty(t, body.ID)
	return body.ID
}

func (s *testServer) createPlan(t *testing.T) string {
	t.Helper()
	rec, env := s.do(t, tokenPreparer, http.MethodPost, "/api/ppmp", gin.H{
		"title":         "Road Maintenance 2026",
		"fiscal_year":   2026,
		"department_id": deptEngineering.String(),
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decodeID(t, env)
}

func (s *testServer) addItem(t *testing.T, planID, itemNo string) string {
	t.Helper()
	rec, env := s.do(t, tokenPreparer, http.MethodPost, "/api/ppmp/"+planID+"/items", gin.H{
		"item_no":            itemNo,
		"category":           "goods",
		"description":        "Asphalt mix",
		"quantity":           4,
		"unit":               "bag",
		"unit_cost":          "30.25",
		"procurement_method": "SHOPPING",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decodeID(t, env)
}

func TestRequiresSession(t *testing.T) {
	s := newTestServer(t)

	rec, env := s.do(t, "", http.MethodGet, "/api/ppmp", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "unauthorized", env.Error.Type)

	rec, _ = s.do(t, "bogus", http.MethodGet, "/api/me", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestMe(t *testing.T) {
	s := newTestServer(t)

	rec, env := s.do(t, tokenPreparer, http.MethodGet, "/api/me", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var me struct {
		Role       string `json:"role"`
		Department string `json:"department_name"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &me))
	assert.Equal(t, "PPMP_PREPARER", me.Role)
	assert.Equal(t, "Municipal Engineering", me.Department)
}

func TestPlanLifecycleOverHTTP(t *testing.T) {
	s := newTestServer(t)
	planID := s.createPlan(t)
	itemID := s.addItem(t, planID, "1")

	rec, env := s.do(t, tokenPreparer, http.MethodPost, "/api/ppmp/"+planID+"/submit", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "validation_error", env.Error.Type)
	assert.Equal(t, "PPMP must have budget allocations", env.Error.Message)
	require.Len(t, env.Error.Errors, 1)
	assert.Equal(t, "budget_allocations", env.Error.Errors[0].Field)

	rec, _ = s.do(t, tokenPreparer, http.MethodPost, "/api/ppmp/"+planID+"/budget", gin.H{
		"budget_code":      "5-02-13-030",
		"description":      "Repairs and maintenance",
		"allocated_amount": "121.00",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec, env = s.do(t, tokenPreparer, http.MethodGet, "/api/ppmp/"+planID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var detail struct {
		Status      string          `json:"status"`
		Estimated   decimal.Decimal `json:"total_estimated_budget"`
		Allocated   decimal.Decimal `json:"total_allocated_budget"`
		Items       []idBody        `json:"items"`
		Links       []idBody        `json:"disbursement_links"`
		Permissions []string        `json:"permissions"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &detail))
	assert.Equal(t, "DRAFT", detail.Status)
	assert.True(t, decimal.RequireFromString("121").Equal(detail.Estimated), detail.Estimated.String())
	assert.True(t, decimal.RequireFromString("121").Equal(detail.Allocated), detail.Allocated.String())
	assert.Len(t, detail.Items, 1)
	assert.NotNil(t, detail.Links)
	assert.Contains(t, detail.Permissions, string(authorization.ActionSubmit))

	rec, _ = s.do(t, tokenPreparer, http.MethodPost, "/api/ppmp/"+planID+"/submit", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec, _ = s.do(t, tokenPreparer, http.MethodPost, "/api/ppmp/"+planID+"/approve", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, _ = s.do(t, tokenApprover, http.MethodGet, "/api/ppmp/pending-approvals", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, _ = s.do(t, tokenApprover, http.MethodPost, "/api/ppmp/"+planID+"/approve", gin.H{"remarks": "ok"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec, env = s.do(t, tokenPreparer, http.MethodPost, "/api/ppmp/"+planID+"/disbursements", gin.H{
		"disbursement_id": "DV-2026-0001",
		"ppmp_item_id":    itemID,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	linkID := decodeID(t, env)

	rec, env = s.do(t, tokenPreparer, http.MethodPost, "/api/ppmp/"+planID+"/disbursements", gin.H{
		"disbursement_id": "DV-2026-0001",
		"ppmp_item_id":    itemID,
	})
	assert.Equal(t, http.StatusConflict, rec.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "conflict", env.Error.Type)

	rec, _ = s.do(t, tokenPreparer, http.MethodDelete, "/api/ppmp/"+planID+"/disbursements/"+linkID, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, env = s.do(t, tokenPreparer, http.MethodGet, "/api/notifications", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var inbox struct {
		UnreadCount int64 `json:"unread_count"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &inbox))
	assert.Equal(t, int64(1), inbox.UnreadCount)

	rec, env = s.do(t, tokenPreparer, http.MethodGet, "/api/ppmp/"+planID+"/audit", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var trail struct {
		AuditLogs []struct {
			Action string `json:"action"`
		} `json:"audit_logs"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &trail))
	require.NotEmpty(t, trail.AuditLogs)
}

func TestPurchaseRequestsOverHTTP(t *testing.T) {
	s := newTestServer(t)
	planID := s.createPlan(t)
	itemID := s.addItem(t, planID, "1")
	rec, _ := s.do(t, tokenPreparer, http.MethodPost, "/api/ppmp/"+planID+"/budget", gin.H{
		"budget_code":      "5-02-13-030",
		"description":      "Repairs and maintenance",
		"allocated_amount": "121.00",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	rec, _ = s.do(t, tokenPreparer, http.MethodPost, "/api/ppmp/"+planID+"/submit", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	rec, _ = s.do(t, tokenApprover, http.MethodPost, "/api/ppmp/"+planID+"/approve", gin.H{"remarks": "ok"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec, env := s.do(t, tokenPreparer, http.MethodPost, "/api/purchase-requests", gin.H{
		"pr_no":   "PR-2026-0001",
		"purpose": "Pothole repairs",
		"products": []gin.H{
			{"ppmp_item_id": itemID, "quantity": "4"},
		},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var pr struct {
		ID          string `json:"id"`
		Status      string `json:"status"`
		PPMPAligned bool   `json:"ppmp_aligned"`
		Department  string `json:"department_name"`
		Products    []struct {
			Unit    string `json:"unit"`
			Aligned bool   `json:"aligned"`
		} `json:"products"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &pr))
	assert.Equal(t, "DRAFT", pr.Status)
	assert.True(t, pr.PPMPAligned)
	assert.Equal(t, "Municipal Engineering", pr.Department)
	require.Len(t, pr.Products, 1)
	assert.Equal(t, "bag", pr.Products[0].Unit)
	assert.True(t, pr.Products[0].Aligned)

	rec, env = s.do(t, tokenPreparer, http.MethodPost, "/api/purchase-requests", gin.H{"pr_no": "PR-2026-0001"})
	assert.Equal(t, http.StatusConflict, rec.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "purchase request number already exists", env.Error.Message)

	rec, env = s.do(t, tokenPreparer, http.MethodGet, "/api/purchase-requests?ppmp_aligned=true", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var page struct {
		TotalCount int64    `json:"total_count"`
		Requests   []idBody `json:"purchase_requests"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &page))
	assert.Equal(t, int64(1), page.TotalCount)

	rec, _ = s.do(t, tokenPreparer, http.MethodGet, "/api/purchase-requests?ppmp_aligned=maybe", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = s.do(t, tokenOutsider, http.MethodGet, "/api/purchase-requests/"+pr.ID, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, env = s.do(t, tokenApprover, http.MethodPatch, "/api/purchase-requests/"+pr.ID, gin.H{"status": "APPROVED"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "status", env.Error.Errors[0].Field)

	rec, _ = s.do(t, tokenPreparer, http.MethodPatch, "/api/purchase-requests/"+pr.ID, gin.H{"status": "SUBMITTED"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec, _ = s.do(t, tokenPreparer, http.MethodPost, "/api/purchase-requests/"+pr.ID+"/products", gin.H{
		"ppmp_item_id": itemID, "quantity": "1",
	})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, _ = s.do(t, tokenApprover, http.MethodPatch, "/api/purchase-requests/"+pr.ID, gin.H{"status": "APPROVED"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func TestDepartmentIsolationOverHTTP(t *testing.T) {
	s := newTestServer(t)
	planID := s.createPlan(t)

	rec, _ := s.do(t, tokenOutsider, http.MethodGet, "/api/ppmp/"+planID, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, _ = s.do(t, tokenOutsider, http.MethodPost, "/api/ppmp/"+planID+"/items", gin.H{"item_no": "9"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, _ = s.do(t, tokenPreparer, http.MethodGet, "/api/ppmp/123456", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, _ = s.do(t, tokenPreparer, http.MethodGet, "/api/ppmp/not-an-id", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestItemValidationAndConflicts(t *testing.T) {
	s := newTestServer(t)
	planID := s.createPlan(t)
	s.addItem(t, planID, "1")

	rec, env := s.do(t, tokenPreparer, http.MethodPost, "/api/ppmp/"+planID+"/items", gin.H{
		"item_no":            "2",
		"category":           "GOODS",
		"description":        "Cement",
		"quantity":           -1,
		"unit":               "bag",
		"unit_cost":          "10",
		"procurement_method": "SHOPPING",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	require.NotNil(t, env.Error)
	require.Len(t, env.Error.Errors, 1)
	assert.Equal(t, "quantity", env.Error.Errors[0].Field)

	rec, env = s.do(t, tokenPreparer, http.MethodPost, "/api/ppmp/"+planID+"/items", gin.H{
		"item_no":            "1",
		"category":           "GOODS",
		"description":        "Cement",
		"quantity":           1,
		"unit":               "bag",
		"unit_cost":          "10",
		"procurement_method": "SHOPPING",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "item number already exists in this PPMP", env.Error.Message)

	rec, _ = s.do(t, tokenPreparer, http.MethodPost, "/api/ppmp/"+planID+"/items", "not an object")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestReportsAndReference(t *testing.T) {
	s := newTestServer(t)
	planID := s.createPlan(t)
	s.addItem(t, planID, "1")

	rec, env := s.do(t, tokenApprover, http.MethodGet, "/api/reports/ppmp?fiscal_year=2026&department_id=all", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var report struct {
		Summary struct {
			TotalPPMP int64 `json:"total_ppmp"`
		} `json:"summary"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &report))
	assert.Equal(t, int64(1), report.Summary.TotalPPMP)

	rec, env = s.do(t, tokenApprover, http.MethodGet, "/api/reports/ppmp?fiscal_year=abc", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "year", env.Error.Errors[0].Field)

	rec, _ = s.do(t, tokenPreparer, http.MethodGet, "/api/ppmp/stats", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, _ = s.do(t, tokenPreparer, http.MethodGet, "/api/ppmp/pending-approvals", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, env = s.do(t, tokenPreparer, http.MethodGet, "/api/departments", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var departments []referencedomain.Department
	require.NoError(t, json.Unmarshal(env.Data, &departments))
	assert.Len(t, departments, 2)

	rec, env = s.do(t, tokenPreparer, http.MethodGet, "/api/disbursements/search?q=asphalt", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var vouchers []disbursementdomain.Voucher
	require.NoError(t, json.Unmarshal(env.Data, &vouchers))
	require.Len(t, vouchers, 1)
	assert.Equal(t, "DV-2026-0001", vouchers[0].ID)
}

func TestExportPlanPDF(t *testing.T) {
	s := newTestServer(t)
	planID := s.createPlan(t)
	s.addItem(t, planID, "1")

	rec, _ := s.do(t, tokenPreparer, http.MethodGet, "/api/ppmp/"+planID+"/export.pdf", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, export.ContentTypePDF, rec.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="ppmp-road-maintenance-2026-2026.pdf"`, rec.Header().Get("Content-Disposition"))
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF")))

	rec, _ = s.do(t, tokenOutsider, http.MethodGet, "/api/ppmp/"+planID+"/export.pdf", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestUnknownRoute(t *testing.T) {
	s := newTestServer(t)
	rec, env := s.do(t, tokenPreparer, http.MethodGet, "/api/nothing-here", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "not_found", env.Error.Type)
}
