package approval_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"people-desk/internal/approval"
	approvalerrors "people-desk/internal/approval/errors"
	approvalMock "people-desk/internal/approval/mock"
	"people-desk/internal/identity"
	"people-desk/internal/rbac"
	"people-desk/internal/shared/apperror"
	"people-desk/internal/shared/response"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func setupApprovalRouter(caller *identity.Identity) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	if caller != nil {
		r.Use(func(c *gin.Context) {
			c.Set(identity.GinKey, *caller)
			c.Next()
		})
	}
	return r
}

func TestHandler_Submit(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockService := approvalMock.NewMockService(ctrl)
	handler := approval.NewHandler(approval.KindLeave, mockService, time.UTC)
	caller := employee()
	router := setupApprovalRouter(&caller)
	router.POST("/leaves", handler.Submit)

	t.Run("success", func(t *testing.T) {
		reqBody := approval.SubmitRequest{Reason: "Trip", FromDate: "2024-03-20", ToDate: "2024-03-21"}
		body, _ := json.Marshal(reqBody)

		mockService.EXPECT().
			Submit(gomock.Any(), approval.KindLeave, caller, reqBody).
			Return(approval.RequestResponse{ID: "r-1", Status: "PENDING"}, nil)

		req := httptest.NewRequest(http.MethodPost, "/leaves", bytes.NewBuffer(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusCreated, w.Code)
		assert.Contains(t, w.Body.String(), `"status":"PENDING"`)
	})

	t.Run("negative malformed json", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/leaves", bytes.NewBufferString(`{"reason":`))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestHandler_MissingIdentity(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockService := approvalMock.NewMockService(ctrl)
	handler := approval.NewHandler(approval.KindLeave, mockService, time.UTC)
	router := setupApprovalRouter(nil)
	router.GET("/leaves/my", handler.ListMine)

	req := httptest.NewRequest(http.MethodGet, "/leaves/my", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestHandler_Decide(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockService := approvalMock.NewMockService(ctrl)
	handler := approval.NewHandler(approval.KindPermission, mockService, time.UTC)
	hr := approver(rbac.RoleHR)
	router := setupApprovalRouter(&hr)
	router.PATCH("/permissions/hr/:id", handler.Decide(approval.StageHR))

	t.Run("success", func(t *testing.T) {
		mockService.EXPECT().
			Decide(gomock.Any(), approval.KindPermission, approval.StageHR, hr, "abc", "APPROVED").
			Return(approval.RequestResponse{ID: "abc", Status: "APPROVED"}, nil)

		req := httptest.NewRequest(http.MethodPatch, "/permissions/hr/abc", bytes.NewBufferString(`{"decision":"APPROVED"}`))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("negative ceo first maps to conflict", func(t *testing.T) {
		mockService.EXPECT().
			Decide(gomock.Any(), approval.KindPermission, approval.StageHR, hr, "abc", "REJECTED").
			Return(approval.RequestResponse{}, approvalerrors.ErrCEODecisionRequired)

		req := httptest.NewRequest(http.MethodPatch, "/permissions/hr/abc", bytes.NewBufferString(`{"decision":"REJECTED"}`))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Contains(t, w.Body.String(), approvalerrors.CodeCEODecisionRequired)
		assert.Contains(t, w.Body.String(), `"kind":"PRECONDITION_FAILED"`)
	})

	t.Run("negative decision outside enum skips service", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPatch, "/permissions/hr/abc", bytes.NewBufferString(`{"decision":"MAYBE"}`))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestHandler_DecideLogsConflictsAtInfo(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockService := approvalMock.NewMockService(ctrl)
	core, logs := observer.New(zap.InfoLevel)
	handler := approval.NewHandler(approval.KindLeave, mockService, time.UTC, zap.New(core))
	ceo := approver(rbac.RoleCEO)
	router := setupApprovalRouter(&ceo)
	router.PATCH("/leaves/ceo/:id", handler.Decide(approval.StageCEO))

	decide := func() int {
		req := httptest.NewRequest(http.MethodPatch, "/leaves/ceo/abc", bytes.NewBufferString(`{"decision":"APPROVED"}`))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w.Code
	}

	t.Run("concurrent decision", func(t *testing.T) {
		mockService.EXPECT().
			Decide(gomock.Any(), approval.KindLeave, approval.StageCEO, ceo, "abc", "APPROVED").
			Return(approval.RequestResponse{}, approvalerrors.ErrConcurrentDecision)

		assert.Equal(t, http.StatusConflict, decide())

		entries := logs.TakeAll()
		assert.Len(t, entries, 1)
		assert.Equal(t, zapcore.InfoLevel, entries[0].Level)
		assert.Equal(t, approvalerrors.CodeConcurrentDecision, entries[0].ContextMap()["code"])
		assert.Equal(t, apperror.CodePreconditionFailed, entries[0].ContextMap()["error_kind"])
	})

	t.Run("not found stays a warning", func(t *testing.T) {
		mockService.EXPECT().
			Decide(gomock.Any(), approval.KindLeave, approval.StageCEO, ceo, "abc", "APPROVED").
			Return(approval.RequestResponse{}, approvalerrors.ErrRequestNotFound)

		assert.Equal(t, http.StatusNotFound, decide())

		entries := logs.TakeAll()
		assert.Len(t, entries, 1)
		assert.Equal(t, zapcore.WarnLevel, entries[0].Level)
		assert.NotContains(t, entries[0].ContextMap(), "error_kind")
	})
}

func TestHandler_ListPending(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockService := approvalMock.NewMockService(ctrl)
	handler := approval.NewHandler(approval.KindLeave, mockService, time.UTC)
	ceo := approver(rbac.RoleCEO)
	router := setupApprovalRouter(&ceo)
	router.GET("/leaves/ceo/requests", handler.ListPending(approval.StageCEO))
	router.GET("/leaves/ceo/today-requests", handler.ListToday(approval.StageCEO, false))

	items := make([]approval.RequestResponse, 12)
	for i := range items {
		items[i] = approval.RequestResponse{ID: string(rune('a' + i))}
	}

	t.Run("success paginates", func(t *testing.T) {
		mockService.EXPECT().
			ListPending(gomock.Any(), approval.KindLeave, approval.StageCEO, approval.ScopeQuery{Scope: approval.ScopeAll, Location: time.UTC}).
			Return(items, nil)

		req := httptest.NewRequest(http.MethodGet, "/leaves/ceo/requests?scope=all&page=2&page_size=5", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		var env struct {
			Data []approval.RequestResponse `json:"data"`
			Meta response.PaginationMeta    `json:"meta"`
		}
		assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
		assert.Len(t, env.Data, 5)
		assert.Equal(t, "f", env.Data[0].ID)
		assert.Equal(t, int64(12), env.Meta.Total)
		assert.Equal(t, 3, env.Meta.TotalPages)
	})

	t.Run("success timezone reaches service", func(t *testing.T) {
		jakarta, _ := time.LoadLocation("Asia/Jakarta")
		mockService.EXPECT().
			ListPending(gomock.Any(), approval.KindLeave, approval.StageCEO, gomock.Any()).
			DoAndReturn(func(_ any, _ approval.Kind, _ approval.Stage, q approval.ScopeQuery) ([]approval.RequestResponse, error) {
				assert.Equal(t, approval.ScopeToday, q.Scope)
				assert.Equal(t, jakarta.String(), q.Location.String())
				return []approval.RequestResponse{}, nil
			})

		req := httptest.NewRequest(http.MethodGet, "/leaves/ceo/requests?tz=Asia/Jakarta", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("success today alias ignores scope=all", func(t *testing.T) {
		mockService.EXPECT().
			ListPending(gomock.Any(), approval.KindLeave, approval.StageCEO, approval.ScopeQuery{Scope: approval.ScopeToday, Location: time.UTC}).
			Return(nil, nil)

		req := httptest.NewRequest(http.MethodGet, "/leaves/ceo/today-requests?scope=all", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("negative invalid scope", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/leaves/ceo/requests?scope=week", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("negative invalid timezone", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/leaves/ceo/requests?tz=Mars/Base", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestHandler_Report(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockService := approvalMock.NewMockService(ctrl)
	handler := approval.NewHandler(approval.KindLeave, mockService, time.UTC)
	hr := approver(rbac.RoleHR)
	router := setupApprovalRouter(&hr)
	router.GET("/leaves/hr/report", handler.Report)

	t.Run("success csv attachment", func(t *testing.T) {
		mockService.EXPECT().
			MonthlyReport(gomock.Any(), approval.KindLeave, "2024-03").
			Return(approval.Report{
				Kind:   approval.KindLeave,
				Month:  "2024-03",
				Header: []string{"Employee Name", "From", "To"},
				Rows:   [][]string{{"Doe, Jane", "2024-03-04", "2024-03-05"}},
			}, nil)

		req := httptest.NewRequest(http.MethodGet, "/leaves/hr/report?month=2024-03", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Header().Get("Content-Type"), "text/csv")
		assert.Contains(t, w.Header().Get("Content-Disposition"), "leave-report-2024-03.csv")
		assert.Equal(t, "Employee Name,From,To\n\"Doe, Jane\",2024-03-04,2024-03-05\n", w.Body.String())
	})

	t.Run("negative missing month", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/leaves/hr/report", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("negative bad month from service", func(t *testing.T) {
		mockService.EXPECT().
			MonthlyReport(gomock.Any(), approval.KindLeave, "2024-13").
			Return(approval.Report{}, approvalerrors.ErrInvalidMonth)

		req := httptest.NewRequest(http.MethodGet, "/leaves/hr/report?month=2024-13", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}
