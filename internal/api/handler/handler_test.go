package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Cyoyuu/UMass-SmartDine-Finder/internal/dining"
	"github.com/Cyoyuu/UMass-SmartDine-Finder/internal/dto"
	"github.com/Cyoyuu/UMass-SmartDine-Finder/internal/service"
	apperrors "github.com/Cyoyuu/UMass-SmartDine-Finder/pkg/errors"
	"github.com/Cyoyuu/UMass-SmartDine-Finder/pkg/jwt"
	"github.com/Cyoyuu/UMass-SmartDine-Finder/pkg/response"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// ═══════════════════════════════════════════════════════════
// Mock Services
// ═══════════════════════════════════════════════════════════

// ── Mock AuthService ──

type mockAuthService struct {
	tokenResult  *dto.TokenResponse
	err          error
	meResult     *dto.UserDetailResponse
	logoutClaims *jwt.Claims
	logoutToken  string
}

func (m *mockAuthService) Register(_ context.Context, _ *dto.RegisterRequest) (*dto.TokenResponse, error) {
	return m.tokenResult, m.err
}
func (m *mockAuthService) Login(_ context.Context, _ *dto.LoginRequest) (*dto.TokenResponse, error) {
	return m.tokenResult, m.err
}
func (m *mockAuthService) Refresh(_ context.Context, _ string) (*dto.TokenResponse, error) {
	return m.tokenResult, m.err
}
func (m *mockAuthService) Logout(_ context.Context, claims *jwt.Claims, refresh string) error {
	m.logoutClaims = claims
	m.logoutToken = refresh
	return m.err
}
func (m *mockAuthService) Me(_ context.Context, _ string) (*dto.UserDetailResponse, error) {
	return m.meResult, m.err
}

// ── Mock PreferenceService ──

type mockPreferenceService struct {
	result *dto.PreferenceResponse
	err    error
}

func (m *mockPreferenceService) Get(_ context.Context, _ string) (*dto.PreferenceResponse, error) {
	return m.result, m.err
}
func (m *mockPreferenceService) Save(_ context.Context, _ string, _ *dto.SavePreferenceRequest) (*dto.PreferenceResponse, error) {
	return m.result, m.err
}
func (m *mockPreferenceService) Skip(_ context.Context, _ string) (*dto.PreferenceResponse, error) {
	return m.result, m.err
}
func (m *mockPreferenceService) Raw(_ context.Context, _ string) ([]byte, error) {
	return nil, m.err
}

// ── Mock MenuService / CalendarService / MenuCatalog ──

type mockMenuService struct {
	listResult *dto.HallListResponse
	menus      []dining.HallMenu
	hall       *dto.HallResponse
	created    bool
	err        error
	userID     string // FilteredMenu 收到的 userID
}

func (m *mockMenuService) ListHalls(_ context.Context) (*dto.HallListResponse, error) {
	return m.listResult, m.err
}
func (m *mockMenuService) FilteredMenu(_ context.Context, userID string) ([]dining.HallMenu, error) {
	m.userID = userID
	return m.menus, m.err
}
func (m *mockMenuService) GetHall(_ context.Context, _ string) (*dto.HallResponse, error) {
	return m.hall, m.err
}
func (m *mockMenuService) UpsertHall(_ context.Context, _ string, _ *dto.UpsertHallRequest) (*dto.HallResponse, bool, error) {
	return m.hall, m.created, m.err
}
func (m *mockMenuService) DeleteHall(_ context.Context, _ string) error {
	return m.err
}

type mockCalendarService struct {
	data []byte
	err  error
	days int
}

func (m *mockCalendarService) HallCalendar(_ context.Context, _ string, days int) ([]byte, string, error) {
	m.days = days
	return m.data, "worcester.ics", m.err
}

type mockCatalog struct {
	snap *service.MenuSnapshot
	err  error
}

func (m *mockCatalog) Snapshot(_ context.Context) (*service.MenuSnapshot, error) { return m.snap, m.err }
func (m *mockCatalog) Refresh(_ context.Context) (*service.MenuSnapshot, error)  { return m.snap, m.err }
func (m *mockCatalog) Invalidate(_ context.Context) error                        { return m.err }

// ── Mock RecommendationService / ExportService ──

type mockRecommendationService struct {
	result *dining.Recommendation
	err    error
	userID string
	query  *dto.RecommendationQuery
}

func (m *mockRecommendationService) Recommend(_ context.Context, userID string, q *dto.RecommendationQuery) (*dining.Recommendation, error) {
	m.userID = userID
	m.query = q
	return m.result, m.err
}

type mockExportService struct {
	buf *bytes.Buffer
	err error
}

func (m *mockExportService) ExportRecommendations(_ context.Context, _ string, _ *dto.RecommendationQuery) (*bytes.Buffer, string, error) {
	return m.buf, "smartdine_lunch.xlsx", m.err
}

// ── Mock ReviewService ──

type mockReviewService struct {
	review *dto.ReviewResponse
	page   *dto.PageResult[dto.ReviewResponse]
	err    error
}

func (m *mockReviewService) Submit(_ context.Context, _, _ string, _ *dto.SubmitReviewRequest) (*dto.ReviewResponse, error) {
	return m.review, m.err
}
func (m *mockReviewService) ListByHall(_ context.Context, _ string, _ *dto.PaginationRequest) (*dto.PageResult[dto.ReviewResponse], error) {
	return m.page, m.err
}
func (m *mockReviewService) ListMine(_ context.Context, _ string) ([]dto.ReviewResponse, error) {
	return nil, m.err
}
func (m *mockReviewService) Delete(_ context.Context, _, _ string) error { return m.err }
func (m *mockReviewService) Ratings(_ context.Context) ([]dto.HallRatingResponse, error) {
	return nil, m.err
}

// ── Mock MealHistoryService ──

type mockHistoryService struct {
	record *dto.MealHistoryResponse
	page   *dto.PageResult[dto.MealHistoryResponse]
	err    error
}

func (m *mockHistoryService) Record(_ context.Context, _ string, _ *dto.RecordMealRequest) (*dto.MealHistoryResponse, error) {
	return m.record, m.err
}
func (m *mockHistoryService) List(_ context.Context, _ string, _ *dto.MealHistoryQuery) (*dto.PageResult[dto.MealHistoryResponse], error) {
	return m.page, m.err
}
func (m *mockHistoryService) Delete(_ context.Context, _, _ string) error { return m.err }

// ── Mock UserService ──

type mockUserService struct {
	page *dto.PageResult[dto.UserListItem]
	err  error
}

func (m *mockUserService) List(_ context.Context, _ *dto.UserListRequest) (*dto.PageResult[dto.UserListItem], error) {
	return m.page, m.err
}
func (m *mockUserService) AssignRole(_ context.Context, _ string, _ *dto.AssignRoleRequest, _ string) error {
	return m.err
}

// ═══════════════════════════════════════════════════════════
// Test Helpers
// ═══════════════════════════════════════════════════════════

func withAuth(c *gin.Context) {
	c.Set("user_id", "test-user-id")
	c.Set("role", "admin")
	c.Set("claims", &jwt.Claims{UserID: "test-user-id", Role: "admin", TokenType: jwt.TokenTypeAccess})
	c.Next()
}

func jsonBody(v interface{}) io.Reader {
	b, _ := json.Marshal(v)
	return bytes.NewReader(b)
}

func parseResponse(w *httptest.ResponseRecorder) response.Response {
	var resp response.Response
	json.Unmarshal(w.Body.Bytes(), &resp)
	return resp
}

// serve 注册单个路由并执行请求
func serve(method, route, target string, body io.Reader, handlers ...gin.HandlerFunc) *httptest.ResponseRecorder {
	r := gin.New()
	r.Handle(method, route, handlers...)
	req := httptest.NewRequest(method, target, body)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func expect(t *testing.T, w *httptest.ResponseRecorder, status, code int) {
	t.Helper()
	if w.Code != status {
		t.Errorf("expected %d, got %d (%s)", status, w.Code, w.Body.String())
	}
	if resp := parseResponse(w); resp.Code != code {
		t.Errorf("expected code %d, got %d", code, resp.Code)
	}
}

// ═══════════════════════════════════════════════════════════
// AuthHandler Tests
// ═══════════════════════════════════════════════════════════

func TestAuthHandler_Login_Success(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{tokenResult: &dto.TokenResponse{AccessToken: "a", RefreshToken: "r", ExpiresIn: 900}})
	w := serve("POST", "/auth/login", "/auth/login", jsonBody(dto.LoginRequest{Username: "alice", Password: "password123"}), h.Login)
	expect(t, w, http.StatusOK, 0)
}

func TestAuthHandler_Login_BadJSON(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{})
	w := serve("POST", "/auth/login", "/auth/login", bytes.NewReader([]byte("invalid json")), h.Login)
	expect(t, w, http.StatusBadRequest, 10001)
}

func TestAuthHandler_ErrorMapping(t *testing.T) {
	tests := []struct {
		err    error
		status int
		code   int
	}{
		{service.ErrInvalidCredentials, http.StatusUnauthorized, 11001},
		{service.ErrUsernameTaken, http.StatusConflict, 11002},
		{service.ErrEmailTaken, http.StatusConflict, 11003},
		{service.ErrRegistrationClosed, http.StatusForbidden, 11004},
		{errors.New("db down"), http.StatusInternalServerError, 50000},
	}
	for _, tt := range tests {
		h := NewAuthHandler(&mockAuthService{err: tt.err})
		w := serve("POST", "/auth/register", "/auth/register", jsonBody(dto.RegisterRequest{
			Username: "alice", Email: "alice@umass.edu", Password: "password123",
		}), h.Register)
		expect(t, w, tt.status, tt.code)
	}
}

func TestAuthHandler_Register_Validation(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{})
	w := serve("POST", "/auth/register", "/auth/register", jsonBody(dto.RegisterRequest{
		Username: "al", Email: "not-an-email", Password: "short",
	}), h.Register)
	expect(t, w, http.StatusBadRequest, 10001)
}

func TestAuthHandler_Refresh_Invalid(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{err: service.ErrInvalidRefreshToken})
	w := serve("POST", "/auth/refresh", "/auth/refresh", jsonBody(dto.RefreshTokenRequest{RefreshToken: "x"}), h.RefreshToken)
	expect(t, w, http.StatusUnauthorized, 11005)
}

func TestAuthHandler_Logout_PassesClaims(t *testing.T) {
	mock := &mockAuthService{}
	h := NewAuthHandler(mock)
	w := serve("POST", "/auth/logout", "/auth/logout", jsonBody(dto.LogoutRequest{RefreshToken: "r"}), withAuth, h.Logout)
	expect(t, w, http.StatusOK, 0)
	if mock.logoutClaims == nil || mock.logoutToken != "r" {
		t.Errorf("登出应携带当前 claims 与 refresh token，实际 %+v %q", mock.logoutClaims, mock.logoutToken)
	}
}

func TestAuthHandler_Me_Unauthenticated(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{})
	w := serve("GET", "/auth/me", "/auth/me", nil, h.Me)
	expect(t, w, http.StatusUnauthorized, 10002)
}

// ═══════════════════════════════════════════════════════════
// PreferenceHandler Tests
// ═══════════════════════════════════════════════════════════

func TestPreferenceHandler_Save(t *testing.T) {
	h := NewPreferenceHandler(&mockPreferenceService{result: &dto.PreferenceResponse{Completed: true}})
	w := serve("PUT", "/preferences", "/preferences", jsonBody(map[string]interface{}{"dietCategories": []string{"vegan"}}), withAuth, h.Save)
	expect(t, w, http.StatusOK, 0)

	h = NewPreferenceHandler(&mockPreferenceService{err: service.ErrInvalidPreference})
	w = serve("PUT", "/preferences", "/preferences", jsonBody(map[string]interface{}{"excludedAllergens": []string{"eggs"}}), withAuth, h.Save)
	expect(t, w, http.StatusBadRequest, 12001)
}

func TestPreferenceHandler_NegativeCalorieLimit(t *testing.T) {
	h := NewPreferenceHandler(&mockPreferenceService{})
	w := serve("PUT", "/preferences", "/preferences", jsonBody(map[string]interface{}{"calorieLimit": -5}), withAuth, h.Save)
	expect(t, w, http.StatusBadRequest, 10001)
}

// ═══════════════════════════════════════════════════════════
// MenuHandler / AdminHandler Tests
// ═══════════════════════════════════════════════════════════

func TestMenuHandler_ListHalls_Unavailable(t *testing.T) {
	h := NewMenuHandler(&mockMenuService{err: service.ErrMenuUnavailable}, &mockCalendarService{})
	w := serve("GET", "/halls", "/halls", nil, h.ListHalls)
	expect(t, w, http.StatusServiceUnavailable, 13006)
}

func TestMenuHandler_GetHall_NotFound(t *testing.T) {
	h := NewMenuHandler(&mockMenuService{err: service.ErrHallNotFound}, &mockCalendarService{})
	w := serve("GET", "/halls/:name", "/halls/Nowhere", nil, h.GetHall)
	expect(t, w, http.StatusNotFound, 13001)
}

func TestMenuHandler_FilteredMenu_Anonymous(t *testing.T) {
	mock := &mockMenuService{menus: []dining.HallMenu{}}
	h := NewMenuHandler(mock, &mockCalendarService{})
	w := serve("GET", "/menus", "/menus", nil, h.FilteredMenu)
	expect(t, w, http.StatusOK, 0)
	if mock.userID != "" {
		t.Errorf("匿名请求不应带 userID，实际 %q", mock.userID)
	}
}

func TestMenuHandler_HallCalendar(t *testing.T) {
	cal := &mockCalendarService{data: []byte("BEGIN:VCALENDAR\r\nEND:VCALENDAR\r\n")}
	h := NewMenuHandler(&mockMenuService{}, cal)

	w := serve("GET", "/halls/:name/calendar", "/halls/Worcester/calendar?days=3", nil, h.HallCalendar)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "text/calendar; charset=utf-8" {
		t.Errorf("unexpected content type %q", ct)
	}
	if cal.days != 3 {
		t.Errorf("days 应透传，实际 %d", cal.days)
	}

	w = serve("GET", "/halls/:name/calendar", "/halls/Worcester/calendar?days=abc", nil, h.HallCalendar)
	expect(t, w, http.StatusBadRequest, 10001)

	h = NewMenuHandler(&mockMenuService{}, &mockCalendarService{err: service.ErrInvalidCalendarRange})
	w = serve("GET", "/halls/:name/calendar", "/halls/Worcester/calendar?days=99", nil, h.HallCalendar)
	expect(t, w, http.StatusBadRequest, 14003)
}

func TestAdminHandler_UpsertHall(t *testing.T) {
	body := dto.UpsertHallRequest{Name: "Berkshire", Hours: "07:00-21:00"}

	h := NewAdminHandler(&mockMenuService{hall: &dto.HallResponse{Name: "Berkshire"}, created: true}, &mockCatalog{})
	w := serve("PUT", "/admin/halls", "/admin/halls", jsonBody(body), withAuth, h.UpsertHall)
	expect(t, w, http.StatusCreated, 0)

	h = NewAdminHandler(&mockMenuService{hall: &dto.HallResponse{Name: "Berkshire"}}, &mockCatalog{})
	w = serve("PUT", "/admin/halls", "/admin/halls", jsonBody(body), withAuth, h.UpsertHall)
	expect(t, w, http.StatusOK, 0)

	tests := []struct {
		err    error
		status int
		code   int
	}{
		{service.ErrInvalidHours, http.StatusBadRequest, 13002},
		{service.ErrInvalidMealKey, http.StatusBadRequest, 13003},
		{service.ErrInvalidMeals, http.StatusBadRequest, 13004},
		{apperrors.ErrOptimisticLock, http.StatusConflict, 13005},
	}
	for _, tt := range tests {
		h = NewAdminHandler(&mockMenuService{err: tt.err}, &mockCatalog{})
		w = serve("PUT", "/admin/halls", "/admin/halls", jsonBody(body), withAuth, h.UpsertHall)
		expect(t, w, tt.status, tt.code)
	}
}

func TestAdminHandler_RefreshCache(t *testing.T) {
	snap := &service.MenuSnapshot{Halls: make([]dining.DiningHall, 4), LoadedAt: time.Date(2024, 9, 10, 12, 0, 0, 0, time.UTC)}
	h := NewAdminHandler(&mockMenuService{}, &mockCatalog{snap: snap})
	w := serve("POST", "/admin/cache/refresh", "/admin/cache/refresh", nil, withAuth, h.RefreshCache)
	expect(t, w, http.StatusOK, 0)

	data, _ := json.Marshal(parseResponse(w).Data)
	var status dto.CacheStatusResponse
	json.Unmarshal(data, &status)
	if status.Halls != 4 || status.LoadedAt != "2024-09-10T12:00:00Z" {
		t.Errorf("unexpected cache status %+v", status)
	}
}

// ═══════════════════════════════════════════════════════════
// RecommendationHandler Tests
// ═══════════════════════════════════════════════════════════

func TestRecommendationHandler_Recommend(t *testing.T) {
	mock := &mockRecommendationService{result: &dining.Recommendation{Slot: dining.MealLunch, Halls: []dining.HallRecommendation{}}}
	h := NewRecommendationHandler(mock, &mockExportService{})

	w := serve("GET", "/recommendations", "/recommendations?slot=lunch&limit=3", nil, withAuth, h.Recommend)
	expect(t, w, http.StatusOK, 0)
	if mock.userID != "test-user-id" || mock.query.Slot != "lunch" || mock.query.Limit != 3 {
		t.Errorf("查询参数应透传，实际 user=%q query=%+v", mock.userID, mock.query)
	}
}

func TestRecommendationHandler_BadQuery(t *testing.T) {
	h := NewRecommendationHandler(&mockRecommendationService{}, &mockExportService{})
	w := serve("GET", "/recommendations", "/recommendations?slot=brunch", nil, h.Recommend)
	expect(t, w, http.StatusBadRequest, 10001)

	h = NewRecommendationHandler(&mockRecommendationService{err: service.ErrInvalidQuery}, &mockExportService{})
	w = serve("GET", "/recommendations", "/recommendations?at=nope", nil, h.Recommend)
	expect(t, w, http.StatusBadRequest, 14001)
}

func TestRecommendationHandler_Export(t *testing.T) {
	h := NewRecommendationHandler(&mockRecommendationService{}, &mockExportService{buf: bytes.NewBufferString("xlsx")})
	w := serve("GET", "/recommendations/export", "/recommendations/export", nil, h.Export)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if cd := w.Header().Get("Content-Disposition"); cd != "attachment; filename*=UTF-8''smartdine_lunch.xlsx" {
		t.Errorf("unexpected Content-Disposition %q", cd)
	}

	h = NewRecommendationHandler(&mockRecommendationService{}, &mockExportService{err: service.ErrExportGenerateFail})
	w = serve("GET", "/recommendations/export", "/recommendations/export", nil, h.Export)
	expect(t, w, http.StatusInternalServerError, 14002)
}

// ═══════════════════════════════════════════════════════════
// ReviewHandler / HistoryHandler Tests
// ═══════════════════════════════════════════════════════════

func TestReviewHandler_Submit(t *testing.T) {
	h := NewReviewHandler(&mockReviewService{review: &dto.ReviewResponse{Rating: 4}})
	w := serve("POST", "/halls/:name/reviews", "/halls/Franklin/reviews", jsonBody(dto.SubmitReviewRequest{Rating: 4}), withAuth, h.Submit)
	expect(t, w, http.StatusOK, 0)

	w = serve("POST", "/halls/:name/reviews", "/halls/Franklin/reviews", jsonBody(dto.SubmitReviewRequest{Rating: 9}), withAuth, h.Submit)
	expect(t, w, http.StatusBadRequest, 10001)

	w = serve("POST", "/halls/:name/reviews", "/halls/Franklin/reviews",
		jsonBody(dto.SubmitReviewRequest{Rating: 3, FoodPreferences: []string{"keto"}}), withAuth, h.Submit)
	expect(t, w, http.StatusBadRequest, 10001)

	h = NewReviewHandler(&mockReviewService{err: service.ErrHallNotFound})
	w = serve("POST", "/halls/:name/reviews", "/halls/Nowhere/reviews", jsonBody(dto.SubmitReviewRequest{Rating: 4}), withAuth, h.Submit)
	expect(t, w, http.StatusNotFound, 13001)
}

func TestReviewHandler_ListByHall_Paged(t *testing.T) {
	h := NewReviewHandler(&mockReviewService{page: &dto.PageResult[dto.ReviewResponse]{
		List: []dto.ReviewResponse{{Rating: 5}}, Total: 21, Page: 2, PageSize: 20,
	}})
	w := serve("GET", "/halls/:name/reviews", "/halls/Franklin/reviews?page=2", nil, h.ListByHall)
	expect(t, w, http.StatusOK, 0)

	data, _ := json.Marshal(parseResponse(w).Data)
	var page response.PageData
	json.Unmarshal(data, &page)
	if page.Pagination.TotalPages != 2 || page.Pagination.Total != 21 {
		t.Errorf("unexpected pagination %+v", page.Pagination)
	}
}

func TestReviewHandler_Delete_NotFound(t *testing.T) {
	h := NewReviewHandler(&mockReviewService{err: service.ErrReviewNotFound})
	w := serve("DELETE", "/halls/:name/reviews", "/halls/Franklin/reviews", nil, withAuth, h.Delete)
	expect(t, w, http.StatusNotFound, 15004)
}

func TestHistoryHandler_Record(t *testing.T) {
	valid := dto.RecordMealRequest{Date: "2024-09-09", Slot: "lunch", HallName: "Worcester", Items: []string{"Burger"}}

	h := NewHistoryHandler(&mockHistoryService{record: &dto.MealHistoryResponse{TotalCalories: 700}})
	w := serve("POST", "/history", "/history", jsonBody(valid), withAuth, h.Record)
	expect(t, w, http.StatusOK, 0)

	bad := valid
	bad.Date = "09/09/2024"
	w = serve("POST", "/history", "/history", jsonBody(bad), withAuth, h.Record)
	expect(t, w, http.StatusBadRequest, 10001)

	tests := []struct {
		err    error
		status int
		code   int
	}{
		{service.ErrMealDateInFuture, http.StatusBadRequest, 16002},
		{service.ErrItemNotOnMenu, http.StatusBadRequest, 16003},
		{service.ErrHallNotFound, http.StatusNotFound, 13001},
	}
	for _, tt := range tests {
		h = NewHistoryHandler(&mockHistoryService{err: tt.err})
		w = serve("POST", "/history", "/history", jsonBody(valid), withAuth, h.Record)
		expect(t, w, tt.status, tt.code)
	}
}

func TestHistoryHandler_Delete_NotFound(t *testing.T) {
	h := NewHistoryHandler(&mockHistoryService{err: service.ErrMealHistoryMissing})
	w := serve("DELETE", "/history/:id", "/history/abc", nil, withAuth, h.Delete)
	expect(t, w, http.StatusNotFound, 16004)
}

// ═══════════════════════════════════════════════════════════
// UserHandler Tests
// ═══════════════════════════════════════════════════════════

func TestUserHandler_ListUsers(t *testing.T) {
	h := NewUserHandler(&mockUserService{page: &dto.PageResult[dto.UserListItem]{List: []dto.UserListItem{}, Page: 1, PageSize: 20}})
	w := serve("GET", "/admin/users", "/admin/users?role=student", nil, withAuth, h.ListUsers)
	expect(t, w, http.StatusOK, 0)

	w = serve("GET", "/admin/users", "/admin/users?role=leader", nil, withAuth, h.ListUsers)
	expect(t, w, http.StatusBadRequest, 10001)
}

func TestUserHandler_AssignRole(t *testing.T) {
	body := dto.AssignRoleRequest{Role: "admin"}
	tests := []struct {
		err    error
		status int
		code   int
	}{
		{nil, http.StatusOK, 0},
		{service.ErrUserSelfRoleChange, http.StatusForbidden, 11007},
		{service.ErrUserNotFound, http.StatusNotFound, 11006},
	}
	for _, tt := range tests {
		h := NewUserHandler(&mockUserService{err: tt.err})
		w := serve("PUT", "/admin/users/:id/role", "/admin/users/u-2/role", jsonBody(body), withAuth, h.AssignRole)
		expect(t, w, tt.status, tt.code)
	}
}
