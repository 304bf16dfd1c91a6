package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/Cyoyuu/UMass-SmartDine-Finder/config"
	"github.com/Cyoyuu/UMass-SmartDine-Finder/internal/dining"
	"github.com/Cyoyuu/UMass-SmartDine-Finder/internal/model"
	"github.com/Cyoyuu/UMass-SmartDine-Finder/internal/repository"
	apperrors "github.com/Cyoyuu/UMass-SmartDine-Finder/pkg/errors"
	"github.com/Cyoyuu/UMass-SmartDine-Finder/pkg/jwt"
)

// ── Mock UserRepository ──

type mockUserRepo struct {
	users map[string]*model.User // key: user_id
	seq   int
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[string]*model.User)}
}

func (m *mockUserRepo) Create(_ context.Context, user *model.User) error {
	if user.UserID == "" {
		m.seq++
		user.UserID = fmt.Sprintf("user-%d", m.seq)
	}
	user.CreatedAt = time.Now()
	m.users[user.UserID] = user
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id string) (*model.User, error) {
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) GetByUsername(_ context.Context, username string) (*model.User, error) {
	for _, u := range m.users {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) Update(_ context.Context, user *model.User) error {
	m.users[user.UserID] = user
	return nil
}

func (m *mockUserRepo) List(_ context.Context, filter repository.UserFilter, offset, limit int) ([]model.User, int64, error) {
	var matched []model.User
	for _, u := range m.users {
		if filter.Role != "" && u.Role != filter.Role {
			continue
		}
		if filter.Keyword != "" && !strings.Contains(u.Username, filter.Keyword) && !strings.Contains(u.Email, filter.Keyword) {
			continue
		}
		matched = append(matched, *u)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].Username < matched[j].Username })
	total := int64(len(matched))
	if offset >= len(matched) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[offset:end], total, nil
}

func (m *mockUserRepo) UpdateRole(_ context.Context, id, role, _ string) error {
	u, ok := m.users[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	u.Role = role
	return nil
}

// ── Mock DiningHallRepository ──

type mockDiningHallRepo struct {
	halls   map[string]*model.DiningHall
	listErr error
	lists   int // List 调用次数
}

func newMockDiningHallRepo() *mockDiningHallRepo {
	return &mockDiningHallRepo{halls: make(map[string]*model.DiningHall)}
}

func (m *mockDiningHallRepo) List(_ context.Context) ([]model.DiningHall, error) {
	m.lists++
	if m.listErr != nil {
		return nil, m.listErr
	}
	out := make([]model.DiningHall, 0, len(m.halls))
	for _, h := range m.halls {
		out = append(out, *h)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *mockDiningHallRepo) GetByName(_ context.Context, name string) (*model.DiningHall, error) {
	if h, ok := m.halls[name]; ok {
		cp := *h
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockDiningHallRepo) Create(_ context.Context, hall *model.DiningHall) error {
	if hall.HallID == "" {
		hall.HallID = "hall-" + hall.Name
	}
	hall.Version = 1
	cp := *hall
	m.halls[hall.Name] = &cp
	return nil
}

func (m *mockDiningHallRepo) Update(_ context.Context, hall *model.DiningHall) error {
	cur, ok := m.halls[hall.Name]
	if !ok || cur.Version != hall.Version {
		return apperrors.ErrOptimisticLock
	}
	hall.Version++
	cp := *hall
	m.halls[hall.Name] = &cp
	return nil
}

func (m *mockDiningHallRepo) Delete(_ context.Context, name string) error {
	if _, ok := m.halls[name]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(m.halls, name)
	return nil
}

// put 直接写入一条食堂记录
func (m *mockDiningHallRepo) put(t *testing.T, name, hours string, meals map[dining.MealSlot][]dining.MenuItem) {
	t.Helper()
	data, err := dining.EncodeMeals(meals)
	if err != nil {
		t.Fatalf("编码菜单失败: %v", err)
	}
	m.halls[name] = &model.DiningHall{
		HallID:         "hall-" + name,
		Name:           name,
		Hours:          hours,
		MealHours:      datatypes.JSON("{}"),
		Meals:          datatypes.JSON(data),
		VersionedModel: model.VersionedModel{Version: 1},
	}
}

// ── Mock FoodPreferenceRepository ──

type mockFoodPreferenceRepo struct {
	prefs  map[string]*model.UserFoodPreference
	getErr error
}

func newMockFoodPreferenceRepo() *mockFoodPreferenceRepo {
	return &mockFoodPreferenceRepo{prefs: make(map[string]*model.UserFoodPreference)}
}

func (m *mockFoodPreferenceRepo) GetByUserID(_ context.Context, userID string) (*model.UserFoodPreference, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	if p, ok := m.prefs[userID]; ok {
		return p, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockFoodPreferenceRepo) Upsert(_ context.Context, pref *model.UserFoodPreference) error {
	cp := *pref
	m.prefs[pref.UserID] = &cp
	return nil
}

// ── Mock ReviewRepository ──

type mockReviewRepo struct {
	reviews    map[string]*model.Review // key: user_id|hall
	ratingsErr error
	seq        int
}

func newMockReviewRepo() *mockReviewRepo {
	return &mockReviewRepo{reviews: make(map[string]*model.Review)}
}

func reviewKey(userID, hall string) string { return userID + "|" + hall }

func (m *mockReviewRepo) Upsert(_ context.Context, review *model.Review) error {
	key := reviewKey(review.UserID, review.HallName)
	if cur, ok := m.reviews[key]; ok {
		review.ReviewID = cur.ReviewID
	} else {
		m.seq++
		review.ReviewID = fmt.Sprintf("review-%d", m.seq)
	}
	review.UpdatedAt = time.Now()
	cp := *review
	m.reviews[key] = &cp
	return nil
}

func (m *mockReviewRepo) GetByUserAndHall(_ context.Context, userID, hallName string) (*model.Review, error) {
	if r, ok := m.reviews[reviewKey(userID, hallName)]; ok {
		return r, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockReviewRepo) sorted(keep func(*model.Review) bool) []model.Review {
	var out []model.Review
	for _, r := range m.reviews {
		if keep(r) {
			out = append(out, *r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ReviewID < out[j].ReviewID })
	return out
}

func (m *mockReviewRepo) ListByHall(_ context.Context, hallName string, offset, limit int) ([]model.Review, int64, error) {
	all := m.sorted(func(r *model.Review) bool { return r.HallName == hallName })
	total := int64(len(all))
	if offset >= len(all) {
		return []model.Review{}, total, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], total, nil
}

func (m *mockReviewRepo) ListByUser(_ context.Context, userID string) ([]model.Review, error) {
	return m.sorted(func(r *model.Review) bool { return r.UserID == userID }), nil
}

func (m *mockReviewRepo) Delete(_ context.Context, userID, hallName string) error {
	key := reviewKey(userID, hallName)
	if _, ok := m.reviews[key]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(m.reviews, key)
	return nil
}

func (m *mockReviewRepo) AverageRatings(_ context.Context) ([]model.HallRating, error) {
	if m.ratingsErr != nil {
		return nil, m.ratingsErr
	}
	sum := make(map[string]int)
	cnt := make(map[string]int64)
	for _, r := range m.reviews {
		sum[r.HallName] += r.Rating
		cnt[r.HallName]++
	}
	out := make([]model.HallRating, 0, len(cnt))
	for hall, n := range cnt {
		out = append(out, model.HallRating{HallName: hall, Average: float64(sum[hall]) / float64(n), Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].HallName < out[j].HallName })
	return out, nil
}

// ── Mock MealHistoryRepository ──

type mockMealHistoryRepo struct {
	rows      map[string]*model.MealHistory // key: user|date|slot
	visitsErr error
	since     time.Time // 最近一次 HallVisitCounts 的参数
	seq       int
}

func newMockMealHistoryRepo() *mockMealHistoryRepo {
	return &mockMealHistoryRepo{rows: make(map[string]*model.MealHistory)}
}

func historyKey(h *model.MealHistory) string {
	return h.UserID + "|" + h.MealDate.Format("2006-01-02") + "|" + h.MealSlot
}

func (m *mockMealHistoryRepo) Upsert(_ context.Context, h *model.MealHistory) error {
	key := historyKey(h)
	if cur, ok := m.rows[key]; ok {
		h.HistoryID = cur.HistoryID
	} else {
		m.seq++
		h.HistoryID = fmt.Sprintf("history-%d", m.seq)
	}
	cp := *h
	m.rows[key] = &cp
	return nil
}

func (m *mockMealHistoryRepo) ListByUser(_ context.Context, userID string, filter repository.MealHistoryFilter, offset, limit int) ([]model.MealHistory, int64, error) {
	var all []model.MealHistory
	for _, h := range m.rows {
		if h.UserID != userID {
			continue
		}
		if filter.From != nil && h.MealDate.Before(*filter.From) {
			continue
		}
		if filter.To != nil && h.MealDate.After(*filter.To) {
			continue
		}
		all = append(all, *h)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].MealDate.After(all[j].MealDate) })
	total := int64(len(all))
	if offset >= len(all) {
		return []model.MealHistory{}, total, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], total, nil
}

func (m *mockMealHistoryRepo) Delete(_ context.Context, userID, historyID string) error {
	for key, h := range m.rows {
		if h.HistoryID == historyID && h.UserID == userID {
			delete(m.rows, key)
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (m *mockMealHistoryRepo) HallVisitCounts(_ context.Context, userID string, since time.Time) ([]model.HallVisit, error) {
	m.since = since
	if m.visitsErr != nil {
		return nil, m.visitsErr
	}
	counts := make(map[string]int64)
	for _, h := range m.rows {
		if h.UserID == userID && !h.MealDate.Before(since) {
			counts[h.HallName]++
		}
	}
	out := make([]model.HallVisit, 0, len(counts))
	for hall, n := range counts {
		out = append(out, model.HallVisit{HallName: hall, Visits: n})
	}
	return out, nil
}

// ── Mock TokenBlacklist ──

type mockBlacklist struct {
	mu      sync.Mutex
	revoked map[string]time.Duration
}

func newMockBlacklist() *mockBlacklist {
	return &mockBlacklist{revoked: make(map[string]time.Duration)}
}

func (m *mockBlacklist) BlacklistToken(_ context.Context, jti string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.revoked[jti] = ttl
	return nil
}

func (m *mockBlacklist) IsBlacklisted(_ context.Context, jti string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.revoked[jti]
	return ok, nil
}

// ── Mock SnapshotStore ──

type mockSnapshotStore struct {
	mu      sync.Mutex
	data    []byte
	sets    int
	getErr  error
	cleared int
}

func (m *mockSnapshotStore) GetMenuSnapshot(_ context.Context) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	if m.data == nil {
		return nil, apperrors.ErrCacheMiss
	}
	return m.data, nil
}

func (m *mockSnapshotStore) SetMenuSnapshot(_ context.Context, data []byte, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = data
	m.sets++
	return nil
}

func (m *mockSnapshotStore) InvalidateMenuSnapshot(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = nil
	m.cleared++
	return nil
}

// ── 测试夹具 ──

// testRepos 持有各 mock 的具体类型，便于断言
type testRepos struct {
	user    *mockUserRepo
	hall    *mockDiningHallRepo
	pref    *mockFoodPreferenceRepo
	review  *mockReviewRepo
	history *mockMealHistoryRepo
}

func newTestRepos() (*repository.Repository, *testRepos) {
	m := &testRepos{
		user:    newMockUserRepo(),
		hall:    newMockDiningHallRepo(),
		pref:    newMockFoodPreferenceRepo(),
		review:  newMockReviewRepo(),
		history: newMockMealHistoryRepo(),
	}
	return &repository.Repository{
		User:           m.user,
		DiningHall:     m.hall,
		FoodPreference: m.pref,
		Review:         m.review,
		MealHistory:    m.history,
	}, m
}

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{Port: 8080, Timezone: "America/New_York"},
		Auth: config.AuthConfig{
			JWTSecret:               "test-secret-key-for-unit-tests",
			AccessTokenTTL:          15 * time.Minute,
			RefreshTokenTTLDefault:  24 * time.Hour,
			RefreshTokenTTLRemember: 7 * 24 * time.Hour,
		},
		Dining: config.DiningConfig{
			ReviewWeight:        2,
			HistoryWeight:       0.5,
			HistoryLookbackDays: 30,
			CacheTTL:            5 * time.Minute,
		},
		Feature: config.FeatureConfig{
			RegistrationEnabled: true,
			HistorySignal:       true,
			ReviewSignal:        true,
			AllowAnonymous:      true,
		},
	}
}

func testLocation(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Fatalf("加载时区失败: %v", err)
	}
	return loc
}

// 2024-09-10 为周二，2024-09-14 为周六
func campusTime(t *testing.T, day int, hhmm string) time.Time {
	t.Helper()
	var h, m int
	if _, err := fmt.Sscanf(hhmm, "%d:%d", &h, &m); err != nil {
		t.Fatalf("时刻格式错误 %q", hhmm)
	}
	return time.Date(2024, time.September, day, h, m, 0, 0, testLocation(t))
}

func testEngine(t *testing.T) *dining.Engine {
	t.Helper()
	e, err := dining.NewEngine(dining.DefaultMealSchedule(), dining.DefaultScoringConfig())
	if err != nil {
		t.Fatalf("NewEngine 失败: %v", err)
	}
	return e
}

// seedHalls 写入三个食堂：Worcester / Franklin 全天营业，Hampshire 仅午间营业
func seedHalls(t *testing.T, m *mockDiningHallRepo) {
	t.Helper()
	m.put(t, "Worcester", "07:00-21:00", map[dining.MealSlot][]dining.MenuItem{
		dining.MealBreakfast: {{Name: "Pancakes", Calories: 350, Allergens: []string{"eggs"}}},
		dining.MealLunch: {
			{Name: "Tofu Bowl", Calories: 420, DietCategories: []string{"vegan"}, WeeklySelections: 120},
			{Name: "Burger", Calories: 700, Allergens: []string{"gluten"}},
		},
	})
	m.put(t, "Franklin", "07:00-21:00", map[dining.MealSlot][]dining.MenuItem{
		dining.MealLunch: {
			{Name: "Peanut Noodles", Calories: 520, Allergens: []string{"peanuts"}, DietCategories: []string{"vegan"}},
			{Name: "Garden Salad", Calories: 150, DietCategories: []string{"vegan"}},
		},
		dining.MealDinner: {{Name: "Stir Fry", Calories: 480}},
	})
	m.put(t, "Hampshire", "11:00-14:00", map[dining.MealSlot][]dining.MenuItem{
		dining.MealLunch: {{Name: "Pasta", Calories: 600}},
	})
}

// testEnv 组装好的 Service 及其依赖
type testEnv struct {
	cfg   *config.Config
	repos *testRepos
	svc   *Service
	jwt   *jwt.Manager
	black *mockBlacklist
	store *mockSnapshotStore
	now   time.Time
}

func newTestEnv(t *testing.T, now time.Time) *testEnv {
	t.Helper()
	cfg := testConfig()
	repo, repos := newTestRepos()
	seedHalls(t, repos.hall)

	env := &testEnv{
		cfg:   cfg,
		repos: repos,
		jwt:   jwt.NewManager(&cfg.Auth),
		black: newMockBlacklist(),
		store: &mockSnapshotStore{},
		now:   now,
	}
	env.svc = NewService(Deps{
		Config:    cfg,
		Repo:      repo,
		JWT:       env.jwt,
		Engine:    testEngine(t),
		Blacklist: env.black,
		Snapshots: env.store,
		Logger:    zap.NewNop(),
		Now:       func() time.Time { return env.now },
	})
	return env
}
