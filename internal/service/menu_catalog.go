package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Cyoyuu/UMass-SmartDine-Finder/internal/dining"
	"github.com/Cyoyuu/UMass-SmartDine-Finder/internal/repository"
	apperrors "github.com/Cyoyuu/UMass-SmartDine-Finder/pkg/errors"
)

// ErrMenuUnavailable 菜单数据加载失败（数据库不可用且无可用快照）
var ErrMenuUnavailable = errors.New("菜单数据暂不可用")

// MenuSnapshot 某一时刻全部食堂的只读快照
// 快照一经发布不再修改，调用方可以并发读取
type MenuSnapshot struct {
	Halls    []dining.DiningHall `json:"halls"`
	LoadedAt time.Time           `json:"loadedAt"`
}

// HallByName 按名称查找食堂
func (s *MenuSnapshot) HallByName(name string) (dining.DiningHall, bool) {
	for _, h := range s.Halls {
		if h.Name == name {
			return h, true
		}
	}
	return dining.DiningHall{}, false
}

// MenuCatalog 菜单快照缓存
//
// 两级缓存：
//   - 进程内：RWMutex 保护的快照指针，TTL 内直接返回
//   - Redis：序列化快照，多实例共享；Redis 不可用时退化为直接读库
type MenuCatalog interface {
	Snapshot(ctx context.Context) (*MenuSnapshot, error)
	Refresh(ctx context.Context) (*MenuSnapshot, error)
	Invalidate(ctx context.Context) error
}

type menuCatalog struct {
	repo     *repository.Repository
	store    SnapshotStore
	useStore bool
	ttl      time.Duration
	now      func() time.Time
	logger   *zap.Logger

	mu   sync.RWMutex
	snap *MenuSnapshot
}

// NewMenuCatalog 创建 MenuCatalog 实例
func NewMenuCatalog(
	repo *repository.Repository,
	store SnapshotStore,
	ttl time.Duration,
	useStore bool,
	now func() time.Time,
	logger *zap.Logger,
) MenuCatalog {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	if now == nil {
		now = time.Now
	}
	return &menuCatalog{
		repo:     repo,
		store:    store,
		useStore: useStore && store != nil,
		ttl:      ttl,
		now:      now,
		logger:   logger,
	}
}

func (c *menuCatalog) fresh(s *MenuSnapshot) bool {
	return s != nil && c.now().Sub(s.LoadedAt) < c.ttl
}

func (c *menuCatalog) Snapshot(ctx context.Context) (*MenuSnapshot, error) {
	c.mu.RLock()
	snap := c.snap
	c.mu.RUnlock()
	if c.fresh(snap) {
		return snap, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	// 双重检查：等待锁期间可能已被其他请求刷新
	if c.fresh(c.snap) {
		return c.snap, nil
	}

	if s := c.loadShared(ctx); s != nil {
		c.snap = s
		return s, nil
	}
	s, err := c.loadDB(ctx)
	if err != nil {
		// 数据库失败时沿用过期快照
		if c.snap != nil {
			c.logger.Warn("菜单刷新失败，沿用旧快照", zap.Time("loaded_at", c.snap.LoadedAt), zap.Error(err))
			return c.snap, nil
		}
		return nil, err
	}
	c.snap = s
	c.publish(ctx, s)
	return s, nil
}

// Refresh 跳过所有缓存，直接从数据库重建快照
func (c *menuCatalog) Refresh(ctx context.Context) (*MenuSnapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	s, err := c.loadDB(ctx)
	if err != nil {
		return nil, err
	}
	c.snap = s
	c.publish(ctx, s)
	return s, nil
}

func (c *menuCatalog) Invalidate(ctx context.Context) error {
	c.mu.Lock()
	c.snap = nil
	c.mu.Unlock()

	if !c.useStore {
		return nil
	}
	if err := c.store.InvalidateMenuSnapshot(ctx); err != nil {
		c.logger.Warn("清除 Redis 菜单快照失败", zap.Error(err))
		return err
	}
	return nil
}

func (c *menuCatalog) loadDB(ctx context.Context) (*MenuSnapshot, error) {
	rows, err := c.repo.DiningHall.List(ctx)
	if err != nil {
		c.logger.Error("加载食堂数据失败", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrMenuUnavailable, err)
	}
	halls := make([]dining.DiningHall, 0, len(rows))
	for i := range rows {
		halls = append(halls, rows[i].ToDomain())
	}
	c.logger.Debug("菜单快照已从数据库加载", zap.Int("halls", len(halls)))
	return &MenuSnapshot{Halls: halls, LoadedAt: c.now()}, nil
}

func (c *menuCatalog) loadShared(ctx context.Context) *MenuSnapshot {
	if !c.useStore {
		return nil
	}
	data, err := c.store.GetMenuSnapshot(ctx)
	if err != nil {
		if !errors.Is(err, apperrors.ErrCacheMiss) {
			c.logger.Warn("读取 Redis 菜单快照失败", zap.Error(err))
		}
		return nil
	}
	var s MenuSnapshot
	if err := json.Unmarshal(data, &s); err != nil {
		c.logger.Warn("Redis 菜单快照损坏，忽略", zap.Error(err))
		return nil
	}
	if !c.fresh(&s) {
		return nil
	}
	return &s
}

func (c *menuCatalog) publish(ctx context.Context, s *MenuSnapshot) {
	if !c.useStore {
		return
	}
	data, err := json.Marshal(s)
	if err != nil {
		c.logger.Warn("序列化菜单快照失败", zap.Error(err))
		return
	}
	if err := c.store.SetMenuSnapshot(ctx, data, c.ttl); err != nil {
		c.logger.Warn("写入 Redis 菜单快照失败", zap.Error(err))
	}
}
