package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"
	"go.uber.org/zap"

	"github.com/Cyoyuu/UMass-SmartDine-Finder/internal/dining"
)

// ── 食堂日历导出 ────────────────────────────────────────────
//
// 职责：把食堂未来若干天的供餐窗口导出为 iCalendar (RFC 5545)。
//
// 设计决策：
//   - 每个 (日期, 餐段) 一个 VEVENT，时间为食堂窗口与全局餐段边界的交集
//   - 周末不生成早餐事件
//   - 营业时间无法解析或交集为空的餐段直接跳过
//   - UID 由 食堂+日期+餐段 组成，重复订阅不会产生重复事件
// ─────────────────────────────────────────────────────────────

var ErrInvalidCalendarRange = errors.New("日历天数必须在 1-14 之间")

const (
	defaultCalendarDays = 7
	maxCalendarDays     = 14
	calendarPreviewSize = 5 // 描述中列出的菜品数
)

// CalendarService 日历导出业务接口
type CalendarService interface {
	HallCalendar(ctx context.Context, hallName string, days int) ([]byte, string, error)
}

type calendarService struct {
	catalog MenuCatalog
	engine  *dining.Engine
	loc     *time.Location
	now     func() time.Time
	logger  *zap.Logger
}

// NewCalendarService 创建 CalendarService 实例
func NewCalendarService(catalog MenuCatalog, engine *dining.Engine, loc *time.Location, now func() time.Time, logger *zap.Logger) CalendarService {
	if now == nil {
		now = time.Now
	}
	return &calendarService{catalog: catalog, engine: engine, loc: loc, now: now, logger: logger}
}

func (s *calendarService) HallCalendar(ctx context.Context, hallName string, days int) ([]byte, string, error) {
	if days == 0 {
		days = defaultCalendarDays
	}
	if days < 0 || days > maxCalendarDays {
		return nil, "", ErrInvalidCalendarRange
	}

	snap, err := s.catalog.Snapshot(ctx)
	if err != nil {
		return nil, "", err
	}
	hall, ok := snap.HallByName(hallName)
	if !ok {
		return nil, "", ErrHallNotFound
	}

	now := s.now().In(s.loc)
	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId("-//SmartDine//Dining Hours//EN")
	cal.SetXWRCalName(hall.Name)

	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, s.loc)
	events := 0
	for d := 0; d < days; d++ {
		day := today.AddDate(0, 0, d)
		for _, slot := range dining.MealSlots {
			if slot == dining.MealBreakfast && dining.IsWeekend(day) {
				continue
			}
			w, ok := s.servingWindow(hall, slot)
			if !ok {
				continue
			}
			evt := cal.AddEvent(fmt.Sprintf("%s-%s-%s@smartdine", slug(hall.Name), day.Format("20060102"), slot))
			evt.SetDtStampTime(now)
			evt.SetStartAt(atClock(day, w.Open))
			evt.SetEndAt(atClock(day, w.Close))
			evt.SetSummary(fmt.Sprintf("%s %s", hall.Name, slot))
			evt.SetLocation(hall.Name)
			if desc := menuPreview(hall.ItemsFor(slot)); desc != "" {
				evt.SetDescription(desc)
			}
			events++
		}
	}

	s.logger.Debug("食堂日历已生成", zap.String("hall", hall.Name), zap.Int("days", days), zap.Int("events", events))
	return []byte(cal.Serialize()), fmt.Sprintf("%s.ics", slug(hall.Name)), nil
}

// servingWindow 食堂窗口与全局餐段边界取交集
func (s *calendarService) servingWindow(hall dining.DiningHall, slot dining.MealSlot) (dining.Window, bool) {
	w, ok := dining.HallWindow(hall, slot)
	if !ok {
		return dining.Window{}, false
	}
	sched := s.engine.Resolver().Schedule()
	var lo, hi dining.Clock
	switch slot {
	case dining.MealBreakfast:
		lo, hi = sched.BreakfastStart, sched.BreakfastEnd
	case dining.MealLunch:
		lo, hi = sched.BreakfastEnd, sched.LunchEnd
	case dining.MealDinner:
		lo, hi = sched.LunchEnd, sched.DinnerEnd
	default:
		return dining.Window{}, false
	}
	if w.Open > lo {
		lo = w.Open
	}
	if w.Close < hi {
		hi = w.Close
	}
	if lo >= hi {
		return dining.Window{}, false
	}
	return dining.Window{Open: lo, Close: hi}, true
}

func atClock(day time.Time, c dining.Clock) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), int(c)/60, int(c)%60, 0, 0, day.Location())
}

func menuPreview(items []dining.MenuItem) string {
	if len(items) == 0 {
		return ""
	}
	names := make([]string, 0, calendarPreviewSize)
	for i, it := range items {
		if i == calendarPreviewSize {
			names = append(names, fmt.Sprintf("等 %d 道菜", len(items)))
			break
		}
		names = append(names, it.Name)
	}
	return strings.Join(names, ", ")
}

func slug(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), "-"))
}
