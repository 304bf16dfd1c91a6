package dining

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ── 时间与营业状态判定 ──────────────────────────────────────
//
// 职责：根据调用方传入的时间点判断周末、当前餐段以及食堂是否营业。
//
// 设计决策：
//   - 餐段边界全部来自配置（MealSchedule），不在代码中写死
//   - 周末不供应早餐：早餐时段内的周末时间点一律解析为午餐
//   - 营业时间字符串解析失败或缺失 → 视为关门，绝不向上抛错
//   - 不读取系统时钟，时间点始终由参数传入
// ─────────────────────────────────────────────────────────────

// Clock 一天中的时刻（自零点起的分钟数）
type Clock int

// EndOfDay "24:00"，只作为营业窗口的结束时刻
const EndOfDay Clock = 24 * 60

// ParseClock 解析 "HH:MM"；"24:00" 表示当天结束
func ParseClock(s string) (Clock, error) {
	hh, mm, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok {
		return 0, fmt.Errorf("时刻格式无效 %q", s)
	}
	if strings.TrimSpace(hh) == "24" && mm == "00" {
		return EndOfDay, nil
	}
	h, err := strconv.Atoi(hh)
	if err != nil || h < 0 || h > 23 {
		return 0, fmt.Errorf("小时无效 %q", s)
	}
	m, err := strconv.Atoi(mm)
	if err != nil || m < 0 || m > 59 || len(mm) != 2 {
		return 0, fmt.Errorf("分钟无效 %q", s)
	}
	return Clock(h*60 + m), nil
}

// ClockOf 取时间点在其自身时区下的时刻
func ClockOf(t time.Time) Clock {
	return Clock(t.Hour()*60 + t.Minute())
}

// String 格式化为 "HH:MM"
func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", int(c)/60, int(c)%60)
}

// Window 营业窗口 [Open, Close]，两端均包含
type Window struct {
	Open  Clock
	Close Clock
}

// ParseWindow 解析 "HH:MM-HH:MM"
func ParseWindow(s string) (Window, error) {
	open, closeStr, ok := strings.Cut(strings.TrimSpace(s), "-")
	if !ok {
		return Window{}, fmt.Errorf("营业时间格式无效 %q", s)
	}
	o, err := ParseClock(open)
	if err != nil {
		return Window{}, err
	}
	c, err := ParseClock(closeStr)
	if err != nil {
		return Window{}, err
	}
	if c < o {
		return Window{}, fmt.Errorf("营业时间结束早于开始 %q", s)
	}
	return Window{Open: o, Close: c}, nil
}

// Contains 判断时刻是否落在窗口内
func (w Window) Contains(c Clock) bool {
	return w.Open <= c && c <= w.Close
}

// MealSchedule 餐段边界：[BreakfastStart, BreakfastEnd) 早餐，
// [BreakfastEnd, LunchEnd) 午餐，[LunchEnd, DinnerEnd) 晚餐，其余时间不供餐
type MealSchedule struct {
	BreakfastStart Clock
	BreakfastEnd   Clock
	LunchEnd       Clock
	DinnerEnd      Clock
}

// DefaultMealSchedule 默认边界 07:00 / 11:00 / 16:00 / 21:00
func DefaultMealSchedule() MealSchedule {
	return MealSchedule{
		BreakfastStart: 7 * 60,
		BreakfastEnd:   11 * 60,
		LunchEnd:       16 * 60,
		DinnerEnd:      21 * 60,
	}
}

// Validate 边界必须严格递增
func (m MealSchedule) Validate() error {
	if !(m.BreakfastStart < m.BreakfastEnd && m.BreakfastEnd < m.LunchEnd && m.LunchEnd < m.DinnerEnd) {
		return fmt.Errorf("%w: 餐段边界必须严格递增", ErrInvalidArgument)
	}
	return nil
}

// Resolver 餐段与营业状态判定器（只读，可并发使用）
type Resolver struct {
	schedule MealSchedule
}

// NewResolver 创建 Resolver
func NewResolver(schedule MealSchedule) (*Resolver, error) {
	if err := schedule.Validate(); err != nil {
		return nil, err
	}
	return &Resolver{schedule: schedule}, nil
}

// Schedule 返回当前使用的餐段边界
func (r *Resolver) Schedule() MealSchedule { return r.schedule }

// IsWeekend 周六或周日
func IsWeekend(t time.Time) bool {
	wd := t.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

// CurrentMealSlot 按时刻判断当前餐段；周末的早餐时段解析为午餐
func (r *Resolver) CurrentMealSlot(t time.Time) MealSlot {
	c := ClockOf(t)
	s := r.schedule
	var slot MealSlot
	switch {
	case c < s.BreakfastStart:
		slot = MealClosed
	case c < s.BreakfastEnd:
		slot = MealBreakfast
	case c < s.LunchEnd:
		slot = MealLunch
	case c < s.DinnerEnd:
		slot = MealDinner
	default:
		slot = MealClosed
	}
	return weekendSubstitute(slot, t)
}

// ResolveSlot 调用方显式指定餐段时以指定为准，但周末早餐替换规则仍然生效
func (r *Resolver) ResolveSlot(requested MealSlot, t time.Time) MealSlot {
	if requested == "" {
		return r.CurrentMealSlot(t)
	}
	return weekendSubstitute(requested, t)
}

func weekendSubstitute(slot MealSlot, t time.Time) MealSlot {
	if slot == MealBreakfast && IsWeekend(t) {
		return MealLunch
	}
	return slot
}

// IsHallOpen 按当前餐段判断食堂是否营业
func (r *Resolver) IsHallOpen(hall DiningHall, t time.Time) bool {
	return r.IsHallOpenForSlot(hall, r.CurrentMealSlot(t), t)
}

// IsHallOpenForSlot 判断食堂在指定餐段窗口内是否营业
// 窗口优先取 MealHours[slot]，缺失时退回整体 Hours
func (r *Resolver) IsHallOpenForSlot(hall DiningHall, slot MealSlot, t time.Time) bool {
	if slot == "" || slot == MealClosed {
		return false
	}
	w, ok := HallWindow(hall, slot)
	if !ok {
		return false
	}
	return w.Contains(ClockOf(t))
}

// HallWindow 返回食堂在某餐段适用的营业窗口；无法解析时 ok=false
func HallWindow(hall DiningHall, slot MealSlot) (Window, bool) {
	raw := hall.Hours
	if s, ok := hall.MealHours[slot]; ok {
		raw = s
	}
	if strings.TrimSpace(raw) == "" {
		return Window{}, false
	}
	w, err := ParseWindow(raw)
	if err != nil {
		return Window{}, false
	}
	return w, true
}
