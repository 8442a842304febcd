// Package slots assigns publication instants on a fixed daily grid of hours
// in a single time zone.
//
// Allocation is pure: callers pass the instants already taken and a clock
// reading, and the same inputs always produce the same slots. Nothing is
// cached between calls because other writers may claim slots concurrently.
package slots

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// HorizonDays bounds how far ahead the allocator searches.
const HorizonDays = 365

const keyLayout = "2006-01-02T15:04"

var ErrSlotExhausted = errors.New("no free publication slot within the scheduling horizon")

type Grid struct {
	loc   *time.Location
	hours []int
}

// DefaultHours is the reference grid: every hour from 04:00 to 19:00.
func DefaultHours() []int {
	hours := make([]int, 0, 16)
	for h := 4; h <= 19; h++ {
		hours = append(hours, h)
	}
	return hours
}

func NewGrid(loc *time.Location, hours []int) (Grid, error) {
	if loc == nil {
		return Grid{}, errors.New("slots: location is required")
	}
	if len(hours) == 0 {
		return Grid{}, errors.New("slots: at least one hour is required")
	}
	for i, h := range hours {
		if h < 0 || h > 23 {
			return Grid{}, fmt.Errorf("slots: hour %d out of range", h)
		}
		if i > 0 && h <= hours[i-1] {
			return Grid{}, fmt.Errorf("slots: hours must be strictly ascending, got %d after %d", h, hours[i-1])
		}
	}

	own := make([]int, len(hours))
	copy(own, hours)
	return Grid{loc: loc, hours: own}, nil
}

func (g Grid) Location() *time.Location { return g.loc }

func (g Grid) Hours() []int {
	out := make([]int, len(g.hours))
	copy(out, g.hours)
	return out
}

// Key identifies the slot an instant falls on: its zone-local wall clock
// truncated to the minute.
func (g Grid) Key(t time.Time) string {
	return t.In(g.loc).Truncate(time.Minute).Format(keyLayout)
}

// NextSlot returns the earliest grid slot strictly after now that no existing
// instant occupies.
func (g Grid) NextSlot(existing []time.Time, now time.Time) (time.Time, error) {
	slots, err := g.NextSlots(existing, 1, now)
	if err != nil {
		return time.Time{}, err
	}
	return slots[0], nil
}

// NextSlots returns count distinct free slots in chronological order. Slots
// handed out earlier in the same call count as taken. When the horizon runs
// out first, the slots found so far are returned along with ErrSlotExhausted.
func (g Grid) NextSlots(existing []time.Time, count int, now time.Time) ([]time.Time, error) {
	if count <= 0 {
		return nil, nil
	}

	taken := make(map[string]struct{}, len(existing)+count)
	for _, t := range existing {
		taken[g.Key(t)] = struct{}{}
	}

	local := now.In(g.loc)
	year, month, day := local.Date()

	out := make([]time.Time, 0, count)
	for d := 0; d < HorizonDays; d++ {
		for _, h := range g.hours {
			candidate := time.Date(year, month, day+d, h, 0, 0, 0, g.loc)
			if !candidate.After(now) {
				continue
			}
			key := g.Key(candidate)
			if _, ok := taken[key]; ok {
				continue
			}
			taken[key] = struct{}{}
			out = append(out, candidate.UTC())
			if len(out) == count {
				return out, nil
			}
		}
	}

	return out, ErrSlotExhausted
}

// ParseHours accepts either an inclusive range ("4-19") or a comma separated
// list ("4,6,9").
func ParseHours(raw string) ([]int, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return DefaultHours(), nil
	}

	if from, to, ok := strings.Cut(s, "-"); ok {
		start, err := strconv.Atoi(strings.TrimSpace(from))
		if err != nil {
			return nil, fmt.Errorf("slots: invalid hour range %q: %w", raw, err)
		}
		end, err := strconv.Atoi(strings.TrimSpace(to))
		if err != nil {
			return nil, fmt.Errorf("slots: invalid hour range %q: %w", raw, err)
		}
		if end < start {
			return nil, fmt.Errorf("slots: invalid hour range %q", raw)
		}
		hours := make([]int, 0, end-start+1)
		for h := start; h <= end; h++ {
			hours = append(hours, h)
		}
		return hours, nil
	}

	parts := strings.Split(s, ",")
	hours := make([]int, 0, len(parts))
	for _, p := range parts {
		h, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, fmt.Errorf("slots: invalid hour %q: %w", p, err)
		}
		hours = append(hours, h)
	}
	return hours, nil
}
