package memory

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"rentpricing/internal/domain/booking"
	"rentpricing/internal/domain/pricing"
	"rentpricing/internal/domain/units"
)

type logKey struct {
	unit units.UnitID
	day  time.Time
}

// Store keeps every pricing table in process memory behind one lock, so cascades such as a
// profile deletion are atomic. Values are copied in and out.
type Store struct {
	mu sync.RWMutex

	seq      int64
	units    map[units.UnitID]units.Unit
	bookings map[booking.BookingID]booking.Booking
	profiles map[pricing.ProfileID]pricing.Profile
	rules    map[pricing.RuleID]pricing.Rule
	logs     map[logKey]pricing.CalculationLog
}

func NewStore() *Store {
	return &Store{
		units:    make(map[units.UnitID]units.Unit),
		bookings: make(map[booking.BookingID]booking.Booking),
		profiles: make(map[pricing.ProfileID]pricing.Profile),
		rules:    make(map[pricing.RuleID]pricing.Rule),
		logs:     make(map[logKey]pricing.CalculationLog),
	}
}

func (s *Store) Units() *UnitRepository       { return &UnitRepository{s: s} }
func (s *Store) Bookings() *BookingRepository { return &BookingRepository{s: s} }
func (s *Store) Profiles() *ProfileRepository { return &ProfileRepository{s: s} }
func (s *Store) Rules() *RuleRepository       { return &RuleRepository{s: s} }
func (s *Store) Logs() *LogRepository         { return &LogRepository{s: s} }

// PutUnit inserts or replaces a unit; the unit back office owns them, so this is the seeding
// entry point. A zero ID is assigned.
func (s *Store) PutUnit(_ context.Context, u *units.Unit) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u.ID == 0 {
		u.ID = units.UnitID(s.next())
	}
	s.bump(int64(u.ID))
	s.units[u.ID] = copyUnit(*u)
	return nil
}

// PutBooking inserts or replaces a booking without the overlap check.
func (s *Store) PutBooking(_ context.Context, b *booking.Booking) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if b.ID == 0 {
		b.ID = booking.BookingID(s.next())
	}
	s.bump(int64(b.ID))
	s.bookings[b.ID] = *b
	return nil
}

// next hands out ids from one sequence shared by all tables. Callers hold the write lock.
func (s *Store) next() int64 {
	s.seq++
	return s.seq
}

func (s *Store) bump(id int64) {
	if id > s.seq {
		s.seq = id
	}
}

func copyUnit(u units.Unit) units.Unit {
	if u.PricingProfileID != nil {
		id := *u.PricingProfileID
		u.PricingProfileID = &id
	}
	return u
}

// copyRule detaches slice-backed conditions so callers never alias stored state.
func copyRule(r pricing.Rule) pricing.Rule {
	switch c := r.Condition.(type) {
	case pricing.DayOfWeekCondition:
		r.Condition = pricing.DayOfWeekCondition{Days: append([]int(nil), c.Days...)}
	case pricing.UnknownCondition:
		c.Raw = append(json.RawMessage(nil), c.Raw...)
		r.Condition = c
	}
	return r
}

func copyLog(l pricing.CalculationLog) pricing.CalculationLog {
	l.AppliedRules = append([]pricing.TraceEntry{}, l.AppliedRules...)
	return l
}
