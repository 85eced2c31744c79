// Package fixtures seeds a store with demo units, bookings, profiles and rules from JSON.
package fixtures

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"

	"rentpricing/internal/app/handlers/support"
	"rentpricing/internal/app/uow"
	"rentpricing/internal/domain/booking"
	"rentpricing/internal/domain/pricing"
	"rentpricing/internal/domain/shared/daterange"
	"rentpricing/internal/domain/shared/scope"
	"rentpricing/internal/domain/units"
)

// UnitWriter is implemented by every storage driver's unit repository.
type UnitWriter interface {
	PutUnit(ctx context.Context, u *units.Unit) error
}

type File struct {
	Profiles []ProfileFixture `json:"profiles"`
	Units    []UnitFixture    `json:"units"`
	Bookings []BookingFixture `json:"bookings"`
}

type ProfileFixture struct {
	Key       string              `json:"key"`
	OwnerID   int64               `json:"owner_id"`
	Name      string              `json:"name"`
	Mode      string              `json:"mode"`
	MinPrice  decimal.NullDecimal `json:"min_price"`
	MaxPrice  decimal.NullDecimal `json:"max_price"`
	IsDefault bool                `json:"is_default"`
	Enabled   *bool               `json:"enabled"`
	Rules     []RuleFixture       `json:"rules"`
}

type RuleFixture struct {
	Name           string              `json:"name"`
	ConditionType  string              `json:"condition_type"`
	ConditionValue json.RawMessage     `json:"condition_value"`
	Operator       string              `json:"condition_operator"`
	ActionType     string              `json:"action_type"`
	ActionValue    decimal.NullDecimal `json:"action_value"`
	ActionUnit     string              `json:"action_unit"`
	Priority       int                 `json:"priority"`
	Enabled        *bool               `json:"enabled"`
}

type UnitFixture struct {
	ID             int64           `json:"id"`
	OwnerID        int64           `json:"owner_id"`
	Name           string          `json:"name"`
	BasePrice      decimal.Decimal `json:"base_price"`
	DynamicPricing bool            `json:"dynamic_pricing_enabled"`
	Profile        string          `json:"profile"`
}

// BookingFixture places a stay relative to the load date so demo data never goes stale.
type BookingFixture struct {
	UnitID       int64  `json:"unit_id"`
	CheckInAfter int    `json:"check_in_after_days"`
	Nights       int    `json:"nights"`
	Status       string `json:"status"`
}

// Summary counts what a load created.
type Summary struct {
	Profiles int
	Rules    int
	Units    int
	Bookings int
}

type Loader struct {
	Factory uow.UoWFactory
	Units   UnitWriter
	Logger  *slog.Logger
	Now     func() time.Time
}

// LoadFile reads and applies path. A missing file is not an error.
func (l Loader) LoadFile(ctx context.Context, path string) (Summary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			l.logger().Info("pricing fixtures file not found, skipping", "path", path)
			return Summary{}, nil
		}
		return Summary{}, fmt.Errorf("read fixtures: %w", err)
	}
	var f File
	if err := json.Unmarshal(data, &f); err != nil {
		return Summary{}, fmt.Errorf("decode fixtures: %w", err)
	}
	return l.Load(ctx, f)
}

// Load applies f in one unit of work. Invalid entries are logged and skipped.
func (l Loader) Load(ctx context.Context, f File) (Summary, error) {
	if l.Units == nil {
		return Summary{}, errors.New("fixtures: unit writer missing")
	}
	logger := l.logger()
	now := l.now()
	var sum Summary
	err := support.WithinUnit(ctx, l.Factory, func(ctx context.Context, unit uow.UnitOfWork) error {
		profileIDs := make(map[string]int64, len(f.Profiles))
		for _, fx := range f.Profiles {
			p, err := pricing.NewProfile(pricing.ProfileParams{
				OwnerID:   fx.OwnerID,
				Name:      fx.Name,
				Mode:      orDefault(fx.Mode, "auto"),
				MinPrice:  fx.MinPrice,
				MaxPrice:  fx.MaxPrice,
				IsDefault: fx.IsDefault,
				Enabled:   enabled(fx.Enabled),
			}, now)
			if err != nil {
				logger.Error("fixture profile invalid", "profile", fx.Key, "error", err)
				continue
			}
			if err := unit.Profiles().Create(ctx, scope.Any(), p); err != nil {
				return err
			}
			profileIDs[fx.Key] = int64(p.ID)
			sum.Profiles++
			for _, rf := range fx.Rules {
				rule, err := pricing.NewRule(pricing.RuleParams{
					ProfileID:      p.ID,
					Name:           rf.Name,
					ConditionType:  rf.ConditionType,
					ConditionValue: rf.ConditionValue,
					Operator:       rf.Operator,
					ActionType:     rf.ActionType,
					ActionValue:    rf.ActionValue,
					ActionUnit:     rf.ActionUnit,
					Priority:       rf.Priority,
					Enabled:        enabled(rf.Enabled),
				})
				if err != nil {
					logger.Error("fixture rule invalid", "profile", fx.Key, "rule", rf.Name, "error", err)
					continue
				}
				if err := unit.Rules().Create(ctx, scope.Any(), rule); err != nil {
					return err
				}
				sum.Rules++
			}
		}

		for _, fx := range f.Units {
			u := &units.Unit{
				ID:                    units.UnitID(fx.ID),
				OwnerID:               fx.OwnerID,
				Name:                  fx.Name,
				BasePrice:             fx.BasePrice,
				DynamicPricingEnabled: fx.DynamicPricing,
			}
			if fx.Profile != "" {
				id, ok := profileIDs[fx.Profile]
				if !ok {
					logger.Warn("fixture unit references unknown profile", "unit_id", fx.ID, "profile", fx.Profile)
				} else {
					u.PricingProfileID = &id
				}
			}
			if err := l.Units.PutUnit(ctx, u); err != nil {
				return err
			}
			sum.Units++
		}

		today := daterange.Day(now)
		for _, fx := range f.Bookings {
			status, err := booking.ParseStatus(orDefault(fx.Status, string(booking.StatusConfirmed)))
			if err != nil {
				logger.Error("fixture booking invalid", "unit_id", fx.UnitID, "error", err)
				continue
			}
			checkIn := today.AddDate(0, 0, fx.CheckInAfter)
			dr, err := daterange.New(checkIn, checkIn.AddDate(0, 0, fx.Nights))
			if err != nil {
				logger.Error("fixture booking invalid", "unit_id", fx.UnitID, "error", err)
				continue
			}
			b := &booking.Booking{UnitID: units.UnitID(fx.UnitID), Range: dr, Status: status, CreatedAt: now}
			// only stays that hold the dates need them free
			var conflicts []booking.Status
			if b.In(booking.ReservationStatuses) {
				conflicts = booking.ReservationStatuses
			}
			if err := unit.Bookings().ReserveIfFree(ctx, b, conflicts); err != nil {
				if errors.Is(err, booking.ErrOverlappingRange) {
					logger.Warn("fixture booking overlaps, skipping", "unit_id", fx.UnitID, "check_in", daterange.FormatDay(checkIn))
					continue
				}
				return err
			}
			sum.Bookings++
		}
		return nil
	})
	if err != nil {
		return Summary{}, err
	}
	logger.Info("pricing fixtures imported",
		"profiles", sum.Profiles, "rules", sum.Rules, "units", sum.Units, "bookings", sum.Bookings)
	return sum, nil
}

// DefaultPath returns the first existing candidate, or data/pricing.json.
func DefaultPath() string {
	candidates := []string{
		filepath.Join("data", "pricing.json"),
		filepath.Join("..", "data", "pricing.json"),
	}
	for _, candidate := range candidates {
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return candidates[0]
}

func (l Loader) logger() *slog.Logger {
	if l.Logger != nil {
		return l.Logger
	}
	return slog.Default()
}

func (l Loader) now() time.Time {
	if l.Now != nil {
		return l.Now().UTC()
	}
	return time.Now().UTC()
}

func enabled(v *bool) bool {
	return v == nil || *v
}

func orDefault(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
