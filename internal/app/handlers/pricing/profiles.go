package pricing

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"rentpricing/internal/app/commands"
	"rentpricing/internal/app/dto"
	"rentpricing/internal/app/handlers/support"
	"rentpricing/internal/app/middleware"
	"rentpricing/internal/app/queries"
	"rentpricing/internal/app/uow"
	domainpricing "rentpricing/internal/domain/pricing"
	"rentpricing/internal/domain/shared/errs"
	"rentpricing/internal/domain/shared/scope"
)

const (
	upsertProfileKey = "pricing.profile.upsert"
	deleteProfileKey = "pricing.profile.delete"
	listProfilesKey  = "pricing.profile.list"
	getProfileKey    = "pricing.profile.get"
)

// UpsertProfileCommand creates a profile when ID is nil and replaces the editable fields of an
// existing one otherwise. Both bounds must be given on every call; a bound holding no value
// selects the implicit bounds of each unit.
type UpsertProfileCommand struct {
	ID *domainpricing.ProfileID `validate:"omitempty,gt=0"`
	// OwnerID is honoured for unscoped callers creating a profile; scoped callers always own
	// what they create.
	OwnerID         int64                `validate:"gte=0"`
	Name            string               `validate:"required,max=255"`
	Mode            string               `validate:"required,max=50"`
	MinPrice        *decimal.NullDecimal `validate:"required"`
	MaxPrice        *decimal.NullDecimal `validate:"required"`
	IsDefault       bool
	Enabled         bool
	Owner           scope.Owner
	IdempotencyKeyV string `validate:"max=128"`
}

func (UpsertProfileCommand) Key() string { return upsertProfileKey }

func (c UpsertProfileCommand) OwnerScope() scope.Owner { return c.Owner }

func (c UpsertProfileCommand) IdempotencyKey() string { return c.IdempotencyKeyV }

func (UpsertProfileCommand) ResultPrototype() any { return &dto.Profile{} }

func (c UpsertProfileCommand) params() (domainpricing.ProfileParams, error) {
	if c.MinPrice == nil {
		return domainpricing.ProfileParams{}, errs.Invalid("min_price is required")
	}
	if c.MaxPrice == nil {
		return domainpricing.ProfileParams{}, errs.Invalid("max_price is required")
	}
	owner := c.OwnerID
	if c.Owner.Scoped() {
		owner = c.Owner.ID()
	}
	return domainpricing.ProfileParams{
		OwnerID:   owner,
		Name:      c.Name,
		Mode:      c.Mode,
		MinPrice:  *c.MinPrice,
		MaxPrice:  *c.MaxPrice,
		IsDefault: c.IsDefault,
		Enabled:   c.Enabled,
	}, nil
}

type UpsertProfileHandler struct {
	UoWFactory uow.UoWFactory
	Clock      func() time.Time
}

func (h *UpsertProfileHandler) Handle(ctx context.Context, cmd UpsertProfileCommand) (*dto.Profile, error) {
	params, err := cmd.params()
	if err != nil {
		return nil, err
	}
	var out dto.Profile
	err = support.WithinUnit(ctx, h.UoWFactory, func(ctx context.Context, unit uow.UnitOfWork) error {
		repo := unit.Profiles()
		if cmd.ID == nil {
			profile, err := domainpricing.NewProfile(params, clockNow(h.Clock))
			if err != nil {
				return err
			}
			if err := repo.Create(ctx, cmd.Owner, profile); err != nil {
				return err
			}
			out = dto.MapProfile(*profile)
			return nil
		}
		profile, err := repo.ByID(ctx, cmd.Owner, *cmd.ID)
		if err != nil {
			return err
		}
		if err := profile.Apply(params, clockNow(h.Clock)); err != nil {
			return err
		}
		if err := repo.Update(ctx, cmd.Owner, profile); err != nil {
			return err
		}
		out = dto.MapProfile(*profile)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteProfileCommand removes a profile, its rules and every unit link to it.
type DeleteProfileCommand struct {
	ID    domainpricing.ProfileID `validate:"gt=0"`
	Owner scope.Owner
}

func (DeleteProfileCommand) Key() string { return deleteProfileKey }

func (c DeleteProfileCommand) OwnerScope() scope.Owner { return c.Owner }

type DeleteProfileHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *DeleteProfileHandler) Handle(ctx context.Context, cmd DeleteProfileCommand) (*dto.Deleted, error) {
	err := support.WithinUnit(ctx, h.UoWFactory, func(ctx context.Context, unit uow.UnitOfWork) error {
		return unit.Profiles().Delete(ctx, cmd.Owner, cmd.ID)
	})
	if err != nil {
		return nil, err
	}
	return &dto.Deleted{ID: int64(cmd.ID), Deleted: true}, nil
}

type ListProfilesQuery struct {
	Owner scope.Owner
}

func (ListProfilesQuery) Key() string { return listProfilesKey }

func (q ListProfilesQuery) OwnerScope() scope.Owner { return q.Owner }

type ListProfilesHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *ListProfilesHandler) Handle(ctx context.Context, q ListProfilesQuery) ([]dto.ProfileSummary, error) {
	unit, execCtx, cleanup, err := support.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return nil, err
	}
	if cleanup != nil {
		defer cleanup()
	}
	profiles, err := unit.Profiles().List(execCtx, q.Owner)
	if err != nil {
		return nil, err
	}
	counts, err := unit.Units().CountByProfile(execCtx, q.Owner)
	if err != nil {
		return nil, err
	}
	domainpricing.SortProfiles(profiles)
	out := make([]dto.ProfileSummary, 0, len(profiles))
	for _, p := range profiles {
		out = append(out, dto.MapProfileSummary(domainpricing.ProfileSummary{Profile: p, UnitsCount: counts[int64(p.ID)]}))
	}
	return out, nil
}

type GetProfileQuery struct {
	ID    domainpricing.ProfileID `validate:"gt=0"`
	Owner scope.Owner
}

func (GetProfileQuery) Key() string { return getProfileKey }

func (q GetProfileQuery) OwnerScope() scope.Owner { return q.Owner }

type GetProfileHandler struct {
	UoWFactory uow.UoWFactory
}

// Handle returns the profile with all of its rules, enabled or not, in evaluation order.
func (h *GetProfileHandler) Handle(ctx context.Context, q GetProfileQuery) (*dto.ProfileDetail, error) {
	unit, execCtx, cleanup, err := support.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return nil, err
	}
	if cleanup != nil {
		defer cleanup()
	}
	profile, err := unit.Profiles().ByID(execCtx, q.Owner, q.ID)
	if err != nil {
		return nil, err
	}
	rules, err := unit.Rules().ListByProfile(execCtx, q.Owner, q.ID, false)
	if err != nil {
		return nil, err
	}
	domainpricing.SortRules(rules)
	detail := dto.MapProfileDetail(*profile, rules)
	return &detail, nil
}

var (
	_ commands.Handler[UpsertProfileCommand, *dto.Profile]       = (*UpsertProfileHandler)(nil)
	_ commands.Handler[DeleteProfileCommand, *dto.Deleted]       = (*DeleteProfileHandler)(nil)
	_ queries.Handler[ListProfilesQuery, []dto.ProfileSummary]   = (*ListProfilesHandler)(nil)
	_ queries.Handler[GetProfileQuery, *dto.ProfileDetail]       = (*GetProfileHandler)(nil)
	_ middleware.IdempotentCommand                               = UpsertProfileCommand{}
)
