package pricing

import (
	"context"
	"encoding/json"

	"github.com/shopspring/decimal"

	"rentpricing/internal/app/commands"
	"rentpricing/internal/app/dto"
	"rentpricing/internal/app/handlers/support"
	"rentpricing/internal/app/middleware"
	"rentpricing/internal/app/queries"
	"rentpricing/internal/app/uow"
	domainpricing "rentpricing/internal/domain/pricing"
	"rentpricing/internal/domain/shared/scope"
)

const (
	upsertRuleKey = "pricing.rule.upsert"
	deleteRuleKey = "pricing.rule.delete"
	listRulesKey  = "pricing.rule.list"
)

// UpsertRuleCommand creates a rule in ProfileID when ID is nil and rewrites an existing rule
// otherwise. A rule never moves between profiles, so ProfileID is ignored on update.
type UpsertRuleCommand struct {
	ID                *domainpricing.RuleID   `validate:"omitempty,gt=0"`
	ProfileID         domainpricing.ProfileID `validate:"required_without=ID,gte=0"`
	Name              string                  `validate:"required,max=255"`
	ConditionType     string                  `validate:"required"`
	ConditionOperator string
	ConditionValue    json.RawMessage  `validate:"required"`
	ActionType        string           `validate:"required"`
	ActionValue       *decimal.Decimal `validate:"required"`
	ActionUnit        string           `validate:"required"`
	Priority          int
	Enabled           bool
	Owner             scope.Owner
	IdempotencyKeyV   string `validate:"max=128"`
}

func (UpsertRuleCommand) Key() string { return upsertRuleKey }

func (c UpsertRuleCommand) OwnerScope() scope.Owner { return c.Owner }

func (c UpsertRuleCommand) IdempotencyKey() string { return c.IdempotencyKeyV }

func (UpsertRuleCommand) ResultPrototype() any { return &dto.Rule{} }

func (c UpsertRuleCommand) params(profileID domainpricing.ProfileID) domainpricing.RuleParams {
	var value decimal.NullDecimal
	if c.ActionValue != nil {
		value = decimal.NewNullDecimal(*c.ActionValue)
	}
	return domainpricing.RuleParams{
		ProfileID:      profileID,
		Name:           c.Name,
		ConditionType:  c.ConditionType,
		ConditionValue: c.ConditionValue,
		Operator:       c.ConditionOperator,
		ActionType:     c.ActionType,
		ActionValue:    value,
		ActionUnit:     c.ActionUnit,
		Priority:       c.Priority,
		Enabled:        c.Enabled,
	}
}

type UpsertRuleHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *UpsertRuleHandler) Handle(ctx context.Context, cmd UpsertRuleCommand) (*dto.Rule, error) {
	var out dto.Rule
	err := support.WithinUnit(ctx, h.UoWFactory, func(ctx context.Context, unit uow.UnitOfWork) error {
		repo := unit.Rules()
		if cmd.ID == nil {
			rule, err := domainpricing.NewRule(cmd.params(cmd.ProfileID))
			if err != nil {
				return err
			}
			if err := repo.Create(ctx, cmd.Owner, rule); err != nil {
				return err
			}
			out = dto.MapRule(*rule)
			return nil
		}
		rule, err := repo.ByID(ctx, cmd.Owner, *cmd.ID)
		if err != nil {
			return err
		}
		if err := rule.Apply(cmd.params(rule.ProfileID)); err != nil {
			return err
		}
		if err := repo.Update(ctx, cmd.Owner, rule); err != nil {
			return err
		}
		out = dto.MapRule(*rule)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

type DeleteRuleCommand struct {
	ID    domainpricing.RuleID `validate:"gt=0"`
	Owner scope.Owner
}

func (DeleteRuleCommand) Key() string { return deleteRuleKey }

func (c DeleteRuleCommand) OwnerScope() scope.Owner { return c.Owner }

type DeleteRuleHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *DeleteRuleHandler) Handle(ctx context.Context, cmd DeleteRuleCommand) (*dto.Deleted, error) {
	err := support.WithinUnit(ctx, h.UoWFactory, func(ctx context.Context, unit uow.UnitOfWork) error {
		return unit.Rules().Delete(ctx, cmd.Owner, cmd.ID)
	})
	if err != nil {
		return nil, err
	}
	return &dto.Deleted{ID: int64(cmd.ID), Deleted: true}, nil
}

type ListRulesQuery struct {
	ProfileID domainpricing.ProfileID `validate:"gt=0"`
	Owner     scope.Owner
}

func (ListRulesQuery) Key() string { return listRulesKey }

func (q ListRulesQuery) OwnerScope() scope.Owner { return q.Owner }

type ListRulesHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *ListRulesHandler) Handle(ctx context.Context, q ListRulesQuery) ([]dto.Rule, error) {
	unit, execCtx, cleanup, err := support.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return nil, err
	}
	if cleanup != nil {
		defer cleanup()
	}
	if _, err := unit.Profiles().ByID(execCtx, q.Owner, q.ProfileID); err != nil {
		return nil, err
	}
	rules, err := unit.Rules().ListByProfile(execCtx, q.Owner, q.ProfileID, false)
	if err != nil {
		return nil, err
	}
	domainpricing.SortRules(rules)
	return dto.MapRules(rules), nil
}

var (
	_ commands.Handler[UpsertRuleCommand, *dto.Rule]    = (*UpsertRuleHandler)(nil)
	_ commands.Handler[DeleteRuleCommand, *dto.Deleted] = (*DeleteRuleHandler)(nil)
	_ queries.Handler[ListRulesQuery, []dto.Rule]       = (*ListRulesHandler)(nil)
	_ middleware.IdempotentCommand                      = UpsertRuleCommand{}
)
