package ginserver

import (
	"encoding/json"
	"log/slog"
	"net/http"

	gin "github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"rentpricing/internal/app/commands"
	"rentpricing/internal/app/dto"
	pricingapp "rentpricing/internal/app/handlers/pricing"
	"rentpricing/internal/app/queries"
	domainpricing "rentpricing/internal/domain/pricing"
)

// ProfileHandler manages pricing profiles and their rules.
type ProfileHandler struct {
	Commands commands.Bus
	Queries  queries.Bus
	Logger   *slog.Logger
}

type profileRequest struct {
	OwnerID   int64        `json:"owner_id"`
	Name      string       `json:"name"`
	Mode      string       `json:"mode"`
	MinPrice  boundRequest `json:"min_price"`
	MaxPrice  boundRequest `json:"max_price"`
	IsDefault bool         `json:"is_default"`
	Enabled   *bool        `json:"enabled"`
}

// boundRequest tells an omitted price bound apart from an explicit null, which clears it.
type boundRequest struct {
	present bool
	value   decimal.NullDecimal
}

func (b *boundRequest) UnmarshalJSON(raw []byte) error {
	b.present = true
	return b.value.UnmarshalJSON(raw)
}

func (b boundRequest) orNil() *decimal.NullDecimal {
	if !b.present {
		return nil
	}
	v := b.value
	return &v
}

type ruleRequest struct {
	Name              string           `json:"name"`
	ConditionType     string           `json:"condition_type"`
	ConditionOperator string           `json:"condition_operator"`
	ConditionValue    json.RawMessage  `json:"condition_value"`
	ActionType        string           `json:"action_type"`
	ActionValue       *decimal.Decimal `json:"action_value"`
	ActionUnit        string           `json:"action_unit"`
	Priority          int              `json:"priority"`
	Enabled           *bool            `json:"enabled"`
}

func (h ProfileHandler) List(c *gin.Context) {
	r := h.responder()
	owner, err := ownerScope(c)
	if err != nil {
		r.fail(c, err)
		return
	}
	profiles, err := queries.Ask[pricingapp.ListProfilesQuery, []dto.ProfileSummary](c.Request.Context(), h.Queries, pricingapp.ListProfilesQuery{Owner: owner})
	if err != nil {
		r.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"profiles": profiles})
}

func (h ProfileHandler) Get(c *gin.Context) {
	r := h.responder()
	owner, err := ownerScope(c)
	if err != nil {
		r.fail(c, err)
		return
	}
	id, err := pathID(c, "id")
	if err != nil {
		r.fail(c, err)
		return
	}
	q := pricingapp.GetProfileQuery{ID: domainpricing.ProfileID(id), Owner: owner}
	detail, err := queries.Ask[pricingapp.GetProfileQuery, *dto.ProfileDetail](c.Request.Context(), h.Queries, q)
	if err != nil {
		r.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

func (h ProfileHandler) Create(c *gin.Context) {
	h.upsert(c, nil)
}

func (h ProfileHandler) Update(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		h.responder().fail(c, err)
		return
	}
	profileID := domainpricing.ProfileID(id)
	h.upsert(c, &profileID)
}

func (h ProfileHandler) upsert(c *gin.Context, id *domainpricing.ProfileID) {
	r := h.responder()
	owner, err := ownerScope(c)
	if err != nil {
		r.fail(c, err)
		return
	}
	var req profileRequest
	if err := bindJSON(c, &req); err != nil {
		r.fail(c, err)
		return
	}
	cmd := pricingapp.UpsertProfileCommand{
		ID:              id,
		OwnerID:         req.OwnerID,
		Name:            req.Name,
		Mode:            req.Mode,
		MinPrice:        req.MinPrice.orNil(),
		MaxPrice:        req.MaxPrice.orNil(),
		IsDefault:       req.IsDefault,
		Enabled:         boolOr(req.Enabled, true),
		Owner:           owner,
		IdempotencyKeyV: idempotencyKey(c),
	}
	profile, err := commands.Dispatch[pricingapp.UpsertProfileCommand, *dto.Profile](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		r.fail(c, err)
		return
	}
	status := http.StatusOK
	if id == nil {
		status = http.StatusCreated
	}
	c.JSON(status, profile)
}

func (h ProfileHandler) Delete(c *gin.Context) {
	r := h.responder()
	owner, err := ownerScope(c)
	if err != nil {
		r.fail(c, err)
		return
	}
	id, err := pathID(c, "id")
	if err != nil {
		r.fail(c, err)
		return
	}
	cmd := pricingapp.DeleteProfileCommand{ID: domainpricing.ProfileID(id), Owner: owner}
	res, err := commands.Dispatch[pricingapp.DeleteProfileCommand, *dto.Deleted](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		r.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h ProfileHandler) ListRules(c *gin.Context) {
	r := h.responder()
	owner, err := ownerScope(c)
	if err != nil {
		r.fail(c, err)
		return
	}
	id, err := pathID(c, "id")
	if err != nil {
		r.fail(c, err)
		return
	}
	q := pricingapp.ListRulesQuery{ProfileID: domainpricing.ProfileID(id), Owner: owner}
	rules, err := queries.Ask[pricingapp.ListRulesQuery, []dto.Rule](c.Request.Context(), h.Queries, q)
	if err != nil {
		r.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"rules": rules})
}

func (h ProfileHandler) CreateRule(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		h.responder().fail(c, err)
		return
	}
	h.upsertRule(c, domainpricing.ProfileID(id), nil)
}

func (h ProfileHandler) UpdateRule(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		h.responder().fail(c, err)
		return
	}
	ruleID := domainpricing.RuleID(id)
	h.upsertRule(c, 0, &ruleID)
}

func (h ProfileHandler) upsertRule(c *gin.Context, profileID domainpricing.ProfileID, id *domainpricing.RuleID) {
	r := h.responder()
	owner, err := ownerScope(c)
	if err != nil {
		r.fail(c, err)
		return
	}
	var req ruleRequest
	if err := bindJSON(c, &req); err != nil {
		r.fail(c, err)
		return
	}
	cmd := pricingapp.UpsertRuleCommand{
		ID:                id,
		ProfileID:         profileID,
		Name:              req.Name,
		ConditionType:     req.ConditionType,
		ConditionOperator: req.ConditionOperator,
		ConditionValue:    req.ConditionValue,
		ActionType:        req.ActionType,
		ActionValue:       req.ActionValue,
		ActionUnit:        req.ActionUnit,
		Priority:          req.Priority,
		Enabled:           boolOr(req.Enabled, true),
		Owner:             owner,
		IdempotencyKeyV:   idempotencyKey(c),
	}
	rule, err := commands.Dispatch[pricingapp.UpsertRuleCommand, *dto.Rule](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		r.fail(c, err)
		return
	}
	status := http.StatusOK
	if id == nil {
		status = http.StatusCreated
	}
	c.JSON(status, rule)
}

func (h ProfileHandler) DeleteRule(c *gin.Context) {
	r := h.responder()
	owner, err := ownerScope(c)
	if err != nil {
		r.fail(c, err)
		return
	}
	id, err := pathID(c, "id")
	if err != nil {
		r.fail(c, err)
		return
	}
	cmd := pricingapp.DeleteRuleCommand{ID: domainpricing.RuleID(id), Owner: owner}
	res, err := commands.Dispatch[pricingapp.DeleteRuleCommand, *dto.Deleted](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		r.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h ProfileHandler) responder() responder {
	return responder{logger: h.Logger, what: "pricing profile"}
}

var _ ProfileHTTP = ProfileHandler{}
