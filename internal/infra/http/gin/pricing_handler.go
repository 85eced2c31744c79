package ginserver

import (
	"log/slog"
	"net/http"
	"strings"

	gin "github.com/gin-gonic/gin"

	"rentpricing/internal/app/commands"
	"rentpricing/internal/app/dto"
	pricingapp "rentpricing/internal/app/handlers/pricing"
	"rentpricing/internal/app/queries"
	"rentpricing/internal/domain/units"
	"rentpricing/internal/infra/export/xlsx"
)

type PricingHandler struct {
	Commands commands.Bus
	Queries  queries.Bus
	Logger   *slog.Logger
}

type toggleRequest struct {
	Enabled *bool `json:"enabled"`
}

func (h PricingHandler) Price(c *gin.Context) {
	r := h.responder()
	owner, err := ownerScope(c)
	if err != nil {
		r.fail(c, err)
		return
	}
	unitID, err := pathID(c, "id")
	if err != nil {
		r.fail(c, err)
		return
	}
	day, err := queryDay(c, "date", true)
	if err != nil {
		r.fail(c, err)
		return
	}
	cmd := pricingapp.CalculatePriceCommand{UnitID: units.UnitID(unitID), Date: *day, Owner: owner}
	result, err := commands.Dispatch[pricingapp.CalculatePriceCommand, *dto.PriceResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		r.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Calendar returns JSON by default and a spreadsheet when format=xlsx.
func (h PricingHandler) Calendar(c *gin.Context) {
	r := h.responder()
	owner, err := ownerScope(c)
	if err != nil {
		r.fail(c, err)
		return
	}
	unitID, err := pathID(c, "id")
	if err != nil {
		r.fail(c, err)
		return
	}
	start, err := queryDay(c, "start", true)
	if err != nil {
		r.fail(c, err)
		return
	}
	end, err := queryDay(c, "end", true)
	if err != nil {
		r.fail(c, err)
		return
	}
	cmd := pricingapp.PriceCalendarCommand{UnitID: units.UnitID(unitID), Start: *start, End: *end, Owner: owner}
	cal, err := commands.Dispatch[pricingapp.PriceCalendarCommand, *dto.PriceCalendar](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		r.fail(c, err)
		return
	}
	if strings.EqualFold(c.Query("format"), "xlsx") {
		buf, err := xlsx.Calendar(*cal)
		if err != nil {
			r.fail(c, err)
			return
		}
		c.Header("Content-Disposition", `attachment; filename="`+xlsx.Filename(*cal)+`"`)
		c.Data(http.StatusOK, xlsx.ContentType, buf.Bytes())
		return
	}
	c.JSON(http.StatusOK, cal)
}

func (h PricingHandler) Logs(c *gin.Context) {
	r := h.responder()
	owner, err := ownerScope(c)
	if err != nil {
		r.fail(c, err)
		return
	}
	unitID, err := pathID(c, "id")
	if err != nil {
		r.fail(c, err)
		return
	}
	day, err := queryDay(c, "date", false)
	if err != nil {
		r.fail(c, err)
		return
	}
	q := pricingapp.CalculationLogsQuery{UnitID: units.UnitID(unitID), Date: day, Owner: owner}
	logs, err := queries.Ask[pricingapp.CalculationLogsQuery, []dto.CalculationLog](c.Request.Context(), h.Queries, q)
	if err != nil {
		r.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"logs": logs})
}

func (h PricingHandler) ToggleUnit(c *gin.Context) {
	unitID, err := pathID(c, "id")
	if err != nil {
		h.responder().fail(c, err)
		return
	}
	id := units.UnitID(unitID)
	h.toggle(c, &id)
}

func (h PricingHandler) ToggleAll(c *gin.Context) {
	h.toggle(c, nil)
}

func (h PricingHandler) toggle(c *gin.Context, unitID *units.UnitID) {
	r := h.responder()
	owner, err := ownerScope(c)
	if err != nil {
		r.fail(c, err)
		return
	}
	var req toggleRequest
	if err := bindJSON(c, &req); err != nil {
		r.fail(c, err)
		return
	}
	cmd := pricingapp.ToggleDynamicPricingCommand{
		UnitID:          unitID,
		Enabled:         boolOr(req.Enabled, true),
		Owner:           owner,
		IdempotencyKeyV: idempotencyKey(c),
	}
	result, err := commands.Dispatch[pricingapp.ToggleDynamicPricingCommand, *dto.ToggleResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		r.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h PricingHandler) responder() responder {
	return responder{logger: h.Logger, what: "pricing"}
}

var _ PricingHTTP = PricingHandler{}
