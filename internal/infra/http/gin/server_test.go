package ginserver

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rentpricing/internal/app/commands"
	pricingapp "rentpricing/internal/app/handlers/pricing"
	"rentpricing/internal/app/middleware"
	"rentpricing/internal/app/queries"
	"rentpricing/internal/domain/units"
	"rentpricing/internal/infra/export/xlsx"
	"rentpricing/internal/infra/obs"
	"rentpricing/internal/infra/storage/memory"
	"rentpricing/internal/infra/validation"
)

type testServer struct {
	router http.Handler
	store  *memory.Store
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	store := memory.NewStore()
	factory := memory.Factory{Store: store}
	clock := func() time.Time { return time.Date(2025, 1, 1, 8, 0, 0, 0, time.UTC) }
	metrics := obs.NewMetrics()

	cmdBus := commands.NewInMemoryBus()
	queryBus := queries.NewInMemoryBus()
	pricingapp.Module{
		UoWFactory: factory,
		Engine:     &pricingapp.Engine{Clock: clock, Observer: metrics},
		Clock:      clock,
	}.Register(cmdBus, queryBus)

	v := validation.New()
	cmds := middleware.ChainCommands(cmdBus,
		middleware.Validation(v),
		middleware.Authorization(middleware.OwnerScopeAuthorizer{}),
		middleware.Idempotency(memory.NewIdempotencyStore(time.Hour), nil),
		middleware.Transaction(factory, nil),
	)
	qs := middleware.ChainQueries(queryBus,
		middleware.QueryValidation(v),
		middleware.QueryAuthorization(middleware.OwnerScopeAuthorizer{}),
	)

	router := NewRouter("test", obs.Middleware{Timeout: time.Second}, obs.HealthHandlers{}, Handlers{
		Pricing:  PricingHandler{Commands: cmds, Queries: qs},
		Profiles: ProfileHandler{Commands: cmds, Queries: qs},
		Metrics:  metrics,
	})
	return &testServer{router: router, store: store}
}

func (s *testServer) do(t *testing.T, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func owner(id string) map[string]string { return map[string]string{ownerHeader: id} }

func TestPriceEndpoints(t *testing.T) {
	s := newTestServer(t)
	require.NoError(t, s.store.PutUnit(context.Background(), &units.Unit{ID: 1, OwnerID: 10, BasePrice: decimal.NewFromInt(1000), DynamicPricingEnabled: true}))

	rec := s.do(t, http.MethodPost, "/api/v1/pricing/profiles", map[string]any{"name": "Peak", "mode": "auto", "min_price": nil, "max_price": nil}, owner("10"))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	profile := decode[map[string]any](t, rec)
	profileID := int64(profile["id"].(float64))

	rec = s.do(t, http.MethodPost, "/api/v1/pricing/profiles/"+itoa(profileID)+"/rules", map[string]any{
		"name":            "weekend",
		"condition_type":  "day_of_week",
		"condition_value": map[string]any{"days": []int{4}},
		"action_type":     "increase",
		"action_value":    "10",
		"action_unit":     "percent",
	}, owner("10"))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	require.NoError(t, s.store.PutUnit(context.Background(), &units.Unit{ID: 1, OwnerID: 10, BasePrice: decimal.NewFromInt(1000), DynamicPricingEnabled: true, PricingProfileID: &profileID}))

	rec = s.do(t, http.MethodGet, "/api/v1/units/1/price?date=2025-01-10", nil, owner("10"))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{
		"unit_id": 1,
		"date": "2025-01-10",
		"price": "1100",
		"original_price": "1000",
		"applied_rules": [{"rule_id": 3, "rule_name": "weekend", "price_before": "1000", "price_after": "1100", "delta": "100"}],
		"source": "automatic",
		"dynamic_enabled": true,
		"occupancy": 0,
		"days_before": 9
	}`, rec.Body.String())

	rec = s.do(t, http.MethodGet, "/api/v1/units/1/price-logs?date=2025-01-10", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	logs := decode[map[string][]map[string]any](t, rec)
	require.Len(t, logs["logs"], 1)
	assert.Equal(t, "1100", logs["logs"][0]["final_price"])

	rec = s.do(t, http.MethodGet, "/api/v1/units/1/price-calendar?start=2025-01-09&end=2025-01-11", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	cal := decode[map[string]any](t, rec)
	assert.Len(t, cal["days"], 3)

	rec = s.do(t, http.MethodGet, "/api/v1/units/1/price-calendar?start=2025-01-09&end=2025-01-11&format=xlsx", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, xlsx.ContentType, rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "price_calendar_1_2025-01-09_2025-01-11.xlsx")
}

func TestErrorMapping(t *testing.T) {
	s := newTestServer(t)
	require.NoError(t, s.store.PutUnit(context.Background(), &units.Unit{ID: 1, OwnerID: 10, BasePrice: decimal.NewFromInt(100)}))

	cases := []struct {
		name    string
		method  string
		path    string
		body    any
		headers map[string]string
		status  int
	}{
		{"missing date", http.MethodGet, "/api/v1/units/1/price", nil, nil, http.StatusBadRequest},
		{"bad date", http.MethodGet, "/api/v1/units/1/price?date=10.01.2025", nil, nil, http.StatusBadRequest},
		{"bad unit id", http.MethodGet, "/api/v1/units/x/price?date=2025-01-10", nil, nil, http.StatusBadRequest},
		{"unknown unit", http.MethodGet, "/api/v1/units/9/price?date=2025-01-10", nil, nil, http.StatusNotFound},
		{"foreign unit", http.MethodGet, "/api/v1/units/1/price?date=2025-01-10", nil, owner("11"), http.StatusForbidden},
		{"bad owner header", http.MethodGet, "/api/v1/units/1/price?date=2025-01-10", nil, owner("abc"), http.StatusBadRequest},
		{"reversed calendar", http.MethodGet, "/api/v1/units/1/price-calendar?start=2025-01-10&end=2025-01-01", nil, nil, http.StatusBadRequest},
		{"oversized calendar", http.MethodGet, "/api/v1/units/1/price-calendar?start=2025-01-01&end=2026-06-01", nil, nil, http.StatusBadRequest},
		{"missing profile", http.MethodGet, "/api/v1/pricing/profiles/42", nil, nil, http.StatusNotFound},
		{"invalid bounds", http.MethodPost, "/api/v1/pricing/profiles", map[string]any{"name": "x", "mode": "auto", "min_price": "10", "max_price": nil}, nil, http.StatusBadRequest},
		{"profile without name", http.MethodPost, "/api/v1/pricing/profiles", map[string]any{}, nil, http.StatusBadRequest},
		{"rule in missing profile", http.MethodPost, "/api/v1/pricing/profiles/42/rules", map[string]any{
			"name": "r", "condition_type": "occupancy", "condition_operator": ">", "condition_value": map[string]any{"threshold": 50},
			"action_type": "set", "action_value": 1, "action_unit": "fixed",
		}, nil, http.StatusNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := s.do(t, tc.method, tc.path, tc.body, tc.headers)
			assert.Equal(t, tc.status, rec.Code, rec.Body.String())
			assert.Contains(t, rec.Body.String(), `"error"`)
		})
	}
}

func TestToggleEndpoints(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()
	require.NoError(t, s.store.PutUnit(ctx, &units.Unit{ID: 1, OwnerID: 10, BasePrice: decimal.NewFromInt(100)}))
	require.NoError(t, s.store.PutUnit(ctx, &units.Unit{ID: 2, OwnerID: 10, BasePrice: decimal.NewFromInt(100)}))

	headers := map[string]string{ownerHeader: "10", idempotencyHeader: "toggle-1"}
	rec := s.do(t, http.MethodPost, "/api/v1/units/dynamic-pricing", map[string]any{"enabled": true}, headers)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{"enabled": true, "affected": 2}`, rec.Body.String())

	rec = s.do(t, http.MethodPost, "/api/v1/units/dynamic-pricing", map[string]any{"enabled": true}, headers)
	assert.JSONEq(t, `{"enabled": true, "affected": 2}`, rec.Body.String())

	rec = s.do(t, http.MethodPost, "/api/v1/units/2/dynamic-pricing", map[string]any{"enabled": false}, owner("10"))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"unit_id": 2, "enabled": false, "affected": 1}`, rec.Body.String())

	rec = s.do(t, http.MethodGet, "/api/v1/units/2/price?date=2025-01-10", nil, nil)
	assert.Contains(t, rec.Body.String(), `"source":"manual"`)
}

func TestProfileEndpoints(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/api/v1/pricing/profiles", map[string]any{"name": "Shared", "mode": "auto", "min_price": nil, "max_price": nil, "is_default": true}, nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	shared := decode[map[string]any](t, rec)

	rec = s.do(t, http.MethodPost, "/api/v1/pricing/profiles", map[string]any{"name": "Mine", "mode": "auto", "min_price": "50", "max_price": "500"}, owner("10"))
	require.Equal(t, http.StatusCreated, rec.Code)
	mine := decode[map[string]any](t, rec)
	assert.Equal(t, "50", mine["min_price"])

	rec = s.do(t, http.MethodGet, "/api/v1/pricing/profiles", nil, owner("10"))
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[map[string][]map[string]any](t, rec)
	require.Len(t, list["profiles"], 2)
	assert.Equal(t, "Shared", list["profiles"][0]["name"])

	sharedPath := "/api/v1/pricing/profiles/" + itoa(int64(shared["id"].(float64)))
	rec = s.do(t, http.MethodPut, sharedPath, map[string]any{"name": "Taken", "mode": "auto", "min_price": nil, "max_price": nil}, owner("10"))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	rec = s.do(t, http.MethodDelete, sharedPath, nil, owner("10"))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	minePath := "/api/v1/pricing/profiles/" + itoa(int64(mine["id"].(float64)))
	rec = s.do(t, http.MethodPost, minePath+"/rules", map[string]any{
		"name": "busy", "condition_type": "occupancy", "condition_operator": ">=", "condition_value": map[string]any{"threshold": 80},
		"action_type": "increase", "action_value": 15, "action_unit": "percent", "priority": 3,
	}, owner("10"))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	rule := decode[map[string]any](t, rec)
	rulePath := "/api/v1/pricing/rules/" + itoa(int64(rule["id"].(float64)))

	rec = s.do(t, http.MethodPut, rulePath, map[string]any{
		"name": "busy", "condition_type": "occupancy", "condition_operator": ">=", "condition_value": map[string]any{"threshold": 90},
		"action_type": "increase", "action_value": 20, "action_unit": "percent", "enabled": false,
	}, owner("10"))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, false, decode[map[string]any](t, rec)["enabled"])

	rec = s.do(t, http.MethodGet, minePath+"/rules", nil, owner("10"))
	require.Equal(t, http.StatusOK, rec.Code)
	rules := decode[map[string][]map[string]any](t, rec)
	require.Len(t, rules["rules"], 1)
	assert.Equal(t, "20", rules["rules"][0]["action_value"])

	rec = s.do(t, http.MethodDelete, rulePath, nil, owner("10"))
	require.Equal(t, http.StatusOK, rec.Code)
	rec = s.do(t, http.MethodDelete, minePath, nil, owner("10"))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"id": `+itoa(int64(mine["id"].(float64)))+`, "deleted": true}`, rec.Body.String())
	rec = s.do(t, http.MethodGet, minePath, nil, owner("10"))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestProfileRequiredFields(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/api/v1/pricing/profiles", map[string]any{"name": "NoModeNoBounds"}, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), "mode is required")

	rec = s.do(t, http.MethodPost, "/api/v1/pricing/profiles", map[string]any{"name": "NoBounds", "mode": "auto"}, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), "min_price is required")

	rec = s.do(t, http.MethodPost, "/api/v1/pricing/profiles", map[string]any{"name": "B", "mode": "auto", "min_price": "900", "max_price": "1100"}, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	path := "/api/v1/pricing/profiles/" + itoa(int64(decode[map[string]any](t, rec)["id"].(float64)))

	rec = s.do(t, http.MethodPut, path, map[string]any{"name": "B2"}, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
	rec = s.do(t, http.MethodGet, path, nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	kept := decode[map[string]any](t, rec)
	assert.Equal(t, "B", kept["name"])
	assert.Equal(t, "900", kept["min_price"])
	assert.Equal(t, "1100", kept["max_price"])

	rec = s.do(t, http.MethodPut, path, map[string]any{"name": "B2", "mode": "auto", "min_price": nil, "max_price": nil}, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	cleared := decode[map[string]any](t, rec)
	assert.Nil(t, cleared["min_price"])
	assert.Nil(t, cleared["max_price"])

	rec = s.do(t, http.MethodPost, path+"/rules", map[string]any{
		"name": "zero", "condition_type": "occupancy", "condition_operator": ">=", "condition_value": map[string]any{"threshold": 0},
		"action_type": "set", "action_unit": "absolute",
	}, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), "action_value is required")
}

func TestMetricsAndHealthRoutes(t *testing.T) {
	s := newTestServer(t)
	assert.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/livez", nil, nil).Code)
	assert.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/readyz", nil, nil).Code)
	rec := s.do(t, http.MethodGet, "/metrics", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "http_requests_total")
}

func itoa(v int64) string {
	return strconv.FormatInt(v, 10)
}
