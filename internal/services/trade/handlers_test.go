package trade_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rajivgeraev/bookswap-api/internal/logging"
	"github.com/rajivgeraev/bookswap-api/internal/middleware"
	"github.com/rajivgeraev/bookswap-api/internal/models"
	"github.com/rajivgeraev/bookswap-api/internal/services/trade"
	"github.com/rajivgeraev/bookswap-api/internal/utils"
)

type apiClient struct {
	t   *testing.T
	app *fiber.App
	jwt *utils.JWTService
}

func newAPIClient(t *testing.T, f *fixture) *apiClient {
	t.Helper()

	jwtService := utils.NewJWTService("test-secret")
	app := fiber.New(fiber.Config{ErrorHandler: middleware.ErrorHandler(logging.Nop())})
	api := app.Group("/api/trades", middleware.AuthMiddleware(jwtService))
	trade.NewHandler(f.service).SetupRoutes(api)
	return &apiClient{t: t, app: app, jwt: jwtService}
}

func (c *apiClient) do(userID uuid.UUID, method, path, body string) (*http.Response, map[string]any) {
	c.t.Helper()

	token, err := c.jwt.GenerateToken(userID)
	require.NoError(c.t, err)

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+token)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.app.Test(req)
	require.NoError(c.t, err)

	var decoded map[string]any
	require.NoError(c.t, json.NewDecoder(resp.Body).Decode(&decoded))
	return resp, decoded
}

func tradeIDFrom(t *testing.T, body map[string]any) string {
	t.Helper()
	tr, ok := body["trade"].(map[string]any)
	require.True(t, ok, "response has no trade: %v", body)
	id, ok := tr["id"].(string)
	require.True(t, ok)
	return id
}

func Test_Handler_FullSwapFlow(t *testing.T) {
	// arrange
	f := newFixture(t)
	api := newAPIClient(t, f)

	// act & assert
	resp, body := api.do(f.R, http.MethodPost, "/api/trades",
		`{"recipient_id":"`+f.P.String()+`","requested_book_id":"`+f.X.String()+`","offered_book_id":"`+f.Y.String()+`","message":"hi"}`)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode, body)
	id := tradeIDFrom(t, body)

	resp, body = api.do(f.P, http.MethodPost, "/api/trades/"+id+"/accept",
		`{"trade_type":"swap","recipient_offered_book":"`+f.Z.String()+`"}`)
	require.Equal(t, fiber.StatusOK, resp.StatusCode, body)

	resp, _ = api.do(f.R, http.MethodPost, "/api/trades/"+id+"/confirm", "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, body = api.do(f.P, http.MethodPost, "/api/trades/"+id+"/confirm", "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, string(models.StatusCompleted), body["trade"].(map[string]any)["status"])

	resp, body = api.do(f.R, http.MethodGet, "/api/trades/"+id, "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	details := body["trade"].(map[string]any)
	assert.Equal(t, "Reliable", details["requester"].(map[string]any)["reliability_score"])

	resp, body = api.do(f.R, http.MethodGet, "/api/trades?view=completed", "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.EqualValues(t, 1, body["count"])
}

func Test_Handler_ErrorStatuses(t *testing.T) {
	f := newFixture(t)
	api := newAPIClient(t, f)
	tr := f.createSwap(t)
	path := "/api/trades/" + tr.ID.String()

	resp, body := api.do(f.R, http.MethodPost, path+"/accept", `{"trade_type":"donation"}`)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode, body)

	resp, body = api.do(f.P, http.MethodPost, path+"/accept", `{"trade_type":"swap"}`)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "recipient_offered_book", body["field"])

	resp, body = api.do(f.P, http.MethodPost, path+"/accept", `{"trade_type":"gift"}`)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "trade_type", body["field"])

	resp, _ = api.do(f.U, http.MethodGet, path, "")
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	resp, _ = api.do(f.R, http.MethodPost, path+"/confirm", "")
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)

	resp, _ = api.do(f.R, http.MethodGet, "/api/trades/not-a-uuid", "")
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp, body = api.do(f.R, http.MethodPost, "/api/trades", `{"recipient_id":"`+f.P.String()+`"}`)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "requested_book_id", body["field"])

	resp, _ = api.do(f.R, http.MethodGet, "/api/trades?limit=-1", "")
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func Test_Handler_RejectAndCancel(t *testing.T) {
	f := newFixture(t)
	api := newAPIClient(t, f)

	rejected := f.createSwap(t)
	resp, body := api.do(f.P, http.MethodPost, "/api/trades/"+rejected.ID.String()+"/reject", "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "rejected", body["trade"].(map[string]any)["status"])

	cancelled := f.createSwap(t)
	resp, body = api.do(f.R, http.MethodPost, "/api/trades/"+cancelled.ID.String()+"/cancel", "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "cancelled", body["trade"].(map[string]any)["status"])
}

func Test_Handler_RequiresToken(t *testing.T) {
	f := newFixture(t)
	api := newAPIClient(t, f)

	resp, err := api.app.Test(httptest.NewRequest(http.MethodGet, "/api/trades", nil))

	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}
