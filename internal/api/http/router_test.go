package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	stdhttp "net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	jwt "github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/ticketdesk/ticketdesk/internal/api/http/handlers"
	"github.com/ticketdesk/ticketdesk/internal/auth"
	"github.com/ticketdesk/ticketdesk/internal/domain"
	"github.com/ticketdesk/ticketdesk/internal/observability"
	"github.com/ticketdesk/ticketdesk/internal/service"
	"github.com/ticketdesk/ticketdesk/internal/state"
)

const testSecret = "test-gateway-secret"

func newTestApp(t *testing.T) (*fiber.App, *state.Store) {
	t.Helper()
	snap := state.NewMemorySnapshotter()
	store, err := state.NewStore(context.Background(), snap, zap.NewNop(), nil)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	role := "role-admin"
	if _, err := store.Commit(context.Background(), func(st *domain.State) error {
		st.Settings.AdminRoleID = &role
		return nil
	}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	tickets := service.NewTicketService(store, nil)
	dashboards := service.NewDashboardService(store, nil)
	settings := service.NewSettingsService(store, nil)
	policy := service.NewAccessPolicy(store, nil)
	queries := service.NewQueryService(store)

	app := fiber.New()
	RegisterMiddlewares(app, zap.NewNop(), observability.NewMetrics(), 5*time.Second)
	RegisterRoutes(app, RouteConfig{
		Health:         handlers.NewHealthHandler("ticket-desk", "test", snap),
		Tickets:        handlers.NewTicketsHandler(tickets),
		Dashboards:     handlers.NewDashboardsHandler(dashboards),
		Admin:          handlers.NewAdminHandler(settings, policy),
		Queries:        handlers.NewQueriesHandler(queries),
		AuthMiddleware: auth.NewMiddleware(auth.NewTokenVerifier(testSecret)),
	})
	return app, store
}

func bearerToken(t *testing.T, actorID string, roles ...string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, auth.Claims{
		ActorID: actorID,
		Roles:   roles,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
		},
	})
	signed, err := token.SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return "Bearer " + signed
}

func doJSON(t *testing.T, app *fiber.App, method, target, token string, body any) (*stdhttp.Response, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", token)
	}
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("%s %s: %v", method, target, err)
	}
	decoded := map[string]any{}
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &decoded); err != nil {
			t.Fatalf("decode body %q: %v", raw, err)
		}
	}
	return resp, decoded
}

func TestRoutesRejectMissingToken(t *testing.T) {
	app, _ := newTestApp(t)

	resp, body := doJSON(t, app, stdhttp.MethodPost, "/api/v1/tickets", "", fiber.Map{
		"channel_id": "chan-1",
		"type":       "GENERAL_INQUIRY",
	})
	if resp.StatusCode != stdhttp.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", resp.StatusCode)
	}
	errObj, _ := body["error"].(map[string]any)
	if errObj["code"] != "ACCESS_DENIED" {
		t.Fatalf("error = %v, want ACCESS_DENIED", body)
	}
}

func TestHealthRoutesNeedNoToken(t *testing.T) {
	app, _ := newTestApp(t)

	resp, body := doJSON(t, app, stdhttp.MethodGet, "/health/live", "", nil)
	if resp.StatusCode != stdhttp.StatusOK {
		t.Fatalf("live status = %d, want 200", resp.StatusCode)
	}
	if body["status"] != "alive" {
		t.Fatalf("live body = %v", body)
	}

	resp, body = doJSON(t, app, stdhttp.MethodGet, "/health/ready", "", nil)
	if resp.StatusCode != stdhttp.StatusOK {
		t.Fatalf("ready status = %d, want 200", resp.StatusCode)
	}
	if body["status"] != "ready" {
		t.Fatalf("ready body = %v", body)
	}
}

func TestTicketLifecycleOverHTTP(t *testing.T) {
	app, store := newTestApp(t)
	memberToken := bearerToken(t, "member-1")
	staffToken := bearerToken(t, "staff-1", "role-admin")

	resp, body := doJSON(t, app, stdhttp.MethodPost, "/api/v1/tickets", memberToken, fiber.Map{
		"channel_id": "chan-1",
		"type":       "GENERAL_INQUIRY",
		"details":    "hello",
	})
	if resp.StatusCode != stdhttp.StatusCreated {
		t.Fatalf("create status = %d, body %v", resp.StatusCode, body)
	}
	data, _ := body["data"].(map[string]any)
	if data["status"] != "OPEN" || data["user_id"] != "member-1" {
		t.Fatalf("create body = %v", body)
	}

	resp, body = doJSON(t, app, stdhttp.MethodPost, "/api/v1/tickets/chan-1/claim", staffToken, nil)
	if resp.StatusCode != stdhttp.StatusOK {
		t.Fatalf("claim status = %d, body %v", resp.StatusCode, body)
	}

	resp, body = doJSON(t, app, stdhttp.MethodPost, "/api/v1/tickets/chan-1/close", staffToken, fiber.Map{
		"reason": "resolved",
	})
	if resp.StatusCode != stdhttp.StatusOK {
		t.Fatalf("close status = %d, body %v", resp.StatusCode, body)
	}

	ticket := store.Read().Tickets["chan-1"]
	if !ticket.IsClosed() {
		t.Fatalf("ticket status = %s, want CLOSED", ticket.Status)
	}
}

func TestDomainErrorsMapToJSON(t *testing.T) {
	app, _ := newTestApp(t)
	memberToken := bearerToken(t, "member-1")

	resp, body := doJSON(t, app, stdhttp.MethodGet, "/api/v1/tickets/missing", memberToken, nil)
	if resp.StatusCode != stdhttp.StatusNotFound {
		t.Fatalf("status = %d, want 404", resp.StatusCode)
	}
	errObj, _ := body["error"].(map[string]any)
	if errObj["code"] != "NOT_FOUND" {
		t.Fatalf("error = %v, want NOT_FOUND", body)
	}

	// Duplicate open ticket surfaces the policy denial code and a 409.
	if resp, body = doJSON(t, app, stdhttp.MethodPost, "/api/v1/tickets", memberToken, fiber.Map{
		"channel_id": "chan-1", "type": "GENERAL_INQUIRY",
	}); resp.StatusCode != stdhttp.StatusCreated {
		t.Fatalf("create status = %d, body %v", resp.StatusCode, body)
	}
	resp, body = doJSON(t, app, stdhttp.MethodPost, "/api/v1/tickets", memberToken, fiber.Map{
		"channel_id": "chan-2", "type": "GENERAL_INQUIRY",
	})
	if resp.StatusCode != stdhttp.StatusConflict {
		t.Fatalf("status = %d, want 409; body %v", resp.StatusCode, body)
	}
	errObj, _ = body["error"].(map[string]any)
	if errObj["code"] != "DUPLICATE_OPEN_TICKET" {
		t.Fatalf("error = %v, want DUPLICATE_OPEN_TICKET", body)
	}
}

func TestAdminRoutesOverHTTP(t *testing.T) {
	app, store := newTestApp(t)
	staffToken := bearerToken(t, "staff-1", "role-admin")

	resp, body := doJSON(t, app, stdhttp.MethodPost, "/api/v1/admin/bans", staffToken, fiber.Map{
		"user_id": "member-9",
		"reason":  "spam",
	})
	if resp.StatusCode >= 300 {
		t.Fatalf("ban status = %d, body %v", resp.StatusCode, body)
	}
	if _, banned := store.Read().BannedUsers["member-9"]; !banned {
		t.Fatal("ban not committed")
	}

	resp, body = doJSON(t, app, stdhttp.MethodPut, "/api/v1/admin/settings/mode", staffToken, fiber.Map{
		"mode": "MAINTENANCE",
	})
	if resp.StatusCode >= 300 {
		t.Fatalf("mode status = %d, body %v", resp.StatusCode, body)
	}
	if got := store.Read().Settings.Mode; got != domain.ModeMaintenance {
		t.Fatalf("mode = %s, want MAINTENANCE", got)
	}
}
