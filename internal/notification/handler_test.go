package notification

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"

	"ottobite-backend/internal/auth"
	"ottobite-backend/internal/database/dbtest"
	"ottobite-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func bearer(t *testing.T, u models.User) string {
	t.Helper()
	token, err := auth.GenerateToken(testSecret, &u)
	require.NoError(t, err)
	return "Bearer " + token
}

func newHandlerApp(g *Gateway) *fiber.App {
	app := fiber.New()
	app.Get("/anon/stream", StreamHandler(g, nil))
	api := app.Group("/api/notifications", auth.SessionMiddleware(testSecret))
	api.Get("/", SnapshotHandler(g, nil))
	api.Get("/stream", StreamHandler(g, nil))
	api.Post("/read", MarkAllReadHandler(g, nil))
	return app
}

func TestSnapshotHandlerFiltersByObserver(t *testing.T) {
	db := dbtest.New(t)
	seed(t, db)
	app := newHandlerApp(NewGateway(db, NewLocalBus(1, nil), GatewayConfig{}, nil))

	read := func(u models.User) []Event {
		req := httptest.NewRequest("GET", "/api/notifications/", nil)
		req.Header.Set("Authorization", bearer(t, u))
		resp, err := app.Test(req)
		require.NoError(t, err)
		require.Equal(t, 200, resp.StatusCode)

		body, _ := io.ReadAll(resp.Body)
		var out struct {
			Success bool    `json:"success"`
			Data    []Event `json:"data"`
		}
		require.NoError(t, json.Unmarshal(body, &out))
		require.True(t, out.Success)
		return out.Data
	}

	assert.Len(t, read(models.User{ID: 2, Role: models.RoleChef}), 3)
	assert.Len(t, read(models.User{ID: 1, Role: models.RoleAdmin}), 4)
}

func TestMarkAllReadHandler(t *testing.T) {
	db := dbtest.New(t)
	seed(t, db)
	app := newHandlerApp(NewGateway(db, NewLocalBus(1, nil), GatewayConfig{}, nil))

	req := httptest.NewRequest("POST", "/api/notifications/read", nil)
	req.Header.Set("Authorization", bearer(t, models.User{ID: 1, Role: models.RoleAdmin}))
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	var unread int64
	require.NoError(t, db.Model(&models.Notification{}).Where("is_read = ?", false).Count(&unread).Error)
	assert.Zero(t, unread)
}

func TestStreamHandlerRejections(t *testing.T) {
	db := dbtest.New(t)
	g := NewGateway(db, NewLocalBus(1, nil), GatewayConfig{MaxClients: 1}, nil)
	app := newHandlerApp(g)

	t.Run("anonymous observer", func(t *testing.T) {
		resp, err := app.Test(httptest.NewRequest("GET", "/anon/stream", nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("too many streams", func(t *testing.T) {
		release, ok := g.Admit()
		require.True(t, ok)
		defer release()

		req := httptest.NewRequest("GET", "/api/notifications/stream", nil)
		req.Header.Set("Authorization", bearer(t, models.User{ID: 2, Role: models.RoleChef}))
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusServiceUnavailable, resp.StatusCode)
	})
}
