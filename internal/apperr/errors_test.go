package apperr

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestKindOf(t *testing.T) {
	wrapped := fmt.Errorf("toggle: %w", NotFound("Ürün bulunamadı."))

	assert.Equal(t, KindNotFound, KindOf(wrapped))
	assert.Equal(t, KindUnknown, KindOf(errors.New("boom")))
	assert.True(t, Is(ProductNotFound("Domates"), KindProductNotFound))
	assert.Equal(t, "Ürün bulunamadı.", Message(wrapped))
}

func TestIsBusiness(t *testing.T) {
	assert.True(t, IsBusiness(Validation("x")))
	assert.True(t, IsBusiness(Authorization("x")))
	assert.True(t, IsBusiness(Conflict("x")))
	assert.False(t, IsBusiness(Storage("commit", errors.New("conn reset"))))
	assert.False(t, IsBusiness(errors.New("plain")))
}

func TestStorageUnwraps(t *testing.T) {
	cause := errors.New("deadlock detected")
	err := Storage("stok güncellenemedi", cause)

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "deadlock detected")
}

func TestProductNotFoundMessage(t *testing.T) {
	assert.Equal(t, `"Domates" depoda bulunamadı. Lütfen önce Depo modülünden bu ürünü ekleyin.`, Message(ProductNotFound("Domates")))
}

func TestRespond(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := zap.New(core)

	app := fiber.New()
	app.Get("/ok", func(c *fiber.Ctx) error { return Respond(c, log, "ok", fiber.Map{"n": 1}, nil) })
	app.Get("/conflict", func(c *fiber.Ctx) error {
		return Respond(c, log, "edit", nil, Conflict("Bu ürün zaten depoya eklendi."))
	})
	app.Get("/storage", func(c *fiber.Ctx) error {
		return Respond(c, log, "toggle", nil, Storage("commit", errors.New("pq: connection refused")))
	})

	cases := []struct {
		path    string
		status  int
		success bool
		message string
	}{
		{"/ok", 200, true, ""},
		{"/conflict", 409, false, "Bu ürün zaten depoya eklendi."},
		{"/storage", 500, false, GenericMessage},
	}
	for _, tc := range cases {
		t.Run(tc.path, func(t *testing.T) {
			resp, err := app.Test(httptest.NewRequest("GET", tc.path, nil))
			require.NoError(t, err)
			assert.Equal(t, tc.status, resp.StatusCode)

			body, _ := io.ReadAll(resp.Body)
			var res Result
			require.NoError(t, json.Unmarshal(body, &res))
			assert.Equal(t, tc.success, res.Success)
			assert.Equal(t, tc.message, res.Error)
			assert.NotContains(t, string(body), "pq:")
		})
	}

	assert.Equal(t, 1, logs.FilterMessage("business error").Len())
	require.Equal(t, 1, logs.FilterMessage("unexpected error").Len())
	assert.Equal(t, "toggle", logs.FilterMessage("unexpected error").All()[0].ContextMap()["op"])
}

func TestValidateStruct(t *testing.T) {
	type req struct {
		Name  string   `validate:"required"`
		Kind  string   `validate:"omitempty,oneof=IN OUT"`
		Items []string `validate:"min=1"`
	}

	require.NoError(t, ValidateStruct(req{Name: "Domates", Items: []string{"x"}}))

	err := ValidateStruct(req{Items: []string{"x"}})
	require.True(t, Is(err, KindValidation))
	assert.Equal(t, "Name zorunludur", Message(err))

	err = ValidateStruct(req{Name: "a", Kind: "SIDEWAYS", Items: []string{"x"}})
	assert.Equal(t, "Kind şunlardan biri olmalıdır: IN OUT", Message(err))

	err = ValidateStruct(req{Name: "a"})
	assert.Equal(t, "Items en az 1 olmalıdır", Message(err))
}
