package apperr

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

const GenericMessage = "Bir hata oluştu. Lütfen tekrar deneyin."

// Result: istemcinin beklediği {success, data | error} zarfı
type Result struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

func Status(err error) int {
	switch KindOf(err) {
	case KindValidation:
		return fiber.StatusBadRequest
	case KindAuthorization:
		return fiber.StatusForbidden
	case KindNotFound, KindProductNotFound:
		return fiber.StatusNotFound
	case KindConflict:
		return fiber.StatusConflict
	default:
		return fiber.StatusInternalServerError
	}
}

// Respond writes the boundary result. Business errors go out with their message;
// anything else is logged with op and replaced by GenericMessage.
func Respond(c *fiber.Ctx, log *zap.Logger, op string, data any, err error) error {
	if err == nil {
		return c.JSON(Result{Success: true, Data: data})
	}

	if IsBusiness(err) {
		if log != nil {
			log.Warn("business error",
				zap.String("op", op),
				zap.String("kind", KindOf(err).String()),
				zap.String("error", Message(err)))
		}
		return c.Status(Status(err)).JSON(Result{Success: false, Error: Message(err)})
	}

	if log != nil {
		log.Error("unexpected error",
			zap.String("op", op),
			zap.String("kind", KindOf(err).String()),
			zap.Error(err))
	}
	return c.Status(fiber.StatusInternalServerError).JSON(Result{Success: false, Error: GenericMessage})
}

// ErrorHandler is the fiber.Config ErrorHandler: middleware errors (*fiber.Error) keep their
// status and message, anything else becomes a generic 500.
func ErrorHandler(log *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var fe *fiber.Error
		if errors.As(err, &fe) {
			return c.Status(fe.Code).JSON(Result{Success: false, Error: fe.Message})
		}
		if log != nil {
			log.Error("unexpected error", zap.String("path", c.Path()), zap.Error(err))
		}
		return c.Status(fiber.StatusInternalServerError).JSON(Result{Success: false, Error: "Beklenmeyen sunucu hatası"})
	}
}
