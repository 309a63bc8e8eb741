package accounts

import (
	"encoding/json"

	"github.com/gofiber/fiber/v2"

	"github.com/infothings/auth/apperr"
	"github.com/infothings/auth/models"
)

func bindJSON(c *fiber.Ctx, dst interface{}) error {
	if len(c.Body()) == 0 {
		return apperr.ErrEmptyBody
	}
	if err := json.Unmarshal(c.Body(), dst); err != nil {
		return apperr.Wrap(err, apperr.ErrBadRequest, "malformed json body")
	}
	if err := models.ValidateStruct(dst); err != nil {
		return apperr.Wrap(err, apperr.ErrValidation, err.Error())
	}
	return nil
}

// fail renders a typed error with its status and payload.
func fail(c *fiber.Ctx, err error) error {
	return c.Status(apperr.Status(err)).JSON(apperr.Payload(err))
}
