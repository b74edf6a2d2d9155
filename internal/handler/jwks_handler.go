package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// JWKS serves the public signing keys for external verifiers such as
// an edge proxy validating tokens before they reach the service. In
// HMAC mode the key set is empty.
func (h *Handler) JWKS(c echo.Context) error {
	return c.JSON(http.StatusOK, h.Signer.JWKS())
}
