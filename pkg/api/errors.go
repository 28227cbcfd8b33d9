package api

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo"

	"github.com/Lyadalachanchu/voice4evs/pkg/centralsystem"
	"github.com/Lyadalachanchu/voice4evs/pkg/guardrails"
	"github.com/Lyadalachanchu/voice4evs/pkg/ocpp"
	"github.com/Lyadalachanchu/voice4evs/pkg/scenario"
)

type errorResource struct {
	Error string `json:"error"`
}

// writeError maps the command error taxonomy onto HTTP status codes:
// unknown device 404, rejected input 422, rate limit 429 with a
// Retry-After header, device or wire failure 502, unknown names 400.
func writeError(c echo.Context, err error) error {
	status := http.StatusInternalServerError

	switch {
	case centralsystem.IsNotConnectedError(err):
		status = http.StatusNotFound
	case guardrails.IsValidationError(err):
		status = http.StatusUnprocessableEntity
	case guardrails.IsRateLimitedError(err):
		status = http.StatusTooManyRequests
		if rl, ok := err.(*guardrails.RateLimitedError); ok {
			retryAfter := int(rl.RetryAfter.Seconds())
			if retryAfter < 1 {
				retryAfter = 1
			}
			c.Response().Header().Set("Retry-After", strconv.Itoa(retryAfter))
		}
	case centralsystem.IsTransportError(err):
		status = http.StatusBadGateway
	case scenario.IsUnknownScenarioError(err), ocpp.IsUnknownActionError(err):
		status = http.StatusBadRequest
	}

	return c.JSON(status, &errorResource{Error: err.Error()})
}
