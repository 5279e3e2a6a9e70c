package server

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Clementwa0/Job-tracker-sub001/internal/relay"
)

// errorShape selects how a route renders failures. The frontend reads a
// different key on each route.
type errorShape int

const (
	shapeDefault errorShape = iota
	shapeCVReview
	shapeJobExtract
	shapeTip
)

func (s errorShape) String() string {
	switch s {
	case shapeCVReview:
		return "review-cv"
	case shapeJobExtract:
		return "analyze-job"
	case shapeTip:
		return "tip"
	}
	return "default"
}

// Generic messages returned when the upstream fails. Causes are only logged.
const (
	msgCVReviewFailed   = "Failed to review CV"
	msgJobExtractFailed = "Failed to analyze job description"
	msgTipFailedTitle   = "Error"
	msgTipFailedBody    = "Failed to generate tip."
	msgInternal         = "Internal server error"
	msgMethodNotAllowed = "Method not allowed"
)

// routeError tags a handler error with the shape of its route.
type routeError struct {
	shape errorShape
	err   error
}

func (e routeError) Error() string { return e.err.Error() }

func (e routeError) Unwrap() error { return e.err }

// requestError is a client error raised by the server itself, such as an
// oversized body.
type requestError struct {
	Status  int
	Message string
}

func (e requestError) Error() string {
	return e.Message
}

// handleError renders err in the shape of the failing route. A committed
// response is never rewritten; the failure has already ended the body.
func (s *Server) handleError(err error, c echo.Context) {
	shape := shapeDefault
	var re routeError
	if errors.As(err, &re) {
		shape = re.shape
	}

	logger := s.logger.With(
		"request_id", c.Response().Header().Get(echo.HeaderXRequestID),
		"route", shape.String(),
	)

	if errors.Is(err, relay.ErrClientDisconnected) {
		logger.Debug("client disconnected", "error", err)
		return
	}

	if c.Response().Committed {
		logger.Error("request failed after response started", "error", err)
		return
	}

	var (
		methodErr *relay.MethodError
		validErr  *relay.ValidationError
		reqErr    requestError
		httpErr   *echo.HTTPError
	)
	switch {
	case errors.As(err, &methodErr):
		c.Response().Header().Set(echo.HeaderAllow, methodErr.Allowed)
		s.respond(c, http.StatusMethodNotAllowed, map[string]string{"error": msgMethodNotAllowed})
	case errors.As(err, &validErr):
		s.respond(c, http.StatusBadRequest, clientErrorBody(shape, validErr.Reason))
	case errors.As(err, &reqErr):
		s.respond(c, reqErr.Status, clientErrorBody(shape, reqErr.Message))
	case errors.As(err, &httpErr):
		message := http.StatusText(httpErr.Code)
		if m, ok := httpErr.Message.(string); ok {
			message = m
		}
		s.respond(c, httpErr.Code, clientErrorBody(shape, message))
	default:
		logger.Error("upstream request failed", "error", err)
		s.respondUpstreamFailure(c, shape)
	}
}

func clientErrorBody(shape errorShape, message string) map[string]string {
	if shape == shapeJobExtract {
		return map[string]string{"message": message}
	}
	return map[string]string{"error": message}
}

func (s *Server) respondUpstreamFailure(c echo.Context, shape errorShape) {
	switch shape {
	case shapeCVReview:
		if err := c.String(http.StatusInternalServerError, msgCVReviewFailed); err != nil {
			s.logger.Debug("write error response", "error", err)
		}
	case shapeJobExtract:
		s.respond(c, http.StatusInternalServerError, map[string]string{"message": msgJobExtractFailed})
	case shapeTip:
		s.respond(c, http.StatusInternalServerError, relay.Tip{Title: msgTipFailedTitle, Description: msgTipFailedBody})
	default:
		s.respond(c, http.StatusInternalServerError, map[string]string{"error": msgInternal})
	}
}

func (s *Server) respond(c echo.Context, status int, body any) {
	var err error
	if c.Request().Method == http.MethodHead {
		err = c.NoContent(status)
	} else {
		err = c.JSON(status, body)
	}
	if err != nil {
		s.logger.Debug("write error response", "error", err)
	}
}
