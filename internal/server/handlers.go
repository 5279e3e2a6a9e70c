package server

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/Clementwa0/Job-tracker-sub001/internal/relay"
	"github.com/Clementwa0/Job-tracker-sub001/internal/transport"
)

func (s *Server) handleReviewCV(c echo.Context) error {
	payload, err := s.validate(c, s.rules.cvReview)
	if err != nil {
		return routeError{shape: shapeCVReview, err: err}
	}

	var w transport.Writer = transport.NewChunkedWriter(c.Response())
	if acceptsNDJSON(c.Request()) {
		w = transport.NewNDJSONWriter(w)
	}

	if err := s.engine.ReviewCV(c.Request().Context(), payload, w); err != nil {
		return routeError{shape: shapeCVReview, err: err}
	}
	return nil
}

func (s *Server) handleAnalyzeJob(c echo.Context) error {
	payload, err := s.validate(c, s.rules.jobExtract)
	if err != nil {
		return routeError{shape: shapeJobExtract, err: err}
	}

	fields, err := s.engine.ExtractJob(c.Request().Context(), payload)
	if err != nil {
		return routeError{shape: shapeJobExtract, err: err}
	}
	return c.JSON(http.StatusOK, fields)
}

func (s *Server) handleTip(c echo.Context) error {
	if _, err := s.validate(c, s.rules.tip); err != nil {
		return routeError{shape: shapeTip, err: err}
	}

	tip, err := s.engine.GenerateTip(c.Request().Context())
	if err != nil {
		return routeError{shape: shapeTip, err: err}
	}
	return c.JSON(http.StatusOK, tip)
}

// validate reads the body only when the method already matches, so a wrong
// method is answered without touching the body.
func (s *Server) validate(c echo.Context, rule relay.Rule) (relay.Payload, error) {
	method := c.Request().Method

	var body []byte
	if method == rule.Method && rule.Field != "" {
		var err error
		if body, err = s.readBody(c); err != nil {
			return relay.Payload{}, err
		}
	}
	return rule.Validate(method, body)
}

func (s *Server) readBody(c echo.Context) ([]byte, error) {
	req := c.Request()
	defer req.Body.Close()

	req.Body = http.MaxBytesReader(c.Response(), req.Body, s.cfg.Server.MaxBodyBytes)

	body, err := io.ReadAll(req.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, requestError{
				Status:  http.StatusRequestEntityTooLarge,
				Message: fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit),
			}
		}
		return nil, requestError{
			Status:  http.StatusBadRequest,
			Message: "failed to read request body",
		}
	}
	return body, nil
}

func acceptsNDJSON(r *http.Request) bool {
	return strings.Contains(r.Header.Get(echo.HeaderAccept), transport.ContentTypeNDJSON)
}
