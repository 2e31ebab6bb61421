package metrics

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/suite"
)

type ServerTestSuite struct {
	suite.Suite
}

func TestServerTestSuite(t *testing.T) {
	suite.Run(t, new(ServerTestSuite))
}

func (s *ServerTestSuite) TestNewServerValidatesConfig() {
	_, err := NewServer(nil)
	s.Error(err)

	_, err = NewServer(&ServerConfig{})
	s.Error(err)

	server, err := NewServer(&ServerConfig{Addr: ":0"})
	s.Require().NoError(err)
	s.Equal("metrics-server", server.String())
}

func (s *ServerTestSuite) TestMetricsEndpoint() {
	DrinksCancelled.Inc()

	rec := httptest.NewRecorder()
	NewRouter(nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	s.Equal(http.StatusOK, rec.Code)
	s.Contains(rec.Body.String(), "kegledger_drinks_cancelled_total")
}

func (s *ServerTestSuite) TestHealthz() {
	healthy := map[string]HealthCheck{
		"ledger": func(context.Context) error { return nil },
	}
	rec := httptest.NewRecorder()
	NewRouter(healthy).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	s.Equal(http.StatusOK, rec.Code)
	s.JSONEq(`{"ledger":"ok"}`, rec.Body.String())

	healthy["cache"] = func(context.Context) error { return errors.New("connection refused") }
	rec = httptest.NewRecorder()
	NewRouter(healthy).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	s.Equal(http.StatusServiceUnavailable, rec.Code)
	s.JSONEq(`{"ledger":"ok","cache":"connection refused"}`, rec.Body.String())
}
