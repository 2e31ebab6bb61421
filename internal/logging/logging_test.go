package logging

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/suite"
)

type LoggingTestSuite struct {
	suite.Suite
	buf      *bytes.Buffer
	previous zerolog.Logger
}

func (s *LoggingTestSuite) SetupTest() {
	s.previous = Logger()
	s.buf = &bytes.Buffer{}
	Init(Config{Level: "debug", Output: s.buf})
}

func (s *LoggingTestSuite) TearDownTest() {
	SetLogger(s.previous)
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
}

func TestLoggingTestSuite(t *testing.T) {
	suite.Run(t, new(LoggingTestSuite))
}

func (s *LoggingTestSuite) entry() map[string]interface{} {
	var out map[string]interface{}
	s.Require().NoError(json.Unmarshal(s.buf.Bytes(), &out))
	return out
}

func (s *LoggingTestSuite) TestParseLevel() {
	s.Equal(zerolog.DebugLevel, ParseLevel("DEBUG"))
	s.Equal(zerolog.WarnLevel, ParseLevel("warning"))
	s.Equal(zerolog.InfoLevel, ParseLevel("bogus"))
	s.True(ValidLevel("error"))
	s.False(ValidLevel("bogus"))
}

func (s *LoggingTestSuite) TestStructuredFields() {
	Info().Int64("drink_id", 7).Msg("drink recorded")

	entry := s.entry()
	s.Equal("info", entry["level"])
	s.Equal("drink recorded", entry["message"])
	s.EqualValues(7, entry["drink_id"])
}

func (s *LoggingTestSuite) TestCtxAddsCorrelationID() {
	ctx := ContextWithCorrelationID(context.Background(), "abc12345")
	Ctx(ctx).Warn().Msg("dispatch failed")

	entry := s.entry()
	s.Equal("abc12345", entry["correlation_id"])
	s.Equal("warn", entry["level"])
}

func (s *LoggingTestSuite) TestNewCorrelationIDKeepsExisting() {
	ctx := ContextWithNewCorrelationID(context.Background())
	id := CorrelationIDFromContext(ctx)
	s.Len(id, 8)

	s.Equal(id, CorrelationIDFromContext(ContextWithNewCorrelationID(ctx)))
}

func (s *LoggingTestSuite) TestSlogAdapter() {
	logger := NewSlogLogger().WithGroup("supervisor").With(slog.String("service", "stats-worker"))
	logger.Error("service failed", slog.Int("restarts", 2))

	entry := s.entry()
	s.Equal("error", entry["level"])
	s.Equal("service failed", entry["message"])
	s.Equal("stats-worker", entry["supervisor.service"])
	s.EqualValues(2, entry["supervisor.restarts"])
}
