package service

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"cardgate/internal/auth/service/mocks"
	tenantmodels "cardgate/internal/tenant/models"
)

type ServiceSuite struct {
	suite.Suite
	ctrl         *gomock.Controller
	mockUsers    *mocks.MockUsers
	mockTokens   *mocks.MockTokenIssuer
	mockVerifier *mocks.MockPasswordVerifier
	now          time.Time
	service      *Service
}

func (s *ServiceSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.mockUsers = mocks.NewMockUsers(s.ctrl)
	s.mockTokens = mocks.NewMockTokenIssuer(s.ctrl)
	s.mockVerifier = mocks.NewMockPasswordVerifier(s.ctrl)
	s.now = time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	var err error
	s.service, err = New(
		s.mockVerifier,
		s.mockTokens,
		WithLogger(logger),
		WithClock(func() time.Time { return s.now }),
	)
	s.Require().NoError(err)
}

func (s *ServiceSuite) TearDownTest() {
	s.ctrl.Finish()
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) testTenant() *tenantmodels.ResolvedTenant {
	return &tenantmodels.ResolvedTenant{
		CUIT:     "20-12345678-9",
		Database: "tarjetas_centro",
	}
}
