package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/mock/gomock"

	"cardgate/internal/audit"
	"cardgate/internal/auth/models"
	"cardgate/internal/auth/service/mocks"
	"cardgate/internal/auth/store"
	dErrors "cardgate/pkg/domainerrors"
)

const storedHash = "AQAAAAIAAYagAAAAEBESExQVFhcYGRobHB0eHyA="

func (s *ServiceSuite) testUser() *models.User {
	return &models.User{
		ID:           "u-1001",
		UserName:     "alice",
		Email:        "alice@example.com",
		PasswordHash: storedHash,
	}
}

func (s *ServiceSuite) TestLoginSuccess() {
	ctx := context.Background()
	user := s.testUser()

	s.mockUsers.EXPECT().FindByUsername(ctx, "alice").Return(user, nil)
	s.mockVerifier.EXPECT().Verify(storedHash, "secret123").Return(true)
	s.mockUsers.EXPECT().RolesByUserID(ctx, "u-1001").Return([]string{"Comercio"}, nil)
	s.mockTokens.EXPECT().
		Issue("u-1001", "alice", []string{"Comercio"}, "20-12345678-9").
		Return("signed.jwt.token", nil)
	s.mockTokens.EXPECT().TTL().Return(60 * time.Minute)

	res, err := s.service.Login(ctx, s.testTenant(), s.mockUsers, "alice", "secret123")
	s.Require().NoError(err)
	s.Equal("signed.jwt.token", res.AccessToken)
	s.Equal("Bearer", res.TokenType)
	s.Equal(3600, res.ExpiresIn)
}

func (s *ServiceSuite) TestLoginEmptyCredentials() {
	ctx := context.Background()
	for _, tc := range []struct{ username, password string }{
		{"", "secret123"},
		{"alice", ""},
		{"   ", "secret123"},
		{"", ""},
	} {
		_, err := s.service.Login(ctx, s.testTenant(), s.mockUsers, tc.username, tc.password)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))
	}
}

// Unknown usernames and wrong passwords must produce the exact same error,
// so callers cannot probe which usernames exist.
func (s *ServiceSuite) TestLoginFailuresAreIndistinguishable() {
	ctx := context.Background()

	s.mockUsers.EXPECT().FindByUsername(ctx, "ghost").Return(nil, store.ErrNotFound)
	_, errUnknown := s.service.Login(ctx, s.testTenant(), s.mockUsers, "ghost", "whatever")
	s.Require().Error(errUnknown)
	s.True(dErrors.HasCode(errUnknown, dErrors.CodeUnauthorized))

	s.mockUsers.EXPECT().FindByUsername(ctx, "alice").Return(s.testUser(), nil)
	s.mockVerifier.EXPECT().Verify(storedHash, "wrongpass").Return(false)
	_, errWrongPass := s.service.Login(ctx, s.testTenant(), s.mockUsers, "alice", "wrongpass")
	s.Require().Error(errWrongPass)
	s.True(dErrors.HasCode(errWrongPass, dErrors.CodeUnauthorized))

	s.Equal(errUnknown.Error(), errWrongPass.Error())
}

func (s *ServiceSuite) TestLoginEmptyStoredHash() {
	ctx := context.Background()
	user := s.testUser()
	user.PasswordHash = ""

	// The verifier is never consulted for a user without a stored hash.
	s.mockUsers.EXPECT().FindByUsername(ctx, "alice").Return(user, nil)

	_, err := s.service.Login(ctx, s.testTenant(), s.mockUsers, "alice", "secret123")
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func (s *ServiceSuite) TestLoginLockedOut() {
	ctx := context.Background()
	user := s.testUser()
	user.LockoutEnabled = true
	end := s.now.Add(10 * time.Minute)
	user.LockoutEnd = &end

	s.mockUsers.EXPECT().FindByUsername(ctx, "alice").Return(user, nil)

	_, err := s.service.Login(ctx, s.testTenant(), s.mockUsers, "alice", "secret123")
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeLocked))
}

func (s *ServiceSuite) TestLoginExpiredLockoutProceeds() {
	ctx := context.Background()
	user := s.testUser()
	user.LockoutEnabled = true
	end := s.now.Add(-time.Second)
	user.LockoutEnd = &end

	s.mockUsers.EXPECT().FindByUsername(ctx, "alice").Return(user, nil)
	s.mockVerifier.EXPECT().Verify(storedHash, "secret123").Return(true)
	s.mockUsers.EXPECT().RolesByUserID(ctx, "u-1001").Return([]string{}, nil)
	s.mockTokens.EXPECT().
		Issue("u-1001", "alice", []string{}, "20-12345678-9").
		Return("signed.jwt.token", nil)
	s.mockTokens.EXPECT().TTL().Return(60 * time.Minute)

	_, err := s.service.Login(ctx, s.testTenant(), s.mockUsers, "alice", "secret123")
	s.Require().NoError(err)
}

func (s *ServiceSuite) TestLoginLockoutDisabledIgnoresEnd() {
	ctx := context.Background()
	user := s.testUser()
	user.LockoutEnabled = false
	end := s.now.Add(time.Hour)
	user.LockoutEnd = &end

	s.mockUsers.EXPECT().FindByUsername(ctx, "alice").Return(user, nil)
	s.mockVerifier.EXPECT().Verify(storedHash, "secret123").Return(true)
	s.mockUsers.EXPECT().RolesByUserID(ctx, "u-1001").Return(nil, nil)
	s.mockTokens.EXPECT().
		Issue("u-1001", "alice", nil, "20-12345678-9").
		Return("signed.jwt.token", nil)
	s.mockTokens.EXPECT().TTL().Return(60 * time.Minute)

	_, err := s.service.Login(ctx, s.testTenant(), s.mockUsers, "alice", "secret123")
	s.Require().NoError(err)
}

func (s *ServiceSuite) TestLoginUserStoreUnavailable() {
	ctx := context.Background()

	s.mockUsers.EXPECT().FindByUsername(ctx, "alice").
		Return(nil, errors.New("dial tcp 10.0.0.5:5432: connect: connection refused"))

	_, err := s.service.Login(ctx, s.testTenant(), s.mockUsers, "alice", "secret123")
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeUnavailable))

	var domainErr *dErrors.Error
	s.Require().ErrorAs(err, &domainErr)
	s.NotContains(domainErr.Message, "dial tcp")
}

func (s *ServiceSuite) TestLoginRoleLookupUnavailable() {
	ctx := context.Background()

	s.mockUsers.EXPECT().FindByUsername(ctx, "alice").Return(s.testUser(), nil)
	s.mockVerifier.EXPECT().Verify(storedHash, "secret123").Return(true)
	s.mockUsers.EXPECT().RolesByUserID(ctx, "u-1001").Return(nil, errors.New("query timeout"))

	_, err := s.service.Login(ctx, s.testTenant(), s.mockUsers, "alice", "secret123")
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeUnavailable))
}

func (s *ServiceSuite) TestLoginTokenIssueFailure() {
	ctx := context.Background()

	s.mockUsers.EXPECT().FindByUsername(ctx, "alice").Return(s.testUser(), nil)
	s.mockVerifier.EXPECT().Verify(storedHash, "secret123").Return(true)
	s.mockUsers.EXPECT().RolesByUserID(ctx, "u-1001").Return([]string{"Comercio"}, nil)
	s.mockTokens.EXPECT().
		Issue("u-1001", "alice", []string{"Comercio"}, "20-12345678-9").
		Return("", errors.New("key unavailable"))

	_, err := s.service.Login(ctx, s.testTenant(), s.mockUsers, "alice", "secret123")
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeInternal))
}

func (s *ServiceSuite) TestLoginEmitsAuditEvents() {
	ctx := context.Background()
	mockAudit := mocks.NewMockAuditPublisher(s.ctrl)
	svc, err := New(s.mockVerifier, s.mockTokens,
		WithAudit(mockAudit),
		WithClock(func() time.Time { return s.now }),
	)
	s.Require().NoError(err)

	s.mockUsers.EXPECT().FindByUsername(ctx, "ghost").Return(nil, store.ErrNotFound)
	mockAudit.EXPECT().Emit(gomock.Any(), gomock.AssignableToTypeOf(audit.Event{})).
		DoAndReturn(func(_ context.Context, e audit.Event) error {
			s.Equal(audit.ActionLoginFailed, e.Action)
			s.Equal("20-12345678-9", e.Tenant)
			return nil
		})

	_, err = svc.Login(ctx, s.testTenant(), s.mockUsers, "ghost", "whatever")
	s.Require().Error(err)

	s.mockUsers.EXPECT().FindByUsername(ctx, "alice").Return(s.testUser(), nil)
	s.mockVerifier.EXPECT().Verify(storedHash, "secret123").Return(true)
	s.mockUsers.EXPECT().RolesByUserID(ctx, "u-1001").Return([]string{"Comercio"}, nil)
	s.mockTokens.EXPECT().
		Issue("u-1001", "alice", []string{"Comercio"}, "20-12345678-9").
		Return("signed.jwt.token", nil)
	s.mockTokens.EXPECT().TTL().Return(time.Hour)
	mockAudit.EXPECT().Emit(gomock.Any(), gomock.AssignableToTypeOf(audit.Event{})).
		DoAndReturn(func(_ context.Context, e audit.Event) error {
			s.Equal(audit.ActionLoginSucceeded, e.Action)
			s.Equal("u-1001", e.Subject)
			return nil
		})

	_, err = svc.Login(ctx, s.testTenant(), s.mockUsers, "alice", "secret123")
	s.Require().NoError(err)
}

func (s *ServiceSuite) TestNewRequiresDependencies() {
	_, err := New(nil, s.mockTokens)
	s.Require().Error(err)

	_, err = New(s.mockVerifier, nil)
	s.Require().Error(err)
}
