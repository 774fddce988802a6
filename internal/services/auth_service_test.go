package services

import (
	"context"
	"errors"
	"testing"

	"rentledger/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
	"golang.org/x/crypto/bcrypt"
)

type AuthServiceTestSuite struct {
	suite.Suite
	userRepo *MockUserRepository
	cache    *MockCacheService
	service  AuthService
	ctx      context.Context
}

func (suite *AuthServiceTestSuite) SetupTest() {
	suite.userRepo = new(MockUserRepository)
	suite.cache = new(MockCacheService)
	suite.service = NewAuthService(suite.userRepo, suite.cache, "test-secret", 900, 3600)
	suite.ctx = context.Background()
}

func TestAuthServiceTestSuite(t *testing.T) {
	suite.Run(t, new(AuthServiceTestSuite))
}

func (suite *AuthServiceTestSuite) userWithPassword(password string) *models.User {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	assert.NoError(suite.T(), err)
	return &models.User{
		ID:           uuid.New(),
		Email:        "alice@example.com",
		PasswordHash: string(hash),
		Role:         "tenant",
	}
}

func (suite *AuthServiceTestSuite) TestLogin_RateLimited() {
	suite.cache.On("IsRateLimited", suite.ctx, "login:alice@example.com", loginAttemptLimit, loginAttemptWindow).
		Return(true, nil)

	_, err := suite.service.Login(suite.ctx, "alice@example.com", "password")
	assert.Error(suite.T(), err)
	assert.ErrorIs(suite.T(), err, ErrTooManyLoginAttempts)
	suite.userRepo.AssertNotCalled(suite.T(), "GetByEmail", mock.Anything, mock.Anything)
}

func (suite *AuthServiceTestSuite) TestLogin_LimiterOutageFailsOpen() {
	user := suite.userWithPassword("correct horse")

	suite.cache.On("IsRateLimited", suite.ctx, "login:alice@example.com", loginAttemptLimit, loginAttemptWindow).
		Return(true, errors.New("connection refused"))
	suite.userRepo.On("GetByEmail", suite.ctx, "alice@example.com").Return(user, nil)
	suite.cache.On("SetString", suite.ctx, mock.AnythingOfType("string"), mock.AnythingOfType("string"), mock.Anything).Return(nil)

	tokens, err := suite.service.Login(suite.ctx, "alice@example.com", "correct horse")
	assert.NoError(suite.T(), err)
	assert.NotEmpty(suite.T(), tokens.AccessToken)
	assert.NotEmpty(suite.T(), tokens.RefreshToken)
}

func (suite *AuthServiceTestSuite) TestLogin_WrongPassword() {
	user := suite.userWithPassword("correct horse")

	suite.cache.On("IsRateLimited", suite.ctx, "login:alice@example.com", loginAttemptLimit, loginAttemptWindow).
		Return(false, nil)
	suite.userRepo.On("GetByEmail", suite.ctx, "alice@example.com").Return(user, nil)

	_, err := suite.service.Login(suite.ctx, "alice@example.com", "battery staple")
	assert.Error(suite.T(), err)
	assert.Contains(suite.T(), err.Error(), "invalid credentials")
}
