package users

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/sensei-service/sensei_service/internal/domain/entities"
	"github.com/sensei-service/sensei_service/internal/infrastructure/config"
	"github.com/sensei-service/sensei_service/internal/infrastructure/repositories"
	"github.com/sensei-service/sensei_service/pkg/errors"
	"github.com/sensei-service/sensei_service/pkg/logger"
)

// Mock implementations for testing
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *entities.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*entities.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.User), args.Error(1)
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*entities.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.User), args.Error(1)
}

func (m *MockUserRepository) UpdateProfile(ctx context.Context, id uuid.UUID, username, email, avatar string) error {
	args := m.Called(ctx, id, username, email, avatar)
	return args.Error(0)
}

func strPtr(s string) *string { return &s }

func createTestService() (*Service, *MockUserRepository) {
	userRepo := new(MockUserRepository)
	jwtCfg := config.JWTConfig{Secret: "test-secret", AccessTTL: 3600, Issuer: "sensei_service"}
	gameCfg := config.GameConfig{DefaultVirtualBalance: 100000}
	service := NewService(userRepo, jwtCfg, gameCfg, logger.Nop())
	return service, userRepo
}

func TestRegister_SetsProgressionDefaults(t *testing.T) {
	service, userRepo := createTestService()

	var created *entities.User
	userRepo.On("Create", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		created = args.Get(1).(*entities.User)
	}).Return(nil)

	resp, err := service.Register(context.Background(), "jinwoo", "Jinwoo@Hunters.KR", "ariseshadow")

	require.NoError(t, err)
	require.NotNil(t, created)
	assert.Equal(t, "jinwoo@hunters.kr", created.Email)
	assert.Equal(t, int64(0), created.TotalXP)
	assert.Equal(t, entities.RankE, created.Rank)
	assert.True(t, created.VirtualBalance.Equal(decimal.NewFromInt(100000)))
	assert.NotEqual(t, "ariseshadow", created.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(created.PasswordHash), []byte("ariseshadow")))
	assert.NotEmpty(t, resp.Token.AccessToken)
}

func TestRegister_ShortPasswordRejected(t *testing.T) {
	service, userRepo := createTestService()

	_, err := service.Register(context.Background(), "jinwoo", "a@b.c", "short")

	require.Error(t, err)
	senseiErr, ok := errors.AsSenseiError(err)
	require.True(t, ok)
	assert.Equal(t, errors.ErrCodeValidation, senseiErr.Code)
	userRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestRegister_UsernameLengthBounds(t *testing.T) {
	service, userRepo := createTestService()
	userRepo.On("Create", mock.Anything, mock.Anything).Return(nil)
	ctx := context.Background()

	tests := []struct {
		username string
		valid    bool
	}{
		{"ab", false},                    // below minimum
		{"abc", false},                   // one under minimum
		{"igri", true},                   // at minimum (4)
		{"igris", true},                  // in range
		{"fifteencharsxxx", true},        // at maximum (15)
		{"sixteencharslong", false},      // one over maximum
		{"shadow-monarch-sung-jinwoo", false},
	}

	for _, tt := range tests {
		_, err := service.Register(ctx, tt.username, tt.username+"@hunters.kr", "ariseshadow")
		if tt.valid {
			assert.NoError(t, err, "username %q", tt.username)
			continue
		}
		require.Error(t, err, "username %q", tt.username)
		senseiErr, ok := errors.AsSenseiError(err)
		require.True(t, ok)
		assert.Equal(t, errors.ErrCodeValidation, senseiErr.Code, "username %q", tt.username)
	}
}

func TestRegister_DuplicateAccount(t *testing.T) {
	service, userRepo := createTestService()

	userRepo.On("Create", mock.Anything, mock.Anything).Return(repositories.ErrDuplicate)

	_, err := service.Register(context.Background(), "jinwoo", "a@b.c", "ariseshadow")

	require.Error(t, err)
	senseiErr, ok := errors.AsSenseiError(err)
	require.True(t, ok)
	assert.Equal(t, errors.ErrCodeDuplicateEntry, senseiErr.Code)
}

func TestLogin_WrongPasswordAndUnknownEmailLookAlike(t *testing.T) {
	service, userRepo := createTestService()
	ctx := context.Background()

	hash, err := bcrypt.GenerateFromPassword([]byte("correct-password"), bcrypt.MinCost)
	require.NoError(t, err)
	userRepo.On("GetByEmail", mock.Anything, "known@hunters.kr").Return(&entities.User{
		ID:           uuid.New(),
		Email:        "known@hunters.kr",
		PasswordHash: string(hash),
	}, nil)
	userRepo.On("GetByEmail", mock.Anything, "unknown@hunters.kr").Return(nil, repositories.ErrNotFound)

	_, wrongPassErr := service.Login(ctx, "known@hunters.kr", "wrong-password")
	_, unknownErr := service.Login(ctx, "unknown@hunters.kr", "whatever-password")

	require.Error(t, wrongPassErr)
	require.Error(t, unknownErr)
	assert.Equal(t, wrongPassErr.Error(), unknownErr.Error())
}

func TestLogin_Success(t *testing.T) {
	service, userRepo := createTestService()

	hash, err := bcrypt.GenerateFromPassword([]byte("correct-password"), bcrypt.MinCost)
	require.NoError(t, err)
	userRepo.On("GetByEmail", mock.Anything, "known@hunters.kr").Return(&entities.User{
		ID:           uuid.New(),
		Username:     "jinwoo",
		Email:        "known@hunters.kr",
		PasswordHash: string(hash),
	}, nil)

	resp, err := service.Login(context.Background(), "Known@Hunters.KR", "correct-password")

	require.NoError(t, err)
	assert.Equal(t, "jinwoo", resp.User.Username)
	assert.NotEmpty(t, resp.Token.AccessToken)
}

func TestUpdateProfile_KeepsUnsetFields(t *testing.T) {
	service, userRepo := createTestService()
	userID := uuid.New()

	userRepo.On("GetByID", mock.Anything, userID).Return(&entities.User{
		ID:       userID,
		Username: "jinwoo",
		Email:    "jinwoo@hunters.kr",
		Avatar:   "shadow",
	}, nil)
	userRepo.On("UpdateProfile", mock.Anything, userID, "jinwoo", "jinwoo@hunters.kr", "monarch").Return(nil)

	user, err := service.UpdateProfile(context.Background(), userID, nil, nil, strPtr("monarch"))

	require.NoError(t, err)
	assert.Equal(t, "jinwoo", user.Username)
	assert.Equal(t, "monarch", user.Avatar)
	userRepo.AssertExpectations(t)
}

func TestUpdateProfile_ClearsAvatar(t *testing.T) {
	service, userRepo := createTestService()
	userID := uuid.New()

	userRepo.On("GetByID", mock.Anything, userID).Return(&entities.User{
		ID:       userID,
		Username: "jinwoo",
		Email:    "jinwoo@hunters.kr",
		Avatar:   "shadow",
	}, nil)
	userRepo.On("UpdateProfile", mock.Anything, userID, "jinwoo", "jinwoo@hunters.kr", "").Return(nil)

	user, err := service.UpdateProfile(context.Background(), userID, nil, nil, strPtr(""))

	require.NoError(t, err)
	assert.Empty(t, user.Avatar)
	userRepo.AssertExpectations(t)
}

func TestUpdateProfile_RejectsOutOfRangeUsername(t *testing.T) {
	service, userRepo := createTestService()
	userID := uuid.New()

	userRepo.On("GetByID", mock.Anything, userID).Return(&entities.User{
		ID:       userID,
		Username: "jinwoo",
		Email:    "jinwoo@hunters.kr",
	}, nil)

	_, err := service.UpdateProfile(context.Background(), userID, strPtr("ab"), nil, nil)

	require.Error(t, err)
	senseiErr, ok := errors.AsSenseiError(err)
	require.True(t, ok)
	assert.Equal(t, errors.ErrCodeValidation, senseiErr.Code)
	userRepo.AssertNotCalled(t, "UpdateProfile",
		mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}
