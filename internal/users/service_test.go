package users

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/ukydev/transportpro/internal/apperr"
	"github.com/ukydev/transportpro/internal/auth"
	"github.com/ukydev/transportpro/internal/authz"
	"github.com/ukydev/transportpro/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MockUserCollection is a mock implementation of UserCollection
type MockUserCollection struct {
	mock.Mock
}

func (m *MockUserCollection) InsertUser(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserCollection) FindUserByID(ctx context.Context, id string) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserCollection) FindUserByUsername(ctx context.Context, username string) (*models.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserCollection) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserCollection) FindUsers(ctx context.Context) ([]models.User, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.User), args.Error(1)
}

func (m *MockUserCollection) UpdateUser(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserCollection) DeleteUser(ctx context.Context, id primitive.ObjectID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockUserCollection) UpdateLastLogin(ctx context.Context, id primitive.ObjectID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func newTestService(t *testing.T) (*Service, *MockUserCollection) {
	t.Helper()
	creds, err := auth.NewService("test-secret", time.Hour)
	require.NoError(t, err)
	coll := new(MockUserCollection)
	return NewService(coll, creds), coll
}

func adminCaller() authz.Caller {
	return authz.Caller{UserID: primitive.NewObjectID(), Role: models.RoleAdmin}
}

func staffUser() *models.User {
	return &models.User{
		ID:          primitive.NewObjectID(),
		Username:    "ravi",
		Email:       "ravi@ims.com",
		FullName:    "Ravi Kumar",
		Role:        models.RoleStaff,
		Status:      models.UserActive,
		Permissions: authz.DefaultPermissions(models.RoleStaff),
	}
}

func TestService_Create_DefaultsAndOverrides(t *testing.T) {
	svc, coll := newTestService(t)
	ctx := context.Background()

	coll.On("FindUserByEmail", ctx, "new@ims.com").Return(nil, apperr.NotFound("user"))
	coll.On("FindUserByUsername", ctx, "newbie").Return(nil, apperr.NotFound("user"))
	coll.On("InsertUser", ctx, mock.AnythingOfType("*models.User")).Return(nil)

	user, err := svc.Create(ctx, adminCaller(), models.CreateUserRequest{
		Username: "newbie",
		Email:    " New@IMS.com",
		FullName: "New Person",
		Password: "secret1",
		Permissions: models.PermissionTable{
			"transportation": {"editTrips": true},
			"bogus":          {"x": true},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, models.RoleStaff, user.Role)
	assert.Equal(t, models.UserActive, user.Status)
	assert.True(t, user.Permissions["transportation"]["viewTrips"])
	assert.True(t, user.Permissions["transportation"]["editTrips"])
	assert.False(t, user.Permissions["transportation"]["deleteTrips"])
	assert.False(t, user.Permissions["userManagement"]["viewUsers"])
	assert.NotContains(t, user.Permissions, "bogus")
	assert.NotEqual(t, "secret1", user.PasswordHash)
	coll.AssertExpectations(t)
}

func TestService_Create_Validation(t *testing.T) {
	svc, coll := newTestService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, adminCaller(), models.CreateUserRequest{Username: "x"})
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	_, err = svc.Create(ctx, adminCaller(), models.CreateUserRequest{
		Username: "newbie", Email: "new@ims.com", FullName: "N", Password: "123",
	})
	assert.True(t, apperr.Is(err, apperr.KindValidation))
	assert.Contains(t, err.Error(), "at least 6 characters")

	_, err = svc.Create(ctx, adminCaller(), models.CreateUserRequest{
		Username: "newbie", Email: "new@ims.com", FullName: "N", Password: "secret1", Role: "owner",
	})
	assert.True(t, apperr.Is(err, apperr.KindValidation))
	coll.AssertNotCalled(t, "InsertUser", mock.Anything, mock.Anything)
}

func TestService_Create_Duplicate(t *testing.T) {
	svc, coll := newTestService(t)
	ctx := context.Background()

	coll.On("FindUserByEmail", ctx, "ravi@ims.com").Return(staffUser(), nil)

	_, err := svc.Create(ctx, adminCaller(), models.CreateUserRequest{
		Username: "ravi2", Email: "ravi@ims.com", FullName: "R", Password: "secret1",
	})
	assert.True(t, apperr.Is(err, apperr.KindConflict))
}

func TestService_Create_PermissionDenied(t *testing.T) {
	svc, coll := newTestService(t)
	caller := authz.Caller{UserID: primitive.NewObjectID(), Role: models.RoleStaff, Permissions: authz.DefaultPermissions(models.RoleStaff)}

	_, err := svc.Create(context.Background(), caller, models.CreateUserRequest{})
	assert.True(t, apperr.Is(err, apperr.KindPermission))
	coll.AssertNotCalled(t, "InsertUser", mock.Anything, mock.Anything)
}

func TestService_Update_RoleChangeResetsPermissions(t *testing.T) {
	svc, coll := newTestService(t)
	ctx := context.Background()

	target := staffUser()
	target.Permissions["inventory"]["deleteTrucks"] = true
	coll.On("FindUserByID", ctx, target.ID.Hex()).Return(target, nil)
	coll.On("UpdateUser", ctx, target).Return(nil)

	updated, err := svc.Update(ctx, adminCaller(), target.ID.Hex(), models.UpdateUserRequest{
		Role:        models.RoleAdmin,
		Permissions: models.PermissionTable{"reports": {"exportReports": false}},
	})
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, updated.Role)
	assert.True(t, updated.Permissions["userManagement"]["deleteUsers"])
	assert.False(t, updated.Permissions["reports"]["exportReports"])

	// back to staff: the old grant does not survive the reset
	coll.On("UpdateUser", ctx, target).Return(nil)
	updated, err = svc.Update(ctx, adminCaller(), target.ID.Hex(), models.UpdateUserRequest{Role: models.RoleStaff})
	require.NoError(t, err)
	assert.Equal(t, authz.DefaultPermissions(models.RoleStaff), updated.Permissions)
}

func TestService_Update_MergesPermissionsWithoutRoleChange(t *testing.T) {
	svc, coll := newTestService(t)
	ctx := context.Background()

	target := staffUser()
	coll.On("FindUserByID", ctx, target.ID.Hex()).Return(target, nil)
	coll.On("UpdateUser", ctx, target).Return(nil)

	updated, err := svc.Update(ctx, adminCaller(), target.ID.Hex(), models.UpdateUserRequest{
		Permissions: models.PermissionTable{"inventory": {"editTrucks": true}},
	})
	require.NoError(t, err)
	assert.True(t, updated.Permissions["inventory"]["editTrucks"])
	assert.True(t, updated.Permissions["inventory"]["viewInventory"])
}

func TestService_Update_SelfGuards(t *testing.T) {
	svc, coll := newTestService(t)
	ctx := context.Background()

	me := staffUser()
	me.Role = models.RoleAdmin
	caller := authz.Caller{UserID: me.ID, Role: models.RoleAdmin}
	coll.On("FindUserByID", ctx, me.ID.Hex()).Return(me, nil)

	_, err := svc.Update(ctx, caller, me.ID.Hex(), models.UpdateUserRequest{Role: models.RoleStaff})
	assert.True(t, apperr.Is(err, apperr.KindValidation))
	assert.Contains(t, err.Error(), "own role")

	_, err = svc.Update(ctx, caller, me.ID.Hex(), models.UpdateUserRequest{Status: models.UserInactive})
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	coll.AssertNotCalled(t, "UpdateUser", mock.Anything, mock.Anything)
}

func userEditor(id primitive.ObjectID) authz.Caller {
	return authz.Caller{
		UserID: id,
		Role:   models.RoleStaff,
		Permissions: authz.Merge(authz.DefaultPermissions(models.RoleStaff), models.PermissionTable{
			authz.ModuleUserManagement: {authz.ViewUsers: true, authz.EditUsers: true, authz.CreateUsers: true, authz.DeleteUsers: true},
		}),
	}
}

func TestService_Update_EditorCannotAssignAdmin(t *testing.T) {
	svc, coll := newTestService(t)
	ctx := context.Background()

	me := staffUser()
	coll.On("FindUserByID", ctx, me.ID.Hex()).Return(me, nil)

	_, err := svc.Update(ctx, userEditor(me.ID), me.ID.Hex(), models.UpdateUserRequest{Role: models.RoleAdmin})
	assert.True(t, apperr.Is(err, apperr.KindPermission))
	assert.Equal(t, models.RoleStaff, me.Role)

	other := staffUser()
	coll.On("FindUserByID", ctx, other.ID.Hex()).Return(other, nil)
	_, err = svc.Update(ctx, userEditor(me.ID), other.ID.Hex(), models.UpdateUserRequest{Role: models.RoleAdmin})
	assert.True(t, apperr.Is(err, apperr.KindPermission))

	coll.AssertNotCalled(t, "UpdateUser", mock.Anything, mock.Anything)
}

func TestService_Update_EditorCannotEditOwnPermissions(t *testing.T) {
	svc, coll := newTestService(t)
	ctx := context.Background()

	me := staffUser()
	caller := userEditor(me.ID)
	me.Permissions = caller.Permissions.Clone()
	coll.On("FindUserByID", ctx, me.ID.Hex()).Return(me, nil)

	_, err := svc.Update(ctx, caller, me.ID.Hex(), models.UpdateUserRequest{
		Permissions: models.PermissionTable{"reports": {"viewReports": false}},
	})
	assert.True(t, apperr.Is(err, apperr.KindValidation))
	assert.Contains(t, err.Error(), "own permissions")
	assert.True(t, me.Permissions["reports"]["viewReports"])
	coll.AssertNotCalled(t, "UpdateUser", mock.Anything, mock.Anything)

	// profile edits without a table change still go through
	coll.On("UpdateUser", ctx, me).Return(nil)
	updated, err := svc.Update(ctx, caller, me.ID.Hex(), models.UpdateUserRequest{
		FullName:    "Ravi K",
		Permissions: models.PermissionTable{"reports": {"viewReports": true}},
	})
	require.NoError(t, err)
	assert.Equal(t, "Ravi K", updated.FullName)
}

func TestService_Update_EditorCannotGrantUnheldFlags(t *testing.T) {
	svc, coll := newTestService(t)
	ctx := context.Background()

	caller := userEditor(primitive.NewObjectID())
	caller.Permissions["userManagement"]["deleteUsers"] = false
	target := staffUser()
	coll.On("FindUserByID", ctx, target.ID.Hex()).Return(target, nil)

	_, err := svc.Update(ctx, caller, target.ID.Hex(), models.UpdateUserRequest{
		Permissions: models.PermissionTable{"inventory": {"deleteTrucks": true}},
	})
	require.True(t, apperr.Is(err, apperr.KindPermission))
	assert.Contains(t, err.Error(), "inventory.deleteTrucks")
	assert.False(t, target.Permissions["inventory"]["deleteTrucks"])
	coll.AssertNotCalled(t, "UpdateUser", mock.Anything, mock.Anything)

	// flags the editor holds can be handed on
	coll.On("UpdateUser", ctx, target).Return(nil)
	updated, err := svc.Update(ctx, caller, target.ID.Hex(), models.UpdateUserRequest{
		Permissions: models.PermissionTable{"userManagement": {"editUsers": true}},
	})
	require.NoError(t, err)
	assert.True(t, updated.Permissions["userManagement"]["editUsers"])
}

func TestService_Update_EditorCannotTouchAdmins(t *testing.T) {
	svc, coll := newTestService(t)
	ctx := context.Background()

	target := staffUser()
	target.Role = models.RoleAdmin
	coll.On("FindUserByID", ctx, target.ID.Hex()).Return(target, nil)
	caller := userEditor(primitive.NewObjectID())

	_, err := svc.Update(ctx, caller, target.ID.Hex(), models.UpdateUserRequest{Role: models.RoleStaff})
	assert.True(t, apperr.Is(err, apperr.KindPermission))

	_, err = svc.ToggleStatus(ctx, caller, target.ID.Hex())
	assert.True(t, apperr.Is(err, apperr.KindPermission))

	err = svc.Delete(ctx, caller, target.ID.Hex())
	assert.True(t, apperr.Is(err, apperr.KindPermission))

	coll.AssertNotCalled(t, "UpdateUser", mock.Anything, mock.Anything)
	coll.AssertNotCalled(t, "DeleteUser", mock.Anything, mock.Anything)
}

func TestService_Create_EditorCannotEscalate(t *testing.T) {
	svc, coll := newTestService(t)
	ctx := context.Background()
	caller := userEditor(primitive.NewObjectID())

	_, err := svc.Create(ctx, caller, models.CreateUserRequest{
		Username: "newbie", Email: "new@ims.com", FullName: "N", Password: "secret1", Role: models.RoleAdmin,
	})
	assert.True(t, apperr.Is(err, apperr.KindPermission))

	_, err = svc.Create(ctx, caller, models.CreateUserRequest{
		Username: "newbie", Email: "new@ims.com", FullName: "N", Password: "secret1",
		Permissions: models.PermissionTable{"transportation": {"deleteTrips": true}},
	})
	assert.True(t, apperr.Is(err, apperr.KindPermission))
	assert.Contains(t, err.Error(), "transportation.deleteTrips")
	coll.AssertNotCalled(t, "InsertUser", mock.Anything, mock.Anything)

	// role defaults are not an escalation
	coll.On("FindUserByEmail", ctx, "new@ims.com").Return(nil, apperr.NotFound("user"))
	coll.On("FindUserByUsername", ctx, "newbie").Return(nil, apperr.NotFound("user"))
	coll.On("InsertUser", ctx, mock.AnythingOfType("*models.User")).Return(nil)
	user, err := svc.Create(ctx, caller, models.CreateUserRequest{
		Username: "newbie", Email: "new@ims.com", FullName: "N", Password: "secret1",
	})
	require.NoError(t, err)
	assert.Equal(t, authz.DefaultPermissions(models.RoleStaff), user.Permissions)
}

func TestService_Delete(t *testing.T) {
	svc, coll := newTestService(t)
	ctx := context.Background()
	caller := adminCaller()

	err := svc.Delete(ctx, caller, caller.UserID.Hex())
	assert.True(t, apperr.Is(err, apperr.KindValidation))
	assert.Contains(t, err.Error(), "own account")

	other := primitive.NewObjectID()
	coll.On("DeleteUser", ctx, other).Return(nil)
	assert.NoError(t, svc.Delete(ctx, caller, other.Hex()))

	err = svc.Delete(ctx, caller, "not-an-id")
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
	coll.AssertNumberOfCalls(t, "DeleteUser", 1)
}

func TestService_ToggleStatus(t *testing.T) {
	svc, coll := newTestService(t)
	ctx := context.Background()
	caller := adminCaller()

	_, err := svc.ToggleStatus(ctx, caller, caller.UserID.Hex())
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	target := staffUser()
	coll.On("FindUserByID", ctx, target.ID.Hex()).Return(target, nil)
	coll.On("UpdateUser", ctx, target).Return(nil)

	updated, err := svc.ToggleStatus(ctx, caller, target.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, models.UserInactive, updated.Status)

	updated, err = svc.ToggleStatus(ctx, caller, target.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, models.UserActive, updated.Status)
}

func TestService_ResetPassword(t *testing.T) {
	svc, coll := newTestService(t)
	ctx := context.Background()

	err := svc.ResetPassword(ctx, adminCaller(), primitive.NewObjectID().Hex(), "abc")
	assert.True(t, apperr.Is(err, apperr.KindValidation))
	assert.Contains(t, err.Error(), "new password must be at least 6 characters")

	target := staffUser()
	coll.On("FindUserByID", ctx, target.ID.Hex()).Return(target, nil)
	coll.On("UpdateUser", ctx, target).Return(nil)

	require.NoError(t, svc.ResetPassword(ctx, adminCaller(), target.ID.Hex(), "newsecret"))
	assert.NotEmpty(t, target.PasswordHash)
}

func TestService_List(t *testing.T) {
	svc, coll := newTestService(t)
	ctx := context.Background()

	inactive := staffUser()
	inactive.Status = models.UserInactive
	admin := staffUser()
	admin.Role = models.RoleAdmin
	coll.On("FindUsers", ctx).Return([]models.User{*staffUser(), *inactive, *admin}, nil)

	users, stats, err := svc.List(ctx, adminCaller(), Filter{Role: models.RoleStaff})
	require.NoError(t, err)
	assert.Len(t, users, 2)
	assert.Equal(t, Stats{TotalUsers: 3, TotalAdmins: 1, TotalStaff: 2, ActiveUsers: 2, InactiveUsers: 1}, stats)
}

func TestService_EnsureAdmin(t *testing.T) {
	svc, coll := newTestService(t)
	ctx := context.Background()

	coll.On("FindUserByEmail", ctx, "admin@ims.com").Return(nil, apperr.NotFound("user")).Once()
	coll.On("InsertUser", ctx, mock.MatchedBy(func(u *models.User) bool {
		return u.Role == models.RoleAdmin && u.Permissions["userManagement"]["deleteUsers"]
	})).Return(nil).Once()

	require.NoError(t, svc.EnsureAdmin(ctx, "admin@ims.com", ""))

	coll.On("FindUserByEmail", ctx, "admin@ims.com").Return(staffUser(), nil).Once()
	require.NoError(t, svc.EnsureAdmin(ctx, "admin@ims.com", "whatever"))

	coll.AssertNumberOfCalls(t, "InsertUser", 1)
}
