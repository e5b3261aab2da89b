package usecase_test

import (
	"context"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/plotline-dev/plotline/pkg/domain/model/auth"
	"github.com/plotline-dev/plotline/pkg/domain/types"
	"github.com/plotline-dev/plotline/pkg/repository/memory"
	"github.com/plotline-dev/plotline/pkg/usecase"
)

func TestUserUseCase_EnsureProfile(t *testing.T) {
	uc, n := newTestUseCases(memory.New())
	ctx := context.Background()

	created, err := uc.User.EnsureProfile(ctx, "u-new", "new@example.com")
	gt.NoError(t, err).Required()
	gt.Value(t, created.Role).Equal(types.RoleBroker)
	gt.Bool(t, created.Approved).False()
	gt.A(t, n.pending).Length(1)

	again, err := uc.User.EnsureProfile(ctx, "u-new", "new@example.com")
	gt.NoError(t, err).Required()
	gt.Value(t, again.CreatedAt).Equal(created.CreatedAt)
	gt.A(t, n.pending).Length(1)

	moved, err := uc.User.EnsureProfile(ctx, "u-new", "moved@example.com")
	gt.NoError(t, err).Required()
	gt.Value(t, moved.Email).Equal("moved@example.com")

	_, err = uc.User.EnsureProfile(ctx, "", "x@example.com")
	gt.Error(t, err).Is(usecase.ErrInvalidInput)
}

func TestUserUseCase_Lifecycle(t *testing.T) {
	uc, _ := newTestUseCases(memory.New())
	_, err := uc.User.EnsureProfile(context.Background(), "u-new", "new@example.com")
	gt.NoError(t, err).Required()

	pending, err := uc.User.ListUsers(adminCtx(), true)
	gt.NoError(t, err).Required()
	gt.A(t, pending).Length(1)

	approved, err := uc.User.Approve(adminCtx(), "u-new")
	gt.NoError(t, err).Required()
	gt.Bool(t, approved.Approved).True()
	gt.Bool(t, auth.Authorize(approved.Principal(), auth.SubmitProperty()).Allowed).True()

	pending, err = uc.User.ListUsers(adminCtx(), true)
	gt.NoError(t, err).Required()
	gt.A(t, pending).Length(0)

	promoted, err := uc.User.SetRole(adminCtx(), "u-new", types.RoleInternal)
	gt.NoError(t, err).Required()
	gt.Value(t, promoted.Role).Equal(types.RoleInternal)

	banned, err := uc.User.Ban(adminCtx(), "u-new")
	gt.NoError(t, err).Required()
	gt.Value(t, banned.Role).Equal(types.RoleBanned)
	gt.Bool(t, auth.Authorize(banned.Principal(), auth.SubmitProperty()).Allowed).False()

	restored, err := uc.User.Unban(adminCtx(), "u-new")
	gt.NoError(t, err).Required()
	gt.Value(t, restored.Role).Equal(types.RoleBroker)

	_, err = uc.User.Unban(adminCtx(), "u-new")
	gt.Error(t, err).Is(usecase.ErrInvalidInput)

	me, err := uc.User.Me(asPrincipal("u-new", types.RoleBroker, true))
	gt.NoError(t, err).Required()
	gt.Value(t, me.Email).Equal("new@example.com")
}

func TestUserUseCase_Errors(t *testing.T) {
	uc, _ := newTestUseCases(memory.New())
	_, err := uc.User.EnsureProfile(context.Background(), "u-new", "new@example.com")
	gt.NoError(t, err).Required()

	t.Run("banned is not assignable", func(t *testing.T) {
		_, err := uc.User.SetRole(adminCtx(), "u-new", types.RoleBanned)
		gt.Error(t, err).Is(usecase.ErrInvalidRole)
	})

	t.Run("unknown user", func(t *testing.T) {
		_, err := uc.User.Approve(adminCtx(), "u-missing")
		gt.Error(t, err).Is(usecase.ErrUserNotFound)
	})

	t.Run("admin cannot change own account", func(t *testing.T) {
		_, err := uc.User.Ban(adminCtx(), adminID)
		gt.Error(t, err).Is(usecase.ErrInvalidInput)
	})

	t.Run("non-admin cannot manage users", func(t *testing.T) {
		for _, ctx := range []context.Context{brokerCtx(), internalCtx()} {
			_, err := uc.User.Approve(ctx, "u-new")
			gt.Error(t, err).Is(auth.ErrUnauthorized)
			_, err = uc.User.ListUsers(ctx, false)
			gt.Error(t, err).Is(auth.ErrUnauthorized)
		}
	})

	t.Run("me without a principal", func(t *testing.T) {
		_, err := uc.User.Me(context.Background())
		gt.Error(t, err).Is(auth.ErrUnauthenticated)
	})
}

func TestUserUseCase_EnsureAdmin(t *testing.T) {
	uc, n := newTestUseCases(memory.New())
	ctx := context.Background()

	_, err := uc.User.EnsureProfile(ctx, "u-boss", "boss@example.com")
	gt.NoError(t, err).Required()

	admin, err := uc.User.EnsureAdmin(ctx, "u-boss", "")
	gt.NoError(t, err).Required()
	gt.Value(t, admin.Role).Equal(types.RoleAdmin)
	gt.Bool(t, admin.Approved).True()
	gt.Value(t, admin.Email).Equal("boss@example.com")

	fresh, err := uc.User.EnsureAdmin(ctx, "u-local", "local@example.com")
	gt.NoError(t, err).Required()
	gt.Value(t, fresh.Role).Equal(types.RoleAdmin)
	gt.A(t, n.pending).Length(1)
}

func TestUserUseCase_EnsureAdminKeepsBan(t *testing.T) {
	uc, _ := newTestUseCases(memory.New())
	ctx := context.Background()

	_, err := uc.User.EnsureAdmin(ctx, "u-boss", "boss@example.com")
	gt.NoError(t, err).Required()

	banned, err := uc.User.Ban(adminCtx(), "u-boss")
	gt.NoError(t, err).Required()
	gt.Value(t, banned.Role).Equal(types.RoleBanned)

	again, err := uc.User.EnsureAdmin(ctx, "u-boss", "boss@example.com")
	gt.NoError(t, err).Required()
	gt.Value(t, again.Role).Equal(types.RoleBanned)
	gt.Bool(t, auth.Authorize(again.Principal(), auth.SubmitProperty()).Allowed).False()

	stored, err := uc.User.Unban(adminCtx(), "u-boss")
	gt.NoError(t, err).Required()
	gt.Value(t, stored.Role).Equal(types.RoleBroker)
}
