package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mydetailarea/access/pkg/domain/module"
	"github.com/mydetailarea/access/pkg/domain/permission"
	"github.com/mydetailarea/access/pkg/domain/role"
	"github.com/mydetailarea/access/pkg/domain/shared"
)

func newMockRepo(t *testing.T) (*RoleRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewRoleRepository(&DB{DB: db}), mock
}

func TestRoleRepositoryGetByID(t *testing.T) {
	repo, mock := newMockRepo(t)
	roleID := shared.NewID()
	dealershipID := shared.NewID()
	now := time.Now()

	t.Run("found", func(t *testing.T) {
		mock.ExpectQuery("SELECT id, dealership_id, name, description, active, created_at, updated_at").
			WithArgs(roleID.String()).
			WillReturnRows(sqlmock.NewRows([]string{
				"id", "dealership_id", "name", "description", "active", "created_at", "updated_at",
			}).AddRow(roleID.String(), dealershipID.String(), "Seller", "Sales team", true, now, now))

		got, err := repo.GetByID(context.Background(), roleID)
		require.NoError(t, err)
		assert.Equal(t, "Seller", got.Name())
		assert.True(t, got.DealershipID().Equals(dealershipID))
		assert.True(t, got.IsActive())
	})

	t.Run("not found", func(t *testing.T) {
		mock.ExpectQuery("SELECT id, dealership_id, name, description, active, created_at, updated_at").
			WithArgs(roleID.String()).
			WillReturnRows(sqlmock.NewRows([]string{
				"id", "dealership_id", "name", "description", "active", "created_at", "updated_at",
			}))

		_, err := repo.GetByID(context.Background(), roleID)
		assert.ErrorIs(t, err, role.ErrRoleNotFound)
	})

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRoleRepositoryListGrantsBatch(t *testing.T) {
	repo, mock := newMockRepo(t)
	r1 := shared.NewID()
	r2 := shared.NewID()
	now := time.Now()

	mock.ExpectQuery("SELECT role_id, action, granted_at, granted_by").
		WillReturnRows(sqlmock.NewRows([]string{"role_id", "action", "granted_at", "granted_by"}).
			AddRow(r1.String(), "sales_orders:view", now, nil).
			AddRow(r1.String(), "sales_orders:create", now, nil).
			AddRow(r2.String(), "contacts:view", now, nil))

	grants, err := repo.ListGrantsBatch(context.Background(), []shared.ID{r1, r2})
	require.NoError(t, err)

	assert.Len(t, grants[r1], 2)
	assert.Len(t, grants[r2], 1)
	assert.Equal(t, permission.ContactsView, grants[r2][0].Action)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRoleRepositoryListGrantsBatchEmpty(t *testing.T) {
	repo, _ := newMockRepo(t)

	grants, err := repo.ListGrantsBatch(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, grants)
}

func TestRoleRepositorySetModuleGate(t *testing.T) {
	repo, mock := newMockRepo(t)
	gate := role.ModuleGate{
		RoleID:    shared.NewID(),
		Module:    module.SalesOrders,
		Enabled:   false,
		UpdatedAt: time.Now(),
		UpdatedBy: shared.NewID(),
	}

	mock.ExpectExec("INSERT INTO role_module_gates").
		WithArgs(gate.RoleID.String(), "sales_orders", false, gate.UpdatedAt, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.SetModuleGate(context.Background(), gate))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRoleRepositoryRemoveGrant(t *testing.T) {
	repo, mock := newMockRepo(t)
	roleID := shared.NewID()

	t.Run("removed", func(t *testing.T) {
		mock.ExpectExec("DELETE FROM role_grants").
			WithArgs(roleID.String(), "chat:send").
			WillReturnResult(sqlmock.NewResult(0, 1))

		assert.NoError(t, repo.RemoveGrant(context.Background(), roleID, permission.ChatSend))
	})

	t.Run("missing grant", func(t *testing.T) {
		mock.ExpectExec("DELETE FROM role_grants").
			WithArgs(roleID.String(), "chat:send").
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.RemoveGrant(context.Background(), roleID, permission.ChatSend)
		assert.ErrorIs(t, err, role.ErrGrantNotFound)
	})

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRoleRepositoryUnassign(t *testing.T) {
	repo, mock := newMockRepo(t)
	userID := shared.NewID()
	dealershipID := shared.NewID()
	roleID := shared.NewID()

	mock.ExpectExec("UPDATE user_role_assignments").
		WithArgs(userID.String(), dealershipID.String(), roleID.String()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Unassign(context.Background(), userID, dealershipID, roleID)
	assert.ErrorIs(t, err, role.ErrAssignmentNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}
