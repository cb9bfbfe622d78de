package postgres

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"userlist/internal/domain"

	"github.com/stretchr/testify/require"
)

var userColumns = []string{"id", "first_name", "last_name", "email", "child_first_name", "child_last_name", "child_email"}

func TestUserRepository_List(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		page    domain.PageRequest
		mock    func(mock sqlmock.Sqlmock)
		want    []domain.User
		wantErr bool
		errIs   error
	}{
		{
			name: "success preserves order",
			page: domain.PageRequest{Limit: 50, Offset: 100},
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`SELECT id, first_name, last_name, email, child_first_name, child_last_name, child_email\s+FROM users\s+ORDER BY seq\s+LIMIT \$1 OFFSET \$2`).
					WithArgs(50, 100).
					WillReturnRows(sqlmock.NewRows(userColumns).
						AddRow("b", "Frederick", "Stuart", "frederickstuart@rocklogic.com", "Reed", "Velez", "reedvelez@rocklogic.com").
						AddRow("a", "Blankenship", "Vincent", "blankenshipvincent@rocklogic.com", "", "", ""))
			},
			want: []domain.User{
				domain.NewUser("b", "Frederick", "Stuart", "frederickstuart@rocklogic.com",
					domain.NewPersonName("Reed", "Velez", "reedvelez@rocklogic.com")),
				domain.NewUser("a", "Blankenship", "Vincent", "blankenshipvincent@rocklogic.com", domain.PersonName{}),
			},
		},
		{
			name: "past the end returns empty slice",
			page: domain.PageRequest{Limit: 50, Offset: 5000},
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`SELECT id`).
					WithArgs(50, 5000).
					WillReturnRows(sqlmock.NewRows(userColumns))
			},
			want: []domain.User{},
		},
		{
			name:    "invalid page does not query",
			page:    domain.PageRequest{Limit: 0, Offset: 0},
			mock:    func(mock sqlmock.Sqlmock) {},
			wantErr: true,
			errIs:   domain.ErrInvalidPage,
		},
		{
			name: "db error",
			page: domain.PageRequest{Limit: 50, Offset: 0},
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`SELECT id`).
					WillReturnError(sql.ErrConnDone)
			},
			wantErr: true,
			errIs:   sql.ErrConnDone,
		},
		{
			name: "row error",
			page: domain.PageRequest{Limit: 50, Offset: 0},
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`SELECT id`).
					WillReturnRows(sqlmock.NewRows(userColumns).
						AddRow("a", "A", "B", "c@d.e", "", "", "").
						RowError(0, sql.ErrConnDone))
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()

			tt.mock(mock)
			repo := NewUserRepository(db)
			got, err := repo.List(ctx, tt.page)
			if tt.wantErr {
				require.Error(t, err)
				if tt.errIs != nil {
					require.ErrorIs(t, err, tt.errIs)
				}
			} else {
				require.NoError(t, err)
				require.Equal(t, tt.want, got)
			}
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestUserRepository_Count(t *testing.T) {
	ctx := context.Background()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM users`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1234))
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM users`).
		WillReturnError(sql.ErrConnDone)

	repo := NewUserRepository(db)
	n, err := repo.Count(ctx)
	require.NoError(t, err)
	require.Equal(t, 1234, n)

	_, err = repo.Count(ctx)
	require.ErrorIs(t, err, sql.ErrConnDone)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_BulkInsert(t *testing.T) {
	ctx := context.Background()
	users := []domain.User{
		domain.NewUser("a", "Ann", "Lee", "ann@example.com", domain.NewPersonName("Bo", "Lee", "bo@example.com")),
		domain.NewUser("b", "Cy", "Ray", "cy@example.com", domain.PersonName{}),
	}

	tests := []struct {
		name    string
		users   []domain.User
		mock    func(mock sqlmock.Sqlmock)
		want    int
		wantErr bool
		errIs   error
	}{
		{
			name:  "success",
			users: users,
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				prep := mock.ExpectPrepare(`COPY "users"`)
				prep.ExpectExec().
					WithArgs("a", "Ann", "Lee", "ann@example.com", "Bo", "Lee", "bo@example.com").
					WillReturnResult(sqlmock.NewResult(0, 1))
				prep.ExpectExec().
					WithArgs("b", "Cy", "Ray", "cy@example.com", "", "", "").
					WillReturnResult(sqlmock.NewResult(0, 1))
				prep.ExpectExec().
					WillReturnResult(sqlmock.NewResult(0, 2))
				mock.ExpectCommit()
			},
			want: 2,
		},
		{
			name:  "copy error rolls back",
			users: users,
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				prep := mock.ExpectPrepare(`COPY "users"`)
				prep.ExpectExec().
					WillReturnError(sql.ErrConnDone)
				mock.ExpectRollback()
			},
			wantErr: true,
			errIs:   sql.ErrConnDone,
		},
		{
			name:    "empty input",
			users:   nil,
			mock:    func(mock sqlmock.Sqlmock) {},
			wantErr: true,
			errIs:   domain.ErrEmptyUserList,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()

			tt.mock(mock)
			repo := NewUserRepository(db)
			n, err := repo.BulkInsert(ctx, tt.users)
			if tt.wantErr {
				require.Error(t, err)
				if tt.errIs != nil {
					require.ErrorIs(t, err, tt.errIs)
				}
			} else {
				require.NoError(t, err)
				require.Equal(t, tt.want, n)
			}
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestEnsureSchema(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS users`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, EnsureSchema(context.Background(), db))
	require.NoError(t, mock.ExpectationsWereMet())
}
