package sqlstore

import (
	"context"

	"github.com/doug-martin/goqu/v9"

	"github.com/AntonStoeckl/library-ledger-go/library/core"
	"github.com/AntonStoeckl/library-ledger-go/library/users"
)

const tableUsers = "users"

var userColumns = []any{"id", "username", "password", "role", "email"}

func (s *Store) CreateUser(ctx context.Context, user core.User) (core.User, error) {
	insert := s.goqu.Insert(tableUsers).Prepared(true).Rows(goqu.Record{
		"username": user.Username,
		"password": user.Password,
		"role":     string(user.Role),
		"email":    user.Email,
	})

	var err error

	if s.dialect == DialectPostgres {
		query, args, buildErr := insert.Returning("id").ToSQL()
		if buildErr != nil {
			return core.User{}, s.storageFailed(buildErr)
		}

		s.logQuery(query)
		err = s.db.QueryRowxContext(ctx, query, args...).Scan(&user.ID)
	} else {
		query, args, buildErr := insert.ToSQL()
		if buildErr != nil {
			return core.User{}, s.storageFailed(buildErr)
		}

		s.logQuery(query)

		result, execErr := s.db.ExecContext(ctx, query, args...)
		err = execErr

		if execErr == nil {
			id, idErr := result.LastInsertId()
			user.ID = int(id)
			err = idErr
		}
	}

	if err != nil {
		if isUniqueViolation(err) {
			return core.User{}, users.DuplicateError(user.Username)
		}

		return core.User{}, s.storageFailed(err)
	}

	return user, nil
}

func (s *Store) GetUser(ctx context.Context, username core.UsernameString) (core.User, error) {
	query, args, err := s.goqu.From(tableUsers).Prepared(true).Select(userColumns...).Where(goqu.C("username").Eq(username)).ToSQL()
	if err != nil {
		return core.User{}, s.storageFailed(err)
	}

	s.logQuery(query)

	var user core.User
	if err = s.db.GetContext(ctx, &user, query, args...); err != nil {
		if isNoRows(err) {
			return core.User{}, users.NotFoundError(username)
		}

		return core.User{}, s.storageFailed(err)
	}

	return user, nil
}

func (s *Store) ListUsers(ctx context.Context) ([]core.User, error) {
	query, args, err := s.goqu.From(tableUsers).Prepared(true).Select(userColumns...).Order(goqu.C("id").Asc()).ToSQL()
	if err != nil {
		return nil, s.storageFailed(err)
	}

	s.logQuery(query)

	list := make([]core.User, 0)
	if err = s.db.SelectContext(ctx, &list, query, args...); err != nil {
		return nil, s.storageFailed(err)
	}

	return list, nil
}
