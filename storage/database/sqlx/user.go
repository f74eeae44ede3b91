package sqlxrepos

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/user"
)

const userColumns = `id, name, username, email, role, status, department, phone, password_hash, created_at, updated_at, last_login`

var userOrderable = orderableColumns(userColumns, "password_hash")

type userRow struct {
	ID           string      `db:"id"`
	Name         null.String `db:"name"`
	Username     null.String `db:"username"`
	Email        null.String `db:"email"`
	Role         null.String `db:"role"`
	Status       null.String `db:"status"`
	Department   null.String `db:"department"`
	Phone        null.String `db:"phone"`
	PasswordHash null.Bytes  `db:"password_hash"`
	CreatedAt    time.Time   `db:"created_at"`
	UpdatedAt    time.Time   `db:"updated_at"`
	LastLogin    null.Time   `db:"last_login"`
}

type userRepository struct {
	exec core.DBExecutor
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(exec core.DBExecutor) *userRepository {
	return &userRepository{exec: exec}
}

// row translates usr to its DB representation; null validity marks set fields.
func (repo userRepository) row(usr user.User) userRow {
	return userRow{
		ID:           usr.ID,
		Name:         null.NewString(usr.Name, usr.Name != ""),
		Username:     null.NewString(usr.Username, usr.Username != ""),
		Email:        null.NewString(usr.Email, usr.Email != ""),
		Role:         null.NewString(string(usr.Role), usr.Role != ""),
		Status:       null.NewString(string(usr.Status), usr.Status != ""),
		Department:   null.NewString(usr.Department, usr.Department != ""),
		Phone:        null.NewString(usr.Phone, usr.Phone != ""),
		PasswordHash: null.NewBytes(usr.PasswordHash, usr.PasswordHash != nil),
		CreatedAt:    usr.CreatedAt.UTC(),
		UpdatedAt:    usr.UpdatedAt.UTC(),
		LastLogin:    null.NewTime(usr.LastLogin.UTC(), !usr.LastLogin.IsZero()),
	}
}

func (repo userRepository) unrow(r userRow) user.User {
	return user.User{
		ID:           r.ID,
		Name:         r.Name.String,
		Username:     r.Username.String,
		Email:        r.Email.String,
		Role:         user.Role(r.Role.String),
		Status:       user.Status(r.Status.String),
		Department:   r.Department.String,
		Phone:        r.Phone.String,
		PasswordHash: r.PasswordHash.Bytes,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
		LastLogin:    r.LastLogin.Time,
	}
}

func (repo userRepository) unrowSlice(rows []userRow) []user.User {
	users := make([]user.User, 0, len(rows))
	for _, r := range rows {
		users = append(users, repo.unrow(r))
	}
	return users
}

// trapNoRowsErr maps psql "no rows" err to user.ErrNotFound
func (repo userRepository) trapNoRowsErr(err error, msg string) error {
	if err == sql.ErrNoRows {
		return user.ErrNotFound
	}
	return errors.Wrap(err, msg)
}

// trapUniqErr maps psql unique violations to the matching domain error.
func (repo userRepository) trapUniqErr(err error, msg string) error {
	if isUniqueViolation(err, "user_username_key") {
		return user.ErrUsernameExists
	}
	if isUniqueViolation(err, "user_email_key") {
		return user.ErrEmailExists
	}
	return errors.Wrap(err, msg)
}

func (repo userRepository) CheckUsernameUniqueness(ctx context.Context, username, email string, excludedUsers ...user.User) error {
	var args queryArgs
	conds := []string{"(username = " + args.bind(username) + " OR email = " + args.bind(email) + ")"}
	if len(excludedUsers) > 0 {
		ids := make([]string, 0, len(excludedUsers))
		for _, u := range excludedUsers {
			ids = append(ids, u.ID)
		}
		conds = append(conds, "id <> ALL("+args.bind(pq.Array(ids))+")")
	}

	var clash userRow
	q := `SELECT id, username, email FROM "user"` + whereClause(conds) + ` LIMIT 1`
	if err := repo.exec.GetContext(ctx, &clash, q, args...); err != nil {
		if err == sql.ErrNoRows {
			return nil
		}
		return errors.Wrap(err, "checking user uniqueness")
	}
	if username != "" && strings.EqualFold(clash.Username.String, username) {
		return user.ErrUsernameExists
	}
	return user.ErrEmailExists
}

func (repo userRepository) CreateUser(ctx context.Context, usr user.User) (user.User, error) {
	usr.ID = uuid.New().String()
	r := repo.row(usr)
	q := `INSERT INTO "user" (` + userColumns + `)
		VALUES (:id, :name, :username, :email, :role, :status, :department, :phone, :password_hash, :created_at, :updated_at, :last_login)`
	if _, err := sqlx.NamedExecContext(ctx, repo.exec, q, r); err != nil {
		return user.User{}, repo.trapUniqErr(err, "inserting user")
	}
	return usr, nil
}

func (repo userRepository) getUserBy(ctx context.Context, cond string, args ...interface{}) (user.User, error) {
	var r userRow
	q := `SELECT ` + userColumns + ` FROM "user" WHERE ` + cond
	if err := repo.exec.GetContext(ctx, &r, q, args...); err != nil {
		return user.User{}, repo.trapNoRowsErr(err, "getting user")
	}
	return repo.unrow(r), nil
}

func (repo userRepository) GetUserByID(ctx context.Context, id string) (user.User, error) {
	return repo.getUserBy(ctx, "id = $1", id)
}

func (repo userRepository) GetUserByEmail(ctx context.Context, email string) (user.User, error) {
	return repo.getUserBy(ctx, "LOWER(email) = LOWER($1)", email)
}

func (repo userRepository) GetUserByUsernameOrEmail(ctx context.Context, username string) (user.User, error) {
	return repo.getUserBy(ctx, "LOWER(username) = LOWER($1) OR LOWER(email) = LOWER($1)", username)
}

func (repo userRepository) FilterUsers(ctx context.Context, filter user.QueryFilter, orderings ...core.DBOrdering) ([]user.User, error) {
	var args queryArgs
	var conds []string

	if filter.Search != "" {
		val := args.bind("%" + filter.Search + "%")
		conds = append(conds, "(name ILIKE "+val+" OR username ILIKE "+val+" OR email ILIKE "+val+")")
	}
	if filter.Role != "" {
		conds = append(conds, "role = "+args.bind(string(filter.Role)))
	}
	if filter.Status != "" {
		conds = append(conds, "status = "+args.bind(string(filter.Status)))
	}
	if !filter.CreatedFrom.IsZero() {
		conds = append(conds, "created_at >= "+args.bind(filter.CreatedFrom.UTC()))
	}
	if !filter.CreatedTo.IsZero() {
		conds = append(conds, "created_at <= "+args.bind(filter.CreatedTo.UTC()))
	}

	var rows []userRow
	q := `SELECT ` + userColumns + ` FROM "user"` + whereClause(conds) + orderByClause(orderings, userOrderable, "created_at, id")
	if err := repo.exec.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, errors.Wrap(err, "filtering users")
	}
	return repo.unrowSlice(rows), nil
}

func (repo userRepository) UpdateUser(ctx context.Context, usr user.User) (user.User, error) {
	r := repo.row(usr)

	var args queryArgs
	var sets []string
	set := func(col string, val interface{}) { sets = append(sets, col+" = "+args.bind(val)) }

	if r.Name.Valid {
		set("name", r.Name)
	}
	if r.Username.Valid {
		set("username", r.Username)
	}
	if r.Email.Valid {
		set("email", r.Email)
	}
	if r.Role.Valid {
		set("role", r.Role)
	}
	if r.Status.Valid {
		set("status", r.Status)
	}
	if r.Department.Valid {
		set("department", r.Department)
	}
	if r.Phone.Valid {
		set("phone", r.Phone)
	}
	if r.PasswordHash.Valid {
		set("password_hash", r.PasswordHash)
	}
	if r.LastLogin.Valid {
		set("last_login", r.LastLogin)
	}
	set("updated_at", r.UpdatedAt)

	var updated userRow
	q := `UPDATE "user" SET ` + strings.Join(sets, ", ") + ` WHERE id = ` + args.bind(usr.ID) + ` RETURNING ` + userColumns
	if err := repo.exec.GetContext(ctx, &updated, q, args...); err != nil {
		if err == sql.ErrNoRows {
			return user.User{}, user.ErrNotFound
		}
		return user.User{}, repo.trapUniqErr(err, "updating user")
	}
	return repo.unrow(updated), nil
}

func (repo userRepository) UpdateOrCreateUser(ctx context.Context, usr user.User) (user.User, error) {
	if usr.ID == "" {
		return repo.CreateUser(ctx, usr)
	}
	updated, err := repo.UpdateUser(ctx, usr)
	if err == user.ErrNotFound {
		r := repo.row(usr)
		q := `INSERT INTO "user" (` + userColumns + `)
			VALUES (:id, :name, :username, :email, :role, :status, :department, :phone, :password_hash, :created_at, :updated_at, :last_login)`
		if _, err = sqlx.NamedExecContext(ctx, repo.exec, q, r); err != nil {
			return user.User{}, repo.trapUniqErr(err, "inserting user")
		}
		return usr, nil
	}
	return updated, err
}

func (repo userRepository) DeleteUsersByID(ctx context.Context, ids ...string) error {
	if _, err := repo.exec.ExecContext(ctx, `DELETE FROM "user" WHERE id = ANY($1)`, pq.Array(ids)); err != nil {
		return errors.Wrap(err, "deleting users")
	}
	return nil
}
