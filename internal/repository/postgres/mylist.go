package postgres

import (
	"context"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/kichiro01/ToPick-api/internal/model"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

var myListColumns = []string{
	"my_list_id", "user_id", "title", "theme_type", "topic",
	"is_private", "reported_flag", "created_at", "updated_at",
}

type MyListRepository struct {
	db txBeginner
}

func NewMyListRepository(db txBeginner) *MyListRepository {
	return &MyListRepository{db: db}
}

func (r *MyListRepository) ListByOwner(ctx context.Context, userID int64) ([]model.MyList, error) {
	query := psql.Select(myListColumns...).
		From("my_list").
		Where(sq.Eq{"user_id": userID}).
		OrderBy("my_list_id")
	return r.selectLists(ctx, query)
}

func (r *MyListRepository) ListPublic(ctx context.Context) ([]model.MyList, error) {
	query := psql.Select(myListColumns...).
		From("my_list").
		Where(sq.Eq{"is_private": false, "reported_flag": false}).
		OrderBy("my_list_id")
	return r.selectLists(ctx, query)
}

func (r *MyListRepository) Get(ctx context.Context, id int64) (model.MyList, error) {
	sql, args, err := psql.Select(myListColumns...).
		From("my_list").
		Where(sq.Eq{"my_list_id": id}).
		ToSql()
	if err != nil {
		return model.MyList{}, fmt.Errorf("build mylist query: %w", err)
	}

	list, err := scanMyList(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		return model.MyList{}, notFound(err, fmt.Sprintf("get mylist %d", id))
	}
	return list, nil
}

func (r *MyListRepository) Create(ctx context.Context, list model.MyList) (model.MyList, error) {
	return insertMyList(ctx, r.db, list)
}

func (r *MyListRepository) CreateWithUser(ctx context.Context, list model.MyList) (model.MyList, error) {
	var created model.MyList
	err := pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		user, err := createUser(ctx, tx)
		if err != nil {
			return err
		}
		list.UserID = user.ID
		created, err = insertMyList(ctx, tx, list)
		return err
	})
	return created, err
}

func (r *MyListRepository) Import(ctx context.Context, lists []model.MyList) (int64, []model.MyList, error) {
	var (
		userID  int64
		created = make([]model.MyList, 0, len(lists))
	)
	err := pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		user, err := createUser(ctx, tx)
		if err != nil {
			return err
		}
		userID = user.ID

		for _, list := range lists {
			list.UserID = user.ID
			saved, err := insertMyList(ctx, tx, list)
			if err != nil {
				return err
			}
			created = append(created, saved)
		}
		return nil
	})
	if err != nil {
		return 0, nil, err
	}
	return userID, created, nil
}

func (r *MyListRepository) Update(ctx context.Context, id int64, patch model.MyListPatch) (model.MyList, error) {
	if patch.Empty() {
		return r.Get(ctx, id)
	}

	sql, args, err := buildMyListUpdate(id, patch).ToSql()
	if err != nil {
		return model.MyList{}, fmt.Errorf("build mylist update: %w", err)
	}

	list, err := scanMyList(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		return model.MyList{}, notFound(err, fmt.Sprintf("update mylist %d", id))
	}
	return list, nil
}

func buildMyListUpdate(id int64, patch model.MyListPatch) sq.UpdateBuilder {
	query := psql.Update("my_list").
		Where(sq.Eq{"my_list_id": id}).
		Suffix("RETURNING " + strings.Join(myListColumns, ","))
	if patch.Title != nil {
		query = query.Set("title", *patch.Title)
	}
	if patch.ThemeType != nil {
		query = query.Set("theme_type", *patch.ThemeType)
	}
	if patch.Topic != nil {
		query = query.Set("topic", *patch.Topic)
	}
	if patch.IsPrivate != nil {
		query = query.Set("is_private", *patch.IsPrivate)
	}
	if patch.ReportedFlag != nil {
		query = query.Set("reported_flag", *patch.ReportedFlag)
	}
	return query.Set("updated_at", sq.Expr("NOW()"))
}

func (r *MyListRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM my_list WHERE my_list_id=$1`, id)
	if err != nil {
		return fmt.Errorf("delete mylist %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("delete mylist %d: %w", id, model.ErrNotFound)
	}
	return nil
}

func (r *MyListRepository) selectLists(ctx context.Context, query sq.SelectBuilder) ([]model.MyList, error) {
	sql, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build mylist query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query mylists: %w", err)
	}
	defer rows.Close()

	lists := make([]model.MyList, 0)
	for rows.Next() {
		list, err := scanMyList(rows)
		if err != nil {
			return nil, fmt.Errorf("scan mylist: %w", err)
		}
		lists = append(lists, list)
	}
	return lists, rows.Err()
}

func insertMyList(ctx context.Context, q querier, list model.MyList) (model.MyList, error) {
	query := psql.Insert("my_list").
		Columns("user_id", "title", "theme_type", "topic", "is_private", "created_at", "updated_at").
		Suffix("RETURNING " + strings.Join(myListColumns, ","))

	created := sq.Expr("NOW()")
	if !list.CreatedAt.IsZero() {
		created = sq.Expr("?", list.CreatedAt)
	}
	query = query.Values(list.UserID, list.Title, list.ThemeType, list.Topic, list.IsPrivate, created, sq.Expr("NOW()"))

	sql, args, err := query.ToSql()
	if err != nil {
		return model.MyList{}, fmt.Errorf("build mylist insert: %w", err)
	}

	saved, err := scanMyList(q.QueryRow(ctx, sql, args...))
	if err != nil {
		return model.MyList{}, fmt.Errorf("insert mylist: %w", err)
	}
	return saved, nil
}

func scanMyList(row pgx.Row) (model.MyList, error) {
	var l model.MyList
	if err := row.Scan(
		&l.ID,
		&l.UserID,
		&l.Title,
		&l.ThemeType,
		&l.Topic,
		&l.IsPrivate,
		&l.ReportedFlag,
		&l.CreatedAt,
		&l.UpdatedAt,
	); err != nil {
		return model.MyList{}, err
	}
	return l, nil
}
