//go:build integration

package postgres_test

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/kichiro01/ToPick-api/internal/auth"
	"github.com/kichiro01/ToPick-api/internal/database"
	"github.com/kichiro01/ToPick-api/internal/logging"
	"github.com/kichiro01/ToPick-api/internal/model"
	repo "github.com/kichiro01/ToPick-api/internal/repository/postgres"
	"github.com/kichiro01/ToPick-api/migrations"
)

var dsn string

func TestMain(m *testing.M) {
	ctx := context.Background()
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: tc.ContainerRequest{
			Image:        "postgres:15-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "postgres",
				"POSTGRES_PASSWORD": "password",
				"POSTGRES_DB":       "topick_test",
			},
			WaitingFor: wait.ForListeningPort("5432/tcp").WithStartupTimeout(2 * time.Minute),
		},
		Started: true,
	})
	if err != nil {
		panic(err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		panic(err)
	}
	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		panic(err)
	}
	dsn = fmt.Sprintf("postgres://postgres:password@%s:%s/topick_test?sslmode=disable", host, port.Port())

	code := m.Run()
	_ = container.Terminate(ctx)
	os.Exit(code)
}

func connect(t *testing.T) *pgxpool.Pool {
	t.Helper()
	ctx := context.Background()

	var pool *pgxpool.Pool
	var err error
	for i := 0; i < 20; i++ {
		pool, err = database.Connect(ctx, dsn)
		if err == nil {
			break
		}
		time.Sleep(500 * time.Millisecond)
	}
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, database.ApplyMigrations(ctx, pool, migrations.FS, logging.Discard()))
	// second run is a no-op
	require.NoError(t, database.ApplyMigrations(ctx, pool, migrations.FS, logging.Discard()))
	return pool
}

func TestRepositories_MyListCRUD(t *testing.T) {
	ctx := context.Background()
	pool := connect(t)

	users := repo.NewUserRepository(pool)
	lists := repo.NewMyListRepository(pool)

	created, err := lists.CreateWithUser(ctx, model.MyList{
		Title:     "ユーザーなし作成テスト",
		ThemeType: "001",
		Topic:     model.NewTopic(),
	})
	require.NoError(t, err)
	require.NotZero(t, created.UserID)
	assert.Equal(t, []string{}, created.Topic.Items)
	assert.Equal(t, created.CreatedAt, created.UpdatedAt)

	exists, err := users.Exists(ctx, created.UserID)
	require.NoError(t, err)
	assert.True(t, exists)

	second, err := lists.Create(ctx, model.MyList{
		UserID:    created.UserID,
		Title:     "second",
		ThemeType: "002",
		Topic:     model.NewTopic("a", "b"),
		IsPrivate: true,
	})
	require.NoError(t, err)

	owned, err := lists.ListByOwner(ctx, created.UserID)
	require.NoError(t, err)
	require.Len(t, owned, 2)
	assert.Equal(t, created.ID, owned[0].ID)
	assert.Equal(t, second.ID, owned[1].ID)

	public, err := lists.ListPublic(ctx)
	require.NoError(t, err)
	assert.Contains(t, ids(public), created.ID)
	assert.NotContains(t, ids(public), second.ID)

	reported := true
	updated, err := lists.Update(ctx, created.ID, model.MyListPatch{ReportedFlag: &reported})
	require.NoError(t, err)
	assert.True(t, updated.ReportedFlag)

	public, err = lists.ListPublic(ctx)
	require.NoError(t, err)
	assert.NotContains(t, ids(public), created.ID)

	topic := model.NewTopic("x")
	updated, err = lists.Update(ctx, second.ID, model.MyListPatch{Topic: &topic})
	require.NoError(t, err)
	assert.Equal(t, []string{"x"}, updated.Topic.Items)

	require.NoError(t, lists.Delete(ctx, second.ID))
	assert.ErrorIs(t, lists.Delete(ctx, second.ID), model.ErrNotFound)

	_, err = lists.Get(ctx, second.ID)
	assert.ErrorIs(t, err, model.ErrNotFound)

	_, err = lists.Update(ctx, second.ID, model.MyListPatch{Topic: &topic})
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestRepositories_Import(t *testing.T) {
	ctx := context.Background()
	pool := connect(t)
	lists := repo.NewMyListRepository(pool)

	clientCreated := time.Date(2022, 4, 1, 9, 0, 0, 0, time.UTC)
	userID, saved, err := lists.Import(ctx, []model.MyList{
		{Title: "one", ThemeType: model.DefaultThemeType, Topic: model.NewTopic("a"), IsPrivate: true, CreatedAt: clientCreated},
		{Title: "two", ThemeType: model.DefaultThemeType, Topic: model.NewTopic(), IsPrivate: true, CreatedAt: clientCreated},
	})
	require.NoError(t, err)
	require.Len(t, saved, 2)
	for _, l := range saved {
		assert.Equal(t, userID, l.UserID)
		assert.True(t, l.CreatedAt.Equal(clientCreated))
		assert.True(t, l.UpdatedAt.After(clientCreated))
	}
}

func TestRepositories_Themes(t *testing.T) {
	ctx := context.Background()
	pool := connect(t)
	themes := repo.NewThemeRepository(pool)

	desc := "説明"
	require.NoError(t, themes.Upsert(ctx, model.PreparedTheme{ID: 900, ThemeType: "001", Title: "a", Description: &desc, ImageType: "001", Topic: model.NewTopic("q")}))
	first, err := themes.LastUpdated(ctx)
	require.NoError(t, err)
	require.NotNil(t, first)

	// identical upsert keeps updated_at
	require.NoError(t, themes.Upsert(ctx, model.PreparedTheme{ID: 900, ThemeType: "001", Title: "a", Description: &desc, ImageType: "001", Topic: model.NewTopic("q")}))
	again, err := themes.LastUpdated(ctx)
	require.NoError(t, err)
	assert.True(t, first.Equal(*again))

	all, err := themes.List(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, all)
	assert.Equal(t, []string{"q"}, all[len(all)-1].Topic.Items)
}

func TestRepositories_AuthWorkflow(t *testing.T) {
	ctx := context.Background()
	pool := connect(t)

	users := repo.NewUserRepository(pool)
	svc := auth.NewService(repo.NewAuthRepository(pool), logging.Discard())

	user, err := users.Create(ctx)
	require.NoError(t, err)

	issued, err := svc.Issue(ctx, user.ID)
	require.NoError(t, err)
	assert.Len(t, issued.Code, model.AuthCodeLength)
	assert.Equal(t, issued.CreatedAt, issued.UpdatedAt)

	_, err = svc.Issue(ctx, user.ID)
	assert.Equal(t, model.KindConflict, model.KindOf(err))

	_, err = svc.Issue(ctx, user.ID+100000)
	assert.Equal(t, model.KindNotFound, model.KindOf(err))

	// concurrent redemptions: exactly one succeeds
	var wg sync.WaitGroup
	results := make(chan error, 5)
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Redeem(ctx, issued.ID, issued.Code)
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var ok, used int
	for err := range results {
		switch {
		case err == nil:
			ok++
		case model.KindOf(err) == model.KindUnauthorized:
			used++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, 4, used)

	_, err = svc.Issue(ctx, user.ID)
	require.NoError(t, err)
}

func ids(lists []model.MyList) []int64 {
	out := make([]int64, 0, len(lists))
	for _, l := range lists {
		out = append(out, l.ID)
	}
	return out
}
