//go:build integration

package mysql_test

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"

	"museum_directory/internal/domain"
	mysqlrepo "museum_directory/internal/storage/mysql"
)

// migrationsDir honours MIGRATIONS_DIR and defaults to the repo's migrations/.
func migrationsDir(t *testing.T) string {
	t.Helper()
	if v := os.Getenv("MIGRATIONS_DIR"); v != "" {
		return v
	}
	return filepath.Join("..", "..", "..", "migrations")
}

func applyMigrations(t *testing.T, db *sql.DB) {
	t.Helper()
	dir := migrationsDir(t)

	ents, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read migrations dir %s: %v", dir, err)
	}
	var files []string
	for _, e := range ents {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".sql" {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	if len(files) == 0 {
		t.Fatalf("no .sql files in %s", dir)
	}
	sort.Strings(files)

	for _, f := range files {
		sqlBytes, err := os.ReadFile(f)
		if err != nil {
			t.Fatalf("read %s: %v", f, err)
		}
		if _, err := db.Exec(string(sqlBytes)); err != nil {
			t.Fatalf("exec %s: %v", f, err)
		}
	}
}

func TestRepo_MySQL_FavoritesRoundTrip(t *testing.T) {
	// Start isolated MySQL; let Docker pick a free host port.
	pool, err := dockertest.NewPool("")
	if err != nil {
		t.Fatalf("dockertest: %v", err)
	}

	resource, err := pool.RunWithOptions(&dockertest.RunOptions{
		Repository: "mysql",
		Tag:        "8.0.36",
		Env: []string{
			"MYSQL_ROOT_PASSWORD=root",
			"MYSQL_DATABASE=musees",
		},
	}, func(hc *docker.HostConfig) {
		hc.AutoRemove = true
		hc.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	if err != nil {
		t.Fatalf("run mysql: %v", err)
	}
	t.Cleanup(func() { _ = pool.Purge(resource) })

	dsn := fmt.Sprintf("root:root@tcp(127.0.0.1:%s)/musees?parseTime=true&multiStatements=true&charset=utf8mb4&loc=UTC",
		resource.GetPort("3306/tcp"))

	var db *sql.DB
	if err := pool.Retry(func() error {
		var e error
		db, e = sql.Open("mysql", dsn)
		if e != nil {
			return e
		}
		return db.Ping()
	}); err != nil {
		t.Fatalf("connect mysql: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	applyMigrations(t, db)

	repo := mysqlrepo.New(db)
	ctx := context.Background()
	first := time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC)

	louvre := domain.Favorite{
		MuseumID: "M0001",
		Museum:   domain.Museum{ID: "M0001", Name: "Musée du Louvre", City: "Paris", Region: "Île-de-France", Themes: []string{"Art"}},
		AddedAt:  first,
	}
	if err := repo.Upsert(ctx, louvre); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	// re-adding refreshes the snapshot but keeps the original date
	louvre.Museum.Name = "Musée du Louvre (Paris)"
	louvre.AddedAt = first.Add(time.Hour)
	if err := repo.Upsert(ctx, louvre); err != nil {
		t.Fatalf("Upsert again: %v", err)
	}

	got, err := repo.Get(ctx, "M0001")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Museum.Name != "Musée du Louvre (Paris)" || !got.AddedAt.Equal(first) {
		t.Fatalf("unexpected favorite: %+v", got)
	}

	orsay := domain.Favorite{MuseumID: "M0002", Museum: domain.Museum{ID: "M0002", Name: "Musée d'Orsay"}, AddedAt: first.Add(2 * time.Hour)}
	if err := repo.Upsert(ctx, orsay); err != nil {
		t.Fatalf("Upsert orsay: %v", err)
	}
	list, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 2 || list[0].MuseumID != "M0002" {
		t.Fatalf("unexpected list order: %+v", list)
	}

	removed, err := repo.Delete(ctx, "M0001")
	if err != nil || !removed {
		t.Fatalf("Delete: removed=%v err=%v", removed, err)
	}
	if _, err := repo.Get(ctx, "M0001"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found after delete, got %v", err)
	}

	if ok, err := repo.Insert(ctx, louvre); err != nil || !ok {
		t.Fatalf("Insert into empty slot: ok=%v err=%v", ok, err)
	}
	if ok, err := repo.Insert(ctx, louvre); err != nil || ok {
		t.Fatalf("Insert over existing row: ok=%v err=%v", ok, err)
	}
}
