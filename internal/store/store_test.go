// store_test.go provides a shared test database helper for all store
// integration tests. Tests are skipped if PostgreSQL is not available.
package store

import (
	"context"
	"database/sql"
	"os"
	"testing"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"collabforms/internal/database"
	"collabforms/internal/models"
)

// testDSN returns the PostgreSQL connection string for testing.
// Uses environment variables with defaults matching the local dev setup.
func testDSN() string {
	host := envOr("POSTGRES_HOST", "localhost")
	port := envOr("POSTGRES_PORT", "5432")
	user := envOr("POSTGRES_USER", "collabforms")
	pass := envOr("POSTGRES_PASSWORD", "changeme")
	name := envOr("POSTGRES_DB", "collabforms")
	return "postgres://" + user + ":" + pass + "@" + host + ":" + port + "/" + name + "?sslmode=disable"
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// testDB opens a connection to the test database and runs migrations.
// If the database is unavailable, the test is skipped. A cleanup
// function is registered to close the connection when the test finishes.
func testDB(t *testing.T) *sql.DB {
	t.Helper()

	dsn := testDSN()
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		t.Skipf("skipping integration test: cannot open DB: %v", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		t.Skipf("skipping integration test: DB not reachable: %v", err)
	}

	// Run migrations to ensure the schema is current.
	if err := database.Migrate(db); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	// Downgrade goose global state.
	goose.SetBaseFS(nil)

	t.Cleanup(func() { db.Close() })
	return db
}

// cleanUsers removes test users by email. Call in t.Cleanup().
func cleanUsers(t *testing.T, db *sql.DB, emails ...string) {
	t.Helper()
	for _, email := range emails {
		db.Exec("DELETE FROM users WHERE email = $1", email)
	}
}

// cleanForms removes test forms with their sections and responses. Call in
// t.Cleanup().
func cleanForms(t *testing.T, db *sql.DB, titles ...string) {
	t.Helper()
	for _, title := range titles {
		db.Exec(`DELETE FROM responses WHERE section_id IN (
			SELECT s.id FROM sections s JOIN forms f ON f.id = s.form_id WHERE f.title = $1)`, title)
		db.Exec("DELETE FROM sections WHERE form_id IN (SELECT id FROM forms WHERE title = $1)", title)
		db.Exec("DELETE FROM forms WHERE title = $1", title)
	}
}

// testUser inserts a user and registers its cleanup.
func testUser(t *testing.T, db *sql.DB, email string, role models.Role) models.User {
	t.Helper()
	t.Cleanup(func() { cleanUsers(t, db, email) })
	cleanUsers(t, db, email)

	u := models.User{Name: "Store Test " + string(role), Email: email, Role: role, Color: models.Palette[0]}
	if err := New(db).Users().Insert(context.Background(), &u); err != nil {
		t.Fatalf("insert test user: %v", err)
	}
	return u
}
