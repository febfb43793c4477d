// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// handler_test.go provides shared test infrastructure for handler integration
// tests. Tests are skipped when PostgreSQL or Valkey are unavailable.
package handlers

import (
	"context"
	"database/sql"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/redis/go-redis/v9"

	"brandforge/internal/cache"
	"brandforge/internal/config"
	"brandforge/internal/database"
	"brandforge/internal/generation"
	"brandforge/internal/middleware"
	"brandforge/internal/session"
	"brandforge/internal/store"
)

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// testDB opens a connection to the test PostgreSQL and runs migrations.
func testDB(t *testing.T) *sql.DB {
	t.Helper()

	host := envOr("POSTGRES_HOST", "localhost")
	port := envOr("POSTGRES_PORT", "5432")
	user := envOr("POSTGRES_USER", "brandforge")
	pass := envOr("POSTGRES_PASSWORD", "changeme")
	name := envOr("POSTGRES_DB", "brandforge")
	dsn := "postgres://" + user + ":" + pass + "@" + host + ":" + port + "/" + name + "?sslmode=disable"

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		t.Skipf("skipping: cannot open DB: %v", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		t.Skipf("skipping: DB not reachable: %v", err)
	}

	if err := database.Migrate(db); err != nil {
		db.Close()
		t.Fatalf("migrate: %v", err)
	}
	goose.SetBaseFS(nil)

	t.Cleanup(func() { db.Close() })
	return db
}

// testValkeyClient returns a Redis client for handler tests on DB 15.
func testValkeyClient(t *testing.T) *redis.Client {
	t.Helper()

	host := envOr("VALKEY_HOST", "localhost")
	port := envOr("VALKEY_PORT", "6379")
	password := os.Getenv("VALKEY_PASSWORD")

	client := redis.NewClient(&redis.Options{
		Addr:     host + ":" + port,
		Password: password,
		DB:       15,
	})

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		t.Skipf("skipping: Valkey not reachable: %v", err)
	}

	t.Cleanup(func() {
		for _, pattern := range []string{"session:*", "brand:*"} {
			keys, _ := client.Keys(ctx, pattern).Result()
			if len(keys) > 0 {
				client.Del(ctx, keys...)
			}
		}
		client.Close()
	})

	return client
}

// testEnv holds all dependencies for handler integration tests.
type testEnv struct {
	DB            *sql.DB
	Valkey        *redis.Client
	Config        *config.Config
	Sessions      *session.Store
	UserStore     *store.UserStore
	TemplateStore *store.TemplateStore
	BrandStore    *store.BrandStyleStore
	HistoryStore  *store.HistoryStore
	BrandCache    *cache.BrandCache
	Auth          *Auth
	Templates     *Templates
	Brand         *Brand
	History       *History
	Profile       *Profile
}

// newTestEnv creates a complete test environment with all handler
// dependencies except the generation pipeline, which individual tests build
// around their own dispatcher.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db := testDB(t)
	vk := testValkeyClient(t)

	cfg := &config.Config{Env: "development"}
	sessions := session.NewStore(vk, false)
	userStore := store.NewUserStore(db)
	templateStore := store.NewTemplateStore(db)
	brandStore := store.NewBrandStyleStore(db)
	historyStore := store.NewHistoryStore(db)
	brandCache := cache.NewBrandCache(vk, 1*time.Minute)

	return &testEnv{
		DB:            db,
		Valkey:        vk,
		Config:        cfg,
		Sessions:      sessions,
		UserStore:     userStore,
		TemplateStore: templateStore,
		BrandStore:    brandStore,
		HistoryStore:  historyStore,
		BrandCache:    brandCache,
		Auth:          NewAuth(cfg, sessions, userStore),
		Templates:     NewTemplates(templateStore),
		Brand:         NewBrand(brandStore, brandCache),
		History:       NewHistory(historyStore, nil),
		Profile:       NewProfile(cfg, sessions, userStore),
	}
}

// newGenerateHandler wires the Generate handler around the given dispatcher.
func (env *testEnv) newGenerateHandler(dispatcher generation.Dispatcher) *Generate {
	orch := generation.New(dispatcher, generation.WithHistoryRecorder(env.HistoryStore))
	return NewGenerate(orch, env.TemplateStore, env.BrandStore, env.BrandCache)
}

// ctxWithSession adds session data to a context using the middleware key.
func ctxWithSession(ctx context.Context, sess *session.Data) context.Context {
	return context.WithValue(ctx, middleware.SessionKey, sess)
}

// testSession builds session data for an already-verified user.
func testSession(userID uuid.UUID, email string, isAdmin bool) *session.Data {
	return &session.Data{
		UserID:      userID,
		Email:       email,
		DisplayName: "Test User",
		IsAdmin:     isAdmin,
		TwoFADone:   true,
	}
}

// createTestUser inserts a user and registers cleanup of the row and its
// dependents.
func createTestUser(t *testing.T, env *testEnv, email string, isAdmin bool) uuid.UUID {
	t.Helper()

	user, err := env.UserStore.Create(email, "password123", "Test User", isAdmin)
	if err != nil {
		t.Fatalf("create test user: %v", err)
	}
	t.Cleanup(func() {
		env.DB.Exec("DELETE FROM users WHERE id = $1", user.ID)
	})
	return user.ID
}
