package repository

import (
	"context"
	"path/filepath"
	"testing"

	"go.uber.org/zap"

	"gatekeeper-bot/internal/model"
)

func newTestRepository(t *testing.T) *UserRepository {
	t.Helper()
	db, err := NewDB(filepath.Join(t.TempDir(), "data", "users.db"), zap.NewNop())
	if err != nil {
		t.Fatalf("failed to open db: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get sql db: %v", err)
	}
	t.Cleanup(func() { _ = sqlDB.Close() })
	return NewUserRepository(db)
}

func TestAddIsIdempotent(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	if err := repo.Add(ctx, 42); err != nil {
		t.Fatalf("first add failed: %v", err)
	}
	if err := repo.Add(ctx, 42); err != nil {
		t.Fatalf("duplicate add must not fail: %v", err)
	}

	users, err := repo.ListAll(ctx)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(users) != 1 {
		t.Fatalf("expected exactly one record, got %d", len(users))
	}
	if users[0].UserID != 42 {
		t.Fatalf("expected user_id 42, got %d", users[0].UserID)
	}
}

func TestExistsBeforeAndAfterAdd(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	exists, err := repo.Exists(ctx, 7)
	if err != nil {
		t.Fatalf("exists failed: %v", err)
	}
	if exists {
		t.Fatalf("expected user 7 to be unknown before add")
	}

	if err := repo.Add(ctx, 7); err != nil {
		t.Fatalf("add failed: %v", err)
	}

	exists, err = repo.Exists(ctx, 7)
	if err != nil {
		t.Fatalf("exists failed: %v", err)
	}
	if !exists {
		t.Fatalf("expected user 7 to be registered after add")
	}
}

func TestExistsRecreatesMissingTable(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	if err := repo.db.Migrator().DropTable(&model.User{}); err != nil {
		t.Fatalf("drop table failed: %v", err)
	}

	exists, err := repo.Exists(ctx, 1)
	if err != nil {
		t.Fatalf("exists should recreate the table, got %v", err)
	}
	if exists {
		t.Fatalf("expected empty registry after table recreation")
	}
	if err := repo.Add(ctx, 1); err != nil {
		t.Fatalf("add after recreation failed: %v", err)
	}
}

func TestListAllOrdersBySurrogateID(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	for _, id := range []int64{300, 100, 200} {
		if err := repo.Add(ctx, id); err != nil {
			t.Fatalf("add %d failed: %v", id, err)
		}
	}

	users, err := repo.ListAll(ctx)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	want := []int64{300, 100, 200}
	if len(users) != len(want) {
		t.Fatalf("expected %d users, got %d", len(want), len(users))
	}
	for i, user := range users {
		if user.UserID != want[i] {
			t.Fatalf("position %d: expected user_id %d, got %d", i, want[i], user.UserID)
		}
		if i > 0 && users[i-1].ID >= user.ID {
			t.Fatalf("surrogate ids not ascending: %d then %d", users[i-1].ID, user.ID)
		}
	}

	count, err := repo.Count(ctx)
	if err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 3 {
		t.Fatalf("expected count 3, got %d", count)
	}
}
