package sqlite_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/example/canvasai/internal/adapters/sqlite"
	"github.com/example/canvasai/internal/ports/secondary"
)

func TestPlanRepository_CreateAndGet(t *testing.T) {
	repo := sqlite.NewPlanRepository(setupTestDB(t))
	ctx := context.Background()

	id, err := repo.Create(ctx, 42, `["Read","Write"]`)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if !strings.HasPrefix(id, "plan_") || len(id) != len("plan_")+16 {
		t.Errorf("unexpected plan id: %s", id)
	}

	got, err := repo.GetByID(ctx, id)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.AssignmentID != 42 || got.StepsJSON != `["Read","Write"]` {
		t.Errorf("unexpected plan: %+v", got)
	}
}

func TestPlanRepository_GetByID_NotFound(t *testing.T) {
	repo := sqlite.NewPlanRepository(setupTestDB(t))

	_, err := repo.GetByID(context.Background(), "plan_missing")
	if !errors.Is(err, secondary.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPlanRepository_IDsAreUnique(t *testing.T) {
	repo := sqlite.NewPlanRepository(setupTestDB(t))
	ctx := context.Background()

	seen := map[string]bool{}
	for i := 0; i < 20; i++ {
		id, err := repo.Create(ctx, 1, "[]")
		if err != nil {
			t.Fatalf("Create failed: %v", err)
		}
		if seen[id] {
			t.Fatalf("duplicate id %s", id)
		}
		seen[id] = true
	}
}
