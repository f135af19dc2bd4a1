package tos_test

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	tc "github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/cognify-app/cognify-backend/internal/platform/database"
	"github.com/cognify-app/cognify-backend/internal/tos"
)

func startPostgres(t *testing.T) *pgxpool.Pool {
	t.Helper()
	ctx := context.Background()

	ctr, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("cognify_test"),
		tcpostgres.WithUsername("cognify"),
		tcpostgres.WithPassword("cognify"),
		tcpostgres.BasicWaitStrategies(),
	)
	if err != nil {
		t.Fatalf("start postgres container: %v", err)
	}
	t.Cleanup(func() {
		if err := tc.TerminateContainer(ctr); err != nil {
			t.Logf("terminate container: %v", err)
		}
	})

	dsn, err := ctr.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("connection string: %v", err)
	}

	db, err := database.New(ctx, dsn, 4, 1)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(db.Close)

	if err := db.Setup(ctx); err != nil {
		t.Fatalf("apply schema: %v", err)
	}
	return db.Pool
}

func TestPostgresStore_Integration_SingleActive(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}
	ctx := context.Background()
	pool := startPostgres(t)

	store, err := tos.NewPostgresStore(pool)
	if err != nil {
		t.Fatalf("NewPostgresStore() error = %v", err)
	}

	topics := []tos.Topic{
		{Title: "Cell Structure", Weight: 0.6},
		{Title: "Photosynthesis", Weight: 0.4},
	}

	first, err := store.Create(ctx, tos.TOS{
		SubjectID:   "subj-1",
		SubjectName: "Biology",
		Topics:      topics,
		Active:      true,
	})
	if err != nil {
		t.Fatalf("Create(first) error = %v", err)
	}

	second, err := store.Create(ctx, tos.TOS{
		SubjectID:   "subj-1",
		SubjectName: "Biology",
		Topics:      topics,
	})
	if err != nil {
		t.Fatalf("Create(second) error = %v", err)
	}

	active, err := store.ActiveTOS(ctx, "subj-1")
	if err != nil {
		t.Fatalf("ActiveTOS() error = %v", err)
	}
	if active == nil || active.ID != first {
		t.Fatalf("active = %+v, want %s", active, first)
	}

	// Activating another version demotes the previous one.
	if err := store.Activate(ctx, second); err != nil {
		t.Fatalf("Activate(second) error = %v", err)
	}
	active, err = store.ActiveTOS(ctx, "subj-1")
	if err != nil {
		t.Fatalf("ActiveTOS() after Activate error = %v", err)
	}
	if active == nil || active.ID != second {
		t.Fatalf("active after Activate = %+v, want %s", active, second)
	}

	all, err := store.BySubject(ctx, "subj-1")
	if err != nil {
		t.Fatalf("BySubject() error = %v", err)
	}
	activeCount := 0
	for _, v := range all {
		if v.Active {
			activeCount++
		}
	}
	if len(all) != 2 || activeCount != 1 {
		t.Errorf("BySubject() = %d versions with %d active, want 2 with 1", len(all), activeCount)
	}
}

func TestPostgresStore_Integration_TopicsRoundTrip(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}
	ctx := context.Background()
	pool := startPostgres(t)

	store, err := tos.NewPostgresStore(pool)
	if err != nil {
		t.Fatalf("NewPostgresStore() error = %v", err)
	}

	id, err := store.Create(ctx, tos.TOS{
		SubjectID:   "subj-1",
		SubjectName: "Biology",
		Topics:      []tos.Topic{{Title: "Cell Structure", Weight: 0.6}},
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	got, err := store.Get(ctx, id)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if len(got.Topics) != 1 || got.Topics[0].Title != "Cell Structure" || got.Topics[0].Weight != 0.6 {
		t.Errorf("topics did not survive the round trip: %+v", got.Topics)
	}

	missing, err := store.ActiveTOS(ctx, "other-subject")
	if err != nil {
		t.Fatalf("ActiveTOS(unknown) error = %v", err)
	}
	if missing != nil {
		t.Errorf("ActiveTOS(unknown) = %+v, want nil", missing)
	}
}
