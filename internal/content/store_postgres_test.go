package content_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	tc "github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/cognify-app/cognify-backend/internal/content"
	"github.com/cognify-app/cognify-backend/internal/platform/database"
)

// startPostgres boots a throwaway PostgreSQL container, applies the schema
// and returns a connected pool. Requires a local Docker daemon.
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

func TestPostgresModuleStore_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}
	ctx := context.Background()
	pool := startPostgres(t)

	store, err := content.NewPostgresModuleStore(pool)
	if err != nil {
		t.Fatalf("NewPostgresModuleStore() error = %v", err)
	}

	mod := content.Module{
		ID:          "mod-1",
		SubjectID:   "subj-1",
		Title:       "Cell Biology",
		MaterialURL: "https://example.com/cells.pdf",
	}
	if err := store.Put(ctx, mod); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	got, err := store.Get(ctx, "mod-1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Title != mod.Title || got.SubjectID != mod.SubjectID {
		t.Errorf("Get() = %+v, want %+v", got, mod)
	}

	// Soft-deleted modules are invisible to lookups.
	mod.Deleted = true
	if err := store.Put(ctx, mod); err != nil {
		t.Fatalf("Put(deleted) error = %v", err)
	}
	if _, err := store.Get(ctx, "mod-1"); !errors.Is(err, content.ErrModuleNotFound) {
		t.Errorf("Get(deleted) error = %v, want ErrModuleNotFound", err)
	}
}

func TestPostgresStore_Integration_Pagination(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}
	ctx := context.Background()
	pool := startPostgres(t)

	store, err := content.NewPostgresStore(pool)
	if err != nil {
		t.Fatalf("NewPostgresStore() error = %v", err)
	}

	for i := 0; i < 5; i++ {
		err := store.SaveSummary(ctx, &content.Summary{
			ModuleID:    "mod-1",
			TOSID:       "tos-1",
			RunID:       fmt.Sprintf("run-%d", i),
			Text:        fmt.Sprintf("summary %d", i),
			GeneratedAt: time.Now(),
		})
		if err != nil {
			t.Fatalf("SaveSummary(%d) error = %v", i, err)
		}
	}

	var texts []string
	cursor := ""
	for page := 0; page < 4; page++ {
		items, next, err := store.SummariesForModule(ctx, "mod-1", 2, cursor)
		if err != nil {
			t.Fatalf("page %d error = %v", page, err)
		}
		if len(items) == 0 {
			break
		}
		for _, it := range items {
			texts = append(texts, it.Text)
		}
		cursor = next
	}

	if len(texts) != 5 {
		t.Fatalf("collected %d summaries, want 5", len(texts))
	}
	for i, text := range texts {
		if want := fmt.Sprintf("summary %d", i); text != want {
			t.Errorf("texts[%d] = %q, want %q", i, text, want)
		}
	}
}

func TestPostgresStore_Integration_QuizRoundTrip(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}
	ctx := context.Background()
	pool := startPostgres(t)

	store, err := content.NewPostgresStore(pool)
	if err != nil {
		t.Fatalf("NewPostgresStore() error = %v", err)
	}

	quiz := &content.Quiz{
		ModuleID: "mod-1",
		TOSID:    "tos-1",
		RunID:    "run-1",
		Items: []content.QuizItem{{
			Question: "Which organelle produces ATP?",
			Options:  []string{"Nucleus", "Mitochondrion", "Ribosome", "Lysosome"},
			Answer:   "Mitochondrion",
		}},
		GeneratedAt: time.Now(),
	}
	if err := store.SaveQuiz(ctx, quiz); err != nil {
		t.Fatalf("SaveQuiz() error = %v", err)
	}

	items, _, err := store.QuizzesForModule(ctx, "mod-1", 10, "")
	if err != nil {
		t.Fatalf("QuizzesForModule() error = %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("got %d quizzes, want 1", len(items))
	}
	if len(items[0].Items) != 1 || items[0].Items[0].Answer != "Mitochondrion" {
		t.Errorf("quiz items did not survive the round trip: %+v", items[0].Items)
	}
}
