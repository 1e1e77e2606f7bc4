package data

import (
	"context"
	"strings"
	"testing"
)

func TestMessagesCreate(t *testing.T) {
	c := setupDB(t)
	defer func() { _ = c.Close(context.Background()) }()

	msgs := NewMessagesStore(c.MessagesCollection())

	saved, err := msgs.Create(context.Background(), MessageInput{
		Email:   "a@b.com",
		Type:    "contact",
		Message: "hi",
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if saved.Created == "" {
		t.Fatal("created stamp missing")
	}
	if !strings.HasPrefix(saved.ID, "a@b.com_") {
		t.Fatalf("unexpected key: %q", saved.ID)
	}
	if strings.ContainsAny(strings.TrimPrefix(saved.ID, "a@b.com_"), " \t") {
		t.Fatalf("key timestamp contains whitespace: %q", saved.ID)
	}
}

func TestMessagesCreate_RejectsIncomplete(t *testing.T) {
	// validation happens before any collection access
	msgs := NewMessagesStore(nil)

	cases := []MessageInput{
		{Type: "contact", Message: "hi"},
		{Email: "a@b.com", Message: "hi"},
		{Email: "a@b.com", Type: "contact"},
	}
	for _, in := range cases {
		if _, err := msgs.Create(context.Background(), in); err == nil {
			t.Fatalf("expected validation error for %+v", in)
		}
	}
}

func TestLogsCreate(t *testing.T) {
	c := setupDB(t)
	defer func() { _ = c.Close(context.Background()) }()

	logs := NewLogsStore(c.LogsCollection())

	id, err := logs.Create(context.Background(), map[string]any{
		"message": "deploy finished",
		"version": "1.4.2",
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if id == "" {
		t.Fatal("expected a document id")
	}

	// same-tick logs must not collide
	id2, err := logs.Create(context.Background(), map[string]any{"message": "deploy finished"})
	if err != nil {
		t.Fatalf("second Create failed: %v", err)
	}
	if id == id2 {
		t.Fatalf("log keys collided: %q", id)
	}
}

func TestLogsCreate_RequiresMessage(t *testing.T) {
	logs := NewLogsStore(nil)
	if _, err := logs.Create(context.Background(), map[string]any{"level": "info"}); err == nil {
		t.Fatal("expected validation error for missing message")
	}
}

func TestScoresCreate(t *testing.T) {
	c := setupDB(t)
	defer func() { _ = c.Close(context.Background()) }()

	scores := NewScoresStore(c.ScoresCollection())

	saved, err := scores.Create(context.Background(), ScoreInput{
		Name:  "ada",
		Score: float64(42),
		Email: "a@b.com",
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if !strings.HasPrefix(saved.ID, "a@b.com_") || !strings.HasSuffix(saved.ID, "_42") {
		t.Fatalf("unexpected score key: %q", saved.ID)
	}
	if saved.Created == "" {
		t.Fatal("created stamp missing")
	}
}

func TestScoresCreate_Validation(t *testing.T) {
	scores := NewScoresStore(nil)

	if _, err := scores.Create(context.Background(), ScoreInput{Score: float64(1)}); err == nil {
		t.Fatal("expected validation error for missing name")
	}
	if _, err := scores.Create(context.Background(), ScoreInput{Name: "ada", Score: "high"}); err == nil {
		t.Fatal("expected validation error for non-number score")
	}
}
