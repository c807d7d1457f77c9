package db

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/deeply-app/deeply/internal/model"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	d, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { d.Close() })
	return d
}

func seedBoard(t *testing.T, d *DB) model.Project {
	t.Helper()
	now := time.Now()
	p := model.Project{ID: uuid.New().String(), Name: "Board", CreatedAt: now}
	for i, name := range []string{"Todo", "Done"} {
		p.Phases = append(p.Phases, model.Phase{
			ID: uuid.New().String(), ProjectID: p.ID, Name: name, Ord: i, CreatedAt: now,
		})
	}
	if err := d.CreateProject(context.Background(), p); err != nil {
		t.Fatalf("seed: %v", err)
	}
	return p
}

func TestPhaseLockWhileCardsExist(t *testing.T) {
	d := testDB(t)
	p := seedBoard(t, d)
	ctx := context.Background()

	card := model.Card{
		ID: uuid.New().String(), ProjectID: p.ID, PhaseID: p.Phases[0].ID,
		Title: "Blocker", CreatedAt: time.Now(),
	}
	if err := d.CreateCard(ctx, card); err != nil {
		t.Fatalf("create card: %v", err)
	}

	newPhases := []model.Phase{{
		ID: uuid.New().String(), ProjectID: p.ID, Name: "Only", Ord: 0, CreatedAt: time.Now(),
	}}
	if err := d.ReplacePhases(ctx, p.ID, newPhases); err != ErrPhaseLocked {
		t.Fatalf("expected ErrPhaseLocked, got %v", err)
	}

	// After the card is gone the swap goes through
	if err := d.DeleteCard(ctx, card.ID); err != nil {
		t.Fatalf("delete card: %v", err)
	}
	if err := d.ReplacePhases(ctx, p.ID, newPhases); err != nil {
		t.Fatalf("swap after delete: %v", err)
	}

	phases, _ := d.ListPhases(ctx, p.ID)
	if len(phases) != 1 || phases[0].Name != "Only" {
		t.Errorf("unexpected phases: %+v", phases)
	}
}

func TestCardLinkSetsReplaced(t *testing.T) {
	d := testDB(t)
	p := seedBoard(t, d)
	ctx := context.Background()
	now := time.Now()

	tagA := model.Tag{ID: uuid.New().String(), Name: "a", Color: "#111", CreatedAt: now}
	tagB := model.Tag{ID: uuid.New().String(), Name: "b", Color: "#222", CreatedAt: now}
	d.CreateTag(ctx, tagA)
	d.CreateTag(ctx, tagB)

	person := model.Person{
		ID: uuid.New().String(), Name: "Ana", Email: "ana@x.com",
		PasswordHash: "x", CreatedAt: now,
	}
	if err := d.CreatePerson(ctx, person); err != nil {
		t.Fatalf("create person: %v", err)
	}

	card := model.Card{
		ID: uuid.New().String(), ProjectID: p.ID, PhaseID: p.Phases[0].ID,
		Title: "Linked", Tags: []model.Tag{tagA}, Assignees: []model.Person{person},
		CreatedAt: now,
	}
	if err := d.CreateCard(ctx, card); err != nil {
		t.Fatalf("create card: %v", err)
	}

	got, err := d.GetCard(ctx, card.ID)
	if err != nil {
		t.Fatalf("get card: %v", err)
	}
	if len(got.Tags) != 1 || got.Tags[0].Name != "a" {
		t.Errorf("tags: %+v", got.Tags)
	}
	if len(got.Assignees) != 1 || got.Assignees[0].Email != "ana@x.com" {
		t.Errorf("assignees: %+v", got.Assignees)
	}

	// Update swaps the whole tag set and drops the assignee
	got.Tags = []model.Tag{tagB}
	got.Assignees = nil
	if err := d.UpdateCard(ctx, got); err != nil {
		t.Fatalf("update card: %v", err)
	}

	got, _ = d.GetCard(ctx, card.ID)
	if len(got.Tags) != 1 || got.Tags[0].Name != "b" {
		t.Errorf("tag set not replaced: %+v", got.Tags)
	}
	if len(got.Assignees) != 0 {
		t.Errorf("assignees not cleared: %+v", got.Assignees)
	}
}

func TestProjectAccess(t *testing.T) {
	d := testDB(t)
	p := seedBoard(t, d)
	ctx := context.Background()
	now := time.Now()

	member := model.Person{
		ID: uuid.New().String(), Name: "M", Email: "m@x.com", PasswordHash: "x", CreatedAt: now,
	}
	outsider := model.Person{
		ID: uuid.New().String(), Name: "O", Email: "o@x.com", PasswordHash: "x", CreatedAt: now,
	}
	admin := model.Person{
		ID: uuid.New().String(), Name: "A", Email: "a@x.com", PasswordHash: "x",
		Admin: true, CreatedAt: now,
	}
	for _, pr := range []model.Person{member, outsider, admin} {
		if err := d.CreatePerson(ctx, pr); err != nil {
			t.Fatalf("create person: %v", err)
		}
	}

	if err := d.GrantProject(ctx, p.ID, member.ID); err != nil {
		t.Fatalf("grant: %v", err)
	}

	for _, tc := range []struct {
		who  model.Person
		want bool
	}{{member, true}, {outsider, false}, {admin, true}} {
		ok, err := d.HasProjectAccess(ctx, p.ID, tc.who)
		if err != nil {
			t.Fatalf("access check: %v", err)
		}
		if ok != tc.want {
			t.Errorf("%s access = %v, want %v", tc.who.Name, ok, tc.want)
		}
	}

	visible, _ := d.ListProjectsFor(ctx, outsider)
	if len(visible) != 0 {
		t.Errorf("outsider sees %d projects", len(visible))
	}

	d.RevokeProject(ctx, p.ID, member.ID)
	ok, _ := d.HasProjectAccess(ctx, p.ID, member)
	if ok {
		t.Error("revoked member still has access")
	}
}

func TestSessions(t *testing.T) {
	d := testDB(t)
	ctx := context.Background()
	now := time.Now()

	person := model.Person{
		ID: uuid.New().String(), Name: "S", Email: "s@x.com", PasswordHash: "x", CreatedAt: now,
	}
	if err := d.CreatePerson(ctx, person); err != nil {
		t.Fatal(err)
	}

	live := model.Session{
		ID: uuid.New().String(), PersonID: person.ID, Token: "live",
		ExpiresAt: now.Add(time.Hour), CreatedAt: now,
	}
	dead := model.Session{
		ID: uuid.New().String(), PersonID: person.ID, Token: "dead",
		ExpiresAt: now.Add(-time.Hour), CreatedAt: now,
	}
	d.CreateSession(ctx, live)
	d.CreateSession(ctx, dead)

	got, err := d.GetSession(ctx, "live")
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	if got.IsExpired() {
		t.Error("live session reported expired")
	}

	got, err = d.GetSession(ctx, "dead")
	if err != nil {
		t.Fatalf("get dead session: %v", err)
	}
	if !got.IsExpired() {
		t.Error("dead session reported live")
	}

	if err := d.PurgeExpiredSessions(ctx, now); err != nil {
		t.Fatalf("purge: %v", err)
	}
	if _, err := d.GetSession(ctx, "dead"); err != ErrNotFound {
		t.Errorf("dead session should be purged, got %v", err)
	}
	if _, err := d.GetSession(ctx, "live"); err != nil {
		t.Errorf("live session should survive purge, got %v", err)
	}
}

func TestKudosMonthlyCount(t *testing.T) {
	d := testDB(t)
	ctx := context.Background()
	now := time.Now()

	sender := model.Person{ID: uuid.New().String(), Name: "S", Email: "s@x.com", PasswordHash: "x", CreatedAt: now}
	receiver := model.Person{ID: uuid.New().String(), Name: "R", Email: "r@x.com", PasswordHash: "x", CreatedAt: now}
	d.CreatePerson(ctx, sender)
	d.CreatePerson(ctx, receiver)

	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		k := model.Kudo{
			ID: uuid.New().String(), SenderID: sender.ID, ReceiverID: receiver.ID,
			Message: "nice", CreatedAt: now,
		}
		if err := d.CreateKudo(ctx, k); err != nil {
			t.Fatalf("create kudo: %v", err)
		}
	}

	n, err := d.CountKudosSentSince(ctx, sender.ID, monthStart)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 3 {
		t.Errorf("expected 3 kudos this month, got %d", n)
	}

	n, _ = d.CountKudosSentSince(ctx, receiver.ID, monthStart)
	if n != 0 {
		t.Errorf("receiver sent nothing, got %d", n)
	}
}
