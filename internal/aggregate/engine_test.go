// Fleetstats - Alliance Fleet Participation Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fleetstats

package aggregate

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/tomtom215/fleetstats/internal/config"
	"github.com/tomtom215/fleetstats/internal/database"
	"github.com/tomtom215/fleetstats/internal/identity"
	"github.com/tomtom215/fleetstats/internal/models"
	"github.com/tomtom215/fleetstats/internal/report"
)

const testAllianceID = int64(99)

var testDBSemaphore = make(chan struct{}, 1)

func setupEngine(t *testing.T) (*Engine, *database.DB) {
	t.Helper()

	testDBSemaphore <- struct{}{}
	t.Cleanup(func() {
		<-testDBSemaphore
	})

	db, err := database.New(&config.DatabaseConfig{
		Path:      ":memory:",
		MaxMemory: "1GB",
	})
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Errorf("failed to close test database: %v", err)
		}
	})

	seedEngineGraph(t, db)
	return New(db, identity.NewResolver(db), testAllianceID), db
}

// seedEngineGraph builds the fixtures both pipelines run against:
//
//	user 1 "alice": main char 100 (corp 10, in alliance 99)
//	user 2 "bob":   main char 200 (corp 20, outside any alliance)
func seedEngineGraph(t *testing.T, db *database.DB) {
	t.Helper()
	ctx := context.Background()

	allianceID := testAllianceID
	allianceName := "Test Alliance"
	if err := db.UpsertAlliance(ctx, &models.Alliance{AllianceID: allianceID, AllianceName: allianceName, Ticker: "TEST"}); err != nil {
		t.Fatalf("seeding alliance: %v", err)
	}
	if err := db.UpsertCorporation(ctx, &models.Corporation{CorporationID: 10, CorporationName: "Alpha Corp", Ticker: "ALPH", MemberCount: 1, AllianceID: &allianceID}); err != nil {
		t.Fatalf("seeding corp 10: %v", err)
	}
	if err := db.UpsertCorporation(ctx, &models.Corporation{CorporationID: 20, CorporationName: "Beta Corp", Ticker: "BETA", MemberCount: 1}); err != nil {
		t.Fatalf("seeding corp 20: %v", err)
	}

	chars := []models.Character{
		{CharacterID: 100, CharacterName: "Alice Prime", CorporationID: 10, CorporationName: "Alpha Corp", AllianceID: &allianceID, AllianceName: &allianceName},
		{CharacterID: 200, CharacterName: "Bob Main", CorporationID: 20, CorporationName: "Beta Corp"},
	}
	for i := range chars {
		if err := db.UpsertCharacter(ctx, &chars[i]); err != nil {
			t.Fatalf("seeding character %d: %v", chars[i].CharacterID, err)
		}
	}
	for _, u := range []models.User{{ID: 1, Username: "alice"}, {ID: 2, Username: "bob"}} {
		u := u
		if err := db.UpsertUser(ctx, &u); err != nil {
			t.Fatalf("seeding user %d: %v", u.ID, err)
		}
	}
	for _, o := range []models.CharacterOwnership{{CharacterID: 100, UserID: 1}, {CharacterID: 200, UserID: 2}} {
		o := o
		if err := db.UpsertOwnership(ctx, &o); err != nil {
			t.Fatalf("seeding ownership %d: %v", o.CharacterID, err)
		}
	}
	aliceMain, bobMain := int64(100), int64(200)
	for _, p := range []models.UserProfile{{UserID: 1, MainCharacterID: &aliceMain}, {UserID: 2, MainCharacterID: &bobMain}} {
		p := p
		if err := db.UpsertUserProfile(ctx, &p); err != nil {
			t.Fatalf("seeding profile %d: %v", p.UserID, err)
		}
	}
}

func userTotal(t *testing.T, db *database.DB, userID int64, month, year int) int64 {
	t.Helper()
	var total int64
	err := db.Conn().QueryRowContext(context.Background(), `
		SELECT COALESCE(SUM(total_fats), 0) FROM monthly_user_stats
		WHERE user_id = ? AND month = ? AND year = ?
	`, userID, month, year).Scan(&total)
	if err != nil {
		t.Fatalf("reading user total: %v", err)
	}
	return total
}

func corpTotal(t *testing.T, db *database.DB, corpID int64, month, year int) int64 {
	t.Helper()
	var total int64
	err := db.Conn().QueryRowContext(context.Background(), `
		SELECT COALESCE(SUM(total_fats), 0) FROM monthly_corp_stats
		WHERE corporation_id = ? AND month = ? AND year = ?
	`, corpID, month, year).Scan(&total)
	if err != nil {
		t.Fatalf("reading corp total: %v", err)
	}
	return total
}

func TestRunExternalReport(t *testing.T) {
	engine, db := setupEngine(t)
	ctx := context.Background()

	rep := &report.Report{
		Headers: []string{"Account", "Strat OPs", "Mining"},
		Rows: []report.Row{
			{"Account": "Alice Prime", "Strat OPs": "3", "Mining": "0"},
			{"Account": "Bob Main", "Strat OPs": "x", "Mining": ""},
			{"Account": "Total Stranger", "Strat OPs": "2", "Mining": "1"},
		},
	}
	mapping := map[string]string{"Strat OPs": "Strategic", "Mining": "Mining"}

	res, err := engine.RunExternalReport(ctx, rep, mapping, 2, 2026)
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if res.Processed != 1 {
		t.Errorf("expected 1 processed row, got %d", res.Processed)
	}
	if res.Unresolved != 1 {
		t.Errorf("expected 1 unresolved row, got %d", res.Unresolved)
	}
	// Bob resolved but contributed nothing: both his cells were skipped.
	if res.Skipped != 1 {
		t.Errorf("expected 1 skipped row, got %d", res.Skipped)
	}
	// Alice's zero Mining cell plus both of Bob's cells.
	if res.SkippedCells != 3 {
		t.Errorf("expected 3 skipped cells, got %d", res.SkippedCells)
	}

	if got := userTotal(t, db, 1, 2, 2026); got != 3 {
		t.Errorf("expected alice total 3, got %d", got)
	}
	if got := corpTotal(t, db, 10, 2, 2026); got != 3 {
		t.Errorf("expected corp 10 total 3, got %d", got)
	}

	// The stranger's name is queued for backfill.
	if _, err := db.GetUnknownAccount(ctx, "Total Stranger"); err != nil {
		t.Errorf("expected unknown account record: %v", err)
	}

	// The external-report source never filters by alliance: Bob is outside
	// it but would have been credited had his cells parsed.
	rep2 := &report.Report{
		Headers: []string{"Account", "Strat OPs"},
		Rows:    []report.Row{{"Account": "Bob Main", "Strat OPs": "4"}},
	}
	res2, err := engine.RunExternalReport(ctx, rep2, map[string]string{"Strat OPs": "Strategic"}, 3, 2026)
	if err != nil {
		t.Fatalf("second period run: %v", err)
	}
	if res2.Processed != 1 {
		t.Errorf("expected bob processed, got %+v", res2)
	}
	if got := userTotal(t, db, 2, 3, 2026); got != 4 {
		t.Errorf("expected bob total 4, got %d", got)
	}
}

func TestRunExternalReportIdempotent(t *testing.T) {
	engine, _ := setupEngine(t)
	ctx := context.Background()

	rep := &report.Report{
		Headers: []string{"Account", "Strat OPs"},
		Rows:    []report.Row{{"Account": "Alice Prime", "Strat OPs": "1"}},
	}
	mapping := map[string]string{"Strat OPs": "Strategic"}

	if _, err := engine.RunExternalReport(ctx, rep, mapping, 2, 2026); err != nil {
		t.Fatalf("first run: %v", err)
	}

	_, err := engine.RunExternalReport(ctx, rep, mapping, 2, 2026)
	pae, ok := IsPeriodAggregated(err)
	if !ok {
		t.Fatalf("expected PeriodAggregatedError, got %v", err)
	}
	if pae.Month != 2 || pae.Year != 2026 || pae.Source != models.SourceExternalReport {
		t.Errorf("unexpected rejection detail: %+v", pae)
	}

	// A different source for the same period is unaffected.
	if _, err := engine.RunInternalLog(ctx, 2, 2026); err != nil {
		t.Fatalf("internal-log run for same period: %v", err)
	}
}

func TestConcurrentRunsSamePeriod(t *testing.T) {
	engine, db := setupEngine(t)
	ctx := context.Background()

	rep := &report.Report{
		Headers: []string{"Account", "Strat OPs"},
		Rows:    []report.Row{{"Account": "Alice Prime", "Strat OPs": "2"}},
	}
	mapping := map[string]string{"Strat OPs": "Strategic"}

	const runners = 8
	errs := make(chan error, runners)
	var wg sync.WaitGroup
	for i := 0; i < runners; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := engine.RunExternalReport(ctx, rep, mapping, 2, 2026)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	var succeeded, rejected int
	for err := range errs {
		switch {
		case err == nil:
			succeeded++
		default:
			if _, ok := IsPeriodAggregated(err); !ok {
				t.Fatalf("unexpected error: %v", err)
			}
			rejected++
		}
	}
	if succeeded != 1 || rejected != runners-1 {
		t.Errorf("expected exactly one winner, got %d succeeded / %d rejected", succeeded, rejected)
	}
	if got := userTotal(t, db, 1, 2, 2026); got != 2 {
		t.Errorf("expected alice total 2, got %d", got)
	}
}

func TestRunInternalLog(t *testing.T) {
	engine, db := setupEngine(t)
	ctx := context.Background()

	strategic := "Strategic"
	events := []models.FatEvent{
		// Alice in-alliance, classified.
		{ID: 1, CharacterID: 100, CreatorUserID: 2, LinkType: &strategic, Created: time.Date(2026, 3, 5, 20, 0, 0, 0, time.UTC)},
		// Alice in-alliance, unclassified: lands on the sentinel type.
		{ID: 2, CharacterID: 100, CreatorUserID: 2, Created: time.Date(2026, 3, 8, 20, 0, 0, 0, time.UTC)},
		// Bob out of alliance: attendee skipped, organizer still credited.
		{ID: 3, CharacterID: 200, CreatorUserID: 1, LinkType: &strategic, Created: time.Date(2026, 3, 9, 20, 0, 0, 0, time.UTC)},
		// Character nobody has synced.
		{ID: 4, CharacterID: 999, CreatorUserID: 1, Created: time.Date(2026, 3, 10, 20, 0, 0, 0, time.UTC)},
	}
	for i := range events {
		if err := db.InsertFatEvent(ctx, &events[i]); err != nil {
			t.Fatalf("inserting event %d: %v", events[i].ID, err)
		}
	}

	res, err := engine.RunInternalLog(ctx, 3, 2026)
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if res.Processed != 2 {
		t.Errorf("expected 2 processed events, got %d", res.Processed)
	}
	if res.Skipped != 1 {
		t.Errorf("expected 1 skipped event, got %d", res.Skipped)
	}
	if res.Unresolved != 1 {
		t.Errorf("expected 1 unresolved event, got %d", res.Unresolved)
	}
	if res.CreatorCredits != 4 {
		t.Errorf("expected 4 creator credits, got %d", res.CreatorCredits)
	}

	if got := userTotal(t, db, 1, 3, 2026); got != 2 {
		t.Errorf("expected alice total 2, got %d", got)
	}
	if got := corpTotal(t, db, 10, 3, 2026); got != 2 {
		t.Errorf("expected corp 10 total 2, got %d", got)
	}
	if got := userTotal(t, db, 2, 3, 2026); got != 0 {
		t.Errorf("expected bob excluded, got %d", got)
	}

	// Both the seen link type and the sentinel exist for the period.
	types, err := db.ListFleetTypesForPeriod(ctx, models.SourceInternalLog, 3, 2026)
	if err != nil {
		t.Fatalf("listing fleet types: %v", err)
	}
	names := make(map[string]bool, len(types))
	for _, ft := range types {
		names[ft.Name] = true
	}
	if !names["Strategic"] || !names[models.UnknownFleetType] {
		t.Errorf("expected Strategic and %s fleet types, got %v", models.UnknownFleetType, names)
	}

	// Second run is rejected whole.
	_, err = engine.RunInternalLog(ctx, 3, 2026)
	if _, ok := IsPeriodAggregated(err); !ok {
		t.Fatalf("expected PeriodAggregatedError, got %v", err)
	}
	if got := userTotal(t, db, 1, 3, 2026); got != 2 {
		t.Errorf("totals changed on rejected rerun: %d", got)
	}
}

func TestQueueRunsJobs(t *testing.T) {
	engine, db := setupEngine(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	strategic := "Strategic"
	ev := models.FatEvent{ID: 1, CharacterID: 100, CreatorUserID: 2, LinkType: &strategic, Created: time.Date(2026, 3, 5, 20, 0, 0, 0, time.UTC)}
	if err := db.InsertFatEvent(ctx, &ev); err != nil {
		t.Fatalf("inserting event: %v", err)
	}

	queue := NewQueue(engine, 4)
	go func() {
		_ = queue.Serve(ctx)
	}()

	job, err := queue.EnqueueInternalLog(3, 2026)
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	deadline := time.After(10 * time.Second)
	for {
		got, ok := queue.Get(job.ID)
		if !ok {
			t.Fatal("job disappeared")
		}
		if got.Status == StatusCompleted {
			if got.Result == nil || got.Result.Processed != 1 {
				t.Fatalf("unexpected result: %+v", got.Result)
			}
			break
		}
		if got.Status == StatusFailed {
			t.Fatalf("job failed: %s", got.Error)
		}
		select {
		case <-deadline:
			t.Fatalf("job did not finish, status %s", got.Status)
		case <-time.After(20 * time.Millisecond):
		}
	}

	// Re-running the same period lands in the skipped state.
	again, err := queue.EnqueueInternalLog(3, 2026)
	if err != nil {
		t.Fatalf("re-enqueue: %v", err)
	}
	deadline = time.After(10 * time.Second)
	for {
		got, ok := queue.Get(again.ID)
		if !ok {
			t.Fatal("job disappeared")
		}
		if got.Status == StatusSkipped {
			break
		}
		if got.Status == StatusCompleted || got.Status == StatusFailed {
			t.Fatalf("expected skipped, got %s (%s)", got.Status, got.Error)
		}
		select {
		case <-deadline:
			t.Fatalf("job did not finish, status %s", got.Status)
		case <-time.After(20 * time.Millisecond):
		}
	}

	if _, ok := queue.Get("no-such-job"); ok {
		t.Error("expected lookup miss for unknown job ID")
	}
}
