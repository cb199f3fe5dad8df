// Fleetstats - Alliance Fleet Participation Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fleetstats

package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tomtom215/fleetstats/internal/config"
	"github.com/tomtom215/fleetstats/internal/models"
)

// testDBSemaphore serializes DuckDB-backed tests. Concurrent CGO calls from
// parallel tests can hang under CI resource pressure, so only one test holds
// an active connection at a time.
var testDBSemaphore = make(chan struct{}, 1)

// setupTestDB creates an in-memory test database. The semaphore is held for
// the entire test lifecycle and released via t.Cleanup.
func setupTestDB(t *testing.T) *DB {
	t.Helper()

	testDBSemaphore <- struct{}{}
	t.Cleanup(func() {
		<-testDBSemaphore
	})

	db, err := New(&config.DatabaseConfig{
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
	return db
}

// seedIdentityGraph inserts a small identity snapshot:
//
//	alliance 99 "Test Alliance"
//	corp 10 "Alpha Corp" (in alliance), corp 20 "Beta Corp" (no alliance)
//	user 1 "alice" with main char 100 "Alice Prime" (corp 10) and alt 101
//	user 2 "bob" with main char 200 "Bob Main" (corp 20)
func seedIdentityGraph(t *testing.T, db *DB) {
	t.Helper()
	ctx := context.Background()

	allianceID := int64(99)
	allianceName := "Test Alliance"
	if err := db.UpsertAlliance(ctx, &models.Alliance{AllianceID: allianceID, AllianceName: allianceName, Ticker: "TEST"}); err != nil {
		t.Fatalf("seeding alliance: %v", err)
	}
	if err := db.UpsertCorporation(ctx, &models.Corporation{CorporationID: 10, CorporationName: "Alpha Corp", Ticker: "ALPH", MemberCount: 2, AllianceID: &allianceID}); err != nil {
		t.Fatalf("seeding corp 10: %v", err)
	}
	if err := db.UpsertCorporation(ctx, &models.Corporation{CorporationID: 20, CorporationName: "Beta Corp", Ticker: "BETA", MemberCount: 1}); err != nil {
		t.Fatalf("seeding corp 20: %v", err)
	}

	chars := []models.Character{
		{CharacterID: 100, CharacterName: "Alice Prime", CorporationID: 10, CorporationName: "Alpha Corp", AllianceID: &allianceID, AllianceName: &allianceName},
		{CharacterID: 101, CharacterName: "Alice Alt", CorporationID: 10, CorporationName: "Alpha Corp", AllianceID: &allianceID, AllianceName: &allianceName},
		{CharacterID: 200, CharacterName: "Bob Main", CorporationID: 20, CorporationName: "Beta Corp"},
	}
	for i := range chars {
		if err := db.UpsertCharacter(ctx, &chars[i]); err != nil {
			t.Fatalf("seeding character %d: %v", chars[i].CharacterID, err)
		}
	}

	users := []models.User{{ID: 1, Username: "alice"}, {ID: 2, Username: "bob"}}
	for i := range users {
		if err := db.UpsertUser(ctx, &users[i]); err != nil {
			t.Fatalf("seeding user %d: %v", users[i].ID, err)
		}
	}

	ownerships := []models.CharacterOwnership{
		{CharacterID: 100, UserID: 1},
		{CharacterID: 101, UserID: 1},
		{CharacterID: 200, UserID: 2},
	}
	for i := range ownerships {
		if err := db.UpsertOwnership(ctx, &ownerships[i]); err != nil {
			t.Fatalf("seeding ownership %d: %v", ownerships[i].CharacterID, err)
		}
	}

	aliceMain := int64(100)
	bobMain := int64(200)
	profiles := []models.UserProfile{
		{UserID: 1, MainCharacterID: &aliceMain},
		{UserID: 2, MainCharacterID: &bobMain},
	}
	for i := range profiles {
		if err := db.UpsertUserProfile(ctx, &profiles[i]); err != nil {
			t.Fatalf("seeding profile %d: %v", profiles[i].UserID, err)
		}
	}
}

func TestGetOrCreateFleetType(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	ft, err := db.GetOrCreateFleetType(ctx, "Strategic", models.SourceInternalLog, 3, 2026)
	if err != nil {
		t.Fatalf("first create: %v", err)
	}
	if ft.ID == 0 {
		t.Error("expected a non-zero fleet type ID")
	}

	again, err := db.GetOrCreateFleetType(ctx, "Strategic", models.SourceInternalLog, 3, 2026)
	if err != nil {
		t.Fatalf("second create: %v", err)
	}
	if again.ID != ft.ID {
		t.Errorf("expected idempotent create, got IDs %d and %d", ft.ID, again.ID)
	}

	// The same name under the other source is a distinct row.
	other, err := db.GetOrCreateFleetType(ctx, "Strategic", models.SourceExternalReport, 3, 2026)
	if err != nil {
		t.Fatalf("other source create: %v", err)
	}
	if other.ID == ft.ID {
		t.Error("expected distinct fleet types per source")
	}

	types, err := db.ListFleetTypesForPeriod(ctx, models.SourceInternalLog, 3, 2026)
	if err != nil {
		t.Fatalf("listing fleet types: %v", err)
	}
	if len(types) != 1 {
		t.Errorf("expected 1 internal-log fleet type, got %d", len(types))
	}
}

func TestIncrementUserAndCorpStats(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	ft, err := db.GetOrCreateFleetType(ctx, "Mining", models.SourceExternalReport, 2, 2026)
	if err != nil {
		t.Fatalf("fleet type: %v", err)
	}

	if err := db.IncrementUserAndCorpStats(ctx, 1, 10, 2, 2026, ft.ID, 3); err != nil {
		t.Fatalf("first increment: %v", err)
	}
	if err := db.IncrementUserAndCorpStats(ctx, 1, 10, 2, 2026, ft.ID, 2); err != nil {
		t.Fatalf("second increment: %v", err)
	}

	var userTotal, corpTotal int64
	if err := db.Conn().QueryRowContext(ctx,
		`SELECT total_fats FROM monthly_user_stats WHERE user_id = 1 AND fleet_type_id = ?`, ft.ID,
	).Scan(&userTotal); err != nil {
		t.Fatalf("reading user total: %v", err)
	}
	if err := db.Conn().QueryRowContext(ctx,
		`SELECT total_fats FROM monthly_corp_stats WHERE corporation_id = 10 AND fleet_type_id = ?`, ft.ID,
	).Scan(&corpTotal); err != nil {
		t.Fatalf("reading corp total: %v", err)
	}
	if userTotal != 5 || corpTotal != 5 {
		t.Errorf("expected paired totals 5/5, got user %d corp %d", userTotal, corpTotal)
	}

	if err := db.IncrementUserAndCorpStats(ctx, 1, 10, 2, 2026, ft.ID, 0); err == nil {
		t.Error("expected error for non-positive delta")
	}
}

func TestPeriodHasStats(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	has, err := db.PeriodHasStats(ctx, 2, 2026, models.SourceExternalReport)
	if err != nil {
		t.Fatalf("empty check: %v", err)
	}
	if has {
		t.Error("expected no stats for empty period")
	}

	ft, err := db.GetOrCreateFleetType(ctx, "PvP", models.SourceExternalReport, 2, 2026)
	if err != nil {
		t.Fatalf("fleet type: %v", err)
	}
	if err := db.IncrementUserAndCorpStats(ctx, 1, 10, 2, 2026, ft.ID, 1); err != nil {
		t.Fatalf("increment: %v", err)
	}

	has, err = db.PeriodHasStats(ctx, 2, 2026, models.SourceExternalReport)
	if err != nil {
		t.Fatalf("populated check: %v", err)
	}
	if !has {
		t.Error("expected stats after increment")
	}

	// The other source stays clean.
	has, err = db.PeriodHasStats(ctx, 2, 2026, models.SourceInternalLog)
	if err != nil {
		t.Fatalf("other source check: %v", err)
	}
	if has {
		t.Error("expected no internal-log stats")
	}
}

func TestClearPeriod(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	for _, source := range []string{models.SourceInternalLog, models.SourceExternalReport} {
		ft, err := db.GetOrCreateFleetType(ctx, "Home Defense", source, 4, 2026)
		if err != nil {
			t.Fatalf("fleet type for %s: %v", source, err)
		}
		if err := db.IncrementUserAndCorpStats(ctx, 1, 10, 4, 2026, ft.ID, 1); err != nil {
			t.Fatalf("increment for %s: %v", source, err)
		}
		if err := db.IncrementCreatorStat(ctx, 2, 4, 2026, ft.ID, 1); err != nil {
			t.Fatalf("creator increment for %s: %v", source, err)
		}
	}

	// An adjacent period must survive the clear.
	keepFT, err := db.GetOrCreateFleetType(ctx, "Home Defense", models.SourceInternalLog, 5, 2026)
	if err != nil {
		t.Fatalf("adjacent fleet type: %v", err)
	}
	if err := db.IncrementUserAndCorpStats(ctx, 1, 10, 5, 2026, keepFT.ID, 1); err != nil {
		t.Fatalf("adjacent increment: %v", err)
	}

	if err := db.ClearPeriod(ctx, 4, 2026); err != nil {
		t.Fatalf("clearing period: %v", err)
	}

	for _, source := range []string{models.SourceInternalLog, models.SourceExternalReport} {
		has, err := db.PeriodHasStats(ctx, 4, 2026, source)
		if err != nil {
			t.Fatalf("post-clear check for %s: %v", source, err)
		}
		if has {
			t.Errorf("expected no %s stats after clear", source)
		}
	}

	has, err := db.PeriodHasStats(ctx, 5, 2026, models.SourceInternalLog)
	if err != nil {
		t.Fatalf("adjacent period check: %v", err)
	}
	if !has {
		t.Error("adjacent period was cleared")
	}
}

func TestUnknownAccounts(t *testing.T) {
	db := setupTestDB(t)
	seedIdentityGraph(t, db)
	ctx := context.Background()

	if err := db.RecordUnknownAccount(ctx, "Mystery Pilot"); err != nil {
		t.Fatalf("first record: %v", err)
	}
	// Recording again is a no-op, not an error.
	if err := db.RecordUnknownAccount(ctx, "Mystery Pilot"); err != nil {
		t.Fatalf("second record: %v", err)
	}

	acc, err := db.GetUnknownAccount(ctx, "Mystery Pilot")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if acc.UserID != nil {
		t.Error("expected unmapped account")
	}

	if err := db.SetUnknownAccountUser(ctx, "Mystery Pilot", 1); err != nil {
		t.Fatalf("backfill: %v", err)
	}
	acc, err = db.GetUnknownAccount(ctx, "Mystery Pilot")
	if err != nil {
		t.Fatalf("post-backfill lookup: %v", err)
	}
	if acc.UserID == nil || *acc.UserID != 1 {
		t.Errorf("expected user 1, got %v", acc.UserID)
	}

	if err := db.SetUnknownAccountUser(ctx, "No Such Account", 1); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for absent account, got %v", err)
	}

	accounts, err := db.ListUnknownAccounts(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(accounts) != 1 {
		t.Errorf("expected 1 unknown account, got %d", len(accounts))
	}
}

func TestColumnMappings(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	strategic := "Strategic"
	if err := db.SaveColumnMapping(ctx, "Strat OPs", &strategic); err != nil {
		t.Fatalf("saving mapping: %v", err)
	}
	if err := db.SaveColumnMapping(ctx, "Unclear Header", nil); err != nil {
		t.Fatalf("saving undecided mapping: %v", err)
	}
	if err := db.AddIgnoredColumn(ctx, "Notes"); err != nil {
		t.Fatalf("ignoring column: %v", err)
	}
	// Re-ignoring must not fail.
	if err := db.AddIgnoredColumn(ctx, "Notes"); err != nil {
		t.Fatalf("re-ignoring column: %v", err)
	}

	mappings, err := db.GetColumnMappings(ctx)
	if err != nil {
		t.Fatalf("loading mappings: %v", err)
	}
	if got := mappings["Strat OPs"]; got == nil || *got != "Strategic" {
		t.Errorf("expected Strat OPs -> Strategic, got %v", got)
	}
	if got, ok := mappings["Unclear Header"]; !ok || got != nil {
		t.Errorf("expected undecided mapping recorded as nil, got %v (present %v)", got, ok)
	}

	ignored, err := db.GetIgnoredColumns(ctx)
	if err != nil {
		t.Fatalf("loading ignored: %v", err)
	}
	if !ignored["Notes"] {
		t.Error("expected Notes to be ignored")
	}

	// Overwriting a mapping replaces it.
	mining := "Mining"
	if err := db.SaveColumnMapping(ctx, "Strat OPs", &mining); err != nil {
		t.Fatalf("overwriting mapping: %v", err)
	}
	mappings, err = db.GetColumnMappings(ctx)
	if err != nil {
		t.Fatalf("reloading mappings: %v", err)
	}
	if got := mappings["Strat OPs"]; got == nil || *got != "Mining" {
		t.Errorf("expected overwritten mapping Mining, got %v", got)
	}
}

func TestFatEvents(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	strategic := "Strategic"
	events := []models.FatEvent{
		{ID: 1, CharacterID: 100, CreatorUserID: 2, LinkType: &strategic, Created: time.Date(2026, 3, 5, 20, 0, 0, 0, time.UTC)},
		{ID: 2, CharacterID: 200, CreatorUserID: 2, Created: time.Date(2026, 3, 6, 21, 0, 0, 0, time.UTC)},
		{ID: 3, CharacterID: 100, CreatorUserID: 1, LinkType: &strategic, Created: time.Date(2026, 4, 1, 19, 0, 0, 0, time.UTC)},
	}
	for i := range events {
		if err := db.InsertFatEvent(ctx, &events[i]); err != nil {
			t.Fatalf("inserting event %d: %v", events[i].ID, err)
		}
	}

	got, err := db.ListFatEventsForPeriod(ctx, 3, 2026)
	if err != nil {
		t.Fatalf("listing events: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 March events, got %d", len(got))
	}
	if got[0].LinkType == nil || *got[0].LinkType != "Strategic" {
		t.Errorf("expected link type Strategic, got %v", got[0].LinkType)
	}
	if got[1].LinkType != nil {
		t.Errorf("expected nil link type, got %v", *got[1].LinkType)
	}

	types, err := db.DistinctLinkTypesForPeriod(ctx, 3, 2026)
	if err != nil {
		t.Fatalf("listing link types: %v", err)
	}
	if len(types) != 1 || types[0] != "Strategic" {
		t.Errorf("expected [Strategic], got %v", types)
	}
}

func TestCountActiveMains(t *testing.T) {
	db := setupTestDB(t)
	seedIdentityGraph(t, db)
	ctx := context.Background()

	// Corp 10 hosts only Alice's main; her alt must not count.
	count, err := db.CountActiveMains(ctx, 10)
	if err != nil {
		t.Fatalf("counting mains: %v", err)
	}
	if count != 1 {
		t.Errorf("expected 1 active main in corp 10, got %d", count)
	}

	count, err = db.CountActiveMains(ctx, 20)
	if err != nil {
		t.Fatalf("counting corp 20 mains: %v", err)
	}
	if count != 1 {
		t.Errorf("expected 1 active main in corp 20, got %d", count)
	}

	count, err = db.CountActiveMains(ctx, 999)
	if err != nil {
		t.Fatalf("counting empty corp mains: %v", err)
	}
	if count != 0 {
		t.Errorf("expected 0 mains in unknown corp, got %d", count)
	}
}

func TestFleetTypeLimits(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	if err := db.SetFleetTypeLimit(ctx, "Strategic", 20); err != nil {
		t.Fatalf("setting limit: %v", err)
	}
	if err := db.SetFleetTypeLimit(ctx, "Strategic", 25); err != nil {
		t.Fatalf("updating limit: %v", err)
	}

	limits, err := db.GetFleetTypeLimits(ctx)
	if err != nil {
		t.Fatalf("loading limits: %v", err)
	}
	if limits["Strategic"] != 25 {
		t.Errorf("expected updated limit 25, got %d", limits["Strategic"])
	}
}
