package seen

import (
	"context"
	"testing"

	"github.com/yungbote/gamerec-backend/internal/data/repos/testutil"
	"github.com/yungbote/gamerec-backend/internal/platform/dbctx"
)

func TestDailySeenRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	dbc := dbctx.WithTx(ctx, tx)
	repo := NewDailySeenRepo(db, testutil.Logger(t))
	u := testutil.SeedUser(t, ctx, tx)

	inserted, err := repo.Insert(dbc, u.ID, 5, "2026-04-01")
	if err != nil || !inserted {
		t.Fatalf("Insert: want inserted, got inserted=%v err=%v", inserted, err)
	}
	inserted, err = repo.Insert(dbc, u.ID, 5, "2026-04-01")
	if err != nil {
		t.Fatalf("Insert repeat: %v", err)
	}
	if inserted {
		t.Fatalf("Insert repeat: want already recorded")
	}
	if _, err := repo.Insert(dbc, u.ID, 6, "2026-04-01"); err != nil {
		t.Fatalf("Insert second game: %v", err)
	}
	if _, err := repo.Insert(dbc, u.ID, 5, "2026-03-20"); err != nil {
		t.Fatalf("Insert older day: %v", err)
	}

	n, err := repo.CountForDate(dbc, u.ID, "2026-04-01")
	if err != nil {
		t.Fatalf("CountForDate: %v", err)
	}
	if n != 2 {
		t.Fatalf("CountForDate: want=2 got=%d", n)
	}

	ids, err := repo.ListGameIDsForDate(dbc, u.ID, "2026-04-01")
	if err != nil {
		t.Fatalf("ListGameIDsForDate: %v", err)
	}
	if len(ids) != 2 || ids[0] != 5 || ids[1] != 6 {
		t.Fatalf("ListGameIDsForDate: want=[5 6] got=%v", ids)
	}

	deleted, err := repo.DeleteOlderThan(dbc, "2026-03-25")
	if err != nil {
		t.Fatalf("DeleteOlderThan: %v", err)
	}
	if deleted != 1 {
		t.Fatalf("DeleteOlderThan: want=1 got=%d", deleted)
	}
	n, _ = repo.CountForDate(dbc, u.ID, "2026-03-20")
	if n != 0 {
		t.Fatalf("CountForDate after purge: want=0 got=%d", n)
	}
}
