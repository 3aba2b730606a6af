package db_test

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/protonpass/android-pass-sub021/internal/db"
)

func openTestDB(t *testing.T) *db.DB {
	t.Helper()

	d, err := db.Open(filepath.Join(t.TempDir(), "data", "vault.db"))
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	t.Cleanup(func() {
		db.Close(d)
	})
	if err := db.Migrate(context.Background(), d); err != nil {
		t.Fatalf("Migrate returned error: %v", err)
	}
	return d
}

func TestOpenCreatesDatabaseFile(t *testing.T) {
	d := openTestDB(t)

	if _, err := os.Stat(d.Path()); err != nil {
		t.Fatalf("expected database file to exist at %q: %v", d.Path(), err)
	}
}

func TestOpenRejectsEmptyPath(t *testing.T) {
	if _, err := db.Open(""); err == nil {
		t.Fatal("expected error for empty path")
	}
}

func TestMigrateIsRepeatable(t *testing.T) {
	d := openTestDB(t)
	if err := db.Migrate(context.Background(), d); err != nil {
		t.Fatalf("second Migrate returned error: %v", err)
	}
}

func TestInsertAndGetCredential(t *testing.T) {
	ctx := context.Background()
	d := openTestDB(t)

	id, err := db.InsertCredential(ctx, d, db.CredentialRow{
		Title:        "Proton",
		Username:     "alice",
		Websites:     []string{"https://account.proton.me", "proton.me", "mail.proton.me"},
		PackageNames: []string{"me.proton.android.mail", "me.proton.android.mail", "ch.protonmail.android"},
	})
	if err != nil {
		t.Fatalf("InsertCredential returned error: %v", err)
	}

	got, err := db.GetCredential(ctx, d, id)
	if err != nil {
		t.Fatalf("GetCredential returned error: %v", err)
	}
	if got.Title != "Proton" || got.Username != "alice" {
		t.Fatalf("unexpected credential %+v", got)
	}
	wantSites := []string{"https://account.proton.me", "proton.me", "mail.proton.me"}
	if !slices.Equal(got.Websites, wantSites) {
		t.Fatalf("Websites = %v, want %v", got.Websites, wantSites)
	}
	wantPkgs := []string{"ch.protonmail.android", "me.proton.android.mail"}
	if !slices.Equal(got.PackageNames, wantPkgs) {
		t.Fatalf("PackageNames = %v, want %v", got.PackageNames, wantPkgs)
	}
	if got.CreatedAt == "" {
		t.Fatal("expected CreatedAt to be set")
	}
}

func TestGetCredentialMissing(t *testing.T) {
	d := openTestDB(t)

	if _, err := db.GetCredential(context.Background(), d, 42); !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("expected sql.ErrNoRows, got %v", err)
	}
}

func TestListCredentialsKeepsOrder(t *testing.T) {
	ctx := context.Background()
	d := openTestDB(t)

	rows := []db.CredentialRow{
		{Username: "first", Websites: []string{"b.example.org", "a.example.org"}},
		{Username: "second", PackageNames: []string{"org.example.app"}},
		{Username: "third"},
	}
	for _, r := range rows {
		if _, err := db.InsertCredential(ctx, d, r); err != nil {
			t.Fatalf("InsertCredential returned error: %v", err)
		}
	}

	got, err := db.ListCredentials(ctx, d)
	if err != nil {
		t.Fatalf("ListCredentials returned error: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 credentials, got %d", len(got))
	}
	for i, r := range rows {
		if got[i].Username != r.Username {
			t.Errorf("row %d username = %q, want %q", i, got[i].Username, r.Username)
		}
		if !slices.Equal(got[i].Websites, r.Websites) {
			t.Errorf("row %d websites = %v, want %v", i, got[i].Websites, r.Websites)
		}
		if !slices.Equal(got[i].PackageNames, r.PackageNames) {
			t.Errorf("row %d packages = %v, want %v", i, got[i].PackageNames, r.PackageNames)
		}
	}
}

func TestDeleteCredential(t *testing.T) {
	ctx := context.Background()
	d := openTestDB(t)

	id, err := db.InsertCredential(ctx, d, db.CredentialRow{
		Username:     "bob",
		Websites:     []string{"example.org"},
		PackageNames: []string{"org.example"},
	})
	if err != nil {
		t.Fatalf("InsertCredential returned error: %v", err)
	}

	if err := db.DeleteCredential(ctx, d, id); err != nil {
		t.Fatalf("DeleteCredential returned error: %v", err)
	}
	if err := db.DeleteCredential(ctx, d, id); !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("expected sql.ErrNoRows on second delete, got %v", err)
	}

	got, err := db.ListCredentials(ctx, d)
	if err != nil {
		t.Fatalf("ListCredentials returned error: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected empty list, got %+v", got)
	}
}

func TestNilHandle(t *testing.T) {
	ctx := context.Background()
	if err := db.Migrate(ctx, nil); err == nil {
		t.Error("Migrate(nil) should fail")
	}
	if _, err := db.ListCredentials(ctx, nil); err == nil {
		t.Error("ListCredentials(nil) should fail")
	}
	if err := db.Close(nil); err != nil {
		t.Errorf("Close(nil) = %v", err)
	}
}
