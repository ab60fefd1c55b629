package store

import (
	"log/slog"
	"path/filepath"
	"testing"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "leads.db")
	s, err := Open(path, slog.New(slog.DiscardHandler))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestUpsertPhoneFirstNonEmptyWins(t *testing.T) {
	s := openTestStore(t)

	if err := s.UpsertPhone("4043342532", "", "Acme Realty"); err != nil {
		t.Fatal(err)
	}
	if err := s.UpsertPhone("4043342532", "John Smith", "Other Company"); err != nil {
		t.Fatal(err)
	}
	if err := s.UpsertPhone("4043342532", "Jane Doe", ""); err != nil {
		t.Fatal(err)
	}

	records, err := s.AllPhones()
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 1 {
		t.Fatalf("got %d records, want 1", len(records))
	}
	rec := records[0]
	if rec.AgentName != "John Smith" {
		t.Errorf("agent = %q, want John Smith (first non-empty)", rec.AgentName)
	}
	if rec.BusinessName != "Acme Realty" {
		t.Errorf("business = %q, want Acme Realty (first non-empty)", rec.BusinessName)
	}
}

func TestUpsertOrderOnlyAffectsNames(t *testing.T) {
	a := openTestStore(t)
	b := openTestStore(t)

	a.UpsertPhone("4043342532", "John Smith", "")
	a.UpsertPhone("4043342532", "", "Acme Realty")

	b.UpsertPhone("4043342532", "", "Acme Realty")
	b.UpsertPhone("4043342532", "John Smith", "")

	ra, _ := a.AllPhones()
	rb, _ := b.AllPhones()
	if ra[0].AgentName != rb[0].AgentName || ra[0].BusinessName != rb[0].BusinessName {
		t.Errorf("order changed result: %+v vs %+v", ra[0], rb[0])
	}
}

func TestAddAddressIdempotent(t *testing.T) {
	s := openTestStore(t)
	s.UpsertPhone("4043342532", "", "")

	added, err := s.AddAddress("4043342532", "123 Main ST")
	if err != nil {
		t.Fatal(err)
	}
	if !added {
		t.Error("first add should report new")
	}

	added, err = s.AddAddress("4043342532", "123 Main ST")
	if err != nil {
		t.Fatal(err)
	}
	if added {
		t.Error("second add should report already present")
	}

	n, err := s.UnitsCount("4043342532")
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("units = %d, want 1", n)
	}
}

func TestAddAddressEmptyIgnored(t *testing.T) {
	s := openTestStore(t)
	added, err := s.AddAddress("4043342532", "")
	if err != nil {
		t.Fatal(err)
	}
	if added {
		t.Error("empty address should not be stored")
	}
}

func TestUnitsCountGrowsWithDistinctAddresses(t *testing.T) {
	s := openTestStore(t)
	s.UpsertPhone("4043342532", "", "Acme Realty")

	for _, addr := range []string{"123 Main ST", "456 Oak AVE", "789 Pine RD"} {
		if _, err := s.AddAddress("4043342532", addr); err != nil {
			t.Fatal(err)
		}
	}

	n, err := s.UnitsCount("4043342532")
	if err != nil {
		t.Fatal(err)
	}
	if n != 3 {
		t.Errorf("units = %d, want 3", n)
	}
}

func TestCrawlStateSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "leads.db")
	logger := slog.New(slog.DiscardHandler)

	s, err := Open(path, logger)
	if err != nil {
		t.Fatal(err)
	}

	urls := []string{
		"https://example.com/p/1",
		"https://example.com/p/2/",
		"https://example.com/p/3?utm_source=x",
		"https://example.com/p/4",
		"https://example.com/p/5",
	}
	for _, u := range urls {
		if err := s.MarkURLCrawled(u); err != nil {
			t.Fatal(err)
		}
	}
	s.UpsertPhone("4043342532", "John Smith", "Acme Realty")
	s.AddAddress("4043342532", "123 Main ST")
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}

	s, err = Open(path, logger)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	for _, u := range urls {
		crawled, err := s.IsURLCrawled(u)
		if err != nil {
			t.Fatal(err)
		}
		if !crawled {
			t.Errorf("%s lost crawl state across reopen", u)
		}
	}

	// Canonical forms collapse, so query/slash variants count as crawled too.
	if crawled, _ := s.IsURLCrawled("https://example.com/p/2?ref=abc"); !crawled {
		t.Error("canonical variant should be crawled")
	}
	if crawled, _ := s.IsURLCrawled("https://example.com/p/99"); crawled {
		t.Error("unseen URL reported crawled")
	}

	n, err := s.UniquePhonesCount()
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("phones = %d, want 1", n)
	}
	records, err := s.AllPhones()
	if err != nil {
		t.Fatal(err)
	}
	if records[0].AgentName != "John Smith" || records[0].Units != 1 {
		t.Errorf("record lost data across reopen: %+v", records[0])
	}
}

func TestAllPhonesSorted(t *testing.T) {
	s := openTestStore(t)
	for _, p := range []string{"7705551234", "4043342532", "6785550000"} {
		s.UpsertPhone(p, "", "")
	}
	s.AddAddress("4043342532", "456 Oak AVE")
	s.AddAddress("4043342532", "123 Main ST")

	records, err := s.AllPhones()
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 3 {
		t.Fatalf("got %d records, want 3", len(records))
	}
	for i := 1; i < len(records); i++ {
		if records[i-1].Phone > records[i].Phone {
			t.Errorf("records out of order: %s before %s", records[i-1].Phone, records[i].Phone)
		}
	}
	if records[0].Addresses[0] != "123 Main ST" {
		t.Errorf("addresses not sorted: %v", records[0].Addresses)
	}
}

func TestMarkURLCrawledIdempotent(t *testing.T) {
	s := openTestStore(t)
	for i := 0; i < 3; i++ {
		if err := s.MarkURLCrawled("https://example.com/p/1"); err != nil {
			t.Fatal(err)
		}
	}
	crawled, err := s.IsURLCrawled("https://example.com/p/1")
	if err != nil {
		t.Fatal(err)
	}
	if !crawled {
		t.Error("url should be crawled")
	}
}

func TestManagerNameMigration(t *testing.T) {
	path := filepath.Join(t.TempDir(), "old.db")
	logger := slog.New(slog.DiscardHandler)

	// Build a file with the pre-rename schema by hand.
	s, err := Open(path, logger)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.db.Exec(`ALTER TABLE phones ADD COLUMN manager_name TEXT NOT NULL DEFAULT ''`); err != nil {
		t.Fatal(err)
	}
	if _, err := s.db.Exec(`INSERT INTO phones (phone, agent_name, business_name, manager_name) VALUES ('4043342532', '', '', 'Old Manager')`); err != nil {
		t.Fatal(err)
	}
	s.Close()

	s, err = Open(path, logger)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	records, err := s.AllPhones()
	if err != nil {
		t.Fatal(err)
	}
	if records[0].AgentName != "Old Manager" {
		t.Errorf("agent = %q, want migrated manager name", records[0].AgentName)
	}
}
