package ledger

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"whale-copytrader/internal/models"
)

func rec(id, addr string) *models.TransactionRecord {
	return &models.TransactionRecord{
		ID:           id,
		WhaleName:    "whale",
		TokenSymbol:  "SYM" + id,
		TokenAddress: addr,
	}
}

func TestLedger_RecordPurchase(t *testing.T) {
	l := New([]string{"seeded"})
	fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	l.now = func() time.Time { return fixed }

	if !l.IsBought("seeded") {
		t.Error("seeded address should be bought")
	}
	if len(l.Recent()) != 0 {
		t.Error("seeding must not add display entries")
	}

	pos := l.RecordPurchase(rec("1", "AAA"))
	if !l.IsBought("AAA") {
		t.Error("AAA should be bought")
	}
	if pos.ExternalLink != "https://dextools.io/app/en/solana/pair-explorer/AAA" {
		t.Errorf("ExternalLink = %q", pos.ExternalLink)
	}
	if !pos.BoughtAt.Equal(fixed) {
		t.Errorf("BoughtAt = %v", pos.BoughtAt)
	}
	if got := l.Snapshot(); !reflect.DeepEqual(got, []string{"AAA", "seeded"}) {
		t.Errorf("Snapshot() = %v", got)
	}
}

func TestLedger_RecentIsBoundedNewestFirst(t *testing.T) {
	l := New(nil)
	for i := 1; i <= 7; i++ {
		l.RecordPurchase(rec(fmt.Sprint(i), fmt.Sprintf("addr%d", i)))
	}

	recent := l.Recent()
	if len(recent) != RecentPositionsCapacity {
		t.Fatalf("len(Recent()) = %d, want %d", len(recent), RecentPositionsCapacity)
	}
	want := []string{"addr7", "addr6", "addr5", "addr4", "addr3"}
	for i, p := range recent {
		if p.ContractAddress != want[i] {
			t.Errorf("Recent()[%d] = %s, want %s", i, p.ContractAddress, want[i])
		}
	}
	// evicted from display, still bought
	if !l.IsBought("addr1") || l.Len() != 7 {
		t.Error("evicted purchases must stay in the bought set")
	}
}

func TestRecentTransactions(t *testing.T) {
	r := NewRecentTransactions(3)

	for _, id := range []string{"1", "2", "2", "3", "4"} {
		r.Push(*rec(id, "a"+id))
	}
	if r.Push(*rec("4", "a4")) {
		t.Error("duplicate id should not be pushed")
	}

	var ids []string
	for _, it := range r.Items() {
		ids = append(ids, it.ID)
	}
	if !reflect.DeepEqual(ids, []string{"4", "3", "2"}) {
		t.Errorf("Items() = %v", ids)
	}
}

func TestProperty_Buffers(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("recent positions never exceed capacity and keep every address", prop.ForAll(
		func(n int) bool {
			l := New(nil)
			for i := 0; i < n; i++ {
				l.RecordPurchase(rec(fmt.Sprint(i), fmt.Sprintf("addr%d", i)))
			}
			recent := l.Recent()
			if len(recent) > RecentPositionsCapacity || l.Len() != n {
				return false
			}
			return n == 0 || recent[0].ContractAddress == fmt.Sprintf("addr%d", n-1)
		},
		gen.IntRange(0, 40),
	))

	properties.Property("recent transactions are bounded and unique", prop.ForAll(
		func(ids []int) bool {
			r := NewRecentTransactions(RecentTransactionsCapacity)
			for _, id := range ids {
				r.Push(*rec(fmt.Sprint(id), "a"))
			}
			items := r.Items()
			if len(items) > RecentTransactionsCapacity {
				return false
			}
			seen := make(map[string]bool)
			for _, it := range items {
				if seen[it.ID] {
					return false
				}
				seen[it.ID] = true
			}
			return true
		},
		gen.SliceOf(gen.IntRange(0, 15)),
	))

	properties.TestingRun(t)
}

func TestBlacklistFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "blacklist.txt")

	got, err := LoadBlacklist(path)
	if err != nil {
		t.Fatalf("LoadBlacklist() error = %v", err)
	}
	if len(got) != 0 {
		t.Errorf("new blacklist = %v, want empty", got)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("missing blacklist should be created: %v", err)
	}

	if err := SaveBlacklist(path, []string{"AAA", "BBB"}); err != nil {
		t.Fatalf("SaveBlacklist() error = %v", err)
	}
	data, _ := os.ReadFile(path)
	if string(data) != "AAA\nBBB\n" {
		t.Errorf("file = %q", data)
	}

	if err := os.WriteFile(path, []byte("AAA\n\n  CCC \r\nAAA\n"), 0644); err != nil {
		t.Fatal(err)
	}
	got, err = LoadBlacklist(path)
	if err != nil {
		t.Fatalf("LoadBlacklist() error = %v", err)
	}
	if !reflect.DeepEqual(got, []string{"AAA", "CCC"}) {
		t.Errorf("LoadBlacklist() = %v", got)
	}
}
