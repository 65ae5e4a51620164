package session_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/caffeine-club/biller/internal/catalog"
	"github.com/caffeine-club/biller/internal/session"
)

func tempSnapshot(t *testing.T) *session.FileSnapshot {
	t.Helper()
	return session.NewFileSnapshot(filepath.Join(t.TempDir(), "tables.json"))
}

func TestFileSnapshot_RoundTrip(t *testing.T) {
	snap := tempSnapshot(t)

	in := []session.Table{
		{ID: 1, IsOccupied: true, Items: []catalog.CartLine{
			{ItemID: 3, Name: "Latte", Category: "Coffee", Price: dec(150), Quantity: 2},
		}, Total: dec(300)},
		{ID: 2, Items: []catalog.CartLine{}, Total: decimal.Zero},
	}
	if err := snap.Save(in); err != nil {
		t.Fatalf("Save: %v", err)
	}

	out, err := snap.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("tables: got %d, want 2", len(out))
	}
	if !out[0].IsOccupied || !out[0].Total.Equal(dec(300)) {
		t.Errorf("table 1: got %+v", out[0])
	}
	if out[0].Items[0].Name != "Latte" || out[0].Items[0].Quantity != 2 {
		t.Errorf("line: got %+v", out[0].Items[0])
	}
}

func TestFileSnapshot_MissingFileIsNil(t *testing.T) {
	snap := tempSnapshot(t)

	out, err := snap.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if out != nil {
		t.Errorf("tables: got %v, want nil", out)
	}
}

func TestFileSnapshot_CorruptJSONRejected(t *testing.T) {
	snap := tempSnapshot(t)
	if err := os.WriteFile(snap.Path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := snap.Load(); err == nil {
		t.Fatal("expected parse error for corrupt file")
	}
}

func TestFileSnapshot_InvalidShapeRejected(t *testing.T) {
	snap := tempSnapshot(t)

	cases := []struct {
		name string
		body string
	}{
		{"zero id", `[{"id":0,"isOccupied":false,"items":[],"total":"0"}]`},
		{"nil items", `[{"id":1,"isOccupied":false,"total":"0"}]`},
		{"zero quantity line", `[{"id":1,"isOccupied":true,"items":[{"id":1,"name":"x","category":"c","price":"10","quantity":0}],"total":"0"}]`},
		{"negative price", `[{"id":1,"isOccupied":true,"items":[{"id":1,"name":"x","category":"c","price":"-5","quantity":1}],"total":"0"}]`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := os.WriteFile(snap.Path, []byte(tc.body), 0o644); err != nil {
				t.Fatal(err)
			}
			if _, err := snap.Load(); err == nil {
				t.Error("expected shape error")
			}
		})
	}
}

func TestFileSnapshot_RepairsDriftedTotal(t *testing.T) {
	snap := tempSnapshot(t)
	body := `[{"id":1,"isOccupied":true,"items":[{"id":1,"name":"x","category":"c","price":"100","quantity":2}],"total":"5"}]`
	if err := os.WriteFile(snap.Path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	out, err := snap.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !out[0].Total.Equal(dec(200)) {
		t.Errorf("repaired total: got %s, want 200", out[0].Total)
	}
}
