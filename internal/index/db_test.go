package index

import (
	"encoding/json"
	"slices"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func openTestDB(t *testing.T, dir string) *DB {
	t.Helper()
	db, err := Open(dir)
	if err != nil {
		t.Fatalf("failed to open index: %v", err)
	}
	t.Cleanup(func() {
		_ = db.Close()
	})
	return db
}

func put(t *testing.T, db *DB, date int64, slug string, value map[string]any) {
	t.Helper()
	if err := db.Put(Entry{Key: Key{Date: date, Slug: slug}, Value: value}); err != nil {
		t.Fatalf("failed to put [%d %s]: %v", date, slug, err)
	}
}

func TestKeyJSON(t *testing.T) {
	k := Key{Date: 1700000000000, Slug: "choc-cake"}
	data, err := json.Marshal(k)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if got, want := string(data), `[1700000000000,"choc-cake"]`; got != want {
		t.Errorf("wire format = %s, want %s", got, want)
	}
	var back Key
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if back != k {
		t.Errorf("round trip = %+v, want %+v", back, k)
	}

	for _, bad := range []string{`[1]`, `[1,2,3]`, `["x",1]`, `{"date":1}`} {
		if err := json.Unmarshal([]byte(bad), &back); err == nil {
			t.Errorf("unmarshal %s: expected error", bad)
		}
	}
}

func TestKeyCompare(t *testing.T) {
	a := Key{Date: 1, Slug: "a"}
	b := Key{Date: 1, Slug: "b"}
	c := Key{Date: 2, Slug: "a"}
	if a.Compare(b) >= 0 || b.Compare(c) >= 0 || c.Compare(a) <= 0 {
		t.Error("keys not ordered by date then slug")
	}
	if a.Compare(a) != 0 {
		t.Error("key does not compare equal to itself")
	}
}

func TestPutAndRange(t *testing.T) {
	db := openTestDB(t, t.TempDir())
	put(t, db, 3, "c", map[string]any{"name": "C"})
	put(t, db, 1, "a", map[string]any{"name": "A"})
	put(t, db, 2, "b", map[string]any{"name": "B"})

	var slugs []string
	for e := range db.Range(RangeOptions{}) {
		slugs = append(slugs, e.Key.Slug)
	}
	if want := []string{"a", "b", "c"}; !slices.Equal(slugs, want) {
		t.Errorf("ascending order = %v, want %v", slugs, want)
	}

	slugs = nil
	for e := range db.Range(RangeOptions{Reverse: true}) {
		slugs = append(slugs, e.Key.Slug)
	}
	if want := []string{"c", "b", "a"}; !slices.Equal(slugs, want) {
		t.Errorf("reverse order = %v, want %v", slugs, want)
	}
}

func TestPutReplacesSameKey(t *testing.T) {
	db := openTestDB(t, t.TempDir())
	put(t, db, 1, "a", map[string]any{"name": "old"})
	put(t, db, 1, "a", map[string]any{"name": "new"})

	if got := db.Count(); got != 1 {
		t.Fatalf("count = %d, want 1", got)
	}
	e, ok := db.Get(Key{Date: 1, Slug: "a"})
	if !ok {
		t.Fatal("entry not found")
	}
	if got := e.Value["name"]; got != "new" {
		t.Errorf("value = %v, want new", got)
	}
}

func TestPaginationInvariant(t *testing.T) {
	db := openTestDB(t, t.TempDir())
	const n = 10
	for i := range n {
		put(t, db, int64(i), string(rune('a'+i)), nil)
	}

	// Concatenating all pages in reverse order reconstructs the full
	// newest-first list with no duplicates or gaps.
	const limit = 3
	var all []string
	for offset := 0; offset < n; offset += limit {
		for e := range db.Range(RangeOptions{Limit: limit, Offset: offset, Reverse: true}) {
			all = append(all, e.Key.Slug)
		}
	}
	want := make([]string, 0, n)
	for i := n - 1; i >= 0; i-- {
		want = append(want, string(rune('a'+i)))
	}
	if !slices.Equal(all, want) {
		t.Errorf("concatenated pages = %v, want %v", all, want)
	}
}

func TestRemove(t *testing.T) {
	db := openTestDB(t, t.TempDir())
	put(t, db, 1, "a", nil)
	put(t, db, 2, "b", nil)

	if err := db.Remove(Key{Date: 1, Slug: "a"}); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if got := db.Count(); got != 1 {
		t.Errorf("count after remove = %d, want 1", got)
	}
	// Removing an absent key is a no-op.
	if err := db.Remove(Key{Date: 9, Slug: "missing"}); err != nil {
		t.Errorf("remove absent key: %v", err)
	}
}

func TestDrop(t *testing.T) {
	db := openTestDB(t, t.TempDir())
	put(t, db, 1, "a", nil)
	put(t, db, 2, "b", nil)
	if err := db.Drop(); err != nil {
		t.Fatalf("drop: %v", err)
	}
	if got := db.Count(); got != 0 {
		t.Errorf("count after drop = %d, want 0", got)
	}
}

func TestPersistAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	db, err := Open(dir)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	want := Entry{
		Key:   Key{Date: 1700000000000, Slug: "choc-cake"},
		Value: map[string]any{"name": "Chocolate Cake"},
	}
	if err := db.Put(want); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := db.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	db2 := openTestDB(t, dir)
	got, ok := db2.Get(want.Key)
	if !ok {
		t.Fatal("entry missing after reopen")
	}
	// JSON numbers decode as float64.
	wantReloaded := Entry{Key: want.Key, Value: map[string]any{"name": "Chocolate Cake"}}
	if diff := cmp.Diff(wantReloaded, got); diff != "" {
		t.Errorf("entry mismatch after reopen (-want +got):\n%s", diff)
	}
}

func TestCloseReleasesLock(t *testing.T) {
	dir := t.TempDir()
	db, err := Open(dir)
	if err != nil {
		t.Fatalf("first open: %v", err)
	}
	if err := db.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	// A second open in the same process must not block on the lock.
	db2, err := Open(dir)
	if err != nil {
		t.Fatalf("reopen after close: %v", err)
	}
	_ = db2.Close()
}
