package history

import (
	"context"
	"errors"
	"testing"
	"time"

	"pixel_forge/entities"
)

type fakeStore struct {
	records []*entities.ImageRecord
	err     error
}

func (s *fakeStore) GetAll(_ context.Context) ([]*entities.ImageRecord, error) {
	return s.records, s.err
}

func single(id string, ts int64, prompt, style string) *entities.ImageRecord {
	return &entities.ImageRecord{ID: id, Timestamp: ts, Prompt: prompt, Style: style, Filename: id}
}

func variation(id, group string, index int, ts int64, prompt, style string) *entities.ImageRecord {
	record := single(id, ts, prompt, style)
	record.Variation = &entities.Variation{GroupID: group, Index: index}

	return record
}

// storage order: newest first, later writes of a batch first
func sampleRecords() []*entities.ImageRecord {
	return []*entities.ImageRecord{
		single("s3", 400, "A red dragon", ", anime style"),
		variation("g1-2", "g1", 2, 300, "castle at dusk", ", oil painting"),
		variation("g1-1", "g1", 1, 300, "castle at dusk", ", oil painting"),
		variation("g1-0", "g1", 0, 300, "castle at dusk", ", oil painting"),
		single("s2", 200, "Blue ocean", ", oil painting"),
		variation("g2-1", "g2", 1, 100, "dragon egg", ", anime style"),
		variation("g2-0", "g2", 0, 100, "dragon egg", ", anime style"),
		single("s1", 50, "forest", ""),
	}
}

func newManager(t *testing.T, records []*entities.ImageRecord) *Manager {
	t.Helper()

	manager, err := New(Config{Store: &fakeStore{records: records}})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(manager.Close)

	if err := manager.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}

	return manager
}

func ids(records []*entities.ImageRecord) []string {
	out := make([]string, 0, len(records))
	for _, record := range records {
		out = append(out, record.ID)
	}

	return out
}

func equalIDs(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}

	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}

	return true
}

func TestFilteredCollapsesGroups(t *testing.T) {
	manager := newManager(t, sampleRecords())

	got := ids(manager.Filtered())
	want := []string{"s3", "g1-2", "s2", "g2-1", "s1"}

	if !equalIDs(got, want) {
		t.Fatalf("Filtered() = %v, want %v", got, want)
	}
}

func TestCollapsedRowCountIsGroupsPlusUngrouped(t *testing.T) {
	manager := newManager(t, sampleRecords())

	for _, view := range []View{
		{StyleFilter: StyleAll, Sort: SortNewest},
		{StyleFilter: StyleAll, Sort: SortOldest},
		{SearchTerm: "dragon", StyleFilter: StyleAll, Sort: SortNewest},
		{StyleFilter: ", oil painting", Sort: SortOldest},
	} {
		manager.SetSearchTerm(view.SearchTerm)
		manager.SetStyleFilter(view.StyleFilter)
		if err := manager.SetSort(view.Sort); err != nil {
			t.Fatalf("SetSort: %v", err)
		}

		groups := make(map[string]struct{})
		ungrouped := 0

		for _, record := range manager.Records() {
			if !MatchesSearch(record, view.SearchTerm) || !MatchesStyle(record, view.StyleFilter) {
				continue
			}

			if record.GroupID() == "" {
				ungrouped++
			} else {
				groups[record.GroupID()] = struct{}{}
			}
		}

		rows := manager.Filtered()
		if len(rows) != len(groups)+ungrouped {
			t.Fatalf("view %+v: %d rows, want %d groups + %d ungrouped", view, len(rows), len(groups), ungrouped)
		}
	}
}

func TestSortOldestKeepsStorageOrderForTies(t *testing.T) {
	manager := newManager(t, []*entities.ImageRecord{
		single("b", 100, "two", ""),
		single("a", 100, "one", ""),
		single("c", 50, "zero", ""),
	})

	if err := manager.SetSort(SortOldest); err != nil {
		t.Fatalf("SetSort: %v", err)
	}

	got := ids(manager.Filtered())
	want := []string{"c", "b", "a"}

	if !equalIDs(got, want) {
		t.Fatalf("Filtered() = %v, want %v", got, want)
	}
}

func TestSearchIsCaseInsensitiveAcrossFields(t *testing.T) {
	manager := newManager(t, sampleRecords())

	tests := []struct {
		term string
		want []string
	}{
		{term: "DRAGON", want: []string{"s3", "g2-1"}},
		{term: "   ", want: []string{"s3", "g1-2", "s2", "g2-1", "s1"}},
		{term: "Oil Paint", want: []string{"g1-2", "s2"}},
		{term: "s1", want: []string{"s1"}},
		{term: "nothing matches", want: []string{}},
	}

	for _, test := range tests {
		manager.SetSearchTerm(test.term)

		if got := ids(manager.Filtered()); !equalIDs(got, test.want) {
			t.Errorf("search %q = %v, want %v", test.term, got, test.want)
		}
	}
}

func TestSearchAndStyleFilterCommute(t *testing.T) {
	records := sampleRecords()

	filter := func(first, second func(*entities.ImageRecord) bool) []string {
		out := []string{}
		for _, record := range records {
			if first(record) {
				if second(record) {
					out = append(out, record.ID)
				}
			}
		}

		return out
	}

	search := func(r *entities.ImageRecord) bool { return MatchesSearch(r, "dragon") }
	style := func(r *entities.ImageRecord) bool { return MatchesStyle(r, ", anime style") }

	if a, b := filter(search, style), filter(style, search); !equalIDs(a, b) {
		t.Fatalf("search then style = %v, style then search = %v", a, b)
	}
}

func TestVariationsAreOrderedAndStable(t *testing.T) {
	manager := newManager(t, sampleRecords())

	first := manager.Variations("g1")
	second := manager.Variations("g1")

	if got := ids(first); !equalIDs(got, []string{"g1-0", "g1-1", "g1-2"}) {
		t.Fatalf("Variations(g1) = %v", got)
	}

	if !equalIDs(ids(first), ids(second)) {
		t.Fatal("Variations is not stable across calls")
	}

	for _, record := range first {
		if record.Timestamp != first[0].Timestamp {
			t.Fatalf("group members have different timestamps: %d vs %d", record.Timestamp, first[0].Timestamp)
		}
	}

	manager.SetStyleFilter(", anime style")

	if got := manager.Variations("g1"); len(got) != 3 {
		t.Fatalf("Variations depends on the view: %v", ids(got))
	}

	if got := manager.Variations(""); len(got) != 0 {
		t.Fatalf("Variations(\"\") = %v", ids(got))
	}
}

func TestFilteredIsMemoized(t *testing.T) {
	manager := newManager(t, sampleRecords())

	manager.Filtered()
	manager.Filtered()

	if manager.computations != 1 {
		t.Fatalf("computations = %d after two reads, want 1", manager.computations)
	}

	manager.SetSearchTerm("castle")
	manager.Filtered()

	manager.Remove("s1")
	manager.Filtered()

	if manager.computations != 3 {
		t.Fatalf("computations = %d, want 3", manager.computations)
	}
}

func TestReturnedRecordsAreCopies(t *testing.T) {
	manager := newManager(t, sampleRecords())

	rows := manager.Filtered()
	rows[0].Prompt = "mutated"
	rows[1].Variation.Index = 42

	fresh := manager.Filtered()
	if fresh[0].Prompt == "mutated" || fresh[1].Variation.Index == 42 {
		t.Fatal("caller mutation leaked into the manager")
	}
}

func TestAddAndRemove(t *testing.T) {
	manager := newManager(t, sampleRecords())

	batch := []*entities.ImageRecord{
		variation("g3-0", "g3", 0, 500, "new", ""),
		variation("g3-1", "g3", 1, 500, "new", ""),
	}

	manager.Add(batch...)

	got := ids(manager.Filtered())
	if got[0] != "g3-1" || len(got) != 6 {
		t.Fatalf("after Add, Filtered() = %v", got)
	}

	manager.Remove("g1-0", "g1-1", "g1-2")

	for _, id := range ids(manager.Filtered()) {
		if id == "g1-2" {
			t.Fatal("group representative still displayed after removing its group")
		}
	}

	if manager.Len() != 7 {
		t.Fatalf("Len() = %d, want 7", manager.Len())
	}
}

func TestRefreshPropagatesStoreErrors(t *testing.T) {
	storeErr := errors.New("disk on fire")

	manager, err := New(Config{Store: &fakeStore{err: storeErr}})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer manager.Close()

	if err := manager.Refresh(context.Background()); !errors.Is(err, storeErr) {
		t.Fatalf("Refresh error = %v", err)
	}
}

func TestSearchInputIsDebounced(t *testing.T) {
	manager, err := New(Config{Store: &fakeStore{records: sampleRecords()}, SearchDebounce: 20 * time.Millisecond})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer manager.Close()

	manager.SetSearchInput("d")
	manager.SetSearchInput("dr")
	manager.SetSearchInput("dragon")

	if term := manager.View().SearchTerm; term != "" {
		t.Fatalf("search term applied before the quiet period: %q", term)
	}

	deadline := time.Now().Add(time.Second)
	for manager.View().SearchTerm != "dragon" {
		if time.Now().After(deadline) {
			t.Fatalf("search term = %q, want dragon", manager.View().SearchTerm)
		}

		time.Sleep(5 * time.Millisecond)
	}
}

func TestSetSortRejectsUnknownOrder(t *testing.T) {
	manager := newManager(t, nil)

	err := manager.SetSort("sideways")
	if !errors.Is(err, &entities.ValidationError{}) {
		t.Fatalf("SetSort error = %v", err)
	}

	if _, err := ParseSortOrder("OLDEST"); err != nil {
		t.Fatalf("ParseSortOrder: %v", err)
	}
}

func TestQueryLeavesViewAlone(t *testing.T) {
	manager := newManager(t, sampleRecords())

	manager.Filtered()

	got := ids(manager.Query(View{SearchTerm: "dragon"}))
	if !equalIDs(got, []string{"s3", "g2-1"}) {
		t.Fatalf("Query = %v", got)
	}

	if manager.View().SearchTerm != "" || manager.computations != 1 {
		t.Fatalf("Query changed the manager: view %+v, computations %d", manager.View(), manager.computations)
	}
}
