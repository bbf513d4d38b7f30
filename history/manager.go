package history

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"pixel_forge/debounce"
	"pixel_forge/entities"
)

const (
	StyleAll = "ALL"

	DefaultSearchDebounce = 300 * time.Millisecond
)

type SortOrder string

const (
	SortNewest SortOrder = "newest"
	SortOldest SortOrder = "oldest"
)

func ParseSortOrder(value string) (SortOrder, error) {
	switch SortOrder(strings.ToLower(strings.TrimSpace(value))) {
	case SortNewest, "":
		return SortNewest, nil
	case SortOldest:
		return SortOldest, nil
	default:
		return "", &entities.ValidationError{Field: "sort", Message: fmt.Sprintf("unknown sort order %q", value)}
	}
}

// Store is the part of the image record repository the manager reads from.
type Store interface {
	GetAll(ctx context.Context) ([]*entities.ImageRecord, error)
}

// View holds the inputs of the displayed list.
type View struct {
	SearchTerm  string    `json:"searchTerm"`
	StyleFilter string    `json:"styleFilter"`
	Sort        SortOrder `json:"sort"`
}

type cacheKey struct {
	revision uint64
	view     View
}

type Manager struct {
	mu       sync.RWMutex
	store    Store
	records  []*entities.ImageRecord
	revision uint64
	view     View

	cached       []*entities.ImageRecord
	cachedKey    cacheKey
	cacheValid   bool
	computations int

	search *debounce.Debouncer[string]
}

type Config struct {
	Store          Store
	SearchDebounce time.Duration
}

func New(cfg Config) (*Manager, error) {
	if cfg.Store == nil {
		return nil, errors.New("missing Store parameter")
	}

	manager := &Manager{
		store: cfg.Store,
		view: View{
			StyleFilter: StyleAll,
			Sort:        SortNewest,
		},
	}

	manager.search = debounce.New(cfg.SearchDebounce, manager.SetSearchTerm)

	return manager, nil
}

// Refresh replaces the in-memory record set with the store's.
func (m *Manager) Refresh(ctx context.Context) error {
	records, err := m.store.GetAll(ctx)
	if err != nil {
		return err
	}

	m.Replace(records)

	return nil
}

// Replace sets the record set. records must be in storage order, newest first.
func (m *Manager) Replace(records []*entities.ImageRecord) {
	copied := make([]*entities.ImageRecord, 0, len(records))
	for _, record := range records {
		copied = append(copied, record.Clone())
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.records = copied
	m.revision++
}

// Add puts freshly persisted records in front of the record set, in the same
// order the store returns records written by one batch.
func (m *Manager) Add(records ...*entities.ImageRecord) {
	if len(records) == 0 {
		return
	}

	added := make([]*entities.ImageRecord, 0, len(records))
	for i := len(records) - 1; i >= 0; i-- {
		added = append(added, records[i].Clone())
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	ids := make(map[string]struct{}, len(added))
	for _, record := range added {
		ids[record.ID] = struct{}{}
	}

	kept := m.records[:0:0]
	for _, record := range m.records {
		if _, replaced := ids[record.ID]; !replaced {
			kept = append(kept, record)
		}
	}

	m.records = append(added, kept...)
	m.revision++
}

// Remove drops the given ids from the record set.
func (m *Manager) Remove(ids ...string) {
	if len(ids) == 0 {
		return
	}

	drop := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		drop[id] = struct{}{}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	kept := make([]*entities.ImageRecord, 0, len(m.records))
	for _, record := range m.records {
		if _, ok := drop[record.ID]; !ok {
			kept = append(kept, record)
		}
	}

	if len(kept) == len(m.records) {
		return
	}

	m.records = kept
	m.revision++
}

func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.records)
}

// Records returns the full record set in storage order.
func (m *Manager) Records() []*entities.ImageRecord {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return cloneAll(m.records)
}

func (m *Manager) Record(id string) (*entities.ImageRecord, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, record := range m.records {
		if record.ID == id {
			return record.Clone(), true
		}
	}

	return nil, false
}

// SetSearchInput feeds raw keystrokes. The active search term follows after
// the debounce delay.
func (m *Manager) SetSearchInput(input string) {
	m.search.Submit(input)
}

// FlushSearch applies a pending search input immediately.
func (m *Manager) FlushSearch() {
	m.search.Flush()
}

func (m *Manager) SetSearchTerm(term string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.view.SearchTerm = term
}

func (m *Manager) SetStyleFilter(style string) {
	if style == "" {
		style = StyleAll
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.view.StyleFilter = style
}

func (m *Manager) SetSort(order SortOrder) error {
	if order != SortNewest && order != SortOldest {
		return &entities.ValidationError{Field: "sort", Message: fmt.Sprintf("unknown sort order %q", order)}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.view.Sort = order

	return nil
}

func (m *Manager) View() View {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.view
}

// Filtered returns the displayed list: searched, style filtered, sorted and
// collapsed to one row per variation group.
func (m *Manager) Filtered() []*entities.ImageRecord {
	m.mu.RLock()
	key := cacheKey{revision: m.revision, view: m.view}
	if m.cacheValid && m.cachedKey == key {
		out := cloneAll(m.cached)
		m.mu.RUnlock()

		return out
	}
	m.mu.RUnlock()

	m.mu.Lock()
	defer m.mu.Unlock()

	key = cacheKey{revision: m.revision, view: m.view}
	if !m.cacheValid || m.cachedKey != key {
		m.cached = derive(m.records, m.view)
		m.cachedKey = key
		m.cacheValid = true
		m.computations++
	}

	return cloneAll(m.cached)
}

// Query derives the list for view without touching the current view or the
// memoized result.
func (m *Manager) Query(view View) []*entities.ImageRecord {
	if view.StyleFilter == "" {
		view.StyleFilter = StyleAll
	}

	if view.Sort == "" {
		view.Sort = SortNewest
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	return cloneAll(derive(m.records, view))
}

// Variations returns every record of the group ascending by variation index,
// regardless of the current view.
func (m *Manager) Variations(groupID string) []*entities.ImageRecord {
	if groupID == "" {
		return []*entities.ImageRecord{}
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	group := make([]*entities.ImageRecord, 0)
	for _, record := range m.records {
		if record.GroupID() == groupID {
			group = append(group, record.Clone())
		}
	}

	sort.SliceStable(group, func(i, j int) bool {
		return group[i].Variation.Index < group[j].Variation.Index
	})

	return group
}

// Close stops the search debouncer.
func (m *Manager) Close() {
	m.search.Stop()
}

func derive(records []*entities.ImageRecord, view View) []*entities.ImageRecord {
	matched := make([]*entities.ImageRecord, 0, len(records))
	for _, record := range records {
		if MatchesSearch(record, view.SearchTerm) && MatchesStyle(record, view.StyleFilter) {
			matched = append(matched, record)
		}
	}

	less := comparator(view.Sort)

	sortStable(matched, less)

	return collapse(matched, less)
}

// MatchesSearch is a case-insensitive substring match on prompt, filename and
// style. A blank term matches everything.
func MatchesSearch(record *entities.ImageRecord, term string) bool {
	term = strings.TrimSpace(term)
	if term == "" {
		return true
	}

	term = strings.ToLower(term)

	for _, field := range []string{record.Prompt, record.Filename, record.Style} {
		if strings.Contains(strings.ToLower(field), term) {
			return true
		}
	}

	return false
}

func MatchesStyle(record *entities.ImageRecord, style string) bool {
	return style == "" || style == StyleAll || record.Style == style
}

func comparator(order SortOrder) func(a, b *entities.ImageRecord) bool {
	if order == SortOldest {
		return func(a, b *entities.ImageRecord) bool { return a.Timestamp < b.Timestamp }
	}

	return func(a, b *entities.ImageRecord) bool { return a.Timestamp > b.Timestamp }
}

func sortStable(records []*entities.ImageRecord, less func(a, b *entities.ImageRecord) bool) {
	sort.SliceStable(records, func(i, j int) bool {
		return less(records[i], records[j])
	})
}

// collapse keeps the first record of each group in sort order, puts the group
// representatives ahead of ungrouped records and sorts the result again.
func collapse(sorted []*entities.ImageRecord, less func(a, b *entities.ImageRecord) bool) []*entities.ImageRecord {
	seen := make(map[string]struct{})
	representatives := make([]*entities.ImageRecord, 0)
	ungrouped := make([]*entities.ImageRecord, 0)

	for _, record := range sorted {
		groupID := record.GroupID()
		if groupID == "" {
			ungrouped = append(ungrouped, record)
			continue
		}

		if _, ok := seen[groupID]; ok {
			continue
		}

		seen[groupID] = struct{}{}
		representatives = append(representatives, record)
	}

	merged := append(representatives, ungrouped...)

	sortStable(merged, less)

	return merged
}

func cloneAll(records []*entities.ImageRecord) []*entities.ImageRecord {
	out := make([]*entities.ImageRecord, 0, len(records))
	for _, record := range records {
		out = append(out, record.Clone())
	}

	return out
}
