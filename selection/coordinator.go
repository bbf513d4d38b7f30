package selection

import (
	"errors"
	"sync"

	"pixel_forge/entities"
)

// DisplaySource supplies the list currently shown to the user.
type DisplaySource interface {
	Filtered() []*entities.ImageRecord
}

// Coordinator tracks the selected record ids. Every query is scoped to the
// records the DisplaySource shows at the time of the call.
type Coordinator struct {
	mu       sync.Mutex
	source   DisplaySource
	selected map[string]struct{}
	active   bool
}

func New(source DisplaySource) (*Coordinator, error) {
	if source == nil {
		return nil, errors.New("missing DisplaySource parameter")
	}

	return &Coordinator{
		source:   source,
		selected: make(map[string]struct{}),
	}, nil
}

// Toggle adds the id when absent and removes it when present. It reports
// whether the id is selected afterwards.
func (c *Coordinator) Toggle(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.selected[id]; ok {
		delete(c.selected, id)
		return false
	}

	c.selected[id] = struct{}{}

	return true
}

// ToggleAll clears the selection when every displayed record is selected and
// selects every displayed record otherwise.
func (c *Coordinator) ToggleAll() {
	displayed := c.source.Filtered()

	c.mu.Lock()
	defer c.mu.Unlock()

	if allSelected(displayed, c.selected) {
		c.selected = make(map[string]struct{})
		return
	}

	for _, record := range displayed {
		c.selected[record.ID] = struct{}{}
	}
}

func (c *Coordinator) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.selected = make(map[string]struct{})
}

func (c *Coordinator) IsAllSelected() bool {
	displayed := c.source.Filtered()

	c.mu.Lock()
	defer c.mu.Unlock()

	return allSelected(displayed, c.selected)
}

func (c *Coordinator) IsSelected(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, ok := c.selected[id]

	return ok
}

// Selected returns the displayed records that are selected, in display order.
func (c *Coordinator) Selected() []*entities.ImageRecord {
	displayed := c.source.Filtered()

	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]*entities.ImageRecord, 0, len(c.selected))
	for _, record := range displayed {
		if _, ok := c.selected[record.ID]; ok {
			out = append(out, record)
		}
	}

	return out
}

func (c *Coordinator) SelectedIDs() []string {
	selected := c.Selected()

	out := make([]string, 0, len(selected))
	for _, record := range selected {
		out = append(out, record.ID)
	}

	return out
}

func (c *Coordinator) Count() int {
	return len(c.Selected())
}

func (c *Coordinator) EnterMode() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.active = true
}

// LeaveMode ends selection mode and clears the selection.
func (c *Coordinator) LeaveMode() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.active = false
	c.selected = make(map[string]struct{})
}

func (c *Coordinator) ToggleMode() bool {
	c.mu.Lock()
	active := c.active
	c.mu.Unlock()

	if active {
		c.LeaveMode()
		return false
	}

	c.EnterMode()

	return true
}

func (c *Coordinator) InMode() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.active
}

func allSelected(displayed []*entities.ImageRecord, selected map[string]struct{}) bool {
	if len(displayed) == 0 {
		return false
	}

	for _, record := range displayed {
		if _, ok := selected[record.ID]; !ok {
			return false
		}
	}

	return true
}
