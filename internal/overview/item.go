// Package overview computes the per-activity facts shown on the course overview page.
package overview

// Item is one reportable fact about an activity for a given viewer.
type Item struct {
	Key        string
	Name       string
	Value      interface{}
	AlertCount int64
	AlertLabel string
	Content    string
}

// GetName returns the display label.
func (i Item) GetName() string { return i.Name }

// GetValue returns the raw value (count, unix timestamp, bool or string).
func (i Item) GetValue() interface{} { return i.Value }

// GetAlertCount returns the number drawing attention to the item, e.g. unread posts.
func (i Item) GetAlertCount() int64 { return i.AlertCount }

// GetAlertLabel returns the label of the alert count.
func (i Item) GetAlertLabel() string { return i.AlertLabel }

// GetContent returns the rendered HTML fragment.
func (i Item) GetContent() string { return i.Content }

// ItemSet is an ordered collection of items addressed by key.
type ItemSet struct {
	keys  []string
	items map[string]Item
}

// NewItemSet returns an empty set.
func NewItemSet() *ItemSet {
	return &ItemSet{items: make(map[string]Item)}
}

// Add appends item under its key. Nil items are skipped; a repeated key replaces the earlier item in place.
func (s *ItemSet) Add(item *Item) {
	if item == nil {
		return
	}
	if _, exists := s.items[item.Key]; !exists {
		s.keys = append(s.keys, item.Key)
	}
	s.items[item.Key] = *item
}

// Get returns the item stored under key.
func (s *ItemSet) Get(key string) (Item, bool) {
	item, ok := s.items[key]
	return item, ok
}

// Has reports whether key is present.
func (s *ItemSet) Has(key string) bool {
	_, ok := s.items[key]
	return ok
}

// Keys returns the keys in insertion order.
func (s *ItemSet) Keys() []string {
	keys := make([]string, len(s.keys))
	copy(keys, s.keys)
	return keys
}

// Items returns the items in insertion order.
func (s *ItemSet) Items() []Item {
	items := make([]Item, 0, len(s.keys))
	for _, key := range s.keys {
		items = append(items, s.items[key])
	}
	return items
}

// Len returns the number of items.
func (s *ItemSet) Len() int {
	return len(s.keys)
}
