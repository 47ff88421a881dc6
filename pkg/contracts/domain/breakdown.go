package domain

import "encoding/json"

// GroupTotals holds the count and monetary totals of one group in a breakdown.
type GroupTotals struct {
	Key      string  `json:"key"`
	Count    int     `json:"count"`
	Reserves float64 `json:"reserves,omitempty"`
	Gross    float64 `json:"gross,omitempty"`
	Net      float64 `json:"net,omitempty"`
}

// Breakdown is an insertion-ordered mapping from group key to GroupTotals.
// It encodes to JSON as an ordered array so consumers see a stable order.
type Breakdown struct {
	order  []string
	groups map[string]*GroupTotals
}

// NewBreakdown creates a breakdown whose first groups are the given keys, in
// that order, even if they never receive a record.
func NewBreakdown(seed ...string) *Breakdown {
	b := &Breakdown{groups: make(map[string]*GroupTotals, len(seed))}
	for _, key := range seed {
		b.group(key)
	}
	return b
}

func (b *Breakdown) group(key string) *GroupTotals {
	if b.groups == nil {
		b.groups = make(map[string]*GroupTotals)
	}
	g, ok := b.groups[key]
	if !ok {
		g = &GroupTotals{Key: key}
		b.groups[key] = g
		b.order = append(b.order, key)
	}
	return g
}

// AddReserve counts one record with its reserve amount under key.
func (b *Breakdown) AddReserve(key string, reserves float64) {
	g := b.group(key)
	g.Count++
	g.Reserves += reserves
}

// AddPayment counts one payment with its gross and net amounts under key.
func (b *Breakdown) AddPayment(key string, gross, net float64) {
	g := b.group(key)
	g.Count++
	g.Gross += gross
	g.Net += net
}

// Get returns the totals for key.
func (b *Breakdown) Get(key string) (GroupTotals, bool) {
	if b == nil {
		return GroupTotals{}, false
	}
	g, ok := b.groups[key]
	if !ok {
		return GroupTotals{}, false
	}
	return *g, true
}

// Keys returns group keys in insertion order.
func (b *Breakdown) Keys() []string {
	if b == nil {
		return nil
	}
	out := make([]string, len(b.order))
	copy(out, b.order)
	return out
}

// Groups returns copies of all groups in insertion order.
func (b *Breakdown) Groups() []GroupTotals {
	if b == nil {
		return nil
	}
	out := make([]GroupTotals, 0, len(b.order))
	for _, key := range b.order {
		out = append(out, *b.groups[key])
	}
	return out
}

// Len returns the number of groups.
func (b *Breakdown) Len() int {
	if b == nil {
		return 0
	}
	return len(b.order)
}

// Sum returns the totals across every group.
func (b *Breakdown) Sum() GroupTotals {
	var total GroupTotals
	for _, g := range b.Groups() {
		total.Count += g.Count
		total.Reserves += g.Reserves
		total.Gross += g.Gross
		total.Net += g.Net
	}
	return total
}

// MarshalJSON encodes the breakdown as an ordered array of groups.
func (b *Breakdown) MarshalJSON() ([]byte, error) {
	groups := b.Groups()
	if groups == nil {
		groups = []GroupTotals{}
	}
	return json.Marshal(groups)
}

// UnmarshalJSON restores a breakdown from its array encoding.
func (b *Breakdown) UnmarshalJSON(data []byte) error {
	var groups []GroupTotals
	if err := json.Unmarshal(data, &groups); err != nil {
		return err
	}
	*b = Breakdown{groups: make(map[string]*GroupTotals, len(groups))}
	for i := range groups {
		g := groups[i]
		b.groups[g.Key] = &g
		b.order = append(b.order, g.Key)
	}
	return nil
}
