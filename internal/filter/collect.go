package filter

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const preloadSeparator = "__"

type slot struct {
	skip    bool
	preload int // -1 for root columns
	column  Column
}

type assembled struct {
	record Record
	many   map[int][]Record
	one    map[int]Record
	seen   map[int]map[string]bool
}

// Collector folds the flat rows of a data query into records with their
// preloaded relations attached. Root order follows first appearance.
type Collector struct {
	plan  *Plan
	slots []slot
	order []string
	roots map[string]*assembled
}

// NewCollector maps result column names onto the plan's entities.
func (p *Plan) NewCollector(columns []string) (*Collector, error) {
	c := &Collector{plan: p, slots: make([]slot, len(columns)), roots: make(map[string]*assembled)}

	for i, name := range columns {
		if strings.HasPrefix(name, sortProjectionPrefix) {
			c.slots[i] = slot{skip: true}
			continue
		}

		if relName, colName, ok := strings.Cut(name, preloadSeparator); ok {
			idx := p.preloadIndex(relName)
			if idx < 0 {
				return nil, fmt.Errorf("column %q does not belong to a preloaded relation", name)
			}
			col, found := p.Preloads[idx].Target.Column(colName)
			if !found {
				col = Column{Name: colName}
			}
			c.slots[i] = slot{preload: idx, column: col}
			continue
		}

		col, found := p.Entity.Column(name)
		if !found {
			col = Column{Name: name}
		}
		c.slots[i] = slot{preload: -1, column: col}
	}
	return c, nil
}

func (p *Plan) preloadIndex(name string) int {
	for i, pl := range p.Preloads {
		if pl.Relation.Name == name {
			return i
		}
	}
	return -1
}

// Add consumes one scanned row.
func (c *Collector) Add(values []interface{}) error {
	if len(values) != len(c.slots) {
		return fmt.Errorf("expected %d values, got %d", len(c.slots), len(values))
	}

	root := Record{}
	related := make(map[int]Record)
	for i, s := range c.slots {
		if s.skip {
			continue
		}
		v, err := normalize(s.column, values[i])
		if err != nil {
			return err
		}
		if s.preload < 0 {
			root[s.column.Name] = v
			continue
		}
		if related[s.preload] == nil {
			related[s.preload] = Record{}
		}
		related[s.preload][s.column.Name] = v
	}

	key := fmt.Sprint(root[c.plan.Entity.PrimaryKey])
	a, ok := c.roots[key]
	if !ok {
		a = &assembled{
			record: root,
			many:   make(map[int][]Record),
			one:    make(map[int]Record),
			seen:   make(map[int]map[string]bool),
		}
		c.roots[key] = a
		c.order = append(c.order, key)
	}

	for idx, rec := range related {
		pl := c.plan.Preloads[idx]
		pk := rec[pl.Target.PrimaryKey]
		if pk == nil {
			// left join without a match
			continue
		}
		if pl.Relation.Kind == BelongsTo {
			a.one[idx] = rec
			continue
		}
		if a.seen[idx] == nil {
			a.seen[idx] = make(map[string]bool)
		}
		rk := fmt.Sprint(pk)
		if a.seen[idx][rk] {
			continue
		}
		a.seen[idx][rk] = true
		a.many[idx] = append(a.many[idx], rec)
	}
	return nil
}

// Records returns the assembled records.
func (c *Collector) Records() []Record {
	out := make([]Record, 0, len(c.order))
	for _, key := range c.order {
		a := c.roots[key]
		for idx, pl := range c.plan.Preloads {
			if pl.Relation.Kind == BelongsTo {
				if rec, ok := a.one[idx]; ok {
					a.record[pl.Relation.Name] = rec
				} else {
					a.record[pl.Relation.Name] = nil
				}
				continue
			}
			many := a.many[idx]
			if many == nil {
				many = []Record{}
			}
			a.record[pl.Relation.Name] = many
		}
		out = append(out, a.record)
	}
	return out
}

// normalize converts driver values into the shape declared by the column type.
// Text protocol drivers hand back []byte for most types.
func normalize(col Column, v interface{}) (interface{}, error) {
	if v == nil {
		return nil, nil
	}

	switch col.Type {
	case JSON:
		switch x := v.(type) {
		case []byte:
			return json.RawMessage(x), nil
		case string:
			return json.RawMessage(x), nil
		}
	case Integer:
		switch x := v.(type) {
		case []byte:
			return strconv.ParseInt(string(x), 10, 64)
		case string:
			return strconv.ParseInt(x, 10, 64)
		}
	case Boolean:
		switch x := v.(type) {
		case int64:
			return x != 0, nil
		case []byte:
			if len(x) == 1 && x[0] <= 1 {
				return x[0] == 1, nil
			}
			return strconv.ParseBool(string(x))
		case string:
			return strconv.ParseBool(x)
		}
	case Timestamp:
		switch x := v.(type) {
		case time.Time:
			return x, nil
		case []byte:
			return ParseDateTime(string(x))
		case string:
			return ParseDateTime(x)
		}
	}

	if b, ok := v.([]byte); ok {
		return string(b), nil
	}
	return v, nil
}
