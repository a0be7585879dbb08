package cart

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// Cart maps product ids to positive quantities, remembering the order in
// which each id was first added. The zero value is an empty cart.
type Cart struct {
	order []uint
	qty   map[uint]int
}

// Entry is one product id and its quantity.
type Entry struct {
	ProductID uint
	Quantity  int
}

// Len returns the number of distinct products.
func (c Cart) Len() int { return len(c.order) }

// Quantity returns the quantity held for id, zero when absent.
func (c Cart) Quantity(id uint) int { return c.qty[id] }

// Has reports whether id is in the cart.
func (c Cart) Has(id uint) bool {
	_, ok := c.qty[id]
	return ok
}

// IDs returns product ids in insertion order.
func (c Cart) IDs() []uint {
	out := make([]uint, len(c.order))
	copy(out, c.order)
	return out
}

// Entries returns the cart contents in insertion order.
func (c Cart) Entries() []Entry {
	out := make([]Entry, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, Entry{ProductID: id, Quantity: c.qty[id]})
	}
	return out
}

// TotalQuantity sums every quantity in the cart.
func (c Cart) TotalQuantity() int {
	total := 0
	for _, q := range c.qty {
		total += q
	}
	return total
}

func (c Cart) clone() Cart {
	next := Cart{
		order: make([]uint, len(c.order)),
		qty:   make(map[uint]int, len(c.qty)),
	}
	copy(next.order, c.order)
	for id, q := range c.qty {
		next.qty[id] = q
	}
	return next
}

func (c *Cart) set(id uint, q int) {
	if c.qty == nil {
		c.qty = map[uint]int{}
	}
	if _, ok := c.qty[id]; !ok {
		c.order = append(c.order, id)
	}
	c.qty[id] = q
}

func (c *Cart) drop(id uint) {
	if _, ok := c.qty[id]; !ok {
		return
	}
	delete(c.qty, id)
	for i, existing := range c.order {
		if existing == id {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
}

// AddItem returns c with one more unit of id, inserting it with 1 if absent.
func AddItem(c Cart, id uint) Cart {
	next := c.clone()
	next.set(id, next.qty[id]+1)
	return next
}

// IncreaseQuantity behaves exactly like AddItem.
func IncreaseQuantity(c Cart, id uint) Cart {
	return AddItem(c, id)
}

// RemoveItem returns c without id, whatever its quantity.
func RemoveItem(c Cart, id uint) Cart {
	next := c.clone()
	next.drop(id)
	return next
}

// DecreaseQuantity returns c with one fewer unit of id. The last unit removes
// the entry; an absent id is left absent.
func DecreaseQuantity(c Cart, id uint) Cart {
	next := c.clone()
	switch q := next.qty[id]; {
	case q > 1:
		next.qty[id] = q - 1
	case q == 1:
		next.drop(id)
	}
	return next
}

// MarshalJSON encodes the cart as a JSON object keyed by decimal product id,
// preserving insertion order.
func (c Cart) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, id := range c.order {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.WriteByte('"')
		buf.WriteString(strconv.FormatUint(uint64(id), 10))
		buf.WriteString(`":`)
		buf.WriteString(strconv.Itoa(c.qty[id]))
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes an object written by MarshalJSON in document order.
// Keys that are not product ids and non-positive quantities are dropped.
func (c *Cart) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("decoding cart: %w", err)
	}
	if tok == nil {
		*c = Cart{}
		return nil
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("decoding cart: expected object")
	}

	next := Cart{}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("decoding cart key: %w", err)
		}
		key, _ := keyTok.(string)

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return fmt.Errorf("decoding cart value: %w", err)
		}

		id, err := strconv.ParseUint(key, 10, 64)
		if err != nil || id == 0 {
			continue
		}
		var q int
		if err := json.Unmarshal(raw, &q); err != nil || q <= 0 {
			continue
		}
		if next.Has(uint(id)) {
			next.qty[uint(id)] = q
			continue
		}
		next.set(uint(id), q)
	}
	if _, err := dec.Token(); err != nil {
		return fmt.Errorf("decoding cart: %w", err)
	}
	*c = next
	return nil
}
