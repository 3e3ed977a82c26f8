package models

import (
	"bytes"
	"encoding/json"
)

// Counts is a string->count mapping that remembers the order keys were first seen.
// It encodes as a JSON object with keys in that order.
type Counts struct {
	keys   []string
	values map[string]int
}

// NewCounts returns an empty Counts.
func NewCounts() *Counts {
	return &Counts{values: make(map[string]int)}
}

// Inc adds one to key, registering it on first use.
func (c *Counts) Inc(key string) {
	if c.values == nil {
		c.values = make(map[string]int)
	}
	if _, ok := c.values[key]; !ok {
		c.keys = append(c.keys, key)
	}
	c.values[key]++
}

// Get returns the count for key.
func (c *Counts) Get(key string) int {
	if c == nil {
		return 0
	}
	return c.values[key]
}

// Keys returns keys in first-seen order.
func (c *Counts) Keys() []string {
	if c == nil {
		return nil
	}
	return append([]string(nil), c.keys...)
}

// Len is the number of distinct keys.
func (c *Counts) Len() int {
	if c == nil {
		return 0
	}
	return len(c.keys)
}

// Sum is the total of all counts.
func (c *Counts) Sum() int {
	if c == nil {
		return 0
	}
	total := 0
	for _, v := range c.values {
		total += v
	}
	return total
}

// MarshalJSON writes the counts as an object, preserving key order.
func (c *Counts) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	if c != nil {
		for i, key := range c.keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			k, err := json.Marshal(key)
			if err != nil {
				return nil, err
			}
			buf.Write(k)
			buf.WriteByte(':')
			v, err := json.Marshal(c.values[key])
			if err != nil {
				return nil, err
			}
			buf.Write(v)
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Analytics summarizes the stored records.
type Analytics struct {
	Categories *Counts `json:"categories"`
	Tags       *Counts `json:"tags"`
	Total      int     `json:"total"`
}
