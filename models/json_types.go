package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"sort"
)

// StringList stores an ordered list of strings as a JSON text column
type StringList []string

func (l *StringList) Scan(value interface{}) error {
	data, err := scanBytes(value)
	if err != nil {
		return fmt.Errorf("failed to scan StringList: %w", err)
	}
	if len(data) == 0 {
		*l = StringList{}
		return nil
	}
	return json.Unmarshal(data, l)
}

func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.Marshal(l)
	return string(b), err
}

// IntList stores an ordered list of integers as a JSON text column
type IntList []int

func (l *IntList) Scan(value interface{}) error {
	data, err := scanBytes(value)
	if err != nil {
		return fmt.Errorf("failed to scan IntList: %w", err)
	}
	if len(data) == 0 {
		*l = IntList{}
		return nil
	}
	return json.Unmarshal(data, l)
}

func (l IntList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.Marshal(l)
	return string(b), err
}

// BranchQuantities maps a branch id to the quantity allocated to it
type BranchQuantities map[int]int

func (q *BranchQuantities) Scan(value interface{}) error {
	data, err := scanBytes(value)
	if err != nil {
		return fmt.Errorf("failed to scan BranchQuantities: %w", err)
	}
	if len(data) == 0 {
		*q = BranchQuantities{}
		return nil
	}
	return json.Unmarshal(data, q)
}

func (q BranchQuantities) Value() (driver.Value, error) {
	if q == nil {
		return "{}", nil
	}
	b, err := json.Marshal(q)
	return string(b), err
}

// BranchIDs returns the branch ids in ascending order
func (q BranchQuantities) BranchIDs() []int {
	ids := make([]int, 0, len(q))
	for id := range q {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

func scanBytes(value interface{}) ([]byte, error) {
	switch v := value.(type) {
	case nil:
		return nil, nil
	case []byte:
		return v, nil
	case string:
		return []byte(v), nil
	default:
		return nil, fmt.Errorf("unsupported type %T", value)
	}
}
