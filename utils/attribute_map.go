package utils

import (
	"fmt"
)

// AttributeMap is a loosely typed set of named attributes, as decoded from JSON configuration.
type AttributeMap map[string]interface{}

// Has reports whether name is set.
func (am AttributeMap) Has(name string) bool {
	_, has := am[name]
	return has
}

// Copy returns a shallow copy of the map, nil for a nil map.
func (am AttributeMap) Copy() AttributeMap {
	if am == nil {
		return nil
	}
	out := make(AttributeMap, len(am))
	for k, v := range am {
		out[k] = v
	}
	return out
}

// String returns the string attribute name, or the empty string if it is unset.
func (am AttributeMap) String(name string) string {
	x := am[name]
	if x == nil {
		return ""
	}

	s, ok := x.(string)
	if ok {
		return s
	}

	panic(fmt.Errorf("wanted a string for (%s) but got (%v) %T", name, x, x))
}

// Int returns the integer attribute name, or def if it is unset.
func (am AttributeMap) Int(name string, def int) int {
	x, has := am[name]
	if !has {
		return def
	}

	v, ok := x.(int)
	if ok {
		return v
	}

	v2, ok := x.(float64)
	if ok {
		// json numbers always decode as float64
		return int(v2)
	}

	panic(fmt.Errorf("wanted an int for (%s) but got (%v) %T", name, x, x))
}

// Float64 returns the numeric attribute name, or def if it is unset.
func (am AttributeMap) Float64(name string, def float64) float64 {
	x, has := am[name]
	if !has {
		return def
	}

	switch v := x.(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	case int64:
		return float64(v)
	}

	panic(fmt.Errorf("wanted a float64 for (%s) but got (%v) %T", name, x, x))
}

// Bool returns the boolean attribute name, or def if it is unset.
func (am AttributeMap) Bool(name string, def bool) bool {
	x, has := am[name]
	if !has {
		return def
	}

	v, ok := x.(bool)
	if ok {
		return v
	}

	panic(fmt.Errorf("wanted a bool for (%s) but got (%v) %T", name, x, x))
}
