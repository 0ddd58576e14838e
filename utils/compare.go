package utils

import (
	"regexp"
	"time"
)

// Scalar comparison with numeric promotion. The ok result reports
// whether the two values were comparable at all - callers turn a
// false ok into a type error carrying their own context.

// Comparison table
// LHS   RHS  -> Promoted
// int   int  -> lhs < rhs
// int   float -> float(lhs) < rhs
// float int  -> lhs < float(rhs)
// float float -> lhs < rhs

func intLt(lhs int64, b interface{}) (bool, bool) {
	switch b.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		rhs, _ := ToInt64(b)
		return lhs < rhs, true
	case float64, float32:
		rhs, _ := ToFloat(b)
		return float64(lhs) < rhs, true
	}
	return false, false
}

func intEq(lhs int64, b interface{}) (bool, bool) {
	switch t := b.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		rhs, _ := ToInt64(b)
		return lhs == rhs, true
	case float64, float32:
		rhs, _ := ToFloat(b)
		return float64(lhs) == rhs, true
	case bool:
		return lhs != 0 == t, true
	}
	return false, false
}

func Lt(a interface{}, b interface{}) (bool, bool) {
	// Nulls sort before everything, including each other. This
	// keeps filters over sparse columns well defined.
	if IsNil(a) {
		return !IsNil(b), true
	}
	if IsNil(b) {
		return false, true
	}

	switch t := a.(type) {
	case string:
		rhs, ok := b.(string)
		if ok {
			return t < rhs, true
		}

		// If it is integer like, coerce to int.
	case bool, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		lhs, ok := ToInt64(t)
		if ok {
			return intLt(lhs, b)
		}

	case float64, float32:
		lhs, _ := ToFloat(t)
		rhs, ok := ToFloat(b)
		if ok {
			return lhs < rhs, true
		}

	case time.Time:
		rhs, ok := toTime(b)
		if ok {
			return t.Before(*rhs), true
		}

	case *time.Time:
		rhs, ok := toTime(b)
		if ok {
			return t.Before(*rhs), true
		}
	}

	return false, false
}

func Eq(a interface{}, b interface{}) (bool, bool) {
	// Null equals only Null.
	if IsNil(a) {
		return IsNil(b), true
	}
	if IsNil(b) {
		return false, true
	}

	switch t := a.(type) {
	case string:
		rhs, ok := b.(string)
		if ok {
			return t == rhs, true
		}

	case bool:
		rhs, ok := b.(bool)
		if ok {
			return t == rhs, true
		}
		lhs, _ := ToInt64(t)
		return intEq(lhs, b)

	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		lhs, ok := ToInt64(t)
		if ok {
			return intEq(lhs, b)
		}

	case float64, float32:
		lhs, _ := ToFloat(t)
		rhs, ok := ToFloat(b)
		if ok {
			return lhs == rhs, true
		}

	case time.Time:
		rhs, ok := toTime(b)
		if ok {
			return t.Equal(*rhs), true
		}

	case *time.Time:
		rhs, ok := toTime(b)
		if ok {
			return t.Equal(*rhs), true
		}
	}

	return false, false
}

// The truth value of a cell. Nulls, zeros, empty strings and empty
// slices are false, everything else is true.
func Bool(a interface{}) bool {
	if IsNil(a) {
		return false
	}

	switch t := a.(type) {
	case bool:
		return t
	case string:
		return len(t) > 0
	case *string:
		return len(*t) > 0
	}

	a_float, ok := ToFloat(a)
	if ok {
		return a_float != 0
	}

	if IsArray(a) {
		slice, _ := ToSlice(a)
		return len(slice) > 0
	}

	return true
}

// Regex match of a target value against a pattern. Non string targets
// never match (rather than erroring out) so sparse columns can be
// matched safely.
func Match(regex *regexp.Regexp, target interface{}) bool {
	target_str, ok := ToString(target)
	if !ok {
		return false
	}

	return regex.MatchString(target_str)
}

func toTime(a interface{}) (*time.Time, bool) {
	switch t := a.(type) {
	case time.Time:
		return &t, true
	case *time.Time:
		return t, true
	default:
		return nil, false
	}
}
