package utils

// Arithmetic over dynamically typed cells. Integer operands stay
// integers so remainder and truncating division behave the way column
// expressions expect, mixed operands promote to float64.

// LHS    RHS
// int    int  -> lhs + rhs
// int    float -> float(lhs) + rhs
// float  int -> lhs + float(rhs)
// float  float -> lhs + rhs

func intArith(lhs int64, b interface{},
	int_op func(a, b int64) int64,
	float_op func(a, b float64) float64) (interface{}, bool) {
	switch b.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		rhs, _ := ToInt64(b)
		return int_op(lhs, rhs), true

	case float64, float32:
		rhs, _ := ToFloat(b)
		return float_op(float64(lhs), rhs), true
	}

	return nil, false
}

func floatArith(a interface{}, b interface{},
	float_op func(a, b float64) float64) (interface{}, bool) {
	lhs, ok := ToFloat(a)
	if !ok {
		return nil, false
	}
	rhs, ok := ToFloat(b)
	if !ok {
		return nil, false
	}
	return float_op(lhs, rhs), true
}

func dispatchArith(a interface{}, b interface{},
	int_op func(a, b int64) int64,
	float_op func(a, b float64) float64) (interface{}, bool) {
	switch t := a.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		lhs, ok := ToInt64(t)
		if ok {
			return intArith(lhs, b, int_op, float_op)
		}

	case float64, float32:
		switch b.(type) {
		case int, int8, int16, int32, int64, uint, uint8, uint16,
			uint32, uint64, float64, float32:
			return floatArith(t, b, float_op)
		}
	}

	return nil, false
}

func Add(a interface{}, b interface{}) (interface{}, bool) {
	// String addition is concatenation.
	a_str, ok := a.(string)
	if ok {
		b_str, ok := b.(string)
		if ok {
			return a_str + b_str, true
		}
		return nil, false
	}

	return dispatchArith(a, b,
		func(a, b int64) int64 { return a + b },
		func(a, b float64) float64 { return a + b })
}

func Sub(a interface{}, b interface{}) (interface{}, bool) {
	return dispatchArith(a, b,
		func(a, b int64) int64 { return a - b },
		func(a, b float64) float64 { return a - b })
}

func Mul(a interface{}, b interface{}) (interface{}, bool) {
	return dispatchArith(a, b,
		func(a, b int64) int64 { return a * b },
		func(a, b float64) float64 { return a * b })
}

// Div truncates like C when both operands are integers. Callers check
// for a zero denominator first.
func Div(a interface{}, b interface{}) (interface{}, bool) {
	return dispatchArith(a, b,
		func(a, b int64) int64 { return a / b },
		func(a, b float64) float64 { return a / b })
}

// Mod is integer only.
func Mod(a interface{}, b interface{}) (interface{}, bool) {
	lhs, a_ok := ToInt64(a)
	rhs, b_ok := ToInt64(b)
	if !a_ok || !b_ok || !IsInt(a) || !IsInt(b) {
		return nil, false
	}
	return lhs % rhs, true
}

// IsZero reports whether a numeric cell is exactly zero. Used to
// guard divisions.
func IsZero(a interface{}) bool {
	a_float, ok := ToFloat(a)
	return ok && a_float == 0
}
