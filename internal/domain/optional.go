package domain

import (
	"encoding/json"
	"math"
	"strconv"
)

// Number is the set of value types an Optional can hold.
type Number interface {
	~int | ~float64
}

// Optional holds a statistic that may be undefined because the group it was
// computed over was empty. The zero value is undefined.
type Optional[T Number] struct {
	value T
	ok    bool
}

// Defined wraps a computed value.
func Defined[T Number](v T) Optional[T] {
	return Optional[T]{value: v, ok: true}
}

// Get returns the value and whether it is defined.
func (o Optional[T]) Get() (T, bool) {
	return o.value, o.ok
}

func (o Optional[T]) IsDefined() bool { return o.ok }

// Float returns the value as float64, or NaN when undefined. Only for
// consumers that treat NaN as a gap, such as plotting.
func (o Optional[T]) Float() float64 {
	if !o.ok {
		return math.NaN()
	}
	return float64(o.value)
}

// String renders the value, or "nan" when undefined.
func (o Optional[T]) String() string {
	if !o.ok {
		return "nan"
	}
	switch v := any(o.value).(type) {
	case int:
		return strconv.Itoa(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return strconv.FormatFloat(float64(o.value), 'f', -1, 64)
	}
}

func (o Optional[T]) MarshalJSON() ([]byte, error) {
	if !o.ok {
		return []byte("null"), nil
	}
	return json.Marshal(o.value)
}

func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*o = Optional[T]{}
		return nil
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*o = Defined(v)
	return nil
}
