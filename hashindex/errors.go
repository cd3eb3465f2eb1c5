package hashindex

import "fmt"

// ErrCapacityExhausted is returned when the table would have to grow past the
// last capacity of its prime ladder. The table is unchanged when it is returned.
type ErrCapacityExhausted struct {
	Capacity int
	Len      int
}

func (e *ErrCapacityExhausted) Error() string {
	return fmt.Sprintf("hashindex: capacity exhausted at %d slots (%d keys)", e.Capacity, e.Len)
}
