// utils.go
// Purpose: Small helpers shared by the threads: trimming zero-padded frames and
// deep copies for values handed to more than one goroutine.
package common

import (
	"fmt"

	"github.com/tiendc/go-deepcopy"
)

func TrimZeros(b []byte) []byte {
	i := len(b)
	for i > 0 && b[i-1] == 0 {
		i--
	}
	return b[:i]
}

// DeepCopy returns a copy of src sharing no memory with it, unexported fields
// included.
func DeepCopy[T any](src T) (T, error) {
	var dst T
	if err := deepcopy.Copy(&dst, &src); err != nil {
		return dst, fmt.Errorf("deep copy %T: %w", src, err)
	}
	return dst, nil
}
