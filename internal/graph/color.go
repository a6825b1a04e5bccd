package graph

import (
	"fmt"
	"math/rand"
)

// RandomColor returns an opaque CSS color for a newly added series.
func RandomColor() string {
	return fmt.Sprintf("rgb(%d, %d, %d)", rand.Intn(256), rand.Intn(256), rand.Intn(256))
}
