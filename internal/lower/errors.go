package lower

import (
	"errors"
	"fmt"
)

// ErrInvariant marks a broken frontend contract: input that the checker is
// supposed to rule out reached the lowering. Callers match it with
// errors.Is; there is no recovery short of fixing the frontend.
var ErrInvariant = errors.New("lower: invariant violation")

func invariantf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvariant, fmt.Sprintf(format, args...))
}
