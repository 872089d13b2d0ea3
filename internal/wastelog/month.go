package wastelog

import (
	"fmt"
	"time"

	"meal-waste-workers/internal/common/errors"
)

// MonthNames lists the accepted month names in calendar order.
var MonthNames = func() []string {
	names := make([]string, 12)
	for m := time.January; m <= time.December; m++ {
		names[m-1] = m.String()
	}
	return names
}()

// ParseMonth maps an English month name (January..December, exact case) to 1..12.
func ParseMonth(name string) (int, error) {
	for i, n := range MonthNames {
		if n == name {
			return i + 1, nil
		}
	}
	return 0, errors.NewInvalidPayloadError(fmt.Sprintf(
		"invalid month name %q, use a full month name such as January or February", name))
}
