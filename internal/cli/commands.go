package cli

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/roach88/recordstore/internal/model"
)

// parseID parses a positive row id argument.
func parseID(arg, what string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id < 1 {
		return 0, NewExitError(ExitCommandError, fmt.Sprintf("invalid %s id %q", what, arg))
	}
	return id, nil
}

func parseDate(value, flag string) (model.Date, error) {
	d, err := model.ParseDate(value)
	if err != nil {
		return model.Date{}, WrapExitError(ExitCommandError, fmt.Sprintf("invalid --%s", flag), err)
	}
	return d, nil
}

// counts renders a table-name -> count map as indented lines in name
// order.
func counts[N int | int64](m map[string]N) string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	for _, name := range names {
		fmt.Fprintf(&b, "\n  %-12s %d", name, m[name])
	}
	return b.String()
}

func money(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
