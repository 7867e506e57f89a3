// ABOUTME: Due date parsing shared by the CLI and MCP tools
// ABOUTME: Accepts YYYY-MM-DD or English phrases such as "tomorrow" and "in 3 days"
package app

import (
	"fmt"
	"strings"
	"time"

	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"
)

var dueParser = func() *when.Parser {
	w := when.New(nil)
	w.Add(en.All...)
	w.Add(common.All...)
	return w
}()

// ParseDue turns input into a YYYY-MM-DD date relative to now. Empty input
// yields an empty date.
func ParseDue(input string, now time.Time) (string, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return "", nil
	}
	if d, err := time.Parse(time.DateOnly, input); err == nil {
		return d.Format(time.DateOnly), nil
	}

	r, err := dueParser.Parse(input, now)
	if err != nil {
		return "", fmt.Errorf("failed to parse date %q: %w", input, err)
	}
	if r == nil {
		return "", fmt.Errorf("could not understand date %q", input)
	}
	return r.Time.Format(time.DateOnly), nil
}
