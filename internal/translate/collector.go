package translate

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/samber/lo"
)

// Collector accumulates translation failures across methods. It is safe for
// concurrent use.
type Collector struct {
	mu        sync.Mutex
	errs      []error
	dropped   int
	maxErrors int
}

// NewCollector creates a collector that keeps at most maxErrors errors.
func NewCollector(maxErrors int) *Collector {
	if maxErrors <= 0 {
		maxErrors = 10 // Default: keep the first 10 errors
	}
	return &Collector{maxErrors: maxErrors}
}

// Add records an error. Nil errors are ignored.
func (c *Collector) Add(err error) {
	if err == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.errs) >= c.maxErrors {
		c.dropped++
		return
	}
	c.errs = append(c.errs, err)
}

// Errors returns the kept errors in the order they were added
func (c *Collector) Errors() []error {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]error, len(c.errs))
	copy(out, c.errs)
	return out
}

// HasErrors returns true if any error was added
func (c *Collector) HasErrors() bool {
	return c.Count() > 0
}

// Count returns the number of errors added, including dropped ones
func (c *Collector) Count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.errs) + c.dropped
}

// Err joins the kept errors into one, or returns nil.
func (c *Collector) Err() error {
	return errors.Join(c.Errors()...)
}

// Summary describes the collected errors grouped by kind, e.g.
// "3 errors (2 unsupported opcode, 1 stack model violation)".
func (c *Collector) Summary() string {
	errs := c.Errors()
	total := c.Count()
	noun := "errors"
	if total == 1 {
		noun = "error"
	}

	groups := lo.GroupBy(errs, func(err error) string {
		var te *Error
		if errors.As(err, &te) {
			return te.Kind.String()
		}
		return "other"
	})
	if len(groups) == 0 {
		return fmt.Sprintf("%d %s", total, noun)
	}
	kinds := lo.Keys(groups)
	sort.Strings(kinds)
	parts := lo.Map(kinds, func(kind string, _ int) string {
		return fmt.Sprintf("%d %s", len(groups[kind]), kind)
	})
	return fmt.Sprintf("%d %s (%s)", total, noun, strings.Join(parts, ", "))
}

// Report writes every kept error and a summary line to w.
func (c *Collector) Report(w io.Writer, useColor bool) {
	for _, err := range c.Errors() {
		var te *Error
		if errors.As(err, &te) {
			fmt.Fprint(w, te.Format(useColor))
		} else {
			fmt.Fprintf(w, "error: %v\n", err)
		}
	}
	c.mu.Lock()
	dropped := c.dropped
	c.mu.Unlock()
	if dropped > 0 {
		fmt.Fprintf(w, "... and %d more\n", dropped)
	}
	fmt.Fprintf(w, "translation failed: %s\n", c.Summary())
}
