package deploy

import (
	"fmt"
	"io"
)

// Write prints one "Number of <resource> <operation>: N" line per non-empty
// list. With verbose set, each count is followed by the affected items.
func (r *Result) Write(w io.Writer, verbose bool) error {
	for _, pass := range r.Passes {
		lists := []struct {
			op    string
			items []string
		}{
			{"deleted", pass.Deleted},
			{"updated", pass.Updated},
			{"created", pass.Created},
		}

		for _, l := range lists {
			if len(l.items) == 0 {
				continue
			}

			if _, err := fmt.Fprintf(w, "Number of %s %s: %d\n", pass.Resource, l.op, len(l.items)); err != nil {
				return err
			}

			if !verbose {
				continue
			}

			if _, err := fmt.Fprintf(w, "List of %s %s:\n", pass.Resource, l.op); err != nil {
				return err
			}
			for _, item := range l.items {
				if _, err := fmt.Fprintf(w, "  - %s\n", item); err != nil {
					return err
				}
			}
		}
	}

	return nil
}

// Count returns the total number of items deleted, updated and created.
func (r *Result) Count() int {
	n := 0
	for _, p := range r.Passes {
		n += len(p.Deleted) + len(p.Updated) + len(p.Created)
	}

	return n
}
