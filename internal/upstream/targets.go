package upstream

import "net/url"

// Targets is the immutable primary/backup pair configured at startup.
type Targets struct {
	primary *url.URL
	backup  *url.URL
}

// NewTargets parses both upstream URLs. The pair is never mutated after
// construction.
func NewTargets(primary, backup string) (*Targets, error) {
	p, err := url.Parse(primary)
	if err != nil {
		return nil, err
	}

	b, err := url.Parse(backup)
	if err != nil {
		return nil, err
	}

	return &Targets{primary: p, backup: b}, nil
}

// Primary returns the primary upstream base URL.
func (t *Targets) Primary() *url.URL {
	return t.primary
}

// Backup returns the backup upstream base URL.
func (t *Targets) Backup() *url.URL {
	return t.backup
}

// Select returns the base URL for the given routing decision.
func (t *Targets) Select(primaryHealthy bool) *url.URL {
	if primaryHealthy {
		return t.primary
	}
	return t.backup
}
