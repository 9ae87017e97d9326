package libzfs

import (
	"context"
	"strings"

	"github.com/firefly-engineering/beadm/internal/dataset"
)

// Pool is a handle on a storage pool.
type Pool struct {
	h     *Handle
	name  string
	valid bool
}

// OpenPool returns an owned handle on the named pool.
func OpenPool(ctx context.Context, h *Handle, name string) (*Pool, error) {
	if _, err := h.zpool(ctx, "list", "-H", "-o", "name", name); err != nil {
		return nil, err
	}
	if err := h.acquire(); err != nil {
		return nil, err
	}
	return &Pool{h: h, name: name, valid: true}, nil
}

// Close releases the pool handle. Closing twice returns ErrClosed.
func (p *Pool) Close() error {
	if !p.valid {
		return ErrClosed
	}
	p.valid = false
	p.h.release()
	return nil
}

// Name returns the pool name.
func (p *Pool) Name() string {
	return p.name
}

// Property returns a pool property, or "" when it is unset.
func (p *Pool) Property(ctx context.Context, key string) (string, error) {
	if !p.valid {
		return "", ErrClosed
	}
	out, err := p.h.zpool(ctx, "get", "-H", "-o", "value", key, p.name)
	if err != nil {
		return "", err
	}
	return unsetDash(strings.TrimSpace(string(out))), nil
}

// SetProperty sets a pool property. An empty value removes a user property.
func (p *Pool) SetProperty(ctx context.Context, key, value string) error {
	if !p.valid {
		return ErrClosed
	}
	_, err := p.h.zpool(ctx, "set", key+"="+value, p.name)
	return err
}

// Bootfs returns the dataset the pool boots by default.
func (p *Pool) Bootfs(ctx context.Context) (dataset.Name, bool, error) {
	return p.DatasetProperty(ctx, "bootfs")
}

// SetBootfs points the pool's default boot dataset at name.
func (p *Pool) SetBootfs(ctx context.Context, name dataset.Name) error {
	return p.SetProperty(ctx, "bootfs", name.String())
}

// DatasetProperty reads a property whose value is a dataset name. Values
// that are not valid dataset names are reported as unset.
func (p *Pool) DatasetProperty(ctx context.Context, key string) (dataset.Name, bool, error) {
	v, err := p.Property(ctx, key)
	if err != nil || v == "" {
		return dataset.Name{}, false, err
	}
	n, err := dataset.New(v)
	if err != nil {
		return dataset.Name{}, false, nil
	}
	return n, true, nil
}
