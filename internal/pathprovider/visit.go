package pathprovider

import (
	"context"
	"fmt"
	"sync"
)

// CollectionClient hands out collection numbers.
type CollectionClient interface {
	NextCollection(ctx context.Context) (int, error)
}

// StaticVisit writes every device of a collection into one directory.
type StaticVisit struct {
	beamline string
	root     string
	client   CollectionClient

	mu         sync.RWMutex
	collection int
	started    bool
}

// NewStaticVisit creates a provider rooted at root. A nil client uses a
// LocalCollectionClient starting at zero.
func NewStaticVisit(beamline, root string, client CollectionClient) *StaticVisit {
	if client == nil {
		client = NewLocalCollectionClient(0)
	}
	return &StaticVisit{beamline: beamline, root: root, client: client}
}

// Root returns the output directory.
func (v *StaticVisit) Root() string {
	return v.root
}

// Update draws the next collection number.
func (v *StaticVisit) Update(ctx context.Context) error {
	n, err := v.client.NextCollection(ctx)
	if err != nil {
		return fmt.Errorf("starting collection: %w", err)
	}
	v.mu.Lock()
	v.collection = n
	v.started = true
	v.mu.Unlock()
	return nil
}

// Collection returns the current collection number.
func (v *StaticVisit) Collection() (int, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.collection, v.started
}

// Info returns the directory and file stem for deviceName.
func (v *StaticVisit) Info(deviceName string) (Info, error) {
	n, ok := v.Collection()
	if !ok {
		return Info{}, ErrNoCollection
	}
	return Info{
		Directory: v.root,
		Filename:  fmt.Sprintf("%s-%d-%s", v.beamline, n, deviceName),
	}, nil
}

// LocalCollectionClient is an in-process counter.
type LocalCollectionClient struct {
	mu   sync.Mutex
	next int
}

// NewLocalCollectionClient returns a counter whose first number is start.
func NewLocalCollectionClient(start int) *LocalCollectionClient {
	return &LocalCollectionClient{next: start}
}

// NextCollection returns the next number.
func (c *LocalCollectionClient) NextCollection(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	n := c.next
	c.next++
	return n, nil
}
