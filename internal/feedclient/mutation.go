package feedclient

// MutationKind names an optimistic user action.
type MutationKind string

const (
	KindLike    MutationKind = "like"
	KindComment MutationKind = "comment"
)

// MutationStatus tracks a mutation from local apply to server answer.
type MutationStatus string

const (
	MutationPending   MutationStatus = "pending"
	MutationConfirmed MutationStatus = "confirmed"
	MutationFailed    MutationStatus = "failed"
)

// DefaultMutationLogLimit bounds the mutation log. Settled entries beyond it
// are dropped oldest first; pending entries are always kept.
const DefaultMutationLogLimit = 256

// WithMutationLogLimit overrides DefaultMutationLogLimit. Values below one
// are ignored.
func WithMutationLogLimit(n int) Option {
	return func(c *Controller) {
		if n > 0 {
			c.logLimit = n
		}
	}
}

// Mutation is one entry of the controller's mutation log. Err is set when
// Status is MutationFailed.
type Mutation struct {
	ID      string
	Kind    MutationKind
	EventID string
	Status  MutationStatus
	Err     error
}

// Mutations returns a copy of the mutation log, oldest first.
func (c *Controller) Mutations() []Mutation {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Mutation(nil), c.mutations...)
}

// Pending reports how many mutations are still waiting for the server.
func (c *Controller) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pending
}
