package resolution

import (
	"context"
	"strconv"
	"sync"
	"time"

	id "plancheck/pkg/domain"
	dErrors "plancheck/pkg/domain-errors"
)

// Tx serializes mutations per issue: at most one concurrent writer per
// IssueResolution id. Implementations may wrap a database transaction or,
// in-memory, a sharded lock.
type Tx interface {
	RunInTx(ctx context.Context, issueID id.IssueID, fn func(store Store) error) error
}

// shardedIssueTx distributes per-issue locks across N shards keyed by a hash
// of the issue id, so unrelated issues rarely contend.
const numIssueShards = 128

// defaultIssueTxTimeout is the maximum duration for one issue transaction.
const defaultIssueTxTimeout = 5 * time.Second

type shardedIssueTx struct {
	shards  [numIssueShards]sync.Mutex
	store   Store
	timeout time.Duration
}

// NewShardedTx wraps a store with per-issue write serialization.
func NewShardedTx(store Store) Tx {
	return &shardedIssueTx{store: store}
}

func (t *shardedIssueTx) RunInTx(ctx context.Context, issueID id.IssueID, fn func(store Store) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	timeout := t.timeout
	if timeout == 0 {
		timeout = defaultIssueTxTimeout
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	shard := int(hashIssueID(issueID) % numIssueShards)
	t.shards[shard].Lock()
	defer t.shards[shard].Unlock()

	// Check again after acquiring the lock.
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	return fn(t.store)
}

// hashIssueID uses FNV-1a over the decimal form for even shard distribution.
func hashIssueID(issueID id.IssueID) uint32 {
	const (
		fnvOffset = 2166136261
		fnvPrime  = 16777619
	)
	s := strconv.FormatInt(issueID.Int64(), 10)
	h := uint32(fnvOffset)
	for i := 0; i < len(s); i++ {
		h ^= uint32(s[i])
		h *= fnvPrime
	}
	return h
}
