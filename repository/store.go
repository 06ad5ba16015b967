package repository

import (
	"context"
	"strconv"
)

// Partition is an independently keyed namespace within a Store.
type Partition string

const (
	Customers Partition = "customers"
	Quotes    Partition = "quotes"
	Policies  Partition = "policies"
	Claims    Partition = "claims"
	Messages  Partition = "messages"
)

// Partitions lists every partition in a stable order.
var Partitions = []Partition{Customers, Quotes, Policies, Claims, Messages}

var (
	kinds = map[Partition]string{
		Customers: "customer",
		Quotes:    "quote",
		Policies:  "policy",
		Claims:    "claim",
		Messages:  "message",
	}
	idPrefixes = map[Partition]string{
		Customers: "cust",
		Quotes:    "quote",
		Policies:  "policy",
		Claims:    "claim",
	}
)

// Kind is the singular record name stored in the partition.
func (p Partition) Kind() string {
	if k, ok := kinds[p]; ok {
		return k
	}
	return string(p)
}

// FormatID renders the n-th sequence value of the partition as a record id.
func (p Partition) FormatID(n uint64) string {
	return idPrefixes[p] + strconv.FormatUint(n, 10)
}

// Tx is a unit of work scoped to a single View or Update call.
// Get returns a nil value without error when the key is absent.
type Tx interface {
	Get(p Partition, key string) ([]byte, error)
	Put(p Partition, key string, value []byte) error
	Delete(p Partition, key string) error
	ForEach(p Partition, fn func(key string, value []byte) error) error
	NextSequence(p Partition) (uint64, error)
}

// Store owns every persisted record. Update calls are serialized with each
// other; the whole callback commits or nothing does.
type Store interface {
	View(ctx context.Context, fn func(tx Tx) error) error
	Update(ctx context.Context, fn func(tx Tx) error) error
	Ping(ctx context.Context) error
	Close() error
}

// NextID reserves a fresh id in p.
func NextID(tx Tx, p Partition) (string, error) {
	n, err := tx.NextSequence(p)
	if err != nil {
		return "", err
	}
	return p.FormatID(n), nil
}
