package repository

import (
	"encoding/json"
	"fmt"

	"github.com/fastygo/interceptor/domain"
)

// Records is a typed view over one partition holding JSON-encoded T values.
type Records[T any] struct {
	Partition Partition
}

var (
	CustomerRecords = Records[domain.Customer]{Partition: Customers}
	QuoteRecords    = Records[domain.Quote]{Partition: Quotes}
	PolicyRecords   = Records[domain.Policy]{Partition: Policies}
	ClaimRecords    = Records[domain.Claim]{Partition: Claims}
	MessageRecords  = Records[domain.Message]{Partition: Messages}
)

// Get returns nil when key is not stored.
func (r Records[T]) Get(tx Tx, key string) (*T, error) {
	raw, err := tx.Get(r.Partition, key)
	if err != nil {
		return nil, domain.Unavailable(err)
	}
	if raw == nil {
		return nil, nil
	}
	var out T
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, domain.WrapError(domain.ErrCodeInternal, fmt.Sprintf("corrupt %s record %q", r.Partition.Kind(), key), err)
	}
	return &out, nil
}

func (r Records[T]) Put(tx Tx, key string, value *T) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return domain.WrapError(domain.ErrCodeInternal, "encode "+r.Partition.Kind(), err)
	}
	return domain.Unavailable(tx.Put(r.Partition, key, raw))
}

func (r Records[T]) Delete(tx Tx, key string) error {
	return domain.Unavailable(tx.Delete(r.Partition, key))
}

// All returns every record of the partition in store order.
func (r Records[T]) All(tx Tx) ([]T, error) {
	out := make([]T, 0)
	err := tx.ForEach(r.Partition, func(key string, value []byte) error {
		var item T
		if err := json.Unmarshal(value, &item); err != nil {
			return domain.WrapError(domain.ErrCodeInternal, fmt.Sprintf("corrupt %s record %q", r.Partition.Kind(), key), err)
		}
		out = append(out, item)
		return nil
	})
	if err != nil {
		return nil, domain.Unavailable(err)
	}
	return out, nil
}

// Filter returns the records for which keep reports true.
func (r Records[T]) Filter(tx Tx, keep func(*T) bool) ([]T, error) {
	all, err := r.All(tx)
	if err != nil {
		return nil, err
	}
	out := all[:0]
	for i := range all {
		if keep(&all[i]) {
			out = append(out, all[i])
		}
	}
	return out, nil
}

// MessageSize sums the serialized payload length of every stored message.
func MessageSize(tx Tx) (int, error) {
	messages, err := MessageRecords.All(tx)
	if err != nil {
		return 0, err
	}
	total := 0
	for i := range messages {
		total += messages[i].PayloadSize()
	}
	return total, nil
}
