package notify

import (
	"context"
	"sync"
)

// Delivery is a notice captured by Recorder.
type Delivery struct {
	AccountID string
	Notice    Notice
}

// Recorder keeps every notice in memory. Err, when set, is returned from
// Notify after the notice is recorded.
type Recorder struct {
	mu         sync.Mutex
	deliveries []Delivery
	Err        error
}

func (r *Recorder) Notify(_ context.Context, accountID string, n Notice) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deliveries = append(r.deliveries, Delivery{AccountID: accountID, Notice: n})
	return r.Err
}

func (r *Recorder) Deliveries() []Delivery {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Delivery(nil), r.deliveries...)
}

// For returns the notices delivered to accountID.
func (r *Recorder) For(accountID string) []Notice {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Notice
	for _, d := range r.deliveries {
		if d.AccountID == accountID {
			out = append(out, d.Notice)
		}
	}
	return out
}
