package refresh

import (
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	apperrors "github.com/five82/slayergit/internal/errors"
	"github.com/five82/slayergit/internal/logging"
	"github.com/five82/slayergit/internal/state"
)

// Notification is what one observer receives for one cycle. Every set is
// already narrowed to the kinds the observer subscribed to.
type Notification struct {
	Cycle     string
	Kinds     state.KindSet // Changed ∪ Failed
	Changed   state.KindSet
	Failed    state.KindSet
	AnyFailed bool
	Errors    map[state.Kind]error
	Duration  time.Duration
}

// Observer is notified after every cycle that touched one of its kinds.
// It runs on the coordinator goroutine and must not block for long.
type Observer interface {
	OnRefresh(Notification) error
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Notification) error

func (f ObserverFunc) OnRefresh(n Notification) error { return f(n) }

type subscription struct {
	name     string
	kinds    state.KindSet
	observer Observer
}

// Registry delivers cycle outcomes to observers in registration order.
type Registry struct {
	mu   sync.RWMutex
	subs []subscription
	log  *logrus.Entry
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{log: logging.NewLogger("observers")}
}

// Subscribe registers observer for kinds. name identifies it in logs.
func (r *Registry) Subscribe(name string, kinds state.KindSet, observer Observer) error {
	if observer == nil {
		return apperrors.InvalidRequest("observer is nil")
	}
	if kinds.Intersect(state.All).Empty() {
		return apperrors.InvalidRequest(fmt.Sprintf("observer %q subscribes to no kinds", name))
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.subs = append(r.subs, subscription{name: name, kinds: kinds.Intersect(state.All), observer: observer})
	return nil
}

// Len returns the number of subscriptions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.subs)
}

// Notify delivers outcome to every observer whose kinds intersect
// Changed ∪ Failed. Observer errors and panics are logged and returned; they
// never stop delivery to the remaining observers.
func (r *Registry) Notify(outcome Outcome) []error {
	r.mu.RLock()
	subs := make([]subscription, len(r.subs))
	copy(subs, r.subs)
	r.mu.RUnlock()

	touched := outcome.Changed.Union(outcome.Failed)
	var errs []error
	for _, sub := range subs {
		relevant := sub.kinds.Intersect(touched)
		if relevant.Empty() {
			continue
		}
		n := Notification{
			Cycle:    outcome.Cycle,
			Kinds:    relevant,
			Changed:  sub.kinds.Intersect(outcome.Changed),
			Failed:   sub.kinds.Intersect(outcome.Failed),
			Duration: outcome.Duration,
		}
		n.AnyFailed = !n.Failed.Empty()
		if n.AnyFailed {
			n.Errors = make(map[state.Kind]error, n.Failed.Len())
			for _, k := range n.Failed.Kinds() {
				n.Errors[k] = outcome.Errors[k]
			}
		}

		if err := deliver(sub, n); err != nil {
			r.log.WithFields(logrus.Fields{
				"cycle":    outcome.Cycle,
				"observer": sub.name,
				"error":    err,
			}).Warn("observer failed")
			errs = append(errs, err)
		}
	}
	return errs
}

func deliver(sub subscription, n Notification) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = apperrors.ObserverFailed(sub.name, fmt.Errorf("panic: %v", p))
		}
	}()
	if cbErr := sub.observer.OnRefresh(n); cbErr != nil {
		return apperrors.ObserverFailed(sub.name, cbErr)
	}
	return nil
}
