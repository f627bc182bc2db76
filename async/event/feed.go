// Package event implements a one-to-many, type-checked event feed, in the
// spirit of go-ethereum's event.Feed (vendored into Prysm's async/event).
// The subnet service uses a Feed to deliver its ordered output stream to any
// number of downstream consumers (gossip, discovery, ENR) without those
// consumers needing direct knowledge of each other.
package event

import (
	"errors"
	"reflect"
	"sync"
)

var errBadChannel = errors.New("event: Subscribe argument does not have sendable channel type")

// feedTypeError is raised, as a panic, when Send or Subscribe is called with
// a value of the wrong type for the feed.
type feedTypeError struct {
	got, want reflect.Type
	op        string
}

func (e feedTypeError) Error() string {
	return "event: wrong type in " + e.op + " got " + e.got.String() + ", want " + e.want.String()
}

// Feed implements one-to-many subscriptions where the carried values are
// all required to be of the same type. The zero value is ready to use.
type Feed struct {
	mu     sync.Mutex
	typ    reflect.Type
	subs   []*feedSub
	closed bool
}

func (f *Feed) typeCheck(op string, rt reflect.Type) {
	if f.typ == nil {
		f.typ = rt
		return
	}
	if !f.typ.AssignableTo(rt) && !rt.AssignableTo(f.typ) {
		panic(feedTypeError{op: op, got: rt, want: f.typ})
	}
}

// Subscribe adds a channel to the feed. Future sends on the feed will be
// delivered on the channel until the subscription is canceled. All channels
// added must have the same element type.
func (f *Feed) Subscribe(channel interface{}) Subscription {
	chanval := reflect.ValueOf(channel)
	chantyp := chanval.Type()
	if chantyp.Kind() != reflect.Chan || chantyp.ChanDir()&reflect.SendDir == 0 {
		panic(errBadChannel)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.typeCheck("Subscribe", chantyp.Elem())

	sub := &feedSub{feed: f, channel: chanval, err: make(chan error, 1)}
	f.subs = append(f.subs, sub)
	return sub
}

type feedSub struct {
	feed    *Feed
	channel reflect.Value
	errOnce sync.Once
	err     chan error
}

func (sub *feedSub) Unsubscribe() {
	sub.errOnce.Do(func() {
		sub.feed.remove(sub)
		close(sub.err)
	})
}

func (sub *feedSub) Err() <-chan error {
	return sub.err
}

func (f *Feed) remove(sub *feedSub) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, s := range f.subs {
		if s == sub {
			f.subs = append(f.subs[:i], f.subs[i+1:]...)
			return
		}
	}
}

// Send delivers value to every subscribed channel, in subscription order,
// blocking until each has received it. It returns the number of subscribers
// the value was sent to. Send on a closed feed is a no-op returning 0.
func (f *Feed) Send(value interface{}) (nsent int) {
	rvalue := reflect.ValueOf(value)

	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return 0
	}
	f.typeCheck("Send", rvalue.Type())
	subs := make([]*feedSub, len(f.subs))
	copy(subs, f.subs)
	f.mu.Unlock()

	for _, sub := range subs {
		sub.channel.Send(rvalue)
		nsent++
	}
	return nsent
}

// Close terminates the feed, closing it to future Sends. Already connected
// subscribers remain connected and can still Unsubscribe; sends after Close
// are no-ops returning 0.
func (f *Feed) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
}
