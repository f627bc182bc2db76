package subnetservice

import (
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/p2p/enode"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prysmaticlabs/subnet-relay/async/event"
	"github.com/prysmaticlabs/subnet-relay/consensus-types/primitives"
	"github.com/prysmaticlabs/subnet-relay/time/slots"
)

// discoveryLongTTLEpochs is how far ahead the startup DiscoverPeers batch for
// permanent subnets looks, since those subnets never expire on their own.
const discoveryLongTTLEpochs = 2

// Config bundles the external dependencies Service needs at construction:
// the node's own identity (to derive its permanent subnets), the genesis
// time driving the slot clock, and the optional hooks for metrics and peer
// awareness.
type Config struct {
	NodeID      enode.ID
	GenesisTime time.Time
	ClockOpts   []slots.ClockOpt

	// WellPeered reports whether a subnet already has enough peers, so the
	// discovery coordinator can skip it. Nil means "always discover."
	WellPeered func(Subnet) bool

	// Metrics, if non-nil, is used as-is. Otherwise NewMetrics(Registerer)
	// builds one.
	Metrics    *Metrics
	Registerer prometheus.Registerer
}

// queryRequest is how external callers read scheduler state without taking
// a lock: the run loop itself executes fn and signals completion, so reads
// are serialized with every Submit/Tick the same way writes are (spec §5,
// "share memory by communicating").
type queryRequest struct {
	fn   func()
	done chan struct{}
}

// Service is the subnet subscription service's entry point: it owns the
// slot clock, the permanent subnet set, both schedulers, and the single
// goroutine that mutates their state. External callers only ever reach that
// state through channels.
type Service struct {
	clock       *clockAdapter
	permanent   *permanentSubnets
	attestation *attestationScheduler
	syncSched   *syncScheduler
	discovery   *discoveryCoordinator
	metrics     *Metrics

	feed event.Feed

	attestationSubsCh chan []AttestationSubscription
	syncSubsCh        chan []SyncCommitteeSubscription
	queryCh           chan queryRequest

	// pendingAttestation holds batches received while the clock was
	// unavailable (pre-genesis). They are retried -- never dropped -- as
	// soon as CurrentSlot succeeds (spec §7, ClockUnavailable: "enqueue,
	// retry next tick").
	pendingAttestation [][]AttestationSubscription

	startOnce sync.Once
	stopOnce  sync.Once
	stop      chan struct{}
	stopped   chan struct{}
}

// NewService wires a Service from cfg. It does not start the run loop; call
// Start for that.
func NewService(cfg Config) (*Service, error) {
	permanent, err := newPermanentSubnets(cfg.NodeID)
	if err != nil {
		return nil, err
	}

	clock := newClockAdapter(slots.NewClock(cfg.GenesisTime, cfg.ClockOpts...))
	discovery := newDiscoveryCoordinator(cfg.WellPeered)

	metrics := cfg.Metrics
	if metrics == nil {
		metrics = NewMetrics(cfg.Registerer)
	}

	return &Service{
		clock:       clock,
		permanent:   permanent,
		attestation: newAttestationScheduler(permanent, discovery),
		syncSched:   newSyncScheduler(discovery),
		discovery:   discovery,
		metrics:     metrics,

		attestationSubsCh: make(chan []AttestationSubscription, 16),
		syncSubsCh:        make(chan []SyncCommitteeSubscription, 16),
		queryCh:           make(chan queryRequest),

		stop:    make(chan struct{}),
		stopped: make(chan struct{}),
	}, nil
}

// Start launches the run loop. Calling Start more than once has no further
// effect.
func (s *Service) Start() {
	s.startOnce.Do(func() {
		go s.runLoop()
	})
}

// Stop signals the run loop to exit and blocks until it has. Calling Stop
// more than once is safe.
func (s *Service) Stop() {
	s.stopOnce.Do(func() {
		close(s.stop)
	})
	<-s.stopped
}

// ValidatorSubscriptions submits a batch of attestation-duty subscriptions.
// It never returns an error: unresolvable entries are dropped and logged
// internally (spec §7).
func (s *Service) ValidatorSubscriptions(subs []AttestationSubscription) {
	select {
	case s.attestationSubsCh <- subs:
	case <-s.stopped:
		log.Warn("Dropping attestation subscriptions: service is stopped")
	}
}

// SyncCommitteeSubscriptions submits a batch of sync-committee
// subscriptions. Same fire-and-forget contract as ValidatorSubscriptions.
func (s *Service) SyncCommitteeSubscriptions(subs []SyncCommitteeSubscription) {
	select {
	case s.syncSubsCh <- subs:
	case <-s.stopped:
		log.Warn("Dropping sync committee subscriptions: service is stopped")
	}
}

// Subscribe registers ch to receive every Message the service emits, in
// order. It mirrors async/event.Feed.Subscribe.
func (s *Service) Subscribe(ch chan<- Message) event.Subscription {
	return s.feed.Subscribe(ch)
}

// PermanentSubscriptions returns the node's fixed attestation subnets.
func (s *Service) PermanentSubscriptions() []Subnet {
	var out []Subnet
	s.query(func() { out = s.permanent.Subscriptions() })
	return out
}

// Subscriptions returns every subnet the service currently tracks:
// permanent, short-lived attestation, and sync-committee. Short-lived
// attestation subnets whose deferred Subscribe has not fired yet are
// included.
func (s *Service) Subscriptions() []Subnet {
	var out []Subnet
	s.query(func() {
		out = append(out, s.permanent.Subscriptions()...)
		out = append(out, s.attestation.Subscriptions()...)
		out = append(out, s.syncSched.Subscriptions()...)
	})
	return out
}

// IsSubscribed reports whether subnet is currently tracked in any form
// (permanent, short-lived, or sync-committee), including a short-lived
// attestation subnet whose deferred Subscribe has not fired yet.
func (s *Service) IsSubscribed(subnet Subnet) bool {
	var ok bool
	s.query(func() {
		switch subnet.Kind {
		case SyncCommitteeSubnetKind:
			ok = s.syncSched.IsSubscribed(subnet)
		default:
			ok = s.permanent.Contains(subnet) || s.attestation.IsSubscribed(subnet)
		}
	})
	return ok
}

// query runs fn on the run-loop goroutine and waits for it to finish, giving
// external readers a consistent view of scheduler state without a lock. If
// the service has already stopped, fn never runs and query returns
// immediately.
func (s *Service) query(fn func()) {
	done := make(chan struct{})
	select {
	case s.queryCh <- queryRequest{fn: fn, done: done}:
		<-done
	case <-s.stopped:
	}
}

// runLoop is the single goroutine that owns every mutable field of the
// service. All scheduler mutation happens here and nowhere else (spec §5).
func (s *Service) runLoop() {
	defer close(s.stopped)
	defer s.feed.Close()

	startSlot, _ := s.clock.CurrentSlot()
	longTTL := startSlot + primitives.Slot(discoveryLongTTLEpochs*slotsPerEpoch())
	s.emit(s.permanent.startupMessages(longTTL))

	timer := time.NewTimer(s.clock.DurationToNextSlot())
	defer timer.Stop()

	for {
		select {
		case <-s.stop:
			return

		case subs := <-s.attestationSubsCh:
			s.pendingAttestation = append(s.pendingAttestation, subs)
			s.flushPendingAttestation()

		case subs := <-s.syncSubsCh:
			s.emit(s.syncSched.Submit(subs))

		case req := <-s.queryCh:
			req.fn()
			close(req.done)

		case <-timer.C:
			s.flushPendingAttestation()
			if slot, ok := s.clock.CurrentSlot(); ok {
				msgs := s.attestation.Tick(slot)
				msgs = append(msgs, s.syncSched.Tick(slot)...)
				s.emit(msgs)
			}
			timer.Reset(s.clock.DurationToNextSlot())
		}
	}
}

// flushPendingAttestation processes every queued attestation batch against
// the current slot. If the clock is still unavailable, the batches stay
// queued for the next attempt instead of being dropped (spec §7,
// ClockUnavailable: "enqueue, retry next tick").
func (s *Service) flushPendingAttestation() {
	if len(s.pendingAttestation) == 0 {
		return
	}
	slot, ok := s.clock.CurrentSlot()
	if !ok {
		log.WithError(errClockUnavailable).Warn("Slot clock not yet started; attestation subscriptions remain queued")
		return
	}
	var msgs []Message
	for _, batch := range s.pendingAttestation {
		msgs = append(msgs, s.attestation.Submit(batch, slot)...)
	}
	s.pendingAttestation = nil
	s.emit(msgs)
}

// emit updates metrics and forwards each message to the output feed, in
// order. Feed.Send blocks until every current subscriber has received the
// value, so subscribers are expected to keep up.
func (s *Service) emit(msgs []Message) {
	for _, m := range msgs {
		switch m.Kind {
		case Subscribe:
			s.metrics.SubscribeTotal.Inc()
		case Unsubscribe:
			s.metrics.UnsubscribeTotal.Inc()
		case DiscoverPeers:
			s.metrics.DiscoveryBatchSize.Observe(float64(len(m.Targets)))
		}
		s.feed.Send(m)
	}
}
