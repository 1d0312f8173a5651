package link

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/robertof/go-keetronics-client/device"
	"github.com/robertof/go-keetronics-client/frame"
	"github.com/robertof/go-keetronics-client/utils"
	"github.com/rs/zerolog/log"
)

const (
	DefaultRetryDelay     = 3 * time.Second
	DefaultConnectTimeout = 30 * time.Second

	eventQueueSize = 64
)

// Observer is notified of lifecycle changes. Calls happen on the Machine's goroutine.
type Observer interface {
	OnStateChanged(State)
	OnStatusMessage(string)
}

type Dispatcher interface {
	Dispatch(frame.Event)
	// Connected is called once per attempt, when the link comes up.
	Connected()
}

type Timer interface {
	Stop() bool
}

// Scheduler runs f once after d has elapsed.
type Scheduler func(d time.Duration, f func()) Timer

func AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// RetryPolicy retries forever, Delay apart.
type RetryPolicy struct {
	Delay time.Duration
}

type Options struct {
	RetryPolicy RetryPolicy
	// Bounds the dial phase of each attempt.
	ConnectTimeout time.Duration
	Scheduler      Scheduler
}

type eventKind uint8

const (
	eventConnectRequest eventKind = iota
	eventRetry
	eventConnected
	eventConnectFailed
	eventServicesDiscovered
	eventNotificationsEnabled
	eventDisconnected
	eventNotification
)

var eventNames = [...]string{
	"ConnectRequest",
	"Retry",
	"Connected",
	"ConnectFailed",
	"ServicesDiscovered",
	"NotificationsEnabled",
	"Disconnected",
	"Notification",
}

func (k eventKind) String() string {
	return eventNames[k]
}

type event struct {
	kind eventKind
	// attempt generation for transport events, retry generation for eventRetry.
	gen     uint64
	err     error
	profile Profile
	payload []byte
	reply   chan error
}

// Machine owns the connection lifecycle of a single target. All state is confined to
// the goroutine running Run; transport callbacks and timers only enqueue events.
type Machine struct {
	transport  Transport
	target     *device.Target
	dispatcher Dispatcher
	observer   Observer
	opts       Options

	events  chan event
	done    chan struct{}
	started atomic.Bool
	current atomic.Uint32

	// owned by the Run goroutine.
	runCtx        context.Context
	state         State
	attempt       uint64
	cancelAttempt context.CancelFunc
	retry         Timer
	retryGen      uint64
}

func New(
	transport Transport,
	target *device.Target,
	dispatcher Dispatcher,
	observer Observer,
	opts Options,
) *Machine {
	if opts.RetryPolicy.Delay <= 0 {
		opts.RetryPolicy.Delay = DefaultRetryDelay
	}

	if opts.ConnectTimeout <= 0 {
		opts.ConnectTimeout = DefaultConnectTimeout
	}

	if opts.Scheduler == nil {
		opts.Scheduler = AfterFunc
	}

	return &Machine{
		transport:  transport,
		target:     target,
		dispatcher: dispatcher,
		observer:   observer,
		opts:       opts,
		events:     make(chan event, eventQueueSize),
		done:       make(chan struct{}),
		state:      StateIdle,
	}
}

// State returns the current state. Only meant for inspection; it may be stale by the time
// the caller looks at it.
func (m *Machine) State() State {
	return State(m.current.Load())
}

// Connect asks the machine to connect to its target. It returns ErrTransportDisabled when
// the adapter is off, in which case nothing is retried until Connect is called again.
func (m *Machine) Connect(ctx context.Context) error {
	reply := make(chan error, 1)

	select {
	case m.events <- event{kind: eventConnectRequest, reply: reply}:
	case <-m.done:
		return ErrShutdown
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-reply:
		return err
	case <-m.done:
		return ErrShutdown
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run processes events until ctx is cancelled, then shuts the link down for good.
func (m *Machine) Run(ctx context.Context) error {
	if !m.started.CompareAndSwap(false, true) {
		panic("attempted to call link.Machine.Run() twice")
	}

	m.runCtx = ctx

	log.Info().
		Stringer("Target", m.target).
		Dur("RetryDelay", m.opts.RetryPolicy.Delay).
		Dur("ConnectTimeout", m.opts.ConnectTimeout).
		Msg("Starting link state machine")

	defer close(m.done)

	for {
		select {
		case <-ctx.Done():
			m.shutdown()
			return nil
		case ev := <-m.events:
			m.handle(ev)
		}
	}
}

// post never blocks once Run has returned.
func (m *Machine) post(ev event) {
	select {
	case m.events <- ev:
	case <-m.done:
		log.Trace().Stringer("Event", ev.kind).Msg("link: dropping event after shutdown")
	}
}

func (m *Machine) handle(ev event) {
	switch ev.kind {
	case eventConnectRequest:
		ev.reply <- m.requestConnect()
		return
	case eventRetry:
		m.handleRetry(ev)
		return
	}

	if ev.gen != m.attempt {
		log.Trace().
			Stringer("Event", ev.kind).
			Uint64("EventAttempt", ev.gen).
			Uint64("CurrentAttempt", m.attempt).
			Msg("link: ignoring callback from a previous attempt")
		return
	}

	switch ev.kind {
	case eventConnected:
		if !m.expect(ev, StateConnecting) {
			return
		}

		m.setState(StateDiscovering)
		m.status("Connected to " + m.target.Name())
		m.dispatcher.Connected()
		m.transport.DiscoverServices()
	case eventConnectFailed:
		if !m.expect(ev, StateConnecting) {
			return
		}

		m.failAttempt(fmt.Errorf("failed to connect: %w", ev.err))
	case eventServicesDiscovered:
		if !m.expect(ev, StateDiscovering) {
			return
		}

		m.onServicesDiscovered(ev.profile, ev.err)
	case eventNotificationsEnabled:
		if !m.expect(ev, StateSubscribing) {
			return
		}

		if ev.err != nil {
			if errors.Is(ev.err, ErrDescriptorNotFound) {
				m.status("Descriptor not found!")
			}

			m.failAttempt(fmt.Errorf("failed to enable notifications: %w", ev.err))
			return
		}

		m.setState(StateReady)
		m.status("CONNECTED")
	case eventDisconnected:
		if !m.state.attempting() {
			return
		}

		log.Info().Stringer("Target", m.target).Stringer("State", m.state).Msg("Device disconnected")
		failuresCounter.WithLabelValues(failureReason(ErrTransportDisconnected)).Inc()

		m.status("Disconnected. Retrying...")
		m.endAttempt()
	case eventNotification:
		if m.state != StateReady {
			log.Trace().Stringer("State", m.state).Msg("link: dropping notification received while not ready")
			return
		}

		notificationsCounter.Inc()

		decoded := frame.Parse(string(ev.payload))

		log.Trace().
			Str("Payload", utils.PayloadPreview(ev.payload)).
			Stringer("Frame", decoded).
			Msg("link: received frame")

		m.dispatcher.Dispatch(decoded)
	}
}

func (m *Machine) expect(ev event, s State) bool {
	if m.state == s {
		return true
	}

	log.Warn().
		Stringer("Event", ev.kind).
		Stringer("State", m.state).
		Stringer("ExpectedState", s).
		Msg("link: ignoring unexpected transport callback")

	return false
}

func (m *Machine) requestConnect() error {
	if m.state.attempting() {
		return ErrAttemptInProgress
	}

	// an explicit request supersedes a pending retry.
	m.cancelRetry()

	return m.startAttempt()
}

func (m *Machine) handleRetry(ev event) {
	if ev.gen != m.retryGen || m.state != StateDisconnected {
		log.Trace().Uint64("RetryGen", ev.gen).Msg("link: ignoring superseded retry")
		return
	}

	m.retry = nil

	if err := m.startAttempt(); err != nil {
		log.Warn().Err(err).Msg("Reconnect attempt aborted, waiting for a new connect request")
	}
}

func (m *Machine) startAttempt() error {
	if !m.transport.IsEnabled() {
		failuresCounter.WithLabelValues(failureReason(ErrTransportDisabled)).Inc()

		m.status("Bluetooth is OFF. Enable Bluetooth and try again.")
		m.setState(StateIdle)

		return ErrTransportDisabled
	}

	m.attempt += 1
	attemptsCounter.Inc()

	ctx, cancel := context.WithTimeout(m.runCtx, m.opts.ConnectTimeout)
	m.cancelAttempt = cancel

	log.Debug().
		Stringer("Target", m.target).
		Uint64("Attempt", m.attempt).
		Msg("link: connecting")

	m.setState(StateConnecting)
	m.status("Connecting to " + m.target.Name() + "...")
	m.transport.Connect(ctx, m.target.Addr(), &attemptCallbacks{m: m, gen: m.attempt})

	return nil
}

func (m *Machine) onServicesDiscovered(p Profile, err error) {
	if err != nil {
		m.failAttempt(fmt.Errorf("service discovery failed: %w", err))
		return
	}

	char, ok := p.Find(m.target.Service(), m.target.Characteristic())

	if !ok {
		m.status("Failed to find BLE characteristic")
		m.failAttempt(fmt.Errorf("%w: service %v, characteristic %v",
			ErrCharacteristicNotFound, m.target.Service(), m.target.Characteristic()))
		return
	}

	m.setState(StateSubscribing)

	if !char.HasDescriptor(device.CCCDescriptorUUID) {
		m.status("Descriptor not found!")
		m.failAttempt(fmt.Errorf("%w: characteristic %v has no descriptor %v",
			ErrDescriptorNotFound, char.UUID, device.CCCDescriptorUUID))
		return
	}

	m.transport.EnableNotifications(m.target.Service(), m.target.Characteristic())
}

func (m *Machine) failAttempt(err error) {
	failuresCounter.WithLabelValues(failureReason(err)).Inc()

	logEvent := log.Warn()

	// a protocol mismatch will not go away by itself, make it stand out.
	if utils.ErrorIsAnyOf(err, ErrCharacteristicNotFound, ErrDescriptorNotFound) {
		logEvent = log.Error()
	}

	logEvent.
		Err(err).
		Stringer("Target", m.target).
		Stringer("State", m.state).
		Dur("RetryIn", m.opts.RetryPolicy.Delay).
		Msg("Connection attempt failed - will retry")

	m.endAttempt()
}

// endAttempt releases the transport, invalidates the attempt's callbacks and schedules
// the next one.
func (m *Machine) endAttempt() {
	m.releaseAttempt()
	m.setState(StateDisconnected)
	m.scheduleRetry()
}

func (m *Machine) releaseAttempt() {
	m.attempt += 1

	if m.cancelAttempt != nil {
		m.cancelAttempt()
		m.cancelAttempt = nil
	}

	m.transport.Disconnect()
}

func (m *Machine) scheduleRetry() {
	m.cancelRetry()

	gen := m.retryGen
	delay := m.opts.RetryPolicy.Delay

	log.Debug().Dur("Delay", delay).Msg("link: scheduling reconnect")

	m.retry = m.opts.Scheduler(delay, func() {
		m.post(event{kind: eventRetry, gen: gen})
	})
}

func (m *Machine) cancelRetry() {
	m.retryGen += 1

	if m.retry != nil {
		m.retry.Stop()
		m.retry = nil
	}
}

func (m *Machine) shutdown() {
	log.Info().Stringer("State", m.state).Msg("Link state machine is shutting down")

	m.cancelRetry()
	m.releaseAttempt()
	m.setState(StateIdle)
}

func (m *Machine) setState(s State) {
	if m.state == s {
		return
	}

	log.Debug().
		Stringer("From", m.state).
		Stringer("To", s).
		Msg("link: state transition")

	m.state = s
	m.current.Store(uint32(s))
	recordState(s)

	m.observer.OnStateChanged(s)
}

func (m *Machine) status(text string) {
	m.observer.OnStatusMessage(text)
}

type attemptCallbacks struct {
	m   *Machine
	gen uint64
}

func (c *attemptCallbacks) Connected() {
	c.m.post(event{kind: eventConnected, gen: c.gen})
}

func (c *attemptCallbacks) ConnectFailed(err error) {
	c.m.post(event{kind: eventConnectFailed, gen: c.gen, err: err})
}

func (c *attemptCallbacks) ServicesDiscovered(p Profile, err error) {
	c.m.post(event{kind: eventServicesDiscovered, gen: c.gen, profile: p, err: err})
}

func (c *attemptCallbacks) NotificationsEnabled(err error) {
	c.m.post(event{kind: eventNotificationsEnabled, gen: c.gen, err: err})
}

func (c *attemptCallbacks) Disconnected() {
	c.m.post(event{kind: eventDisconnected, gen: c.gen})
}

func (c *attemptCallbacks) Notification(payload []byte) {
	// the transport may reuse its buffer once we return.
	c.m.post(event{kind: eventNotification, gen: c.gen, payload: append([]byte(nil), payload...)})
}
