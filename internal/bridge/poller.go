package bridge

import (
	"fmt"
	"sync"
	"time"

	"github.com/golang/glog"

	"github.com/WoCha-FR/mqtt4netatmo/netatmo"
)

// DefaultInterval is the time between poll ticks.
const DefaultInterval = 60 * time.Second

// DeviceSource is the slice of the Netatmo API the poller consumes.
type DeviceSource interface {
	Connect(accessToken, refreshToken string, expiresAt int64) error
	GetStationsData(deviceID string, getFavorites bool) ([]netatmo.Device, error)
	GetHomeCoachData(deviceID string) ([]netatmo.Device, error)
}

// Metrics receives poll lifecycle notifications. All methods may be called
// from the scheduler goroutine only.
type Metrics interface {
	PollStarted()
	PollFailed()
	RecordEmitted()
}

// Poller runs the fetch-normalize-emit cycle against one account.
type Poller struct {
	api      DeviceSource
	sink     Sink
	interval time.Duration
	metrics  Metrics

	// warm-start token handed to Connect; zero values force full auth.
	warmAccess  string
	warmRefresh string
	warmExpires int64
}

// Option configures a Poller.
type Option func(*Poller)

// WithInterval overrides the default 60 second poll interval.
func WithInterval(d time.Duration) Option {
	return func(p *Poller) { p.interval = d }
}

// WithMetrics attaches poll counters.
func WithMetrics(m Metrics) Option {
	return func(p *Poller) { p.metrics = m }
}

// WithWarmToken seeds Start's initial Connect with a previously obtained
// token, avoiding the password grant on restart.
func WithWarmToken(accessToken, refreshToken string, expiresAt int64) Option {
	return func(p *Poller) {
		p.warmAccess = accessToken
		p.warmRefresh = refreshToken
		p.warmExpires = expiresAt
	}
}

// NewPoller wires a device source to a sink.
func NewPoller(api DeviceSource, sink Sink, opts ...Option) *Poller {
	p := &Poller{api: api, sink: sink, interval: DefaultInterval}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// PollData runs one polling pass: every station and its modules first, then
// every air quality device, strictly sequential. One record is emitted per
// physical device or module. Any failure propagates to the caller.
func (p *Poller) PollData() error {
	stations, err := p.api.GetStationsData("", false)
	if err != nil {
		return fmt.Errorf("fetching stations: %w", err)
	}
	for _, station := range stations {
		for _, rec := range ProcessStation(station) {
			if err := p.emit(rec); err != nil {
				return err
			}
		}
	}

	aircares, err := p.api.GetHomeCoachData("")
	if err != nil {
		return fmt.Errorf("fetching air quality devices: %w", err)
	}
	for _, aircare := range aircares {
		if err := p.emit(ProcessAircare(aircare)); err != nil {
			return err
		}
	}
	return nil
}

func (p *Poller) emit(rec Record) error {
	if err := p.sink.Emit(rec); err != nil {
		return fmt.Errorf("emitting record for %v: %w", rec["id"], err)
	}
	if p.metrics != nil {
		p.metrics.RecordEmitted()
	}
	return nil
}

// Start authenticates, runs one immediate poll, and then polls on the
// configured interval until the returned stop function is called. Poll
// failures are logged and the schedule survives to the next tick; only the
// initial authentication failure is returned. The stop function blocks until
// an in-flight tick has finished and is safe to call more than once.
func (p *Poller) Start() (func(), error) {
	if err := p.api.Connect(p.warmAccess, p.warmRefresh, p.warmExpires); err != nil {
		return nil, fmt.Errorf("authenticating: %w", err)
	}

	stopC := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		p.tick()
		ticker := time.NewTicker(p.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				p.tick()
			case <-stopC:
				return
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			close(stopC)
			<-done
		})
	}, nil
}

// tick runs on the scheduler goroutine only. A slow poll therefore delays
// later ticks instead of overlapping them; the ticker drops missed fires.
func (p *Poller) tick() {
	if p.metrics != nil {
		p.metrics.PollStarted()
	}
	if err := p.PollData(); err != nil {
		glog.Errorf("poll failed: %v", err)
		if p.metrics != nil {
			p.metrics.PollFailed()
		}
	}
}
