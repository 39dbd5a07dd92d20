package metrics

import (
	"errors"
	"sync"
	"time"

	"wallet_adapter/internal/app/port"
	"wallet_adapter/internal/domain/entity"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "walletd"

var readyStates = []entity.WalletReadyState{
	entity.ReadyStateUnsupported,
	entity.ReadyStateNotDetected,
	entity.ReadyStateLoadable,
	entity.ReadyStateInstalled,
}

// Collector holds the adapter metrics.
type Collector struct {
	events         *prometheus.CounterVec
	errors         *prometheus.CounterVec
	readyState     *prometheus.GaugeVec
	connectLatency *prometheus.HistogramVec

	wg sync.WaitGroup
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Collector {
	c := &Collector{
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "adapter_events_total",
			Help:      "Events emitted by wallet adapters.",
		}, []string{"wallet", "event"}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "adapter_errors_total",
			Help:      "Errors emitted by wallet adapters, by error kind.",
		}, []string{"wallet", "kind"}),
		readyState: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "adapter_ready_state",
			Help:      "1 for the current ready state of each wallet adapter, 0 otherwise.",
		}, []string{"wallet", "state"}),
		connectLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "connect_duration_seconds",
			Help:      "Time taken by connect requests.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"wallet", "result"}),
	}
	reg.MustRegister(c.events, c.errors, c.readyState, c.connectLatency)
	return c
}

// Observe records the events of adapter until the returned function is called
// or the adapter is closed.
func (c *Collector) Observe(adapter port.Adapter) (stop func()) {
	name := string(adapter.Name())
	c.setReadyState(name, adapter.ReadyState())

	ch := make(chan entity.AdapterEvent, 64)
	sub := adapter.SubscribeEvents(ch)
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		for {
			select {
			case ev := <-ch:
				c.record(name, ev)
			case <-sub.Err():
				return
			}
		}
	}()
	return sub.Unsubscribe
}

// Wait blocks until every observer has stopped.
func (c *Collector) Wait() {
	c.wg.Wait()
}

func (c *Collector) record(name string, ev entity.AdapterEvent) {
	c.events.WithLabelValues(name, string(ev.Kind)).Inc()
	switch ev.Kind {
	case entity.EventReadyStateChange:
		c.setReadyState(name, ev.ReadyState)
	case entity.EventError:
		c.errors.WithLabelValues(name, ErrorKind(ev.Err)).Inc()
	}
}

func (c *Collector) setReadyState(name string, current entity.WalletReadyState) {
	for _, s := range readyStates {
		v := 0.0
		if s == current {
			v = 1
		}
		c.readyState.WithLabelValues(name, s.String()).Set(v)
	}
}

// TimeConnect starts timing a connect request; call the returned function with its result.
func (c *Collector) TimeConnect(wallet entity.WalletName) func(err error) {
	start := time.Now()
	return func(err error) {
		result := "ok"
		if err != nil {
			result = "error"
		}
		c.connectLatency.WithLabelValues(string(wallet), result).Observe(time.Since(start).Seconds())
	}
}

// ErrorKind returns the wallet error kind of err, or the generic kind for foreign errors.
func ErrorKind(err error) string {
	var we *entity.WalletError
	if errors.As(err, &we) {
		return string(we.Kind)
	}
	return string(entity.KindWallet)
}
