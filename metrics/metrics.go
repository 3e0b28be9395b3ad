// Package metrics records text stream activity.
//
// Readers and writers report through a Recorder. Nop discards everything
// and is the default; Prometheus exports counters to a registry.
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder receives reader and writer events.
// Implementations must be safe for concurrent use.
type Recorder interface {
	// BytesRead records bytes pulled from a byte source.
	BytesRead(n int)
	// RunesDecoded records characters produced by a decoder.
	RunesDecoded(n int)
	// EncodingDetected records the encoding a reader switched to and what
	// triggered the switch (bom, preamble or sniffed).
	EncodingDetected(encoding, source string)
	// BytesWritten records encoded bytes handed to a byte sink.
	BytesWritten(n int)
	// Flushed records a writer flush.
	Flushed(final bool)
}

// Nop is a Recorder that discards all events.
type Nop struct{}

func (Nop) BytesRead(int)                   {}
func (Nop) RunesDecoded(int)                {}
func (Nop) EncodingDetected(string, string) {}
func (Nop) BytesWritten(int)                {}
func (Nop) Flushed(bool)                    {}

// Prometheus is a Recorder backed by Prometheus counters.
type Prometheus struct {
	bytesRead    prometheus.Counter
	runesDecoded prometheus.Counter
	detections   *prometheus.CounterVec
	bytesWritten prometheus.Counter
	flushes      *prometheus.CounterVec
}

// NewPrometheus registers textio counters with reg under namespace.
// A nil reg registers with prometheus.DefaultRegisterer.
func NewPrometheus(reg prometheus.Registerer, namespace string) *Prometheus {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Prometheus{
		bytesRead: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reader_bytes_total",
			Help:      "Total bytes read from byte sources",
		}),
		runesDecoded: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reader_runes_total",
			Help:      "Total characters decoded",
		}),
		detections: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reader_encoding_detections_total",
			Help:      "Encodings selected from stream content",
		}, []string{"encoding", "source"}),
		bytesWritten: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "writer_bytes_total",
			Help:      "Total encoded bytes written to byte sinks",
		}),
		flushes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "writer_flushes_total",
			Help:      "Writer flushes by kind",
		}, []string{"final"}),
	}
}

// BytesRead implements Recorder.
func (p *Prometheus) BytesRead(n int) { p.bytesRead.Add(float64(n)) }

// RunesDecoded implements Recorder.
func (p *Prometheus) RunesDecoded(n int) { p.runesDecoded.Add(float64(n)) }

// EncodingDetected implements Recorder.
func (p *Prometheus) EncodingDetected(encoding, source string) {
	p.detections.WithLabelValues(encoding, source).Inc()
}

// BytesWritten implements Recorder.
func (p *Prometheus) BytesWritten(n int) { p.bytesWritten.Add(float64(n)) }

// Flushed implements Recorder.
func (p *Prometheus) Flushed(final bool) {
	p.flushes.WithLabelValues(strconv.FormatBool(final)).Inc()
}

var (
	_ Recorder = Nop{}
	_ Recorder = (*Prometheus)(nil)
)
