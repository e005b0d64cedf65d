// Package metrics renders store statistics in the Prometheus text format.
package metrics

import (
	"fmt"
	"io"
	"sort"

	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
	"google.golang.org/protobuf/proto"

	"ttlstore/internal/store"
)

const namespace = "ttlstore_"

// Families converts a stats snapshot into metric families sorted by name.
func Families(st store.Stats) []*dto.MetricFamily {
	fams := []*dto.MetricFamily{
		counter("sets_total", "Entries written with Set.", st.Sets),
		counter("gets_total", "Reads with Get.", st.Gets),
		counter("hits_total", "Reads that found a fresh entry.", st.Hits),
		counter("misses_total", "Reads that found no entry or an expired one.", st.Misses),
		counter("deletes_total", "Calls to Delete.", st.Deletes),
		counter("sweeps_queued_total", "Sweep requests that scheduled a pass.", st.SweepsQueued),
		counter("sweeps_total", "Expiration passes run.", st.Sweeps),
		counter("removed_total", "Entries removed by expiration passes.", st.Removed),
		counter("sweep_panics_total", "Expiration passes that panicked.", st.SweepPanics),
		gauge("entries", "Stored entries, including expired ones not yet swept.", float64(st.Entries)),
		gauge("sweep_pending", "1 while a sweep is scheduled but not finished.", boolFloat(st.SweepPending)),
		gauge("last_sweep_timestamp_seconds", "Unix time of the last expiration pass.", lastSweep(st)),
	}
	sort.Slice(fams, func(i, j int) bool {
		return fams[i].GetName() < fams[j].GetName()
	})
	return fams
}

// Write renders st to w in the Prometheus text exposition format.
func Write(w io.Writer, st store.Stats) error {
	for _, mf := range Families(st) {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return fmt.Errorf("metrics: write %s: %w", mf.GetName(), err)
		}
	}
	return nil
}

func counter(name, help string, v uint64) *dto.MetricFamily {
	return &dto.MetricFamily{
		Name: proto.String(namespace + name),
		Help: proto.String(help),
		Type: dto.MetricType_COUNTER.Enum(),
		Metric: []*dto.Metric{{
			Counter: &dto.Counter{Value: proto.Float64(float64(v))},
		}},
	}
}

func gauge(name, help string, v float64) *dto.MetricFamily {
	return &dto.MetricFamily{
		Name: proto.String(namespace + name),
		Help: proto.String(help),
		Type: dto.MetricType_GAUGE.Enum(),
		Metric: []*dto.Metric{{
			Gauge: &dto.Gauge{Value: proto.Float64(v)},
		}},
	}
}

func boolFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

func lastSweep(st store.Stats) float64 {
	if st.LastSweepAt.IsZero() {
		return 0
	}
	return float64(st.LastSweepAt.UnixNano()) / 1e9
}
