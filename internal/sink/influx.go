package sink

import (
	"context"
	"fmt"
	"time"

	"github.com/avast/retry-go"
	wx "github.com/cdzombak/libwx"
	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	influxdb2api "github.com/influxdata/influxdb-client-go/v2/api"

	"github.com/WoCha-FR/mqtt4netatmo/internal/bridge"
)

const influxTimeout = 3 * time.Second

const measurementName = "netatmo"

// Identity keys become point tags; everything else becomes fields.
var tagKeys = map[string]bool{
	"id":     true,
	"name":   true,
	"type":   true,
	"home":   true,
	"module": true,
}

// Influx writes one point per record to an InfluxDB bucket.
type Influx struct {
	write influxdb2api.WriteAPIBlocking
}

var _ bridge.Sink = (*Influx)(nil)

// NewInflux wraps a blocking write API.
func NewInflux(write influxdb2api.WriteAPIBlocking) *Influx {
	return &Influx{write: write}
}

// Emit writes one point. Netatmo reports metric units; imperial copies of
// temperature and pressure are written alongside. The point time is the
// record's timeutc when present, otherwise now.
func (s *Influx) Emit(rec bridge.Record) error {
	tags := make(map[string]string)
	fields := make(map[string]interface{})
	for k, v := range rec {
		if tagKeys[k] {
			tags[k] = fmt.Sprintf("%v", v)
			continue
		}
		fields[k] = v
	}

	if v, ok := numField(rec, "temperature"); ok {
		fields["temperature_f"] = wx.TempC(v).F().Unwrap()
	}
	if v, ok := numField(rec, "pressure"); ok {
		fields["pressure_inhg"] = wx.PressureMb(v).InHg().Unwrap()
	}

	pointTime := time.Now()
	if ts, ok := numField(rec, "timeutc"); ok {
		pointTime = time.Unix(int64(ts), 0)
	}

	return retry.Do(func() error {
		ctx, cancel := context.WithTimeout(context.Background(), influxTimeout)
		defer cancel()
		return s.write.WritePoint(ctx, influxdb2.NewPoint(measurementName, tags, fields, pointTime))
	}, retry.Attempts(3), retry.Delay(1*time.Second))
}

func numField(rec bridge.Record, key string) (float64, bool) {
	switch v := rec[key].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	}
	return 0, false
}
