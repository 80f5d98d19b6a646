// Package bridge turns raw Netatmo device payloads into flat per-device
// records and drives the poll loop that feeds them to a publish sink.
package bridge

import (
	"github.com/golang/glog"

	"github.com/WoCha-FR/mqtt4netatmo/netatmo"
)

// Record is one flat, normalized per-device frame, ready for publishing.
type Record map[string]any

// Sink receives one record per physical device or module per poll tick.
type Sink interface {
	Emit(Record) error
}

// measureRenames maps dashboard_data keys to their flat record names, in
// emission order. Copying is strictly table driven: a key absent from this
// table is never copied, whatever its casing, and a key absent from the
// source produces no output key.
var measureRenames = []struct{ src, dst string }{
	{"Temperature", "temperature"},
	{"temp_trend", "temptrend"},
	{"Pressure", "pressure"},
	{"AbsolutePressure", "pressureabs"},
	{"pressure_trend", "pressuretrend"},
	{"Humidity", "humidity"},
	{"CO2", "co2"},
	{"Noise", "noise"},
	{"Rain", "rain"},
	{"sum_rain_1", "sumrain1"},
	{"sum_rain_24", "sumrain24"},
	{"WindStrength", "windstrength"},
	{"WindAngle", "windangle"},
	{"GustStrength", "guststrength"},
	{"GustAngle", "gustangle"},
	{"health_idx", "healthidx"},
	{"min_temp", "mintemp"},
	{"max_temp", "maxtemp"},
	{"date_min_temp", "mintemputc"},
	{"date_max_temp", "maxtemputc"},
	{"max_wind_str", "windstrenghtmax"},
	{"max_wind_angle", "windanglemax"},
	{"date_max_wind_str", "windmaxutc"},
	{"time_utc", "timeutc"},
}

// ProcessMeasure flattens one dashboard_data object through the rename table.
// The copy test is key presence, not truthiness: an explicit 0 or false is
// copied, an absent key yields no output key. That preserves the vendor's
// "not applicable for this device" signal.
func ProcessMeasure(raw map[string]any) Record {
	rec := make(Record)
	for _, f := range measureRenames {
		if v, ok := raw[f.src]; ok {
			rec[f.dst] = v
		}
	}
	return rec
}

func onlineFlag(reachable bool) int {
	if reachable {
		return 1
	}
	return 0
}

// ProcessStation returns the station's own record followed by one record per
// attached module. A station without modules still yields its own record and
// logs a warning naming the station.
func ProcessStation(station netatmo.Device) []Record {
	rec := ProcessMeasure(station.DashboardData)
	rec["id"] = station.ID
	rec["name"] = station.StationName
	rec["type"] = station.Type
	rec["home"] = station.HomeName
	rec["online"] = onlineFlag(station.Reachable)
	rec["wifistatus"] = station.WifiStatus
	records := []Record{rec}

	if len(station.Modules) == 0 {
		glog.Warningf("station %s has no modules", station.StationName)
		return records
	}
	for _, mod := range station.Modules {
		mrec := ProcessMeasure(mod.DashboardData)
		mrec["id"] = mod.ID
		mrec["name"] = mod.ModuleName
		mrec["type"] = mod.Type
		mrec["home"] = station.HomeName
		mrec["online"] = onlineFlag(mod.Reachable)
		mrec["rfstatus"] = mod.RFStatus
		mrec["battery"] = mod.BatteryPercent
		records = append(records, mrec)
	}
	return records
}

// ProcessAircare returns the record of one standalone air quality monitor.
func ProcessAircare(aircare netatmo.Device) Record {
	rec := ProcessMeasure(aircare.DashboardData)
	rec["id"] = aircare.ID
	rec["name"] = aircare.StationName
	rec["type"] = aircare.Type
	rec["module"] = aircare.ModuleName
	rec["online"] = onlineFlag(aircare.Reachable)
	rec["wifistatus"] = aircare.WifiStatus
	return rec
}
