package netatmo

// Wire types for the Netatmo endpoints this module consumes. Field names
// follow the vendor payloads. dashboard_data stays a raw map because its key
// set varies per device family (main station, four module kinds, air quality
// monitor) and the normalizer works by key presence, not by device type.

// Device is a main weather station or a standalone air quality monitor, as
// returned by /api/getstationsdata and /api/gethomecoachsdata.
type Device struct {
	ID            string         `json:"_id"`
	Type          string         `json:"type"`
	StationName   string         `json:"station_name"`
	ModuleName    string         `json:"module_name"`
	HomeID        string         `json:"home_id"`
	HomeName      string         `json:"home_name"`
	Firmware      int            `json:"firmware"`
	Reachable     bool           `json:"reachable"`
	WifiStatus    int            `json:"wifi_status"`
	DashboardData map[string]any `json:"dashboard_data"`
	Modules       []Module       `json:"modules"`
}

// Module is a satellite sensor unit bound to a station over a radio link.
type Module struct {
	ID             string         `json:"_id"`
	Type           string         `json:"type"`
	ModuleName     string         `json:"module_name"`
	Firmware       int            `json:"firmware"`
	Reachable      bool           `json:"reachable"`
	RFStatus       int            `json:"rf_status"`
	BatteryPercent int            `json:"battery_percent"`
	DashboardData  map[string]any `json:"dashboard_data"`
}

// Home is one entry of the /api/homesdata response.
type Home struct {
	ID       string       `json:"id"`
	Name     string       `json:"name"`
	Altitude int          `json:"altitude"`
	Country  string       `json:"country"`
	Timezone string       `json:"timezone"`
	Modules  []HomeModule `json:"modules"`
}

// HomeModule describes a gateway or module attached to a home.
type HomeModule struct {
	ID        string `json:"id"`
	Type      string `json:"type"`
	Name      string `json:"name"`
	SetupDate int64  `json:"setup_date"`
	RoomID    string `json:"room_id"`
}

// HomeStatus is the /api/homestatus snapshot of a single home.
type HomeStatus struct {
	ID      string             `json:"id"`
	Modules []HomeStatusModule `json:"modules"`
}

// HomeStatusModule is the live state of one module within a home.
type HomeStatusModule struct {
	ID               string `json:"id"`
	Type             string `json:"type"`
	Reachable        bool   `json:"reachable"`
	BatteryLevel     int    `json:"battery_level"`
	FirmwareRevision int    `json:"firmware_revision"`
	RFStrength       int    `json:"rf_strength"`
	WifiStrength     int    `json:"wifi_strength"`
}

// Measure is one series chunk of an optimized /api/getmeasure response.
// Values are ordered like the requested types; a nil entry means the device
// has no sample for that slot.
type Measure struct {
	BegTime  int64        `json:"beg_time"`
	StepTime int64        `json:"step_time"`
	Value    [][]*float64 `json:"value"`
}
