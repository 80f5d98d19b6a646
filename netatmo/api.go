package netatmo

// Typed accessors for the data endpoints. Each validates its required
// arguments locally, issues the request through do, and unwraps the vendor
// envelope.

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
)

const (
	stationsDataPath = "/api/getstationsdata"
	homeCoachPath    = "/api/gethomecoachsdata"
	homesDataPath    = "/api/homesdata"
	homeStatusPath   = "/api/homestatus"
	getMeasurePath   = "/api/getmeasure"
)

// GetStationsData returns every weather station on the account, or a single
// station when deviceID is set. Unwraps body.devices.
func (c *Client) GetStationsData(deviceID string, getFavorites bool) ([]Device, error) {
	params := url.Values{}
	if deviceID != "" {
		params.Set("device_id", deviceID)
	}
	if getFavorites {
		params.Set("get_favorites", "true")
	}
	body, err := c.do(http.MethodGet, stationsDataPath, params, false)
	if err != nil {
		return nil, err
	}
	var r struct {
		Body struct {
			Devices []Device `json:"devices"`
		} `json:"body"`
	}
	if err := json.Unmarshal(body, &r); err != nil {
		return nil, fmt.Errorf("netatmo: error unmarshalling stations data: %w", err)
	}
	return r.Body.Devices, nil
}

// GetHomeCoachData returns every air quality monitor on the account, or a
// single one when deviceID is set. Unwraps body.devices.
func (c *Client) GetHomeCoachData(deviceID string) ([]Device, error) {
	params := url.Values{}
	if deviceID != "" {
		params.Set("device_id", deviceID)
	}
	body, err := c.do(http.MethodGet, homeCoachPath, params, false)
	if err != nil {
		return nil, err
	}
	var r struct {
		Body struct {
			Devices []Device `json:"devices"`
		} `json:"body"`
	}
	if err := json.Unmarshal(body, &r); err != nil {
		return nil, fmt.Errorf("netatmo: error unmarshalling home coach data: %w", err)
	}
	return r.Body.Devices, nil
}

// GetHomesData returns the homes of the account, optionally narrowed to one
// home id and a set of gateway types. Unwraps body.homes.
func (c *Client) GetHomesData(homeID string, gatewayTypes []string) ([]Home, error) {
	params := url.Values{}
	if homeID != "" {
		params.Set("home_id", homeID)
	}
	for _, gt := range gatewayTypes {
		params.Add("gateway_types[]", gt)
	}
	body, err := c.do(http.MethodGet, homesDataPath, params, false)
	if err != nil {
		return nil, err
	}
	var r struct {
		Body struct {
			Homes []Home `json:"homes"`
		} `json:"body"`
	}
	if err := json.Unmarshal(body, &r); err != nil {
		return nil, fmt.Errorf("netatmo: error unmarshalling homes data: %w", err)
	}
	return r.Body.Homes, nil
}

// GetHomeStatus returns the live module state of one home. Unwraps body.home.
func (c *Client) GetHomeStatus(homeID string, gatewayTypes []string) (*HomeStatus, error) {
	if homeID == "" {
		return nil, ErrMissingHomeID
	}
	params := url.Values{}
	params.Set("home_id", homeID)
	for _, gt := range gatewayTypes {
		params.Add("device_types[]", gt)
	}
	body, err := c.do(http.MethodGet, homeStatusPath, params, false)
	if err != nil {
		return nil, err
	}
	var r struct {
		Body struct {
			Home HomeStatus `json:"home"`
		} `json:"body"`
	}
	if err := json.Unmarshal(body, &r); err != nil {
		return nil, fmt.Errorf("netatmo: error unmarshalling home status: %w", err)
	}
	return &r.Body.Home, nil
}

// MeasureRequest selects a historical measurement series. DeviceID, Scale and
// Type are required; Type takes a comma-separated list of measurement names.
type MeasureRequest struct {
	DeviceID  string
	ModuleID  string
	Scale     string
	Type      string
	DateBegin int64
	DateEnd   int64
	Limit     int
	Optimize  bool
	RealTime  bool
}

// NewMeasureRequest returns a request with the vendor defaults applied
// (optimize on, real time off).
func NewMeasureRequest(deviceID, scale, measureType string) MeasureRequest {
	return MeasureRequest{
		DeviceID: deviceID,
		Scale:    scale,
		Type:     measureType,
		Optimize: true,
	}
}

// GetMeasure returns the measurement series for one device or module,
// unwrapping body. The optimized response shape is the one modeled; requests
// built through NewMeasureRequest use it.
func (c *Client) GetMeasure(req MeasureRequest) ([]Measure, error) {
	if req.DeviceID == "" || req.Scale == "" || req.Type == "" {
		return nil, ErrMissingMeasureParams
	}
	params := url.Values{}
	params.Set("device_id", req.DeviceID)
	params.Set("scale", req.Scale)
	params.Set("type", req.Type)
	params.Set("optimize", strconv.FormatBool(req.Optimize))
	params.Set("real_time", strconv.FormatBool(req.RealTime))
	if req.ModuleID != "" {
		params.Set("module_id", req.ModuleID)
	}
	if req.DateBegin > 0 {
		params.Set("date_begin", strconv.FormatInt(req.DateBegin, 10))
	}
	if req.DateEnd > 0 {
		params.Set("date_end", strconv.FormatInt(req.DateEnd, 10))
	}
	if req.Limit > 0 {
		params.Set("limit", strconv.Itoa(req.Limit))
	}
	body, err := c.do(http.MethodGet, getMeasurePath, params, false)
	if err != nil {
		return nil, err
	}
	var r struct {
		Body []Measure `json:"body"`
	}
	if err := json.Unmarshal(body, &r); err != nil {
		return nil, fmt.Errorf("netatmo: error unmarshalling measure data: %w", err)
	}
	return r.Body, nil
}
