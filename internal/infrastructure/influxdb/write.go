package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// WriteDeviceMetrics records one telemetry report's counters as a point in
// the ap_telemetry measurement, tagged by device. The write is non-blocking;
// data is batched and sent asynchronously. Traffic is the AP's raw counter,
// stored as a gauge because reboots reset it.
func (c *Client) WriteDeviceMetrics(deviceID, name string, clients, traffic int, ts time.Time) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"ap_telemetry",
		map[string]string{
			"device_id": deviceID,
			"name":      name,
		},
		map[string]interface{}{
			"clients": clients,
			"traffic": traffic,
		},
		ts,
	)

	c.writeAPI.WritePoint(point)
}

// WritePoint writes a custom point with full control over tags and fields.
// Tags should stay low-cardinality; fields carry the actual data.
func (c *Client) WritePoint(measurement string, tags map[string]string, fields map[string]interface{}) {
	if !c.IsConnected() {
		return
	}

	c.writeAPI.WritePoint(write.NewPoint(measurement, tags, fields, time.Now()))
}
