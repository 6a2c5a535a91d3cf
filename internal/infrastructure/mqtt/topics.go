package mqtt

import "fmt"

// Topic prefixes for the AirFleet broker namespace.
//
// Telemetry flows inbound on airfleet/telemetry/{device_id}, configuration
// flows outbound on airfleet/config/{device_id}. The controller announces
// its own liveness on airfleet/system/status.
const (
	// TopicPrefix is the base for all AirFleet topics.
	TopicPrefix = "airfleet"

	// TopicPrefixTelemetry is the base for inbound AP telemetry.
	TopicPrefixTelemetry = "airfleet/telemetry"

	// TopicPrefixConfig is the base for outbound AP configuration.
	TopicPrefixConfig = "airfleet/config"

	// TopicPrefixSystem is the base for controller system topics.
	TopicPrefixSystem = "airfleet/system"
)

// Topics provides builders for AirFleet MQTT topics.
// Using these helpers keeps topic naming consistent across the codebase.
type Topics struct{}

// Telemetry returns the telemetry topic for one device.
//
// Example: airfleet/telemetry/ap-lobby-01
func (Topics) Telemetry(deviceID string) string {
	return fmt.Sprintf("%s/%s", TopicPrefixTelemetry, deviceID)
}

// AllTelemetry returns the wildcard pattern matching every device's
// telemetry topic.
func (Topics) AllTelemetry() string {
	return TopicPrefixTelemetry + "/+"
}

// DeviceID extracts the device id from a telemetry topic, or "" when the
// topic is not a single-device telemetry topic.
func (Topics) DeviceID(topic string) string {
	prefix := TopicPrefixTelemetry + "/"
	if len(topic) <= len(prefix) || topic[:len(prefix)] != prefix {
		return ""
	}
	id := topic[len(prefix):]
	for _, r := range id {
		if r == '/' {
			return ""
		}
	}
	return id
}

// Config returns the configuration push topic for one device.
//
// Example: airfleet/config/ap-lobby-01
func (Topics) Config(deviceID string) string {
	return fmt.Sprintf("%s/%s", TopicPrefixConfig, deviceID)
}

// SystemStatus returns the controller liveness topic. The controller
// publishes a retained online/offline payload here, and the broker
// publishes the LWT to it on an unclean disconnect.
func (Topics) SystemStatus() string {
	return TopicPrefixSystem + "/status"
}
