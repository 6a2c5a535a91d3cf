// Package mqtt provides MQTT client connectivity for AirFleet Core.
//
// MQTT is the controller's secondary telemetry ingress: AP agents that sit
// behind NAT and cannot reach the UDP listener publish the same JSON
// reports to the broker instead. The controller subscribes to the fleet
// telemetry topics and can push configuration back out on per-device
// config topics.
//
// The client wraps paho.mqtt.golang with auto-reconnect, subscription
// restoration after reconnect, Last Will and Testament for controller
// offline detection, and panic recovery around message handlers.
//
// Usage:
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	err = client.Subscribe(mqtt.Topics{}.AllTelemetry(), 0,
//	    func(topic string, payload []byte) error {
//	        return ingest(payload)
//	    })
package mqtt
