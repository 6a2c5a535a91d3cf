package telemetry

import (
	"context"
	"fmt"

	"github.com/nerrad567/airfleet-core/internal/infrastructure/mqtt"
)

// AttachMQTT subscribes the ingestion service to the broker's telemetry
// topics. Payloads are identical to UDP datagrams; the topic's device id
// segment is informational only, the payload id stays authoritative so a
// misaddressed publish cannot poison another device's record.
func AttachMQTT(ctx context.Context, client *mqtt.Client, service *Service, qos byte) error {
	err := client.Subscribe(mqtt.Topics{}.AllTelemetry(), qos,
		func(topic string, payload []byte) error {
			return service.Ingest(ctx, payload, Origin{
				Transport: "mqtt",
				Source:    topic,
			})
		})
	if err != nil {
		return fmt.Errorf("subscribing to telemetry topics: %w", err)
	}
	return nil
}
