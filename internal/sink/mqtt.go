// Package sink contains the publish sinks fed by the poll loop. Each sink
// implements bridge.Sink and receives one record per device or module per
// tick.
package sink

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/avast/retry-go"
	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/golang/glog"
	"golang.org/x/sync/errgroup"

	"github.com/WoCha-FR/mqtt4netatmo/internal/bridge"
)

const publishTimeout = 3 * time.Second

// publisher is the slice of the paho client the sink needs.
type publisher interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
}

// MQTT publishes each record as a JSON frame on <root>/<id> and mirrors the
// individual fields on <root>/<id>/<field>.
type MQTT struct {
	client    publisher
	topicRoot string
	timeout   time.Duration
}

var _ bridge.Sink = (*MQTT)(nil)

// NewMQTT wraps a connected paho client.
func NewMQTT(client mqtt.Client, topicRoot string) *MQTT {
	return &MQTT{client: client, topicRoot: topicRoot, timeout: publishTimeout}
}

// Emit publishes one record. The frame publish is retried a few times before
// giving up; field mirrors ride on the frame's success.
func (s *MQTT) Emit(rec bridge.Record) error {
	id, _ := rec["id"].(string)
	if id == "" {
		return fmt.Errorf("record has no id: %v", rec)
	}

	frame, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshalling frame for %s: %w", id, err)
	}
	topic := fmt.Sprintf("%s/%s", s.topicRoot, id)
	if err := retry.Do(func() error {
		return s.publish(topic, frame)
	}, retry.Attempts(3), retry.Delay(1*time.Second)); err != nil {
		return err
	}
	glog.V(1).Infof("published frame for %s", id)

	eg := errgroup.Group{}
	for field, value := range rec {
		field, value := field, value
		eg.Go(func() error {
			return s.publish(fmt.Sprintf("%s/%s", topic, field), fmt.Sprintf("%v", value))
		})
	}
	return eg.Wait()
}

func (s *MQTT) publish(topic string, payload interface{}) error {
	token := s.client.Publish(topic, 0, false, payload)
	if !token.WaitTimeout(s.timeout) {
		return fmt.Errorf("timeout publishing to MQTT topic '%s'", topic)
	}
	if token.Error() != nil {
		return fmt.Errorf("error publishing to MQTT topic '%s': %v", topic, token.Error())
	}
	return nil
}
