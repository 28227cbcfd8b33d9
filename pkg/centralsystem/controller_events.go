package centralsystem

import (
	"encoding/json"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
)

// eventSubjectPrefix is the NATS subject namespace for outbound events.
// Subscribers use "csms.v1.events.>" to observe everything.
const eventSubjectPrefix = "csms.v1.events."

type connectionEventDetails struct {
	DeviceID    string    `json:"deviceId"`
	Event       string    `json:"event"`
	Connections int       `json:"connections"`
	Timestamp   time.Time `json:"timestamp"`
}

type deviceStatusDetails struct {
	DeviceID  string    `json:"deviceId"`
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

// publishConnectionEvent emits a connect or disconnect event. Events are
// best effort: without a broker, or on publish failure, the command path
// is unaffected.
func (ctrl *Controller) publishConnectionEvent(event, deviceID string) {
	ctrl.publishEvent("connection", &connectionEventDetails{
		DeviceID:    deviceID,
		Event:       event,
		Connections: ctrl.registry.Count(),
		Timestamp:   time.Now().Round(time.Second).UTC(),
	})
}

func (ctrl *Controller) publishDeviceStatus(deviceID, status string) {
	ctrl.publishEvent("devicestatus", &deviceStatusDetails{
		DeviceID:  deviceID,
		Status:    status,
		Timestamp: time.Now().Round(time.Second).UTC(),
	})
}

func (ctrl *Controller) publishEvent(name string, details interface{}) {
	if ctrl.nc == nil {
		return
	}

	data, err := json.Marshal(details)
	if err != nil {
		log.Errorf("failed to marshal %s event: %s", name, err.Error())
		return
	}

	subj := fmt.Sprintf("%s%s", eventSubjectPrefix, name)
	if err := ctrl.nc.Publish(subj, data); err != nil {
		log.Warnf("failed to publish %s event: %s", name, err.Error())
	}
}
