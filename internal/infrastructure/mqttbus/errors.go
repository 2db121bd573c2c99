package mqttbus

import "errors"

// Domain errors for the mqttbus package.
var (
	ErrConnectionFailed = errors.New("mqttbus: connection to broker failed")
	ErrNotConnected     = errors.New("mqttbus: not connected to broker")
	ErrPublishTimeout   = errors.New("mqttbus: publish acknowledgment timed out")
	ErrSubscribeTimeout = errors.New("mqttbus: subscribe acknowledgment timed out")
)
