package eventbus

import (
	"fmt"
	"strings"

	"github.com/ThreeDotsLabs/watermill/message"
)

var scopeReplacer = strings.NewReplacer(".", "_", "*", "_", ">", "_", " ", "_")

// ScopedTopic appends a scope token to a base topic: {baseTopic}.{scope}.
// Characters that are special in NATS subjects are replaced in the scope so a
// competitor id can never widen or split the subject.
//
// Consumers subscribe to "notification.requested.v1.*" for every recipient or
// to "notification.requested.v1.<id>" for one.
func ScopedTopic(baseTopic, scope string) string {
	return baseTopic + "." + scopeReplacer.Replace(strings.TrimSpace(scope))
}

// PublishScoped publishes msg to the scoped form of baseTopic.
func PublishScoped(pub message.Publisher, baseTopic, scope string, msg *message.Message) error {
	if strings.TrimSpace(scope) == "" {
		return fmt.Errorf("scope cannot be empty for scoped publish to %s", baseTopic)
	}
	return pub.Publish(ScopedTopic(baseTopic, scope), msg)
}
