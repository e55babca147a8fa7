package messaging

import (
	"encoding/json"
	"log/slog"
	"strconv"

	"github.com/google/uuid"
)

// Subjects the networking layer subscribes to. All notifications are
// fire-and-forget: a failed publish is logged and dropped.
const (
	SubjectMapUpdated     = "content.map.updated"
	SubjectGridRebuilt    = "topology.grid.rebuilt"
	SubjectMapListChanged = "content.maplist.changed"
)

type publisher interface {
	Publish(subject string, data []byte) error
}

// Notifier publishes content and topology change events for connected
// clients. It satisfies the notifier contracts of both the CRUD
// manager and the topology builder.
type Notifier struct {
	bus publisher
}

func NewNotifier(bus publisher) *Notifier {
	return &Notifier{bus: bus}
}

func (n *Notifier) MapUpdated(id uuid.UUID) {
	n.publish(SubjectMapUpdated, []byte(id.String()))
}

func (n *Notifier) GridRebuilt(index int) {
	n.publish(SubjectGridRebuilt, []byte(strconv.Itoa(index)))
}

func (n *Notifier) MapListChanged() {
	n.publish(SubjectMapListChanged, nil)
}

// PublishJSON sends an arbitrary payload on a subject, for callers
// outside the fixed notification set.
func (n *Notifier) PublishJSON(subject string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		slog.Warn("encoding notification", "subject", subject, "error", err)
		return
	}
	n.publish(subject, data)
}

func (n *Notifier) publish(subject string, data []byte) {
	if err := n.bus.Publish(subject, data); err != nil {
		slog.Warn("publishing notification", "subject", subject, "error", err)
	}
}
