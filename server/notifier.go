package server

// Notifier is the hook surface the REST layer calls after persisting
// a tip mutation. Calls are fire-and-forget: delivery is best-effort
// and a broadcast with nobody connected succeeds.
type Notifier struct {
	hub *Hub
}

func NewNotifier(hub *Hub) *Notifier {
	return &Notifier{hub: hub}
}

// TipCreated announces a newly persisted tip to every connection.
func (n *Notifier) TipCreated(tip any) {
	n.hub.ToAll(newEvent(EventTypeTipCreated, tip).toBytes())
}

// TipUpdated announces an updated tip to every connection.
func (n *Notifier) TipUpdated(tip any) {
	n.hub.ToAll(newEvent(EventTypeTipUpdated, tip).toBytes())
}

// TipDeleted announces a deletion by id.
func (n *Notifier) TipDeleted(id string) {
	n.hub.ToAll(newEvent(EventTypeTipDeleted, TipRef{ID: id}).toBytes())
}
