package media

// Notifier implements Player.Subscribe. The zero value is ready to use.
// It is not safe for concurrent use; players notify from their loop.
type Notifier struct {
	nextId      int
	subscribers map[int]func(Change)
	order       []int
}

func (n *Notifier) Subscribe(fn func(Change)) func() {
	if n.subscribers == nil {
		n.subscribers = map[int]func(Change){}
	}
	id := n.nextId
	n.nextId++
	n.subscribers[id] = fn
	n.order = append(n.order, id)
	return func() {
		delete(n.subscribers, id)
		for i, subscribed := range n.order {
			if subscribed == id {
				n.order = append(n.order[:i], n.order[i+1:]...)
				break
			}
		}
	}
}

// Notify delivers change to every subscriber in subscription order.
func (n *Notifier) Notify(change Change) {
	if change == ChangeNone {
		return
	}
	for _, id := range append([]int(nil), n.order...) {
		if fn, ok := n.subscribers[id]; ok {
			fn(change)
		}
	}
}

// NotifyEach delivers one notification per group in change.
func (n *Notifier) NotifyEach(change Change) {
	for _, group := range change.Groups() {
		n.Notify(group)
	}
}
