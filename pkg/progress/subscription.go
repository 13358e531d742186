package progress

// Subscription identifies a registered callback. The zero value never
// identifies a live subscription.
type Subscription uint64

type subscriber struct {
	fn func()
	id Subscription
}

// subscriberList is an ordered observer list. The backing slice is
// replaced, never mutated, on add and remove, so a dispatch loop that
// captured the slice keeps iterating the set that existed when it began.
type subscriberList struct {
	entries []subscriber
	next    Subscription
}

func (l *subscriberList) add(fn func()) Subscription {
	l.next++
	entries := make([]subscriber, len(l.entries), len(l.entries)+1)
	copy(entries, l.entries)
	l.entries = append(entries, subscriber{id: l.next, fn: fn})
	return l.next
}

func (l *subscriberList) remove(id Subscription) bool {
	for i, s := range l.entries {
		if s.id != id {
			continue
		}
		entries := make([]subscriber, 0, len(l.entries)-1)
		entries = append(entries, l.entries[:i]...)
		l.entries = append(entries, l.entries[i+1:]...)
		return true
	}
	return false
}

func (l *subscriberList) dispatch() {
	for _, s := range l.entries {
		s.fn()
	}
}

func (l *subscriberList) len() int {
	return len(l.entries)
}
