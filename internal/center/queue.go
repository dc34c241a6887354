package center

import (
	"slices"

	"github.com/jmylchreest/msgcenter/internal/model"
)

type changeType int

const (
	changeAdd changeType = iota
	changeUpdate
	changeDelete
)

func (t changeType) String() string {
	switch t {
	case changeAdd:
		return "add"
	case changeUpdate:
		return "update"
	case changeDelete:
		return "delete"
	default:
		return "unknown"
	}
}

// change is one deferred mutation. id is the notification's id after the
// change; listID is the id it has in the list before the change is applied.
type change struct {
	typ          changeType
	id           string
	listID       string
	byUser       bool
	notification *model.Notification
}

func newChange(typ changeType, listID string, n *model.Notification) *change {
	if listID == "" {
		panic("center: unreachable: queued change without id")
	}
	if typ == changeDelete && n != nil {
		panic("center: unreachable: delete change carrying a notification")
	}
	c := &change{typ: typ, listID: listID}
	c.replaceNotification(n)
	return c
}

func (c *change) replaceNotification(n *model.Notification) {
	c.notification = n
	if n != nil {
		c.id = n.ID()
	} else {
		c.id = c.listID
	}
}

// applier is the immediate, non-queuing side of the MessageCenter.
type applier interface {
	addNotificationImmediately(n *model.Notification)
	updateNotificationImmediately(oldID string, n *model.Notification)
	removeNotificationImmediately(id string, byUser bool)
}

// changeQueue holds mutations made while the archive is open, so the list
// a user is looking at does not shift under them. Changes to the same
// logical notification are coalesced; replay yields the net effect.
type changeQueue struct {
	changes []*change
}

func (q *changeQueue) len() int { return len(q.changes) }

// lastIndex returns the index of the most recent change whose post-change
// id is id, or -1.
func (q *changeQueue) lastIndex(id string) int {
	for i := len(q.changes) - 1; i >= 0; i-- {
		if q.changes[i].id == id {
			return i
		}
	}
	return -1
}

func (q *changeQueue) removeAt(i int) {
	q.changes = slices.Delete(q.changes, i, i+1)
}

func (q *changeQueue) push(c *change) {
	q.changes = append(q.changes, c)
}

func (q *changeQueue) addNotification(n *model.Notification) {
	q.push(newChange(changeAdd, n.ID(), n))
}

func (q *changeQueue) updateNotification(oldID string, n *model.Notification) {
	i := q.lastIndex(oldID)
	if i < 0 {
		q.push(newChange(changeUpdate, oldID, n))
		return
	}

	c := q.changes[i]
	switch c.typ {
	case changeAdd:
		// Moved to the end: if the id changed, earlier changes may refer
		// to the new id (add A, add B, update A to B).
		q.removeAt(i)
		q.push(newChange(changeAdd, n.ID(), n))
	case changeUpdate:
		switch {
		case n.ID() == oldID:
			c.replaceNotification(n)
		case c.id == c.listID:
			q.removeAt(i)
			q.push(newChange(changeAdd, n.ID(), n))
		default:
			// Chained renames; coalescing could drop an intermediate id.
			q.push(newChange(changeUpdate, oldID, n))
		}
	case changeDelete:
		// Updated after delete: recreate it.
		q.push(newChange(changeAdd, oldID, n))
	default:
		panic("center: unreachable: unknown change type " + c.typ.String())
	}
}

func (q *changeQueue) eraseNotification(id string, byUser bool) {
	i := q.lastIndex(id)
	if i < 0 {
		c := newChange(changeDelete, id, nil)
		c.byUser = byUser
		q.push(c)
		return
	}

	c := q.changes[i]
	switch c.typ {
	case changeAdd:
		q.removeAt(i)
	case changeUpdate:
		c.typ = changeDelete
		c.byUser = byUser
		c.replaceNotification(nil)
	case changeDelete:
		// A system delete may become a user delete, never the reverse.
		c.byUser = !c.byUser && byUser
	default:
		panic("center: unreachable: unknown change type " + c.typ.String())
	}
}

// has reports whether a queued change produces id.
func (q *changeQueue) has(id string) bool {
	return q.lastIndex(id) >= 0
}

// latestNotification returns the queued content that will become id, so
// late image loads can patch it in place.
func (q *changeQueue) latestNotification(id string) *model.Notification {
	if i := q.lastIndex(id); i >= 0 {
		return q.changes[i].notification
	}
	return nil
}

// applyChanges drains the queue front to back. Applying a change may queue
// more changes; they are drained too.
func (q *changeQueue) applyChanges(a applier) {
	for len(q.changes) > 0 {
		c := q.changes[0]
		q.changes[0] = nil
		q.changes = q.changes[1:]
		q.apply(a, c)
	}
}

// applyChangesForID replays only the changes that end in id, following
// renames backwards through the queue, in their original order.
func (q *changeQueue) applyChangesForID(a applier, id string) {
	var picked []*change
	interesting := id
	for i := len(q.changes) - 1; i >= 0; i-- {
		c := q.changes[i]
		if c.id != interesting {
			continue
		}
		interesting = c.listID
		picked = append(picked, c)
		q.removeAt(i)
	}
	for i := len(picked) - 1; i >= 0; i-- {
		q.apply(a, picked[i])
	}
}

func (q *changeQueue) apply(a applier, c *change) {
	switch c.typ {
	case changeAdd:
		a.addNotificationImmediately(c.notification)
	case changeUpdate:
		a.updateNotificationImmediately(c.listID, c.notification)
	case changeDelete:
		a.removeNotificationImmediately(c.listID, c.byUser)
	default:
		panic("center: unreachable: unknown change type " + c.typ.String())
	}
}
