package flooding

import "github.com/emirpasic/gods/queues/linkedlistqueue"

// packetQueue is the FIFO of pending packets. Children of a step are appended
// behind every packet already waiting, which makes the flood expand breadth
// first.
type packetQueue struct {
	q *linkedlistqueue.Queue
}

func newPacketQueue() *packetQueue {
	return &packetQueue{q: linkedlistqueue.New()}
}

func (q *packetQueue) push(p Packet) {
	q.q.Enqueue(p)
}

func (q *packetQueue) pop() (Packet, bool) {
	v, ok := q.q.Dequeue()
	if !ok {
		return Packet{}, false
	}

	return v.(Packet), true
}

func (q *packetQueue) len() int {
	return q.q.Size()
}

func (q *packetQueue) clear() {
	q.q.Clear()
}

func (q *packetQueue) snapshot() []Packet {
	values := q.q.Values()
	packets := make([]Packet, len(values))

	for i, v := range values {
		packets[i] = v.(Packet)
	}

	return packets
}
