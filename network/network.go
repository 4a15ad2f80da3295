// Package network polls a set of Intcode machines round-robin, routing the
// (destination, x, y) packets they output into each other's input queues.
package network

import (
	"errors"
	"log"

	"github.com/ezrec/intcode/cpu"
	"github.com/ezrec/intcode/io"
	"github.com/ezrec/intcode/translate"
)

var f = translate.From

const (
	NAT_ADDRESS     = 255     // Packets to this address go to the NAT.
	IDLE_INPUT      = -1      // Input given to a node with an empty queue.
	PACKET_SIZE     = 3       // Values per packet: destination, x, y.
	NODE_TICK_LIMIT = 100_000 // Instruction budget per poll.
)

var (
	ErrAddressUnknown = errors.New(f("unknown packet address"))
	ErrRoundLimit     = errors.New(f("round limit reached"))
	ErrNoNodes        = errors.New(f("no nodes"))
)

// Packet is one message between nodes.
type Packet struct {
	Dest int64
	X    int64
	Y    int64
}

// Node is one machine on the network, with its input queue.
type Node struct {
	Address int64
	*cpu.Machine
	Queue io.Queue

	partial []int64 // Output values of an incomplete packet.
	idle    bool    // Starved and silent on the last poll.
}

// poll runs the node once, returning any complete packets it sent.
func (node *Node) poll() (packets []Packet, err error) {
	if node.Halted {
		node.idle = true
		return
	}

	inputs := node.Queue.Peek()
	starved := len(inputs) == 0
	if starved {
		inputs = []int64{IDLE_INPUT}
	}

	outcome, err := node.Run(inputs, PACKET_SIZE)
	if errors.Is(err, cpu.ErrTickLimit) {
		// Still busy; try again next round.
		err = nil
		starved = false
	}
	if err != nil {
		return
	}

	if !starved {
		node.Queue.Discard(outcome.Consumed)
	}

	node.partial = append(node.partial, outcome.Outputs...)
	for len(node.partial) >= PACKET_SIZE {
		packets = append(packets, Packet{
			Dest: node.partial[0],
			X:    node.partial[1],
			Y:    node.partial[2],
		})
		node.partial = node.partial[PACKET_SIZE:]
	}

	node.idle = starved && len(outcome.Outputs) == 0

	return
}

// Nat holds the last packet sent to NAT_ADDRESS.
type Nat struct {
	Packet
	Valid bool    // Set once any packet has arrived.
	Sent  []int64 // Y values sent to node 0, in order.
}

// Network is the set of nodes, and the NAT monitoring them.
type Network struct {
	Verbose bool
	Nodes   []*Node
	Nat     Nat
	Rounds  int // Rounds completed.
}

// NewNetwork boots size copies of program, giving each its address as the
// first input.
func NewNetwork(program cpu.Program, size int) (nw *Network, err error) {
	if size <= 0 {
		err = ErrNoNodes
		return
	}

	nw = &Network{}
	for address := range size {
		var m *cpu.Machine
		m, err = cpu.NewMachine(program)
		if err != nil {
			nw = nil
			return
		}
		m.TickLimit = NODE_TICK_LIMIT

		node := &Node{
			Address: int64(address),
			Machine: m,
		}
		err = node.Queue.Send(int64(address))
		if err != nil {
			nw = nil
			return
		}
		nw.Nodes = append(nw.Nodes, node)
	}

	return
}

// Send delivers a packet to a node queue or to the NAT.
func (nw *Network) Send(packet Packet) (err error) {
	if nw.Verbose {
		log.Printf("network: %d -> (%d, %d)", packet.Dest, packet.X, packet.Y)
	}

	if packet.Dest == NAT_ADDRESS {
		nw.Nat.Packet = packet
		nw.Nat.Valid = true
		return
	}

	if packet.Dest < 0 || packet.Dest >= int64(len(nw.Nodes)) {
		err = errors.Join(ErrAddressUnknown, errors.New(f("address %v", packet.Dest)))
		return
	}

	queue := &nw.Nodes[packet.Dest].Queue
	err = queue.Send(packet.X)
	if err != nil {
		return
	}
	err = queue.Send(packet.Y)

	return
}

// Round polls every node once in address order, delivering packets as
// they are sent. Returns all packets sent during the round.
func (nw *Network) Round() (packets []Packet, err error) {
	for _, node := range nw.Nodes {
		var sent []Packet
		sent, err = node.poll()
		if err != nil {
			err = errors.Join(errors.New(f("node %v", node.Address)), err)
			return
		}
		for _, packet := range sent {
			err = nw.Send(packet)
			if err != nil {
				return
			}
		}
		packets = append(packets, sent...)
	}

	nw.Rounds++

	return
}

// Idle reports whether every queue is empty and no node did anything on
// its last poll.
func (nw *Network) Idle() bool {
	for _, node := range nw.Nodes {
		if node.Queue.Len() > 0 || !node.idle {
			return false
		}
	}
	return true
}

// Step runs one round. If the network is then idle and the NAT holds a
// packet, that packet is sent to node 0 and woke is set.
func (nw *Network) Step() (packets []Packet, woke bool, err error) {
	packets, err = nw.Round()
	if err != nil {
		return
	}

	if !nw.Idle() || !nw.Nat.Valid {
		return
	}

	err = nw.Send(Packet{Dest: 0, X: nw.Nat.X, Y: nw.Nat.Y})
	if err != nil {
		return
	}
	nw.Nat.Sent = append(nw.Nat.Sent, nw.Nat.Y)
	for _, node := range nw.Nodes {
		node.idle = false
	}
	woke = true

	if nw.Verbose {
		log.Printf("network: round %d: NAT wakes node 0 with y=%d", nw.Rounds, nw.Nat.Y)
	}

	return
}

// FirstNat runs rounds until a packet is sent to NAT_ADDRESS, and
// returns it.
func (nw *Network) FirstNat(maxRounds int) (packet Packet, err error) {
	for range maxRounds {
		var packets []Packet
		packets, err = nw.Round()
		if err != nil {
			return
		}
		for _, sent := range packets {
			if sent.Dest == NAT_ADDRESS {
				packet = sent
				return
			}
		}
	}

	err = ErrRoundLimit
	return
}

// RepeatedWake runs steps until the NAT sends node 0 the same y value
// twice in a row, and returns that value.
func (nw *Network) RepeatedWake(maxRounds int) (y int64, err error) {
	for range maxRounds {
		var woke bool
		_, woke, err = nw.Step()
		if err != nil {
			return
		}
		if !woke {
			continue
		}
		sent := nw.Nat.Sent
		if len(sent) >= 2 && sent[len(sent)-1] == sent[len(sent)-2] {
			y = sent[len(sent)-1]
			return
		}
	}

	err = ErrRoundLimit
	return
}
