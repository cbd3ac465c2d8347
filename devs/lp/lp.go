package lp

import (
	"math"
	"sort"
	"sync"

	"github.com/devsim-go/devsim/devs"
)

// checkpoint pairs a saved-state handle with the time it was taken at.
type checkpoint struct {
	time   devs.Time
	handle any
}

// Resolver maps a routed consumer's handle back to the LP driving it. The
// owning optimistic.Simulator supplies this, since the one-LP-per-atomic
// mapping is a property of the simulator's model population, not of any
// single LP.
type Resolver[V any] func(devs.ModelHandle[V]) *LP[V]

// LP is the optimistic (Time Warp) executor for a single atomic model:
// speculative output computation, time-ordered input/used/output/discard
// histories, a checkpoint stack for rollback, and an anti-message discipline
// for undoing speculation that a late message proves wrong.
type LP[V any] struct {
	model  devs.Atomic[V]
	saver  devs.StateSaver
	gcer   devs.OutputGC[V]
	handle devs.ModelHandle[V]
	graph  *devs.Graph[V]
	route  Resolver[V]

	tL         devs.Time
	ta         float64
	lastCommit devs.Time

	avail   []Message[V]
	used    []Message[V]
	output  []Message[V]
	discard []Message[V]
	chkPt   []checkpoint

	recipients map[*LP[V]]bool

	mu         sync.Mutex
	inbox      []Message[V]
	tMinInbox  devs.Time
	activeFlag bool

	rbPending bool
	rbTime    devs.Time

	rollbacks int
}

// New wraps model in an LP seeded at time zero. graph is the shared routing
// graph; handle is model's registration in it; resolve maps a routed
// consumer's handle to its LP.
func New[V any](model devs.Atomic[V], handle devs.ModelHandle[V], graph *devs.Graph[V], resolve Resolver[V]) *LP[V] {
	saver, _ := model.(devs.StateSaver)
	gcer, _ := model.(devs.OutputGC[V])
	return &LP[V]{
		model:      model,
		saver:      saver,
		gcer:       gcer,
		handle:     handle,
		graph:      graph,
		route:      resolve,
		ta:         model.TimeAdvance(),
		recipients: make(map[*LP[V]]bool),
		rbTime:     devs.Infinity(),
		tMinInbox:  devs.Infinity(),
	}
}

// Model returns the wrapped atomic.
func (l *LP[V]) Model() devs.Atomic[V] { return l.model }

// Handle returns the graph handle identifying this LP's atomic.
func (l *LP[V]) Handle() devs.ModelHandle[V] { return l.handle }

// IsActive reports whether this LP has been activated this round.
func (l *LP[V]) IsActive() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.activeFlag
}

// SetActive sets or clears the active flag. Called by the optimistic
// simulator's single-threaded batch/reschedule phases, not concurrently
// with a worker running this LP.
func (l *LP[V]) SetActive(flag bool) {
	l.mu.Lock()
	l.activeFlag = flag
	l.mu.Unlock()
}

// NextEventTime is the smallest of: this LP's own next internal event, the
// earliest available-but-unconsumed message, the earliest message still
// sitting in the locked inbox, and any pending rollback time.
func (l *LP[V]) NextEventTime() devs.Time {
	result := devs.Infinity()
	if !isInf(l.ta) {
		result = l.tL.Advance(l.ta)
	}
	if len(l.avail) > 0 && l.avail[0].Time.Less(result) {
		result = l.avail[0].Time
	}
	l.mu.Lock()
	hasInbox := len(l.inbox) > 0
	tMinInbox := l.tMinInbox
	l.mu.Unlock()
	if hasInbox && tMinInbox.Less(result) {
		result = tMinInbox
	}
	if l.rbPending && l.rbTime.Less(result) {
		result = l.rbTime
	}
	return result
}

// SendMessage appends m to the locked inbox and reports whether this
// delivery is the one that activated the LP (the caller should then append
// it to the round's shared active list).
func (l *LP[V]) SendMessage(m Message[V]) (activated bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.inbox) == 0 || m.Time.Less(l.tMinInbox) {
		l.tMinInbox = m.Time
	}
	l.inbox = append(l.inbox, m)
	if !l.activeFlag {
		l.activeFlag = true
		return true
	}
	return false
}

// ExecOutput is the speculative output phase: it first broadcasts any
// pending rollback to every LP this one has ever sent a message to, then —
// if the model isn't passive — computes and routes the output it expects
// to produce at its next internal event.
func (l *LP[V]) ExecOutput() error {
	if l.rbPending {
		rb := newRB[V](l.rbTime, l)
		for recipient := range l.recipients {
			recipient.SendMessage(rb)
		}
		l.rbPending = false
		l.rbTime = devs.Infinity()
	}
	if isInf(l.ta) {
		return nil
	}
	t := l.tL.Advance(l.ta)
	out := devs.NewBag[V]()
	l.model.Output(out)
	for _, pv := range out.Items() {
		msg := newIO(t, l, pv)
		l.output = append(l.output, msg)
		if err := l.sendOutput(pv, t); err != nil {
			return err
		}
	}
	return nil
}

// sendOutput routes pv to every downstream LP reachable from its pin,
// stamping each delivery as an IO message at t and recording the recipient
// so a later rollback's anti-message reaches it.
func (l *LP[V]) sendOutput(pv devs.PinValue[V], t devs.Time) error {
	consumers, err := l.graph.Route(pv.Pin, l.handle)
	if err != nil {
		return err
	}
	for _, c := range consumers {
		recipient := l.route(c.Model)
		if recipient == nil {
			continue
		}
		l.recipients[recipient] = true
		recipient.SendMessage(newIO(t, l, devs.PinValue[V]{Pin: c.Pin, Value: pv.Value}))
	}
	return nil
}

// ExecDeltaFunc drains the locked inbox, applies any rollback it implies,
// then advances the model's state exactly as the sequential simulator
// would for the winning (earliest) input at this round.
func (l *LP[V]) ExecDeltaFunc() error {
	l.mu.Lock()
	inbox := l.inbox
	l.inbox = nil
	l.tMinInbox = devs.Infinity()
	l.mu.Unlock()

	for _, msg := range inbox {
		usedCancelled := l.absorb(msg)
		if (msg.Kind != RB && msg.Time.Less(l.tL)) || usedCancelled {
			if err := l.rollback(msg.Time); err != nil {
				return err
			}
		}
	}

	tSelf := devs.Infinity()
	if !isInf(l.ta) {
		tSelf = l.tL.Advance(l.ta)
	}
	tN := tSelf
	in := devs.NewBag[V]()
	if len(l.avail) > 0 && l.avail[0].Time.Less(tN) {
		tN = l.avail[0].Time
	}
	if len(l.avail) > 0 {
		for len(l.avail) > 0 && l.avail[0].Time.Equal(tN) {
			m := l.avail[0]
			l.avail = l.avail[1:]
			in.PutValue(m.PV)
			l.used = append(l.used, m)
		}
	}

	if !l.rbPending && !isInf(l.ta) && tN.Less(tSelf) {
		l.rbPending = true
		l.rbTime = tSelf
		if len(l.output) > 0 {
			last := l.output[len(l.output)-1]
			l.output = l.output[:len(l.output)-1]
			l.discard = append(l.discard, last)
		}
	}

	if tN.IsInfinity() {
		return nil
	}

	if l.saver != nil {
		l.chkPt = append(l.chkPt, checkpoint{time: l.tL, handle: l.saver.SaveState()})
	}

	switch {
	case in.Empty():
		l.model.InternalTransition()
	case tN.Equal(tSelf):
		l.model.ConfluentTransition(in)
	default:
		l.model.ExternalTransition(tN.Sub(l.tL), in)
	}

	l.ta = l.model.TimeAdvance()
	l.tL = tN.Advance(0)
	return nil
}

// absorb applies msg to the avail/used histories: an RB message strips
// every later message from the same sender; an IO message inserts in time
// order. It reports whether a *used* message was cancelled by an RB,
// forcing a rollback even if the RB's own time doesn't predate tL.
func (l *LP[V]) absorb(msg Message[V]) (usedCancelled bool) {
	if msg.Kind != RB {
		insertSorted(&l.avail, msg)
		return false
	}
	l.avail = dropFrom(l.avail, msg.Sender, msg.Time)
	before := len(l.used)
	l.used = dropFrom(l.used, msg.Sender, msg.Time)
	return len(l.used) != before
}

// rollback discards speculative work invalidated by a message at msgTime:
// outputs and checkpoints taken after msgTime are undone, state is restored
// from the last checkpoint at or before msgTime, and a future anti-message
// is scheduled for the first micro-step after the intruding message.
func (l *LP[V]) rollback(msgTime devs.Time) error {
	for len(l.output) > 0 && msgTime.Less(l.output[len(l.output)-1].Time) {
		last := l.output[len(l.output)-1]
		l.output = l.output[:len(l.output)-1]
		l.discard = append(l.discard, last)
	}
	for len(l.chkPt) > 0 && msgTime.Less(l.chkPt[len(l.chkPt)-1].time) {
		last := l.chkPt[len(l.chkPt)-1]
		l.chkPt = l.chkPt[:len(l.chkPt)-1]
		if l.saver != nil {
			l.saver.GCState(last.handle)
		}
	}
	if len(l.chkPt) == 0 {
		return RollbackExhaustedError{Model: l.model}
	}
	restore := l.chkPt[len(l.chkPt)-1]
	l.chkPt = l.chkPt[:len(l.chkPt)-1]
	l.tL = restore.time
	if l.saver != nil {
		l.saver.RestoreState(restore.handle)
		l.saver.GCState(restore.handle)
	}
	l.ta = l.model.TimeAdvance()
	if l.ta < 0 {
		return devs.NegativeTimeAdvanceError{Model: l.model, TimeAdvance: l.ta}
	}
	for len(l.used) > 0 && !l.used[len(l.used)-1].Time.Less(l.tL) {
		last := l.used[len(l.used)-1]
		l.used = l.used[:len(l.used)-1]
		insertSorted(&l.avail, last)
	}
	tBad := msgTime.Advance(0)
	if !l.rbPending || tBad.Less(l.rbTime) {
		l.rbTime = tBad
	}
	l.rbPending = true
	l.rollbacks++
	return nil
}

// FossilCollect discards every checkpoint, used message, and discarded or
// committed output strictly older than gvt, always keeping the single most
// recent checkpoint at or before gvt so a rollback just behind the horizon
// still has somewhere to land. committed holds the output the caller
// should report to listeners as newly committed.
func (l *LP[V]) FossilCollect(gvt devs.Time) (committed []Message[V]) {
	for len(l.chkPt) > 1 && l.chkPt[1].time.Less(gvt) {
		if l.saver != nil {
			l.saver.GCState(l.chkPt[0].handle)
		}
		l.chkPt = l.chkPt[1:]
	}
	for len(l.used) > 0 && l.used[0].Time.Less(gvt) {
		l.used = l.used[1:]
	}
	gc := devs.NewBag[V]()
	for len(l.discard) > 0 && l.discard[0].Time.Less(gvt) {
		gc.PutValue(l.discard[0].PV)
		l.discard = l.discard[1:]
	}
	for len(l.output) > 0 && l.output[0].Time.Less(gvt) {
		committed = append(committed, l.output[0])
		gc.PutValue(l.output[0].PV)
		l.output = l.output[1:]
	}
	if l.gcer != nil && !gc.Empty() {
		l.gcer.GCOutput(gc)
	}
	return committed
}

// EarlyOutputCount returns the number of outputs currently held as
// speculative-but-not-yet-committed: neither discarded by a rollback nor
// fossil collected.
func (l *LP[V]) EarlyOutputCount() int {
	return len(l.output)
}

// RollbackCount returns the total number of rollbacks this LP has performed
// over its lifetime, for driver-level metrics.
func (l *LP[V]) RollbackCount() int {
	return l.rollbacks
}

func insertSorted[V any](l *[]Message[V], msg Message[V]) {
	i := sort.Search(len(*l), func(i int) bool { return msg.Time.Less((*l)[i].Time) })
	*l = append(*l, Message[V]{})
	copy((*l)[i+1:], (*l)[i:])
	(*l)[i] = msg
}

func dropFrom[V any](l []Message[V], sender *LP[V], at devs.Time) []Message[V] {
	kept := l[:0]
	for _, m := range l {
		if m.Sender == sender && !m.Time.Less(at) {
			continue
		}
		kept = append(kept, m)
	}
	return kept
}

// isInf mirrors devs's passive-model convention: a time advance beyond
// maxFiniteAdvance is treated as +Inf, same as an explicit
// math.Inf(1).
func isInf(ta float64) bool {
	return math.IsInf(ta, 1) || ta > maxFiniteAdvance
}

const maxFiniteAdvance = 1e300
