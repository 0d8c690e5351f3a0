package pipeline

import (
	"log/slog"

	"deipchain/evaluator"
)

// Notification identifies which of the event stream's fixed notification
// kinds a handler is being invoked for (spec §6 "Event stream").
type Notification string

const (
	NotifyPreApplyOperation     Notification = "pre_apply_operation"
	NotifyPostApplyOperation    Notification = "post_apply_operation"
	NotifyOnPendingTransaction  Notification = "on_pending_transaction"
	NotifyOnPreApplyTransaction Notification = "on_pre_apply_transaction"
	NotifyOnAppliedTransaction  Notification = "on_applied_transaction"
	NotifyAppliedBlock          Notification = "applied_block"
)

// Handler receives one notification's payload. Handlers are invoked
// synchronously under the pipeline's write lock (spec §5 "Signals ...
// dispatched synchronously under the write lock; handlers must not block
// and must not mutate the database") and any panic is recovered: logged,
// chain continues.
type Handler func(payload any)

// Bus is the chain's synchronous event/notification dispatcher. It wraps
// evaluator.VirtualOp emission (real and virtual operations are
// indistinguishable in shape — spec §6) alongside the pipeline's own
// transaction/block lifecycle notifications.
type Bus struct {
	handlers map[Notification][]Handler
}

// NewBus returns an empty notification bus.
func NewBus() *Bus {
	return &Bus{handlers: make(map[Notification][]Handler)}
}

// Subscribe registers fn to run on every future dispatch of kind.
func (b *Bus) Subscribe(kind Notification, fn Handler) {
	b.handlers[kind] = append(b.handlers[kind], fn)
}

// emit runs every handler registered for kind, recovering from (and
// logging) any panic a handler raises so one broken subscriber cannot
// take down block application (spec §7 "Plugin" error kind: "any exception
// raised by a subscriber (logged; chain continues)").
func (b *Bus) emit(kind Notification, payload any) {
	for _, h := range b.handlers[kind] {
		b.safeCall(h, payload)
	}
}

func (b *Bus) safeCall(h Handler, payload any) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("pipeline: event handler panicked", "payload", payload, "panic", r)
		}
	}()
	h(payload)
}

// emitVirtualOps fans out every virtual operation an evaluator produced as
// a post_apply_operation notification, since virtual operations are
// indistinguishable in shape from real operations but carry a flag (spec
// §6).
func (b *Bus) emitVirtualOps(ops []evaluator.VirtualOp) {
	for _, op := range ops {
		b.emit(NotifyPostApplyOperation, op)
	}
}
