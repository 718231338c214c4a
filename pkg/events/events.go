// Package events carries domain state changes to external listeners.
package events

import "sync"

// Event names emitted by the economy managers.
const (
	BalanceSet      = "balanceSet"
	BalanceAdd      = "balanceAdd"
	BalanceSubtract = "balanceSubtract"

	BankSet      = "bankSet"
	BankAdd      = "bankAdd"
	BankSubtract = "bankSubtract"

	CustomCurrencySet      = "customCurrencySet"
	CustomCurrencyAdd      = "customCurrencyAdd"
	CustomCurrencySubtract = "customCurrencySubtract"

	ShopItemAdd    = "shopItemAdd"
	ShopItemEdit   = "shopItemEdit"
	ShopItemRemove = "shopItemRemove"
	ShopItemBuy    = "shopItemBuy"
	ShopItemUse    = "shopItemUse"
	ShopClear      = "shopClear"
)

// Handler receives the payload of an emitted event.
type Handler func(payload any)

type listener struct {
	handler Handler
	once    bool
}

// Emitter is a minimal pub/sub hub. One instance is owned by each economy
// facade and shared by its managers.
type Emitter struct {
	mu        sync.Mutex
	listeners map[string][]*listener
}

// NewEmitter creates an empty Emitter.
func NewEmitter() *Emitter {
	return &Emitter{
		listeners: make(map[string][]*listener),
	}
}

// On subscribes the handler to every emission of the event.
func (e *Emitter) On(event string, handler Handler) {
	e.subscribe(event, handler, false)
}

// Once subscribes the handler to the next emission of the event only.
func (e *Emitter) Once(event string, handler Handler) {
	e.subscribe(event, handler, true)
}

func (e *Emitter) subscribe(event string, handler Handler, once bool) {
	if handler == nil {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.listeners[event] = append(e.listeners[event], &listener{handler: handler, once: once})
}

// Off removes every handler for the event.
func (e *Emitter) Off(event string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.listeners, event)
}

// Emit synchronously invokes the handlers subscribed to the event with the
// payload. Once-handlers are dropped after the call.
func (e *Emitter) Emit(event string, payload any) {
	e.mu.Lock()
	subscribed := e.listeners[event]
	remaining := subscribed[:0:0]
	handlers := make([]Handler, 0, len(subscribed))
	for _, l := range subscribed {
		handlers = append(handlers, l.handler)
		if !l.once {
			remaining = append(remaining, l)
		}
	}
	if len(remaining) == 0 {
		delete(e.listeners, event)
	} else {
		e.listeners[event] = remaining
	}
	e.mu.Unlock()

	for _, handler := range handlers {
		handler(payload)
	}
}
