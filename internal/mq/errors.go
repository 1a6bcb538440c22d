package mq

import "errors"

// Ошибки mq.
var (
	// ErrNoChannel — канал ещё не открыт или соединение переподключается.
	ErrNoChannel = errors.New("no channel available")

	// ErrDeliveriesClosed — брокер закрыл канал доставки.
	ErrDeliveriesClosed = errors.New("deliveries channel closed")

	// ErrUnexpectedType — сообщение другого типа.
	ErrUnexpectedType = errors.New("unexpected message type")
)
