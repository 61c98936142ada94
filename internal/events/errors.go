package events

import "errors"

var (
	ErrBufferFull     = errors.New("event buffer is full")
	ErrProducerClosed = errors.New("event producer is closed")
)
