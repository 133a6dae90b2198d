// Package retrypolicy — ограниченные повторы с фиксированной паузой.
// Паузы вынесены в подменяемую функцию, чтобы тесты шли без реального сна.
package retrypolicy

import (
	"context"
	"time"
)

// Policy описывает число попыток и паузу на усадку eventually-consistent хранилища.
type Policy struct {
	Attempts int
	Delay    time.Duration
	Sleep    func(time.Duration)
}

// Run выполняет op до Attempts раз, пока та не сообщит done. Ошибка op
// прекращает повторы сразу; исчерпание попыток ошибкой не считается.
func (p Policy) Run(ctx context.Context, op func(attempt int) (bool, error)) (bool, error) {
	attempts := p.Attempts
	if attempts <= 0 {
		attempts = 1
	}

	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return false, err
		}
		done, err := op(attempt)
		if err != nil {
			return false, err
		}
		if done {
			return true, nil
		}
	}
	return false, nil
}

// Settle выдерживает фиксированную паузу между действием и его проверкой.
func (p Policy) Settle() {
	if p.Delay <= 0 {
		return
	}
	sleep := p.Sleep
	if sleep == nil {
		sleep = time.Sleep
	}
	sleep(p.Delay)
}
