package ledger

import (
	"sync"

	"github.com/google/uuid"

	"github.com/CollabraChain/escrow-backend/internal/pkg/apperror"
)

// Ledger хранит балансы и разрешения расчётного актива в памяти.
// Переводы возвращают bool, а не error: для вызывающей стороны
// неуспешный перевод — обычный исход, детали ей не сообщаются.
type Ledger struct {
	mu         sync.RWMutex
	balances   map[uuid.UUID]uint64
	allowances map[uuid.UUID]map[uuid.UUID]uint64
}

func NewLedger() *Ledger {
	return &Ledger{
		balances:   make(map[uuid.UUID]uint64),
		allowances: make(map[uuid.UUID]map[uuid.UUID]uint64),
	}
}

// BalanceOf возвращает текущий баланс адреса.
func (l *Ledger) BalanceOf(addr uuid.UUID) uint64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.balances[addr]
}

// Allowance возвращает сумму, которую spender вправе списать у owner.
func (l *Ledger) Allowance(owner, spender uuid.UUID) uint64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.allowances[owner][spender]
}

// Approve выставляет разрешение owner → spender. Повторный вызов
// перезаписывает прежнее значение.
func (l *Ledger) Approve(owner, spender uuid.UUID, amount uint64) error {
	if owner == uuid.Nil || spender == uuid.Nil {
		return apperror.New(apperror.ErrCodeZeroAddress, "нулевой адрес в разрешении")
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.allowances[owner] == nil {
		l.allowances[owner] = make(map[uuid.UUID]uint64)
	}
	l.allowances[owner][spender] = amount
	return nil
}

// Transfer переводит amount от from к to. Отправитель задаётся явно:
// подлинность вызывающего гарантирует слой выше.
func (l *Ledger) Transfer(from, to uuid.UUID, amount uint64) bool {
	if from == uuid.Nil || to == uuid.Nil {
		return false
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	return l.move(from, to, amount)
}

// TransferFrom списывает amount с from в пользу to по разрешению,
// выданному spender'у. Разрешение уменьшается на списанную сумму.
func (l *Ledger) TransferFrom(spender, from, to uuid.UUID, amount uint64) bool {
	if spender == uuid.Nil || from == uuid.Nil || to == uuid.Nil {
		return false
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	allowed := l.allowances[from][spender]
	if allowed < amount {
		return false
	}
	if !l.move(from, to, amount) {
		return false
	}
	l.allowances[from][spender] = allowed - amount
	return true
}

// Credit зачисляет amount на адрес. Используется краном в dev-режиме.
func (l *Ledger) Credit(to uuid.UUID, amount uint64) error {
	if to == uuid.Nil {
		return apperror.New(apperror.ErrCodeZeroAddress, "нулевой адрес получателя")
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.balances[to]+amount < l.balances[to] {
		return apperror.New(apperror.ErrCodeInvalidAmount, "переполнение баланса")
	}
	l.balances[to] += amount
	return nil
}

// move выполняет перевод под уже взятым l.mu.
func (l *Ledger) move(from, to uuid.UUID, amount uint64) bool {
	if l.balances[from] < amount {
		return false
	}
	if l.balances[to]+amount < l.balances[to] {
		return false
	}
	l.balances[from] -= amount
	l.balances[to] += amount
	return true
}
