package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/CollabraChain/escrow-backend/internal/ledger"
	"github.com/CollabraChain/escrow-backend/internal/pkg/apperror"
)

// LedgerService выполняет операции с расчётным активом от имени
// аутентифицированного пользователя.
type LedgerService struct {
	ledger        *ledger.Ledger
	faucetEnabled bool
	faucetAmount  uint64
}

// NewLedgerService создаёт сервис расчётного актива.
func NewLedgerService(l *ledger.Ledger, faucetEnabled bool, faucetAmount uint64) *LedgerService {
	return &LedgerService{
		ledger:        l,
		faucetEnabled: faucetEnabled,
		faucetAmount:  faucetAmount,
	}
}

// Balance возвращает баланс адреса.
func (s *LedgerService) Balance(ctx context.Context, owner uuid.UUID) uint64 {
	return s.ledger.BalanceOf(owner)
}

// Approve выставляет разрешение на списание в пользу spender.
func (s *LedgerService) Approve(ctx context.Context, owner, spender uuid.UUID, amount uint64) error {
	return s.ledger.Approve(owner, spender, amount)
}

// Allowance возвращает действующее разрешение owner → spender.
func (s *LedgerService) Allowance(ctx context.Context, owner, spender uuid.UUID) uint64 {
	return s.ledger.Allowance(owner, spender)
}

// Transfer переводит средства вызывающего на другой адрес.
func (s *LedgerService) Transfer(ctx context.Context, from, to uuid.UUID, amount uint64) error {
	if to == uuid.Nil {
		return apperror.New(apperror.ErrCodeZeroAddress, "нулевой адрес получателя")
	}
	if !s.ledger.Transfer(from, to, amount) {
		return apperror.New(apperror.ErrCodeTransferFailed, "перевод отклонён: недостаточно средств")
	}
	return nil
}

// Faucet зачисляет тестовую сумму на адрес вызывающего. В production
// кран выключен конфигурацией.
func (s *LedgerService) Faucet(ctx context.Context, owner uuid.UUID) (uint64, error) {
	if !s.faucetEnabled {
		return 0, apperror.New(apperror.ErrCodeForbidden, "кран расчётного актива отключён")
	}
	if err := s.ledger.Credit(owner, s.faucetAmount); err != nil {
		return 0, err
	}
	return s.faucetAmount, nil
}
