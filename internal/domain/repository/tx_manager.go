package repository

import "context"

// TxManager выполняет fn в одной транзакции БД. Репозитории, получившие ctx из fn,
// работают внутри этой транзакции. Вложенный вызов переиспользует внешнюю транзакцию.
type TxManager interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}
