package repository

// TxRepos agrupa los repositorios atados a una misma transacción.
type TxRepos struct {
	Stock     StockRepository
	Batches   BatchRepository
	Movements MovementRepository
	Sequences SequenceRepository
	Outbox    OutboxRepository
}
