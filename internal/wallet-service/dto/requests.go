package dto

type DepositRequest struct {
	PlayerID    string `json:"playerId" validate:"required"`
	AmountCents int64  `json:"amount_cents" validate:"gt=0"`
	ExternalRef string `json:"external_ref,omitempty"` // opcional p/ idempotência simples
}

type WithdrawRequest struct {
	PlayerID    string `json:"playerId" validate:"required"`
	AmountCents int64  `json:"amount_cents" validate:"gt=0"`
	ExternalRef string `json:"external_ref,omitempty"` // ex: id do pedido de saque
}
