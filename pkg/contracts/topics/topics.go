package topics

const (
	// Rodadas
	RoundResults = "round_results"
	RoundSettled = "round_settled"
	RoundVoided  = "round_voided"

	// DLQs
	RoundSettledDLQ = "round_settled_dlq"
)
