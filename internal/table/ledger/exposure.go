package ledger

import (
	"errors"
	"sync"

	"github.com/radieske/live-tables-platform/internal/game"
)

// ErrStaleBalance indica que o saldo lido é anterior a uma liberação de stake;
// quem chamou deve reler o saldo e tentar de novo.
var ErrStaleBalance = errors.New("balance read is stale")

// Exposure guarda os stakes em aberto de cada jogador em todas as mesas do processo.
// O stake não é debitado na aposta: o saldo disponível é saldo - exposição.
type Exposure struct {
	// OnChange recebe o novo total do jogador; roda sob o lock, não pode bloquear.
	// Deve ser definido antes de as mesas começarem.
	OnChange func(playerID string, total int64)

	mu      sync.Mutex
	players map[string]*playerExposure
}

type playerExposure struct {
	byTable map[string]int64
	// incrementa a cada liberação (o saldo gravado mudou depois dela)
	version uint64
}

func NewExposure() *Exposure {
	return &Exposure{players: make(map[string]*playerExposure)}
}

func (e *Exposure) get(playerID string) *playerExposure {
	p, ok := e.players[playerID]
	if !ok {
		p = &playerExposure{byTable: make(map[string]int64)}
		e.players[playerID] = p
	}
	return p
}

// Version deve ser lida antes do saldo
func (e *Exposure) Version(playerID string) uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	if p, ok := e.players[playerID]; ok {
		return p.version
	}
	return 0
}

// Total é a soma dos stakes em aberto do jogador
func (e *Exposure) Total(playerID string) int64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.total(playerID)
}

func (e *Exposure) total(playerID string) int64 {
	p, ok := e.players[playerID]
	if !ok {
		return 0
	}
	var sum int64
	for _, v := range p.byTable {
		sum += v
	}
	return sum
}

// Reserve soma amount à exposição do jogador na mesa se couber no saldo.
// seen é a versão lida antes do saldo.
func (e *Exposure) Reserve(playerID, tableID string, amount, balance int64, seen uint64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	p := e.get(playerID)
	if p.version != seen {
		return ErrStaleBalance
	}
	if e.total(playerID)+amount > balance {
		return game.ErrInsufficientBalance
	}
	p.byTable[tableID] += amount
	e.changed(playerID)
	return nil
}

// Release devolve amount da exposição na mesa. Chamado depois que o saldo
// correspondente foi gravado (ou quando as apostas são apagadas).
func (e *Exposure) Release(playerID, tableID string, amount int64) {
	e.mu.Lock()
	defer e.mu.Unlock()

	p, ok := e.players[playerID]
	if !ok {
		return
	}
	p.byTable[tableID] -= amount
	if p.byTable[tableID] <= 0 {
		delete(p.byTable, tableID)
	}
	p.version++
	e.changed(playerID)
}

func (e *Exposure) changed(playerID string) {
	if e.OnChange != nil {
		e.OnChange(playerID, e.total(playerID))
	}
}
