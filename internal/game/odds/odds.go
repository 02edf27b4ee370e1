// Package odds contém as tabelas de pagamento por variante.
// Os multiplicadores são de retorno total (stake incluído): 2 paga 1:1.
package odds

import (
	"github.com/shopspring/decimal"

	"github.com/radieske/live-tables-platform/internal/game"
)

var (
	zero = decimal.Zero
	one  = decimal.NewFromInt(1)

	baccaratPlayer     = decimal.NewFromInt(2)
	baccaratBanker     = decimal.RequireFromString("1.95")
	noCommissionBanker = decimal.NewFromInt(2)
	noCommissionSix    = decimal.RequireFromString("1.5")
	baccaratTie        = decimal.NewFromInt(9)
	baccaratPair       = decimal.NewFromInt(12)

	dragonTigerMain      = decimal.NewFromInt(2)
	dragonTigerHalf      = decimal.RequireFromString("0.5")
	dragonTigerTie       = decimal.NewFromInt(9)
	dragonTigerSuitedTie = decimal.NewFromInt(51)
)

// Multiplier devolve o retorno por unidade apostada para o tipo de aposta dado o resultado
func Multiplier(bt game.BetType, res game.Result) decimal.Decimal {
	switch res.Variant {
	case game.Baccarat, game.BaccaratNoCommission:
		return baccarat(res.Variant, bt, res)
	case game.DragonTiger:
		return dragonTiger(bt, res)
	case game.BullBull:
		return bullBull(bt, res)
	}
	return zero
}

func baccarat(v game.Variant, bt game.BetType, res game.Result) decimal.Decimal {
	switch bt {
	case game.BetPlayer:
		switch res.Outcome {
		case game.OutcomePlayer:
			return baccaratPlayer
		case game.OutcomeTie:
			return one
		}
	case game.BetBanker:
		switch res.Outcome {
		case game.OutcomeBanker:
			if v == game.BaccaratNoCommission {
				if res.Flags.BankerSix {
					return noCommissionSix
				}
				return noCommissionBanker
			}
			return baccaratBanker
		case game.OutcomeTie:
			return one
		}
	case game.BetTie:
		if res.Outcome == game.OutcomeTie {
			return baccaratTie
		}
	case game.BetPlayerPair:
		if res.Flags.PlayerPair {
			return baccaratPair
		}
	case game.BetBankerPair:
		if res.Flags.BankerPair {
			return baccaratPair
		}
	}
	return zero
}

func dragonTiger(bt game.BetType, res game.Result) decimal.Decimal {
	switch bt {
	case game.BetDragon, game.BetTiger:
		if res.Outcome == game.OutcomeTie {
			// metade do stake volta no empate
			return dragonTigerHalf
		}
		if (bt == game.BetDragon && res.Outcome == game.OutcomeDragon) ||
			(bt == game.BetTiger && res.Outcome == game.OutcomeTiger) {
			return dragonTigerMain
		}
	case game.BetTie:
		if res.Outcome == game.OutcomeTie {
			return dragonTigerTie
		}
	case game.BetSuitedTie:
		if res.Flags.SuitedTie {
			return dragonTigerSuitedTie
		}
	}
	return zero
}

func bullBull(bt game.BetType, res game.Result) decimal.Decimal {
	seat, ok := res.Seat(string(bt))
	if !ok || !seat.Win {
		return zero
	}
	return decimal.NewFromInt(int64(1 + seat.Multiplier))
}

// Return aplica o multiplicador ao valor em centavos, arredondando para baixo
func Return(amount int64, m decimal.Decimal) int64 {
	return decimal.NewFromInt(amount).Mul(m).Floor().IntPart()
}

// Status classifica a aposta pelo retorno: devolução integral é refunded,
// retorno parcial (meio stake no empate) conta como perdida.
func Status(amount, ret int64) game.WagerStatus {
	switch {
	case ret > amount:
		return game.WagerWon
	case ret == amount:
		return game.WagerRefunded
	default:
		return game.WagerLost
	}
}

// Table lista os multiplicadores nominais de vitória por tipo de aposta
func Table(v game.Variant) map[game.BetType]decimal.Decimal {
	switch v {
	case game.Baccarat:
		return map[game.BetType]decimal.Decimal{
			game.BetPlayer: baccaratPlayer, game.BetBanker: baccaratBanker, game.BetTie: baccaratTie,
			game.BetPlayerPair: baccaratPair, game.BetBankerPair: baccaratPair,
		}
	case game.BaccaratNoCommission:
		return map[game.BetType]decimal.Decimal{
			game.BetPlayer: baccaratPlayer, game.BetBanker: noCommissionBanker, game.BetTie: baccaratTie,
			game.BetPlayerPair: baccaratPair, game.BetBankerPair: baccaratPair,
		}
	case game.DragonTiger:
		return map[game.BetType]decimal.Decimal{
			game.BetDragon: dragonTigerMain, game.BetTiger: dragonTigerMain,
			game.BetTie: dragonTigerTie, game.BetSuitedTie: dragonTigerSuitedTie,
		}
	case game.BullBull:
		// valor mínimo de vitória; o real depende da classe da mão
		m := decimal.NewFromInt(2)
		return map[game.BetType]decimal.Decimal{game.BetSeat1: m, game.BetSeat2: m, game.BetSeat3: m}
	}
	return nil
}
