package roadmap

// Bead é uma conta do Bead Plate: todo resultado, inclusive empate, em ordem
type Bead struct {
	Column  int     `json:"column"`
	Row     int     `json:"row"`
	Outcome Outcome `json:"outcome"`
}

func beadAt(i int, o Outcome) Bead {
	return Bead{Column: i / Rows, Row: i % Rows, Outcome: o}
}

// BeadPlate preenche a grade de cima para baixo, coluna a coluna
func BeadPlate(history []Outcome) []Bead {
	out := make([]Bead, len(history))
	for i, o := range history {
		out[i] = beadAt(i, o)
	}
	return out
}
