package roadmap

// Rows é a altura fixa da grade
const Rows = 6

// Cell é um nó do Big Road. Column/Row são a posição na grade; Run é a coluna
// lógica (a sequência de resultados iguais) à qual a célula pertence.
type Cell struct {
	Column  int     `json:"column"`
	Row     int     `json:"row"`
	Run     int     `json:"run"`
	Outcome Outcome `json:"outcome"`
	// Ties são os empates vistos desde a célula anterior. Empates depois da
	// última célula ficam em BigRoad.PendingTies e o cliente os desenha nela.
	Ties int `json:"ties"`
}

type pos struct{ col, row int }

type run struct {
	outcome Outcome
	length  int
	turned  bool
}

// bigRoad é incremental: cada add coloca no máximo uma célula
type bigRoad struct {
	cells       []Cell
	runs        []run
	occupied    map[pos]bool
	pendingTies int
	lastStart   int
}

func newBigRoad() *bigRoad {
	return &bigRoad{occupied: make(map[pos]bool), lastStart: -1}
}

// add devolve a célula colocada; ok=false para empate
func (b *bigRoad) add(o Outcome) (Cell, bool) {
	if o == Tie {
		b.pendingTies++
		return Cell{}, false
	}

	var c Cell
	if n := len(b.runs); n == 0 || b.runs[n-1].outcome != o {
		// nova coluna lógica; começa na primeira coluna livre da linha 0
		col := len(b.runs)
		if col <= b.lastStart {
			col = b.lastStart + 1
		}
		for b.occupied[pos{col, 0}] {
			col++
		}
		b.runs = append(b.runs, run{outcome: o})
		b.lastStart = col
		c = Cell{Column: col, Row: 0}
	} else {
		r := &b.runs[n-1]
		prev := b.cells[len(b.cells)-1]
		below := pos{prev.Column, prev.Row + 1}
		if !r.turned && below.row < Rows && !b.occupied[below] {
			c = Cell{Column: prev.Column, Row: prev.Row + 1}
		} else {
			// estourou a altura (ou bateu numa cauda anterior): segue para a direita
			r.turned = true
			c = Cell{Column: prev.Column + 1, Row: prev.Row}
		}
	}

	idx := len(b.runs) - 1
	b.runs[idx].length++
	c.Run = idx
	c.Outcome = o
	c.Ties = b.pendingTies
	b.pendingTies = 0

	b.occupied[pos{c.Column, c.Row}] = true
	b.cells = append(b.cells, c)
	return c, true
}

// lengths devolve o comprimento de cada coluna lógica
func (b *bigRoad) lengths() []int {
	out := make([]int, len(b.runs))
	for i, r := range b.runs {
		out[i] = r.length
	}
	return out
}

// BigRoad é a visão serializável da grade
type BigRoad struct {
	Cells []Cell `json:"cells"`
	// empates ainda não seguidos de uma célula
	PendingTies int `json:"pendingTies"`
	Columns     int `json:"columns"`
}

func (b *bigRoad) view() BigRoad {
	cells := make([]Cell, len(b.cells))
	copy(cells, b.cells)
	cols := 0
	for _, c := range cells {
		if c.Column+1 > cols {
			cols = c.Column + 1
		}
	}
	return BigRoad{Cells: cells, PendingTies: b.pendingTies, Columns: cols}
}

// Grid devolve as células indexadas por [coluna][linha]; nil onde não há célula
func (r BigRoad) Grid() [][Rows]*Cell {
	grid := make([][Rows]*Cell, r.Columns)
	for i := range r.Cells {
		c := &r.Cells[i]
		grid[c.Column][c.Row] = c
	}
	return grid
}
