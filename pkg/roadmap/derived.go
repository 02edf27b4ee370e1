package roadmap

// Color é o marcador dos roads derivados
type Color string

const (
	Red  Color = "red"  // repete o padrão
	Blue Color = "blue" // quebra o padrão
)

// Road identifica um road derivado pelo deslocamento de colunas
type Road int

const (
	BigEyeBoy    Road = 1
	SmallRoad    Road = 2
	CockroachPig Road = 3
)

var derivedRoads = [...]Road{BigEyeBoy, SmallRoad, CockroachPig}

func (r Road) String() string {
	switch r {
	case BigEyeBoy:
		return "big_eye_boy"
	case SmallRoad:
		return "small_road"
	case CockroachPig:
		return "cockroach_pig"
	}
	return "unknown"
}

// marker compara a entrada depth (0-based) da coluna c com a coluna c-offset.
// Só existe marcador para c >= offset e depth >= 1.
func marker(lengths []int, c, depth, offset int) (Color, bool) {
	if c < offset || depth < 1 {
		return "", false
	}
	if lengths[c-offset] > depth {
		return Red, true
	}
	return Blue, true
}

// Derive calcula do zero o road de deslocamento offset a partir dos comprimentos
// das colunas lógicas do Big Road; ordem coluna a coluna, de cima para baixo.
func Derive(lengths []int, offset int) []Color {
	out := []Color{}
	for c := offset; c < len(lengths); c++ {
		for depth := 1; depth < lengths[c]; depth++ {
			if m, ok := marker(lengths, c, depth, offset); ok {
				out = append(out, m)
			}
		}
	}
	return out
}

// Layout agrupa a sequência plana em colunas de cores iguais (como é desenhada)
func Layout(markers []Color) [][]Color {
	var cols [][]Color
	for i, m := range markers {
		if i == 0 || m != markers[i-1] {
			cols = append(cols, nil)
		}
		cols[len(cols)-1] = append(cols[len(cols)-1], m)
	}
	return cols
}
