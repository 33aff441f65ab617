package control

// Signal holds any data passed between blocks.
type Signal struct {
	name      string
	blockType controlBlockType
	signal    []float64
	time      []int
	dimension int
}

func makeSignal(name string, blockType controlBlockType, dimension int) *Signal {
	return &Signal{
		name:      name,
		blockType: blockType,
		signal:    make([]float64, dimension),
		time:      make([]int, dimension),
		dimension: dimension,
	}
}

// Name returns the name of the block that produced the signal.
func (s *Signal) Name() string {
	return s.name
}

// Dimension returns the number of values the signal carries.
func (s *Signal) Dimension() int {
	return s.dimension
}

// GetSignalValueAt returns the value of the signal at index i, zero when out of range.
func (s *Signal) GetSignalValueAt(i int) float64 {
	if i < 0 || i > len(s.signal)-1 {
		return 0.0
	}
	return s.signal[i]
}

// SetSignalValueAt sets the value of the signal at index i, ignored when out of range.
func (s *Signal) SetSignalValueAt(i int, val float64) {
	if i < 0 || i > len(s.signal)-1 {
		return
	}
	s.signal[i] = val
}

func (s *Signal) copy() *Signal {
	out := *s
	out.signal = append([]float64(nil), s.signal...)
	out.time = append([]int(nil), s.time...)
	return &out
}

func copySignals(in []*Signal) []*Signal {
	out := make([]*Signal, len(in))
	for i, s := range in {
		out[i] = s.copy()
	}
	return out
}
