package types

import "time"

type Bar struct {
	Date   time.Time `json:"t"`
	Open   float64   `json:"o"`
	High   float64   `json:"h"`
	Low    float64   `json:"l"`
	Close  float64   `json:"c"`
	Volume int64     `json:"v"`
}

// PriceSeries is the daily history of one symbol, oldest bar first.
type PriceSeries struct {
	Symbol string
	Bars   []Bar
}

func (ps PriceSeries) Len() int {
	return len(ps.Bars)
}

func (ps PriceSeries) Last() Bar {
	return ps.Bars[len(ps.Bars)-1]
}

func (ps PriceSeries) Closes() []float64 {
	out := make([]float64, len(ps.Bars))
	for i, b := range ps.Bars {
		out[i] = b.Close
	}
	return out
}

func (ps PriceSeries) Highs() []float64 {
	out := make([]float64, len(ps.Bars))
	for i, b := range ps.Bars {
		out[i] = b.High
	}
	return out
}

func (ps PriceSeries) Lows() []float64 {
	out := make([]float64, len(ps.Bars))
	for i, b := range ps.Bars {
		out[i] = b.Low
	}
	return out
}

func (ps PriceSeries) Volumes() []float64 {
	out := make([]float64, len(ps.Bars))
	for i, b := range ps.Bars {
		out[i] = float64(b.Volume)
	}
	return out
}

// Direction is the side of a trade candidate.
type Direction string

const (
	Long  Direction = "LONG"
	Short Direction = "SHORT"
)

func (d Direction) Opposite() Direction {
	if d == Long {
		return Short
	}
	return Long
}
