package tui

import (
	"fmt"
	"math"
	"strings"
	"sync"

	"github.com/gammazero/deque"
	"golang.org/x/exp/slices"

	"lautenbacher.net/gyrolog/gyro"
)

const maxHistory = 500

// history keeps the most recent samples per axis for the statistics line.
type history struct {
	mu   sync.Mutex
	axes [3]deque.Deque[int32]
}

type axisStats struct {
	min    int32
	max    int32
	mean   float64
	median float64
	stdDev float64
}

func newHistory() *history {
	h := &history{}
	for i := range h.axes {
		h.axes[i].Grow(maxHistory)
	}
	return h
}

func (h *history) add(s gyro.Sample) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for i, v := range []int32{s.X, s.Y, s.Z} {
		q := &h.axes[i]
		if q.Len() == maxHistory {
			q.PopFront()
		}
		q.PushBack(v)
	}
}

func (h *history) stats() [3]axisStats {
	h.mu.Lock()
	defer h.mu.Unlock()

	var res [3]axisStats
	for i := range h.axes {
		q := &h.axes[i]
		data := make([]int32, q.Len())
		for j := range q.Len() {
			data[j] = q.At(j)
		}
		res[i] = calculateStats(data)
	}
	return res
}

// statsText renders one "[min|mean|median|max] σ" column per axis.
func (h *history) statsText() string {
	var buf strings.Builder
	buf.WriteString("[yellow] [min|mean|median|max] σ[-]")
	for i, st := range h.stats() {
		buf.WriteString(fmt.Sprintf("  %c [%d|%.0f|%.0f|%d] %.1f",
			'x'+rune(i), st.min, math.Round(st.mean), math.Round(st.median), st.max, st.stdDev))
	}
	return buf.String()
}

func calculateStats(data []int32) axisStats {
	if len(data) == 0 {
		return axisStats{}
	}

	var sum int64
	min, max := data[0], data[0]
	for _, v := range data {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
		sum += int64(v)
	}
	mean := float64(sum) / float64(len(data))

	slices.Sort(data)
	var median float64
	mid := len(data) / 2
	if len(data)%2 == 0 {
		median = float64(int64(data[mid-1])+int64(data[mid])) / 2.0
	} else {
		median = float64(data[mid])
	}

	var sumOfSquares float64
	for _, v := range data {
		sumOfSquares += (float64(v) - mean) * (float64(v) - mean)
	}

	return axisStats{
		min:    min,
		max:    max,
		mean:   mean,
		median: median,
		stdDev: math.Sqrt(sumOfSquares / float64(len(data))),
	}
}
