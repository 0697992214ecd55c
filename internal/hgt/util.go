package hgt

import "math"

func floor(v float64) int {
	return int(math.Floor(v))
}

func abs(i int) int {
	if i < 0 {
		return -i
	}
	return i
}
