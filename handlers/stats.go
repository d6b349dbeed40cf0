// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"math"

	"github.com/danielhkuo/pulsecheck/models"
	"github.com/danielhkuo/pulsecheck/questions"
)

// Grade values behind the combined team value: each individual score maps
// to its traffic-light grade, so a uniformly-acceptable team outranks a
// team with the same numeric average built from extremes.
const (
	gradeGreen = 2
	gradeAmber = 1
	gradeRed   = 0
)

// scoreColor classifies a single value on its question's scale.
//
// Balance scales measure deviation from the optimal value:
// deviation <= 1 is green, 2-3 amber, >= 4 red.
// Maximal scales rate the raw value: >= 7 green, 4-6 amber, <= 3 red.
func scoreColor(q questions.Question, value int) string {
	if q.Scale == models.ScaleBalance {
		opt := 0
		if q.Optimal != nil {
			opt = *q.Optimal
		}
		deviation := value - opt
		if deviation < 0 {
			deviation = -deviation
		}
		switch {
		case deviation <= 1:
			return models.ColorGreen
		case deviation <= 3:
			return models.ColorAmber
		default:
			return models.ColorRed
		}
	}

	switch {
	case value >= 7:
		return models.ColorGreen
	case value >= 4:
		return models.ColorAmber
	default:
		return models.ColorRed
	}
}

// combinedTeamValue computes the 0-10 variance-aware composite: individual
// grades (green=2, amber=1, red=0) averaged over everyone who scored, then
// scaled by 5. All-green teams score 10.0, all-red teams 0.0. Returns nil
// for zero scores.
func combinedTeamValue(q questions.Question, values []int) *float64 {
	if len(values) == 0 {
		return nil
	}

	sum := 0
	for _, v := range values {
		switch scoreColor(q, v) {
		case models.ColorGreen:
			sum += gradeGreen
		case models.ColorAmber:
			sum += gradeAmber
		default:
			sum += gradeRed
		}
	}

	ctv := round1(float64(sum) / float64(len(values)) * 5.0)
	return &ctv
}

// average calculates the arithmetic mean rounded to one decimal place.
// Returns nil for zero scores.
func average(values []int) *float64 {
	if len(values) == 0 {
		return nil
	}

	sum := 0
	for _, v := range values {
		sum += v
	}
	avg := round1(float64(sum) / float64(len(values)))
	return &avg
}

// spread calculates max - min. Returns nil for zero scores.
func spread(values []int) *int {
	lo, hi := minMax(values)
	if lo == nil || hi == nil {
		return nil
	}
	s := *hi - *lo
	return &s
}

// minMax returns the smallest and largest values, or nils for zero scores.
func minMax(values []int) (*int, *int) {
	if len(values) == 0 {
		return nil, nil
	}

	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	return &lo, &hi
}

// round1 rounds to one decimal place
func round1(x float64) float64 {
	return math.Round(x*10) / 10
}
