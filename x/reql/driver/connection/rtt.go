// Copyright (C) MongoDB, Inc. 2026-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package connection

import (
	"math"
	"sync"
	"time"

	"github.com/montanaflynn/stats"
)

const (
	rttAlphaValue = 0.2
	// minSamples is the number of samples required before the minimum and 90th percentile
	// are reported.
	minSamples = 5
)

// Stats summarizes the round trips of CONTINUE requests on a connection.
type Stats struct {
	Samples int
	Average time.Duration
	Min     time.Duration
	P90     time.Duration
}

// rttMonitor keeps a ring of the most recent CONTINUE round trips.
type rttMonitor struct {
	mu            sync.RWMutex
	samples       []time.Duration
	offset        int
	count         int
	minRTT        time.Duration
	rtt90         time.Duration
	averageRTT    time.Duration
	averageRTTSet bool
}

func newRTTMonitor(size int) *rttMonitor {
	if size <= 0 {
		size = 1
	}
	return &rttMonitor{samples: make([]time.Duration, size)}
}

func (r *rttMonitor) addSample(rtt time.Duration) {
	if rtt <= 0 {
		// Zero marks an empty slot.
		rtt = time.Nanosecond
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.samples[r.offset] = rtt
	r.offset = (r.offset + 1) % len(r.samples)
	if r.count < len(r.samples) {
		r.count++
	}
	r.minRTT = min(r.samples, minSamples)
	r.rtt90 = percentile(90.0, r.samples, minSamples)

	if !r.averageRTTSet {
		r.averageRTT = rtt
		r.averageRTTSet = true
		return
	}

	r.averageRTT = time.Duration(rttAlphaValue*float64(rtt) + (1-rttAlphaValue)*float64(r.averageRTT))
}

func (r *rttMonitor) stats() Stats {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return Stats{
		Samples: r.count,
		Average: r.averageRTT,
		Min:     r.minRTT,
		P90:     r.rtt90,
	}
}

// min returns the minimum value of the slice of duration samples. Zero values are not considered
// samples and are ignored. If fewer than minSamples are found in the slice, min returns 0.
func min(samples []time.Duration, minSamples int) time.Duration {
	count := 0
	min := time.Duration(math.MaxInt64)
	for _, d := range samples {
		if d > 0 {
			count++
		}
		if d > 0 && d < min {
			min = d
		}
	}
	if count == 0 || count < minSamples {
		return 0
	}
	return min
}

// percentile returns the specified percentile value of the slice of duration samples. Zero values
// are not considered samples and are ignored. If fewer than minSamples are found in the slice,
// percentile returns 0.
func percentile(perc float64, samples []time.Duration, minSamples int) time.Duration {
	floatSamples := make([]float64, 0, len(samples))
	for _, sample := range samples {
		if sample > 0 {
			floatSamples = append(floatSamples, float64(sample))
		}
	}
	if len(floatSamples) == 0 || len(floatSamples) < minSamples {
		return 0
	}

	p, err := stats.Percentile(floatSamples, perc)
	if err != nil {
		return 0
	}
	return time.Duration(p)
}
