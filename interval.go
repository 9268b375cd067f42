package httpmon

// Tuning holds the global knobs of the interval estimator.
type Tuning struct {
	// DeltaFraction is the percentage of the smoothed delta to wait before
	// the next poll. Values below 100 poll slightly ahead of the predicted
	// update.
	DeltaFraction int64

	// SuccessCountToMin successive successes snap the observed delta to the
	// resource's minimum interval.
	SuccessCountToMin int

	// FailCountToMax successive failures back off to the resource's
	// maximum interval.
	FailCountToMax int
}

// Observation is the outcome of a single poll as seen by the estimator.
// Times are Unix milliseconds; zero means the server did not report it.
type Observation struct {
	RequestTime  int64
	Success      bool
	Date         int64
	LastModified int64
	Expires      int64
}

// NextRequestTime computes when r should be polled next and records the
// observation in r's history. It mutates the counters, PrevLocalDate,
// PrevLastModified and SmoothedDelta of r.
func (t Tuning) NextRequestTime(r *Resource, o Observation) int64 {
	var updateDelta int64

	if o.Success {
		r.ConsecutiveFailures = 0

		var thisDelta int64
		r.ConsecutiveSuccesses++
		switch {
		case r.ConsecutiveSuccesses >= t.SuccessCountToMin:
			r.ConsecutiveSuccesses = 0
			thisDelta = r.MinInterval
		case r.PrevLocalDate > 0:
			thisDelta = o.RequestTime - r.PrevLocalDate
		default:
			thisDelta = r.MinInterval
		}
		r.PrevLocalDate = o.RequestTime

		if o.LastModified > 0 && r.PrevLastModified > 0 {
			thisDelta = (thisDelta + (o.LastModified - r.PrevLastModified)) / 2
		}
		if o.LastModified > 0 {
			r.PrevLastModified = o.LastModified
		}

		thisDelta = clamp(thisDelta, r.MinInterval, r.MaxInterval)

		switch {
		case r.SmoothedDelta <= 0:
			r.SmoothedDelta = thisDelta
		case thisDelta > r.SmoothedDelta:
			r.SmoothedDelta = (3*r.SmoothedDelta + thisDelta) / 4
		default:
			r.SmoothedDelta = (r.SmoothedDelta + 3*thisDelta) / 4
		}

		updateDelta = r.SmoothedDelta * t.DeltaFraction / 100
	} else {
		r.ConsecutiveSuccesses = 0
		if r.ConsecutiveFailures >= t.FailCountToMax {
			updateDelta = r.MaxInterval
		} else {
			r.ConsecutiveFailures++
			updateDelta = r.MinInterval
		}
	}

	// The server knows better than we do when it publishes an expiry.
	if o.Date > 0 && o.Expires > o.Date {
		updateDelta = o.Expires - o.Date
	}

	return o.RequestTime + clamp(updateDelta, r.MinInterval, r.MaxInterval)
}

func clamp(v, lo, hi int64) int64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
