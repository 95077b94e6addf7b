package observability

import "time"

// ObserveFrame records one animation frame. It satisfies core.FrameRecorder.
func (c *GlobeCollector) ObserveFrame(took time.Duration, routes int) {
	if c == nil {
		return
	}
	if c.FramesTotal != nil {
		c.FramesTotal.Inc()
	}
	if c.FrameDuration != nil {
		c.FrameDuration.Observe(took.Seconds())
	}
	if c.Routes != nil {
		c.Routes.Set(float64(routes))
	}
}

// RecordArrival counts a comet reaching its destination.
func (c *GlobeCollector) RecordArrival(routeID string) {
	if c == nil || c.Arrivals == nil {
		return
	}
	c.Arrivals.WithLabelValues(routeID).Inc()
}

// SetLocations updates the location gauge.
func (c *GlobeCollector) SetLocations(n int) {
	if c == nil || c.Locations == nil {
		return
	}
	c.Locations.Set(float64(n))
}
