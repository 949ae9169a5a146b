package mag

// Sample represents a single raw magnetometer reading in sensor counts.
type Sample struct {
	Mx int16 `json:"mx"`
	My int16 `json:"my"`
	Mz int16 `json:"mz"`
}

// Source is anything that can produce raw magnetometer samples:
// the real LIS2MDL, a mock, maybe a replay source from file later.
type Source interface {
	ReadSample() (Sample, error)
}
