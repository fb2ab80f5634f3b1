package domain

// AggregateEntry holds the running statistics for one state code.
type AggregateEntry struct {
	Code    string
	Records uint64

	temperature Sum
	humidity    Sum
	cloudCover  Sum

	SnowCount      int64
	LightningCount int64

	MaxTemperature     float64
	MinTemperature     float64
	MaxTemperatureTime int64
	MinTemperatureTime int64
}

func newEntry(obs Observation) *AggregateEntry {
	return &AggregateEntry{
		Code:               obs.State,
		Records:            1,
		temperature:        NewSum(obs.Temperature),
		humidity:           NewSum(obs.Humidity),
		cloudCover:         NewSum(obs.CloudCover),
		SnowCount:          obs.Snow,
		LightningCount:     obs.Lightning,
		MaxTemperature:     obs.Temperature,
		MinTemperature:     obs.Temperature,
		MaxTemperatureTime: obs.Timestamp,
		MinTemperatureTime: obs.Timestamp,
	}
}

func (e *AggregateEntry) update(obs Observation) {
	e.Records++
	e.humidity.Add(obs.Humidity)
	e.cloudCover.Add(obs.CloudCover)
	e.temperature.Add(obs.Temperature)
	e.SnowCount += obs.Snow
	e.LightningCount += obs.Lightning

	// Strict comparisons: on a tie the earlier observation keeps its timestamp.
	if obs.Temperature > e.MaxTemperature {
		e.MaxTemperature = obs.Temperature
		e.MaxTemperatureTime = obs.Timestamp
	}
	if obs.Temperature < e.MinTemperature {
		e.MinTemperature = obs.Temperature
		e.MinTemperatureTime = obs.Timestamp
	}
}

func (e AggregateEntry) TemperatureSum() float64 { return e.temperature.Value() }
func (e AggregateEntry) HumiditySum() float64    { return e.humidity.Value() }
func (e AggregateEntry) CloudCoverSum() float64  { return e.cloudCover.Value() }

func (e AggregateEntry) AverageTemperature() float64 { return e.average(e.temperature) }
func (e AggregateEntry) AverageHumidity() float64    { return e.average(e.humidity) }
func (e AggregateEntry) AverageCloudCover() float64  { return e.average(e.cloudCover) }

func (e AggregateEntry) average(s Sum) float64 {
	if e.Records == 0 {
		return 0
	}
	return s.Value() / float64(e.Records)
}

// Store maps state codes to their aggregates and remembers first-seen order.
// It is not safe for concurrent mutation; callers serialize Apply.
type Store struct {
	entries map[string]*AggregateEntry
	order   []string
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{entries: make(map[string]*AggregateEntry)}
}

// Apply folds one observation into the store, creating the state's entry on
// first sight. Every call counts as a record, including repeats of the same
// observation.
func (s *Store) Apply(obs Observation) {
	if e, ok := s.entries[obs.State]; ok {
		e.update(obs)
		return
	}
	s.entries[obs.State] = newEntry(obs)
	s.order = append(s.order, obs.State)
}

// Has reports whether code has been seen.
func (s *Store) Has(code string) bool {
	_, ok := s.entries[code]
	return ok
}

// Len returns the number of distinct state codes seen.
func (s *Store) Len() int { return len(s.order) }

// Empty reports whether no observation has been applied yet.
func (s *Store) Empty() bool { return len(s.order) == 0 }

// Codes returns the state codes in first-seen order.
func (s *Store) Codes() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// Get returns a copy of the entry for code.
func (s *Store) Get(code string) (AggregateEntry, bool) {
	e, ok := s.entries[code]
	if !ok {
		return AggregateEntry{}, false
	}
	return *e, true
}

// Entries returns copies of all entries in first-seen order.
func (s *Store) Entries() []AggregateEntry {
	out := make([]AggregateEntry, 0, len(s.order))
	for _, code := range s.order {
		out = append(out, *s.entries[code])
	}
	return out
}
