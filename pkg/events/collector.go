package events

// Collector is embedded in aggregates to gather domain events raised during
// state transitions until the application layer publishes them.
type Collector struct {
	events []DomainEvent
}

// Record appends a domain event to the collector.
func (c *Collector) Record(event DomainEvent) {
	c.events = append(c.events, event)
}

// Events returns the collected domain events without clearing them.
func (c *Collector) Events() []DomainEvent {
	return c.events
}

// Clear returns the collected domain events and resets the collector.
func (c *Collector) Clear() []DomainEvent {
	collected := c.events
	c.events = nil
	return collected
}
