package kafka

// Config holds Kafka connection parameters.
type Config struct {
	Brokers []string

	// ConsumerGroup names the group used by consumers; unused by producers.
	ConsumerGroup string

	// TLS enables TLS for Kafka connections.
	TLS bool
}
