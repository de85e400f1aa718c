package handler

// NoSynchronizerError is returned when a handler is built without a synchronisation client.
type NoSynchronizerError struct{}

func (m *NoSynchronizerError) Error() string {
	return "no synchronizer configured"
}

// NoSecretStoreError is returned when a credentials mode needs a secret store that was not provided.
type NoSecretStoreError struct {
	Mode string
}

func (m *NoSecretStoreError) Error() string {
	return "credentials mode " + m.Mode + " requires a secret store"
}
