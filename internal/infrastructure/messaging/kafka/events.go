// Package kafka wires the service to the dataset-refresh event stream.  The
// data-preparation pipeline publishes an event whenever it uploads a new or
// revised dataset; the service reacts by invalidating cached views.
package kafka

import "fmt"

// TopicDatasetRefresh is the default topic carrying refresh events.
const TopicDatasetRefresh = "indiaml.dataset.refresh"

// RefreshEvent announces that the dataset for one conference/year has been
// replaced in the store.
type RefreshEvent struct {
	Conference string `json:"conference"`
	Year       int    `json:"year"`
}

// Key returns the partition key for the event, e.g. "iclr-2025".
func (e RefreshEvent) Key() string {
	return fmt.Sprintf("%s-%d", e.Conference, e.Year)
}
