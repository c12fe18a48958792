package convert

import "fmt"

// Report summarizes a successful conversion. Warnings flag expected data
// loss; they accompany a success and are never escalated to errors.
type Report struct {
	// Outputs lists the written files in export order.
	Outputs  []string
	Warnings []Warning
}

// Warning is a non-fatal note about data the conversion could not carry
// over.
type Warning struct {
	// ChannelsDiscarded counts the animation rotation channels dropped
	// because the target skeleton has no joint at their index.
	ChannelsDiscarded int
}

func (w Warning) String() string {
	return fmt.Sprintf("discarded %d animation channel(s): no matching joint in the target skeleton",
		w.ChannelsDiscarded)
}
