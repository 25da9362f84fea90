// Package classify implements the content classifier: a pure, deterministic
// mapping from extracted screen signals to a content category and a blocking
// verdict. Signal extraction from platform UI trees happens outside this
// package; the classifier only sees already-flattened signal bundles.
package classify

// Category identifies the kind of content currently on screen
type Category string

const (
	CategoryShortFormFeed Category = "short_form_feed"
	CategoryInfiniteFeed  Category = "infinite_feed"
	CategorySearchResults Category = "search_results"
	CategoryMessaging     Category = "messaging"
	CategoryFullVideo     Category = "full_video"
	CategoryUnknown       Category = "unknown"
)

// SignalBundle is the flattened summary of one UI snapshot
type SignalBundle struct {
	// Tokens are lowercased text tokens visible on screen
	Tokens []string `json:"tokens,omitempty"`

	// ElementIDs are the view/resource identifiers present in the snapshot
	ElementIDs []string `json:"element_ids,omitempty"`

	// ScrollableNodes counts scrollable child elements in the snapshot
	ScrollableNodes int `json:"scrollable_nodes"`

	// VideoIndicator reports whether a video surface was detected
	VideoIndicator bool `json:"video_indicator"`
}

// Empty reports whether the bundle carries no usable signal
func (b *SignalBundle) Empty() bool {
	if b == nil {
		return true
	}
	return len(b.Tokens) == 0 && len(b.ElementIDs) == 0 && b.ScrollableNodes == 0 && !b.VideoIndicator
}

// Classification is the classifier verdict for one screen
type Classification struct {
	// Category is the detected content category
	Category Category `json:"category"`

	// Variant is an app-specific refinement of the category
	// (e.g. "youtube_shorts"), empty when no refinement applies
	Variant string `json:"variant,omitempty"`

	// ShouldBlock reports whether blocking applies to this content
	ShouldBlock bool `json:"should_block"`

	// Confidence is how certain the classifier is (0-1)
	Confidence float64 `json:"confidence"`
}
