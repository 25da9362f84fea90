package classify

import "strings"

// Confidence starts at a base and is raised by fixed bonuses when
// category-specific keyword or element-id hits are present.
const (
	baseConfidence    = 0.5
	keywordHitBonus   = 0.2
	elementHitBonus   = 0.3
	infiniteScrollMin = 10
)

// indicatorGroup binds a category to the keyword and element-id fragments
// that identify it. Groups are evaluated in a fixed priority order; the
// first hit wins, which encodes intentional tie-breaking (a screen that
// looks like both a short-form feed and a search page is a short-form feed).
type indicatorGroup struct {
	category   Category
	keywords   []string
	elementIDs []string
}

var indicatorGroups = []indicatorGroup{
	{
		category:   CategoryShortFormFeed,
		keywords:   []string{"shorts", "reels", "reel", "for you", "fyp"},
		elementIDs: []string{"shorts", "reel", "clips_viewer", "fyp"},
	},
	{
		category:   CategoryInfiniteFeed,
		keywords:   []string{"feed", "timeline", "following", "explore", "trending", "posts"},
		elementIDs: []string{"feed", "timeline", "recycler_feed", "stream"},
	},
	{
		category:   CategorySearchResults,
		keywords:   []string{"search", "results", "filter"},
		elementIDs: []string{"search_results", "search_bar", "query"},
	},
	{
		category:   CategoryMessaging,
		keywords:   []string{"message", "chat", "inbox", "conversation", "direct"},
		elementIDs: []string{"message_list", "chat", "thread_list", "inbox"},
	},
}

// shouldBlockByCategory is the static blocking policy per category.
// Unknown is absent on purpose: it falls back to the infinite-scroll
// heuristic in Classify.
var shouldBlockByCategory = map[Category]bool{
	CategoryShortFormFeed: true,
	CategoryInfiniteFeed:  true,
	CategorySearchResults: false,
	CategoryMessaging:     false,
	CategoryFullVideo:     false,
}

// shortFormVariants maps known app identifiers to their short-form surface
// name, used to refine a generic short-form hit.
var shortFormVariants = map[string]string{
	"com.google.android.youtube":  "youtube_shorts",
	"com.instagram.android":       "instagram_reels",
	"com.zhiliaoapp.musically":    "tiktok_fyp",
	"com.ss.android.ugc.trill":    "tiktok_fyp",
	"com.facebook.katana":         "facebook_reels",
	"com.snapchat.android":        "snapchat_spotlight",
	"com.twitter.android":         "x_immersive",
	"com.reddit.frontpage":        "reddit_watch",
	"app.revanced.android.youtube": "youtube_shorts",
}

// Classify maps a signal bundle and app identity to a content classification.
// Pure and deterministic: identical inputs always yield identical results.
// A nil or empty bundle yields {Unknown, no block, confidence 0}.
func Classify(bundle *SignalBundle, appID string) Classification {
	if bundle.Empty() {
		return Classification{Category: CategoryUnknown, ShouldBlock: false, Confidence: 0.0}
	}

	for _, group := range indicatorGroups {
		keywordHit := matchesAny(bundle.Tokens, group.keywords)
		elementHit := matchesAny(bundle.ElementIDs, group.elementIDs)
		if !keywordHit && !elementHit {
			continue
		}

		confidence := baseConfidence
		if keywordHit {
			confidence += keywordHitBonus
		}
		if elementHit {
			confidence += elementHitBonus
		}
		if confidence > 1.0 {
			confidence = 1.0
		}

		result := Classification{
			Category:    group.category,
			ShouldBlock: shouldBlockByCategory[group.category],
			Confidence:  confidence,
		}
		if group.category == CategoryShortFormFeed {
			result.Variant = shortFormVariants[strings.ToLower(appID)]
		}
		return result
	}

	// No indicator group matched. A video surface with few scrollable
	// children is a dedicated player; a video surface with many is some
	// unrecognized feed of videos and falls through to Unknown.
	if bundle.VideoIndicator && bundle.ScrollableNodes <= infiniteScrollMin {
		return Classification{
			Category:    CategoryFullVideo,
			ShouldBlock: shouldBlockByCategory[CategoryFullVideo],
			Confidence:  baseConfidence + keywordHitBonus,
		}
	}

	// Unknown content: block only when the screen still looks like an
	// infinite scroll surface (many scrollable children and video content)
	return Classification{
		Category:    CategoryUnknown,
		ShouldBlock: bundle.ScrollableNodes > infiniteScrollMin && bundle.VideoIndicator,
		Confidence:  baseConfidence,
	}
}

// matchesAny reports whether any candidate value contains any needle
// fragment. Matching is case-insensitive substring matching, since element
// identifiers arrive as full resource paths ("…:id/shorts_container").
func matchesAny(values, needles []string) bool {
	for _, v := range values {
		lv := strings.ToLower(v)
		for _, n := range needles {
			if strings.Contains(lv, n) {
				return true
			}
		}
	}
	return false
}
