package orchestrator

import "strings"

const trackingPlaceholder = "{TRACKING_NUMBER}"

// carrier name -> tracking URL pattern
var trackingPatterns = map[string]string{
	"dhl":       "https://www.dhl.com/en/express/tracking.html?AWB={TRACKING_NUMBER}",
	"fedex":     "https://www.fedex.com/fedextrack/?trknbr={TRACKING_NUMBER}",
	"ups":       "https://www.ups.com/track?tracknum={TRACKING_NUMBER}",
	"usps":      "https://tools.usps.com/go/TrackConfirmAction?tLabels={TRACKING_NUMBER}",
	"aramex":    "https://www.aramex.com/track/results?ShipmentNumber={TRACKING_NUMBER}",
	"delhivery": "https://www.delhivery.com/track/package/{TRACKING_NUMBER}",
	"bluedart":  "https://www.bluedart.com/tracking?trackingNo={TRACKING_NUMBER}",
}

// TrackingURL maps a carrier name to its tracking link. Unknown carriers get
// "#", a safe non-navigating placeholder; this never fails.
func TrackingURL(carrier, trackingNumber string) string {
	pattern, ok := trackingPatterns[strings.ToLower(strings.TrimSpace(carrier))]
	if !ok {
		return "#"
	}
	return strings.ReplaceAll(pattern, trackingPlaceholder, trackingNumber)
}
