package validation

import "maps"

var integrationNames = map[string]string{
	"GEN":         "General",
	"WP":          "WordPress",
	"WC":          "WooCommerce",
	"LD":          "LearnDash",
	"BP":          "BuddyPress",
	"BB":          "bbPress",
	"EDD":         "Easy Digital Downloads",
	"GF":          "Gravity Forms",
	"CF7":         "Contact Form 7",
	"LIFTERLMS":   "LifterLMS",
	"MEMBERPRESS": "MemberPress",
	"TUTORLMS":    "Tutor LMS",
	"WPFORMS":     "WPForms",
	"ZAPIER":      "Zapier",
}

// DefaultIntegrationNames returns a copy of the built-in integration name table.
func DefaultIntegrationNames() map[string]string {
	return maps.Clone(integrationNames)
}
