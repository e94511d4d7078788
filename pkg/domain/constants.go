package domain

// Condition config keys read by the factory and the transports.
const (
	KeyIntegrationCode = "integration_code"
	KeyConditionCode   = "condition_code"
	KeyFields          = "fields"
)

// Presentation keys are server-owned display metadata. They are regenerated from the
// registry on every create/refresh and never read from caller input.
const (
	KeyDynamicName               = "dynamic_name"
	KeyTitleHTML                 = "title_html"
	KeyIntegrationName           = "integration_name"
	KeySentence                  = "sentence"
	KeySentenceHTML              = "sentence_html"
	KeySentenceHumanReadable     = "sentence_human_readable"
	KeySentenceHumanReadableHTML = "sentence_human_readable_html"
	KeyBackup                    = "backup"
	KeyBackupInfo                = "backup_info"
)

// PresentationKeys lists every key stripped from caller-supplied condition fields.
func PresentationKeys() []string {
	return []string{
		KeyDynamicName,
		KeyTitleHTML,
		KeyIntegrationName,
		KeySentence,
		KeySentenceHTML,
		KeySentenceHumanReadable,
		KeySentenceHumanReadableHTML,
		KeyBackup,
		KeyBackupInfo,
	}
}
