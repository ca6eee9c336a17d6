package google

// DefaultOAuthScopes are the Google OAuth scopes the scheduling engine needs.
// Free/busy is enough to compute availability; the read-only calendar scope
// lets operators inspect the primary calendar's time zone. Gmail metadata
// access is used to import the headers of the emails candidates come from.
var DefaultOAuthScopes = []string{
	"https://www.googleapis.com/auth/calendar.freebusy",
	"https://www.googleapis.com/auth/calendar.readonly",
	"https://www.googleapis.com/auth/gmail.metadata",
}
