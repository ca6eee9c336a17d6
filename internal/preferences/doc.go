// Package preferences provides user scheduling preferences and the engine
// configuration file.
//
// Defaults are an explicit value, either Default() or the "defaults" section
// of a YAML file loaded with LoadConfig, and are handed to a Resolver. Stored
// preferences are merged over them key by key, so a user who only stored a
// digest time still gets the default working hours.
//
// Example configuration:
//
//	defaults:
//	  working_hours:
//	    days: [mon, tue, wed, thu]
//	    start_time: "08:30"
//	    end_time: "16:30"
//	    lunch_enabled: true
//	    lunch_start: "12:00"
//	    lunch_end: "12:45"
//	    timezone: Europe/Berlin
//	  meeting_default_duration_min: 45
//	max_suggestions: 5
//	window_days: 7
//	freebusy_timeout: 10s
package preferences
