// Package ics exports meeting suggestions as iCalendar data so that they can
// be imported into any calendar client as tentative events.
package ics
