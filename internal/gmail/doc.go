// Package gmail reads email metadata from the Gmail API.
//
// Only headers are requested (format=metadata), so the client works with
// the gmail.metadata scope and never sees message bodies. It is used to
// register the emails that calendar candidates were extracted from.
package gmail
