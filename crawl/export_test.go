package crawl

// NewVisitedSetSized exposes filter sizing so tests can force false positives.
var NewVisitedSetSized = newVisitedSet
