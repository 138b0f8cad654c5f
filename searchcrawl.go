// Package searchcrawl provides a pagination-aware web crawler. Given a seed
// URL or a search query it fetches pages through a headless browser, turns
// the HTML into readable content and navigation links, follows the links
// selected by a crawl scope, and can hand the crawled text to a language
// model for structured field extraction.
//
// This package contains domain types and interfaces following Ben Johnson's
// Standard Package Layout. Implementations live in subdirectories named
// after their primary dependency (e.g., rod/, redis/, gemini/).
package searchcrawl
