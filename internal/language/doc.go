// Package language normalizes free-text language cells into the MARC
// (ISO 639-2/B) codes the archive's language field expects.
//
// Common names and codes resolve through a small built-in table. Other
// well-formed ISO 639 codes fall back to golang.org/x/text/language.
// Anything unrecognized passes through unchanged so no cataloguing is lost.
package language
