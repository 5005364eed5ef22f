// Package language normalizes language codes for the transcription
// pipeline. Configuration may name a language by ISO 639-1 code, ISO 639-2
// code, or plain word ("dutch"); everything funnels to the 2-letter form
// the transcription service expects.
package language
