// Package elevenlabs transcribes pitch recordings with the ElevenLabs
// speech-to-text API and derives per-word pace from the word timings.
package elevenlabs
