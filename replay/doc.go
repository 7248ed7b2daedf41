// Package replay records and replays host/device frame transcripts.
//
// A transcript is line-oriented text:
//
//	# usblink session 3f1c...            comment, session header
//	h2d: a5 00 10                        frame to send to the device
//	h2d_raw: 2d 00 10                    same, raw spelling
//	d2h: d2                              frame expected from the device
//	d2h_raw: d2                          same, raw spelling
//
// Blank lines and lines with any other prefix are skipped, so the output of
// a harness that interleaves its own log lines can be replayed directly.
// Hex bytes may be separated by spaces.
//
// A [Replayer] sends every h2d frame and compares every d2h frame with what
// actually arrives. A differing or missing frame is recorded as a
// [Mismatch] and the replay continues; only transport failures abort it.
// A [Recorder] wraps a connection and writes the frames it carries as a
// transcript.
package replay
