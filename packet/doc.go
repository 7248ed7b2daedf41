// Package packet encodes and decodes raw USB 2.0 packets.
//
// Packets are the bytes that travel between the link layers of a host and
// a device after the sync field and before EOP: a PID byte followed by the
// token fields, a data payload or nothing at all. Tokens and SOF packets
// carry a CRC5 over their 11-bit field; data packets carry a CRC16 over the
// payload.
//
//	setup, _ := packet.EncodeToken(packet.PIDSetup, 0, 0)   // 2d 00 10
//	data, _ := packet.EncodeData(req.Bytes(), false)        // c3 ... CRC16
//	p, err := packet.Decode(data)
//
// A [Session] holds the per-driver state a transaction sequence needs: the
// frame counter of the next SOF and one [Alternator] per endpoint and
// direction tracking the DATA0/DATA1 toggle.
//
// # Control transfers
//
// The data toggle of a control transfer follows USB 2.0 §8.5.3: the SETUP
// data stage is DATA0, the first data-stage packet is DATA1 and alternates
// from there, and the status stage is always DATA1. [ControlToggles]
// resets an alternator to that sequence.
package packet
