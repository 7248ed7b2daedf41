// Package usbid looks up vendor and product names in the usb.ids database.
//
// The loopback tools use it to label the device they open, so a log line
// reads "16d0:0f3b (MCS)" instead of bare numbers. The database is optional:
// lookups against a missing file return empty strings.
//
//	db := usbid.New()
//	db.Load()
//	name := db.Describe(0x16D0, 0x0F3B)
package usbid
