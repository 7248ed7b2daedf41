package usbid

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"
)

// DefaultPaths lists the standard locations for the USB ID database.
var DefaultPaths = []string{
	"/usr/share/hwdata/usb.ids",
	"/var/lib/usbutils/usb.ids",
	"/usr/share/misc/usb.ids",
}

// Database caches vendor and product names from the USB ID database.
type Database struct {
	vendors  map[uint16]string // VID -> vendor name
	products map[uint32]string // (VID<<16)|PID -> product name
	loaded   bool
	mu       sync.RWMutex
	paths    []string
}

// New creates a database that searches the default paths.
func New() *Database {
	return NewWithPaths(DefaultPaths)
}

// NewWithPaths creates a database that searches the specified paths.
func NewWithPaths(paths []string) *Database {
	return &Database{
		vendors:  make(map[uint16]string),
		products: make(map[uint32]string),
		paths:    paths,
	}
}

// Load parses the first database file found. It is idempotent and reports
// whether a file was read.
func (db *Database) Load() bool {
	db.mu.Lock()
	defer db.mu.Unlock()

	if db.loaded {
		return len(db.vendors) > 0
	}
	db.loaded = true

	for _, path := range db.paths {
		f, err := os.Open(path)
		if err != nil {
			continue
		}
		db.parse(f)
		f.Close()
		return true
	}
	return false
}

// Parse reads database entries from r, adding to anything already loaded.
func (db *Database) Parse(r io.Reader) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.parse(r)
	db.loaded = true
}

// parse handles the vendor and product lines of the usb.ids format:
// "vvvv  Vendor" at column zero, "\tpppp  Product" below it. Class,
// language and other sections end the vendor list.
func (db *Database) parse(r io.Reader) {
	scanner := bufio.NewScanner(r)
	var vid uint16
	inVendor := false

	for scanner.Scan() {
		line := scanner.Text()
		if line == "" || line[0] == '#' {
			continue
		}

		if line[0] == '\t' {
			if !inVendor || strings.HasPrefix(line, "\t\t") {
				continue
			}
			id, name, ok := splitEntry(line[1:])
			if !ok {
				continue
			}
			db.products[uint32(vid)<<16|uint32(id)] = name
			continue
		}

		id, name, ok := splitEntry(line)
		if !ok {
			inVendor = false
			continue
		}
		vid = id
		inVendor = true
		db.vendors[vid] = name
	}
}

// splitEntry parses "xxxx  Name".
func splitEntry(line string) (uint16, string, bool) {
	if len(line) < 6 || line[4] != ' ' {
		return 0, "", false
	}
	id, err := strconv.ParseUint(line[:4], 16, 16)
	if err != nil {
		return 0, "", false
	}
	return uint16(id), strings.TrimLeft(line[5:], " "), true
}

// LookupVendor returns the vendor name for vid, or "".
func (db *Database) LookupVendor(vid uint16) string {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return db.vendors[vid]
}

// LookupProduct returns the product name for vid:pid, or "".
func (db *Database) LookupProduct(vid, pid uint16) string {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return db.products[uint32(vid)<<16|uint32(pid)]
}

// Describe formats vid:pid with whatever names are known.
func (db *Database) Describe(vid, pid uint16) string {
	id := fmt.Sprintf("%04x:%04x", vid, pid)
	vendor, product := db.LookupVendor(vid), db.LookupProduct(vid, pid)
	switch {
	case vendor != "" && product != "":
		return fmt.Sprintf("%s (%s %s)", id, vendor, product)
	case vendor != "":
		return fmt.Sprintf("%s (%s)", id, vendor)
	default:
		return id
	}
}
