// Package types provides core data types for the planequery ADS-B
// aircraft-data pipeline.
package types

import (
	"strings"
	"time"

	"github.com/spaolacci/murmur3"
)

// SignatureDelimiter joins content-attribute values into a signature.
// It never occurs inside attribute values.
const SignatureDelimiter = "|"

// ContentColumns lists the content attributes in signature and artifact
// column order. "r" is the registration, "t" the type code.
var ContentColumns = []string{
	"dbFlags", "ownOp", "year", "desc", "aircraft_category", "r", "t",
}

// Observation is one attribute snapshot for one aircraft at one instant.
// Content attributes are optional strings where "" means unknown; nulls
// from upstream sources are normalized to "" on ingest.
type Observation struct {
	// Time is when the observation was made. It is used only for
	// earliest-seen tie-breaking and final output ordering.
	Time time.Time `json:"time"`

	// ICAO is the 24-bit transponder address identifying the aircraft.
	ICAO string `json:"icao"`

	// DBFlags holds database flag bits reported for the airframe.
	DBFlags string `json:"dbFlags"`

	// OwnOp is the owner/operator name.
	OwnOp string `json:"ownOp"`

	// Year is the aircraft build year.
	Year string `json:"year"`

	// Desc is the airframe description.
	Desc string `json:"desc"`

	// AircraftCategory is the emitter category (A1, A3, ...).
	AircraftCategory string `json:"aircraft_category"`

	// Registration is the tail number ("r" column).
	Registration string `json:"r"`

	// TypeCode is the ICAO type designator ("t" column).
	TypeCode string `json:"t"`
}

// ContentValues returns the content-attribute values in ContentColumns order.
func (o *Observation) ContentValues() []string {
	return []string{
		o.DBFlags,
		o.OwnOp,
		o.Year,
		o.Desc,
		o.AircraftCategory,
		o.Registration,
		o.TypeCode,
	}
}

// Signature returns the canonical duplicate-detection string for the
// observation. It is a pure function of the content attributes; Time and
// ICAO are excluded.
func (o *Observation) Signature() string {
	return strings.Join(o.ContentValues(), SignatureDelimiter)
}

// SignatureHash is a 128-bit murmur3 digest of a signature, used as a
// compact map key during grouping.
type SignatureHash struct {
	Hi uint64
	Lo uint64
}

// SignatureHash returns the hash of the observation's signature.
func (o *Observation) SignatureHash() SignatureHash {
	hi, lo := murmur3.Sum128([]byte(o.Signature()))
	return SignatureHash{Hi: hi, Lo: lo}
}

// NonEmptyCount returns the number of content attributes with a known value.
func (o *Observation) NonEmptyCount() int {
	n := 0
	for _, v := range o.ContentValues() {
		if v != "" {
			n++
		}
	}
	return n
}

// SubsumedBy reports whether every known attribute of o has the identical
// value in other, and other knows strictly more attributes. The relation is
// not symmetric. An observation with zero known attributes is subsumed by
// any observation with at least one.
func (o *Observation) SubsumedBy(other *Observation) bool {
	ov := o.ContentValues()
	tv := other.ContentValues()
	for i, v := range ov {
		if v != "" && tv[i] != v {
			return false
		}
	}
	return other.NonEmptyCount() > o.NonEmptyCount()
}

// Record is the canonical observation selected for one aircraft within a
// unit of work. Time carries the earliest timestamp seen for the selected
// signature. Sightings counts the raw observations behind that signature;
// it is threaded through merges so merge order does not affect selection.
type Record struct {
	Observation

	// Sightings is the accumulated raw-observation count for the
	// record's signature.
	Sightings int64 `json:"sightings"`
}
