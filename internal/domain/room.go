package domain

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// RoomID is an opaque room identifier supplied by clients. Rooms have no
// stored representation in the hub; a room exists exactly as long as some
// connection claims membership in it.
//
// Browser clients send room IDs either as JSON numbers or as strings, so
// the type accepts both on the wire and echoes numeric-looking IDs back as
// numbers to keep older clients' equality checks working.
type RoomID string

func (r *RoomID) UnmarshalJSON(data []byte) error {
	if len(data) == 0 {
		return fmt.Errorf("empty room id")
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*r = RoomID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("room id must be a string or number: %w", err)
	}
	*r = RoomID(n.String())
	return nil
}

func (r RoomID) MarshalJSON() ([]byte, error) {
	if r.numeric() {
		return []byte(r), nil
	}
	return json.Marshal(string(r))
}

// numeric reports whether the ID round-trips losslessly as a JSON number.
func (r RoomID) numeric() bool {
	if r == "" {
		return false
	}
	n, err := strconv.ParseInt(string(r), 10, 64)
	if err != nil {
		return false
	}
	return strconv.FormatInt(n, 10) == string(r)
}
