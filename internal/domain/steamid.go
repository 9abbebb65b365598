package domain

import (
	"fmt"
	"strconv"
)

// Offset between a 32-bit account id and its public 64-bit form
// (universe 1, type individual, instance desktop).
const steamID64Base uint64 = 0x110000100000000

// SteamID64 is the full 64-bit account identifier used by the web API
// and the offer submission form.
type SteamID64 uint64

// AccountID is the low 32 bits of a SteamID64, the `partner` query
// parameter of a trade offer URL.
type AccountID uint32

func ParseSteamID64(s string) (SteamID64, error) {
	id, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse steam id %q: %w", s, err)
	}

	parsed := SteamID64(id)
	if !parsed.Valid() {
		return 0, fmt.Errorf("steam id %q is not an individual account id", s)
	}

	return parsed, nil
}

func (id SteamID64) Valid() bool {
	return uint64(id) > steamID64Base
}

func (id SteamID64) AccountID() AccountID {
	return AccountID(uint64(id) - steamID64Base)
}

func (id SteamID64) String() string {
	return strconv.FormatUint(uint64(id), 10)
}

func (a AccountID) SteamID64() SteamID64 {
	return SteamID64(uint64(a) + steamID64Base)
}

func (a AccountID) String() string {
	return strconv.FormatUint(uint64(a), 10)
}
