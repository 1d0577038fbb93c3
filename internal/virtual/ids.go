package virtual

import (
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mesh-intelligence/castlists/pkg/types"
)

// VirtualIDPrefix marks ids derived from a legacy tag.
const VirtualIDPrefix = "virtual_"

// realIDPrefix marks ids of persisted castlists.
const realIDPrefix = "castlist_"

var tagEncoding = base64.RawURLEncoding

// EncodeVirtualID maps a legacy tag to its virtual castlist id. The
// reserved default tag maps to the reserved default id; every other tag
// maps to the prefix followed by the unpadded URL-safe base64 of the tag.
func EncodeVirtualID(tag string) string {
	if tag == types.DefaultCastlistTag {
		return types.DefaultCastlistID
	}
	return VirtualIDPrefix + tagEncoding.EncodeToString([]byte(tag))
}

// DecodeVirtualID is the inverse of EncodeVirtualID. It reports false for
// ids that EncodeVirtualID could not have produced, which keeps the mapping
// injective.
func DecodeVirtualID(id string) (string, bool) {
	if id == types.DefaultCastlistID {
		return types.DefaultCastlistTag, true
	}
	rest, ok := strings.CutPrefix(id, VirtualIDPrefix)
	if !ok || rest == "" {
		return "", false
	}
	raw, err := tagEncoding.DecodeString(rest)
	if err != nil {
		return "", false
	}
	tag := string(raw)
	if EncodeVirtualID(tag) != id {
		return "", false
	}
	return tag, true
}

// LooksVirtual reports whether id has the shape of a virtual id, without
// consulting any workspace.
func LooksVirtual(id string) bool {
	_, ok := DecodeVirtualID(id)
	return ok
}

// NewRealID returns an id for a new persisted castlist. It encodes the
// creation time and type and ends in random bits from a UUID v7, retrying
// while exists reports a collision.
func NewRealID(castlistType string, now time.Time, exists func(string) bool) string {
	for {
		id := fmt.Sprintf("%s%d_%s_%s", realIDPrefix, now.UnixMilli(), castlistType, randomSuffix())
		if exists == nil || !exists(id) {
			return id
		}
	}
}

// randomSuffix returns the 48 trailing random bits of a UUID v7 as hex.
func randomSuffix() string {
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	hex := strings.ReplaceAll(id.String(), "-", "")
	return hex[20:]
}
