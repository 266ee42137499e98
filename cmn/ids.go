// Package cmn provides common low-level types and utilities for the async
// reconciliation node: object-id classification, the sentinel error
// vocabulary, and configuration loading. Apart from LoadFile reading its
// config file and ApplyEnv reading environment variables, nothing in this
// package performs I/O.
package cmn

import (
	"fmt"
	"strings"
)

// Kind enumerates the four addressable object flavors plus the domain
// pseudo-kind. A Kind is total over every valid ObjID: ClassifyID never
// returns a Kind outside this set.
type Kind int

const (
	KindInvalid Kind = iota
	KindDomain
	KindGroup
	KindDataset
	KindDatatype
	KindChunk
)

func (k Kind) String() string {
	switch k {
	case KindDomain:
		return "domain"
	case KindGroup:
		return "group"
	case KindDataset:
		return "dataset"
	case KindDatatype:
		return "datatype"
	case KindChunk:
		return "chunk"
	default:
		return "invalid"
	}
}

// Collection returns the plural index name a Kind lives under in the object
// graph ("groups", "datasets", "datatypes", "chunks"). Domain and Invalid
// have no collection.
func (k Kind) Collection() string {
	switch k {
	case KindGroup:
		return "groups"
	case KindDataset:
		return "datasets"
	case KindDatatype:
		return "datatypes"
	case KindChunk:
		return "chunks"
	default:
		return ""
	}
}

// ObjID is a tagged string: a domain path, a UUID-kind object id, or a
// chunk id. Classification is purely syntactic (ClassifyID).
type ObjID string

// uuidPrefixLen is the length of a "<kind letter>-<uuid36>" id, e.g.
// "d-0feed08c-3e75-11ea-b349-0242ac110002" (1 + 1 + 36 = 38 characters).
const uuidPrefixLen = 38

// chunkPrefixLen is the fixed width of a chunk id's dataset-id prefix,
// including the separating '/' — the "fixed 39-character prefix rule".
const chunkPrefixLen = uuidPrefixLen + 1

const uuidBodyLen = 36

// kindLetters maps the leading id byte to its Kind.
var kindLetters = map[byte]Kind{
	'g': KindGroup,
	'd': KindDataset,
	't': KindDatatype,
}

// looksLikeUUIDBody reports whether s is shaped like a canonical
// 8-4-4-4-12 hex UUID: dashes at the four fixed positions and a hex digit
// everywhere else. It does not check the version or variant bits; the id
// space here is internally generated, so a shape check is sufficient and
// keeps this check allocation-free on the hot path.
func looksLikeUUIDBody(s string) bool {
	if len(s) != uuidBodyLen {
		return false
	}
	for i, c := range s {
		switch i {
		case 8, 13, 18, 23:
			if c != '-' {
				return false
			}
		default:
			if !isHex(byte(c)) {
				return false
			}
		}
	}
	return true
}

func isHex(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

// ClassifyID is the total classifier: every id is a Domain, a
// UUID-kind object, a Chunk, or Invalid.
func ClassifyID(id ObjID) Kind {
	s := string(id)
	if s == "" {
		return KindInvalid
	}
	if s[0] == '/' {
		return KindDomain
	}
	if len(s) == uuidPrefixLen && s[1] == '-' {
		if k, ok := kindLetters[s[0]]; ok && looksLikeUUIDBody(s[2:]) {
			return k
		}
		return KindInvalid
	}
	if len(s) > chunkPrefixLen && s[0] == 'd' && s[1] == '-' && s[chunkPrefixLen-1] == '/' {
		dsetPart := s[:uuidPrefixLen]
		coord := s[chunkPrefixLen:]
		if looksLikeUUIDBody(dsetPart[2:]) && isValidCoord(coord) {
			return KindChunk
		}
	}
	return KindInvalid
}

func isValidCoord(coord string) bool {
	if coord == "" {
		return false
	}
	for _, part := range strings.Split(coord, "_") {
		if part == "" {
			return false
		}
		for _, c := range part {
			if c < '0' || c > '9' {
				return false
			}
		}
	}
	return true
}

// IsValidDomain reports whether id is classified as a Domain.
func IsValidDomain(id ObjID) bool { return ClassifyID(id) == KindDomain }

// IsValidUUID reports whether id is classified as a group, dataset, or
// datatype.
func IsValidUUID(id ObjID) bool {
	switch ClassifyID(id) {
	case KindGroup, KindDataset, KindDatatype:
		return true
	default:
		return false
	}
}

// IsValidChunkID reports whether id is classified as a Chunk.
func IsValidChunkID(id ObjID) bool { return ClassifyID(id) == KindChunk }

// KindOf returns the Kind of a UUID-kind id, or KindInvalid if id is not
// one.
func KindOf(id ObjID) Kind {
	k := ClassifyID(id)
	switch k {
	case KindGroup, KindDataset, KindDatatype:
		return k
	default:
		return KindInvalid
	}
}

// CollectionOf returns the global-index collection name for id: "chunks"
// for a chunk id, else the UUID kind's collection.
func CollectionOf(id ObjID) string {
	if IsValidChunkID(id) {
		return "chunks"
	}
	return KindOf(id).Collection()
}

// DatasetOf extracts the parent dataset id from a chunk id by trimming the
// fixed 39-character prefix's trailing coordinate suffix.
func DatasetOf(chunkID ObjID) (ObjID, error) {
	s := string(chunkID)
	if !IsValidChunkID(chunkID) {
		return "", fmt.Errorf("%w: %q is not a chunk id", ErrInvalidID, chunkID)
	}
	return ObjID(s[:uuidPrefixLen]), nil
}

// CoordSuffix returns the coordinate suffix of a chunk id — the chunk id
// with its fixed 39-character dataset-id prefix removed.
func CoordSuffix(chunkID ObjID) string {
	s := string(chunkID)
	if len(s) <= chunkPrefixLen {
		return ""
	}
	return s[chunkPrefixLen:]
}

// KeyOf maps an object id to its object-store key. The mapping is
// bijective within the bucket namespace: domains are stored at their path
// (leading slash stripped), every other kind under the "db/" namespace
// using the id verbatim as the trailing component.
func KeyOf(id ObjID) string {
	s := string(id)
	if ClassifyID(id) == KindDomain {
		return strings.TrimPrefix(s, "/")
	}
	return "db/" + s
}

// DomainKey strips a domain id's leading slash to produce the prefix used
// for its per-domain manifest keys (<domain>/.groups.txt, etc).
func DomainKey(domain ObjID) string {
	return strings.TrimPrefix(string(domain), "/")
}

// dbPrefix is the object-store namespace every non-domain id is stored
// under (see KeyOf).
const dbPrefix = "db/"

// IDFromKey inverts KeyOf: given a raw object-store key observed during a
// listing pass, it recovers the tagged ObjID the key was derived from.
// Manifest keys (anything containing "/.") are not object ids and are
// reported via ok=false so the Lister can skip them.
func IDFromKey(key string) (id ObjID, ok bool) {
	if strings.HasPrefix(key, dbPrefix) {
		return ObjID(strings.TrimPrefix(key, dbPrefix)), true
	}
	if strings.Contains(key, "/.") {
		return "", false
	}
	return ObjID("/" + key), true
}
