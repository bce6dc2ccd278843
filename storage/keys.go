package storage

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Key layout
//
//	singleton slot:  <namespace>
//	set entry:       <len16(namespace)><namespace><member>
//	pair entry:      <len16(namespace)><namespace><len16(first)><first><second>
//
// Length prefixes keep collections apart from singletons and make a prefix
// scan over <first> return exactly the entries whose first component matches,
// ordered by second.

// SlotKey is the key of a singleton slot.
func SlotKey(namespace string) []byte {
	return []byte(namespace)
}

// CollectionPrefix is the prefix shared by every entry of a set or pair collection.
func CollectionPrefix(namespace string) []byte {
	return appendLengthPrefixed(nil, namespace)
}

// SetKey is the key of member in the set collection namespace.
func SetKey(namespace, member string) []byte {
	return append(CollectionPrefix(namespace), member...)
}

// SetMember extracts the member from a SetKey.
func SetMember(namespace string, key []byte) (string, error) {
	prefix := CollectionPrefix(namespace)
	if len(key) < len(prefix) || string(key[:len(prefix)]) != string(prefix) {
		return "", fmt.Errorf("key %x is outside namespace %q", key, namespace)
	}
	return string(key[len(prefix):]), nil
}

// PairPrefix is the prefix of every pair entry whose first component is first.
func PairPrefix(namespace, first string) []byte {
	return appendLengthPrefixed(CollectionPrefix(namespace), first)
}

// PairKey is the key of the (first, second) entry in namespace.
func PairKey(namespace, first, second string) []byte {
	return append(PairPrefix(namespace, first), second...)
}

// splitPairKey is the inverse of PairKey.
func splitPairKey(namespace string, key []byte) (first, second string, err error) {
	prefix := CollectionPrefix(namespace)
	if len(key) < len(prefix) || string(key[:len(prefix)]) != string(prefix) {
		return "", "", fmt.Errorf("key %x is outside namespace %q", key, namespace)
	}
	rest := key[len(prefix):]
	if len(rest) < 2 {
		return "", "", fmt.Errorf("key %x is truncated", key)
	}
	n := int(binary.BigEndian.Uint16(rest))
	rest = rest[2:]
	if len(rest) < n {
		return "", "", fmt.Errorf("key %x is truncated", key)
	}
	return string(rest[:n]), string(rest[n:]), nil
}

func appendLengthPrefixed(dst []byte, s string) []byte {
	if len(s) > math.MaxUint16 {
		panic(fmt.Sprintf("storage: key component of %d bytes exceeds %d", len(s), math.MaxUint16))
	}
	dst = binary.BigEndian.AppendUint16(dst, uint16(len(s)))
	return append(dst, s...)
}
