package entity

import (
	"sort"
	"strings"

	"github.com/google/uuid"
)

var (
	chatNamespace = uuid.MustParse("5d0c3b5e-54c4-4a63-9d43-0d4a8f6d8a11")
	slotNamespace = uuid.MustParse("a3f1e0b2-7c6d-4b8e-9f10-2e3d4c5b6a79")
)

// ChatIDFor derives the chat id of an unordered identity pair, so the pair
// maps to exactly one document.
func ChatIDFor(a, b string) string {
	pair := []string{NormalizeIdentity(a), NormalizeIdentity(b)}
	sort.Strings(pair)
	return uuid.NewSHA1(chatNamespace, []byte(pair[0]+"\x00"+pair[1])).String()
}

// SlotID derives the document id of a (resource, date, time) tuple.
func SlotID(resourceID, date, time string) string {
	return uuid.NewSHA1(slotNamespace, []byte(resourceID+"\x00"+date+"\x00"+time)).String()
}

// NormalizeIdentity is the canonical form of an email identity.
func NormalizeIdentity(identity string) string {
	return strings.ToLower(strings.TrimSpace(identity))
}
