package shared

import "strings"

// CommunityID identifies an isolated community (one chat server).
// Every hierarchy and every member record belongs to exactly one community.
type CommunityID string

// IsValid reports whether the community ID is non-empty.
func (c CommunityID) IsValid() bool {
	return strings.TrimSpace(string(c)) != ""
}

// String returns the string representation of the community ID.
func (c CommunityID) String() string {
	return string(c)
}

// MemberID identifies a member inside a community. The value is an opaque
// handle assigned by the chat platform.
type MemberID string

// IsValid reports whether the member ID is non-empty.
func (m MemberID) IsValid() bool {
	return strings.TrimSpace(string(m)) != ""
}

// String returns the string representation of the member ID.
func (m MemberID) String() string {
	return string(m)
}

// RoleID is an opaque handle to a collaborator-managed grouping (e.g. a
// platform role) associated 1:1 with a rank. The engine never mutates the
// grouping itself; it only hands the ID back to the caller.
type RoleID string

// String returns the string representation of the role ID.
func (r RoleID) String() string {
	return string(r)
}
